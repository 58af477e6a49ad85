package types

import (
	"github.com/qualitylink/qldash/pkg/models"
)

// SearchProvidersResponse is the paginated result of get_all_providers
type SearchProvidersResponse struct {
	Response   []models.Provider `json:"response"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

// GetProviderResponse is a provider with its latest source version and sources.
// SourceVersion is nil when no manifest was ever processed.
type GetProviderResponse struct {
	Provider      models.ProviderDetails `json:"provider"`
	SourceVersion *models.SourceVersion  `json:"source_version"`
	Sources       []models.Source        `json:"sources"`
}

// SourceVersionUUID returns the latest source version id, or "" if there is none
func (r GetProviderResponse) SourceVersionUUID() string {
	if r.SourceVersion == nil {
		return ""
	}
	return r.SourceVersion.SourceVersionUUID
}

// DatalakeDatesResponse lists the harvest dates of a source, newest first
type DatalakeDatesResponse struct {
	Status     string   `json:"status"`
	Message    string   `json:"message"`
	Dates      []string `json:"dates"`
	LatestDate *string  `json:"latest_date,omitempty"`
	Count      int      `json:"count"`
}

// Latest returns the latest harvest date, falling back to the first listed date
func (r DatalakeDatesResponse) Latest() string {
	if r.LatestDate != nil && *r.LatestDate != "" {
		return *r.LatestDate
	}
	if len(r.Dates) > 0 {
		return r.Dates[0]
	}
	return ""
}

// DatalakeFilesParamsEcho is the parameter block the aggregator echoes back
type DatalakeFilesParamsEcho struct {
	ProviderUUID      string `json:"provider_uuid"`
	SourceVersionUUID string `json:"source_version_uuid"`
	SourceUUID        string `json:"source_uuid"`
	Date              string `json:"date"`
	DateSource        string `json:"date_source"`
}

// DatalakeFilesResponse lists the harvested files of a source for one date,
// ordered oldest to newest.
type DatalakeFilesResponse struct {
	Status             string                  `json:"status"`
	Message            string                  `json:"message"`
	Params             DatalakeFilesParamsEcho `json:"params"`
	Files              []models.DatalakeFile   `json:"files"`
	Count              int                     `json:"count"`
	LastFilePushed     *string                 `json:"last_file_pushed"`
	LastFilePushedDate *string                 `json:"last_file_pushed_date"`
	LastFilePushedPath *string                 `json:"last_file_pushed_path"`
}

// PullManifestResponse is the outcome of re-running manifest discovery
type PullManifestResponse struct {
	Status                  string                  `json:"status"`
	ProviderUUID            string                  `json:"provider_uuid"`
	Domain                  string                  `json:"domain"`
	ManifestURL             *string                 `json:"manifest_url"`
	ManifestFound           bool                    `json:"manifest_found"`
	ManifestJSON            []models.ManifestMethod `json:"manifest_json"`
	SourcesProcessed        bool                    `json:"sources_processed"`
	NewSourceVersionCreated bool                    `json:"new_source_version_created"`
}

// QueueProviderDataResponse acknowledges a harvest request
type QueueProviderDataResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Queue   string `json:"queue,omitempty"`
}

// DownloadedFile is the raw content of a datalake file
type DownloadedFile struct {
	Filename    string
	ContentType string
	Data        []byte
}
