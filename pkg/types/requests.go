// Package types defines the request parameters and response envelopes of the aggregator API
package types

import (
	"fmt"
	"net/url"
	"strconv"
)

const (
	// DefaultPage is the first page of a paginated listing
	DefaultPage = 1
	// DefaultPageSize is the aggregator's default page size
	DefaultPageSize = 10
	// MaxPageSize is the largest page the aggregator accepts
	MaxPageSize = 100
)

// SearchProvidersParams are the query parameters of get_all_providers
type SearchProvidersParams struct {
	SearchProvider string `json:"search_provider,omitempty"`
	Page           int    `json:"page"`
	PageSize       int    `json:"page_size"`
}

// Query converts the params to url.Values, applying defaults
func (p SearchProvidersParams) Query() (url.Values, error) {
	page := p.Page
	if page == 0 {
		page = DefaultPage
	}
	pageSize := p.PageSize
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		return nil, fmt.Errorf("page must be a positive number from 1")
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		return nil, fmt.Errorf("page size must be between 1 and %d", MaxPageSize)
	}

	q := url.Values{}
	if p.SearchProvider != "" {
		q.Set("search_provider", p.SearchProvider)
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))
	return q, nil
}

// SourceRef identifies a data source within a provider's source version
type SourceRef struct {
	ProviderUUID      string `json:"provider_uuid"`
	SourceVersionUUID string `json:"source_version_uuid"`
	SourceUUID        string `json:"source_uuid"`
}

// Query converts the reference to url.Values
func (r SourceRef) Query() url.Values {
	q := url.Values{}
	q.Set("provider_uuid", r.ProviderUUID)
	q.Set("source_version_uuid", r.SourceVersionUUID)
	q.Set("source_uuid", r.SourceUUID)
	return q
}

// DatalakeDatesParams are the query parameters of list_datalake_dates
type DatalakeDatesParams struct {
	SourceRef
}

// DatalakeFilesParams are the query parameters of list_datalake_files.
// An empty Date lets the aggregator pick the latest harvested date.
type DatalakeFilesParams struct {
	SourceRef
	SourcePath string `json:"source_path"`
	Date       string `json:"date,omitempty"`
}

// Query converts the params to url.Values
func (p DatalakeFilesParams) Query() url.Values {
	q := p.SourceRef.Query()
	q.Set("source_path", p.SourcePath)
	if p.Date != "" {
		q.Set("date", p.Date)
	}
	return q
}

// QueueProviderDataParams are the query parameters of queue_provider_data
type QueueProviderDataParams struct {
	SourceRef
	SourcePath string `json:"source_path"`
}

// Query converts the params to url.Values
func (p QueueProviderDataParams) Query() url.Values {
	q := p.SourceRef.Query()
	q.Set("source_path", p.SourcePath)
	return q
}

// DownloadParams are the query parameters of download_datalake_file
type DownloadParams struct {
	FilePath string `json:"file_path"`
	Preview  bool   `json:"preview"`
}

// Query converts the params to url.Values
func (p DownloadParams) Query() url.Values {
	q := url.Values{}
	q.Set("file_path", p.FilePath)
	q.Set("preview", strconv.FormatBool(p.Preview))
	return q
}
