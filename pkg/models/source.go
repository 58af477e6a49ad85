package models

import (
	"net/url"
	"path"
	"strings"
)

// SourceEntry is a data source as declared in the manifest snapshot
type SourceEntry struct {
	Path       string `json:"path"`
	Type       string `json:"type"`
	Version    string `json:"version"`
	SourceUUID string `json:"source_uuid,omitempty"`
}

// SourceVersion groups the data sources discovered in one manifest pull
type SourceVersion struct {
	SourceVersionUUID string        `json:"source_version_uuid"`
	ProviderUUID      string        `json:"provider_uuid"`
	VersionDate       Timestamp     `json:"version_date"`
	VersionID         int           `json:"version_id"`
	SourceJSON        []SourceEntry `json:"source_json"`
	SourceUUIDJSON    []SourceEntry `json:"source_uuid_json"`
	CreatedAt         Timestamp     `json:"created_at"`
	UpdatedAt         Timestamp     `json:"updated_at"`
}

// Source is one data source declared in a manifest
type Source struct {
	SourceUUID        string    `json:"source_uuid"`
	SourceVersionUUID string    `json:"source_version_uuid"`
	SourcePath        string    `json:"source_path"`
	SourceName        *string   `json:"source_name,omitempty"`
	SourceType        string    `json:"source_type"`
	SourceVersion     string    `json:"source_version"`
	CreatedAt         Timestamp `json:"created_at"`
	UpdatedAt         Timestamp `json:"updated_at"`
}

// DisplayName is the declared source name, else the last segment of the
// source URL path, else the raw source path.
func (s Source) DisplayName() string {
	if s.SourceName != nil && *s.SourceName != "" {
		return *s.SourceName
	}
	if u, err := url.Parse(s.SourcePath); err == nil && u.Path != "" {
		if base := path.Base(strings.TrimSuffix(u.Path, "/")); base != "." && base != "/" && base != "" {
			return base
		}
	}
	return s.SourcePath
}

// DatalakeFile is one harvested snapshot of a data source
type DatalakeFile struct {
	FullPath     string    `json:"full_path"`
	Filename     string    `json:"filename"`
	Size         int64     `json:"size"`
	LastModified Timestamp `json:"last_modified"`
	PushStatus   bool      `json:"push_status"`
}
