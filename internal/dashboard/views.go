package dashboard

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/samber/lo"

	"github.com/qualitylink/qldash/internal/sources"
	"github.com/qualitylink/qldash/pkg/models"
)

// View is the render-ready summary of a provider's dashboard
type View struct {
	ProviderUUID  string      `json:"provider_uuid"`
	Name          string      `json:"name"`
	OfficialName  string      `json:"official_name"`
	DeqarID       string      `json:"deqar_id"`
	EterID        string      `json:"eter_id"`
	Website       string      `json:"website"`
	WebsiteHost   string      `json:"website_host"`
	Location      string      `json:"location"`
	Identifiers   []string    `json:"identifiers"`
	Domains       []DomainRow `json:"domains"`
	Sources       []SourceRow `json:"sources"`
	LastUpdated   string      `json:"last_updated"`
	VersionUUID   string      `json:"source_version_uuid,omitempty"`
	VersionID     int         `json:"version_id,omitempty"`
	VersionDate   string      `json:"version_date,omitempty"`
	CanRefresh    bool        `json:"can_refresh"`
	ManifestFound bool        `json:"manifest_found"`
}

// DomainRow is one domain/method tried during manifest discovery
type DomainRow struct {
	Domain       string                    `json:"domain"`
	Method       string                    `json:"method"`
	Status       models.VerificationStatus `json:"status"`
	Message      string                    `json:"message"`
	ManifestPath string                    `json:"manifest_path,omitempty"`
}

// SourceRow is one data source with whatever listing has been fetched
type SourceRow struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	Type         string    `json:"type"`
	Created      string    `json:"created"`
	Expanded     bool      `json:"expanded"`
	Loaded       bool      `json:"loaded"`
	Dates        []string  `json:"dates,omitempty"`
	SelectedDate string    `json:"selected_date,omitempty"`
	LatestFile   string    `json:"latest_file"`
	Latest       *FileRow  `json:"latest,omitempty"`
	Files        []FileRow `json:"files"`
	CanQueue     bool      `json:"can_queue"`
}

// FileRow is one harvested file
type FileRow struct {
	Filename  string `json:"filename"`
	FullPath  string `json:"full_path"`
	Size      int64  `json:"size"`
	Timestamp string `json:"timestamp"`
	// Pushed marks the latest file, the one promoted to the public catalogue
	Pushed bool `json:"pushed"`
}

// StatusMessage is the text shown next to a verification status
func StatusMessage(s models.VerificationStatus) string {
	switch s {
	case models.StatusFound:
		return "Manifest found"
	case models.StatusNotFound:
		return "Manifest not found"
	default:
		return "Not searched yet"
	}
}

// View builds the render-ready summary of the loaded provider
func (d *Dashboard) View() (View, error) {
	data, ok := d.Data()
	if !ok {
		return View{}, ErrNotLoaded
	}
	p := data.Provider
	meta := p.Metadata

	host := websiteHost(meta.WebsiteLink)
	v := View{
		ProviderUUID: p.ProviderUUID,
		Name:         lo.Ternary(p.ProviderName != "", p.ProviderName, meta.NamePrimary),
		OfficialName: meta.OfficialName(p.ProviderName),
		DeqarID:      lo.Ternary(p.DeqarID != "", p.DeqarID, meta.DeqarID),
		EterID:       lo.Ternary(p.EterID != "", p.EterID, meta.EterID).String(),
		Website:      meta.WebsiteLink,
		WebsiteHost:  host,
		Location:     strings.Join(lo.Compact(append(append([]string{}, meta.City...), meta.Country...)), ", "),
		Identifiers:  Identifiers(meta),
		Domains:      DomainRows(p.ManifestJSON, host),
		LastUpdated:  p.LastUpdated().DisplayDateTime(),
		CanRefresh:   d.refresh.Enabled(),
	}
	v.ManifestFound = lo.ContainsBy(p.ManifestJSON, func(m models.ManifestMethod) bool {
		return m.Status() == models.StatusFound
	})
	if sv := data.SourceVersion; sv != nil {
		v.VersionUUID = sv.SourceVersionUUID
		v.VersionID = sv.VersionID
		v.VersionDate = sv.VersionDate.DisplayDate()
	}

	expander := d.Expander()
	v.Sources = lo.Map(data.Sources, func(src models.Source, _ int) SourceRow {
		row := sourceRow(src, expander)
		row.CanQueue = v.VersionUUID != "" && d.QueueTrigger(src.SourceUUID).Enabled()
		return row
	})
	return v, nil
}

// Identifiers formats the registry identifiers as "<resource>: <identifier>"
func Identifiers(meta models.ProviderMetadata) []string {
	return lo.FilterMap(meta.Identifiers, func(id models.ProviderIdentifier, _ int) (string, bool) {
		if id.Identifier == "" {
			return "", false
		}
		return fmt.Sprintf("%s: %s", id.Resource, id.Identifier), true
	})
}

// DomainRows maps manifest discovery attempts to verification rows, in search order
func DomainRows(methods []models.ManifestMethod, fallbackHost string) []DomainRow {
	return lo.Map(methods, func(m models.ManifestMethod, _ int) DomainRow {
		status := m.Status()
		return DomainRow{
			Domain:       lo.Ternary(m.DomainName() != "", m.DomainName(), fallbackHost),
			Method:       m.MethodLabel(),
			Status:       status,
			Message:      StatusMessage(status),
			ManifestPath: m.ManifestPath(),
		}
	})
}

func sourceRow(src models.Source, expander *sources.Expander) SourceRow {
	row := SourceRow{
		ID:         src.SourceUUID,
		Name:       src.DisplayName(),
		Path:       src.SourcePath,
		Type:       strings.ToUpper(src.SourceType),
		Created:    src.CreatedAt.DisplayDate(),
		LatestFile: src.DisplayName(),
		Files:      []FileRow{},
	}
	if expander == nil {
		return row
	}

	row.Expanded = expander.IsExpanded(src.SourceUUID)
	entry, ok := expander.Entry(src.SourceUUID)
	if !ok {
		return row
	}
	row.Loaded = true
	row.Dates = entry.Dates
	row.SelectedDate = entry.SelectedDate

	last := len(entry.Files) - 1
	row.Files = lo.Map(entry.Files, func(f models.DatalakeFile, i int) FileRow {
		return FileRow{
			Filename:  f.Filename,
			FullPath:  f.FullPath,
			Size:      f.Size,
			Timestamp: f.LastModified.DisplayDateTime(),
			Pushed:    i == last,
		}
	})
	if last >= 0 {
		latest := row.Files[last]
		row.Latest = &latest
		row.LatestFile = latest.Filename
	}
	return row
}

func websiteHost(link string) string {
	if link == "" {
		return "N/A"
	}
	u, err := url.Parse(link)
	if err != nil || u.Hostname() == "" {
		return "N/A"
	}
	return u.Hostname()
}
