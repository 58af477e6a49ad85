package mocks

import (
	"time"

	"github.com/qualitylink/qldash/pkg/models"
)

// Fixture ids
const (
	OxfordUUID        = "2b6a6c1e-8f1a-4f7e-9d64-0f6c8c7c1a11"
	OxfordVersionUUID = "5d0b7c2a-3a4e-4f0e-8d1b-9f4f1d3e2a22"
	CoursesSourceUUID = "9a1f4e3c-6b2d-4c5e-8a7f-1e2d3c4b5a33"
	StaffSourceUUID   = "0c9e8d7f-1a2b-4c3d-9e8f-7a6b5c4d3e44"
	BrookesUUID       = "7e5d4c3b-2a19-4f8e-b7d6-c5b4a3921055"

	CoursesSourcePath = "https://www.ox.ac.uk/data/courses.json"
	StaffSourcePath   = "https://www.ox.ac.uk/data/staff.csv"
)

func ptr[T any](v T) *T {
	return &v
}

func day(s string) models.Timestamp {
	t, _ := time.Parse("2006-01-02 15:04", s)
	return models.Timestamp{Time: t.UTC()}
}

// OxfordProvider is a provider with a found manifest, one source version and
// two sources. The courses source has two harvest dates, the staff source none.
func OxfordProvider() *AggregatorProvider {
	return &AggregatorProvider{
		Details: models.ProviderDetails{
			ProviderUUID: OxfordUUID,
			ProviderName: "University of Oxford",
			DeqarID:      "DEQARINST0001",
			EterID:       "UK0001",
			Metadata: models.ProviderMetadata{
				City:        []string{"Oxford"},
				Country:     []string{"United Kingdom"},
				NamePrimary: "University of Oxford",
				WebsiteLink: "https://www.ox.ac.uk",
				Names:       []models.ProviderName{{NameOfficial: "The Chancellor, Masters and Scholars of the University of Oxford"}},
				Identifiers: []models.ProviderIdentifier{{Resource: "SCHAC", Identifier: "ox.ac.uk"}},
			},
			ManifestJSON: []models.ManifestMethod{
				{Domain: ptr("ox.ac.uk"), Type: models.MethodWellKnown, Check: ptr(true), Path: ptr("https://ox.ac.uk/.well-known/quality-link-manifest")},
				{Domain: ptr("ox.ac.uk"), Type: models.MethodDNSTXT, Check: nil},
			},
			CreatedAt:        day("2025-01-10 09:00"),
			LastManifestPull: day("2025-09-20 14:05"),
		},
		Version: &models.SourceVersion{
			SourceVersionUUID: OxfordVersionUUID,
			ProviderUUID:      OxfordUUID,
			VersionID:         1,
			VersionDate:       day("2025-09-20 14:05"),
		},
		Sources: []models.Source{
			{SourceUUID: CoursesSourceUUID, SourceVersionUUID: OxfordVersionUUID, SourcePath: CoursesSourcePath, SourceType: "ooapi", CreatedAt: day("2025-09-20 14:05")},
			{SourceUUID: StaffSourceUUID, SourceVersionUUID: OxfordVersionUUID, SourcePath: StaffSourcePath, SourceName: ptr("Staff"), SourceType: "csv", CreatedAt: day("2025-09-20 14:05")},
		},
		Harvests: map[string]map[string][]models.DatalakeFile{
			CoursesSourceUUID: {
				"2025-09-19": {
					{Filename: "courses-0919.json", FullPath: "ox/courses/2025-09-19/courses-0919.json", Size: 12, LastModified: day("2025-09-19 08:00")},
				},
				"2025-09-20": {
					{Filename: "courses-0920a.json", FullPath: "ox/courses/2025-09-20/courses-0920a.json", Size: 12, LastModified: day("2025-09-20 08:00")},
					{Filename: "courses-0920b.json", FullPath: "ox/courses/2025-09-20/courses-0920b.json", Size: 14, LastModified: day("2025-09-20 16:00"), PushStatus: true},
				},
			},
		},
		Discovery: Discovery{ManifestURL: "https://ox.ac.uk/.well-known/quality-link-manifest"},
	}
}

// BrookesProvider is a provider whose manifest was never found, with no source version
func BrookesProvider() *AggregatorProvider {
	return &AggregatorProvider{
		Details: models.ProviderDetails{
			ProviderUUID: BrookesUUID,
			ProviderName: "Oxford Brookes University",
			EterID:       "UK0042",
			Metadata: models.ProviderMetadata{
				City:        []string{"Oxford"},
				Country:     []string{"United Kingdom"},
				WebsiteLink: "https://www.brookes.ac.uk",
			},
			ManifestJSON: []models.ManifestMethod{
				{Domain: ptr("brookes.ac.uk"), Type: models.MethodWellKnown, Check: ptr(false)},
				{Domain: ptr("brookes.ac.uk"), Type: models.MethodDNSTXT, Check: ptr(false)},
			},
			CreatedAt: day("2025-01-10 09:00"),
		},
	}
}

// Populate adds both fixture providers and the content of the courses files
func Populate(a *Aggregator) {
	a.AddProvider(OxfordProvider())
	a.AddProvider(BrookesProvider())
	a.AddFile("ox/courses/2025-09-19/courses-0919.json", []byte(`{"courses":[]}`))
	a.AddFile("ox/courses/2025-09-20/courses-0920a.json", []byte(`{"courses":[1]}`))
	a.AddFile("ox/courses/2025-09-20/courses-0920b.json", []byte(`{"courses":[1,2]}`))
}
