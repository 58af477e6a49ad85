package models

// Provider is the identity record of a higher-education institution
type Provider struct {
	ProviderUUID string     `json:"provider_uuid"`
	ProviderName string     `json:"provider_name"`
	DeqarID      string     `json:"deqar_id"`
	EterID       FlexibleID `json:"eter_id"`
}

// ProviderName is one of the registered names of an institution
type ProviderName struct {
	Acronym                    string  `json:"acronym"`
	NameEnglish                string  `json:"name_english"`
	NameOfficial               string  `json:"name_official"`
	NameOfficialTransliterated string  `json:"name_official_transliterated"`
	NameValidTo                *string `json:"name_valid_to"`
}

// ProviderIdentifier is an identifier of the institution in another registry
type ProviderIdentifier struct {
	Agency     *string `json:"agency"`
	Resource   string  `json:"resource"`
	Identifier string  `json:"identifier"`
}

// ProviderMetadata is the registry metadata the aggregator keeps for an institution.
// Only the fields the dashboard reads are mapped.
type ProviderMetadata struct {
	ID               int                  `json:"id"`
	City             []string             `json:"city"`
	Country          []string             `json:"country"`
	Names            []ProviderName       `json:"names"`
	Identifiers      []ProviderIdentifier `json:"identifiers"`
	NamePrimary      string               `json:"name_primary"`
	WebsiteLink      string               `json:"website_link"`
	FoundingDate     string               `json:"founding_date"`
	ClosureDate      *string              `json:"closure_date"`
	OrganizationType *string              `json:"organization_type"`
	DeqarID          string               `json:"deqar_id"`
	EterID           FlexibleID           `json:"eter_id"`
	Permalink        string               `json:"permalink,omitempty"`
	QFEHEALevels     []string             `json:"qf_ehea_levels,omitempty"`
}

// OfficialName returns the first official name, falling back to the given default
func (m ProviderMetadata) OfficialName(fallback string) string {
	if len(m.Names) > 0 && m.Names[0].NameOfficial != "" {
		return m.Names[0].NameOfficial
	}
	return fallback
}

// ProviderDetails is the full record of a single provider
type ProviderDetails struct {
	ProviderUUID     string           `json:"provider_uuid"`
	DeqarID          string           `json:"deqar_id"`
	EterID           FlexibleID       `json:"eter_id"`
	Metadata         ProviderMetadata `json:"metadata"`
	ManifestJSON     []ManifestMethod `json:"manifest_json"`
	NameConcat       string           `json:"name_concat"`
	ProviderName     string           `json:"provider_name"`
	LastDeqarPull    Timestamp        `json:"last_deqar_pull"`
	LastManifestPull Timestamp        `json:"last_manifest_pull"`
	CreatedAt        Timestamp        `json:"created_at"`
	UpdatedAt        Timestamp        `json:"updated_at"`
}

// LastUpdated is the last manifest pull, or the creation time if no pull happened yet
func (p ProviderDetails) LastUpdated() Timestamp {
	if !p.LastManifestPull.IsZero() {
		return p.LastManifestPull
	}
	return p.CreatedAt
}
