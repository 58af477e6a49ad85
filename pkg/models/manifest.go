package models

// Manifest discovery method types as reported in manifest_json
const (
	MethodWellKnown = ".well-known"
	MethodDNSTXT    = "DNS_TXT"
)

// VerificationStatus is the outcome of looking for a manifest with one method on one domain
type VerificationStatus string

const (
	// StatusFound means a valid manifest was found
	StatusFound VerificationStatus = "found"
	// StatusNotFound means the domain was searched and no manifest was there
	StatusNotFound VerificationStatus = "not_found"
	// StatusNotSearched means the search has not reached this domain yet
	StatusNotSearched VerificationStatus = "not_searched"
)

// ManifestMethod is one domain/method combination tried during manifest discovery,
// in search order.
type ManifestMethod struct {
	Domain *string `json:"domain"`
	Type   string  `json:"type"`
	Check  *bool   `json:"check"`
	Path   *string `json:"path,omitempty"`
}

// Status maps the tri-state check flag to a verification status
func (m ManifestMethod) Status() VerificationStatus {
	switch {
	case m.Check == nil:
		return StatusNotSearched
	case *m.Check:
		return StatusFound
	default:
		return StatusNotFound
	}
}

// MethodLabel is the human-readable name of the discovery method
func (m ManifestMethod) MethodLabel() string {
	if m.Type == MethodWellKnown || m.Type == "WELL_KNOWN" {
		return MethodWellKnown
	}
	return "DNS TXT"
}

// DomainName returns the searched domain or an empty string
func (m ManifestMethod) DomainName() string {
	if m.Domain == nil {
		return ""
	}
	return *m.Domain
}

// ManifestPath returns the location the manifest was found at, if any
func (m ManifestMethod) ManifestPath() string {
	if m.Path == nil || m.Status() != StatusFound {
		return ""
	}
	return *m.Path
}
