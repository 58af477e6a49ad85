package dashboard

import (
	"errors"

	"github.com/qualitylink/qldash/pkg/api/v1/client"
)

var (
	// ErrNoProvider is returned when a dashboard is opened without a provider id
	ErrNoProvider = errors.New("No provider ID provided")
	// ErrNotLoaded is returned by actions that need provider details first
	ErrNotLoaded = errors.New("provider details not loaded")
	// ErrNoSourceVersion is returned when the provider has no processed manifest yet
	ErrNoSourceVersion = errors.New("provider has no source version")
	// ErrUnknownSource is returned for a source id the provider does not declare
	ErrUnknownSource = errors.New("unknown data source")
	// ErrMissingFilePath is returned by file actions invoked without a full path
	ErrMissingFilePath = errors.New("File path not available for this file")
	// ErrTriggerDisabled is returned while an action is running or cooling down
	ErrTriggerDisabled = errors.New("action is temporarily disabled")
)

// Describe normalises err to the message shown to the user
func Describe(err error) string {
	return client.Describe(err, "Something went wrong")
}
