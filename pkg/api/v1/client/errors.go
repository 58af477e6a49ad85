package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// StatusTooManyRequestsLock is what the aggregator answers while a provider is
// already being processed.
const StatusTooManyRequestsLock = http.StatusLocked

// StatusOutdatedVersion is what the aggregator answers when a queue request names
// a source version that is no longer the latest one.
const StatusOutdatedVersion = http.StatusUpgradeRequired

// HTTPError is returned for any non-2xx response of the aggregator.
// Body holds the raw response body; Detail is the human-readable message
// extracted from a JSON error body when there is one.
type HTTPError struct {
	StatusCode int
	Body       string
	Detail     string
}

// Error implements error
func (e *HTTPError) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = strings.TrimSpace(e.Body)
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("aggregator returned %d: %s", e.StatusCode, msg)
}

// newHTTPError builds an HTTPError, pulling "detail" or "message" out of a JSON body
func newHTTPError(statusCode int, body []byte) *HTTPError {
	httpErr := &HTTPError{
		StatusCode: statusCode,
		Body:       string(body),
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return httpErr
	}
	for _, key := range []string{"detail", "message"} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			httpErr.Detail = s
			return httpErr
		}
	}
	return httpErr
}

// TransportError is returned when the request failed before any HTTP status was received
type TransportError struct {
	Method   string
	Endpoint string
	Err      error
}

// Error implements error
func (e *TransportError) Error() string {
	return fmt.Sprintf("error sending request %s %s: %v", e.Method, e.Endpoint, e.Err)
}

// Unwrap returns the underlying network error
func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status carried by err, if any
func StatusCode(err error) (int, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode, true
	}
	return 0, false
}

// IsLocked reports whether err is the aggregator's "provider busy" response
func IsLocked(err error) bool {
	code, ok := StatusCode(err)
	return ok && code == StatusTooManyRequestsLock
}

// IsOutdated reports whether err is the aggregator's "outdated source version" response
func IsOutdated(err error) bool {
	code, ok := StatusCode(err)
	return ok && code == StatusOutdatedVersion
}

// IsNotFound reports whether err is a 404 response
func IsNotFound(err error) bool {
	code, ok := StatusCode(err)
	return ok && code == http.StatusNotFound
}

// IsTransport reports whether err is a network-level failure
func IsTransport(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}

// Messages shown for the aggregator's special statuses
const (
	MessageLocked   = "Too many requests: this provider is currently being processed. Please try again later."
	MessageOutdated = "Outdated source version: reload the dashboard to retrieve the latest configuration."
)

// Describe turns err into the message shown to the user. fallback is used
// when err carries no text of its own.
func Describe(err error, fallback string) string {
	switch {
	case err == nil:
		return ""
	case IsLocked(err):
		return MessageLocked
	case IsOutdated(err):
		return MessageOutdated
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
