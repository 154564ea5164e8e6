package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrModelUnavailable indicates that no backing model binding is configured
// for the requested capability. It is a configuration problem, not a remote
// failure, and is never worth retrying.
var ErrModelUnavailable = errors.New("model binding not configured")

// errEmptyCompletion marks a call that succeeded at the transport level but
// returned no usable text payload.
var errEmptyCompletion = errors.New("completion returned no text content")

// ModelError wraps a failed remote completion call with whatever metadata
// could be recovered from the provider error.
type ModelError struct {
	Provider   string // "anthropic", "openai", ...
	Err        error
	HTTPStatus int // 0 if unknown
}

func (e *ModelError) Error() string {
	if e.HTTPStatus > 0 {
		return fmt.Sprintf("%s completion failed (status %d): %v", e.Provider, e.HTTPStatus, e.Err)
	}
	return fmt.Sprintf("%s completion failed: %v", e.Provider, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// IsModelFailure reports whether err is any gateway-layer failure, either a
// missing binding or a failed remote call. The analysis dispatcher uses this
// to distinguish an unreachable model from an unusable payload when it
// phrases a failed aspect's sentinel finding.
func IsModelFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrModelUnavailable) {
		return true
	}
	var me *ModelError
	return errors.As(err, &me)
}

// wrapProviderError converts a raw SDK error into a *ModelError, extracting
// the HTTP status from the error text when the SDK does not expose it as a
// typed field.
func wrapProviderError(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &ModelError{
		Provider:   provider,
		Err:        err,
		HTTPStatus: extractHTTPStatus(err),
	}
}

// extractHTTPStatus scans an error message for a known status code. Both
// SDKs in use flatten the response status into the error string.
func extractHTTPStatus(err error) int {
	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "429"):
		return http.StatusTooManyRequests
	case strings.Contains(errStr, "500"):
		return http.StatusInternalServerError
	case strings.Contains(errStr, "502"):
		return http.StatusBadGateway
	case strings.Contains(errStr, "503"):
		return http.StatusServiceUnavailable
	case strings.Contains(errStr, "504"):
		return http.StatusGatewayTimeout
	case strings.Contains(errStr, "401"):
		return http.StatusUnauthorized
	case strings.Contains(errStr, "403"):
		return http.StatusForbidden
	case strings.Contains(errStr, "400"):
		return http.StatusBadRequest
	case strings.Contains(errStr, "402"):
		return http.StatusPaymentRequired
	}
	return 0
}
