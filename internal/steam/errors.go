package steam

import (
	"errors"
	"fmt"
)

var (
	ErrRateLimited      = errors.New("steam API rate limited")
	ErrUnauthorized     = errors.New("unauthorized (401) - check your Steam API key")
	ErrForbidden        = errors.New("forbidden (403) - check your Steam API key and profile privacy")
	ErrBadRequest       = errors.New("bad request (400)")
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrHTMLResponse     = errors.New("received HTML instead of JSON")
	ErrNotConfigured    = errors.New("steam credentials are not configured")
)

// TransportError is a failed round trip: the request could not be sent,
// the response had a non-200 status, or the body was unusable.
type TransportError struct {
	URL        string // key redacted
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("GET %s failed with status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("GET %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
