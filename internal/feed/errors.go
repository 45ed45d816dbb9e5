package feed

import (
	"errors"
	"fmt"
)

// ErrNoData marks a 404 from an upstream feed: the window has no data.
// Callers treat it as an empty result set, never a failure.
var ErrNoData = errors.New("no upstream data")

// StatusError reports a non-200, non-404 upstream response, or a
// transport failure (Err set, StatusCode zero).
type StatusError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("expected 200 response code but got %d when calling %s", e.StatusCode, e.URL)
}

func (e *StatusError) Unwrap() error { return e.Err }

// DecodeError reports an upstream body that was not valid JSON.
type DecodeError struct {
	URL         string
	ContentType string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("expected a JSON response from %s but got %s", e.URL, e.ContentType)
}

// LookupError reports required reference data missing upstream, e.g. a
// filesystem name with no id. Fatal; never substituted with a default.
type LookupError struct {
	Name string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("data problem: no match found for filesystem name=%q, cannot continue without it", e.Name)
}

// IsProcessingFailure reports whether err is the class of upstream
// failure the orchestrator turns into a failed run result. NECTAR and
// Tango ingestion tolerate exactly this class.
func IsProcessingFailure(err error) bool {
	var statusErr *StatusError
	var decodeErr *DecodeError
	var lookupErr *LookupError
	return errors.As(err, &statusErr) || errors.As(err, &decodeErr) || errors.As(err, &lookupErr)
}
