package model

import (
	"fmt"
	"time"
)

// UpstreamError reports a bad HTTP status or an unparseable response body
// from the forecast API. Body carries a snippet of the raw response for
// diagnostics.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream returned status %d", e.Status)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.Status, e.Body)
}

// TimeoutError reports that the upstream call exceeded its time budget.
type TimeoutError struct {
	Budget time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("forecast fetch exceeded %s budget", e.Budget)
}

// MalformedDataError reports a response that was well-formed JSON but is
// missing or corrupting a required field. Field identifies the offending
// metric or block; the system never guesses weather values in its place.
type MalformedDataError struct {
	Field  string
	Reason string
}

func (e *MalformedDataError) Error() string {
	return fmt.Sprintf("malformed forecast data: field %q: %s", e.Field, e.Reason)
}
