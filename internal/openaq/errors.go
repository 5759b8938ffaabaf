package openaq

import "fmt"

// RateLimitError reports that the retry budget was exhausted against
// consecutive 429 responses.
type RateLimitError struct {
	Endpoint string
	Attempts int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded on %s after %d attempts", e.Endpoint, e.Attempts)
}

// TransientError reports that the retry budget was exhausted against
// network-level failures. Err carries the last underlying error.
type TransientError struct {
	Endpoint string
	Attempts int
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure on %s after %d attempts: %v", e.Endpoint, e.Attempts, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// StatusError reports a non-2xx, non-429 response. Never retried.
type StatusError struct {
	Endpoint string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.Endpoint)
}

// FetchError wraps any client failure that aborted a pagination pass.
// Pages already fetched in that pass are discarded.
type FetchError struct {
	Endpoint string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// FieldError reports a required key absent from a raw record. Recoverable
// at record granularity: the caller decides whether to skip or abort.
type FieldError struct {
	Path string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Path)
}

// TimestampError reports a timestamp that does not match the fixed upstream
// layout. Callers treat it as "not recent", never as a batch failure.
type TimestampError struct {
	Value string
	Err   error
}

func (e *TimestampError) Error() string {
	return fmt.Sprintf("malformed timestamp %q: %v", e.Value, e.Err)
}

func (e *TimestampError) Unwrap() error { return e.Err }
