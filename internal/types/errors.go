package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrMissingWebhook   = errors.New("notification webhook URL is not configured")
	ErrEmptyTranslation = errors.New("translation returned empty text")
	ErrEmptyResponse    = errors.New("empty response body")
	ErrInvalidURL       = errors.New("invalid URL")
	ErrNoTitle          = errors.New("listing entry has no title")
)

// FetchError wraps errors that occur during fetching.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
	Retryable  bool
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) IsRetryable() bool { return e.Retryable }

// NotFound reports whether the remote answered 404.
func (e *FetchError) NotFound() bool { return e.StatusCode == 404 }

// ParseError wraps errors that occur during parsing.
type ParseError struct {
	URL      string
	Selector string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error for %s (selector=%q): %v", e.URL, e.Selector, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StorageError wraps errors that occur while loading or saving state.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// PipelineError wraps errors that occur in the enrichment pipeline.
type PipelineError struct {
	Stage  string
	Record *Record
	Err    error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline error at stage %q: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// NotifyError wraps a failed webhook delivery.
type NotifyError struct {
	Title      string
	StatusCode int
	Body       string
	Err        error
}

func (e *NotifyError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("notify %q: webhook returned %d: %s", e.Title, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("notify %q: %v", e.Title, e.Err)
}

func (e *NotifyError) Unwrap() error { return e.Err }
