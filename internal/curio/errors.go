package curio

import (
	"errors"
	"fmt"
)

// Store sentinels.
var (
	// ErrDuplicate signals an identity or URL uniqueness violation. Callers
	// treat it as "already processed or in flight" and skip, not fail.
	ErrDuplicate = errors.New("recommendation already exists")
	// ErrNotFound signals a missing row.
	ErrNotFound = errors.New("recommendation not found")
	// ErrPublished guards terminal rows against further mutation.
	ErrPublished = errors.New("recommendation already published")
)

// ExtractionError is the single recoverable failure type extraction
// propagates. The coordinator branches on it to trigger the generic
// fallback; total failure routes to URL-only synthesis.
type ExtractionError struct {
	URL   string
	Cause error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.URL, e.Cause)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// NewExtractionError wraps cause for url. A cause that is already an
// ExtractionError is returned as is so the taxonomy stays flat.
func NewExtractionError(url string, cause error) error {
	var ee *ExtractionError
	if errors.As(cause, &ee) {
		return ee
	}
	return &ExtractionError{URL: url, Cause: cause}
}

// IsExtractionError reports whether err is part of the extraction taxonomy.
func IsExtractionError(err error) bool {
	var ee *ExtractionError
	return errors.As(err, &ee)
}

// SynthesisError signals an unusable completion response. It is not retried
// automatically; the attempt counter increments and the error is recorded.
type SynthesisError struct {
	Reason string
	Cause  error
}

func (e *SynthesisError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("synthesis: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("synthesis: %s", e.Reason)
}

func (e *SynthesisError) Unwrap() error {
	return e.Cause
}

// IsSynthesisError reports whether err is a synthesis failure.
func IsSynthesisError(err error) bool {
	var se *SynthesisError
	return errors.As(err, &se)
}
