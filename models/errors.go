package models

import (
	"errors"
	"fmt"
)

// Error codes used across the fetch/extract pipeline.
const (
	// Fetch-side codes, produced by the browser session.
	ErrCodeFetchThrottled = "FETCH_THROTTLED"
	ErrCodeFetchNotFound  = "FETCH_NOT_FOUND"
	ErrCodeFetchTransient = "FETCH_TRANSIENT"
	ErrCodeBrowserCrash   = "BROWSER_CRASH"

	// Extraction-side codes, produced by the LLM client.
	ErrCodeLLMFailure     = "LLM_FAILURE"
	ErrCodeLLMAuthFailure = "LLM_AUTH_FAILURE"
	ErrCodeLLMRateLimited = "LLM_RATE_LIMITED"
	ErrCodeLLMMalformed   = "LLM_MALFORMED"
)

// PipelineError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type PipelineError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewPipelineError creates a new PipelineError.
func NewPipelineError(code, message string, err error) *PipelineError {
	return &PipelineError{Code: code, Message: message, Err: err}
}

// ErrorCode extracts the pipeline error code from err, or "" if err does not
// carry one.
func ErrorCode(err error) string {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// IsThrottled reports whether err is a host-level throttling failure, the one
// fetch failure the walker retries with backoff instead of skipping.
func IsThrottled(err error) bool {
	return ErrorCode(err) == ErrCodeFetchThrottled
}

// IsNotFound reports whether err signals a missing target. For listing pages
// this is the normal end-of-pagination signal, not a failure.
func IsNotFound(err error) bool {
	return ErrorCode(err) == ErrCodeFetchNotFound
}
