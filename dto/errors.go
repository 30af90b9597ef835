package dto

import (
	"errors"
	"fmt"
)

// Error taxonomy of the upload pipeline.
var (
	ErrUnsupportedFileType       = errors.New("unsupported file type")
	ErrParseFailure              = errors.New("parse failure")
	ErrInvalidExtractionResponse = errors.New("invalid extraction response")
	ErrNoTablesExtracted         = errors.New("no tables extracted")
	ErrUpstreamAPIFailure        = errors.New("upstream extraction api failure")
	ErrPersistenceFailure        = errors.New("persistence failure")
)

var (
	ErrNoFile                 = errors.New("no file uploaded or base64 provided")
	ErrMalformedInput         = errors.New("malformed input")
	ErrNotFound               = errors.New("not found")
	ErrIndexOutOfRange        = errors.New("index out of range")
	ErrRateLimited            = errors.New("extraction provider rate limited")
	ErrExtractorNotConfigured = errors.New("extraction provider not configured")
)

// ParseError is returned when a local CSV/XLSX decoder rejects the buffer.
type ParseError struct {
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s parse failed: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrParseFailure, e.Err}
}

// ExtractionError keeps the model output that could not be decoded so it
// can be reported back for diagnosis.
type ExtractionError struct {
	Raw     string
	Cleaned string
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("invalid JSON from extraction provider: %v", e.Err)
}

func (e *ExtractionError) Unwrap() []error {
	return []error{ErrInvalidExtractionResponse, e.Err}
}

// PersistenceError is returned when extracted tables could not be saved.
// Tables carries what was extracted so the client can retry the save.
type PersistenceError struct {
	Tables []Table
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to save extracted tables: %v", e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistenceFailure, e.Err}
}
