package statement

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat rejects an upload before any expensive work begins.
// It is fatal for the job and never retried.
var ErrUnsupportedFormat = errors.New("unsupported file format: only PDF and CSV statements are supported")

// DocumentError marks a structurally invalid PDF. Fatal for the job.
type DocumentError struct {
	Err error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("malformed PDF document: %v", e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }

// ExtractionError is returned when no usable transaction was recovered from
// any page or row of the document. Fatal for the job; partial failures below
// this threshold are absorbed as skip counts instead.
type ExtractionError struct {
	Pages int
	Rows  int
}

func (e *ExtractionError) Error() string {
	if e.Pages > 0 {
		return fmt.Sprintf("no transactions extracted from any of %d pages", e.Pages)
	}
	return "no valid transactions found in file"
}
