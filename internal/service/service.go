package service

import (
	"errors"
	"fmt"
)

var (
	ErrBadPartCount   = errors.New("part count out of range")
	ErrSourceNotFound = errors.New("source file not found")
	ErrProbe          = errors.New("cannot determine duration")

	ErrJobNotFound     = errors.New("job not found")
	ErrNotJobOwner     = errors.New("not job owner")
	ErrSegmentNotFound = errors.New("segment not found")

	ErrInvalidToken = errors.New("invalid token")
)

// ExtractionError reports a failed extraction for one segment.
// Output keeps the external tool diagnostic text.
type ExtractionError struct {
	Index  int
	Output string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for segment %d: %v", e.Index, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
