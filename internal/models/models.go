package models

import (
	"time"
)

// Part count bounds for a split request.
const (
	MinParts = 2
	MaxParts = 4
)

type JobStatus string

const (
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusError      JobStatus = "error"
)

// Segment is one contiguous time range of the source video.
// Start and End are seconds from the beginning of the source,
// End exclusive. File is the output file name without directory.
type Segment struct {
	Index int     `json:"index"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	File  string  `json:"file"`
}

type Job struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Parts       int        `json:"parts"`
	Status      JobStatus  `json:"status"`
	Error       string     `json:"error,omitempty"`
	Owner       string     `json:"-"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Segments    []Segment  `json:"segments,omitempty"`
}

type JobFilter struct {
	Name       string
	MaxRespLen int
}
