package models

import (
	"time"
)

// JobStatus represents the status of an asynchronous enrichment job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusActive    JobStatus = "active"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// EnrichmentJob is the persisted state of one background enrichment pass.
// Progress is reported as Processed/Total after each completed item.
type EnrichmentJob struct {
	ID          string           `json:"id"`
	Status      JobStatus        `json:"status"`
	Total       int              `json:"total"`
	Processed   int              `json:"processed"`
	Results     []*ListingRecord `json:"results,omitempty"`
	Error       string           `json:"error,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

// IsTerminal reports whether the job reached a final state.
func (j *EnrichmentJob) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// AsyncJobResponse represents the immediate response from an async endpoint
type AsyncJobResponse struct {
	JobID     string    `json:"jobId"`
	Status    JobStatus `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// JobStatusResponse represents the response for job status queries
type JobStatusResponse struct {
	JobID       string           `json:"jobId"`
	Status      JobStatus        `json:"status"`
	Total       int              `json:"total"`
	Processed   int              `json:"processed"`
	Results     []*ListingRecord `json:"results,omitempty"`
	Error       string           `json:"error,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
}

// CreateAsyncJobResponse creates the accepted-for-processing response
func CreateAsyncJobResponse(jobID string) *AsyncJobResponse {
	return &AsyncJobResponse{
		JobID:     jobID,
		Status:    JobStatusPending,
		Message:   "Enrichment request accepted for background processing",
		Timestamp: time.Now(),
	}
}
