package models

import "time"

// Run job status constants
const (
	RunStatusPending    = "pending"
	RunStatusProcessing = "processing"
	RunStatusCompleted  = "completed"
	RunStatusFailed     = "failed"
)

// RunJob is a queued classification run for one user over a requested window
type RunJob struct {
	ID           string
	UserID       string
	StartDate    Date
	EndDate      Date
	ForceRefresh bool
	Status       string
	LastSyncedAt *time.Time
	Attempts     int
	LastError    *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ProcessedAt  *time.Time
}
