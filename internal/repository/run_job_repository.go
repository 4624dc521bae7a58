package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vipul43/jobtrail/internal/models"
)

var ErrRunJobNotFound = errors.New("run job not found")

type RunJobRepository struct {
	db *sql.DB
}

func NewRunJobRepository(db *sql.DB) *RunJobRepository {
	return &RunJobRepository{db: db}
}

const runJobColumns = `id, user_id, start_date, end_date, force_refresh, status, last_synced_at,
		       attempts, last_error, created_at, updated_at, processed_at`

// Create creates a new run job
func (r *RunJobRepository) Create(ctx context.Context, job models.RunJob) error {
	query := `
		INSERT INTO run_job (
			id, user_id, start_date, end_date, force_refresh, status,
			last_synced_at, attempts, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		job.ID, job.UserID, job.StartDate, job.EndDate, job.ForceRefresh, job.Status,
		job.LastSyncedAt, job.Attempts, job.CreatedAt, job.UpdatedAt,
	)
	return err
}

// GetByID retrieves one run job
func (r *RunJobRepository) GetByID(ctx context.Context, id string) (*models.RunJob, error) {
	query := `SELECT ` + runJobColumns + ` FROM run_job WHERE id = $1`
	jobs, err := r.queryJobs(ctx, query, id)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, ErrRunJobNotFound
	}
	return &jobs[0], nil
}

// GetPendingJobs retrieves pending run jobs, oldest first
func (r *RunJobRepository) GetPendingJobs(ctx context.Context, limit int) ([]models.RunJob, error) {
	query := `
		SELECT ` + runJobColumns + `
		FROM run_job
		WHERE status = $1
		ORDER BY last_synced_at ASC NULLS FIRST, created_at ASC
		LIMIT $2
	`
	return r.queryJobs(ctx, query, models.RunStatusPending, limit)
}

// GetFailedJobs retrieves failed run jobs that still have retries left
func (r *RunJobRepository) GetFailedJobs(ctx context.Context, maxAttempts, limit int) ([]models.RunJob, error) {
	query := `
		SELECT ` + runJobColumns + `
		FROM run_job
		WHERE status = $1 AND attempts < $2
		ORDER BY last_synced_at ASC NULLS FIRST, created_at ASC
		LIMIT $3
	`
	return r.queryJobs(ctx, query, models.RunStatusFailed, maxAttempts, limit)
}

// GetProcessingJobs retrieves stuck processing jobs (crash recovery)
func (r *RunJobRepository) GetProcessingJobs(ctx context.Context, staleBefore time.Time, limit int) ([]models.RunJob, error) {
	query := `
		SELECT ` + runJobColumns + `
		FROM run_job
		WHERE status = $1 AND updated_at < $2
		ORDER BY last_synced_at ASC NULLS FIRST, created_at ASC
		LIMIT $3
	`
	return r.queryJobs(ctx, query, models.RunStatusProcessing, staleBefore, limit)
}

// queryJobs is a helper function to query jobs
func (r *RunJobRepository) queryJobs(ctx context.Context, query string, args ...interface{}) ([]models.RunJob, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []models.RunJob
	for rows.Next() {
		var job models.RunJob
		err := rows.Scan(
			&job.ID, &job.UserID, &job.StartDate, &job.EndDate, &job.ForceRefresh, &job.Status,
			&job.LastSyncedAt, &job.Attempts, &job.LastError, &job.CreatedAt, &job.UpdatedAt,
			&job.ProcessedAt,
		)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

// UpdateStatus updates the status of a run job
func (r *RunJobRepository) UpdateStatus(ctx context.Context, id string, status string, lastError *string) error {
	now := time.Now()
	query := `
		UPDATE run_job
		SET status = $1, last_error = $2, updated_at = $3, last_synced_at = $4
		WHERE id = $5
	`
	_, err := r.db.ExecContext(ctx, query, status, lastError, now, now, id)
	return err
}

// MarkCompleted marks a run job completed and stamps processed_at
func (r *RunJobRepository) MarkCompleted(ctx context.Context, id string) error {
	now := time.Now()
	query := `
		UPDATE run_job
		SET status = $1, last_error = NULL, updated_at = $2, last_synced_at = $2, processed_at = $2
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, models.RunStatusCompleted, now, id)
	return err
}

// IncrementAttempts increments the attempts counter
func (r *RunJobRepository) IncrementAttempts(ctx context.Context, id string) error {
	query := `
		UPDATE run_job
		SET attempts = attempts + 1, updated_at = $1
		WHERE id = $2
	`
	_, err := r.db.ExecContext(ctx, query, time.Now(), id)
	return err
}
