package watcher

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/vipul43/jobtrail/internal/models"
	"github.com/vipul43/jobtrail/internal/service"
)

// A job left in processing longer than this is assumed to belong to a dead worker
const staleProcessingAfter = 30 * time.Minute

// processRunJobs picks one job per tick: pending first, then failed jobs
// below the retry limit, then jobs stuck in processing.
func (w *Watcher) processRunJobs(ctx context.Context) error {
	pendingJobs, err := w.jobs.GetPendingJobs(ctx, 1)
	if err != nil {
		return err
	}

	failedJobs, err := w.jobs.GetFailedJobs(ctx, w.cfg.MaxRetries, 1)
	if err != nil {
		return err
	}

	processingJobs, err := w.jobs.GetProcessingJobs(ctx, w.now().Add(-staleProcessingAfter), 1)
	if err != nil {
		return err
	}

	allJobs := append(pendingJobs, failedJobs...)
	allJobs = append(allJobs, processingJobs...)

	if len(allJobs) == 0 {
		return nil
	}

	job := allJobs[0]

	statusMsg := ""
	if job.Status == models.RunStatusProcessing {
		statusMsg = " (stuck in processing)"
	} else if job.Status == models.RunStatusFailed {
		statusMsg = fmt.Sprintf(" (failed, attempt %d)", job.Attempts)
	}

	log.Printf("Found run job: %s (user: %s, status: %s%s)", job.ID, job.UserID, job.Status, statusMsg)

	if err := w.processRunJob(ctx, job); err != nil {
		log.Printf("Failed to process run job %s: %v", job.ID, err)
	}

	return nil
}

func (w *Watcher) processRunJob(ctx context.Context, job models.RunJob) error {
	if err := w.jobs.UpdateStatus(ctx, job.ID, models.RunStatusProcessing, nil); err != nil {
		return fmt.Errorf("failed to update job to processing: %w", err)
	}
	if err := w.jobs.IncrementAttempts(ctx, job.ID); err != nil {
		log.Printf("Warning: failed to increment attempts for job %s: %v", job.ID, err)
	}

	result, err := w.runner.Run(ctx, service.RunRequest{
		UserID:       job.UserID,
		Start:        job.StartDate,
		End:          job.EndDate,
		ForceRefresh: job.ForceRefresh,
	}, nil)
	if err != nil {
		if ctx.Err() != nil {
			// left in processing; a later worker picks it up as stale
			return err
		}
		errMsg := err.Error()
		if updateErr := w.jobs.UpdateStatus(ctx, job.ID, models.RunStatusFailed, &errMsg); updateErr != nil {
			log.Printf("Warning: failed to mark job %s failed: %v", job.ID, updateErr)
		}
		return err
	}

	if err := w.jobs.MarkCompleted(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to mark job completed: %w", err)
	}

	totals := result.Entry.Totals()
	log.Printf("Completed run job %s for %s: %s (%d companies, %d applications)",
		job.ID, result.Identity, result.Decision.Kind, totals.Companies, totals.Applications)
	return nil
}
