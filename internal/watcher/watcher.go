package watcher

import (
	"context"
	"log"
	"time"

	"github.com/vipul43/jobtrail/internal/config"
	"github.com/vipul43/jobtrail/internal/models"
	"github.com/vipul43/jobtrail/internal/progress"
	"github.com/vipul43/jobtrail/internal/service"
)

// RunJobStore is the queue the watcher drains
type RunJobStore interface {
	GetPendingJobs(ctx context.Context, limit int) ([]models.RunJob, error)
	GetFailedJobs(ctx context.Context, maxAttempts, limit int) ([]models.RunJob, error)
	GetProcessingJobs(ctx context.Context, staleBefore time.Time, limit int) ([]models.RunJob, error)
	UpdateStatus(ctx context.Context, id string, status string, lastError *string) error
	MarkCompleted(ctx context.Context, id string) error
	IncrementAttempts(ctx context.Context, id string) error
}

// Runner executes one classification run
type Runner interface {
	Run(ctx context.Context, req service.RunRequest, reporter *progress.Reporter) (*service.RunResult, error)
}

type Watcher struct {
	cfg    *config.Config
	jobs   RunJobStore
	runner Runner
	now    func() time.Time
}

func New(cfg *config.Config, jobs RunJobStore, runner Runner) *Watcher {
	return &Watcher{
		cfg:    cfg,
		jobs:   jobs,
		runner: runner,
		now:    time.Now,
	}
}

// Start begins watching for queued run jobs
func (w *Watcher) Start(ctx context.Context) error {
	log.Println("Starting watcher for run jobs...")

	// Process any pending jobs from previous runs
	if err := w.processAllPendingJobs(ctx); err != nil {
		log.Printf("Warning: failed to process pending jobs on startup: %v", err)
	}

	// Start polling loop
	ticker := time.NewTicker(time.Duration(w.cfg.PollInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Watcher shutting down...")
			return ctx.Err()
		case <-ticker.C:
			if err := w.processAllPendingJobs(ctx); err != nil {
				log.Printf("Error processing jobs: %v", err)
			}
		}
	}
}

func (w *Watcher) processAllPendingJobs(ctx context.Context) error {
	if err := w.processRunJobs(ctx); err != nil {
		log.Printf("Error processing run jobs: %v", err)
	}
	return nil
}
