package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vipul43/jobtrail/internal/coverage"
	"github.com/vipul43/jobtrail/internal/models"
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue",
	Short: "Queue a classification run for the worker",
	RunE:  runEnqueue,
}

var (
	enqueueUserID  string
	enqueueStart   string
	enqueueEnd     string
	enqueueRefresh bool
)

func init() {
	enqueueCmd.Flags().StringVarP(&enqueueUserID, "user", "u", "", "User ID whose linked mailbox is classified (required)")
	enqueueCmd.Flags().StringVar(&enqueueStart, "start", "", "First day of the window (YYYY-MM-DD)")
	enqueueCmd.Flags().StringVar(&enqueueEnd, "end", "", "Last day of the window (YYYY-MM-DD)")
	enqueueCmd.Flags().BoolVar(&enqueueRefresh, "refresh", false, "Fetch everything since the last covered day up to today")
	_ = enqueueCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(enqueueCmd)
}

func runEnqueue(cmd *cobra.Command, _ []string) error {
	start, err := dateFlag("start", enqueueStart)
	if err != nil {
		return err
	}
	end, err := dateFlag("end", enqueueEnd)
	if err != nil {
		return err
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return fmt.Errorf("%w: [%s, %s]", coverage.ErrInvalidRange, start, end)
	}

	ctx := context.Background()
	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	now := time.Now()
	job := models.RunJob{
		ID:           uuid.New().String(),
		UserID:       enqueueUserID,
		StartDate:    start,
		EndDate:      end,
		ForceRefresh: enqueueRefresh,
		Status:       models.RunStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.jobs.Create(ctx, job); err != nil {
		return fmt.Errorf("failed to create run job: %w", err)
	}

	stored, err := a.jobs.GetByID(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("failed to read back run job: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", stored.ID, stored.Status)
	return nil
}
