package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vipul43/jobtrail/internal/models"
	"github.com/vipul43/jobtrail/internal/progress"
	"github.com/vipul43/jobtrail/internal/service"
)

const progressBuffer = 32

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Classify a user's application mail now",
	Long:  "Run the classification pipeline for one user over a date window, printing progress as it goes. Results are merged into the user's cache.",
	RunE:  runRun,
}

var (
	runUserID  string
	runStart   string
	runEnd     string
	runRefresh bool
	runJSON    bool
)

func init() {
	runCmd.Flags().StringVarP(&runUserID, "user", "u", "", "User ID whose linked mailbox is classified (required)")
	runCmd.Flags().StringVar(&runStart, "start", "", "First day of the window (YYYY-MM-DD)")
	runCmd.Flags().StringVar(&runEnd, "end", "", "Last day of the window (YYYY-MM-DD)")
	runCmd.Flags().BoolVar(&runRefresh, "refresh", false, "Fetch everything since the last covered day up to today")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Print the resulting cache entry as JSON")
	_ = runCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	start, err := dateFlag("start", runStart)
	if err != nil {
		return err
	}
	end, err := dateFlag("end", runEnd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.close()

	reporter := progress.NewReporter(progressBuffer)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range reporter.Events() {
			if e.Final {
				continue
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "[%d/%d] %s\n", int(e.Step)+1, int(progress.StepBuilding)+1, e.Message)
		}
	}()

	result, err := a.runner.Run(ctx, service.RunRequest{
		UserID:       runUserID,
		Start:        start,
		End:          end,
		ForceRefresh: runRefresh,
	}, reporter)
	<-done
	if err != nil {
		return err
	}

	if runJSON {
		return writeJSON(cmd.OutOrStdout(), result.Entry)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Mailbox:  %s\n", result.Identity)
	fmt.Fprintf(out, "Decision: %s\n", result.Decision)
	if result.Partial {
		fmt.Fprintln(out, "Warning: some searches stopped early; results may be incomplete")
	}
	printCompanies(out, result.Entry.Companies)
	return nil
}

// dateFlag parses an optional YYYY-MM-DD flag value
func dateFlag(name, value string) (models.Date, error) {
	if value == "" {
		return "", nil
	}
	d := models.ParseDate(value)
	if d.IsZero() {
		return "", fmt.Errorf("--%s must be YYYY-MM-DD, got %q", name, value)
	}
	return d, nil
}
