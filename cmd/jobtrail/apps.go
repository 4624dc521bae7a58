package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vipul43/jobtrail/internal/models"
	"github.com/vipul43/jobtrail/internal/service"
)

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "List and edit tracked applications",
	Long:  "List and edit tracked applications. Anything added or changed here is marked manual and survives later classification runs.",
}

var (
	appsUserID   string
	appsJSON     bool
	appsPosition service.PositionInput
	appsIndex    int
)

func init() {
	appsCmd.PersistentFlags().StringVarP(&appsUserID, "user", "u", "", "User ID whose applications are edited (required)")
	_ = appsCmd.MarkPersistentFlagRequired("user")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List companies and positions",
		Args:  cobra.NoArgs,
		RunE:  runAppsList,
	}
	listCmd.Flags().BoolVar(&appsJSON, "json", false, "Print as JSON")

	addCmd := &cobra.Command{
		Use:   "add <company>",
		Short: "Add a position, creating the company if needed",
		Args:  cobra.ExactArgs(1),
		RunE:  runAppsAdd,
	}
	positionFlags(addCmd)

	updateCmd := &cobra.Command{
		Use:   "update <company> <index>",
		Short: "Replace the position at index (0-based)",
		Args:  cobra.ExactArgs(2),
		RunE:  runAppsUpdate,
	}
	positionFlags(updateCmd)

	renameCmd := &cobra.Command{
		Use:   "rename <company> <new-name>",
		Short: "Rename a company",
		Args:  cobra.ExactArgs(2),
		RunE:  runAppsRename,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <company>",
		Short: "Delete a company, or one of its positions with --position",
		Args:  cobra.ExactArgs(1),
		RunE:  runAppsDelete,
	}
	deleteCmd.Flags().IntVar(&appsIndex, "position", -1, "Index of the position to delete (0-based)")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show outcome counts and response rate",
		Args:  cobra.NoArgs,
		RunE:  runAppsStats,
	}
	statsCmd.Flags().BoolVar(&appsJSON, "json", false, "Print as JSON")

	clearCmd := &cobra.Command{
		Use:   "clear-cache",
		Short: "Forget everything stored for the user, including manual entries",
		Args:  cobra.NoArgs,
		RunE:  runAppsClear,
	}

	appsCmd.AddCommand(listCmd, addCmd, updateCmd, renameCmd, deleteCmd, statsCmd, clearCmd)
	rootCmd.AddCommand(appsCmd)
}

func positionFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&appsPosition.Position, "title", "", "Position title")
	f.StringVar(&appsPosition.SubmittedDate, "submitted", "", "Application date (YYYY-MM-DD)")
	f.StringVar(&appsPosition.AptitudeTestDate, "aptitude", "", "Aptitude test date (YYYY-MM-DD)")
	f.StringVar(&appsPosition.SimulationTestDate, "simulation", "", "Simulation test date (YYYY-MM-DD)")
	f.StringVar(&appsPosition.CodingTestDate, "coding", "", "Coding test date (YYYY-MM-DD)")
	f.StringVar(&appsPosition.VideoInterviewDate, "video", "", "Video interview date (YYYY-MM-DD)")
	f.IntVar(&appsPosition.HumanInterviewCount, "interviews", 0, "Number of human interviews")
	f.StringVar(&appsPosition.Outcome, "outcome", "pending", "pending, rejected or offer")
}

// withApps opens the app and resolves the user's mailbox identity before calling fn
func withApps(fn func(ctx context.Context, a *app, identity string) error) error {
	ctx := context.Background()
	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	identity, err := a.identity(ctx, appsUserID)
	if err != nil {
		return err
	}
	return fn(ctx, a, identity)
}

func runAppsList(cmd *cobra.Command, _ []string) error {
	return withApps(func(ctx context.Context, a *app, identity string) error {
		companies, totals, err := a.apps.List(ctx, identity)
		if err != nil {
			return err
		}
		if appsJSON {
			return writeJSON(cmd.OutOrStdout(), companies)
		}
		printCompanies(cmd.OutOrStdout(), companies)
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d companies, %d applications\n", totals.Companies, totals.Applications)
		return nil
	})
}

func runAppsAdd(cmd *cobra.Command, args []string) error {
	return withApps(func(ctx context.Context, a *app, identity string) error {
		entry, err := a.apps.AddPosition(ctx, identity, args[0], appsPosition)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added position to %s (%d applications total)\n", args[0], entry.TotalApplications)
		return nil
	})
}

func runAppsUpdate(cmd *cobra.Command, args []string) error {
	index, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("index must be a number, got %q", args[1])
	}
	return withApps(func(ctx context.Context, a *app, identity string) error {
		if _, err := a.apps.UpdatePosition(ctx, identity, args[0], index, appsPosition); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated position %d at %s\n", index, args[0])
		return nil
	})
}

func runAppsRename(cmd *cobra.Command, args []string) error {
	return withApps(func(ctx context.Context, a *app, identity string) error {
		if _, err := a.apps.RenameCompany(ctx, identity, args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", args[0], args[1])
		return nil
	})
}

func runAppsDelete(cmd *cobra.Command, args []string) error {
	return withApps(func(ctx context.Context, a *app, identity string) error {
		if appsIndex >= 0 {
			if _, err := a.apps.DeletePosition(ctx, identity, args[0], appsIndex); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted position %d at %s\n", appsIndex, args[0])
			return nil
		}
		if _, err := a.apps.DeleteCompany(ctx, identity, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	})
}

func runAppsStats(cmd *cobra.Command, _ []string) error {
	return withApps(func(ctx context.Context, a *app, identity string) error {
		st, err := a.apps.Stats(ctx, identity)
		if err != nil {
			return err
		}
		if appsJSON {
			return writeJSON(cmd.OutOrStdout(), st)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "Applications\t%d across %d companies\n", st.TotalApplications, st.TotalCompanies)
		fmt.Fprintf(w, "Offers\t%d\n", st.Offers)
		fmt.Fprintf(w, "Rejections\t%d\n", st.Rejections)
		fmt.Fprintf(w, "In progress\t%d\n", st.InProgress)
		fmt.Fprintf(w, "Interviews\t%d\n", st.Interviews)
		fmt.Fprintf(w, "Tests\taptitude %d, simulation %d, coding %d, video %d\n",
			st.AptitudeTests, st.SimulationTests, st.CodingTests, st.VideoInterviews)
		fmt.Fprintf(w, "Response rate\t%d%%\n", st.ResponseRate)
		return w.Flush()
	})
}

func runAppsClear(cmd *cobra.Command, _ []string) error {
	return withApps(func(ctx context.Context, a *app, identity string) error {
		if err := a.cache.Delete(ctx, identity); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared cache for %s\n", identity)
		return nil
	})
}

func printCompanies(out io.Writer, companies []models.CompanyRecord) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "COMPANY\t#\tPOSITION\tSUBMITTED\tINTERVIEWS\tOUTCOME\tMANUAL")
	for _, c := range companies {
		for i, p := range c.Positions {
			manual := ""
			if p.Manual {
				manual = "yes"
			}
			title := p.Position
			if title == "" {
				title = "-"
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%d\t%s\t%s\n",
				c.Name, i, title, p.SubmittedDate, p.HumanInterviewCount, p.Outcome, manual)
		}
	}
	_ = w.Flush()
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
