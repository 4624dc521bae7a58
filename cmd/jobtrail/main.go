// Package main is the jobtrail command: the run-queue worker plus commands
// for running classification and editing applications by hand.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "jobtrail",
	Short:        "Job application tracker",
	Long:         "jobtrail classifies job-application mail into per-company position timelines and keeps them in a per-user cache.",
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
