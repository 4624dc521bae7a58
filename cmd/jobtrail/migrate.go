package main

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/vipul43/jobtrail/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(context.Background(), false)
		if err != nil {
			return err
		}
		defer a.close()

		if err := database.RunMigrations(a.db); err != nil {
			return err
		}
		log.Println("Migrations completed successfully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
