// Api serves the job application board and its JSON API.
//
// Usage:
//
//	api serve      start the HTTP server and the Gmail watcher
//	api migrate    create or update the database schema
//	api authorize  run the Gmail consent flow and store token.json
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "api",
	Short: "Job application tracker",
	Long: `Tracks job applications on a paginated board backed by Postgres.

Configuration comes from the environment (and a .env file when present).
Gmail integration is optional: run 'api authorize' once to connect a mailbox,
after which 'api serve' keeps application statuses in sync with incoming mail.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(authorizeCmd)
}
