// golfctl is the operator CLI: it runs migrations, prints and watches tournament
// standings straight from the database, and grants roles.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var migrationsDir string

var rootCmd = &cobra.Command{
	Use:   "golfctl",
	Short: "Operate the golf tournaments database",
	Long: `golfctl talks to the tournaments database directly, using the same
configuration as the API server (DATABASE_URL, CONFIG_FILE, .env).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&migrationsDir, "migrations", "", "Directory holding the SQL migrations (defaults to migrations_dir)")
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "golfctl: %s\n", err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
