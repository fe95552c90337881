package cli

import (
	"fmt"
	"os"

	"cmdhub/config"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cmdhub",
	Short: "A small HTTP API for saved command lines",
	Long: `cmdhub stores how-to records (what a command does, the platform it runs on and
the command line itself) and serves them over a JSON API at /api/commands.

Configuration comes from the environment or a .env file in the working directory.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, browseCmd)
}

// loadConfig is swapped in tests.
var loadConfig = config.Load
