// Package commands provides the CLI commands for the appswitch worker.
package commands

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/appswitch-io/appswitch/internal/logging"
)

// Version information set at build time
var (
	Version   = "0.1.0"
	BuildTime = "dev"
)

// Global flags
var (
	logLevel  string
	prettyLog bool
)

var rootCmd = &cobra.Command{
	Use:   "appswitch",
	Short: "appswitch - menu-based application router",
	Long: `appswitch sits between a user-facing transport and a set of back-end
applications on a messaging bus. It presents each new user with a
numbered menu of applications and routes the rest of the session to
whichever one they pick.

Run 'appswitch serve' to start the worker.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A .env in the working directory is convenient in development;
		// missing files are fine.
		godotenv.Load()

		logging.Init(logging.Config{
			Level:  logging.ParseLevel(logLevel),
			Output: os.Stderr,
			Pretty: prettyLog,
		})
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("appswitch %s (%s)\n", Version, BuildTime))
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&prettyLog, "pretty", false, "Human-readable console logging")
	rootCmd.AddCommand(serveCmd)
}
