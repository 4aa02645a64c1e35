// Package cmd wires the ambioctl command tree. Each command builds the shared
// runtime (config, token store, authenticated API client, session controller)
// and talks to the Ambio API through it.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"ambioctl/internal/cli"
)

var (
	outputFlag string
	apiURLFlag string
	debugFlag  bool
)

// rootCmd is the base command for ambioctl.
var rootCmd = &cobra.Command{
	Use:   "ambioctl",
	Short: "Administer the Ambio environmental monitoring platform",
	Long: `ambioctl manages the Ambio platform: threshold-violation alerts,
sensors and their readings, companies and users. Sessions are kept
alive transparently; log in once and tokens are refreshed as needed.`,
	// Errors are printed by Execute with actionable guidance, so cobra's
	// own reporting is silenced.
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if debugFlag {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		return cli.ValidateOutputFormat(outputFlag)
	},
}

// SetVersion sets the version for the root command. Called from main with
// the build-time version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute runs the command tree and exits with a semantic code: 0 on
// success, 2 when authentication is required or expired, 1 otherwise.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "ambioctl version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", cli.UserMessage(err))
		os.Exit(cli.ExitCode(err))
	}
}

func outputFormat() cli.OutputFormat {
	return cli.OutputFormat(outputFlag)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "table", "output format: table, json or yaml")
	rootCmd.PersistentFlags().StringVar(&apiURLFlag, "api-url", "", "Ambio API origin, overrides config and environment")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")

	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newWhoamiCmd())
	rootCmd.AddCommand(newProfileCmd())
	rootCmd.AddCommand(newAlertsCmd())
	rootCmd.AddCommand(newSensorsCmd())
	rootCmd.AddCommand(newCompaniesCmd())
	rootCmd.AddCommand(newUsersCmd())
	rootCmd.AddCommand(newConsoleCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
