package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ambioctl/internal/config"
	"ambioctl/internal/console"
)

func newConsoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Start the interactive console",
		Long: `Opens an interactive shell with history and tab completion over
alerts, sensors, companies and users, including a live alerts view.
Requires an existing session; run 'ambioctl login' first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			// Config edits while the console runs need a restart to
			// retarget the API client; the watcher tells the user so.
			watcher := config.NewWatcher(rt.configDir, func(cfg config.Config) {
				if cfg.APIURL != rt.cfg.APIURL {
					fmt.Fprintln(cmd.OutOrStdout(), "Config changed, restart the console to use", cfg.APIURL)
				}
			})
			if err := watcher.Start(); err == nil {
				defer watcher.Stop()
			}

			return console.New(rt.session, rt.alerts, rt.platform, rt.configDir).Run(cmd.Context())
		},
	}
}
