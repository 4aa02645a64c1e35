package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"ambioctl/internal/cli"
)

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current user and what their role allows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			user, err := rt.requireUser(cmd.Context())
			if err != nil {
				return err
			}

			return cli.Render(cmd.OutOrStdout(), outputFormat(), user, func(w io.Writer) error {
				return cli.RenderProfileTable(w, user)
			})
		},
	}
}
