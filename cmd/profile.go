package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"ambioctl/internal/cli"
	"ambioctl/internal/session"
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage your own account",
	}

	cmd.AddCommand(newProfileUpdateCmd())
	cmd.AddCommand(newProfileAvatarCmd())
	cmd.AddCommand(newProfileChangePasswordCmd())
	cmd.AddCommand(newProfilePreferencesCmd())
	cmd.AddCommand(newProfileForgotPasswordCmd())
	cmd.AddCommand(newProfileResetPasswordCmd())
	return cmd
}

func newProfileUpdateCmd() *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update your name or email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var update session.ProfileUpdate
			if cmd.Flags().Changed("name") {
				update.Name = &name
			}
			if cmd.Flags().Changed("email") {
				update.Email = &email
			}
			if update.Name == nil && update.Email == nil {
				return fmt.Errorf("nothing to update, pass --name or --email")
			}

			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.requireUser(cmd.Context()); err != nil {
				return err
			}

			user, err := rt.session.UpdateProfile(cmd.Context(), update)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Profile updated: %s (%s)\n", user.Name, user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new display name")
	cmd.Flags().StringVar(&email, "email", "", "new email address")
	return cmd
}

func newProfileAvatarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "avatar",
		Short: "Manage your avatar image",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a new avatar image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open avatar file: %w", err)
			}
			defer file.Close()

			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.requireUser(cmd.Context()); err != nil {
				return err
			}

			err = cli.WithSpinner("Uploading avatar...", func() error {
				_, uploadErr := rt.session.UploadAvatar(cmd.Context(), filepath.Base(args[0]), file)
				return uploadErr
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Avatar updated.")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete",
		Short: "Remove your avatar image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.requireUser(cmd.Context()); err != nil {
				return err
			}

			if _, err := rt.session.DeleteAvatar(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Avatar removed.")
			return nil
		},
	})

	return cmd
}

func newProfileChangePasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "change-password",
		Short: "Change your password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := promptPassword("Current password: ")
			if err != nil {
				return err
			}
			updated, err := promptPassword("New password: ")
			if err != nil {
				return err
			}
			confirm, err := promptPassword("Repeat new password: ")
			if err != nil {
				return err
			}
			if updated != confirm {
				return fmt.Errorf("passwords do not match")
			}

			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.requireUser(cmd.Context()); err != nil {
				return err
			}

			if err := rt.session.ChangePassword(cmd.Context(), current, updated); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password changed.")
			return nil
		},
	}
}

func newProfilePreferencesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preferences",
		Short: "Show or change notification preferences",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show your preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.requireUser(cmd.Context()); err != nil {
				return err
			}

			prefs, err := rt.session.Preferences(cmd.Context())
			if err != nil {
				return err
			}
			return cli.Render(cmd.OutOrStdout(), outputFormat(), prefs, func(w io.Writer) error {
				return cli.RenderJSON(w, prefs)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key=value> [key=value...]",
		Short: "Set preference values",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefs := make(map[string]any, len(args))
			for _, arg := range args {
				key, value, found := strings.Cut(arg, "=")
				if !found || key == "" {
					return fmt.Errorf("invalid preference %q, expected key=value", arg)
				}
				prefs[key] = parsePreferenceValue(value)
			}

			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.requireUser(cmd.Context()); err != nil {
				return err
			}

			if err := rt.session.SetPreferences(cmd.Context(), prefs); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Preferences updated.")
			return nil
		},
	})

	return cmd
}

// parsePreferenceValue keeps booleans typed so toggles round-trip as JSON
// booleans rather than strings.
func parsePreferenceValue(value string) any {
	switch value {
	case "true":
		return true
	case "false":
		return false
	default:
		return value
	}
}

func newProfileForgotPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forgot-password <email>",
		Short: "Request a password reset email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.session.ForgotPassword(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "If the address exists, a reset email is on its way.")
			return nil
		},
	}
}

func newProfileResetPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password <token>",
		Short: "Set a new password using a reset token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := promptPassword("New password: ")
			if err != nil {
				return err
			}
			confirm, err := promptPassword("Repeat new password: ")
			if err != nil {
				return err
			}
			if password != confirm {
				return fmt.Errorf("passwords do not match")
			}

			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.session.ResetPassword(cmd.Context(), args[0], password); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password reset, you can now log in.")
			return nil
		},
	}
}
