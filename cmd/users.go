package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"ambioctl/internal/cli"
	"ambioctl/internal/platform"
	"ambioctl/internal/session"
)

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}

	cmd.AddCommand(newUsersListCmd())
	cmd.AddCommand(newUsersGetCmd())
	cmd.AddCommand(newUsersCreateCmd())
	cmd.AddCommand(newUsersUpdateCmd())
	cmd.AddCommand(newUsersDeleteCmd())
	return cmd
}

func newUsersListCmd() *cobra.Command {
	var (
		companyID     string
		limit, offset int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.requireCapability(cmd.Context(), "manage users", func(c session.Capabilities) bool {
				return c.CanManageUsers
			}); err != nil {
				return err
			}

			page, err := rt.platform.ListUsers(cmd.Context(), platform.UserFilters{
				CompanyID: companyID,
				Limit:     limit,
				Offset:    offset,
			})
			if err != nil {
				return err
			}
			return cli.Render(cmd.OutOrStdout(), outputFormat(), page, func(w io.Writer) error {
				return cli.RenderUsersTable(w, page.Users)
			})
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "filter by company id")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of users to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of users to skip")
	return cmd
}

func newUsersGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.requireCapability(cmd.Context(), "manage users", func(c session.Capabilities) bool {
				return c.CanManageUsers
			}); err != nil {
				return err
			}

			user, err := rt.platform.GetUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return cli.Render(cmd.OutOrStdout(), outputFormat(), user, func(w io.Writer) error {
				return cli.RenderUsersTable(w, []platform.UserRecord{user})
			})
		},
	}
}

func userInputFlags(cmd *cobra.Command, input *platform.UserInput) {
	cmd.Flags().StringVar(&input.Name, "name", "", "display name")
	cmd.Flags().StringVar(&input.Email, "email", "", "email address")
	cmd.Flags().StringVar(&input.Role, "role", "", "role: admin or viewer")
	cmd.Flags().StringVar(&input.UserType, "type", "", "user type: ambio or company")
	cmd.Flags().StringVar(&input.CompanyID, "company", "", "owning company id")
}

func newUsersCreateCmd() *cobra.Command {
	var input platform.UserInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Long: `Creates a user account. The initial password is read from the
terminal rather than from a flag so it stays out of shell history.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := promptPassword("Initial password: ")
			if err != nil {
				return err
			}
			input.Password = password

			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.requireCapability(cmd.Context(), "manage users", func(c session.Capabilities) bool {
				return c.CanManageUsers
			}); err != nil {
				return err
			}

			user, err := rt.platform.CreateUser(cmd.Context(), input)
			if err != nil {
				return err
			}
			return cli.Render(cmd.OutOrStdout(), outputFormat(), user, func(w io.Writer) error {
				return cli.RenderUsersTable(w, []platform.UserRecord{user})
			})
		},
	}

	userInputFlags(cmd, &input)
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("role")
	return cmd
}

func newUsersUpdateCmd() *cobra.Command {
	var input platform.UserInput

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.requireCapability(cmd.Context(), "manage users", func(c session.Capabilities) bool {
				return c.CanManageUsers
			}); err != nil {
				return err
			}

			user, err := rt.platform.UpdateUser(cmd.Context(), args[0], input)
			if err != nil {
				return err
			}
			return cli.Render(cmd.OutOrStdout(), outputFormat(), user, func(w io.Writer) error {
				return cli.RenderUsersTable(w, []platform.UserRecord{user})
			})
		},
	}

	userInputFlags(cmd, &input)
	return cmd
}

func newUsersDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.requireCapability(cmd.Context(), "manage users", func(c session.Capabilities) bool {
				return c.CanManageUsers
			}); err != nil {
				return err
			}

			if err := rt.platform.DeleteUser(cmd.Context(), args[0]); err != nil {
				return err
			}
			cmd.Println("User deleted.")
			return nil
		},
	}
}
