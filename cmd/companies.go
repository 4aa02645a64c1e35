package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"ambioctl/internal/cli"
	"ambioctl/internal/platform"
	"ambioctl/internal/session"
)

func newCompaniesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "companies",
		Short: "Manage tenant companies",
	}

	cmd.AddCommand(newCompaniesListCmd())
	cmd.AddCommand(newCompaniesGetCmd())
	cmd.AddCommand(newCompaniesCreateCmd())
	cmd.AddCommand(newCompaniesUpdateCmd())
	cmd.AddCommand(newCompaniesDeleteCmd())
	return cmd
}

func newCompaniesListCmd() *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List companies",
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

			page, err := rt.platform.ListCompanies(cmd.Context(), platform.CompanyFilters{
				Limit:  limit,
				Offset: offset,
			})
			if err != nil {
				return err
			}
			return cli.Render(cmd.OutOrStdout(), outputFormat(), page, func(w io.Writer) error {
				return cli.RenderCompaniesTable(w, page.Companies)
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of companies to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of companies to skip")
	return cmd
}

func newCompaniesGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one company",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.requireUser(cmd.Context()); err != nil {
				return err
			}

			company, err := rt.platform.GetCompany(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return cli.Render(cmd.OutOrStdout(), outputFormat(), company, func(w io.Writer) error {
				return cli.RenderCompaniesTable(w, []platform.Company{company})
			})
		},
	}
}

func companyInputFlags(cmd *cobra.Command, input *platform.CompanyInput) {
	cmd.Flags().StringVar(&input.Name, "name", "", "company name")
	cmd.Flags().StringVar(&input.ContactEmail, "contact-email", "", "contact email address")
	cmd.Flags().StringVar(&input.Address, "address", "", "postal address")
}

func newCompaniesCreateCmd() *cobra.Command {
	var input platform.CompanyInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a company",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.requireCapability(cmd.Context(), "manage companies", func(c session.Capabilities) bool {
				return c.CanManageCompanies
			}); err != nil {
				return err
			}

			company, err := rt.platform.CreateCompany(cmd.Context(), input)
			if err != nil {
				return err
			}
			return cli.Render(cmd.OutOrStdout(), outputFormat(), company, func(w io.Writer) error {
				return cli.RenderCompaniesTable(w, []platform.Company{company})
			})
		},
	}

	companyInputFlags(cmd, &input)
	cmd.MarkFlagRequired("name")
	return cmd
}

func newCompaniesUpdateCmd() *cobra.Command {
	var input platform.CompanyInput

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a company",
		Long: `Updates a company record. Platform administrators can edit any
company; company administrators can edit their own.`,
		Args: cobra.ExactArgs(1),
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
			caps := session.CapabilitiesFor(user)
			ownCompany := caps.CanEditCompanyProfile && user.CompanyID == args[0]
			if !caps.CanManageCompanies && !ownCompany {
				return &cli.PermissionError{Action: "edit this company"}
			}

			company, err := rt.platform.UpdateCompany(cmd.Context(), args[0], input)
			if err != nil {
				return err
			}
			return cli.Render(cmd.OutOrStdout(), outputFormat(), company, func(w io.Writer) error {
				return cli.RenderCompaniesTable(w, []platform.Company{company})
			})
		},
	}

	companyInputFlags(cmd, &input)
	return cmd
}

func newCompaniesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a company",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.requireCapability(cmd.Context(), "manage companies", func(c session.Capabilities) bool {
				return c.CanManageCompanies
			}); err != nil {
				return err
			}

			if err := rt.platform.DeleteCompany(cmd.Context(), args[0]); err != nil {
				return err
			}
			cmd.Println("Company deleted.")
			return nil
		},
	}
}
