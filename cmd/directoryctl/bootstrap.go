package main

import (
	"strings"

	"actrec-directory/internal/domain/services"

	"github.com/spf13/cobra"
)

func newBootstrapAdminCmd(a *app) *cobra.Command {
	var (
		email     string
		name      string
		extension string
	)

	cmd := &cobra.Command{
		Use:   "bootstrap-admin",
		Short: "Create or promote an administrator when none exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email != "" {
				a.config.BootstrapAdminEmail = strings.ToLower(strings.TrimSpace(email))
			}
			if name != "" {
				a.config.BootstrapAdminName = name
			}
			if extension != "" {
				a.config.BootstrapAdminExtension = extension
			}
			if a.config.BootstrapAdminEmail == "" {
				return cmd.Usage()
			}

			s, err := a.store()
			if err != nil {
				return err
			}
			credentials := services.NewCredentialService(a.config.PasswordHashCost)
			created, err := services.EnsureAdminExists(cmd.Context(), s, credentials, a.config, a.logger)
			if err != nil {
				return err
			}
			if created == nil {
				cmd.Println("an administrator already exists or the configured password was used")
				return nil
			}
			cmd.Printf("administrator %s (%s) password: %s\n", created.ContactName, created.Email, created.Password)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "administrator email (default: BOOTSTRAP_ADMIN_EMAIL)")
	cmd.Flags().StringVar(&name, "name", "", "administrator name (default: BOOTSTRAP_ADMIN_NAME)")
	cmd.Flags().StringVar(&extension, "extension", "", "administrator extension (default: BOOTSTRAP_ADMIN_EXTENSION)")
	return cmd
}
