package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"actrec-directory/internal/domain/services"

	"github.com/spf13/cobra"
)

func newContactServices(a *app) (*services.ContactService, *services.BulkService, error) {
	s, err := a.store()
	if err != nil {
		return nil, nil, err
	}
	credentials := services.NewCredentialService(a.config.PasswordHashCost)
	contacts := services.NewContactService(s, a.config, credentials, a.directoryCache(), a.eventPublisher(), a.logger)
	return contacts, services.NewBulkService(contacts, a.config), nil
}

func newImportCmd(a *app) *cobra.Command {
	var (
		format string
		dryRun bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Bulk insert the contacts of a CSV or XLSX file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if format == "" {
				var err error
				if format, err = services.FormatFromFilename(path); err != nil {
					return err
				}
			}

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			candidates, err := services.DecodeContacts(format, f)
			if err != nil {
				return err
			}
			if dryRun {
				cmd.Printf("%d contacts read from %s, nothing written\n", len(candidates), path)
				return nil
			}

			_, bulk, err := newContactServices(a)
			if err != nil {
				return err
			}
			result, err := bulk.BulkInsert(cmd.Context(), candidates)
			if err != nil {
				return err
			}

			cmd.Printf("inserted %d, skipped %d, accounts pending %d\n",
				len(result.Inserted), len(result.Skipped), len(result.PendingAccounts))
			for _, s := range result.Skipped {
				cmd.Printf("  row %d: %s\n", sourceRow(s), s.Reason)
			}
			return writeCredentials(cmd.OutOrStdout(), output, result.Credentials)
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "csv or xlsx (default: from the file extension)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse the file without writing")
	cmd.Flags().StringVar(&output, "credentials-out", "", "write generated credentials as JSON to this file instead of stdout")
	return cmd
}

// sourceRow is the file line a skipped candidate came from
func sourceRow(s services.Skipped) int {
	if s.Candidate.Row > 0 {
		return s.Candidate.Row
	}
	return s.Index + 1
}

// writeCredentials prints the one-time passwords, or saves them to path
func writeCredentials(stdout io.Writer, path string, credentials []services.Credential) error {
	if len(credentials) == 0 {
		return nil
	}
	w := stdout
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(credentials)
}

func newExportCmd(a *app) *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the whole directory as CSV or XLSX",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != services.FormatCSV && format != services.FormatXLSX {
				return fmt.Errorf("%w: %s", services.ErrUnsupportedFormat, format)
			}
			contactService, _, err := newContactServices(a)
			if err != nil {
				return err
			}
			contacts, err := contactService.AllContacts(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return services.EncodeContacts(format, w, contacts)
		},
	}

	cmd.Flags().StringVar(&format, "format", services.FormatCSV, "csv or xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}
