package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func connectCmd() *cobra.Command {
	var apiKey string

	cmd := &cobra.Command{
		Use:   "connect <account-email>",
		Short: "Connect a supplier account",
		Long: "Stores the supplier account credentials (encrypted) and verifies\n" +
			"them with one authentication round-trip.",
		Example: `  supplierctl connect shop@example.com --api-key $SUPPLIER_API_KEY`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			email := args[0]
			if err := app.creds.SaveCredentials(cmd.Context(), apiKey, email); err != nil {
				return err
			}

			// Verify the credentials now rather than on the first real
			// call. A failed verification leaves nothing half-connected.
			if _, err := app.tokens.ForceNew(cmd.Context()); err != nil {
				if clearErr := app.creds.Clear(cmd.Context()); clearErr != nil {
					app.logger.Error("clearing rejected credentials", "err", clearErr)
				}
				return fmt.Errorf("verifying credentials: %w", err)
			}

			fmt.Printf("connected supplier account %s\n", email)
			return nil
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "supplier API key")
	cobra.CheckErr(cmd.MarkFlagRequired("api-key"))

	return cmd
}

func disconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Remove the stored supplier credentials and tokens",
		Long: "Deletes credentials and token state from the settings store.\n" +
			"Succeeds even when no account is connected.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			if err := app.creds.Clear(cmd.Context()); err != nil {
				return err
			}

			fmt.Println("supplier account disconnected")
			return nil
		},
	}
}
