package cmd

import (
	"github.com/spf13/cobra"
)

func stockCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "stock <variant-sku>",
		Short:   "Show per-warehouse inventory for a variant SKU",
		Example: `  supplierctl stock CJ-TEE-RED-M`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			report, err := app.service.StockBySKU(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(report)
			}
			return printStockReport(report)
		},
	}
}

func freightCmd() *cobra.Command {
	var quantity int

	cmd := &cobra.Command{
		Use:   "freight <variant-id>",
		Short: "Quote shipping options for a variant",
		Long: "Quotes freight to every configured destination in parallel and\n" +
			"merges the options, preferred destination first.",
		Example: `  supplierctl freight 93d1a250-1b10-4a9a-b92e-2f2a7ee0a1c2 --quantity 2`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			options, err := app.service.FreightOptions(cmd.Context(), args[0], quantity)
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(options)
			}
			return printFreightTable(options)
		},
	}

	cmd.Flags().IntVar(&quantity, "quantity", 1, "units to ship")

	return cmd
}
