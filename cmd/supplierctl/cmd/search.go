package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dropforge/supplier-bridge/internal/cj"
)

func searchCmd() *cobra.Command {
	var (
		categoryID string
		page       int
		pageSize   int
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the supplier catalog",
		Example: `  supplierctl search "ceramic mug"
  supplierctl search --category 12345 --page 2`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			params := cj.SearchParams{
				CategoryID: categoryID,
				Page:       page,
				PageSize:   pageSize,
			}
			if len(args) == 1 {
				params.Query = args[0]
			}

			result, err := app.service.SearchProducts(cmd.Context(), params)
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(result)
			}

			if err := printProductTable(result.Products); err != nil {
				return err
			}
			fmt.Printf("\n%d of %d products\n", len(result.Products), result.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&categoryID, "category", "", "filter by category id")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "results per page")

	return cmd
}

func productCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "product <id|url|sku>",
		Short: "Show one product by id, product page URL, or SKU",
		Example: `  supplierctl product 2408300610371613200
  supplierctl product CJ-TEE-RED-M
  supplierctl product https://supplier.example/product/Ceramic-Mug-p-2408300610371613200.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			product, err := app.service.GetProduct(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if product == nil {
				return fmt.Errorf("no product matches %q", args[0])
			}

			if jsonOutput() {
				return outputJSON(product)
			}
			return printProductDetail(product)
		},
	}
}

func categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the supplier category tree as flat leaves",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			categories, err := app.service.Categories(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(categories)
			}
			return printCategoryTable(categories)
		},
	}
}

func myProductsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "my-products",
		Short: "List products imported into the connected account",
		Long: "Lists the connected account's products. The supplier endpoint\n" +
			"ignores pagination, so only the first page is reachable; the\n" +
			"output notes when records were left behind.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			result, err := app.service.MyProducts(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(result)
			}

			if err := printProductTable(result.Products); err != nil {
				return err
			}
			if result.Truncated {
				fmt.Printf("\nshowing %d of %d products; the rest are unreachable (supplier pagination defect)\n",
					len(result.Products), result.TotalAvailable)
			}
			return nil
		},
	}
}
