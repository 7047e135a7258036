package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dropforge/supplier-bridge/internal/cj"
	domain "github.com/dropforge/supplier-bridge/pkg/types"
)

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printProductTable(products []domain.Product) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID\tNAME\tSKU\tPRICE\tCATEGORY\n")
	for i := range products {
		p := &products[i]
		price := "-"
		if p.SellPrice != nil {
			price = "$" + p.SellPrice.StringFixed(2)
		}
		tw.writef("%s\t%s\t%s\t%s\t%s\n",
			p.ID,
			truncate(p.NameEn, 40),
			p.SKU,
			price,
			p.CategoryID,
		)
	}
	return tw.finish()
}

func printProductDetail(p *domain.Product) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID:\t%s\n", p.ID)
	tw.writef("Name:\t%s\n", p.NameEn)
	tw.writef("SKU:\t%s\n", p.SKU)
	if p.SellPrice != nil {
		tw.writef("Price:\t$%s\n", p.SellPrice.StringFixed(2))
	}
	tw.writef("Category:\t%s\n", p.CategoryID)
	if p.ProductType != "" {
		tw.writef("Type:\t%s\n", p.ProductType)
	}
	if p.Packing != nil {
		tw.writef("Packing:\t%.0fx%.0fx%.0f mm, %.0f g\n",
			p.Packing.Length, p.Packing.Width, p.Packing.Height, p.Packing.Weight)
	}
	tw.writef("Image:\t%s\n", p.ImageURL)

	if len(p.Variants) > 0 {
		tw.writef("\nVARIANT\tSKU\tOPTIONS\tPRICE\tSTOCK\n")
		for i := range p.Variants {
			v := &p.Variants[i]
			price := "-"
			if v.SellPrice != nil {
				price = "$" + v.SellPrice.StringFixed(2)
			}
			stock := "-"
			if v.Stock != nil {
				stock = fmt.Sprintf("%d", *v.Stock)
			}
			tw.writef("%s\t%s\t%s\t%s\t%s\n",
				v.VariantID, v.SKU, formatOptions(v.Options), price, stock)
		}
	}
	return tw.finish()
}

func formatOptions(opts map[string]string) string {
	if len(opts) == 0 {
		return "-"
	}
	out := ""
	for k, v := range opts {
		if out != "" {
			out += ", "
		}
		out += k + "=" + v
	}
	return out
}

func printCategoryTable(categories []domain.Category) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID\tFIRST\tSECOND\tNAME\n")
	for i := range categories {
		c := &categories[i]
		tw.writef("%s\t%s\t%s\t%s\n", c.CategoryID, c.FirstName, c.SecondName, c.Name)
	}
	return tw.finish()
}

func printStockReport(report *cj.StockReport) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("WAREHOUSE\tCOUNTRY\tQUANTITY\n")
	for i := range report.Warehouses {
		w := &report.Warehouses[i]
		tw.writef("%s\t%s\t%d\n", w.AreaEn, w.CountryCode, w.Quantity)
	}
	tw.writef("TOTAL\t\t%d\n", report.Total)
	return tw.finish()
}

func printFreightTable(options []domain.FreightOption) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("CARRIER\tDEST\tPRICE\tDELIVERY DAYS\tAVG\n")
	for i := range options {
		o := &options[i]
		days := "-"
		if o.DeliveryDaysMax > 0 {
			days = fmt.Sprintf("%d-%d", o.DeliveryDaysMin, o.DeliveryDaysMax)
		}
		tw.writef("%s\t%s\t$%s\t%s\t%d\n",
			o.Carrier, o.DestinationCode, o.PriceUSD.StringFixed(2), days, o.AvgDeliveryDays)
	}
	return tw.finish()
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
