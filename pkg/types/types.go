// Package domain defines the canonical supplier-facing business types.
// Every product returned by the integration layer is normalized into
// these types regardless of which supplier endpoint (or response shape)
// produced it.
package domain

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Product is the canonical supplier product representation.
type Product struct {
	ID       string `json:"id"`
	NameEn   string `json:"name_en"`
	SKU      string `json:"sku"`
	ImageURL string `json:"image_url,omitempty"`

	SellPrice   *decimal.Decimal `json:"sell_price,omitempty"`
	CategoryID  string           `json:"category_id,omitempty"`
	ProductType string           `json:"product_type,omitempty"`

	Packing  *Dimensions `json:"packing,omitempty"`
	Variants []Variant   `json:"variants,omitempty"`
}

// Dimensions holds packing measurements in centimeters and grams.
type Dimensions struct {
	Length float64 `json:"length,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Weight float64 `json:"weight,omitempty"`
}

// Variant is one option combination (e.g. color/size) of a product with
// its own SKU, price, and stock.
type Variant struct {
	VariantID string            `json:"variant_id"`
	SKU       string            `json:"sku"`
	ImageURL  string            `json:"image_url,omitempty"`
	Options   map[string]string `json:"options,omitempty"`

	SellPrice *decimal.Decimal `json:"sell_price,omitempty"`
	ListPrice *decimal.Decimal `json:"list_price,omitempty"`

	Dimensions *Dimensions `json:"dimensions,omitempty"`
	Stock      *int        `json:"stock,omitempty"`
}

// Category is a leaf (third-level) supplier category, carrying the
// names of its two ancestors. Only leaf categories are accepted by the
// supplier as search filters.
type Category struct {
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
	SecondName string `json:"second_name"`
	FirstName  string `json:"first_name"`
}

// WarehouseStock is the inventory of one variant SKU in one supplier
// warehouse.
type WarehouseStock struct {
	VariantID   string `json:"variant_id"`
	SKU         string `json:"sku"`
	AreaEn      string `json:"area_en"`
	CountryCode string `json:"country_code"`
	Quantity    int    `json:"quantity"`
}

// FreightOption is one shipping method/price/ETA combination quoted by
// the supplier for a destination country.
type FreightOption struct {
	Carrier         string          `json:"carrier"`
	PriceUSD        decimal.Decimal `json:"price_usd"`
	DeliveryDaysMin int             `json:"delivery_days_min"`
	DeliveryDaysMax int             `json:"delivery_days_max"`
	AvgDeliveryDays int             `json:"avg_delivery_days"`
	DestinationCode string          `json:"destination_code"`
}

// ParseOptions parses a delimited variant key ("Color:Red|Size:M") into
// an option map. Malformed input degrades to nil rather than an error:
// the supplier emits free-form keys for some legacy products and a
// missing option map must not fail the whole record.
func ParseOptions(variantKey string) map[string]string {
	if strings.TrimSpace(variantKey) == "" {
		return nil
	}

	opts := make(map[string]string)
	for _, pair := range strings.Split(variantKey, "|") {
		k, v, ok := strings.Cut(pair, ":")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			return nil
		}
		opts[k] = v
	}
	return opts
}

// ParsePrice parses a supplier price string into a decimal. The
// supplier sometimes returns a range ("9.15-9.40"); the first numeric
// token wins. Returns nil when no leading token parses.
func ParsePrice(s string) *decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if i := strings.IndexAny(s[1:], "-~"); i >= 0 {
		s = s[:i+1]
	}

	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &d
}

// ParseDeliveryRange parses a supplier delivery-aging string ("2-5")
// into min/max days and the rounded midpoint (round half up).
func ParseDeliveryRange(aging string) (minDays, maxDays, avg int, ok bool) {
	lo, hi, found := strings.Cut(strings.TrimSpace(aging), "-")
	if !found {
		// Single value, e.g. "7".
		n, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return 0, 0, 0, false
		}
		return n, n, n, true
	}

	minDays, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return 0, 0, 0, false
	}
	maxDays, err = strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return 0, 0, 0, false
	}

	avg = int(math.Floor(float64(minDays+maxDays)/2 + 0.5))
	return minDays, maxDays, avg, true
}
