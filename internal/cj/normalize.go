package cj

import (
	"encoding/json"
	"strings"

	domain "github.com/dropforge/supplier-bridge/pkg/types"
)

// ProductPage is one page of canonical products plus the total the
// supplier reports across all pages.
type ProductPage struct {
	Products []domain.Product
	Total    int
}

// v2Success checks the v2 listing's success signal. The endpoint emits
// three inconsistent indicators and none alone is reliable, so all
// three are checked in priority order: result, then success, then
// code. Observed supplier behavior, not documented; do not assume it
// is stable across supplier versions.
func v2Success(env *Envelope) bool {
	if env.Result != nil {
		return *env.Result
	}
	if env.Success != nil {
		return *env.Success
	}
	return env.Code == codeOK
}

// decodeListV2 validates and converts a shape-B (product/listV2)
// envelope. A non-nil *SchemaError means the payload did not match the
// expected shape; the caller owns the decision to fall back to the
// legacy endpoint — decoding never triggers network calls itself.
func decodeListV2(env *Envelope) (*ProductPage, *SchemaError) {
	if !v2Success(env) {
		return nil, &SchemaError{
			Endpoint: endpointListV2,
			Reason:   "no success indicator set",
			Raw:      env.Data,
		}
	}

	var data listV2Data
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, &SchemaError{
			Endpoint: endpointListV2,
			Reason:   "payload does not match v2 listing shape",
			Raw:      env.Data,
		}
	}
	if data.Content == nil {
		// An empty page arrives as content:[]; content absent entirely
		// means the container was renamed or the shape drifted.
		return nil, &SchemaError{
			Endpoint: endpointListV2,
			Reason:   "v2 listing payload missing content",
			Raw:      env.Data,
		}
	}

	page := &ProductPage{}
	if data.TotalRecords != nil {
		page.Total = *data.TotalRecords
	}

	for _, content := range data.Content {
		for i := range content.ProductList {
			wire := &content.ProductList[i]
			if wire.ID == "" {
				// Every real v2 product has an id; its absence means
				// the shape drifted, not that the record is optional.
				return nil, &SchemaError{
					Endpoint: endpointListV2,
					Reason:   "v2 product missing id",
					Raw:      env.Data,
				}
			}
			if p, ok := fromListV2Product(wire); ok {
				page.Products = append(page.Products, p)
			}
		}
	}

	return page, nil
}

// fromListV2Product converts a v2 product, reporting ok=false for the
// placeholder entries the supplier is known to return with blank
// names.
func fromListV2Product(wire *listV2Product) (domain.Product, bool) {
	if strings.TrimSpace(wire.NameEn) == "" {
		return domain.Product{}, false
	}

	p := domain.Product{
		ID:          wire.ID,
		NameEn:      wire.NameEn,
		SKU:         wire.SKU,
		ImageURL:    wire.BigImage,
		CategoryID:  wire.CategoryID,
		ProductType: wire.ProductType,
	}

	// Prefer sellPrice, fall back to nowPrice; both may be ranges.
	if price := domain.ParsePrice(wire.SellPrice); price != nil {
		p.SellPrice = price
	} else if price := domain.ParsePrice(wire.NowPrice); price != nil {
		p.SellPrice = price
	}

	return p, true
}

// decodeList validates and converts a shape-A (product/list) envelope.
// There is no further fallback behind this shape: failures surface as
// *SchemaError.
func decodeList(env *Envelope, endpoint string) (*ProductPage, error) {
	if !env.OK() {
		return nil, &APIError{Endpoint: endpoint, Code: env.Code, Message: env.Message}
	}

	var data listData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, &SchemaError{
			Endpoint: endpoint,
			Reason:   "payload does not match legacy listing shape",
			Raw:      env.Data,
		}
	}
	if data.List == nil {
		return nil, &SchemaError{
			Endpoint: endpoint,
			Reason:   "legacy listing payload missing list",
			Raw:      env.Data,
		}
	}

	page := &ProductPage{Total: data.Total}
	for i := range data.List {
		page.Products = append(page.Products, fromListProduct(&data.List[i]))
	}

	return page, nil
}

func fromListProduct(wire *listProduct) domain.Product {
	p := domain.Product{
		ID:          wire.PID,
		NameEn:      wire.ProductNameEn,
		SKU:         wire.ProductSKU,
		ImageURL:    wire.ProductImage,
		SellPrice:   wire.SellPrice,
		CategoryID:  wire.CategoryID,
		ProductType: wire.ProductType,
	}

	if dims := packDimensions(wire.PackingLength, wire.PackingWidth, wire.PackingHeight, wire.PackingWeight); dims != nil {
		p.Packing = dims
	}

	for i := range wire.Variants {
		p.Variants = append(p.Variants, fromListVariant(&wire.Variants[i]))
	}

	return p
}

func fromListVariant(wire *listVariant) domain.Variant {
	v := domain.Variant{
		VariantID: wire.VID,
		SKU:       wire.VariantSKU,
		ImageURL:  wire.VariantImage,
		Options:   domain.ParseOptions(wire.VariantKey),
		SellPrice: wire.VariantSellPrice,
		ListPrice: wire.VariantStandardPrice,
		Stock:     wire.VariantStock,
	}

	if dims := packDimensions(wire.VariantLength, wire.VariantWidth, wire.VariantHeight, wire.VariantWeight); dims != nil {
		v.Dimensions = dims
	}

	return v
}

func packDimensions(l, w, h, weight float64) *domain.Dimensions {
	if l == 0 && w == 0 && h == 0 && weight == 0 {
		return nil
	}
	return &domain.Dimensions{Length: l, Width: w, Height: h, Weight: weight}
}

// decodeCategories flattens the supplier's three-level category tree
// into leaf records. Only leaves are usable as search filters.
func decodeCategories(env *Envelope) ([]domain.Category, error) {
	if !env.OK() {
		return nil, &APIError{Endpoint: endpointCategories, Code: env.Code, Message: env.Message}
	}

	var tree []categoryFirst
	if err := json.Unmarshal(env.Data, &tree); err != nil {
		return nil, &SchemaError{
			Endpoint: endpointCategories,
			Reason:   "payload does not match category tree shape",
			Raw:      env.Data,
		}
	}

	var leaves []domain.Category
	for _, first := range tree {
		for _, second := range first.CategoryFirstList {
			for _, leaf := range second.CategorySecondList {
				leaves = append(leaves, domain.Category{
					CategoryID: leaf.CategoryID,
					Name:       leaf.CategoryName,
					SecondName: second.CategorySecondName,
					FirstName:  first.CategoryFirstName,
				})
			}
		}
	}

	return leaves, nil
}

// decodeStock validates a per-SKU inventory payload: a flat array,
// no shape reconciliation needed.
func decodeStock(env *Envelope) ([]domain.WarehouseStock, error) {
	if !env.OK() {
		return nil, &APIError{Endpoint: endpointStock, Code: env.Code, Message: env.Message}
	}

	var rows []stockRow
	if err := json.Unmarshal(env.Data, &rows); err != nil {
		return nil, &SchemaError{
			Endpoint: endpointStock,
			Reason:   "payload does not match stock shape",
			Raw:      env.Data,
		}
	}

	stocks := make([]domain.WarehouseStock, 0, len(rows))
	for _, r := range rows {
		stocks = append(stocks, domain.WarehouseStock{
			VariantID:   r.VID,
			SKU:         r.SKU,
			AreaEn:      r.AreaEn,
			CountryCode: r.CountryCode,
			Quantity:    r.StorageNum,
		})
	}

	return stocks, nil
}

// decodeFreight validates a freight quote payload and derives the
// delivery-day statistics for each option.
func decodeFreight(env *Envelope, destination string) ([]domain.FreightOption, error) {
	if !env.OK() {
		return nil, &APIError{Endpoint: endpointFreight, Code: env.Code, Message: env.Message}
	}

	var rows []freightRow
	if err := json.Unmarshal(env.Data, &rows); err != nil {
		return nil, &SchemaError{
			Endpoint: endpointFreight,
			Reason:   "payload does not match freight shape",
			Raw:      env.Data,
		}
	}

	options := make([]domain.FreightOption, 0, len(rows))
	for _, r := range rows {
		opt := domain.FreightOption{
			Carrier:         r.LogisticName,
			PriceUSD:        r.LogisticPrice,
			DestinationCode: destination,
		}
		if minDays, maxDays, avg, ok := domain.ParseDeliveryRange(r.LogisticAging); ok {
			opt.DeliveryDaysMin = minDays
			opt.DeliveryDaysMax = maxDays
			opt.AvgDeliveryDays = avg
		}
		options = append(options, opt)
	}

	return options, nil
}
