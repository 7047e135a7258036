// Package cj implements the resilient CJdropshipping API integration:
// credential storage, token lifecycle, the rate-limited retrying
// request client, and response normalization into the canonical
// product types.
package cj

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Supplier API endpoints, relative to the configured base URL.
const (
	endpointAuth       = "authentication/getAccessToken"
	endpointRefresh    = "authentication/refreshAccessToken"
	endpointList       = "product/list"
	endpointListV2     = "product/listV2"
	endpointCategories = "product/getCategory"
	endpointStock      = "product/stock/queryBySku"
	endpointMyProducts = "product/myProduct/query"
	endpointFreight    = "logistic/freightCalculate"
)

// tokenHeader carries the access token on every authenticated call.
const tokenHeader = "CJ-Access-Token"

// Supplier envelope codes. Auth and throttling failures arrive inside
// an HTTP 200 envelope, not as HTTP statuses.
const (
	codeOK              = 200
	codeAuthFailed      = 1600002
	codeTooManyRequests = 1600101
)

// Envelope is the common wrapper around every supplier response.
// Result and Success are pointers because the v2 listing endpoint emits
// three inconsistent success indicators and "absent" is meaningful.
type Envelope struct {
	Code      int             `json:"code"`
	Result    *bool           `json:"result"`
	Success   *bool           `json:"success"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	RequestID string          `json:"requestId"`
}

// OK reports the standard success signal used by every endpoint except
// the v2 product listing (see v2Success in normalize.go).
func (e *Envelope) OK() bool {
	return e.Code == codeOK && e.Result != nil && *e.Result
}

// authData is the payload of getAccessToken and refreshAccessToken.
type authData struct {
	AccessToken            string `json:"accessToken"`
	AccessTokenExpiryDate  string `json:"accessTokenExpiryDate"`
	RefreshToken           string `json:"refreshToken"`
	RefreshTokenExpiryDate string `json:"refreshTokenExpiryDate"`
}

// listData is the legacy product/list payload (shape A).
type listData struct {
	PageNum  int           `json:"pageNum"`
	PageSize int           `json:"pageSize"`
	Total    int           `json:"total"`
	List     []listProduct `json:"list"`
}

type listProduct struct {
	PID           string           `json:"pid"`
	ProductNameEn string           `json:"productNameEn"`
	ProductSKU    string           `json:"productSku"`
	ProductImage  string           `json:"productImage"`
	SellPrice     *decimal.Decimal `json:"sellPrice"`
	CategoryID    string           `json:"categoryId"`
	ProductType   string           `json:"productType"`
	PackingLength float64          `json:"packingLength"`
	PackingWidth  float64          `json:"packingWidth"`
	PackingHeight float64          `json:"packingHeight"`
	PackingWeight float64          `json:"packingWeight"`
	Variants      []listVariant    `json:"variants"`
}

type listVariant struct {
	VID                  string           `json:"vid"`
	VariantSKU           string           `json:"variantSku"`
	VariantImage         string           `json:"variantImage"`
	VariantKey           string           `json:"variantKey"`
	VariantSellPrice     *decimal.Decimal `json:"variantSellPrice"`
	VariantStandardPrice *decimal.Decimal `json:"variantStandardPrice"`
	VariantLength        float64          `json:"variantLength"`
	VariantWidth         float64          `json:"variantWidth"`
	VariantHeight        float64          `json:"variantHeight"`
	VariantWeight        float64          `json:"variantWeight"`
	VariantStock         *int             `json:"variantStock"`
}

// listV2Data is the search-engine-backed product/listV2 payload
// (shape B).
type listV2Data struct {
	Content      []listV2Content `json:"content"`
	TotalRecords *int            `json:"totalRecords"`
}

type listV2Content struct {
	ProductList []listV2Product `json:"productList"`
}

// listV2Product carries prices as strings which may be ranges
// ("9.15-9.40"); see domain.ParsePrice.
type listV2Product struct {
	ID          string `json:"id"`
	NameEn      string `json:"nameEn"`
	SKU         string `json:"sku"`
	BigImage    string `json:"bigImage"`
	SellPrice   string `json:"sellPrice"`
	NowPrice    string `json:"nowPrice"`
	CategoryID  string `json:"categoryId"`
	ProductType string `json:"productType"`
}

// Category tree: three levels, only leaves are usable as filters.
type categoryFirst struct {
	CategoryFirstName string           `json:"categoryFirstName"`
	CategoryFirstList []categorySecond `json:"categoryFirstList"`
}

type categorySecond struct {
	CategorySecondName string         `json:"categorySecondName"`
	CategorySecondList []categoryLeaf `json:"categorySecondList"`
}

type categoryLeaf struct {
	CategoryID   string `json:"categoryId"`
	CategoryName string `json:"categoryName"`
}

// stockRow is one warehouse's inventory for a variant SKU.
type stockRow struct {
	VID         string `json:"vid"`
	SKU         string `json:"sku"`
	AreaEn      string `json:"areaEn"`
	CountryCode string `json:"countryCode"`
	StorageNum  int    `json:"storageNum"`
}

// freightRequest is the logistic/freightCalculate request body.
type freightRequest struct {
	StartCountryCode string           `json:"startCountryCode"`
	EndCountryCode   string           `json:"endCountryCode"`
	Products         []freightProduct `json:"products"`
}

type freightProduct struct {
	VID      string `json:"vid"`
	Quantity int    `json:"quantity"`
}

// freightRow is one quoted shipping method.
type freightRow struct {
	LogisticName  string          `json:"logisticName"`
	LogisticPrice decimal.Decimal `json:"logisticPrice"`
	LogisticAging string          `json:"logisticAging"`
}
