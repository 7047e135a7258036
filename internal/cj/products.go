package cj

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/dropforge/supplier-bridge/internal/metrics"
	domain "github.com/dropforge/supplier-bridge/pkg/types"
)

// Service defaults.
const (
	defaultPageSize = 20

	// defaultMyProductsPageSize is deliberately large: the my-products
	// endpoint ignores pagination parameters, so one request is all we
	// get. See MyProducts.
	defaultMyProductsPageSize = 200
)

// Service exposes the catalog, inventory, and freight operations over
// the authenticated client. It is the only layer that knows which
// supplier endpoint answers which question.
type Service struct {
	client             *Client
	logger             *slog.Logger
	myProductsPageSize int
	freightStart       string
	freightDests       []string
}

// ServiceOption configures the Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger.
func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = l
	}
}

// WithMyProductsPageSize overrides the single-request page size for the
// my-products listing.
func WithMyProductsPageSize(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.myProductsPageSize = n
		}
	}
}

// WithFreightRoutes sets the origin country and the ordered destination
// countries quoted for freight. The first destination is the preferred
// one: its options always lead the merged result.
func WithFreightRoutes(start string, destinations []string) ServiceOption {
	return func(s *Service) {
		if start != "" {
			s.freightStart = start
		}
		if len(destinations) > 0 {
			s.freightDests = destinations
		}
	}
}

// NewService creates a Service.
func NewService(client *Client, opts ...ServiceOption) *Service {
	s := &Service{
		client:             client,
		logger:             slog.Default(),
		myProductsPageSize: defaultMyProductsPageSize,
		freightStart:       "CN",
		freightDests:       []string{"US"},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SearchParams filter a catalog search. Zero values are omitted from
// the request.
type SearchParams struct {
	Query      string
	CategoryID string
	ProductID  string
	SKU        string
	Page       int
	PageSize   int
}

func (p SearchParams) values() url.Values {
	q := url.Values{}
	if p.Query != "" {
		q.Set("productNameEn", p.Query)
	}
	if p.CategoryID != "" {
		q.Set("categoryId", p.CategoryID)
	}
	if p.ProductID != "" {
		q.Set("pid", p.ProductID)
	}
	if p.SKU != "" {
		q.Set("productSku", p.SKU)
	}
	page := p.Page
	if page <= 0 {
		page = 1
	}
	size := p.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	q.Set("pageNum", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(size))
	return q
}

// SearchProducts queries the v2 catalog listing and normalizes the
// result. When the v2 payload fails shape validation the same request
// is re-issued once against the legacy listing endpoint; a legacy
// failure is terminal. Both shapes normalize to the same ProductPage,
// so callers never see which endpoint answered.
func (s *Service) SearchProducts(ctx context.Context, params SearchParams) (*ProductPage, error) {
	env, err := s.client.Get(ctx, endpointListV2, params.values())
	if err != nil {
		return nil, err
	}

	page, schemaErr := decodeListV2(env)
	if schemaErr == nil {
		return page, nil
	}

	metrics.ListFallbacksTotal.Inc()
	s.logger.Warn("v2 listing failed validation, falling back to legacy listing",
		"reason", schemaErr.Reason, "raw", string(schemaErr.Raw))

	env, err = s.client.Get(ctx, endpointList, params.values())
	if err != nil {
		return nil, err
	}
	return decodeList(env, endpointList)
}

// productIDPattern matches the numeric product id embedded in a
// supplier product page URL.
var productIDPattern = regexp.MustCompile(`[0-9]{4,}`)

type queryKind int

const (
	queryByID queryKind = iota
	queryBySKU
)

// classifyQuery decides how a free-form product query should be sent:
// a URL yields the embedded numeric id, an all-digit string is an id,
// anything else is a SKU.
func classifyQuery(q string) (queryKind, string) {
	q = strings.TrimSpace(q)

	if strings.HasPrefix(q, "http://") || strings.HasPrefix(q, "https://") {
		if u, err := url.Parse(q); err == nil {
			if id := productIDPattern.FindString(u.Path); id != "" {
				return queryByID, id
			}
		}
		// No numeric id in the URL; treat the last path segment as a SKU.
		segs := strings.Split(strings.Trim(q, "/"), "/")
		return queryBySKU, segs[len(segs)-1]
	}

	if q != "" && strings.IndexFunc(q, func(r rune) bool { return r < '0' || r > '9' }) < 0 {
		return queryByID, q
	}

	return queryBySKU, q
}

// GetProduct resolves a product by id, product page URL, or SKU. A
// successful search with no match returns (nil, nil).
func (s *Service) GetProduct(ctx context.Context, query string) (*domain.Product, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty product query")
	}

	params := SearchParams{PageSize: 1}
	switch kind, v := classifyQuery(query); kind {
	case queryByID:
		params.ProductID = v
	default:
		params.SKU = v
	}

	page, err := s.SearchProducts(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(page.Products) == 0 {
		return nil, nil
	}
	return &page.Products[0], nil
}

// Categories returns the supplier's category tree flattened to leaves.
func (s *Service) Categories(ctx context.Context) ([]domain.Category, error) {
	env, err := s.client.Get(ctx, endpointCategories, nil)
	if err != nil {
		return nil, err
	}
	return decodeCategories(env)
}

// StockReport is per-warehouse inventory for one variant SKU plus the
// computed total.
type StockReport struct {
	Warehouses []domain.WarehouseStock
	Total      int
}

// StockBySKU returns warehouse-level inventory for a variant SKU.
func (s *Service) StockBySKU(ctx context.Context, sku string) (*StockReport, error) {
	if strings.TrimSpace(sku) == "" {
		return nil, fmt.Errorf("empty variant SKU")
	}

	q := url.Values{}
	q.Set("sku", sku)

	env, err := s.client.Get(ctx, endpointStock, q)
	if err != nil {
		return nil, err
	}

	rows, err := decodeStock(env)
	if err != nil {
		return nil, err
	}

	report := &StockReport{Warehouses: rows}
	for _, r := range rows {
		report.Total += r.Quantity
	}
	return report, nil
}

// MyProductsResult is the connected account's product list. Truncated
// reports the known supplier defect: the endpoint ignores pagination
// parameters, so records beyond the first response are unreachable.
// That limitation is data for the caller, not an error.
type MyProductsResult struct {
	Products       []domain.Product
	TotalAvailable int
	Truncated      bool
}

// MyProducts lists the products imported into the connected supplier
// account. One request with the largest workable page size is issued;
// asking for further pages returns the first page again, so no
// pagination loop exists here on purpose.
func (s *Service) MyProducts(ctx context.Context) (*MyProductsResult, error) {
	q := url.Values{}
	q.Set("pageNum", "1")
	q.Set("pageSize", strconv.Itoa(s.myProductsPageSize))

	env, err := s.client.Get(ctx, endpointMyProducts, q)
	if err != nil {
		return nil, err
	}

	page, err := decodeList(env, endpointMyProducts)
	if err != nil {
		return nil, err
	}

	res := &MyProductsResult{
		Products:       page.Products,
		TotalAvailable: page.Total,
		Truncated:      page.Total > len(page.Products),
	}
	if res.Truncated {
		s.logger.Warn("my-products listing truncated by supplier pagination defect",
			"returned", len(res.Products), "total_available", res.TotalAvailable)
	}
	return res, nil
}
