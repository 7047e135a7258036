// Package main implements a mock supplier API server for local
// development. It serves canned products from a JSON fixture behind the
// supplier's envelope protocol, so supplierctl and the bridge can be
// exercised without real credentials or rate limits.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

const (
	codeOK         = 200
	codeAuthFailed = 1600002

	tokenHeader = "CJ-Access-Token"
	mockToken   = "mock-access-token"
)

type fixture struct {
	Products []product `json:"products"`
}

type product struct {
	PID           string    `json:"pid"`
	ProductNameEn string    `json:"productNameEn"`
	ProductSKU    string    `json:"productSku"`
	SellPrice     float64   `json:"sellPrice"`
	CategoryID    string    `json:"categoryId"`
	Variants      []variant `json:"variants"`
}

type variant struct {
	VID              string  `json:"vid"`
	VariantSKU       string  `json:"variantSku"`
	VariantKey       string  `json:"variantKey"`
	VariantSellPrice float64 `json:"variantSellPrice"`
	VariantStock     int     `json:"variantStock"`
}

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	fixtureFile := flag.String("fixture", "tools/mock-server/testdata/products.json", "path to product fixture")
	driftV2 := flag.Bool("drift-v2", false, "serve a drifted listV2 payload to exercise the legacy fallback")
	throttleEvery := flag.Int("throttle-every", 0, "return 429 on every Nth request (0 disables)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	fx, err := loadFixture(*fixtureFile)
	if err != nil {
		logger.Error("failed to load fixture", "path", *fixtureFile, "error", err)
		os.Exit(1)
	}
	logger.Info("loaded fixture", "products", len(fx.Products))

	s := &mockSupplier{logger: logger, fixture: fx, driftV2: *driftV2, throttleEvery: *throttleEvery}

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock supplier server", "addr", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, s.routes()),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

type mockSupplier struct {
	logger        *slog.Logger
	fixture       *fixture
	driftV2       bool
	throttleEvery int
	requests      atomic.Int64
}

func (s *mockSupplier) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api2.0/v1/authentication/getAccessToken", s.handleAuth)
	mux.HandleFunc("POST /api2.0/v1/authentication/refreshAccessToken", s.handleAuth)
	mux.HandleFunc("GET /api2.0/v1/product/listV2", s.authed(s.handleListV2))
	mux.HandleFunc("GET /api2.0/v1/product/list", s.authed(s.handleList))
	mux.HandleFunc("GET /api2.0/v1/product/getCategory", s.authed(s.handleCategories))
	mux.HandleFunc("GET /api2.0/v1/product/stock/queryBySku", s.authed(s.handleStock))
	mux.HandleFunc("GET /api2.0/v1/product/myProduct/query", s.authed(s.handleMyProducts))
	mux.HandleFunc("POST /api2.0/v1/logistic/freightCalculate", s.authed(s.handleFreight))
	return mux
}

func loadFixture(path string) (*fixture, error) {
	data, err := os.ReadFile(path) //nolint:gosec // fixture path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	var fx fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	return &fx, nil
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		next.ServeHTTP(w, r)
	})
}

func writeEnvelope(w http.ResponseWriter, code int, message string, data any) {
	result := code == codeOK
	w.Header().Set("Content-Type", "application/json")
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	json.NewEncoder(w).Encode(map[string]any{
		"code":      code,
		"result":    result,
		"success":   result,
		"message":   message,
		"data":      data,
		"requestId": fmt.Sprintf("mock-%d", time.Now().UnixNano()),
	})
}

// authed rejects requests without the mock token inside a 200 envelope,
// the way the real supplier does, and applies optional throttling.
func (s *mockSupplier) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.throttleEvery > 0 && s.requests.Add(1)%int64(s.throttleEvery) == 0 {
			s.logger.Info("throttling request")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		if r.Header.Get(tokenHeader) != mockToken {
			writeEnvelope(w, codeAuthFailed, "access token expired", nil)
			return
		}
		next(w, r)
	}
}

func (s *mockSupplier) handleAuth(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	//nolint:errcheck,gosec // best-effort decode; empty body yields an auth failure below
	json.NewDecoder(r.Body).Decode(&body)

	if body["password"] == "" && body["refreshToken"] == "" {
		writeEnvelope(w, codeAuthFailed, "missing credentials", nil)
		return
	}

	writeEnvelope(w, codeOK, "ok", map[string]string{
		"accessToken":           mockToken,
		"refreshToken":          "mock-refresh-token",
		"accessTokenExpiryDate": time.Now().Add(15 * 24 * time.Hour).UTC().Format(time.RFC3339),
	})
	s.logger.Info("issued mock token")
}

// match reports whether p satisfies the listing query parameters.
func match(p *product, q map[string]string) bool {
	if name := strings.ToLower(q["productNameEn"]); name != "" &&
		!strings.Contains(strings.ToLower(p.ProductNameEn), name) {
		return false
	}
	if pid := q["pid"]; pid != "" && p.PID != pid {
		return false
	}
	if sku := q["productSku"]; sku != "" && p.ProductSKU != sku {
		return false
	}
	if cat := q["categoryId"]; cat != "" && p.CategoryID != cat {
		return false
	}
	return true
}

func listingQuery(r *http.Request) (q map[string]string, page, size int) {
	q = map[string]string{}
	for _, k := range []string{"productNameEn", "pid", "productSku", "categoryId"} {
		q[k] = r.URL.Query().Get(k)
	}
	page, size = 1, 20
	if v, err := strconv.Atoi(r.URL.Query().Get("pageNum")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("pageSize")); err == nil && v > 0 {
		size = v
	}
	return q, page, size
}

func (s *mockSupplier) filter(r *http.Request) (matched []product, page, size int) {
	q, page, size := listingQuery(r)
	for i := range s.fixture.Products {
		if match(&s.fixture.Products[i], q) {
			matched = append(matched, s.fixture.Products[i])
		}
	}
	return matched, page, size
}

func paginate(items []product, page, size int) []product {
	start := (page - 1) * size
	if start >= len(items) {
		return nil
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func (s *mockSupplier) handleListV2(w http.ResponseWriter, r *http.Request) {
	if s.driftV2 {
		// Simulate the renamed-field drift that forces clients onto the
		// legacy endpoint.
		writeEnvelope(w, codeOK, "ok", map[string]any{
			"totalRecords": 1,
			"content": []map[string]any{
				{"productList": []map[string]any{{"productUuid": "drifted", "nameEn": "Drifted"}}},
			},
		})
		return
	}

	matched, page, size := s.filter(r)

	list := []map[string]any{}
	for i := range paginate(matched, page, size) {
		p := &matched[(page-1)*size+i]
		list = append(list, map[string]any{
			"id":         p.PID,
			"nameEn":     p.ProductNameEn,
			"sku":        p.ProductSKU,
			"sellPrice":  fmt.Sprintf("%.2f", p.SellPrice),
			"categoryId": p.CategoryID,
		})
	}

	writeEnvelope(w, codeOK, "ok", map[string]any{
		"totalRecords": len(matched),
		"content":      []map[string]any{{"productList": list}},
	})
}

func (s *mockSupplier) listPayload(r *http.Request) map[string]any {
	matched, page, size := s.filter(r)
	pageItems := paginate(matched, page, size)
	if pageItems == nil {
		pageItems = []product{}
	}
	return map[string]any{
		"pageNum":  page,
		"pageSize": size,
		"total":    len(matched),
		"list":     pageItems,
	}
}

func (s *mockSupplier) handleList(w http.ResponseWriter, r *http.Request) {
	writeEnvelope(w, codeOK, "ok", s.listPayload(r))
}

// handleMyProducts reproduces the production defect on purpose: the
// pagination parameters are accepted and ignored, and the first page is
// always returned.
func (s *mockSupplier) handleMyProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	q.Set("pageNum", "1")
	r.URL.RawQuery = q.Encode()
	writeEnvelope(w, codeOK, "ok", s.listPayload(r))
}

func (s *mockSupplier) handleCategories(w http.ResponseWriter, _ *http.Request) {
	writeEnvelope(w, codeOK, "ok", []map[string]any{
		{
			"categoryFirstName": "Home & Garden",
			"categoryFirstList": []map[string]any{
				{
					"categorySecondName": "Kitchen",
					"categorySecondList": []map[string]any{
						{"categoryId": "cat-kitchen-mugs", "categoryName": "Mugs"},
					},
				},
			},
		},
	})
}

func (s *mockSupplier) handleStock(w http.ResponseWriter, r *http.Request) {
	sku := r.URL.Query().Get("sku")
	for i := range s.fixture.Products {
		for _, v := range s.fixture.Products[i].Variants {
			if v.VariantSKU == sku {
				writeEnvelope(w, codeOK, "ok", []map[string]any{
					{"vid": v.VID, "sku": v.VariantSKU, "areaEn": "China Warehouse", "countryCode": "CN", "storageNum": v.VariantStock},
				})
				return
			}
		}
	}
	writeEnvelope(w, codeOK, "ok", []map[string]any{})
}

func (s *mockSupplier) handleFreight(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EndCountryCode string `json:"endCountryCode"`
	}
	//nolint:errcheck,gosec // best-effort decode; empty destination still quotes
	json.NewDecoder(r.Body).Decode(&req)

	writeEnvelope(w, codeOK, "ok", []map[string]any{
		{"logisticName": "MockPacket Ordinary", "logisticPrice": 4.37, "logisticAging": "8-12"},
		{"logisticName": "MockPacket Express " + req.EndCountryCode, "logisticPrice": 9.80, "logisticAging": "3-5"},
	})
}
