package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func loadTestFixture(t *testing.T) *fixture {
	t.Helper()
	path := filepath.Join("testdata", "products.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading fixture: %v", err)
	}
	var fx fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		t.Fatalf("parsing fixture: %v", err)
	}
	return &fx
}

func testSupplier(t *testing.T) *mockSupplier {
	t.Helper()
	return &mockSupplier{logger: testLogger(), fixture: loadTestFixture(t)}
}

type envelope struct {
	Code    int             `json:"code"`
	Result  bool            `json:"result"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doRequest(t *testing.T, s *mockSupplier, method, target string, body string, token string) (*httptest.ResponseRecorder, *envelope) {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if token != "" {
		req.Header.Set(tokenHeader, token)
	}
	w := httptest.NewRecorder()
	s.routes().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		return w, nil
	}
	var env envelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("decoding envelope: %v", err)
	}
	return w, &env
}

func TestLoadFixture(t *testing.T) {
	fx := loadTestFixture(t)
	if len(fx.Products) == 0 {
		t.Fatal("expected products in fixture")
	}
}

func TestAuthIssuesToken(t *testing.T) {
	s := testSupplier(t)
	_, env := doRequest(t, s, http.MethodPost, "/api2.0/v1/authentication/getAccessToken",
		`{"email":"shop@example.com","password":"key"}`, "")

	if env.Code != codeOK {
		t.Fatalf("code=%d, want %d", env.Code, codeOK)
	}
	var data map[string]string
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decoding data: %v", err)
	}
	if data["accessToken"] != mockToken {
		t.Errorf("accessToken=%q, want %q", data["accessToken"], mockToken)
	}
	if data["accessTokenExpiryDate"] == "" {
		t.Error("expected expiry date")
	}
}

func TestAuthRejectsMissingCredentials(t *testing.T) {
	s := testSupplier(t)
	_, env := doRequest(t, s, http.MethodPost, "/api2.0/v1/authentication/getAccessToken", `{}`, "")

	if env.Code != codeAuthFailed {
		t.Errorf("code=%d, want %d", env.Code, codeAuthFailed)
	}
}

func TestAuthedEndpointRejectsBadToken(t *testing.T) {
	s := testSupplier(t)
	w, env := doRequest(t, s, http.MethodGet, "/api2.0/v1/product/listV2", "", "wrong-token")

	// The rejection rides inside a 200 envelope, like the real API.
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", w.Code)
	}
	if env.Code != codeAuthFailed {
		t.Errorf("code=%d, want %d", env.Code, codeAuthFailed)
	}
}

func TestListV2FiltersByName(t *testing.T) {
	s := testSupplier(t)
	_, env := doRequest(t, s, http.MethodGet, "/api2.0/v1/product/listV2?productNameEn=mug", "", mockToken)

	var data struct {
		TotalRecords int `json:"totalRecords"`
		Content      []struct {
			ProductList []struct {
				NameEn string `json:"nameEn"`
			} `json:"productList"`
		} `json:"content"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decoding data: %v", err)
	}
	if data.TotalRecords == 0 {
		t.Fatal("expected mug results")
	}
	for _, p := range data.Content[0].ProductList {
		if !strings.Contains(strings.ToLower(p.NameEn), "mug") {
			t.Errorf("unexpected product %q", p.NameEn)
		}
	}
}

func TestListV2Drifted(t *testing.T) {
	s := testSupplier(t)
	s.driftV2 = true
	_, env := doRequest(t, s, http.MethodGet, "/api2.0/v1/product/listV2", "", mockToken)

	if env.Code != codeOK {
		t.Fatalf("code=%d, want %d", env.Code, codeOK)
	}
	if !strings.Contains(string(env.Data), "productUuid") {
		t.Error("expected drifted field name in payload")
	}
}

func TestLegacyListPagination(t *testing.T) {
	s := testSupplier(t)
	_, env := doRequest(t, s, http.MethodGet, "/api2.0/v1/product/list?pageNum=2&pageSize=2", "", mockToken)

	var data struct {
		Total int       `json:"total"`
		List  []product `json:"list"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decoding data: %v", err)
	}
	if data.Total != len(s.fixture.Products) {
		t.Errorf("total=%d, want %d", data.Total, len(s.fixture.Products))
	}
	if len(data.List) != 2 {
		t.Errorf("page items=%d, want 2", len(data.List))
	}
}

func TestMyProductsIgnoresPageNum(t *testing.T) {
	s := testSupplier(t)

	_, first := doRequest(t, s, http.MethodGet, "/api2.0/v1/product/myProduct/query?pageNum=1&pageSize=2", "", mockToken)
	_, second := doRequest(t, s, http.MethodGet, "/api2.0/v1/product/myProduct/query?pageNum=2&pageSize=2", "", mockToken)

	if string(first.Data) != string(second.Data) {
		t.Error("expected page 2 to repeat page 1 (simulated pagination defect)")
	}
}

func TestStockBySKU(t *testing.T) {
	s := testSupplier(t)
	_, env := doRequest(t, s, http.MethodGet, "/api2.0/v1/product/stock/queryBySku?sku=CJ-TEE-01-RED-M", "", mockToken)

	var rows []struct {
		SKU        string `json:"sku"`
		StorageNum int    `json:"storageNum"`
	}
	if err := json.Unmarshal(env.Data, &rows); err != nil {
		t.Fatalf("decoding data: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows=%d, want 1", len(rows))
	}
	if rows[0].StorageNum != 320 {
		t.Errorf("storageNum=%d, want 320", rows[0].StorageNum)
	}
}

func TestFreightEchoesDestination(t *testing.T) {
	s := testSupplier(t)
	_, env := doRequest(t, s, http.MethodPost, "/api2.0/v1/logistic/freightCalculate",
		`{"startCountryCode":"CN","endCountryCode":"US","products":[{"vid":"v-tee-red-m","quantity":1}]}`, mockToken)

	if !strings.Contains(string(env.Data), "MockPacket Express US") {
		t.Errorf("expected destination echoed in carrier name, got %s", env.Data)
	}
}

func TestThrottleEveryNth(t *testing.T) {
	s := testSupplier(t)
	s.throttleEvery = 2

	w1, _ := doRequest(t, s, http.MethodGet, "/api2.0/v1/product/list", "", mockToken)
	w2, _ := doRequest(t, s, http.MethodGet, "/api2.0/v1/product/list", "", mockToken)

	if w1.Code != http.StatusOK {
		t.Errorf("first request status=%d, want 200", w1.Code)
	}
	if w2.Code != http.StatusTooManyRequests {
		t.Errorf("second request status=%d, want 429", w2.Code)
	}
	if w2.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header on throttled response")
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}
