package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sellerdash/internal/cache"
	"sellerdash/internal/domain"
	"sellerdash/internal/kv"
	"sellerdash/internal/service"
	"sellerdash/internal/store/memory"
)

type stubWB struct {
	rows    []domain.ReportDetailRow
	remains []domain.WarehouseRemain
	fail    bool
}

func (s *stubWB) ReportDetail(context.Context, time.Time, time.Time) ([]domain.ReportDetailRow, error) {
	if s.fail {
		return nil, errors.New("upstream down")
	}
	return s.rows, nil
}

func (s *stubWB) WarehouseRemains(context.Context) ([]domain.WarehouseRemain, error) {
	if s.fail {
		return nil, errors.New("upstream down")
	}
	return s.remains, nil
}

func (s *stubWB) AcceptanceCoefficients(context.Context) ([]domain.AcceptanceCoefficient, error) {
	return nil, nil
}

func (s *stubWB) PaidStorage(context.Context, time.Time, time.Time) ([]domain.PaidStorageRow, error) {
	return nil, nil
}

func newTestHandler(wb *stubWB) http.Handler {
	repo := memory.New()
	fetcher := cache.NewFetcher(cache.New(kv.NewMemory()))
	svc := service.New(repo, fetcher, wb, "main-store")
	return New(svc, "http://127.0.0.1:3000").Handler()
}

func doRequest(t *testing.T, handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := doRequest(t, newTestHandler(&stubWB{}), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestSalesReportEndpoint(t *testing.T) {
	handler := newTestHandler(&stubWB{rows: []domain.ReportDetailRow{
		{NmID: "101", SubjectName: "Футболки", DocTypeName: domain.DocTypeSale, RetailPrice: 100, Quantity: 2, PPVZForPay: 150, DeliveryRub: 10, StorageFee: 5},
	}})

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/analytics/report?from=2026-08-01&to=2026-08-28", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("content type = %q", got)
	}

	var report domain.SalesReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	agg, ok := report.PerProduct["101"]
	if !ok {
		t.Fatalf("product missing from report: %s", rec.Body.String())
	}
	if agg.Profit != 135 || agg.SalesAmount != 200 {
		t.Fatalf("unexpected aggregate: %+v", agg)
	}
	if report.General.TotalSalesVolume != 200 {
		t.Fatalf("unexpected general block: %+v", report.General)
	}
}

func TestPeriodValidation(t *testing.T) {
	handler := newTestHandler(&stubWB{})

	cases := []string{
		"/api/v1/analytics/report?from=28-08-2026",
		"/api/v1/analytics/report?to=yesterday",
		"/api/v1/analytics/report?from=2026-08-28&to=2026-08-01",
	}
	for _, target := range cases {
		if rec := doRequest(t, handler, http.MethodGet, target, ""); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", target, rec.Code)
		}
	}
}

func TestTopProductsUnknownSortRejected(t *testing.T) {
	rec := doRequest(t, newTestHandler(&stubWB{}), http.MethodGet, "/api/v1/analytics/top?sort=__proto__", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUpstreamFailureMapsToBadGateway(t *testing.T) {
	rec := doRequest(t, newTestHandler(&stubWB{fail: true}), http.MethodGet, "/api/v1/warehouse/remains", "")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}

	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if payload["error"] == "" {
		t.Fatalf("expected error message, got %s", rec.Body.String())
	}
}

func TestProductCostRoundTrip(t *testing.T) {
	handler := newTestHandler(&stubWB{})

	rec := doRequest(t, handler, http.MethodPut, "/api/v1/products/101/cost", `{"cost_price": 450}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("put status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/products/costs", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var payload struct {
		Costs []domain.ProductCost `json:"costs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(payload.Costs) != 1 || payload.Costs[0].NmID != "101" || payload.Costs[0].CostPrice != 450 {
		t.Fatalf("unexpected costs: %+v", payload.Costs)
	}
}

func TestProductCostValidation(t *testing.T) {
	handler := newTestHandler(&stubWB{})

	if rec := doRequest(t, handler, http.MethodPut, "/api/v1/products/101/cost", `not json`); rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed body: status = %d, want 400", rec.Code)
	}
	if rec := doRequest(t, handler, http.MethodPut, "/api/v1/products/101/cost", `{"cost_price": -1}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("negative cost: status = %d, want 400", rec.Code)
	}
}

func TestProfitabilityEndpoint(t *testing.T) {
	handler := newTestHandler(&stubWB{
		rows: []domain.ReportDetailRow{
			{NmID: "101", DocTypeName: domain.DocTypeSale, RetailPrice: 500, Quantity: 14},
		},
		remains: []domain.WarehouseRemain{{NmID: "101", Quantity: 20}},
	})

	if rec := doRequest(t, handler, http.MethodPut, "/api/v1/products/101/cost", `{"cost_price": 400}`); rec.Code != http.StatusOK {
		t.Fatalf("cost setup failed: %d", rec.Code)
	}

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/products/101/profitability?from=2026-08-01&to=2026-08-29", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var advice domain.ProfitabilityAdvice
	if err := json.Unmarshal(rec.Body.Bytes(), &advice); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if advice.NmID != "101" || advice.CostPrice != 400 || advice.CurrentPrice != 500 {
		t.Fatalf("unexpected advice: %+v", advice)
	}
	if advice.QuantityOnHand != 20 {
		t.Fatalf("quantityOnHand = %d, want 20", advice.QuantityOnHand)
	}
}

func TestProductRoutesNotFound(t *testing.T) {
	handler := newTestHandler(&stubWB{})

	for _, tc := range []struct {
		method string
		target string
	}{
		{http.MethodGet, "/api/v1/products/101/unknown"},
		{http.MethodGet, "/api/v1/products/101"},
		{http.MethodPost, "/api/v1/products/101/cost"},
	} {
		if rec := doRequest(t, handler, tc.method, tc.target, ""); rec.Code != http.StatusNotFound {
			t.Fatalf("%s %s: status = %d, want 404", tc.method, tc.target, rec.Code)
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	rec := doRequest(t, newTestHandler(&stubWB{}), http.MethodPost, "/api/v1/analytics/report", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestCORSHeadersAndPreflight(t *testing.T) {
	handler := newTestHandler(&stubWB{})

	rec := doRequest(t, handler, http.MethodGet, "/healthz", "")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://127.0.0.1:3000" {
		t.Fatalf("allow-origin = %q", got)
	}

	rec = doRequest(t, handler, http.MethodOptions, "/api/v1/analytics/report", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", rec.Code)
	}
}
