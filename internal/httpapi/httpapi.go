// Package httpapi is the REST surface the dashboard consumes. It parses
// requests, delegates to the service layer, and renders JSON.
package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sellerdash/internal/domain"
	"sellerdash/internal/service"
	"sellerdash/internal/store"
)

const defaultPeriodDays = 30

type API struct {
	service       *service.Service
	allowedOrigin string
}

func New(svc *service.Service, allowedOrigin string) *API {
	return &API{
		service:       svc,
		allowedOrigin: allowedOrigin,
	}
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealth)

	mux.HandleFunc("/api/v1/analytics/report", a.handleSalesReport)
	mux.HandleFunc("/api/v1/analytics/top", a.handleTopProducts)
	mux.HandleFunc("/api/v1/analytics/categories", a.handleCategories)
	mux.HandleFunc("/api/v1/analytics/snapshots", a.handleSnapshots)

	mux.HandleFunc("/api/v1/warehouse/remains", a.handleWarehouseRemains)
	mux.HandleFunc("/api/v1/supplies/coefficients", a.handleCoefficients)
	mux.HandleFunc("/api/v1/storage/paid", a.handlePaidStorage)

	mux.HandleFunc("/api/v1/products/costs", a.handleProductCosts)
	mux.HandleFunc("/api/v1/products/", a.handleProductActions)

	return a.withMiddleware(mux)
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()

		if a.allowedOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
		log.Printf("[httpapi] %s %s (%s)", r.Method, r.URL.Path, time.Since(started).Round(time.Millisecond))
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleSalesReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	from, to, ok := periodParams(w, r)
	if !ok {
		return
	}

	report, err := a.service.SalesReport(r.Context(), r.URL.Query().Get("store_id"), from, to)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleTopProducts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	from, to, ok := periodParams(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	products, err := a.service.TopProducts(r.Context(), r.URL.Query().Get("store_id"), from, to, r.URL.Query().Get("sort"), limit)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (a *API) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	from, to, ok := periodParams(w, r)
	if !ok {
		return
	}

	shares, err := a.service.CategoryDistribution(r.Context(), r.URL.Query().Get("store_id"), from, to)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": shares})
}

func (a *API) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	snapshots, err := a.service.ReportSnapshots(r.Context(), r.URL.Query().Get("store_id"), limit)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": snapshots})
}

func (a *API) handleWarehouseRemains(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}

	remains, err := a.service.WarehouseRemains(r.Context(), r.URL.Query().Get("store_id"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"remains": remains})
}

func (a *API) handleCoefficients(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}

	coefficients, err := a.service.AcceptanceCoefficients(r.Context(), r.URL.Query().Get("store_id"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"coefficients": coefficients})
}

func (a *API) handlePaidStorage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	from, to, ok := periodParams(w, r)
	if !ok {
		return
	}

	rows, err := a.service.PaidStorage(r.Context(), r.URL.Query().Get("store_id"), from, to)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (a *API) handleProductCosts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}

	costs, err := a.service.ListProductCosts(r.Context(), r.URL.Query().Get("store_id"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"costs": costs})
}

// handleProductActions routes /api/v1/products/{nm}/profitability and
// /api/v1/products/{nm}/cost.
func (a *API) handleProductActions(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/products/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	nmID, action := parts[0], parts[1]

	switch {
	case action == "profitability" && r.Method == http.MethodGet:
		from, to, ok := periodParams(w, r)
		if !ok {
			return
		}
		advice, err := a.service.ProfitabilityAdvice(r.Context(), r.URL.Query().Get("store_id"), nmID, from, to)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, advice)

	case action == "cost" && r.Method == http.MethodPut:
		var req domain.ProductCostUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		cost, err := a.service.SetProductCost(r.Context(), r.URL.Query().Get("store_id"), nmID, req.CostPrice)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cost)

	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// periodParams reads from/to query params (YYYY-MM-DD), defaulting to the
// trailing 30 days. Reports false after writing the error response.
func periodParams(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	now := time.Now().UTC().Truncate(24 * time.Hour)
	from := now.AddDate(0, 0, -defaultPeriodDays)
	to := now

	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from date, want YYYY-MM-DD")
			return time.Time{}, time.Time{}, false
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to date, want YYYY-MM-DD")
			return time.Time{}, time.Time{}, false
		}
		to = parsed
	}
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, "to precedes from")
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func (a *API) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrInvalid), errors.Is(err, service.ErrUnknownSortField):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("[httpapi] WARN: request failed: %v", err)
		writeError(w, http.StatusBadGateway, "upstream data unavailable")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[httpapi] WARN: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
