// Package wbapi is the HTTP client for the Wildberries seller APIs. It
// only fetches and decodes; freshness and caching are handled by the
// caller through the cache fetcher.
package wbapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"sellerdash/internal/domain"
)

const (
	defaultStatsBaseURL    = "https://statistics-api.wildberries.ru"
	defaultSuppliesBaseURL = "https://supplies-api.wildberries.ru"
)

var ErrUnauthorized = errors.New("wb api: token rejected")

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Endpoint string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("wb api: %s returned status %d", e.Endpoint, e.Code)
}

type Client struct {
	token           string
	statsBaseURL    string
	suppliesBaseURL string
	httpClient      *http.Client
}

func NewClient(token string) *Client {
	return &Client{
		token:           token,
		statsBaseURL:    defaultStatsBaseURL,
		suppliesBaseURL: defaultSuppliesBaseURL,
		httpClient:      &http.Client{Timeout: 60 * time.Second},
	}
}

// ReportDetail fetches the realization report line items for a period.
func (c *Client) ReportDetail(ctx context.Context, from, to time.Time) ([]domain.ReportDetailRow, error) {
	query := url.Values{}
	query.Set("dateFrom", from.Format("2006-01-02"))
	query.Set("dateTo", to.Format("2006-01-02"))
	query.Set("limit", "100000")

	var rows []domain.ReportDetailRow
	err := c.getJSON(ctx, c.statsBaseURL+"/api/v5/supplier/reportDetailByPeriod", query, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// WarehouseRemains fetches current stock across all warehouses.
func (c *Client) WarehouseRemains(ctx context.Context) ([]domain.WarehouseRemain, error) {
	query := url.Values{}
	query.Set("dateFrom", "2019-06-20")

	var raw []struct {
		NmID            int64  `json:"nmId"`
		Subject         string `json:"subject"`
		WarehouseName   string `json:"warehouseName"`
		Quantity        int    `json:"quantity"`
		InWayToClient   int    `json:"inWayToClient"`
		InWayFromClient int    `json:"inWayFromClient"`
	}
	if err := c.getJSON(ctx, c.statsBaseURL+"/api/v1/supplier/stocks", query, &raw); err != nil {
		return nil, err
	}

	remains := make([]domain.WarehouseRemain, 0, len(raw))
	for _, item := range raw {
		remains = append(remains, domain.WarehouseRemain{
			NmID:            strconv.FormatInt(item.NmID, 10),
			SubjectName:     item.Subject,
			WarehouseName:   item.WarehouseName,
			Quantity:        item.Quantity,
			InWayToClient:   item.InWayToClient,
			InWayFromClient: item.InWayFromClient,
		})
	}
	return remains, nil
}

// AcceptanceCoefficients fetches current warehouse acceptance rates.
func (c *Client) AcceptanceCoefficients(ctx context.Context) ([]domain.AcceptanceCoefficient, error) {
	var raw []struct {
		Date          string  `json:"date"`
		Coefficient   float64 `json:"coefficient"`
		WarehouseID   int     `json:"warehouseID"`
		WarehouseName string  `json:"warehouseName"`
		BoxTypeName   string  `json:"boxTypeName"`
	}
	if err := c.getJSON(ctx, c.suppliesBaseURL+"/api/v1/acceptance/coefficients", nil, &raw); err != nil {
		return nil, err
	}

	coefficients := make([]domain.AcceptanceCoefficient, 0, len(raw))
	for _, item := range raw {
		coefficients = append(coefficients, domain.AcceptanceCoefficient{
			WarehouseID:   item.WarehouseID,
			WarehouseName: item.WarehouseName,
			BoxTypeName:   item.BoxTypeName,
			Coefficient:   item.Coefficient,
			Date:          item.Date,
		})
	}
	return coefficients, nil
}

// PaidStorage fetches per-day paid storage charges for a period.
func (c *Client) PaidStorage(ctx context.Context, from, to time.Time) ([]domain.PaidStorageRow, error) {
	query := url.Values{}
	query.Set("dateFrom", from.Format("2006-01-02"))
	query.Set("dateTo", to.Format("2006-01-02"))

	var raw []struct {
		Date           string  `json:"date"`
		NmID           int64   `json:"nmId"`
		Warehouse      string  `json:"warehouse"`
		WarehousePrice float64 `json:"warehousePrice"`
		BarcodesCount  int     `json:"barcodesCount"`
	}
	if err := c.getJSON(ctx, c.statsBaseURL+"/api/v1/paid_storage", query, &raw); err != nil {
		return nil, err
	}

	rows := make([]domain.PaidStorageRow, 0, len(raw))
	for _, item := range raw {
		rows = append(rows, domain.PaidStorageRow{
			Date:           item.Date,
			NmID:           strconv.FormatInt(item.NmID, 10),
			WarehouseName:  item.Warehouse,
			WarehousePrice: item.WarehousePrice,
			BarcodesCount:  item.BarcodesCount,
		})
	}
	return rows, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, query url.Values, out any) error {
	target := endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &StatusError{Endpoint: endpoint, Code: resp.StatusCode}
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
