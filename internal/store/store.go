package store

import (
	"context"
	"errors"

	"sellerdash/internal/domain"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid value")
)

// Repository persists seller-entered settings and computed report
// summaries. Everything fetched from the marketplace APIs lives in the
// cache layer instead.
type Repository interface {
	GetProductCost(ctx context.Context, storeID string, nmID string) (*domain.ProductCost, error)
	ListProductCosts(ctx context.Context, storeID string) ([]domain.ProductCost, error)
	UpsertProductCost(ctx context.Context, cost domain.ProductCost) error
	SaveReportSnapshot(ctx context.Context, snapshot domain.ReportSnapshot) error
	ListReportSnapshots(ctx context.Context, storeID string, limit int) ([]domain.ReportSnapshot, error)
}
