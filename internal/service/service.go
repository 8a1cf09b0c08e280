package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"sellerdash/internal/analytics"
	"sellerdash/internal/cache"
	"sellerdash/internal/domain"
	"sellerdash/internal/optimizer"
	"sellerdash/internal/store"
	"sellerdash/internal/xid"
)

var ErrUnknownSortField = errors.New("unknown sort field")

// fetchAttempts bounds upstream retries. The second attempt only runs
// after a genuine fetch error; cache hits never retry.
const fetchAttempts = 2

// MarketplaceClient supplies the upstream fetch functions the cache
// orchestrator wraps. Production uses the wbapi client; tests use stubs.
type MarketplaceClient interface {
	ReportDetail(ctx context.Context, from, to time.Time) ([]domain.ReportDetailRow, error)
	WarehouseRemains(ctx context.Context) ([]domain.WarehouseRemain, error)
	AcceptanceCoefficients(ctx context.Context) ([]domain.AcceptanceCoefficient, error)
	PaidStorage(ctx context.Context, from, to time.Time) ([]domain.PaidStorageRow, error)
}

type Service struct {
	repo           store.Repository
	fetcher        *cache.Fetcher
	wb             MarketplaceClient
	defaultStoreID string
}

func New(repo store.Repository, fetcher *cache.Fetcher, wb MarketplaceClient, defaultStoreID string) *Service {
	if defaultStoreID == "" {
		defaultStoreID = "main-store"
	}

	return &Service{
		repo:           repo,
		fetcher:        fetcher,
		wb:             wb,
		defaultStoreID: defaultStoreID,
	}
}

func (s *Service) resolveStoreID(storeID string) string {
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return s.defaultStoreID
	}
	return storeID
}

// fetchCached wraps the cache orchestrator with the bounded retry policy.
func fetchCached[T any](ctx context.Context, s *Service, kind cache.Kind, storeID string, fetch cache.FetchFunc[T]) (T, error) {
	out, err := cache.FetchWithCache(ctx, s.fetcher, kind, storeID, fetch)
	for attempt := 1; err != nil && attempt < fetchAttempts; attempt++ {
		log.Printf("[service] WARN: %s fetch failed, retrying: %v", kind, err)
		out, err = cache.FetchWithCache(ctx, s.fetcher, kind, storeID, fetch)
	}
	return out, err
}

// periodScope widens a store identity with the requested period, so that
// period-dependent fetches never share a cache entry across periods.
// Period-less kinds keep the bare store identity.
func periodScope(storeID string, from, to time.Time) string {
	return storeID + ":" + from.Format("2006-01-02") + ":" + to.Format("2006-01-02")
}

func (s *Service) reportRows(ctx context.Context, storeID string, from, to time.Time) ([]domain.ReportDetailRow, error) {
	return fetchCached(ctx, s, cache.KindSales, periodScope(storeID, from, to), func(ctx context.Context) ([]domain.ReportDetailRow, error) {
		return s.wb.ReportDetail(ctx, from, to)
	})
}

// SalesReport aggregates the realization report for a period and records
// a summary snapshot for trend history. Snapshot persistence is best
// effort and never fails the report.
func (s *Service) SalesReport(ctx context.Context, storeID string, from, to time.Time) (domain.SalesReport, error) {
	storeID = s.resolveStoreID(storeID)
	if to.Before(from) {
		return domain.SalesReport{}, store.ErrInvalid
	}

	rows, err := s.reportRows(ctx, storeID, from, to)
	if err != nil {
		return domain.SalesReport{}, err
	}

	report := analytics.Aggregate(rows)

	totalProfit := 0.0
	for _, agg := range report.PerProduct {
		totalProfit += agg.Profit
	}
	if err := s.repo.SaveReportSnapshot(ctx, domain.ReportSnapshot{
		ID:                xid.New("snap"),
		StoreID:           storeID,
		PeriodFrom:        from,
		PeriodTo:          to,
		TotalSalesVolume:  report.General.TotalSalesVolume,
		TotalOrdersCount:  report.General.TotalOrdersCount,
		TotalReturnsCount: report.General.TotalReturnsCount,
		TotalProfit:       totalProfit,
		ProductCount:      len(report.PerProduct),
		CreatedAt:         time.Now().UTC(),
	}); err != nil {
		log.Printf("[service] WARN: failed to save report snapshot store=%s: %v", storeID, err)
	}

	return report, nil
}

// TopProducts ranks products by one of the closed set of sortable fields.
// An empty field defaults to profit.
func (s *Service) TopProducts(ctx context.Context, storeID string, from, to time.Time, sortBy string, limit int) ([]domain.ProductAggregate, error) {
	field := analytics.SortByProfit
	if sortBy != "" {
		parsed, ok := analytics.ParseSortField(sortBy)
		if !ok {
			return nil, ErrUnknownSortField
		}
		field = parsed
	}
	if limit < 1 {
		limit = 10
	}

	rows, err := s.reportRows(ctx, s.resolveStoreID(storeID), from, to)
	if err != nil {
		return nil, err
	}
	return analytics.TopProducts(analytics.Aggregate(rows), field, limit), nil
}

func (s *Service) CategoryDistribution(ctx context.Context, storeID string, from, to time.Time) ([]domain.CategoryShare, error) {
	rows, err := s.reportRows(ctx, s.resolveStoreID(storeID), from, to)
	if err != nil {
		return nil, err
	}
	return analytics.CategoryDistribution(analytics.Aggregate(rows)), nil
}

func (s *Service) WarehouseRemains(ctx context.Context, storeID string) ([]domain.WarehouseRemain, error) {
	return fetchCached(ctx, s, cache.KindWarehouseRemains, s.resolveStoreID(storeID), func(ctx context.Context) ([]domain.WarehouseRemain, error) {
		return s.wb.WarehouseRemains(ctx)
	})
}

func (s *Service) AcceptanceCoefficients(ctx context.Context, storeID string) ([]domain.AcceptanceCoefficient, error) {
	return fetchCached(ctx, s, cache.KindCoefficients, s.resolveStoreID(storeID), func(ctx context.Context) ([]domain.AcceptanceCoefficient, error) {
		return s.wb.AcceptanceCoefficients(ctx)
	})
}

func (s *Service) PaidStorage(ctx context.Context, storeID string, from, to time.Time) ([]domain.PaidStorageRow, error) {
	return fetchCached(ctx, s, cache.KindPaidStorage, periodScope(s.resolveStoreID(storeID), from, to), func(ctx context.Context) ([]domain.PaidStorageRow, error) {
		return s.wb.PaidStorage(ctx, from, to)
	})
}

// ProfitabilityAdvice derives a pricing recommendation for one product.
// The cost price comes from seller settings; the current price, sales
// rate, stock, and storage charges come from the cached marketplace data
// for the period. A missing cost price is not an error: the optimizer
// answers with its neutral "no data" result.
func (s *Service) ProfitabilityAdvice(ctx context.Context, storeID string, nmID string, from, to time.Time) (domain.ProfitabilityAdvice, error) {
	storeID = s.resolveStoreID(storeID)
	nmID = strings.TrimSpace(nmID)
	if nmID == "" || to.Before(from) {
		return domain.ProfitabilityAdvice{}, store.ErrInvalid
	}

	rows, err := s.reportRows(ctx, storeID, from, to)
	if err != nil {
		return domain.ProfitabilityAdvice{}, err
	}
	agg := analytics.Aggregate(rows).PerProduct[nmID]

	remains, err := s.WarehouseRemains(ctx, storeID)
	if err != nil {
		return domain.ProfitabilityAdvice{}, err
	}
	quantity := 0
	for _, remain := range remains {
		if remain.NmID == nmID {
			quantity += remain.Quantity
		}
	}

	paid, err := s.PaidStorage(ctx, storeID, from, to)
	if err != nil {
		return domain.ProfitabilityAdvice{}, err
	}
	totalStorage := 0.0
	unitDays := 0
	for _, row := range paid {
		if row.NmID == nmID {
			totalStorage += row.WarehousePrice
			unitDays += row.BarcodesCount
		}
	}
	dailyStoragePerUnit := 0.0
	if unitDays > 0 {
		dailyStoragePerUnit = totalStorage / float64(unitDays)
	}

	days := to.Sub(from).Hours() / 24
	if days < 1 {
		days = 1
	}
	dailySalesRate := float64(agg.QuantitySold) / days

	// Storage charged over the period, allocated per sold unit. With no
	// sales the stock sat the whole period, so a 30-day unit charge
	// stands in.
	storagePerUnit := dailyStoragePerUnit * 30
	if agg.QuantitySold > 0 {
		storagePerUnit = totalStorage / float64(agg.QuantitySold)
	}

	costPrice := 0.0
	cost, err := s.repo.GetProductCost(ctx, storeID, nmID)
	switch {
	case err == nil:
		costPrice = cost.CostPrice
	case errors.Is(err, store.ErrNotFound):
		// Seller has not entered a cost price yet.
	default:
		return domain.ProfitabilityAdvice{}, err
	}

	return domain.ProfitabilityAdvice{
		NmID:                 nmID,
		CostPrice:            costPrice,
		CurrentPrice:         agg.AveragePrice,
		QuantityOnHand:       quantity,
		DailySalesRate:       dailySalesRate,
		StoragePerUnit:       storagePerUnit,
		ProjectedStorageCost: optimizer.TotalStorageCost(quantity, dailyStoragePerUnit, dailySalesRate),
		Analysis:             optimizer.AnalyzeProfitability(costPrice, agg.AveragePrice, storagePerUnit, quantity, dailySalesRate),
	}, nil
}

func (s *Service) SetProductCost(ctx context.Context, storeID string, nmID string, costPrice float64) (domain.ProductCost, error) {
	cost := domain.ProductCost{
		StoreID:   s.resolveStoreID(storeID),
		NmID:      strings.TrimSpace(nmID),
		CostPrice: costPrice,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.repo.UpsertProductCost(ctx, cost); err != nil {
		return domain.ProductCost{}, err
	}
	return cost, nil
}

func (s *Service) ListProductCosts(ctx context.Context, storeID string) ([]domain.ProductCost, error) {
	return s.repo.ListProductCosts(ctx, s.resolveStoreID(storeID))
}

func (s *Service) ReportSnapshots(ctx context.Context, storeID string, limit int) ([]domain.ReportSnapshot, error) {
	return s.repo.ListReportSnapshots(ctx, s.resolveStoreID(storeID), limit)
}
