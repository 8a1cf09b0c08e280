package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"sellerdash/internal/domain"
	"sellerdash/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS product_costs (
			store_id   TEXT NOT NULL,
			nm_id      TEXT NOT NULL,
			cost_price DOUBLE PRECISION NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (store_id, nm_id)
		);
		CREATE TABLE IF NOT EXISTS report_snapshots (
			id                  TEXT PRIMARY KEY,
			store_id            TEXT NOT NULL,
			period_from         TIMESTAMPTZ NOT NULL,
			period_to           TIMESTAMPTZ NOT NULL,
			total_sales_volume  DOUBLE PRECISION NOT NULL,
			total_orders_count  BIGINT NOT NULL,
			total_returns_count BIGINT NOT NULL,
			total_profit        DOUBLE PRECISION NOT NULL,
			product_count       BIGINT NOT NULL,
			created_at          TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS report_snapshots_store_created
			ON report_snapshots (store_id, created_at DESC);
	`)
	return err
}

func (s *Store) GetProductCost(ctx context.Context, storeID string, nmID string) (*domain.ProductCost, error) {
	var cost domain.ProductCost
	err := s.db.QueryRowContext(ctx, `
		SELECT store_id, nm_id, cost_price, updated_at
		FROM product_costs
		WHERE store_id = $1 AND nm_id = $2
	`, storeID, nmID).Scan(&cost.StoreID, &cost.NmID, &cost.CostPrice, &cost.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cost, nil
}

func (s *Store) ListProductCosts(ctx context.Context, storeID string) ([]domain.ProductCost, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT store_id, nm_id, cost_price, updated_at
		FROM product_costs
		WHERE store_id = $1
		ORDER BY nm_id
	`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	costs := make([]domain.ProductCost, 0, 64)
	for rows.Next() {
		var cost domain.ProductCost
		if err := rows.Scan(&cost.StoreID, &cost.NmID, &cost.CostPrice, &cost.UpdatedAt); err != nil {
			return nil, err
		}
		costs = append(costs, cost)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return costs, nil
}

func (s *Store) UpsertProductCost(ctx context.Context, cost domain.ProductCost) error {
	if cost.StoreID == "" || cost.NmID == "" || cost.CostPrice <= 0 {
		return store.ErrInvalid
	}
	if cost.UpdatedAt.IsZero() {
		cost.UpdatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO product_costs (store_id, nm_id, cost_price, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (store_id, nm_id)
		DO UPDATE SET cost_price = EXCLUDED.cost_price, updated_at = EXCLUDED.updated_at
	`, cost.StoreID, cost.NmID, cost.CostPrice, cost.UpdatedAt)
	return err
}

func (s *Store) SaveReportSnapshot(ctx context.Context, snapshot domain.ReportSnapshot) error {
	if snapshot.ID == "" || snapshot.StoreID == "" {
		return store.ErrInvalid
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO report_snapshots (
			id, store_id, period_from, period_to,
			total_sales_volume, total_orders_count, total_returns_count,
			total_profit, product_count, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, snapshot.ID, snapshot.StoreID, snapshot.PeriodFrom, snapshot.PeriodTo,
		snapshot.TotalSalesVolume, snapshot.TotalOrdersCount, snapshot.TotalReturnsCount,
		snapshot.TotalProfit, snapshot.ProductCount, snapshot.CreatedAt)
	return err
}

func (s *Store) ListReportSnapshots(ctx context.Context, storeID string, limit int) ([]domain.ReportSnapshot, error) {
	if limit < 1 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, store_id, period_from, period_to,
			total_sales_volume, total_orders_count, total_returns_count,
			total_profit, product_count, created_at
		FROM report_snapshots
		WHERE store_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, storeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshots := make([]domain.ReportSnapshot, 0, limit)
	for rows.Next() {
		var snap domain.ReportSnapshot
		if err := rows.Scan(&snap.ID, &snap.StoreID, &snap.PeriodFrom, &snap.PeriodTo,
			&snap.TotalSalesVolume, &snap.TotalOrdersCount, &snap.TotalReturnsCount,
			&snap.TotalProfit, &snap.ProductCount, &snap.CreatedAt); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return snapshots, nil
}
