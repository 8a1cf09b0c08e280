package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"sellerdash/internal/domain"
	"sellerdash/internal/store"
)

type Store struct {
	mu           sync.RWMutex
	productCosts map[string]map[string]domain.ProductCost
	snapshots    []domain.ReportSnapshot
}

func New() *Store {
	return &Store{
		productCosts: make(map[string]map[string]domain.ProductCost),
	}
}

func (s *Store) GetProductCost(_ context.Context, storeID string, nmID string) (*domain.ProductCost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cost, ok := s.productCosts[storeID][nmID]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := cost
	return &out, nil
}

func (s *Store) ListProductCosts(_ context.Context, storeID string) ([]domain.ProductCost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	costs := make([]domain.ProductCost, 0, len(s.productCosts[storeID]))
	for _, cost := range s.productCosts[storeID] {
		costs = append(costs, cost)
	}
	sort.Slice(costs, func(i, j int) bool { return costs[i].NmID < costs[j].NmID })
	return costs, nil
}

func (s *Store) UpsertProductCost(_ context.Context, cost domain.ProductCost) error {
	cost.NmID = strings.TrimSpace(cost.NmID)
	if cost.StoreID == "" || cost.NmID == "" || cost.CostPrice <= 0 {
		return store.ErrInvalid
	}
	if cost.UpdatedAt.IsZero() {
		cost.UpdatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byNm, ok := s.productCosts[cost.StoreID]
	if !ok {
		byNm = make(map[string]domain.ProductCost)
		s.productCosts[cost.StoreID] = byNm
	}
	byNm[cost.NmID] = cost
	return nil
}

func (s *Store) SaveReportSnapshot(_ context.Context, snapshot domain.ReportSnapshot) error {
	if snapshot.ID == "" || snapshot.StoreID == "" {
		return store.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, snapshot)
	return nil
}

func (s *Store) ListReportSnapshots(_ context.Context, storeID string, limit int) ([]domain.ReportSnapshot, error) {
	if limit < 1 {
		limit = 50
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshots := make([]domain.ReportSnapshot, 0, limit)
	for _, snap := range s.snapshots {
		if snap.StoreID == storeID {
			snapshots = append(snapshots, snap)
		}
	}
	// Newest first.
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].CreatedAt.After(snapshots[j].CreatedAt)
	})
	if len(snapshots) > limit {
		snapshots = snapshots[:limit]
	}
	return snapshots, nil
}
