package cache

import "time"

// Kind identifies one class of cached upstream data. Each kind carries a
// fixed TTL; unknown kinds fall back to DefaultTTL.
type Kind string

const (
	KindWarehouseRemains Kind = "warehouse-remains"
	KindOrders           Kind = "orders"
	KindSales            Kind = "sales"
	KindCoefficients     Kind = "coefficients"
	KindPaidStorage      Kind = "paid-storage"
)

const DefaultTTL = 15 * time.Minute

var ttlByKind = map[Kind]time.Duration{
	KindWarehouseRemains: 15 * time.Minute,
	KindOrders:           30 * time.Minute,
	KindSales:            30 * time.Minute,
	KindCoefficients:     time.Hour,
	KindPaidStorage:      time.Hour,
}

// TTL returns the configured time-to-live for a kind.
func TTL(kind Kind) time.Duration {
	if ttl, ok := ttlByKind[kind]; ok {
		return ttl
	}
	return DefaultTTL
}

// Key builds the composite substrate key for a kind and store identity.
func Key(kind Kind, storeID string) string {
	return string(kind) + "_" + storeID
}
