package analytics

import (
	"sort"

	"sellerdash/internal/domain"
)

// SortField names one aggregate metric products can be ranked by. The set
// is closed: each field maps to a typed extractor instead of a dynamic
// struct-field lookup.
type SortField string

const (
	SortByProfit        SortField = "profit"
	SortBySalesAmount   SortField = "sales_amount"
	SortByQuantitySold  SortField = "quantity_sold"
	SortByReturnRate    SortField = "return_rate"
	SortByProfitability SortField = "profitability"
)

var sortExtractors = map[SortField]func(domain.ProductAggregate) float64{
	SortByProfit:        func(a domain.ProductAggregate) float64 { return a.Profit },
	SortBySalesAmount:   func(a domain.ProductAggregate) float64 { return a.SalesAmount },
	SortByQuantitySold:  func(a domain.ProductAggregate) float64 { return float64(a.QuantitySold) },
	SortByReturnRate:    func(a domain.ProductAggregate) float64 { return a.ReturnRate },
	SortByProfitability: func(a domain.ProductAggregate) float64 { return a.Profitability },
}

// ParseSortField validates a client-supplied field name.
func ParseSortField(s string) (SortField, bool) {
	field := SortField(s)
	_, ok := sortExtractors[field]
	return field, ok
}

// TopProducts ranks the report's products by the given field, descending,
// and returns at most limit of them. Ties break on nm_id so the order is
// deterministic.
func TopProducts(report domain.SalesReport, field SortField, limit int) []domain.ProductAggregate {
	extract, ok := sortExtractors[field]
	if !ok {
		extract = sortExtractors[SortByProfit]
	}

	products := make([]domain.ProductAggregate, 0, len(report.PerProduct))
	for _, agg := range report.PerProduct {
		products = append(products, agg)
	}

	sort.Slice(products, func(i, j int) bool {
		vi, vj := extract(products[i]), extract(products[j])
		if vi != vj {
			return vi > vj
		}
		return products[i].NmID < products[j].NmID
	})

	if limit > 0 && len(products) > limit {
		products = products[:limit]
	}
	return products
}

// CategoryDistribution groups sales amount by subject name and reports
// each category's share of the total. Products without a subject are
// grouped under "—".
func CategoryDistribution(report domain.SalesReport) []domain.CategoryShare {
	byCategory := make(map[string]*domain.CategoryShare)
	total := 0.0

	for _, agg := range report.PerProduct {
		subject := agg.SubjectName
		if subject == "" {
			subject = "—"
		}
		share, ok := byCategory[subject]
		if !ok {
			share = &domain.CategoryShare{Subject: subject}
			byCategory[subject] = share
		}
		share.SalesAmount += agg.SalesAmount
		share.QuantitySold += agg.QuantitySold
		total += agg.SalesAmount
	}

	shares := make([]domain.CategoryShare, 0, len(byCategory))
	for _, share := range byCategory {
		if total > 0 {
			share.SharePercent = share.SalesAmount / total * 100
		}
		shares = append(shares, *share)
	}

	sort.Slice(shares, func(i, j int) bool {
		if shares[i].SalesAmount != shares[j].SalesAmount {
			return shares[i].SalesAmount > shares[j].SalesAmount
		}
		return shares[i].Subject < shares[j].Subject
	})
	return shares
}
