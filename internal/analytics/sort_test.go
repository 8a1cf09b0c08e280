package analytics

import (
	"testing"

	"sellerdash/internal/domain"
)

func reportWith(aggs ...domain.ProductAggregate) domain.SalesReport {
	perProduct := make(map[string]domain.ProductAggregate, len(aggs))
	for _, agg := range aggs {
		perProduct[agg.NmID] = agg
	}
	return domain.SalesReport{PerProduct: perProduct}
}

func TestTopProductsRanksDescending(t *testing.T) {
	report := reportWith(
		domain.ProductAggregate{NmID: "A", Profit: 10},
		domain.ProductAggregate{NmID: "B", Profit: 30},
		domain.ProductAggregate{NmID: "C", Profit: 20},
	)

	top := TopProducts(report, SortByProfit, 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 products, got %d", len(top))
	}
	if top[0].NmID != "B" || top[1].NmID != "C" {
		t.Fatalf("unexpected order: %s, %s", top[0].NmID, top[1].NmID)
	}
}

func TestTopProductsTiesBreakOnNmID(t *testing.T) {
	report := reportWith(
		domain.ProductAggregate{NmID: "B", SalesAmount: 100},
		domain.ProductAggregate{NmID: "A", SalesAmount: 100},
	)

	top := TopProducts(report, SortBySalesAmount, 0)
	if top[0].NmID != "A" || top[1].NmID != "B" {
		t.Fatalf("expected deterministic tie-break, got %s, %s", top[0].NmID, top[1].NmID)
	}
}

func TestParseSortFieldRejectsUnknownNames(t *testing.T) {
	if _, ok := ParseSortField("profit"); !ok {
		t.Fatalf("profit must parse")
	}
	if _, ok := ParseSortField("Profit"); ok {
		t.Fatalf("field names are case-significant")
	}
	if _, ok := ParseSortField("__proto__"); ok {
		t.Fatalf("unknown field must be rejected")
	}
}

func TestCategoryDistributionShares(t *testing.T) {
	report := reportWith(
		domain.ProductAggregate{NmID: "A", SubjectName: "Футболки", SalesAmount: 300, QuantitySold: 3},
		domain.ProductAggregate{NmID: "B", SubjectName: "Футболки", SalesAmount: 100, QuantitySold: 1},
		domain.ProductAggregate{NmID: "C", SubjectName: "Носки", SalesAmount: 100, QuantitySold: 2},
	)

	shares := CategoryDistribution(report)
	if len(shares) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(shares))
	}
	if shares[0].Subject != "Футболки" || shares[0].SalesAmount != 400 {
		t.Fatalf("unexpected leader: %+v", shares[0])
	}
	if shares[0].SharePercent != 80 || shares[1].SharePercent != 20 {
		t.Fatalf("unexpected shares: %v, %v", shares[0].SharePercent, shares[1].SharePercent)
	}
}

func TestCategoryDistributionEmptyReport(t *testing.T) {
	shares := CategoryDistribution(domain.SalesReport{PerProduct: map[string]domain.ProductAggregate{}})
	if len(shares) != 0 {
		t.Fatalf("expected no categories, got %d", len(shares))
	}
}
