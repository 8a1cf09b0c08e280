// Package analytics folds raw realization-report rows into per-product
// and overall financial aggregates. Aggregate is a pure function: it
// carries no state between calls and its result does not depend on row
// order.
package analytics

import "sellerdash/internal/domain"

// Aggregate performs a single pass over the report rows. Sale rows add to
// quantity, sales amount, and order count; return rows add to the return
// count and charge the gross retail amount back as an expense. Every row,
// whatever its doc type, contributes its expense components and its net
// payout. Derived fields are recomputed from running totals only, so the
// fold stays associative and commutative per product.
func Aggregate(rows []domain.ReportDetailRow) domain.SalesReport {
	perProduct := make(map[string]domain.ProductAggregate)
	var general domain.GeneralAnalytics

	for _, row := range rows {
		agg := perProduct[row.NmID]
		agg.NmID = row.NmID
		if row.SubjectName != "" {
			agg.SubjectName = row.SubjectName
		}

		switch row.DocTypeName {
		case domain.DocTypeSale:
			amount := row.RetailPrice * float64(row.Quantity)
			agg.QuantitySold += row.Quantity
			agg.SalesAmount += amount
			agg.OrdersCount++
			general.TotalSalesVolume += amount
			general.TotalOrdersCount++
		case domain.DocTypeReturn:
			agg.ReturnsCount++
			agg.TotalExpenses += row.RetailAmount
			general.TotalReturnsCount++
		}
		// Unknown doc types fall through: expenses still count.

		agg.TotalExpenses += expenseSum(row)
		agg.NetPayout += row.PPVZForPay

		recompute(&agg)
		perProduct[row.NmID] = agg
	}

	if general.TotalReturnsCount > 0 && general.TotalOrdersCount > 0 {
		general.ReturnRate = float64(general.TotalReturnsCount) / float64(general.TotalOrdersCount) * 100
	}

	return domain.SalesReport{General: general, PerProduct: perProduct}
}

func expenseSum(row domain.ReportDetailRow) float64 {
	return row.DeliveryRub +
		row.StorageFee +
		row.Penalty +
		row.AdditionalPayment +
		row.Deduction +
		row.Acceptance
}

// recompute refreshes the derived fields from the running totals. Zero
// denominators yield 0, never NaN or Inf.
func recompute(agg *domain.ProductAggregate) {
	agg.Profit = agg.NetPayout - agg.TotalExpenses

	if agg.QuantitySold > 0 {
		agg.AveragePrice = agg.SalesAmount / float64(agg.QuantitySold)
	} else {
		agg.AveragePrice = 0
	}

	if agg.SalesAmount > 0 {
		agg.Profitability = agg.Profit / agg.SalesAmount * 100
	} else {
		agg.Profitability = 0
	}

	if agg.ReturnsCount > 0 && agg.OrdersCount > 0 {
		agg.ReturnRate = float64(agg.ReturnsCount) / float64(agg.OrdersCount) * 100
	} else {
		agg.ReturnRate = 0
	}
}
