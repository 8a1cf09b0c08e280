// Package optimizer derives pricing and storage-cost recommendations from
// a product's cost, price, and inventory profile. All functions are pure.
package optimizer

import (
	"fmt"
	"math"

	"sellerdash/internal/domain"
)

// targetMarginPercent is the margin the price recommendation aims for.
const targetMarginPercent = 15.0

// Slow-mover thresholds: under slowSalesRate units/day with more than
// overstockQuantity units on hand, a price cut is suggested.
const (
	slowSalesRate     = 0.2
	overstockQuantity = 10
)

// AnalyzeProfitability computes a price recommendation for one product.
// Non-positive cost or price short-circuits to a neutral result with an
// explanatory action; the caller treats an empty action as "no
// recommendation".
func AnalyzeProfitability(costPrice, currentPrice, storagePerUnit float64, quantity int, dailySalesRate float64) domain.ProfitabilityAnalysis {
	if costPrice <= 0 || currentPrice <= 0 {
		return domain.ProfitabilityAnalysis{
			RecommendedAction: "Недостаточно данных: укажите себестоимость и текущую цену товара",
		}
	}

	currentProfit := currentPrice - costPrice - storagePerUnit
	currentMargin := currentProfit / costPrice * 100

	minProfitablePrice := costPrice*(1+targetMarginPercent/100) + storagePerUnit
	priceDifference := math.Round(minProfitablePrice - currentPrice)

	analysis := domain.ProfitabilityAnalysis{
		RecommendedPrice: math.Max(minProfitablePrice, currentPrice),
		PriceChange:      priceDifference,
		Margin:           round2(currentMargin),
	}

	switch {
	case priceDifference > 0:
		analysis.RecommendedAction = fmt.Sprintf(
			"Повысьте цену на %.0f ₽, чтобы выйти на целевую маржу %.0f%%",
			priceDifference, targetMarginPercent)
	case dailySalesRate < slowSalesRate && quantity > overstockQuantity:
		analysis.RecommendedAction = "Товар продаётся медленно при большом остатке: снизьте цену, чтобы ускорить оборот и сократить расходы на хранение"
	case currentMargin >= targetMarginPercent:
		analysis.RecommendedAction = fmt.Sprintf(
			"Текущая цена обеспечивает достаточную рентабельность (маржа %.1f%%)",
			currentMargin)
	}

	return analysis
}

// TotalStorageCost projects the total cost of storing the current stock
// until it sells out. Without a sales rate a flat 30-day holding horizon
// is assumed. With one, stock is modeled as depleting linearly, so the
// average stored quantity over the horizon is half the starting stock.
func TotalStorageCost(quantity int, dailyStorageCost, dailySalesRate float64) float64 {
	if dailySalesRate <= 0 {
		return float64(quantity) * 30 * dailyStorageCost
	}

	daysToSellAll := float64(quantity) / dailySalesRate
	averageQuantity := float64(quantity) / 2
	return averageQuantity * daysToSellAll * dailyStorageCost
}

func round2(val float64) float64 {
	return math.Round(val*100) / 100
}
