package domain

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Doc type discriminants as the statistics report emits them.
const (
	DocTypeSale   = "Продажа"
	DocTypeReturn = "Возврат"
)

// ReportDetailRow is one line item of the realization report. Field names
// are the upstream wire contract and must not be renamed.
type ReportDetailRow struct {
	NmID              string  `json:"nm_id"`
	SubjectName       string  `json:"subject_name"`
	DocTypeName       string  `json:"doc_type_name"`
	RetailPrice       float64 `json:"retail_price"`
	Quantity          int     `json:"quantity"`
	RetailAmount      float64 `json:"retail_amount"`
	PPVZForPay        float64 `json:"ppvz_for_pay"`
	DeliveryRub       float64 `json:"delivery_rub"`
	SalesCommission   float64 `json:"ppvz_sales_commission"`
	Penalty           float64 `json:"penalty"`
	StorageFee        float64 `json:"storage_fee"`
	AdditionalPayment float64 `json:"additional_payment"`
	AcquiringFee      float64 `json:"acquiring_fee"`
	Deduction         float64 `json:"deduction"`
	Acceptance        float64 `json:"acceptance"`
	CommissionPercent float64 `json:"commission_percent"`
}

// UnmarshalJSON decodes a report line leniently: numeric fields that are
// missing, null, or malformed become 0, and nm_id is accepted as either a
// string or a number. A single bad line must never fail a whole report.
func (r *ReportDetailRow) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.NmID = idField(raw, "nm_id")
	r.SubjectName = stringField(raw, "subject_name")
	r.DocTypeName = stringField(raw, "doc_type_name")
	r.RetailPrice = numberField(raw, "retail_price")
	r.Quantity = int(numberField(raw, "quantity"))
	r.RetailAmount = numberField(raw, "retail_amount")
	r.PPVZForPay = numberField(raw, "ppvz_for_pay")
	r.DeliveryRub = numberField(raw, "delivery_rub")
	r.SalesCommission = numberField(raw, "ppvz_sales_commission")
	r.Penalty = numberField(raw, "penalty")
	r.StorageFee = numberField(raw, "storage_fee")
	r.AdditionalPayment = numberField(raw, "additional_payment")
	r.AcquiringFee = numberField(raw, "acquiring_fee")
	r.Deduction = numberField(raw, "deduction")
	r.Acceptance = numberField(raw, "acceptance")
	r.CommissionPercent = numberField(raw, "commission_percent")
	return nil
}

func stringField(raw map[string]json.RawMessage, key string) string {
	val, ok := raw[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(val, &s); err != nil {
		return ""
	}
	return s
}

func numberField(raw map[string]json.RawMessage, key string) float64 {
	val, ok := raw[key]
	if !ok {
		return 0
	}
	var f float64
	if err := json.Unmarshal(val, &f); err == nil {
		return f
	}
	// Some exports quote their numbers.
	var s string
	if err := json.Unmarshal(val, &s); err != nil {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

func idField(raw map[string]json.RawMessage, key string) string {
	val, ok := raw[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(val, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(val, &n); err == nil {
		return n.String()
	}
	return ""
}

// ProductAggregate is the running financial total for one nomenclature.
// Derived fields are recomputed from the running totals after every folded
// row, never from row order.
type ProductAggregate struct {
	NmID          string  `json:"nm_id"`
	SubjectName   string  `json:"subject_name"`
	QuantitySold  int     `json:"quantity_sold"`
	SalesAmount   float64 `json:"sales_amount"`
	OrdersCount   int     `json:"orders_count"`
	ReturnsCount  int     `json:"returns_count"`
	TotalExpenses float64 `json:"total_expenses"`
	NetPayout     float64 `json:"net_payout"`
	Profit        float64 `json:"profit"`
	Profitability float64 `json:"profitability"`
	AveragePrice  float64 `json:"average_price"`
	ReturnRate    float64 `json:"return_rate"`
}

type GeneralAnalytics struct {
	TotalSalesVolume  float64 `json:"total_sales_volume"`
	TotalOrdersCount  int     `json:"total_orders_count"`
	TotalReturnsCount int     `json:"total_returns_count"`
	ReturnRate        float64 `json:"return_rate"`
}

type SalesReport struct {
	General    GeneralAnalytics            `json:"general"`
	PerProduct map[string]ProductAggregate `json:"per_product"`
}

type CategoryShare struct {
	Subject      string  `json:"subject"`
	SalesAmount  float64 `json:"sales_amount"`
	QuantitySold int     `json:"quantity_sold"`
	SharePercent float64 `json:"share_percent"`
}

type ProfitabilityAnalysis struct {
	RecommendedPrice  float64 `json:"recommended_price"`
	PriceChange       float64 `json:"price_change"`
	Margin            float64 `json:"margin"`
	RecommendedAction string  `json:"recommended_action"`
}

// ProfitabilityAdvice is the full per-product recommendation surfaced to
// the dashboard: the price analysis plus the inputs it was derived from.
type ProfitabilityAdvice struct {
	NmID                 string                `json:"nm_id"`
	CostPrice            float64               `json:"cost_price"`
	CurrentPrice         float64               `json:"current_price"`
	QuantityOnHand       int                   `json:"quantity_on_hand"`
	DailySalesRate       float64               `json:"daily_sales_rate"`
	StoragePerUnit       float64               `json:"storage_per_unit"`
	ProjectedStorageCost float64               `json:"projected_storage_cost"`
	Analysis             ProfitabilityAnalysis `json:"analysis"`
}

type WarehouseRemain struct {
	NmID            string `json:"nm_id"`
	SubjectName     string `json:"subject_name"`
	WarehouseName   string `json:"warehouse_name"`
	Quantity        int    `json:"quantity"`
	InWayToClient   int    `json:"in_way_to_client"`
	InWayFromClient int    `json:"in_way_from_client"`
}

type AcceptanceCoefficient struct {
	WarehouseID   int     `json:"warehouse_id"`
	WarehouseName string  `json:"warehouse_name"`
	BoxTypeName   string  `json:"box_type_name"`
	Coefficient   float64 `json:"coefficient"`
	Date          string  `json:"date"`
}

type PaidStorageRow struct {
	Date           string  `json:"date"`
	NmID           string  `json:"nm_id"`
	WarehouseName  string  `json:"warehouse_name"`
	WarehousePrice float64 `json:"warehouse_price"`
	BarcodesCount  int     `json:"barcodes_count"`
}

// ProductCost is a seller-entered setting: the unit cost price used by the
// profitability analysis. The upstream reports never carry it.
type ProductCost struct {
	StoreID   string    `json:"store_id"`
	NmID      string    `json:"nm_id"`
	CostPrice float64   `json:"cost_price"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ProductCostUpdateRequest struct {
	CostPrice float64 `json:"cost_price"`
}

// ReportSnapshot is a persisted summary of one computed sales report,
// kept so the dashboard can chart how the totals move between refreshes.
type ReportSnapshot struct {
	ID                string    `json:"id"`
	StoreID           string    `json:"store_id"`
	PeriodFrom        time.Time `json:"period_from"`
	PeriodTo          time.Time `json:"period_to"`
	TotalSalesVolume  float64   `json:"total_sales_volume"`
	TotalOrdersCount  int       `json:"total_orders_count"`
	TotalReturnsCount int       `json:"total_returns_count"`
	TotalProfit       float64   `json:"total_profit"`
	ProductCount      int       `json:"product_count"`
	CreatedAt         time.Time `json:"created_at"`
}
