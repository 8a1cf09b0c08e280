package domain

import (
	"encoding/json"
	"testing"
)

func TestReportDetailRowDecodesWireNames(t *testing.T) {
	payload := []byte(`{
		"nm_id": 14917843,
		"subject_name": "Футболки",
		"doc_type_name": "Продажа",
		"retail_price": 100.5,
		"quantity": 2,
		"retail_amount": 201,
		"ppvz_for_pay": 150.25,
		"delivery_rub": 10,
		"ppvz_sales_commission": 23.1,
		"penalty": 0,
		"storage_fee": 5,
		"additional_payment": 0,
		"acquiring_fee": 1.2,
		"deduction": 0,
		"acceptance": 0,
		"commission_percent": 23
	}`)

	var row ReportDetailRow
	if err := json.Unmarshal(payload, &row); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if row.NmID != "14917843" {
		t.Fatalf("numeric nm_id must normalize to string, got %q", row.NmID)
	}
	if row.DocTypeName != DocTypeSale {
		t.Fatalf("doc_type_name = %q", row.DocTypeName)
	}
	if row.RetailPrice != 100.5 || row.Quantity != 2 || row.PPVZForPay != 150.25 {
		t.Fatalf("numeric fields decoded wrong: %+v", row)
	}
	if row.SalesCommission != 23.1 || row.AcquiringFee != 1.2 {
		t.Fatalf("commission fields decoded wrong: %+v", row)
	}
}

func TestReportDetailRowToleratesMalformedNumerics(t *testing.T) {
	payload := []byte(`{
		"nm_id": "A",
		"doc_type_name": "Продажа",
		"retail_price": "not-a-number",
		"quantity": null,
		"storage_fee": "12.5",
		"penalty": {}
	}`)

	var row ReportDetailRow
	if err := json.Unmarshal(payload, &row); err != nil {
		t.Fatalf("a malformed field must not fail the row: %v", err)
	}

	if row.RetailPrice != 0 || row.Quantity != 0 || row.Penalty != 0 {
		t.Fatalf("malformed numerics must default to 0: %+v", row)
	}
	// Quoted numbers are accepted.
	if row.StorageFee != 12.5 {
		t.Fatalf("storage_fee = %v, want 12.5", row.StorageFee)
	}
}

func TestReportDetailRowMissingFieldsDefaultToZero(t *testing.T) {
	var row ReportDetailRow
	if err := json.Unmarshal([]byte(`{"nm_id":"A"}`), &row); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if row.RetailPrice != 0 || row.Quantity != 0 || row.DocTypeName != "" {
		t.Fatalf("missing fields must default: %+v", row)
	}
}
