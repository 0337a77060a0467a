package reports

import (
	"context"
	"testing"

	"tallybridge/internal/models"
)

func TestOrderBookQueriesBothVoucherTypes(t *testing.T) {
	engine := &fakeEngine{body: "<ENVELOPE></ENVELOPE>"}
	window := models.QueryWindow{From: "20260401", To: "20260430"}

	if _, err := NewService(engine).OrderBook(context.Background(), "", SalesOrders, window); err != nil {
		t.Fatalf("OrderBook failed: %v", err)
	}

	if len(engine.payloads) != 2 {
		t.Fatalf("issued %d requests, want orders + invoices", len(engine.payloads))
	}
	if !payloadContains(engine.payloads[0], `$VoucherTypeName = "Sales Order"`) {
		t.Errorf("first query not for sales orders:\n%s", engine.payloads[0])
	}
	if !payloadContains(engine.payloads[1], `$VoucherTypeName = "Sales"`) {
		t.Errorf("second query not for sales invoices:\n%s", engine.payloads[1])
	}
}

func TestOrderSideVoucherTypes(t *testing.T) {
	if orderType, invoiceType := PurchaseOrders.voucherTypes(); orderType != "Purchase Order" || invoiceType != "Purchase" {
		t.Errorf("purchase side = %q/%q", orderType, invoiceType)
	}
	if orderType, invoiceType := SalesOrders.voucherTypes(); orderType != "Sales Order" || invoiceType != "Sales" {
		t.Errorf("sales side = %q/%q", orderType, invoiceType)
	}
}
