package reports

import (
	"context"

	"tallybridge/internal/models"
)

// OrderSide selects which order book an order-tracking query covers
type OrderSide string

const (
	// SalesOrders tracks customer orders against sales invoices
	SalesOrders OrderSide = "sales"
	// PurchaseOrders tracks our orders against purchase invoices
	PurchaseOrders OrderSide = "purchase"
)

// voucherTypes returns the order and fulfillment voucher type names for
// this side of the books
func (o OrderSide) voucherTypes() (orderType, invoiceType string) {
	if o == PurchaseOrders {
		return "Purchase Order", "Purchase"
	}
	return "Sales Order", "Sales"
}

// OrderBookData carries the raw order and fulfillment vouchers for a
// window; the analytics layer reconciles them into pending amounts
type OrderBookData struct {
	Side     OrderSide         `json:"side"`
	Orders   []*models.Voucher `json:"orders"`
	Invoices []*models.Voucher `json:"invoices"`
}

// OrderBook fetches the order vouchers and their fulfillment invoices for
// one side of the books within a window. Two paced queries are issued; the
// voucher pipeline's client-side window filtering applies to both.
func (s *Service) OrderBook(ctx context.Context, company string, side OrderSide, window models.QueryWindow) (*OrderBookData, error) {
	orderType, invoiceType := side.voucherTypes()

	orders, err := s.Vouchers(ctx, company, VoucherQuery{
		Window:      window,
		VoucherType: orderType,
	})
	if err != nil {
		return nil, err
	}

	invoices, err := s.Vouchers(ctx, company, VoucherQuery{
		Window:      window,
		VoucherType: invoiceType,
	})
	if err != nil {
		return nil, err
	}

	return &OrderBookData{
		Side:     side,
		Orders:   orders.Vouchers,
		Invoices: invoices.Vouchers,
	}, nil
}
