package analytics

import (
	"sort"

	"tallybridge/internal/models"

	"github.com/shopspring/decimal"
)

// pendingNoiseThreshold absorbs floating-point residue from the engine's
// amount formatting: a difference at or below one currency unit is rounding
// noise, not a real partial fulfillment
var pendingNoiseThreshold = decimal.NewFromInt(1)

// PendingOrder is one party whose orders exceed their invoiced total
type PendingOrder struct {
	Party    string          `json:"party"`
	Ordered  decimal.Decimal `json:"ordered"`
	Invoiced decimal.Decimal `json:"invoiced"`
	Pending  decimal.Decimal `json:"pending"`
}

// FulfillmentData is the typed payload of an order tracking report
type FulfillmentData struct {
	Pending       []PendingOrder  `json:"pending"`
	TotalOrdered  decimal.Decimal `json:"totalOrdered"`
	TotalInvoiced decimal.Decimal `json:"totalInvoiced"`
	TotalPending  decimal.Decimal `json:"totalPending"`
}

// ReconcileOrders aggregates order and fulfillment vouchers by party and
// reports each party whose ordered total exceeds its invoiced total by more
// than the noise threshold. Parties are sorted by pending amount,
// descending.
func ReconcileOrders(orders, invoices []*models.Voucher) *FulfillmentData {
	ordered := sumByParty(orders)
	invoiced := sumByParty(invoices)

	data := &FulfillmentData{}
	for _, total := range ordered {
		data.TotalOrdered = data.TotalOrdered.Add(total)
	}
	for _, total := range invoiced {
		data.TotalInvoiced = data.TotalInvoiced.Add(total)
	}

	for party, orderTotal := range ordered {
		invoiceTotal := invoiced[party]
		pending := orderTotal.Sub(invoiceTotal)
		if pending.LessThanOrEqual(pendingNoiseThreshold) {
			continue
		}
		data.Pending = append(data.Pending, PendingOrder{
			Party:    party,
			Ordered:  orderTotal,
			Invoiced: invoiceTotal,
			Pending:  pending,
		})
		data.TotalPending = data.TotalPending.Add(pending)
	}

	sort.Slice(data.Pending, func(i, j int) bool {
		if data.Pending[i].Pending.Equal(data.Pending[j].Pending) {
			return data.Pending[i].Party < data.Pending[j].Party
		}
		return data.Pending[i].Pending.GreaterThan(data.Pending[j].Pending)
	})
	return data
}

// sumByParty totals voucher magnitudes per party, skipping vouchers without
// a party ledger
func sumByParty(vouchers []*models.Voucher) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, v := range vouchers {
		if v.PartyName == "" {
			continue
		}
		totals[v.PartyName] = totals[v.PartyName].Add(v.AbsAmount())
	}
	return totals
}
