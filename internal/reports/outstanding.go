package reports

import (
	"context"

	"tallybridge/internal/gateway"
	"tallybridge/internal/models"

	"github.com/shopspring/decimal"
)

// OutstandingKind selects which side of the books an outstanding query
// covers
type OutstandingKind string

const (
	// Receivables are bills owed to us, under the Sundry Debtors group
	Receivables OutstandingKind = "receivables"
	// Payables are bills we owe, under the Sundry Creditors group
	Payables OutstandingKind = "payables"
)

// ancestorGroup returns the chart-of-accounts group scoping this kind
func (k OutstandingKind) ancestorGroup() string {
	if k == Payables {
		return "Sundry Creditors"
	}
	return "Sundry Debtors"
}

// billFetch is the field list requested for every bill-shaped query
var billFetch = []string{"NAME", "PARENT", "BILLDATE", "BILLCREDITPERIOD", "BILLDUE", "CLOSINGBALANCE"}

// BuildOutstandingRequest composes a query for open bills on one side of
// the books, scoped by the owning party group and pre-filtered to non-zero
// balances
func BuildOutstandingRequest(company string, kind OutstandingKind) string {
	return NewEnvelope("Outstanding Bills").
		WithCompany(company).
		Add(Collection{
			Name:    "Outstanding Bills",
			Type:    "Bills",
			ChildOf: kind.ancestorGroup(),
			Fetch:   billFetch,
			Filters: []string{"NonZeroBill"},
		}).
		Filter("NonZeroBill", "$ClosingBalance != 0").
		Build()
}

// ParseBills extracts bill records, dropping any with an exactly-zero
// closing balance. A bill whose due date the engine omits keeps the zero
// time; it still counts in totals but cannot be aged.
func ParseBills(body string) []*models.Bill {
	var bills []*models.Bill
	for _, rec := range gateway.FindRecords(body, tagBill) {
		bill := &models.Bill{
			Name:           recordName(rec),
			ParentLedger:   rec.Text("PARENT"),
			ClosingBalance: rec.Amount("CLOSINGBALANCE"),
		}
		if bill.Name == "" || bill.ClosingBalance.IsZero() {
			continue
		}

		// The engine reports the due date directly or as bill date plus a
		// credit period, depending on how the voucher was entered
		if due := rec.Date("BILLDUE"); !due.IsZero() {
			bill.DueDate = due
		} else if billDate := rec.Date("BILLDATE"); !billDate.IsZero() {
			if days := int(rec.Quantity("BILLCREDITPERIOD").IntPart()); days > 0 {
				bill.DueDate = billDate.AddDate(0, 0, days)
			} else {
				bill.DueDate = billDate
			}
		}

		bills = append(bills, bill)
	}
	return bills
}

// OutstandingEntry is one open bill in an outstanding report
type OutstandingEntry struct {
	Party   string          `json:"party"`
	Bill    string          `json:"bill"`
	Balance decimal.Decimal `json:"balance"`
	DueDate string          `json:"dueDate,omitempty"`
}

// OutstandingData is the typed payload of a receivables or payables report
type OutstandingData struct {
	Kind    OutstandingKind    `json:"kind"`
	Entries []OutstandingEntry `json:"entries"`
	Total   decimal.Decimal    `json:"total"`
	Bills   []*models.Bill     `json:"-"`
}

// Outstanding lists the open bills for one side of the books. Total carries
// the signed sum as the engine reports it; callers present magnitudes.
func (s *Service) Outstanding(ctx context.Context, company string, kind OutstandingKind) (*OutstandingData, error) {
	body, err := s.fetch(ctx, BuildOutstandingRequest(company, kind))
	if err != nil {
		return nil, err
	}

	bills := ParseBills(body)
	data := &OutstandingData{Kind: kind, Bills: bills}
	for _, bill := range bills {
		entry := OutstandingEntry{
			Party:   bill.ParentLedger,
			Bill:    bill.Name,
			Balance: bill.ClosingBalance,
		}
		if bill.HasDueDate() {
			entry.DueDate = bill.DueDate.Format(gateway.DisplayDateLayout)
		}
		data.Entries = append(data.Entries, entry)
		data.Total = data.Total.Add(bill.ClosingBalance)
	}
	return data, nil
}

// PartyOutstanding lists the open bills of a single resolved party,
// whichever side of the books the party sits on
func (s *Service) PartyOutstanding(ctx context.Context, company, partyName string) (*OutstandingData, error) {
	env := NewEnvelope("Party Bills").
		WithCompany(company).
		Add(Collection{
			Name:    "Party Bills",
			Type:    "Bills",
			Fetch:   billFetch,
			Filters: []string{"NonZeroBill", "PartyIs"},
		}).
		Filter("NonZeroBill", "$ClosingBalance != 0").
		Filter("PartyIs", "$Parent = "+quoteFormula(partyName))

	body, err := s.fetch(ctx, env.Build())
	if err != nil {
		return nil, err
	}

	bills := ParseBills(body)
	data := &OutstandingData{Kind: Receivables, Bills: bills}
	for _, bill := range bills {
		entry := OutstandingEntry{
			Party:   bill.ParentLedger,
			Bill:    bill.Name,
			Balance: bill.ClosingBalance,
		}
		if bill.HasDueDate() {
			entry.DueDate = bill.DueDate.Format(gateway.DisplayDateLayout)
		}
		data.Entries = append(data.Entries, entry)
		data.Total = data.Total.Add(bill.ClosingBalance)
	}
	return data, nil
}
