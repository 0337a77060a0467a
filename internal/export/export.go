// Package export turns typed report payloads into tabular layouts for the
// downstream spreadsheet and PDF sinks.
//
// Dispatch is by the payload's concrete type, a closed set produced
// explicitly by the report pipelines. Two reports may share field names
// (several produce entries with closing balances), so the type tag, not
// the field shape, decides the column layout.
package export

import (
	"fmt"
	"strings"

	"tallybridge/internal/analytics"
	"tallybridge/internal/reports"
	bridgeerrors "tallybridge/pkg/errors"
)

// Table is the renderer-agnostic tabular form handed to export sinks
type Table struct {
	Title    string     `json:"title"`
	Headers  []string   `json:"headers"`
	Rows     [][]string `json:"rows"`
	Filename string     `json:"filename"`
}

// MaxFilenameLen caps sanitized filenames
const MaxFilenameLen = 64

// SanitizeFilename restricts a report name to a safe character set and
// length, appending no extension; the sink picks one
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	s := b.String()
	if s == "" {
		s = "report"
	}
	if len(s) > MaxFilenameLen {
		s = s[:MaxFilenameLen]
	}
	return s
}

// BuildTable routes a typed report payload to its column layout. An
// unrecognised payload type is an explicit "no renderer" error, not a
// guess.
func BuildTable(reportName string, data interface{}) (*Table, error) {
	table, err := buildRows(data)
	if err != nil {
		return nil, err
	}
	table.Title = reportName
	table.Filename = SanitizeFilename(reportName)
	return table, nil
}

func buildRows(data interface{}) (*Table, error) {
	switch d := data.(type) {
	case *reports.OutstandingData:
		return outstandingTable(d), nil
	case *reports.TrialBalanceData:
		return trialBalanceTable(d), nil
	case *reports.BankBalanceData:
		return bankBalanceTable(d), nil
	case *reports.ProfitLossData:
		return profitLossTable(d), nil
	case *reports.BalanceSheetData:
		return balanceSheetTable(d), nil
	case *reports.StockSummaryData:
		return stockTable(d), nil
	case *reports.GSTData:
		return gstTable(d), nil
	case *reports.VoucherListData:
		return voucherTable(d), nil
	case *reports.LedgerStatementData:
		return ledgerStatementTable(d), nil
	case *analytics.AgeingData:
		return ageingTable(d), nil
	case *analytics.FulfillmentData:
		return fulfillmentTable(d), nil
	case *analytics.InactivityData:
		return inactivityTable(d), nil
	case *analytics.TopNData:
		return topNTable(d), nil
	default:
		return nil, bridgeerrors.InternalError(bridgeerrors.CodeUnexpectedError,
			fmt.Sprintf("no renderer for report data of type %T", data), nil)
	}
}

func outstandingTable(d *reports.OutstandingData) *Table {
	t := &Table{Headers: []string{"Party", "Bill", "Balance", "Due Date"}}
	for _, e := range d.Entries {
		t.Rows = append(t.Rows, []string{e.Party, e.Bill, e.Balance.StringFixed(2), e.DueDate})
	}
	t.Rows = append(t.Rows, []string{"Total", "", d.Total.StringFixed(2), ""})
	return t
}

func trialBalanceTable(d *reports.TrialBalanceData) *Table {
	t := &Table{Headers: []string{"Ledger", "Group", "Debit", "Credit"}}
	for _, l := range d.Entries {
		debit, credit := "", ""
		if l.ClosingBalance.IsPositive() {
			debit = l.ClosingBalance.StringFixed(2)
		} else {
			credit = l.ClosingBalance.Abs().StringFixed(2)
		}
		t.Rows = append(t.Rows, []string{l.Name, l.ParentGroup, debit, credit})
	}
	t.Rows = append(t.Rows, []string{"Total", "", d.TotalDebit.StringFixed(2), d.TotalCredit.StringFixed(2)})
	return t
}

func bankBalanceTable(d *reports.BankBalanceData) *Table {
	t := &Table{Headers: []string{"Account", "Group", "Available"}}
	for _, a := range d.Accounts {
		t.Rows = append(t.Rows, []string{a.Name, a.Group, a.Available.StringFixed(2)})
	}
	t.Rows = append(t.Rows, []string{"Total", "", d.Total.StringFixed(2)})
	return t
}

func profitLossTable(d *reports.ProfitLossData) *Table {
	t := &Table{Headers: []string{"Head", "Income", "Expense"}}
	for _, g := range d.Income {
		t.Rows = append(t.Rows, []string{g.Name, g.Amount.StringFixed(2), ""})
	}
	for _, g := range d.Expenses {
		t.Rows = append(t.Rows, []string{g.Name, "", g.Amount.StringFixed(2)})
	}
	t.Rows = append(t.Rows, []string{"Total", d.TotalIncome.StringFixed(2), d.TotalExpense.StringFixed(2)})
	t.Rows = append(t.Rows, []string{"Net Profit", d.NetProfit.StringFixed(2), ""})
	return t
}

func balanceSheetTable(d *reports.BalanceSheetData) *Table {
	t := &Table{Headers: []string{"Head", "Assets", "Liabilities"}}
	for _, g := range d.Assets {
		t.Rows = append(t.Rows, []string{g.Name, g.Amount.StringFixed(2), ""})
	}
	for _, g := range d.Liabilities {
		t.Rows = append(t.Rows, []string{g.Name, "", g.Amount.StringFixed(2)})
	}
	t.Rows = append(t.Rows, []string{"Total", d.TotalAssets.StringFixed(2), d.TotalLiabilities.StringFixed(2)})
	return t
}

func stockTable(d *reports.StockSummaryData) *Table {
	t := &Table{Headers: []string{"Item", "Quantity", "Rate", "Value"}}
	for _, item := range d.Items {
		t.Rows = append(t.Rows, []string{
			item.Name,
			item.ClosingQuantity.String(),
			item.ClosingRate.StringFixed(2),
			item.ClosingValue.Abs().StringFixed(2),
		})
	}
	t.Rows = append(t.Rows, []string{"Total", "", "", d.TotalValue.StringFixed(2)})
	return t
}

func gstTable(d *reports.GSTData) *Table {
	t := &Table{Headers: []string{"Tax Head", "Output", "Input"}}
	for _, e := range d.Output {
		t.Rows = append(t.Rows, []string{e.Name, e.Amount.StringFixed(2), ""})
	}
	for _, e := range d.Input {
		t.Rows = append(t.Rows, []string{e.Name, "", e.Amount.StringFixed(2)})
	}
	t.Rows = append(t.Rows, []string{"Total", d.TotalOutput.StringFixed(2), d.TotalInput.StringFixed(2)})
	t.Rows = append(t.Rows, []string{"Net Payable", d.NetPayable.StringFixed(2), ""})
	return t
}

func voucherTable(d *reports.VoucherListData) *Table {
	t := &Table{Headers: []string{"Date", "Type", "Number", "Party", "Amount", "Narration"}}
	for _, v := range d.Vouchers {
		t.Rows = append(t.Rows, []string{
			v.Date.Format("2-Jan-2006"),
			v.Type,
			v.Number,
			v.PartyName,
			v.AbsAmount().StringFixed(2),
			v.Narration,
		})
	}
	t.Rows = append(t.Rows, []string{"Total", "", "", "", d.Total.StringFixed(2), ""})
	return t
}

func ledgerStatementTable(d *reports.LedgerStatementData) *Table {
	t := &Table{Headers: []string{"Date", "Type", "Number", "Amount", "Narration"}}
	for _, v := range d.Vouchers {
		t.Rows = append(t.Rows, []string{
			v.Date.Format("2-Jan-2006"),
			v.Type,
			v.Number,
			v.AbsAmount().StringFixed(2),
			v.Narration,
		})
	}
	t.Rows = append(t.Rows, []string{"Closing Balance", "", "", d.ClosingBalance.StringFixed(2), ""})
	return t
}

func ageingTable(d *analytics.AgeingData) *Table {
	t := &Table{Headers: []string{"Bucket", "Bills", "Amount"}}
	for _, b := range d.Buckets {
		t.Rows = append(t.Rows, []string{b.Label, fmt.Sprintf("%d", b.Count), b.Amount.StringFixed(2)})
	}
	if !d.Undated.IsZero() {
		t.Rows = append(t.Rows, []string{"No due date", "", d.Undated.StringFixed(2)})
	}
	t.Rows = append(t.Rows, []string{"Total", "", d.Total.StringFixed(2)})
	return t
}

func fulfillmentTable(d *analytics.FulfillmentData) *Table {
	t := &Table{Headers: []string{"Party", "Ordered", "Invoiced", "Pending"}}
	for _, p := range d.Pending {
		t.Rows = append(t.Rows, []string{
			p.Party,
			p.Ordered.StringFixed(2),
			p.Invoiced.StringFixed(2),
			p.Pending.StringFixed(2),
		})
	}
	t.Rows = append(t.Rows, []string{"Total", d.TotalOrdered.StringFixed(2), d.TotalInvoiced.StringFixed(2), d.TotalPending.StringFixed(2)})
	return t
}

func inactivityTable(d *analytics.InactivityData) *Table {
	t := &Table{Headers: []string{"Name", "Last Activity", "Idle Days"}}
	for _, e := range d.Entities {
		t.Rows = append(t.Rows, []string{
			e.Name,
			e.LastActivity.Format("2-Jan-2006"),
			fmt.Sprintf("%d", e.IdleDays),
		})
	}
	return t
}

func topNTable(d *analytics.TopNData) *Table {
	t := &Table{Headers: []string{"Rank", "Name", "Amount", "Share %"}}
	for i, e := range d.Entities {
		t.Rows = append(t.Rows, []string{
			fmt.Sprintf("%d", i+1),
			e.Name,
			e.Amount.StringFixed(2),
			e.SharePercent.StringFixed(2),
		})
	}
	t.Rows = append(t.Rows, []string{"", "Grand Total", d.GrandTotal.StringFixed(2), ""})
	return t
}
