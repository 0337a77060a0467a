package export

import (
	"strings"
	"testing"
	"time"

	"tallybridge/internal/analytics"
	"tallybridge/internal/models"
	"tallybridge/internal/reports"

	"github.com/shopspring/decimal"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"receivables", "receivables"},
		{"Trial Balance 2026", "Trial_Balance_2026"},
		{"gst/summary?*", "gstsummary"},
		{"report.v1_final-2", "report.v1_final-2"},
		{"///", "report"},
		{"", "report"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.input); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}

	long := SanitizeFilename(strings.Repeat("a", 200))
	if len(long) != MaxFilenameLen {
		t.Errorf("long name truncated to %d, want %d", len(long), MaxFilenameLen)
	}
}

func TestBuildTableOutstanding(t *testing.T) {
	data := &reports.OutstandingData{
		Kind: reports.Receivables,
		Entries: []reports.OutstandingEntry{
			{Party: "Rajesh Traders", Bill: "INV-001", Balance: decimal.NewFromInt(-250000), DueDate: "15-Apr-2026"},
			{Party: "Priya Enterprises", Bill: "INV-002", Balance: decimal.NewFromInt(-75000)},
		},
		Total: decimal.NewFromInt(-325000),
	}

	table, err := BuildTable("Receivables Apr 2026", data)
	if err != nil {
		t.Fatalf("BuildTable failed: %v", err)
	}

	if table.Title != "Receivables Apr 2026" || table.Filename != "Receivables_Apr_2026" {
		t.Errorf("title/filename = %q/%q", table.Title, table.Filename)
	}
	if len(table.Headers) != 4 {
		t.Errorf("headers = %v", table.Headers)
	}
	// Two entries plus the totals row
	if len(table.Rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(table.Rows))
	}
	if table.Rows[0][0] != "Rajesh Traders" || table.Rows[0][3] != "15-Apr-2026" {
		t.Errorf("first row = %v", table.Rows[0])
	}
	if table.Rows[2][0] != "Total" || table.Rows[2][2] != "-325000.00" {
		t.Errorf("totals row = %v", table.Rows[2])
	}
}

func TestBuildTableTrialBalanceSplitsSides(t *testing.T) {
	data := &reports.TrialBalanceData{
		Entries: []*models.Ledger{
			{Name: "Machinery", ParentGroup: "Fixed Assets", ClosingBalance: decimal.NewFromInt(500)},
			{Name: "Sales", ParentGroup: "Sales Accounts", ClosingBalance: decimal.NewFromInt(-500)},
		},
		TotalDebit:  decimal.NewFromInt(500),
		TotalCredit: decimal.NewFromInt(500),
	}

	table, err := BuildTable("Trial Balance", data)
	if err != nil {
		t.Fatalf("BuildTable failed: %v", err)
	}
	if len(table.Rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(table.Rows))
	}
	// A debit balance fills the Debit column only, a credit the Credit column
	if table.Rows[0][2] != "500.00" || table.Rows[0][3] != "" {
		t.Errorf("debit row = %v", table.Rows[0])
	}
	if table.Rows[1][2] != "" || table.Rows[1][3] != "500.00" {
		t.Errorf("credit row = %v", table.Rows[1])
	}
}

func TestBuildTableTopN(t *testing.T) {
	data := &analytics.TopNData{
		Limit:      2,
		GrandTotal: decimal.NewFromInt(250000),
		Entities: []analytics.RankedEntity{
			{Name: "Rajesh Traders", Amount: decimal.NewFromInt(150000), SharePercent: decimal.NewFromInt(60)},
			{Name: "Priya Enterprises", Amount: decimal.NewFromInt(80000), SharePercent: decimal.NewFromInt(32)},
		},
	}

	table, err := BuildTable("Top Customers", data)
	if err != nil {
		t.Fatalf("BuildTable failed: %v", err)
	}
	if len(table.Rows) != 3 {
		t.Fatalf("got %d rows, want 2 ranked + grand total", len(table.Rows))
	}
	if table.Rows[0][0] != "1" || table.Rows[0][1] != "Rajesh Traders" {
		t.Errorf("first row = %v", table.Rows[0])
	}
	if table.Rows[2][1] != "Grand Total" || table.Rows[2][2] != "250000.00" {
		t.Errorf("grand total row = %v", table.Rows[2])
	}
}

func TestBuildTableAgeing(t *testing.T) {
	data := analytics.AgeBills(nil, time.Now())
	table, err := BuildTable("Bill Ageing", data)
	if err != nil {
		t.Fatalf("BuildTable failed: %v", err)
	}
	// Four buckets plus the total; no undated row for a zero undated sum
	if len(table.Rows) != 5 {
		t.Errorf("got %d rows, want 5", len(table.Rows))
	}
}

func TestBuildTableUnknownType(t *testing.T) {
	if _, err := BuildTable("mystery", struct{ X int }{1}); err == nil {
		t.Fatal("unknown payload type did not error")
	}
	if _, err := BuildTable("nothing", nil); err == nil {
		t.Fatal("nil payload did not error")
	}
}
