package analytics

import (
	"testing"
	"time"

	"tallybridge/internal/models"

	"github.com/shopspring/decimal"
)

func bill(name string, balance int64, due time.Time) *models.Bill {
	return &models.Bill{
		Name:           name,
		ParentLedger:   "Party",
		ClosingBalance: decimal.NewFromInt(balance),
		DueDate:        due,
	}
}

func TestAgeBills(t *testing.T) {
	now := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	data := AgeBills([]*models.Bill{
		bill("INV-1", -50000, now.AddDate(0, 0, -10)),  // 10 days overdue
		bill("INV-2", -100000, now.AddDate(0, 0, -95)), // 95 days overdue
		bill("INV-3", -30000, now.AddDate(0, 0, -45)),
		bill("INV-4", -20000, now.AddDate(0, 0, 15)), // not yet due: 0 days
		bill("INV-5", -7000, time.Time{}),            // engine gave no due date
		bill("SETTLED", 0, now.AddDate(0, 0, -400)),
	}, now)

	if len(data.Buckets) != 4 {
		t.Fatalf("got %d buckets, want 4", len(data.Buckets))
	}

	// 0-30 holds the 10-day bill and the not-yet-due bill
	if !data.Buckets[0].Amount.Equal(decimal.NewFromInt(70000)) || data.Buckets[0].Count != 2 {
		t.Errorf("0-30 bucket = %s/%d, want 70000/2", data.Buckets[0].Amount, data.Buckets[0].Count)
	}
	if !data.Buckets[1].Amount.Equal(decimal.NewFromInt(30000)) || data.Buckets[1].Count != 1 {
		t.Errorf("31-60 bucket = %s/%d, want 30000/1", data.Buckets[1].Amount, data.Buckets[1].Count)
	}
	if !data.Buckets[2].Amount.IsZero() {
		t.Errorf("61-90 bucket = %s, want empty", data.Buckets[2].Amount)
	}
	if !data.Buckets[3].Amount.Equal(decimal.NewFromInt(100000)) {
		t.Errorf("91+ bucket = %s, want 100000", data.Buckets[3].Amount)
	}

	// Undated bills count toward the total but no bucket
	if !data.Undated.Equal(decimal.NewFromInt(7000)) {
		t.Errorf("Undated = %s, want 7000", data.Undated)
	}
	if !data.Total.Equal(decimal.NewFromInt(207000)) {
		t.Errorf("Total = %s, want 207000", data.Total)
	}
}

func TestAgeBillsPartition(t *testing.T) {
	now := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	// Every aged day lands in exactly one bucket, boundaries included
	var bills []*models.Bill
	for days := 0; days <= 120; days++ {
		bills = append(bills, bill("B", -1, now.AddDate(0, 0, -days)))
	}

	data := AgeBills(bills, now)
	bucketed := 0
	for _, bucket := range data.Buckets {
		bucketed += bucket.Count
	}
	if bucketed != 121 {
		t.Errorf("bucketed %d bills, want all 121", bucketed)
	}
	if !data.Total.Equal(decimal.NewFromInt(121)) {
		t.Errorf("Total = %s, want 121", data.Total)
	}
}

func TestAgeBillsEmpty(t *testing.T) {
	data := AgeBills(nil, time.Now())
	if data == nil || len(data.Buckets) != 4 {
		t.Fatal("empty input must still produce the four buckets")
	}
	if !data.Total.IsZero() || !data.Undated.IsZero() {
		t.Error("empty input must produce zero totals")
	}
}
