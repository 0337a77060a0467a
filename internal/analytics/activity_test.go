package analytics

import (
	"testing"
	"time"

	"tallybridge/internal/models"

	"github.com/shopspring/decimal"
)

func datedVoucher(party string, date time.Time) *models.Voucher {
	return &models.Voucher{PartyName: party, Date: date, Amount: decimal.NewFromInt(100)}
}

func TestFindInactive(t *testing.T) {
	now := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	vouchers := []*models.Voucher{
		datedVoucher("Quiet Party", now.AddDate(0, 0, -45)),
		datedVoucher("Active Party", now.AddDate(0, 0, -5)),
		// The most recent transaction wins, older ones are superseded
		datedVoucher("Returning Party", now.AddDate(0, 0, -90)),
		datedVoucher("Returning Party", now.AddDate(0, 0, -2)),
		// Exactly on the cutoff is still active: strictly before counts
		datedVoucher("Boundary Party", now.AddDate(0, 0, -30)),
	}

	data := FindInactive(vouchers, PartyNames, 30, now)

	if data.CutoffDays != 30 {
		t.Errorf("CutoffDays = %d", data.CutoffDays)
	}
	if len(data.Entities) != 1 {
		t.Fatalf("entities = %+v, want Quiet Party only", data.Entities)
	}
	if data.Entities[0].Name != "Quiet Party" || data.Entities[0].IdleDays != 45 {
		t.Errorf("entity = %+v", data.Entities[0])
	}
}

func TestFindInactiveDefaultCutoff(t *testing.T) {
	now := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	data := FindInactive([]*models.Voucher{
		datedVoucher("Old Party", now.AddDate(0, 0, -40)),
	}, PartyNames, 0, now)

	if data.CutoffDays != DefaultInactiveDays {
		t.Errorf("CutoffDays = %d, want default %d", data.CutoffDays, DefaultInactiveDays)
	}
	if len(data.Entities) != 1 {
		t.Errorf("entities = %+v", data.Entities)
	}
}

func TestFindInactiveSortsLongestQuietFirst(t *testing.T) {
	now := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	data := FindInactive([]*models.Voucher{
		datedVoucher("Recently Quiet", now.AddDate(0, 0, -35)),
		datedVoucher("Long Quiet", now.AddDate(0, 0, -200)),
	}, PartyNames, 30, now)

	if len(data.Entities) != 2 || data.Entities[0].Name != "Long Quiet" {
		t.Errorf("entities = %+v, want longest-quiet first", data.Entities)
	}
}

func TestFindInactiveItems(t *testing.T) {
	now := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	moved := &models.Voucher{Date: now.AddDate(0, 0, -3), InventoryEntries: []models.InventoryEntry{
		{ItemName: "Widget", Quantity: decimal.NewFromInt(5)},
	}}
	stale := &models.Voucher{Date: now.AddDate(0, 0, -60), InventoryEntries: []models.InventoryEntry{
		{ItemName: "Gadget", Quantity: decimal.NewFromInt(2)},
		{ItemName: "Widget", Quantity: decimal.NewFromInt(1)},
	}}

	data := FindInactive([]*models.Voucher{moved, stale}, ItemNames, 30, now)
	if len(data.Entities) != 1 || data.Entities[0].Name != "Gadget" {
		t.Errorf("entities = %+v, want Gadget only", data.Entities)
	}
}
