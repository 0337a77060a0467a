package analytics

import (
	"sort"
	"time"

	"tallybridge/internal/models"
)

// DefaultInactiveDays is the cutoff used when the caller does not supply one
const DefaultInactiveDays = 30

// InactiveEntity is one customer, supplier or item with no transaction
// since the cutoff
type InactiveEntity struct {
	Name         string    `json:"name"`
	LastActivity time.Time `json:"lastActivity"`
	IdleDays     int       `json:"idleDays"`
}

// InactivityData is the typed payload of an inactivity report
type InactivityData struct {
	CutoffDays int              `json:"cutoffDays"`
	Entities   []InactiveEntity `json:"entities"`
}

// EntityDater extracts the entity names a voucher touches; parties and
// items need different extraction
type EntityDater func(v *models.Voucher) []string

// PartyNames extracts the party ledger of a voucher
func PartyNames(v *models.Voucher) []string {
	if v.PartyName == "" {
		return nil
	}
	return []string{v.PartyName}
}

// ItemNames extracts the stock items a voucher moves
func ItemNames(v *models.Voucher) []string {
	var names []string
	for _, entry := range v.InventoryEntries {
		if entry.ItemName != "" {
			names = append(names, entry.ItemName)
		}
	}
	return names
}

// FindInactive tracks the most recent transaction date per entity across
// the vouchers and reports every entity whose latest date is strictly
// before today minus the cutoff. Entities are sorted by idle days,
// descending, so the longest-quiet come first.
func FindInactive(vouchers []*models.Voucher, extract EntityDater, cutoffDays int, now time.Time) *InactivityData {
	if cutoffDays <= 0 {
		cutoffDays = DefaultInactiveDays
	}

	latest := make(map[string]time.Time)
	for _, v := range vouchers {
		for _, name := range extract(v) {
			if v.Date.After(latest[name]) {
				latest[name] = v.Date
			}
		}
	}

	cutoff := now.AddDate(0, 0, -cutoffDays)
	data := &InactivityData{CutoffDays: cutoffDays}
	for name, last := range latest {
		if !last.Before(cutoff) {
			continue
		}
		data.Entities = append(data.Entities, InactiveEntity{
			Name:         name,
			LastActivity: last,
			IdleDays:     int(now.Sub(last).Hours() / 24),
		})
	}

	sort.Slice(data.Entities, func(i, j int) bool {
		if data.Entities[i].IdleDays == data.Entities[j].IdleDays {
			return data.Entities[i].Name < data.Entities[j].Name
		}
		return data.Entities[i].IdleDays > data.Entities[j].IdleDays
	})
	return data
}
