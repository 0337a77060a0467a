// Package analytics derives report semantics the engine does not expose
// directly: ageing buckets over outstanding bills, order-vs-invoice
// fulfillment, inactivity detection and top-N ranking.
//
// Every computation here runs over already-parsed records and never talks
// to the engine. Empty input always yields a valid result with empty
// collections and zero totals, never nil.
package analytics

import (
	"time"

	"tallybridge/internal/models"

	"github.com/shopspring/decimal"
)

// AgeingBucket is one fixed day-range of overdue balances
type AgeingBucket struct {
	Label    string          `json:"label"`
	MinDays  int             `json:"minDays"`
	MaxDays  int             `json:"maxDays"` // -1 means open-ended
	Amount   decimal.Decimal `json:"amount"`
	Count    int             `json:"count"`
}

// AgeingData is the typed payload of a bill ageing report. Undated carries
// bills the engine reported without a due date: they contribute to Total
// but to no bucket, and must not silently disappear.
type AgeingData struct {
	Buckets []AgeingBucket  `json:"buckets"`
	Undated decimal.Decimal `json:"undated"`
	Total   decimal.Decimal `json:"total"`
}

// newBuckets returns the four fixed ageing ranges
func newBuckets() []AgeingBucket {
	return []AgeingBucket{
		{Label: "0-30 days", MinDays: 0, MaxDays: 30},
		{Label: "31-60 days", MinDays: 31, MaxDays: 60},
		{Label: "61-90 days", MinDays: 61, MaxDays: 90},
		{Label: "91+ days", MinDays: 91, MaxDays: -1},
	}
}

// AgeBills ages every bill with a non-zero balance from its due date (not
// its voucher date) to now, in whole days floored at zero, and assigns it
// to one of the four fixed buckets. Bill amounts are magnitudes; the
// receivable/payable direction is the caller's context.
func AgeBills(bills []*models.Bill, now time.Time) *AgeingData {
	data := &AgeingData{Buckets: newBuckets()}

	for _, bill := range bills {
		if bill.ClosingBalance.IsZero() {
			continue
		}
		amount := bill.AbsAmount()
		data.Total = data.Total.Add(amount)

		if !bill.HasDueDate() {
			data.Undated = data.Undated.Add(amount)
			continue
		}

		days := bill.OverdueDays(now)
		for i := range data.Buckets {
			bucket := &data.Buckets[i]
			if days < bucket.MinDays {
				continue
			}
			if bucket.MaxDays >= 0 && days > bucket.MaxDays {
				continue
			}
			bucket.Amount = bucket.Amount.Add(amount)
			bucket.Count++
			break
		}
	}

	return data
}
