// Package models defines the typed records exchanged with the accounting
// engine and the uniform result contract returned by every report pipeline.
//
// Sign conventions in this package are observed engine behaviour, not
// documented guarantees: a party ledger under a receivable group carries a
// negative closing balance for money owed to us, and bank/cash ledgers carry
// a negative closing balance for funds available. Callers must go through
// the helpers here instead of re-deriving signs.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Ledger represents an account in the engine's chart of accounts: a party,
// bank, expense head or tax head. Identity is the exact name string as known
// to the engine.
type Ledger struct {
	Name           string          `json:"name"`
	ParentGroup    string          `json:"parentGroup"`
	ClosingBalance decimal.Decimal `json:"closingBalance"`
	OpeningBalance decimal.Decimal `json:"openingBalance,omitempty"`
}

// NewLedger creates a new Ledger instance
func NewLedger(name, parentGroup string, closing decimal.Decimal) *Ledger {
	return &Ledger{
		Name:           name,
		ParentGroup:    parentGroup,
		ClosingBalance: closing,
	}
}

// HasBalance reports whether the ledger carries a non-zero closing balance
func (l *Ledger) HasBalance() bool {
	return !l.ClosingBalance.IsZero()
}

// AvailableBalance returns the spendable balance for bank and cash ledgers,
// where the engine reports available funds as a negative closing balance
func (l *Ledger) AvailableBalance() decimal.Decimal {
	return l.ClosingBalance.Neg()
}

// AbsBalance returns the magnitude of the closing balance
func (l *Ledger) AbsBalance() decimal.Decimal {
	return l.ClosingBalance.Abs()
}

// String returns a string representation of the Ledger
func (l *Ledger) String() string {
	return fmt.Sprintf("Ledger{Name: %s, Group: %s, Closing: %s}",
		l.Name, l.ParentGroup, l.ClosingBalance.String())
}

// Bill represents one outstanding invoice's balance tracked as a sub-ledger
// unit. DueDate is the zero time when the engine did not report one; such
// bills still count toward totals but cannot be aged.
type Bill struct {
	Name           string          `json:"name"`
	ParentLedger   string          `json:"parentLedger"`
	ClosingBalance decimal.Decimal `json:"closingBalance"`
	DueDate        time.Time       `json:"dueDate,omitempty"`
}

// NewBill creates a new Bill instance
func NewBill(name, parentLedger string, closing decimal.Decimal) *Bill {
	return &Bill{
		Name:           name,
		ParentLedger:   parentLedger,
		ClosingBalance: closing,
	}
}

// HasDueDate reports whether the engine supplied a due date for this bill
func (b *Bill) HasDueDate() bool {
	return !b.DueDate.IsZero()
}

// AbsAmount returns the magnitude of the outstanding balance. The sign of
// ClosingBalance encodes receivable vs payable depending on the owning
// group, so reports aggregate magnitudes and label the direction themselves.
func (b *Bill) AbsAmount() decimal.Decimal {
	return b.ClosingBalance.Abs()
}

// OverdueDays returns the whole days elapsed from the due date to now,
// floored at zero. Bills without a due date report zero.
func (b *Bill) OverdueDays(now time.Time) int {
	if !b.HasDueDate() {
		return 0
	}
	days := int(now.Sub(b.DueDate).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// String returns a string representation of the Bill
func (b *Bill) String() string {
	due := "none"
	if b.HasDueDate() {
		due = b.DueDate.Format("2006-01-02")
	}
	return fmt.Sprintf("Bill{Name: %s, Party: %s, Closing: %s, Due: %s}",
		b.Name, b.ParentLedger, b.ClosingBalance.String(), due)
}

// LedgerEntry is one debit/credit line inside a voucher
type LedgerEntry struct {
	LedgerName string          `json:"ledgerName"`
	Amount     decimal.Decimal `json:"amount"`
	IsDebit    bool            `json:"isDebit"`
}

// InventoryEntry is one stock line inside a voucher
type InventoryEntry struct {
	ItemName string          `json:"itemName"`
	Quantity decimal.Decimal `json:"quantity"`
	Rate     decimal.Decimal `json:"rate"`
	Amount   decimal.Decimal `json:"amount"`
}

// Voucher represents one accounting transaction
type Voucher struct {
	Date             time.Time        `json:"date"`
	Type             string           `json:"type"`
	Number           string           `json:"number"`
	PartyName        string           `json:"partyName,omitempty"`
	Amount           decimal.Decimal  `json:"amount"`
	Narration        string           `json:"narration,omitempty"`
	LedgerEntries    []LedgerEntry    `json:"ledgerEntries,omitempty"`
	InventoryEntries []InventoryEntry `json:"inventoryEntries,omitempty"`
}

// AbsAmount returns the magnitude of the voucher amount
func (v *Voucher) AbsAmount() decimal.Decimal {
	return v.Amount.Abs()
}

// IsType reports whether the voucher type matches, case-insensitively
func (v *Voucher) IsType(voucherType string) bool {
	return strings.EqualFold(v.Type, voucherType)
}

// InWindow reports whether the voucher date falls inside [from, to]
// inclusive. A zero from or to means that side is unbounded.
func (v *Voucher) InWindow(from, to time.Time) bool {
	if !from.IsZero() && v.Date.Before(from) {
		return false
	}
	if !to.IsZero() && v.Date.After(to) {
		return false
	}
	return true
}

// String returns a string representation of the Voucher
func (v *Voucher) String() string {
	return fmt.Sprintf("Voucher{Date: %s, Type: %s, No: %s, Party: %s, Amount: %s}",
		v.Date.Format("2006-01-02"), v.Type, v.Number, v.PartyName, v.Amount.String())
}

// Group represents a chart-of-accounts category node. Top-level groups are
// recognised by a sentinel parent value, not by an empty parent.
type Group struct {
	Name           string          `json:"name"`
	ParentGroup    string          `json:"parentGroup"`
	ClosingBalance decimal.Decimal `json:"closingBalance"`
}

// IsTopLevel reports whether the group sits at the root of the chart of
// accounts, given the engine's sentinel parent value. The sentinel carries
// an engine-internal control-character prefix in observed responses, so the
// bare form is accepted as well.
func (g *Group) IsTopLevel(sentinel string) bool {
	if g.ParentGroup == sentinel {
		return true
	}
	return strings.TrimLeft(g.ParentGroup, "\x04 ") == strings.TrimLeft(sentinel, "\x04 ")
}

// String returns a string representation of the Group
func (g *Group) String() string {
	return fmt.Sprintf("Group{Name: %s, Parent: %s, Closing: %s}",
		g.Name, g.ParentGroup, g.ClosingBalance.String())
}

// StockItem represents one inventory item with its closing position
type StockItem struct {
	Name            string          `json:"name"`
	ClosingQuantity decimal.Decimal `json:"closingQuantity"`
	ClosingRate     decimal.Decimal `json:"closingRate"`
	ClosingValue    decimal.Decimal `json:"closingValue"`
}

// HasStock reports whether the item carries a non-zero quantity or value
func (s *StockItem) HasStock() bool {
	return !s.ClosingQuantity.IsZero() || !s.ClosingValue.IsZero()
}

// Company represents one accounting book on disk. DisplayName may be empty
// until the engine has loaded the book once; a local cache persists the
// id-to-name mapping across engine restarts.
type Company struct {
	ID           string  `json:"id"` // folder/session identifier
	DisplayName  string  `json:"displayName,omitempty"`
	SizeMB       float64 `json:"sizeMB"`
	FileCount    int     `json:"fileCount"`
	TallyVersion string  `json:"tallyVersion"`
	StartingFrom string  `json:"startingFrom,omitempty"`
}

// Label returns the display name when known, otherwise the folder id
func (c *Company) Label() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.ID
}

// ResolutionKind tags the outcome of entity resolution
type ResolutionKind string

const (
	// ResolutionExact means the query matched a ledger name exactly
	// (case-insensitively)
	ResolutionExact ResolutionKind = "exact"
	// ResolutionSingle means the search produced exactly one candidate
	ResolutionSingle ResolutionKind = "single"
	// ResolutionMultiple means several candidates matched; the caller must
	// disambiguate and must never auto-pick one
	ResolutionMultiple ResolutionKind = "multiple"
	// ResolutionNone means no candidate was found
	ResolutionNone ResolutionKind = "none"
)

// PartyCandidate is one scored match produced during entity resolution
type PartyCandidate struct {
	Name        string `json:"name"`
	ParentGroup string `json:"parentGroup"`
	Score       int    `json:"score"`
}

// PartyResolution is the tagged result of resolving free text to ledger
// names. Name is set for Exact and Single; Candidates for Multiple.
type PartyResolution struct {
	Kind       ResolutionKind   `json:"kind"`
	Name       string           `json:"name,omitempty"`
	Candidates []PartyCandidate `json:"candidates,omitempty"`
}

// Resolved reports whether resolution produced a single usable name
func (r *PartyResolution) Resolved() bool {
	return r.Kind == ResolutionExact || r.Kind == ResolutionSingle
}

// QueryWindow is a date range in engine-native 8-digit form (yyyyMMdd).
// Either side may be empty, meaning unbounded.
type QueryWindow struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// IsBounded reports whether both ends of the window are set
func (w QueryWindow) IsBounded() bool {
	return w.From != "" && w.To != ""
}

// String returns a string representation of the QueryWindow
func (w QueryWindow) String() string {
	return fmt.Sprintf("%s..%s", w.From, w.To)
}

// VolumeProfile records the engine's measured daily transaction volume, used
// to size date-range chunks. A profile older than ProfileMaxAge or belonging
// to a different company must not be trusted.
type VolumeProfile struct {
	AvgVouchersPerDay float64   `json:"avgVouchersPerDay"`
	LastProbedAt      time.Time `json:"lastProbedAt"`
	CompanyName       string    `json:"companyName"`
}

// ProfileMaxAge is the staleness window for a persisted volume profile
const ProfileMaxAge = 24 * time.Hour

// IsFresh reports whether the profile can be trusted for the given company
// at the given time
func (p *VolumeProfile) IsFresh(companyName string, now time.Time) bool {
	if p == nil {
		return false
	}
	if p.CompanyName != companyName {
		return false
	}
	return now.Sub(p.LastProbedAt) <= ProfileMaxAge
}

// ReportResult is the uniform return contract of every report pipeline.
// Message is always human-readable; Data carries the typed report payload
// for export sinks and is nil for plain text answers.
type ReportResult struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// OkResult creates a successful result with a message and optional data
func OkResult(message string, data interface{}) *ReportResult {
	return &ReportResult{Success: true, Message: message, Data: data}
}

// FailResult creates a failed result carrying a user-facing message
func FailResult(message string) *ReportResult {
	return &ReportResult{Success: false, Message: message}
}
