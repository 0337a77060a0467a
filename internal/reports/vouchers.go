package reports

import (
	"context"
	"time"

	"tallybridge/internal/gateway"
	"tallybridge/internal/models"

	"github.com/shopspring/decimal"
)

// voucherFetch is the field list requested for every voucher-shaped query
var voucherFetch = []string{
	"DATE", "VOUCHERTYPENAME", "VOUCHERNUMBER", "PARTYLEDGERNAME",
	"AMOUNT", "NARRATION", "ALLLEDGERENTRIES.LIST", "ALLINVENTORYENTRIES.LIST",
}

// VoucherQuery describes one voucher listing: an optional date window, an
// optional voucher type and an optional party restriction.
type VoucherQuery struct {
	Window      models.QueryWindow
	VoucherType string
	PartyName   string
}

// BuildVoucherListRequest composes a voucher query. The engine's static
// date-window directive is unreliable for Voucher collections, so the
// window is never sent that way: bounded sides become named date filter
// formulas, and parsed vouchers are filtered client-side again to be safe.
func BuildVoucherListRequest(company string, query VoucherQuery) string {
	collection := Collection{
		Name:  "Voucher List",
		Type:  "Voucher",
		Fetch: voucherFetch,
	}

	env := NewEnvelope("Voucher List").WithCompany(company)
	if query.Window.From != "" {
		collection.Filters = append(collection.Filters, "DateFrom")
		env.Filter("DateFrom", "$Date >= "+query.Window.From)
	}
	if query.Window.To != "" {
		collection.Filters = append(collection.Filters, "DateTo")
		env.Filter("DateTo", "$Date <= "+query.Window.To)
	}
	if query.VoucherType != "" {
		collection.Filters = append(collection.Filters, "TypeIs")
		env.Filter("TypeIs", "$VoucherTypeName = "+quoteFormula(query.VoucherType))
	}
	if query.PartyName != "" {
		collection.Filters = append(collection.Filters, "PartyIs")
		env.Filter("PartyIs", "$PartyLedgerName = "+quoteFormula(query.PartyName))
	}

	return env.Add(collection).Build()
}

// ParseVouchers extracts voucher records with their ledger and inventory
// entry lists. Vouchers with an effectively-zero amount and no entries are
// dropped; they are artifacts of cancelled entries.
func ParseVouchers(body string) []*models.Voucher {
	var vouchers []*models.Voucher
	for _, rec := range gateway.FindRecords(body, tagVoucher) {
		voucher := &models.Voucher{
			Date:      rec.Date("DATE"),
			Type:      rec.Text("VOUCHERTYPENAME"),
			Number:    rec.Text("VOUCHERNUMBER"),
			PartyName: rec.Text("PARTYLEDGERNAME"),
			Amount:    rec.Amount("AMOUNT"),
			Narration: rec.Text("NARRATION"),
		}

		for _, entry := range rec.Records("ALLLEDGERENTRIES.LIST") {
			amount := entry.Amount("AMOUNT")
			voucher.LedgerEntries = append(voucher.LedgerEntries, models.LedgerEntry{
				LedgerName: entry.Text("LEDGERNAME"),
				Amount:     amount.Abs(),
				IsDebit:    amount.IsNegative(),
			})
		}

		for _, entry := range rec.Records("ALLINVENTORYENTRIES.LIST") {
			voucher.InventoryEntries = append(voucher.InventoryEntries, models.InventoryEntry{
				ItemName: entry.Text("STOCKITEMNAME"),
				Quantity: entry.Quantity("ACTUALQTY"),
				Rate:     entry.Amount("RATE"),
				Amount:   entry.Amount("AMOUNT"),
			})
		}

		// A voucher with no party amount may still total its entries
		if voucher.Amount.IsZero() {
			for _, entry := range voucher.LedgerEntries {
				if entry.IsDebit {
					voucher.Amount = voucher.Amount.Add(entry.Amount)
				}
			}
		}

		if voucher.Amount.IsZero() && len(voucher.LedgerEntries) == 0 && len(voucher.InventoryEntries) == 0 {
			continue
		}
		vouchers = append(vouchers, voucher)
	}
	return vouchers
}

// FilterVouchersByWindow keeps vouchers whose date falls inside the window;
// this client-side pass backs up the filter formulas the request carries
func FilterVouchersByWindow(vouchers []*models.Voucher, from, to time.Time) []*models.Voucher {
	var kept []*models.Voucher
	for _, v := range vouchers {
		if v.InWindow(from, to) {
			kept = append(kept, v)
		}
	}
	return kept
}

// VoucherListData is the typed payload of a daybook or voucher listing
type VoucherListData struct {
	Vouchers []*models.Voucher `json:"vouchers"`
	Total    decimal.Decimal   `json:"total"`
}

// Vouchers lists vouchers matching the query, window-filtered client-side
func (s *Service) Vouchers(ctx context.Context, company string, query VoucherQuery) (*VoucherListData, error) {
	body, err := s.fetch(ctx, BuildVoucherListRequest(company, query))
	if err != nil {
		return nil, err
	}

	vouchers := ParseVouchers(body)
	vouchers = FilterVouchersByWindow(vouchers,
		gateway.ParseEngineDate(query.Window.From),
		gateway.ParseEngineDate(query.Window.To))

	data := &VoucherListData{Vouchers: vouchers}
	for _, v := range vouchers {
		data.Total = data.Total.Add(v.AbsAmount())
	}
	return data, nil
}

// VouchersChunked lists vouchers over a window split into engine-safe
// sub-windows, issuing one paced query per chunk and concatenating the
// results in date order
func (s *Service) VouchersChunked(ctx context.Context, company string, query VoucherQuery, windows []models.QueryWindow) (*VoucherListData, error) {
	data := &VoucherListData{}
	for _, window := range windows {
		chunk := query
		chunk.Window = window
		part, err := s.Vouchers(ctx, company, chunk)
		if err != nil {
			return nil, err
		}
		data.Vouchers = append(data.Vouchers, part.Vouchers...)
		data.Total = data.Total.Add(part.Total)
	}
	return data, nil
}

// CountVouchers counts the vouchers in a window; the volume profiler uses
// this as its single-day probe
func (s *Service) CountVouchers(ctx context.Context, company string, window models.QueryWindow) (int, error) {
	data, err := s.Vouchers(ctx, company, VoucherQuery{Window: window})
	if err != nil {
		return 0, err
	}
	return len(data.Vouchers), nil
}

// LedgerStatementData is the typed payload of a party ledger statement:
// the party's vouchers in a window plus the closing position
type LedgerStatementData struct {
	Party          string            `json:"party"`
	ParentGroup    string            `json:"parentGroup"`
	ClosingBalance decimal.Decimal   `json:"closingBalance"`
	Vouchers       []*models.Voucher `json:"vouchers"`
}

// LedgerStatement combines a ledger master lookup with the party's vouchers
// in the window. A missing ledger surfaces the master lookup's explicit
// not-found error.
func (s *Service) LedgerStatement(ctx context.Context, company, partyName string, window models.QueryWindow) (*LedgerStatementData, error) {
	ledger, err := s.LedgerMaster(ctx, company, partyName)
	if err != nil {
		return nil, err
	}

	vouchers, err := s.Vouchers(ctx, company, VoucherQuery{
		Window:    window,
		PartyName: ledger.Name,
	})
	if err != nil {
		return nil, err
	}

	return &LedgerStatementData{
		Party:          ledger.Name,
		ParentGroup:    ledger.ParentGroup,
		ClosingBalance: ledger.ClosingBalance,
		Vouchers:       vouchers.Vouchers,
	}, nil
}
