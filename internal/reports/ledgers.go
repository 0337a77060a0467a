package reports

import (
	"context"

	"tallybridge/internal/gateway"
	"tallybridge/internal/models"
	bridgeerrors "tallybridge/pkg/errors"

	"github.com/shopspring/decimal"
)

// ledgerFetch is the field list requested for every ledger-shaped query
var ledgerFetch = []string{"NAME", "PARENT", "OPENINGBALANCE", "CLOSINGBALANCE"}

// BuildLedgerListRequest composes a query for all ledgers, optionally
// restricted to those with a non-zero closing balance
func BuildLedgerListRequest(company string, nonZeroOnly bool) string {
	collection := Collection{
		Name:  "All Ledgers",
		Type:  "Ledger",
		Fetch: ledgerFetch,
	}

	env := NewEnvelope("All Ledgers").WithCompany(company)
	if nonZeroOnly {
		collection.Filters = []string{"NonZeroClosing"}
		env.Filter("NonZeroClosing", "$ClosingBalance != 0")
	}
	return env.Add(collection).Build()
}

// BuildLedgerSearchRequest composes a case-insensitive "contains" search
// over ledger names
func BuildLedgerSearchRequest(company, contains string) string {
	return NewEnvelope("Ledger Search").
		WithCompany(company).
		Add(Collection{
			Name:    "Ledger Search",
			Type:    "Ledger",
			Fetch:   ledgerFetch,
			Filters: []string{"NameContains"},
		}).
		Filter("NameContains", "$$StringContainsCI:$Name:"+quoteFormula(contains)).
		Build()
}

// BuildLedgerMasterRequest composes a lookup of one ledger by exact name
func BuildLedgerMasterRequest(company, name string) string {
	return NewEnvelope("Ledger Master").
		WithCompany(company).
		Add(Collection{
			Name:    "Ledger Master",
			Type:    "Ledger",
			Fetch:   ledgerFetch,
			Filters: []string{"NameIs"},
		}).
		Filter("NameIs", "$Name = "+quoteFormula(name)).
		Build()
}

// ParseLedgers extracts ledger records from a response body. When dropZero
// is set, ledgers with an exactly-zero closing balance are removed before
// any aggregation sees them.
func ParseLedgers(body string, dropZero bool) []*models.Ledger {
	var ledgers []*models.Ledger
	for _, rec := range gateway.FindRecords(body, tagLedger) {
		ledger := &models.Ledger{
			Name:           recordName(rec),
			ParentGroup:    rec.Text("PARENT"),
			OpeningBalance: rec.Amount("OPENINGBALANCE"),
			ClosingBalance: rec.Amount("CLOSINGBALANCE"),
		}
		if ledger.Name == "" {
			continue
		}
		if dropZero && !ledger.HasBalance() {
			continue
		}
		ledgers = append(ledgers, ledger)
	}
	return ledgers
}

// recordName prefers the NAME attribute and falls back to a NAME child tag;
// the engine uses both forms depending on the record type
func recordName(rec *gateway.Record) string {
	if rec.Name != "" {
		return rec.Name
	}
	return rec.Text("NAME")
}

// ParseLedgerMaster extracts a single ledger lookup result. A response with
// no enclosing ledger record at all is an explicit "not found", not a
// zero-value ledger.
func ParseLedgerMaster(body, name string) (*models.Ledger, error) {
	rec := gateway.FirstRecord(body, tagLedger)
	if rec == nil {
		return nil, bridgeerrors.ParseError(
			bridgeerrors.CodeRecordNotFound, "ledger", name, nil)
	}

	return &models.Ledger{
		Name:           recordName(rec),
		ParentGroup:    rec.Text("PARENT"),
		OpeningBalance: rec.Amount("OPENINGBALANCE"),
		ClosingBalance: rec.Amount("CLOSINGBALANCE"),
	}, nil
}

// TrialBalanceData is the typed payload of a trial balance report
type TrialBalanceData struct {
	Entries     []*models.Ledger `json:"entries"`
	TotalDebit  decimal.Decimal  `json:"totalDebit"`
	TotalCredit decimal.Decimal  `json:"totalCredit"`
}

// LedgerSearch runs a "contains" search and returns the matching ledgers.
// The entity resolver is the main consumer.
func (s *Service) LedgerSearch(ctx context.Context, company, contains string) ([]*models.Ledger, error) {
	body, err := s.fetch(ctx, BuildLedgerSearchRequest(company, contains))
	if err != nil {
		return nil, err
	}
	return ParseLedgers(body, false), nil
}

// LedgerMaster looks up one ledger by its exact name
func (s *Service) LedgerMaster(ctx context.Context, company, name string) (*models.Ledger, error) {
	body, err := s.fetch(ctx, BuildLedgerMasterRequest(company, name))
	if err != nil {
		return nil, err
	}
	return ParseLedgerMaster(body, name)
}

// TrialBalance lists every ledger carrying a balance, split into debit and
// credit totals. The engine reports debits as positive closing balances and
// credits as negative ones.
func (s *Service) TrialBalance(ctx context.Context, company string) (*TrialBalanceData, error) {
	body, err := s.fetch(ctx, BuildLedgerListRequest(company, true))
	if err != nil {
		return nil, err
	}

	data := &TrialBalanceData{Entries: ParseLedgers(body, true)}
	for _, ledger := range data.Entries {
		if ledger.ClosingBalance.IsPositive() {
			data.TotalDebit = data.TotalDebit.Add(ledger.ClosingBalance)
		} else {
			data.TotalCredit = data.TotalCredit.Add(ledger.ClosingBalance.Abs())
		}
	}
	return data, nil
}

// BankBalanceData is the typed payload of a bank/cash balance report
type BankBalanceData struct {
	Accounts []BankAccount   `json:"accounts"`
	Total    decimal.Decimal `json:"total"`
}

// BankAccount is one bank or cash ledger with its spendable balance
type BankAccount struct {
	Name      string          `json:"name"`
	Group     string          `json:"group"`
	Available decimal.Decimal `json:"available"`
}

// BuildBankLedgersRequest composes a query for bank and cash ledgers using
// the union-of-subcollections technique: one sub-collection per ancestor
// group, unioned into a single result, because a combined "child of A or B
// or C" filter formula is not parsed reliably by the engine.
func BuildBankLedgersRequest(company string) string {
	groups := []struct{ name, childOf string }{
		{"Bank Ledgers", "Bank Accounts"},
		{"BankOD Ledgers", "Bank OD A/c"},
		{"Cash Ledgers", "Cash-in-Hand"},
	}

	env := NewEnvelope("Bank And Cash").WithCompany(company)
	var unionNames []string
	for _, g := range groups {
		env.Add(Collection{
			Name:    g.name,
			Type:    "Ledger",
			ChildOf: g.childOf,
			Fetch:   ledgerFetch,
		})
		unionNames = append(unionNames, g.name)
	}
	env.Add(Collection{Name: "Bank And Cash", Unions: unionNames})
	return env.Build()
}

// BankBalances reports the spendable balance of every bank and cash ledger.
// The engine encodes available funds as a negative closing balance; the
// sign is flipped once here.
func (s *Service) BankBalances(ctx context.Context, company string) (*BankBalanceData, error) {
	body, err := s.fetch(ctx, BuildBankLedgersRequest(company))
	if err != nil {
		return nil, err
	}

	data := &BankBalanceData{}
	for _, ledger := range ParseLedgers(body, true) {
		available := ledger.AvailableBalance()
		data.Accounts = append(data.Accounts, BankAccount{
			Name:      ledger.Name,
			Group:     ledger.ParentGroup,
			Available: available,
		})
		data.Total = data.Total.Add(available)
	}
	return data, nil
}
