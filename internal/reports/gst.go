package reports

import (
	"context"
	"strings"

	"tallybridge/internal/models"

	"github.com/shopspring/decimal"
)

// taxHeadGroup is the reserved group holding every GST ledger
const taxHeadGroup = "Duties & Taxes"

// TaxSide classifies a tax-head ledger as collected or paid GST
type TaxSide string

const (
	// OutputTax is GST collected on sales, owed to the government
	OutputTax TaxSide = "output"
	// InputTax is GST paid on purchases, claimable as credit
	InputTax TaxSide = "input"
)

// ClassifyTaxLedger determines which side of the GST summary a tax-head
// ledger belongs to by its conventional naming. Ledgers that name neither
// side are reported as unclassified rather than guessed.
func ClassifyTaxLedger(name string) (TaxSide, bool) {
	lower := strings.ToLower(name)
	if strings.Contains(lower, "output") {
		return OutputTax, true
	}
	if strings.Contains(lower, "input") {
		return InputTax, true
	}
	return "", false
}

// BuildGSTLedgersRequest composes a query for every tax-head ledger with a
// balance
func BuildGSTLedgersRequest(company string) string {
	return NewEnvelope("GST Ledgers").
		WithCompany(company).
		Add(Collection{
			Name:    "GST Ledgers",
			Type:    "Ledger",
			ChildOf: taxHeadGroup,
			Fetch:   ledgerFetch,
			Filters: []string{"NonZeroClosing"},
		}).
		Filter("NonZeroClosing", "$ClosingBalance != 0").
		Build()
}

// TaxEntry is one tax-head ledger in a GST summary
type TaxEntry struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// GSTData is the typed payload of a GST summary report. NetPayable is
// output minus input: positive means GST is owed, negative means credit is
// available.
type GSTData struct {
	Output       []TaxEntry      `json:"output"`
	Input        []TaxEntry      `json:"input"`
	Unclassified []TaxEntry      `json:"unclassified,omitempty"`
	TotalOutput  decimal.Decimal `json:"totalOutput"`
	TotalInput   decimal.Decimal `json:"totalInput"`
	NetPayable   decimal.Decimal `json:"netPayable"`
}

// GSTSummary derives the GST position from tax-head ledger balances in the
// window
func (s *Service) GSTSummary(ctx context.Context, company string, window models.QueryWindow) (*GSTData, error) {
	payload := BuildGSTLedgersRequest(company)
	if window.IsBounded() {
		payload = NewEnvelope("GST Ledgers").
			WithCompany(company).
			WithWindow(window).
			Add(Collection{
				Name:    "GST Ledgers",
				Type:    "Ledger",
				ChildOf: taxHeadGroup,
				Fetch:   ledgerFetch,
				Filters: []string{"NonZeroClosing"},
			}).
			Filter("NonZeroClosing", "$ClosingBalance != 0").
			Build()
	}

	body, err := s.fetch(ctx, payload)
	if err != nil {
		return nil, err
	}

	data := &GSTData{}
	for _, ledger := range ParseLedgers(body, true) {
		entry := TaxEntry{Name: ledger.Name, Amount: ledger.AbsBalance()}

		side, ok := ClassifyTaxLedger(ledger.Name)
		if !ok {
			data.Unclassified = append(data.Unclassified, entry)
			continue
		}
		if side == OutputTax {
			data.Output = append(data.Output, entry)
			data.TotalOutput = data.TotalOutput.Add(entry.Amount)
		} else {
			data.Input = append(data.Input, entry)
			data.TotalInput = data.TotalInput.Add(entry.Amount)
		}
	}
	data.NetPayable = data.TotalOutput.Sub(data.TotalInput)
	return data, nil
}
