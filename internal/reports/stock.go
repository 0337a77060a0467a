package reports

import (
	"context"

	"tallybridge/internal/gateway"
	"tallybridge/internal/models"

	"github.com/shopspring/decimal"
)

// BuildStockSummaryRequest composes a query for every stock item's closing
// position
func BuildStockSummaryRequest(company string) string {
	return NewEnvelope("Stock Summary").
		WithCompany(company).
		Add(Collection{
			Name:  "Stock Summary",
			Type:  "StockItem",
			Fetch: []string{"NAME", "CLOSINGBALANCE", "CLOSINGRATE", "CLOSINGVALUE"},
		}).
		Build()
}

// ParseStockItems extracts stock item records, dropping items with neither
// quantity nor value: the report exists to show what is actually in stock
func ParseStockItems(body string) []*models.StockItem {
	var items []*models.StockItem
	for _, rec := range gateway.FindRecords(body, tagStockItem) {
		item := &models.StockItem{
			Name:            recordName(rec),
			ClosingQuantity: rec.Quantity("CLOSINGBALANCE"),
			ClosingRate:     rec.Amount("CLOSINGRATE"),
			ClosingValue:    rec.Amount("CLOSINGVALUE"),
		}
		if item.Name == "" || !item.HasStock() {
			continue
		}
		items = append(items, item)
	}
	return items
}

// StockSummaryData is the typed payload of a stock summary report
type StockSummaryData struct {
	Items      []*models.StockItem `json:"items"`
	TotalValue decimal.Decimal     `json:"totalValue"`
}

// StockSummary lists every item in stock with its closing quantity and
// value. The engine reports stock values as negative in some versions; the
// magnitude is used.
func (s *Service) StockSummary(ctx context.Context, company string) (*StockSummaryData, error) {
	body, err := s.fetch(ctx, BuildStockSummaryRequest(company))
	if err != nil {
		return nil, err
	}

	data := &StockSummaryData{Items: ParseStockItems(body)}
	for _, item := range data.Items {
		data.TotalValue = data.TotalValue.Add(item.ClosingValue.Abs())
	}
	return data, nil
}
