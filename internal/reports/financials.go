package reports

import (
	"context"
	"strings"

	"tallybridge/internal/gateway"
	"tallybridge/internal/models"

	"github.com/shopspring/decimal"
)

// Classification tables for the engine's reserved top-level groups. These
// are constant data checked case-insensitively, never inferred: the engine
// does not tag a group as income or asset, it only names it.

var incomeGroups = map[string]bool{
	"sales accounts":    true,
	"direct incomes":    true,
	"indirect incomes":  true,
	"income (direct)":   true,
	"income (indirect)": true,
}

var expenseGroups = map[string]bool{
	"purchase accounts":   true,
	"direct expenses":     true,
	"indirect expenses":   true,
	"expenses (direct)":   true,
	"expenses (indirect)": true,
}

var assetGroups = map[string]bool{
	"fixed assets":             true,
	"current assets":           true,
	"investments":              true,
	"loans & advances (asset)": true,
	"misc. expenses (asset)":   true,
}

var liabilityGroups = map[string]bool{
	"capital account":     true,
	"loans (liability)":   true,
	"current liabilities": true,
	"branch / divisions":  true,
	"suspense a/c":        true,
}

// IsIncomeGroup reports whether a group name belongs to the income side of
// the profit & loss statement
func IsIncomeGroup(name string) bool {
	return incomeGroups[strings.ToLower(strings.TrimSpace(name))]
}

// IsExpenseGroup reports whether a group name belongs to the expense side
// of the profit & loss statement
func IsExpenseGroup(name string) bool {
	return expenseGroups[strings.ToLower(strings.TrimSpace(name))]
}

// ClassifyBalanceSheetGroup classifies a top-level group as asset or
// liability by the constant name sets, falling back on the balance sign for
// names outside them: the engine reports asset balances as positive and
// liability balances as negative.
func ClassifyBalanceSheetGroup(group *models.Group) (isAsset bool, recognised bool) {
	name := strings.ToLower(strings.TrimSpace(group.Name))
	if assetGroups[name] {
		return true, true
	}
	if liabilityGroups[name] {
		return false, true
	}
	return group.ClosingBalance.IsPositive(), false
}

// BuildGroupListRequest composes a query for chart-of-accounts groups
func BuildGroupListRequest(company string) string {
	return NewEnvelope("All Groups").
		WithCompany(company).
		Add(Collection{
			Name:  "All Groups",
			Type:  "Group",
			Fetch: []string{"NAME", "PARENT", "CLOSINGBALANCE"},
		}).
		Build()
}

// ParseGroups extracts group records from a response body
func ParseGroups(body string) []*models.Group {
	var groups []*models.Group
	for _, rec := range gateway.FindRecords(body, tagGroup) {
		group := &models.Group{
			Name:           recordName(rec),
			ParentGroup:    rec.Text("PARENT"),
			ClosingBalance: rec.Amount("CLOSINGBALANCE"),
		}
		if group.Name == "" {
			continue
		}
		groups = append(groups, group)
	}
	return groups
}

// GroupAmount is one classified group with its magnitude
type GroupAmount struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// ProfitLossData is the typed payload of a profit & loss report
type ProfitLossData struct {
	Income       []GroupAmount   `json:"income"`
	Expenses     []GroupAmount   `json:"expenses"`
	TotalIncome  decimal.Decimal `json:"totalIncome"`
	TotalExpense decimal.Decimal `json:"totalExpense"`
	NetProfit    decimal.Decimal `json:"netProfit"`
}

// BalanceSheetData is the typed payload of a balance sheet report
type BalanceSheetData struct {
	Assets           []GroupAmount   `json:"assets"`
	Liabilities      []GroupAmount   `json:"liabilities"`
	TotalAssets      decimal.Decimal `json:"totalAssets"`
	TotalLiabilities decimal.Decimal `json:"totalLiabilities"`
}

// ProfitLoss derives the profit & loss statement from top-level group
// balances in the window. The engine reports income balances as negative
// (credit) and expense balances as positive (debit); magnitudes are
// aggregated and the net is income minus expense.
func (s *Service) ProfitLoss(ctx context.Context, company string, window models.QueryWindow) (*ProfitLossData, error) {
	payload := NewEnvelope("All Groups").
		WithCompany(company).
		WithWindow(window).
		Add(Collection{
			Name:  "All Groups",
			Type:  "Group",
			Fetch: []string{"NAME", "PARENT", "CLOSINGBALANCE"},
		}).
		Build()

	body, err := s.fetch(ctx, payload)
	if err != nil {
		return nil, err
	}

	data := &ProfitLossData{}
	for _, group := range ParseGroups(body) {
		if group.ClosingBalance.IsZero() {
			continue
		}
		amount := group.ClosingBalance.Abs()

		switch {
		case IsIncomeGroup(group.Name):
			data.Income = append(data.Income, GroupAmount{Name: group.Name, Amount: amount})
			data.TotalIncome = data.TotalIncome.Add(amount)
		case IsExpenseGroup(group.Name):
			data.Expenses = append(data.Expenses, GroupAmount{Name: group.Name, Amount: amount})
			data.TotalExpense = data.TotalExpense.Add(amount)
		}
	}
	data.NetProfit = data.TotalIncome.Sub(data.TotalExpense)
	return data, nil
}

// BalanceSheet derives the balance sheet from top-level group balances.
// Only groups at the root of the chart of accounts participate; nested
// groups are already rolled up into their parents by the engine.
func (s *Service) BalanceSheet(ctx context.Context, company string) (*BalanceSheetData, error) {
	body, err := s.fetch(ctx, BuildGroupListRequest(company))
	if err != nil {
		return nil, err
	}

	data := &BalanceSheetData{}
	for _, group := range ParseGroups(body) {
		if !group.IsTopLevel(PrimaryGroupSentinel) || group.ClosingBalance.IsZero() {
			continue
		}
		// P&L groups belong to the income statement, not the balance sheet
		if IsIncomeGroup(group.Name) || IsExpenseGroup(group.Name) {
			continue
		}

		amount := group.ClosingBalance.Abs()
		if isAsset, _ := ClassifyBalanceSheetGroup(group); isAsset {
			data.Assets = append(data.Assets, GroupAmount{Name: group.Name, Amount: amount})
			data.TotalAssets = data.TotalAssets.Add(amount)
		} else {
			data.Liabilities = append(data.Liabilities, GroupAmount{Name: group.Name, Amount: amount})
			data.TotalLiabilities = data.TotalLiabilities.Add(amount)
		}
	}
	return data, nil
}
