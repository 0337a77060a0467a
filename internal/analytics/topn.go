package analytics

import (
	"sort"

	"tallybridge/internal/models"

	"github.com/shopspring/decimal"
)

// DefaultTopLimit is the ranking size used when the caller does not supply
// one
const DefaultTopLimit = 10

// RankedEntity is one entity in a top-N ranking. SharePercent is this
// entity's share of the full unranked set's total, so truncating to the
// top N never inflates anyone's share.
type RankedEntity struct {
	Name         string          `json:"name"`
	Amount       decimal.Decimal `json:"amount"`
	Quantity     decimal.Decimal `json:"quantity,omitempty"`
	SharePercent decimal.Decimal `json:"sharePercent"`
}

// TopNData is the typed payload of a top-N report
type TopNData struct {
	Limit      int             `json:"limit"`
	Entities   []RankedEntity  `json:"entities"`
	GrandTotal decimal.Decimal `json:"grandTotal"`
}

// RankParties sums absolute voucher amounts per party, ranks descending
// and truncates to the limit
func RankParties(vouchers []*models.Voucher, limit int) *TopNData {
	totals := make(map[string]decimal.Decimal)
	for _, v := range vouchers {
		if v.PartyName == "" {
			continue
		}
		totals[v.PartyName] = totals[v.PartyName].Add(v.AbsAmount())
	}
	return rank(totals, nil, limit)
}

// RankItems sums absolute inventory amounts and quantities per item, ranks
// by amount descending and truncates to the limit
func RankItems(vouchers []*models.Voucher, limit int) *TopNData {
	amounts := make(map[string]decimal.Decimal)
	quantities := make(map[string]decimal.Decimal)
	for _, v := range vouchers {
		for _, entry := range v.InventoryEntries {
			if entry.ItemName == "" {
				continue
			}
			amounts[entry.ItemName] = amounts[entry.ItemName].Add(entry.Amount.Abs())
			quantities[entry.ItemName] = quantities[entry.ItemName].Add(entry.Quantity.Abs())
		}
	}
	return rank(amounts, quantities, limit)
}

// rank builds the ranking from per-entity totals. The grand total and every
// share are computed over the full set before truncation.
func rank(amounts map[string]decimal.Decimal, quantities map[string]decimal.Decimal, limit int) *TopNData {
	if limit <= 0 {
		limit = DefaultTopLimit
	}

	data := &TopNData{Limit: limit}
	entities := make([]RankedEntity, 0, len(amounts))
	for name, amount := range amounts {
		entity := RankedEntity{Name: name, Amount: amount}
		if quantities != nil {
			entity.Quantity = quantities[name]
		}
		entities = append(entities, entity)
		data.GrandTotal = data.GrandTotal.Add(amount)
	}

	sort.Slice(entities, func(i, j int) bool {
		if entities[i].Amount.Equal(entities[j].Amount) {
			return entities[i].Name < entities[j].Name
		}
		return entities[i].Amount.GreaterThan(entities[j].Amount)
	})

	hundred := decimal.NewFromInt(100)
	for i := range entities {
		if data.GrandTotal.IsPositive() {
			entities[i].SharePercent = entities[i].Amount.
				Mul(hundred).
				DivRound(data.GrandTotal, 2)
		}
	}

	if len(entities) > limit {
		entities = entities[:limit]
	}
	data.Entities = entities
	return data
}
