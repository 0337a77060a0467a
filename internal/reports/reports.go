// Package reports contains the query-builder / response-parser pair for
// every report and command the bridge supports.
//
// Every pair follows the same two-phase contract. Build composes a request
// envelope: optional company selection and date window, one named collection
// declaring the target record type and field list, and zero or more named
// boolean filter formulas. Parse locates records in the response by
// enclosing tag, extracts flat child values tolerantly (absent text becomes
// empty or zero), unescapes anything that may carry a party or item name,
// and drops records with an effectively-zero measure unless the report
// exists to show zero-balance state.
//
// Per-report variation is confined to which collection and fields are
// requested, which filters apply, and the categorisation rule applied after
// parsing. Categorisation tables (income vs expense group names, asset vs
// liability group names, tax-head sides) are constant data in this package,
// not inferred logic.
package reports

import (
	"context"

	"tallybridge/internal/gateway"
	"tallybridge/internal/models"
	"tallybridge/pkg/logger"
)

// Engine is the transport surface this package needs; *gateway.Client
// satisfies it and tests substitute canned responses.
type Engine interface {
	Post(ctx context.Context, payload string) (string, error)
}

// Service executes report queries against the engine. One Service serves
// one accounting-book session.
type Service struct {
	engine Engine
	log    logger.Logger
}

// NewService creates a report service over the given engine transport
func NewService(engine Engine) *Service {
	return &Service{
		engine: engine,
		log:    logger.GetGlobalLogger().WithComponent("reports"),
	}
}

// fetch posts a built envelope and returns the raw response body
func (s *Service) fetch(ctx context.Context, payload string) (string, error) {
	return s.engine.Post(ctx, payload)
}

// Tag names of the record shapes the engine is known to emit. The parser
// targets exactly this subset and nothing else.
const (
	tagLedger    = "LEDGER"
	tagGroup     = "GROUP"
	tagBill      = "BILLFIXED"
	tagVoucher   = "VOUCHER"
	tagStockItem = "STOCKITEM"
	tagCompany   = "COMPANY"
)

// windowFromStrings normalises caller-supplied date strings into an
// engine-native query window; unparseable dates become unbounded sides
func windowFromStrings(from, to string) models.QueryWindow {
	return models.QueryWindow{
		From: gateway.ToEngineDate(from),
		To:   gateway.ToEngineDate(to),
	}
}
