// Package resolver turns free-text party names into exact ledger names
// known to the engine.
//
// Users type informal, abbreviated or partially-remembered names. The
// resolver layers its matching: an exact (case-insensitive) hit wins
// outright, a lone search result is accepted, several results are scored
// and returned for the user to disambiguate, and an empty search retries
// with the longest word of the query. A Multiple outcome is never
// auto-resolved; the caller must ask the user.
package resolver

import (
	"context"
	"sort"
	"strings"

	"tallybridge/internal/models"
	"tallybridge/pkg/logger"
)

// LedgerSearcher is the narrow search surface the resolver needs; the
// reports service satisfies it and tests substitute fixed candidate sets.
type LedgerSearcher interface {
	LedgerSearch(ctx context.Context, company, contains string) ([]*models.Ledger, error)
}

// Config holds configuration for the resolver
type Config struct {
	// MaxCandidates caps the list returned for a Multiple outcome
	MaxCandidates int
	// MinFallbackWordLen is the shortest query word worth retrying alone
	MinFallbackWordLen int
	// PrefixScore is awarded when a candidate starts with the query
	PrefixScore int
	// WordScore is awarded per query word found anywhere in a candidate
	WordScore int
}

// DefaultConfig returns the scoring used in production: prefix matches
// dominate, multi-word overlap breaks ties among substring hits
func DefaultConfig() *Config {
	return &Config{
		MaxCandidates:      5,
		MinFallbackWordLen: 3,
		PrefixScore:        10,
		WordScore:          2,
	}
}

// Resolver resolves free text against the engine's live ledger names
type Resolver struct {
	config   *Config
	searcher LedgerSearcher
	log      logger.Logger
}

// NewResolver creates a resolver over the given search surface
func NewResolver(searcher LedgerSearcher, config *Config) *Resolver {
	if config == nil {
		config = DefaultConfig()
	}
	return &Resolver{
		config:   config,
		searcher: searcher,
		log:      logger.GetGlobalLogger().WithComponent("resolver"),
	}
}

// Resolve maps free text to a tagged PartyResolution. The layers
// short-circuit in order: exact hit, single result, scored multiple,
// longest-word fallback, none.
func (r *Resolver) Resolve(ctx context.Context, company, freeText string) (*models.PartyResolution, error) {
	query := strings.TrimSpace(freeText)
	if query == "" {
		return &models.PartyResolution{Kind: models.ResolutionNone}, nil
	}

	candidates, err := r.searcher.LedgerSearch(ctx, company, query)
	if err != nil {
		return nil, err
	}

	// Layer 1: exact case-insensitive match among the results
	for _, ledger := range candidates {
		if strings.EqualFold(ledger.Name, query) {
			return &models.PartyResolution{
				Kind: models.ResolutionExact,
				Name: ledger.Name,
			}, nil
		}
	}

	if resolution := r.fromCandidates(query, candidates); resolution != nil {
		return resolution, nil
	}

	// Layer 4: retry with the single longest word of the query
	if word := longestWord(query, r.config.MinFallbackWordLen); word != "" && !strings.EqualFold(word, query) {
		fallback, err := r.searcher.LedgerSearch(ctx, company, word)
		if err != nil {
			return nil, err
		}
		if resolution := r.fromCandidates(query, fallback); resolution != nil {
			return resolution, nil
		}
	}

	return &models.PartyResolution{Kind: models.ResolutionNone}, nil
}

// fromCandidates applies the single/multiple rules to one search's results;
// nil means the layer produced nothing and the next layer should run
func (r *Resolver) fromCandidates(query string, candidates []*models.Ledger) *models.PartyResolution {
	switch {
	case len(candidates) == 0:
		return nil
	case len(candidates) == 1:
		return &models.PartyResolution{
			Kind: models.ResolutionSingle,
			Name: candidates[0].Name,
		}
	default:
		return &models.PartyResolution{
			Kind:       models.ResolutionMultiple,
			Candidates: r.scoreCandidates(query, candidates),
		}
	}
}

// scoreCandidates ranks candidates for disambiguation: a prefix match on
// the lowercase query outweighs any word overlap, and each query word found
// anywhere in the candidate adds a little. The sort is stable so ties keep
// the engine's original result order.
func (r *Resolver) scoreCandidates(query string, candidates []*models.Ledger) []models.PartyCandidate {
	lowerQuery := strings.ToLower(query)
	words := strings.Fields(lowerQuery)

	scored := make([]models.PartyCandidate, 0, len(candidates))
	for _, ledger := range candidates {
		lowerName := strings.ToLower(ledger.Name)

		score := 0
		if strings.HasPrefix(lowerName, lowerQuery) {
			score += r.config.PrefixScore
		}
		for _, word := range words {
			if strings.Contains(lowerName, word) {
				score += r.config.WordScore
			}
		}

		scored = append(scored, models.PartyCandidate{
			Name:        ledger.Name,
			ParentGroup: ledger.ParentGroup,
			Score:       score,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > r.config.MaxCandidates {
		scored = scored[:r.config.MaxCandidates]
	}
	return scored
}

// longestWord picks the single longest whitespace-delimited word of at
// least minLen characters; empty when none qualifies
func longestWord(query string, minLen int) string {
	best := ""
	for _, word := range strings.Fields(query) {
		if len(word) >= minLen && len(word) > len(best) {
			best = word
		}
	}
	return best
}
