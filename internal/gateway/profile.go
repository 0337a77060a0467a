package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"tallybridge/internal/models"
	"tallybridge/pkg/logger"
)

// ProbeFunc counts the vouchers recorded on a single day. The profiler
// supplies the window; the reports layer supplies the query.
type ProbeFunc func(ctx context.Context, window models.QueryWindow) (int, error)

// ProfilerConfig holds configuration for the volume profiler
type ProfilerConfig struct {
	// SafeRequestBudget is the maximum record count the engine reliably
	// returns in one response without a memory fault
	SafeRequestBudget int
	// MinDailyFloor substitutes a conservative daily volume when a probe
	// lands on a holiday and counts zero
	MinDailyFloor int
	// MaxChunkDays caps a single query window
	MaxChunkDays int
	// ProfilePath is where the probed profile is persisted
	ProfilePath string
}

// DefaultProfilerConfig returns a configuration with engine-safe defaults
func DefaultProfilerConfig() *ProfilerConfig {
	return &ProfilerConfig{
		SafeRequestBudget: 500,
		MinDailyFloor:     10,
		MaxChunkDays:      31,
		ProfilePath:       filepath.Join("data", "volume_profile.json"),
	}
}

// Validate validates the profiler configuration
func (c *ProfilerConfig) Validate() error {
	if c.SafeRequestBudget <= 0 {
		return fmt.Errorf("safe request budget must be positive")
	}
	if c.MinDailyFloor <= 0 {
		return fmt.Errorf("minimum daily floor must be positive")
	}
	if c.MaxChunkDays < 1 {
		return fmt.Errorf("maximum chunk days must be at least 1")
	}
	return nil
}

// Profiler answers "how many days can one query safely request?". It keeps
// a small on-disk profile of the engine's daily transaction volume and
// re-probes when the profile is stale or belongs to a different company.
// The profile file is a best-effort cache: its absence or corruption only
// disables the optimisation, never a request.
type Profiler struct {
	config  *ProfilerConfig
	log     logger.Logger
	profile *models.VolumeProfile
}

// NewProfiler creates a new volume profiler and loads any persisted profile
func NewProfiler(config *ProfilerConfig) (*Profiler, error) {
	if config == nil {
		config = DefaultProfilerConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &Profiler{
		config: config,
		log:    logger.GetGlobalLogger().WithComponent("profiler"),
	}
	p.load()
	return p, nil
}

// load reads the persisted profile, tolerating absence and corruption
func (p *Profiler) load() {
	data, err := os.ReadFile(p.config.ProfilePath)
	if err != nil {
		return
	}

	var profile models.VolumeProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		p.log.WithError(err).Warn("discarding corrupt volume profile")
		return
	}
	p.profile = &profile
}

// save persists the profile, best-effort
func (p *Profiler) save() {
	if p.profile == nil {
		return
	}

	if dir := filepath.Dir(p.config.ProfilePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			p.log.WithError(err).Warn("could not create profile directory")
			return
		}
	}

	data, err := json.MarshalIndent(p.profile, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(p.config.ProfilePath, data, 0644); err != nil {
		p.log.WithError(err).Warn("could not persist volume profile")
	}
}

// EnsureFresh returns a trustworthy profile for the company, probing the
// engine when none exists, the stored one is older than 24 hours, or it was
// measured against a different company. The probe counts yesterday's
// vouchers; today is excluded because it may be incomplete, and a zero
// count is treated as a holiday rather than a real signal.
func (p *Profiler) EnsureFresh(ctx context.Context, companyName string, probe ProbeFunc, now time.Time) (*models.VolumeProfile, error) {
	if p.profile.IsFresh(companyName, now) {
		return p.profile, nil
	}

	yesterday := now.AddDate(0, 0, -1).Format(EngineDateLayout)
	count, err := probe(ctx, models.QueryWindow{From: yesterday, To: yesterday})
	if err != nil {
		return nil, err
	}

	avg := float64(count)
	if count == 0 {
		avg = float64(p.config.MinDailyFloor)
	}

	p.profile = &models.VolumeProfile{
		AvgVouchersPerDay: avg,
		LastProbedAt:      now,
		CompanyName:       companyName,
	}
	p.save()

	p.log.WithFields(logger.Fields{
		"company":     companyName,
		"avg_per_day": avg,
		"probed_day":  yesterday,
	}).Info("volume profile refreshed")

	return p.profile, nil
}

// CalculateChunkDays derives the safe query window size in days for the
// measured daily volume: the number of days whose expected record count
// stays inside the safe request budget, clamped to [1, MaxChunkDays].
func (p *Profiler) CalculateChunkDays(avgPerDay float64) int {
	if avgPerDay <= 0 {
		return p.config.MaxChunkDays
	}

	days := int(math.Floor(float64(p.config.SafeRequestBudget) / avgPerDay))
	if days < 1 {
		return 1
	}
	if days > p.config.MaxChunkDays {
		return p.config.MaxChunkDays
	}
	return days
}

// NeedsChunking reports whether a full maximum-size window would exceed the
// safe request budget at the measured rate. Callers only pay the cost of
// splitting when this is true.
func (p *Profiler) NeedsChunking(avgPerDay float64) bool {
	return avgPerDay*float64(p.config.MaxChunkDays) > float64(p.config.SafeRequestBudget)
}

// SplitWindow splits an inclusive date range into consecutive sub-windows
// of at most chunkDays days each, in engine-native date form. A chunk size
// below one day is treated as one.
func SplitWindow(from, to time.Time, chunkDays int) []models.QueryWindow {
	if chunkDays < 1 {
		chunkDays = 1
	}
	if to.Before(from) {
		return nil
	}

	var windows []models.QueryWindow
	start := from
	for !start.After(to) {
		end := start.AddDate(0, 0, chunkDays-1)
		if end.After(to) {
			end = to
		}
		windows = append(windows, models.QueryWindow{
			From: start.Format(EngineDateLayout),
			To:   end.Format(EngineDateLayout),
		})
		start = end.AddDate(0, 0, 1)
	}
	return windows
}
