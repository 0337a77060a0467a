package gateway

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"tallybridge/internal/models"
)

func testProfiler(t *testing.T) *Profiler {
	t.Helper()

	config := DefaultProfilerConfig()
	config.ProfilePath = filepath.Join(t.TempDir(), "volume_profile.json")
	p, err := NewProfiler(config)
	if err != nil {
		t.Fatalf("NewProfiler failed: %v", err)
	}
	return p
}

func TestCalculateChunkDays(t *testing.T) {
	p := testProfiler(t)

	tests := []struct {
		avgPerDay float64
		want      int
	}{
		{0, 31},   // no measured volume: maximum chunk
		{500, 1},  // budget reached in a single day
		{1000, 1}, // never below one day
		{16, 31},  // 500/16 = 31.25, capped at the maximum
		{17, 29},  // floor(500/17)
		{50, 10},
		{250, 2},
	}

	for _, tt := range tests {
		if got := p.CalculateChunkDays(tt.avgPerDay); got != tt.want {
			t.Errorf("CalculateChunkDays(%v) = %d, want %d", tt.avgPerDay, got, tt.want)
		}
	}
}

func TestCalculateChunkDaysMonotonic(t *testing.T) {
	p := testProfiler(t)

	previous := p.CalculateChunkDays(1)
	for avg := 2.0; avg <= 600; avg++ {
		current := p.CalculateChunkDays(avg)
		if current > previous {
			t.Fatalf("chunk size increased from %d to %d at avg %v", previous, current, avg)
		}
		previous = current
	}
}

func TestNeedsChunking(t *testing.T) {
	p := testProfiler(t)

	// 16/day over 31 days is 496 records, inside the 500 budget
	if p.NeedsChunking(16) {
		t.Error("NeedsChunking(16) = true, want false")
	}
	// 17/day over 31 days is 527, over budget
	if !p.NeedsChunking(17) {
		t.Error("NeedsChunking(17) = false, want true")
	}
	if p.NeedsChunking(0) {
		t.Error("NeedsChunking(0) = true, want false")
	}
}

func TestEnsureFreshProbesYesterday(t *testing.T) {
	p := testProfiler(t)
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	var probed models.QueryWindow
	probe := func(ctx context.Context, window models.QueryWindow) (int, error) {
		probed = window
		return 120, nil
	}

	profile, err := p.EnsureFresh(context.Background(), "Acme Traders", probe, now)
	if err != nil {
		t.Fatalf("EnsureFresh failed: %v", err)
	}

	if probed.From != "20260828" || probed.To != "20260828" {
		t.Errorf("probe window = %v, want yesterday only", probed)
	}
	if profile.AvgVouchersPerDay != 120 {
		t.Errorf("AvgVouchersPerDay = %v, want 120", profile.AvgVouchersPerDay)
	}
	if profile.CompanyName != "Acme Traders" {
		t.Errorf("CompanyName = %q", profile.CompanyName)
	}
}

func TestEnsureFreshZeroCountUsesFloor(t *testing.T) {
	p := testProfiler(t)
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	probe := func(ctx context.Context, window models.QueryWindow) (int, error) {
		return 0, nil // holiday, not signal
	}

	profile, err := p.EnsureFresh(context.Background(), "Acme Traders", probe, now)
	if err != nil {
		t.Fatalf("EnsureFresh failed: %v", err)
	}
	if profile.AvgVouchersPerDay != 10 {
		t.Errorf("AvgVouchersPerDay = %v, want the 10/day floor", profile.AvgVouchersPerDay)
	}
}

func TestEnsureFreshReusesFreshProfile(t *testing.T) {
	p := testProfiler(t)
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	probes := 0
	probe := func(ctx context.Context, window models.QueryWindow) (int, error) {
		probes++
		return 50, nil
	}

	if _, err := p.EnsureFresh(context.Background(), "Acme Traders", probe, now); err != nil {
		t.Fatalf("first EnsureFresh failed: %v", err)
	}
	// 12 hours later, same company: cached profile is still trusted
	if _, err := p.EnsureFresh(context.Background(), "Acme Traders", probe, now.Add(12*time.Hour)); err != nil {
		t.Fatalf("second EnsureFresh failed: %v", err)
	}
	if probes != 1 {
		t.Errorf("probed %d times, want 1", probes)
	}

	// 25 hours later the profile is stale and re-probed
	if _, err := p.EnsureFresh(context.Background(), "Acme Traders", probe, now.Add(25*time.Hour)); err != nil {
		t.Fatalf("stale EnsureFresh failed: %v", err)
	}
	if probes != 2 {
		t.Errorf("probed %d times after staleness, want 2", probes)
	}

	// A different company is never trusted with this profile
	if _, err := p.EnsureFresh(context.Background(), "Other Books", probe, now.Add(25*time.Hour)); err != nil {
		t.Fatalf("company-switch EnsureFresh failed: %v", err)
	}
	if probes != 3 {
		t.Errorf("probed %d times after company switch, want 3", probes)
	}
}

func TestSplitWindow(t *testing.T) {
	from := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)

	windows := SplitWindow(from, to, 10)
	if len(windows) != 3 {
		t.Fatalf("SplitWindow produced %d windows, want 3", len(windows))
	}

	want := []models.QueryWindow{
		{From: "20260401", To: "20260410"},
		{From: "20260411", To: "20260420"},
		{From: "20260421", To: "20260430"},
	}
	for i, w := range want {
		if windows[i] != w {
			t.Errorf("window %d = %v, want %v", i, windows[i], w)
		}
	}
}

func TestSplitWindowSingleDay(t *testing.T) {
	day := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	windows := SplitWindow(day, day, 31)
	if len(windows) != 1 {
		t.Fatalf("SplitWindow produced %d windows, want 1", len(windows))
	}
	if windows[0].From != "20260401" || windows[0].To != "20260401" {
		t.Errorf("window = %v", windows[0])
	}
}

func TestSplitWindowInvertedRange(t *testing.T) {
	from := time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	if windows := SplitWindow(from, to, 10); windows != nil {
		t.Errorf("inverted range produced %d windows, want none", len(windows))
	}
}
