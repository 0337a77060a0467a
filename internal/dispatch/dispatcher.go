// Package dispatch is the single entry point external callers use: given an
// action name and a parameter map, it resolves the active company, routes to
// the matching query/parse/reconcile pipeline, applies pagination to
// list-shaped answers, and maps transport failures to the three user-facing
// engine states (not running, busy, slow).
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tallybridge/internal/gateway"
	"tallybridge/internal/models"
	"tallybridge/internal/reports"
	"tallybridge/internal/resolver"
	bridgeerrors "tallybridge/pkg/errors"
	"tallybridge/pkg/logger"
)

// ProcessProbe is the engine process surface the dispatcher needs to
// classify transport failures and to serve the start/restart actions.
// *gateway.ProcessManager satisfies it.
type ProcessProbe interface {
	Running(ctx context.Context) bool
	Start(ctx context.Context) error
	Restart(ctx context.Context) error
}

// Config holds configuration for the action dispatcher
type Config struct {
	// CompanyCacheTTL is how long an active-company probe answer is reused
	CompanyCacheTTL time.Duration
	// PageSize is the number of list lines per page
	PageSize int
	// CompanyFallback is used when the engine reports no loaded company
	CompanyFallback string
	// DataDir is the engine's data directory, scanned for company listing
	DataDir string
	// AnalyticsLookbackDays bounds voucher-driven analytics (inactivity,
	// top-N) when the caller supplies no date range
	AnalyticsLookbackDays int
}

// DefaultConfig returns a dispatcher configuration with production defaults
func DefaultConfig() *Config {
	return &Config{
		CompanyCacheTTL:       60 * time.Second,
		PageSize:              DefaultPageSize,
		AnalyticsLookbackDays: 365,
	}
}

// Validate validates the dispatcher configuration
func (c *Config) Validate() error {
	if c.CompanyCacheTTL <= 0 {
		return fmt.Errorf("company cache TTL must be positive")
	}
	if c.PageSize < 1 {
		return fmt.Errorf("page size must be at least 1")
	}
	if c.AnalyticsLookbackDays < 1 {
		return fmt.Errorf("analytics lookback must be at least one day")
	}
	return nil
}

// handlerFunc executes one action against an already-resolved company
type handlerFunc func(ctx context.Context, req *request) (*models.ReportResult, error)

// request carries one Execute call's resolved state through its handler
type request struct {
	action  string
	params  Params
	company string
	page    int
	log     logger.Logger
}

// Dispatcher routes actions to report pipelines. One Dispatcher serves one
// accounting-book session and owns that session's active-company cache.
type Dispatcher struct {
	config    *Config
	reports   *reports.Service
	resolver  *resolver.Resolver
	profiler  *gateway.Profiler
	process   ProcessProbe
	nameCache *gateway.CompanyNameCache
	log       logger.Logger

	routes map[string]handlerFunc
	// bypassCompany lists actions that must work while the engine is
	// offline or mid-switch; they skip the active-company probe entirely
	bypassCompany map[string]bool

	now func() time.Time

	cachedCompany string
	companyAt     time.Time
}

// NewDispatcher creates the action dispatcher over its collaborators. The
// entity resolver is built internally on the report service's ledger search.
func NewDispatcher(config *Config, svc *reports.Service, profiler *gateway.Profiler, process ProcessProbe, nameCache *gateway.CompanyNameCache) (*Dispatcher, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, bridgeerrors.ConfigurationError(
			bridgeerrors.CodeInvalidConfig, "dispatcher", config, err)
	}

	d := &Dispatcher{
		config:    config,
		reports:   svc,
		resolver:  resolver.NewResolver(svc, nil),
		profiler:  profiler,
		process:   process,
		nameCache: nameCache,
		log:       logger.GetGlobalLogger().WithComponent("dispatcher"),
		now:       time.Now,
	}
	d.routes = d.buildRoutes()
	d.bypassCompany = map[string]bool{
		"companies":      true,
		"status":         true,
		"start_engine":   true,
		"restart_engine": true,
		"open_company":   true,
	}
	return d, nil
}

// buildRoutes maps every supported action name to its handler
func (d *Dispatcher) buildRoutes() map[string]handlerFunc {
	return map[string]handlerFunc{
		"receivables":        d.handleReceivables,
		"payables":           d.handlePayables,
		"party_outstanding":  d.handlePartyOutstanding,
		"payment_reminders":  d.handlePaymentReminders,
		"bill_ageing":        d.handleBillAgeing,
		"ledger_statement":   d.handleLedgerStatement,
		"daybook":            d.handleDaybook,
		"vouchers":           d.handleVouchers,
		"trial_balance":      d.handleTrialBalance,
		"balance_sheet":      d.handleBalanceSheet,
		"profit_loss":        d.handleProfitLoss,
		"gst_summary":        d.handleGSTSummary,
		"stock_summary":      d.handleStockSummary,
		"bank_balances":      d.handleBankBalances,
		"sales_orders":       d.handleSalesOrders,
		"purchase_orders":    d.handlePurchaseOrders,
		"inactive_customers": d.handleInactiveCustomers,
		"inactive_suppliers": d.handleInactiveSuppliers,
		"inactive_items":     d.handleInactiveItems,
		"top_customers":      d.handleTopCustomers,
		"top_items":          d.handleTopItems,
		"create_voucher":     d.handleCreateVoucher,
		"resolve_party":      d.handleResolveParty,
		"companies":          d.handleCompanies,
		"status":             d.handleStatus,
		"open_company":       d.handleOpenCompany,
		"start_engine":       d.handleStartEngine,
		"restart_engine":     d.handleRestartEngine,
	}
}

// Actions returns the supported action names, for caller discovery
func (d *Dispatcher) Actions() []string {
	names := make([]string, 0, len(d.routes))
	for name := range d.routes {
		names = append(names, name)
	}
	return names
}

// Execute runs one action. Every failure comes back as a ReportResult with
// a human-readable message; errors never escape to the caller raw.
func (d *Dispatcher) Execute(ctx context.Context, action string, params Params) *models.ReportResult {
	if params == nil {
		params = Params{}
	}

	log := d.log.WithFields(logger.Fields{
		"action":     action,
		"request_id": uuid.NewString(),
	})

	handler, ok := d.routes[action]
	if !ok {
		log.Warn("unknown action requested")
		return models.FailResult(fmt.Sprintf("Unknown action %q.", action))
	}

	req := &request{
		action: action,
		params: params,
		page:   params.Page(),
		log:    log,
	}

	if !d.bypassCompany[action] {
		company, err := d.activeCompany(ctx)
		if err != nil {
			log.WithError(err).Warn("active company probe failed")
			return d.failureResult(ctx, err)
		}
		req.company = company
	}

	started := d.now()
	result, err := handler(ctx, req)
	if err != nil {
		log.WithError(err).Warn("action failed")
		return d.failureResult(ctx, err)
	}

	log.WithFields(logger.Fields{
		"company":  req.company,
		"duration": time.Since(started).String(),
	}).Info("action completed")
	return result
}

// activeCompany returns the engine's loaded company, probing at most once
// per cache TTL. An empty answer falls back to the configured company name.
func (d *Dispatcher) activeCompany(ctx context.Context) (string, error) {
	now := d.now()
	if d.cachedCompany != "" && now.Sub(d.companyAt) <= d.config.CompanyCacheTTL {
		return d.cachedCompany, nil
	}

	name, err := d.reports.ActiveCompany(ctx)
	if err != nil {
		return "", err
	}
	if name == "" {
		name = d.config.CompanyFallback
	}

	d.cachedCompany = name
	d.companyAt = now
	return name, nil
}

// invalidateCompany drops the cached active company. Called only after a
// successful open or restart; a failed attempt leaves the cache untouched.
func (d *Dispatcher) invalidateCompany() {
	d.cachedCompany = ""
	d.companyAt = time.Time{}
}

// failureResult renders any pipeline error as a user-facing failed result.
// Transport failures are first refined with the process probe: a refused
// connection means "engine not running" when no engine process exists, and
// "engine busy" when one does.
func (d *Dispatcher) failureResult(ctx context.Context, err error) *models.ReportResult {
	bridgeErr, ok := bridgeerrors.AsBridgeError(err)
	if !ok {
		return models.FailResult(fmt.Sprintf("Something went wrong: %v", err))
	}

	if bridgeErr.Category == bridgeerrors.CategoryTransport {
		return models.FailResult(d.classifyTransport(ctx, bridgeErr).Error())
	}
	return models.FailResult(bridgeErr.Error())
}

// classifyTransport maps a raw transport failure onto the three user-facing
// engine states
func (d *Dispatcher) classifyTransport(ctx context.Context, err *bridgeerrors.BridgeError) *bridgeerrors.BridgeError {
	if err.Code != bridgeerrors.CodeConnectionFailed {
		return err
	}
	if err.Cause == nil || !gateway.IsConnectionRefused(err.Cause) {
		return err
	}

	endpoint := ""
	if v, ok := err.Context["endpoint"].(string); ok {
		endpoint = v
	}

	if d.process != nil && d.process.Running(ctx) {
		return bridgeerrors.TransportError(bridgeerrors.CodeEngineBusy, endpoint, err.Cause)
	}
	return bridgeerrors.TransportError(bridgeerrors.CodeEngineNotRunning, endpoint, err.Cause)
}

// window builds the engine-native query window from the caller's date
// parameters; either side may come back unbounded
func (req *request) window() models.QueryWindow {
	from, to := req.params.Window()
	return models.QueryWindow{
		From: gateway.ToEngineDate(from),
		To:   gateway.ToEngineDate(to),
	}
}

// analyticsWindow is the window used by voucher-driven analytics when the
// caller supplies no date range: the configured lookback ending today
func (d *Dispatcher) analyticsWindow(req *request) models.QueryWindow {
	w := req.window()
	if w.IsBounded() {
		return w
	}
	now := d.now()
	if w.To == "" {
		w.To = now.Format(gateway.EngineDateLayout)
	}
	if w.From == "" {
		w.From = now.AddDate(0, 0, -d.config.AnalyticsLookbackDays).Format(gateway.EngineDateLayout)
	}
	return w
}

// fetchVouchers runs a voucher query, splitting the window into
// volume-profiled chunks when the expected record count would exceed the
// engine's safe budget. A failed profile probe degrades to one unchunked
// query rather than failing the action.
func (d *Dispatcher) fetchVouchers(ctx context.Context, req *request, query reports.VoucherQuery) (*reports.VoucherListData, error) {
	if d.profiler == nil || !query.Window.IsBounded() {
		return d.reports.Vouchers(ctx, req.company, query)
	}

	probe := func(ctx context.Context, window models.QueryWindow) (int, error) {
		return d.reports.CountVouchers(ctx, req.company, window)
	}
	profile, err := d.profiler.EnsureFresh(ctx, req.company, probe, d.now())
	if err != nil {
		req.log.WithError(err).Warn("volume probe failed; querying unchunked")
		return d.reports.Vouchers(ctx, req.company, query)
	}

	if !d.profiler.NeedsChunking(profile.AvgVouchersPerDay) {
		return d.reports.Vouchers(ctx, req.company, query)
	}

	from := gateway.ParseEngineDate(query.Window.From)
	to := gateway.ParseEngineDate(query.Window.To)
	chunkDays := d.profiler.CalculateChunkDays(profile.AvgVouchersPerDay)
	windows := gateway.SplitWindow(from, to, chunkDays)
	if len(windows) <= 1 {
		return d.reports.Vouchers(ctx, req.company, query)
	}

	req.log.WithFields(logger.Fields{
		"chunk_days": chunkDays,
		"chunks":     len(windows),
	}).Debug("splitting voucher query window")
	return d.reports.VouchersChunked(ctx, req.company, query, windows)
}
