package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"tallybridge/internal/analytics"
	"tallybridge/internal/gateway"
	"tallybridge/internal/models"
	"tallybridge/internal/reports"
	bridgeerrors "tallybridge/pkg/errors"
)

// listResult renders a header plus one page of list lines into a result
func (d *Dispatcher) listResult(header string, lines []string, page int, data interface{}) *models.ReportResult {
	body := paginateLines(lines, d.config.PageSize, page)
	message := header
	if len(body) > 0 {
		message += "\n" + strings.Join(body, "\n")
	}
	return models.OkResult(message, data)
}

// resolveParty maps the caller's party_name parameter to an exact ledger
// name. A Multiple or None outcome produces a ready-made result asking the
// user to disambiguate or re-check; it is never auto-resolved.
func (d *Dispatcher) resolveParty(ctx context.Context, req *request) (string, *models.ReportResult, error) {
	freeText := req.params.String("party_name")
	if freeText == "" {
		return "", models.FailResult("Please provide a party name."), nil
	}

	resolution, err := d.resolver.Resolve(ctx, req.company, freeText)
	if err != nil {
		return "", nil, err
	}

	switch resolution.Kind {
	case models.ResolutionExact, models.ResolutionSingle:
		return resolution.Name, nil, nil
	case models.ResolutionMultiple:
		lines := make([]string, 0, len(resolution.Candidates)+1)
		lines = append(lines, fmt.Sprintf("Found %d parties matching %q. Did you mean:", len(resolution.Candidates), freeText))
		for i, c := range resolution.Candidates {
			lines = append(lines, fmt.Sprintf("%d. %s (%s)", i+1, c.Name, c.ParentGroup))
		}
		result := models.FailResult(strings.Join(lines, "\n"))
		result.Data = resolution
		return "", result, nil
	default:
		return "", models.FailResult(fmt.Sprintf("No party matching %q was found. Check the spelling and try again.", freeText)), nil
	}
}

func (d *Dispatcher) handleReceivables(ctx context.Context, req *request) (*models.ReportResult, error) {
	return d.outstandingResult(ctx, req, reports.Receivables)
}

func (d *Dispatcher) handlePayables(ctx context.Context, req *request) (*models.ReportResult, error) {
	return d.outstandingResult(ctx, req, reports.Payables)
}

func (d *Dispatcher) outstandingResult(ctx context.Context, req *request, kind reports.OutstandingKind) (*models.ReportResult, error) {
	data, err := d.reports.Outstanding(ctx, req.company, kind)
	if err != nil {
		return nil, err
	}

	label := "Receivables"
	if kind == reports.Payables {
		label = "Payables"
	}
	if len(data.Entries) == 0 {
		return models.OkResult(fmt.Sprintf("%s: no outstanding bills.", label), data), nil
	}

	lines := make([]string, 0, len(data.Entries))
	for _, e := range data.Entries {
		line := fmt.Sprintf("%s — %s: %s", e.Party, e.Bill, e.Balance.Abs().StringFixed(2))
		if e.DueDate != "" {
			line += " (due " + e.DueDate + ")"
		}
		lines = append(lines, line)
	}

	header := fmt.Sprintf("%s: %d bills, total %s", label, len(data.Entries), data.Total.Abs().StringFixed(2))
	return d.listResult(header, lines, req.page, data), nil
}

func (d *Dispatcher) handlePartyOutstanding(ctx context.Context, req *request) (*models.ReportResult, error) {
	party, ready, err := d.resolveParty(ctx, req)
	if err != nil || ready != nil {
		return ready, err
	}

	data, err := d.reports.PartyOutstanding(ctx, req.company, party)
	if err != nil {
		return nil, err
	}
	if len(data.Entries) == 0 {
		return models.OkResult(fmt.Sprintf("%s has no outstanding bills.", party), data), nil
	}

	lines := make([]string, 0, len(data.Entries))
	for _, e := range data.Entries {
		line := fmt.Sprintf("%s: %s", e.Bill, e.Balance.Abs().StringFixed(2))
		if e.DueDate != "" {
			line += " (due " + e.DueDate + ")"
		}
		lines = append(lines, line)
	}

	header := fmt.Sprintf("Outstanding for %s: %d bills, total %s", party, len(data.Entries), data.Total.Abs().StringFixed(2))
	return d.listResult(header, lines, req.page, data), nil
}

func (d *Dispatcher) handlePaymentReminders(ctx context.Context, req *request) (*models.ReportResult, error) {
	data, err := d.reports.Outstanding(ctx, req.company, reports.Receivables)
	if err != nil {
		return nil, err
	}
	if len(data.Entries) == 0 {
		return models.OkResult("No payment reminders: nothing is outstanding.", data), nil
	}

	type partyTotal struct {
		party string
		total decimal.Decimal
		bills int
	}
	byParty := make(map[string]*partyTotal)
	for _, e := range data.Entries {
		pt, ok := byParty[e.Party]
		if !ok {
			pt = &partyTotal{party: e.Party}
			byParty[e.Party] = pt
		}
		pt.total = pt.total.Add(e.Balance.Abs())
		pt.bills++
	}

	totals := make([]*partyTotal, 0, len(byParty))
	for _, pt := range byParty {
		totals = append(totals, pt)
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].total.Equal(totals[j].total) {
			return totals[i].party < totals[j].party
		}
		return totals[i].total.GreaterThan(totals[j].total)
	})

	lines := make([]string, 0, len(totals))
	for _, pt := range totals {
		lines = append(lines, fmt.Sprintf("%s — %s across %d bills", pt.party, pt.total.StringFixed(2), pt.bills))
	}

	header := fmt.Sprintf("Payment reminders for %d parties:", len(totals))
	return d.listResult(header, lines, req.page, data), nil
}

func (d *Dispatcher) handleBillAgeing(ctx context.Context, req *request) (*models.ReportResult, error) {
	kind := reports.Receivables
	if req.params.String("type") == string(reports.Payables) {
		kind = reports.Payables
	}

	outstanding, err := d.reports.Outstanding(ctx, req.company, kind)
	if err != nil {
		return nil, err
	}

	ageing := analytics.AgeBills(outstanding.Bills, d.now())
	lines := make([]string, 0, len(ageing.Buckets)+2)
	for _, b := range ageing.Buckets {
		lines = append(lines, fmt.Sprintf("%s: %d bills, %s", b.Label, b.Count, b.Amount.StringFixed(2)))
	}
	if !ageing.Undated.IsZero() {
		lines = append(lines, fmt.Sprintf("No due date: %s", ageing.Undated.StringFixed(2)))
	}
	lines = append(lines, fmt.Sprintf("Total: %s", ageing.Total.StringFixed(2)))

	header := fmt.Sprintf("Bill ageing (%s):", kind)
	return models.OkResult(header+"\n"+strings.Join(lines, "\n"), ageing), nil
}

func (d *Dispatcher) handleLedgerStatement(ctx context.Context, req *request) (*models.ReportResult, error) {
	party, ready, err := d.resolveParty(ctx, req)
	if err != nil || ready != nil {
		return ready, err
	}

	data, err := d.reports.LedgerStatement(ctx, req.company, party, req.window())
	if err != nil {
		return nil, err
	}

	lines := make([]string, 0, len(data.Vouchers))
	for _, v := range data.Vouchers {
		lines = append(lines, voucherLine(v))
	}

	header := fmt.Sprintf("Statement for %s (%s), closing balance %s, %d vouchers:",
		data.Party, data.ParentGroup, data.ClosingBalance.StringFixed(2), len(data.Vouchers))
	return d.listResult(header, lines, req.page, data), nil
}

func (d *Dispatcher) handleDaybook(ctx context.Context, req *request) (*models.ReportResult, error) {
	day := gateway.ToEngineDate(req.params.String("date"))
	if day == "" {
		day = d.now().Format(gateway.EngineDateLayout)
	}

	data, err := d.fetchVouchers(ctx, req, reports.VoucherQuery{
		Window: models.QueryWindow{From: day, To: day},
	})
	if err != nil {
		return nil, err
	}
	if len(data.Vouchers) == 0 {
		return models.OkResult(fmt.Sprintf("No transactions on %s.", gateway.FromEngineDate(day)), data), nil
	}

	lines := make([]string, 0, len(data.Vouchers))
	for _, v := range data.Vouchers {
		lines = append(lines, voucherLine(v))
	}

	header := fmt.Sprintf("Daybook for %s: %d vouchers, total %s",
		gateway.FromEngineDate(day), len(data.Vouchers), data.Total.StringFixed(2))
	return d.listResult(header, lines, req.page, data), nil
}

func (d *Dispatcher) handleVouchers(ctx context.Context, req *request) (*models.ReportResult, error) {
	query := reports.VoucherQuery{
		Window:      req.window(),
		VoucherType: req.params.String("voucher_type"),
	}
	if query.VoucherType == "" {
		query.VoucherType = req.params.String("type")
	}

	if req.params.String("party_name") != "" {
		party, ready, err := d.resolveParty(ctx, req)
		if err != nil || ready != nil {
			return ready, err
		}
		query.PartyName = party
	}

	data, err := d.fetchVouchers(ctx, req, query)
	if err != nil {
		return nil, err
	}
	if len(data.Vouchers) == 0 {
		return models.OkResult("No matching vouchers found.", data), nil
	}

	lines := make([]string, 0, len(data.Vouchers))
	for _, v := range data.Vouchers {
		lines = append(lines, voucherLine(v))
	}

	header := fmt.Sprintf("%d vouchers, total %s", len(data.Vouchers), data.Total.StringFixed(2))
	return d.listResult(header, lines, req.page, data), nil
}

// voucherLine renders one voucher for a list-shaped message
func voucherLine(v *models.Voucher) string {
	line := fmt.Sprintf("%s %s #%s", v.Date.Format(gateway.DisplayDateLayout), v.Type, v.Number)
	if v.PartyName != "" {
		line += " " + v.PartyName
	}
	return line + " — " + v.AbsAmount().StringFixed(2)
}

func (d *Dispatcher) handleTrialBalance(ctx context.Context, req *request) (*models.ReportResult, error) {
	data, err := d.reports.TrialBalance(ctx, req.company)
	if err != nil {
		return nil, err
	}

	lines := make([]string, 0, len(data.Entries))
	for _, l := range data.Entries {
		side := "Dr"
		if l.ClosingBalance.IsNegative() {
			side = "Cr"
		}
		lines = append(lines, fmt.Sprintf("%s (%s): %s %s", l.Name, l.ParentGroup, l.AbsBalance().StringFixed(2), side))
	}

	header := fmt.Sprintf("Trial balance: %d ledgers, debit %s, credit %s",
		len(data.Entries), data.TotalDebit.StringFixed(2), data.TotalCredit.StringFixed(2))
	return d.listResult(header, lines, req.page, data), nil
}

func (d *Dispatcher) handleBalanceSheet(ctx context.Context, req *request) (*models.ReportResult, error) {
	data, err := d.reports.BalanceSheet(ctx, req.company)
	if err != nil {
		return nil, err
	}

	var lines []string
	lines = append(lines, "Assets:")
	for _, g := range data.Assets {
		lines = append(lines, fmt.Sprintf("  %s: %s", g.Name, g.Amount.StringFixed(2)))
	}
	lines = append(lines, fmt.Sprintf("  Total assets: %s", data.TotalAssets.StringFixed(2)))
	lines = append(lines, "Liabilities:")
	for _, g := range data.Liabilities {
		lines = append(lines, fmt.Sprintf("  %s: %s", g.Name, g.Amount.StringFixed(2)))
	}
	lines = append(lines, fmt.Sprintf("  Total liabilities: %s", data.TotalLiabilities.StringFixed(2)))

	return models.OkResult("Balance sheet\n"+strings.Join(lines, "\n"), data), nil
}

func (d *Dispatcher) handleProfitLoss(ctx context.Context, req *request) (*models.ReportResult, error) {
	data, err := d.reports.ProfitLoss(ctx, req.company, req.window())
	if err != nil {
		return nil, err
	}

	var lines []string
	lines = append(lines, "Income:")
	for _, g := range data.Income {
		lines = append(lines, fmt.Sprintf("  %s: %s", g.Name, g.Amount.StringFixed(2)))
	}
	lines = append(lines, "Expenses:")
	for _, g := range data.Expenses {
		lines = append(lines, fmt.Sprintf("  %s: %s", g.Name, g.Amount.StringFixed(2)))
	}
	lines = append(lines, fmt.Sprintf("Total income: %s", data.TotalIncome.StringFixed(2)))
	lines = append(lines, fmt.Sprintf("Total expense: %s", data.TotalExpense.StringFixed(2)))
	lines = append(lines, fmt.Sprintf("Net profit: %s", data.NetProfit.StringFixed(2)))

	return models.OkResult("Profit & loss\n"+strings.Join(lines, "\n"), data), nil
}

func (d *Dispatcher) handleGSTSummary(ctx context.Context, req *request) (*models.ReportResult, error) {
	data, err := d.reports.GSTSummary(ctx, req.company, req.window())
	if err != nil {
		return nil, err
	}

	var lines []string
	for _, e := range data.Output {
		lines = append(lines, fmt.Sprintf("%s: %s (output)", e.Name, e.Amount.StringFixed(2)))
	}
	for _, e := range data.Input {
		lines = append(lines, fmt.Sprintf("%s: %s (input)", e.Name, e.Amount.StringFixed(2)))
	}
	lines = append(lines, fmt.Sprintf("Output tax: %s", data.TotalOutput.StringFixed(2)))
	lines = append(lines, fmt.Sprintf("Input tax credit: %s", data.TotalInput.StringFixed(2)))
	lines = append(lines, fmt.Sprintf("Net payable: %s", data.NetPayable.StringFixed(2)))

	return models.OkResult("GST summary\n"+strings.Join(lines, "\n"), data), nil
}

func (d *Dispatcher) handleStockSummary(ctx context.Context, req *request) (*models.ReportResult, error) {
	data, err := d.reports.StockSummary(ctx, req.company)
	if err != nil {
		return nil, err
	}
	if len(data.Items) == 0 {
		return models.OkResult("No stock on hand.", data), nil
	}

	lines := make([]string, 0, len(data.Items))
	for _, item := range data.Items {
		lines = append(lines, fmt.Sprintf("%s: %s units, value %s",
			item.Name, item.ClosingQuantity.Abs().String(), item.ClosingValue.Abs().StringFixed(2)))
	}

	header := fmt.Sprintf("Stock summary: %d items, total value %s", len(data.Items), data.TotalValue.StringFixed(2))
	return d.listResult(header, lines, req.page, data), nil
}

func (d *Dispatcher) handleBankBalances(ctx context.Context, req *request) (*models.ReportResult, error) {
	data, err := d.reports.BankBalances(ctx, req.company)
	if err != nil {
		return nil, err
	}
	if len(data.Accounts) == 0 {
		return models.OkResult("No bank or cash accounts found.", data), nil
	}

	lines := make([]string, 0, len(data.Accounts))
	for _, a := range data.Accounts {
		lines = append(lines, fmt.Sprintf("%s (%s): %s", a.Name, a.Group, a.Available.StringFixed(2)))
	}

	header := fmt.Sprintf("Bank & cash balances, total available %s", data.Total.StringFixed(2))
	return d.listResult(header, lines, req.page, data), nil
}

func (d *Dispatcher) handleSalesOrders(ctx context.Context, req *request) (*models.ReportResult, error) {
	return d.orderTrackingResult(ctx, req, reports.SalesOrders)
}

func (d *Dispatcher) handlePurchaseOrders(ctx context.Context, req *request) (*models.ReportResult, error) {
	return d.orderTrackingResult(ctx, req, reports.PurchaseOrders)
}

func (d *Dispatcher) orderTrackingResult(ctx context.Context, req *request, side reports.OrderSide) (*models.ReportResult, error) {
	book, err := d.reports.OrderBook(ctx, req.company, side, d.analyticsWindow(req))
	if err != nil {
		return nil, err
	}

	fulfillment := analytics.ReconcileOrders(book.Orders, book.Invoices)
	if len(fulfillment.Pending) == 0 {
		return models.OkResult(fmt.Sprintf("All %s orders are fully invoiced.", side), fulfillment), nil
	}

	lines := make([]string, 0, len(fulfillment.Pending))
	for _, p := range fulfillment.Pending {
		lines = append(lines, fmt.Sprintf("%s — ordered %s, invoiced %s, pending %s",
			p.Party, p.Ordered.StringFixed(2), p.Invoiced.StringFixed(2), p.Pending.StringFixed(2)))
	}

	header := fmt.Sprintf("Pending %s orders: %d parties, %s pending", side, len(fulfillment.Pending), fulfillment.TotalPending.StringFixed(2))
	return d.listResult(header, lines, req.page, fulfillment), nil
}

func (d *Dispatcher) handleInactiveCustomers(ctx context.Context, req *request) (*models.ReportResult, error) {
	return d.inactivityResult(ctx, req, "Sales", analytics.PartyNames, "customers")
}

func (d *Dispatcher) handleInactiveSuppliers(ctx context.Context, req *request) (*models.ReportResult, error) {
	return d.inactivityResult(ctx, req, "Purchase", analytics.PartyNames, "suppliers")
}

func (d *Dispatcher) handleInactiveItems(ctx context.Context, req *request) (*models.ReportResult, error) {
	return d.inactivityResult(ctx, req, "", analytics.ItemNames, "items")
}

func (d *Dispatcher) inactivityResult(ctx context.Context, req *request, voucherType string, extract analytics.EntityDater, label string) (*models.ReportResult, error) {
	data, err := d.fetchVouchers(ctx, req, reports.VoucherQuery{
		Window:      d.analyticsWindow(req),
		VoucherType: voucherType,
	})
	if err != nil {
		return nil, err
	}

	days := req.params.Int("days", 0)
	inactivity := analytics.FindInactive(data.Vouchers, extract, days, d.now())
	if len(inactivity.Entities) == 0 {
		return models.OkResult(fmt.Sprintf("No %s inactive for %d days or more.", label, inactivity.CutoffDays), inactivity), nil
	}

	lines := make([]string, 0, len(inactivity.Entities))
	for _, e := range inactivity.Entities {
		lines = append(lines, fmt.Sprintf("%s — last seen %s (%d days ago)",
			e.Name, e.LastActivity.Format(gateway.DisplayDateLayout), e.IdleDays))
	}

	header := fmt.Sprintf("%d %s inactive for over %d days:", len(inactivity.Entities), label, inactivity.CutoffDays)
	return d.listResult(header, lines, req.page, inactivity), nil
}

func (d *Dispatcher) handleTopCustomers(ctx context.Context, req *request) (*models.ReportResult, error) {
	data, err := d.fetchVouchers(ctx, req, reports.VoucherQuery{
		Window:      d.analyticsWindow(req),
		VoucherType: "Sales",
	})
	if err != nil {
		return nil, err
	}

	ranking := analytics.RankParties(data.Vouchers, req.params.Int("limit", 0))
	return d.rankingResult(req, "customers", ranking), nil
}

func (d *Dispatcher) handleTopItems(ctx context.Context, req *request) (*models.ReportResult, error) {
	data, err := d.fetchVouchers(ctx, req, reports.VoucherQuery{
		Window: d.analyticsWindow(req),
	})
	if err != nil {
		return nil, err
	}

	ranking := analytics.RankItems(data.Vouchers, req.params.Int("limit", 0))
	return d.rankingResult(req, "items", ranking), nil
}

func (d *Dispatcher) rankingResult(req *request, label string, ranking *analytics.TopNData) *models.ReportResult {
	if len(ranking.Entities) == 0 {
		return models.OkResult(fmt.Sprintf("No %s found in the period.", label), ranking)
	}

	lines := make([]string, 0, len(ranking.Entities))
	for i, e := range ranking.Entities {
		lines = append(lines, fmt.Sprintf("%d. %s — %s (%s%%)",
			i+1, e.Name, e.Amount.StringFixed(2), e.SharePercent.StringFixed(2)))
	}

	header := fmt.Sprintf("Top %d %s by value (grand total %s):",
		len(ranking.Entities), label, ranking.GrandTotal.StringFixed(2))
	return d.listResult(header, lines, req.page, ranking)
}

func (d *Dispatcher) handleCreateVoucher(ctx context.Context, req *request) (*models.ReportResult, error) {
	input := reports.CreateVoucherInput{
		VoucherType: req.params.String("voucher_type"),
		Date:        req.params.String("date"),
		PartyName:   req.params.String("party_name"),
		Amount:      req.params.String("amount"),
		LedgerName:  req.params.String("ledger_name"),
		Narration:   req.params.String("narration"),
	}

	data, err := d.reports.CreateVoucher(ctx, req.company, input)
	if err != nil {
		var invalid *bridgeerrors.ValidationErrors
		if errors.As(err, &invalid) {
			return models.FailResult("The voucher could not be created:\n" + invalid.Error()), nil
		}
		return nil, err
	}

	message := fmt.Sprintf("Created %s voucher for %s, amount %s, dated %s.",
		data.VoucherType, data.PartyName, data.Amount.StringFixed(2), gateway.FromEngineDate(data.Date))
	return models.OkResult(message, data), nil
}

func (d *Dispatcher) handleResolveParty(ctx context.Context, req *request) (*models.ReportResult, error) {
	party, ready, err := d.resolveParty(ctx, req)
	if err != nil || ready != nil {
		return ready, err
	}
	return models.OkResult(fmt.Sprintf("Matched party: %s", party), &models.PartyResolution{
		Kind: models.ResolutionExact,
		Name: party,
	}), nil
}

func (d *Dispatcher) handleCompanies(ctx context.Context, req *request) (*models.ReportResult, error) {
	companies, err := reports.ListCompanies(d.config.DataDir, d.nameCache)
	if err != nil {
		return nil, err
	}
	if len(companies) == 0 {
		return models.OkResult("No company books found in the data directory.", companies), nil
	}

	lines := make([]string, 0, len(companies))
	for _, c := range companies {
		lines = append(lines, fmt.Sprintf("%s — %s (%s, %.1f MB, %d files)",
			c.ID, c.Label(), c.TallyVersion, c.SizeMB, c.FileCount))
	}

	header := fmt.Sprintf("%d companies on disk:", len(companies))
	return d.listResult(header, lines, req.page, companies), nil
}

func (d *Dispatcher) handleStatus(ctx context.Context, req *request) (*models.ReportResult, error) {
	name, err := d.reports.ActiveCompany(ctx)
	if err != nil {
		return nil, err
	}

	if name == "" {
		return models.OkResult("The engine is reachable but no company is loaded.", nil), nil
	}

	// Refresh the cache for free; the probe already ran
	d.cachedCompany = name
	d.companyAt = d.now()
	return models.OkResult(fmt.Sprintf("The engine is running with %s loaded.", name), nil), nil
}

func (d *Dispatcher) handleOpenCompany(ctx context.Context, req *request) (*models.ReportResult, error) {
	name := req.params.String("company_name")
	if name == "" {
		name = req.params.String("company")
	}
	if name == "" {
		return models.FailResult("Please provide the company name to open."), nil
	}

	if err := d.reports.OpenCompany(ctx, name); err != nil {
		return nil, err
	}

	d.invalidateCompany()
	if d.nameCache != nil {
		d.nameCache.Remember(name, name)
	}
	return models.OkResult(fmt.Sprintf("Opened company %s.", name), nil), nil
}

func (d *Dispatcher) handleStartEngine(ctx context.Context, req *request) (*models.ReportResult, error) {
	if d.process == nil {
		return models.FailResult("Engine process control is not configured."), nil
	}
	if d.process.Running(ctx) {
		return models.OkResult("The engine is already running.", nil), nil
	}

	if err := d.process.Start(ctx); err != nil {
		return nil, err
	}
	return models.OkResult("Engine started. Give it a moment to load before querying.", nil), nil
}

func (d *Dispatcher) handleRestartEngine(ctx context.Context, req *request) (*models.ReportResult, error) {
	if d.process == nil {
		return models.FailResult("Engine process control is not configured."), nil
	}

	if err := d.process.Restart(ctx); err != nil {
		return nil, err
	}

	d.invalidateCompany()
	return models.OkResult("Engine restarted. Give it a moment to load before querying.", nil), nil
}
