package dispatch

import (
	"context"
	"strings"
	"syscall"
	"testing"
	"time"

	"tallybridge/internal/reports"
	bridgeerrors "tallybridge/pkg/errors"
)

// routingEngine answers each posted payload with the body of the first
// matching route, recording every payload it sees
type routingEngine struct {
	routes   []engineRoute
	err      error
	payloads []string
}

type engineRoute struct {
	match string
	body  string
}

func (e *routingEngine) Post(ctx context.Context, payload string) (string, error) {
	e.payloads = append(e.payloads, payload)
	if e.err != nil {
		return "", e.err
	}
	for _, r := range e.routes {
		if strings.Contains(payload, r.match) {
			return r.body, nil
		}
	}
	return "<ENVELOPE></ENVELOPE>", nil
}

func (e *routingEngine) probeCount() int {
	count := 0
	for _, payload := range e.payloads {
		if strings.Contains(payload, "Active Company") {
			count++
		}
	}
	return count
}

// fakeProcess is a canned ProcessProbe
type fakeProcess struct {
	running   bool
	started   int
	restarted int
}

func (p *fakeProcess) Running(ctx context.Context) bool  { return p.running }
func (p *fakeProcess) Start(ctx context.Context) error   { p.started++; return nil }
func (p *fakeProcess) Restart(ctx context.Context) error { p.restarted++; return nil }

var companyRoute = engineRoute{
	match: "Active Company",
	body:  `<ENVELOPE><COMPANY NAME="Acme Traders"/></ENVELOPE>`,
}

func newTestDispatcher(t *testing.T, engine *routingEngine, process ProcessProbe) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(nil, reports.NewService(engine), nil, process, nil)
	if err != nil {
		t.Fatalf("NewDispatcher failed: %v", err)
	}
	return d
}

func TestExecuteUnknownAction(t *testing.T) {
	d := newTestDispatcher(t, &routingEngine{}, nil)

	result := d.Execute(context.Background(), "frobnicate", nil)
	if result.Success {
		t.Fatal("unknown action reported success")
	}
	if !strings.Contains(result.Message, "Unknown action") {
		t.Errorf("message = %q", result.Message)
	}
}

func TestActiveCompanyCacheTTL(t *testing.T) {
	engine := &routingEngine{routes: []engineRoute{companyRoute}}
	d := newTestDispatcher(t, engine, nil)

	clock := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return clock }

	run := func() {
		t.Helper()
		if result := d.Execute(context.Background(), "trial_balance", nil); !result.Success {
			t.Fatalf("trial_balance failed: %s", result.Message)
		}
	}

	run()
	if got := engine.probeCount(); got != 1 {
		t.Fatalf("after first action probed %d times, want 1", got)
	}

	// Just inside the TTL the cached answer is reused
	clock = clock.Add(59 * time.Second)
	run()
	if got := engine.probeCount(); got != 1 {
		t.Errorf("inside TTL probed %d times, want still 1", got)
	}

	// Just past the TTL the engine is asked again
	clock = clock.Add(2 * time.Second)
	run()
	if got := engine.probeCount(); got != 2 {
		t.Errorf("past TTL probed %d times, want 2", got)
	}
}

func TestClassifyTransport(t *testing.T) {
	refused := bridgeerrors.TransportError(
		bridgeerrors.CodeConnectionFailed, "http://localhost:9000", syscall.ECONNREFUSED)

	// Refused with a live engine process: the engine is busy
	d := newTestDispatcher(t, &routingEngine{}, &fakeProcess{running: true})
	if got := d.classifyTransport(context.Background(), refused); got.Code != bridgeerrors.CodeEngineBusy {
		t.Errorf("running process classified as %s, want engine busy", got.Code)
	}

	// Refused with no process: the engine is not running
	d = newTestDispatcher(t, &routingEngine{}, &fakeProcess{running: false})
	if got := d.classifyTransport(context.Background(), refused); got.Code != bridgeerrors.CodeEngineNotRunning {
		t.Errorf("absent process classified as %s, want engine not running", got.Code)
	}

	// A timeout is already classified and passes through
	timeout := bridgeerrors.TransportError(
		bridgeerrors.CodeEngineTimeout, "http://localhost:9000", context.DeadlineExceeded)
	if got := d.classifyTransport(context.Background(), timeout); got.Code != bridgeerrors.CodeEngineTimeout {
		t.Errorf("timeout reclassified as %s", got.Code)
	}
}

func TestExecuteMapsTransportFailure(t *testing.T) {
	engine := &routingEngine{err: bridgeerrors.TransportError(
		bridgeerrors.CodeConnectionFailed, "http://localhost:9000", syscall.ECONNREFUSED)}
	d := newTestDispatcher(t, engine, &fakeProcess{running: false})

	result := d.Execute(context.Background(), "receivables", nil)
	if result.Success {
		t.Fatal("transport failure reported success")
	}
	if !strings.Contains(result.Message, "not running") {
		t.Errorf("message = %q, want the not-running wording", result.Message)
	}
}

func TestResolvePartyMultipleAsksUser(t *testing.T) {
	engine := &routingEngine{routes: []engineRoute{
		companyRoute,
		{match: "Ledger Search", body: `<ENVELOPE>
<LEDGER NAME="Rajesh Traders"><PARENT>Sundry Debtors</PARENT></LEDGER>
<LEDGER NAME="Rajesh Enterprises"><PARENT>Sundry Creditors</PARENT></LEDGER>
</ENVELOPE>`},
	}}
	d := newTestDispatcher(t, engine, nil)

	result := d.Execute(context.Background(), "resolve_party", Params{"party_name": "Rajesh"})
	if result.Success {
		t.Fatal("ambiguous party resolved without asking")
	}
	if !strings.Contains(result.Message, "Did you mean") {
		t.Errorf("message = %q", result.Message)
	}
	if !strings.Contains(result.Message, "1. ") || !strings.Contains(result.Message, "Sundry Debtors") {
		t.Errorf("candidates not listed:\n%s", result.Message)
	}
	if result.Data == nil {
		t.Error("ambiguous result must carry the resolution for the caller")
	}
}

func TestCreateVoucherValidationFailure(t *testing.T) {
	engine := &routingEngine{routes: []engineRoute{companyRoute}}
	d := newTestDispatcher(t, engine, nil)

	result := d.Execute(context.Background(), "create_voucher", Params{
		"voucher_type": "invoice",
		"amount":       "-5",
	})
	if result.Success {
		t.Fatal("invalid voucher input reported success")
	}
	if !strings.Contains(result.Message, "could not be created") {
		t.Errorf("message = %q", result.Message)
	}

	// Nothing beyond the company probe reached the engine
	for _, payload := range engine.payloads {
		if strings.Contains(payload, "Import") {
			t.Error("invalid input still posted an import request")
		}
	}
}

func TestOpenCompanyInvalidatesCache(t *testing.T) {
	engine := &routingEngine{}
	d := newTestDispatcher(t, engine, nil)
	d.cachedCompany = "Old Books"
	d.companyAt = time.Now()

	result := d.Execute(context.Background(), "open_company", Params{"company_name": "Acme Traders"})
	if !result.Success {
		t.Fatalf("open_company failed: %s", result.Message)
	}
	if d.cachedCompany != "" {
		t.Errorf("cached company = %q, want invalidated", d.cachedCompany)
	}
	// open_company must work without an active-company probe
	if got := engine.probeCount(); got != 0 {
		t.Errorf("open_company probed the active company %d times", got)
	}
}

func TestStartEngineAlreadyRunning(t *testing.T) {
	process := &fakeProcess{running: true}
	d := newTestDispatcher(t, &routingEngine{}, process)

	result := d.Execute(context.Background(), "start_engine", nil)
	if !result.Success || !strings.Contains(result.Message, "already running") {
		t.Errorf("result = %+v", result)
	}
	if process.started != 0 {
		t.Error("running engine was started again")
	}
}

func TestRestartEngineInvalidatesCache(t *testing.T) {
	process := &fakeProcess{running: true}
	d := newTestDispatcher(t, &routingEngine{}, process)
	d.cachedCompany = "Acme Traders"
	d.companyAt = time.Now()

	result := d.Execute(context.Background(), "restart_engine", nil)
	if !result.Success {
		t.Fatalf("restart_engine failed: %s", result.Message)
	}
	if process.restarted != 1 {
		t.Errorf("restarted %d times, want 1", process.restarted)
	}
	if d.cachedCompany != "" {
		t.Error("restart left the company cache populated")
	}
}
