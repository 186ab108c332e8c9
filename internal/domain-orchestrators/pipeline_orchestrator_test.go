package orchestrators

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/scangate/scangate/internal/domain-adapters/emitters"
	"github.com/scangate/scangate/internal/domain/entities"
	"github.com/scangate/scangate/internal/domain/interfaces"
	gwif "github.com/scangate/scangate/internal/domain/interfaces/gateways"
)

// mockScanner is a scripted scanner gateway for testing
type mockScanner struct {
	mu       sync.Mutex
	calls    int
	findings []entities.Finding
	errs     []error // consumed per call; nil entry means success
}

func (m *mockScanner) Name() string { return "mock" }

func (m *mockScanner) Scan(_ context.Context, _ string, _ entities.ScanProfile) ([]entities.Finding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	call := m.calls
	m.calls++
	if call < len(m.errs) && m.errs[call] != nil {
		return nil, m.errs[call]
	}
	return m.findings, nil
}

func (m *mockScanner) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// blockingScanner blocks until its context is cancelled
type blockingScanner struct{}

func (b *blockingScanner) Name() string { return "blocking" }

func (b *blockingScanner) Scan(ctx context.Context, _ string, _ entities.ScanProfile) ([]entities.Finding, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// mockStore records stored reports and can be scripted to fail
type mockStore struct {
	mu     sync.Mutex
	stored map[string][]byte
	err    error
}

func newMockStore() *mockStore {
	return &mockStore{stored: make(map[string][]byte)}
}

func (m *mockStore) Store(_ context.Context, name string, data []byte, _ time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored[name] = data
	return nil
}

// mockDashboard records delivered payloads and can be scripted to fail
type mockDashboard struct {
	payloads [][]byte
	err      error
}

func (m *mockDashboard) Deliver(_ context.Context, payload []byte) error {
	if m.err != nil {
		return m.err
	}
	m.payloads = append(m.payloads, payload)
	return nil
}

func testConfig() Config {
	return Config{
		RetryBound:  1,
		ScanTimeout: time.Second,
		Backoff:     time.Millisecond,
		Retention:   time.Hour,
	}
}

func gatingProfile(formats ...entities.Format) entities.ScanProfile {
	return entities.ScanProfile{
		Name:           "enforcement",
		SeverityFilter: []entities.Severity{entities.SeverityHigh, entities.SeverityCritical},
		GateThreshold:  entities.SeverityHigh,
		Formats:        formats,
	}
}

func allSeveritiesProfile(formats ...entities.Format) entities.ScanProfile {
	return entities.ScanProfile{
		Name:           "visibility",
		SeverityFilter: entities.AllSeverities,
		Formats:        formats,
	}
}

func testFinding(id string, sev entities.Severity) entities.Finding {
	return entities.Finding{
		ID:               id,
		Severity:         sev,
		Package:          "libexample",
		InstalledVersion: "1.0.0",
	}
}

// TestRunSingleGatingProfile tests scenario: filter {HIGH, CRITICAL},
// gate HIGH, scanner returns one CRITICAL and one LOW finding
func TestRunSingleGatingProfile(t *testing.T) {
	scanner := &mockScanner{findings: []entities.Finding{
		testFinding("CVE-2024-0001", entities.SeverityCritical),
		testFinding("CVE-2024-0002", entities.SeverityLow),
	}}
	store := newMockStore()
	dashboard := &mockDashboard{}

	p := NewPipeline(scanner, emitters.DefaultRegistry(),
		Sinks{Store: store, Dashboard: dashboard}, &interfaces.NoOpLogger{}, testConfig())

	res, err := p.Run(context.Background(),
		"registry.example.com/demo:1",
		[]entities.ScanProfile{gatingProfile(entities.FormatTabular, entities.FormatInterchange, entities.FormatInterop)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Status != StatusFail {
		t.Errorf("expected FAIL, got %s", res.Status)
	}
	if res.Report.Total() != 1 {
		t.Errorf("expected LOW finding filtered out, got %d findings", res.Report.Total())
	}
	if len(res.Verdict.TriggeringFindings) != 1 || res.Verdict.TriggeringFindings[0].ID != "CVE-2024-0001" {
		t.Errorf("unexpected triggering findings %+v", res.Verdict.TriggeringFindings)
	}
	if p.State() != StateDone {
		t.Errorf("expected terminal state done, got %s", p.State())
	}

	// FAIL must not short-circuit emission.
	for _, name := range []string{"report.txt", "report.json"} {
		if _, ok := store.stored[name]; !ok {
			t.Errorf("expected %s in store after FAIL verdict", name)
		}
	}
	if len(dashboard.payloads) != 1 {
		t.Errorf("expected one dashboard delivery, got %d", len(dashboard.payloads))
	}
}

// TestRunVisibilityAndEnforcement tests the two-profile split: the
// visibility profile keeps all findings without failing the build
func TestRunVisibilityAndEnforcement(t *testing.T) {
	scanner := &mockScanner{findings: []entities.Finding{
		testFinding("CVE-2024-0001", entities.SeverityCritical),
		testFinding("CVE-2024-0002", entities.SeverityMedium),
		testFinding("CVE-2024-0003", entities.SeverityLow),
	}}
	store := newMockStore()

	p := NewPipeline(scanner, emitters.DefaultRegistry(),
		Sinks{Store: store}, &interfaces.NoOpLogger{}, testConfig())

	res, err := p.Run(context.Background(),
		"registry.example.com/demo:1",
		[]entities.ScanProfile{
			allSeveritiesProfile(entities.FormatTabular),
			gatingProfile(entities.FormatInterchange),
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Status != StatusFail {
		t.Errorf("expected FAIL from enforcement profile, got %s", res.Status)
	}
	if res.Report.Total() != 3 {
		t.Errorf("expected all 3 deduplicated findings, got %d", res.Report.Total())
	}
	critical := res.Report.Findings[0]
	if critical.ID != "CVE-2024-0001" || len(critical.Profiles) != 2 {
		t.Errorf("expected the CRITICAL finding contributed by both profiles, got %+v", critical)
	}
	if res.Verdict.GoverningProfile != "enforcement" {
		t.Errorf("expected governing profile enforcement, got %q", res.Verdict.GoverningProfile)
	}
	if scanner.callCount() != 2 {
		t.Errorf("expected one scan per profile, got %d calls", scanner.callCount())
	}

	// The tabular rendering lists the non-gating MEDIUM and LOW rows too.
	table := string(store.stored["report.txt"])
	for _, id := range []string{"CVE-2024-0001", "CVE-2024-0002", "CVE-2024-0003"} {
		if !contains(table, id) {
			t.Errorf("tabular report missing %s:\n%s", id, table)
		}
	}
}

// TestRunRetryExhaustion tests that repeated transient failures end the
// run in ERROR, not FAIL
func TestRunRetryExhaustion(t *testing.T) {
	transient := &gwif.ScanError{Profile: "enforcement", Transient: true, Err: errors.New("scan timed out")}
	scanner := &mockScanner{errs: []error{transient, transient}}

	p := NewPipeline(scanner, emitters.DefaultRegistry(),
		Sinks{}, &interfaces.NoOpLogger{}, testConfig())

	res, err := p.Run(context.Background(),
		"registry.example.com/demo:1",
		[]entities.ScanProfile{gatingProfile(entities.FormatTabular)})
	if err == nil {
		t.Fatal("expected error after retry exhaustion")
	}
	if res.Status != StatusError {
		t.Errorf("expected ERROR, got %s", res.Status)
	}
	if p.State() != StateFailed {
		t.Errorf("expected terminal state failed, got %s", p.State())
	}
	if scanner.callCount() != 2 {
		t.Errorf("expected initial call plus one retry, got %d calls", scanner.callCount())
	}
}

// TestRunTransientThenSuccess tests that one retry recovers the run
func TestRunTransientThenSuccess(t *testing.T) {
	transient := &gwif.ScanError{Profile: "enforcement", Transient: true, Err: errors.New("connection reset")}
	scanner := &mockScanner{errs: []error{transient}}

	p := NewPipeline(scanner, emitters.DefaultRegistry(),
		Sinks{}, &interfaces.NoOpLogger{}, testConfig())

	res, err := p.Run(context.Background(),
		"registry.example.com/demo:1",
		[]entities.ScanProfile{gatingProfile(entities.FormatTabular)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusPass {
		t.Errorf("expected PASS after successful retry, got %s", res.Status)
	}
	if scanner.callCount() != 2 {
		t.Errorf("expected two calls, got %d", scanner.callCount())
	}
}

// TestRunFatalScanError tests that a fatal error is not retried
func TestRunFatalScanError(t *testing.T) {
	fatal := &gwif.ScanError{Profile: "enforcement", Err: errors.New("artifact not found")}
	scanner := &mockScanner{errs: []error{fatal, fatal, fatal}}

	p := NewPipeline(scanner, emitters.DefaultRegistry(),
		Sinks{}, &interfaces.NoOpLogger{}, testConfig())

	res, err := p.Run(context.Background(),
		"registry.example.com/demo:1",
		[]entities.ScanProfile{gatingProfile(entities.FormatTabular)})
	if err == nil {
		t.Fatal("expected error")
	}
	if res.Status != StatusError {
		t.Errorf("expected ERROR, got %s", res.Status)
	}
	if scanner.callCount() != 1 {
		t.Errorf("fatal errors must not be retried, got %d calls", scanner.callCount())
	}
}

// TestRunZeroFindings tests that an empty scan still emits valid reports
func TestRunZeroFindings(t *testing.T) {
	scanner := &mockScanner{}
	store := newMockStore()
	dashboard := &mockDashboard{}

	p := NewPipeline(scanner, emitters.DefaultRegistry(),
		Sinks{Store: store, Dashboard: dashboard}, &interfaces.NoOpLogger{}, testConfig())

	res, err := p.Run(context.Background(),
		"registry.example.com/demo:1",
		[]entities.ScanProfile{gatingProfile(entities.FormatTabular, entities.FormatInterchange, entities.FormatInterop)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusPass {
		t.Errorf("expected PASS, got %s", res.Status)
	}
	if len(store.stored) != 2 {
		t.Errorf("expected tabular and interchange renderings stored, got %v", len(store.stored))
	}
	if len(dashboard.payloads) != 1 {
		t.Errorf("expected an empty interop upload, got %d", len(dashboard.payloads))
	}
}

// TestRunSinkFailureIsNonFatal tests that delivery failures are collected
// without changing the verdict
func TestRunSinkFailureIsNonFatal(t *testing.T) {
	scanner := &mockScanner{}
	store := newMockStore()
	store.err = errors.New("disk full")

	p := NewPipeline(scanner, emitters.DefaultRegistry(),
		Sinks{Store: store}, &interfaces.NoOpLogger{}, testConfig())

	res, err := p.Run(context.Background(),
		"registry.example.com/demo:1",
		[]entities.ScanProfile{gatingProfile(entities.FormatTabular)})
	if err != nil {
		t.Fatalf("sink failure must not fail the run: %v", err)
	}
	if res.Status != StatusPass {
		t.Errorf("expected PASS, got %s", res.Status)
	}
	if len(res.SinkErrors) != 1 {
		t.Errorf("expected one collected sink error, got %v", res.SinkErrors)
	}
}

// TestRunInvalidProfileFailsFast tests that configuration errors abort
// before any scan runs
func TestRunInvalidProfileFailsFast(t *testing.T) {
	scanner := &mockScanner{}
	p := NewPipeline(scanner, emitters.DefaultRegistry(),
		Sinks{}, &interfaces.NoOpLogger{}, testConfig())

	res, err := p.Run(context.Background(),
		"registry.example.com/demo:1",
		[]entities.ScanProfile{{Name: "broken"}})
	if !errors.Is(err, entities.ErrInvalidProfile) {
		t.Fatalf("expected ErrInvalidProfile, got %v", err)
	}
	if res.Status != StatusError {
		t.Errorf("expected ERROR, got %s", res.Status)
	}
	if scanner.callCount() != 0 {
		t.Errorf("no scan should run on invalid configuration, got %d calls", scanner.callCount())
	}
}

// TestRunCancellation tests that cancelling the run context moves the
// pipeline to Failed with a Cancelled reason
func TestRunCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	p := NewPipeline(&blockingScanner{}, emitters.DefaultRegistry(),
		Sinks{}, &interfaces.NoOpLogger{}, testConfig())

	res, err := p.Run(ctx,
		"registry.example.com/demo:1",
		[]entities.ScanProfile{gatingProfile(entities.FormatTabular)})
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if res.Status != StatusError {
		t.Errorf("expected ERROR, got %s", res.Status)
	}
	if p.State() != StateFailed {
		t.Errorf("expected terminal state failed, got %s", p.State())
	}
}

func contains(s, sub string) bool {
	return strings.Contains(s, sub)
}
