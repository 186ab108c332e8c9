// Package orchestrators coordinates the scan pipeline end to end.
// Following Clean Architecture: orchestrators sequence services and
// gateways for complex use cases.
package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/scangate/scangate/internal/domain-adapters/emitters"
	"github.com/scangate/scangate/internal/domain/entities"
	"github.com/scangate/scangate/internal/domain/interfaces"
	gwif "github.com/scangate/scangate/internal/domain/interfaces/gateways"
	snkif "github.com/scangate/scangate/internal/domain/interfaces/sinks"
	"github.com/scangate/scangate/internal/domain/services"
)

// State is a pipeline lifecycle stage.
type State string

const (
	StateIdle        State = "idle"
	StateScanning    State = "scanning"
	StateAggregating State = "aggregating"
	StateGating      State = "gating"
	StateEmitting    State = "emitting"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// Status is the overall run outcome. Error is reserved for failures
// unrelated to vulnerability content, distinct from Fail which means
// vulnerabilities were found above a configured threshold.
type Status string

const (
	StatusPass  Status = "PASS"
	StatusFail  Status = "FAIL"
	StatusError Status = "ERROR"
)

// ErrCancelled reports an external cancellation of the run.
var ErrCancelled = errors.New("run cancelled")

// Config holds the externally supplied run settings.
type Config struct {
	// RetryBound is the number of retries after a transient scan failure.
	RetryBound int
	// ScanTimeout bounds each scanner invocation. Zero disables it.
	ScanTimeout time.Duration
	// Backoff is the delay before the first retry, doubling afterwards.
	Backoff time.Duration
	// Retention is the suggested retention period passed to the store.
	Retention time.Duration
}

// Sinks bundles the optional external consumers of rendered reports.
type Sinks struct {
	Dashboard snkif.DashboardSink
	Store     snkif.ReportStore
	Signer    snkif.ReportSigner
}

// RunResult is the terminal outcome of one pipeline run.
type RunResult struct {
	Status   Status
	Report   *entities.AggregatedReport
	Verdict  *entities.GateVerdict
	Duration time.Duration
	// SinkErrors collects delivery failures; they never change the verdict.
	SinkErrors []error
	Err        error
}

// Pipeline sequences profile scans, aggregation, gating and emission for
// one artifact. The aggregated report is exclusively owned by the pipeline
// for the run's duration and never mutated after aggregation completes.
type Pipeline struct {
	scanner  gwif.ScannerGateway
	emitters *emitters.Registry
	sinks    Sinks
	logger   interfaces.Logger
	cfg      Config

	mu    sync.Mutex
	state State
}

// NewPipeline creates a pipeline with its collaborators injected.
func NewPipeline(scanner gwif.ScannerGateway, registry *emitters.Registry, sinks Sinks, logger interfaces.Logger, cfg Config) *Pipeline {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	return &Pipeline{
		scanner:  scanner,
		emitters: registry,
		sinks:    sinks,
		logger:   logger,
		cfg:      cfg,
		state:    StateIdle,
	}
}

// State returns the current lifecycle stage.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
	p.logger.Debug("pipeline state", interfaces.F("state", string(s)))
}

// Run executes the full pipeline for the artifact. Configuration errors
// abort before any scan; a FAIL verdict never short-circuits emission.
func (p *Pipeline) Run(ctx context.Context, artifactRef string, profiles []entities.ScanProfile) (*RunResult, error) {
	start := time.Now()

	fail := func(err error) (*RunResult, error) {
		p.setState(StateFailed)
		return &RunResult{Status: StatusError, Duration: time.Since(start), Err: err}, err
	}

	if artifactRef == "" {
		return fail(errors.New("artifact reference is empty"))
	}
	if len(profiles) == 0 {
		return fail(fmt.Errorf("%w: no profiles configured", entities.ErrInvalidProfile))
	}
	for _, profile := range profiles {
		if err := profile.Validate(); err != nil {
			return fail(err)
		}
	}

	p.setState(StateScanning)
	results, err := p.scanAll(ctx, artifactRef, profiles)
	if err != nil {
		return fail(err)
	}

	p.setState(StateAggregating)
	report, err := services.Aggregate(artifactRef, results)
	if err != nil {
		return fail(err)
	}

	p.setState(StateGating)
	verdict := services.EvaluateGate(report, profiles)
	p.logger.Info("gate evaluated",
		interfaces.F("outcome", string(verdict.Outcome)),
		interfaces.F("triggering", len(verdict.TriggeringFindings)))

	p.setState(StateEmitting)
	sinkErrors, err := p.emitAll(ctx, report, &verdict, profiles)
	if err != nil {
		return fail(err)
	}

	p.setState(StateDone)
	res := &RunResult{
		Status:     StatusPass,
		Report:     report,
		Verdict:    &verdict,
		Duration:   time.Since(start),
		SinkErrors: sinkErrors,
	}
	if verdict.Outcome == entities.OutcomeFail {
		res.Status = StatusFail
	}
	return res, nil
}

// scanAll invokes the scanner once per profile, concurrently. Profile
// scans share no mutable state; each slot of the results slice is written
// by exactly one goroutine.
func (p *Pipeline) scanAll(ctx context.Context, artifactRef string, profiles []entities.ScanProfile) ([]services.ProfileFindings, error) {
	results := make([]services.ProfileFindings, len(profiles))
	errs := make([]error, len(profiles))

	var wg sync.WaitGroup
	for i, profile := range profiles {
		wg.Add(1)
		go func(i int, profile entities.ScanProfile) {
			defer wg.Done()
			findings, err := p.scanWithRetry(ctx, artifactRef, profile)
			results[i] = services.ProfileFindings{Profile: profile, Findings: findings}
			errs[i] = err
		}(i, profile)
	}
	wg.Wait()

	for _, err := range errs {
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		}
		return nil, err
	}
	return results, nil
}

// scanWithRetry retries transient failures up to the configured bound with
// doubling backoff. Exhaustion converts the last transient error to fatal.
func (p *Pipeline) scanWithRetry(ctx context.Context, artifactRef string, profile entities.ScanProfile) ([]entities.Finding, error) {
	backoff := p.cfg.Backoff
	var lastErr error

	for attempt := 0; attempt <= p.cfg.RetryBound; attempt++ {
		if attempt > 0 {
			p.logger.Warn("retrying scan",
				interfaces.F("profile", profile.Name),
				interfaces.F("attempt", attempt+1),
				interfaces.F("backoff", backoff.String()))
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		callCtx := ctx
		cancel := func() {}
		if p.cfg.ScanTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, p.cfg.ScanTimeout)
		}
		findings, err := p.scanner.Scan(callCtx, artifactRef, profile)
		cancel()

		if err == nil {
			p.logger.Info("scan complete",
				interfaces.F("profile", profile.Name),
				interfaces.F("findings", len(findings)))
			return findings, nil
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		}
		if !gwif.Transient(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("retry bound exhausted for profile %q: %w", profile.Name, lastErr)
}

// canonical emission order; formats requested by several profiles render once.
var formatOrder = []entities.Format{
	entities.FormatTabular,
	entities.FormatInterchange,
	entities.FormatInterop,
}

// emitAll renders every requested format and hands it to its sink. An
// emission failure aborts the run; a sink delivery failure is collected
// and logged, since the rendering already succeeded in memory.
func (p *Pipeline) emitAll(ctx context.Context, report *entities.AggregatedReport, verdict *entities.GateVerdict, profiles []entities.ScanProfile) ([]error, error) {
	requested := make(map[entities.Format]bool)
	for _, profile := range profiles {
		for _, f := range profile.Formats {
			requested[f] = true
		}
	}

	var sinkErrors []error
	deliver := func(err error, format entities.Format) {
		if err == nil {
			return
		}
		p.logger.Warn("sink delivery failed",
			interfaces.F("format", string(format)),
			interfaces.F("error", err.Error()))
		sinkErrors = append(sinkErrors, fmt.Errorf("%s: %w", format, err))
	}

	for _, format := range formatOrder {
		if !requested[format] {
			continue
		}
		payload, err := p.emitters.Emit(format, report, verdict)
		if err != nil {
			return sinkErrors, err
		}

		switch format {
		case entities.FormatInterop:
			if p.sinks.Dashboard == nil {
				p.logger.Debug("no dashboard sink configured, skipping interop delivery")
				continue
			}
			deliver(p.sinks.Dashboard.Deliver(ctx, payload), format)
		case entities.FormatTabular:
			if p.sinks.Store == nil {
				continue
			}
			deliver(p.sinks.Store.Store(ctx, "report.txt", payload, p.cfg.Retention), format)
		case entities.FormatInterchange:
			if p.sinks.Store == nil {
				continue
			}
			deliver(p.sinks.Store.Store(ctx, "report.json", payload, p.cfg.Retention), format)
			if p.sinks.Signer != nil {
				sig, err := p.sinks.Signer.Sign(payload)
				if err != nil {
					deliver(fmt.Errorf("sign report: %w", err), format)
					continue
				}
				deliver(p.sinks.Store.Store(ctx, "report.json.asc", sig, p.cfg.Retention), format)
			}
		}
	}

	return sinkErrors, nil
}

// Summary renders a one-screen human-readable account of a finished run.
func Summary(res *RunResult) string {
	switch res.Status {
	case StatusError:
		return fmt.Sprintf("ERROR: %v", res.Err)
	case StatusFail:
		return fmt.Sprintf("FAIL: %d finding(s) at or above the gate threshold (governing profile %q)\n   Findings: %d total\n   Duration: %v",
			len(res.Verdict.TriggeringFindings), res.Verdict.GoverningProfile,
			res.Report.Total(), res.Duration.Round(time.Millisecond))
	default:
		return fmt.Sprintf("PASS: no finding exceeded a gate threshold\n   Findings: %d total\n   Duration: %v",
			res.Report.Total(), res.Duration.Round(time.Millisecond))
	}
}
