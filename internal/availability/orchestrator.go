package availability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"onomast/internal/logger"
)

const DefaultProbeTimeout = 8 * time.Second

// Report is the outcome of one aggregation run.
type Report struct {
	Handle   string        `json:"handle"`
	Results  []ProbeResult `json:"results"`
	Snapshot Snapshot      `json:"snapshot"`
	// Ready is true only when every probe settled for this run. A run whose
	// parent context was cancelled (superseded) is never ready.
	Ready bool `json:"ready"`
}

// Orchestrator fans a handle out to a fixed set of probes and joins on all
// of them. Each probe is boxed by its own timeout, so a run takes roughly as
// long as the slowest probe, capped at the timeout.
type Orchestrator struct {
	probes  []Probe
	timeout time.Duration
	log     *logger.Logger
	tracer  trace.Tracer
}

type Option func(*Orchestrator)

func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(o *Orchestrator) { o.log = logger.OrNop(l) }
}

func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.tracer = t
		}
	}
}

func NewOrchestrator(probes []Probe, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		probes:  append([]Probe(nil), probes...),
		timeout: DefaultProbeTimeout,
		log:     logger.Nop(),
		tracer:  otel.Tracer("onomast/availability"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Len is the number of probes a run waits for.
func (o *Orchestrator) Len() int { return len(o.probes) }

// Run checks handle against every probe concurrently. onResult, if non-nil,
// is called once per probe as it settles; calls are serialized. Results in
// the report follow probe order, not completion order.
func (o *Orchestrator) Run(ctx context.Context, handle string, onResult func(ProbeResult)) Report {
	ctx, span := o.tracer.Start(ctx, "availability.run", trace.WithAttributes(
		attribute.String("handle", handle),
		attribute.Int("probes", len(o.probes)),
	))
	defer span.End()

	results := make([]ProbeResult, len(o.probes))
	var (
		g  errgroup.Group
		mu sync.Mutex
	)
	for i, p := range o.probes {
		g.Go(func() error {
			r := o.runOne(ctx, p, handle)
			results[i] = r
			if onResult != nil {
				mu.Lock()
				onResult(r)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	ready := ctx.Err() == nil
	span.SetAttributes(attribute.Bool("ready", ready))
	return Report{
		Handle:   handle,
		Results:  results,
		Snapshot: BuildSnapshot(results),
		Ready:    ready,
	}
}

func (o *Orchestrator) runOne(ctx context.Context, p Probe, handle string) ProbeResult {
	src := p.Source()
	pctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	pctx, span := o.tracer.Start(pctx, "availability.probe", trace.WithAttributes(
		attribute.String("source", src.String()),
	))
	defer span.End()

	start := time.Now()
	// Buffered so an abandoned probe can still finish its send and exit.
	done := make(chan Outcome, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- Outcome{Err: fmt.Errorf("probe %s panicked: %v", src, rec)}
			}
		}()
		done <- p.Check(pctx, handle)
	}()

	var out Outcome
	select {
	case out = <-done:
	case <-pctx.Done():
		out = Outcome{Err: pctx.Err()}
	}

	status := Normalize(&out)
	if out.Err != nil {
		o.log.Debug("probe settled with error", "source", src.String(), "status", status, "error", out.Err)
	}
	span.SetAttributes(attribute.String("status", string(status)))
	return ProbeResult{
		Source:   src,
		Status:   status,
		Meta:     out.Meta,
		Duration: time.Since(start),
	}
}
