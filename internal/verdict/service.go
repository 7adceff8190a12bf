package verdict

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"onomast/internal/availability"
	"onomast/internal/logger"
)

// State is how a verdict was obtained.
type State string

const (
	StateHit      State = "hit"
	StateFresh    State = "fresh"
	StateDegraded State = "degraded"
)

type Result struct {
	Record Record `json:"record"`
	State  State  `json:"state"`
	Digest string `json:"digest"`
}

type ServiceConfig struct {
	Model           string
	GenerateTimeout time.Duration
	PersistTimeout  time.Duration
	Logger          *logger.Logger
	Tracer          trace.Tracer
	Now             func() time.Time
}

// Service runs the verdict flow: digest, cache lookup, generation on miss,
// and a detached write of fresh verdicts. Store failures never fail a
// request; they only cost a regeneration.
type Service struct {
	store   Store
	gen     Generator
	model   string
	genTO   time.Duration
	writeTO time.Duration
	log     *logger.Logger
	tracer  trace.Tracer
	now     func() time.Time

	flights singleflight.Group
	pending sync.WaitGroup
}

func NewService(store Store, gen Generator, cfg ServiceConfig) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("verdict: store is required")
	}
	if gen == nil {
		return nil, fmt.Errorf("verdict: generator is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("verdict: model is required")
	}
	s := &Service{
		store:   store,
		gen:     gen,
		model:   cfg.Model,
		genTO:   cfg.GenerateTimeout,
		writeTO: cfg.PersistTimeout,
		log:     logger.OrNop(cfg.Logger),
		tracer:  cfg.Tracer,
		now:     cfg.Now,
	}
	if s.genTO <= 0 {
		s.genTO = 30 * time.Second
	}
	if s.writeTO <= 0 {
		s.writeTO = 10 * time.Second
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer("onomast/verdict")
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

func (s *Service) Model() string { return s.model }

// ResolveReport is Resolve gated on a settled availability run: a verdict is
// never computed from a partial snapshot.
func (s *Service) ResolveReport(ctx context.Context, in Input, rep availability.Report) (Result, error) {
	if !rep.Ready {
		return Result{}, ErrSignalsPending
	}
	in.Snapshot = rep.Snapshot
	if in.Handle == "" {
		in.Handle = rep.Handle
	}
	return s.Resolve(ctx, in)
}

// Resolve returns the verdict for in. Only validation errors are returned;
// every other failure resolves to a cache miss or the degraded verdict.
func (s *Service) Resolve(ctx context.Context, in Input) (Result, error) {
	ctx, span := s.tracer.Start(ctx, "verdict.resolve")
	defer span.End()

	if err := Validate(in); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}
	in.Model = s.model
	in.PromptVersion = PromptVersion
	c := Canonicalize(in)
	digest, err := BuildDigest(c)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}
	span.AddEvent("key_computed", trace.WithAttributes(attribute.String("digest", digest)))

	span.AddEvent("cache_checking")
	rec, err := s.store.Get(ctx, digest)
	switch {
	case err == nil:
		span.SetAttributes(attribute.String("state", string(StateHit)))
		return Result{Record: rec, State: StateHit, Digest: digest}, nil
	case errors.Is(err, ErrNotFound):
	default:
		s.log.Warn("verdict cache read failed; treating as miss", "digest", digest, "error", err)
	}

	// Identical requests in this process share one generation. The flight
	// is detached from any single caller's cancellation.
	v, _, shared := s.flights.Do(digest, func() (any, error) {
		return s.generate(context.WithoutCancel(ctx), c, digest), nil
	})
	res := v.(Result)
	span.SetAttributes(attribute.String("state", string(res.State)), attribute.Bool("shared", shared))
	return res, nil
}

func (s *Service) generate(ctx context.Context, c Input, digest string) Result {
	span := trace.SpanFromContext(ctx)
	span.AddEvent("generating")

	gctx, cancel := context.WithTimeout(ctx, s.genTO)
	defer cancel()
	rec, err := s.gen.Generate(gctx, c)
	if err != nil {
		s.log.Warn("verdict generation failed; returning degraded verdict", "digest", digest, "error", err)
		span.AddEvent("degraded")
		d := Degraded(c)
		d.Digest = digest
		return Result{Record: d, State: StateDegraded, Digest: digest}
	}

	now := s.now().UTC()
	rec.Digest = digest
	rec.CreatedAt = now
	rec.UpdatedAt = now
	span.AddEvent("persisting_async")
	s.persist(rec)
	return Result{Record: rec, State: StateFresh, Digest: digest}
}

// persist writes rec in the background with its own deadline. Failures are
// logged and otherwise ignored; the caller already has the verdict.
func (s *Service) persist(rec Record) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.writeTO)
		defer cancel()
		if err := s.store.Put(ctx, rec); err != nil {
			s.log.Warn("verdict cache write failed", "digest", rec.Digest, "error", err)
		}
	}()
}

// Wait blocks until every background write has finished.
func (s *Service) Wait() { s.pending.Wait() }

// WaitContext is Wait bounded by ctx.
func (s *Service) WaitContext(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
