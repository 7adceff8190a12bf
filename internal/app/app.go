package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"

	"onomast/internal/availability"
	"onomast/internal/config"
	"onomast/internal/enrich"
	"onomast/internal/llm"
	"onomast/internal/logger"
	ghplatform "onomast/internal/platform/github"
	"onomast/internal/probe"
	"onomast/internal/savedsearch"
	"onomast/internal/server"
	"onomast/internal/telemetry"
	"onomast/internal/verdict"
)

type App struct {
	server   *server.Server
	verdicts *verdict.Service
	llm      llm.Client
	stores   *stores
	tracing  func(context.Context) error
	log      *logger.Logger
}

func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (_ *App, err error) {
	log = logger.OrNop(log)

	shutdownTracing, err := telemetry.Init(ctx, log, telemetry.Config{
		ServiceName: "onomast",
		Environment: cfg.Env,
		Exporter:    cfg.Tracing.Exporter,
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = shutdownTracing(context.Background())
		}
	}()

	st, err := initStores(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize stores: %w", err)
	}
	defer func() {
		if err != nil {
			_ = st.Close()
		}
	}()

	client, err := newLLMClient(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = client.Close()
		}
	}()

	verdicts, err := verdict.NewService(st.verdicts, verdict.NewLLMGenerator(client), verdict.ServiceConfig{
		Model:           cfg.LLM.VerdictModel(),
		GenerateTimeout: cfg.LLM.Timeout,
		Logger:          log.With("component", "verdict"),
		Tracer:          otel.Tracer("onomast/verdict"),
	})
	if err != nil {
		return nil, err
	}

	gh, err := ghplatform.NewClient(cfg.Probe.GitHubToken, cfg.Probe.UserAgent, "")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize github client: %w", err)
	}
	httpClient := &http.Client{}
	orch := availability.NewOrchestrator(
		probe.Defaults(probe.Options{UserAgent: cfg.Probe.UserAgent, GitHub: gh, HTTPClient: httpClient}),
		availability.WithTimeout(cfg.Probe.Timeout),
		availability.WithLogger(log.With("component", "availability")),
		availability.WithTracer(otel.Tracer("onomast/availability")),
	)
	enricher := enrich.New(enrich.DefaultEndpoints(), httpClient, gh, cfg.Enrich.Timeout, log.With("component", "enrich"))

	saved, err := savedsearch.NewService(st.saved)
	if err != nil {
		return nil, err
	}

	var limiter *rate.Limiter
	if cfg.Server.CheckRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Server.CheckRPS), max(cfg.Server.CheckBurst, 1))
	}

	router := server.NewRouter(server.Deps{
		Orchestrator: orch,
		Verdicts:     verdicts,
		Enricher:     enricher,
		Saved:        saved,
		CacheMetrics: func() any { return st.verdicts.Metrics() },
		Logger:       log,
		CheckLimiter: limiter,
	})

	return &App{
		server:   server.New(cfg.Port, router, log),
		verdicts: verdicts,
		llm:      client,
		stores:   st,
		tracing:  shutdownTracing,
		log:      log,
	}, nil
}

// newLLMClient builds the provider chosen by config. The fake client keeps
// the service usable offline.
func newLLMClient(ctx context.Context, cfg *config.Config, log *logger.Logger) (llm.Client, error) {
	var base llm.Client
	switch cfg.LLM.Provider {
	case "gemini":
		g, err := llm.NewGeminiClient(ctx, cfg.LLM.APIKey, cfg.LLM.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize gemini client: %w", err)
		}
		base = g
	case "groq":
		g, err := llm.NewGroqClient(cfg.LLM.GroqAPIKey, cfg.LLM.GroqModel, "")
		if err != nil {
			return nil, fmt.Errorf("failed to initialize groq client: %w", err)
		}
		base = g
	default:
		log.Warn("no LLM API key configured; verdicts come from the fake client")
		base = llm.NewFakeClient(nil)
	}
	return llm.Wrap(base,
		llm.WithLogging(log.With("component", "llm")),
		llm.Retry(cfg.LLM.RetryAttempts, cfg.LLM.RetryBase),
		llm.RateLimit(cfg.LLM.RPS, cfg.LLM.Burst),
		llm.Timeout(cfg.LLM.Timeout),
	), nil
}

func (a *App) Start() error {
	return a.server.Start()
}

// Shutdown stops accepting requests, then drains detached verdict writes
// before closing stores.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	if werr := a.verdicts.WaitContext(ctx); werr != nil {
		a.log.Warn("pending verdict writes did not finish", "error", werr)
	}
	if cerr := a.stores.Close(); cerr != nil && err == nil {
		err = cerr
	}
	_ = a.llm.Close()
	if a.tracing != nil {
		tctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = a.tracing(tctx)
	}
	return err
}
