// Package server exposes name checks over HTTP/JSON and a websocket that
// streams probe results as they settle.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"onomast/internal/availability"
	"onomast/internal/enrich"
	"onomast/internal/logger"
	"onomast/internal/savedsearch"
	"onomast/internal/verdict"
)

// Deps are the services behind the HTTP surface. Enricher, Saved and
// CacheMetrics are optional; their routes answer 404 when unset.
type Deps struct {
	Orchestrator *availability.Orchestrator
	Verdicts     *verdict.Service
	Enricher     *enrich.Enricher
	Saved        *savedsearch.Service
	CacheMetrics func() any
	Logger       *logger.Logger
	// CheckLimiter throttles /api/check and /ws/check when set.
	CheckLimiter *rate.Limiter
}

type Handler struct {
	deps Deps
	log  *logger.Logger
}

func NewRouter(deps Deps) http.Handler {
	h := &Handler{deps: deps, log: logger.OrNop(deps.Logger).With("component", "server")}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/api", func(r chi.Router) {
		r.With(h.limit).Post("/check", h.handleCheck)
		r.Get("/enrich", h.handleEnrich)
		r.Get("/leaderboard", h.handleLeaderboard)
		r.Get("/saved-searches", h.handleListSaved)
		r.Post("/saved-searches", h.handleSave)
	})
	r.With(h.limit).Get("/ws/check", h.handleCheckWS)
	r.Get("/debug/cache", h.handleCacheMetrics)
	return r
}

func (h *Handler) limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l := h.deps.CheckLimiter; l != nil && !l.Allow() {
			writeJSON(w, http.StatusTooManyRequests, errorBody{Code: "rate_limited", Message: "too many checks, slow down"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.log.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
