package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"onomast/internal/availability"
	"onomast/internal/llm"
	"onomast/internal/savedsearch"
	"onomast/internal/verdict"
	"onomast/internal/verdict/store"
)

type fixture struct {
	handler http.Handler
	fake    *llm.FakeClient
	store   *store.MemoryStore
	svc     *verdict.Service
}

func newFixture(t *testing.T, delay time.Duration, limiter *rate.Limiter) *fixture {
	t.Helper()
	probes := make([]availability.Probe, 0, 17)
	for _, src := range availability.Sources() {
		probes = append(probes, availability.ProbeFunc{Src: src, Fn: func(ctx context.Context, _ string) availability.Outcome {
			select {
			case <-time.After(delay):
				return availability.Outcome{Status: availability.StatusAvailable}
			case <-ctx.Done():
				return availability.Outcome{Err: ctx.Err()}
			}
		}})
	}
	fake := llm.NewFakeClient(nil)
	mem := store.NewMemoryStore()
	svc, err := verdict.NewService(mem, verdict.NewLLMGenerator(fake), verdict.ServiceConfig{Model: "fake"})
	require.NoError(t, err)
	saved, err := savedsearch.NewService(savedsearch.NewMemoryStore())
	require.NoError(t, err)

	h := NewRouter(Deps{
		Orchestrator: availability.NewOrchestrator(probes, availability.WithTimeout(time.Second)),
		Verdicts:     svc,
		Saved:        saved,
		CacheMetrics: func() any { return map[string]int{"entries": mem.Len()} },
		CheckLimiter: limiter,
	})
	t.Cleanup(svc.Wait)
	return &fixture{handler: h, fake: fake, store: mem, svc: svc}
}

func (f *fixture) do(t *testing.T, method, path string, body any, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, 0, nil)
	rec := f.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCheckThenHit(t *testing.T) {
	f := newFixture(t, time.Millisecond, nil)

	rec := f.do(t, http.MethodPost, "/api/check", checkRequest{Name: "Flux"}, map[string]string{"Accept-Language": "ko-KR,ko;q=0.9"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var first checkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.Equal(t, "flux", first.Handle)
	assert.Len(t, first.Results, 17)
	assert.Equal(t, verdict.StateFresh, first.State)
	assert.Equal(t, "ko", first.Verdict.Locale)
	assert.Contains(t, f.fake.Prompts()[0], "Korean")

	f.svc.Wait()
	rec = f.do(t, http.MethodPost, "/api/check", checkRequest{Name: "Flux "}, map[string]string{"Accept-Language": "ko"})
	require.Equal(t, http.StatusOK, rec.Code)
	var second checkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.Equal(t, verdict.StateHit, second.State)
	assert.Equal(t, first.Digest, second.Digest)
	assert.Equal(t, 1, f.fake.Calls())
}

func TestCheckLocaleCookieWins(t *testing.T) {
	f := newFixture(t, 0, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/check", strings.NewReader(`{"name":"Flux"}`))
	req.Header.Set("Accept-Language", "ja")
	req.AddCookie(&http.Cookie{Name: "locale", Value: "fr"})
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var out checkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "fr", out.Verdict.Locale)
}

func TestCheckRejectsBadInput(t *testing.T) {
	f := newFixture(t, 0, nil)
	cases := map[string]checkRequest{
		"empty":       {Name: "  "},
		"non-latin":   {Name: "서울"},
		"too long":    {Name: strings.Repeat("a", 101)},
		"long handle": {Name: "Flux", LatinName: strings.Repeat("x", 20000)},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/check", body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.Equal(t, 0, f.fake.Calls())

	rec := f.do(t, http.MethodPost, "/api/check", checkRequest{Name: "서울", LatinName: "seoul"}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCheckMalformedJSON(t *testing.T) {
	f := newFixture(t, 0, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/check", strings.NewReader(`{"name":`))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckRateLimited(t *testing.T) {
	f := newFixture(t, 0, rate.NewLimiter(rate.Every(time.Hour), 1))
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/check", checkRequest{Name: "Flux"}, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, f.do(t, http.MethodPost, "/api/check", checkRequest{Name: "Flux"}, nil).Code)
}

func TestSavedSearchesRequireUser(t *testing.T) {
	f := newFixture(t, 0, nil)
	rec := f.do(t, http.MethodGet, "/api/saved-searches", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/saved-searches", savedsearch.SaveInput{Name: "Flux"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSavedSearchesAndLeaderboard(t *testing.T) {
	f := newFixture(t, 0, nil)
	for _, u := range []string{"u1", "u2"} {
		rec := f.do(t, http.MethodPost, "/api/saved-searches", savedsearch.SaveInput{Name: "Flux"}, map[string]string{userHeader: u})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	f.do(t, http.MethodPost, "/api/saved-searches", savedsearch.SaveInput{Name: "Nimbus"}, map[string]string{userHeader: "u1"})

	rec := f.do(t, http.MethodGet, "/api/saved-searches", nil, map[string]string{userHeader: "u1"})
	require.Equal(t, http.StatusOK, rec.Code)
	var list []savedsearch.SavedSearch
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	rec = f.do(t, http.MethodGet, "/api/leaderboard?limit=1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var board []savedsearch.LeaderboardEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &board))
	require.Len(t, board, 1)
	assert.Equal(t, "flux", board[0].NormalizedName)
	assert.Equal(t, 2, board[0].Saves)
}

func TestEnrichNotConfigured(t *testing.T) {
	f := newFixture(t, 0, nil)
	rec := f.do(t, http.MethodGet, "/api/enrich?name=flux", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCacheMetrics(t *testing.T) {
	f := newFixture(t, 0, nil)
	rec := f.do(t, http.MethodGet, "/debug/cache", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "entries")
}

func TestClassify(t *testing.T) {
	code, _ := classify(verdict.ErrSignalsPending)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	code, body := classify(assert.AnError)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "internal error", body.Message)
}

func dialWS(t *testing.T, h http.Handler) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/check"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readUntil(t *testing.T, conn *websocket.Conn, typ string) []checkWSOutbound {
	t.Helper()
	var got []checkWSOutbound
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var out checkWSOutbound
		require.NoError(t, conn.ReadJSON(&out))
		got = append(got, out)
		if out.Type == typ {
			return got
		}
	}
}

func TestCheckWSStreamsProbesThenVerdict(t *testing.T) {
	f := newFixture(t, 5*time.Millisecond, nil)
	conn := dialWS(t, f.handler)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "check", "name": "Flux"}))
	events := readUntil(t, conn, "verdict")

	counts := map[string]int{}
	snapshotSeen := false
	for _, e := range events {
		counts[e.Type]++
		if e.Type == "probe" {
			assert.False(t, snapshotSeen, "probe event after snapshot")
		}
		if e.Type == "snapshot" {
			snapshotSeen = true
		}
	}
	assert.Equal(t, 1, counts["started"])
	assert.Equal(t, 17, counts["probe"])
	assert.Equal(t, 1, counts["snapshot"])

	last := events[len(events)-1]
	require.NotNil(t, last.Verdict)
	assert.Equal(t, verdict.StateFresh, last.State)
	assert.NotEmpty(t, last.Digest)
}

func TestCheckWSSupersedes(t *testing.T) {
	f := newFixture(t, 100*time.Millisecond, nil)
	conn := dialWS(t, f.handler)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "check", "name": "Old"}))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "check", "name": "New"}))
	events := readUntil(t, conn, "verdict")

	var newRun uint64
	for _, e := range events {
		if e.Type == "started" && e.Handle == "new" {
			newRun = e.Run
		}
	}
	require.NotZero(t, newRun)
	for _, e := range events {
		if e.Type == "probe" || e.Type == "snapshot" || e.Type == "verdict" {
			assert.Equal(t, newRun, e.Run, "event %s from superseded run", e.Type)
		}
	}
	assert.Equal(t, "New", events[len(events)-1].Verdict.Name)
}

func TestCheckWSRejectsUnknownType(t *testing.T) {
	f := newFixture(t, 0, nil)
	conn := dialWS(t, f.handler)
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "dance"}))
	events := readUntil(t, conn, "error")
	assert.Equal(t, "invalid_argument", events[len(events)-1].Code)
}
