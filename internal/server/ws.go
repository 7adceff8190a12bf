package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"onomast/internal/availability"
	"onomast/internal/verdict"
)

const (
	checkWSWriteWait = 10 * time.Second
	checkWSPongWait  = 60 * time.Second
	checkWSPingEvery = (checkWSPongWait * 9) / 10
)

var checkWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type checkWSInbound struct {
	Type string `json:"type"`
	checkRequest
}

type checkWSOutbound struct {
	Type     string                    `json:"type"`
	Run      uint64                    `json:"run,omitempty"`
	Handle   string                    `json:"handle,omitempty"`
	Total    int                       `json:"total,omitempty"`
	Result   *availability.ProbeResult `json:"result,omitempty"`
	Snapshot *availability.Snapshot    `json:"snapshot,omitempty"`
	Verdict  *verdict.Record           `json:"verdict,omitempty"`
	State    verdict.State             `json:"state,omitempty"`
	Digest   string                    `json:"digest,omitempty"`
	Code     string                    `json:"code,omitempty"`
	Message  string                    `json:"message,omitempty"`
}

// handleCheckWS streams one check at a time per connection: "started", one
// "probe" per settled probe, "snapshot" once all have settled, then
// "verdict". A new check message supersedes the one in flight, and events
// from the superseded run are never sent.
func (h *Handler) handleCheckWS(w http.ResponseWriter, r *http.Request) {
	conn, err := checkWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(checkWSPongWait)); err != nil {
		h.log.Warn("check ws set read deadline failed", "error", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(checkWSPongWait))
	})

	writeCh := make(chan checkWSOutbound, 64)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(checkWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(checkWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(checkWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	session := availability.NewSession(h.deps.Orchestrator)
	defer session.Stop()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			cancel()
			<-writerDone
			return
		}
		var in checkWSInbound
		if err := json.Unmarshal(raw, &in); err != nil {
			pushCheckWS(writeCh, checkWSOutbound{Type: "error", Code: "invalid_argument", Message: "malformed message"})
			continue
		}

		switch strings.ToLower(strings.TrimSpace(in.Type)) {
		case "ping":
			pushCheckWS(writeCh, checkWSOutbound{Type: "pong"})
		case "cancel":
			session.Stop()
		case "check":
			if l := h.deps.CheckLimiter; l != nil && !l.Allow() {
				pushCheckWS(writeCh, checkWSOutbound{Type: "error", Code: "rate_limited", Message: "too many checks, slow down"})
				continue
			}
			h.startWSCheck(ctx, r, session, writeCh, in.checkRequest)
		case "":
			pushCheckWS(writeCh, checkWSOutbound{Type: "error", Code: "invalid_argument", Message: "type is required"})
		default:
			pushCheckWS(writeCh, checkWSOutbound{Type: "error", Code: "invalid_argument", Message: "unsupported type: " + in.Type})
		}
	}
}

func (h *Handler) startWSCheck(ctx context.Context, r *http.Request, session *availability.Session, writeCh chan checkWSOutbound, req checkRequest) {
	vin, err := prepare(r, req)
	if err != nil {
		_, body := classify(err)
		pushCheckWS(writeCh, checkWSOutbound{Type: "error", Code: body.Code, Message: body.Message})
		return
	}

	// Only the read loop starts or stops runs on this session, so the next
	// generation is known before Start is called.
	run := session.Current() + 1
	pushCheckWS(writeCh, checkWSOutbound{Type: "started", Run: run, Handle: vin.Handle, Total: h.deps.Orchestrator.Len()})
	gen, reports := session.Start(ctx, vin.Handle, func(res availability.ProbeResult) {
		pushCheckWS(writeCh, checkWSOutbound{Type: "probe", Run: run, Result: &res})
	})
	if gen != run {
		h.log.Warn("check ws generation mismatch", "want", run, "got", gen)
	}

	go func() {
		rep, ok := <-reports
		if !ok {
			return
		}
		snap := rep.Snapshot
		pushCheckWS(writeCh, checkWSOutbound{Type: "snapshot", Run: run, Handle: rep.Handle, Snapshot: &snap})

		res, err := h.deps.Verdicts.ResolveReport(ctx, vin, rep)
		if session.Current() != run {
			return
		}
		if err != nil {
			status, body := classify(err)
			if status >= http.StatusInternalServerError {
				h.log.Error("check ws verdict failed", "handle", vin.Handle, "error", err)
			}
			pushCheckWS(writeCh, checkWSOutbound{Type: "error", Run: run, Code: body.Code, Message: body.Message})
			return
		}
		rec := res.Record
		pushCheckWS(writeCh, checkWSOutbound{Type: "verdict", Run: run, Verdict: &rec, State: res.State, Digest: res.Digest})
	}()
}

// pushCheckWS never blocks: when the writer falls behind, the oldest queued
// event is dropped.
func pushCheckWS(writeCh chan checkWSOutbound, out checkWSOutbound) {
	if writeCh == nil {
		return
	}
	select {
	case writeCh <- out:
		return
	default:
	}
	select {
	case <-writeCh:
	default:
	}
	select {
	case writeCh <- out:
	default:
	}
}
