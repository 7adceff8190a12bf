package server

import (
	"net/http"
	"strings"

	"onomast/internal/availability"
	"onomast/internal/locale"
	"onomast/internal/verdict"
)

const localeCookie = "locale"

type checkRequest struct {
	Name        string              `json:"name"`
	LatinName   string              `json:"latinName"`
	Description string              `json:"description"`
	Region      string              `json:"region"`
	Language    string              `json:"language"`
	Owned       verdict.OwnedAssets `json:"owned"`
}

type checkResponse struct {
	Handle   string                     `json:"handle"`
	Results  []availability.ProbeResult `json:"results"`
	Snapshot availability.Snapshot      `json:"snapshot"`
	Verdict  verdict.Record             `json:"verdict"`
	State    verdict.State              `json:"state"`
	Digest   string                     `json:"digest"`
}

// requestLocale prefers the locale cookie, then Accept-Language.
func requestLocale(r *http.Request) locale.Locale {
	var cookie string
	if c, err := r.Cookie(localeCookie); err == nil {
		cookie = c.Value
	}
	return locale.Negotiate(cookie, r.Header.Get("Accept-Language"))
}

// prepare validates a check before any probe is dispatched.
func prepare(r *http.Request, req checkRequest) (verdict.Input, error) {
	handle, err := availability.ResolveHandle(req.Name, req.LatinName)
	if err != nil {
		return verdict.Input{}, err
	}
	in := verdict.Input{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Region:      req.Region,
		Language:    req.Language,
		Locale:      string(requestLocale(r)),
		Handle:      handle,
		Owned:       req.Owned,
	}
	if err := verdict.Validate(in); err != nil {
		return verdict.Input{}, err
	}
	return in, nil
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	in, err := prepare(r, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	rep := h.deps.Orchestrator.Run(r.Context(), in.Handle, nil)
	res, err := h.deps.Verdicts.ResolveReport(r.Context(), in, rep)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, checkResponse{
		Handle:   rep.Handle,
		Results:  rep.Results,
		Snapshot: rep.Snapshot,
		Verdict:  res.Record,
		State:    res.State,
		Digest:   res.Digest,
	})
}

func (h *Handler) handleEnrich(w http.ResponseWriter, r *http.Request) {
	if h.deps.Enricher == nil {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		h.writeError(w, r, verdict.ErrInvalidInput)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Enricher.All(r.Context(), name))
}

func (h *Handler) handleCacheMetrics(w http.ResponseWriter, r *http.Request) {
	if h.deps.CacheMetrics == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.CacheMetrics())
}
