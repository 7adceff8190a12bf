package server

import (
	"net/http"
	"strconv"
	"strings"

	"onomast/internal/savedsearch"
)

// userHeader carries the caller identity set by the fronting auth proxy.
const userHeader = "X-User-ID"

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	if h.deps.Saved == nil {
		http.NotFound(w, r)
		return
	}
	var in savedsearch.SaveInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	saved, err := h.deps.Saved.Save(r.Context(), r.Header.Get(userHeader), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *Handler) handleListSaved(w http.ResponseWriter, r *http.Request) {
	if h.deps.Saved == nil {
		http.NotFound(w, r)
		return
	}
	list, err := h.deps.Saved.List(r.Context(), r.Header.Get(userHeader))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if h.deps.Saved == nil {
		http.NotFound(w, r)
		return
	}
	limit, _ := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("limit")))
	board, err := h.deps.Saved.Leaderboard(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}
