package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"onomast/internal/availability"
	"onomast/internal/savedsearch"
	"onomast/internal/verdict"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// classify maps a service error to an HTTP status and a public error code.
// Internal errors never leak their message.
func classify(err error) (int, errorBody) {
	switch {
	case errors.Is(err, verdict.ErrInvalidInput),
		errors.Is(err, savedsearch.ErrInvalidInput),
		errors.Is(err, availability.ErrEmptyHandle),
		errors.Is(err, availability.ErrNonLatinHandle),
		errors.Is(err, availability.ErrHandleTooLong):
		return http.StatusBadRequest, errorBody{Code: "invalid_argument", Message: err.Error()}
	case errors.Is(err, savedsearch.ErrUnauthenticated):
		return http.StatusUnauthorized, errorBody{Code: "unauthenticated", Message: "sign in required"}
	case errors.Is(err, verdict.ErrSignalsPending):
		return http.StatusServiceUnavailable, errorBody{Code: "unavailable", Message: "availability check did not finish"}
	}
	return http.StatusInternalServerError, errorBody{Code: "internal", Message: "internal error"}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	if err := dec.Decode(v); err != nil {
		return errors.Join(verdict.ErrInvalidInput, err)
	}
	return nil
}
