// Package httpserver contains HTTP handlers and middleware for the pitch
// evaluation API.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pistalabs/pista/internal/domain"
)

// The evaluation endpoints keep the wire shape their existing clients depend
// on: a flat {"error": string} body with fixed messages.
const (
	msgNoText           = "No text provided"
	msgEvaluationFailed = "Evaluation failed"
	msgServiceBusy      = "The evaluation service is busy. Please try again in a few moments."
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeEvaluationError maps a pipeline failure onto the fixed evaluation
// endpoint contract. Everything except retry exhaustion collapses into the
// generic failure message.
func writeEvaluationError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrServiceBusy) {
		writeErrorMessage(w, http.StatusInternalServerError, msgServiceBusy)
		return
	}
	writeErrorMessage(w, http.StatusInternalServerError, msgEvaluationFailed)
}

// writeError maps domain sentinels onto statuses for the read-side and upload
// endpoints, which are not bound to the fixed legacy messages.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeErrorMessage(w, http.StatusNotFound, "evaluation not found")
	case errors.Is(err, domain.ErrRateLimited):
		writeErrorMessage(w, http.StatusTooManyRequests, "rate limited")
	case errors.Is(err, domain.ErrServiceBusy):
		writeErrorMessage(w, http.StatusServiceUnavailable, msgServiceBusy)
	default:
		writeErrorMessage(w, http.StatusInternalServerError, "internal error")
	}
}
