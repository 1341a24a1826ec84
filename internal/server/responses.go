package server

import (
	"encoding/json"
	"errors"
	"html"
	"io"
	"net/http"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/simonvc/bistroledger/internal/ledger"
	"github.com/simonvc/bistroledger/internal/logger"
)

const maxBody = 1 << 20

var strictPolicy = bluemonday.StrictPolicy()

// clean strips markup from free text before it reaches the journal.
func clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// fail logs server-side failures and writes the mapped status.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	status := mapError(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeError(w, status, err.Error())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func mapError(err error) int {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrDuplicateAccount),
		errors.Is(err, ledger.ErrAccountInUse),
		errors.Is(err, ledger.ErrAlreadyValidated),
		errors.Is(err, ledger.ErrDuplicateSourceEvent),
		errors.Is(err, ledger.ErrDuplicateEntry),
		errors.Is(err, ledger.ErrClaimNotPending):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrUnbalancedEntry),
		errors.Is(err, ledger.ErrEmptyEntry),
		errors.Is(err, ledger.ErrNonPositiveAmount):
		return http.StatusUnprocessableEntity
	case ledger.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
