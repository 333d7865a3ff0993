package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ariefcatur/sellmate/internal/auth"
	"github.com/ariefcatur/sellmate/internal/catalog"
	"github.com/ariefcatur/sellmate/internal/forms"
	"github.com/ariefcatur/sellmate/internal/logger"
	"github.com/ariefcatur/sellmate/internal/orders"
	"github.com/ariefcatur/sellmate/internal/payments"
	"github.com/ariefcatur/sellmate/internal/redisx"
	"github.com/ariefcatur/sellmate/internal/session"
)

type errorBody struct {
	Error  string       `json:"error"`
	Fields []string     `json:"fields,omitempty"`
	Toast  *forms.Toast `json:"toast,omitempty"`
	State  *forms.State `json:"state,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorBody{Error: msg})
}

// writeError maps domain errors to status codes. Anything unknown is logged
// and reported as 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if ve, ok := forms.AsValidation(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "missing_fields", Fields: ve.Fields, Toast: ve.Toast})
		return
	}
	switch {
	case errors.Is(err, forms.ErrAlreadySubmitted):
		writeMessage(w, http.StatusConflict, "already_submitted")
	case errors.Is(err, redisx.ErrInFlight):
		writeMessage(w, http.StatusConflict, "request_in_flight")
	case errors.Is(err, orders.ErrOrderNotFound),
		errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, payments.ErrAccountNotFound),
		errors.Is(err, forms.ErrApplicationNotFound):
		writeMessage(w, http.StatusNotFound, "not_found")
	case errors.Is(err, catalog.ErrInvalidStatus),
		errors.Is(err, catalog.ErrInvalidPrice),
		errors.Is(err, payments.ErrUnknownMethod),
		errors.Is(err, auth.ErrUnknownRole):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, session.ErrNotFound):
		writeMessage(w, http.StatusUnauthorized, "unauthorized")
	default:
		logger.FromContext(r.Context()).Error("request failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "internal_error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}
