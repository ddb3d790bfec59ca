package api

import (
	"encoding/json"
	"log"
	"net/http"
)

// Codes owned by the HTTP layer. Business codes come from the reservation
// package and share the same envelope.
const (
	CodeUnauthorized = "UNAUTHORIZED"
	CodeValidation   = "VALIDATION_FAILED"
	CodeInternal     = "INTERNAL"
)

// ErrorEnvelope is the body of every non-2xx response:
// {"error":{"code":"SLOT_CONFLICT","message":"..."}}.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorEnvelope{Error: APIError{Code: code, Message: message}})
}

// WriteInternal logs err under scope and answers 500. The cause is only
// echoed to the client when verbose is set.
func WriteInternal(w http.ResponseWriter, scope string, err error, verbose bool) {
	log.Printf("%s: internal error err=%v", scope, err)
	msg := "internal error"
	if verbose {
		msg = err.Error()
	}
	WriteError(w, http.StatusInternalServerError, CodeInternal, msg)
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
