package server

import (
	"encoding/json"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Error codes in the JSON error envelope.
const (
	codeNotFound       = "not_found"
	codeBadRequest     = "invalid_request"
	codeLocked         = "locked"
	codeWrongPassword  = "wrong_password"
	codeGateDisabled   = "gate_disabled"
	codePrefsDisabled  = "preferences_disabled"
	codeInternal       = "internal_error"
	codeSearchDisabled = "search_unavailable"
	codeReservedKey    = "reserved_key"
)

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Error:     code,
		Message:   message,
		RequestID: chimw.GetReqID(r.Context()),
	})
}
