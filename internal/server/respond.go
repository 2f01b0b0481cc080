package server

import (
	"encoding/json"
	"net/http"

	"github.com/inletmail/gmail-mcp/internal/auth"
)

type successEnvelope struct {
	Success bool   `json:"success"`
	Result  string `json:"result"`
}

type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeResult(w http.ResponseWriter, result string) {
	writeJSON(w, http.StatusOK, successEnvelope{Success: true, Result: result})
}

// writeError maps the error to an HTTP status via the credential error
// taxonomy and emits the error envelope.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, auth.StatusCodeOf(err), errorEnvelope{
		Error:   errorLabel(err),
		Message: err.Error(),
	})
}

func writeErrorStatus(w http.ResponseWriter, status int, label, message string) {
	writeJSON(w, status, errorEnvelope{Error: label, Message: message})
}

func errorLabel(err error) string {
	switch auth.KindOf(err) {
	case auth.KindMissingCredentials, auth.KindValidation:
		return "bad_request"
	case auth.KindMissingAccessToken, auth.KindExpiredCredentials, auth.KindAuthentication:
		return "unauthorized"
	case auth.KindNotFound:
		return "not_found"
	default:
		return "internal_error"
	}
}
