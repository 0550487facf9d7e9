package utils

import (
	"encoding/json"
	"net"
	"net/http"
)

// ErrorResponse is the wire shape for every error this service returns.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}

	return json.NewEncoder(w).Encode(data)
}

// WriteError writes an error response with the given status code.
func WriteError(w http.ResponseWriter, status int, message string) error {
	return WriteJSON(w, status, ErrorResponse{Error: message})
}

// WriteErrorDetails writes an error response carrying machine-readable
// details alongside the message.
func WriteErrorDetails(w http.ResponseWriter, status int, message string, details any) error {
	return WriteJSON(w, status, ErrorResponse{Error: message, Details: details})
}

// ClientIP extracts the client address from the request. chi's RealIP
// middleware has already folded X-Forwarded-For / X-Real-IP into
// RemoteAddr by the time handlers see the request.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
