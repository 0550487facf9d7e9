package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/upb/login-telemetry/app"
	"github.com/upb/login-telemetry/services/ingest"
	"github.com/upb/login-telemetry/utils"
)

// maxBodyBytes caps the request body; a login event is a few hundred bytes
// in practice.
const maxBodyBytes = 1 << 20

// LoginHandler ingests a single reported login attempt: parse, then the
// pipeline (validate, redact, enrich, persist, notify). Notification
// outcomes never change the response determined by persistence.
func LoginHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			_ = utils.WriteErrorDetails(w, http.StatusBadRequest, "Invalid JSON", err.Error())
			return
		}
		if len(bytes.TrimSpace(body)) == 0 {
			_ = utils.WriteError(w, http.StatusBadRequest, "Empty body")
			return
		}

		var payload any
		if err := json.Unmarshal(body, &payload); err != nil {
			_ = utils.WriteErrorDetails(w, http.StatusBadRequest, "Invalid JSON", err.Error())
			return
		}

		result := deps.Ingest.Ingest(r.Context(), payload, utils.ClientIP(r), time.Now())
		switch result.State {
		case ingest.StateRejectedInvalid:
			_ = utils.WriteErrorDetails(w, http.StatusUnprocessableEntity, "Validation failed", result.ValidationErrors)
		case ingest.StateFailed:
			_ = utils.WriteError(w, http.StatusInternalServerError, "Failed to persist log")
		default:
			_ = utils.WriteJSON(w, http.StatusCreated, map[string]bool{"ok": true})
		}
	}
}
