package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/otcheredev/hms-web/internal/navigation"
	"github.com/rs/zerolog/log"
)

// apiResponse mirrors the envelope the backends use
type apiResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message,omitempty"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// APIHandler exposes the session to scripts running in the browser
type APIHandler struct{}

func NewAPIHandler() *APIHandler {
	return &APIHandler{}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(apiResponse{Success: true, Data: data, Timestamp: time.Now()}); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// Session returns the signed-in user without the bearer token
func (h *APIHandler) Session(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, actor(r).Public())
}

// Navigation returns the sidebar entries for the signed-in role
func (h *APIHandler) Navigation(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, navigation.For(actor(r).Role))
}
