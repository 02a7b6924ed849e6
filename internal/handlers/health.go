package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/otcheredev/hms-web/internal/cache"
	"github.com/otcheredev/hms-web/internal/database"
	"gorm.io/gorm"
)

type HealthHandler struct {
	sessions cache.Cache
	db       *gorm.DB
}

// NewHealthHandler creates the health endpoints; db is nil when auditing is off
func NewHealthHandler(sessions cache.Cache, db *gorm.DB) *HealthHandler {
	return &HealthHandler{sessions: sessions, db: db}
}

type healthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

func (h *HealthHandler) check(ctx context.Context) healthResponse {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	response := healthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Services:  make(map[string]string),
	}

	if err := h.sessions.Ping(ctx); err != nil {
		response.Services["session_store"] = "unhealthy"
		response.Status = "degraded"
	} else {
		response.Services["session_store"] = "healthy"
	}

	if h.db != nil {
		if err := database.Ping(ctx, h.db); err != nil {
			response.Services["database"] = "unhealthy"
			response.Status = "degraded"
		} else {
			response.Services["database"] = "healthy"
		}
	}
	return response
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := h.check(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if response.Status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(response)
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.check(r.Context()).Status != "healthy" {
		http.Error(w, "Service not ready", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
