package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"bargain-store-backend/internal/interfaces"
	"bargain-store-backend/internal/models"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	db    interfaces.DatabaseInterface
	redis interfaces.RedisInterface
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db interfaces.DatabaseInterface, redis interfaces.RedisInterface) *HealthHandler {
	return &HealthHandler{
		db:    db,
		redis: redis,
	}
}

// HandleHealth processes GET /health requests
func (hh *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	status := "healthy"
	checks := make(map[string]string)

	if hh.db != nil {
		if err := hh.db.Ping(ctx); err != nil {
			checks["postgres"] = "unavailable"
			status = "degraded"
		} else {
			checks["postgres"] = "ok"
		}
	} else {
		checks["postgres"] = "not configured"
	}

	if hh.redis != nil {
		if err := hh.redis.Ping(ctx); err != nil {
			checks["redis"] = "unavailable"
			status = "degraded"
		} else {
			checks["redis"] = "ok"
		}
	} else {
		checks["redis"] = "not configured"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	json.NewEncoder(w).Encode(models.HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Services:  checks,
	})
}
