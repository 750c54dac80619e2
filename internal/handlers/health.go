package handlers

import (
	"context"
	"net/http"
	"time"

	pkghttp "github.com/BradenHooton/fieldauth/pkg/http"
)

// HealthCheckFunc reports whether a dependency is reachable
type HealthCheckFunc func(ctx context.Context) error

// HealthHandler reports database and redis reachability
type HealthHandler struct {
	database HealthCheckFunc
	redis    HealthCheckFunc
	timeout  time.Duration
}

func NewHealthHandler(database, redis HealthCheckFunc) *HealthHandler {
	return &HealthHandler{database: database, redis: redis, timeout: 2 * time.Second}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := HealthResponse{
		Status:   "healthy",
		Database: dependencyStatus(ctx, h.database),
		Redis:    dependencyStatus(ctx, h.redis),
	}

	status := http.StatusOK
	if resp.Database != "up" || resp.Redis != "up" {
		resp.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	pkghttp.WriteJSON(w, status, resp)
}

func dependencyStatus(ctx context.Context, check HealthCheckFunc) string {
	if check == nil || check(ctx) != nil {
		return "down"
	}
	return "up"
}
