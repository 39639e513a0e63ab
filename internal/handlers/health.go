package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/agristat/internal/errors"
	"github.com/stwalsh4118/agristat/internal/store"
)

const (
	// APIVersion is the current version of the API
	APIVersion = "0.1.0"
	// HealthCheckTimeout is the timeout for database health checks
	HealthCheckTimeout = 2 * time.Second
)

// Pinger checks a backing database. *database.Database implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check and readiness endpoints.
type HealthHandler struct {
	store     *store.Store
	db        Pinger
	startTime time.Time
	env       string
}

// NewHealthHandler creates a new HealthHandler instance. db may be nil when
// the data does not come from Postgres.
func NewHealthHandler(st *store.Store, db Pinger, env string) *HealthHandler {
	return &HealthHandler{
		store:     st,
		db:        db,
		startTime: time.Now(),
		env:       env,
	}
}

// HealthResponse represents the basic health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Status   string `json:"status"`
	Source   string `json:"source"`
	Database string `json:"database,omitempty"`
}

// InfoResponse represents the API information response.
type InfoResponse struct {
	Version     string       `json:"version"`
	Environment string       `json:"environment"`
	Uptime      string       `json:"uptime"`
	Source      string       `json:"source"`
	Records     store.Counts `json:"records"`
}

// Health handles GET /health endpoint.
// It does not check any dependencies and is used for basic liveness checks.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "healthy",
	})
}

// Ready handles GET /health/ready endpoint.
// The service is ready when its data loaded and, for Postgres-backed data,
// the database still answers a ping.
func (h *HealthHandler) Ready(c *gin.Context) {
	if err := h.store.LoadErr(); err != nil {
		apierrors.ServiceUnavailable(c, apierrors.ErrServiceUnavailable, "Data failed to load from "+h.store.Source(), err)
		return
	}

	resp := ReadyResponse{
		Status: "ready",
		Source: h.store.Source(),
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), HealthCheckTimeout)
		defer cancel()

		if err := h.db.Ping(ctx); err != nil {
			apierrors.ServiceUnavailable(c, apierrors.ErrDatabaseConnection, "Database connection failed", err)
			return
		}
		resp.Database = "connected"
	}

	c.JSON(http.StatusOK, resp)
}

// Info handles GET /api/info endpoint.
// Returns API metadata including version, environment, uptime and what was
// loaded.
func (h *HealthHandler) Info(c *gin.Context) {
	uptime := time.Since(h.startTime)

	c.JSON(http.StatusOK, InfoResponse{
		Version:     APIVersion,
		Environment: h.env,
		Uptime:      formatUptime(uptime),
		Source:      h.store.Source(),
		Records:     h.store.Counts(),
	})
}

// formatUptime formats a duration into a human-readable string.
func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}
