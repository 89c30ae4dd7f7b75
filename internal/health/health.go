// Package health provides liveness, readiness and detailed health probes for
// SafeTrail services.
package health

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Component states
const (
	StatusUp       = "up"
	StatusDegraded = "degraded"
	StatusDown     = "down"
)

// Overall service states
const (
	ServiceHealthy   = "healthy"
	ServiceDegraded  = "degraded"
	ServiceUnhealthy = "unhealthy"
)

const checkTimeout = 5 * time.Second

// ComponentStatus represents the health status of a single component
type ComponentStatus struct {
	Status    string  `json:"status"`
	LatencyMS float64 `json:"latency_ms"`
	Details   string  `json:"details,omitempty"`
	CheckedAt string  `json:"checked_at"`
}

// HealthResponse is the response structure for health checks
type HealthResponse struct {
	Status     string                     `json:"status"`
	Service    string                     `json:"service"`
	Components map[string]ComponentStatus `json:"components"`
	Version    string                     `json:"version,omitempty"`
	Uptime     string                     `json:"uptime,omitempty"`
	Timestamp  string                     `json:"timestamp"`
}

// HealthChecker is the interface that dependency health checks must implement
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) ComponentStatus
	// IsCritical reports whether the component gates readiness
	IsCritical() bool
}

// HealthService orchestrates health checks across all registered dependencies
type HealthService struct {
	service   string
	checkers  []HealthChecker
	logger    *zap.Logger
	startTime time.Time
	version   string
	mu        sync.RWMutex
}

// NewHealthService creates a new HealthService
func NewHealthService(service string, logger *zap.Logger) *HealthService {
	return &HealthService{
		service:   service,
		logger:    logger.With(zap.String("component", "health")),
		startTime: time.Now(),
	}
}

// SetVersion sets the application version reported in health responses
func (h *HealthService) SetVersion(version string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.version = version
}

// RegisterCheck adds a new health checker to the service
func (h *HealthService) RegisterCheck(checker HealthChecker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers = append(h.checkers, checker)
	h.logger.Info("Registered health checker",
		zap.String("name", checker.Name()),
		zap.Bool("critical", checker.IsCritical()))
}

func (h *HealthService) snapshot() ([]HealthChecker, string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	checkers := make([]HealthChecker, len(h.checkers))
	copy(checkers, h.checkers)
	return checkers, h.version
}

// Check runs all registered health checkers concurrently and aggregates the results
func (h *HealthService) Check(ctx context.Context) *HealthResponse {
	checkers, version := h.snapshot()

	type result struct {
		name  string
		check ComponentStatus
	}
	results := make(chan result, len(checkers))

	for _, checker := range checkers {
		go func(c HealthChecker) {
			checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()
			results <- result{name: c.Name(), check: c.Check(checkCtx)}
		}(checker)
	}

	components := make(map[string]ComponentStatus, len(checkers))
	for range checkers {
		r := <-results
		components[r.name] = r.check
	}

	overall := ServiceHealthy
	for name, comp := range components {
		switch comp.Status {
		case StatusDown:
			overall = ServiceUnhealthy
			h.logger.Warn("Component is down", zap.String("name", name), zap.String("details", comp.Details))
		case StatusDegraded:
			if overall != ServiceUnhealthy {
				overall = ServiceDegraded
			}
			h.logger.Warn("Component is degraded", zap.String("name", name))
		}
	}

	return &HealthResponse{
		Status:     overall,
		Service:    h.service,
		Components: components,
		Version:    version,
		Uptime:     formatDuration(time.Since(h.startTime)),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
}

// Handler serves the detailed health report: 200 unless a component is down.
func (h *HealthService) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := h.Check(c.Request.Context())

		status := http.StatusOK
		if resp.Status == ServiceUnhealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, resp)
	}
}

// ReadyHandler returns 503 while any critical component is down.
func (h *HealthService) ReadyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := h.Check(c.Request.Context())
		checkers, _ := h.snapshot()

		for _, checker := range checkers {
			if !checker.IsCritical() {
				continue
			}
			if comp, ok := resp.Components[checker.Name()]; ok && comp.Status == StatusDown {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "not ready",
					"reason": fmt.Sprintf("critical component %s is down", checker.Name()),
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}

// LiveHandler always returns 200 while the process is alive.
func (h *HealthService) LiveHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "alive",
			"uptime": formatDuration(time.Since(h.startTime)),
		})
	}
}

// RegisterStandardRoutes registers the standard health endpoints on the given router
func (h *HealthService) RegisterStandardRoutes(router gin.IRoutes, prefix string) {
	if prefix == "" {
		prefix = "/health"
	}
	router.GET(prefix, h.Handler())
	router.GET(prefix+"/ready", h.ReadyHandler())
	router.GET(prefix+"/live", h.LiveHandler())
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
