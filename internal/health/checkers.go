package health

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/safetrail/safetrail/internal/risk"
)

const redisDegradedLatency = 200 * time.Millisecond

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// RedisChecker pings the Redis instance backing the rate limiter
type RedisChecker struct {
	client   redis.UniversalClient
	critical bool
}

// NewRedisChecker creates a RedisChecker. Redis only backs rate limiting,
// which fails open, so it is usually registered as non-critical.
func NewRedisChecker(client redis.UniversalClient, critical bool) *RedisChecker {
	return &RedisChecker{client: client, critical: critical}
}

// Name returns the checker name
func (r *RedisChecker) Name() string { return "redis" }

// IsCritical returns true if this component is critical for readiness
func (r *RedisChecker) IsCritical() bool { return r.critical }

// Check runs PING and measures latency
func (r *RedisChecker) Check(ctx context.Context) ComponentStatus {
	start := time.Now()
	err := r.client.Ping(ctx).Err()
	latency := time.Since(start)

	if err != nil {
		return ComponentStatus{
			Status:    StatusDown,
			LatencyMS: float64(latency.Milliseconds()),
			Details:   err.Error(),
			CheckedAt: now(),
		}
	}

	status, details := StatusUp, ""
	if latency > redisDegradedLatency {
		status, details = StatusDegraded, "high latency"
	}

	return ComponentStatus{
		Status:    status,
		LatencyMS: float64(latency.Milliseconds()),
		Details:   details,
		CheckedAt: now(),
	}
}

// RegistryChecker reports whether risk zones are loaded. An empty zone table
// is valid but leaves location risk at zero, so it is reported as degraded.
type RegistryChecker struct {
	registry *risk.Registry
}

// NewRegistryChecker creates a critical checker for the risk registry
func NewRegistryChecker(registry *risk.Registry) *RegistryChecker {
	return &RegistryChecker{registry: registry}
}

// Name returns the checker name
func (r *RegistryChecker) Name() string { return "risk_zones" }

// IsCritical returns true: the service cannot score without a registry
func (r *RegistryChecker) IsCritical() bool { return true }

// Check inspects the registry
func (r *RegistryChecker) Check(ctx context.Context) ComponentStatus {
	if r.registry == nil {
		return ComponentStatus{Status: StatusDown, Details: "risk registry not loaded", CheckedAt: now()}
	}

	zones := len(r.registry.Zones())
	night := len(r.registry.TimeProfile().NightHours)
	details := fmt.Sprintf("%d zones, %d night hours", zones, night)

	status := StatusUp
	if zones == 0 {
		status = StatusDegraded
	}
	return ComponentStatus{Status: status, Details: details, CheckedAt: now()}
}

// FuncChecker adapts a function into a HealthChecker
type FuncChecker struct {
	name     string
	check    func(context.Context) ComponentStatus
	critical bool
}

// NewFuncChecker creates a checker from a function
func NewFuncChecker(name string, check func(context.Context) ComponentStatus, critical bool) *FuncChecker {
	return &FuncChecker{name: name, check: check, critical: critical}
}

// Name returns the checker name
func (f *FuncChecker) Name() string { return f.name }

// IsCritical returns true if this component is critical for readiness
func (f *FuncChecker) IsCritical() bool { return f.critical }

// Check calls the wrapped function
func (f *FuncChecker) Check(ctx context.Context) ComponentStatus { return f.check(ctx) }
