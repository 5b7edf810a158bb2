// Package health provides service health monitoring and status reporting.
package health

import (
	"context"
	"time"
)

// ServiceStatus is the health of a single dependent service.
type ServiceStatus string

const (
	ServiceHealthy   ServiceStatus = "healthy"
	ServiceUnhealthy ServiceStatus = "unhealthy"
)

// SystemStatus represents the overall health state of the process.
type SystemStatus string

const (
	StatusOK       SystemStatus = "ok"
	StatusDegraded SystemStatus = "degraded"
	StatusDown     SystemStatus = "down"
)

// DatabaseService is the name the database is reported under.
const DatabaseService = "database"

// Checker reports whether a service is usable. Implementations must not panic or block
// past ctx.
type Checker interface {
	HealthCheck(ctx context.Context) bool
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) bool

func (f CheckerFunc) HealthCheck(ctx context.Context) bool { return f(ctx) }

// Report contains the full health report.
type Report struct {
	Status    SystemStatus             `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Services  map[string]ServiceStatus `json:"services"`
}
