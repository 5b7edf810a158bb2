package health

import (
	"context"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vietddude/newsdesk/internal/core/metrics"
)

type service struct {
	name     string
	checker  Checker
	critical bool
}

// Monitor aggregates health status from the registered services.
type Monitor struct {
	services   []service
	ttl        time.Duration
	timeout    time.Duration
	lastCheck  time.Time
	lastReport *Report
	mu         sync.Mutex
	refresh    singleflight.Group
}

// NewMonitor creates a monitor that reuses a report for ttl and gives each checker at
// most checkTimeout. A zero ttl checks on every call; a zero checkTimeout only uses
// the caller's context.
func NewMonitor(ttl, checkTimeout time.Duration) *Monitor {
	return &Monitor{ttl: ttl, timeout: checkTimeout}
}

// Register adds a service. A failing critical service marks the system down; a failing
// optional one only degrades it.
func (m *Monitor) Register(name string, checker Checker, critical bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services = append(m.services, service{name: name, checker: checker, critical: critical})
	m.lastReport = nil
}

// CheckHealth runs all checks, or returns the cached report if it is still fresh.
// Concurrent callers share one run of the checks.
func (m *Monitor) CheckHealth(ctx context.Context) Report {
	m.mu.Lock()
	if m.lastReport != nil && time.Since(m.lastCheck) < m.ttl {
		report := *m.lastReport
		m.mu.Unlock()
		return report
	}
	services := slices.Clone(m.services)
	m.mu.Unlock()

	v, _, _ := m.refresh.Do("report", func() (any, error) {
		report := m.runChecks(ctx, services)

		m.mu.Lock()
		m.lastCheck = time.Now()
		m.lastReport = &report
		m.mu.Unlock()
		return report, nil
	})
	return v.(Report)
}

func (m *Monitor) runChecks(ctx context.Context, services []service) Report {
	report := Report{
		Status:    StatusOK,
		Timestamp: time.Now().UTC(),
		Services:  make(map[string]ServiceStatus, len(services)),
	}

	for _, svc := range services {
		if m.check(ctx, svc.checker) {
			report.Services[svc.name] = ServiceHealthy
			metrics.ServiceHealthy.WithLabelValues(svc.name).Set(1)
			continue
		}

		report.Services[svc.name] = ServiceUnhealthy
		metrics.ServiceHealthy.WithLabelValues(svc.name).Set(0)
		if svc.critical {
			report.Status = StatusDown
		} else if report.Status == StatusOK {
			report.Status = StatusDegraded
		}
	}
	return report
}

func (m *Monitor) check(ctx context.Context, checker Checker) bool {
	if m.timeout <= 0 {
		return checker.HealthCheck(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return checker.HealthCheck(ctx)
}
