package health

import (
	"context"
	"sync"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks,omitempty"`
}

// Service coordinates health checks. Components register as a command
// connects them, so it is safe for concurrent use.
type Service struct {
	mu     sync.RWMutex
	checks map[string]Pinger
}

// New creates a Service with no components.
func New() *Service {
	return &Service{checks: make(map[string]Pinger)}
}

// Register adds or replaces the component checked under name.
func (s *Service) Register(name string, p Pinger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = p
}

// Check pings every registered component.
func (s *Service) Check(ctx context.Context) Report {
	s.mu.RLock()
	defer s.mu.RUnlock()

	checks := make(map[string]CheckResult, len(s.checks))
	status := Healthy
	for name, p := range s.checks {
		if err := p.Ping(ctx); err != nil {
			checks[name] = CheckError
			status = Degraded
			continue
		}
		checks[name] = CheckOK
	}

	return Report{Status: status, Checks: checks}
}
