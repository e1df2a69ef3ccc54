package monitoring

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ProbeStatus encodes the outcome of a health probe.
type ProbeStatus string

const (
	StatusUp       ProbeStatus = "up"
	StatusDown     ProbeStatus = "down"
	StatusDegraded ProbeStatus = "degraded"
)

// ProbeResult captures a single dependency check outcome.
type ProbeResult struct {
	Component string        `json:"component"`
	Status    ProbeStatus   `json:"status"`
	Details   string        `json:"details,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// HealthReport aggregates probe results.
type HealthReport struct {
	Success bool          `json:"success"`
	Status  ProbeStatus   `json:"status"`
	Checks  []ProbeResult `json:"checks"`
}

// Probe checks one dependency. A deadline or cancellation error marks the
// component degraded, any other error marks it down.
type Probe func(ctx context.Context) error

type namedProbe struct {
	name  string
	probe Probe
}

// HealthManager runs the registered readiness probes.
type HealthManager struct {
	probes  []namedProbe
	timeout time.Duration
}

const defaultProbeTimeout = 2 * time.Second

// NewHealthManager constructs a manager whose probes each get timeout to finish.
func NewHealthManager(timeout time.Duration) *HealthManager {
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	return &HealthManager{timeout: timeout}
}

// Register appends a named probe. Unnamed or nil probes are ignored.
func (m *HealthManager) Register(name string, probe Probe) {
	if name == "" || probe == nil {
		return
	}
	m.probes = append(m.probes, namedProbe{name: name, probe: probe})
}

// Evaluate runs every probe in registration order.
func (m *HealthManager) Evaluate(ctx context.Context) HealthReport {
	if ctx == nil {
		ctx = context.Background()
	}

	report := HealthReport{
		Success: true,
		Status:  StatusUp,
		Checks:  make([]ProbeResult, 0, len(m.probes)),
	}

	for _, p := range m.probes {
		result := m.run(ctx, p)
		report.Checks = append(report.Checks, result)

		switch result.Status {
		case StatusDown:
			report.Success = false
			report.Status = StatusDown
		case StatusDegraded:
			report.Success = false
			if report.Status != StatusDown {
				report.Status = StatusDegraded
			}
		}
	}
	return report
}

func (m *HealthManager) run(ctx context.Context, p namedProbe) (result ProbeResult) {
	start := time.Now()
	probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			result = ResultFromError(p.name, fmt.Errorf("probe panicked: %v", rec), time.Since(start))
		}
	}()

	return ResultFromError(p.name, p.probe(probeCtx), time.Since(start))
}

// ResultFromError converts an error into a ProbeResult.
func ResultFromError(component string, err error, duration time.Duration) ProbeResult {
	if duration < 0 {
		duration = 0
	}
	if err == nil {
		return ProbeResult{Component: component, Status: StatusUp, Duration: duration}
	}

	status := StatusDown
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		status = StatusDegraded
	}

	return ProbeResult{
		Component: component,
		Status:    status,
		Details:   err.Error(),
		Duration:  duration,
	}
}
