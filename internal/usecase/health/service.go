// Package health probes the stores clusterdb depends on.
package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Pinger checks a dependency's availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Status is the overall verdict. Only the document store is critical:
// losing Redis costs the count cache and events, not correctness.
type Status string

const (
	Healthy   Status = "ok"
	Degraded  Status = "degraded"
	Unhealthy Status = "error"
)

// CheckResult is one component's outcome.
type CheckResult string

const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

// Component names in Report.Checks.
const (
	ComponentMongo = "mongo"
	ComponentRedis = "redis"
)

// DefaultProbeTimeout bounds each component probe.
const DefaultProbeTimeout = 2 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

type component struct {
	name     string
	pinger   Pinger
	critical bool
}

// Service probes components concurrently.
type Service struct {
	components []component
	timeout    time.Duration
}

// New creates a Service. redis can be nil when Redis-backed features are off.
func New(mongo, redis Pinger) *Service {
	s := &Service{
		components: []component{{name: ComponentMongo, pinger: mongo, critical: true}},
		timeout:    DefaultProbeTimeout,
	}
	if redis != nil {
		s.components = append(s.components, component{name: ComponentRedis, pinger: redis})
	}
	return s
}

// WithProbeTimeout overrides the per-probe deadline. Non-positive values are ignored.
func (s *Service) WithProbeTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Check pings every component in parallel and folds the results.
func (s *Service) Check(ctx context.Context) Report {
	var (
		mu     sync.Mutex
		checks = make(map[string]CheckResult, len(s.components))
	)
	var g errgroup.Group
	for _, c := range s.components {
		g.Go(func() error {
			res := s.probe(ctx, c.pinger)
			mu.Lock()
			checks[c.name] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	status := Healthy
	for _, c := range s.components {
		if checks[c.name] == CheckOK {
			continue
		}
		if c.critical {
			status = Unhealthy
			break
		}
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}

func (s *Service) probe(ctx context.Context, p Pinger) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}
