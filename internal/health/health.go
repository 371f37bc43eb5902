package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

type StorageHealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusSkipped   Status = "skipped"
)

type ComponentHealth struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Latency int64  `json:"latency_ms"`
	Error   string `json:"error,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

type HealthResponse struct {
	Status     Status            `json:"status"`
	Components []ComponentHealth `json:"components,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// CheckFunc probes one dependency.
type CheckFunc func(ctx context.Context) error

type check struct {
	name string
	fn   CheckFunc
}

type Checker struct {
	checks  []check
	skipped []ComponentHealth
	timeout time.Duration
}

func NewChecker() *Checker {
	return &Checker{timeout: 5 * time.Second}
}

func (c *Checker) WithTimeout(d time.Duration) *Checker {
	c.timeout = d
	return c
}

func (c *Checker) WithStorage(s StorageHealthChecker) *Checker {
	return c.WithCheck("storage", s.HealthCheck)
}

func (c *Checker) WithCheck(name string, fn CheckFunc) *Checker {
	c.checks = append(c.checks, check{name: name, fn: fn})
	return c
}

// Skip records a component that is not configured.
func (c *Checker) Skip(name, reason string) *Checker {
	c.skipped = append(c.skipped, ComponentHealth{Name: name, Status: StatusSkipped, Detail: reason})
	return c
}

func (c *Checker) CheckAll(ctx context.Context) HealthResponse {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var wg sync.WaitGroup
	components := make([]ComponentHealth, 0, len(c.checks)+len(c.skipped))
	mu := sync.Mutex{}

	for _, chk := range c.checks {
		wg.Add(1)
		go func(chk check) {
			defer wg.Done()
			comp := run(ctx, chk)
			mu.Lock()
			components = append(components, comp)
			mu.Unlock()
		}(chk)
	}

	wg.Wait()
	components = append(components, c.skipped...)
	sort.Slice(components, func(i, j int) bool { return components[i].Name < components[j].Name })

	status := StatusHealthy
	for _, comp := range components {
		if comp.Status == StatusUnhealthy {
			status = StatusUnhealthy
			break
		}
	}

	return HealthResponse{
		Status:     status,
		Components: components,
		Timestamp:  time.Now(),
	}
}

func run(ctx context.Context, chk check) ComponentHealth {
	start := time.Now()
	err := chk.fn(ctx)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return ComponentHealth{
			Name:    chk.name,
			Status:  StatusUnhealthy,
			Latency: latency,
			Error:   err.Error(),
		}
	}
	return ComponentHealth{
		Name:    chk.name,
		Status:  StatusHealthy,
		Latency: latency,
	}
}
