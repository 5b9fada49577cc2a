package database

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Pinger is satisfied by every client in this package.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker pings a named set of dependencies concurrently.
type HealthChecker struct {
	timeout time.Duration
	mu      sync.RWMutex
	checks  map[string]Pinger
}

func NewHealthChecker(timeout time.Duration) *HealthChecker {
	return &HealthChecker{timeout: timeout, checks: make(map[string]Pinger)}
}

func (h *HealthChecker) Register(name string, p Pinger) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = p
}

// Check returns "ok" or the error text per dependency, and whether all passed.
func (h *HealthChecker) Check(ctx context.Context) (map[string]string, bool) {
	h.mu.RLock()
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	h.mu.RUnlock()
	sort.Strings(names)

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	results := make([]string, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		h.mu.RLock()
		p := h.checks[name]
		h.mu.RUnlock()

		wg.Add(1)
		go func(i int, p Pinger) {
			defer wg.Done()
			if err := p.Ping(ctx); err != nil {
				results[i] = err.Error()
				return
			}
			results[i] = "ok"
		}(i, p)
	}
	wg.Wait()

	status := make(map[string]string, len(names))
	healthy := true
	for i, name := range names {
		status[name] = results[i]
		if results[i] != "ok" {
			healthy = false
		}
	}
	return status, healthy
}
