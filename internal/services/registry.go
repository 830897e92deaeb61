package services

import (
	"context"
	"sort"
	"sync"
	"time"
)

const defaultCheckTimeout = 5 * time.Second

// Check status values
const (
	StatusOK   = "ok"
	StatusDown = "down"
)

// CheckResult is the outcome of one provider health check
type CheckResult struct {
	Type      string `json:"type"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// Readiness aggregates the health of every registered provider
type Readiness struct {
	Ready  bool                   `json:"ready"`
	Checks map[string]CheckResult `json:"checks"`
}

// Failed returns the names of providers that are down, in lexical order
func (r Readiness) Failed() []string {
	var names []string
	for name, c := range r.Checks {
		if c.Status != StatusOK {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Registry holds the delivery dependencies reported by /ready
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	timeout   time.Duration
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		timeout:   defaultCheckTimeout,
	}
}

// Register adds or replaces a provider under name
func (r *Registry) Register(name string, provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = provider
}

// List returns all registered provider names in lexical order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Readiness checks every provider concurrently, each bounded by the registry timeout
func (r *Registry) Readiness(ctx context.Context) Readiness {
	r.mu.RLock()
	providers := make(map[string]Provider, len(r.providers))
	for name, p := range r.providers {
		providers[name] = p
	}
	timeout := r.timeout
	r.mu.RUnlock()

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = Readiness{Ready: true, Checks: make(map[string]CheckResult, len(providers))}
	)
	for name, provider := range providers {
		wg.Add(1)
		go func(name string, provider Provider) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			start := time.Now()
			err := provider.HealthCheck(checkCtx)
			result := CheckResult{
				Type:      provider.Type(),
				Status:    StatusOK,
				LatencyMS: time.Since(start).Milliseconds(),
			}
			if err != nil {
				result.Status = StatusDown
				result.Error = err.Error()
			}

			mu.Lock()
			out.Checks[name] = result
			if err != nil {
				out.Ready = false
			}
			mu.Unlock()
		}(name, provider)
	}
	wg.Wait()
	return out
}
