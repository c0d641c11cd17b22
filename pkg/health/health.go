// Package health serves liveness and readiness probes backed by periodic
// checks. A check flips to unhealthy after FailureThreshold consecutive
// failures and back after SuccessThreshold consecutive successes.
package health

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
)

// CheckFunc reports a component problem as a non-nil error.
type CheckFunc func(ctx context.Context) error

// Probe selects the endpoint a check contributes to.
type Probe int

const (
	Liveness Probe = iota
	Readiness
)

// Thresholds control flapping. Zero values default to 3 failures and
// 1 success.
type Thresholds struct {
	FailureThreshold int
	SuccessThreshold int
}

type check struct {
	name    string
	probe   Probe
	timeout time.Duration
	fn      CheckFunc
	limits  Thresholds

	healthy atomic.Bool
	lastErr atomic.Pointer[string]

	// Touched only by the goroutine running the check.
	fails, oks int
}

func (c *check) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.fn(ctx); err != nil {
		msg := err.Error()
		c.lastErr.Store(&msg)
		c.oks = 0
		c.fails++
		if c.fails >= c.limits.FailureThreshold {
			c.healthy.Store(false)
		}
		return
	}
	c.lastErr.Store(nil)
	c.fails = 0
	c.oks++
	if c.oks >= c.limits.SuccessThreshold {
		c.healthy.Store(true)
	}
}

func (c *check) failure() (string, bool) {
	if c.healthy.Load() {
		return "", false
	}
	if msg := c.lastErr.Load(); msg != nil {
		return *msg, true
	}
	return "check is unhealthy", true
}

// Health holds registered checks and the manual readiness switch.
type Health struct {
	limits Thresholds
	ready  atomic.Bool

	mu     sync.RWMutex
	checks []*check
}

// New creates a Health that starts not ready.
func New(limits Thresholds) *Health {
	if limits.FailureThreshold <= 0 {
		limits.FailureThreshold = 3
	}
	if limits.SuccessThreshold <= 0 {
		limits.SuccessThreshold = 1
	}
	return &Health{limits: limits}
}

// Register adds a check. Checks start healthy.
func (h *Health) Register(probe Probe, name string, timeout time.Duration, fn CheckFunc) {
	c := &check{
		name:    name,
		probe:   probe,
		timeout: timeout,
		fn:      fn,
		limits:  h.limits,
	}
	c.healthy.Store(true)

	h.mu.Lock()
	h.checks = append(h.checks, c)
	h.mu.Unlock()
}

// SetReady flips the manual readiness switch.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// Run executes every registered check immediately and then once per interval,
// each in its own goroutine. It blocks until ctx is cancelled and all check
// goroutines have returned.
func (h *Health) Run(ctx context.Context, interval time.Duration) error {
	h.mu.RLock()
	checks := slices.Clone(h.checks)
	h.mu.RUnlock()

	var wg sync.WaitGroup
	for _, c := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			c.run(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					c.run(ctx)
				}
			}
		}()
	}
	wg.Wait()
	return nil
}

// LiveEndpoint serves /livez.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, h.failures(Liveness))
}

// ReadyEndpoint serves /readyz. The service is ready only when marked ready
// and every readiness check passes.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	failures := h.failures(Readiness)
	if !h.ready.Load() {
		failures = append(failures, failure{name: "_readiness", msg: "service is not ready"})
	}
	writeStatus(w, failures)
}

type failure struct {
	name, msg string
}

func (h *Health) failures(probe Probe) []failure {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []failure
	for _, c := range h.checks {
		if c.probe != probe {
			continue
		}
		if msg, failed := c.failure(); failed {
			out = append(out, failure{name: c.name, msg: msg})
		}
	}
	return out
}

func writeStatus(w http.ResponseWriter, failures []failure) {
	slices.SortFunc(failures, func(a, b failure) int {
		return strings.Compare(a.name, b.name)
	})

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("status")
	status := http.StatusOK
	if len(failures) == 0 {
		e.Str("ok")
	} else {
		status = http.StatusServiceUnavailable
		e.Str("unhealthy")
		e.FieldStart("checks")
		e.ObjStart()
		for _, f := range failures {
			e.FieldStart(f.name)
			e.Str(f.msg)
		}
		e.ObjEnd()
	}
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
