package httpmiddleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures a fixed-window limit per client.
type RateLimitConfig struct {
	// Max requests allowed per client in one window. Zero disables limiting.
	Max    int
	Window time.Duration
	// KeyFunc identifies the client; defaults to the client IP.
	KeyFunc func(*http.Request) string
}

type window struct {
	start time.Time
	count int
}

// Limiter counts requests per client in fixed windows.
type Limiter struct {
	cfg RateLimitConfig
	now func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

// NewLimiter creates a Limiter.
func NewLimiter(cfg RateLimitConfig) *Limiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = ClientIP
	}
	return &Limiter{
		cfg:     cfg,
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

// allow records a request for key and reports whether it fits the limit,
// along with the end of the current window.
func (l *Limiter) allow(key string) (bool, time.Time) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	win, ok := l.windows[key]
	if !ok || now.Sub(win.start) >= l.cfg.Window {
		win = &window{start: now}
		l.windows[key] = win
	}
	reset := win.start.Add(l.cfg.Window)
	if win.count >= l.cfg.Max {
		return false, reset
	}
	win.count++
	return true, reset
}

func (l *Limiter) sweep() {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, win := range l.windows {
		if now.Sub(win.start) >= l.cfg.Window {
			delete(l.windows, key)
		}
	}
}

// Run drops finished windows once per window until ctx is cancelled.
func (l *Limiter) Run(ctx context.Context) error {
	if l.cfg.Max <= 0 || l.cfg.Window <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(l.cfg.Window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			l.sweep()
		}
	}
}

// Middleware rejects requests over the limit with 429 and a Retry-After
// header.
func (l *Limiter) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		if l.cfg.Max <= 0 || l.cfg.Window <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, reset := l.allow(l.cfg.KeyFunc(r))
			if !ok {
				retry := max(int(reset.Sub(l.now()).Round(time.Second).Seconds()), 1)
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the first X-Forwarded-For address, then X-Real-IP, then
// the connection's remote host.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
