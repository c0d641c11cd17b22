package session

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/tile-storefront/internal/domain/product"
)

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// StoreConfig controls session lifetime.
type StoreConfig struct {
	// IdleTimeout evicts sessions untouched for this long. Zero keeps
	// sessions forever.
	IdleTimeout time.Duration
	// MaxSessions caps the number of live sessions. Zero means no cap.
	MaxSessions int
}

// ErrTooManySessions is returned by Create when MaxSessions is reached.
var ErrTooManySessions = errors.New("too many sessions")

// Store keeps sessions in memory. Carts are not persisted.
type Store struct {
	cfg      StoreConfig
	products product.Repository
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewStore creates a Store whose sessions read products from products.
func NewStore(products product.Repository, cfg StoreConfig) *Store {
	return &Store{
		cfg:      cfg,
		products: products,
		now:      time.Now,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Create starts a new session with an empty cart. Expired sessions are
// evicted before the session cap is enforced.
func (st *Store) Create() (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.full() {
		st.evictLocked(st.now())
	}
	if st.full() {
		return nil, ErrTooManySessions
	}

	s := newSession(uuid.New(), st.products, st.now)
	st.sessions[s.id] = s
	return s, nil
}

// Get returns a live session and marks it as seen, so shoppers who only view
// their cart are not expired.
func (st *Store) Get(id uuid.UUID) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()

	if !ok || st.expired(s, st.now()) {
		return nil, ErrNotFound
	}
	s.touch()
	return s, nil
}

// Len returns the number of stored sessions, including expired ones not yet
// evicted.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

func (st *Store) full() bool {
	return st.cfg.MaxSessions > 0 && len(st.sessions) >= st.cfg.MaxSessions
}

func (st *Store) expired(s *Session, now time.Time) bool {
	return st.cfg.IdleTimeout > 0 && now.Sub(s.idleSince()) >= st.cfg.IdleTimeout
}

// evict removes expired sessions and returns how many were removed.
func (st *Store) evict(now time.Time) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.evictLocked(now)
}

func (st *Store) evictLocked(now time.Time) int {
	n := 0
	for id, s := range st.sessions {
		if st.expired(s, now) {
			delete(st.sessions, id)
			n++
		}
	}
	return n
}

// Run evicts idle sessions every interval until ctx is cancelled.
func (st *Store) Run(ctx context.Context, interval time.Duration) error {
	if st.cfg.IdleTimeout <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lg := zctx.From(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := st.evict(st.now()); n > 0 {
				lg.Debug("Evicted idle sessions", zap.Int("count", n))
			}
		}
	}
}
