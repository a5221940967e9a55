package chat

import (
	"sync"
	"time"

	"github.com/Veraticus/cashmind/internal/common"
)

// DefaultSessionTTL is how long an idle session is kept.
const DefaultSessionTTL = 30 * time.Minute

// SessionFactory builds a new session with the given id.
type SessionFactory func(id string) *Session

// Registry keeps one Session per conversation and expires idle ones.
type Registry struct {
	sessions map[string]*Session
	factory  SessionFactory
	now      func() time.Time
	stopCh   chan struct{}
	ttl      time.Duration
	mu       sync.RWMutex
	stopOnce sync.Once
}

// NewRegistry creates a registry and starts its cleanup goroutine.
func NewRegistry(factory SessionFactory, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	r := &Registry{
		sessions: make(map[string]*Session),
		factory:  factory,
		now:      time.Now,
		ttl:      ttl,
		stopCh:   make(chan struct{}),
	}

	go r.cleanup(cleanupInterval(ttl))

	return r
}

func cleanupInterval(ttl time.Duration) time.Duration {
	interval := ttl / 4
	if interval > 5*time.Minute {
		interval = 5 * time.Minute
	}
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}

// Create starts a new session with a fresh id.
func (r *Registry) Create() *Session {
	s := r.factory("")

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID()] = s
	return s
}

// Get returns a live session.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()

	if !ok || r.expired(s) {
		return nil, common.ErrNotFound
	}
	return s, nil
}

// Delete closes and forgets a session.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return common.ErrNotFound
	}
	s.Close()
	return nil
}

// Len returns the number of tracked sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) expired(s *Session) bool {
	return !s.IsProcessing() && r.now().Sub(s.LastActive()) > r.ttl
}

// evict drops expired sessions.
func (r *Registry) evict() int {
	r.mu.Lock()
	var stale []*Session
	for id, s := range r.sessions {
		if r.expired(s) {
			stale = append(stale, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	return len(stale)
}

func (r *Registry) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.evict()
		}
	}
}

// Close stops the cleanup goroutine and closes every session.
func (r *Registry) Close() {
	r.stopOnce.Do(func() { close(r.stopCh) })

	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
