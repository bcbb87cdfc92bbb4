package board

import (
	"context"
	"sync"
	"time"

	"github.com/justsurfingit/job-board/internal/auth"
	"github.com/justsurfingit/job-board/internal/metrics"
)

// Session is one mounted board plus the toasts waiting to be shown.
type Session struct {
	Page   *Page
	Toasts *ToastQueue

	lastSeen time.Time
}

// Registry holds a board per browser session. Creating an entry is the
// page mount; dropping it is navigating away.
type Registry struct {
	store    ApplicationStore
	observer auth.Observer
	idleTTL  time.Duration
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(store ApplicationStore, observer auth.Observer, idleTTL time.Duration) *Registry {
	return &Registry{
		store:    store,
		observer: observer,
		idleTTL:  idleTTL,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session's board, mounting a fresh one when none exists or
// the old one sat idle past the TTL. mounted reports a fresh mount.
func (r *Registry) Get(id string) (s *Session, mounted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if s, ok := r.sessions[id]; ok && now.Sub(s.lastSeen) < r.idleTTL {
		s.lastSeen = now
		return s, false
	}

	toasts := &ToastQueue{}
	s = &Session{
		Page:     NewPage(r.store, r.observer, toasts),
		Toasts:   toasts,
		lastSeen: now,
	}
	r.sessions[id] = s
	metrics.ActiveBoardSessions.Set(float64(len(r.sessions)))
	return s, true
}

// Drop unmounts a session's board, e.g. after a fatal load error.
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	metrics.ActiveBoardSessions.Set(float64(len(r.sessions)))
	r.mu.Unlock()
}

// Sweep removes idle sessions and returns how many were dropped.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	dropped := 0
	for id, s := range r.sessions {
		if now.Sub(s.lastSeen) >= r.idleTTL {
			delete(r.sessions, id)
			dropped++
		}
	}
	metrics.ActiveBoardSessions.Set(float64(len(r.sessions)))
	return dropped
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// RunSweeper drops idle sessions every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
