package auth

import (
	"context"
	"sync"
)

// State is what the auth bootstrap knows about the current mailbox owner.
// Email is empty when no Gmail account is connected. MailErr explains a
// mailbox that could not be reached; unlike Err it does not block readiness.
type State struct {
	Email   string
	MailErr error
	Err     error
}

func (s State) Authenticated() bool {
	return s.Email != "" && s.Err == nil
}

// Observer delivers auth state changes. Subscribers registered after the
// first publish receive the latest state right away.
type Observer interface {
	OnAuthStateChanged(fn func(State)) (unsubscribe func())
}

// Broadcaster is the in-process Observer fed by the Gmail bootstrap.
type Broadcaster struct {
	mu        sync.Mutex
	nextID    int
	subs      map[int]func(State)
	current   State
	published bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]func(State))}
}

func (b *Broadcaster) OnAuthStateChanged(fn func(State)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	current, published := b.current, b.published
	b.mu.Unlock()

	if published {
		fn(current)
	}

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish records the state and notifies every subscriber outside the lock,
// so callbacks may unsubscribe.
func (b *Broadcaster) Publish(s State) {
	b.mu.Lock()
	b.current = s
	b.published = true
	fns := make([]func(State), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

func (b *Broadcaster) Current() (State, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current, b.published
}

// WaitReady blocks until the observer emits once, then stops observing.
// A state carrying Err is returned as an error.
func WaitReady(ctx context.Context, obs Observer) (State, error) {
	ready := make(chan State, 1)
	unsubscribe := obs.OnAuthStateChanged(func(s State) {
		select {
		case ready <- s:
		default:
		}
	})
	defer unsubscribe()

	select {
	case s := <-ready:
		return s, s.Err
	case <-ctx.Done():
		return State{}, ctx.Err()
	}
}
