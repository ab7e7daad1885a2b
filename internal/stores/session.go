package stores

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flickx/internal/models"
	"github.com/desertthunder/flickx/internal/shared"
)

// AuthClient is the slice of [services.Client] the session needs.
type AuthClient interface {
	Me(ctx context.Context) (*models.UserInfo, error)
	Login(ctx context.Context, creds models.Credentials) error
	Logout(ctx context.Context) error
}

// Session holds the caller's authentication state.
type Session struct {
	client AuthClient
	logger *log.Logger

	mu     sync.Mutex
	state  models.Session
	gen    uint64
	closed bool
	subs   subscribers[models.Session]

	initOnce sync.Once
}

// NewSession creates a store in the loading state. Call [Session.Init] to run the first refresh.
func NewSession(client AuthClient, logger *log.Logger) *Session {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Session{
		client: client,
		logger: shared.WithLogger(logger, "component", "session"),
		state:  models.Session{Loading: true},
	}
}

// Init runs the first [Session.Refresh]. Later calls do nothing.
func (s *Session) Init(ctx context.Context) {
	s.initOnce.Do(func() { s.Refresh(ctx) })
}

// Refresh asks the proxy who the caller is and returns the resulting state.
//
// Any failure, or a response without a user, means signed out. When another refresh is issued before this one
// resolves, this one's result is dropped and the current state returned.
func (s *Session) Refresh(ctx context.Context) models.Session {
	s.mu.Lock()
	if s.closed {
		snap := s.state
		s.mu.Unlock()
		return snap
	}
	s.gen++
	gen := s.gen
	s.state.Loading = true
	snap := s.state
	s.mu.Unlock()
	s.subs.notify(snap)

	user, err := s.client.Me(ctx)
	if err != nil {
		s.logger.Debug("session refresh failed", "error", err)
	}

	s.mu.Lock()
	if gen != s.gen || s.closed {
		snap := s.state
		s.mu.Unlock()
		s.logger.Debug("dropping stale session refresh", "generation", gen)
		return snap
	}
	if err != nil || user == nil {
		s.state = models.Session{}
	} else {
		s.state = models.Session{Authenticated: true, User: user}
	}
	snap = s.state
	s.mu.Unlock()

	s.subs.notify(snap)
	return snap
}

// Login submits creds and then refreshes regardless of the outcome. The login error, if any, is returned.
func (s *Session) Login(ctx context.Context, creds models.Credentials) error {
	defer s.Refresh(ctx)
	return s.client.Login(ctx, creds)
}

// Logout ends the session and then refreshes regardless of the outcome.
func (s *Session) Logout(ctx context.Context) error {
	defer s.Refresh(ctx)
	return s.client.Logout(ctx)
}

// Snapshot returns the current state.
func (s *Session) Snapshot() models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Authenticated reports whether the last applied refresh found a user.
func (s *Session) Authenticated() bool {
	return s.Snapshot().Authenticated
}

// Subscribe registers fn for every state change and returns a function that removes it.
func (s *Session) Subscribe(fn func(models.Session)) (unsubscribe func()) {
	return s.subs.add(fn)
}

// Teardown stops notifications and freezes the state. In-flight refreshes resolve without effect.
func (s *Session) Teardown() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.subs.clear()
}

// subscribers is a set of callbacks safe for concurrent use.
type subscribers[T any] struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(T)
}

func (s *subscribers[T]) add(fn func(T)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[int]func(T))
	}
	id := s.next
	s.next++
	s.fns[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.fns, id)
	}
}

func (s *subscribers[T]) notify(v T) {
	s.mu.Lock()
	fns := make([]func(T), 0, len(s.fns))
	for _, fn := range s.fns {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

func (s *subscribers[T]) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fns = nil
}
