package stores

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flickx/internal/models"
	"github.com/desertthunder/flickx/internal/shared"
)

// MembershipClient is the slice of [services.Client] a membership store needs.
type MembershipClient interface {
	MembershipIDs(ctx context.Context, kind models.MembershipKind) ([]int64, error)
	AddMember(ctx context.Context, kind models.MembershipKind, payload models.MoviePayload) error
	RemoveMember(ctx context.Context, kind models.MembershipKind, movieID int64) error
}

// LoginRequiredError is returned by mutations attempted while signed out.
type LoginRequiredError struct {
	Message string
}

func (e *LoginRequiredError) Error() string { return e.Message }

func (e *LoginRequiredError) Unwrap() error { return shared.ErrNotAuthenticated }

// MembershipState is what subscribers of a [Membership] receive.
type MembershipState struct {
	Kind    models.MembershipKind
	IDs     []int64
	Loading bool
}

// Membership is the set of movie ids in one relation for the signed-in caller.
type Membership struct {
	kind   models.MembershipKind
	client MembershipClient
	logger *log.Logger

	mu            sync.Mutex
	ids           map[int64]struct{}
	loading       bool
	authenticated bool
	// epoch counts sign-in state changes; a mutation confirmed in an older epoch is not applied.
	epoch    uint64
	gen      uint64
	toggling map[int64]struct{}
	closed   bool
	subs     subscribers[MembershipState]
	detach   func()
}

// NewMembership creates an empty, signed-out store for kind. Use [Membership.Attach] to follow a [Session].
func NewMembership(kind models.MembershipKind, client MembershipClient, logger *log.Logger) *Membership {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Membership{
		kind:     kind,
		client:   client,
		logger:   shared.WithLogger(logger, "component", "membership", "kind", kind.String()),
		ids:      make(map[int64]struct{}),
		toggling: make(map[int64]struct{}),
	}
}

// Kind returns the relation this store tracks.
func (m *Membership) Kind() models.MembershipKind { return m.kind }

// Attach follows session: signing in refetches the ids, signing out clears them. The current state is applied
// immediately. Fetches triggered by the session run in the goroutine that changed it, using ctx.
func (m *Membership) Attach(ctx context.Context, session *Session) {
	m.apply(ctx, session.Snapshot())
	unsubscribe := session.Subscribe(func(s models.Session) { m.apply(ctx, s) })

	m.mu.Lock()
	if m.detach != nil {
		m.detach()
	}
	m.detach = unsubscribe
	m.mu.Unlock()
}

func (m *Membership) apply(ctx context.Context, s models.Session) {
	if s.Loading {
		return
	}

	m.mu.Lock()
	changed := m.authenticated != s.Authenticated
	if changed {
		m.epoch++
	}
	m.authenticated = s.Authenticated
	m.mu.Unlock()

	if !changed {
		return
	}
	if err := m.FetchIDs(ctx); err != nil {
		m.logger.Warn("failed to sync membership", "error", err)
	}
}

// SetAuthenticated records the session state without attaching to a [Session].
func (m *Membership) SetAuthenticated(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.authenticated != ok {
		m.epoch++
	}
	m.authenticated = ok
}

// FetchIDs replaces the local set with the proxy's id list.
//
// Signed out, the set is cleared without a call. A failed fetch leaves the set as it was.
func (m *Membership) FetchIDs(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.gen++
	gen := m.gen
	if !m.authenticated {
		m.ids = make(map[int64]struct{})
		m.loading = false
		snap := m.snapshotLocked()
		m.mu.Unlock()
		m.subs.notify(snap)
		return nil
	}
	m.loading = true
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.subs.notify(snap)

	ids, err := m.client.MembershipIDs(ctx, m.kind)

	m.mu.Lock()
	if gen != m.gen || m.closed {
		m.mu.Unlock()
		return nil
	}
	m.loading = false
	if err == nil {
		m.ids = make(map[int64]struct{}, len(ids))
		for _, id := range ids {
			m.ids[id] = struct{}{}
		}
	}
	snap = m.snapshotLocked()
	m.mu.Unlock()
	m.subs.notify(snap)

	if err != nil {
		return fmt.Errorf("fetch %s ids: %w", m.kind, err)
	}
	return nil
}

// Refetch is [Membership.FetchIDs], for callers that changed the relation behind the store's back.
func (m *Membership) Refetch(ctx context.Context) error {
	return m.FetchIDs(ctx)
}

// IsMember reports whether id is in the local set.
func (m *Membership) IsMember(id int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.ids[id]
	return ok
}

// IDs returns the local set in ascending order.
func (m *Membership) IDs() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedLocked()
}

// Loading reports whether an id fetch is in flight.
func (m *Membership) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// Add submits payload and inserts its id once the proxy confirms. A confirmation that arrives after the session
// signed out or changed is not applied.
func (m *Membership) Add(ctx context.Context, payload models.MoviePayload) error {
	epoch, ok := m.signedIn()
	if !ok {
		return &LoginRequiredError{Message: m.kind.Messages().LoginToAdd}
	}
	if err := m.client.AddMember(ctx, m.kind, payload); err != nil {
		return err
	}
	m.mutate(epoch, func(ids map[int64]struct{}) { ids[payload.MovieID] = struct{}{} })
	return nil
}

// Remove deletes id and drops it from the local set once the proxy confirms.
func (m *Membership) Remove(ctx context.Context, id int64) error {
	epoch, ok := m.signedIn()
	if !ok {
		return &LoginRequiredError{Message: m.kind.Messages().LoginToRemove}
	}
	if err := m.client.RemoveMember(ctx, m.kind, id); err != nil {
		return err
	}
	m.mutate(epoch, func(ids map[int64]struct{}) { delete(ids, id) })
	return nil
}

// Toggle removes payload's movie when it is a member and adds it otherwise. It returns
// [shared.ErrToggleInFlight] while another toggle for the same id is running.
func (m *Membership) Toggle(ctx context.Context, payload models.MoviePayload) error {
	id := payload.MovieID

	m.mu.Lock()
	if _, busy := m.toggling[id]; busy {
		m.mu.Unlock()
		return shared.ErrToggleInFlight
	}
	m.toggling[id] = struct{}{}
	_, member := m.ids[id]
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.toggling, id)
		m.mu.Unlock()
	}()

	if member {
		return m.Remove(ctx, id)
	}
	return m.Add(ctx, payload)
}

// Subscribe registers fn for every state change and returns a function that removes it.
func (m *Membership) Subscribe(fn func(MembershipState)) (unsubscribe func()) {
	return m.subs.add(fn)
}

// Teardown detaches from the session and stops notifications.
func (m *Membership) Teardown() {
	m.mu.Lock()
	m.closed = true
	detach := m.detach
	m.detach = nil
	m.mu.Unlock()

	if detach != nil {
		detach()
	}
	m.subs.clear()
}

func (m *Membership) signedIn() (epoch uint64, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epoch, m.authenticated
}

func (m *Membership) mutate(epoch uint64, fn func(map[int64]struct{})) {
	m.mu.Lock()
	if m.closed || !m.authenticated || epoch != m.epoch {
		m.mu.Unlock()
		m.logger.Debug("dropped a confirmation from an earlier session")
		return
	}
	fn(m.ids)
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.subs.notify(snap)
}

func (m *Membership) snapshotLocked() MembershipState {
	return MembershipState{Kind: m.kind, IDs: m.sortedLocked(), Loading: m.loading}
}

func (m *Membership) sortedLocked() []int64 {
	ids := make([]int64, 0, len(m.ids))
	for id := range m.ids {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
