package ui

import (
	"context"
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/flickx/internal/models"
	"github.com/desertthunder/flickx/internal/services"
	"github.com/desertthunder/flickx/internal/stores"
	"github.com/desertthunder/flickx/internal/tasks"
)

type fakeClient struct {
	mu       sync.Mutex
	user     *models.UserInfo
	members  map[models.MembershipKind]map[int64]bool
	queries  []services.ListingQuery
	cleared  int
	clearErr error
	listing  models.Listing
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		members: map[models.MembershipKind]map[int64]bool{models.Likes: {}, models.Wishlist: {}},
		listing: models.Listing{
			Results:    []models.MovieSummary{{ID: 1, Title: "Alien"}, {ID: 2, Title: "Brazil"}},
			TotalPages: 2,
		},
	}
}

func (f *fakeClient) Me(context.Context) (*models.UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.user, nil
}

func (f *fakeClient) Login(_ context.Context, creds models.Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if creds.Password != "secret" {
		return errors.New("Invalid credentials")
	}
	f.user = &models.UserInfo{Email: creds.Email}
	return nil
}

func (f *fakeClient) Logout(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.user = nil
	return nil
}

func (f *fakeClient) Discover(_ context.Context, q services.ListingQuery) (models.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return f.listing, nil
}

func (f *fakeClient) Recommendations(_ context.Context, q services.ListingQuery) (models.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return f.listing, nil
}

func (f *fakeClient) Collection(_ context.Context, kind models.MembershipKind, page int) (models.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out models.Listing
	out.TotalPages = 1
	for _, m := range f.listing.Results {
		if f.members[kind][m.ID] {
			out.Results = append(out.Results, m)
		}
	}
	return out, nil
}

func (f *fakeClient) MembershipIDs(_ context.Context, kind models.MembershipKind) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int64
	for id := range f.members[kind] {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeClient) AddMember(_ context.Context, kind models.MembershipKind, p models.MoviePayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[kind][p.MovieID] = true
	return nil
}

func (f *fakeClient) RemoveMember(_ context.Context, kind models.MembershipKind, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.members[kind], id)
	return nil
}

func (f *fakeClient) ClearLikes(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.clearErr != nil {
		return f.clearErr
	}
	f.cleared++
	f.members[models.Likes] = map[int64]bool{}
	return nil
}

func (f *fakeClient) Details(_ context.Context, id int64) (*models.MovieDetails, error) {
	return &models.MovieDetails{ID: id, Title: "Alien", Overview: "In space."}, nil
}

func (f *fakeClient) lastQuery() services.ListingQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queries) == 0 {
		return services.ListingQuery{}
	}
	return f.queries[len(f.queries)-1]
}

func setupModel(t *testing.T, signedIn bool) (*Model, *fakeClient) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	client := newFakeClient()
	if signedIn {
		client.user = &models.UserInfo{Email: "ada@example.com"}
	}

	session := stores.NewSession(client, nil)
	likes := stores.NewMembership(models.Likes, client, nil)
	wishlist := stores.NewMembership(models.Wishlist, client, nil)
	likes.Attach(ctx, session)
	wishlist.Attach(ctx, session)
	session.Init(ctx)

	m := NewModel(ctx, Options{
		Session:  session,
		Likes:    likes,
		Wishlist: wishlist,
		Client:   client,
		Filter:   tasks.Filter{Languages: []string{"en"}},
	})
	t.Cleanup(m.Close)

	run(t, m, m.loadPage(DiscoverView, true))
	return m, client
}

// run executes cmd and feeds its message back into the model, following one level of returned commands.
func run(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	msg := cmd()
	if _, ok := msg.(Msg); !ok {
		return
	}
	_, next := m.Update(msg)
	if next != nil {
		if follow, ok := next().(Msg); ok {
			m.Update(follow)
		}
	}
}

func press(m *Model, keys string) tea.Cmd {
	var msg tea.KeyMsg
	switch keys {
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)}
	}
	_, cmd := m.Update(msg)
	return cmd
}

func TestNavigation(t *testing.T) {
	t.Run("tab cycles to recommendations and loads it once", func(t *testing.T) {
		m, client := setupModel(t, true)

		run(t, m, press(m, "tab"))
		if m.view != RecommendationsView {
			t.Fatalf("expected recommendations view, got %v", m.view)
		}
		if got := len(m.pages[RecommendationsView].list.Items()); got != 2 {
			t.Errorf("expected 2 items, got %d", got)
		}
		if q := client.lastQuery(); len(q.Languages) != 1 || q.Search != "" {
			t.Errorf("unexpected recommendations query: %+v", q)
		}
	})

	t.Run("collections open the login view while signed out", func(t *testing.T) {
		m, _ := setupModel(t, false)

		press(m, "tab")
		press(m, "tab")
		if m.view != LoginView {
			t.Fatalf("expected login view, got %v", m.view)
		}
		if m.prev != LikedView {
			t.Errorf("expected login to return to liked view, got %v", m.prev)
		}
		if m.status != msgPleaseLogIn {
			t.Errorf("expected %q, got %q", msgPleaseLogIn, m.status)
		}
	})

	t.Run("tab wraps back to discover", func(t *testing.T) {
		m, _ := setupModel(t, true)
		for range pageViews {
			run(t, m, press(m, "tab"))
		}
		if m.view != DiscoverView {
			t.Errorf("expected discover view, got %v", m.view)
		}
	})

	t.Run("signing out on a collection returns to discover", func(t *testing.T) {
		m, _ := setupModel(t, true)
		run(t, m, press(m, "tab"))
		run(t, m, press(m, "tab"))
		if m.view != LikedView {
			t.Fatalf("expected liked view, got %v", m.view)
		}

		run(t, m, press(m, "L"))
		if m.view != DiscoverView {
			t.Errorf("expected discover view, got %v", m.view)
		}
		if m.session.Authenticated() {
			t.Error("expected session to be signed out")
		}
	})
}

func TestMembershipKeys(t *testing.T) {
	t.Run("like while signed out asks for login", func(t *testing.T) {
		m, client := setupModel(t, false)

		if cmd := press(m, "l"); cmd != nil {
			t.Error("expected no command")
		}
		if m.status != msgPleaseLogIn {
			t.Errorf("expected %q, got %q", msgPleaseLogIn, m.status)
		}
		if len(client.members[models.Likes]) != 0 {
			t.Error("expected no likes recorded")
		}
	})

	t.Run("like toggles the selected movie and marks the row", func(t *testing.T) {
		m, _ := setupModel(t, true)

		run(t, m, press(m, "l"))
		if !m.likes.IsMember(1) {
			t.Fatal("expected movie 1 to be liked")
		}
		item := m.pages[DiscoverView].list.Items()[0].(movieItem)
		if !item.liked {
			t.Error("expected row to carry the like marker")
		}

		run(t, m, press(m, "l"))
		if m.likes.IsMember(1) {
			t.Error("expected second toggle to unlike")
		}
	})

	t.Run("wishlist toggles independently of likes", func(t *testing.T) {
		m, _ := setupModel(t, true)

		run(t, m, press(m, "w"))
		if !m.wishlist.IsMember(1) || m.likes.IsMember(1) {
			t.Error("expected only the wishlist to change")
		}
	})
}

func TestSearch(t *testing.T) {
	t.Run("enter applies the trimmed search term", func(t *testing.T) {
		m, client := setupModel(t, false)

		press(m, "/")
		if !m.searching {
			t.Fatal("expected search mode")
		}
		for _, r := range " dune " {
			press(m, string(r))
		}
		run(t, m, press(m, "enter"))

		if m.searching {
			t.Error("expected search mode to end")
		}
		if m.filter.Search != "dune" {
			t.Errorf("expected search %q, got %q", "dune", m.filter.Search)
		}
		if q := client.lastQuery(); q.Search != "dune" || q.Page != 1 {
			t.Errorf("unexpected query: %+v", q)
		}
	})

	t.Run("esc restores the applied term", func(t *testing.T) {
		m, _ := setupModel(t, false)
		press(m, "/")
		press(m, "x")
		press(m, "esc")
		if m.searching || m.search.Value() != "" {
			t.Errorf("expected search reset, got %q", m.search.Value())
		}
	})

	t.Run("slash does nothing outside discover", func(t *testing.T) {
		m, _ := setupModel(t, true)
		run(t, m, press(m, "tab"))
		press(m, "/")
		if m.searching {
			t.Error("expected search to stay closed")
		}
	})
}

func TestPaging(t *testing.T) {
	t.Run("n loads the next page", func(t *testing.T) {
		m, client := setupModel(t, false)

		run(t, m, press(m, "n"))
		if q := client.lastQuery(); q.Page != 2 {
			t.Errorf("expected page 2, got %d", q.Page)
		}
		if got := len(m.pages[DiscoverView].list.Items()); got != 4 {
			t.Errorf("expected 4 items, got %d", got)
		}
	})

	t.Run("n at the last page reports no more", func(t *testing.T) {
		m, _ := setupModel(t, false)
		run(t, m, press(m, "n"))

		if cmd := press(m, "n"); cmd != nil {
			t.Error("expected no command")
		}
		if m.status != "No more movies" {
			t.Errorf("unexpected status %q", m.status)
		}
	})
}

func TestLogin(t *testing.T) {
	t.Run("successful login returns to the requested view", func(t *testing.T) {
		m, _ := setupModel(t, false)
		press(m, "tab")
		press(m, "tab")

		for _, r := range "ada@example.com" {
			press(m, string(r))
		}
		press(m, "enter")
		for _, r := range "secret" {
			press(m, string(r))
		}
		run(t, m, press(m, "enter"))

		if !m.session.Authenticated() {
			t.Fatal("expected to be signed in")
		}
		if m.view != LikedView {
			t.Errorf("expected liked view, got %v", m.view)
		}
		if m.password.Value() != "" {
			t.Error("expected password to be cleared")
		}
	})

	t.Run("failed login stays on the form with the error", func(t *testing.T) {
		m, _ := setupModel(t, false)
		press(m, "L")
		press(m, "a")
		press(m, "enter")
		press(m, "x")
		run(t, m, press(m, "enter"))

		if m.view != LoginView {
			t.Errorf("expected login view, got %v", m.view)
		}
		if m.status != "Invalid credentials" {
			t.Errorf("unexpected status %q", m.status)
		}
	})

	t.Run("esc leaves the form", func(t *testing.T) {
		m, _ := setupModel(t, false)
		press(m, "L")
		press(m, "esc")
		if m.view != DiscoverView {
			t.Errorf("expected discover view, got %v", m.view)
		}
	})
}

func TestClearLikes(t *testing.T) {
	open := func(t *testing.T) (*Model, *fakeClient) {
		m, client := setupModel(t, true)
		run(t, m, press(m, "l"))
		run(t, m, press(m, "tab"))
		run(t, m, press(m, "tab"))
		press(m, "D")
		if m.view != ConfirmClearView {
			t.Fatalf("expected confirm view, got %v", m.view)
		}
		return m, client
	}

	t.Run("y clears every like", func(t *testing.T) {
		m, client := open(t)
		run(t, m, press(m, "y"))

		if client.cleared != 1 {
			t.Errorf("expected one clear call, got %d", client.cleared)
		}
		if m.likes.IsMember(1) {
			t.Error("expected likes to be refetched empty")
		}
		if m.view != LikedView {
			t.Errorf("expected liked view, got %v", m.view)
		}
	})

	t.Run("n cancels", func(t *testing.T) {
		m, client := open(t)
		press(m, "n")

		if client.cleared != 0 {
			t.Error("expected no clear call")
		}
		if m.view != LikedView || !m.likes.IsMember(1) {
			t.Error("expected likes untouched")
		}
	})

	t.Run("D is ignored outside the liked view", func(t *testing.T) {
		m, _ := setupModel(t, true)
		press(m, "D")
		if m.view != DiscoverView {
			t.Errorf("expected discover view, got %v", m.view)
		}
	})
}

func TestDetails(t *testing.T) {
	m, _ := setupModel(t, false)

	run(t, m, press(m, "enter"))
	if m.view != DetailsView {
		t.Fatalf("expected details view, got %v", m.view)
	}
	if m.details == nil || m.details.ID != 1 {
		t.Fatalf("unexpected details %+v", m.details)
	}

	press(m, "esc")
	if m.view != DiscoverView {
		t.Errorf("expected discover view, got %v", m.view)
	}
}
