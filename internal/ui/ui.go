package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/flickx/internal/formatter"
	"github.com/desertthunder/flickx/internal/models"
	"github.com/desertthunder/flickx/internal/shared"
	"github.com/desertthunder/flickx/internal/stores"
	"github.com/desertthunder/flickx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	DiscoverView ViewState = iota
	RecommendationsView
	LikedView
	WishlistView
	DetailsView
	LoginView
	ConfirmClearView
)

// pageViews are the listing views, in tab order.
var pageViews = []ViewState{DiscoverView, RecommendationsView, LikedView, WishlistView}

func (v ViewState) String() string {
	switch v {
	case DiscoverView:
		return "Discover"
	case RecommendationsView:
		return "Recommendations"
	case LikedView:
		return "Liked"
	case WishlistView:
		return "Wishlist"
	case DetailsView:
		return "Details"
	case LoginView:
		return "Login"
	case ConfirmClearView:
		return "Confirm"
	default:
		return ""
	}
}

// requiresAuth reports whether v lists the caller's own collection.
func (v ViewState) requiresAuth() bool {
	return v == LikedView || v == WishlistView
}

const msgPleaseLogIn = "Please log in"

// Client is what the TUI calls beyond the stores.
type Client interface {
	tasks.ListingClient
	Details(ctx context.Context, movieID int64) (*models.MovieDetails, error)
	ClearLikes(ctx context.Context) error
}

// Options wires a [Model] to its stores and client.
type Options struct {
	Session  *stores.Session
	Likes    *stores.Membership
	Wishlist *stores.Membership
	Client   Client
	Filter   tasks.Filter
}

// page is one listing view's pager and list.
type page struct {
	pager   *tasks.Pager
	list    list.Model
	started bool
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	prev     ViewState
	session  *stores.Session
	likes    *stores.Membership
	wishlist *stores.Membership
	client   Client
	filter   tasks.Filter
	pages    map[ViewState]*page

	searching  bool
	search     textinput.Model
	email      textinput.Model
	password   textinput.Model
	loginFocus int

	details    *models.MovieDetails
	detailsFor models.MovieSummary

	status      string
	events      chan tea.Msg
	unsubscribe []func()
	width       int
	height      int
	help        help.Model
	keys        keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Options) *Model {
	search := textinput.New()
	search.Placeholder = "Search movies"
	search.Prompt = "/ "
	search.SetValue(opts.Filter.Search)

	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = "Email:    "

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = "Password: "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	m := &Model{
		ctx:      ctx,
		view:     DiscoverView,
		session:  opts.Session,
		likes:    opts.Likes,
		wishlist: opts.Wishlist,
		client:   opts.Client,
		filter:   opts.Filter,
		pages:    make(map[ViewState]*page, len(pageViews)),
		search:   search,
		email:    email,
		password: password,
		events:   make(chan tea.Msg, 16),
		help:     help.New(),
		keys:     newKeyMap(),
	}

	sources := map[ViewState]tasks.Source{
		DiscoverView:        tasks.DiscoverSource(opts.Client),
		RecommendationsView: tasks.RecommendationsSource(opts.Client),
		LikedView:           tasks.CollectionSource(opts.Client, models.Likes),
		WishlistView:        tasks.CollectionSource(opts.Client, models.Wishlist),
	}
	for _, v := range pageViews {
		m.pages[v] = &page{pager: tasks.NewPager(sources[v]), list: newMovieList(v.String())}
	}
	return m
}

// Init subscribes to the stores, resolves the session and loads the discovery page.
func (m *Model) Init() tea.Cmd {
	notify := func() {
		select {
		case m.events <- storeChangedMsg():
		default:
		}
	}
	m.unsubscribe = append(m.unsubscribe,
		m.session.Subscribe(func(models.Session) { notify() }),
		m.likes.Subscribe(func(stores.MembershipState) { notify() }),
		m.wishlist.Subscribe(func(stores.MembershipState) { notify() }),
	)

	return tea.Batch(m.waitForEvent(), m.initSession(), m.loadPage(DiscoverView, true))
}

// Close removes the store subscriptions made by Init.
func (m *Model) Close() {
	for _, fn := range m.unsubscribe {
		fn()
	}
	m.unsubscribe = nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, p := range m.pages {
			p.list.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case Msg:
		return m.handleMsg(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.view {
		case LoginView:
			return m.handleLoginKeys(msg)
		case ConfirmClearView:
			return m.handleConfirmKeys(msg)
		case DetailsView:
			return m.handleDetailsKeys(msg)
		default:
			if m.searching {
				return m.handleSearchKeys(msg)
			}
			return m.handlePageKeys(msg)
		}
	}

	return m.updateList(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgStoreChanged:
		m.refreshMarkers()
		snap := m.session.Snapshot()
		if !snap.Loading && !snap.Authenticated && m.view.requiresAuth() {
			m.view = DiscoverView
			m.status = msgPleaseLogIn
		}
		return m, m.waitForEvent()

	case MsgPageLoaded:
		data := msg.data.(struct {
			view ViewState
			err  error
		})
		if data.err != nil {
			m.status = data.err.Error()
		}
		m.syncList(data.view)
		return m, nil

	case MsgDetailsLoaded:
		data := msg.data.(struct {
			details *models.MovieDetails
			err     error
		})
		if data.err != nil {
			m.status = data.err.Error()
			return m, nil
		}
		m.details = data.details
		m.prev = m.view
		m.view = DetailsView
		m.status = ""
		return m, nil

	case MsgToggled:
		data := msg.data.(struct {
			kind models.MembershipKind
			err  error
		})
		if data.err != nil {
			if !errors.Is(data.err, shared.ErrToggleInFlight) {
				m.status = data.err.Error()
			}
			return m, nil
		}
		m.status = ""
		m.refreshMarkers()
		if v := collectionView(data.kind); m.pages[v].started {
			return m, m.loadPage(v, true)
		}
		return m, nil

	case MsgAuthDone:
		data := msg.data.(struct {
			session models.Session
			err     error
		})
		return m.finishAuth(data.session, data.err)

	case MsgLikesCleared:
		if err, _ := msg.data.(error); err != nil {
			m.status = err.Error()
			m.view = LikedView
			return m, nil
		}
		m.view = LikedView
		m.status = "Cleared all liked movies"
		return m, m.loadPage(LikedView, true)
	}
	return m, nil
}

func (m *Model) finishAuth(s models.Session, err error) (tea.Model, tea.Cmd) {
	if m.view == LoginView {
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		if !s.Authenticated {
			m.status = "Login failed"
			return m, nil
		}
		m.password.SetValue("")
		m.status = "Signed in as " + s.User.DisplayName()
		m.view = m.prev
		for _, v := range []ViewState{LikedView, WishlistView, RecommendationsView} {
			m.pages[v].started = false
		}
		return m, m.enter(m.view)
	}

	if err != nil {
		m.status = err.Error()
	} else {
		m.status = "Signed out"
	}
	if m.view.requiresAuth() {
		m.view = DiscoverView
	}
	return m, nil
}

func (m *Model) handlePageKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.tab):
		return m, m.enter(m.nextView())

	case key.Matches(msg, m.keys.next):
		if !m.pages[m.view].pager.HasMore() {
			m.status = "No more movies"
			return m, nil
		}
		return m, m.loadPage(m.view, false)

	case key.Matches(msg, m.keys.search):
		if m.view != DiscoverView {
			return m, nil
		}
		m.searching = true
		return m, m.search.Focus()

	case key.Matches(msg, m.keys.like):
		if movie, ok := m.selected(); ok {
			return m, m.toggle(models.Likes, movie)
		}
		return m, nil

	case key.Matches(msg, m.keys.wish):
		if movie, ok := m.selected(); ok {
			return m, m.toggle(models.Wishlist, movie)
		}
		return m, nil

	case key.Matches(msg, m.keys.enter):
		if movie, ok := m.selected(); ok {
			m.detailsFor = movie
			return m, m.fetchDetails(movie.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.login):
		if m.session.Authenticated() {
			return m, m.logout()
		}
		m.openLogin(m.view)
		return m, m.email.Focus()

	case key.Matches(msg, m.keys.deleteAll):
		if m.view == LikedView && m.session.Authenticated() {
			m.view = ConfirmClearView
		}
		return m, nil
	}

	return m.updateList(msg)
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.search.Blur()
		m.filter.Search = strings.TrimSpace(m.search.Value())
		return m, m.loadPage(DiscoverView, true)
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue(m.filter.Search)
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.email.Blur()
		m.password.Blur()
		m.view = m.prev
		if m.view.requiresAuth() {
			m.view = DiscoverView
		}
		return m, nil
	case "tab", "shift+tab", "up", "down":
		return m, m.focusLogin(1 - m.loginFocus)
	case "enter":
		if m.loginFocus == 0 {
			return m, m.focusLogin(1)
		}
		return m, m.login()
	}

	var cmd tea.Cmd
	if m.loginFocus == 0 {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleDetailsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = m.prev
		m.details = nil
		return m, nil
	case key.Matches(msg, m.keys.like):
		return m, m.toggle(models.Likes, m.detailsFor)
	case key.Matches(msg, m.keys.wish):
		return m, m.toggle(models.Wishlist, m.detailsFor)
	}
	return m, nil
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		return m, m.clearLikes()
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.quit):
		m.view = LikedView
		return m, nil
	}
	return m, nil
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	p, ok := m.pages[m.view]
	if !ok {
		return m, nil
	}
	var cmd tea.Cmd
	p.list, cmd = p.list.Update(msg)
	return m, cmd
}

// enter switches to view v, asking for a login first when v needs one, and loads v on first visit.
func (m *Model) enter(v ViewState) tea.Cmd {
	if v.requiresAuth() && !m.session.Authenticated() {
		m.status = msgPleaseLogIn
		m.openLogin(v)
		return m.email.Focus()
	}
	m.view = v
	if !m.pages[v].started {
		return m.loadPage(v, true)
	}
	return nil
}

func (m *Model) nextView() ViewState {
	for i, v := range pageViews {
		if v == m.view {
			return pageViews[(i+1)%len(pageViews)]
		}
	}
	return DiscoverView
}

func (m *Model) openLogin(returnTo ViewState) {
	m.prev = returnTo
	m.view = LoginView
	m.loginFocus = 0
	m.password.Blur()
}

func (m *Model) focusLogin(i int) tea.Cmd {
	m.loginFocus = i
	if i == 0 {
		m.password.Blur()
		return m.email.Focus()
	}
	m.email.Blur()
	return m.password.Focus()
}

func (m *Model) selected() (models.MovieSummary, bool) {
	p, ok := m.pages[m.view]
	if !ok {
		return models.MovieSummary{}, false
	}
	item, ok := p.list.SelectedItem().(movieItem)
	if !ok {
		return models.MovieSummary{}, false
	}
	return item.movie, true
}

func (m *Model) store(kind models.MembershipKind) *stores.Membership {
	if kind == models.Wishlist {
		return m.wishlist
	}
	return m.likes
}

func collectionView(kind models.MembershipKind) ViewState {
	if kind == models.Wishlist {
		return WishlistView
	}
	return LikedView
}

func (m *Model) filterFor(v ViewState) tasks.Filter {
	if v == DiscoverView {
		return m.filter
	}
	return tasks.Filter{Languages: m.filter.Languages, Genres: m.filter.Genres}
}

// syncList copies v's pager state into its list.
func (m *Model) syncList(v ViewState) {
	p := m.pages[v]
	state := p.pager.State()

	items := make([]list.Item, len(state.Items))
	for i, movie := range state.Items {
		items[i] = movieItem{
			movie:  movie,
			liked:  m.likes.IsMember(movie.ID),
			wished: m.wishlist.IsMember(movie.ID),
		}
	}
	p.list.SetItems(items)

	title := v.String()
	if state.Page > 0 {
		title = fmt.Sprintf("%s (page %d of %d)", title, state.Page, state.TotalPages)
	}
	if v == DiscoverView && m.filter.Search != "" {
		title = fmt.Sprintf("%s: %q", title, m.filter.Search)
	}
	p.list.Title = title
}

func (m *Model) refreshMarkers() {
	for _, v := range pageViews {
		if m.pages[v].started {
			m.syncList(v)
		}
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-m.events:
			return msg
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) initSession() tea.Cmd {
	return func() tea.Msg {
		m.session.Init(m.ctx)
		return storeChangedMsg()
	}
}

func (m *Model) loadPage(v ViewState, reset bool) tea.Cmd {
	p := m.pages[v]
	p.started = true
	pager := p.pager
	filter := m.filterFor(v)

	return func() tea.Msg {
		var err error
		if reset {
			err = pager.Reset(m.ctx, filter)
		} else {
			err = pager.Next(m.ctx)
		}
		return pageLoadedMsg(v, err)
	}
}

func (m *Model) fetchDetails(id int64) tea.Cmd {
	return func() tea.Msg {
		details, err := m.client.Details(m.ctx, id)
		return detailsLoadedMsg(details, err)
	}
}

func (m *Model) toggle(kind models.MembershipKind, movie models.MovieSummary) tea.Cmd {
	if !m.session.Authenticated() {
		m.status = msgPleaseLogIn
		return nil
	}
	store := m.store(kind)
	payload := movie.Payload()
	return func() tea.Msg {
		return toggledMsg(kind, store.Toggle(m.ctx, payload))
	}
}

func (m *Model) login() tea.Cmd {
	creds := models.Credentials{Email: strings.TrimSpace(m.email.Value()), Password: m.password.Value()}
	m.status = "Signing in..."
	return func() tea.Msg {
		err := m.session.Login(m.ctx, creds)
		return authDoneMsg(m.session.Snapshot(), err)
	}
}

func (m *Model) logout() tea.Cmd {
	return func() tea.Msg {
		err := m.session.Logout(m.ctx)
		return authDoneMsg(m.session.Snapshot(), err)
	}
}

func (m *Model) clearLikes() tea.Cmd {
	return func() tea.Msg {
		if err := m.client.ClearLikes(m.ctx); err != nil {
			return likesClearedMsg(err)
		}
		if err := m.likes.Refetch(m.ctx); err != nil {
			return likesClearedMsg(err)
		}
		return likesClearedMsg(nil)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case LoginView:
		body = m.renderLogin()
	case ConfirmClearView:
		body = m.renderConfirm()
	case DetailsView:
		body = m.renderDetails()
	default:
		body = m.renderPage()
	}

	parts := []string{m.renderTabs(), body}
	if m.status != "" {
		parts = append(parts, m.renderStatus())
	}
	parts = append(parts, m.renderHelp())
	return strings.Join(parts, "\n\n")
}

func (m *Model) renderTabs() string {
	current := m.view
	if !current.requiresAuth() && current != DiscoverView && current != RecommendationsView {
		current = m.prev
	}

	tabs := make([]string, len(pageViews))
	for i, v := range pageViews {
		if v == current {
			tabs[i] = styles.active.Render(v.String())
		} else {
			tabs[i] = styles.tab.Render(v.String())
		}
	}

	var who string
	switch snap := m.session.Snapshot(); {
	case snap.Loading:
		who = styles.help.Render("checking session...")
	case snap.Authenticated:
		who = styles.ok.Render("● " + snap.User.DisplayName())
	default:
		who = styles.help.Render("not signed in")
	}
	return strings.Join(tabs, "") + "  " + who
}

func (m *Model) renderPage() string {
	p := m.pages[m.view]
	out := p.list.View()
	if m.searching {
		out = m.search.View() + "\n\n" + out
	}
	if p.pager.State().Loading {
		out += "\n" + styles.help.Render("Loading...")
	}
	return out
}

func (m *Model) renderDetails() string {
	if m.details == nil {
		return styles.help.Render("Loading...")
	}
	var marks []string
	if m.likes.IsMember(m.details.ID) {
		marks = append(marks, likeMark+" liked")
	}
	if m.wishlist.IsMember(m.details.ID) {
		marks = append(marks, wishMark+" on wishlist")
	}

	out := formatter.DetailsToText(m.details)
	if len(marks) > 0 {
		out += "\n" + strings.Join(marks, "  ")
	}
	return out
}

func (m *Model) renderLogin() string {
	title := styles.title.Render("Log in")
	return fmt.Sprintf("%s\n%s\n%s", title, m.email.View(), m.password.View())
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render("Delete all liked movies?")
	return fmt.Sprintf("%s\n%s", title, styles.warn.Render("This removes every movie from your liked list."))
}

func (m *Model) renderStatus() string {
	return styles.warn.Render(m.status)
}

func (m *Model) renderHelp() string {
	var keys []key.Binding
	switch m.view {
	case LoginView:
		keys = []key.Binding{
			key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch field")),
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
			m.keys.back,
		}
	case ConfirmClearView:
		keys = []key.Binding{m.keys.yes, m.keys.no}
	case DetailsView:
		keys = []key.Binding{m.keys.like, m.keys.wish, m.keys.back, m.keys.quit}
	default:
		keys = []key.Binding{m.keys.tab, m.keys.enter, m.keys.next, m.keys.like, m.keys.wish, m.keys.login}
		if m.view == DiscoverView {
			keys = append(keys, m.keys.search)
		}
		if m.view == LikedView {
			keys = append(keys, m.keys.deleteAll)
		}
		keys = append(keys, m.keys.quit)
	}
	return m.help.ShortHelpView(keys)
}
