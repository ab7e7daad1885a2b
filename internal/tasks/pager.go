package tasks

import (
	"context"
	"strings"
	"sync"

	"github.com/desertthunder/flickx/internal/models"
	"github.com/desertthunder/flickx/internal/services"
)

// Filter narrows a listing. Languages and genres are sent comma-joined and search is trimmed.
type Filter struct {
	Search    string
	Languages []string
	Genres    []int
}

// Query builds the proxy query for page.
func (f Filter) Query(page int) services.ListingQuery {
	return services.ListingQuery{
		Page:      page,
		Search:    strings.TrimSpace(f.Search),
		Languages: f.Languages,
		Genres:    f.Genres,
	}
}

// FromPreferences seeds a filter with saved languages and genres.
func FromPreferences(p models.Preferences) Filter {
	return Filter{Languages: p.Languages, Genres: p.Genres}
}

// Source fetches one page of a listing.
type Source func(ctx context.Context, page int, f Filter) (models.Listing, error)

// ListingClient is the slice of [services.Client] the built-in sources use.
type ListingClient interface {
	Discover(ctx context.Context, q services.ListingQuery) (models.Listing, error)
	Recommendations(ctx context.Context, q services.ListingQuery) (models.Listing, error)
	Collection(ctx context.Context, kind models.MembershipKind, page int) (models.Listing, error)
}

// DiscoverSource pages through the discovery listing.
func DiscoverSource(c ListingClient) Source {
	return func(ctx context.Context, page int, f Filter) (models.Listing, error) {
		return c.Discover(ctx, f.Query(page))
	}
}

// RecommendationsSource pages through recommendations. The search term is ignored.
func RecommendationsSource(c ListingClient) Source {
	return func(ctx context.Context, page int, f Filter) (models.Listing, error) {
		return c.Recommendations(ctx, f.Query(page))
	}
}

// CollectionSource pages through the liked movies or the wishlist. Filters do not apply.
func CollectionSource(c ListingClient, kind models.MembershipKind) Source {
	return func(ctx context.Context, page int, _ Filter) (models.Listing, error) {
		return c.Collection(ctx, kind, page)
	}
}

// PageState is a copy of a [Pager]'s state.
type PageState struct {
	Items      []models.MovieSummary
	Page       int
	TotalPages int
	Loading    bool
	Err        error
	Filter     Filter
}

// HasMore reports whether a later page exists.
func (s PageState) HasMore() bool {
	return s.Page < s.TotalPages
}

// Pager accumulates the pages of one listing.
type Pager struct {
	source Source

	mu         sync.Mutex
	gen        uint64
	filter     Filter
	items      []models.MovieSummary
	page       int
	totalPages int
	loading    bool
	err        error
}

// NewPager creates an empty pager over source. Call [Pager.Reset] to load the first page.
func NewPager(source Source) *Pager {
	return &Pager{source: source, totalPages: 1}
}

// Reset clears the items and loads page 1 for f. Fetches still in flight from before the reset are discarded.
func (p *Pager) Reset(ctx context.Context, f Filter) error {
	p.mu.Lock()
	p.gen++
	gen := p.gen
	p.filter = f
	p.items = nil
	p.page = 0
	p.totalPages = 1
	p.err = nil
	p.loading = true
	p.mu.Unlock()

	return p.load(ctx, gen, 1, f)
}

// Next appends the following page. It does nothing while a fetch is in flight or when no page is left.
func (p *Pager) Next(ctx context.Context) error {
	p.mu.Lock()
	if p.loading || p.page >= p.totalPages {
		p.mu.Unlock()
		return nil
	}
	gen := p.gen
	page := p.page + 1
	f := p.filter
	p.loading = true
	p.mu.Unlock()

	return p.load(ctx, gen, page, f)
}

func (p *Pager) load(ctx context.Context, gen uint64, page int, f Filter) error {
	listing, err := p.source(ctx, page, f)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return nil
	}
	p.loading = false

	if err != nil {
		p.err = err
		if page == 1 {
			p.items = nil
			p.totalPages = 1
		}
		return err
	}

	p.err = nil
	p.page = page
	p.totalPages = max(listing.TotalPages, 1)
	p.items = append(p.items, listing.Results...)
	return nil
}

// HasMore reports whether a later page exists.
func (p *Pager) HasMore() bool {
	return p.State().HasMore()
}

// State returns a copy of the current state.
func (p *Pager) State() PageState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PageState{
		Items:      append([]models.MovieSummary(nil), p.items...),
		Page:       p.page,
		TotalPages: p.totalPages,
		Loading:    p.loading,
		Err:        p.err,
		Filter:     p.filter,
	}
}
