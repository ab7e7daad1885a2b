package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/flickx/internal/models"
	"github.com/desertthunder/flickx/internal/shared"
	"github.com/goccy/go-json"
)

// Client calls the flickx proxy routes on behalf of the CLI, the TUI and the stores.
//
// Its [http.Client] should carry a cookie jar so the cookie issued at login rides along on later calls.
type Client struct {
	api *APIService
}

// NewClient creates a [Client] for the proxy at baseURL.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{api: NewAPIService(baseURL, httpClient)}
}

// BaseURL returns the proxy origin.
func (c *Client) BaseURL() string {
	return c.api.BaseURL()
}

// ListingQuery filters a discovery or recommendations page.
type ListingQuery struct {
	Page      int
	Search    string
	Languages []string
	Genres    []int
}

// Values encodes the non-empty fields; languages and genres are comma-joined.
func (q ListingQuery) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set("search", s)
	}
	if len(q.Languages) > 0 {
		v.Set("languages", strings.Join(q.Languages, ","))
	}
	if len(q.Genres) > 0 {
		genres := make([]string, len(q.Genres))
		for i, g := range q.Genres {
			genres[i] = strconv.Itoa(g)
		}
		v.Set("genres", strings.Join(genres, ","))
	}
	return v
}

func (c *Client) call(ctx context.Context, method, path string, query url.Values, body any) (*APIResponse, error) {
	req := Request{Method: method, Path: path, Query: query}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		req.Body = data
	}
	return c.api.Do(ctx, req)
}

// Me returns the signed-in user, or nil when the proxy reports no session.
func (c *Client) Me(ctx context.Context) (*models.UserInfo, error) {
	resp, err := c.call(ctx, http.MethodGet, "/api/auth/me", nil, nil)
	if err != nil {
		return nil, err
	}
	if err := responseError(resp, "Not authenticated"); err != nil {
		return nil, err
	}
	return models.DecodeUser(resp.Body)
}

// Login submits credentials; the session cookie arrives through the client's jar.
func (c *Client) Login(ctx context.Context, creds models.Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	resp, err := c.call(ctx, http.MethodPost, "/api/auth/login", nil, creds)
	if err != nil {
		return err
	}
	return responseError(resp, "Login failed")
}

// Logout ends the session. The proxy clears the token cookie even when the backend call fails.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.call(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	if err != nil {
		return err
	}
	return responseError(resp, "Logout failed")
}

// Discover fetches a page of the discovery listing.
func (c *Client) Discover(ctx context.Context, q ListingQuery) (models.Listing, error) {
	return c.listing(ctx, "/api/movies", q.Values(), "Failed to load movies")
}

// Recommendations fetches a page of recommendations. Search is not supported by this route and is dropped.
func (c *Client) Recommendations(ctx context.Context, q ListingQuery) (models.Listing, error) {
	v := q.Values()
	v.Del("search")
	return c.listing(ctx, "/api/recommendations", v, "Failed to load recommendations")
}

// Collection fetches a page of the caller's liked movies or wishlist.
func (c *Client) Collection(ctx context.Context, kind models.MembershipKind, page int) (models.Listing, error) {
	v := url.Values{}
	if page > 0 {
		v.Set("page", strconv.Itoa(page))
	}
	return c.listing(ctx, kind.ProxyPath(), v, kind.Messages().LoadFailed)
}

func (c *Client) listing(ctx context.Context, path string, query url.Values, fallback string) (models.Listing, error) {
	resp, err := c.call(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return models.Listing{}, err
	}
	if err := responseError(resp, fallback); err != nil {
		return models.Listing{}, err
	}
	return models.DecodeListing(resp.Body)
}

// MembershipIDs fetches the ids-only view of a membership relation.
func (c *Client) MembershipIDs(ctx context.Context, kind models.MembershipKind) ([]int64, error) {
	resp, err := c.call(ctx, http.MethodGet, kind.ProxyPath(), url.Values{"ids": {"1"}}, nil)
	if err != nil {
		return nil, err
	}
	if err := responseError(resp, kind.Messages().LoadFailed); err != nil {
		return nil, err
	}
	return models.DecodeIDs(resp.Body, kind.IDsField())
}

// AddMember marks a movie under kind.
func (c *Client) AddMember(ctx context.Context, kind models.MembershipKind, payload models.MoviePayload) error {
	if err := payload.Validate(); err != nil {
		return err
	}
	resp, err := c.call(ctx, http.MethodPost, kind.ProxyPath(), nil, payload)
	if err != nil {
		return err
	}
	return responseError(resp, kind.Messages().AddFailed)
}

// RemoveMember unmarks a movie under kind.
func (c *Client) RemoveMember(ctx context.Context, kind models.MembershipKind, movieID int64) error {
	if movieID <= 0 {
		return &models.InputError{Field: "movieId", Message: models.MsgMovieIDRequired}
	}
	resp, err := c.call(ctx, http.MethodDelete, kind.ProxyPath(), nil, map[string]int64{"movieId": movieID})
	if err != nil {
		return err
	}
	return responseError(resp, kind.Messages().RemoveFailed)
}

// ClearLikes removes every like in one backend call.
func (c *Client) ClearLikes(ctx context.Context) error {
	resp, err := c.call(ctx, http.MethodDelete, models.Likes.ProxyPath(), url.Values{"deleteAll": {"true"}}, nil)
	if err != nil {
		return err
	}
	return responseError(resp, "Failed to delete all liked movies")
}

// Details fetches the full record for one movie.
func (c *Client) Details(ctx context.Context, movieID int64) (*models.MovieDetails, error) {
	if movieID <= 0 {
		return nil, &models.InputError{Field: "movieId", Message: models.MsgMovieIDRequired}
	}
	resp, err := c.call(ctx, http.MethodGet, "/api/details/"+strconv.FormatInt(movieID, 10), nil, nil)
	if err != nil {
		return nil, err
	}
	if err := responseError(resp, "Failed to fetch movie details"); err != nil {
		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %v", shared.ErrMovieNotFound, err)
		}
		return nil, err
	}

	var details models.MovieDetails
	if err := resp.Decode(&details); err != nil {
		return nil, err
	}
	return &details, nil
}

// Contact submits the contact form. Input is checked locally with the same rules the proxy applies.
func (c *Client) Contact(ctx context.Context, msg models.ContactMessage) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	resp, err := c.call(ctx, http.MethodPost, "/api/contact", nil, msg)
	if err != nil {
		return err
	}
	return responseError(resp, "Failed to send message")
}
