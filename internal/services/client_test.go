package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/flickx/internal/models"
	"github.com/desertthunder/flickx/internal/shared"
	tu "github.com/desertthunder/flickx/internal/testing"
)

func newTestClient(t *testing.T, backend *tu.Backend) *Client {
	t.Helper()
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return NewClient(server.URL, &http.Client{Jar: jar})
}

func TestClientSession(t *testing.T) {
	t.Run("Login Cookie Is Presented On Later Calls", func(t *testing.T) {
		backend := tu.NewBackend().
			Reply(http.MethodPost, "/api/auth/login", 200, `{"success":true}`, "token=abc; Path=/; HttpOnly").
			Reply(http.MethodGet, "/api/auth/me", 200, `{"data":{"id":"u1","email":"a@b.com"}}`)
		client := newTestClient(t, backend)

		if err := client.Login(context.Background(), models.Credentials{Email: "a@b.com", Password: "pw"}); err != nil {
			t.Fatalf("Login failed: %v", err)
		}

		user, err := client.Me(context.Background())
		if err != nil {
			t.Fatalf("Me failed: %v", err)
		}
		if user == nil || user.Email != "a@b.com" {
			t.Errorf("expected user a@b.com, got %+v", user)
		}
		if got := backend.Last(t).Cookie; got != "token=abc" {
			t.Errorf("expected token cookie on /me, got %q", got)
		}
	})

	t.Run("Me Without A User Payload Is Logged Out", func(t *testing.T) {
		backend := tu.NewBackend().Reply(http.MethodGet, "/api/auth/me", 200, `{"authenticated":true}`)
		user, err := newTestClient(t, backend).Me(context.Background())
		if err != nil || user != nil {
			t.Errorf("expected (nil, nil), got (%+v, %v)", user, err)
		}
	})

	t.Run("Me On 401 Is A Not Authenticated Error", func(t *testing.T) {
		backend := tu.NewBackend().Reply(http.MethodGet, "/api/auth/me", 401, `{"error":"No token"}`)
		_, err := newTestClient(t, backend).Me(context.Background())
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Login Rejects Missing Credentials Locally", func(t *testing.T) {
		backend := tu.NewBackend()
		err := newTestClient(t, backend).Login(context.Background(), models.Credentials{Email: "a@b.com"})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if len(backend.Requests()) != 0 {
			t.Error("expected no request to be sent")
		}
	})
}

func TestClientListings(t *testing.T) {
	t.Run("Discover Encodes Present Filters Only", func(t *testing.T) {
		backend := tu.NewBackend().Reply(http.MethodGet, "/api/movies", 200, `{"results":[{"id":1,"title":"A"}],"total_pages":4}`)
		client := newTestClient(t, backend)

		listing, err := client.Discover(context.Background(), ListingQuery{Page: 2, Search: "  heat ", Languages: []string{"en", "fr"}})
		if err != nil {
			t.Fatalf("Discover failed: %v", err)
		}
		if len(listing.Results) != 1 || listing.TotalPages != 4 {
			t.Errorf("unexpected listing %+v", listing)
		}

		q := backend.Last(t).Query
		if !strings.Contains(q, "page=2") || !strings.Contains(q, "search=heat") || !strings.Contains(q, "languages=en%2Cfr") {
			t.Errorf("unexpected query %s", q)
		}
		if strings.Contains(q, "genres") {
			t.Errorf("genres should be omitted, got %s", q)
		}
	})

	t.Run("Recommendations Drops Search", func(t *testing.T) {
		backend := tu.NewBackend().Reply(http.MethodGet, "/api/recommendations", 200, `{"recommendations":[]}`)
		client := newTestClient(t, backend)

		listing, err := client.Recommendations(context.Background(), ListingQuery{Search: "x", Genres: []int{28, 12}})
		if err != nil {
			t.Fatalf("Recommendations failed: %v", err)
		}
		if len(listing.Results) != 0 || listing.TotalPages != 1 {
			t.Errorf("expected empty single page, got %+v", listing)
		}
		if q := backend.Last(t).Query; q != "genres=28%2C12" {
			t.Errorf("unexpected query %s", q)
		}
	})

	t.Run("Collection Error Uses Fallback Message", func(t *testing.T) {
		backend := tu.NewBackend().Reply(http.MethodGet, "/api/wishlist", 500, `not json`)
		_, err := newTestClient(t, backend).Collection(context.Background(), models.Wishlist, 1)
		if err == nil || err.Error() != "Failed to load wishlist" {
			t.Errorf("expected fallback message, got %v", err)
		}
	})
}

func TestClientMembership(t *testing.T) {
	t.Run("MembershipIDs Uses The Ids-Only Mode", func(t *testing.T) {
		backend := tu.NewBackend().Reply(http.MethodGet, "/api/likedMovies", 200, `{"likedMovieIds":[3,5,8]}`)
		ids, err := newTestClient(t, backend).MembershipIDs(context.Background(), models.Likes)
		if err != nil {
			t.Fatalf("MembershipIDs failed: %v", err)
		}
		if len(ids) != 3 || ids[2] != 8 {
			t.Errorf("unexpected ids %v", ids)
		}
		if q := backend.Last(t).Query; q != "ids=1" {
			t.Errorf("expected ids=1, got %s", q)
		}
	})

	t.Run("AddMember Surfaces The Backend Error", func(t *testing.T) {
		backend := tu.NewBackend().Reply(http.MethodPost, "/api/wishlist", 409, `{"error":"Already in wishlist"}`)
		err := newTestClient(t, backend).AddMember(context.Background(), models.Wishlist, models.MoviePayload{MovieID: 9, Title: "Nine"})

		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Status != 409 || apiErr.Message != "Already in wishlist" {
			t.Errorf("expected 409 APIError, got %v", err)
		}
		if body := backend.Last(t).Body; !strings.Contains(body, `"movieId":9`) {
			t.Errorf("expected payload forwarded, got %s", body)
		}
	})

	t.Run("AddMember Validates The Movie Id", func(t *testing.T) {
		backend := tu.NewBackend()
		err := newTestClient(t, backend).AddMember(context.Background(), models.Likes, models.MoviePayload{})
		if err == nil || err.Error() != models.MsgMovieIDRequired {
			t.Errorf("expected %q, got %v", models.MsgMovieIDRequired, err)
		}
	})

	t.Run("RemoveMember Sends The Id In The Body", func(t *testing.T) {
		backend := tu.NewBackend().Reply(http.MethodDelete, "/api/likedMovies", 200, `{"success":true}`)
		if err := newTestClient(t, backend).RemoveMember(context.Background(), models.Likes, 12); err != nil {
			t.Fatalf("RemoveMember failed: %v", err)
		}
		if body := backend.Last(t).Body; body != `{"movieId":12}` {
			t.Errorf("unexpected body %s", body)
		}
	})

	t.Run("ClearLikes Uses deleteAll", func(t *testing.T) {
		backend := tu.NewBackend().Reply(http.MethodDelete, "/api/likedMovies", 200, `{"success":true}`)
		if err := newTestClient(t, backend).ClearLikes(context.Background()); err != nil {
			t.Fatalf("ClearLikes failed: %v", err)
		}
		if q := backend.Last(t).Query; q != "deleteAll=true" {
			t.Errorf("unexpected query %s", q)
		}
	})
}

func TestClientDetailsAndContact(t *testing.T) {
	t.Run("Details Decodes The Record", func(t *testing.T) {
		backend := tu.NewBackend().Reply(http.MethodGet, "/api/details/42", 200, `{"id":42,"title":"Answer","runtime":135}`)
		details, err := newTestClient(t, backend).Details(context.Background(), 42)
		if err != nil {
			t.Fatalf("Details failed: %v", err)
		}
		if details.Title != "Answer" || details.FormatRuntime() != "2h 15m" {
			t.Errorf("unexpected details %+v", details)
		}
	})

	t.Run("Details 404 Is Movie Not Found", func(t *testing.T) {
		backend := tu.NewBackend().Reply(http.MethodGet, "/api/details/1", 404, `{"error":"Not found"}`)
		_, err := newTestClient(t, backend).Details(context.Background(), 1)
		if !errors.Is(err, shared.ErrMovieNotFound) {
			t.Errorf("expected ErrMovieNotFound, got %v", err)
		}
	})

	t.Run("Contact Validates Before Sending", func(t *testing.T) {
		backend := tu.NewBackend()
		err := newTestClient(t, backend).Contact(context.Background(), models.ContactMessage{Name: "A", Email: "bad", Message: "1234567890"})
		if err == nil || err.Error() != models.MsgInvalidEmail {
			t.Errorf("expected invalid email, got %v", err)
		}
		if len(backend.Requests()) != 0 {
			t.Error("expected no request to be sent")
		}
	})
}
