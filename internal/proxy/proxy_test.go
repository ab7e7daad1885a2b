package proxy

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/flickx/internal/models"
	"github.com/desertthunder/flickx/internal/services"
	"github.com/desertthunder/flickx/internal/shared"
	tu "github.com/desertthunder/flickx/internal/testing"
	"github.com/goccy/go-json"
)

type fixture struct {
	backend *tu.Backend
	router  http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := tu.NewBackend()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	client := services.NewBackendClient(shared.BackendConfig{URL: srv.URL}, srv.Client(), shared.NewLogger(io.Discard))
	return &fixture{
		backend: backend,
		router:  NewRouter(client, RouterOptions{Logger: shared.NewLogger(io.Discard)}),
	}
}

func unconfigured() http.Handler {
	client := services.NewBackendClient(shared.BackendConfig{}, nil, shared.NewLogger(io.Discard))
	return NewRouter(client, RouterOptions{Logger: shared.NewLogger(io.Discard)})
}

// unreachable points at a server that has already shut down.
func unreachable(t *testing.T) http.Handler {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := services.NewBackendClient(shared.BackendConfig{URL: url}, nil, shared.NewLogger(io.Discard))
	return NewRouter(client, RouterOptions{Logger: shared.NewLogger(io.Discard)})
}

func do(h http.Handler, method, target, body string, cookie string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not a JSON object: %v (%q)", err, rec.Body.String())
	}
	return out
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %q)", rec.Code, want, rec.Body.String())
	}
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, want string) {
	t.Helper()
	if got := decode(t, rec)["error"]; got != want {
		t.Errorf("error = %v, want %q", got, want)
	}
}

func tokenCleared(rec *httptest.ResponseRecorder) bool {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" && c.Value == "" && c.MaxAge < 0 && c.HttpOnly && c.Path == "/" {
			return true
		}
	}
	return false
}

func TestUnconfiguredBackend(t *testing.T) {
	h := unconfigured()

	t.Run("every route reports the missing origin", func(t *testing.T) {
		for _, tc := range []struct{ method, target, body string }{
			{http.MethodGet, "/api/movies", ""},
			{http.MethodGet, "/api/recommendations", ""},
			{http.MethodGet, "/api/likedMovies", ""},
			{http.MethodPost, "/api/likedMovies", `{"movieId":1}`},
			{http.MethodDelete, "/api/wishlist", `{"movieId":1}`},
			{http.MethodPost, "/api/auth/login", `{}`},
			{http.MethodPost, "/api/contact", `{}`},
			{http.MethodGet, "/api/details/5", ""},
		} {
			rec := do(h, tc.method, tc.target, tc.body, "")
			assertStatus(t, rec, http.StatusInternalServerError)
			assertError(t, rec, "Backend URL is not configured")
		}
	})

	t.Run("me also reports unauthenticated", func(t *testing.T) {
		rec := do(h, http.MethodGet, "/api/auth/me", "", "")
		assertStatus(t, rec, http.StatusInternalServerError)
		if got := decode(t, rec)["authenticated"]; got != false {
			t.Errorf("authenticated = %v, want false", got)
		}
	})

	t.Run("logout still clears the token cookie", func(t *testing.T) {
		rec := do(h, http.MethodPost, "/api/auth/logout", "", "")
		assertStatus(t, rec, http.StatusInternalServerError)
		if !tokenCleared(rec) {
			t.Errorf("expected token cookie to be cleared, got %v", rec.Header().Values("Set-Cookie"))
		}
	})
}

func TestListings(t *testing.T) {
	t.Run("discover forwards filters and the cookie and relays the body", func(t *testing.T) {
		f := newFixture(t)
		items := make([]string, 12)
		for i := range items {
			items[i] = fmt.Sprintf(`{"id":%d,"title":"Movie %d"}`, i+1, i+1)
		}
		body := `{"movies":[` + strings.Join(items, ",") + `],"page":2}`
		f.backend.Reply(http.MethodGet, "/api/movies/discover", http.StatusOK, body)

		rec := do(f.router, http.MethodGet, "/api/movies?page=2&languages=en,fr&search=heat&genres=18&bogus=1", "", "token=abc")
		assertStatus(t, rec, http.StatusOK)

		movies, _ := decode(t, rec)["movies"].([]any)
		if len(movies) != 12 {
			t.Errorf("got %d movies, want 12", len(movies))
		}

		last := f.backend.Last(t)
		if last.Cookie != "token=abc" {
			t.Errorf("cookie = %q", last.Cookie)
		}
		if strings.Contains(last.Query, "bogus") {
			t.Errorf("unexpected parameter forwarded: %q", last.Query)
		}
		for _, want := range []string{"page=2", "search=heat", "genres=18", "languages=en%2Cfr"} {
			if !strings.Contains(last.Query, want) {
				t.Errorf("query %q missing %q", last.Query, want)
			}
		}
	})

	t.Run("recommendations drop search", func(t *testing.T) {
		f := newFixture(t)
		f.backend.Reply(http.MethodGet, "/api/movies/recommendations", http.StatusOK, `{"recommendations":[]}`)

		do(f.router, http.MethodGet, "/api/recommendations?page=1&search=x", "", "")
		if q := f.backend.Last(t).Query; q != "page=1" {
			t.Errorf("query = %q, want page=1", q)
		}
	})

	t.Run("backend status is relayed", func(t *testing.T) {
		f := newFixture(t)
		f.backend.Reply(http.MethodGet, "/api/movies/likedMovies", http.StatusUnauthorized, `{"error":"Unauthorized"}`)

		rec := do(f.router, http.MethodGet, "/api/likedMovies", "", "")
		assertStatus(t, rec, http.StatusUnauthorized)
		assertError(t, rec, "Unauthorized")
	})

	t.Run("empty bodies get the route fallback", func(t *testing.T) {
		f := newFixture(t)
		f.backend.Reply(http.MethodGet, "/api/movies/discover", http.StatusOK, "")
		f.backend.Reply(http.MethodGet, "/api/wishlist", http.StatusBadGateway, "<html>bad gateway</html>")

		rec := do(f.router, http.MethodGet, "/api/movies", "", "")
		assertStatus(t, rec, http.StatusOK)
		got := decode(t, rec)
		if got["success"] != true {
			t.Errorf("success = %v, want true", got["success"])
		}
		if movies, ok := got["movies"].([]any); !ok || len(movies) != 0 {
			t.Errorf("movies = %v, want []", got["movies"])
		}

		rec = do(f.router, http.MethodGet, "/api/wishlist", "", "")
		assertStatus(t, rec, http.StatusBadGateway)
		if list, ok := decode(t, rec)["wishlist"].([]any); !ok || len(list) != 0 {
			t.Errorf("wishlist = %v, want []", rec.Body.String())
		}
	})

	t.Run("ids selects the id endpoints", func(t *testing.T) {
		f := newFixture(t)
		f.backend.Reply(http.MethodGet, "/api/movies/likedMovieIds", http.StatusOK, `{"likedMovieIds":[1,2]}`)
		f.backend.Reply(http.MethodGet, "/api/wishlist/ids", http.StatusOK, `{"wishlistIds":[3]}`)

		do(f.router, http.MethodGet, "/api/likedMovies?ids=1", "", "")
		if p := f.backend.Last(t).Path; p != "/api/movies/likedMovieIds" {
			t.Errorf("path = %q", p)
		}
		do(f.router, http.MethodGet, "/api/wishlist?ids=true&page=2", "", "")
		last := f.backend.Last(t)
		if last.Path != "/api/wishlist/ids" || last.Query != "page=2" {
			t.Errorf("got %s?%s", last.Path, last.Query)
		}
	})

	t.Run("transport failure returns the route's error body", func(t *testing.T) {
		h := unreachable(t)

		rec := do(h, http.MethodGet, "/api/likedMovies", "", "")
		assertStatus(t, rec, http.StatusInternalServerError)
		got := decode(t, rec)
		if got["error"] != "Internal Server Error" {
			t.Errorf("error = %v", got["error"])
		}
		if likes, ok := got["likes"].([]any); !ok || len(likes) != 0 {
			t.Errorf("likes = %v, want []", got["likes"])
		}
	})
}

func TestAuthRoutes(t *testing.T) {
	t.Run("login relays every Set-Cookie", func(t *testing.T) {
		f := newFixture(t)
		f.backend.Reply(http.MethodPost, "/api/auth/login", http.StatusOK, `{"success":true}`,
			"token=abc; Path=/; HttpOnly", "refresh=def; Path=/")

		rec := do(f.router, http.MethodPost, "/api/auth/login", `{"email":"a@b.co","password":"pw"}`, "")
		assertStatus(t, rec, http.StatusOK)
		if got := rec.Header().Values("Set-Cookie"); len(got) != 2 {
			t.Errorf("Set-Cookie = %v, want 2 values", got)
		}
		if body := f.backend.Last(t).Body; body != `{"email":"a@b.co","password":"pw"}` {
			t.Errorf("forwarded body = %q", body)
		}
	})

	t.Run("login forwards an empty object for a malformed body", func(t *testing.T) {
		f := newFixture(t)
		f.backend.Reply(http.MethodPost, "/api/auth/login", http.StatusBadRequest, `{"error":"Missing credentials"}`)

		rec := do(f.router, http.MethodPost, "/api/auth/login", "{nope", "")
		assertStatus(t, rec, http.StatusBadRequest)
		if body := f.backend.Last(t).Body; body != "{}" {
			t.Errorf("forwarded body = %q, want {}", body)
		}
	})

	t.Run("logout clears the token after the backend's cookies", func(t *testing.T) {
		f := newFixture(t)
		f.backend.Reply(http.MethodPost, "/api/auth/logout", http.StatusOK, "", "token=stale; Path=/")

		rec := do(f.router, http.MethodPost, "/api/auth/logout", "", "token=abc")
		assertStatus(t, rec, http.StatusOK)
		if decode(t, rec)["success"] != true {
			t.Errorf("body = %s", rec.Body.String())
		}
		values := rec.Header().Values("Set-Cookie")
		if len(values) != 2 || !strings.HasPrefix(values[1], "token=;") {
			t.Errorf("Set-Cookie = %v", values)
		}
	})

	t.Run("logout clears the token when the backend is unreachable", func(t *testing.T) {
		rec := do(unreachable(t), http.MethodPost, "/api/auth/logout", "", "")
		assertStatus(t, rec, http.StatusInternalServerError)
		if !tokenCleared(rec) {
			t.Errorf("expected token cookie to be cleared")
		}
	})

	t.Run("me falls back to the response status", func(t *testing.T) {
		f := newFixture(t)
		f.backend.Reply(http.MethodGet, "/api/auth/me", http.StatusUnauthorized, "")

		rec := do(f.router, http.MethodGet, "/api/auth/me", "", "")
		assertStatus(t, rec, http.StatusUnauthorized)
		if decode(t, rec)["authenticated"] != false {
			t.Errorf("body = %s", rec.Body.String())
		}
	})
}

func TestMembershipMutations(t *testing.T) {
	t.Run("add forwards only known fields in order", func(t *testing.T) {
		f := newFixture(t)
		f.backend.Reply(http.MethodPost, "/api/movies/like", http.StatusOK, `{"success":true}`)

		rec := do(f.router, http.MethodPost, "/api/likedMovies",
			`{"year":1995,"movieId":949,"admin":true,"title":"Heat"}`, "")
		assertStatus(t, rec, http.StatusOK)
		if body := f.backend.Last(t).Body; body != `{"movieId":949,"title":"Heat","year":1995}` {
			t.Errorf("forwarded body = %s", body)
		}
	})

	t.Run("falsy movie ids are rejected without a backend call", func(t *testing.T) {
		f := newFixture(t)
		for _, body := range []string{`{}`, `{"movieId":null}`, `{"movieId":0}`, `{"movieId":""}`, `{"movieId":false}`, `[1]`} {
			rec := do(f.router, http.MethodPost, "/api/wishlist", body, "")
			assertStatus(t, rec, http.StatusBadRequest)
			assertError(t, rec, models.MsgMovieIDRequired)
		}
		if n := len(f.backend.Requests()); n != 0 {
			t.Errorf("backend got %d requests, want 0", n)
		}
	})

	t.Run("malformed bodies are server errors", func(t *testing.T) {
		f := newFixture(t)
		for _, body := range []string{"", "{oops", "null"} {
			rec := do(f.router, http.MethodPost, "/api/likedMovies", body, "")
			assertStatus(t, rec, http.StatusInternalServerError)
			assertError(t, rec, "Internal Server Error")
		}
	})

	t.Run("remove like posts to dislike", func(t *testing.T) {
		f := newFixture(t)
		f.backend.Reply(http.MethodPost, "/api/movies/dislike", http.StatusOK, `{"success":true}`)

		do(f.router, http.MethodDelete, "/api/likedMovies", `{"movieId":"949","title":"ignored"}`, "")
		last := f.backend.Last(t)
		if last.Method != http.MethodPost || last.Body != `{"movieId":"949"}` {
			t.Errorf("got %s %s", last.Method, last.Body)
		}
	})

	t.Run("deleteAll clears every like", func(t *testing.T) {
		f := newFixture(t)
		f.backend.Reply(http.MethodDelete, "/api/movies/clear-all-likes", http.StatusOK, `{"success":true}`)

		rec := do(f.router, http.MethodDelete, "/api/likedMovies?deleteAll=true", "", "")
		assertStatus(t, rec, http.StatusOK)
		last := f.backend.Last(t)
		if last.Path != "/api/movies/clear-all-likes" || last.Body != "" {
			t.Errorf("got %s %q", last.Path, last.Body)
		}
	})

	t.Run("both wishlist removal routes hit delete", func(t *testing.T) {
		f := newFixture(t)
		f.backend.Reply(http.MethodDelete, "/api/wishlist/delete", http.StatusOK, `{"success":true}`)

		for _, target := range []string{"/api/wishlist", "/api/wishlist/remove"} {
			rec := do(f.router, http.MethodDelete, target, `{"movieId":12}`, "")
			assertStatus(t, rec, http.StatusOK)
			if body := f.backend.Last(t).Body; body != `{"movieId":12}` {
				t.Errorf("%s forwarded %s", target, body)
			}
		}
	})
}

func TestContact(t *testing.T) {
	t.Run("validation messages", func(t *testing.T) {
		f := newFixture(t)
		tests := []struct {
			name string
			body string
			want string
		}{
			{"missing fields", `{"name":"Ann","email":"ann@example.com"}`, models.MsgFieldsRequired},
			{"malformed body", `not json`, models.MsgFieldsRequired},
			{"non-string field", `{"name":5,"email":"ann@example.com","message":"long enough text"}`, models.MsgFieldsRequired},
			{"bad email", `{"name":"Ann","email":"ann@example","message":"long enough text"}`, models.MsgInvalidEmail},
			{"short message", `{"name":"Ann","email":"ann@example.com","message":"too short"}`, models.MsgMessageTooShort},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rec := do(f.router, http.MethodPost, "/api/contact", tt.body, "")
				assertStatus(t, rec, http.StatusBadRequest)
				assertError(t, rec, tt.want)
			})
		}
		if n := len(f.backend.Requests()); n != 0 {
			t.Errorf("backend got %d requests, want 0", n)
		}
	})

	t.Run("fields are trimmed and sanitized before forwarding", func(t *testing.T) {
		f := newFixture(t)
		f.backend.Reply(http.MethodPost, "/api/contact", http.StatusOK, `{"success":true}`)

		rec := do(f.router, http.MethodPost, "/api/contact",
			`{"name":"  <b>Ann</b> ","email":"ann@example.com","message":"Hi <script>alert(1)</script>there & bye"}`, "")
		assertStatus(t, rec, http.StatusOK)

		var sent models.ContactMessage
		if err := json.Unmarshal([]byte(f.backend.Last(t).Body), &sent); err != nil {
			t.Fatal(err)
		}
		want := models.ContactMessage{Name: "Ann", Email: "ann@example.com", Message: "Hi there &amp; bye"}
		if sent != want {
			t.Errorf("forwarded %+v, want %+v", sent, want)
		}
	})

	t.Run("submissions are rate limited per client", func(t *testing.T) {
		backend := tu.NewBackend().Reply(http.MethodPost, "/api/contact", http.StatusOK, `{"success":true}`)
		srv := httptest.NewServer(backend)
		defer srv.Close()

		client := services.NewBackendClient(shared.BackendConfig{URL: srv.URL}, srv.Client(), shared.NewLogger(io.Discard))
		h := NewRouter(client, RouterOptions{Logger: shared.NewLogger(io.Discard), ContactRate: 0.001, ContactBurst: 1})

		body := `{"name":"Ann","email":"ann@example.com","message":"long enough text"}`
		assertStatus(t, do(h, http.MethodPost, "/api/contact", body, ""), http.StatusOK)
		rec := do(h, http.MethodPost, "/api/contact", body, "")
		assertStatus(t, rec, http.StatusTooManyRequests)
		if rec.Header().Get("Retry-After") == "" {
			t.Error("expected Retry-After")
		}
		assertStatus(t, do(h, http.MethodGet, "/healthz", "", ""), http.StatusOK)
	})
}

func TestDetails(t *testing.T) {
	t.Run("relays the record", func(t *testing.T) {
		f := newFixture(t)
		f.backend.Reply(http.MethodGet, "/api/movies/details/949", http.StatusOK, `{"id":949,"title":"Heat"}`)

		rec := do(f.router, http.MethodGet, "/api/details/949", "", "token=abc")
		assertStatus(t, rec, http.StatusOK)
		if decode(t, rec)["title"] != "Heat" {
			t.Errorf("body = %s", rec.Body.String())
		}
		if c := f.backend.Last(t).Cookie; c != "token=abc" {
			t.Errorf("cookie = %q", c)
		}
	})

	t.Run("backend errors keep their status", func(t *testing.T) {
		f := newFixture(t)
		f.backend.Reply(http.MethodGet, "/api/movies/details/1", http.StatusNotFound, `{"error":"Movie not found"}`)
		f.backend.Reply(http.MethodGet, "/api/movies/details/2", http.StatusBadGateway, "")

		rec := do(f.router, http.MethodGet, "/api/details/1", "", "")
		assertStatus(t, rec, http.StatusNotFound)
		assertError(t, rec, "Movie not found")

		rec = do(f.router, http.MethodGet, "/api/details/2", "", "")
		assertStatus(t, rec, http.StatusBadGateway)
		assertError(t, rec, "Failed to fetch movie details")
	})

	t.Run("non-JSON success is a server error", func(t *testing.T) {
		f := newFixture(t)
		f.backend.Reply(http.MethodGet, "/api/movies/details/3", http.StatusOK, "<html></html>")

		rec := do(f.router, http.MethodGet, "/api/details/3", "", "")
		assertStatus(t, rec, http.StatusInternalServerError)
		assertError(t, rec, "Internal server error")
	})

	t.Run("missing id is rejected", func(t *testing.T) {
		f := newFixture(t)
		rec := do(f.router, http.MethodGet, "/api/details/", "", "")
		assertStatus(t, rec, http.StatusBadRequest)
		assertError(t, rec, models.MsgMovieIDRequired)
	})
}

func TestRouting(t *testing.T) {
	f := newFixture(t)

	t.Run("unsupported methods get 405 with Allow", func(t *testing.T) {
		rec := do(f.router, http.MethodPut, "/api/movies", "", "")
		assertStatus(t, rec, http.StatusMethodNotAllowed)
		if allow := rec.Header().Get("Allow"); allow != http.MethodGet {
			t.Errorf("Allow = %q", allow)
		}
	})

	t.Run("responses carry a request id", func(t *testing.T) {
		f.backend.Reply(http.MethodGet, "/api/movies/discover", http.StatusOK, `{"movies":[]}`)
		rec := do(f.router, http.MethodGet, "/api/movies", "", "")
		if rec.Header().Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID")
		}
	})

	t.Run("healthz reports backend state", func(t *testing.T) {
		rec := do(f.router, http.MethodGet, "/healthz", "", "")
		assertStatus(t, rec, http.StatusOK)
		got := decode(t, rec)
		if got["backend_configured"] != true || got["breaker"] != "disabled" {
			t.Errorf("healthz = %v", got)
		}
	})

	t.Run("metrics are exposed", func(t *testing.T) {
		rec := do(f.router, http.MethodGet, "/metrics", "", "")
		assertStatus(t, rec, http.StatusOK)
		if !strings.Contains(rec.Body.String(), "flickx_") {
			t.Error("expected flickx metrics in exposition")
		}
	})
}
