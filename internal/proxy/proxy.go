package proxy

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flickx/internal/metrics"
	"github.com/desertthunder/flickx/internal/server"
	"github.com/desertthunder/flickx/internal/services"
	"github.com/desertthunder/flickx/internal/shared"
)

const maxBodyBytes = 1 << 20

const (
	msgNotConfigured  = "Backend URL is not configured"
	msgInternal       = "Internal Server Error"
	msgDetailsFailed  = "Failed to fetch movie details"
	msgDetailsBroken  = "Internal server error"
	msgMethodNotAllow = "Method not allowed"
)

// Forwarder sends a request to the backend. [*services.BackendClient] is the production implementation.
type Forwarder interface {
	Configured() bool
	Forward(ctx context.Context, req services.Request) (*services.APIResponse, error)
}

// Handler serves every proxy route. It implements [server.Handler].
type Handler struct {
	backend Forwarder
	logger  *log.Logger
	routes  map[string]map[string]http.HandlerFunc
	order   []string
}

// NewHandler builds the route table around backend.
func NewHandler(backend Forwarder, logger *log.Logger) *Handler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	h := &Handler{
		backend: backend,
		logger:  shared.WithLogger(logger, "component", "proxy"),
		routes:  make(map[string]map[string]http.HandlerFunc),
	}

	h.route("/api/auth/login", http.MethodPost, h.login)
	h.route("/api/auth/logout", http.MethodPost, h.logout)
	h.route("/api/auth/me", http.MethodGet, h.me)
	h.route("/api/contact", http.MethodPost, h.contact)
	h.route("/api/details/{movieId}", http.MethodGet, h.details)
	h.route("/api/details/{$}", http.MethodGet, h.details)
	h.route("/api/movies", http.MethodGet, h.discover)
	h.route("/api/recommendations", http.MethodGet, h.recommendations)
	h.route("/api/likedMovies", http.MethodGet, h.listLikes)
	h.route("/api/likedMovies", http.MethodPost, h.addLike)
	h.route("/api/likedMovies", http.MethodDelete, h.removeLike)
	h.route("/api/wishlist", http.MethodGet, h.listWishlist)
	h.route("/api/wishlist", http.MethodPost, h.addWishlist)
	h.route("/api/wishlist", http.MethodDelete, h.removeWishlist)
	h.route("/api/wishlist/remove", http.MethodDelete, h.removeWishlist)
	return h
}

func (h *Handler) route(pattern, method string, fn http.HandlerFunc) {
	if h.routes[pattern] == nil {
		h.routes[pattern] = make(map[string]http.HandlerFunc)
		h.order = append(h.order, pattern)
	}
	h.routes[pattern][method] = fn
}

// Routes lists the ServeMux patterns in registration order.
func (h *Handler) Routes() []string {
	return append([]string(nil), h.order...)
}

// ServeHTTP dispatches on the matched pattern and method. It must sit behind a [http.ServeMux] so that
// r.Pattern is set.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	methods, ok := h.routes[r.Pattern]
	if !ok {
		server.WriteJSON(w, http.StatusNotFound, errorBody("Not found"))
		return
	}
	fn, ok := methods[r.Method]
	if !ok {
		allowed := make([]string, 0, len(methods))
		for m := range methods {
			allowed = append(allowed, m)
		}
		w.Header().Set("Allow", strings.Join(allowed, ", "))
		server.WriteJSON(w, http.StatusMethodNotAllowed, errorBody(msgMethodNotAllow))
		return
	}
	fn(w, r)
}

// call is one backend round trip made on behalf of a route.
type call struct {
	name     string
	req      services.Request
	fallback func(ok bool) map[string]any
	failure  map[string]any
	// cookies are set after the backend's own Set-Cookie values, and on failure.
	cookies []*http.Cookie
}

// relay performs c and writes the backend's body and status, or c.fallback when the body is empty, not JSON or
// null. Every Set-Cookie from the backend is copied. Transport failures become a 500 with c.failure.
func (h *Handler) relay(w http.ResponseWriter, r *http.Request, c call) {
	c.req.Header = forwardHeaders(r)
	if c.req.Endpoint == "" {
		c.req.Endpoint = c.req.Path
	}

	resp, err := h.backend.Forward(r.Context(), c.req)
	if err != nil {
		for _, ck := range c.cookies {
			http.SetCookie(w, ck)
		}
		h.fail(w, r, c.name, err, c.failure)
		return
	}

	for _, v := range resp.SetCookies() {
		w.Header().Add("Set-Cookie", v)
	}
	for _, ck := range c.cookies {
		http.SetCookie(w, ck)
	}

	if !resp.IsJSON || resp.JSONData == nil {
		server.WriteJSON(w, resp.StatusCode, c.fallback(resp.OK()))
		return
	}
	writeRaw(w, resp.StatusCode, resp.Body)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, name string, err error, body map[string]any) {
	if errors.Is(err, context.Canceled) {
		h.logger.Debug("client went away", "route", name)
	} else {
		h.logger.Error(name+" failed", "route", name, "error", err, "request_id", server.RequestIDFrom(r.Context()))
	}
	if body == nil {
		body = errorBody(msgInternal)
	}
	server.WriteJSON(w, http.StatusInternalServerError, body)
}

// requireBackend writes the configuration error and returns false when no backend origin is set.
func (h *Handler) requireBackend(w http.ResponseWriter, extra map[string]any) bool {
	if h.backend.Configured() {
		return true
	}
	body := errorBody(msgNotConfigured)
	for k, v := range extra {
		body[k] = v
	}
	server.WriteJSON(w, http.StatusInternalServerError, body)
	return false
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request, msg string) {
	h.logger.Debug("rejected input", "path", r.URL.Path, "reason", msg)
	metrics.InputRejections.WithLabelValues(r.URL.Path).Inc()
	server.WriteJSON(w, http.StatusBadRequest, errorBody(msg))
}

// forwardHeaders carries the inbound Cookie header, which is the only session state passed to the backend.
func forwardHeaders(r *http.Request) http.Header {
	header := http.Header{"Content-Type": {"application/json"}}
	if cookie := r.Header.Get("Cookie"); cookie != "" {
		header.Set("Cookie", cookie)
	}
	if id := server.RequestIDFrom(r.Context()); id != "" {
		header.Set(server.RequestIDHeader, id)
	}
	return header
}

// pick copies the named query parameters that are present and non-empty.
func pick(q url.Values, keys ...string) url.Values {
	out := url.Values{}
	for _, k := range keys {
		if v := q.Get(k); v != "" {
			out.Set(k, v)
		}
	}
	return out
}

func readBody(r *http.Request) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

func errorBody(msg string) map[string]any {
	return map[string]any{"error": msg}
}

func success(ok bool) map[string]any {
	return map[string]any{"success": ok}
}

func emptyCollection(key string) func(bool) map[string]any {
	return func(bool) map[string]any { return map[string]any{key: []any{}} }
}

func failureWith(key string, value any) map[string]any {
	return map[string]any{"error": msgInternal, key: value}
}
