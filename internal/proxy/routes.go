package proxy

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/flickx/internal/models"
	"github.com/desertthunder/flickx/internal/server"
	"github.com/desertthunder/flickx/internal/services"
	"github.com/desertthunder/flickx/internal/shared"
	"github.com/goccy/go-json"
)

// payloadFields are forwarded to the backend, in this order, when present in a like or wishlist body.
var payloadFields = []string{"movieId", "title", "posterUrl", "overview", "rating", "year", "genres"}

// clearTokenCookie expires the local session cookie on logout.
func clearTokenCookie() *http.Cookie {
	return &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if !h.requireBackend(w, nil) {
		return
	}

	body, err := readBody(r)
	if err != nil {
		h.fail(w, r, "login", err, nil)
		return
	}
	body = bytes.TrimSpace(body)
	if !json.Valid(body) {
		body = []byte("{}")
	}

	h.relay(w, r, call{
		name:     "login",
		req:      services.Request{Method: http.MethodPost, Path: "/api/auth/login", Body: body},
		fallback: success,
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if !h.backend.Configured() {
		http.SetCookie(w, clearTokenCookie())
		h.requireBackend(w, nil)
		return
	}

	h.relay(w, r, call{
		name:     "logout",
		req:      services.Request{Method: http.MethodPost, Path: "/api/auth/logout"},
		fallback: success,
		cookies:  []*http.Cookie{clearTokenCookie()},
	})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	if !h.requireBackend(w, map[string]any{"authenticated": false}) {
		return
	}

	h.relay(w, r, call{
		name:     "auth me",
		req:      services.Request{Method: http.MethodGet, Path: "/api/auth/me"},
		fallback: func(ok bool) map[string]any { return map[string]any{"authenticated": ok} },
		failure:  failureWith("authenticated", false),
	})
}

func (h *Handler) contact(w http.ResponseWriter, r *http.Request) {
	if !h.requireBackend(w, nil) {
		return
	}

	body, err := readBody(r)
	if err != nil {
		h.fail(w, r, "contact", err, nil)
		return
	}

	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		fields = nil
	}
	msg := models.ContactMessage{
		Name:    stringField(fields, "name"),
		Email:   stringField(fields, "email"),
		Message: stringField(fields, "message"),
	}

	if err := msg.Validate(); err != nil {
		var inputErr *models.InputError
		if errors.As(err, &inputErr) {
			h.reject(w, r, inputErr.Message)
			return
		}
		h.fail(w, r, "contact", err, nil)
		return
	}

	sanitized, err := json.Marshal(models.ContactMessage{
		Name:    SanitizeHTML(strings.TrimSpace(msg.Name)),
		Email:   SanitizeHTML(strings.TrimSpace(msg.Email)),
		Message: SanitizeHTML(strings.TrimSpace(msg.Message)),
	})
	if err != nil {
		h.fail(w, r, "contact", err, nil)
		return
	}

	h.relay(w, r, call{
		name:     "contact",
		req:      services.Request{Method: http.MethodPost, Path: "/api/contact", Body: sanitized},
		fallback: success,
	})
}

func (h *Handler) details(w http.ResponseWriter, r *http.Request) {
	if !h.requireBackend(w, nil) {
		return
	}

	movieID := r.PathValue("movieId")
	if movieID == "" {
		h.reject(w, r, models.MsgMovieIDRequired)
		return
	}

	failure := errorBody(msgDetailsBroken)
	resp, err := h.backend.Forward(r.Context(), services.Request{
		Method:   http.MethodGet,
		Path:     "/api/movies/details/" + url.PathEscape(movieID),
		Header:   forwardHeaders(r),
		Endpoint: "/api/movies/details/{movieId}",
	})
	if err != nil {
		h.fail(w, r, "movie details", err, failure)
		return
	}

	if !resp.OK() {
		msg := resp.ErrorMessage()
		if msg == "" {
			msg = msgDetailsFailed
		}
		server.WriteJSON(w, resp.StatusCode, errorBody(msg))
		return
	}
	if !resp.IsJSON {
		h.fail(w, r, "movie details", fmt.Errorf("%w: details body is not JSON", shared.ErrUnexpectedShape), failure)
		return
	}
	writeRaw(w, http.StatusOK, resp.Body)
}

func (h *Handler) discover(w http.ResponseWriter, r *http.Request) {
	if !h.requireBackend(w, nil) {
		return
	}

	h.relay(w, r, call{
		name: "discover",
		req: services.Request{
			Method: http.MethodGet,
			Path:   "/api/movies/discover",
			Query:  pick(r.URL.Query(), "page", "languages", "search", "genres"),
		},
		fallback: func(ok bool) map[string]any { return map[string]any{"movies": []any{}, "success": ok} },
		failure:  failureWith("movies", []any{}),
	})
}

func (h *Handler) recommendations(w http.ResponseWriter, r *http.Request) {
	if !h.requireBackend(w, nil) {
		return
	}

	h.relay(w, r, call{
		name: "recommendations",
		req: services.Request{
			Method: http.MethodGet,
			Path:   "/api/movies/recommendations",
			Query:  pick(r.URL.Query(), "page", "languages", "genres"),
		},
		fallback: emptyCollection("recommendations"),
		failure:  failureWith("recommendations", []any{}),
	})
}

// idsOnly reports whether the ids query parameter selects the bare id list.
func idsOnly(q url.Values) bool {
	v := q.Get("ids")
	return v == "1" || v == "true"
}

func (h *Handler) listLikes(w http.ResponseWriter, r *http.Request) {
	if !h.requireBackend(w, nil) {
		return
	}

	q := r.URL.Query()
	path := "/api/movies/likedMovies"
	if idsOnly(q) {
		path = "/api/movies/likedMovieIds"
	}

	h.relay(w, r, call{
		name:     "list likes",
		req:      services.Request{Method: http.MethodGet, Path: path, Query: pick(q, "page", "ids")},
		fallback: emptyCollection("likes"),
		failure:  failureWith("likes", []any{}),
	})
}

func (h *Handler) listWishlist(w http.ResponseWriter, r *http.Request) {
	if !h.requireBackend(w, nil) {
		return
	}

	q := r.URL.Query()
	path := "/api/wishlist"
	if idsOnly(q) {
		path = "/api/wishlist/ids"
	}

	h.relay(w, r, call{
		name:     "list wishlist",
		req:      services.Request{Method: http.MethodGet, Path: path, Query: pick(q, "page")},
		fallback: emptyCollection("wishlist"),
		failure:  failureWith("wishlist", []any{}),
	})
}

func (h *Handler) addLike(w http.ResponseWriter, r *http.Request) {
	h.addMember(w, r, "add like", "/api/movies/like")
}

func (h *Handler) addWishlist(w http.ResponseWriter, r *http.Request) {
	h.addMember(w, r, "add to wishlist", "/api/wishlist/add")
}

func (h *Handler) addMember(w http.ResponseWriter, r *http.Request, name, backendPath string) {
	if !h.requireBackend(w, nil) {
		return
	}

	fields, ok := h.movieFields(w, r, name)
	if !ok {
		return
	}

	h.relay(w, r, call{
		name:     name,
		req:      services.Request{Method: http.MethodPost, Path: backendPath, Body: orderedObject(fields, payloadFields)},
		fallback: success,
	})
}

func (h *Handler) removeLike(w http.ResponseWriter, r *http.Request) {
	if !h.requireBackend(w, nil) {
		return
	}

	if r.URL.Query().Get("deleteAll") == "true" {
		h.relay(w, r, call{
			name:     "clear likes",
			req:      services.Request{Method: http.MethodDelete, Path: "/api/movies/clear-all-likes"},
			fallback: success,
		})
		return
	}

	fields, ok := h.movieFields(w, r, "remove like")
	if !ok {
		return
	}

	h.relay(w, r, call{
		name:     "remove like",
		req:      services.Request{Method: http.MethodPost, Path: "/api/movies/dislike", Body: orderedObject(fields, []string{"movieId"})},
		fallback: success,
	})
}

func (h *Handler) removeWishlist(w http.ResponseWriter, r *http.Request) {
	if !h.requireBackend(w, nil) {
		return
	}

	fields, ok := h.movieFields(w, r, "remove from wishlist")
	if !ok {
		return
	}

	h.relay(w, r, call{
		name:     "remove from wishlist",
		req:      services.Request{Method: http.MethodDelete, Path: "/api/wishlist/delete", Body: orderedObject(fields, []string{"movieId"})},
		fallback: success,
	})
}

// movieFields reads a mutation body and checks movieId. It writes the 500 or 400 itself and returns false when
// the request cannot proceed.
func (h *Handler) movieFields(w http.ResponseWriter, r *http.Request, name string) (map[string]json.RawMessage, bool) {
	body, err := readBody(r)
	if err != nil {
		h.fail(w, r, name, err, nil)
		return nil, false
	}

	fields, err := decodeFields(body)
	if err != nil {
		h.fail(w, r, name, err, nil)
		return nil, false
	}

	if !truthy(fields["movieId"]) {
		h.reject(w, r, models.MsgMovieIDRequired)
		return nil, false
	}
	return fields, true
}

// decodeFields parses a JSON request body into its top-level members.
//
// Malformed JSON and a literal null are errors. Any other non-object value has no members.
func decodeFields(body []byte) (map[string]json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: request body is not valid JSON", shared.ErrInvalidInput)
	}
	if bytes.Equal(body, []byte("null")) {
		return nil, fmt.Errorf("%w: request body is null", shared.ErrInvalidInput)
	}
	if body[0] != '{' {
		return map[string]json.RawMessage{}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	return fields, nil
}

// truthy reports whether a JSON value is present and not null, false, zero or an empty string.
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	switch string(raw) {
	case "null", "false", `""`:
		return false
	}
	if c := raw[0]; c == '-' || (c >= '0' && c <= '9') {
		n, err := strconv.ParseFloat(string(raw), 64)
		return err != nil || n != 0
	}
	return true
}

// orderedObject re-encodes the present keys of fields as a JSON object in key order.
func orderedObject(fields map[string]json.RawMessage, keys []string) []byte {
	var b bytes.Buffer
	b.WriteByte('{')
	first := true
	for _, k := range keys {
		raw, ok := fields[k]
		if !ok {
			continue
		}
		if !first {
			b.WriteByte(',')
		}
		first = false
		b.WriteString(strconv.Quote(k))
		b.WriteByte(':')
		b.Write(bytes.TrimSpace(raw))
	}
	b.WriteByte('}')
	return b.Bytes()
}

// stringField returns fields[key] when it is a string, else "".
func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}
