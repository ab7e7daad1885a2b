package models

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/desertthunder/flickx/internal/shared"
	"github.com/goccy/go-json"
)

// Listing is one page of a movie listing.
type Listing struct {
	Results    []MovieSummary `json:"results"`
	TotalPages int            `json:"total_pages"`
}

// movieWire is the union of field names the backend uses across listing endpoints.
type movieWire struct {
	ID              *int64   `json:"id"`
	MovieID         *int64   `json:"movieId"`
	Title           string   `json:"title"`
	Overview        string   `json:"overview"`
	PosterPath      *string  `json:"poster_path"`
	PosterPathCamel *string  `json:"posterPath"`
	PosterURL       *string  `json:"posterUrl"`
	Rating          *float64 `json:"rating"`
	Year            Year     `json:"year"`
	Genres          []string `json:"genres"`
	Language        *string  `json:"language"`
}

func (w movieWire) summary() (MovieSummary, error) {
	var id int64
	switch {
	case w.MovieID != nil && *w.MovieID > 0:
		id = *w.MovieID
	case w.ID != nil && *w.ID > 0:
		id = *w.ID
	default:
		return MovieSummary{}, fmt.Errorf("%w: listing item %q has no movie id", shared.ErrUnexpectedShape, w.Title)
	}

	m := MovieSummary{
		ID:       id,
		Title:    w.Title,
		Overview: w.Overview,
		Rating:   w.Rating,
		Year:     w.Year,
		Genres:   w.Genres,
	}
	for _, p := range []*string{w.PosterPath, w.PosterPathCamel, w.PosterURL} {
		if p != nil && *p != "" {
			m.PosterPath = *p
			break
		}
	}
	if w.Language != nil {
		m.Language = *w.Language
	}
	return m, nil
}

// DecodeListing normalizes a listing body of the form {results: [...], total_pages: n}.
//
// Absent results yield an empty page; a missing, non-numeric or non-positive total_pages yields 1. The wishlist's
// older {data: {items: [...]}} envelope is accepted when results is absent. A results value that is not an array,
// or an item without an id, fails with [shared.ErrUnexpectedShape].
func DecodeListing(body []byte) (Listing, error) {
	listing := Listing{Results: []MovieSummary{}, TotalPages: 1}

	obj, err := decodeObject(body)
	if err != nil || obj == nil {
		return listing, err
	}

	raw, ok := present(obj, "results")
	if !ok {
		if data, found := present(obj, "data"); found {
			var envelope map[string]json.RawMessage
			if err := json.Unmarshal(data, &envelope); err == nil {
				raw, ok = present(envelope, "items")
			}
		}
	}

	if ok {
		var items []movieWire
		if err := json.Unmarshal(raw, &items); err != nil {
			return listing, fmt.Errorf("%w: results: %v", shared.ErrUnexpectedShape, err)
		}
		for _, item := range items {
			m, err := item.summary()
			if err != nil {
				return listing, err
			}
			listing.Results = append(listing.Results, m)
		}
	}

	if raw, ok := present(obj, "total_pages"); ok {
		var n float64
		if err := json.Unmarshal(raw, &n); err == nil && n > 0 {
			listing.TotalPages = int(n)
		}
	}

	return listing, nil
}

// DecodeIDs extracts the bare id list stored under field. An absent or null field yields an empty list.
func DecodeIDs(body []byte, field string) ([]int64, error) {
	ids := []int64{}

	obj, err := decodeObject(body)
	if err != nil || obj == nil {
		return ids, err
	}

	raw, ok := present(obj, field)
	if !ok {
		return ids, nil
	}

	var nums []json.Number
	if err := json.Unmarshal(raw, &nums); err != nil {
		return ids, fmt.Errorf("%w: %s: %v", shared.ErrUnexpectedShape, field, err)
	}
	for _, n := range nums {
		id, err := movieID(n)
		if err != nil {
			return []int64{}, fmt.Errorf("%w: %s: %v", shared.ErrUnexpectedShape, field, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// movieID accepts positive integers, including integral floats such as 3.0 or 1e3.
func movieID(n json.Number) (int64, error) {
	id, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil {
		f, ferr := n.Float64()
		if ferr != nil {
			return 0, err
		}
		if f != math.Trunc(f) {
			return 0, fmt.Errorf("id %s is not an integer", n)
		}
		if f < 1 || f >= 1<<63 {
			return 0, fmt.Errorf("id %s is out of range", n)
		}
		id = int64(f)
	}
	if id <= 0 {
		return 0, fmt.Errorf("id %d is not positive", id)
	}
	return id, nil
}

// DecodeUser extracts the user from a "who am I" body.
//
// The user lives under "data", falling back to "user". A missing, null, false, zero or empty value means no
// session and yields (nil, nil).
func DecodeUser(body []byte) (*UserInfo, error) {
	obj, err := decodeObject(body)
	if err != nil || obj == nil {
		return nil, err
	}

	raw, ok := present(obj, "data")
	if !ok {
		raw, ok = present(obj, "user")
	}
	if !ok {
		return nil, nil
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: user: %v", shared.ErrUnexpectedShape, err)
	}

	switch val := v.(type) {
	case map[string]any:
		u := &UserInfo{
			ID:       scalarString(firstOf(val, "id", "_id", "userId")),
			Email:    scalarString(val["email"]),
			Name:     scalarString(val["name"]),
			Username: scalarString(val["username"]),
		}
		return u, nil
	case bool:
		if !val {
			return nil, nil
		}
		return &UserInfo{}, nil
	case string:
		if val == "" {
			return nil, nil
		}
		return &UserInfo{ID: val}, nil
	case float64:
		if val == 0 {
			return nil, nil
		}
		return &UserInfo{ID: strconv.FormatFloat(val, 'f', -1, 64)}, nil
	case []any:
		return &UserInfo{}, nil
	}
	return nil, nil
}

// decodeObject parses body as a JSON object. A null body returns (nil, nil).
func decodeObject(body []byte) (map[string]json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrUnexpectedShape, err)
	}
	return obj, nil
}

// present returns the raw value for key unless it is missing or null.
func present(obj map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	raw, ok := obj[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false
	}
	return raw, true
}

func firstOf(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func scalarString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}
