package models

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// MovieSummary is the read-only projection returned by every listing endpoint.
type MovieSummary struct {
	ID         int64    `json:"id"`
	Title      string   `json:"title"`
	Overview   string   `json:"overview"`
	PosterPath string   `json:"poster_path,omitempty"`
	Rating     *float64 `json:"rating,omitempty"`
	Year       Year     `json:"year,omitempty"`
	Genres     []string `json:"genres,omitempty"`
	Language   string   `json:"language,omitempty"`
}

// Payload builds the [MoviePayload] submitted when the summary is liked or wishlisted.
func (m MovieSummary) Payload() MoviePayload {
	return MoviePayload{
		MovieID:   m.ID,
		Title:     m.Title,
		PosterURL: m.PosterPath,
		Overview:  m.Overview,
		Rating:    m.Rating,
		Year:      m.Year,
		Genres:    m.Genres,
	}
}

// MovieDetails is the record behind the details view.
type MovieDetails struct {
	ID                  int64               `json:"id"`
	Title               string              `json:"title"`
	Overview            string              `json:"overview"`
	PosterPath          string              `json:"poster_path,omitempty"`
	BackdropPath        string              `json:"backdrop_path,omitempty"`
	Rating              *float64            `json:"rating,omitempty"`
	ReleaseDate         string              `json:"releaseDate,omitempty"`
	Genres              []string            `json:"genres,omitempty"`
	Language            string              `json:"language,omitempty"`
	Runtime             *int                `json:"runtime,omitempty"`
	Tagline             string              `json:"tagline,omitempty"`
	Status              string              `json:"status,omitempty"`
	ProductionCompanies []ProductionCompany `json:"production_companies,omitempty"`
}

// ProductionCompany is a studio credited on [MovieDetails].
type ProductionCompany struct {
	Name     string `json:"name"`
	LogoPath string `json:"logo_path,omitempty"`
}

// FormatRuntime renders a runtime in minutes as "2h 15m", or "N/A" when unknown.
func (d MovieDetails) FormatRuntime() string {
	if d.Runtime == nil || *d.Runtime <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%dh %dm", *d.Runtime/60, *d.Runtime%60)
}

// MoviePayload is the body submitted when adding a membership entry.
//
// Only MovieID is required; the rest is metadata the backend stores so it can render lists without refetching details.
type MoviePayload struct {
	MovieID   int64    `json:"movieId" validate:"required,gt=0"`
	Title     string   `json:"title"`
	PosterURL string   `json:"posterUrl"`
	Overview  string   `json:"overview"`
	Rating    *float64 `json:"rating,omitempty"`
	Year      Year     `json:"year,omitempty"`
	Genres    []string `json:"genres,omitempty"`
}

// Validate checks the payload carries a positive movie id.
func (p MoviePayload) Validate() error {
	return validateStruct(p)
}

// Year holds a release year that the backend may send as a number or a string.
type Year string

// UnmarshalJSON accepts numbers, strings and null.
func (y *Year) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*y = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*y = Year(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("year must be a number or string: %w", err)
	}
	*y = Year(n.String())
	return nil
}

// MarshalJSON emits numeric years as numbers and anything else as a string.
func (y Year) MarshalJSON() ([]byte, error) {
	if y == "" {
		return []byte("null"), nil
	}
	if _, err := strconv.Atoi(string(y)); err == nil {
		return []byte(y), nil
	}
	return json.Marshal(string(y))
}

// UserInfo is the "who am I" payload for an authenticated session.
type UserInfo struct {
	ID       string `json:"id,omitempty"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	Username string `json:"username,omitempty"`
}

// DisplayName picks the most human-friendly identifier available.
func (u UserInfo) DisplayName() string {
	for _, s := range []string{u.Name, u.Username, u.Email, u.ID} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return "signed in"
}

// Session is the caller's authentication state.
//
// User is non-nil iff Authenticated is true. Loading is true until the first refresh resolves and while a
// refresh is in flight.
type Session struct {
	Authenticated bool
	Loading       bool
	User          *UserInfo
}

// Credentials is the login body forwarded to the backend.
type Credentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Validate checks both fields are present.
func (c Credentials) Validate() error {
	return validateStruct(c)
}

// Preferences holds the listing filters a user last applied.
type Preferences struct {
	Languages []string `json:"languages"`
	Genres    []int    `json:"genres"`
}

// IsEmpty reports whether no filter is set.
func (p Preferences) IsEmpty() bool {
	return len(p.Languages) == 0 && len(p.Genres) == 0
}
