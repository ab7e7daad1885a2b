package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/flickx/internal/models"
	"github.com/goccy/go-json"
)

// DefaultProfile is the preferences row used when no profile is named.
const DefaultProfile = "default"

// PreferenceRepository stores [models.Preferences] as JSON arrays, one row per profile.
type PreferenceRepository struct {
	db *sql.DB
}

// NewPreferenceRepository creates a new [PreferenceRepository] with the given database connection
func NewPreferenceRepository(db *sql.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

func profileKey(profile string) string {
	if p := strings.TrimSpace(profile); p != "" {
		return p
	}
	return DefaultProfile
}

// Get returns the saved preferences for profile. A profile with nothing saved yields empty preferences.
func (r *PreferenceRepository) Get(profile string) (models.Preferences, error) {
	var languages, genres string
	err := r.db.QueryRow(
		`SELECT languages, genres FROM preferences WHERE profile = ?`, profileKey(profile),
	).Scan(&languages, &genres)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Preferences{}, nil
	}
	if err != nil {
		return models.Preferences{}, fmt.Errorf("failed to query preferences: %w", err)
	}

	var prefs models.Preferences
	if err := json.Unmarshal([]byte(languages), &prefs.Languages); err != nil {
		return models.Preferences{}, fmt.Errorf("failed to decode languages: %w", err)
	}
	if err := json.Unmarshal([]byte(genres), &prefs.Genres); err != nil {
		return models.Preferences{}, fmt.Errorf("failed to decode genres: %w", err)
	}
	return prefs, nil
}

// Save replaces the preferences for profile.
func (r *PreferenceRepository) Save(profile string, prefs models.Preferences) error {
	if prefs.Languages == nil {
		prefs.Languages = []string{}
	}
	if prefs.Genres == nil {
		prefs.Genres = []int{}
	}

	languages, err := json.Marshal(prefs.Languages)
	if err != nil {
		return fmt.Errorf("failed to encode languages: %w", err)
	}
	genres, err := json.Marshal(prefs.Genres)
	if err != nil {
		return fmt.Errorf("failed to encode genres: %w", err)
	}

	query := `
		INSERT INTO preferences (profile, languages, genres, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(profile) DO UPDATE SET languages = excluded.languages, genres = excluded.genres, updated_at = excluded.updated_at
	`
	if _, err := r.db.Exec(query, profileKey(profile), string(languages), string(genres), time.Now()); err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}

// Clear deletes the preferences for profile.
func (r *PreferenceRepository) Clear(profile string) error {
	result, err := r.db.Exec(`DELETE FROM preferences WHERE profile = ?`, profileKey(profile))
	if err != nil {
		return fmt.Errorf("failed to clear preferences: %w", err)
	}
	return expectRow(result, "preferences", profileKey(profile))
}
