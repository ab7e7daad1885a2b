package main

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/desertthunder/flickx/internal/models"
	"github.com/desertthunder/flickx/internal/repositories"
	"github.com/desertthunder/flickx/internal/shared"
	"github.com/urfave/cli/v3"
)

func (r *Runner) preferences() (*repositories.PreferenceRepository, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	return repositories.NewPreferenceRepository(db), nil
}

// PrefsGet prints the saved filters.
func (r *Runner) PrefsGet(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.preferences()
	if err != nil {
		return err
	}
	prefs, err := repo.Get(repositories.DefaultProfile)
	if err != nil {
		return err
	}
	if prefs.IsEmpty() {
		return r.writePlain("No saved filters\n")
	}
	return r.writePrefs(prefs)
}

// PrefsSet replaces the saved filters.
func (r *Runner) PrefsSet(ctx context.Context, cmd *cli.Command) error {
	genres, err := parseGenres(cmd.String("genres"))
	if err != nil {
		return err
	}
	prefs := models.Preferences{Languages: splitList(cmd.String("languages")), Genres: genres}

	repo, err := r.preferences()
	if err != nil {
		return err
	}
	if err := repo.Save(repositories.DefaultProfile, prefs); err != nil {
		return err
	}

	r.logger.Debug("saved preferences", "languages", prefs.Languages, "genres", prefs.Genres)
	r.writePlain("✓ Saved filters\n")
	return r.writePrefs(prefs)
}

// PrefsClear forgets the saved filters.
func (r *Runner) PrefsClear(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.preferences()
	if err != nil {
		return err
	}
	if err := repo.Clear(repositories.DefaultProfile); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return r.writePlain("No saved filters\n")
		}
		return err
	}
	return r.writePlain("✓ Cleared filters\n")
}

func (r *Runner) writePrefs(p models.Preferences) error {
	genres := make([]string, len(p.Genres))
	for i, g := range p.Genres {
		genres[i] = strconv.Itoa(g)
	}
	r.writePlain("Languages: %s\n", orNone(strings.Join(p.Languages, ", ")))
	return r.writePlain("Genres: %s\n", orNone(strings.Join(genres, ", ")))
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
