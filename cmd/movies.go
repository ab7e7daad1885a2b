package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/flickx/internal/formatter"
	"github.com/desertthunder/flickx/internal/models"
	"github.com/desertthunder/flickx/internal/repositories"
	"github.com/desertthunder/flickx/internal/shared"
	"github.com/desertthunder/flickx/internal/tasks"
	"github.com/urfave/cli/v3"
)

const posterBaseURL = "https://image.tmdb.org/t/p/w500"

// MoviesDiscover prints one page of discovery results.
func (r *Runner) MoviesDiscover(ctx context.Context, cmd *cli.Command) error {
	filter, err := r.filterFrom(cmd, true)
	if err != nil {
		return err
	}
	client, err := r.apiClient()
	if err != nil {
		return err
	}
	return r.printSource(ctx, cmd, "Discover", tasks.DiscoverSource(client), filter)
}

// MoviesRecommendations prints one page of recommendations.
func (r *Runner) MoviesRecommendations(ctx context.Context, cmd *cli.Command) error {
	filter, err := r.filterFrom(cmd, false)
	if err != nil {
		return err
	}
	client, err := r.apiClient()
	if err != nil {
		return err
	}
	return r.printSource(ctx, cmd, "Recommendations", tasks.RecommendationsSource(client), filter)
}

// MoviesDetails prints one movie, optionally opening its poster.
func (r *Runner) MoviesDetails(ctx context.Context, cmd *cli.Command) error {
	id, err := movieIDFrom(cmd)
	if err != nil {
		return err
	}
	client, err := r.apiClient()
	if err != nil {
		return err
	}

	details, err := client.Details(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(details, true)
	}

	r.writePlain("%s\n", formatter.DetailsToText(details))
	if acct, err := r.account(ctx); err == nil {
		defer acct.teardown()
		if acct.likes.IsMember(id) {
			r.writePlain("♥ liked\n")
		}
		if acct.wishlist.IsMember(id) {
			r.writePlain("★ on wishlist\n")
		}
	}

	if cmd.Bool("poster") {
		if details.PosterPath == "" {
			return fmt.Errorf("%w: movie %d has no poster", shared.ErrInvalidArgument, id)
		}
		return shared.OpenBrowser(posterBaseURL + details.PosterPath)
	}
	return nil
}

// printSource fetches the requested page from source and renders it with like and wishlist markers.
func (r *Runner) printSource(ctx context.Context, cmd *cli.Command, title string, source tasks.Source, filter tasks.Filter) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	page := max(int(cmd.Int("page")), 1)

	listing, err := source(ctx, page, filter)
	if err != nil {
		return err
	}
	return r.printListing(ctx, format, title, page, listing)
}

func (r *Runner) printListing(ctx context.Context, format formatter.Format, title string, page int, listing models.Listing) error {
	var marker formatter.Marker
	if format == formatter.Table {
		if acct, err := r.account(ctx); err == nil {
			defer acct.teardown()
			if acct.session.Authenticated() {
				marker = markerFor(acct)
			}
		} else {
			r.logger.Debug("skipping membership markers", "error", err)
		}
	}

	if err := formatter.Render(r.output, format, title, listing.Results, marker); err != nil {
		return err
	}
	if format == formatter.Table {
		return r.writePlain("Page %d of %d\n", page, max(listing.TotalPages, 1))
	}
	return nil
}

func markerFor(acct *account) formatter.Marker {
	return func(id int64) string {
		var marks []string
		if acct.likes.IsMember(id) {
			marks = append(marks, "♥")
		}
		if acct.wishlist.IsMember(id) {
			marks = append(marks, "★")
		}
		return strings.Join(marks, " ")
	}
}

// filterFrom builds a listing filter from flags, falling back to saved preferences for languages and genres.
func (r *Runner) filterFrom(cmd *cli.Command, withSearch bool) (tasks.Filter, error) {
	languages := splitList(cmd.String("languages"))
	genres, err := parseGenres(cmd.String("genres"))
	if err != nil {
		return tasks.Filter{}, err
	}

	filter := tasks.Filter{Languages: languages, Genres: genres}
	if len(languages) == 0 && len(genres) == 0 {
		prefs, err := r.savedPreferences()
		if err != nil {
			r.logger.Debug("no saved preferences", "error", err)
		} else {
			filter = tasks.FromPreferences(prefs)
		}
	}
	if withSearch {
		filter.Search = cmd.String("search")
	}
	return filter, nil
}

func (r *Runner) savedPreferences() (models.Preferences, error) {
	db, err := r.database()
	if err != nil {
		return models.Preferences{}, err
	}
	return repositories.NewPreferenceRepository(db).Get(repositories.DefaultProfile)
}

func movieIDFrom(cmd *cli.Command) (int64, error) {
	raw := strings.TrimSpace(cmd.StringArg("movie-id"))
	if raw == "" {
		return 0, fmt.Errorf("%w: %s", shared.ErrMissingArgument, models.MsgMovieIDRequired)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: movie id must be a positive integer, got %q", shared.ErrInvalidArgument, raw)
	}
	return id, nil
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseGenres(s string) ([]int, error) {
	parts := splitList(s)
	if len(parts) == 0 {
		return nil, nil
	}
	genres := make([]int, len(parts))
	for i, p := range parts {
		g, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("%w: genre %q is not a number", shared.ErrInvalidFlag, p)
		}
		genres[i] = g
	}
	return genres, nil
}
