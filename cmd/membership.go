package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/flickx/internal/formatter"
	"github.com/desertthunder/flickx/internal/models"
	"github.com/desertthunder/flickx/internal/shared"
	"github.com/urfave/cli/v3"
)

// MembershipList prints one page of kind's collection.
func (r *Runner) MembershipList(kind models.MembershipKind) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		format, err := formatter.ParseFormat(cmd.String("format"))
		if err != nil {
			return err
		}
		client, err := r.apiClient()
		if err != nil {
			return err
		}

		page := max(int(cmd.Int("page")), 1)
		listing, err := client.Collection(ctx, kind, page)
		if err != nil {
			return err
		}
		return r.printListing(ctx, format, collectionTitle(kind), page, listing)
	}
}

// MembershipIDs prints the ids in kind's collection, one per line.
func (r *Runner) MembershipIDs(kind models.MembershipKind) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		acct, err := r.signedIn(ctx, kind.Messages().LoginToRemove)
		if err != nil {
			return err
		}
		defer acct.teardown()

		store := acct.membership(kind)
		if err := store.Refetch(ctx); err != nil {
			return err
		}
		for _, id := range store.IDs() {
			r.writePlain("%d\n", id)
		}
		return nil
	}
}

// MembershipAdd adds a movie to kind's collection. The stored metadata comes from the details route when it
// answers.
func (r *Runner) MembershipAdd(kind models.MembershipKind) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		id, err := movieIDFrom(cmd)
		if err != nil {
			return err
		}
		acct, err := r.signedIn(ctx, kind.Messages().LoginToAdd)
		if err != nil {
			return err
		}
		defer acct.teardown()

		payload := r.payloadFor(ctx, id)
		if err := acct.membership(kind).Add(ctx, payload); err != nil {
			return err
		}
		return r.writePlain("✓ Added %s to %s\n", describe(payload), collectionTitle(kind))
	}
}

// MembershipRemove removes a movie from kind's collection.
func (r *Runner) MembershipRemove(kind models.MembershipKind) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		id, err := movieIDFrom(cmd)
		if err != nil {
			return err
		}
		acct, err := r.signedIn(ctx, kind.Messages().LoginToRemove)
		if err != nil {
			return err
		}
		defer acct.teardown()

		if err := acct.membership(kind).Remove(ctx, id); err != nil {
			return err
		}
		return r.writePlain("✓ Removed %d from %s\n", id, collectionTitle(kind))
	}
}

// MembershipToggle flips a movie's membership in kind's collection.
func (r *Runner) MembershipToggle(kind models.MembershipKind) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		id, err := movieIDFrom(cmd)
		if err != nil {
			return err
		}
		acct, err := r.signedIn(ctx, kind.Messages().LoginToAdd)
		if err != nil {
			return err
		}
		defer acct.teardown()

		store := acct.membership(kind)
		payload := models.MoviePayload{MovieID: id}
		if !store.IsMember(id) {
			payload = r.payloadFor(ctx, id)
		}
		if err := store.Toggle(ctx, payload); err != nil {
			return err
		}

		if store.IsMember(id) {
			return r.writePlain("✓ Added %s to %s\n", describe(payload), collectionTitle(kind))
		}
		return r.writePlain("✓ Removed %d from %s\n", id, collectionTitle(kind))
	}
}

// LikesClear removes every liked movie.
func (r *Runner) LikesClear(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("yes") {
		return fmt.Errorf("%w: clearing likes cannot be undone; pass --yes to confirm", shared.ErrMissingArgument)
	}
	acct, err := r.signedIn(ctx, models.Likes.Messages().LoginToRemove)
	if err != nil {
		return err
	}
	defer acct.teardown()

	client, err := r.apiClient()
	if err != nil {
		return err
	}
	before := len(acct.likes.IDs())
	if err := client.ClearLikes(ctx); err != nil {
		return err
	}
	if err := acct.likes.Refetch(ctx); err != nil {
		r.logger.Warn("failed to refetch likes", "error", err)
	}

	r.logger.Info("cleared likes", "count", before)
	return r.writePlain("✓ Cleared %d liked movies\n", before)
}

// signedIn resolves the account and fails with msg when there is no session.
func (r *Runner) signedIn(ctx context.Context, msg string) (*account, error) {
	acct, err := r.account(ctx)
	if err != nil {
		return nil, err
	}
	if !acct.session.Authenticated() {
		acct.teardown()
		return nil, fmt.Errorf("%w: %s (run 'flickx auth login')", shared.ErrNotAuthenticated, msg)
	}
	return acct, nil
}

// payloadFor builds the membership payload for id from its details, or a bare id when details are unavailable.
func (r *Runner) payloadFor(ctx context.Context, id int64) models.MoviePayload {
	payload := models.MoviePayload{MovieID: id}

	client, err := r.apiClient()
	if err != nil {
		return payload
	}
	details, err := client.Details(ctx, id)
	if err != nil {
		r.logger.Debug("adding without metadata", "movie", id, "error", err)
		return payload
	}

	payload.Title = details.Title
	payload.PosterURL = details.PosterPath
	payload.Overview = details.Overview
	payload.Rating = details.Rating
	payload.Genres = details.Genres
	if year, _, ok := strings.Cut(details.ReleaseDate, "-"); ok && len(year) == 4 {
		payload.Year = models.Year(year)
	}
	return payload
}

func describe(p models.MoviePayload) string {
	if p.Title == "" {
		return fmt.Sprintf("%d", p.MovieID)
	}
	return fmt.Sprintf("%q (%d)", p.Title, p.MovieID)
}

func collectionTitle(kind models.MembershipKind) string {
	if kind == models.Wishlist {
		return "Wishlist"
	}
	return "Liked Movies"
}
