package models

import (
	"fmt"
	"strings"

	"github.com/desertthunder/flickx/internal/shared"
)

// MembershipKind names a membership relation between the current user and a movie.
type MembershipKind int

const (
	Likes MembershipKind = iota
	Wishlist
)

// KindMessages holds the caller-facing messages for one [MembershipKind].
type KindMessages struct {
	LoginToAdd    string
	LoginToRemove string
	AddFailed     string
	RemoveFailed  string
	LoadFailed    string
}

func (k MembershipKind) String() string {
	switch k {
	case Likes:
		return "likes"
	case Wishlist:
		return "wishlist"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ProxyPath is the same-origin route serving this relation.
func (k MembershipKind) ProxyPath() string {
	if k == Wishlist {
		return "/api/wishlist"
	}
	return "/api/likedMovies"
}

// IDsField is the key holding the bare id list in ids-only responses.
func (k MembershipKind) IDsField() string {
	if k == Wishlist {
		return "wishlistIds"
	}
	return "likedMovieIds"
}

// Messages returns the error messages surfaced by stores and clients for this relation.
func (k MembershipKind) Messages() KindMessages {
	if k == Wishlist {
		return KindMessages{
			LoginToAdd:    "Please login to add movies to your wishlist",
			LoginToRemove: "Please login to manage your wishlist",
			AddFailed:     "Failed to add to wishlist",
			RemoveFailed:  "Failed to remove from wishlist",
			LoadFailed:    "Failed to load wishlist",
		}
	}
	return KindMessages{
		LoginToAdd:    "Please login to like movies",
		LoginToRemove: "Please login to manage likes",
		AddFailed:     "Failed to like movie",
		RemoveFailed:  "Failed to remove like",
		LoadFailed:    "Failed to load liked movies",
	}
}

// ParseMembershipKind maps "likes"/"liked" and "wishlist"/"wish" to a [MembershipKind].
func ParseMembershipKind(s string) (MembershipKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "likes", "like", "liked":
		return Likes, nil
	case "wishlist", "wish":
		return Wishlist, nil
	default:
		return 0, fmt.Errorf("%w: unknown membership kind %q", shared.ErrInvalidArgument, s)
	}
}
