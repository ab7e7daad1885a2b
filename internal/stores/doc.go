// Package stores holds the client-side state shared by every flickx view: who is signed in, and which movies
// the caller has liked or wishlisted.
//
// # Session
//
// [Session] is the single source of truth for authentication. [Session.Refresh] asks the proxy who the caller
// is and collapses every failure into the signed-out state; it never returns an error. Refreshes are numbered
// and only the most recently issued one is applied, so a slow response can't overwrite a newer one.
// [Session.Login] and [Session.Logout] always refresh afterwards, whatever the call returned.
//
// # Membership
//
// [Membership] tracks the movie ids in one relation ([models.Likes] or [models.Wishlist]). Mutations are
// confirmed: the local set changes only after the proxy answers 2xx. [Membership.Toggle] refuses a second
// toggle for an id that already has one in flight.
//
// Stores notify subscribers synchronously, outside their locks, after every state change.
package stores
