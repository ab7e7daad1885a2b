// Package models defines the data shapes exchanged between the flickx proxy, the backend API and the client stores.
//
// The package contains three categories of types:
//
// 1. Read-only projections owned by the backend
//   - [MovieSummary] : a card in any listing (discover, recommendations, liked, wishlist)
//   - [MovieDetails] : the full record behind the details view
//   - [Listing] : one page of summaries plus the page count
//
// 2. Payloads submitted by the caller
//   - [MoviePayload] : the body of a like / wishlist add
//   - [Credentials] : the login body
//   - [ContactMessage] : the contact form
//
// 3. Client-side state
//   - [Session] : authenticated flag plus [UserInfo]
//   - [MembershipKind] : which membership relation (likes, wishlist) a store tracks
//   - [Preferences] : persisted listing filters
//
// Backend bodies are decoded at the boundary by one normalizer per endpoint ([DecodeListing], [DecodeIDs],
// [DecodeUser]). Missing optional fields fall back to documented defaults; fields present with the wrong
// JSON type fail with [shared.ErrUnexpectedShape] instead of being silently dropped.
package models
