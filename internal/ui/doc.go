// Package ui implements the flickx terminal interface using bubbletea's Elm architecture.
//
// The TUI has four listing views cycled with tab: [DiscoverView], [RecommendationsView], [LikedView] and
// [WishlistView]. Each is backed by a [tasks.Pager] and loads more with n. Enter opens [DetailsView], L opens
// [LoginView] or signs out, and D on the liked view asks for confirmation in [ConfirmClearView] before clearing
// every like.
//
// Movie rows carry ♥ and ★ markers read from the like and wishlist stores. The [Model] subscribes to the stores
// in Init and receives their changes through a channel drained by a waiting command, the same way long-running
// work reports back.
//
// The liked and wishlist views require a session; visiting one while signed out opens the login view instead.
package ui
