// Package tasks runs the multi-request operations behind the listing views and the export command.
//
// # Paging
//
// [Pager] accumulates the pages of one listing source. [Pager.Next] appends the following page and
// [Pager.Reset] starts over from page 1 with a new [Filter]. Each reset bumps a generation number; a fetch that
// resolves after a newer reset is discarded rather than appended.
//
// # Export
//
// [ExportCollection] walks every page of the liked movies or the wishlist with a small worker pool behind a
// rate limiter and returns the movies in page order.
//
// # Progress Reporting
//
// Exports report through an optional channel of [ProgressUpdate]. Sends never block: when the channel is full
// the update is dropped.
package tasks
