// Package server provides HTTP routing, middleware and server lifecycle for the flickx proxy.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] registered first is outermost, following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally. [BasicRouter.Handle] registers
// method-qualified patterns; [BasicRouter.Handler] registers the bare patterns a [Handler] lists and leaves
// method dispatch to the handler.
//
// # Middleware
//
// [RequestID] tags each request with an id, [Logging] writes one line per request, [Recover] turns panics into
// 500s, [Metrics] feeds the prometheus collectors and [RateLimit] applies a per-client token bucket.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
