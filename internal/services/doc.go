// Package services holds the HTTP clients on both sides of the flickx proxy.
//
// # Transport
//
// [APIService] is the raw JSON transport: one origin, one [http.Client], and an [APIResponse] that keeps the
// status, headers, body and the body parsed as generic JSON when it parses.
//
// # Backend Client
//
// [BackendClient] is what the proxy routes use to reach the movie API. It fails fast with
// [shared.ErrBackendNotConfigured] when no origin is set and wraps calls in a sony/gobreaker circuit breaker that
// trips on consecutive transport failures. Backend statuses, including 5xx, are returned to the caller rather
// than counted as failures.
//
// # Proxy Client
//
// [Client] calls the same-origin proxy routes for the CLI, the TUI and the stores. A non-2xx response becomes
// an [*APIError] whose message is the body's "error" field, falling back to a per-operation message.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrAPIRequest] : transport failure or generic non-2xx
//   - [shared.ErrNotAuthenticated] : 401 / 403
//   - [shared.ErrServiceUnavailable] : breaker open or 503
//   - [shared.ErrUnexpectedShape] : body did not match the expected schema
package services
