// Package proxy implements the same-origin routes that forward browser calls to the movie API.
//
// Every route checks that a backend origin is configured, forwards the inbound Cookie header, copies each
// Set-Cookie from the backend onto the response and relays the backend's status and JSON body. An empty or
// non-JSON backend body is replaced by a route-specific fallback, and a transport failure becomes a 500 with a
// route-specific error body.
//
// The contact route validates its three fields and escapes HTML in them with [SanitizeHTML] before forwarding.
//
// [NewRouter] assembles the routes with request ids, logging, panic recovery, prometheus metrics, a rate limit
// on the contact route and the /healthz and /metrics endpoints.
package proxy
