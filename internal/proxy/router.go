package proxy

import (
	"net/http"
	"net/netip"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flickx/internal/metrics"
	"github.com/desertthunder/flickx/internal/server"
	"github.com/desertthunder/flickx/internal/shared"
)

// Backend is what the router needs from the backend client: forwarding plus breaker state for /healthz.
type Backend interface {
	Forwarder
	State() string
}

// RouterOptions tunes [NewRouter].
type RouterOptions struct {
	Logger *log.Logger
	// ContactRate is the sustained contact submissions per second per client. Zero disables the limit.
	ContactRate  float64
	ContactBurst int
	// TrustedProxies may set the client address through X-Forwarded-For.
	TrustedProxies []netip.Prefix
}

// NewRouter mounts the proxy routes, /healthz and /metrics behind the standard middleware stack.
func NewRouter(backend Backend, opts RouterOptions) *server.BasicRouter {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	router := server.NewBasicRouter()
	router.Use(
		server.RequestID(),
		server.Logging(logger),
		server.Recover(logger),
		server.Metrics(),
	)
	if opts.ContactRate > 0 {
		burst := max(opts.ContactBurst, 1)
		router.Use(server.RateLimit(server.NewRateLimiter(opts.ContactRate, burst, opts.TrustedProxies...), "/api/contact"))
	}

	router.HandleFunc(http.MethodGet, "/healthz", Health(backend))
	router.Handle(http.MethodGet, "/metrics", metrics.Handler())
	router.Handler(NewHandler(backend, logger))
	return router
}

// Health reports whether a backend origin is set and the circuit breaker state.
func Health(backend Backend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		server.WriteJSON(w, http.StatusOK, map[string]any{
			"status":             "ok",
			"backend_configured": backend.Configured(),
			"breaker":            backend.State(),
		})
	}
}
