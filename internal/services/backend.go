package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flickx/internal/metrics"
	"github.com/desertthunder/flickx/internal/shared"
	"github.com/sony/gobreaker/v2"
)

const breakerName = "backend"

// BackendClient forwards proxy calls to the movie API origin behind a circuit breaker.
//
// Only transport failures count against the breaker. A backend that answers, with any status, is healthy from
// the breaker's point of view, since its status is relayed to the caller as-is.
type BackendClient struct {
	api     *APIService
	breaker *gobreaker.CircuitBreaker[*APIResponse]
	logger  *log.Logger
}

// NewBackendClient builds a client for cfg.URL. An empty URL yields a client whose every call fails with
// [shared.ErrBackendNotConfigured]. A zero BreakerFailures disables the breaker.
func NewBackendClient(cfg shared.BackendConfig, client *http.Client, logger *log.Logger) *BackendClient {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	b := &BackendClient{logger: shared.WithLogger(logger, "component", "backend")}

	if cfg.URL == "" {
		return b
	}

	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout()}
	}
	b.api = NewAPIService(cfg.URL, client)

	if cfg.BreakerFailures > 0 {
		b.breaker = newBreaker(uint32(cfg.BreakerFailures), cfg.BreakerTimeout(), b.logger)
	}
	return b
}

func newBreaker(failures uint32, timeout time.Duration, logger *log.Logger) *gobreaker.CircuitBreaker[*APIResponse] {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	return gobreaker.NewCircuitBreaker[*APIResponse](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// Configured reports whether a backend origin is set.
func (b *BackendClient) Configured() bool {
	return b.api != nil
}

// State names the breaker state, or "disabled".
func (b *BackendClient) State() string {
	if b.breaker == nil {
		return "disabled"
	}
	return b.breaker.State().String()
}

// Forward sends req to the backend and returns its response whatever the status.
//
// An open breaker fails fast with [shared.ErrServiceUnavailable].
func (b *BackendClient) Forward(ctx context.Context, req Request) (*APIResponse, error) {
	if b.api == nil {
		return nil, shared.ErrBackendNotConfigured
	}

	start := time.Now()
	call := func() (*APIResponse, error) { return b.api.Do(ctx, req) }

	var (
		resp *APIResponse
		err  error
	)
	if b.breaker != nil {
		resp, err = b.breaker.Execute(call)
	} else {
		resp, err = call()
	}

	endpoint := req.label()
	metrics.BackendDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.BackendRequests.WithLabelValues(endpoint, "rejected").Inc()
		return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	case err != nil:
		metrics.BackendRequests.WithLabelValues(endpoint, "error").Inc()
		b.logger.Debug("backend call failed", "endpoint", endpoint, "error", err)
		return nil, err
	}

	metrics.BackendRequests.WithLabelValues(endpoint, metrics.StatusClass(resp.StatusCode)).Inc()
	return resp, nil
}
