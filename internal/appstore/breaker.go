package appstore

import (
	"errors"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	apperr "github.com/aevon-lab/asc-analytics/internal/core/errors"
	"github.com/aevon-lab/asc-analytics/internal/metrics"
)

const breakerName = "appstore-api"

// Breaker stops calling the provider after repeated transport or 5xx failures.
// It never retries; 4xx responses pass through without counting as failures since
// callers downgrade 404 and 409 deliberately.
type Breaker struct {
	cb *gobreaker.CircuitBreaker[[]byte]
}

// NewBreaker opens after maxFailures consecutive failures and probes again after timeout.
func NewBreaker(maxFailures uint32, timeout time.Duration) *Breaker {
	if maxFailures == 0 {
		maxFailures = 5
	}
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			code := apperr.StatusCode(err)
			return code >= 400 && code < 500
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Info("[CircuitBreaker] State transition", "name", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})
	return &Breaker{cb: cb}
}

// Execute runs fn under the breaker.
func (b *Breaker) Execute(fn func() ([]byte, error)) ([]byte, error) {
	body, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		slog.Warn("[CircuitBreaker] Request rejected", "name", breakerName, "error", err)
	}
	return body, err
}

// State reports the current breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}
