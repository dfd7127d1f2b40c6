package lootex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Default circuit breaker settings.
const (
	defaultCBMaxFailures uint32        = 5
	defaultCBTimeout     time.Duration = 30 * time.Second
	defaultCBInterval    time.Duration = 60 * time.Second
)

// BreakerConfig configures the circuit breaker behavior.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures before the circuit opens.
	MaxFailures uint32
	// Timeout is how long the circuit stays open before going half-open.
	Timeout time.Duration
	// Interval clears failure counts while closed. Zero never clears them.
	Interval time.Duration
}

// BreakerAPI wraps an API so that a failing backend is short-circuited
// instead of being hit by every child request. Calls are still made at
// most once; an open circuit turns them into immediate failures.
type BreakerAPI struct {
	inner   API
	breaker *gobreaker.CircuitBreaker[any]
	logger  *slog.Logger
}

// Ensure BreakerAPI implements API interface
var _ API = (*BreakerAPI)(nil)

// NewBreakerAPI wraps inner with a circuit breaker. Zero config values use defaults.
func NewBreakerAPI(inner API, cfg BreakerConfig, logger *slog.Logger) *BreakerAPI {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultCBMaxFailures
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultCBTimeout
	}
	interval := cfg.Interval
	if interval == 0 {
		interval = defaultCBInterval
	}

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "lootex-api",
		MaxRequests: 1,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
		},
		// 4xx answers mean the backend is healthy and said no.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var apiErr *APIError
			return errors.As(err, &apiErr) && apiErr.StatusCode < 500
		},
	})

	return &BreakerAPI{
		inner:   inner,
		breaker: cb,
		logger:  logger,
	}
}

func (b *BreakerAPI) GetChallenge(ctx context.Context, address string) (any, error) {
	return b.execute(func() (any, error) {
		return b.inner.GetChallenge(ctx, address)
	})
}

func (b *BreakerAPI) IsEmailAvailable(ctx context.Context, email string) (bool, error) {
	res, err := b.execute(func() (any, error) {
		return b.inner.IsEmailAvailable(ctx, email)
	})
	if err != nil {
		return false, err
	}
	available, _ := res.(bool)
	return available, nil
}

func (b *BreakerAPI) SendOTPEmail(ctx context.Context, email string) (any, error) {
	return b.execute(func() (any, error) {
		return b.inner.SendOTPEmail(ctx, email)
	})
}

func (b *BreakerAPI) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	res, err := b.execute(func() (any, error) {
		return b.inner.IsUsernameAvailable(ctx, username)
	})
	if err != nil {
		return false, err
	}
	available, _ := res.(bool)
	return available, nil
}

func (b *BreakerAPI) SignUp(ctx context.Context, req SignUpRequest) (any, error) {
	return b.execute(func() (any, error) {
		return b.inner.SignUp(ctx, req)
	})
}

func (b *BreakerAPI) SignIn(ctx context.Context, req SignInRequest) (any, error) {
	return b.execute(func() (any, error) {
		return b.inner.SignIn(ctx, req)
	})
}

// State returns the current circuit breaker state for monitoring.
func (b *BreakerAPI) State() gobreaker.State {
	return b.breaker.State()
}

func (b *BreakerAPI) execute(call func() (any, error)) (any, error) {
	res, err := b.breaker.Execute(call)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("lootex API unavailable: %w", err)
		}
		return nil, err
	}
	return res, nil
}
