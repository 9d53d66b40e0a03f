package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/IANDYI/growth-service/internal/core/domain"
	"github.com/lib/pq"
	"github.com/sony/gobreaker"
)

// BreakerConfig holds the circuit breaker settings shared by the adapters
type BreakerConfig struct {
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// Consecutive failures after which the breaker opens
	MaxConsecutiveFailures uint32
}

// DefaultBreakerConfig returns the settings used when none are configured
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:            5,
		Interval:               60 * time.Second,
		Timeout:                30 * time.Second,
		MaxConsecutiveFailures: 5,
	}
}

func newCircuitBreaker(name string, cfg BreakerConfig) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > cfg.MaxConsecutiveFailures
		},
		// Business outcomes (conflicts, missing rows) must not open the breaker
		IsSuccessful: func(err error) bool {
			return err == nil || isPermanent(err)
		},
	})
}

// isPermanent reports errors that a retry cannot fix
func isPermanent(err error) bool {
	if errors.Is(err, sql.ErrNoRows) ||
		errors.Is(err, domain.ErrConflict) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrInvalidArgument) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "22", "23", "42": // data exception, integrity violation, syntax or access rule
			return true
		}
	}
	return false
}

// mapPQError turns unique violations into domain.ErrConflict
func mapPQError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return &conflictError{constraint: pqErr.Constraint, err: err}
	}
	return err
}

type conflictError struct {
	constraint string
	err        error
}

func (e *conflictError) Error() string {
	return "conflict: unique constraint " + e.constraint + " violated"
}

func (e *conflictError) Is(target error) bool { return target == domain.ErrConflict }

func (e *conflictError) Unwrap() error { return e.err }

// retrier runs an operation up to maxRetries times, sleeping between attempts
type retrier struct {
	maxRetries int
	retryDelay time.Duration
}

func (r retrier) executeWithRetry(ctx context.Context, operation func() error) error {
	var lastErr error
	for i := 0; i < r.maxRetries; i++ {
		err := operation()
		if err == nil {
			return nil
		}
		err = mapPQError(err)
		lastErr = err
		// Don't retry errors that are not transient
		if isPermanent(err) {
			return err
		}
		if i < r.maxRetries-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.retryDelay):
			}
		}
	}
	return fmt.Errorf("operation failed after %d retries: %w", r.maxRetries, lastErr)
}
