// Package ratelimit silently caps how many catches per account earn XP.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/osse101/CatchLog_Go/internal/domain"
)

const (
	// DefaultHourlyLimit is the number of catches per rolling hour that still earn XP
	DefaultHourlyLimit = 10
	// DefaultDailyLimit is the number of catches per rolling 24 hours that still earn XP
	DefaultDailyLimit = 50

	hourWindow = time.Hour
	dayWindow  = 24 * time.Hour
)

// Counter is the history lookup the limiter needs
type Counter interface {
	CountCatchesSince(ctx context.Context, accountID string, since time.Time) (int, error)
}

// Limiter decides whether a new catch is beyond the rolling window limits.
// Counts include the catch being evaluated, since the primary write happens first.
type Limiter struct {
	hourly int
	daily  int
}

// NewLimiter creates a limiter; non-positive limits fall back to the defaults
func NewLimiter(hourly, daily int) *Limiter {
	if hourly <= 0 {
		hourly = DefaultHourlyLimit
	}
	if daily <= 0 {
		daily = DefaultDailyLimit
	}
	return &Limiter{hourly: hourly, daily: daily}
}

// IsRateLimited reports whether the account exceeded either window at now
func (l *Limiter) IsRateLimited(ctx context.Context, counter Counter, accountID string, now time.Time) (bool, error) {
	hourCount, err := counter.CountCatchesSince(ctx, accountID, now.Add(-hourWindow))
	if err != nil {
		return false, fmt.Errorf("%w: hourly catch count: %v", domain.ErrLookupFailure, err)
	}
	if hourCount > l.hourly {
		return true, nil
	}

	dayCount, err := counter.CountCatchesSince(ctx, accountID, now.Add(-dayWindow))
	if err != nil {
		return false, fmt.Errorf("%w: daily catch count: %v", domain.ErrLookupFailure, err)
	}
	return dayCount > l.daily, nil
}

// Limits returns the configured hourly and daily limits
func (l *Limiter) Limits() (hourly, daily int) {
	return l.hourly, l.daily
}
