// Package source loads complete booking snapshots for indexing.
package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/charmbracelet/log"
	"github.com/lox/booking-search/internal/types"
)

// Source produces a complete snapshot of bookings
type Source interface {
	// Name identifies the source in logs and errors
	Name() string

	// Load returns every booking the source currently holds
	Load(ctx context.Context) ([]types.Booking, error)
}

// RetryDelay is the initial delay between load attempts
var RetryDelay = 200 * time.Millisecond

// LoadWithRetry loads a snapshot, retrying failures with backoff. Missing
// files are not retried.
func LoadWithRetry(ctx context.Context, src Source, attempts uint, logger *log.Logger) ([]types.Booking, error) {
	if attempts == 0 {
		attempts = 1
	}

	var bookings []types.Booking
	start := time.Now()
	err := retry.Do(
		func() error {
			var err error
			bookings, err = src.Load(ctx)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(RetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, fs.ErrNotExist)
		}),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("Retrying booking snapshot load", "source", src.Name(), "attempt", n+1, "max_attempts", attempts, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings from %s: %w", src.Name(), err)
	}

	logger.Debug("Loaded booking snapshot", "source", src.Name(), "bookings", len(bookings), "duration", time.Since(start))
	return bookings, nil
}
