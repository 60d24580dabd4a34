package source

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/lox/booking-search/internal/index"
	"github.com/lox/booking-search/internal/search"
)

// Reloader rebuilds a search service from a snapshot source
type Reloader struct {
	Source   Source
	Service  *search.Service
	Attempts uint
	Logger   *log.Logger
	// BuildOptions are passed to every rebuild
	BuildOptions []index.BuildOption
}

// Reload loads a fresh snapshot and rebuilds the index from it. Malformed
// bookings are logged and skipped; an error is only returned when no new
// index was published.
func (r *Reloader) Reload(ctx context.Context) (search.RebuildStats, error) {
	bookings, err := LoadWithRetry(ctx, r.Source, r.Attempts, r.Logger)
	if err != nil {
		return search.RebuildStats{}, err
	}

	stats, err := r.Service.Rebuild(ctx, bookings, r.BuildOptions...)
	if err != nil && stats.Generation == 0 {
		return stats, fmt.Errorf("failed to index bookings from %s: %w", r.Source.Name(), err)
	}
	if err != nil {
		r.Logger.Warn("Skipped malformed bookings", "source", r.Source.Name(), "rejected", stats.Rejected)
		r.Logger.Debug("Malformed bookings", "error", err)
	}
	return stats, nil
}
