package source

import (
	"context"

	"github.com/lox/booking-search/internal/types"
)

// BookingStore is implemented by *db.DB
type BookingStore interface {
	LoadBookings(ctx context.Context) ([]types.Booking, error)
}

// SQLite loads bookings from the local booking store
type SQLite struct {
	Store BookingStore
}

// NewSQLite creates a source backed by store
func NewSQLite(store BookingStore) *SQLite {
	return &SQLite{Store: store}
}

// Name returns the name of the source
func (s *SQLite) Name() string {
	return "sqlite"
}

// Load returns every stored booking
func (s *SQLite) Load(ctx context.Context) ([]types.Booking, error) {
	return s.Store.LoadBookings(ctx)
}
