package source

import (
	"context"
	"fmt"
	"os"

	"github.com/lox/booking-search/internal/bank"
	"github.com/lox/booking-search/internal/types"
)

// QIF loads bookings from a bank's QIF export
type QIF struct {
	Path   string
	Bank   bank.Bank
	Config bank.Config
}

// NewQIF creates a source reading path with the given bank profile
func NewQIF(path string, b bank.Bank, config bank.Config) *QIF {
	return &QIF{Path: path, Bank: b, Config: config}
}

// Name returns the name of the source
func (q *QIF) Name() string {
	return "qif"
}

// Load parses the export file
func (q *QIF) Load(ctx context.Context) ([]types.Booking, error) {
	f, err := os.Open(q.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open QIF file: %w", err)
	}
	defer f.Close()

	bookings, err := q.Bank.ParseBookings(ctx, f, q.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s export: %w", q.Bank.Name(), err)
	}
	return bookings, nil
}
