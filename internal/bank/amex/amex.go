package amex

import (
	"context"
	"io"

	"github.com/lox/booking-search/internal/bank"
	"github.com/lox/booking-search/internal/qif"
	"github.com/lox/booking-search/internal/types"
)

// DateLayout is the date format of American Express exports
const DateLayout = "01/02/2006"

// Amex represents the American Express bank implementation
type Amex struct{}

// New creates a new Amex bank implementation
func New() *Amex {
	return &Amex{}
}

// Name returns the name of the bank
func (a *Amex) Name() string {
	return "amex"
}

// ParseBookings parses bookings from a QIF file
func (a *Amex) ParseBookings(ctx context.Context, r io.Reader, config bank.Config) ([]types.Booking, error) {
	qifTransactions, err := qif.ParseReader(r)
	if err != nil {
		return nil, err
	}
	return bank.ToBookings(qifTransactions, DateLayout, config), nil
}

// Ensure Amex implements the Bank interface
var _ bank.Bank = (*Amex)(nil)
