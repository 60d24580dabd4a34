package ing

import (
	"context"
	"io"

	"github.com/lox/booking-search/internal/bank"
	"github.com/lox/booking-search/internal/qif"
	"github.com/lox/booking-search/internal/types"
)

// DateLayout is the date format of ING Australia exports
const DateLayout = "02/01/2006"

// ING represents the ING Australia bank implementation
type ING struct{}

// New creates a new ING Australia bank implementation
func New() *ING {
	return &ING{}
}

// Name returns the name of the bank
func (i *ING) Name() string {
	return "ing-australia"
}

// ParseBookings parses bookings from a QIF file
func (i *ING) ParseBookings(ctx context.Context, r io.Reader, config bank.Config) ([]types.Booking, error) {
	qifTransactions, err := qif.ParseReader(r)
	if err != nil {
		return nil, err
	}
	return bank.ToBookings(qifTransactions, DateLayout, config), nil
}

// Ensure ING implements the Bank interface
var _ bank.Bank = (*ING)(nil)
