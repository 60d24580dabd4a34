package bank

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/lox/booking-search/internal/qif"
	"github.com/lox/booking-search/internal/types"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
)

// Config controls how parsed transactions become bookings
type Config struct {
	// Account is the money account id assigned to every booking
	Account string
	// FirstID is the id of the first booking; later bookings count up from it
	FirstID int64
	// Location is the timezone the export's dates are written in
	Location *time.Location
}

// Bank represents a bank whose QIF exports can be read as bookings
type Bank interface {
	// Name returns the name of the bank
	Name() string

	// ParseBookings parses bookings from a QIF export
	ParseBookings(ctx context.Context, r io.Reader, config Config) ([]types.Booking, error)
}

// Registry maintains a list of available bank implementations
type Registry struct {
	banks map[string]Bank
}

// NewRegistry creates a new bank registry
func NewRegistry() *Registry {
	return &Registry{
		banks: make(map[string]Bank),
	}
}

// Register adds a bank implementation to the registry
func (r *Registry) Register(b Bank) {
	r.banks[b.Name()] = b
}

// Get returns a bank implementation by name
func (r *Registry) Get(name string) (Bank, bool) {
	b, ok := r.banks[name]
	return b, ok
}

// List returns a sorted list of all registered bank names
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.banks))
	for name := range r.banks {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ToBookings converts QIF transactions using the bank's date layout. A date or
// amount that does not parse is left unset so the index reports the booking
// as malformed instead of the import failing as a whole.
func ToBookings(transactions []qif.Transaction, dateLayout string, config Config) []types.Booking {
	loc := config.Location
	if loc == nil {
		loc = time.UTC
	}

	bookings := make([]types.Booking, len(transactions))
	for idx, t := range transactions {
		b := types.Booking{
			ID:             config.FirstID + int64(idx),
			MoneyAccountID: config.Account,
			BookingText:    bookingText(t),
		}
		if date, err := time.ParseInLocation(dateLayout, strings.TrimSpace(t.Date), loc); err == nil {
			b.TransactionDate = types.Date(date)
		}
		if amount, err := ParseAmount(t.Amount); err == nil {
			b.Amount = decimal.NullDecimal{Decimal: amount, Valid: true}
		}
		bookings[idx] = b
	}
	return bookings
}

// ParseAmount parses a QIF amount, which may carry thousands separators
func ParseAmount(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
}

func bookingText(t qif.Transaction) string {
	text := strings.TrimSpace(t.Payee)
	memo := strings.TrimSpace(t.Memo)
	if memo != "" && memo != text {
		if text == "" {
			return memo
		}
		return text + " " + memo
	}
	return text
}
