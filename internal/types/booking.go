package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical string form of a transaction date
const DateLayout = "2006-01-02"

// Booking represents a single account booking, independent of where it was loaded from
type Booking struct {
	// ID is the booking identifier. It is not guaranteed to be unique within a snapshot.
	ID int64 `json:"id"`
	// TransactionDate is a calendar date; the zero value means the date is missing
	TransactionDate time.Time `json:"transactionDate"`
	// Amount is signed: negative for debits, positive for credits
	Amount         decimal.NullDecimal `json:"amount"`
	MoneyAccountID string              `json:"moneyAccountId"`
	BookingText    string              `json:"bookingText"`
}

// NewBooking creates a booking with all required fields present
func NewBooking(id int64, date time.Time, amount decimal.Decimal, account, text string) Booking {
	return Booking{
		ID:              id,
		TransactionDate: Date(date),
		Amount:          decimal.NullDecimal{Decimal: amount, Valid: true},
		MoneyAccountID:  account,
		BookingText:     text,
	}
}

// Date truncates t to its calendar date at midnight UTC
func Date(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EpochDay returns the number of days between 1970-01-01 and the calendar date of t
func EpochDay(t time.Time) int64 {
	secs := Date(t).Unix()
	day := secs / 86400
	if secs%86400 != 0 && secs < 0 {
		day--
	}
	return day
}
