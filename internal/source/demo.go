package source

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/lox/booking-search/internal/types"
	"github.com/shopspring/decimal"
)

const (
	demoSeed      = 42
	demoGenerated = 5000
	demoMaxAmount = 10000
	demoFirstID   = 1000
)

// Demo is a fixed sample snapshot: a handful of realistic bookings dated
// relative to today plus generated filler bookings
type Demo struct {
	// Now returns the reference date; defaults to time.Now
	Now func() time.Time
	// Generated is the number of filler bookings
	Generated int
}

// NewDemo creates the demo source with its default filler size
func NewDemo() *Demo {
	return &Demo{Now: time.Now, Generated: demoGenerated}
}

// Name returns the name of the source
func (d *Demo) Name() string {
	return "demo"
}

// Load returns the demo snapshot. The filler is seeded, so repeated loads on
// the same day return identical snapshots.
func (d *Demo) Load(ctx context.Context) ([]types.Booking, error) {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	today := types.Date(now())
	daysAgo := func(n int) time.Time { return today.AddDate(0, 0, -n) }
	amount := decimal.RequireFromString

	bookings := []types.Booking{
		types.NewBooking(1, daysAgo(1), amount("-45.80"), "ACC-1", "Migros Supermarkt Zürich Löwenstrasse"),
		types.NewBooking(2, daysAgo(2), amount("-23.40"), "ACC-1", "Einkauf bei MIGROS Online Shop"),
		types.NewBooking(3, daysAgo(3), amount("-12.90"), "ACC-2", "Coop Filiale Basel Bahnhof"),
		types.NewBooking(4, daysAgo(4), amount("-8.50"), "ACC-2", "COOP Pronto Tankstelle Zürich"),
		types.NewBooking(5, daysAgo(5), amount("-19.90"), "ACC-3", "Netflix.com Subscription"),
		types.NewBooking(6, daysAgo(6), amount("-7.99"), "ACC-3", "NETFLIX.COM Monthly Fee"),
		types.NewBooking(7, daysAgo(7), amount("-89.00"), "ACC-4", "Amazon Marketplace Order 123-4567890-1234567"),
		types.NewBooking(8, daysAgo(8), amount("-15.75"), "ACC-4", "AMAZON EU SARL Bestellung"),
		types.NewBooking(9, daysAgo(9), amount("3200.00"), "ACC-5", "Lohnzahlung Firma Innuvation GmbH"),
		types.NewBooking(10, daysAgo(10), amount("-120.00"), "ACC-5", "SBB Ticket Zürich - Bern"),
		types.NewBooking(10, daysAgo(10), amount("10005"), "ACC-3", "Lohnzahlung innuvation gmbh"),
	}

	rng := rand.New(rand.NewPCG(demoSeed, demoSeed))
	for i := 1; i <= d.Generated; i++ {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		value := rng.IntN(2*demoMaxAmount+1) - demoMaxAmount
		account := fmt.Sprintf("ACC-%d", i%5)
		bookings = append(bookings, types.NewBooking(
			int64(demoFirstID+i),
			daysAgo(i%30),
			decimal.NewFromInt(int64(value)),
			account,
			fmt.Sprintf("Example-Booking %d für Konto %s with amount of %d CHF", i, account, value),
		))
	}

	return bookings, nil
}
