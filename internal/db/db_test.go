package db

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/booking-search/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	logger := log.New(io.Discard)
	logger.SetLevel(log.DebugLevel)

	db, err := New(t.TempDir(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func TestStoreAndLoadBookings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	bookings := []types.Booking{
		types.NewBooking(2, date.AddDate(0, 0, -1), decimal.RequireFromString("-12.90"), "ACC-2", "Coop Basel"),
		types.NewBooking(1, date, decimal.RequireFromString("-45.80"), "ACC-1", "Migros Zürich"),
	}
	require.NoError(t, db.StoreBookings(ctx, bookings))

	loaded, err := db.LoadBookings(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, int64(1), loaded[0].ID)
	assert.Equal(t, date, loaded[0].TransactionDate)
	assert.True(t, loaded[0].Amount.Valid)
	assert.Equal(t, "-45.8", loaded[0].Amount.Decimal.String())
	assert.Equal(t, "ACC-1", loaded[0].MoneyAccountID)
	assert.Equal(t, "Migros Zürich", loaded[0].BookingText)
	assert.Equal(t, int64(2), loaded[1].ID)

	count, err := db.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	maxID, err := db.MaxID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), maxID)
}

func TestStoreBookingsReplacesByID(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	require.NoError(t, db.StoreBookings(ctx, []types.Booking{
		types.NewBooking(1, date, decimal.NewFromInt(-10), "ACC-1", "Before"),
	}))
	require.NoError(t, db.StoreBookings(ctx, []types.Booking{
		types.NewBooking(1, date, decimal.NewFromInt(-20), "ACC-1", "After"),
	}))

	loaded, err := db.LoadBookings(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "After", loaded[0].BookingText)
	assert.True(t, decimal.NewFromInt(-20).Equal(loaded[0].Amount.Decimal))
}

func TestLoadBookingsWithMissingFields(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.StoreBookings(ctx, []types.Booking{
		{ID: 7, MoneyAccountID: "ACC-1", BookingText: "No date or amount"},
	}))

	loaded, err := db.LoadBookings(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.True(t, loaded[0].TransactionDate.IsZero())
	assert.False(t, loaded[0].Amount.Valid)
	assert.Equal(t, "No date or amount", loaded[0].BookingText)
}

func TestEmptyStore(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	loaded, err := db.LoadBookings(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)

	maxID, err := db.MaxID(ctx)
	require.NoError(t, err)
	assert.Zero(t, maxID)
}

func TestReopenKeepsBookingsAndMigrations(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	logger := log.New(io.Discard)

	first, err := New(dir, logger)
	require.NoError(t, err)
	require.NoError(t, first.StoreBookings(ctx, []types.Booking{
		types.NewBooking(1, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), decimal.NewFromInt(5), "ACC-1", "Kept"),
	}))
	require.NoError(t, first.Close())

	second, err := New(dir, logger)
	require.NoError(t, err)
	defer second.Close()

	count, err := second.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	var applied int
	require.NoError(t, second.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM migrations`).Scan(&applied))
	assert.Equal(t, len(migrations), applied)
}
