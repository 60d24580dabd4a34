package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/charmbracelet/log"
	"github.com/lox/booking-search/internal/types"
	"github.com/shopspring/decimal"
)

// FileName is the name of the database file inside the data directory
const FileName = "bookings.db"

// DB represents a SQLite database connection
type DB struct {
	db     *sql.DB
	logger *log.Logger
	path   string
}

// New creates a new database connection
func New(dataDir string, logger *log.Logger) (*DB, error) {
	// Create data directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, FileName)
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	d := &DB{
		db:     db,
		logger: logger,
		path:   dbPath,
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db, logger.Infof); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return d, nil
}

// createTables creates the necessary tables in the database. Date and amount
// are nullable so incomplete imports survive until the index rejects them.
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS bookings (
			id INTEGER PRIMARY KEY,
			transaction_date TEXT,
			amount TEXT,
			money_account_id TEXT NOT NULL DEFAULT '',
			booking_text TEXT NOT NULL DEFAULT ''
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create bookings table: %w", err)
	}
	return nil
}

// Path returns the location of the database file
func (d *DB) Path() string {
	return d.path
}

// StoreBookings inserts or replaces bookings in a single transaction
func (d *DB) StoreBookings(ctx context.Context, bookings []types.Booking) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO bookings (
			id, transaction_date, amount, money_account_id, booking_text
		) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, b := range bookings {
		if _, err := stmt.ExecContext(ctx, b.ID, nullDate(b.TransactionDate), nullAmount(b.Amount), b.MoneyAccountID, b.BookingText); err != nil {
			return fmt.Errorf("failed to store booking %d: %w", b.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bookings: %w", err)
	}

	d.logger.Debug("Stored bookings", "count", len(bookings))
	return nil
}

// LoadBookings returns every stored booking ordered by id. Rows with a
// missing or unparsable date or amount are returned with that field unset.
func (d *DB) LoadBookings(ctx context.Context) ([]types.Booking, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, transaction_date, amount, money_account_id, booking_text
		FROM bookings
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []types.Booking
	for rows.Next() {
		var b types.Booking
		var date, amount sql.NullString
		if err := rows.Scan(&b.ID, &date, &amount, &b.MoneyAccountID, &b.BookingText); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}

		if date.Valid {
			if t, err := time.Parse(types.DateLayout, date.String); err == nil {
				b.TransactionDate = t
			} else {
				d.logger.Warn("Ignoring unparsable booking date", "id", b.ID, "date", date.String)
			}
		}
		if amount.Valid {
			if v, err := decimal.NewFromString(amount.String); err == nil {
				b.Amount = decimal.NullDecimal{Decimal: v, Valid: true}
			} else {
				d.logger.Warn("Ignoring unparsable booking amount", "id", b.ID, "amount", amount.String)
			}
		}

		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookings: %w", err)
	}

	return bookings, nil
}

// Count returns the number of bookings in the database
func (d *DB) Count(ctx context.Context) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

// MaxID returns the largest stored booking id, or zero for an empty store
func (d *DB) MaxID(ctx context.Context) (int64, error) {
	var id sql.NullInt64
	if err := d.db.QueryRowContext(ctx, `SELECT MAX(id) FROM bookings`).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to get max booking id: %w", err)
	}
	return id.Int64, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

func nullDate(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(types.DateLayout), Valid: true}
}

func nullAmount(a decimal.NullDecimal) sql.NullString {
	if !a.Valid {
		return sql.NullString{}
	}
	return sql.NullString{String: a.Decimal.String(), Valid: true}
}
