package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/booking-search/internal/bank"
	"github.com/lox/booking-search/internal/bank/amex"
	"github.com/lox/booking-search/internal/bank/ing"
	"github.com/lox/booking-search/internal/db"
	"github.com/lox/booking-search/internal/index"
	"github.com/lox/booking-search/internal/query"
	"github.com/lox/booking-search/internal/search"
	"github.com/lox/booking-search/internal/source"
)

// SetupLogger creates a stderr logger at the configured level
func (c CommonConfig) SetupLogger() (*log.Logger, error) {
	logger := log.New(os.Stderr)

	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	logger.SetLevel(level)

	return logger, nil
}

// Location loads the configured timezone
func (c CommonConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone: %w", err)
	}
	return loc, nil
}

// SetupStore opens the SQLite booking store in the data directory
func (c CommonConfig) SetupStore(logger *log.Logger) (*db.DB, error) {
	database, err := db.New(c.DataDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return database, nil
}

// Banks returns the registry of supported QIF bank profiles
func Banks() *bank.Registry {
	r := bank.NewRegistry()
	r.Register(ing.New())
	r.Register(amex.New())
	return r
}

// BankConfig builds the QIF conversion settings
func (c CommonConfig) BankConfig(account string, firstID int64) (bank.Config, error) {
	loc, err := c.Location()
	if err != nil {
		return bank.Config{}, err
	}
	return bank.Config{Account: account, FirstID: firstID, Location: loc}, nil
}

// SetupSource creates the configured snapshot source. The returned cleanup
// function releases anything the source holds open and is never nil.
func SetupSource(common CommonConfig, config SourceConfig, logger *log.Logger) (source.Source, func(), error) {
	noop := func() {}

	switch config.Source {
	case "demo":
		return source.NewDemo(), noop, nil

	case "qif":
		if config.QIFFile == "" {
			return nil, noop, fmt.Errorf("--qif-file is required when using the qif source")
		}
		b, ok := Banks().Get(config.Bank)
		if !ok {
			return nil, noop, fmt.Errorf("unknown bank: %s", config.Bank)
		}
		bankConfig, err := common.BankConfig(config.Account, 1)
		if err != nil {
			return nil, noop, err
		}
		return source.NewQIF(config.QIFFile, b, bankConfig), noop, nil

	case "sqlite":
		database, err := common.SetupStore(logger)
		if err != nil {
			return nil, noop, err
		}
		cleanup := func() {
			if err := database.Close(); err != nil {
				logger.Warn("Failed to close database", "error", err)
			}
		}
		return source.NewSQLite(database), cleanup, nil

	default:
		return nil, noop, fmt.Errorf("unknown booking source: %s", config.Source)
	}
}

// Validate checks option ranges kong cannot express
func (c IndexConfig) Validate() error {
	if c.FuzzyDistance < 0 || c.FuzzyDistance > query.MaxFuzzyDistance {
		return fmt.Errorf("fuzzy distance must be between 0 and %d", query.MaxFuzzyDistance)
	}
	return nil
}

// BuildOptions converts the configuration into index build options
func (c IndexConfig) BuildOptions() []index.BuildOption {
	var opts []index.BuildOption
	if c.FailFast {
		opts = append(opts, index.WithFailFast())
	}
	if c.Concurrency > 0 {
		opts = append(opts, index.WithConcurrency(c.Concurrency))
	}
	return opts
}

// SetupService creates a search service configured from c
func (c IndexConfig) SetupService(logger *log.Logger, recorder search.Recorder) *search.Service {
	opts := []search.ServiceOption{
		search.WithFuzzyDistance(c.FuzzyDistance),
		search.WithBuildOptions(c.BuildOptions()...),
	}
	if recorder != nil {
		opts = append(opts, search.WithRecorder(recorder))
	}
	return search.NewService(logger, opts...)
}

// LoadIndex builds the initial index for a long-running command
func LoadIndex(ctx context.Context, reloader *source.Reloader, logger *log.Logger) error {
	stats, err := reloader.Reload(ctx)
	if err != nil {
		return err
	}
	logger.Info("Booking index ready",
		"source", reloader.Source.Name(),
		"bookings", stats.Indexed,
		"rejected", stats.Rejected,
		"duration", stats.Duration)
	return nil
}
