package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/lox/booking-search/internal/commands"
	"github.com/schollz/progressbar/v3"
)

const batchSize = 500

type CLI struct {
	commands.CommonConfig

	File    string `arg:"" help:"QIF file to import" type:"existingfile"`
	Bank    string `help:"Bank profile used to read the export" default:"ing-australia" enum:"ing-australia,amex" env:"BOOKING_BANK"`
	Account string `help:"Money account id assigned to imported bookings" required:"" env:"BOOKING_ACCOUNT"`
	DryRun  bool   `help:"Parse the file and report what would be imported"`
}

func (c *CLI) Run() error {
	ctx := context.Background()

	logger, err := c.SetupLogger()
	if err != nil {
		return err
	}

	b, ok := commands.Banks().Get(c.Bank)
	if !ok {
		return fmt.Errorf("unknown bank: %s", c.Bank)
	}

	database, err := c.SetupStore(logger)
	if err != nil {
		return err
	}
	defer database.Close()

	// continue numbering after the bookings already stored
	maxID, err := database.MaxID(ctx)
	if err != nil {
		return err
	}
	bankConfig, err := c.BankConfig(c.Account, maxID+1)
	if err != nil {
		return err
	}

	f, err := os.Open(c.File)
	if err != nil {
		return fmt.Errorf("failed to open QIF file: %w", err)
	}
	defer f.Close()

	bookings, err := b.ParseBookings(ctx, f, bankConfig)
	if err != nil {
		return fmt.Errorf("failed to parse %s export: %w", b.Name(), err)
	}

	incomplete := 0
	for _, bk := range bookings {
		if bk.TransactionDate.IsZero() || !bk.Amount.Valid {
			incomplete++
		}
	}
	if incomplete > 0 {
		logger.Warn("Some bookings are missing a date or amount and will be rejected at index time", "count", incomplete)
	}

	if c.DryRun {
		fmt.Printf("Would import %d bookings from %s (%d incomplete)\n", len(bookings), c.File, incomplete)
		return nil
	}

	bar := progressbar.NewOptions(len(bookings),
		progressbar.OptionSetDescription("Importing bookings"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)
	for start := 0; start < len(bookings); start += batchSize {
		end := min(start+batchSize, len(bookings))
		if err := database.StoreBookings(ctx, bookings[start:end]); err != nil {
			return err
		}
		_ = bar.Add(end - start)
	}
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)

	count, err := database.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d bookings into %s (%d total)\n", len(bookings), database.Path(), count)
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("booking-import"),
		kong.Description("Import bookings from a QIF export into the local booking store"),
		kong.UsageOnError(),
	)

	if err := ctx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
