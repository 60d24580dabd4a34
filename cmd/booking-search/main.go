package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/lox/booking-search/internal/commands"
	"github.com/lox/booking-search/internal/index"
	"github.com/lox/booking-search/internal/query"
	"github.com/lox/booking-search/internal/search"
	"github.com/lox/booking-search/internal/source"
	"github.com/lox/booking-search/internal/types"
)

type CLI struct {
	commands.CommonConfig
	commands.SourceConfig
	commands.IndexConfig

	Query          string `arg:"" optional:"" help:"Search query; empty matches every booking"`
	Mode           string `help:"Matching mode (exact, fuzzy, wildcard)" default:"exact" enum:"exact,fuzzy,wildcard"`
	MinAmount      string `help:"Minimum absolute amount"`
	MaxAmount      string `help:"Maximum absolute amount"`
	FromDate       string `help:"Earliest transaction date (YYYY-MM-DD)"`
	IncludeCredits bool   `help:"Include credits" default:"true" negatable:""`
	IncludeDebits  bool   `help:"Include debits" default:"true" negatable:""`
	Limit          int    `help:"Maximum number of results to return" default:"20"`
	JSON           bool   `help:"Print the response as JSON"`
	Progress       bool   `help:"Show a progress bar while indexing"`
}

func (c *CLI) Run() error {
	ctx := context.Background()

	logger, err := c.SetupLogger()
	if err != nil {
		return err
	}
	if err := c.IndexConfig.Validate(); err != nil {
		return err
	}

	req, err := c.request()
	if err != nil {
		return err
	}

	src, cleanup, err := commands.SetupSource(c.CommonConfig, c.SourceConfig, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	bookings, err := source.LoadWithRetry(ctx, src, c.LoadAttempts, logger)
	if err != nil {
		return err
	}

	service := c.IndexConfig.SetupService(logger, nil)
	var opts []index.BuildOption
	if c.Progress {
		opts = append(opts, index.WithProgress(index.NewBarProgress(len(bookings), "Indexing bookings")))
	}
	stats, err := service.Rebuild(ctx, bookings, opts...)
	if err != nil && stats.Generation == 0 {
		return err
	}
	if err != nil {
		logger.Warn("Skipped malformed bookings", "rejected", stats.Rejected)
	}

	resp, err := service.Search(ctx, req)
	if err != nil {
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	printResults(resp)
	return nil
}

func (c *CLI) request() (search.QueryRequest, error) {
	mode, err := query.ParseMode(c.Mode)
	if err != nil {
		return search.QueryRequest{}, err
	}

	opts := []search.SearchOption{
		search.WithMode(mode),
		search.WithLimit(c.Limit),
		search.WithCredits(c.IncludeCredits),
		search.WithDebits(c.IncludeDebits),
	}
	if c.MinAmount != "" {
		amount, err := search.ParseAmount(search.ParamMinAmount, c.MinAmount)
		if err != nil {
			return search.QueryRequest{}, err
		}
		opts = append(opts, search.WithMinAmount(amount))
	}
	if c.MaxAmount != "" {
		amount, err := search.ParseAmount(search.ParamMaxAmount, c.MaxAmount)
		if err != nil {
			return search.QueryRequest{}, err
		}
		opts = append(opts, search.WithMaxAmount(amount))
	}
	if c.FromDate != "" {
		date, err := search.ParseDate(search.ParamFromDate, c.FromDate)
		if err != nil {
			return search.QueryRequest{}, err
		}
		opts = append(opts, search.WithFromDate(date))
	}

	req := search.NewQueryRequest(c.Query, opts...)
	return req, req.Validate()
}

func printResults(resp types.SearchResponse) {
	if resp.Total == 0 {
		fmt.Println("No bookings found")
		return
	}

	fmt.Printf("Found %d bookings, showing %d:\n\n", resp.Total, len(resp.Results))
	for _, r := range resp.Results {
		fmt.Printf("%s: %10s %-6s %s\n", r.TransactionDate, r.Amount.StringFixed(2), r.MoneyAccountID, r.BookingText)
		fmt.Printf("  ID: %d  Score: %.3f\n", r.ID, r.Score)
	}
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("booking-search"),
		kong.Description("Search bookings with fuzzy, wildcard and filtered queries"),
		kong.UsageOnError(),
	)

	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
