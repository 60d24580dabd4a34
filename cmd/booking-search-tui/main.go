package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/lox/booking-search/internal/commands"
	"github.com/lox/booking-search/internal/source"
)

type CLI struct {
	commands.CommonConfig
	commands.SourceConfig
	commands.IndexConfig
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("booking-search-tui"),
		kong.Description("An interactive TUI for searching bookings."),
		kong.UsageOnError(),
	)

	logger, err := cli.SetupLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.SetPrefix("tui")

	if err := cli.IndexConfig.Validate(); err != nil {
		logger.Fatal("Invalid configuration", "error", err)
	}

	src, cleanup, err := commands.SetupSource(cli.CommonConfig, cli.SourceConfig, logger)
	if err != nil {
		logger.Fatal("Failed to set up booking source", "error", err)
	}
	defer cleanup()

	service := cli.IndexConfig.SetupService(logger, nil)
	reloader := &source.Reloader{
		Source:   src,
		Service:  service,
		Attempts: cli.LoadAttempts,
		Logger:   logger,
	}

	// the alt screen owns stdout; keep log noise down while it runs
	if logger.GetLevel() < log.WarnLevel {
		logger.SetLevel(log.WarnLevel)
	}

	p := tea.NewProgram(initialModel(service, reloader, logger), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Fatal("Error running TUI", "error", err)
	}
}
