package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/lox/booking-search/internal/commands"
	"github.com/lox/booking-search/internal/mcp"
	"github.com/lox/booking-search/internal/source"
)

var version = "dev"

type CLI struct {
	commands.CommonConfig
	commands.SourceConfig
	commands.IndexConfig
}

func (c *CLI) Run() error {
	// stdout carries the MCP protocol, so logs must stay on stderr
	logger, err := c.SetupLogger()
	if err != nil {
		return err
	}
	if err := c.IndexConfig.Validate(); err != nil {
		return err
	}

	src, cleanup, err := commands.SetupSource(c.CommonConfig, c.SourceConfig, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	service := c.IndexConfig.SetupService(logger, nil)
	reloader := &source.Reloader{
		Source:   src,
		Service:  service,
		Attempts: c.LoadAttempts,
		Logger:   logger,
	}
	if err := commands.LoadIndex(context.Background(), reloader, logger); err != nil {
		return err
	}

	return mcp.New(service, reloader, logger, version).Run()
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("booking-mcp-server"),
		kong.Description("Expose booking search as MCP tools over stdio"),
		kong.UsageOnError(),
	)

	if err := ctx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
