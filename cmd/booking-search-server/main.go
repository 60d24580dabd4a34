package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/lox/booking-search/internal/api"
	"github.com/lox/booking-search/internal/commands"
	"github.com/lox/booking-search/internal/metrics"
	"github.com/lox/booking-search/internal/source"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type CLI struct {
	commands.CommonConfig
	commands.SourceConfig
	commands.IndexConfig

	Addr            string        `help:"Address to listen on" default:":8080" env:"BOOKING_ADDR"`
	ReadTimeout     time.Duration `help:"HTTP read timeout" default:"10s"`
	WriteTimeout    time.Duration `help:"HTTP write timeout" default:"30s"`
	ShutdownTimeout time.Duration `help:"Time allowed for in-flight requests on shutdown" default:"15s"`
	RebuildInterval time.Duration `help:"Reload the source and rebuild the index this often (0 disables)" default:"0" env:"BOOKING_REBUILD_INTERVAL"`
}

func (c *CLI) Run() error {
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

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	service := c.IndexConfig.SetupService(logger, m)
	reloader := &source.Reloader{
		Source:   src,
		Service:  service,
		Attempts: c.LoadAttempts,
		Logger:   logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.LoadIndex(ctx, reloader, logger); err != nil {
		return err
	}

	server := api.NewServer(service, logger,
		api.WithRebuilder(reloader),
		api.WithMetrics(m, reg),
	)
	srv := &http.Server{
		Addr:         c.Addr,
		Handler:      server.Handler(),
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
	}

	if c.RebuildInterval > 0 {
		go c.rebuildPeriodically(ctx, reloader)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "addr", c.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", "error", err)
	}

	logger.Info("Server stopped gracefully")
	return nil
}

func (c *CLI) rebuildPeriodically(ctx context.Context, reloader *source.Reloader) {
	ticker := time.NewTicker(c.RebuildInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := reloader.Reload(ctx); err != nil {
				reloader.Logger.Error("Scheduled rebuild failed", "error", err)
			}
		}
	}
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("booking-search-server"),
		kong.Description("Serve booking searches over HTTP"),
		kong.UsageOnError(),
	)

	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
