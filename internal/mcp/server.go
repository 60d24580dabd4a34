package mcp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/lox/booking-search/internal/search"
	"github.com/lox/booking-search/internal/types"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Rebuilder reloads the booking snapshot into the search service
type Rebuilder interface {
	Reload(ctx context.Context) (search.RebuildStats, error)
}

type Server struct {
	service   *search.Service
	rebuilder Rebuilder
	logger    *log.Logger
	version   string
}

func New(service *search.Service, rebuilder Rebuilder, logger *log.Logger, version string) *Server {
	return &Server{
		service:   service,
		rebuilder: rebuilder,
		logger:    logger,
		version:   version,
	}
}

// MCPServer creates the MCP server with all booking tools registered
func (s *Server) MCPServer() *server.MCPServer {
	mcpServer := server.NewMCPServer(
		"Booking Search",
		s.version,
	)

	mcpServer.AddTool(mcp.NewTool("search_bookings",
		mcp.WithDescription("Search bookings by text, amount range, date and sign. Results are ranked by relevance."),
		mcp.WithString("query",
			mcp.Description("Free text; terms are OR'd. Supports 'term*' prefixes, '?' wildcards and 'term~1' fuzzy matches. Empty matches all bookings."),
		),
		mcp.WithString("mode",
			mcp.Description("How plain terms match: exact (default), fuzzy or wildcard"),
			mcp.Enum("exact", "fuzzy", "wildcard"),
		),
		mcp.WithString(search.ParamMinAmount,
			mcp.Description("Minimum absolute amount, inclusive"),
		),
		mcp.WithString(search.ParamMaxAmount,
			mcp.Description("Maximum absolute amount, inclusive"),
		),
		mcp.WithString(search.ParamFromDate,
			mcp.Description("Earliest transaction date (YYYY-MM-DD), inclusive"),
		),
		mcp.WithBoolean(search.ParamIncludeCredits,
			mcp.Description("Include bookings with a positive amount (default: true)"),
		),
		mcp.WithBoolean(search.ParamIncludeDebits,
			mcp.Description("Include bookings with a negative amount (default: true)"),
		),
		mcp.WithString(search.ParamLimit,
			mcp.Description(fmt.Sprintf("Maximum number of results to return (default: %d)", search.DefaultLimit)),
		),
	), s.searchBookingsHandler)

	mcpServer.AddTool(mcp.NewTool("index_stats",
		mcp.WithDescription("Show the size and age of the booking index"),
	), s.indexStatsHandler)

	if s.rebuilder != nil {
		mcpServer.AddTool(mcp.NewTool("rebuild_index",
			mcp.WithDescription("Reload all bookings from the configured source and rebuild the search index"),
		), s.rebuildIndexHandler)
	}

	return mcpServer
}

// Run serves the tools over stdio until the client disconnects
func (s *Server) Run() error {
	if err := server.ServeStdio(s.MCPServer()); err != nil {
		return err
	}
	return nil
}

func (s *Server) searchBookingsHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments

	var argErr error
	req, err := search.ParseRequest(func(name string) string {
		key := name
		if name == search.ParamQuery {
			key = "query"
		}
		v, err := argumentString(args, key)
		if err != nil && argErr == nil {
			argErr = err
		}
		return v
	})
	if argErr != nil {
		return nil, argErr
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp, err := s.service.Search(ctx, req)
	if errors.Is(err, search.ErrValidation) || errors.Is(err, search.ErrInvalidQuery) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to search bookings: %w", err)
	}

	return mcp.NewToolResultText(formatResults(resp)), nil
}

func (s *Server) indexStatsHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats := s.service.Stats()
	if stats.Generation == 0 {
		return mcp.NewToolResultText("The booking index has not been built yet."), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Generation %d: %d bookings, built %s",
		stats.Generation, stats.Documents, stats.BuiltAt.Format("2006-01-02 15:04:05"))), nil
}

func (s *Server) rebuildIndexHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.rebuilder.Reload(ctx)
	if err != nil {
		s.logger.Error("Index rebuild failed", "error", err)
		return nil, fmt.Errorf("failed to rebuild index: %w", err)
	}

	return mcp.NewToolResultText(fmt.Sprintf("Rebuilt index generation %d: %d bookings indexed, %d rejected in %s",
		stats.Generation, stats.Indexed, stats.Rejected, stats.Duration)), nil
}

// argumentString renders a tool argument in the string form search.ParseRequest
// expects. Missing arguments are empty.
func argumentString(args map[string]interface{}, name string) (string, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return "", nil
	}
	switch v := v.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("%s must be a string, number or boolean", name)
	}
}

func formatResults(resp types.SearchResponse) string {
	if resp.Total == 0 {
		return "No bookings found"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d bookings, showing %d:\n\n", resp.Total, len(resp.Results))
	for _, r := range resp.Results {
		fmt.Fprintf(&sb, "%s: %s %s - %s\n", r.TransactionDate, r.Amount.StringFixed(2), r.MoneyAccountID, r.BookingText)
		fmt.Fprintf(&sb, "  ID: %d, Score: %.3f\n", r.ID, r.Score)
	}
	return sb.String()
}
