// Package search serves booking queries from an in-memory index.
//
// A Service owns the active index. Queries load it once and run to completion
// against that generation; Rebuild builds a fresh index in isolation and
// publishes it with a single atomic swap, so no query ever observes a partial
// index or a mix of two generations.
package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/booking-search/internal/index"
	"github.com/lox/booking-search/internal/query"
	"github.com/lox/booking-search/internal/types"
	"github.com/shopspring/decimal"
)

// DefaultFuzzyDistance is the edit distance used by ModeFuzzy
const DefaultFuzzyDistance = 1

// Recorder receives search and rebuild measurements
type Recorder interface {
	ObserveSearch(mode query.Mode, outcome string, duration time.Duration, total int)
	// ObserveRebuild is called after every rebuild; published reports whether
	// the new index replaced the active one
	ObserveRebuild(duration time.Duration, published bool, indexed, rejected int, err error)
}

type noopRecorder struct{}

func (noopRecorder) ObserveSearch(query.Mode, string, time.Duration, int) {}
func (noopRecorder) ObserveRebuild(time.Duration, bool, int, int, error)  {}

// Search outcomes reported to the Recorder
const (
	OutcomeOK          = "ok"
	OutcomeEmpty       = "short_circuit"
	OutcomeUnavailable = "unavailable"
	OutcomeInvalid     = "invalid"
)

// RebuildStats describes a completed rebuild
type RebuildStats struct {
	Generation uint64
	Indexed    int
	Rejected   int
	Duration   time.Duration
}

// Stats describes the active index
type Stats struct {
	Generation uint64
	Documents  int
	BuiltAt    time.Time
}

type generation struct {
	id    uint64
	index *index.Index
}

// Service answers queries against the latest complete index
type Service struct {
	logger        *log.Logger
	recorder      Recorder
	fuzzyDistance int
	buildOpts     []index.BuildOption

	current   atomic.Pointer[generation]
	rebuildMu sync.Mutex
	nextID    uint64
}

// ServiceOption is a function that modifies a Service
type ServiceOption func(*Service)

// WithFuzzyDistance sets the edit distance used by ModeFuzzy
func WithFuzzyDistance(distance int) ServiceOption {
	return func(s *Service) {
		s.fuzzyDistance = distance
	}
}

// WithRecorder reports measurements to r
func WithRecorder(r Recorder) ServiceOption {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithBuildOptions sets default options for every rebuild
func WithBuildOptions(opts ...index.BuildOption) ServiceOption {
	return func(s *Service) {
		s.buildOpts = append(s.buildOpts, opts...)
	}
}

// NewService creates a service with no index. Searches return empty responses
// until the first successful Rebuild.
func NewService(logger *log.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		logger:        logger,
		recorder:      noopRecorder{},
		fuzzyDistance: DefaultFuzzyDistance,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rebuild replaces the active index with one built from a complete snapshot.
//
// Malformed bookings are skipped: the new index is still published and the
// returned error joins one *index.MalformedRecordError per skipped booking.
// With index.WithFailFast the first malformed booking aborts the rebuild and
// the previous index stays active.
func (s *Service) Rebuild(ctx context.Context, bookings []types.Booking, opts ...index.BuildOption) (RebuildStats, error) {
	if err := ctx.Err(); err != nil {
		return RebuildStats{}, err
	}

	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	start := time.Now()
	buildOpts := append(append([]index.BuildOption{}, s.buildOpts...), opts...)
	ix, err := index.Build(bookings, buildOpts...)
	duration := time.Since(start)

	if ix == nil {
		s.recorder.ObserveRebuild(duration, false, 0, countMalformed(err), err)
		s.logger.Error("Index rebuild failed", "bookings", len(bookings), "error", err)
		return RebuildStats{}, fmt.Errorf("failed to rebuild index: %w", err)
	}

	s.nextID++
	s.current.Store(&generation{id: s.nextID, index: ix})

	stats := RebuildStats{
		Generation: s.nextID,
		Indexed:    ix.Len(),
		Rejected:   len(bookings) - ix.Len(),
		Duration:   duration,
	}
	s.recorder.ObserveRebuild(duration, true, stats.Indexed, stats.Rejected, err)

	if err != nil {
		s.logger.Warn("Index rebuilt with rejected bookings",
			"generation", stats.Generation,
			"indexed", stats.Indexed,
			"rejected", stats.Rejected,
			"duration", duration)
		return stats, err
	}

	s.logger.Info("Index rebuilt",
		"generation", stats.Generation,
		"bookings", stats.Indexed,
		"duration", duration)
	return stats, nil
}

// Index returns the active index, or ErrIndexUnavailable before the first
// successful rebuild
func (s *Service) Index() (*index.Index, error) {
	g := s.current.Load()
	if g == nil {
		return nil, ErrIndexUnavailable
	}
	return g.index, nil
}

// Stats describes the active index
func (s *Service) Stats() Stats {
	g := s.current.Load()
	if g == nil {
		return Stats{}
	}
	return Stats{Generation: g.id, Documents: g.index.Len(), BuiltAt: g.index.BuiltAt()}
}

// FuzzyDistance returns the edit distance used by ModeFuzzy
func (s *Service) FuzzyDistance() int {
	return s.fuzzyDistance
}

// Search runs a query against the active index.
//
// Invalid requests return a *ValidationError, ill-formed query text an error
// wrapping ErrInvalidQuery. Excluding both credits and debits, or searching
// before any index exists, yields an empty response rather than an error.
func (s *Service) Search(ctx context.Context, req QueryRequest) (types.SearchResponse, error) {
	start := time.Now()
	empty := types.SearchResponse{Total: 0, Limit: req.Limit, Results: []types.SearchResult{}}

	if err := req.Validate(); err != nil {
		s.recorder.ObserveSearch(req.Mode, OutcomeInvalid, time.Since(start), 0)
		return types.SearchResponse{}, err
	}

	text := query.Apply(req.Mode, req.Text, s.fuzzyDistance)
	plan, err := query.Compile(text, req.filters())
	if err != nil {
		s.recorder.ObserveSearch(req.Mode, OutcomeInvalid, time.Since(start), 0)
		return types.SearchResponse{}, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	if plan.Empty {
		s.recorder.ObserveSearch(req.Mode, OutcomeEmpty, time.Since(start), 0)
		return empty, nil
	}

	ix, err := s.Index()
	if errors.Is(err, ErrIndexUnavailable) {
		s.logger.Debug("Search before first index build", "query", text)
		s.recorder.ObserveSearch(req.Mode, OutcomeUnavailable, time.Since(start), 0)
		return empty, nil
	}

	total, results := evaluate(ix, plan, req.Limit)

	duration := time.Since(start)
	s.recorder.ObserveSearch(req.Mode, OutcomeOK, duration, total)
	s.logger.Info("Search completed",
		"query", text,
		"mode", req.Mode,
		"minAmount", nullDecimalString(req.MinAmount),
		"maxAmount", nullDecimalString(req.MaxAmount),
		"fromDate", dateString(req.FromDate),
		"includeCredits", req.IncludeCredits,
		"includeDebits", req.IncludeDebits,
		"limit", req.Limit,
		"total", total,
		"hits", len(results),
		"duration", duration)

	return types.SearchResponse{Total: total, Limit: req.Limit, Results: results}, nil
}

// countMalformed counts the *index.MalformedRecordError values in err,
// following joined errors
func countMalformed(err error) int {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		n := 0
		for _, e := range joined.Unwrap() {
			n += countMalformed(e)
		}
		return n
	}
	var malformed *index.MalformedRecordError
	if errors.As(err, &malformed) {
		return 1
	}
	return 0
}

func nullDecimalString(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func dateString(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(types.DateLayout)
}
