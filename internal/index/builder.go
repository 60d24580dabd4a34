package index

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/lox/booking-search/internal/analysis"
	"github.com/lox/booking-search/internal/types"
	"golang.org/x/sync/errgroup"
)

const buildChunkSize = 2048

// MalformedRecordError reports a booking that cannot be indexed
type MalformedRecordError struct {
	// ID is the booking id, Position its offset in the snapshot
	ID       int64
	Position int
	Field    string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed booking %d at position %d: missing %s", e.ID, e.Position, e.Field)
}

type buildOptions struct {
	failFast    bool
	concurrency int
	progress    Progress
}

// BuildOption is a function that modifies how an index is built
type BuildOption func(*buildOptions)

// WithFailFast aborts the build on the first malformed booking
func WithFailFast() BuildOption {
	return func(opts *buildOptions) {
		opts.failFast = true
	}
}

// WithConcurrency sets how many goroutines analyze bookings
func WithConcurrency(n int) BuildOption {
	return func(opts *buildOptions) {
		if n > 0 {
			opts.concurrency = n
		}
	}
}

// WithProgress reports each analyzed booking to p
func WithProgress(p Progress) BuildOption {
	return func(opts *buildOptions) {
		if p != nil {
			opts.progress = p
		}
	}
}

// Build creates an index from a complete snapshot of bookings.
//
// Bookings without a transaction date or amount are rejected. By default they
// are skipped and the returned error joins one *MalformedRecordError per
// rejected booking, alongside a usable index of the rest. With WithFailFast the
// first rejection aborts the build and no index is returned.
func Build(bookings []types.Booking, opts ...BuildOption) (*Index, error) {
	options := buildOptions{
		concurrency: runtime.GOMAXPROCS(0),
		progress:    NewNoopProgress(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	defer options.progress.Close()

	accepted := make([]int, 0, len(bookings))
	var rejected []error
	for i, b := range bookings {
		if err := checkBooking(i, b); err != nil {
			if options.failFast {
				return nil, err
			}
			rejected = append(rejected, err)
			continue
		}
		accepted = append(accepted, i)
	}

	n := len(accepted)
	ix := &Index{
		docs:      make([]Document, n),
		fields:    make(map[string]*Field, len(TextFields)),
		signed:    make([]float64, n),
		abs:       make([]float64, n),
		epochDays: make([]int64, n),
		builtAt:   time.Now(),
	}
	fields := []*Field{
		newField(FieldBookingText, n),
		newField(FieldBookingTextNorm, n),
		newField(FieldMoneyAccountID, n),
	}

	// each chunk fills its own ordinal range and keeps private postings per field
	chunks := make([][]*fieldChunk, (n+buildChunkSize-1)/buildChunkSize)
	var g errgroup.Group
	g.SetLimit(options.concurrency)
	for c := range chunks {
		start := c * buildChunkSize
		end := min(start+buildChunkSize, n)
		g.Go(func() error {
			chunks[c] = ix.analyzeChunk(fields, bookings, accepted[start:end], start)
			return options.progress.Add(end - start)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to analyze bookings: %w", err)
	}

	var merge errgroup.Group
	for i, f := range fields {
		perField := make([]*fieldChunk, len(chunks))
		for c := range chunks {
			perField[c] = chunks[c][i]
		}
		merge.Go(func() error {
			f.merge(perField)
			return nil
		})
	}
	_ = merge.Wait()

	for _, f := range fields {
		ix.fields[f.name] = f
	}

	return ix, errors.Join(rejected...)
}

// analyzeChunk indexes bookings[positions[i]] under ordinal first+i. It returns
// one fieldChunk per entry of fields.
func (ix *Index) analyzeChunk(fields []*Field, bookings []types.Booking, positions []int, first int) []*fieldChunk {
	text, norm, account := fields[0], fields[1], fields[2]
	chunks := []*fieldChunk{newFieldChunk(), newFieldChunk(), newFieldChunk()}

	// account ids repeat heavily; tokenize each once per chunk
	accounts := make(map[string][]string)

	for i, pos := range positions {
		b := bookings[pos]
		ord := first + i
		amount := b.Amount.Decimal

		ix.docs[ord] = Document{
			ID:              b.ID,
			TransactionDate: types.Date(b.TransactionDate).Format(types.DateLayout),
			Amount:          amount,
			MoneyAccountID:  b.MoneyAccountID,
			BookingText:     b.BookingText,
		}
		signed := amount.InexactFloat64()
		ix.signed[ord] = signed
		ix.abs[ord] = math.Abs(signed)
		ix.epochDays[ord] = types.EpochDay(b.TransactionDate)

		tokens := analysis.Tokenize(b.BookingText)
		text.add(chunks[0], uint32(ord), tokens)
		norm.add(chunks[1], uint32(ord), analysis.NormalizeTokens(tokens))

		accountTokens, ok := accounts[b.MoneyAccountID]
		if !ok {
			accountTokens = analysis.TokenizeFolded(b.MoneyAccountID)
			accounts[b.MoneyAccountID] = accountTokens
		}
		account.add(chunks[2], uint32(ord), accountTokens)
	}
	return chunks
}

func checkBooking(position int, b types.Booking) error {
	switch {
	case b.TransactionDate.IsZero():
		return &MalformedRecordError{ID: b.ID, Position: position, Field: "transactionDate"}
	case !b.Amount.Valid:
		return &MalformedRecordError{ID: b.ID, Position: position, Field: "amount"}
	}
	return nil
}
