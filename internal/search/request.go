package search

import (
	"errors"
	"fmt"
	"time"

	"github.com/lox/booking-search/internal/query"
	"github.com/lox/booking-search/internal/types"
	"github.com/shopspring/decimal"
)

// DefaultLimit is the page size used when a request does not set one
const DefaultLimit = 20

var (
	// ErrValidation matches every *ValidationError
	ErrValidation = errors.New("invalid search request")
	// ErrInvalidQuery wraps query syntax errors
	ErrInvalidQuery = errors.New("invalid query syntax")
	// ErrIndexUnavailable is reported before the first successful rebuild
	ErrIndexUnavailable = errors.New("booking index unavailable")
)

// ValidationError reports a request field that is out of range or unparsable
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) true for every validation error
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// QueryRequest is a normalized search request
type QueryRequest struct {
	// Text is the free-text query; blank matches every booking
	Text string
	// MinAmount and MaxAmount bound the absolute amount, inclusive
	MinAmount decimal.NullDecimal
	MaxAmount decimal.NullDecimal
	// FromDate is an inclusive calendar date floor
	FromDate       *time.Time
	IncludeCredits bool
	IncludeDebits  bool
	// Limit caps the number of returned results; zero or less returns none
	Limit int
	Mode  query.Mode
}

// SearchOption is a function that modifies a QueryRequest
type SearchOption func(*QueryRequest)

// NewQueryRequest creates a request with the documented defaults: credits and
// debits included, limit DefaultLimit, exact matching
func NewQueryRequest(text string, opts ...SearchOption) QueryRequest {
	req := QueryRequest{
		Text:           text,
		IncludeCredits: true,
		IncludeDebits:  true,
		Limit:          DefaultLimit,
		Mode:           query.ModeExact,
	}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}

// WithLimit sets the maximum number of results
func WithLimit(limit int) SearchOption {
	return func(req *QueryRequest) {
		req.Limit = limit
	}
}

// WithMinAmount sets the lower bound on the absolute amount
func WithMinAmount(amount decimal.Decimal) SearchOption {
	return func(req *QueryRequest) {
		req.MinAmount = decimal.NullDecimal{Decimal: amount, Valid: true}
	}
}

// WithMaxAmount sets the upper bound on the absolute amount
func WithMaxAmount(amount decimal.Decimal) SearchOption {
	return func(req *QueryRequest) {
		req.MaxAmount = decimal.NullDecimal{Decimal: amount, Valid: true}
	}
}

// WithFromDate only matches bookings on or after date
func WithFromDate(date time.Time) SearchOption {
	return func(req *QueryRequest) {
		req.FromDate = &date
	}
}

// WithCredits includes or excludes bookings with a positive amount
func WithCredits(include bool) SearchOption {
	return func(req *QueryRequest) {
		req.IncludeCredits = include
	}
}

// WithDebits includes or excludes bookings with a negative amount
func WithDebits(include bool) SearchOption {
	return func(req *QueryRequest) {
		req.IncludeDebits = include
	}
}

// WithMode sets how the text is rewritten before matching
func WithMode(mode query.Mode) SearchOption {
	return func(req *QueryRequest) {
		req.Mode = mode
	}
}

// Validate checks the request for out-of-range values
func (r QueryRequest) Validate() error {
	if r.MinAmount.Valid && r.MinAmount.Decimal.IsNegative() {
		return &ValidationError{Field: "minAmount", Reason: "must not be negative"}
	}
	if r.MaxAmount.Valid && r.MaxAmount.Decimal.IsNegative() {
		return &ValidationError{Field: "maxAmount", Reason: "must not be negative"}
	}
	if r.MinAmount.Valid && r.MaxAmount.Valid && r.MinAmount.Decimal.GreaterThan(r.MaxAmount.Decimal) {
		return &ValidationError{Field: "maxAmount", Reason: "must not be less than minAmount"}
	}
	if _, err := query.ParseMode(string(r.Mode)); err != nil {
		return &ValidationError{Field: "mode", Reason: err.Error()}
	}
	return nil
}

// filters converts the structured part of the request for the query compiler
func (r QueryRequest) filters() query.Filters {
	f := query.Filters{
		IncludeCredits: r.IncludeCredits,
		IncludeDebits:  r.IncludeDebits,
	}
	if r.MinAmount.Valid {
		v := r.MinAmount.Decimal.InexactFloat64()
		f.MinAmount = &v
	}
	if r.MaxAmount.Valid {
		v := r.MaxAmount.Decimal.InexactFloat64()
		f.MaxAmount = &v
	}
	if r.FromDate != nil {
		day := types.EpochDay(*r.FromDate)
		f.FromEpochDay = &day
	}
	return f
}
