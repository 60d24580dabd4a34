package search

import (
	"strconv"
	"strings"
	"time"

	"github.com/lox/booking-search/internal/query"
	"github.com/lox/booking-search/internal/types"
	"github.com/shopspring/decimal"
)

// Parameter names shared by the HTTP and MCP front ends
const (
	ParamQuery          = "q"
	ParamMinAmount      = "minAmount"
	ParamMaxAmount      = "maxAmount"
	ParamFromDate       = "fromDate"
	ParamIncludeCredits = "includeCredits"
	ParamIncludeDebits  = "includeDebits"
	ParamLimit          = "limit"
	ParamMode           = "mode"
)

// ParseRequest builds a QueryRequest from string parameters. Missing
// parameters take their defaults; present but unparsable ones are rejected
// with a *ValidationError.
func ParseRequest(get func(name string) string) (QueryRequest, error) {
	req := NewQueryRequest(get(ParamQuery))

	if v := get(ParamMinAmount); v != "" {
		amount, err := ParseAmount(ParamMinAmount, v)
		if err != nil {
			return QueryRequest{}, err
		}
		req.MinAmount = decimal.NullDecimal{Decimal: amount, Valid: true}
	}
	if v := get(ParamMaxAmount); v != "" {
		amount, err := ParseAmount(ParamMaxAmount, v)
		if err != nil {
			return QueryRequest{}, err
		}
		req.MaxAmount = decimal.NullDecimal{Decimal: amount, Valid: true}
	}
	if v := get(ParamFromDate); v != "" {
		date, err := ParseDate(ParamFromDate, v)
		if err != nil {
			return QueryRequest{}, err
		}
		req.FromDate = &date
	}

	var err error
	if req.IncludeCredits, err = parseBool(ParamIncludeCredits, get(ParamIncludeCredits), true); err != nil {
		return QueryRequest{}, err
	}
	if req.IncludeDebits, err = parseBool(ParamIncludeDebits, get(ParamIncludeDebits), true); err != nil {
		return QueryRequest{}, err
	}

	if v := get(ParamLimit); v != "" {
		limit, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return QueryRequest{}, &ValidationError{Field: ParamLimit, Reason: "must be an integer"}
		}
		req.Limit = limit
	}

	if v := get(ParamMode); v != "" {
		mode, err := query.ParseMode(v)
		if err != nil {
			return QueryRequest{}, &ValidationError{Field: ParamMode, Reason: err.Error()}
		}
		req.Mode = mode
	}

	if err := req.Validate(); err != nil {
		return QueryRequest{}, err
	}
	return req, nil
}

// ParseAmount parses a decimal amount
func ParseAmount(field, s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, &ValidationError{Field: field, Reason: "must be a decimal number"}
	}
	return amount, nil
}

// ParseDate parses a YYYY-MM-DD calendar date
func ParseDate(field, s string) (time.Time, error) {
	date, err := time.Parse(types.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, &ValidationError{Field: field, Reason: "must be a date in YYYY-MM-DD form"}
	}
	return date, nil
}

func parseBool(field, s string, def bool) (bool, error) {
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false, &ValidationError{Field: field, Reason: "must be true or false"}
	}
	return b, nil
}
