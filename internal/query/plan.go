// Package query compiles free-text queries and structured filters into an
// evaluation plan.
//
// A plan is a disjunction of term clauses (a booking matches the text predicate
// if it matches at least one term) ANDed with zero or more filters. Filters
// only gate bookings in or out; they never contribute to the relevance score.
package query

import (
	"fmt"
	"math"
	"strings"

	"github.com/lox/booking-search/internal/analysis"
	"github.com/lox/booking-search/internal/index"
)

// DebitCeiling is the largest signed amount still counted as a debit. Zero
// amounts are not debits.
const DebitCeiling = -0.0000001

// Filters holds the structured predicates of a query
type Filters struct {
	// MinAmount and MaxAmount bound the absolute amount, inclusive
	MinAmount *float64
	MaxAmount *float64
	// FromEpochDay is an inclusive date floor in days since 1970-01-01
	FromEpochDay   *int64
	IncludeCredits bool
	IncludeDebits  bool
}

// Part is one token of a term as analyzed for a single field
type Part struct {
	Text     string
	Kind     TermKind
	Distance int
}

// FieldClause matches a term against one field. Every part must match.
type FieldClause struct {
	Field string
	Parts []Part
}

// TermClause matches a term against any of its fields
type TermClause struct {
	Term   Term
	Fields []FieldClause
}

// Plan is a compiled query
type Plan struct {
	// Empty plans can never match; they are produced when both credits and
	// debits are excluded and must not be evaluated against an index
	Empty bool
	// MatchAll plans match every booking with a constant score
	MatchAll bool
	Terms    []TermClause
	Filters  []Filter
}

// Filter gates bookings without affecting their score
type Filter interface {
	Accept(ix *index.Index, ord uint32) bool
	String() string
}

// AbsAmountRange accepts bookings whose absolute amount lies in [Min, Max]
type AbsAmountRange struct {
	Min float64
	Max float64
}

func (f AbsAmountRange) Accept(ix *index.Index, ord uint32) bool {
	abs := ix.AbsAmount(ord)
	return abs >= f.Min && abs <= f.Max
}

func (f AbsAmountRange) String() string {
	return fmt.Sprintf("abs(amount) in [%g, %g]", f.Min, f.Max)
}

// DateFloor accepts bookings on or after an epoch day
type DateFloor struct {
	EpochDay int64
}

func (f DateFloor) Accept(ix *index.Index, ord uint32) bool {
	return ix.EpochDay(ord) >= f.EpochDay
}

func (f DateFloor) String() string {
	return fmt.Sprintf("epochDay >= %d", f.EpochDay)
}

// CreditsOnly accepts bookings with a strictly positive amount
type CreditsOnly struct{}

func (CreditsOnly) Accept(ix *index.Index, ord uint32) bool {
	return ix.SignedAmount(ord) > 0
}

func (CreditsOnly) String() string { return "amount > 0" }

// DebitsOnly accepts bookings with an amount at or below DebitCeiling
type DebitsOnly struct{}

func (DebitsOnly) Accept(ix *index.Index, ord uint32) bool {
	return ix.SignedAmount(ord) <= DebitCeiling
}

func (DebitsOnly) String() string { return fmt.Sprintf("amount <= %g", DebitCeiling) }

// Compile turns a free-text query and filters into a plan.
//
// Excluding both credits and debits short-circuits to an empty plan without
// looking at the text. A blank text matches everything. Otherwise each
// whitespace-separated term is parsed and analyzed per field; terms that
// analyze to no tokens in any field are dropped, so a query made only of such
// terms matches nothing.
func Compile(text string, filters Filters) (Plan, error) {
	if !filters.IncludeCredits && !filters.IncludeDebits {
		return Plan{Empty: true}, nil
	}

	plan := Plan{Filters: compileFilters(filters)}

	raw := SplitTerms(text)
	if len(raw) == 0 {
		plan.MatchAll = true
		return plan, nil
	}

	for _, r := range raw {
		term, err := ParseTerm(r)
		if err != nil {
			return Plan{}, err
		}
		clause := compileTerm(term)
		if len(clause.Fields) == 0 {
			continue
		}
		plan.Terms = append(plan.Terms, clause)
	}

	return plan, nil
}

func compileFilters(filters Filters) []Filter {
	var out []Filter

	if filters.MinAmount != nil || filters.MaxAmount != nil {
		r := AbsAmountRange{Min: 0, Max: math.MaxFloat64}
		if filters.MinAmount != nil {
			r.Min = *filters.MinAmount
		}
		if filters.MaxAmount != nil {
			r.Max = *filters.MaxAmount
		}
		out = append(out, r)
	}

	if filters.FromEpochDay != nil {
		out = append(out, DateFloor{EpochDay: *filters.FromEpochDay})
	}

	switch {
	case filters.IncludeCredits && !filters.IncludeDebits:
		out = append(out, CreditsOnly{})
	case filters.IncludeDebits && !filters.IncludeCredits:
		out = append(out, DebitsOnly{})
	}

	return out
}

// fieldAnalyzers tokenize term text the same way each field was indexed
var fieldAnalyzers = map[string]func(string) []string{
	index.FieldBookingText:     analysis.Tokenize,
	index.FieldBookingTextNorm: analysis.TokenizeNormalized,
	index.FieldMoneyAccountID:  analysis.TokenizeFolded,
}

func compileTerm(term Term) TermClause {
	clause := TermClause{Term: term}
	for _, field := range index.TextFields {
		parts := analyzeTerm(field, term)
		if len(parts) == 0 {
			continue
		}
		clause.Fields = append(clause.Fields, FieldClause{Field: field, Parts: parts})
	}
	return clause
}

func analyzeTerm(field string, term Term) []Part {
	if term.Kind == TermWildcard {
		return wildcardParts(field, term.Text)
	}

	tokens := fieldAnalyzers[field](term.Text)
	parts := make([]Part, len(tokens))
	for i, tok := range tokens {
		parts[i] = Part{Text: tok, Kind: TermExact}
		switch term.Kind {
		case TermFuzzy:
			parts[i].Kind = TermFuzzy
			parts[i].Distance = term.Distance
		case TermPrefix:
			if i == len(tokens)-1 {
				parts[i].Kind = TermPrefix
			}
		}
	}
	return parts
}

// wildcardParts adapts a pattern to a field without tokenizing it, since
// tokenizing would split on '?'. The normalized field indexes "netflix.com" as
// two words, so the pattern is normalized the same way and every word must
// match.
func wildcardParts(field, pattern string) []Part {
	switch field {
	case index.FieldBookingText:
		return []Part{{Text: pattern, Kind: TermWildcard}}
	case index.FieldBookingTextNorm:
		words := strings.Fields(analysis.Normalize(pattern))
		parts := make([]Part, len(words))
		for i, w := range words {
			parts[i] = Part{Text: w, Kind: TermExact}
			if strings.ContainsAny(w, "*?") {
				parts[i].Kind = TermWildcard
			}
		}
		return parts
	default:
		return []Part{{Text: strings.ToLower(pattern), Kind: TermWildcard}}
	}
}
