package query

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxFuzzyDistance is the largest edit distance a fuzzy term may ask for
const MaxFuzzyDistance = 2

// defaultFuzzyDistance applies to a bare "term~"
const defaultFuzzyDistance = 2

// TermKind describes how a query term matches index terms
type TermKind int

const (
	// TermExact matches whole tokens
	TermExact TermKind = iota
	// TermPrefix matches tokens starting with the term ("net*")
	TermPrefix
	// TermWildcard matches tokens against a '*' / '?' pattern ("n?t*x")
	TermWildcard
	// TermFuzzy matches tokens within an edit distance ("migors~1")
	TermFuzzy
)

func (k TermKind) String() string {
	switch k {
	case TermExact:
		return "exact"
	case TermPrefix:
		return "prefix"
	case TermWildcard:
		return "wildcard"
	case TermFuzzy:
		return "fuzzy"
	default:
		return fmt.Sprintf("TermKind(%d)", int(k))
	}
}

// Term is one parsed whitespace-separated query token
type Term struct {
	// Raw is the token as written in the query
	Raw string
	// Text is the token with its operators stripped; for TermWildcard it is the pattern
	Text     string
	Kind     TermKind
	Distance int
}

// SyntaxError reports a query token that cannot be compiled
type SyntaxError struct {
	Term   string
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid query term %q: %s", e.Term, e.Reason)
}

// SplitTerms splits a raw query on whitespace runs, dropping empty terms
func SplitTerms(raw string) []string {
	return strings.Fields(raw)
}

// ParseTerm parses a single query token
func ParseTerm(raw string) (Term, error) {
	if i := strings.LastIndexByte(raw, '~'); i >= 0 {
		return parseFuzzy(raw, raw[:i], raw[i+1:])
	}

	wild := strings.IndexAny(raw, "*?")
	if wild < 0 {
		return Term{Raw: raw, Text: raw, Kind: TermExact}, nil
	}
	if wild == 0 {
		return Term{}, &SyntaxError{Term: raw, Reason: "leading wildcards are not supported"}
	}

	stem := strings.TrimRight(raw, "*")
	if !strings.ContainsAny(stem, "*?") {
		return Term{Raw: raw, Text: stem, Kind: TermPrefix}, nil
	}
	return Term{Raw: raw, Text: raw, Kind: TermWildcard}, nil
}

func parseFuzzy(raw, stem, suffix string) (Term, error) {
	switch {
	case stem == "":
		return Term{}, &SyntaxError{Term: raw, Reason: "missing term before '~'"}
	case strings.ContainsAny(stem, "~*?"):
		return Term{}, &SyntaxError{Term: raw, Reason: "fuzzy terms cannot contain wildcards"}
	}

	distance := defaultFuzzyDistance
	if suffix != "" {
		d, err := strconv.Atoi(suffix)
		if err != nil {
			return Term{}, &SyntaxError{Term: raw, Reason: "fuzzy distance must be an integer"}
		}
		distance = d
	}
	if distance < 0 || distance > MaxFuzzyDistance {
		return Term{}, &SyntaxError{Term: raw, Reason: fmt.Sprintf("fuzzy distance must be between 0 and %d", MaxFuzzyDistance)}
	}

	return Term{Raw: raw, Text: stem, Kind: TermFuzzy, Distance: distance}, nil
}
