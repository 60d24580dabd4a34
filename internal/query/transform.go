package query

import (
	"fmt"
	"strings"
)

// Mode selects how a raw query is rewritten before compilation
type Mode string

const (
	ModeExact    Mode = "exact"
	ModeFuzzy    Mode = "fuzzy"
	ModeWildcard Mode = "wildcard"
)

// ParseMode converts a mode name into a Mode. An empty name means ModeExact.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeExact:
		return ModeExact, nil
	case ModeFuzzy:
		return ModeFuzzy, nil
	case ModeWildcard:
		return ModeWildcard, nil
	default:
		return "", fmt.Errorf("unknown search mode %q", s)
	}
}

// Apply rewrites raw according to mode
func Apply(mode Mode, raw string, fuzzyDistance int) string {
	switch mode {
	case ModeFuzzy:
		return Fuzzy(raw, fuzzyDistance)
	case ModeWildcard:
		return Wildcard(raw)
	default:
		return strings.TrimSpace(raw)
	}
}

// Fuzzy appends "~distance" to every whitespace-separated token of raw, so each
// token matches terms within that many edits. A blank query stays blank.
func Fuzzy(raw string, distance int) string {
	tokens := strings.Fields(raw)
	for i, tok := range tokens {
		tokens[i] = fmt.Sprintf("%s~%d", tok, distance)
	}
	return strings.Join(tokens, " ")
}

// Wildcard appends a trailing '*' to every whitespace-separated token of raw
// that does not already contain one. A blank query stays blank.
func Wildcard(raw string) string {
	tokens := strings.Fields(raw)
	for i, tok := range tokens {
		if !strings.Contains(tok, "*") {
			tokens[i] = tok + "*"
		}
	}
	return strings.Join(tokens, " ")
}
