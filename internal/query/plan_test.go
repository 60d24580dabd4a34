package query

import (
	"errors"
	"math"
	"testing"

	"github.com/lox/booking-search/internal/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allSigns() Filters {
	return Filters{IncludeCredits: true, IncludeDebits: true}
}

func TestParseTerm(t *testing.T) {
	tests := []struct {
		raw  string
		want Term
	}{
		{"migros", Term{Raw: "migros", Text: "migros", Kind: TermExact}},
		{"net*", Term{Raw: "net*", Text: "net", Kind: TermPrefix}},
		{"net**", Term{Raw: "net**", Text: "net", Kind: TermPrefix}},
		{"n?t*", Term{Raw: "n?t*", Text: "n?t*", Kind: TermWildcard}},
		{"n*x", Term{Raw: "n*x", Text: "n*x", Kind: TermWildcard}},
		{"migors~1", Term{Raw: "migors~1", Text: "migors", Kind: TermFuzzy, Distance: 1}},
		{"migors~", Term{Raw: "migors~", Text: "migors", Kind: TermFuzzy, Distance: 2}},
		{"migros~0", Term{Raw: "migros~0", Text: "migros", Kind: TermFuzzy, Distance: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseTerm(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTermSyntaxErrors(t *testing.T) {
	for _, raw := range []string{"*net", "?et", "*", "~1", "net~x", "net~3", "net~-1", "ne*t~1", "a~b~1"} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseTerm(raw)
			var syntaxErr *SyntaxError
			require.True(t, errors.As(err, &syntaxErr), "expected syntax error for %q, got %v", raw, err)
			assert.Equal(t, raw, syntaxErr.Term)
		})
	}
}

func TestCompileBlankIsMatchAll(t *testing.T) {
	for _, text := range []string{"", "   ", "\t\n"} {
		plan, err := Compile(text, allSigns())
		require.NoError(t, err)
		assert.True(t, plan.MatchAll)
		assert.False(t, plan.Empty)
		assert.Empty(t, plan.Terms)
		assert.Empty(t, plan.Filters)
	}
}

func TestCompileNeitherCreditsNorDebitsShortCircuits(t *testing.T) {
	// even a malformed query is never parsed
	plan, err := Compile("*broken", Filters{})
	require.NoError(t, err)
	assert.True(t, plan.Empty)
	assert.Empty(t, plan.Terms)
	assert.Empty(t, plan.Filters)
}

func TestCompileTermsPerField(t *testing.T) {
	plan, err := Compile("Netflix.com ACC-3", allSigns())
	require.NoError(t, err)
	require.Len(t, plan.Terms, 2)

	netflix := plan.Terms[0]
	require.Len(t, netflix.Fields, 3)
	assert.Equal(t, FieldClause{Field: index.FieldBookingText, Parts: []Part{{Text: "Netflix.com", Kind: TermExact}}}, netflix.Fields[0])
	assert.Equal(t, FieldClause{Field: index.FieldBookingTextNorm, Parts: []Part{{Text: "netflix", Kind: TermExact}, {Text: "com", Kind: TermExact}}}, netflix.Fields[1])
	assert.Equal(t, FieldClause{Field: index.FieldMoneyAccountID, Parts: []Part{{Text: "netflix.com", Kind: TermExact}}}, netflix.Fields[2])

	account := plan.Terms[1]
	assert.Equal(t, FieldClause{Field: index.FieldMoneyAccountID, Parts: []Part{{Text: "acc", Kind: TermExact}, {Text: "3", Kind: TermExact}}}, account.Fields[2])
}

func TestCompilePrefixAndFuzzyParts(t *testing.T) {
	plan, err := Compile("Netf* migors~1", allSigns())
	require.NoError(t, err)
	require.Len(t, plan.Terms, 2)

	assert.Equal(t, []Part{{Text: "Netf", Kind: TermPrefix}}, plan.Terms[0].Fields[0].Parts)
	assert.Equal(t, []Part{{Text: "netf", Kind: TermPrefix}}, plan.Terms[0].Fields[1].Parts)
	assert.Equal(t, []Part{{Text: "migors", Kind: TermFuzzy, Distance: 1}}, plan.Terms[1].Fields[1].Parts)
}

func TestCompileWildcardPatternIsFoldedOutsideOriginalField(t *testing.T) {
	plan, err := Compile("Mi?ros", allSigns())
	require.NoError(t, err)
	require.Len(t, plan.Terms, 1)
	fields := plan.Terms[0].Fields
	require.Len(t, fields, 3)
	assert.Equal(t, "Mi?ros", fields[0].Parts[0].Text)
	assert.Equal(t, "mi?ros", fields[1].Parts[0].Text)
	assert.Equal(t, "mi?ros", fields[2].Parts[0].Text)
}

func TestCompileWildcardPatternIsNormalizedForNormalizedField(t *testing.T) {
	plan, err := Compile("NETFLIX.c?m", allSigns())
	require.NoError(t, err)
	require.Len(t, plan.Terms, 1)
	fields := plan.Terms[0].Fields
	require.Len(t, fields, 3)

	assert.Equal(t, []Part{{Text: "NETFLIX.c?m", Kind: TermWildcard}}, fields[0].Parts)
	assert.Equal(t, []Part{{Text: "netflix", Kind: TermExact}, {Text: "c?m", Kind: TermWildcard}}, fields[1].Parts)
	assert.Equal(t, []Part{{Text: "netflix.c?m", Kind: TermWildcard}}, fields[2].Parts)
}

func TestCompileDropsTermsWithoutTokens(t *testing.T) {
	plan, err := Compile("@@ -- migros", allSigns())
	require.NoError(t, err)
	require.Len(t, plan.Terms, 1)
	assert.Equal(t, "migros", plan.Terms[0].Term.Raw)

	plan, err = Compile("@@ --", allSigns())
	require.NoError(t, err)
	assert.False(t, plan.MatchAll)
	assert.Empty(t, plan.Terms)
}

func TestCompileSyntaxError(t *testing.T) {
	_, err := Compile("migros *coop", allSigns())
	var syntaxErr *SyntaxError
	require.True(t, errors.As(err, &syntaxErr))
	assert.Equal(t, "*coop", syntaxErr.Term)
}

func TestCompileFilters(t *testing.T) {
	minAmount, maxAmount := 10.0, 50.0
	from := int64(19797)

	tests := []struct {
		name    string
		filters Filters
		want    []Filter
	}{
		{"none", allSigns(), nil},
		{"min_only", Filters{MinAmount: &minAmount, IncludeCredits: true, IncludeDebits: true},
			[]Filter{AbsAmountRange{Min: 10, Max: math.MaxFloat64}}},
		{"max_only", Filters{MaxAmount: &maxAmount, IncludeCredits: true, IncludeDebits: true},
			[]Filter{AbsAmountRange{Min: 0, Max: 50}}},
		{"date", Filters{FromEpochDay: &from, IncludeCredits: true, IncludeDebits: true},
			[]Filter{DateFloor{EpochDay: 19797}}},
		{"credits_only", Filters{IncludeCredits: true}, []Filter{CreditsOnly{}}},
		{"debits_only", Filters{IncludeDebits: true}, []Filter{DebitsOnly{}}},
		{"all", Filters{MinAmount: &minAmount, MaxAmount: &maxAmount, FromEpochDay: &from, IncludeDebits: true},
			[]Filter{AbsAmountRange{Min: 10, Max: 50}, DateFloor{EpochDay: 19797}, DebitsOnly{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Compile("", tt.filters)
			require.NoError(t, err)
			assert.Equal(t, tt.want, plan.Filters)
		})
	}
}
