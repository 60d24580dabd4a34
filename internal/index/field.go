package index

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/exp/slices"
)

// Posting records that a document contains a term, and how often
type Posting struct {
	Doc  uint32
	Freq uint32
}

// FuzzyTerm is a dictionary term within some edit distance of a query term
type FuzzyTerm struct {
	Term     string
	Distance int
}

// Field is the inverted index of one text field
type Field struct {
	name        string
	postings    map[string][]Posting
	terms       []string
	lengths     []uint32
	totalLength uint64
}

func newField(name string, docCount int) *Field {
	return &Field{
		name:    name,
		lengths: make([]uint32, docCount),
	}
}

// fieldChunk collects the postings of one contiguous range of ordinals
type fieldChunk struct {
	postings    map[string][]Posting
	totalLength uint64
}

func newFieldChunk() *fieldChunk {
	return &fieldChunk{postings: make(map[string][]Posting)}
}

// add appends the tokens of a document to chunk c. Within a chunk, documents
// must be added in ascending ordinal order so postings stay sorted. Chunks
// own disjoint ordinals, so they can be filled concurrently.
func (f *Field) add(c *fieldChunk, ord uint32, tokens []string) {
	f.lengths[ord] = uint32(len(tokens))
	c.totalLength += uint64(len(tokens))
	for _, tok := range tokens {
		pl := c.postings[tok]
		if n := len(pl); n > 0 && pl[n-1].Doc == ord {
			pl[n-1].Freq++
			continue
		}
		c.postings[tok] = append(pl, Posting{Doc: ord, Freq: 1})
	}
}

// merge concatenates chunk postings in chunk order and seals the dictionary.
// Chunks must be ordered by the ordinals they cover.
func (f *Field) merge(chunks []*fieldChunk) {
	for i, c := range chunks {
		f.totalLength += c.totalLength
		if i == 0 {
			f.postings = c.postings
			continue
		}
		for term, pl := range c.postings {
			f.postings[term] = append(f.postings[term], pl...)
		}
	}
	if f.postings == nil {
		f.postings = make(map[string][]Posting)
	}
	f.seal()
}

func (f *Field) seal() {
	f.terms = make([]string, 0, len(f.postings))
	for term := range f.postings {
		f.terms = append(f.terms, term)
	}
	slices.Sort(f.terms)
}

// Name returns the field name
func (f *Field) Name() string {
	return f.name
}

// Postings returns the postings of a term in ascending ordinal order
func (f *Field) Postings(term string) []Posting {
	return f.postings[term]
}

// DocFreq returns the number of documents containing term
func (f *Field) DocFreq(term string) int {
	return len(f.postings[term])
}

// Length returns the number of tokens a document has in this field
func (f *Field) Length(ord uint32) int {
	return int(f.lengths[ord])
}

// AvgLength returns the mean token count per document
func (f *Field) AvgLength() float64 {
	if len(f.lengths) == 0 {
		return 0
	}
	return float64(f.totalLength) / float64(len(f.lengths))
}

// Terms returns the sorted term dictionary
func (f *Field) Terms() []string {
	return f.terms
}

// ExpandPrefix returns every term starting with prefix, in dictionary order
func (f *Field) ExpandPrefix(prefix string) []string {
	start, _ := slices.BinarySearch(f.terms, prefix)
	var out []string
	for _, term := range f.terms[start:] {
		if !strings.HasPrefix(term, prefix) {
			break
		}
		out = append(out, term)
	}
	return out
}

// ExpandWildcard returns every term matching a pattern where '*' matches any
// run of characters and '?' exactly one
func (f *Field) ExpandWildcard(pattern string) []string {
	literal := pattern
	if i := strings.IndexAny(pattern, "*?"); i >= 0 {
		literal = pattern[:i]
	}
	if literal == pattern {
		if _, ok := f.postings[pattern]; ok {
			return []string{pattern}
		}
		return nil
	}

	var out []string
	for _, term := range f.ExpandPrefix(literal) {
		if MatchWildcard(pattern, term) {
			out = append(out, term)
		}
	}
	return out
}

// ExpandFuzzy returns every term within maxEdits of term, counting an adjacent
// transposition as a single edit
func (f *Field) ExpandFuzzy(term string, maxEdits int) []FuzzyTerm {
	if _, ok := f.postings[term]; ok && maxEdits == 0 {
		return []FuzzyTerm{{Term: term}}
	}

	want := []rune(term)
	var out []FuzzyTerm
	for _, candidate := range f.terms {
		diff := utf8.RuneCountInString(candidate) - len(want)
		if diff > maxEdits || -diff > maxEdits {
			continue
		}
		if d, ok := editDistance(want, []rune(candidate), maxEdits); ok {
			out = append(out, FuzzyTerm{Term: candidate, Distance: d})
		}
	}
	return out
}
