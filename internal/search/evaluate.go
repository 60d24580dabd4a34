package search

import (
	"container/heap"
	"math"
	"unicode/utf8"

	"github.com/lox/booking-search/internal/index"
	"github.com/lox/booking-search/internal/query"
	"github.com/lox/booking-search/internal/types"
	"golang.org/x/exp/slices"
)

// BM25 parameters
const (
	bm25K1 = 1.2
	bm25B  = 0.75

	matchAllScore = 1.0
	constantScore = 1.0
)

type hit struct {
	ord   uint32
	score float64
}

// better reports whether a ranks before b: higher score first, then lower ordinal
func (a hit) better(b hit) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	return a.ord < b.ord
}

// worstFirst is a heap whose root is the lowest-ranked hit kept so far
type worstFirst []hit

func (h worstFirst) Len() int            { return len(h) }
func (h worstFirst) Less(i, j int) bool  { return h[j].better(h[i]) }
func (h worstFirst) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *worstFirst) Push(x interface{}) { *h = append(*h, x.(hit)) }
func (h *worstFirst) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// topK collects the best limit hits while counting every offered hit
type topK struct {
	limit int
	total int
	hits  worstFirst
}

func (t *topK) offer(h hit) {
	t.total++
	if t.limit <= 0 {
		return
	}
	if len(t.hits) < t.limit {
		heap.Push(&t.hits, h)
		return
	}
	if h.better(t.hits[0]) {
		t.hits[0] = h
		heap.Fix(&t.hits, 0)
	}
}

func (t *topK) sorted() []hit {
	out := slices.Clone([]hit(t.hits))
	slices.SortFunc(out, func(a, b hit) int {
		if a.better(b) {
			return -1
		}
		if b.better(a) {
			return 1
		}
		return 0
	})
	return out
}

// evaluate runs a compiled plan against an index and returns the number of
// matching bookings plus the best limit of them, ranked
func evaluate(ix *index.Index, plan query.Plan, limit int) (int, []types.SearchResult) {
	if plan.Empty {
		return 0, []types.SearchResult{}
	}

	top := &topK{limit: limit}
	accept := func(ord uint32) bool {
		for _, f := range plan.Filters {
			if !f.Accept(ix, ord) {
				return false
			}
		}
		return true
	}

	if plan.MatchAll {
		for i := 0; i < ix.Len(); i++ {
			ord := uint32(i)
			if accept(ord) {
				top.offer(hit{ord: ord, score: matchAllScore})
			}
		}
	} else {
		for ord, score := range scoreTerms(ix, plan.Terms) {
			if accept(ord) {
				top.offer(hit{ord: ord, score: score})
			}
		}
	}

	hits := top.sorted()
	results := make([]types.SearchResult, len(hits))
	for i, h := range hits {
		doc := ix.Document(h.ord)
		results[i] = types.SearchResult{
			ID:              doc.ID,
			TransactionDate: doc.TransactionDate,
			Amount:          doc.Amount,
			MoneyAccountID:  doc.MoneyAccountID,
			BookingText:     doc.BookingText,
			Score:           float32(h.score),
		}
	}
	return top.total, results
}

// scoreTerms returns the summed relevance of every document matching at least
// one term
func scoreTerms(ix *index.Index, terms []query.TermClause) map[uint32]float64 {
	scores := make(map[uint32]float64)
	for _, term := range terms {
		for _, fc := range term.Fields {
			for ord, score := range scoreField(ix, fc) {
				scores[ord] += score
			}
		}
	}
	return scores
}

// scoreField returns the documents in which every part of the clause matches
func scoreField(ix *index.Index, fc query.FieldClause) map[uint32]float64 {
	field := ix.Field(fc.Field)
	var matched map[uint32]float64
	for i, part := range fc.Parts {
		partScores := scorePart(ix, field, part)
		if i == 0 {
			matched = partScores
			continue
		}
		for ord, score := range matched {
			s, ok := partScores[ord]
			if !ok {
				delete(matched, ord)
				continue
			}
			matched[ord] = score + s
		}
	}
	return matched
}

func scorePart(ix *index.Index, field *index.Field, part query.Part) map[uint32]float64 {
	scores := make(map[uint32]float64)
	switch part.Kind {
	case query.TermExact:
		idf := inverseDocFreq(ix.Len(), field.DocFreq(part.Text))
		for _, p := range field.Postings(part.Text) {
			scores[p.Doc] += idf * termFreqNorm(field, p)
		}

	case query.TermPrefix, query.TermWildcard:
		var terms []string
		if part.Kind == query.TermPrefix {
			terms = field.ExpandPrefix(part.Text)
		} else {
			terms = field.ExpandWildcard(part.Text)
		}
		for _, term := range terms {
			for _, p := range field.Postings(term) {
				scores[p.Doc] = constantScore
			}
		}

	case query.TermFuzzy:
		length := float64(utf8.RuneCountInString(part.Text))
		for _, ft := range field.ExpandFuzzy(part.Text, part.Distance) {
			boost := 1 - float64(ft.Distance)/(length+1)
			idf := inverseDocFreq(ix.Len(), field.DocFreq(ft.Term))
			for _, p := range field.Postings(ft.Term) {
				scores[p.Doc] = math.Max(scores[p.Doc], boost*idf*termFreqNorm(field, p))
			}
		}
	}
	return scores
}

func inverseDocFreq(docCount, docFreq int) float64 {
	return math.Log(1 + (float64(docCount)-float64(docFreq)+0.5)/(float64(docFreq)+0.5))
}

func termFreqNorm(field *index.Field, p index.Posting) float64 {
	freq := float64(p.Freq)
	norm := 1 - bm25B
	if avg := field.AvgLength(); avg > 0 {
		norm += bm25B * float64(field.Length(p.Doc)) / avg
	}
	return freq / (freq + bm25K1*norm)
}
