// Package analysis turns raw booking text into index terms.
//
// Two tokenizations are produced for every booking text: one that keeps the
// original casing and punctuation inside words, and one computed after
// replacing '.' and ',' with spaces and lowercasing. Keeping both lets
// "Netflix.com" match as a whole word while "netflix" still matches the
// normalized form.
package analysis

import (
	"strings"

	"github.com/blevesearch/segment"
)

var punctuationReplacer = strings.NewReplacer(".", " ", ",", " ")

// Normalize replaces '.' and ',' with a space and lowercases the text
func Normalize(text string) string {
	return strings.ToLower(punctuationReplacer.Replace(text))
}

// Tokenize splits text on Unicode word boundaries, keeping only words made of
// letters or digits. Casing and in-word punctuation are preserved. Tokens are
// substrings of text.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	var tokens []string
	segmenter := segment.NewWordSegmenterDirect([]byte(text))
	start := 0
	for segmenter.Segment() {
		end := start + len(segmenter.Bytes())
		if segmenter.Type() != segment.None {
			tokens = append(tokens, text[start:end])
		}
		start = end
	}
	return tokens
}

// TokenizeNormalized returns the tokens of Normalize(text)
func TokenizeNormalized(text string) []string {
	return NormalizeTokens(Tokenize(text))
}

// NormalizeTokens turns tokens from Tokenize into the tokens of the
// normalized text without segmenting it again. Word segmentation only keeps
// '.' and ',' between letters or digits, so splitting a lowercased token on
// them yields the same words.
func NormalizeTokens(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}

	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.ToLower(tok)
		if !strings.ContainsAny(tok, ".,") {
			out = append(out, tok)
			continue
		}
		out = append(out, strings.FieldsFunc(tok, isNormalizedSeparator)...)
	}
	return out
}

func isNormalizedSeparator(r rune) bool {
	return r == '.' || r == ','
}

// TokenizeFolded tokenizes text and lowercases every token
func TokenizeFolded(text string) []string {
	tokens := Tokenize(text)
	for i, tok := range tokens {
		tokens[i] = strings.ToLower(tok)
	}
	return tokens
}
