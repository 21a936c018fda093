// Package normalizer turns raw passage text into the words counted by the
// frequency table. It lower-cases input, splits on non-letter boundaries,
// and removes stop-words and short tokens. Pure, no I/O.
package normalizer

import (
	"strings"
	"unicode"
)

// minWordLength filters trivially short tokens ("fox", "the", "a").
const minWordLength = 4

var stopWords = map[string]struct{}{
	"that": {}, "with": {}, "from": {}, "this": {}, "they": {},
	"have": {}, "were": {}, "will": {}, "what": {}, "when": {},
	"where": {}, "which": {}, "their": {}, "there": {}, "would": {},
	"could": {}, "should": {}, "about": {}, "into": {}, "than": {},
	"then": {}, "them": {}, "these": {}, "those": {}, "been": {},
	"being": {}, "because": {}, "while": {}, "after": {}, "before": {},
	"between": {}, "through": {}, "during": {}, "over": {}, "under": {},
	"some": {}, "such": {}, "only": {}, "other": {}, "most": {},
	"more": {}, "very": {}, "also": {}, "just": {}, "each": {},
}

// Normalize breaks text into lowercased words, dropping stop-words and
// tokens shorter than four letters. Empty or whitespace-only input yields
// an empty slice. Deterministic: the same text always produces the same
// sequence, in occurrence order.
func Normalize(text string) []string {
	text = strings.ToLower(text)
	raw := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	words := make([]string, 0, len(raw)/2)
	for _, word := range raw {
		if len(word) < minWordLength {
			continue
		}
		if _, isStop := stopWords[word]; isStop {
			continue
		}
		words = append(words, word)
	}
	return words
}

// Occurrences counts each distinct word in the normalized form of text.
func Occurrences(text string) map[string]int {
	counts := make(map[string]int)
	for _, w := range Normalize(text) {
		counts[w]++
	}
	return counts
}
