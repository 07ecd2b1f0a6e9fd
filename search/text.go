package search

import (
	"slices"
	"strings"
)

// Stop words to filter out when checking for verbatim matches
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "be": {}, "is": {}, "are": {},
	"was": {}, "to": {}, "of": {}, "and": {}, "in": {}, "that": {},
	"have": {}, "it": {}, "for": {}, "not": {}, "on": {}, "with": {},
	"as": {}, "you": {}, "do": {}, "at": {}, "this": {}, "but": {},
	"by": {}, "from": {}, "what": {}, "who": {}, "did": {}, "we": {},
}

// normalizeWord lowercases word and trims surrounding punctuation.
func normalizeWord(word string) string {
	return strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))
}

// tokenize splits text into normalized words, keeping stop words.
func tokenize(text string) []string {
	fields := strings.Fields(text)
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		if w := normalizeWord(f); w != "" {
			words = append(words, w)
		}
	}
	return words
}

// tokenizeAndFilter tokenizes text and removes stop words.
func tokenizeAndFilter(text string) []string {
	return slices.DeleteFunc(tokenize(text), func(w string) bool {
		_, stop := stopWords[w]
		return stop
	})
}

// containsAllQueryWords checks if all query words (after filtering) appear in the document
func containsAllQueryWords(document, query string) bool {
	queryWords := tokenizeAndFilter(query)
	if len(queryWords) == 0 {
		return false
	}

	docWords := make(map[string]struct{})
	for _, w := range tokenize(document) {
		docWords[w] = struct{}{}
	}
	for _, w := range queryWords {
		if _, ok := docWords[w]; !ok {
			return false
		}
	}
	return true
}

// mentions reports whether the words of phrase appear consecutively in words.
func mentions(words []string, phrase string) bool {
	target := tokenize(phrase)
	if len(target) == 0 || len(target) > len(words) {
		return false
	}
	for i := 0; i+len(target) <= len(words); i++ {
		if slices.Equal(words[i:i+len(target)], target) {
			return true
		}
	}
	return false
}
