package search

import (
	"strings"
	"unicode"
)

// Words ignored when checking for verbatim matches. Corporate suffixes are
// included because headlines rarely repeat them.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "at": true, "this": true, "but": true, "by": true, "from": true,
	"its": true, "after": true, "over": true, "new": true,
	"inc": true, "corp": true, "co": true, "ltd": true, "llc": true, "plc": true,
}

// tokenizeAndFilter lowercases text, splits it on anything that is not a letter,
// digit or apostrophe and drops stop words. "Acme's" yields "acme".
func tokenizeAndFilter(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})

	filtered := make([]string, 0, len(words))
	for _, word := range words {
		word = strings.TrimSuffix(strings.Trim(word, "'"), "'s")
		if word != "" && !stopWords[word] {
			filtered = append(filtered, word)
		}
	}
	return filtered
}

// containsAllQueryWords reports whether every significant query word appears in document.
// A query made only of stop words never matches.
func containsAllQueryWords(document, query string) bool {
	queryWords := tokenizeAndFilter(query)
	if len(queryWords) == 0 {
		return false
	}

	docWords := make(map[string]bool)
	for _, word := range tokenizeAndFilter(document) {
		docWords[word] = true
	}

	for _, word := range queryWords {
		if !docWords[word] {
			return false
		}
	}
	return true
}
