package knowledge

import (
	"strings"
	"unicode"
)

// Tokenize lowercases text and splits it into word tokens, dropping
// punctuation. Both the index builder and the search side must use the same
// tokenization or lexical overlap scores drift.
func Tokenize(text string) []string {
	lower := strings.ToLower(text)
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// TokenSet is Tokenize with duplicates removed.
func TokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range Tokenize(text) {
		set[tok] = struct{}{}
	}
	return set
}
