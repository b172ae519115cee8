package lexical

import (
	"strings"
	"unicode"
)

// Tokenize case-folds text and splits it into normalized terms on anything
// that is not a letter or digit. Punctuation is stripped; empty input yields
// no terms.
func Tokenize(text string) []string {
	lowered := strings.ToLower(text)
	return strings.FieldsFunc(lowered, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
