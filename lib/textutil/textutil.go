package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, " ")
	return name
}

// reports whether any of the matchers occurs as a substring of the
// normalized form of text. matchers are expected to be pre-normalized.
func MatchPhrase(text string, matchers []string) bool {
	text = NormalizeName(text)
	for _, m := range matchers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// like MatchPhrase but returns the matcher that hit, for error reporting
func FindPhrase(text string, matchers []string) (string, bool) {
	text = NormalizeName(text)
	for _, m := range matchers {
		if strings.Contains(text, m) {
			return m, true
		}
	}
	return "", false
}
