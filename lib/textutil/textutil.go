package textutil

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

// LongDateLayout is the "July 24, 2023" form both storefronts print dates in.
const LongDateLayout = "January 2, 2006"

var whitespaceRegex = regexp.MustCompile(`\s+`)

// ParseLongDate parses a "July 24, 2023" date into its ISO form.
func ParseLongDate(text string) (string, error) {
	text = whitespaceRegex.ReplaceAllString(strings.TrimSpace(text), " ")
	t, err := time.Parse(LongDateLayout, text)
	if err != nil {
		return "", err
	}
	return t.Format("2006-01-02"), nil
}

// NormalizeTitle lowercases a title and strips everything but letters, digits and
// single spaces so that two renditions of it can be compared.
func NormalizeTitle(title string) string {
	var out strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			out.WriteRune(r)
		case unicode.IsSpace(r), r == ':', r == '-':
			out.WriteRune(' ')
		}
	}
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(out.String(), " "))
}

// NonEmptyLines splits text into trimmed lines, dropping the blank ones.
func NonEmptyLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
