package search

import (
	"regexp"
	"strings"
)

// Redact rewrites every whole-word match of a banned word in text with
// asterisks of the same length. Word matching mirrors the spam filter's
// word-boundary regex.
func Redact(text string, bannedWords []string) string {
	if text == "" || len(bannedWords) == 0 {
		return text
	}

	re := buildBannedWordRegexp(bannedWords)
	if re == nil {
		return text
	}
	return re.ReplaceAllStringFunc(text, func(match string) string {
		return strings.Repeat("*", len(match))
	})
}

func buildBannedWordRegexp(words []string) *regexp.Regexp {
	var escaped []string
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		escaped = append(escaped, regexp.QuoteMeta(w))
	}
	if len(escaped) == 0 {
		return nil
	}
	pattern := `(?i)\b(` + strings.Join(escaped, "|") + `)\b`
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil
	}
	return re
}
