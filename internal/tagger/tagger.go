// Package tagger extracts salient tags from document text: lowercase,
// stop-word and banned-word filtered, frequency counted, with a stable
// tie-break so the output is reproducible for identical input and
// banned-word set.
package tagger

import (
	"regexp"
	"sort"
	"strings"
)

const (
	DefaultLimit = 50
	minTagLen    = 2
	maxTagLen    = 50
	maxTagCap    = 1000
)

var wordRegexp = regexp.MustCompile(`[a-zA-Z][a-zA-Z'-]*`)

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "is": true, "are": true, "was": true, "were": true,
	"be": true, "been": true, "being": true, "this": true, "that": true,
	"these": true, "those": true, "it": true, "its": true, "as": true,
	"by": true, "from": true, "into": true, "not": true, "no": true,
	"do": true, "does": true, "did": true, "has": true, "have": true,
	"had": true, "will": true, "would": true, "can": true, "could": true,
	"should": true, "may": true, "might": true, "must": true, "shall": true,
	"i": true, "you": true, "he": true, "she": true, "we": true, "they": true,
	"all": true, "any": true, "each": true, "more": true, "most": true,
	"other": true, "some": true, "such": true, "than": true, "too": true,
	"very": true, "just": true, "also": true,
}

type tagCount struct {
	tag   string
	count int
}

// Extract returns up to limit tags, most frequent first, ties broken
// alphabetically for determinism. Words matching bannedWords (case
// insensitive), shorter than 2 or longer than 50 characters, or in the
// static stop-word set are excluded. The result is capped at 1000 tags
// regardless of limit.
func Extract(text string, bannedWords map[string]bool, limit int) []string {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > maxTagCap {
		limit = maxTagCap
	}

	freq := make(map[string]int)
	for _, match := range wordRegexp.FindAllString(strings.ToLower(text), -1) {
		word := strings.Trim(match, "'-")
		if len(word) < minTagLen || len(word) > maxTagLen {
			continue
		}
		if stopWords[word] {
			continue
		}
		if bannedWords != nil && bannedWords[word] {
			continue
		}
		freq[word]++
	}

	counts := make([]tagCount, 0, len(freq))
	for word, n := range freq {
		counts = append(counts, tagCount{tag: word, count: n})
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].tag < counts[j].tag
	})

	if len(counts) > limit {
		counts = counts[:limit]
	}

	tags := make([]string, len(counts))
	for i, c := range counts {
		tags[i] = c.tag
	}
	return tags
}

// FilterBanned removes any tag present in bannedTags (case-insensitive),
// used by hybrid search post-processing for documents whose
// tags were generated before a word was added to the ban list.
func FilterBanned(tags []string, bannedTags map[string]bool) []string {
	if len(bannedTags) == 0 {
		return tags
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if !bannedTags[strings.ToLower(t)] {
			out = append(out, t)
		}
	}
	return out
}
