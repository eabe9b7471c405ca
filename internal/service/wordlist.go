package service

import (
	"strings"

	"github.com/jazetjaz01/streamdi/pkg/slug"
)

// defaultBannedWords is the maintained banned-word list applied to channel
// names and descriptions. Deployments extend it via BANNED_WORDS.
var defaultBannedWords = []string{
	"spam",
	"scam",
	"fraud",
	"phishing",
	"porn",
	"xxx",
	"nazi",
	"terrorist",
}

// sentencePunctuation is stripped from token edges before matching, so
// "Spam!" and "spam" compare equal.
const sentencePunctuation = ".,;:!?\"'()[]{}«»"

// WordFilter matches banned terms case-insensitively and with diacritics
// folded, tokenizing on whitespace after stripping sentence punctuation.
type WordFilter struct {
	words map[string]struct{}
}

// NewWordFilter builds a filter from the default list plus extra terms.
// Terms are normalized the same way candidate tokens are.
func NewWordFilter(extra []string) *WordFilter {
	words := make(map[string]struct{}, len(defaultBannedWords)+len(extra))
	for _, w := range defaultBannedWords {
		words[normalizeToken(w)] = struct{}{}
	}
	for _, w := range extra {
		if w = strings.TrimSpace(w); w != "" {
			words[normalizeToken(w)] = struct{}{}
		}
	}
	return &WordFilter{words: words}
}

// FirstMatch returns the first banned term found in text, in token order.
func (f *WordFilter) FirstMatch(text string) (string, bool) {
	for _, tok := range strings.Fields(text) {
		norm := normalizeToken(tok)
		if norm == "" {
			continue
		}
		if _, ok := f.words[norm]; ok {
			return norm, true
		}
	}
	return "", false
}

func normalizeToken(tok string) string {
	return slug.Fold(strings.Trim(tok, sentencePunctuation))
}

// truncateWords keeps the first max whitespace-separated tokens of s,
// dropping overflow rather than rejecting the input.
func truncateWords(s string, max int) string {
	fields := strings.Fields(s)
	if len(fields) <= max {
		return s
	}
	return strings.Join(fields[:max], " ")
}
