// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package copilot

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// minTokenLen is the shortest word that counts as content.
const minTokenLen = 3

// Normalize lower-cases raw, drops every rune that is not a letter, digit,
// whitespace or '?', and trims the result.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range strings.ToLower(raw) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '?' {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// contentTokens splits normalized text on whitespace and keeps words of at
// least minTokenLen runes.
func contentTokens(normalized string) []string {
	var tokens []string
	for _, f := range strings.Fields(normalized) {
		if utf8.RuneCountInString(f) >= minTokenLen {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// significantTokens extracts search terms from the raw query: lower-cased
// alphanumeric words of at least minTokenLen runes that are not stop-words,
// deduplicated in order of first appearance.
func significantTokens(raw string, stopWords map[string]bool) []string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, strings.ToLower(raw))

	seen := make(map[string]bool)
	var tokens []string
	for _, f := range strings.Fields(cleaned) {
		if utf8.RuneCountInString(f) < minTokenLen || stopWords[f] || seen[f] {
			continue
		}
		seen[f] = true
		tokens = append(tokens, f)
	}
	return tokens
}

// yearHint returns the first 19xx or 20xx year in raw, or 0.
func yearHint(raw string) int {
	m := yearPattern.FindString(raw)
	if m == "" {
		return 0
	}
	y, _ := strconv.Atoi(m)
	return y
}
