package model

import (
	"regexp"
	"sort"
	"strconv"
)

var (
	// Matches {{c1::text}} and {{c1::text::hint}} cloze deletions.
	clozeDeletionPattern = regexp.MustCompile(`\{\{c(\d+)::(.*?)(::(.*?))?\}\}`)
	// Matches {{cloze:Field}} references in template formats.
	clozeReferencePattern = regexp.MustCompile(`\{\{cloze:([^}]+)\}\}`)
)

// ClozeOrdinals returns the distinct zero-based cloze group ordinals found
// in the given text, sorted ascending. The marker {{c3::...}} yields
// ordinal 2.
func ClozeOrdinals(text string) []int {
	seen := map[int]struct{}{}
	for _, match := range clozeDeletionPattern.FindAllStringSubmatch(text, -1) {
		group, err := strconv.Atoi(match[1])
		if err != nil || group < 1 {
			continue
		}
		seen[group-1] = struct{}{}
	}
	ordinals := make([]int, 0, len(seen))
	for ordinal := range seen {
		ordinals = append(ordinals, ordinal)
	}
	sort.Ints(ordinals)
	return ordinals
}

// ClozeFieldNames returns the field names referenced through the
// {{cloze:Field}} syntax in a template format string.
func ClozeFieldNames(format string) []string {
	var names []string
	for _, match := range clozeReferencePattern.FindAllStringSubmatch(format, -1) {
		names = append(names, match[1])
	}
	return names
}

// HasClozeDeletion reports whether text contains a cloze deletion with the
// given zero-based ordinal.
func HasClozeDeletion(text string, ordinal int) bool {
	for _, o := range ClozeOrdinals(text) {
		if o == ordinal {
			return true
		}
	}
	return false
}

// RewriteCloze replaces cloze deletion markers in text for one card.
// Markers matching the card's ordinal become "[...]" (or "[hint]") on the
// question side and the revealed text on the answer side; markers for
// other ordinals always show their text.
func RewriteCloze(text string, ordinal int, question bool) string {
	return clozeDeletionPattern.ReplaceAllStringFunc(text, func(marker string) string {
		parts := clozeDeletionPattern.FindStringSubmatch(marker)
		group, err := strconv.Atoi(parts[1])
		if err != nil {
			return marker
		}
		if group-1 != ordinal {
			return parts[2]
		}
		if question {
			if parts[4] != "" {
				return "[" + parts[4] + "]"
			}
			return "[...]"
		}
		return parts[2]
	})
}
