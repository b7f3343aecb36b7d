package extract

import (
	"strings"
	"unicode"
)

// FindSimilar returns the existing entries that look like duplicates of
// candidate: the same name, or the same normalized params and return type.
func FindSimilar(candidate SymbolEntry, existing []SymbolEntry) []SymbolEntry {
	params := normalizeParams(candidate.Params)
	out := make([]SymbolEntry, 0)
	for _, entry := range existing {
		if entry.Name == candidate.Name {
			out = append(out, entry)
			continue
		}
		if normalizeParams(entry.Params) == params && entry.ReturnType == candidate.ReturnType {
			out = append(out, entry)
		}
	}
	return out
}

func normalizeParams(params string) string {
	return strings.ToLower(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, params))
}
