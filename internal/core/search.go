package core

import "strings"

// Matches reports whether the record matches a free-text search query.
//
// A blank or whitespace-only query matches everything. Otherwise the query is
// compared case-insensitively as a substring of the description, the category
// name (both treated as empty when absent), and the amount rendered as a
// plain decimal string.
func Matches(r Record, query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	query = strings.ToLower(query)

	if strings.Contains(strings.ToLower(r.Description), query) {
		return true
	}
	if strings.Contains(strings.ToLower(r.CategoryName), query) {
		return true
	}
	return strings.Contains(r.Amount.PlainString(), query)
}

// Search filters records down to those matching the query, preserving input
// order. A blank query returns a copy of the full set.
func Search(records []Record, query string) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if Matches(r, query) {
			out = append(out, r)
		}
	}
	return out
}
