package services

import (
	"strconv"
	"strings"
)

// ParseIntOrZero coerces form input to an int; anything non-numeric is 0
func ParseIntOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// ParseID parses a positive record id, returning 0 when s is not one
func ParseID(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ParseOptionalID is ParseID for nullable references
func ParseOptionalID(s string) *int64 {
	if id := ParseID(s); id > 0 {
		return &id
	}
	return nil
}

// Contains is the case-insensitive substring match used by list searches
func Contains(field, query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(field), strings.ToLower(query))
}

// Filter keeps the items whose search field matches query
func Filter[T any](items []T, query string, field func(T) string) []T {
	if strings.TrimSpace(query) == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if Contains(field(item), query) {
			out = append(out, item)
		}
	}
	return out
}
