package models

import "strings"

// Movie is a catalog entry produced by the AI completion service.
// Movies are never persisted and ids are not stable across searches.
type Movie struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Year              string   `json:"year"`
	Genre             []string `json:"genre"`
	Description       string   `json:"description"`
	Director          string   `json:"director,omitempty"`
	PosterPlaceholder string   `json:"posterPlaceholder,omitempty"`
}

// Valid reports whether every required field is present.
func (m Movie) Valid() bool {
	return strings.TrimSpace(m.ID) != "" &&
		strings.TrimSpace(m.Title) != "" &&
		m.Year != "" &&
		m.Genre != nil &&
		m.Description != ""
}

// Clone returns a copy that shares no slices with m.
func (m Movie) Clone() Movie {
	if m.Genre != nil {
		m.Genre = append([]string{}, m.Genre...)
	}
	return m
}

// SearchQueryDefault is the query issued after login and on startup.
const SearchQueryDefault = "Trending Movies"

// Result sizes requested from the completion service.
const (
	SearchResultCount         = 12
	RecommendationResultCount = 10
)

// MinRatingsForRecommendations gates recommendation requests.
const MinRatingsForRecommendations = 3
