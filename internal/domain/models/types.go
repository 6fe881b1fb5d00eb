// Package models provides the domain service for the Replicate model catalog.
package models

// ListRequest represents a request to list models.
type ListRequest struct {
	Limit  *int    `json:"limit,omitempty"`  // Page size (default: 20, capped at 100)
	Cursor *string `json:"cursor,omitempty"` // Opaque pagination cursor from a previous page
}

// SearchRequest represents a model search by free-text query.
type SearchRequest struct {
	Query string `json:"query"`
	Limit *int   `json:"limit,omitempty"`
}

// ListVersionsRequest represents a request for the published versions of a model.
type ListVersionsRequest struct {
	Owner  string  `json:"owner"`
	Name   string  `json:"name"`
	Cursor *string `json:"cursor,omitempty"`
}

// ListPopularRequest represents a request for models ranked by run count.
type ListPopularRequest struct {
	Limit *int `json:"limit,omitempty"`
}
