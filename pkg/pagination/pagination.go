// Copyright (c) 2026 Scriptorium. All rights reserved.

// Package pagination provides shared types and helpers for API list endpoints.
//
// # Overview
//
// It standardizes how page-based navigation is requested via query parameters
// and how the resulting metadata is delivered in the API response envelope.
// A page beyond the last one is a normal, representable empty state: the
// metadata still reflects the true totals and the data set is simply empty.
package pagination

const (
	// DefaultPerPage is the number of items per page if not specified.
	DefaultPerPage = 10
	// MaxPerPage is the upper bound for items per page to prevent system abuse.
	MaxPerPage = 100
	// DefaultPage is the starting page (1-indexed).
	DefaultPage = 1
)

// Params holds the parsed page and perPage of a list request.
type Params struct {
	Page    int
	PerPage int
}

// Normalize replaces out-of-range values with their defaults.
//
// Invalid or non-positive pages fall back to [DefaultPage]. A perPage
// outside [1, MaxPerPage] falls back to [DefaultPerPage] rather than
// clamping to the nearest bound: a request for more than the maximum is
// treated the same as any other invalid value, not rounded down to a page
// size the client never asked for. Falling back instead of failing is a
// deliberate leniency contract: a malformed client parameter must not deny
// service.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.PerPage < 1 || p.PerPage > MaxPerPage {
		p.PerPage = DefaultPerPage
	}
	return p
}

// Offset returns the SQL OFFSET value derived from Page and PerPage.
func (p Params) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.PerPage
}

// Limit returns the SQL LIMIT value.
func (p Params) Limit() int {
	return p.PerPage
}

// Meta is the pagination block included in API list responses.
//
// Results is always the total count of records matching the filter,
// independent of the page actually returned.
type Meta struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	Results    int `json:"results"`
	TotalPages int `json:"totalPages"`
}

// NewMeta constructs pagination metadata for a response.
//
// TotalPages is ceil(results / perPage) and is 0 for an empty result set.
func NewMeta(page, perPage, results int) Meta {
	totalPages := 0
	if perPage > 0 {
		totalPages = (results + perPage - 1) / perPage
	}

	return Meta{
		Page:       page,
		PerPage:    perPage,
		Results:    results,
		TotalPages: totalPages,
	}
}
