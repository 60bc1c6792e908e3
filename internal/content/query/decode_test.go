// Copyright (c) 2026 Scriptorium. All rights reserved.

package query_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/verseworks/scriptorium/internal/content/query"
	"github.com/verseworks/scriptorium/pkg/pagination"
)

/*
TestDecode_Pagination verifies the leniency contract: malformed paging input
falls back to defaults instead of failing the request.
*/
func TestDecode_Pagination(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		wantPage    int
		wantPerPage int
	}{
		{"explicit", "/books?page=3&perPage=25", 3, 25},
		{"missing", "/books", 1, pagination.DefaultPerPage},
		{"non_numeric", "/books?page=abc&perPage=xyz", 1, pagination.DefaultPerPage},
		{"negative", "/books?page=-2&perPage=-5", 1, pagination.DefaultPerPage},
		{"over_max", "/books?page=1&perPage=9999", 1, pagination.DefaultPerPage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := query.Decode(httptest.NewRequest("GET", tt.url, nil))
			assert.Equal(t, tt.wantPage, raw.Pagination.Page)
			assert.Equal(t, tt.wantPerPage, raw.Pagination.PerPage)
		})
	}
}

/*
TestDecode_RawParts verifies the three-way classification of JSON candidates:
absent, present, and malformed.
*/
func TestDecode_RawParts(t *testing.T) {
	t.Run("absent", func(t *testing.T) {
		raw := query.Decode(httptest.NewRequest("GET", "/books", nil))
		assert.False(t, raw.Filter.Present)
		assert.False(t, raw.Include.Present)
		assert.False(t, raw.OrderBy.Present)
	})

	t.Run("present", func(t *testing.T) {
		raw := query.Decode(httptest.NewRequest("GET", `/books?where={"name":"Genesis"}&include={"chapters":true}`, nil))
		assert.True(t, raw.Filter.Present)
		assert.False(t, raw.Filter.Malformed)
		assert.True(t, raw.Include.Present)
	})

	t.Run("malformed", func(t *testing.T) {
		raw := query.Decode(httptest.NewRequest("GET", `/books?where={broken`, nil))
		assert.True(t, raw.Filter.Present)
		assert.True(t, raw.Filter.Malformed)
	})

	// The dashboard serializes missing expressions as the literal string
	// "undefined"; that counts as absent, not malformed.
	t.Run("undefined_literal", func(t *testing.T) {
		raw := query.Decode(httptest.NewRequest("GET", "/books?include=undefined", nil))
		assert.False(t, raw.Include.Present)
	})

	t.Run("filter_alias", func(t *testing.T) {
		raw := query.Decode(httptest.NewRequest("GET", `/books?filter={"name":"Genesis"}`, nil))
		assert.True(t, raw.Filter.Present)
	})
}
