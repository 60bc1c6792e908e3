// Copyright (c) 2026 Scriptorium. All rights reserved.

package pagination_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/verseworks/scriptorium/pkg/pagination"
)

/*
TestParams_Normalize verifies the leniency contract for malformed paging input.
*/
func TestParams_Normalize(t *testing.T) {
	tests := []struct {
		name        string
		in          pagination.Params
		wantPage    int
		wantPerPage int
	}{
		{"valid", pagination.Params{Page: 2, PerPage: 25}, 2, 25},
		{"zero_page", pagination.Params{Page: 0, PerPage: 25}, 1, 25},
		{"negative_page", pagination.Params{Page: -3, PerPage: 25}, 1, 25},
		{"zero_per_page", pagination.Params{Page: 1, PerPage: 0}, 1, pagination.DefaultPerPage},
		{"per_page_over_max", pagination.Params{Page: 1, PerPage: 5000}, 1, pagination.DefaultPerPage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			assert.Equal(t, tt.wantPage, got.Page)
			assert.Equal(t, tt.wantPerPage, got.PerPage)
		})
	}
}

/*
TestParams_Offset verifies the page-to-offset translation.
*/
func TestParams_Offset(t *testing.T) {
	assert.Equal(t, 0, pagination.Params{Page: 1, PerPage: 10}.Offset())
	assert.Equal(t, 10, pagination.Params{Page: 2, PerPage: 10}.Offset())
	assert.Equal(t, 40, pagination.Params{Page: 5, PerPage: 10}.Offset())
	assert.Equal(t, 10, pagination.Params{Page: 2, PerPage: 10}.Limit())
}

/*
TestNewMeta verifies envelope totals, including the 25-records example:
page=2, perPage=10 over 25 matches yields results=25 and totalPages=3.
*/
func TestNewMeta(t *testing.T) {
	meta := pagination.NewMeta(2, 10, 25)
	assert.Equal(t, 2, meta.Page)
	assert.Equal(t, 10, meta.PerPage)
	assert.Equal(t, 25, meta.Results)
	assert.Equal(t, 3, meta.TotalPages)

	// Empty result set has zero pages, not one.
	empty := pagination.NewMeta(1, 10, 0)
	assert.Equal(t, 0, empty.TotalPages)
	assert.Equal(t, 0, empty.Results)

	// Exact multiple does not round up.
	exact := pagination.NewMeta(1, 10, 30)
	assert.Equal(t, 3, exact.TotalPages)
}
