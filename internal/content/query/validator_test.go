// Copyright (c) 2026 Scriptorium. All rights reserved.

package query_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verseworks/scriptorium/internal/content/catalog"
	"github.com/verseworks/scriptorium/internal/content/query"
)

func validateURL(t *testing.T, model, url string) query.Result {
	t.Helper()
	cat := catalog.New()
	desc, ok := cat.ByModel(model)
	require.True(t, ok)
	raw := query.Decode(httptest.NewRequest("GET", url, nil))
	return query.NewValidator(cat).Validate(desc, raw)
}

/*
TestValidate_Filter covers the allow-list walk with whole-expression
rejection: one disallowed key refuses the entire filter.
*/
func TestValidate_Filter(t *testing.T) {
	t.Run("valid_equality_shorthand", func(t *testing.T) {
		res := validateURL(t, "chapters", `/chapters?where={"book_id":3}`)
		assert.Equal(t, query.Valid, res.Filter.Status)
		require.NotNil(t, res.Intent.Filter)
		require.Len(t, res.Intent.Filter.And, 1)

		cond := res.Intent.Filter.And[0].Cond
		require.NotNil(t, cond)
		assert.Equal(t, "book_id", cond.Field)
		assert.Equal(t, query.OpEquals, cond.Op)
		assert.Equal(t, int64(3), cond.Value)
	})

	t.Run("valid_operators", func(t *testing.T) {
		res := validateURL(t, "verses", `/verses?where={"number":{"gte":1,"lte":20},"topic_id":7}`)
		assert.Equal(t, query.Valid, res.Filter.Status)
		assert.Len(t, res.Intent.Filter.And, 3)
	})

	t.Run("valid_or_combinator", func(t *testing.T) {
		res := validateURL(t, "books", `/books?where={"OR":[{"name":{"contains":"gen"}},{"abbreviation":"GEN"}]}`)
		assert.Equal(t, query.Valid, res.Filter.Status)
		assert.Len(t, res.Intent.Filter.Or, 2)
	})

	t.Run("disallowed_field_rejects_whole_expression", func(t *testing.T) {
		res := validateURL(t, "books", `/books?where={"name":"Genesis","secret":"x"}`)
		assert.Equal(t, query.Rejected, res.Filter.Status)
		assert.Nil(t, res.Intent.Filter)
		assert.NotEmpty(t, res.Filter.Reason)
	})

	t.Run("hidden_field_not_filterable", func(t *testing.T) {
		res := validateURL(t, "users", `/users?where={"password":"x"}`)
		assert.Equal(t, query.Rejected, res.Filter.Status)
		assert.Nil(t, res.Intent.Filter)
	})

	t.Run("unknown_operator_rejects", func(t *testing.T) {
		res := validateURL(t, "books", `/books?where={"name":{"matches":".*"}}`)
		assert.Equal(t, query.Rejected, res.Filter.Status)
	})

	t.Run("type_mismatch_rejects", func(t *testing.T) {
		res := validateURL(t, "chapters", `/chapters?where={"book_id":"three"}`)
		assert.Equal(t, query.Rejected, res.Filter.Status)
	})

	t.Run("fractional_int_rejects", func(t *testing.T) {
		res := validateURL(t, "chapters", `/chapters?where={"book_id":3.5}`)
		assert.Equal(t, query.Rejected, res.Filter.Status)
	})

	t.Run("range_op_on_string_rejects", func(t *testing.T) {
		res := validateURL(t, "books", `/books?where={"name":{"gt":"a"}}`)
		assert.Equal(t, query.Rejected, res.Filter.Status)
	})

	t.Run("in_set_membership", func(t *testing.T) {
		res := validateURL(t, "chapters", `/chapters?where={"book_id":{"in":[1,2,3]}}`)
		assert.Equal(t, query.Valid, res.Filter.Status)
		cond := res.Intent.Filter.And[0].Cond
		assert.Equal(t, []any{int64(1), int64(2), int64(3)}, cond.Values)
	})

	t.Run("malformed_json_is_rejected_not_fatal", func(t *testing.T) {
		res := validateURL(t, "books", `/books?where={broken`)
		assert.Equal(t, query.Rejected, res.Filter.Status)
		assert.Nil(t, res.Intent.Filter)
	})

	t.Run("archived_filter_is_allowed", func(t *testing.T) {
		res := validateURL(t, "books", `/books?where={"archived":true}`)
		assert.Equal(t, query.Valid, res.Filter.Status)
		assert.True(t, res.Intent.Filter.References("archived"))
	})
}

/*
TestValidate_Include covers the relation allow-list, nesting, and depth cap.
*/
func TestValidate_Include(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		res := validateURL(t, "books", `/books?include={"chapters":true}`)
		assert.Equal(t, query.Valid, res.Include.Status)
		_, ok := res.Intent.Include["chapters"]
		assert.True(t, ok)
	})

	t.Run("nested", func(t *testing.T) {
		res := validateURL(t, "books", `/books?include={"chapters":{"include":{"topics":true}}}`)
		assert.Equal(t, query.Valid, res.Include.Status)
		nested := res.Intent.Include["chapters"]
		require.NotNil(t, nested)
		_, ok := nested["topics"]
		assert.True(t, ok)
	})

	t.Run("unknown_relation_rejects_whole_set", func(t *testing.T) {
		res := validateURL(t, "books", `/books?include={"chapters":true,"owners":true}`)
		assert.Equal(t, query.Rejected, res.Include.Status)
		assert.Nil(t, res.Intent.Include)
	})

	t.Run("nested_relation_validated_against_target", func(t *testing.T) {
		// "book" is a relation of chapter, not of book itself.
		res := validateURL(t, "books", `/books?include={"chapters":{"include":{"chapters":true}}}`)
		assert.Equal(t, query.Rejected, res.Include.Status)
	})

	t.Run("depth_cap", func(t *testing.T) {
		res := validateURL(t, "books",
			`/books?include={"chapters":{"include":{"topics":{"include":{"verses":{"include":{"notes":true}}}}}}}`)
		assert.Equal(t, query.Rejected, res.Include.Status)
	})

	t.Run("false_skips_without_rejecting", func(t *testing.T) {
		res := validateURL(t, "books", `/books?include={"chapters":false}`)
		assert.Equal(t, query.Absent, res.Include.Status)
		assert.Nil(t, res.Intent.Include)
	})
}

/*
TestValidate_OrderBy covers the sortable-field allow-list.
*/
func TestValidate_OrderBy(t *testing.T) {
	t.Run("valid_object", func(t *testing.T) {
		res := validateURL(t, "books", `/books?orderBy={"name":"desc"}`)
		assert.Equal(t, query.Valid, res.OrderBy.Status)
		require.Len(t, res.Intent.Sort, 1)
		assert.Equal(t, "name", res.Intent.Sort[0].Field)
		assert.True(t, res.Intent.Sort[0].Desc)
	})

	t.Run("valid_array", func(t *testing.T) {
		res := validateURL(t, "verses", `/verses?orderBy=[{"number":"asc"},{"id":"desc"}]`)
		assert.Equal(t, query.Valid, res.OrderBy.Status)
		assert.Len(t, res.Intent.Sort, 2)
	})

	t.Run("unsortable_field_rejects", func(t *testing.T) {
		res := validateURL(t, "verses", `/verses?orderBy={"text":"asc"}`)
		assert.Equal(t, query.Rejected, res.OrderBy.Status)
		assert.Empty(t, res.Intent.Sort)
	})

	t.Run("bad_direction_rejects", func(t *testing.T) {
		res := validateURL(t, "books", `/books?orderBy={"name":"sideways"}`)
		assert.Equal(t, query.Rejected, res.OrderBy.Status)
	})
}

/*
TestValidate_AbsentEverything verifies that a bare request yields a clean
intent with no rejections.
*/
func TestValidate_AbsentEverything(t *testing.T) {
	res := validateURL(t, "books", "/books")
	assert.False(t, res.Rejected())
	assert.Equal(t, query.Absent, res.Filter.Status)
	assert.Equal(t, query.Absent, res.Include.Status)
	assert.Equal(t, query.Absent, res.OrderBy.Status)
	assert.Nil(t, res.Intent.Filter)
}
