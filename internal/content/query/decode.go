// Copyright (c) 2026 Scriptorium. All rights reserved.

package query

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/verseworks/scriptorium/pkg/pagination"
)

// RawPart is one undecoded expression candidate extracted from the query
// string. The decoder records whether it was present and whether its JSON
// was malformed; it never inspects the shape.
type RawPart struct {
	Present   bool
	Malformed bool
	Value     any
}

// Raw is the decoder's output: typed pagination plus untrusted candidates.
type Raw struct {
	Pagination pagination.Params
	Include    RawPart
	Filter     RawPart
	OrderBy    RawPart
}

// Decode extracts pagination and the raw include/where/orderBy candidates
// from an HTTP request.
//
// # Leniency
//
// Non-numeric page/perPage values fall back to defaults rather than failing
// the request. Malformed JSON is recorded as such, not raised: whether it
// becomes a client error or a silent fallback is the validator's policy
// decision, never a server fault.
func Decode(request *http.Request) Raw {
	params := request.URL.Query()

	page, _ := strconv.Atoi(params.Get("page"))
	perPage, _ := strconv.Atoi(params.Get("perPage"))

	raw := Raw{
		Pagination: pagination.Params{Page: page, PerPage: perPage}.Normalize(),
		Include:    decodePart(params.Get("include")),
		OrderBy:    decodePart(params.Get("orderBy")),
	}

	// "where" is the canonical filter parameter; "filter" is accepted as an
	// alias for older dashboard builds.
	if where := params.Get("where"); where != "" {
		raw.Filter = decodePart(where)
	} else {
		raw.Filter = decodePart(params.Get("filter"))
	}

	return raw
}

// decodePart parses one JSON-encoded query value without trusting its shape.
func decodePart(rawJSON string) RawPart {
	if rawJSON == "" || rawJSON == "undefined" || rawJSON == "null" {
		return RawPart{}
	}

	var value any
	if err := json.Unmarshal([]byte(rawJSON), &value); err != nil {
		return RawPart{Present: true, Malformed: true}
	}
	if value == nil {
		return RawPart{}
	}

	return RawPart{Present: true, Value: value}
}
