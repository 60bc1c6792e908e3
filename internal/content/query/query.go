// Copyright (c) 2026 Scriptorium. All rights reserved.

/*
Package query turns untrusted list-request input into validated, typed query
intents.

# Pipeline

Raw query strings pass through two stages:

 1. Decode — lenient extraction of page/perPage and the JSON-encoded
    include/where/orderBy candidates. Nothing is trusted yet.
 2. Validate — every field, relation, operator, and direction is checked
    against the entity's static allow-list from the catalog. One disallowed
    key invalidates the whole expression (whole-expression rejection), which
    then degrades to "no filter / no include / default sort".

Each expression carries a three-valued outcome (Valid, Absent, Rejected) so
callers can distinguish "no filter requested" from "filter requested but
invalid" for logging, even when both degrade to the same behavior.
*/
package query

import "github.com/verseworks/scriptorium/pkg/pagination"

// Status is the outcome of validating one client-supplied expression.
type Status int

const (
	// Absent means the client did not supply the expression.
	Absent Status = iota
	// Valid means the expression passed allow-list validation.
	Valid
	// Rejected means the expression was supplied but refused as a whole.
	Rejected
)

// Outcome pairs a validation status with the rejection reason, if any.
type Outcome struct {
	Status Status
	Reason string
}

// Op is a comparison operator permitted inside filter expressions.
type Op string

const (
	OpEquals   Op = "equals"
	OpNot      Op = "not"
	OpIn       Op = "in"
	OpLt       Op = "lt"
	OpLte      Op = "lte"
	OpGt       Op = "gt"
	OpGte      Op = "gte"
	OpContains Op = "contains"
)

// Condition is a single field comparison with a type-checked value.
type Condition struct {
	Field  string
	Op     Op
	Value  any   // normalized scalar for single-value operators
	Values []any // normalized set for OpIn
}

// FilterExpr is a validated filter tree. A node matches a record when every
// And child matches, at least one Or child matches (when any are present),
// and its own condition holds (when present).
type FilterExpr struct {
	And  []*FilterExpr
	Or   []*FilterExpr
	Cond *Condition
}

// References reports whether any condition in the tree names the field.
// The store uses it to decide whether the default archived=false clause
// still applies or the client explicitly asked about archived records.
func (e *FilterExpr) References(field string) bool {
	if e == nil {
		return false
	}
	if e.Cond != nil && e.Cond.Field == field {
		return true
	}
	for _, sub := range e.And {
		if sub.References(field) {
			return true
		}
	}
	for _, sub := range e.Or {
		if sub.References(field) {
			return true
		}
	}
	return false
}

// IncludeSet names the relations to eagerly attach to returned records.
// A nil value marks a leaf; a non-nil value nests into the target entity.
type IncludeSet map[string]IncludeSet

// SortKey is one (field, direction) pair of an ordering.
type SortKey struct {
	Field string
	Desc  bool
}

// SortSpec is an ordered sequence of sort keys.
type SortSpec []SortKey

// Intent is the validated, structural representation of a list request.
// It is constructed only by Decode+Validate, never directly from raw input.
type Intent struct {
	Page    int
	PerPage int
	Filter  *FilterExpr
	Include IncludeSet
	Sort    SortSpec
}

// Params returns the pagination parameters of the intent.
func (i Intent) Params() pagination.Params {
	return pagination.Params{Page: i.Page, PerPage: i.PerPage}
}
