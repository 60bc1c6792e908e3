// Copyright (c) 2026 Scriptorium. All rights reserved.

package query

import (
	"fmt"
	"math"

	"github.com/verseworks/scriptorium/internal/content/catalog"
)

// maxIncludeDepth bounds nested includes. The relation graph is cyclic
// (book→chapters→book), so unbounded nesting would never terminate.
const maxIncludeDepth = 3

// Validator checks decoded query candidates against entity allow-lists.
type Validator struct {
	cat *catalog.Catalog
}

// NewValidator constructs a Validator over the given catalog.
func NewValidator(cat *catalog.Catalog) *Validator {
	return &Validator{cat: cat}
}

// Result carries the validated intent plus the per-expression outcomes.
type Result struct {
	Intent  Intent
	Filter  Outcome
	Include Outcome
	OrderBy Outcome
}

// Rejected reports whether any supplied expression was refused.
func (r Result) Rejected() bool {
	return r.Filter.Status == Rejected ||
		r.Include.Status == Rejected ||
		r.OrderBy.Status == Rejected
}

// Validate builds a query intent from decoded candidates.
//
// Rejection is whole-expression: one disallowed field name, relation name,
// or operator invalidates the entire filter/include/orderBy object, and the
// intent falls back to no filter, no include, or the default sort. The
// caller decides (by deployment policy) whether a rejection also fails the
// request.
func (v *Validator) Validate(desc *catalog.Descriptor, raw Raw) Result {
	result := Result{
		Intent: Intent{
			Page:    raw.Pagination.Page,
			PerPage: raw.Pagination.PerPage,
		},
	}

	if filter, outcome := v.validateFilter(desc, raw.Filter); outcome.Status == Valid {
		result.Intent.Filter = filter
		result.Filter = outcome
	} else {
		result.Filter = outcome
	}

	if include, outcome := v.validateInclude(desc, raw.Include); outcome.Status == Valid {
		result.Intent.Include = include
		result.Include = outcome
	} else {
		result.Include = outcome
	}

	if sort, outcome := v.validateOrderBy(desc, raw.OrderBy); outcome.Status == Valid {
		result.Intent.Sort = sort
		result.OrderBy = outcome
	} else {
		result.OrderBy = outcome
	}

	return result
}

// # Filter Validation

func (v *Validator) validateFilter(desc *catalog.Descriptor, part RawPart) (*FilterExpr, Outcome) {
	if !part.Present {
		return nil, Outcome{Status: Absent}
	}
	if part.Malformed {
		return nil, Outcome{Status: Rejected, Reason: "malformed filter JSON"}
	}

	expr, err := v.parseFilterNode(desc, part.Value)
	if err != nil {
		return nil, Outcome{Status: Rejected, Reason: err.Error()}
	}
	return expr, Outcome{Status: Valid}
}

// parseFilterNode walks one JSON object level of a filter expression.
//
// Shape: {"field": scalar} for equality, {"field": {"op": value}} for
// comparisons, and "AND"/"OR" keys holding arrays of sub-expressions.
func (v *Validator) parseFilterNode(desc *catalog.Descriptor, value any) (*FilterExpr, error) {
	object, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("filter must be a JSON object")
	}
	if len(object) == 0 {
		return nil, fmt.Errorf("filter object is empty")
	}

	node := &FilterExpr{}
	for key, val := range object {
		switch key {
		case "AND", "OR":
			subs, err := v.parseFilterList(desc, key, val)
			if err != nil {
				return nil, err
			}
			if key == "AND" {
				node.And = append(node.And, subs...)
			} else {
				node.Or = append(node.Or, subs...)
			}
		default:
			cond, err := v.parseConditions(desc, key, val)
			if err != nil {
				return nil, err
			}
			for _, c := range cond {
				node.And = append(node.And, &FilterExpr{Cond: c})
			}
		}
	}
	return node, nil
}

func (v *Validator) parseFilterList(desc *catalog.Descriptor, combinator string, value any) ([]*FilterExpr, error) {
	list, ok := value.([]any)
	if !ok || len(list) == 0 {
		return nil, fmt.Errorf("%s must be a non-empty array", combinator)
	}

	subs := make([]*FilterExpr, 0, len(list))
	for _, item := range list {
		sub, err := v.parseFilterNode(desc, item)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// parseConditions validates one field key of a filter object. A scalar value
// is shorthand for equality; an object maps operators to operands.
func (v *Validator) parseConditions(desc *catalog.Descriptor, fieldName string, value any) ([]*Condition, error) {
	field, ok := desc.Field(fieldName)
	if !ok || !field.Filterable {
		return nil, fmt.Errorf("field %q is not filterable on %s", fieldName, desc.Model)
	}

	// Equality shorthand: {"book_id": 3}
	opsObject, isObject := value.(map[string]any)
	if !isObject {
		normalized, err := normalizeScalar(field, value)
		if err != nil {
			return nil, err
		}
		return []*Condition{{Field: fieldName, Op: OpEquals, Value: normalized}}, nil
	}

	if len(opsObject) == 0 {
		return nil, fmt.Errorf("field %q has an empty operator object", fieldName)
	}

	conds := make([]*Condition, 0, len(opsObject))
	for opName, operand := range opsObject {
		cond, err := parseOperator(field, fieldName, Op(opName), operand)
		if err != nil {
			return nil, err
		}
		conds = append(conds, cond)
	}
	return conds, nil
}

func parseOperator(field catalog.Field, fieldName string, op Op, operand any) (*Condition, error) {
	switch op {
	case OpEquals, OpNot:
		normalized, err := normalizeScalar(field, operand)
		if err != nil {
			return nil, err
		}
		return &Condition{Field: fieldName, Op: op, Value: normalized}, nil

	case OpLt, OpLte, OpGt, OpGte:
		if field.Type != catalog.TypeInt {
			return nil, fmt.Errorf("operator %q requires a numeric field, %q is %s", op, fieldName, field.Type)
		}
		normalized, err := normalizeScalar(field, operand)
		if err != nil {
			return nil, err
		}
		return &Condition{Field: fieldName, Op: op, Value: normalized}, nil

	case OpContains:
		if field.Type != catalog.TypeString {
			return nil, fmt.Errorf("operator %q requires a string field, %q is %s", op, fieldName, field.Type)
		}
		normalized, err := normalizeScalar(field, operand)
		if err != nil {
			return nil, err
		}
		return &Condition{Field: fieldName, Op: op, Value: normalized}, nil

	case OpIn:
		list, ok := operand.([]any)
		if !ok || len(list) == 0 {
			return nil, fmt.Errorf("operator \"in\" on %q requires a non-empty array", fieldName)
		}
		values := make([]any, 0, len(list))
		for _, item := range list {
			normalized, err := normalizeScalar(field, item)
			if err != nil {
				return nil, err
			}
			values = append(values, normalized)
		}
		return &Condition{Field: fieldName, Op: OpIn, Values: values}, nil

	default:
		return nil, fmt.Errorf("unknown operator %q on field %q", op, fieldName)
	}
}

// normalizeScalar type-checks a JSON value against the field's declared type
// and converts it to the canonical Go representation.
func normalizeScalar(field catalog.Field, value any) (any, error) {
	switch field.Type {
	case catalog.TypeInt:
		number, ok := value.(float64)
		if !ok || number != math.Trunc(number) {
			return nil, fmt.Errorf("field %q requires an integer value", field.Name)
		}
		return int64(number), nil

	case catalog.TypeBool:
		boolean, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("field %q requires a boolean value", field.Name)
		}
		return boolean, nil

	case catalog.TypeString:
		text, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("field %q requires a string value", field.Name)
		}
		return text, nil

	default:
		return nil, fmt.Errorf("field %q cannot be filtered", field.Name)
	}
}

// # Include Validation

func (v *Validator) validateInclude(desc *catalog.Descriptor, part RawPart) (IncludeSet, Outcome) {
	if !part.Present {
		return nil, Outcome{Status: Absent}
	}
	if part.Malformed {
		return nil, Outcome{Status: Rejected, Reason: "malformed include JSON"}
	}

	set, err := v.parseInclude(desc, part.Value, 1)
	if err != nil {
		return nil, Outcome{Status: Rejected, Reason: err.Error()}
	}
	if len(set) == 0 {
		return nil, Outcome{Status: Absent}
	}
	return set, Outcome{Status: Valid}
}

// parseInclude walks an include object: {"chapters": true} attaches a
// relation, {"chapters": {"include": {...}}} nests into the target entity.
// A false value skips the relation without invalidating the expression.
func (v *Validator) parseInclude(desc *catalog.Descriptor, value any, depth int) (IncludeSet, error) {
	object, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("include must be a JSON object")
	}
	if depth > maxIncludeDepth {
		return nil, fmt.Errorf("include nesting exceeds depth %d", maxIncludeDepth)
	}

	set := IncludeSet{}
	for relationName, val := range object {
		relation, ok := desc.Relation(relationName)
		if !ok {
			return nil, fmt.Errorf("relation %q cannot be included on %s", relationName, desc.Model)
		}

		switch typed := val.(type) {
		case bool:
			if typed {
				set[relationName] = nil
			}
		case map[string]any:
			nestedRaw, hasNested := typed["include"]
			if !hasNested {
				return nil, fmt.Errorf("relation %q options must contain \"include\"", relationName)
			}
			target, ok := v.cat.Entity(relation.Entity)
			if !ok {
				return nil, fmt.Errorf("relation %q targets unknown entity", relationName)
			}
			nested, err := v.parseInclude(target, nestedRaw, depth+1)
			if err != nil {
				return nil, err
			}
			set[relationName] = nested
		default:
			return nil, fmt.Errorf("relation %q must map to a boolean or an object", relationName)
		}
	}
	return set, nil
}

// # OrderBy Validation

func (v *Validator) validateOrderBy(desc *catalog.Descriptor, part RawPart) (SortSpec, Outcome) {
	if !part.Present {
		return nil, Outcome{Status: Absent}
	}
	if part.Malformed {
		return nil, Outcome{Status: Rejected, Reason: "malformed orderBy JSON"}
	}

	var spec SortSpec
	var err error

	switch typed := part.Value.(type) {
	case map[string]any:
		spec, err = parseSortObject(desc, typed)
	case []any:
		for _, item := range typed {
			object, ok := item.(map[string]any)
			if !ok {
				err = fmt.Errorf("orderBy array entries must be objects")
				break
			}
			var keys SortSpec
			if keys, err = parseSortObject(desc, object); err != nil {
				break
			}
			spec = append(spec, keys...)
		}
	default:
		err = fmt.Errorf("orderBy must be a JSON object or array")
	}

	if err != nil {
		return nil, Outcome{Status: Rejected, Reason: err.Error()}
	}
	if len(spec) == 0 {
		return nil, Outcome{Status: Absent}
	}
	return spec, Outcome{Status: Valid}
}

func parseSortObject(desc *catalog.Descriptor, object map[string]any) (SortSpec, error) {
	spec := make(SortSpec, 0, len(object))
	for fieldName, direction := range object {
		field, ok := desc.Field(fieldName)
		if !ok || !field.Sortable {
			return nil, fmt.Errorf("field %q is not sortable on %s", fieldName, desc.Model)
		}

		directionText, ok := direction.(string)
		if !ok || (directionText != "asc" && directionText != "desc") {
			return nil, fmt.Errorf("sort direction for %q must be \"asc\" or \"desc\"", fieldName)
		}

		spec = append(spec, SortKey{Field: fieldName, Desc: directionText == "desc"})
	}
	return spec, nil
}
