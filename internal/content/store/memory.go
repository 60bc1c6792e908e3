// Copyright (c) 2026 Scriptorium. All rights reserved.

package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/verseworks/scriptorium/internal/content/catalog"
	"github.com/verseworks/scriptorium/internal/content/query"
	"github.com/verseworks/scriptorium/internal/platform/apperr"
	"github.com/verseworks/scriptorium/internal/platform/dberr"
)

// memoryRepository is an in-memory [Repository] used by service, archive,
// and handler tests. It evaluates filter trees in Go with the same
// semantics the SQL renderer produces, including the implicit archived
// exclusion and the unique-field checks the database would enforce.
type memoryRepository struct {
	mu     sync.Mutex
	cat    *catalog.Catalog
	tables map[string][]Record
	nextID map[string]int64
	now    func() time.Time
}

// NewMemoryRepository constructs an empty in-memory repository.
func NewMemoryRepository(cat *catalog.Catalog) Repository {
	return &memoryRepository{
		cat:    cat,
		tables: make(map[string][]Record),
		nextID: make(map[string]int64),
		now:    time.Now,
	}
}

func (r *memoryRepository) List(_ context.Context, desc *catalog.Descriptor, intent query.Intent) ([]Record, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []Record
	for _, rec := range r.tables[desc.Name] {
		if !matches(intent.Filter, rec) {
			continue
		}
		if rec.Archived() && !intent.Filter.References("archived") {
			continue
		}
		matched = append(matched, rec)
	}
	sortRecords(desc, matched, intent.Sort)

	total := len(matched)
	params := intent.Params().Normalize()
	from := params.Offset()
	if from > total {
		from = total
	}
	to := from + params.Limit()
	if to > total {
		to = total
	}

	page := make([]Record, 0, to-from)
	for _, rec := range matched[from:to] {
		page = append(page, r.withIncludes(desc, rec, intent.Include))
	}
	return page, total, nil
}

func (r *memoryRepository) GetByID(_ context.Context, desc *catalog.Descriptor, id int64, include query.IncludeSet) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.find(desc, id)
	if rec == nil {
		return nil, dberr.ErrNotFound
	}
	return r.withIncludes(desc, rec, include), nil
}

func (r *memoryRepository) GetBySlug(_ context.Context, desc *catalog.Descriptor, slug string, include query.IncludeSet) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.tables[desc.Name] {
		if rec.String("slug") == slug {
			return r.withIncludes(desc, rec, include), nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (r *memoryRepository) Create(_ context.Context, desc *catalog.Descriptor, values Record) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkUnique(desc, values, 0); err != nil {
		return nil, err
	}

	r.nextID[desc.Name]++
	rec := Record{
		"id":         r.nextID[desc.Name],
		"archived":   false,
		"created_at": r.now(),
		"updated_at": r.now(),
	}
	for _, field := range desc.Fields {
		if v, ok := values[field.Name]; ok && field.Name != "id" {
			rec[field.Name] = v
		}
	}

	r.tables[desc.Name] = append(r.tables[desc.Name], rec)
	return rec.Clone(), nil
}

func (r *memoryRepository) Update(_ context.Context, desc *catalog.Descriptor, id int64, values Record) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.find(desc, id)
	if rec == nil || rec.Archived() {
		return nil, dberr.ErrNotFound
	}
	if err := r.checkUnique(desc, values, id); err != nil {
		return nil, err
	}

	for _, field := range desc.Fields {
		if v, ok := values[field.Name]; ok && field.Name != "id" {
			rec[field.Name] = v
		}
	}
	rec["updated_at"] = r.now()
	return rec.Clone(), nil
}

func (r *memoryRepository) SetArchived(_ context.Context, desc *catalog.Descriptor, id int64, archived bool) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.find(desc, id)
	if rec == nil {
		return nil, dberr.ErrNotFound
	}
	rec["archived"] = archived
	rec["updated_at"] = r.now()
	return rec.Clone(), nil
}

func (r *memoryRepository) DeleteOne(_ context.Context, desc *catalog.Descriptor, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.find(desc, id)
	if rec == nil {
		return dberr.ErrNotFound
	}
	if !rec.Archived() {
		return apperr.NotArchived(desc.Name)
	}
	for _, edge := range r.cat.ChildEdges(desc.Name) {
		if r.countEdge(edge, id) > 0 {
			child, _ := r.cat.Entity(edge.Child)
			return apperr.DataLinked(child.Model)
		}
	}

	rows := r.tables[desc.Name]
	for i, row := range rows {
		if row.ID() == id {
			r.tables[desc.Name] = append(rows[:i], rows[i+1:]...)
			break
		}
	}
	return nil
}

func (r *memoryRepository) CountChildren(_ context.Context, edge catalog.Edge, parentID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.countEdge(edge, parentID), nil
}

// # Internals

func (r *memoryRepository) find(desc *catalog.Descriptor, id int64) Record {
	for _, rec := range r.tables[desc.Name] {
		if rec.ID() == id {
			return rec
		}
	}
	return nil
}

func (r *memoryRepository) countEdge(edge catalog.Edge, parentID int64) int {
	count := 0
	for _, rec := range r.tables[edge.Child] {
		if asInt64(rec[edge.ForeignKey]) == parentID {
			count++
		}
	}
	return count
}

// checkUnique mirrors the database's unique indexes. Archived rows keep
// occupying the namespace, exactly as the full (not partial) indexes do.
func (r *memoryRepository) checkUnique(desc *catalog.Descriptor, values Record, selfID int64) error {
	for _, field := range desc.Fields {
		if !field.Unique {
			continue
		}
		v, ok := values[field.Name]
		if !ok {
			continue
		}
		for _, rec := range r.tables[desc.Name] {
			if rec.ID() != selfID && rec[field.Name] == v {
				code := apperr.CodeValidation
				switch field.Name {
				case "slug":
					code = apperr.CodeSlugTaken
				case "email":
					code = apperr.CodeEmailTaken
				}
				return apperr.UniqueField(code, field.Name)
			}
		}
	}
	return nil
}

func (r *memoryRepository) withIncludes(desc *catalog.Descriptor, rec Record, include query.IncludeSet) Record {
	out := rec.Clone()
	for name, nested := range include {
		relation, ok := desc.Relation(name)
		if !ok {
			continue
		}
		target, ok := r.cat.Entity(relation.Entity)
		if !ok {
			continue
		}

		if relation.Many {
			children := []Record{}
			for _, child := range r.tables[target.Name] {
				if asInt64(child[relation.ForeignKey]) == rec.ID() && !child.Archived() {
					children = append(children, child)
				}
			}
			sortRecords(target, children, nil)
			for i, child := range children {
				children[i] = r.withIncludes(target, child, nested)
			}
			out[name] = children
		} else if parent := r.find(target, asInt64(rec[relation.ForeignKey])); parent != nil {
			out[name] = r.withIncludes(target, parent, nested)
		}
	}
	return out
}

// # Filter Evaluation

// matches evaluates a validated filter tree against one record with the
// same semantics the SQL renderer compiles to.
func matches(expr *query.FilterExpr, rec Record) bool {
	if expr == nil {
		return true
	}
	if expr.Cond != nil && !condMatches(expr.Cond, rec) {
		return false
	}
	for _, sub := range expr.And {
		if !matches(sub, rec) {
			return false
		}
	}
	if len(expr.Or) > 0 {
		hit := false
		for _, sub := range expr.Or {
			if matches(sub, rec) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

func condMatches(cond *query.Condition, rec Record) bool {
	actual := rec[cond.Field]

	switch cond.Op {
	case query.OpEquals:
		return scalarEqual(actual, cond.Value)
	case query.OpNot:
		return !scalarEqual(actual, cond.Value)
	case query.OpIn:
		for _, v := range cond.Values {
			if scalarEqual(actual, v) {
				return true
			}
		}
		return false
	case query.OpLt:
		return asInt64(actual) < asInt64(cond.Value)
	case query.OpLte:
		return asInt64(actual) <= asInt64(cond.Value)
	case query.OpGt:
		return asInt64(actual) > asInt64(cond.Value)
	case query.OpGte:
		return asInt64(actual) >= asInt64(cond.Value)
	case query.OpContains:
		have, _ := actual.(string)
		want, _ := cond.Value.(string)
		return strings.Contains(strings.ToLower(have), strings.ToLower(want))
	}
	return false
}

func scalarEqual(actual, expected any) bool {
	switch expected.(type) {
	case int64:
		return asInt64(actual) == asInt64(expected)
	default:
		return actual == expected
	}
}

// sortRecords orders records by the sort keys, falling back to the
// entity's default sort, with the id tiebreaker List promises.
func sortRecords(desc *catalog.Descriptor, records []Record, spec query.SortSpec) {
	if len(spec) == 0 {
		spec = query.SortSpec{{Field: desc.DefaultSort}}
	}

	sort.SliceStable(records, func(i, j int) bool {
		for _, key := range spec {
			c := compareValues(records[i][key.Field], records[j][key.Field])
			if c == 0 {
				continue
			}
			if key.Desc {
				return c > 0
			}
			return c < 0
		}
		return records[i].ID() < records[j].ID()
	})
}

func compareValues(a, b any) int {
	switch av := a.(type) {
	case string:
		bv, _ := b.(string)
		return strings.Compare(av, bv)
	case time.Time:
		bv, _ := b.(time.Time)
		switch {
		case av.Before(bv):
			return -1
		case av.After(bv):
			return 1
		}
		return 0
	default:
		ai, bi := asInt64(a), asInt64(b)
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return 0
	}
}
