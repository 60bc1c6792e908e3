// Copyright (c) 2026 Scriptorium. All rights reserved.

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/verseworks/scriptorium/internal/content/catalog"
	"github.com/verseworks/scriptorium/internal/content/query"
	"github.com/verseworks/scriptorium/internal/platform/apperr"
	"github.com/verseworks/scriptorium/internal/platform/dberr"
)

// postgresRepository implements [Repository] using pgx.
//
// Every query is assembled from catalog configuration: table and column
// names come from the descriptor, never from client input, so string
// concatenation of identifiers is safe. Client-supplied values travel only
// through placeholders.
type postgresRepository struct {
	pool *pgxpool.Pool
	cat  *catalog.Catalog
}

// NewPostgresRepository constructs a PostgreSQL backed generic repository.
func NewPostgresRepository(pool *pgxpool.Pool, cat *catalog.Catalog) Repository {
	return &postgresRepository{pool: pool, cat: cat}
}

// # Listing

/*
List executes a validated query intent in two phases.

Phase one counts every row matching the filter; phase two fetches one page
with ORDER BY, LIMIT, and OFFSET. Two round-trips cost slightly more than a
COUNT(*) OVER() window column, but the count stays correct when the
requested page lies beyond the last one, which the window form cannot
deliver (an empty page has no rows to carry the count on).
*/
func (r *postgresRepository) List(ctx context.Context, desc *catalog.Descriptor, intent query.Intent) ([]Record, int, error) {
	whereSQL, args := buildWhere(intent.Filter)

	var total int
	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", desc.Table, whereSQL)
	if err := r.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count "+desc.Model)
	}
	if total == 0 {
		return []Record{}, 0, nil
	}

	params := intent.Params().Normalize()
	pageSQL := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d",
		strings.Join(desc.Columns(), ", "), desc.Table, whereSQL,
		orderClause(desc, intent.Sort), len(args)+1, len(args)+2,
	)
	args = append(args, params.Limit(), params.Offset())

	records, err := r.collect(ctx, pageSQL, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list "+desc.Model)
	}
	if err := r.loadIncludes(ctx, desc, records, intent.Include); err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// buildWhere renders the filter tree into a WHERE clause. Records stay
// hidden while archived unless the client's filter itself names the
// archived field, in which case the client decides.
func buildWhere(filter *query.FilterExpr) (string, []any) {
	var parts []string
	var args []any

	if filter != nil {
		parts = append(parts, renderFilter(filter, &args))
	}
	if !filter.References("archived") {
		parts = append(parts, "archived = FALSE")
	}
	if len(parts) == 0 {
		return "TRUE", nil
	}
	return strings.Join(parts, " AND "), args
}

func renderFilter(expr *query.FilterExpr, args *[]any) string {
	var parts []string
	if expr.Cond != nil {
		parts = append(parts, renderCondition(expr.Cond, args))
	}
	for _, sub := range expr.And {
		parts = append(parts, renderFilter(sub, args))
	}
	if len(expr.Or) > 0 {
		ors := make([]string, 0, len(expr.Or))
		for _, sub := range expr.Or {
			ors = append(ors, renderFilter(sub, args))
		}
		parts = append(parts, "("+strings.Join(ors, " OR ")+")")
	}
	if len(parts) == 0 {
		return "TRUE"
	}
	return "(" + strings.Join(parts, " AND ") + ")"
}

func renderCondition(cond *query.Condition, args *[]any) string {
	place := func(v any) string {
		*args = append(*args, v)
		return fmt.Sprintf("$%d", len(*args))
	}

	switch cond.Op {
	case query.OpEquals:
		return fmt.Sprintf("%s = %s", cond.Field, place(cond.Value))
	case query.OpNot:
		return fmt.Sprintf("%s <> %s", cond.Field, place(cond.Value))
	case query.OpLt:
		return fmt.Sprintf("%s < %s", cond.Field, place(cond.Value))
	case query.OpLte:
		return fmt.Sprintf("%s <= %s", cond.Field, place(cond.Value))
	case query.OpGt:
		return fmt.Sprintf("%s > %s", cond.Field, place(cond.Value))
	case query.OpGte:
		return fmt.Sprintf("%s >= %s", cond.Field, place(cond.Value))
	case query.OpContains:
		return fmt.Sprintf("%s ILIKE '%%' || %s || '%%'", cond.Field, place(cond.Value))
	case query.OpIn:
		places := make([]string, 0, len(cond.Values))
		for _, v := range cond.Values {
			places = append(places, place(v))
		}
		return fmt.Sprintf("%s IN (%s)", cond.Field, strings.Join(places, ", "))
	}
	return "TRUE"
}

// orderClause renders the validated sort keys, falling back to the entity's
// default sort. The id tiebreaker keeps pagination stable when the sort
// field has duplicates.
func orderClause(desc *catalog.Descriptor, sort query.SortSpec) string {
	if len(sort) == 0 {
		sort = query.SortSpec{{Field: desc.DefaultSort}}
	}

	parts := make([]string, 0, len(sort)+1)
	hasID := false
	for _, key := range sort {
		dir := "ASC"
		if key.Desc {
			dir = "DESC"
		}
		parts = append(parts, key.Field+" "+dir)
		hasID = hasID || key.Field == "id"
	}
	if !hasID {
		parts = append(parts, "id ASC")
	}
	return strings.Join(parts, ", ")
}

// # Relation Loading

// loadIncludes attaches the requested relations to a batch of records with
// one query per relation (ANY over the batch's keys) instead of one per row.
// Archived child rows are not attached; they resurface only through their
// own listings.
func (r *postgresRepository) loadIncludes(ctx context.Context, desc *catalog.Descriptor, records []Record, include query.IncludeSet) error {
	if len(include) == 0 || len(records) == 0 {
		return nil
	}

	for name, nested := range include {
		relation, ok := desc.Relation(name)
		if !ok {
			continue
		}
		target, ok := r.cat.Entity(relation.Entity)
		if !ok {
			continue
		}

		var err error
		if relation.Many {
			err = r.attachChildren(ctx, records, name, relation, target, nested)
		} else {
			err = r.attachParent(ctx, records, name, relation, target, nested)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *postgresRepository) attachChildren(ctx context.Context, records []Record, name string, relation catalog.Relation, target *catalog.Descriptor, nested query.IncludeSet) error {
	ids := recordIDs(records)
	sql := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = ANY($1) AND archived = FALSE ORDER BY %s",
		strings.Join(target.Columns(), ", "), target.Table, relation.ForeignKey,
		orderClause(target, nil),
	)
	children, err := r.collect(ctx, sql, ids)
	if err != nil {
		return dberr.Wrap(err, "include "+name)
	}
	if err := r.loadIncludes(ctx, target, children, nested); err != nil {
		return err
	}

	grouped := make(map[int64][]Record, len(records))
	for _, child := range children {
		key := asInt64(child[relation.ForeignKey])
		grouped[key] = append(grouped[key], child)
	}
	for _, rec := range records {
		attached := grouped[rec.ID()]
		if attached == nil {
			attached = []Record{}
		}
		rec[name] = attached
	}
	return nil
}

func (r *postgresRepository) attachParent(ctx context.Context, records []Record, name string, relation catalog.Relation, target *catalog.Descriptor, nested query.IncludeSet) error {
	ids := make([]int64, 0, len(records))
	seen := make(map[int64]bool, len(records))
	for _, rec := range records {
		id := asInt64(rec[relation.ForeignKey])
		if id != 0 && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	sql := fmt.Sprintf(
		"SELECT %s FROM %s WHERE id = ANY($1)",
		strings.Join(target.Columns(), ", "), target.Table,
	)
	parents, err := r.collect(ctx, sql, ids)
	if err != nil {
		return dberr.Wrap(err, "include "+name)
	}
	if err := r.loadIncludes(ctx, target, parents, nested); err != nil {
		return err
	}

	byID := make(map[int64]Record, len(parents))
	for _, parent := range parents {
		byID[parent.ID()] = parent
	}
	for _, rec := range records {
		if parent, ok := byID[asInt64(rec[relation.ForeignKey])]; ok {
			rec[name] = parent
		}
	}
	return nil
}

// # Single-Record Reads

func (r *postgresRepository) GetByID(ctx context.Context, desc *catalog.Descriptor, id int64, include query.IncludeSet) (Record, error) {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", strings.Join(desc.Columns(), ", "), desc.Table)
	return r.getOne(ctx, desc, include, sql, id)
}

func (r *postgresRepository) GetBySlug(ctx context.Context, desc *catalog.Descriptor, slug string, include query.IncludeSet) (Record, error) {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE slug = $1", strings.Join(desc.Columns(), ", "), desc.Table)
	return r.getOne(ctx, desc, include, sql, slug)
}

func (r *postgresRepository) getOne(ctx context.Context, desc *catalog.Descriptor, include query.IncludeSet, sql string, arg any) (Record, error) {
	records, err := r.collect(ctx, sql, arg)
	if err != nil {
		return nil, dberr.Wrap(err, "get "+desc.Name)
	}
	if len(records) == 0 {
		return nil, dberr.ErrNotFound
	}
	if err := r.loadIncludes(ctx, desc, records[:1], include); err != nil {
		return nil, err
	}
	return records[0], nil
}

// # Writes

func (r *postgresRepository) Create(ctx context.Context, desc *catalog.Descriptor, values Record) (Record, error) {
	var cols []string
	var args []any
	for _, field := range desc.Fields {
		if field.Name == "id" || field.Name == "created_at" || field.Name == "updated_at" {
			continue
		}
		if v, ok := values[field.Name]; ok {
			cols = append(cols, field.Name)
			args = append(args, v)
		}
	}

	places := make([]string, len(cols))
	for i := range cols {
		places[i] = fmt.Sprintf("$%d", i+1)
	}
	sql := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		desc.Table, strings.Join(cols, ", "), strings.Join(places, ", "),
		strings.Join(desc.Columns(), ", "),
	)

	records, err := r.collect(ctx, sql, args...)
	if err != nil {
		return nil, dberr.Wrap(err, "create "+desc.Name)
	}
	return records[0], nil
}

func (r *postgresRepository) Update(ctx context.Context, desc *catalog.Descriptor, id int64, values Record) (Record, error) {
	var sets []string
	var args []any
	for _, field := range desc.Fields {
		if field.Name == "id" || field.Name == "created_at" || field.Name == "updated_at" {
			continue
		}
		if v, ok := values[field.Name]; ok {
			args = append(args, v)
			sets = append(sets, fmt.Sprintf("%s = $%d", field.Name, len(args)))
		}
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, desc, id, nil)
	}
	sets = append(sets, "updated_at = NOW()")

	// Archived records are frozen until restored; an update sees them as absent.
	args = append(args, id)
	sql := fmt.Sprintf(
		"UPDATE %s SET %s WHERE id = $%d AND archived = FALSE RETURNING %s",
		desc.Table, strings.Join(sets, ", "), len(args),
		strings.Join(desc.Columns(), ", "),
	)

	records, err := r.collect(ctx, sql, args...)
	if err != nil {
		return nil, dberr.Wrap(err, "update "+desc.Name)
	}
	if len(records) == 0 {
		return nil, dberr.ErrNotFound
	}
	return records[0], nil
}

func (r *postgresRepository) SetArchived(ctx context.Context, desc *catalog.Descriptor, id int64, archived bool) (Record, error) {
	sql := fmt.Sprintf(
		"UPDATE %s SET archived = $1, updated_at = NOW() WHERE id = $2 RETURNING %s",
		desc.Table, strings.Join(desc.Columns(), ", "),
	)
	records, err := r.collect(ctx, sql, archived, id)
	if err != nil {
		return nil, dberr.Wrap(err, "archive "+desc.Name)
	}
	if len(records) == 0 {
		return nil, dberr.ErrNotFound
	}
	return records[0], nil
}

// # Permanent Deletion

/*
DeleteOne removes an archived row inside a transaction.

The row is locked FOR UPDATE, its archived state and its dependency edges
are re-verified under that lock, and only then is it deleted. The archive
manager performs the same checks before calling, but those run outside any
transaction; this re-check closes the race against a concurrent restore or
a child row inserted between check and delete. The foreign key constraints
remain the last line of defense and surface as DATA_LINKED through dberr.
*/
func (r *postgresRepository) DeleteOne(ctx context.Context, desc *catalog.Descriptor, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return dberr.Wrap(err, "begin delete "+desc.Name)
	}
	defer tx.Rollback(ctx)

	var archived bool
	err = tx.QueryRow(ctx,
		fmt.Sprintf("SELECT archived FROM %s WHERE id = $1 FOR UPDATE", desc.Table), id,
	).Scan(&archived)
	if errors.Is(err, pgx.ErrNoRows) {
		return dberr.ErrNotFound
	}
	if err != nil {
		return dberr.Wrap(err, "lock "+desc.Name)
	}
	if !archived {
		return apperr.NotArchived(desc.Name)
	}

	for _, edge := range r.cat.ChildEdges(desc.Name) {
		child, ok := r.cat.Entity(edge.Child)
		if !ok {
			continue
		}
		var linked int
		err = tx.QueryRow(ctx,
			fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = $1", child.Table, edge.ForeignKey), id,
		).Scan(&linked)
		if err != nil {
			return dberr.Wrap(err, "check links for "+desc.Name)
		}
		if linked > 0 {
			return apperr.DataLinked(child.Model)
		}
	}

	if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", desc.Table), id); err != nil {
		return dberr.Wrap(err, "delete "+desc.Name)
	}
	return tx.Commit(ctx)
}

// CountChildren counts the rows of one dependency edge's child table that
// reference the parent, archived rows included. An archived child still
// holds a live foreign key.
func (r *postgresRepository) CountChildren(ctx context.Context, edge catalog.Edge, parentID int64) (int, error) {
	child, ok := r.cat.Entity(edge.Child)
	if !ok {
		return 0, apperr.Internal(fmt.Errorf("unknown edge child %q", edge.Child))
	}

	var count int
	sql := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = $1", child.Table, edge.ForeignKey)
	if err := r.pool.QueryRow(ctx, sql, parentID).Scan(&count); err != nil {
		return 0, dberr.Wrap(err, "count children of "+edge.Parent)
	}
	return count, nil
}

// collect runs a query and scans every row into a [Record].
func (r *postgresRepository) collect(ctx context.Context, sql string, args ...any) ([]Record, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}

	records := make([]Record, len(maps))
	for i, m := range maps {
		records[i] = Record(m)
	}
	return records, nil
}

// asInt64 normalizes driver integer widths.
func recordIDs(records []Record) []int64 {
	ids := make([]int64, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID())
	}
	return ids
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}
