// Copyright (c) 2026 Scriptorium. All rights reserved.

/*
Package store provides the generic repository executing validated query
intents against entity tables.

One implementation serves every entity in the catalog: the descriptor passed
to each call supplies the table, the column list, and the relations, so
adding an entity to the corpus requires no new data-access code.

Two implementations exist: a pgx-backed PostgreSQL repository for production
and an in-memory repository used by service and handler tests.
*/
package store

import (
	"context"

	"github.com/verseworks/scriptorium/internal/content/catalog"
	"github.com/verseworks/scriptorium/internal/content/query"
)

// Record is one entity row as a dynamic field map. Field names match the
// catalog declaration; values are int64, string, bool, or time.Time.
type Record map[string]any

// ID returns the record's primary key, tolerating the integer widths
// different drivers hand back.
func (r Record) ID() int64 {
	switch v := r["id"].(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

// Archived reports the record's archived flag.
func (r Record) Archived() bool {
	archived, _ := r["archived"].(bool)
	return archived
}

// String returns the named field as a string, or "" when absent.
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// Clone returns a shallow copy so callers can strip or attach fields
// without mutating cached rows.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Repository is the generic data-access contract shared by every entity.
//
// List applies the intent's filter, ordering, and pagination in two phases
// (a count, then the page) and returns the page plus the total match count.
// Records that are archived are excluded unless the intent's filter itself
// references the archived field.
//
// DeleteOne removes a row permanently inside a transaction: it re-verifies
// the archived state and the absence of dependent child rows under lock
// before deleting, so a concurrent restore or child insert cannot slip
// between check and delete.
type Repository interface {
	List(ctx context.Context, desc *catalog.Descriptor, intent query.Intent) ([]Record, int, error)
	GetByID(ctx context.Context, desc *catalog.Descriptor, id int64, include query.IncludeSet) (Record, error)
	GetBySlug(ctx context.Context, desc *catalog.Descriptor, slug string, include query.IncludeSet) (Record, error)
	Create(ctx context.Context, desc *catalog.Descriptor, values Record) (Record, error)
	Update(ctx context.Context, desc *catalog.Descriptor, id int64, values Record) (Record, error)
	SetArchived(ctx context.Context, desc *catalog.Descriptor, id int64, archived bool) (Record, error)
	DeleteOne(ctx context.Context, desc *catalog.Descriptor, id int64) error
	CountChildren(ctx context.Context, edge catalog.Edge, parentID int64) (int, error)
}
