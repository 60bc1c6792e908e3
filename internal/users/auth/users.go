// Copyright (c) 2026 Scriptorium. All rights reserved.

package auth

import (
	"context"

	"github.com/verseworks/scriptorium/internal/content/catalog"
	"github.com/verseworks/scriptorium/internal/content/query"
	"github.com/verseworks/scriptorium/internal/content/store"
	"github.com/verseworks/scriptorium/internal/platform/dberr"
)

// catalogUserSource reads user accounts through the generic repository.
// Archived accounts are invisible here: an archived user can neither sign
// in nor keep using an existing token past its expiry.
type catalogUserSource struct {
	users *catalog.Descriptor
	repo  store.Repository
}

// NewCatalogUserSource constructs a [UserSource] over the catalog's user
// entity.
func NewCatalogUserSource(cat *catalog.Catalog, repo store.Repository) (UserSource, error) {
	users, ok := cat.ByModel("users")
	if !ok {
		return nil, dberr.ErrNotFound
	}
	return &catalogUserSource{users: users, repo: repo}, nil
}

func (source *catalogUserSource) FindByEmail(ctx context.Context, email string) (store.Record, error) {
	intent := query.Intent{
		PerPage: 1,
		Filter: &query.FilterExpr{
			Cond: &query.Condition{Field: "email", Op: query.OpEquals, Value: email},
		},
	}

	records, _, err := source.repo.List(ctx, source.users, intent)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, dberr.ErrNotFound
	}
	return records[0], nil
}

func (source *catalogUserSource) FindByID(ctx context.Context, id int64) (store.Record, error) {
	user, err := source.repo.GetByID(ctx, source.users, id, nil)
	if err != nil {
		return nil, err
	}
	if user.Archived() {
		return nil, dberr.ErrNotFound
	}
	return user, nil
}
