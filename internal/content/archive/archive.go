// Copyright (c) 2026 Scriptorium. All rights reserved.

/*
Package archive implements the record lifecycle: Active ⇄ Archived → Deleted.

Archiving is the only door out of the active set and restoring is the only
door back in. Permanent deletion is reachable solely from the archived
state and only for records nothing depends on, so a delete can never
strand a child row.

Bulk operations never fail as a whole: every id gets its own outcome, and
one blocked record leaves the others untouched.
*/
package archive

import (
	"context"
	"errors"

	"github.com/verseworks/scriptorium/internal/content/catalog"
	"github.com/verseworks/scriptorium/internal/content/integrity"
	"github.com/verseworks/scriptorium/internal/content/store"
	"github.com/verseworks/scriptorium/internal/platform/apperr"
	"github.com/verseworks/scriptorium/internal/platform/dberr"
)

// IDOutcome is the per-record result of a bulk lifecycle operation.
type IDOutcome struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	// Message carries the client-safe reason for non-success codes.
	Message string `json:"message,omitempty"`
}

// Succeeded reports whether every outcome in the batch carries SUCCESS.
func Succeeded(outcomes []IDOutcome) bool {
	for _, o := range outcomes {
		if o.Code != apperr.CodeSuccess {
			return false
		}
	}
	return true
}

// Manager drives lifecycle transitions through the generic repository.
type Manager struct {
	repo    store.Repository
	checker *integrity.Checker
}

// NewManager constructs a lifecycle manager.
func NewManager(repo store.Repository, checker *integrity.Checker) *Manager {
	return &Manager{repo: repo, checker: checker}
}

// Archive moves records out of the active set. Archiving an already
// archived record is a no-op success, so retried requests stay clean.
func (m *Manager) Archive(ctx context.Context, desc *catalog.Descriptor, ids []int64) []IDOutcome {
	return m.each(ids, func(id int64) error {
		_, err := m.repo.SetArchived(ctx, desc, id, true)
		return err
	})
}

// Restore moves archived records back into the active set. Because unique
// fields keep their namespace slot while archived, a restore can never
// collide with a record created in the meantime.
func (m *Manager) Restore(ctx context.Context, desc *catalog.Descriptor, ids []int64) []IDOutcome {
	return m.each(ids, func(id int64) error {
		_, err := m.repo.SetArchived(ctx, desc, id, false)
		return err
	})
}

// Delete permanently removes archived records.
//
// Each id is gated twice: the record must be archived (NOT_ARCHIVED
// otherwise, the Active → Deleted shortcut does not exist) and no child
// row may reference it (DATA_LINKED). A blocked record keeps its archived
// state so the client can resolve the dependents and retry.
func (m *Manager) Delete(ctx context.Context, desc *catalog.Descriptor, ids []int64) []IDOutcome {
	return m.each(ids, func(id int64) error {
		rec, err := m.repo.GetByID(ctx, desc, id, nil)
		if err != nil {
			return err
		}
		if !rec.Archived() {
			return apperr.NotArchived(desc.Name)
		}
		if err := m.checker.Check(ctx, desc, id); err != nil {
			return err
		}
		// DeleteOne re-verifies both gates inside its transaction.
		return m.repo.DeleteOne(ctx, desc, id)
	})
}

func (m *Manager) each(ids []int64, op func(id int64) error) []IDOutcome {
	outcomes := make([]IDOutcome, 0, len(ids))
	for _, id := range ids {
		outcomes = append(outcomes, outcome(id, op(id)))
	}
	return outcomes
}

func outcome(id int64, err error) IDOutcome {
	if err == nil {
		return IDOutcome{ID: id, Code: apperr.CodeSuccess}
	}
	if errors.Is(err, dberr.ErrNotFound) {
		return IDOutcome{ID: id, Code: apperr.CodeNotFound, Message: "Record not found"}
	}
	if ae := apperr.As(err); ae != nil {
		return IDOutcome{ID: id, Code: ae.Code, Message: ae.Message}
	}
	return IDOutcome{ID: id, Code: apperr.CodeUnknown, Message: "An unexpected error occurred"}
}
