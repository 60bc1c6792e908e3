// Copyright (c) 2026 Scriptorium. All rights reserved.

package archive_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verseworks/scriptorium/internal/content/archive"
	"github.com/verseworks/scriptorium/internal/content/catalog"
	"github.com/verseworks/scriptorium/internal/content/integrity"
	"github.com/verseworks/scriptorium/internal/content/store"
	"github.com/verseworks/scriptorium/internal/platform/apperr"
)

type world struct {
	cat     *catalog.Catalog
	repo    store.Repository
	manager *archive.Manager
}

func newWorld() *world {
	cat := catalog.New()
	repo := store.NewMemoryRepository(cat)
	return &world{
		cat:     cat,
		repo:    repo,
		manager: archive.NewManager(repo, integrity.NewChecker(cat, repo)),
	}
}

func (w *world) book(t *testing.T, name, slug string) store.Record {
	t.Helper()
	books, _ := w.cat.ByModel("books")
	rec, err := w.repo.Create(context.Background(), books, store.Record{"name": name, "slug": slug})
	require.NoError(t, err)
	return rec
}

func codes(outcomes []archive.IDOutcome) map[int64]string {
	out := make(map[int64]string, len(outcomes))
	for _, o := range outcomes {
		out[o.ID] = o.Code
	}
	return out
}

func TestArchiveRestore_RoundTrip(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	books, _ := w.cat.ByModel("books")
	book := w.book(t, "Genesis", "genesis")

	outcomes := w.manager.Archive(ctx, books, []int64{book.ID()})
	require.True(t, archive.Succeeded(outcomes))
	rec, err := w.repo.GetByID(ctx, books, book.ID(), nil)
	require.NoError(t, err)
	assert.True(t, rec.Archived())

	// Archiving twice is idempotent.
	assert.True(t, archive.Succeeded(w.manager.Archive(ctx, books, []int64{book.ID()})))

	outcomes = w.manager.Restore(ctx, books, []int64{book.ID()})
	require.True(t, archive.Succeeded(outcomes))
	rec, err = w.repo.GetByID(ctx, books, book.ID(), nil)
	require.NoError(t, err)
	assert.False(t, rec.Archived())
}

func TestDelete_RequiresArchivedState(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	books, _ := w.cat.ByModel("books")
	book := w.book(t, "Genesis", "genesis")

	// Active → Deleted does not exist as a transition.
	outcomes := w.manager.Delete(ctx, books, []int64{book.ID()})
	require.Len(t, outcomes, 1)
	assert.Equal(t, apperr.CodeNotArchived, outcomes[0].Code)
	assert.False(t, archive.Succeeded(outcomes))

	w.manager.Archive(ctx, books, []int64{book.ID()})
	outcomes = w.manager.Delete(ctx, books, []int64{book.ID()})
	assert.True(t, archive.Succeeded(outcomes))
}

func TestDelete_BulkPartialOutcomes(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	books, _ := w.cat.ByModel("books")
	chapters, _ := w.cat.ByModel("chapters")

	plain := w.book(t, "Obadiah", "obadiah")
	linked := w.book(t, "Psalms", "psalms")
	_, err := w.repo.Create(ctx, chapters, store.Record{"name": "Psalm 1", "number": int64(1), "book_id": linked.ID()})
	require.NoError(t, err)

	w.manager.Archive(ctx, books, []int64{plain.ID(), linked.ID()})

	missing := int64(999)
	outcomes := w.manager.Delete(ctx, books, []int64{plain.ID(), linked.ID(), missing})
	require.Len(t, outcomes, 3)

	got := codes(outcomes)
	assert.Equal(t, apperr.CodeSuccess, got[plain.ID()])
	assert.Equal(t, apperr.CodeDataLinked, got[linked.ID()])
	assert.Equal(t, apperr.CodeNotFound, got[missing])

	// The blocked record keeps its archived state for a later retry.
	rec, err := w.repo.GetByID(ctx, books, linked.ID(), nil)
	require.NoError(t, err)
	assert.True(t, rec.Archived())

	// The successful one is really gone.
	_, err = w.repo.GetByID(ctx, books, plain.ID(), nil)
	assert.Error(t, err)
}

func TestOutcome_MessagesNameDependents(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	books, _ := w.cat.ByModel("books")
	chapters, _ := w.cat.ByModel("chapters")

	book := w.book(t, "Psalms", "psalms")
	_, err := w.repo.Create(ctx, chapters, store.Record{"name": "Psalm 1", "number": int64(1), "book_id": book.ID()})
	require.NoError(t, err)

	w.manager.Archive(ctx, books, []int64{book.ID()})
	outcomes := w.manager.Delete(ctx, books, []int64{book.ID()})
	require.Len(t, outcomes, 1)
	assert.Contains(t, outcomes[0].Message, "chapters")
}
