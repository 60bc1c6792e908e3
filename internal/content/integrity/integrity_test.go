// Copyright (c) 2026 Scriptorium. All rights reserved.

package integrity_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verseworks/scriptorium/internal/content/catalog"
	"github.com/verseworks/scriptorium/internal/content/integrity"
	"github.com/verseworks/scriptorium/internal/content/store"
	"github.com/verseworks/scriptorium/internal/platform/apperr"
)

func TestCheck(t *testing.T) {
	ctx := context.Background()
	cat := catalog.New()
	repo := store.NewMemoryRepository(cat)
	checker := integrity.NewChecker(cat, repo)

	books, _ := cat.ByModel("books")
	chapters, _ := cat.ByModel("chapters")
	verses, _ := cat.ByModel("verses")

	book, err := repo.Create(ctx, books, store.Record{"name": "Genesis", "slug": "genesis"})
	require.NoError(t, err)

	t.Run("unreferenced_record_passes", func(t *testing.T) {
		assert.NoError(t, checker.Check(ctx, books, book.ID()))
	})

	chapter, err := repo.Create(ctx, chapters, store.Record{"name": "Ch 1", "number": int64(1), "book_id": book.ID()})
	require.NoError(t, err)

	t.Run("referenced_record_is_data_linked", func(t *testing.T) {
		err := checker.Check(ctx, books, book.ID())
		require.Error(t, err)
		assert.Equal(t, apperr.CodeDataLinked, apperr.Code(err))
		// The dependent entity is named for client messaging.
		assert.Contains(t, err.Error(), "chapters")
	})

	t.Run("archived_child_still_blocks", func(t *testing.T) {
		_, err := repo.SetArchived(ctx, chapters, chapter.ID(), true)
		require.NoError(t, err)
		assert.Equal(t, apperr.CodeDataLinked, apperr.Code(checker.Check(ctx, books, book.ID())))
	})

	t.Run("entity_without_children_passes", func(t *testing.T) {
		topics, _ := cat.ByModel("topics")
		topic, err := repo.Create(ctx, topics, store.Record{"name": "Creation", "number": int64(1), "chapter_id": chapter.ID()})
		require.NoError(t, err)
		verse, err := repo.Create(ctx, verses, store.Record{"number": int64(1), "text": "In the beginning", "topic_id": topic.ID()})
		require.NoError(t, err)

		// Verses gate on commentaries and notes; with none present the
		// verse is deletable even though it references its topic upward.
		assert.NoError(t, checker.Check(ctx, verses, verse.ID()))
	})
}
