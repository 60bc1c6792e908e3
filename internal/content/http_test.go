// Copyright (c) 2026 Scriptorium. All rights reserved.

package content_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verseworks/scriptorium/internal/content"
	"github.com/verseworks/scriptorium/internal/content/archive"
	"github.com/verseworks/scriptorium/internal/content/catalog"
	"github.com/verseworks/scriptorium/internal/content/integrity"
	"github.com/verseworks/scriptorium/internal/content/store"
	"github.com/verseworks/scriptorium/internal/platform/apperr"
	"github.com/verseworks/scriptorium/internal/platform/ctxutil"
	"github.com/verseworks/scriptorium/internal/platform/sec"
	"github.com/verseworks/scriptorium/pkg/pagination"
)

// envelope mirrors the wire shape of every API response.
type envelope struct {
	Succeed    bool                `json:"succeed"`
	Code       string              `json:"code"`
	Data       json.RawMessage     `json:"data"`
	Pagination *pagination.Meta    `json:"pagination"`
	Details    []apperr.FieldError `json:"details"`
}

type api struct {
	router http.Handler
	repo   store.Repository
	cat    *catalog.Catalog
}

func newAPI(t *testing.T, strict bool, role sec.UserRole) *api {
	t.Helper()

	cat := catalog.New()
	repo := store.NewMemoryRepository(cat)
	manager := archive.NewManager(repo, integrity.NewChecker(cat, repo))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := content.NewService(cat, repo, manager, logger)
	service.RegisterHook("user", content.PasswordHashing())

	router := chi.NewRouter()
	if role != "" {
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				ctx := ctxutil.WithAuthUser(request.Context(), &sec.AuthClaims{UserID: "1", Role: string(role)})
				next.ServeHTTP(writer, request.WithContext(ctx))
			})
		})
	}
	content.NewHandler(cat, service, strict).RegisterRoutes(router)

	return &api{router: router, repo: repo, cat: cat}
}

func (a *api) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	recorder := httptest.NewRecorder()
	a.router.ServeHTTP(recorder, httptest.NewRequest(method, path, reader))

	var env envelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &env))
	return recorder, env
}

func (a *api) seedBook(t *testing.T, name, slug string) store.Record {
	t.Helper()
	books, _ := a.cat.ByModel("books")
	rec, err := a.repo.Create(context.Background(), books, store.Record{"name": name, "slug": slug})
	require.NoError(t, err)
	return rec
}

func TestListEndpoint(t *testing.T) {
	a := newAPI(t, false, sec.RoleAdmin)
	a.seedBook(t, "Genesis", "genesis")
	a.seedBook(t, "Exodus", "exodus")

	recorder, env := a.do(t, http.MethodGet, "/books?perPage=1&page=2", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.True(t, env.Succeed)
	assert.Equal(t, apperr.CodeSuccess, env.Code)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 2, env.Pagination.Page)
	assert.Equal(t, 2, env.Pagination.Results)
	assert.Equal(t, 2, env.Pagination.TotalPages)

	var page []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page, 1)
	// Default sort for books is name ascending: page two holds Genesis.
	assert.Equal(t, "Genesis", page[0]["name"])
}

func TestListEndpoint_RejectedFilter(t *testing.T) {
	t.Run("lenient_degrades_to_full_list", func(t *testing.T) {
		a := newAPI(t, false, sec.RoleAdmin)
		a.seedBook(t, "Genesis", "genesis")

		recorder, env := a.do(t, http.MethodGet, `/books?where={"secret":"x"}`, nil)
		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.True(t, env.Succeed)
		assert.Equal(t, 1, env.Pagination.Results)
	})

	t.Run("strict_fails_the_request", func(t *testing.T) {
		a := newAPI(t, true, sec.RoleAdmin)
		a.seedBook(t, "Genesis", "genesis")

		recorder, env := a.do(t, http.MethodGet, `/books?where={"secret":"x"}`, nil)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.False(t, env.Succeed)
		assert.Equal(t, apperr.CodeValidation, env.Code)
	})
}

func TestGetEndpoint(t *testing.T) {
	a := newAPI(t, false, sec.RoleAdmin)
	book := a.seedBook(t, "Genesis", "genesis")

	t.Run("by_id", func(t *testing.T) {
		_, env := a.do(t, http.MethodGet, "/books/1", nil)
		assert.True(t, env.Succeed)
		var rec map[string]any
		require.NoError(t, json.Unmarshal(env.Data, &rec))
		assert.Equal(t, "Genesis", rec["name"])
	})

	t.Run("by_slug_with_include", func(t *testing.T) {
		chapters, _ := a.cat.ByModel("chapters")
		_, err := a.repo.Create(context.Background(), chapters,
			store.Record{"name": "Ch 1", "number": int64(1), "book_id": book.ID()})
		require.NoError(t, err)

		_, env := a.do(t, http.MethodGet, `/books/genesis?include={"chapters":true}`, nil)
		var rec map[string]any
		require.NoError(t, json.Unmarshal(env.Data, &rec))
		assert.Equal(t, "Genesis", rec["name"])
		assert.Len(t, rec["chapters"], 1)
	})

	t.Run("missing_record_is_null_not_error", func(t *testing.T) {
		recorder, env := a.do(t, http.MethodGet, "/books/999", nil)
		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.True(t, env.Succeed)
		assert.Equal(t, "null", string(env.Data))
	})
}

func TestCreateEndpoint(t *testing.T) {
	a := newAPI(t, false, sec.RoleAdmin)

	t.Run("generates_slug_when_absent", func(t *testing.T) {
		recorder, env := a.do(t, http.MethodPost, "/books", map[string]any{"name": "Sách Sáng Thế"})
		assert.Equal(t, http.StatusCreated, recorder.Code)
		require.True(t, env.Succeed)

		var rec map[string]any
		require.NoError(t, json.Unmarshal(env.Data, &rec))
		assert.Equal(t, "sach-sang-the", rec["slug"])
	})

	t.Run("duplicate_slug_conflict", func(t *testing.T) {
		recorder, env := a.do(t, http.MethodPost, "/books", map[string]any{"name": "Sách Sáng Thế"})
		assert.Equal(t, http.StatusConflict, recorder.Code)
		assert.False(t, env.Succeed)
		assert.Equal(t, apperr.CodeSlugTaken, env.Code)
	})

	t.Run("missing_required_field", func(t *testing.T) {
		recorder, env := a.do(t, http.MethodPost, "/books", map[string]any{"abbreviation": "GEN"})
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, apperr.CodeValidation, env.Code)
		require.NotEmpty(t, env.Details)
		assert.Equal(t, "name", env.Details[0].Field)
	})

	t.Run("digits_only_slug_refused", func(t *testing.T) {
		// "42" would parse as an id in GET /books/{ref} and the record
		// could never be fetched by its slug.
		recorder, env := a.do(t, http.MethodPost, "/books", map[string]any{"name": "Book 42", "slug": "42"})
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, apperr.CodeValidation, env.Code)
		require.NotEmpty(t, env.Details)
		assert.Equal(t, "slug", env.Details[0].Field)
	})

	t.Run("numeric_name_slug_stays_resolvable", func(t *testing.T) {
		recorder, env := a.do(t, http.MethodPost, "/books", map[string]any{"name": "42"})
		assert.Equal(t, http.StatusCreated, recorder.Code)
		require.True(t, env.Succeed)

		var rec map[string]any
		require.NoError(t, json.Unmarshal(env.Data, &rec))
		assert.Equal(t, "n-42", rec["slug"])

		_, got := a.do(t, http.MethodGet, "/books/n-42", nil)
		require.True(t, got.Succeed)
		var fetched map[string]any
		require.NoError(t, json.Unmarshal(got.Data, &fetched))
		assert.Equal(t, "42", fetched["name"])
	})

	t.Run("unknown_field_refused", func(t *testing.T) {
		recorder, _ := a.do(t, http.MethodPost, "/books", map[string]any{"name": "Ruth", "rating": 5})
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("password_is_hashed_and_hidden", func(t *testing.T) {
		_, env := a.do(t, http.MethodPost, "/users", map[string]any{
			"name": "Ada", "email": "ada@example.com", "password": "correct horse",
		})
		require.True(t, env.Succeed)

		var rec map[string]any
		require.NoError(t, json.Unmarshal(env.Data, &rec))
		_, exposed := rec["password"]
		assert.False(t, exposed)

		users, _ := a.cat.ByModel("users")
		stored, err := a.repo.GetByID(context.Background(), users, 1, nil)
		require.NoError(t, err)
		assert.True(t, sec.CheckPasswordHash("correct horse", stored.String("password")))
	})
}

func TestUpdateEndpoint(t *testing.T) {
	a := newAPI(t, false, sec.RoleAdmin)
	a.seedBook(t, "Genesis", "genesis")

	_, env := a.do(t, http.MethodPut, "/books/1", map[string]any{"abbreviation": "GEN"})
	require.True(t, env.Succeed)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &rec))
	// Partial update: untouched fields survive.
	assert.Equal(t, "GEN", rec["abbreviation"])
	assert.Equal(t, "Genesis", rec["name"])

	recorder, env := a.do(t, http.MethodPut, "/books/999", map[string]any{"abbreviation": "X"})
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Equal(t, apperr.CodeNotFound, env.Code)
}

func TestArchiveEndpoints(t *testing.T) {
	a := newAPI(t, false, sec.RoleAdmin)
	a.seedBook(t, "Genesis", "genesis")
	a.seedBook(t, "Exodus", "exodus")

	recorder, env := a.do(t, http.MethodDelete, "/books/1", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.True(t, env.Succeed)

	// The archived book leaves the default listing.
	_, env = a.do(t, http.MethodGet, "/books", nil)
	assert.Equal(t, 1, env.Pagination.Results)

	// Bulk archive via the ids query parameter.
	_, env = a.do(t, http.MethodDelete, "/books?ids=2", nil)
	assert.True(t, env.Succeed)
	_, env = a.do(t, http.MethodGet, "/books", nil)
	assert.Equal(t, 0, env.Pagination.Results)

	// And back through /archives/restore.
	_, env = a.do(t, http.MethodPost, "/archives/restore", map[string]any{"model": "books", "ids": []int64{1, 2}})
	assert.True(t, env.Succeed)
	_, env = a.do(t, http.MethodGet, "/books", nil)
	assert.Equal(t, 2, env.Pagination.Results)
}

func TestDumpEndpoint_PartialFailure(t *testing.T) {
	a := newAPI(t, false, sec.RoleAdmin)
	ctx := context.Background()

	plain := a.seedBook(t, "Obadiah", "obadiah")
	linked := a.seedBook(t, "Psalms", "psalms")
	chapters, _ := a.cat.ByModel("chapters")
	_, err := a.repo.Create(ctx, chapters, store.Record{"name": "Psalm 1", "number": int64(1), "book_id": linked.ID()})
	require.NoError(t, err)

	_, env := a.do(t, http.MethodDelete, "/books?ids=1,2", nil)
	require.True(t, env.Succeed)

	recorder, env := a.do(t, http.MethodPost, "/archives/dump",
		map[string]any{"model": "books", "ids": []int64{plain.ID(), linked.ID()}})
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.False(t, env.Succeed)
	assert.Equal(t, apperr.CodeDataLinked, env.Code)

	var outcomes []archive.IDOutcome
	require.NoError(t, json.Unmarshal(env.Data, &outcomes))
	require.Len(t, outcomes, 2)
	assert.Equal(t, apperr.CodeSuccess, outcomes[0].Code)
	assert.Equal(t, apperr.CodeDataLinked, outcomes[1].Code)

	_, env = a.do(t, http.MethodPost, "/archives/dump", map[string]any{"model": "nope", "ids": []int64{1}})
	assert.Equal(t, apperr.CodeValidation, env.Code)
}

func TestAuthorization(t *testing.T) {
	t.Run("anonymous_reads_allowed", func(t *testing.T) {
		a := newAPI(t, false, "")
		recorder, _ := a.do(t, http.MethodGet, "/books", nil)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("anonymous_write_unauthorized", func(t *testing.T) {
		a := newAPI(t, false, "")
		recorder, env := a.do(t, http.MethodPost, "/books", map[string]any{"name": "X"})
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Equal(t, apperr.CodeUnauthorized, env.Code)
	})

	t.Run("member_write_forbidden", func(t *testing.T) {
		a := newAPI(t, false, sec.RoleMember)
		recorder, env := a.do(t, http.MethodPost, "/books", map[string]any{"name": "X"})
		assert.Equal(t, http.StatusForbidden, recorder.Code)
		assert.Equal(t, apperr.CodeForbidden, env.Code)
	})

	t.Run("editor_cannot_archive", func(t *testing.T) {
		a := newAPI(t, false, sec.RoleEditor)
		recorder, _ := a.do(t, http.MethodDelete, "/books/1", nil)
		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})
}
