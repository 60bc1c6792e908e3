// Copyright (c) 2026 Scriptorium. All rights reserved.

package content

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/verseworks/scriptorium/internal/content/archive"
	"github.com/verseworks/scriptorium/internal/content/catalog"
	"github.com/verseworks/scriptorium/internal/content/query"
	"github.com/verseworks/scriptorium/internal/platform/apperr"
	"github.com/verseworks/scriptorium/internal/platform/ctxutil"
	"github.com/verseworks/scriptorium/internal/platform/dberr"
	"github.com/verseworks/scriptorium/internal/platform/middleware"
	requestutil "github.com/verseworks/scriptorium/internal/platform/request"
	"github.com/verseworks/scriptorium/internal/platform/respond"
	"github.com/verseworks/scriptorium/internal/platform/sec"
	pkgquery "github.com/verseworks/scriptorium/pkg/query"
	"github.com/verseworks/scriptorium/pkg/slice"
)

// Handler serves the uniform entity surface for every catalog entry.
type Handler struct {
	cat       *catalog.Catalog
	service   *Service
	validator *query.Validator

	// strict fails requests whose filter/include/orderBy is rejected
	// instead of degrading them. Off by default; dashboards prefer a
	// page over a 400.
	strict bool
}

// NewHandler constructs the generic content handler.
func NewHandler(cat *catalog.Catalog, service *Service, strict bool) *Handler {
	return &Handler{
		cat:       cat,
		service:   service,
		validator: query.NewValidator(cat),
		strict:    strict,
	}
}

// RegisterRoutes mounts one identical route set per entity. Reads are
// public; writes require an editor, lifecycle operations an admin.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	for _, desc := range handler.cat.Descriptors() {
		router.Route("/"+desc.Model, func(entityRoute chi.Router) {
			entityRoute.Get("/", handler.list(desc))
			entityRoute.Get("/{ref}", handler.get(desc))

			entityRoute.Group(func(editorRoute chi.Router) {
				editorRoute.Use(middleware.RequireRole(sec.RoleEditor))

				editorRoute.Post("/", handler.create(desc))
				editorRoute.Put("/{id}", handler.update(desc))

				editorRoute.With(middleware.RequireRole(sec.RoleAdmin)).Delete("/{id}", handler.archiveOne(desc))
				editorRoute.With(middleware.RequireRole(sec.RoleAdmin)).Delete("/", handler.archiveMany(desc))
			})
		})
	}

	// Lifecycle operations on already-archived records.
	router.Route("/archives", func(archiveRoute chi.Router) {
		archiveRoute.Use(middleware.RequireRole(sec.RoleAdmin))
		archiveRoute.Post("/restore", handler.restore)
		archiveRoute.Post("/dump", handler.dump)
	})
}

// # Read Handlers

func (handler *Handler) list(desc *catalog.Descriptor) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		result := handler.validator.Validate(desc, query.Decode(request))
		if result.Rejected() {
			handler.logRejection(request, desc, result)
			if handler.strict {
				respond.Error(writer, request, apperr.ValidationError(rejectionReason(result)))
				return
			}
		}

		records, meta, err := handler.service.List(request.Context(), desc, result.Intent)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}
		respond.Paginated(writer, records, meta)
	}
}

func (handler *Handler) get(desc *catalog.Descriptor) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		result := handler.validator.Validate(desc, query.Decode(request))
		if result.Rejected() {
			handler.logRejection(request, desc, result)
			if handler.strict {
				respond.Error(writer, request, apperr.ValidationError(rejectionReason(result)))
				return
			}
		}

		rec, err := handler.service.Get(request.Context(), desc, requestutil.Param(request, "ref"), result.Intent.Include)
		if errors.Is(err, dberr.ErrNotFound) {
			// Read paths answer "no such record" with a successful null,
			// not an error envelope.
			respond.Null(writer)
			return
		}
		if err != nil {
			respond.Error(writer, request, err)
			return
		}
		respond.OK(writer, rec)
	}
}

// # Write Handlers

func (handler *Handler) create(desc *catalog.Descriptor) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		var payload map[string]any
		if err := requestutil.DecodeJSON(request, &payload); err != nil {
			respond.Error(writer, request, err)
			return
		}

		rec, err := handler.service.Create(request.Context(), desc, payload)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}
		respond.Created(writer, rec)
	}
}

func (handler *Handler) update(desc *catalog.Descriptor) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, ok := parseID(requestutil.Param(request, "id"))
		if !ok {
			respond.Error(writer, request, apperr.ValidationError("Invalid id"))
			return
		}

		var payload map[string]any
		if err := requestutil.DecodeJSON(request, &payload); err != nil {
			respond.Error(writer, request, err)
			return
		}

		rec, err := handler.service.Update(request.Context(), desc, id, payload)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}
		respond.OK(writer, rec)
	}
}

// # Lifecycle Handlers

func (handler *Handler) archiveOne(desc *catalog.Descriptor) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, ok := parseID(requestutil.Param(request, "id"))
		if !ok {
			respond.Error(writer, request, apperr.ValidationError("Invalid id"))
			return
		}
		handler.writeOutcomes(writer, request, handler.service.Archive(request.Context(), desc, []int64{id}))
	}
}

// archiveMany handles DELETE /{resource}?ids=1,2,3 as a bulk soft delete.
func (handler *Handler) archiveMany(desc *catalog.Descriptor) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		ids := slice.Map(pkgquery.IDs(request.URL.Query().Get("ids")), func(id int) int64 { return int64(id) })
		if len(ids) == 0 {
			respond.Error(writer, request, apperr.ValidationError("ids is required"))
			return
		}
		handler.writeOutcomes(writer, request, handler.service.Archive(request.Context(), desc, ids))
	}
}

// actionBody is the payload of the archive lifecycle endpoints.
type actionBody struct {
	Model string  `json:"model"`
	IDs   []int64 `json:"ids"`
}

func (handler *Handler) restore(writer http.ResponseWriter, request *http.Request) {
	handler.lifecycle(writer, request, handler.service.Restore)
}

// dump permanently deletes archived records.
func (handler *Handler) dump(writer http.ResponseWriter, request *http.Request) {
	handler.lifecycle(writer, request, handler.service.Purge)
}

func (handler *Handler) lifecycle(writer http.ResponseWriter, request *http.Request, op func(ctx context.Context, desc *catalog.Descriptor, ids []int64) []archive.IDOutcome) {
	var body actionBody
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	desc, ok := handler.cat.ByModel(body.Model)
	if !ok {
		respond.Error(writer, request, apperr.ValidationError("Unknown model",
			apperr.FieldError{Field: "model", Message: "Unknown model"}))
		return
	}
	if len(body.IDs) == 0 {
		respond.Error(writer, request, apperr.ValidationError("ids is required",
			apperr.FieldError{Field: "ids", Message: "At least one id is required"}))
		return
	}

	handler.writeOutcomes(writer, request, op(request.Context(), desc, body.IDs))
}

// writeOutcomes reports a bulk result: a clean success envelope when every
// id succeeded, otherwise succeed=false with the first failure's code and
// the per-id outcomes in data.
func (handler *Handler) writeOutcomes(writer http.ResponseWriter, request *http.Request, outcomes []archive.IDOutcome) {
	if archive.Succeeded(outcomes) {
		respond.OK(writer, outcomes)
		return
	}
	for _, o := range outcomes {
		if o.Code != apperr.CodeSuccess {
			respond.Partial(writer, o.Code, outcomes)
			return
		}
	}
}

// # Helpers

func (handler *Handler) logRejection(request *http.Request, desc *catalog.Descriptor, result query.Result) {
	ctxutil.GetLogger(request.Context()).WarnContext(request.Context(), "query_rejected",
		slog.String("entity", desc.Name),
		slog.String("reason", rejectionReason(result)),
	)
}

func rejectionReason(result query.Result) string {
	for _, outcome := range []query.Outcome{result.Filter, result.Include, result.OrderBy} {
		if outcome.Status == query.Rejected {
			return outcome.Reason
		}
	}
	return "invalid query"
}
