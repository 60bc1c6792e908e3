// Copyright (c) 2026 Scriptorium. All rights reserved.

/*
Package content exposes the corpus entities through one generic service and
one generic HTTP handler.

Every entity in the catalog gets the same surface: filtered and paginated
listing, reads by id or slug, validated create and update, archival instead
of deletion, and permanent removal only out of the archive. Entity-specific
behavior (password hashing for users, say) attaches through hooks instead
of per-entity service types.
*/
package content

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/verseworks/scriptorium/internal/content/archive"
	"github.com/verseworks/scriptorium/internal/content/catalog"
	"github.com/verseworks/scriptorium/internal/content/query"
	"github.com/verseworks/scriptorium/internal/content/store"
	"github.com/verseworks/scriptorium/internal/platform/apperr"
	"github.com/verseworks/scriptorium/internal/platform/validate"
	"github.com/verseworks/scriptorium/pkg/pagination"
	"github.com/verseworks/scriptorium/pkg/slice"
	"github.com/verseworks/scriptorium/pkg/slug"
)

// Hook runs before a record is written. Hooks may rewrite the values map;
// returning an error aborts the write.
type Hook func(ctx context.Context, desc *catalog.Descriptor, values store.Record) error

// Service is the generic business layer shared by every catalog entity.
type Service struct {
	cat     *catalog.Catalog
	repo    store.Repository
	manager *archive.Manager
	logger  *slog.Logger
	hooks   map[string][]Hook
}

// NewService constructs the content service.
func NewService(cat *catalog.Catalog, repo store.Repository, manager *archive.Manager, logger *slog.Logger) *Service {
	return &Service{
		cat:     cat,
		repo:    repo,
		manager: manager,
		logger:  logger,
		hooks:   make(map[string][]Hook),
	}
}

// RegisterHook attaches a pre-write hook to one entity.
func (service *Service) RegisterHook(entity string, hook Hook) {
	service.hooks[entity] = append(service.hooks[entity], hook)
}

// # Reads

// List executes a validated query intent and returns one page plus the
// pagination metadata for the full match count.
func (service *Service) List(ctx context.Context, desc *catalog.Descriptor, intent query.Intent) ([]store.Record, pagination.Meta, error) {
	records, total, err := service.repo.List(ctx, desc, intent)
	if err != nil {
		return nil, pagination.Meta{}, err
	}

	params := intent.Params().Normalize()
	records = slice.Map(records, func(rec store.Record) store.Record {
		return service.sanitize(desc, rec)
	})
	return records, pagination.NewMeta(params.Page, params.PerPage, total), nil
}

// Get resolves a reference that is either a numeric id or, for sluggable
// entities, a slug. The two namespaces cannot collide because slugs never
// consist of digits alone.
func (service *Service) Get(ctx context.Context, desc *catalog.Descriptor, ref string, include query.IncludeSet) (store.Record, error) {
	var rec store.Record
	var err error

	if id, numeric := parseID(ref); numeric {
		rec, err = service.repo.GetByID(ctx, desc, id, include)
	} else if desc.HasSlug() {
		rec, err = service.repo.GetBySlug(ctx, desc, ref, include)
	} else {
		return nil, apperr.ValidationError("Invalid id")
	}

	if err != nil {
		return nil, err
	}
	return service.sanitize(desc, rec), nil
}

// # Writes

// Create validates the payload against the entity's field specification,
// fills in a generated slug when the client supplied none, runs the
// entity's hooks, and inserts the record.
func (service *Service) Create(ctx context.Context, desc *catalog.Descriptor, payload map[string]any) (store.Record, error) {
	values, err := buildValues(desc, payload, false)
	if err != nil {
		return nil, err
	}

	if desc.HasSlug() && values.String("slug") == "" {
		values["slug"] = slug.From(values.String(desc.SlugSource))
	}
	if err := service.runHooks(ctx, desc, values); err != nil {
		return nil, err
	}

	rec, err := service.repo.Create(ctx, desc, values)
	if err != nil {
		return nil, err
	}

	service.logger.Info("record_created",
		slog.String("entity", desc.Name),
		slog.Int64("id", rec.ID()),
	)
	return service.sanitize(desc, rec), nil
}

// Update applies a partial payload: only the fields present in the body
// are validated and written.
func (service *Service) Update(ctx context.Context, desc *catalog.Descriptor, id int64, payload map[string]any) (store.Record, error) {
	values, err := buildValues(desc, payload, true)
	if err != nil {
		return nil, err
	}
	if err := service.runHooks(ctx, desc, values); err != nil {
		return nil, err
	}

	rec, err := service.repo.Update(ctx, desc, id, values)
	if err != nil {
		return nil, err
	}

	service.logger.Info("record_updated",
		slog.String("entity", desc.Name),
		slog.Int64("id", id),
	)
	return service.sanitize(desc, rec), nil
}

// # Lifecycle

// Archive soft-deletes a batch of records, one outcome per id.
func (service *Service) Archive(ctx context.Context, desc *catalog.Descriptor, ids []int64) []archive.IDOutcome {
	outcomes := service.manager.Archive(ctx, desc, ids)
	service.logOutcomes(ctx, "records_archived", desc, outcomes)
	return outcomes
}

// Restore brings archived records back to the active set.
func (service *Service) Restore(ctx context.Context, desc *catalog.Descriptor, ids []int64) []archive.IDOutcome {
	outcomes := service.manager.Restore(ctx, desc, ids)
	service.logOutcomes(ctx, "records_restored", desc, outcomes)
	return outcomes
}

// Purge permanently deletes archived, unreferenced records.
func (service *Service) Purge(ctx context.Context, desc *catalog.Descriptor, ids []int64) []archive.IDOutcome {
	outcomes := service.manager.Delete(ctx, desc, ids)
	service.logOutcomes(ctx, "records_purged", desc, outcomes)
	return outcomes
}

func (service *Service) logOutcomes(ctx context.Context, event string, desc *catalog.Descriptor, outcomes []archive.IDOutcome) {
	failed := slice.Filter(outcomes, func(o archive.IDOutcome) bool {
		return o.Code != apperr.CodeSuccess
	})
	service.logger.InfoContext(ctx, event,
		slog.String("entity", desc.Name),
		slog.Int("requested", len(outcomes)),
		slog.Int("failed", len(failed)),
	)
}

func (service *Service) runHooks(ctx context.Context, desc *catalog.Descriptor, values store.Record) error {
	for _, hook := range service.hooks[desc.Name] {
		if err := hook(ctx, desc, values); err != nil {
			return err
		}
	}
	return nil
}

// sanitize strips hidden fields from a record and from every included
// relation before it leaves the service layer.
func (service *Service) sanitize(desc *catalog.Descriptor, rec store.Record) store.Record {
	if rec == nil {
		return nil
	}

	out := rec.Clone()
	for _, field := range desc.Fields {
		if field.Hidden {
			delete(out, field.Name)
		}
	}
	for _, relation := range desc.Relations {
		attached, ok := out[relation.Name]
		if !ok {
			continue
		}
		target, ok := service.cat.Entity(relation.Entity)
		if !ok {
			continue
		}
		switch typed := attached.(type) {
		case store.Record:
			out[relation.Name] = service.sanitize(target, typed)
		case []store.Record:
			cleaned := make([]store.Record, len(typed))
			for i, child := range typed {
				cleaned[i] = service.sanitize(target, child)
			}
			out[relation.Name] = cleaned
		}
	}
	return out
}

// # Payload Validation

// buildValues checks a JSON payload against the field specification and
// returns the typed values to write. In partial mode (update) absent fields
// are simply skipped; in full mode (create) required fields must be present.
func buildValues(desc *catalog.Descriptor, payload map[string]any, partial bool) (store.Record, error) {
	validator := &validate.Validator{}
	values := store.Record{}

	for _, field := range desc.Fields {
		switch field.Name {
		case "id", "archived", "created_at", "updated_at":
			continue
		}

		raw, present := payload[field.Name]
		if !present {
			if field.Required && !partial {
				validator.Custom(field.Name, true, "This field is required")
			}
			continue
		}

		switch field.Type {
		case catalog.TypeString:
			text, ok := raw.(string)
			if !ok {
				validator.Custom(field.Name, true, "Must be a string")
				continue
			}
			text = strings.TrimSpace(text)
			if field.Required {
				validator.Required(field.Name, text)
			}
			if field.MaxLen > 0 {
				validator.MaxLen(field.Name, text, field.MaxLen)
			}
			if field.Name == "email" {
				validator.Email(field.Name, text)
			}
			if field.Name == "slug" && text != "" {
				validator.Slug(field.Name, text)
			}
			values[field.Name] = text

		case catalog.TypeInt:
			number, ok := raw.(float64)
			if !ok || number != math.Trunc(number) {
				validator.Custom(field.Name, true, "Must be an integer")
				continue
			}
			values[field.Name] = int64(number)

		case catalog.TypeBool:
			boolean, ok := raw.(bool)
			if !ok {
				validator.Custom(field.Name, true, "Must be a boolean")
				continue
			}
			values[field.Name] = boolean

		default:
			validator.Custom(field.Name, true, "Cannot be set directly")
		}
	}

	// Unknown keys are refused rather than dropped, so typos surface
	// instead of silently writing nothing.
	for key := range payload {
		if _, ok := desc.Field(key); !ok {
			validator.Custom(key, true, "Unknown field")
		} else {
			switch key {
			case "id", "archived", "created_at", "updated_at":
				validator.Custom(key, true, "Cannot be set directly")
			}
		}
	}

	if err := validator.Err(); err != nil {
		return nil, err
	}
	return values, nil
}

func parseID(ref string) (int64, bool) {
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
