// Copyright (c) 2026 Scriptorium. All rights reserved.

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/verseworks/scriptorium/internal/platform/apperr"
)

var (
	// ErrNotFound is a standard error returned when a queried row doesn't exist.
	ErrNotFound = apperr.NotFound("Resource")
)

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the error type.
func Wrap(err error, action string) error {
	if err == nil {
		return nil
	}

	// 1. Not Found mapping
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	// 2. Constraint violations carry a SQLSTATE we can classify.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return uniqueViolation(pgErr)
		case pgerrcode.ForeignKeyViolation:
			// A dependent row still references the target. The integrity
			// checker normally catches this first; the constraint is the
			// last line of defense inside the delete transaction.
			return apperr.DataLinked("records")
		}
	}

	// 3. Unknown query errors become opaque server faults.
	return apperr.Internal(err)
}

// uniqueViolation maps a 23505 to a field-specific envelope code using the
// constraint name declared in the migrations (e.g. "book_slug_key").
func uniqueViolation(pgErr *pgconn.PgError) *apperr.AppError {
	name := strings.ToLower(pgErr.ConstraintName)
	switch {
	case strings.Contains(name, "slug"):
		return apperr.UniqueField(apperr.CodeSlugTaken, "slug")
	case strings.Contains(name, "email"):
		return apperr.UniqueField(apperr.CodeEmailTaken, "email")
	default:
		return apperr.UniqueField(apperr.CodeValidation, "value")
	}
}
