// Copyright (c) 2026 Scriptorium. All rights reserved.

package content

import (
	"context"

	"github.com/verseworks/scriptorium/internal/content/catalog"
	"github.com/verseworks/scriptorium/internal/content/store"
	"github.com/verseworks/scriptorium/internal/platform/apperr"
	"github.com/verseworks/scriptorium/internal/platform/sec"
	"github.com/verseworks/scriptorium/internal/platform/validate"
)

// PasswordHashing returns the hook that bcrypt-hashes the password field
// before a user record is written. Registered for the user entity only;
// update payloads without a password pass through untouched.
func PasswordHashing() Hook {
	return func(_ context.Context, _ *catalog.Descriptor, values store.Record) error {
		plain, ok := values["password"].(string)
		if !ok || plain == "" {
			return nil
		}

		if err := (&validate.Validator{}).MinLen("password", plain, 8).Err(); err != nil {
			return err
		}
		hash, err := sec.HashPassword(plain)
		if err != nil {
			return apperr.Internal(err)
		}
		values["password"] = hash
		return nil
	}
}

// RoleGuard returns the hook that restricts the user role field to the
// known role names.
func RoleGuard() Hook {
	return func(_ context.Context, _ *catalog.Descriptor, values store.Record) error {
		role, ok := values["role"].(string)
		if !ok || role == "" {
			return nil
		}
		return (&validate.Validator{}).
			OneOf("role", role, string(sec.RoleAdmin), string(sec.RoleEditor), string(sec.RoleMember)).
			Err()
	}
}
