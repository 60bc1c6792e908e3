// Copyright (c) 2026 Scriptorium. All rights reserved.

/*
Package auth implements dashboard sign-in on top of the user entity.

User accounts live in the corpus catalog like any other entity; this
package adds the credential check, RSA-signed access tokens, and the
Redis-backed session registry. Password hashes never leave the package.
*/
package auth

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/verseworks/scriptorium/internal/content/store"
	"github.com/verseworks/scriptorium/internal/platform/apperr"
	"github.com/verseworks/scriptorium/internal/platform/constants"
	"github.com/verseworks/scriptorium/internal/platform/sec"
)

// # Contracts

// UserSource looks up user records for credential checks. The catalog-backed
// implementation in this package excludes archived accounts, so archiving a
// user revokes their ability to sign in.
type UserSource interface {
	FindByEmail(ctx context.Context, email string) (store.Record, error)
	FindByID(ctx context.Context, id int64) (store.Record, error)
}

// SessionStore tracks active sessions for revocation.
type SessionStore interface {
	Set(ctx context.Context, sessionID, userID string, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
}

// TokenProvider signs access tokens.
type TokenProvider interface {
	GenerateAccessToken(userID, email, role string, timeToLive time.Duration) (string, error)
}

// Service implements the sign-in use cases.
type Service struct {
	users    UserSource
	sessions SessionStore
	tokens   TokenProvider
}

// NewService constructs the auth service.
func NewService(users UserSource, sessions SessionStore, tokens TokenProvider) *Service {
	return &Service{users: users, sessions: sessions, tokens: tokens}
}

// # Login

// LoginInput holds the submitted credentials.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginSession is a successfully established session.
type LoginSession struct {
	AccessToken string       `json:"token"`
	SessionID   string       `json:"sessionId"`
	ExpiresAt   time.Time    `json:"expiresAt"`
	User        store.Record `json:"user"`
}

// Login verifies the credentials and issues an access token plus a tracked
// session. Unknown emails and wrong passwords fail identically so the
// endpoint cannot be used to probe which addresses have accounts.
func (service *Service) Login(ctx context.Context, input LoginInput) (*LoginSession, error) {
	user, err := service.users.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, apperr.WrongPassword()
	}
	if !sec.CheckPasswordHash(input.Password, user.String("password")) {
		return nil, apperr.WrongPassword()
	}

	userID := strconv.FormatInt(user.ID(), 10)
	token, err := service.tokens.GenerateAccessToken(userID, user.String("email"), user.String("role"), constants.AccessTokenTTL)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	sessionID := uuid.NewString()
	if err := service.sessions.Set(ctx, sessionID, userID, constants.SessionTTL); err != nil {
		return nil, apperr.Internal(err)
	}

	return &LoginSession{
		AccessToken: token,
		SessionID:   sessionID,
		ExpiresAt:   time.Now().Add(constants.AccessTokenTTL),
		User:        withoutPassword(user),
	}, nil
}

// Logout revokes a session. Revoking an unknown or already expired session
// succeeds, so logout is safe to retry.
func (service *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return service.sessions.Delete(ctx, sessionID)
}

// Me returns the fresh account record behind a set of verified claims.
// Reading from the store instead of echoing the claims means role changes
// and archival take effect without waiting for token expiry.
func (service *Service) Me(ctx context.Context, claims *sec.AuthClaims) (store.Record, error) {
	id, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid token subject")
	}

	user, err := service.users.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Unauthorized("Account no longer available")
	}
	return withoutPassword(user), nil
}

func withoutPassword(user store.Record) store.Record {
	out := user.Clone()
	delete(out, "password")
	return out
}
