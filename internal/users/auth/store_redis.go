// Copyright (c) 2026 Scriptorium. All rights reserved.

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/verseworks/scriptorium/internal/platform/apperr"
	"github.com/verseworks/scriptorium/internal/platform/constants"
)

// RedisSessionStore implements [SessionStore] on Redis. The TTL doubles as
// the expiry mechanism: a session that is never refreshed simply vanishes.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore creates a Redis-backed session store.
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func sessionKey(sessionID string) string {
	return constants.RedisPrefixSession + sessionID
}

// Set stores a session id with its owning user and TTL.
func (store *RedisSessionStore) Set(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	if err := store.client.Set(ctx, sessionKey(sessionID), userID, ttl).Err(); err != nil {
		return fmt.Errorf("redis_session_set_failed: %w", err)
	}
	return nil
}

// Get returns the user id owning a session, or a NOT_FOUND error when the
// session is absent or expired.
func (store *RedisSessionStore) Get(ctx context.Context, sessionID string) (string, error) {
	userID, err := store.client.Get(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperr.NotFound("Session")
		}
		return "", fmt.Errorf("redis_session_get_failed: %w", err)
	}
	return userID, nil
}

// Delete removes a session. Deleting a missing key is not an error.
func (store *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := store.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis_session_delete_failed: %w", err)
	}
	return nil
}
