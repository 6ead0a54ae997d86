// Package session stores login sessions. The Redis store is the production
// implementation; the memory store backs unit tests.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SashiniHimaya/blood-donation-system/internal/auth/models"
	id "github.com/SashiniHimaya/blood-donation-system/pkg/domain"
	"github.com/SashiniHimaya/blood-donation-system/pkg/platform/sentinel"
)

const (
	sessionKeyPrefix = "session:"
	userSetKeyPrefix = "user_sessions:"
)

// RedisStore keeps sessions as JSON values with a TTL derived from the
// session expiry, plus a per-user set for listing.
type RedisStore struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed session store.
func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func sessionKey(sessionID id.SessionID) string {
	return sessionKeyPrefix + sessionID.String()
}

func userSetKey(userID id.UserID) string {
	return userSetKeyPrefix + userID.String()
}

// Create writes the session and registers it in the owner's session set.
func (s *RedisStore) Create(ctx context.Context, session *models.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", session.ID)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(session.ID), payload, ttl)
	pipe.SAdd(ctx, userSetKey(session.UserID), session.ID.String())
	// The set outlives individual sessions; stale members are pruned on list.
	pipe.Expire(ctx, userSetKey(session.UserID), ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// FindByID loads a session, returning sentinel.ErrNotFound for unknown or
// expired IDs.
func (s *RedisStore) FindByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var session models.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", sessionID, err)
	}
	return &session, nil
}

// Touch refreshes the last-seen timestamp without extending the TTL.
func (s *RedisStore) Touch(ctx context.Context, sessionID id.SessionID, now time.Time) error {
	session, err := s.FindByID(ctx, sessionID)
	if err != nil {
		return err
	}
	session.LastSeenAt = now

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.client.Set(ctx, sessionKey(sessionID), payload, redis.KeepTTL).Err()
}

// Delete removes a session and its set membership. Deleting an unknown
// session returns sentinel.ErrNotFound.
func (s *RedisStore) Delete(ctx context.Context, sessionID id.SessionID) error {
	session, err := s.FindByID(ctx, sessionID)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(sessionID))
	pipe.SRem(ctx, userSetKey(session.UserID), sessionID.String())
	_, err = pipe.Exec(ctx)
	return err
}

// ListByUser returns the user's live sessions, pruning set members whose
// session key has since expired.
func (s *RedisStore) ListByUser(ctx context.Context, userID id.UserID) ([]*models.Session, error) {
	members, err := s.client.SMembers(ctx, userSetKey(userID)).Result()
	if err != nil {
		return nil, err
	}

	sessions := make([]*models.Session, 0, len(members))
	var stale []any
	for _, member := range members {
		sessionID, err := id.ParseSessionID(member)
		if err != nil {
			stale = append(stale, member)
			continue
		}
		session, err := s.FindByID(ctx, sessionID)
		if errors.Is(err, sentinel.ErrNotFound) {
			stale = append(stale, member)
			continue
		}
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	if len(stale) > 0 {
		_ = s.client.SRem(ctx, userSetKey(userID), stale...).Err()
	}
	return sessions, nil
}

// DeleteAllForUser removes every session the user has.
func (s *RedisStore) DeleteAllForUser(ctx context.Context, userID id.UserID) error {
	members, err := s.client.SMembers(ctx, userSetKey(userID)).Result()
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	for _, member := range members {
		pipe.Del(ctx, sessionKeyPrefix+member)
	}
	pipe.Del(ctx, userSetKey(userID))
	_, err = pipe.Exec(ctx)
	return err
}
