package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mkovtun/study-tracker/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionStorage keeps authenticated sessions in Redis so that sign-out
// actually revokes tokens instead of waiting for them to expire.
type SessionStorage struct {
	client *redis.Client
}

func NewSessionStorage(client *redis.Client) *SessionStorage {
	return &SessionStorage{client: client}
}

func (s *SessionStorage) sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

func (s *SessionStorage) userSessionsKey(userID string) string {
	return fmt.Sprintf("user:%s:sessions", userID)
}

func (s *SessionStorage) Set(ctx context.Context, session *models.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.client.Set(ctx, s.sessionKey(session.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	userKey := s.userSessionsKey(session.UserID)
	if err := s.client.SAdd(ctx, userKey, session.ID).Err(); err != nil {
		return fmt.Errorf("failed to add session to user set: %w", err)
	}
	if err := s.client.Expire(ctx, userKey, ttl+24*time.Hour).Err(); err != nil {
		return fmt.Errorf("failed to set expiration on user sessions: %w", err)
	}

	return nil
}

func (s *SessionStorage) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	data, err := s.client.Get(ctx, s.sessionKey(sessionID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

func (s *SessionStorage) Delete(ctx context.Context, sessionID string) error {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil
		}
		return err
	}

	if err := s.client.Del(ctx, s.sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if err := s.client.SRem(ctx, s.userSessionsKey(session.UserID), sessionID).Err(); err != nil {
		return fmt.Errorf("failed to remove session from user set: %w", err)
	}

	return nil
}

func (s *SessionStorage) DeleteAllForUser(ctx context.Context, userID string) error {
	userKey := s.userSessionsKey(userID)

	sessionIDs, err := s.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return fmt.Errorf("failed to list user sessions: %w", err)
	}

	for _, id := range sessionIDs {
		if err := s.client.Del(ctx, s.sessionKey(id)).Err(); err != nil {
			return fmt.Errorf("failed to delete session %s: %w", id, err)
		}
	}

	return s.client.Del(ctx, userKey).Err()
}
