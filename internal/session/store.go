// Package session maps widget session ids to prospect ids in Redis so
// a visitor keeps the same conversation across page loads without any
// authentication.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a session id has no live conversation.
var ErrNotFound = errors.New("session not found")

const keyPrefix = "chat:session:"

// Store persists the session to prospect mapping with a sliding TTL.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// NewFromURL dials Redis from a URL like redis://host:6379/0.
func NewFromURL(url string, ttl time.Duration) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return New(redis.NewClient(opts), ttl), nil
}

// Resolve returns the prospect id bound to a session, refreshing the
// TTL on every hit so active conversations never expire mid-chat.
func (s *Store) Resolve(ctx context.Context, sessionID string) (uuid.UUID, error) {
	val, err := s.client.GetEx(ctx, keyPrefix+sessionID, s.ttl).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("resolve session: %w", err)
	}

	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, fmt.Errorf("corrupt session value %q: %w", val, err)
	}
	return id, nil
}

// Bind associates a session id with a prospect.
func (s *Store) Bind(ctx context.Context, sessionID string, prospectID uuid.UUID) error {
	if err := s.client.Set(ctx, keyPrefix+sessionID, prospectID.String(), s.ttl).Err(); err != nil {
		return fmt.Errorf("bind session: %w", err)
	}
	return nil
}

// Drop forgets a session, e.g. after the conversation closes.
func (s *Store) Drop(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, keyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("drop session: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}
