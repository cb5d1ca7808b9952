package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-training/photos-workshop/pkg/core"
	"github.com/redis/rueidis"
)

// sessionPrefix namespaces session keys in Redis.
const sessionPrefix = "photos_session:"

// RedisStore implements the core.Store interface using Redis via rueidis.
// Each session is one JSON value whose TTL follows Session.ExpiresAt.
type RedisStore struct {
	client rueidis.Client
}

// NewRedisStore creates a new instance of RedisStore with the provided rueidis client.
func NewRedisStore(client rueidis.Client) *RedisStore {
	return &RedisStore{
		client: client,
	}
}

// RedisOptions contains configuration for Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStoreFromOptions creates a new RedisStore with simplified options.
func NewRedisStoreFromOptions(opts RedisOptions) (*RedisStore, error) {
	return NewRedisStoreFromClientOption(rueidis.ClientOption{
		InitAddress: []string{opts.Addr},
		Password:    opts.Password,
		SelectDB:    opts.DB,
	})
}

// NewRedisStoreFromClientOption creates a new RedisStore with full rueidis client options.
func NewRedisStoreFromClientOption(opts rueidis.ClientOption) (*RedisStore, error) {
	client, err := rueidis.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}
	return NewRedisStore(client), nil
}

// Close closes the Redis client connection.
func (r *RedisStore) Close() {
	r.client.Close()
}

// Ping checks the connection to Redis.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Do(ctx, r.client.B().Ping().Build()).Error()
}

// SaveSession stores a session in Redis with a TTL derived from its expiry.
func (r *RedisStore) SaveSession(ctx context.Context, session *core.Session) error {
	if session == nil {
		return ErrNilSession
	}
	if session.ID == "" {
		return ErrEmptySessionID
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	key := sessionPrefix + session.ID
	var cmd rueidis.Completed
	if session.ExpiresAt > 0 {
		ttl := time.Until(time.Unix(session.ExpiresAt, 0))
		if ttl <= 0 {
			return errors.New("session is already expired")
		}
		// round up so a sub-second remainder still stores the value
		seconds := int64(ttl / time.Second)
		if ttl%time.Second != 0 {
			seconds++
		}
		cmd = r.client.B().Set().Key(key).Value(string(data)).ExSeconds(seconds).Build()
	} else {
		cmd = r.client.B().Set().Key(key).Value(string(data)).Build()
	}
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to save session to redis: %w", err)
	}

	return nil
}

// GetSession retrieves a session from Redis by id.
// It returns ErrSessionNotFound if the session does not exist or has expired.
func (r *RedisStore) GetSession(ctx context.Context, id string) (*core.Session, error) {
	if id == "" {
		return nil, ErrEmptySessionID
	}

	// No client-side caching: a refreshed token must be visible to the next request.
	cmd := r.client.B().Get().Key(sessionPrefix + id).Build()
	result, err := r.client.Do(ctx, cmd).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session from redis: %w", err)
	}

	var session core.Session
	if err := json.Unmarshal([]byte(result), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	if session.Expired() {
		_ = r.DeleteSession(ctx, id)
		return nil, ErrSessionNotFound
	}

	return &session, nil
}

// DeleteSession removes a session from Redis by id.
// It returns ErrSessionNotFound if the session does not exist.
func (r *RedisStore) DeleteSession(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptySessionID
	}

	cmd := r.client.B().Del().Key(sessionPrefix + id).Build()
	result, err := r.client.Do(ctx, cmd).AsInt64()
	if err != nil {
		return fmt.Errorf("failed to delete session from redis: %w", err)
	}

	if result == 0 {
		return ErrSessionNotFound
	}

	return nil
}
