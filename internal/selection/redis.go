package selection

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	selectedIDsKey = "tender:selected_project_ids" // Redis set of marked project ids
	sessionKey     = "tender:session"              // JSON session blob
	authTokenKey   = "tender:auth_token"           // Opaque backend token

	// Selections outlive page reloads but not a week of inactivity.
	selectionTTL = 7 * 24 * time.Hour
)

// RedisStore persists the selection set in Redis so every execution
// context (scanner, coordinator, trigger) sees the same state.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Ping checks the connection. Used once at startup to warn early when
// Redis is unreachable.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Load(ctx context.Context) (*Set, error) {
	ids, err := r.client.SMembers(ctx, selectedIDsKey).Result()
	if err == redis.Nil {
		return NewSet(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load selection: %w", err)
	}
	return FromIDs(ids), nil
}

func (r *RedisStore) Save(ctx context.Context, set *Set) error {
	ids := set.IDs()

	// Full overwrite in one pipeline: callers always write the complete set.
	pipe := r.client.Pipeline()
	pipe.Del(ctx, selectedIDsKey)
	if len(ids) > 0 {
		members := make([]interface{}, len(ids))
		for i, id := range ids {
			members[i] = id
		}
		pipe.SAdd(ctx, selectedIDsKey, members...)
		pipe.Expire(ctx, selectedIDsKey, selectionTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save selection: %w", err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, selectedIDsKey, sessionKey).Err(); err != nil {
		return fmt.Errorf("failed to clear selection: %w", err)
	}
	return nil
}

func (r *RedisStore) LoadSession(ctx context.Context) (*Session, error) {
	data, err := r.client.Get(ctx, sessionKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &sess, nil
}

func (r *RedisStore) SaveSession(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey, data, selectionTTL).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *RedisStore) LoadToken(ctx context.Context) (string, error) {
	token, err := r.client.Get(ctx, authTokenKey).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load auth token: %w", err)
	}
	return token, nil
}

func (r *RedisStore) SaveToken(ctx context.Context, token string) error {
	if err := r.client.Set(ctx, authTokenKey, token, 0).Err(); err != nil {
		return fmt.Errorf("failed to save auth token: %w", err)
	}
	return nil
}
