package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/opspulse/opspulse/internal/model"
)

// RedisConfig configures the Redis-backed event store.
type RedisConfig struct {
	// Address is the Redis server address (e.g., "localhost:6379")
	Address string

	// Password for Redis authentication (optional)
	Password string

	// Database number to use (default: 0)
	Database int

	// Key is the list key holding the event log
	Key string

	// Timeout for Redis operations
	Timeout time.Duration

	// PoolSize is the maximum number of connections
	PoolSize int

	// Retention caps the list length; oldest entries are trimmed away
	Retention int
}

// DefaultRedisConfig returns sensible defaults.
func DefaultRedisConfig(address string) RedisConfig {
	return RedisConfig{
		Address:   address,
		Key:       "opspulse:events",
		Timeout:   5 * time.Second,
		PoolSize:  10,
		Retention: DefaultRetention,
	}
}

// RedisStore keeps the event log in a Redis list. RPUSH preserves append
// order and LTRIM enforces retention by dropping from the head.
type RedisStore struct {
	cfg    RedisConfig
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.Key == "" {
		cfg.Key = "opspulse:events"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.Database,
		PoolSize:     cfg.PoolSize,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &RedisStore{cfg: cfg, client: client}, nil
}

// Append implements EventStore.
func (s *RedisStore) Append(ctx context.Context, e model.Event) error {
	e.ID = uuid.NewString()
	e.Timestamp = time.Now().UTC()

	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, s.cfg.Key, data)
	pipe.LTrim(ctx, s.cfg.Key, int64(-s.cfg.Retention), -1)
	_, err = pipe.Exec(ctx)
	return err
}

// LoadAll implements EventStore. Connection failures and undecodable
// entries degrade to an empty or partial slice.
func (s *RedisStore) LoadAll(ctx context.Context) []model.Event {
	raw, err := s.client.LRange(ctx, s.cfg.Key, 0, -1).Result()
	if err != nil {
		return []model.Event{}
	}

	events := make([]model.Event, 0, len(raw))
	for _, item := range raw {
		var e model.Event
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			continue
		}
		events = append(events, e)
	}
	return events
}

// Clear implements EventStore.
func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.cfg.Key).Err()
}

// Close releases the Redis connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
