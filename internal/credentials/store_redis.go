package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type RedisStore struct {
	client *redis.Client
	key    string
	ctx    context.Context
}

func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	if cfg.Prefix == "" {
		cfg.Prefix = "booklend:"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisStore{
		client: client,
		key:    cfg.Prefix + "credentials",
		ctx:    ctx,
	}, nil
}

func (s *RedisStore) Load() (Record, bool, error) {
	b, err := s.client.Get(s.ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("get credential record: %w", err)
	}

	var p persistedRecord
	if err := json.Unmarshal(b, &p); err != nil {
		return Record{}, false, fmt.Errorf("decode credential record: %w", err)
	}
	if p.Token == "" {
		return Record{}, false, nil
	}
	return fromPersisted(p), true, nil
}

func (s *RedisStore) Save(rec Record) error {
	b, err := json.Marshal(toPersisted(rec))
	if err != nil {
		return fmt.Errorf("encode credential record: %w", err)
	}

	// Let redis expire the record together with the session.
	var ttl time.Duration
	if !rec.ExpiresAt.IsZero() {
		ttl = time.Until(rec.ExpiresAt)
		if ttl <= 0 {
			ttl = time.Second
		}
	}
	if err := s.client.Set(s.ctx, s.key, b, ttl).Err(); err != nil {
		return fmt.Errorf("set credential record: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear() error {
	if err := s.client.Del(s.ctx, s.key).Err(); err != nil {
		return fmt.Errorf("delete credential record: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
