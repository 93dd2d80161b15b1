package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"zenwriter/composer"
)

// RedisStore keeps a document under one key, with its save time alongside.
type RedisStore struct {
	rdb *redis.Client
	key string
}

var _ composer.Store = (*RedisStore)(nil)

func NewRedisStore(rdb *redis.Client, key string) *RedisStore {
	return &RedisStore{rdb: rdb, key: key}
}

func (s *RedisStore) Save(ctx context.Context, snapshot string) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key, snapshot, 0)
		pipe.Set(ctx, s.key+":saved_at", time.Now().UTC().Format(time.RFC3339Nano), 0)
		return nil
	})
	return err
}

func (s *RedisStore) Load(ctx context.Context) (string, bool, error) {
	text, err := s.rdb.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

// RedisBackend keys documents as <Prefix><id>.
type RedisBackend struct {
	Client *redis.Client
	Prefix string
}

// NewRedisBackend connects to url, accepting either a redis:// URL or a bare address.
func NewRedisBackend(url, prefix string) *RedisBackend {
	opt, err := redis.ParseURL(url)
	if err != nil {
		opt = &redis.Options{Addr: url}
	}
	return &RedisBackend{Client: redis.NewClient(opt), Prefix: prefix}
}

// Ping checks the connection.
func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.Client.Ping(ctx).Err()
}

func (b *RedisBackend) Open(id string) (composer.Store, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	return NewRedisStore(b.Client, b.Prefix+id), nil
}

func (b *RedisBackend) Close() error {
	return b.Client.Close()
}
