// Package redisstore keeps carts as redis string keys.
package redisstore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/atlantis/core"
	"github.com/trezcool/atlantis/core/cart"
)

// Open connects to redis and checks the connection.
func Open(ctx context.Context, conf core.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "connecting to redis at %s", conf.Addr)
	}
	return client, nil
}

type Storage struct {
	client redis.Cmdable
	ttl    time.Duration
}

var _ cart.Storage = (*Storage)(nil)

// New returns a Storage whose keys expire ttl after their last write. A zero ttl never expires.
func New(client redis.Cmdable, ttl time.Duration) *Storage {
	return &Storage{client: client, ttl: ttl}
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, cart.ErrNoCart
		}
		return nil, errors.Wrapf(err, "reading %s", key)
	}
	return data, nil
}

func (s *Storage) Set(ctx context.Context, key string, data []byte) error {
	return errors.Wrapf(s.client.Set(ctx, key, data, s.ttl).Err(), "writing %s", key)
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	return errors.Wrapf(s.client.Del(ctx, key).Err(), "deleting %s", key)
}
