// Package redisdb shares session revocations between API instances through Redis.
package redisdb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/session"
)

const keyPrefix = "academia:revoked:"

func NewClient(conf core.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     conf.Address,
		Password: conf.Password,
		DB:       conf.DB,
	})
}

// Revocations stores one expiring key per revoked token fingerprint.
type Revocations struct {
	client *redis.Client
	now    func() time.Time
}

var _ session.Revocations = (*Revocations)(nil)

func NewRevocations(client *redis.Client) *Revocations {
	return &Revocations{client: client, now: time.Now}
}

func key(token string) string {
	return keyPrefix + session.Fingerprint(token)
}

// Revoke keeps token revoked until it would have expired anyway.
func (r *Revocations) Revoke(ctx context.Context, token string, until time.Time) error {
	ttl := until.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	err := r.client.Set(ctx, key(token), 1, ttl).Err()
	return errors.Wrap(err, "revoking token")
}

func (r *Revocations) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := r.client.Exists(ctx, key(token)).Result()
	if err != nil {
		return false, errors.Wrap(err, "checking token revocation")
	}
	return n > 0, nil
}

// Ping checks the connection.
func (r *Revocations) Ping(ctx context.Context) error {
	return errors.Wrap(r.client.Ping(ctx).Err(), "pinging redis")
}
