package repository

import (
	"context"

	"github.com/redis/rueidis"
)

// RedisSnapshotRepository stores snapshots as plain redis strings
type RedisSnapshotRepository struct {
	client rueidis.Client
	prefix string
}

// NewRedisSnapshotRepository creates a SnapshotRepository on top of a redis client
func NewRedisSnapshotRepository(client rueidis.Client, keyPrefix string) SnapshotRepository {
	return &RedisSnapshotRepository{
		client: client,
		prefix: keyPrefix,
	}
}

func (r *RedisSnapshotRepository) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := r.client.B().Get().Key(r.prefix + key).Build()
	value, err := r.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}
	return value, nil
}

func (r *RedisSnapshotRepository) Set(ctx context.Context, key string, value []byte) error {
	cmd := r.client.B().Set().Key(r.prefix + key).Value(rueidis.BinaryString(value)).Build()
	return r.client.Do(ctx, cmd).Error()
}

func (r *RedisSnapshotRepository) Delete(ctx context.Context, key string) error {
	cmd := r.client.B().Del().Key(r.prefix + key).Build()
	return r.client.Do(ctx, cmd).Error()
}
