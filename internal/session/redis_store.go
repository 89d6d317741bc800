package session

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bakehouse/console/pkg/helpers"
)

// RedisSnapshotStore persists the session snapshot in Redis, one JSON record
// per browser session. Unknown fields in an old record are ignored on load,
// missing ones take their zero values, which keeps the layout
// forward-compatible by field presence.
type RedisSnapshotStore struct {
	rdb       *redis.Client
	browserID string
	ttl       time.Duration
}

func NewRedisSnapshotStore(rdb *redis.Client, browserID string, ttl time.Duration) *RedisSnapshotStore {
	return &RedisSnapshotStore{rdb: rdb, browserID: browserID, ttl: ttl}
}

func (r *RedisSnapshotStore) key() string {
	return "console:session:" + r.browserID
}

func (r *RedisSnapshotStore) Load(ctx context.Context) (PersistedState, bool, error) {
	var st PersistedState
	found, err := helpers.RedisGetJSON(ctx, r.rdb, r.key(), &st)
	if err != nil {
		return PersistedState{}, false, err
	}
	return st, found, nil
}

func (r *RedisSnapshotStore) Save(ctx context.Context, st PersistedState) error {
	return helpers.RedisSetJSON(ctx, r.rdb, r.key(), st, r.ttl)
}

func (r *RedisSnapshotStore) Clear(ctx context.Context) error {
	return helpers.RedisDel(ctx, r.rdb, r.key())
}
