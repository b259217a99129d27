package leave

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const draftKeyPrefix = "leave:draft:"

func DraftKey(email string) string {
	return draftKeyPrefix + email
}

// redisDraftRepository keeps drafts as JSON values. It has no row locks, so
// WithTx is a no-op and concurrent submits for one email are not serialised
// across instances.
type redisDraftRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisDraftRepository stores drafts with the given idle TTL; 0 keeps them
// until submit or delete.
func NewRedisDraftRepository(rdb *redis.Client, ttl time.Duration) DraftRepository {
	return &redisDraftRepository{rdb: rdb, ttl: ttl}
}

func (r *redisDraftRepository) WithTx(*sql.Tx) DraftRepository {
	return r
}

func (r *redisDraftRepository) Find(ctx context.Context, email string) (*LeaveDraft, error) {
	raw, err := r.rdb.Get(ctx, DraftKey(email)).Result()
	if err != nil {
		return nil, err
	}
	var d LeaveDraft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *redisDraftRepository) FindForUpdate(ctx context.Context, email string) (*LeaveDraft, error) {
	return r.Find(ctx, email)
}

func (r *redisDraftRepository) CreateIfAbsent(ctx context.Context, d *LeaveDraft) (bool, error) {
	payload, err := json.Marshal(d)
	if err != nil {
		return false, err
	}
	return r.rdb.SetNX(ctx, DraftKey(d.Email), string(payload), r.ttl).Result()
}

func (r *redisDraftRepository) Save(ctx context.Context, d *LeaveDraft) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, DraftKey(d.Email), string(payload), r.ttl).Err()
}

func (r *redisDraftRepository) Delete(ctx context.Context, email string) error {
	return r.rdb.Del(ctx, DraftKey(email)).Err()
}
