package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

var ErrMiss = errors.New("ledger miss")

const keyPrefix = "site-defects:"

// Ledger remembers which steps of a multi-step submission already reached
// the backend, keyed by the step, and the id the backend returned.
type Ledger struct {
	c   *redis.Client
	ttl time.Duration
}

func NewLedger(c *redis.Client, ttl time.Duration) *Ledger {
	return &Ledger{c: c, ttl: ttl}
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func (l *Ledger) Ping(ctx context.Context) error {
	return l.c.Ping(ctx).Err()
}

// Lookup returns the id recorded under key, or ErrMiss.
func (l *Ledger) Lookup(ctx context.Context, key string) (int, error) {
	val, err := l.c.Get(ctx, keyPrefix+key).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, ErrMiss
		}
		return 0, fmt.Errorf("ledger get %s: %w", key, err)
	}
	id, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("ledger value for %s is not an id: %q", key, val)
	}
	return id, nil
}

func (l *Ledger) Remember(ctx context.Context, key string, id int) error {
	if err := l.c.Set(ctx, keyPrefix+key, strconv.Itoa(id), l.ttl).Err(); err != nil {
		return fmt.Errorf("ledger set %s: %w", key, err)
	}
	return nil
}

func (l *Ledger) Forget(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = keyPrefix + k
	}
	return l.c.Del(ctx, full...).Err()
}

func SubmissionKey(key string) string { return "submission:" + key }

func MarkKey(defectID int) string { return fmt.Sprintf("defect:%d:mark", defectID) }

func PhotoKey(defectID int, digest string) string {
	return fmt.Sprintf("defect:%d:photo:%s", defectID, digest)
}

// RepairKey identifies one repair report against a defect; digest covers
// the report's content and date.
func RepairKey(defectID int, digest string) string {
	return fmt.Sprintf("defect:%d:repair:%s", defectID, digest)
}

func RepairPhotoKey(improvementID int, digest string) string {
	return fmt.Sprintf("improvement:%d:photo:%s", improvementID, digest)
}
