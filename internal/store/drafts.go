package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"site-defects/internal/models"

	"github.com/go-redis/redis/v8"
)

// MaxDraftPhotos bounds the photos one draft may hold.
const MaxDraftPhotos = 10

// DraftPhotos holds photos attached to an unfinished defect form until it
// is submitted. The cookie session keeps only the draft key.
type DraftPhotos struct {
	c   *redis.Client
	ttl time.Duration
}

func NewDraftPhotos(c *redis.Client, ttl time.Duration) *DraftPhotos {
	return &DraftPhotos{c: c, ttl: ttl}
}

func draftPhotosKey(draftKey string) string {
	return keyPrefix + "draft:" + draftKey + ":photos"
}

// Add appends p and returns the number of photos now held.
func (d *DraftPhotos) Add(ctx context.Context, draftKey string, p models.PhotoUpload) (int, error) {
	key := draftPhotosKey(draftKey)
	n, err := d.c.LLen(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("draft photos count: %w", err)
	}
	if n >= MaxDraftPhotos {
		return int(n), fmt.Errorf("%w: at most %d photos per defect", models.ErrValidation, MaxDraftPhotos)
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return 0, err
	}
	pipe := d.c.TxPipeline()
	push := pipe.RPush(ctx, key, raw)
	pipe.Expire(ctx, key, d.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("draft photos add: %w", err)
	}
	return int(push.Val()), nil
}

func (d *DraftPhotos) List(ctx context.Context, draftKey string) ([]models.PhotoUpload, error) {
	vals, err := d.c.LRange(ctx, draftPhotosKey(draftKey), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("draft photos list: %w", err)
	}
	out := make([]models.PhotoUpload, 0, len(vals))
	for _, v := range vals {
		var p models.PhotoUpload
		if err := json.Unmarshal([]byte(v), &p); err != nil {
			return nil, fmt.Errorf("draft photo is corrupt: %w", err)
		}
		out = append(out, p)
	}
	return out, nil
}

func (d *DraftPhotos) Count(ctx context.Context, draftKey string) (int, error) {
	n, err := d.c.LLen(ctx, draftPhotosKey(draftKey)).Result()
	return int(n), err
}

func (d *DraftPhotos) Clear(ctx context.Context, draftKey string) error {
	return d.c.Del(ctx, draftPhotosKey(draftKey)).Err()
}
