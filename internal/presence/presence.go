// FilePath: internal/presence/presence.go
package presence

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"
)

const presenceKey = "tofhub:presence"

// Tracker records when each device last contacted the hub. Presence is
// advisory: redis failures are logged and swallowed so a flaky cache can
// never reject a poll or an upload.
type Tracker struct {
	client *redis.Client
}

func NewTracker(client *redis.Client) *Tracker {
	return &Tracker{client: client}
}

// Touch refreshes the device's last-seen time
func (t *Tracker) Touch(ctx context.Context, deviceID string) {
	if t.client == nil || deviceID == "" {
		return
	}
	err := t.client.ZAdd(ctx, presenceKey, redis.Z{
		Score:  float64(time.Now().Unix()),
		Member: deviceID,
	}).Err()
	if err != nil {
		nuts.L.Warnf("[Presence] Failed to touch device %s: %v", deviceID, err)
	}
}

// Active returns the ids of devices seen within the given window, oldest
// first. Returns nil on cache failure.
func (t *Tracker) Active(ctx context.Context, window time.Duration) []string {
	if t.client == nil {
		return nil
	}
	cutoff := time.Now().Add(-window).Unix()
	devices, err := t.client.ZRangeByScore(ctx, presenceKey, &redis.ZRangeBy{
		Min: strconv.FormatInt(cutoff, 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		nuts.L.Warnf("[Presence] Failed to list active devices: %v", err)
		return nil
	}

	// Drop entries older than a day so the set cannot grow without bound
	stale := time.Now().Add(-24 * time.Hour).Unix()
	if err := t.client.ZRemRangeByScore(ctx, presenceKey, "-inf",
		strconv.FormatInt(stale, 10)).Err(); err != nil {
		nuts.L.Warnf("[Presence] Failed to trim presence set: %v", err)
	}

	return devices
}
