// FilePath: device/clock_test.go
package device

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockTransitions(t *testing.T) {
	c := NewClock()
	now := time.Now()

	assert.Equal(t, NoChange, c.Observe(0, now))
	assert.False(t, c.Synced())

	assert.Equal(t, Synced, c.Observe(1700000000, now))
	assert.True(t, c.Synced())
	assert.Equal(t, int64(1700000000), c.Epoch())

	// Same epoch again is not a transition
	assert.Equal(t, NoChange, c.Observe(1700000000, now.Add(time.Second)))

	// A different nonzero epoch supersedes the held one
	assert.Equal(t, Resynced, c.Observe(1700000500, now.Add(2*time.Second)))
	assert.Equal(t, int64(1700000500), c.Epoch())

	assert.Equal(t, Stopped, c.Observe(0, now.Add(3*time.Second)))
	assert.False(t, c.Synced())
}

func TestTimestampDerivation(t *testing.T) {
	c := NewClock()
	base := time.Now()
	require.Equal(t, Synced, c.Observe(1700000000, base))

	assert.Equal(t, "2023-11-14T22:13:20Z", c.Timestamp(base))
	assert.Equal(t, "2023-11-14T22:13:20Z", c.Timestamp(base.Add(900*time.Millisecond)))
	assert.Equal(t, "2023-11-14T22:13:21Z", c.Timestamp(base.Add(1*time.Second)))
	assert.Equal(t, "2023-11-14T22:13:32Z", c.Timestamp(base.Add(12*time.Second)))
}

func TestTimestampMonotonicInLocalTime(t *testing.T) {
	c := NewClock()
	base := time.Now()
	require.Equal(t, Synced, c.Observe(1700000000, base))

	prev := ""
	for i := 0; i < 50; i++ {
		ts := c.Timestamp(base.Add(time.Duration(i) * 100 * time.Millisecond))
		if prev != "" {
			assert.GreaterOrEqual(t, ts, prev)
		}
		prev = ts
	}
}

func TestResyncRebasesLocalAnchor(t *testing.T) {
	c := NewClock()
	base := time.Now()
	require.Equal(t, Synced, c.Observe(1700000000, base))

	// Ten seconds later a new session begins; elapsed time restarts at the
	// new anchor, not at the old one
	rebased := base.Add(10 * time.Second)
	require.Equal(t, Resynced, c.Observe(1800000000, rebased))
	assert.Equal(t, time.Unix(1800000000, 0).UTC().Format(time.RFC3339), c.Timestamp(rebased))
	assert.Equal(t, time.Unix(1800000002, 0).UTC().Format(time.RFC3339), c.Timestamp(rebased.Add(2*time.Second)))
}
