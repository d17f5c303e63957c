// FilePath: device/clock.go
package device

import (
	"time"

	"github.com/fieldsync/tofhub/internal/models"
)

// Transition is the outcome of observing a polled start epoch
type Transition int

const (
	// NoChange means the held state still matches the hub's answer
	NoChange Transition = iota
	// Synced means the clock just locked onto a session from idle
	Synced
	// Resynced means a different session superseded the held one; buffered
	// samples from the old epoch must be discarded before sampling resumes
	Resynced
	// Stopped means the hub cleared the session; flush then go idle
	Stopped
)

// Clock anchors the device's monotonic time to the hub's session epoch. The
// device never trusts its own wall clock: a sample's timestamp is always
// baseEpoch plus whole seconds elapsed since the epoch was accepted, which
// holds across reboots and wall-clock drift.
//
// Two states: idle (baseEpoch == 0) and synced.
type Clock struct {
	baseEpoch int64
	baseLocal time.Time
}

// NewClock returns an idle clock
func NewClock() *Clock {
	return &Clock{}
}

// Synced reports whether a base epoch is held
func (c *Clock) Synced() bool {
	return c.baseEpoch != 0
}

// Observe applies one polled start epoch and returns the transition taken.
// A zero epoch while idle and an unchanged epoch while synced are both
// NoChange; the caller retains its previous state on failed polls by simply
// not calling Observe.
func (c *Clock) Observe(startEpoch int64, now time.Time) Transition {
	switch {
	case startEpoch == 0 && c.baseEpoch == 0:
		return NoChange
	case startEpoch == 0:
		c.baseEpoch = 0
		c.baseLocal = time.Time{}
		return Stopped
	case c.baseEpoch == 0:
		c.baseEpoch = startEpoch
		c.baseLocal = now
		return Synced
	case startEpoch != c.baseEpoch:
		c.baseEpoch = startEpoch
		c.baseLocal = now
		return Resynced
	default:
		return NoChange
	}
}

// Epoch returns the held base epoch, zero when idle
func (c *Clock) Epoch() int64 {
	return c.baseEpoch
}

// Timestamp derives the shared-epoch timestamp for a sample taken at the
// given local instant, truncated to whole seconds. Must only be called while
// synced. Elapsed time comes from the monotonic reading carried by now, so
// the result is non-decreasing in local time absent a re-sync.
func (c *Clock) Timestamp(now time.Time) string {
	elapsed := int64(now.Sub(c.baseLocal) / time.Second)
	return time.Unix(c.baseEpoch+elapsed, 0).UTC().Format(models.TimestampFormat)
}
