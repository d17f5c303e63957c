// FilePath: internal/session/controller.go
package session

import (
	"context"
	"sync"
	"time"

	"github.com/fieldsync/tofhub/internal/models"
	"github.com/fieldsync/tofhub/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// Controller is the single source of truth for "are we recording, and since
// when". All state lives behind one mutex so a reader never observes a
// half-updated session (nonzero epoch paired with active=false). Start is
// first-writer-wins: a second Start while active returns the existing
// session instead of allocating a new epoch.
//
// State is deliberately not restored across restarts. A restart ends any
// session; devices observe the zero epoch on their next poll and idle.
type Controller struct {
	mu       sync.Mutex
	current  *models.Session
	lastID   string
	sessions repository.SessionRepository
	now      func() time.Time
}

// NewController creates a session controller. The sessions repository may be
// nil in tests; lifecycle records are advisory.
func NewController(sessions repository.SessionRepository) *Controller {
	return &Controller{
		sessions: sessions,
		now:      time.Now,
	}
}

// Start activates a recording session if none is active and returns it.
// When a session is already active the existing one is returned unchanged.
func (c *Controller) Start(ctx context.Context) (*models.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil {
		nuts.L.Infof("[Session] Start requested while %s active, returning existing", c.current.ID)
		return c.snapshotLocked(), false
	}

	now := c.now().UTC()
	session := &models.Session{
		ID:         nuts.NID("ses", 12),
		StartEpoch: now.Unix(),
		StartedAt:  now,
	}
	c.current = session
	c.lastID = session.ID

	if c.sessions != nil {
		if err := c.sessions.Create(ctx, session); err != nil {
			// In-memory state stays authoritative
			nuts.L.Warnf("[Session] Failed to record session %s: %v", session.ID, err)
		}
	}

	nuts.L.Infof("[Session] Started %s at epoch %d", session.ID, session.StartEpoch)
	return c.snapshotLocked(), true
}

// Stop clears the active session. Calling Stop while idle is a no-op; the
// returned session is the one that was closed, nil if none.
func (c *Controller) Stop(ctx context.Context) *models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return nil
	}

	stopped := c.current
	stoppedAt := c.now().UTC()
	stopped.StoppedAt = &stoppedAt
	c.current = nil

	if c.sessions != nil {
		if err := c.sessions.MarkStopped(ctx, stopped); err != nil {
			nuts.L.Warnf("[Session] Failed to record stop of %s: %v", stopped.ID, err)
		}
	}

	nuts.L.Infof("[Session] Stopped %s", stopped.ID)
	return stopped
}

// Status answers the operator status surface. Pure read.
func (c *Controller) Status() models.SessionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return models.SessionStatus{Active: false}
	}
	return models.SessionStatus{
		Active:     true,
		SessionID:  c.current.ID,
		StartEpoch: c.current.StartEpoch,
	}
}

// DeviceConfig answers a device's status poll. The deviceID is accepted for
// future per-device gating but does not alter the answer today.
func (c *Controller) DeviceConfig(deviceID string) models.DeviceConfig {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return models.DeviceConfig{Logging: false, StartEpoch: 0}
	}
	return models.DeviceConfig{Logging: true, StartEpoch: c.current.StartEpoch}
}

// Current returns the active session, or nil when idle
func (c *Controller) Current() *models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// IngestTarget resolves the session an incoming batch attaches to: the
// active session, else the most recently ended one, else empty. Resolved
// under one lock hold so a Start racing with a late flush cannot make the
// pipeline observe an idle controller yet hand the batch to the new session.
func (c *Controller) IngestTarget() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		return c.current.ID
	}
	return c.lastID
}

func (c *Controller) snapshotLocked() *models.Session {
	if c.current == nil {
		return nil
	}
	snapshot := *c.current
	return &snapshot
}
