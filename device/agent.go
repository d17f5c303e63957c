// FilePath: device/agent.go
package device

import (
	"context"
	"time"

	"github.com/fieldsync/tofhub/internal/config"
	"github.com/fieldsync/tofhub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// ConfigPoller is the control-plane side of the hub client
type ConfigPoller interface {
	PollConfig(ctx context.Context, deviceID string) (models.DeviceConfig, error)
}

// BatchSender is the data-plane side of the hub client
type BatchSender interface {
	Send(ctx context.Context, deviceID string, samples []models.Sample) error
}

// Agent runs the device's cooperative loop: config polling, sampling and
// uploading share one execution context with no preemption. Each Tick
// performs only the steps whose counters are due, and every step is bounded
// in time (network calls carry the client timeout), so a slow upload can
// delay but never starve polling.
//
// Timers are plain tick counters, not sleeps. Uploads are synchronous
// within the tick, which makes the at-most-one-in-flight rule structural:
// a trigger arriving during an upload is simply the next due tick.
type Agent struct {
	deviceID string
	hub      HubClient
	sensor   Sensor
	clock    *Clock
	buffer   *Buffer

	tick        time.Duration
	pollEvery   int
	sampleEvery int
	uploadEvery int

	pollCountdown   int
	sampleCountdown int
	uploadCountdown int

	// finalFlush keeps the upload path open after a stop until the tail of
	// the buffer has been delivered; everything else obeys the idle gate.
	finalFlush bool
}

// HubClient joins both planes of the hub API
type HubClient interface {
	ConfigPoller
	BatchSender
}

// NewAgent wires a device agent from configuration. The base tick is the
// sample interval; poll and upload intervals are rounded down to whole
// ticks, minimum one.
func NewAgent(cfg config.DeviceConfig, hub HubClient, sensor Sensor) *Agent {
	tick := cfg.SampleInterval
	if tick <= 0 {
		tick = 100 * time.Millisecond
	}
	a := &Agent{
		deviceID:    cfg.DeviceID,
		hub:         hub,
		sensor:      sensor,
		clock:       NewClock(),
		buffer:      NewBuffer(cfg.BufferCapacity),
		tick:        tick,
		pollEvery:   ticksFor(cfg.PollInterval, tick),
		sampleEvery: 1,
		uploadEvery: ticksFor(cfg.UploadInterval, tick),
	}
	// Poll and sample fire on the first tick; the upload timer starts full
	a.uploadCountdown = a.uploadEvery
	return a
}

// Run drives the loop until the context is cancelled
func (a *Agent) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.tick)
	defer ticker.Stop()

	nuts.L.Infof("[Agent] Device %s running, tick %v", a.deviceID, a.tick)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			a.Tick(ctx, now)
		}
	}
}

// Tick executes one scheduling round at the given local instant
func (a *Agent) Tick(ctx context.Context, now time.Time) {
	a.pollCountdown--
	a.sampleCountdown--
	a.uploadCountdown--

	if a.pollCountdown <= 0 {
		a.pollCountdown = a.pollEvery
		a.pollStep(ctx, now)
	}
	if a.sampleCountdown <= 0 {
		a.sampleCountdown = a.sampleEvery
		a.sampleStep(now)
	}
	if a.uploadCountdown <= 0 {
		a.uploadCountdown = a.uploadEvery
		a.uploadStep(ctx)
	}
}

// pollStep queries the hub's session state. A failed poll changes nothing:
// the previous state stands until the next successful poll.
func (a *Agent) pollStep(ctx context.Context, now time.Time) {
	gate, err := a.hub.PollConfig(ctx, a.deviceID)
	if err != nil {
		nuts.L.Warnf("[Agent] Poll failed, keeping state: %v", err)
		return
	}

	switch a.clock.Observe(gate.StartEpoch, now) {
	case Synced:
		nuts.L.Infof("[Agent] Synced to epoch %d", gate.StartEpoch)
	case Resynced:
		// Buffered samples belong to the superseded session
		dropped := a.buffer.Len()
		a.buffer.Reset()
		a.finalFlush = false
		nuts.L.Infof("[Agent] Re-synced to epoch %d, dropped %d stale samples", gate.StartEpoch, dropped)
	case Stopped:
		a.finalFlush = a.buffer.Len() > 0
		if a.finalFlush {
			// Flush the tail this tick instead of waiting out the timer
			a.uploadCountdown = 0
		}
		nuts.L.Infof("[Agent] Session stopped, %d samples pending final flush", a.buffer.Len())
	}
}

// sampleStep reads the sensor and buffers a stamped sample. Hard-gated on
// sync state: an idle device must not sample.
func (a *Agent) sampleStep(now time.Time) {
	if !a.clock.Synced() {
		return
	}

	reading, err := a.sensor.Read()
	if err != nil {
		nuts.L.Warnf("[Agent] Sensor read failed: %v", err)
		return
	}

	full := a.buffer.Append(models.Sample{
		TimestampUTC:   a.clock.Timestamp(now),
		DistanceMM:     reading.DistanceMM,
		SignalStrength: reading.SignalStrength,
		Status:         reading.Status,
		Precision:      reading.Precision,
	})
	if full {
		// Capacity trigger: force the flush ahead of the interval timer
		a.uploadCountdown = 0
	}
}

// uploadStep drains the buffer into one batch and delivers it. On failure
// the batch is restored intact; the next trigger retries with the union of
// restored and newly accumulated samples.
func (a *Agent) uploadStep(ctx context.Context) {
	if !a.clock.Synced() && !a.finalFlush {
		return
	}

	batch := a.buffer.Flush()
	if len(batch) == 0 {
		a.finalFlush = false
		return
	}

	if err := a.hub.Send(ctx, a.deviceID, batch); err != nil {
		a.buffer.Restore(batch)
		nuts.L.Warnf("[Agent] Upload of %d samples failed, buffered for retry: %v", len(batch), err)
		return
	}

	if a.finalFlush {
		a.finalFlush = false
		nuts.L.Infof("[Agent] Final flush of %d samples delivered", len(batch))
	}
}

func ticksFor(interval, tick time.Duration) int {
	if interval <= 0 || tick <= 0 {
		return 1
	}
	n := int(interval / tick)
	if n < 1 {
		n = 1
	}
	return n
}
