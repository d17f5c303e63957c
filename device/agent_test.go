// FilePath: device/agent_test.go
package device

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fieldsync/tofhub/internal/config"
	"github.com/fieldsync/tofhub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHub scripts the hub's answers: a settable epoch and a countdown of
// upload failures. Every delivered batch is recorded.
type fakeHub struct {
	epoch    int64
	pollErr  error
	failNext int
	batches  [][]models.Sample
}

func (f *fakeHub) PollConfig(ctx context.Context, deviceID string) (models.DeviceConfig, error) {
	if f.pollErr != nil {
		return models.DeviceConfig{}, f.pollErr
	}
	return models.DeviceConfig{Logging: f.epoch != 0, StartEpoch: f.epoch}, nil
}

func (f *fakeHub) Send(ctx context.Context, deviceID string, samples []models.Sample) error {
	if f.failNext > 0 {
		f.failNext--
		return errors.New("connection refused")
	}
	batch := make([]models.Sample, len(samples))
	copy(batch, samples)
	f.batches = append(f.batches, batch)
	return nil
}

// countingSensor emits distances 1, 2, 3, ... so ordering is verifiable
type countingSensor struct {
	n int
}

func (s *countingSensor) Read() (Reading, error) {
	s.n++
	return Reading{DistanceMM: s.n, SignalStrength: 80, Status: 0, Precision: 1}, nil
}

func testAgentConfig() config.DeviceConfig {
	return config.DeviceConfig{
		DeviceID:       "tof-1",
		SampleInterval: 100 * time.Millisecond,
		// Poll and upload timers far out of the way; tests force them
		PollInterval:   100 * time.Second,
		UploadInterval: 100 * time.Second,
		BufferCapacity: 10,
	}
}

func runTicks(a *Agent, base time.Time, from, to int) {
	for i := from; i <= to; i++ {
		a.Tick(context.Background(), base.Add(time.Duration(i)*100*time.Millisecond))
	}
}

func TestTwelveSamplesSplitIntoTwoBatches(t *testing.T) {
	hub := &fakeHub{epoch: 1700000000}
	a := NewAgent(testAgentConfig(), hub, &countingSensor{})
	base := time.Now()

	// Tick 1 polls and syncs; ticks 1..12 each produce one sample. The
	// capacity trigger fires at sample 10.
	runTicks(a, base, 1, 12)

	// Session ends; the device notices on its next poll and flushes the tail
	hub.epoch = 0
	a.pollCountdown = 0
	runTicks(a, base, 13, 13)

	require.Len(t, hub.batches, 2)
	assert.Len(t, hub.batches[0], 10)
	assert.Len(t, hub.batches[1], 2)

	// End-to-end order: distances 1..10 then 11..12
	for i, s := range hub.batches[0] {
		assert.Equal(t, i+1, s.DistanceMM)
	}
	assert.Equal(t, 11, hub.batches[1][0].DistanceMM)
	assert.Equal(t, 12, hub.batches[1][1].DistanceMM)
}

func TestUploadFailuresPreserveAndMergeBuffer(t *testing.T) {
	hub := &fakeHub{epoch: 1700000000, failNext: 2}
	a := NewAgent(testAgentConfig(), hub, &countingSensor{})
	base := time.Now()

	// Sync and take three samples, then force an upload that fails
	runTicks(a, base, 1, 3)
	a.uploadCountdown = 0
	runTicks(a, base, 4, 4)
	assert.Empty(t, hub.batches)
	assert.Equal(t, 4, a.buffer.Len())

	// Second attempt fails too; samples keep accumulating
	a.uploadCountdown = 0
	runTicks(a, base, 5, 5)
	assert.Empty(t, hub.batches)
	assert.Equal(t, 5, a.buffer.Len())

	// Third attempt delivers the union as one batch and clears the buffer
	a.uploadCountdown = 0
	runTicks(a, base, 6, 6)
	require.Len(t, hub.batches, 1)
	require.Len(t, hub.batches[0], 6)
	for i, s := range hub.batches[0] {
		assert.Equal(t, i+1, s.DistanceMM)
	}
	assert.Zero(t, a.buffer.Len())
}

func TestResyncDiscardsStaleSamples(t *testing.T) {
	hub := &fakeHub{epoch: 1700000000}
	a := NewAgent(testAgentConfig(), hub, &countingSensor{})
	base := time.Now()

	runTicks(a, base, 1, 5)
	require.Equal(t, 5, a.buffer.Len())

	// A brand-new session appears without an observed stop
	hub.epoch = 1800000000
	a.pollCountdown = 0
	runTicks(a, base, 6, 6)

	// The stale samples are gone; only the post-resync sample remains
	require.Equal(t, 1, a.buffer.Len())
	batch := a.buffer.Flush()
	assert.Equal(t, 6, batch[0].DistanceMM)
	assert.Equal(t, int64(1800000000), a.clock.Epoch())
}

func TestIdleDeviceNeverSamplesOrUploads(t *testing.T) {
	hub := &fakeHub{epoch: 0}
	sensor := &countingSensor{}
	a := NewAgent(testAgentConfig(), hub, sensor)
	base := time.Now()

	a.uploadCountdown = 0
	runTicks(a, base, 1, 20)

	assert.Zero(t, a.buffer.Len())
	assert.Zero(t, sensor.n)
	assert.Empty(t, hub.batches)
}

func TestFailedPollRetainsPreviousState(t *testing.T) {
	hub := &fakeHub{epoch: 1700000000}
	a := NewAgent(testAgentConfig(), hub, &countingSensor{})
	base := time.Now()

	runTicks(a, base, 1, 2)
	require.True(t, a.clock.Synced())

	// A transient poll failure must not cause a false stop
	hub.pollErr = errors.New("timeout")
	a.pollCountdown = 0
	runTicks(a, base, 3, 3)

	assert.True(t, a.clock.Synced())
	assert.Equal(t, 3, a.buffer.Len())
}

func TestFinalFlushRetriesUntilDelivered(t *testing.T) {
	hub := &fakeHub{epoch: 1700000000, failNext: 1}
	a := NewAgent(testAgentConfig(), hub, &countingSensor{})
	base := time.Now()

	runTicks(a, base, 1, 4)
	require.Equal(t, 4, a.buffer.Len())

	// Stop arrives; the first flush attempt fails and the tail is retained
	hub.epoch = 0
	a.pollCountdown = 0
	runTicks(a, base, 5, 5)
	assert.Empty(t, hub.batches)
	assert.Equal(t, 4, a.buffer.Len())

	// Next upload trigger delivers it even though the device is now idle
	a.uploadCountdown = 0
	runTicks(a, base, 6, 6)
	require.Len(t, hub.batches, 1)
	assert.Len(t, hub.batches[0], 4)
	assert.Zero(t, a.buffer.Len())
}
