// FilePath: device/buffer.go
package device

import "github.com/fieldsync/tofhub/internal/models"

// DefaultBufferCapacity bounds pending samples per device. Sustained
// disconnection beyond this many un-flushed samples loses the oldest data
// for the interval; that tradeoff is the deployment's to tune.
const DefaultBufferCapacity = 10

// Buffer is a bounded FIFO of samples awaiting upload for one device.
// Samples leave only through Flush (as one ordered batch) or Reset
// (re-sync discard). Not safe for concurrent use: the agent loop is the
// single owner.
type Buffer struct {
	capacity int
	samples  []models.Sample
}

// NewBuffer creates a buffer with the given capacity; non-positive values
// fall back to DefaultBufferCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultBufferCapacity
	}
	return &Buffer{
		capacity: capacity,
		samples:  make([]models.Sample, 0, capacity),
	}
}

// Append adds a sample at the tail and reports whether the buffer reached
// capacity, which forces a flush before anything else is appended. When the
// buffer is already full the oldest sample is dropped first so the newest
// data survives (documented overflow behavior, never silent growth).
func (b *Buffer) Append(sample models.Sample) (full bool) {
	if len(b.samples) >= b.capacity {
		b.samples = b.samples[1:]
	}
	b.samples = append(b.samples, sample)
	return len(b.samples) >= b.capacity
}

// Flush drains all buffered samples as one ordered batch. Returns nil when
// empty; callers must not emit empty batches.
func (b *Buffer) Flush() []models.Sample {
	if len(b.samples) == 0 {
		return nil
	}
	batch := b.samples
	b.samples = make([]models.Sample, 0, b.capacity)
	return batch
}

// Restore puts a failed batch back in front of anything appended since the
// flush, preserving sampling order. Overflow beyond capacity drops from the
// front, keeping the newest samples.
func (b *Buffer) Restore(batch []models.Sample) {
	if len(batch) == 0 {
		return
	}
	merged := make([]models.Sample, 0, len(batch)+len(b.samples))
	merged = append(merged, batch...)
	merged = append(merged, b.samples...)
	if len(merged) > b.capacity {
		merged = merged[len(merged)-b.capacity:]
	}
	b.samples = merged
}

// Reset discards all pending samples. Used when a new session supersedes
// the held epoch: stale samples belong to the old session and must not
// pollute the new one.
func (b *Buffer) Reset() {
	b.samples = b.samples[:0]
}

// Len returns the current occupancy
func (b *Buffer) Len() int {
	return len(b.samples)
}

// Capacity returns the configured bound
func (b *Buffer) Capacity() int {
	return b.capacity
}
