// FilePath: device/buffer_test.go
package device

import (
	"strconv"
	"testing"

	"github.com/fieldsync/tofhub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleN(n int) models.Sample {
	return models.Sample{TimestampUTC: "s" + strconv.Itoa(n), DistanceMM: n}
}

func TestAppendReportsCapacity(t *testing.T) {
	b := NewBuffer(3)

	assert.False(t, b.Append(sampleN(1)))
	assert.False(t, b.Append(sampleN(2)))
	assert.True(t, b.Append(sampleN(3)))
	assert.Equal(t, 3, b.Len())
}

func TestFlushDrainsInOrder(t *testing.T) {
	b := NewBuffer(10)
	for i := 1; i <= 5; i++ {
		b.Append(sampleN(i))
	}

	batch := b.Flush()
	require.Len(t, batch, 5)
	for i, s := range batch {
		assert.Equal(t, i+1, s.DistanceMM)
	}
	assert.Zero(t, b.Len())
}

func TestFlushEmptyYieldsNothing(t *testing.T) {
	b := NewBuffer(10)
	assert.Nil(t, b.Flush())
}

func TestOverflowDropsOldest(t *testing.T) {
	b := NewBuffer(3)
	for i := 1; i <= 5; i++ {
		b.Append(sampleN(i))
	}

	batch := b.Flush()
	require.Len(t, batch, 3)
	assert.Equal(t, 3, batch[0].DistanceMM)
	assert.Equal(t, 5, batch[2].DistanceMM)
}

func TestRestorePreservesSamplingOrder(t *testing.T) {
	b := NewBuffer(10)
	for i := 1; i <= 3; i++ {
		b.Append(sampleN(i))
	}

	// Upload fails: the batch goes back ahead of samples appended meanwhile
	batch := b.Flush()
	b.Append(sampleN(4))
	b.Append(sampleN(5))
	b.Restore(batch)

	merged := b.Flush()
	require.Len(t, merged, 5)
	for i, s := range merged {
		assert.Equal(t, i+1, s.DistanceMM)
	}
}

func TestRestoreContentsEqualBeforeFailedAttempt(t *testing.T) {
	b := NewBuffer(10)
	for i := 1; i <= 4; i++ {
		b.Append(sampleN(i))
	}

	batch := b.Flush()
	b.Restore(batch)

	after := b.Flush()
	assert.Equal(t, batch, after)
}

func TestRestoreCapsAtCapacityKeepingNewest(t *testing.T) {
	b := NewBuffer(4)
	for i := 1; i <= 3; i++ {
		b.Append(sampleN(i))
	}

	batch := b.Flush()
	b.Append(sampleN(4))
	b.Append(sampleN(5))
	b.Restore(batch)

	merged := b.Flush()
	require.Len(t, merged, 4)
	assert.Equal(t, 2, merged[0].DistanceMM)
	assert.Equal(t, 5, merged[3].DistanceMM)
}

func TestResetDiscardsEverything(t *testing.T) {
	b := NewBuffer(10)
	for i := 1; i <= 6; i++ {
		b.Append(sampleN(i))
	}

	b.Reset()
	assert.Zero(t, b.Len())
	assert.Nil(t, b.Flush())
}

func TestDefaultCapacityFallback(t *testing.T) {
	assert.Equal(t, DefaultBufferCapacity, NewBuffer(0).Capacity())
	assert.Equal(t, DefaultBufferCapacity, NewBuffer(-1).Capacity())
	assert.Equal(t, 7, NewBuffer(7).Capacity())
}
