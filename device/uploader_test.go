// FilePath: device/uploader_test.go
package device

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fieldsync/tofhub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollConfigDecodesGate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/config", r.URL.Path)
		assert.Equal(t, "tof-1", r.URL.Query().Get("device_id"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.DeviceConfig{Logging: true, StartEpoch: 1700000000})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	cfg, err := c.PollConfig(context.Background(), "tof-1")
	require.NoError(t, err)
	assert.True(t, cfg.Logging)
	assert.Equal(t, int64(1700000000), cfg.StartEpoch)
}

func TestPollConfigErrorOnRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.PollConfig(context.Background(), "tof-1")
	assert.Error(t, err)
}

func TestSendPostsOrderedBatch(t *testing.T) {
	var received models.SampleBatch
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/devices/tof-1/samples", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	samples := []models.Sample{
		{TimestampUTC: "2023-11-14T22:13:20Z", DistanceMM: 1},
		{TimestampUTC: "2023-11-14T22:13:21Z", DistanceMM: 2},
	}

	c := NewClient(srv.URL, time.Second)
	require.NoError(t, c.Send(context.Background(), "tof-1", samples))
	assert.Equal(t, "tof-1", received.DeviceID)
	require.Len(t, received.Samples, 2)
	assert.Equal(t, 1, received.Samples[0].DistanceMM)
	assert.Equal(t, 2, received.Samples[1].DistanceMM)
}

func TestSendErrorOnServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	err := c.Send(context.Background(), "tof-1", []models.Sample{{TimestampUTC: "2023-11-14T22:13:20Z"}})
	assert.Error(t, err)
}

func TestSendErrorOnDeadHub(t *testing.T) {
	// Nothing is listening here
	c := NewClient("http://127.0.0.1:1", 200*time.Millisecond)
	err := c.Send(context.Background(), "tof-1", []models.Sample{{TimestampUTC: "2023-11-14T22:13:20Z"}})
	assert.Error(t, err)
}

func TestSendRefusesEmptyBatch(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", time.Second)
	assert.Error(t, c.Send(context.Background(), "tof-1", nil))
}
