// FilePath: device/uploader.go
package device

import (
	"context"
	"fmt"
	"time"

	"github.com/fieldsync/tofhub/internal/models"
	"github.com/go-resty/resty/v2"
)

const defaultHTTPTimeout = 3 * time.Second

// Client talks to the hub's control and data plane. Every request carries a
// bounded timeout covering both connect and read, so a dead link can never
// stall the agent loop past its budget.
type Client struct {
	http *resty.Client
}

// NewClient creates a hub client for the given base URL. A non-positive
// timeout falls back to defaultHTTPTimeout.
func NewClient(hubURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	httpClient := resty.New().
		SetBaseURL(hubURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &Client{http: httpClient}
}

// PollConfig fetches the device's logging gate and session epoch. Any
// transport or decode failure is returned as-is; the caller keeps its
// previous state and retries on the next poll tick.
func (c *Client) PollConfig(ctx context.Context, deviceID string) (models.DeviceConfig, error) {
	var cfg models.DeviceConfig
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("device_id", deviceID).
		SetResult(&cfg).
		Get("/api/v1/config")
	if err != nil {
		return models.DeviceConfig{}, fmt.Errorf("config poll failed: %w", err)
	}
	if resp.IsError() {
		return models.DeviceConfig{}, fmt.Errorf("config poll rejected: %s", resp.Status())
	}
	return cfg, nil
}

// Send delivers one batch to the ingest endpoint. On any failure the caller
// must restore the batch to its buffer; the batch is never consumed here.
func (c *Client) Send(ctx context.Context, deviceID string, samples []models.Sample) error {
	if len(samples) == 0 {
		return fmt.Errorf("refusing to send empty batch")
	}
	batch := models.SampleBatch{DeviceID: deviceID, Samples: samples}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(batch).
		Post(fmt.Sprintf("/api/v1/devices/%s/samples", deviceID))
	if err != nil {
		return fmt.Errorf("batch upload failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("batch upload rejected: %s", resp.Status())
	}
	return nil
}
