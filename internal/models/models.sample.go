// FilePath: internal/models/models.sample.go
package models

import "time"

// TimestampFormat is the wire and storage format for sample timestamps.
// The UTC string is the primary time key for downstream consumers.
const TimestampFormat = time.RFC3339

// ParseTimestamp parses a wire timestamp string
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(TimestampFormat, s)
}

// Sample is a single time-of-flight measurement. TimestampUTC is derived on
// the device from the session's start epoch plus local elapsed time; the hub
// never recomputes it.
type Sample struct {
	TimestampUTC   string `json:"timestamp_utc" db:"timestamp_utc"`
	DistanceMM     int    `json:"distance_mm" db:"distance_mm"`
	SignalStrength int    `json:"signal_strength" db:"signal_strength"`
	Status         int    `json:"status" db:"status"`
	Precision      int    `json:"precision" db:"precision"`
}

// SampleBatch is an ordered, non-empty group of samples delivered as one
// upload unit for a single device.
type SampleBatch struct {
	DeviceID string   `json:"device_id"`
	Samples  []Sample `json:"samples"`
}

// StoredSample is a sample as persisted, keyed by session and device with a
// per-stream sequence number that preserves upload order.
type StoredSample struct {
	ID             string    `json:"id" db:"id"`
	SessionID      string    `json:"session_id" db:"session_id"`
	DeviceID       string    `json:"device_id" db:"device_id"`
	Seq            int64     `json:"seq" db:"seq"`
	TimestampUTC   string    `json:"timestamp_utc" db:"timestamp_utc"`
	DistanceMM     int       `json:"distance_mm" db:"distance_mm"`
	SignalStrength int       `json:"signal_strength" db:"signal_strength"`
	Status         int       `json:"status" db:"status"`
	Precision      int       `json:"precision" db:"precision"`
	ReceivedAt     time.Time `json:"received_at" db:"received_at"`
}

// IngestAck acknowledges a bulk sample delivery
type IngestAck struct {
	Accepted  int    `json:"accepted"`
	SessionID string `json:"session_id"`
}
