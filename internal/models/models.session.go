// FilePath: internal/models/models.session.go
package models

import "time"

// Session represents one logical recording window shared by all devices.
// StartEpoch is whole seconds since the Unix epoch; zero means no active
// session.
type Session struct {
	ID         string     `json:"session_id" db:"id"`
	StartEpoch int64      `json:"start_epoch" db:"start_epoch"`
	StartedAt  time.Time  `json:"started_at" db:"started_at"`
	StoppedAt  *time.Time `json:"stopped_at,omitempty" db:"stopped_at"`
}

// Active reports whether the session carries a live recording window
func (s *Session) Active() bool {
	return s != nil && s.StartEpoch != 0 && s.StoppedAt == nil
}

// SessionStatus is the operator-facing status surface
type SessionStatus struct {
	Active     bool     `json:"active"`
	SessionID  string   `json:"session_id,omitempty"`
	StartEpoch int64    `json:"start_epoch"`
	Devices    []string `json:"devices,omitempty"`
}

// DeviceConfig is the answer to a device's status poll. Devices key off
// StartEpoch alone: zero means idle, a changed nonzero value means re-sync.
type DeviceConfig struct {
	Logging    bool  `json:"logging"`
	StartEpoch int64 `json:"start_epoch"`
}

// StartResponse is returned by the session start endpoint
type StartResponse struct {
	SessionID  string `json:"session_id"`
	StartEpoch int64  `json:"start_epoch"`
}

// StopResponse is returned by the session stop endpoint
type StopResponse struct {
	Stopped   bool   `json:"stopped"`
	SessionID string `json:"session_id,omitempty"`
	Archive   string `json:"archive,omitempty"`
}
