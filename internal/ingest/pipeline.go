// FilePath: internal/ingest/pipeline.go
package ingest

import (
	"context"

	"github.com/fieldsync/tofhub/internal/errors"
	"github.com/fieldsync/tofhub/internal/models"
	"github.com/fieldsync/tofhub/internal/presence"
	"github.com/fieldsync/tofhub/internal/repository"
	"github.com/fieldsync/tofhub/internal/session"
	nuts "github.com/vaudience/go-nuts"
)

// UnassignedSession keys batches that arrive before any session was ever
// started. They are persisted rather than rejected so a device that flushed
// after a hub restart does not lose data.
const UnassignedSession = "unassigned"

// Pipeline validates incoming sample batches and appends them to the store,
// keyed by session and device. Delivery is at-least-once: a client retry
// after a lost ack may duplicate rows, which is accepted.
type Pipeline struct {
	sessions *session.Controller
	samples  repository.SampleRepository
	tracker  *presence.Tracker
}

func NewPipeline(sessions *session.Controller, samples repository.SampleRepository, tracker *presence.Tracker) *Pipeline {
	return &Pipeline{
		sessions: sessions,
		samples:  samples,
		tracker:  tracker,
	}
}

// Ingest appends a device's batch to the resolved session stream. Batches
// arriving with no active session attach to the most recently ended one
// (the flush-on-stop path), never to a future session.
func (p *Pipeline) Ingest(ctx context.Context, deviceID string, samples []models.Sample) (*models.IngestAck, error) {
	if deviceID == "" {
		return nil, errors.NewValidationError("missing device_id", nil)
	}
	if len(samples) == 0 {
		return nil, errors.NewValidationError("empty sample batch", nil)
	}
	for i, s := range samples {
		if s.TimestampUTC == "" {
			return nil, errors.NewValidationError("sample missing timestamp_utc", nil).
				WithDetails(map[string]int{"index": i})
		}
		if _, err := models.ParseTimestamp(s.TimestampUTC); err != nil {
			return nil, errors.NewValidationError("sample timestamp_utc is not RFC3339 UTC", err).
				WithDetails(map[string]int{"index": i})
		}
	}

	sessionID := p.resolveSession()

	if err := p.samples.AppendBatch(ctx, sessionID, deviceID, samples); err != nil {
		return nil, err
	}

	if p.tracker != nil {
		p.tracker.Touch(ctx, deviceID)
	}

	nuts.L.Infof("[Ingest] Stored %d samples from %s in session %s", len(samples), deviceID, sessionID)
	return &models.IngestAck{Accepted: len(samples), SessionID: sessionID}, nil
}

func (p *Pipeline) resolveSession() string {
	if target := p.sessions.IngestTarget(); target != "" {
		return target
	}
	return UnassignedSession
}
