// FilePath: internal/repository/repository.go
package repository

import (
	"context"

	"github.com/fieldsync/tofhub/internal/models"
)

// SampleRepository defines the append-only sample store. AppendBatch must
// preserve the order of the given samples within the (sessionID, deviceID)
// stream; ListBySession returns streams grouped by device in append order.
type SampleRepository interface {
	AppendBatch(ctx context.Context, sessionID, deviceID string, samples []models.Sample) error
	ListBySession(ctx context.Context, sessionID string) (map[string][]models.StoredSample, error)
	CountBySession(ctx context.Context, sessionID string) (int64, error)
}

// SessionRepository records session lifecycle transitions. The in-memory
// session controller stays authoritative; these records exist for archive
// naming and operator audit.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	MarkStopped(ctx context.Context, session *models.Session) error
}
