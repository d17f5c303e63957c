// FilePath: internal/repository/postgres/postgres.samples.go
package postgres

import (
	"context"
	"time"

	"github.com/fieldsync/tofhub/internal/database"
	"github.com/fieldsync/tofhub/internal/errors"
	"github.com/fieldsync/tofhub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

type SampleRepo struct {
	db database.DB
}

func NewSampleRepository(db database.DB) (*SampleRepo, error) {
	repo := &SampleRepo{db: db}
	if err := repo.initializeSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *SampleRepo) initializeSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS samples (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			device_id TEXT NOT NULL,
			seq BIGINT NOT NULL,
			timestamp_utc TEXT NOT NULL,
			distance_mm INTEGER NOT NULL,
			signal_strength INTEGER NOT NULL,
			status INTEGER NOT NULL,
			precision INTEGER NOT NULL,
			received_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_samples_stream
		 ON samples(session_id, device_id, seq)`,
	}

	for _, query := range queries {
		if _, err := r.db.GetDB().Exec(query); err != nil {
			return errors.NewDatabaseError("failed to initialize samples schema", err)
		}
	}
	return nil
}

// AppendBatch appends samples to the (sessionID, deviceID) stream in the
// given order. Sequence numbers continue from the stream's current tail so
// that append-order == storage-order across uploads.
func (r *SampleRepo) AppendBatch(ctx context.Context, sessionID, deviceID string, samples []models.Sample) error {
	if len(samples) == 0 {
		return errors.NewValidationError("empty sample batch", nil)
	}

	tx, err := r.db.GetDB().BeginTxx(ctx, nil)
	if err != nil {
		return errors.NewDatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	var next int64
	err = tx.GetContext(ctx, &next,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM samples WHERE session_id = $1 AND device_id = $2`,
		sessionID, deviceID)
	if err != nil {
		return errors.NewDatabaseError("failed to resolve stream sequence", err)
	}

	query := `
		INSERT INTO samples (id, session_id, device_id, seq, timestamp_utc,
			distance_mm, signal_strength, status, precision, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	now := time.Now().UTC()
	for i, s := range samples {
		id := nuts.NID("smp", 12)
		_, err := tx.ExecContext(ctx, query, id, sessionID, deviceID, next+int64(i),
			s.TimestampUTC, s.DistanceMM, s.SignalStrength, s.Status, s.Precision, now)
		if err != nil {
			return errors.NewDatabaseError("failed to insert sample", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewDatabaseError("failed to commit sample batch", err)
	}
	return nil
}

// ListBySession returns all per-device streams of a session in append order
func (r *SampleRepo) ListBySession(ctx context.Context, sessionID string) (map[string][]models.StoredSample, error) {
	rows := []models.StoredSample{}
	query := `
		SELECT id, session_id, device_id, seq, timestamp_utc,
			distance_mm, signal_strength, status, precision, received_at
		FROM samples
		WHERE session_id = $1
		ORDER BY device_id, seq`

	err := r.db.GetDB().SelectContext(ctx, &rows, query, sessionID)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list session samples", err)
	}

	streams := make(map[string][]models.StoredSample)
	for _, row := range rows {
		streams[row.DeviceID] = append(streams[row.DeviceID], row)
	}
	return streams, nil
}

func (r *SampleRepo) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	var count int64
	err := r.db.GetDB().GetContext(ctx, &count,
		`SELECT COUNT(*) FROM samples WHERE session_id = $1`, sessionID)
	if err != nil {
		return 0, errors.NewDatabaseError("failed to count session samples", err)
	}
	return count, nil
}
