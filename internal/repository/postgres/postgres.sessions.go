// FilePath: internal/repository/postgres/postgres.sessions.go
package postgres

import (
	"context"

	"github.com/fieldsync/tofhub/internal/database"
	"github.com/fieldsync/tofhub/internal/errors"
	"github.com/fieldsync/tofhub/internal/models"
)

type SessionRepo struct {
	db database.DB
}

func NewSessionRepository(db database.DB) (*SessionRepo, error) {
	repo := &SessionRepo{db: db}
	if err := repo.initializeSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *SessionRepo) initializeSchema() error {
	query := `CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		start_epoch BIGINT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		stopped_at TIMESTAMPTZ
	)`
	if _, err := r.db.GetDB().Exec(query); err != nil {
		return errors.NewDatabaseError("failed to initialize sessions schema", err)
	}
	return nil
}

func (r *SessionRepo) Create(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (id, start_epoch, started_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING`

	_, err := r.db.GetDB().ExecContext(ctx, query, session.ID, session.StartEpoch, session.StartedAt)
	if err != nil {
		return errors.NewDatabaseError("failed to create session record", err)
	}
	return nil
}

func (r *SessionRepo) MarkStopped(ctx context.Context, session *models.Session) error {
	query := `UPDATE sessions SET stopped_at = $2 WHERE id = $1`

	_, err := r.db.GetDB().ExecContext(ctx, query, session.ID, session.StoppedAt)
	if err != nil {
		return errors.NewDatabaseError("failed to mark session stopped", err)
	}
	return nil
}
