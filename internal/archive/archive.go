// FilePath: internal/archive/archive.go
package archive

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/fieldsync/tofhub/internal/errors"
	"github.com/fieldsync/tofhub/internal/models"
	"github.com/fieldsync/tofhub/internal/repository"
	"github.com/klauspost/compress/flate"
	nuts "github.com/vaudience/go-nuts"
)

const defaultPermissions = 0755

var csvHeader = []string{"timestamp_utc", "distance_mm", "signal_strength", "status", "precision"}

// Packager writes one downloadable zip per session: a CSV per device, rows
// in storage order. The stop-time packaging run is a snapshot; devices flush
// their tails within a poll interval of the stop, so Refresh re-packages
// whenever the store has grown past what the last run archived.
type Packager struct {
	basePath string
	samples  repository.SampleRepository

	mu       sync.Mutex
	archived map[string]int64
}

func NewPackager(basePath string, samples repository.SampleRepository) (*Packager, error) {
	if err := os.MkdirAll(basePath, defaultPermissions); err != nil {
		return nil, errors.NewInternalError("failed to create archive directory", err)
	}
	return &Packager{
		basePath: basePath,
		samples:  samples,
		archived: make(map[string]int64),
	}, nil
}

// Package writes <basePath>/<sessionID>.zip and returns its path. Sessions
// with no stored samples still produce an archive, with no CSV entries.
func (p *Packager) Package(ctx context.Context, sessionID string) (string, error) {
	streams, err := p.samples.ListBySession(ctx, sessionID)
	if err != nil {
		return "", err
	}

	archivePath := filepath.Join(p.basePath, sessionID+".zip")
	f, err := os.Create(archivePath)
	if err != nil {
		return "", errors.NewInternalError("failed to create archive file", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestSpeed)
	})

	var total int64
	for deviceID, samples := range streams {
		total += int64(len(samples))
		if err := writeDeviceCSV(zw, sessionID, deviceID, samples); err != nil {
			zw.Close()
			return "", err
		}
	}

	if err := zw.Close(); err != nil {
		return "", errors.NewInternalError("failed to finalize archive", err)
	}

	p.mu.Lock()
	p.archived[sessionID] = total
	p.mu.Unlock()

	nuts.L.Infof("[Archive] Packaged session %s (%d devices, %d samples) at %s", sessionID, len(streams), total, archivePath)
	return archivePath, nil
}

// Refresh returns the archive path for a session, re-packaging first when
// samples landed after the last packaging run. A session with no archive and
// no stored samples is not found.
func (p *Packager) Refresh(ctx context.Context, sessionID string) (string, error) {
	count, err := p.samples.CountBySession(ctx, sessionID)
	if err != nil {
		return "", err
	}

	archivePath, pathErr := p.Path(sessionID)
	if pathErr != nil && count == 0 {
		return "", pathErr
	}
	if pathErr == nil && p.archivedCount(sessionID) == count {
		return archivePath, nil
	}
	return p.Package(ctx, sessionID)
}

func (p *Packager) archivedCount(sessionID string) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.archived[sessionID]
}

// Path returns the archive location for a session, or a not-found error
func (p *Packager) Path(sessionID string) (string, error) {
	archivePath := filepath.Join(p.basePath, sessionID+".zip")
	if _, err := os.Stat(archivePath); err != nil {
		return "", errors.NewNotFoundError("archive not found", err)
	}
	return archivePath, nil
}

func writeDeviceCSV(zw *zip.Writer, sessionID, deviceID string, samples []models.StoredSample) error {
	entry, err := zw.Create(fmt.Sprintf("%s/%s.csv", sessionID, deviceID))
	if err != nil {
		return errors.NewInternalError("failed to create archive entry", err)
	}

	w := csv.NewWriter(entry)
	if err := w.Write(csvHeader); err != nil {
		return errors.NewInternalError("failed to write csv header", err)
	}
	for _, s := range samples {
		record := []string{
			s.TimestampUTC,
			strconv.Itoa(s.DistanceMM),
			strconv.Itoa(s.SignalStrength),
			strconv.Itoa(s.Status),
			strconv.Itoa(s.Precision),
		}
		if err := w.Write(record); err != nil {
			return errors.NewInternalError("failed to write csv record", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.NewInternalError("failed to flush csv", err)
	}
	return nil
}
