// FilePath: api/resources/api.resource.samples.go
package resources

import (
	"encoding/json"
	"net/http"

	"github.com/fieldsync/tofhub/internal/archive"
	"github.com/fieldsync/tofhub/internal/errors"
	"github.com/fieldsync/tofhub/internal/ingest"
	"github.com/fieldsync/tofhub/internal/models"
	"github.com/fieldsync/tofhub/internal/session"
	"github.com/gorilla/mux"
	nuts "github.com/vaudience/go-nuts"
)

// SampleHandlers encapsulates the data-plane handlers
type SampleHandlers struct {
	pipeline *ingest.Pipeline
	packager *archive.Packager
	sessions *session.Controller
}

// @Summary Ingest a sample batch
// @Description Accept an ordered, non-empty batch of samples from a device
// @Tags samples
// @Accept json
// @Produce json
// @Param deviceId path string true "Device ID"
// @Param batch body models.SampleBatch true "Sample batch"
// @Success 201 {object} models.IngestAck
// @Failure 400 {object} errors.APIError
// @Router /devices/{deviceId}/samples [post]
func (h *SampleHandlers) BulkSamples(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	deviceID := vars["deviceId"]
	requestID := nuts.NID("req", 12)

	var batch models.SampleBatch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}

	// The path segment wins over the body field when both are present
	if batch.DeviceID != "" && batch.DeviceID != deviceID {
		nuts.L.Warnf("[API] Batch device_id %q does not match path %q, using path", batch.DeviceID, deviceID)
	}

	ack, err := h.pipeline.Ingest(r.Context(), deviceID, batch.Samples)
	if err != nil {
		if apiErr, ok := err.(*errors.APIError); ok {
			respondWithError(w, apiErr.WithRequestID(requestID))
			return
		}
		respondWithError(w, errors.NewInternalError("failed to ingest samples", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusCreated, ack)
}

// @Summary Download a session archive
// @Description Stream the packaged zip of a recorded session
// @Tags samples
// @Produce application/zip
// @Param id path string true "Session ID"
// @Success 200 {file} binary
// @Failure 404 {object} errors.APIError
// @Failure 409 {object} errors.APIError
// @Router /sessions/{id}/archive [get]
func (h *SampleHandlers) DownloadArchive(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID := vars["id"]
	requestID := nuts.NID("req", 12)

	if current := h.sessions.Current(); current.Active() && current.ID == sessionID {
		respondWithError(w, errors.NewConflictError("session is still recording", nil).WithRequestID(requestID))
		return
	}

	// Devices flush their tails up to a poll interval after the stop, so the
	// stop-time zip may be stale; re-package before serving when it is
	archivePath, err := h.packager.Refresh(r.Context(), sessionID)
	if err != nil {
		if apiErr, ok := err.(*errors.APIError); ok {
			respondWithError(w, apiErr.WithRequestID(requestID))
			return
		}
		respondWithError(w, errors.NewInternalError("failed to prepare archive", err).WithRequestID(requestID))
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+sessionID+`.zip"`)
	http.ServeFile(w, r, archivePath)
}
