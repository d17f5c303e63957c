// FilePath: api/resources/api.resource.sessions.go
package resources

import (
	"net/http"
	"time"

	"github.com/fieldsync/tofhub/internal/archive"
	"github.com/fieldsync/tofhub/internal/errors"
	"github.com/fieldsync/tofhub/internal/models"
	"github.com/fieldsync/tofhub/internal/presence"
	"github.com/fieldsync/tofhub/internal/session"
	"github.com/gorilla/schema"
	nuts "github.com/vaudience/go-nuts"
)

// presenceWindow bounds how recently a device must have polled to count as
// connected on the status surface.
const presenceWindow = 30 * time.Second

var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// SessionHandlers encapsulates the session control-plane handlers
type SessionHandlers struct {
	sessions *session.Controller
	packager *archive.Packager
	tracker  *presence.Tracker
}

type configQuery struct {
	DeviceID string `schema:"device_id"`
}

// @Summary Device status poll
// @Description Answer a device's poll with the logging gate and session epoch
// @Tags sessions
// @Produce json
// @Param device_id query string true "Device ID"
// @Success 200 {object} models.DeviceConfig
// @Router /config [get]
func (h *SessionHandlers) GetConfig(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var query configQuery
	if err := queryDecoder.Decode(&query, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return
	}
	if query.DeviceID == "" {
		respondWithError(w, errors.NewValidationError("missing device_id", nil).WithRequestID(requestID))
		return
	}

	if h.tracker != nil {
		h.tracker.Touch(r.Context(), query.DeviceID)
	}

	respondWithJSON(w, http.StatusOK, h.sessions.DeviceConfig(query.DeviceID))
}

// @Summary Start a recording session
// @Description Activate a session if none is active; idempotent while active
// @Tags sessions
// @Produce json
// @Success 200 {object} models.StartResponse
// @Router /sessions/start [post]
func (h *SessionHandlers) StartSession(w http.ResponseWriter, r *http.Request) {
	current, created := h.sessions.Start(r.Context())
	if !created {
		nuts.L.Infof("[API] Start request joined running session %s", current.ID)
	}

	respondWithJSON(w, http.StatusOK, models.StartResponse{
		SessionID:  current.ID,
		StartEpoch: current.StartEpoch,
	})
}

// @Summary Stop the recording session
// @Description Clear the active session and package its data for download
// @Tags sessions
// @Produce json
// @Success 200 {object} models.StopResponse
// @Router /sessions/stop [post]
func (h *SessionHandlers) StopSession(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	stopped := h.sessions.Stop(r.Context())
	if stopped == nil {
		// Stopping an idle controller is a no-op, not an error
		respondWithJSON(w, http.StatusOK, models.StopResponse{Stopped: false})
		return
	}

	resp := models.StopResponse{Stopped: true, SessionID: stopped.ID}
	archivePath, err := h.packager.Package(r.Context(), stopped.ID)
	if err != nil {
		// The session is stopped regardless; packaging can be retried via
		// the archive endpoint once ingestion settles
		nuts.L.Errorf("[API] Packaging of %s failed: %v (request %s)", stopped.ID, err, requestID)
	} else {
		resp.Archive = archivePath
	}

	respondWithJSON(w, http.StatusOK, resp)
}

// @Summary Session status
// @Description Operator-facing session state and connected devices
// @Tags sessions
// @Produce json
// @Success 200 {object} models.SessionStatus
// @Router /sessions/status [get]
func (h *SessionHandlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	status := h.sessions.Status()
	if h.tracker != nil {
		status.Devices = h.tracker.Active(r.Context(), presenceWindow)
	}
	respondWithJSON(w, http.StatusOK, status)
}
