// FilePath: api/resources/resources.go
package resources

import (
	"encoding/json"
	"net/http"

	"github.com/fieldsync/tofhub/internal/archive"
	"github.com/fieldsync/tofhub/internal/errors"
	"github.com/fieldsync/tofhub/internal/ingest"
	"github.com/fieldsync/tofhub/internal/presence"
	"github.com/fieldsync/tofhub/internal/session"
	nuts "github.com/vaudience/go-nuts"
)

// Resources holds all HTTP resource handlers
type Resources struct {
	Sessions *SessionHandlers
	Samples  *SampleHandlers
}

// NewResources creates a new Resources instance
func NewResources(sessions *session.Controller, pipeline *ingest.Pipeline, packager *archive.Packager, tracker *presence.Tracker) *Resources {
	return &Resources{
		Sessions: &SessionHandlers{
			sessions: sessions,
			packager: packager,
			tracker:  tracker,
		},
		Samples: &SampleHandlers{
			pipeline: pipeline,
			packager: packager,
			sessions: sessions,
		},
	}
}

// HealthCheck reports service liveness
func (r *Resources) HealthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok","version":"` + nuts.GetVersion() + `"}`))
}

// Helper functions

func respondWithError(w http.ResponseWriter, err *errors.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code)
	json.NewEncoder(w).Encode(err)
	nuts.L.Errorf("[API] %s", err.Error())
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
