// FilePath: api/api.router.go
package api

import (
	"net/http"

	"github.com/fieldsync/tofhub/api/resources"
	"github.com/gorilla/mux"
)

type Router struct {
	router    *mux.Router
	resources *resources.Resources
}

func NewRouter(res *resources.Resources) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		resources: res,
	}

	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	// API version prefix
	api := r.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", r.resources.HealthCheck).Methods(http.MethodGet)

	// Device-facing control plane
	api.HandleFunc("/config", r.resources.Sessions.GetConfig).Methods(http.MethodGet)

	// Operator control plane
	api.HandleFunc("/sessions/start", r.resources.Sessions.StartSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/stop", r.resources.Sessions.StopSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/status", r.resources.Sessions.GetStatus).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/archive", r.resources.Samples.DownloadArchive).Methods(http.MethodGet)

	// Data plane
	api.HandleFunc("/devices/{deviceId}/samples", r.resources.Samples.BulkSamples).Methods(http.MethodPost)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
