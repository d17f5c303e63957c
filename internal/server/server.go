// FilePath: internal/server/server.go
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fieldsync/tofhub/api"
	"github.com/fieldsync/tofhub/api/resources"
	"github.com/fieldsync/tofhub/internal/archive"
	"github.com/fieldsync/tofhub/internal/config"
	"github.com/fieldsync/tofhub/internal/database"
	"github.com/fieldsync/tofhub/internal/ingest"
	"github.com/fieldsync/tofhub/internal/presence"
	"github.com/fieldsync/tofhub/internal/repository/postgres"
	"github.com/fieldsync/tofhub/internal/session"
	"github.com/gorilla/handlers"
	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"
)

// Server represents our HTTP server
type Server struct {
	config *config.Config
	srv    *http.Server
	db     database.DB
}

// New creates a new server instance
func New(cfg *config.Config) *Server {
	return &Server{config: cfg}
}

// Start wires all services and begins listening for requests
func (s *Server) Start() error {
	db := initDB(s.config.Database)
	s.db = db

	samples, err := postgres.NewSampleRepository(db)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to initialize sample repository: %v", err)
	}
	sessions, err := postgres.NewSessionRepository(db)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to initialize session repository: %v", err)
	}

	tracker := presence.NewTracker(initRedis(s.config.Redis))
	controller := session.NewController(sessions)
	pipeline := ingest.NewPipeline(controller, samples, tracker)

	packager, err := archive.NewPackager(s.config.Archive.BasePath, samples)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to initialize archive packager: %v", err)
	}

	res := resources.NewResources(controller, pipeline, packager, tracker)
	router := api.NewRouter(res)

	handler := handlers.CombinedLoggingHandler(os.Stdout,
		handlers.CORS(
			handlers.AllowedOrigins([]string{"*"}),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost}),
			handlers.AllowedHeaders([]string{"Content-Type"}),
		)(router))

	s.srv = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port),
		Handler:      handler,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}

	go func() {
		nuts.L.Infof("[Server] Starting server on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			nuts.L.Errorf("[Server] Error starting server: %v", err)
			os.Exit(1)
		}
	}()

	return s.waitForShutdown()
}

// waitForShutdown waits for interrupt signal and gracefully shuts down the server
func (s *Server) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	nuts.L.Infof("[Server] Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			nuts.L.Warnf("[Server] Error closing database: %v", err)
		}
	}

	nuts.L.Infof("[Server] Server shut down successfully")
	return nil
}

func initDB(cfg config.PostgresConfig) database.DB {
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to connect to database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.Ping(ctx); err != nil {
		nuts.L.Fatalf("[Server] Failed to ping database: %v", err)
	}
	return db
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		// Presence is advisory, run without it rather than failing startup
		nuts.L.Warnf("[Server] Redis unavailable, device presence disabled: %v", err)
		return nil
	}

	nuts.L.Infof("[Server] Connected to redis at %s:%d", cfg.Host, cfg.Port)
	return client
}
