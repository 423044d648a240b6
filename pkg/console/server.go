// Package console serves the browser console: a JSON API over the process
// list, scenarios, chat histories and the generation operations, plus a
// WebSocket channel for streamed agent chat.
package console

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/haivivi/mediaforge/pkg/agent"
	"github.com/haivivi/mediaforge/pkg/provider"
	"github.com/haivivi/mediaforge/pkg/storage"
)

// Store is the part of *store.Client the console uses.
type Store interface {
	agent.Store
	DeleteProcessItem(ctx context.Context, id string) error
	SetArchived(ctx context.Context, ids []string, archived bool) error
}

// Options configures a Server.
type Options struct {
	Provider provider.Provider
	Store    Store

	// Room runs chat turns. When nil a room over Provider and Store with
	// the built-in roster is created.
	Room *agent.Room

	// Export receives generated images and audio. Optional.
	Export storage.FileStore

	// SampleRate resamples raw PCM speech before it is wrapped. Zero keeps
	// the upstream rate.
	SampleRate int

	// DefaultVoice is used for speech requests that name no voice.
	DefaultVoice string
}

// Server is the console HTTP server.
type Server struct {
	provider     provider.Provider
	store        Store
	room         *agent.Room
	export       storage.FileStore
	sampleRate   int
	defaultVoice string

	upgrader websocket.Upgrader
	now      func() time.Time
}

// New creates a server.
func New(opts Options) *Server {
	room := opts.Room
	if room == nil {
		room = agent.NewRoom(opts.Provider, opts.Store, nil)
	}
	voice := opts.DefaultVoice
	if voice == "" {
		voice = provider.DefaultVoice
	}
	return &Server{
		provider:     opts.Provider,
		store:        opts.Store,
		room:         room,
		export:       opts.Export,
		sampleRate:   opts.SampleRate,
		defaultVoice: voice,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		now: time.Now,
	}
}

// Routes returns the console handler.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/items", s.handleListItems)
	mux.HandleFunc("POST /api/items", s.handleAddItem)
	mux.HandleFunc("DELETE /api/items/{id}", s.handleDeleteItem)
	mux.HandleFunc("POST /api/items/archive", s.handleArchiveItems)
	mux.HandleFunc("GET /api/scenarios", s.handleListScenarios)
	mux.HandleFunc("POST /api/scenarios", s.handleNewScenario)
	mux.HandleFunc("GET /api/histories", s.handleListHistories)
	mux.HandleFunc("DELETE /api/histories", s.handleResetHistories)
	mux.HandleFunc("GET /api/agents", s.handleListAgents)
	mux.HandleFunc("GET /api/voices", s.handleListVoices)

	mux.HandleFunc("POST /api/structure", s.handleStructure)
	mux.HandleFunc("POST /api/image/edit", s.handleEditImage)
	mux.HandleFunc("POST /api/video", s.handleVideo)
	mux.HandleFunc("POST /api/speech", s.handleSpeech)

	mux.HandleFunc("GET /ws/chat", s.handleChat)

	return s.loggingMiddleware(mux)
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if err := s.room.Load(ctx); err != nil {
		slog.Warn("console: load chat histories", "error", err)
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		slog.Info("console starting", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Info("console request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
