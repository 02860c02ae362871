// Package server serves scene sections over HTTP and relays update messages
// between websocket clients.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/vpet-sync/pkg/scene"
)

const shutdownTimeout = 5 * time.Second

// Server hosts one scene.
type Server struct {
	router *mux.Router
	hub    *Hub
	log    *zap.Logger

	mu       sync.RWMutex
	sections *scene.Sections
}

// New creates a server for sections.
func New(sections *scene.Sections, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if sections == nil {
		sections = &scene.Sections{}
	}
	s := &Server{
		hub:      NewHub(log.Named("hub")),
		log:      log,
		sections: sections,
	}
	s.router = mux.NewRouter()
	s.router.HandleFunc("/scene/{section}", s.handleSection).Methods(http.MethodGet)
	s.router.HandleFunc("/ws/{topic}", s.handleWS).Methods(http.MethodGet)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// SetScene replaces the served sections.
func (s *Server) SetScene(sections *scene.Sections) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections = sections
}

func (s *Server) handleSection(w http.ResponseWriter, r *http.Request) {
	name := scene.SectionName(mux.Vars(r)["section"])
	known := false
	for _, n := range scene.AllSections {
		if n == name {
			known = true
			break
		}
	}
	if !known {
		http.Error(w, "unknown section", http.StatusNotFound)
		return
	}

	s.mu.RLock()
	data := s.sections.Get(name)
	s.mu.RUnlock()

	s.log.Debug("serving section", zap.String("section", string(name)), zap.Int("bytes", len(data)))
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(data)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.hub.ServeWS(w, r, mux.Vars(r)["topic"])
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.router}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.hub.Run(ctx)
		return nil
	})
	g.Go(func() error {
		s.log.Info("scene server listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}
