package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/itiky/collaborate-canvas/config"
	"github.com/itiky/collaborate-canvas/storage"
)

// Server serves the relay WebSocket endpoint and the designs API on a single port.
type Server struct {
	// Config
	port int
	// Components
	store      *storage.Store
	relay      *Relay
	api        *DesignsAPI
	httpServer *http.Server
	//
	stopCh chan interface{}
}

// String implements the stringer interface.
func (s *Server) String() string {
	return fmt.Sprintf("Server (:%d)", s.port)
}

// Handler returns the HTTP handler with all the routes.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(logRequests)

	r.Handle("/socket", s.relay)
	s.api.Register(r)

	return r
}

// Start starts the Server workers and the HTTP listener.
func (s *Server) Start() {
	if s.stopCh != nil {
		return
	}
	s.stopCh = make(chan interface{})

	monitor.Start()
	s.relay.Start()

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.Handler(),
	}
	go func() {
		log.Printf("%s: listening", s.String())
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("%s: listen: %v", s.String(), err)
		}
	}()
}

// StartRelay starts the Server workers without the HTTP listener (Handler is served by the caller).
func (s *Server) StartRelay() {
	if s.stopCh != nil {
		return
	}
	s.stopCh = make(chan interface{})

	s.relay.Start()
}

// Stop stops the Server and closes the storage.
func (s *Server) Stop() {
	if s.stopCh == nil {
		return
	}
	close(s.stopCh)

	if s.httpServer != nil {
		if err := s.httpServer.Close(); err != nil {
			log.Printf("%s: http close: %v", s.String(), err)
		}
	}
	s.relay.Stop()
	if err := s.store.Close(); err != nil {
		log.Printf("%s: storage close: %v", s.String(), err)
	}
	monitor.Stop()

	log.Printf("%s: stop", s.String())
}

// NewServer creates a new Server object.
func NewServer(cfg config.ServerConfig) (*Server, error) {
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("%s: must be GT 0", "port")
	}

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("storage.Open: %w", err)
	}

	relay, err := NewRelay(store, 64, cfg.Outbound)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("NewRelay: %w", err)
	}

	return &Server{
		port:  cfg.Port,
		store: store,
		relay: relay,
		api:   NewDesignsAPI(store),
	}, nil
}
