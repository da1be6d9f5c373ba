package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"signage-player/internal/config"
	"signage-player/internal/player"
	"signage-player/internal/store"
)

type Server struct {
	cfg     config.Config
	store   *store.Store
	manager *player.Manager
	ws      *wsHub
	pushes  *pushQueue
	now     func() time.Time

	pinsMu sync.Mutex
	pins   map[string]int
}

// New wires a session manager whose views are pushed to the kiosk websockets.
// Sessions and the push loop stop when ctx is cancelled. st may be nil.
func New(ctx context.Context, cfg config.Config, st *store.Store, factory player.Factory) *Server {
	s := &Server{
		cfg:    cfg,
		store:  st,
		ws:     newWSHub(),
		pushes: newPushQueue(),
		now:    time.Now,
		pins:   make(map[string]int),
	}
	s.manager = player.NewManager(ctx, s.sessionFactory(factory))
	go s.pushLoop(ctx)
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /display/", s.handleDisplayView)
	mux.HandleFunc("GET /ws/display/", s.handleDisplayWebsocket)
	mux.HandleFunc("GET /status", s.handleStatusView)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/displays/", s.handleDisplaySubroutes)
	mux.HandleFunc("POST /api/displays/", s.handleDisplaySubroutes)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

// Close stops every session and waits for their timers to be released.
func (s *Server) Close() {
	s.manager.StopAll()
}

// Manager exposes the running sessions.
func (s *Server) Manager() *player.Manager {
	return s.manager
}

func (s *Server) sessionFactory(base player.Factory) player.Factory {
	return func(token string) (player.Options, error) {
		opts, err := base(token)
		if err != nil {
			return opts, err
		}
		s.pinsMu.Lock()
		if index, ok := s.pins[token]; ok {
			opts.Pinned = true
			opts.PinIndex = index
		}
		s.pinsMu.Unlock()
		opts.OnView = s.pushes.offerView
		opts.OnReload = s.pushes.offerReload
		return opts, nil
	}
}

// pinFor records a page-requested pin. It reports whether the pin changed and
// the running session must be restarted to honour it.
func (s *Server) pinFor(token string, index int) bool {
	s.pinsMu.Lock()
	defer s.pinsMu.Unlock()
	if current, ok := s.pins[token]; ok && current == index {
		return false
	}
	s.pins[token] = index
	return true
}
