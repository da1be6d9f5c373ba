package server

import (
	"context"
	"sort"
	"sync"

	"signage-player/internal/player"
)

// pushQueue coalesces session output so the session loops never wait on a
// websocket write. Only the newest view per token is kept.
type pushQueue struct {
	mu      sync.Mutex
	views   map[string]player.View
	reloads map[string]bool
	wake    chan struct{}
}

func newPushQueue() *pushQueue {
	return &pushQueue{
		views:   make(map[string]player.View),
		reloads: make(map[string]bool),
		wake:    make(chan struct{}, 1),
	}
}

func (q *pushQueue) offerView(view player.View) {
	q.mu.Lock()
	q.views[view.Token] = view
	q.mu.Unlock()
	q.signal()
}

func (q *pushQueue) offerReload(token string) {
	q.mu.Lock()
	q.reloads[token] = true
	q.mu.Unlock()
	q.signal()
}

func (q *pushQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *pushQueue) drain() ([]player.View, []string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	views := make([]player.View, 0, len(q.views))
	for token, view := range q.views {
		views = append(views, view)
		delete(q.views, token)
	}
	reloads := make([]string, 0, len(q.reloads))
	for token := range q.reloads {
		reloads = append(reloads, token)
		delete(q.reloads, token)
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Token < views[j].Token })
	sort.Strings(reloads)
	return views, reloads
}

func (s *Server) pushLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.pushes.wake:
		}
		views, reloads := s.pushes.drain()
		for _, view := range views {
			s.ws.Broadcast(view.Token, s.htmlMessage(view))
		}
		for _, token := range reloads {
			s.ws.Broadcast(token, map[string]any{"type": "reload"})
		}
	}
}

func (s *Server) htmlMessage(view player.View) map[string]any {
	return map[string]any{
		"type":    "html",
		"html":    s.renderDisplayHTML(view),
		"version": view.Version,
		"screen":  view.Screen.String(),
	}
}
