package server

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"signage-player/internal/player"
	"signage-player/internal/store"
)

type eventResponse struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
	At      string         `json:"at"`
}

func (s *Server) statuses() []player.Status {
	sessions := s.manager.Sessions()
	out := make([]player.Status, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, session.Status())
	}
	return out
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"device":   s.cfg.DeviceName,
		"sessions": s.statuses(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleDisplaySubroutes(w http.ResponseWriter, r *http.Request) {
	token, action, ok := parseDisplayAPIPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	switch {
	case action == "" && r.Method == http.MethodGet:
		s.handleDisplayStatus(w, token)
	case action == "events" && r.Method == http.MethodGet:
		s.handleDisplayEvents(w, r, token)
	case action == "refresh" && r.Method == http.MethodPost:
		s.handleDisplayRefresh(w, token)
	case action == "restart" && r.Method == http.MethodPost:
		s.handleDisplayRestart(w, token)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleDisplayStatus(w http.ResponseWriter, token string) {
	session, ok := s.manager.Get(token)
	if !ok {
		writeError(w, http.StatusNotFound, "display not running")
		return
	}
	writeJSON(w, http.StatusOK, session.Status())
}

func (s *Server) handleDisplayEvents(w http.ResponseWriter, r *http.Request, token string) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 || limit > 200 {
		limit = 50
	}
	var events []store.Event
	if s.store != nil {
		events, err = s.store.RecentEvents(r.Context(), token, limit)
		if err != nil {
			log.Printf("events failed token=%s error=%v", token, err)
			writeError(w, http.StatusInternalServerError, "failed to load events")
			return
		}
	}
	out := make([]eventResponse, 0, len(events))
	for _, event := range events {
		out = append(out, eventResponse{
			Type:    event.Type,
			Payload: event.Payload,
			At:      event.At.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": out})
}

func (s *Server) handleDisplayRefresh(w http.ResponseWriter, token string) {
	session, ok := s.manager.Get(token)
	if !ok {
		writeError(w, http.StatusNotFound, "display not running")
		return
	}
	session.Refresh()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refreshing"})
}

func (s *Server) handleDisplayRestart(w http.ResponseWriter, token string) {
	if _, err := s.manager.Restart(token); err != nil {
		if errors.Is(err, player.ErrUnknownToken) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	log.Printf("display restarted token=%s", token)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "restarted"})
}
