package server

import (
	"errors"
	"log"
	"net/http"

	"signage-player/internal/player"
	"signage-player/internal/web"

	"github.com/a-h/templ"
)

func (s *Server) handleDisplayView(w http.ResponseWriter, r *http.Request) {
	token, ok := parseDisplayPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	var (
		session *player.Session
		err     error
	)
	if index, pinned := parseRotationIndex(r.URL.Query().Get("rotationIndex")); pinned && s.pinFor(token, index) {
		log.Printf("display pinned token=%s rotation_index=%d", token, index)
		session, err = s.manager.Restart(token)
	} else {
		session, err = s.manager.GetOrStart(token)
	}
	if errors.Is(err, player.ErrUnknownToken) {
		log.Printf("display view refused token=%s", token)
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	state := s.buildDisplayState(session.View())
	templ.Handler(web.DisplayPage(state, "/ws/display/"+token)).ServeHTTP(w, r)
}

func (s *Server) handleStatusView(w http.ResponseWriter, r *http.Request) {
	rows := make([]web.StatusRow, 0)
	for _, status := range s.statuses() {
		rows = append(rows, web.StatusRow{
			Token:         status.Token,
			Screen:        status.Screen,
			Mode:          status.Mode,
			Admission:     status.Admission,
			Cursor:        status.Cursor,
			Slots:         status.Slots,
			Pinned:        status.Pinned,
			Transitioning: status.Transitioning,
			Failures:      status.Failures,
			NextRetry:     status.NextRetry,
			LastLoad:      status.LastLoad,
			LastError:     status.LastError,
			Loads:         status.Loads,
			Transitions:   status.Transitions,
			DroppedTicks:  status.DroppedTicks,
			Heartbeats:    status.Heartbeats,
			Profile:       status.Profile,
		})
	}
	templ.Handler(web.StatusPage(s.cfg.DeviceName, rows, s.now())).ServeHTTP(w, r)
}
