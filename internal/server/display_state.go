package server

import (
	"bytes"
	"context"
	"strconv"

	"signage-player/internal/player"
	"signage-player/internal/web"
)

func (s *Server) buildDisplayState(view player.View) web.DisplayState {
	lang := view.Language
	if screen, ok := s.cfg.ScreenFor(view.Token); ok && screen.Language != "" {
		lang = screen.Language
	}
	state := web.DisplayState{
		Token:        view.Token,
		Version:      view.Version,
		Screen:       view.Screen.String(),
		Lang:         lang,
		BusinessName: view.BusinessName,
		UpgradeURL:   s.cfg.UpgradeURL,
		RefreshURL:   "/api/displays/" + view.Token + "/refresh",
		Stale:        view.Stale,
		Current: web.Slide{
			Key:      slideKey(view.Cursor, view.Remount),
			Mode:     view.Mode,
			Snapshot: view.Snapshot,
			Carousel: view.Carousel,
		},
	}
	if t := view.Transition; t != nil {
		state.Next = &web.Slide{
			Key:      slideKey(t.To, view.Remount),
			Mode:     t.NextMode,
			Snapshot: t.Next,
		}
		state.Effect = t.Effect
		state.TransitionTime = t.Duration
	}
	return state
}

// slideKey changes whenever the slide must be mounted from scratch.
func slideKey(index, remount int) string {
	return strconv.Itoa(index) + "-" + strconv.Itoa(remount)
}

func (s *Server) renderDisplayHTML(view player.View) string {
	var buf bytes.Buffer
	state := s.buildDisplayState(view)
	if err := web.DisplayContent(state).Render(context.Background(), &buf); err != nil {
		return ""
	}
	return buf.String()
}
