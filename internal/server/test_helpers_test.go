package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"signage-player/internal/clock"
	"signage-player/internal/config"
	"signage-player/internal/fetch"
	"signage-player/internal/player"
	"signage-player/internal/store"
)

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	return ts
}

// fakeBackend answers the public screen API with one legacy menu and a
// configurable number of rotation slots.
type fakeBackend struct {
	slots    int
	notFound atomic.Bool
	indexes  atomic.Value
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasSuffix(r.URL.Path, "/heartbeat") {
		_ = json.NewEncoder(w).Encode(map[string]any{"allowed": true})
		return
	}
	if b.notFound.Load() {
		_, _ = w.Write([]byte(`{"notFound":true}`))
		return
	}
	b.indexes.Store(r.URL.Query().Get("rotationIndex"))
	rotations := make([]map[string]any, 0, b.slots)
	for i := 0; i < b.slots; i++ {
		rotations = append(rotations, map[string]any{
			"template_id":      "tpl",
			"display_order":    i,
			"display_duration": 30,
		})
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"screen": map[string]any{"id": "s1", "name": "Front", "business_name": "Cafe Moda", "ticker_text": "Welcome"},
		"menus": []map[string]any{{
			"id": "m1", "name": "Drinks", "slide_duration": 5,
			"items": []map[string]any{{"name": "Turkish Tea", "price": "12.50"}},
		}},
		"templateRotations": rotations,
	})
}

type testEnv struct {
	srv     *Server
	ts      *httptest.Server
	backend *fakeBackend
	store   *store.Store
}

// newEnv starts a kiosk server backed by a fake screen API. Sessions run on
// a manual clock so only the immediate poll and heartbeat happen.
func newEnv(t *testing.T, cfg config.Config, slots int) *testEnv {
	t.Helper()
	backend := &fakeBackend{slots: slots}
	api := newTestServer(t, backend)
	t.Cleanup(api.Close)

	st := store.New(nil)
	fake := clock.NewFake(time.Unix(1_700_000_000, 0))
	client := fetch.NewClient(fetch.Config{BaseURL: api.URL, Timeout: 5 * time.Second})
	factory := func(token string) (player.Options, error) {
		if !cfg.OpenTokens() {
			if _, ok := cfg.ScreenFor(token); !ok {
				return player.Options{}, player.ErrUnknownToken
			}
		}
		return player.Options{Client: client, Clock: fake, Store: st}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	srv := New(ctx, cfg, st, factory)
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
		cancel()
	})
	return &testEnv{srv: srv, ts: ts, backend: backend, store: st}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func (e *testEnv) waitContent(t *testing.T, token string) player.View {
	t.Helper()
	var view player.View
	waitFor(t, "content for "+token, func() bool {
		session, ok := e.srv.Manager().Get(token)
		if !ok {
			return false
		}
		view = session.View()
		return view.Screen == player.ScreenContent
	})
	return view
}

func (b *fakeBackend) lastIndex() string {
	value, _ := b.indexes.Load().(string)
	return value
}
