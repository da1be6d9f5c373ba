package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"
)

func TestGetJSONDecodesAndDisablesCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Cache-Control") == "" {
			t.Errorf("expected cache-control header")
		}
		if got := r.URL.Query().Get("rotationIndex"); got != "2" {
			t.Errorf("expected rotationIndex=2, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"lobby"}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL + "/"})
	var dest struct {
		Name string `json:"name"`
	}
	err := client.GetJSON(context.Background(), "/public-screen/abc", url.Values{"rotationIndex": {"2"}}, &dest)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if dest.Name != "lobby" {
		t.Fatalf("unexpected body %#v", dest)
	}
}

func TestGetJSONErrorClasses(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		notFound bool
		status5x bool
	}{
		{name: "not found", status: http.StatusNotFound, body: `{}`, notFound: true},
		{name: "server error", status: http.StatusBadGateway, body: `oops`, status5x: true},
		{name: "bad json", status: http.StatusOK, body: `{"name":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(Config{BaseURL: srv.URL})
			var dest map[string]any
			err := client.GetJSON(context.Background(), "x", nil, &dest)
			if err == nil {
				t.Fatalf("expected error")
			}
			if errors.Is(err, ErrNotFound) != tt.notFound {
				t.Fatalf("unexpected not-found classification: %v", err)
			}
			var statusErr *StatusError
			if errors.As(err, &statusErr) != tt.status5x {
				t.Fatalf("unexpected status classification: %v", err)
			}
		})
	}
}

func TestPostJSONSendsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		_, _ = w.Write([]byte(`{"allowed":true}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	var dest struct {
		Allowed *bool `json:"allowed"`
	}
	if err := client.PostJSON(context.Background(), "/beat", map[string]string{"sessionId": "s1"}, &dest); err != nil {
		t.Fatalf("post: %v", err)
	}
	if dest.Allowed == nil || !*dest.Allowed {
		t.Fatalf("unexpected response %#v", dest)
	}
}

func TestBackoffDoublesUpToCapAndResets(t *testing.T) {
	b := NewBackoff(2*time.Second, 60*time.Second)
	want := []time.Duration{2, 4, 8, 16, 32, 60, 60}
	prev := time.Duration(0)
	for i, w := range want {
		got := b.Failure()
		if got != w*time.Second {
			t.Fatalf("failure %d: expected %v, got %v", i+1, w*time.Second, got)
		}
		if got < prev {
			t.Fatalf("delay decreased at failure %d", i+1)
		}
		prev = got
	}
	if b.Failures() != len(want) {
		t.Fatalf("expected %d failures, got %d", len(want), b.Failures())
	}
	b.Success()
	if b.Failures() != 0 || b.Next() != 2*time.Second {
		t.Fatalf("expected reset to base, got failures=%d next=%v", b.Failures(), b.Next())
	}
}

func TestGateDropsConcurrentTicks(t *testing.T) {
	var g Gate
	if !g.TryAcquire() {
		t.Fatalf("expected first acquire to succeed")
	}
	var wg sync.WaitGroup
	admitted := make(chan struct{}, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.TryAcquire() {
				admitted <- struct{}{}
			}
		}()
	}
	wg.Wait()
	if len(admitted) != 0 {
		t.Fatalf("expected no admissions while busy, got %d", len(admitted))
	}
	if g.Dropped() != 10 {
		t.Fatalf("expected 10 dropped ticks, got %d", g.Dropped())
	}
	g.Release()
	if !g.TryAcquire() {
		t.Fatalf("expected acquire after release")
	}
}
