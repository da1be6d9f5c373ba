package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"signage-player/internal/fetch"
)

func newLoader(t *testing.T, handler http.HandlerFunc) *Loader {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewLoader(fetch.NewClient(fetch.Config{BaseURL: srv.URL}))
}

func TestLoadOmitsIndexWithoutRotationList(t *testing.T) {
	loader := newLoader(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/public-screen/abc123" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.RawQuery != "" {
			t.Errorf("expected no query, got %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"screen":{"id":"s1","name":"Front"},"menus":[{"id":"m1","name":"Drinks","slide_duration":5,"items":[{"name":"Tea","price":"12.50"},{"name":"Coffee","price":3}]}],"templateRotations":[]}`))
	})

	snap, err := loader.Load(context.Background(), "abc123", NoIndex)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap.RotationIndex != NoIndex || snap.SlotCount() != 0 {
		t.Fatalf("unexpected rotation data %#v", snap)
	}
	if got := snap.Menus[0].Items[0].Price.Value; got != 12.5 {
		t.Fatalf("expected string price to decode, got %v", got)
	}
	if got := snap.Menus[0].Items[1].Price.Value; got != 3 {
		t.Fatalf("expected number price to decode, got %v", got)
	}
}

func TestLoadKeepsUnparseablePriceAsText(t *testing.T) {
	loader := newLoader(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"screen":{"id":"s1","name":"Front"},"menus":[{"id":"m1","name":"Drinks","items":[{"name":"Tea","price":"12.50 TL"},{"name":"Water","price":null},{"name":"Juice","price":{"amount":4}}]}]}`))
	})

	snap, err := loader.Load(context.Background(), "abc123", NoIndex)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	items := snap.Menus[0].Items
	if got := items[0].Price.String(); got != "12.50 TL" {
		t.Fatalf("expected raw price text, got %q", got)
	}
	if got := items[1].Price.String(); got != "0.00" {
		t.Fatalf("expected empty price, got %q", got)
	}
	if got := items[2].Price; got != (Price{}) {
		t.Fatalf("expected object price to be ignored, got %+v", got)
	}

	data, err := json.Marshal(items[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back MenuItem
	if err := json.Unmarshal(data, &back); err != nil || back.Price.Text != "12.50 TL" {
		t.Fatalf("price text lost on round trip: %s %v", data, err)
	}
}

func TestLoadSendsIndexAndSortsRotations(t *testing.T) {
	loader := newLoader(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("rotationIndex"); got != "1" {
			t.Errorf("expected rotationIndex=1, got %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"screen": map[string]any{"id": "s1", "name": "Front"},
			"menus":  []any{},
			"templateRotations": []map[string]any{
				{"template_id": "b", "display_order": 2, "display_duration": 5},
				{"template_id": "a", "display_order": 1, "display_duration": 5},
			},
		})
	})

	snap, err := loader.Load(context.Background(), "abc123", 1)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap.RotationIndex != 1 {
		t.Fatalf("expected rotation index 1, got %d", snap.RotationIndex)
	}
	if snap.TemplateRotations[0].TemplateID != "a" {
		t.Fatalf("expected rotations in display_order, got %#v", snap.TemplateRotations)
	}
}

func TestLoadNotFoundShapes(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
	}{
		{name: "marker", status: http.StatusOK, payload: `{"notFound":true}`},
		{name: "missing screen", status: http.StatusOK, payload: `{"menus":[]}`},
		{name: "http 404", status: http.StatusNotFound, payload: `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := newLoader(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.payload))
			})
			_, err := loader.Load(context.Background(), "missing-token", NoIndex)
			if !errors.Is(err, ErrScreenNotFound) {
				t.Fatalf("expected not found, got %v", err)
			}
		})
	}
}

func TestLoadTransientFailure(t *testing.T) {
	loader := newLoader(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := loader.Load(context.Background(), "abc123", NoIndex)
	if err == nil || errors.Is(err, ErrScreenNotFound) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestIndexHintClampsCursor(t *testing.T) {
	three := &Snapshot{TemplateRotations: make([]Rotation, 3)}
	tests := []struct {
		cursor  int
		current *Snapshot
		want    int
	}{
		{cursor: 0, current: nil, want: NoIndex},
		{cursor: 4, current: &Snapshot{}, want: NoIndex},
		{cursor: 1, current: three, want: 1},
		{cursor: 7, current: three, want: 2},
		{cursor: -2, current: three, want: 0},
	}
	for _, tt := range tests {
		if got := IndexHint(tt.cursor, tt.current); got != tt.want {
			t.Fatalf("IndexHint(%d) = %d, want %d", tt.cursor, got, tt.want)
		}
	}
}
