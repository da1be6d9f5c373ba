package player

import (
	"context"
	"sync"
	"testing"
	"time"

	"signage-player/internal/snapshot"
	"signage-player/internal/store"
)

func TestRestoresLastGoodSnapshotWhileFirstLoadIsPending(t *testing.T) {
	st := store.New(nil)
	cached := &snapshot.Snapshot{
		Screen: &snapshot.Screen{ID: "s1", Name: "Front", BusinessName: "Cafe"},
		TemplateRotations: []snapshot.Rotation{
			{TemplateID: "tpl-0", DisplayOrder: 0, DisplayDuration: 5},
			{TemplateID: "tpl-1", DisplayOrder: 1, DisplayDuration: 5},
		},
		Template:     &snapshot.Template{ID: "tpl-1"},
		ScreenBlocks: []snapshot.Block{{ID: "block-1"}},
	}
	if err := st.SaveSnapshot(context.Background(), "abc123", 1, cached); err != nil {
		t.Fatalf("save: %v", err)
	}

	hold := make(chan struct{})
	b := &backend{allowed: true, durations: []int{5, 5}, hold: hold}
	h := startSession(t, b, func(o *Options) { o.Store = st })
	release := sync.OnceFunc(func() { close(hold) })
	t.Cleanup(release)

	v := h.waitView(t, "restored content", func(v View) bool { return v.Screen == ScreenContent && v.Stale })
	if v.Cursor != 1 {
		t.Fatalf("expected restored cursor 1, got %d", v.Cursor)
	}

	release()
	h.waitView(t, "fresh content", func(v View) bool { return !v.Stale && h.session.Status().Loads == 1 })
	if got := h.backend.requested(); len(got) == 0 || got[0] != "1" {
		t.Fatalf("first load should ask for the restored slot, got %v", got)
	}
}

func TestRotationCacheCoversLookAheadFailure(t *testing.T) {
	b := &backend{allowed: true, durations: []int{5, 5, 5}}
	h := startSession(t, b, func(o *Options) { o.RotationCache = true })

	h.waitView(t, "slot 0", showing(0))
	waitFor(t, "preload", func() bool { return h.session.Status().RotationCached == 3 })

	h.backend.set(func(b *backend) { b.fail = 1 })
	h.clock.Advance(5 * time.Second)
	v := h.waitView(t, "transition from cache", func(v View) bool { return v.Transition != nil && v.Transition.To == 1 })
	if v.Remount != 0 {
		t.Fatalf("cached look-ahead must not fall back to a reload, remount=%d", v.Remount)
	}
}
