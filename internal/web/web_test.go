package web

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"signage-player/internal/render"
	"signage-player/internal/snapshot"

	"github.com/a-h/templ"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func decodeSnapshot(t *testing.T, payload string) *snapshot.Snapshot {
	t.Helper()
	var snap snapshot.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return &snap
}

func contentState(t *testing.T, payload string) DisplayState {
	snap := decodeSnapshot(t, payload)
	return DisplayState{
		Token:   "abc",
		Screen:  ScreenContent,
		Lang:    snap.Language(),
		Current: Slide{Key: "0", Mode: render.Select(snap), Snapshot: snap},
	}
}

func TestTranslationsFallBackToEnglish(t *testing.T) {
	if got := T("tr-TR", "loading"); got != "Yükleniyor..." {
		t.Fatalf("expected turkish loading label, got %q", got)
	}
	if got := T("de", "no_items"); got != messages["en"]["no_items"] {
		t.Fatalf("expected english fallback, got %q", got)
	}
	if got := T("en", "missing_key"); got != "missing_key" {
		t.Fatalf("expected key fallback, got %q", got)
	}
	for key := range messages["en"] {
		if _, ok := messages["tr"][key]; !ok {
			t.Fatalf("turkish strings missing %s", key)
		}
	}
}

func TestLoadingShowsBusinessName(t *testing.T) {
	html := renderString(t, DisplayContent(DisplayState{Screen: ScreenLoading, Lang: "en"}))
	if !strings.Contains(html, "Loading...") {
		t.Fatalf("expected default loading label: %s", html)
	}
	html = renderString(t, DisplayContent(DisplayState{Screen: ScreenLoading, BusinessName: "Cafe <Moda>"}))
	if !strings.Contains(html, "Cafe &lt;Moda&gt;") || strings.Contains(html, "Loading...") {
		t.Fatalf("expected escaped business name: %s", html)
	}
}

func TestBlockedOffersRetryAndUpgrade(t *testing.T) {
	html := renderString(t, DisplayContent(DisplayState{
		Screen:     ScreenBlocked,
		Lang:       "tr",
		RefreshURL: "/api/displays/abc/refresh",
		UpgradeURL: "https://example.com/pricing",
	}))
	for _, want := range []string{"Ekran sınırına ulaşıldı", `data-refresh="/api/displays/abc/refresh"`, `href="https://example.com/pricing"`} {
		if !strings.Contains(html, want) {
			t.Fatalf("missing %q in %s", want, html)
		}
	}
	html = renderString(t, DisplayContent(DisplayState{Screen: ScreenBlocked, UpgradeURL: "javascript:alert(1)"}))
	if strings.Contains(html, "javascript:") {
		t.Fatalf("unsafe upgrade URL rendered: %s", html)
	}
}

func TestCarouselItemAndEmptyMenu(t *testing.T) {
	state := contentState(t, `{"screen":{"id":"s","ticker_text":"Fresh coffee","frame_type":"frame_6"},"menus":[
		{"id":"a","name":"Drinks","slide_duration":5,"items":[{"name":"Tea","price":"4.50"},{"name":"Coffee","price":6}]},
		{"id":"b","name":"Specials","items":[]}]}`)
	state.Current.Carousel = render.CarouselState{Menu: 0, Item: 1}
	html := renderString(t, DisplayContent(state))
	for _, want := range []string{"Drinks", "Coffee", "6.00", "2 / 2", "Fresh coffee", "border-bottom: none"} {
		if !strings.Contains(html, want) {
			t.Fatalf("missing %q in %s", want, html)
		}
	}

	state.Current.Carousel = render.CarouselState{Menu: 1}
	html = renderString(t, DisplayContent(state))
	if !strings.Contains(html, "Specials") || !strings.Contains(html, T("en", "no_items")) {
		t.Fatalf("expected empty menu message: %s", html)
	}
}

func TestTransitionRendersBothLayers(t *testing.T) {
	state := contentState(t, `{"screen":{"id":"s"},"menus":[{"id":"a","name":"A","items":[{"name":"x"}]}]}`)
	next := decodeSnapshot(t, `{"screen":{"id":"s"},"menus":[],"template":{"id":"t","canvas_design":{"backgroundColor":"#000","shapes":[{"type":"text","x":10,"y":20,"text":"Hello","fill":"#f00"}]}}}`)
	state.Next = &Slide{Key: "1", Mode: render.Select(next), Snapshot: next}
	state.Effect = "car-pull"
	state.TransitionTime = 1400 * time.Millisecond
	html := renderString(t, DisplayContent(state))
	for _, want := range []string{`data-effect="car-pull"`, "--dur: 1400ms;", "transition-current", "transition-next", "transition-car", `data-kind="canvas_design"`, "Hello"} {
		if !strings.Contains(html, want) {
			t.Fatalf("missing %q in %s", want, html)
		}
	}

	state.Effect = "no-such-effect"
	html = renderString(t, DisplayContent(state))
	if !strings.Contains(html, `data-effect="fade"`) {
		t.Fatalf("expected fade fallback: %s", html)
	}
}

func TestBlocksAndDigitalMenu(t *testing.T) {
	state := contentState(t, `{"screen":{"id":"s"},"menus":[],"template":{"id":"t","block_count":2},
		"screenBlocks":[{"id":"b2","block_index":1},{"id":"b1","block_index":0}],
		"blockContents":[{"id":"c1","screen_block_id":"b1","content_type":"image","image_url":"https://cdn.example.com/a.png"},
			{"id":"c2","screen_block_id":"b2","content_type":"product_list","title":"Hot","menu_items":[{"name":"Soup","price":"3"}]}]}`)
	html := renderString(t, DisplayContent(state))
	if !strings.Contains(html, `data-mode="blocks"`) || !strings.Contains(html, "https://cdn.example.com/a.png") || !strings.Contains(html, "Soup") {
		t.Fatalf("unexpected blocks html: %s", html)
	}
	if strings.Index(html, `data-block="b1"`) > strings.Index(html, `data-block="b2"`) {
		t.Fatalf("blocks not ordered by index: %s", html)
	}

	state = contentState(t, `{"screen":{"id":"s"},"menus":[],"digitalMenuData":{"id":"d","width":1280,"height":720,
		"layers":[{"id":"l2","type":"text","x":5,"y":5,"width":100,"height":40,"contentText":"Menu","displayOrder":2},
			{"id":"l1","type":"image","x":0,"y":0,"width":1280,"height":720,"imageUrl":"https://cdn.example.com/bg.jpg","displayOrder":1}]}}`)
	html = renderString(t, DisplayContent(state))
	if !strings.Contains(html, `data-width="1280"`) || strings.Index(html, "bg.jpg") > strings.Index(html, ">Menu<") {
		t.Fatalf("unexpected digital menu html: %s", html)
	}
}

func TestDisplayPageEmbedsStylesheetAndSocket(t *testing.T) {
	html := renderString(t, DisplayPage(DisplayState{Token: "abc", Screen: ScreenLoading}, "/ws/display/abc"))
	for _, want := range []string{"<!doctype html>", `data-ws="/ws/display/abc"`, "@keyframes carDrive", `id="display"`} {
		if !strings.Contains(html, want) {
			t.Fatalf("missing %q", want)
		}
	}
}

func TestStatusPageHumanizes(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	html := renderString(t, StatusPage("front", []StatusRow{{
		Token:     "abc",
		Screen:    "content",
		Mode:      "carousel",
		Admission: "allowed",
		Cursor:    1,
		Slots:     3,
		LastLoad:  now.Add(-3 * time.Minute),
		Loads:     12345,
		Failures:  2,
		LastError: "backend returned 502",
	}}, now))
	for _, want := range []string{"3 minutes ago", "12,345", "2/3", `class="bad"`, "Player status - front"} {
		if !strings.Contains(html, want) {
			t.Fatalf("missing %q in %s", want, html)
		}
	}
	if html := renderString(t, StatusPage("", nil, now)); !strings.Contains(html, "No displays running.") {
		t.Fatalf("expected empty status page")
	}
}
