package render

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"signage-player/internal/snapshot"
)

func decode(t *testing.T, payload string) *snapshot.Snapshot {
	t.Helper()
	var snap snapshot.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return &snap
}

func TestSelectPrecedence(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Mode
	}{
		{name: "nil", want: Empty},
		{name: "nothing", payload: `{"screen":{"id":"s"}}`, want: Empty},
		{name: "menus only", payload: `{"screen":{"id":"s"},"menus":[{"id":"m","items":[]}]}`, want: Carousel},
		{name: "blocks", payload: `{"screen":{"id":"s"},"menus":[{"id":"m"}],"template":{"id":"t"},"screenBlocks":[{"id":"b","block_index":0}]}`, want: Blocks},
		{name: "template without blocks falls to menus", payload: `{"screen":{"id":"s"},"menus":[{"id":"m"}],"template":{"id":"t"},"screenBlocks":[]}`, want: Carousel},
		{name: "template without blocks or menus", payload: `{"screen":{"id":"s"},"template":{"id":"t"}}`, want: Empty},
		{name: "canvas", payload: `{"screen":{"id":"s"},"template":{"id":"t","canvas_design":{"objects":[]}},"screenBlocks":[{"id":"b"}]}`, want: Canvas},
		{name: "null canvas ignored", payload: `{"screen":{"id":"s"},"template":{"id":"t","canvas_design":null},"screenBlocks":[{"id":"b"}]}`, want: Blocks},
		{name: "full editor", payload: `{"screen":{"id":"s"},"template":{"id":"t","template_type":"full_editor","canvas_json":{"objects":[]}}}`, want: Canvas},
		{name: "canvas_json without full_editor", payload: `{"screen":{"id":"s"},"template":{"id":"t","canvas_json":{"objects":[]}}}`, want: Empty},
		{name: "digital menu wins", payload: `{"screen":{"id":"s"},"menus":[{"id":"m"}],"template":{"id":"t","canvas_design":{}},"screenBlocks":[{"id":"b"}],"digitalMenuData":{"id":"d","layers":[]}}`, want: DigitalMenu},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var snap *snapshot.Snapshot
			if tt.payload != "" {
				snap = decode(t, tt.payload)
			}
			if got := Select(snap); got != tt.want {
				t.Fatalf("Select = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCanvasDocumentKinds(t *testing.T) {
	both := &snapshot.Template{TemplateType: "full_editor", CanvasDesign: json.RawMessage(`{"a":1}`), CanvasJSON: json.RawMessage(`{"b":2}`)}
	if kind, doc := CanvasDocument(both); kind != DocCanvasDesign || string(doc) != `{"a":1}` {
		t.Fatalf("expected canvas_design first, got %s %s", kind, doc)
	}
	full := &snapshot.Template{TemplateType: "full_editor", CanvasJSON: json.RawMessage(`{"b":2}`)}
	if kind, _ := CanvasDocument(full); kind != DocFullEditor {
		t.Fatalf("expected full_editor, got %s", kind)
	}
	if kind, doc := CanvasDocument(nil); kind != "" || doc != nil {
		t.Fatalf("expected no document for nil template")
	}
}

func TestCarouselAdvancesAndWraps(t *testing.T) {
	snap := decode(t, `{"screen":{"id":"s"},"templateRotations":[],"menus":[{"id":"m1","slide_duration":5,"items":[{"name":"i1"},{"name":"i2"}]}]}`)
	if Select(snap) != Carousel {
		t.Fatalf("expected carousel")
	}
	var c CarouselState
	if d := c.Delay(snap.Menus); d != 5*time.Second {
		t.Fatalf("delay = %v, want 5s", d)
	}
	var seen []string
	for i := 0; i < 4; i++ {
		_, item, _ := c.Current(snap.Menus)
		seen = append(seen, item.Name)
		c.Advance(snap.Menus)
	}
	if want := []string{"i1", "i2", "i1", "i2"}; !reflect.DeepEqual(seen, want) {
		t.Fatalf("sequence = %v, want %v", seen, want)
	}
}

func TestCarouselMovesAcrossMenusAndSkipsEmpty(t *testing.T) {
	menus := []snapshot.Menu{
		{ID: "a", SlideDuration: 0, Items: []snapshot.MenuItem{{Name: "a1"}}},
		{ID: "b", SlideDuration: 3},
		{ID: "c", SlideDuration: 2, Items: []snapshot.MenuItem{{Name: "c1"}, {Name: "c2"}}},
	}
	var c CarouselState
	if d := c.Delay(menus); d != time.Second {
		t.Fatalf("expected one second floor, got %v", d)
	}
	c.Advance(menus)
	menu, item, ok := c.Current(menus)
	if !ok || menu.ID != "b" || item != nil {
		t.Fatalf("expected empty menu b, got %v %v", menu, item)
	}
	if d := c.Delay(menus); d != 3*time.Second {
		t.Fatalf("empty menu keeps its slide duration, got %v", d)
	}
	c.Advance(menus)
	if menu, item, _ := c.Current(menus); menu.ID != "c" || item.Name != "c1" {
		t.Fatalf("expected c1, got %s %v", menu.ID, item)
	}
	c.Advance(menus)
	c.Advance(menus)
	if c.Menu != 0 || c.Item != 0 {
		t.Fatalf("expected wrap to start, got %+v", c)
	}
	c.Menu = 9
	c.Advance(menus)
	if c.Menu != 0 || c.Item != 0 {
		t.Fatalf("out of range cursor should reset, got %+v", c)
	}
}

func TestLayoutFor(t *testing.T) {
	tests := []struct {
		count int
		want  GridLayout
	}{
		{count: 0, want: GridLayout{Cols: 2, Rows: 2, Gap: "4px"}},
		{count: 1, want: GridLayout{Cols: 1, Rows: 1, Gap: "0"}},
		{count: 3, want: GridLayout{Cols: 2, Rows: 2, Gap: "4px", Special: true}},
		{count: 12, want: GridLayout{Cols: 4, Rows: 3, Gap: "4px"}},
		{count: 10, want: GridLayout{Cols: 5, Rows: 2, Gap: "4px"}},
	}
	for _, tt := range tests {
		if got := LayoutFor(tt.count); got != tt.want {
			t.Fatalf("LayoutFor(%d) = %+v, want %+v", tt.count, got, tt.want)
		}
	}
}

func TestBuildGridSortsTruncatesAndMatchesContents(t *testing.T) {
	snap := decode(t, `{
		"screen":{"id":"s"},
		"template":{"id":"t","block_count":3},
		"screenBlocks":[
			{"id":"b3","block_index":3},
			{"id":"b1","block_index":1},
			{"id":"b0","block_index":0},
			{"id":"b2","block_index":2}
		],
		"blockContents":[
			{"id":"c1","screen_block_id":"b1","content_type":"image"},
			{"id":"c3","screen_block_id":"b3","content_type":"text"}
		]
	}`)
	grid := BuildGrid(snap)
	if len(grid.Cells) != 3 || grid.Custom {
		t.Fatalf("expected 3 grid cells, got %d custom=%v", len(grid.Cells), grid.Custom)
	}
	for i, id := range []string{"b0", "b1", "b2"} {
		if grid.Cells[i].Block.ID != id {
			t.Fatalf("cell %d = %s, want %s", i, grid.Cells[i].Block.ID, id)
		}
	}
	if len(grid.Cells[1].Contents) != 1 || grid.Cells[1].Contents[0].ID != "c1" {
		t.Fatalf("unexpected contents %+v", grid.Cells[1].Contents)
	}
	if grid.Cells[2].Style != "grid-row: 1 / span 2; grid-column: 2;" {
		t.Fatalf("expected tall right block, got %q", grid.Cells[2].Style)
	}
}

func TestBuildGridCustomPositions(t *testing.T) {
	snap := decode(t, `{
		"screen":{"id":"s"},
		"template":{"id":"t"},
		"screenBlocks":[
			{"id":"a","block_index":0,"position_x":0,"position_y":0,"width":50,"height":50},
			{"id":"b","block_index":1,"position_x":0,"position_y":50,"width":50,"height":50},
			{"id":"c","block_index":2,"position_x":50,"position_y":0,"width":50,"height":50}
		]
	}`)
	grid := BuildGrid(snap)
	if !grid.Custom {
		t.Fatalf("expected custom positions")
	}
	if got := grid.Cells[2].Style; got != "position: absolute; left: 50%; top: 0%; width: 50%; height: 100%;" {
		t.Fatalf("unexpected style %q", got)
	}
}

func TestRenderIsIdempotentForSamePayload(t *testing.T) {
	payload := `{"screen":{"id":"s"},"template":{"id":"t"},"templateRotations":[{"template_id":"t","display_order":0,"display_duration":5}],"screenBlocks":[{"id":"b1","block_index":1},{"id":"b0","block_index":0}],"blockContents":[{"id":"c","screen_block_id":"b0"}]}`
	first, second := decode(t, payload), decode(t, payload)
	if Select(first) != Select(second) {
		t.Fatalf("modes differ")
	}
	if !reflect.DeepEqual(BuildGrid(first), BuildGrid(second)) {
		t.Fatalf("grids differ for identical payloads")
	}
}
