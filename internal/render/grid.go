package render

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"signage-player/internal/snapshot"
)

// GridLayout is the CSS grid used for a block template.
type GridLayout struct {
	Cols    int
	Rows    int
	Gap     string
	Special bool
}

var fixedLayouts = map[int]GridLayout{
	1:  {Cols: 1, Rows: 1, Gap: "0"},
	2:  {Cols: 2, Rows: 1, Gap: "4px"},
	3:  {Cols: 2, Rows: 2, Gap: "4px", Special: true},
	4:  {Cols: 2, Rows: 2, Gap: "4px"},
	5:  {Cols: 3, Rows: 2, Gap: "4px", Special: true},
	6:  {Cols: 3, Rows: 2, Gap: "4px"},
	7:  {Cols: 4, Rows: 2, Gap: "4px", Special: true},
	8:  {Cols: 4, Rows: 2, Gap: "4px"},
	9:  {Cols: 3, Rows: 3, Gap: "4px"},
	12: {Cols: 4, Rows: 3, Gap: "4px"},
	16: {Cols: 4, Rows: 4, Gap: "4px"},
}

// LayoutFor returns the grid for count blocks. Counts without a fixed layout
// get a roughly 16:9 grid.
func LayoutFor(count int) GridLayout {
	if count <= 0 {
		return GridLayout{Cols: 2, Rows: 2, Gap: "4px"}
	}
	if layout, ok := fixedLayouts[count]; ok {
		return layout
	}
	cols := int(math.Ceil(math.Sqrt(float64(count) * 16 / 9)))
	rows := int(math.Ceil(float64(count) / float64(cols)))
	return GridLayout{Cols: cols, Rows: rows, Gap: "4px"}
}

// Cell is one placed block with the contents addressed to it.
type Cell struct {
	Block    snapshot.Block
	Contents []snapshot.BlockContent
	Style    string
}

// Grid is the placed block template.
type Grid struct {
	Layout GridLayout
	Custom bool
	Cells  []Cell
}

// Style is the container style.
func (g Grid) Style() string {
	if g.Custom {
		return "position: relative; width: 100%; height: 100%; background-color: #374151;"
	}
	return "display: grid; width: 100%; height: 100%; background-color: #374151;" +
		" grid-template-columns: repeat(" + strconv.Itoa(g.Layout.Cols) + ", 1fr);" +
		" grid-template-rows: repeat(" + strconv.Itoa(g.Layout.Rows) + ", 1fr);" +
		" gap: " + g.Layout.Gap + ";"
}

// BuildGrid sorts blocks by block_index, drops blocks beyond the template's
// block_count and places each one either on the grid or at its stored
// percentage position when any block carries one.
func BuildGrid(snap *snapshot.Snapshot) Grid {
	if snap == nil {
		return Grid{Layout: LayoutFor(0)}
	}
	blocks := append([]snapshot.Block(nil), snap.ScreenBlocks...)
	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].BlockIndex < blocks[j].BlockIndex })
	if snap.Template != nil && snap.Template.BlockCount > 0 && len(blocks) > snap.Template.BlockCount {
		blocks = blocks[:snap.Template.BlockCount]
	}
	count := len(blocks)
	if count == 0 && snap.Template != nil {
		count = snap.Template.BlockCount
	}
	grid := Grid{Layout: LayoutFor(count), Custom: hasPositions(blocks)}
	for i, block := range blocks {
		grid.Cells = append(grid.Cells, Cell{
			Block:    block,
			Contents: contentsFor(block, snap.BlockContents),
			Style:    cellStyle(grid, block, i, count),
		})
	}
	return grid
}

func hasPositions(blocks []snapshot.Block) bool {
	for _, b := range blocks {
		if b.PositionX != nil && b.PositionY != nil && b.Width != nil && b.Height != nil && *b.Width > 0 && *b.Height > 0 {
			return true
		}
	}
	return false
}

func contentsFor(block snapshot.Block, all []snapshot.BlockContent) []snapshot.BlockContent {
	id := block.ID
	if id == "" {
		id = block.TemplateBlockID
	}
	var out []snapshot.BlockContent
	for _, c := range all {
		if c.ScreenBlockID == id || (c.TemplateBlockID != "" && c.TemplateBlockID == id) {
			out = append(out, c)
		}
	}
	return out
}

func cellStyle(g Grid, block snapshot.Block, index, count int) string {
	tallRight := (count == 3 || count == 5) && index == 2
	wideLast := count == 7 && index == 6
	if g.Custom {
		x, y := deref(block.PositionX, 0), deref(block.PositionY, 0)
		w, h := deref(block.Width, 25), deref(block.Height, 25)
		// The right-hand column block of the 3 and 5 layouts spans full height.
		if g.Layout.Special && tallRight && x >= 50 && h <= 55 {
			h = 100
		}
		return "position: absolute; left: " + pct(x) + "; top: " + pct(y) + "; width: " + pct(w) + "; height: " + pct(h) + ";"
	}
	var parts []string
	if g.Layout.Special && tallRight {
		col := 2
		if count == 5 {
			col = 3
		}
		parts = append(parts, "grid-row: 1 / span 2;", "grid-column: "+strconv.Itoa(col)+";")
	}
	if wideLast {
		parts = append(parts, "grid-column: span 2;")
	}
	return strings.Join(parts, " ")
}

func deref(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func pct(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}
