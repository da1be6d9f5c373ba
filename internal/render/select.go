// Package render maps a snapshot onto exactly one visual mode and keeps the
// small amount of state those modes need between frames.
package render

import "signage-player/internal/snapshot"

type Mode int

const (
	Empty Mode = iota
	DigitalMenu
	Canvas
	Blocks
	Carousel
)

func (m Mode) String() string {
	switch m {
	case DigitalMenu:
		return "digital_menu"
	case Canvas:
		return "canvas"
	case Blocks:
		return "blocks"
	case Carousel:
		return "carousel"
	default:
		return "empty"
	}
}

// Document kinds for Canvas mode.
const (
	DocCanvasDesign = "canvas_design"
	DocFullEditor   = "full_editor"
)

// Select returns the mode for snap. The first matching rule wins:
// digital menu, canvas document, block template, legacy menus, empty.
func Select(snap *snapshot.Snapshot) Mode {
	if snap == nil {
		return Empty
	}
	switch {
	case snap.DigitalMenuData != nil:
		return DigitalMenu
	case snap.Template.HasCanvasDesign(), snap.Template.IsFullEditor():
		return Canvas
	case snap.Template != nil && len(snap.ScreenBlocks) > 0:
		return Blocks
	case len(snap.Menus) > 0:
		return Carousel
	default:
		return Empty
	}
}

// CanvasDocument returns the canvas document and its kind. canvas_design wins
// over a full-editor canvas_json.
func CanvasDocument(t *snapshot.Template) (kind string, doc []byte) {
	switch {
	case t.HasCanvasDesign():
		return DocCanvasDesign, t.CanvasDesign
	case t.IsFullEditor():
		return DocFullEditor, t.CanvasJSON
	default:
		return "", nil
	}
}
