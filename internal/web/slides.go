package web

import (
	"encoding/json"
	"sort"
	"strings"

	"signage-player/internal/render"
	"signage-player/internal/snapshot"
)

const (
	canvasWidth  = 1920
	canvasHeight = 1080
)

func writeSlide(h *htmlWriter, slide Slide, lang string) {
	h.raw(`<div class="slide"`)
	h.attr("data-mode", slide.Mode.String())
	h.attr("data-key", slide.Key)
	h.raw(">")
	switch slide.Mode {
	case render.DigitalMenu:
		writeDigitalMenu(h, slide.Snapshot.DigitalMenuData)
	case render.Canvas:
		kind, doc := render.CanvasDocument(slide.Snapshot.Template)
		writeCanvas(h, kind, doc)
	case render.Blocks:
		writeBlocks(h, render.BuildGrid(slide.Snapshot))
	case render.Carousel:
		writeCarousel(h, slide.Snapshot.Menus, slide.Carousel, lang)
	default:
		writeMessage(h, "empty", T(lang, "empty_title"), T(lang, "empty_body"))
	}
	h.raw(`</div>`)
}

func writeMessage(h *htmlWriter, class, title, body string) {
	h.raw(`<div class="message `, class, `"><h1>`)
	h.text(title)
	h.raw(`</h1>`)
	if body != "" {
		h.raw(`<p>`)
		h.text(body)
		h.raw(`</p>`)
	}
	h.raw(`</div>`)
}

func writeDigitalMenu(h *htmlWriter, menu *snapshot.DigitalMenu) {
	width, height := menu.Width, menu.Height
	if width <= 0 {
		width = canvasWidth
	}
	if height <= 0 {
		height = canvasHeight
	}
	style := "width: " + itoa(width) + "px; height: " + itoa(height) + "px;"
	if menu.BackgroundImage != nil && safeURL(*menu.BackgroundImage) != "" {
		style += " background: url('" + safeURL(*menu.BackgroundImage) + "') center / cover no-repeat;"
	}
	h.raw(`<div class="stage-fit"><div class="design"`)
	h.attr("style", style)
	h.attr("data-width", itoa(width))
	h.attr("data-height", itoa(height))
	h.raw(">")
	layers := append([]snapshot.Layer(nil), menu.Layers...)
	sort.SliceStable(layers, func(i, j int) bool { return layers[i].DisplayOrder < layers[j].DisplayOrder })
	for _, layer := range layers {
		writeLayer(h, layer)
	}
	h.raw(`</div></div>`)
}

func writeLayer(h *htmlWriter, layer snapshot.Layer) {
	style := "position: absolute; left: " + ftoa(layer.X) + "px; top: " + ftoa(layer.Y) + "px;" +
		" width: " + ftoa(layer.Width) + "px; height: " + ftoa(layer.Height) + "px;"
	if layer.Rotation != 0 {
		style += " transform: rotate(" + ftoa(layer.Rotation) + "deg);"
	}
	for _, key := range []string{"background", "backgroundColor", "borderRadius", "opacity"} {
		if value, ok := layer.Style[key]; ok {
			style += " " + cssProperty(key) + ": " + cssValue(value) + ";"
		}
	}
	switch layer.Type {
	case "image":
		if layer.ImageURL == nil || safeURL(*layer.ImageURL) == "" {
			return
		}
		h.raw(`<img class="layer" alt=""`)
		h.attr("src", safeURL(*layer.ImageURL))
		h.attr("style", style+" object-fit: cover;")
		h.raw(">")
	case "text", "price", "title":
		if layer.FontSize > 0 {
			style += " font-size: " + ftoa(layer.FontSize) + "px;"
		}
		if layer.FontFamily != "" {
			style += " font-family: " + layer.FontFamily + ";"
		}
		if layer.FontStyle != "" {
			style += " font-style: " + layer.FontStyle + ";"
		}
		if layer.Color != "" {
			style += " color: " + layer.Color + ";"
		}
		if layer.Align != "" {
			style += " text-align: " + layer.Align + ";"
		}
		h.raw(`<div class="layer text"`)
		h.attr("style", style)
		h.raw(">")
		h.text(layer.ContentText)
		h.raw(`</div>`)
	default:
		h.raw(`<div class="layer shape"`)
		h.attr("data-type", layer.Type)
		h.attr("style", style)
		h.raw(`></div>`)
	}
}

func cssProperty(key string) string {
	var b strings.Builder
	for _, r := range key {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte('-')
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func cssValue(value any) string {
	switch v := value.(type) {
	case string:
		return strings.NewReplacer(";", "", "{", "", "}", "").Replace(v)
	case float64:
		return ftoa(v)
	default:
		return ""
	}
}

// canvasShape covers the fields of both canvas documents: designer shapes use
// x/y/fill/src, full-editor objects use left/top/scaleX/scaleY.
type canvasShape struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"`
	X          *float64 `json:"x"`
	Y          *float64 `json:"y"`
	Left       *float64 `json:"left"`
	Top        *float64 `json:"top"`
	Width      float64  `json:"width"`
	Height     float64  `json:"height"`
	ScaleX     float64  `json:"scaleX"`
	ScaleY     float64  `json:"scaleY"`
	Rotation   float64  `json:"rotation"`
	Angle      float64  `json:"angle"`
	Opacity    *float64 `json:"opacity"`
	Text       string   `json:"text"`
	Icon       string   `json:"icon"`
	IconAfter  string   `json:"iconPosition"`
	FontSize   float64  `json:"fontSize"`
	FontFamily string   `json:"fontFamily"`
	FontStyle  string   `json:"fontStyle"`
	Fill       any      `json:"fill"`
	Align      string   `json:"align"`
	TextAlign  string   `json:"textAlign"`
	Src        string   `json:"src"`
	ClipShape  string   `json:"clipShape"`
	URLs       []string `json:"urls"`
}

type canvasDoc struct {
	Shapes          []canvasShape `json:"shapes"`
	Objects         []canvasShape `json:"objects"`
	BackgroundColor string        `json:"backgroundColor"`
	Background      string        `json:"background"`
}

func writeCanvas(h *htmlWriter, kind string, raw []byte) {
	var doc canvasDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		writeMessage(h, "empty", "", "")
		return
	}
	background := doc.BackgroundColor
	if background == "" {
		background = doc.Background
	}
	if background == "" {
		background = "#1e293b"
	}
	shapes := doc.Shapes
	if kind == render.DocFullEditor {
		shapes = doc.Objects
	}
	h.raw(`<div class="stage-fit"><div class="design"`)
	h.attr("data-kind", kind)
	h.attr("data-width", itoa(canvasWidth))
	h.attr("data-height", itoa(canvasHeight))
	h.attr("style", "width: "+itoa(canvasWidth)+"px; height: "+itoa(canvasHeight)+"px; background: "+cssValue(background)+";")
	h.raw(">")
	for _, shape := range shapes {
		writeShape(h, shape)
	}
	h.raw(`</div></div>`)
}

func writeShape(h *htmlWriter, shape canvasShape) {
	x, y := shape.X, shape.Y
	if x == nil {
		x = shape.Left
	}
	if y == nil {
		y = shape.Top
	}
	width, height := shape.Width, shape.Height
	if shape.ScaleX > 0 {
		width *= shape.ScaleX
	}
	if shape.ScaleY > 0 {
		height *= shape.ScaleY
	}
	style := "position: absolute; left: " + ftoa(deref(x)) + "px; top: " + ftoa(deref(y)) + "px;"
	if width > 0 {
		style += " width: " + ftoa(width) + "px;"
	}
	if height > 0 {
		style += " height: " + ftoa(height) + "px;"
	}
	if rotation := shape.Rotation + shape.Angle; rotation != 0 {
		style += " transform: rotate(" + ftoa(rotation) + "deg); transform-origin: 0 0;"
	}
	if shape.Opacity != nil {
		style += " opacity: " + ftoa(*shape.Opacity) + ";"
	}
	switch shape.Type {
	case "text", "textbox", "i-text", "Textbox", "IText", "Text":
		size := shape.FontSize
		if size <= 0 {
			size = 24
		}
		style += " font-size: " + ftoa(size) + "px;"
		if shape.FontFamily != "" {
			style += " font-family: " + cssValue(shape.FontFamily) + ";"
		}
		if strings.Contains(shape.FontStyle, "italic") {
			style += " font-style: italic;"
		}
		if strings.Contains(shape.FontStyle, "bold") {
			style += " font-weight: 700;"
		}
		fill := "#ffffff"
		if value, ok := shape.Fill.(string); ok && value != "" {
			fill = value
		}
		style += " color: " + cssValue(fill) + ";"
		align := shape.Align
		if align == "" {
			align = shape.TextAlign
		}
		if align != "" {
			style += " text-align: " + cssValue(align) + ";"
		}
		text := shape.Text
		if shape.Icon != "" {
			if shape.IconAfter == "after" {
				text = text + " " + shape.Icon
			} else {
				text = shape.Icon + " " + text
			}
		}
		h.raw(`<div class="shape text"`)
		h.attr("style", style)
		h.raw(">")
		h.text(text)
		h.raw(`</div>`)
	case "image", "Image", "imageRotation":
		src := shape.Src
		if src == "" && len(shape.URLs) > 0 {
			src = shape.URLs[0]
		}
		if safeURL(src) == "" {
			return
		}
		if shape.ClipShape == "circle" {
			style += " border-radius: 50%;"
		}
		h.raw(`<img class="shape" alt=""`)
		h.attr("src", safeURL(src))
		h.attr("style", style+" object-fit: cover;")
		h.raw(">")
	case "video":
		if safeURL(shape.Src) == "" {
			return
		}
		h.raw(`<video class="shape" autoplay muted loop playsinline`)
		h.attr("src", safeURL(shape.Src))
		h.attr("style", style+" object-fit: cover;")
		h.raw(`></video>`)
	case "rect", "Rect":
		if value, ok := shape.Fill.(string); ok && value != "" {
			style += " background: " + cssValue(value) + ";"
		}
		h.raw(`<div class="shape"`)
		h.attr("style", style)
		h.raw(`></div>`)
	}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func writeBlocks(h *htmlWriter, grid render.Grid) {
	h.raw(`<div class="blocks"`)
	h.attr("style", grid.Style())
	h.raw(">")
	for _, cell := range grid.Cells {
		h.raw(`<div class="block"`)
		h.attr("data-block", cell.Block.ID)
		h.attr("style", cell.Style)
		h.raw(">")
		writeBlockContents(h, cell.Contents)
		h.raw(`</div>`)
	}
	h.raw(`</div>`)
}

func writeBlockContents(h *htmlWriter, contents []snapshot.BlockContent) {
	for _, content := range contents {
		style := ""
		if content.BackgroundColor != "" {
			style += "background-color: " + cssValue(content.BackgroundColor) + ";"
		}
		if content.TextColor != "" {
			style += " color: " + cssValue(content.TextColor) + ";"
		}
		switch {
		case content.ContentType == "video" && safeURL(content.ImageURL) != "":
			h.raw(`<video class="fill" autoplay muted loop playsinline`)
			h.attr("src", safeURL(content.ImageURL))
			h.raw(`></video>`)
		case (content.ContentType == "image" || content.ContentType == "") && safeURL(content.ImageURL) != "":
			h.raw(`<img class="fill" alt=""`)
			h.attr("src", safeURL(content.ImageURL))
			h.raw(">")
		case content.ContentType == "campaign_badge" || content.CampaignText != "":
			h.raw(`<div class="badge"`)
			h.attr("style", style)
			h.raw(">")
			h.text(content.CampaignText)
			h.raw(`</div>`)
		case content.ContentType == "single_product" && content.MenuItem != nil:
			writeProduct(h, *content.MenuItem, style)
		case len(content.MenuItems) > 0:
			h.raw(`<ul class="product-list"`)
			h.attr("style", style)
			h.raw(">")
			if content.Title != "" {
				h.raw(`<li class="heading">`)
				h.text(content.Title)
				h.raw(`</li>`)
			}
			for _, item := range content.MenuItems {
				h.raw(`<li><span>`)
				h.text(item.Name)
				h.raw(`</span><span class="price">`)
				h.text(item.Price.String())
				h.raw(`</span></li>`)
			}
			h.raw(`</ul>`)
		case content.Title != "":
			h.raw(`<div class="block-title"`)
			h.attr("style", style)
			h.raw(">")
			h.text(content.Title)
			h.raw(`</div>`)
		}
	}
}

func writeProduct(h *htmlWriter, item snapshot.MenuItem, style string) {
	h.raw(`<div class="product"`)
	h.attr("style", style)
	h.raw(">")
	if safeURL(item.ImageURL) != "" {
		h.raw(`<img alt=""`)
		h.attr("src", safeURL(item.ImageURL))
		h.raw(">")
	}
	h.raw(`<div class="product-name">`)
	h.text(item.Name)
	h.raw(`</div>`)
	if item.Description != "" {
		h.raw(`<div class="product-description">`)
		h.text(item.Description)
		h.raw(`</div>`)
	}
	h.raw(`<div class="price">`)
	h.text(item.Price.String())
	h.raw(`</div></div>`)
}

func writeCarousel(h *htmlWriter, menus []snapshot.Menu, state render.CarouselState, lang string) {
	menu, item, ok := state.Current(menus)
	if !ok {
		writeMessage(h, "empty", T(lang, "empty_title"), T(lang, "empty_body"))
		return
	}
	h.raw(`<div class="carousel"><header><h1>`)
	h.text(menu.Name)
	h.raw(`</h1>`)
	if menu.Description != "" {
		h.raw(`<p>`)
		h.text(menu.Description)
		h.raw(`</p>`)
	}
	h.raw(`</header>`)
	if item == nil {
		writeMessage(h, "no-items", T(lang, "no_items"), "")
		h.raw(`</div>`)
		return
	}
	writeProduct(h, *item, "")
	h.raw(`<footer class="counter">`)
	h.text(itoa(state.Item+1) + " / " + itoa(len(menu.Items)))
	h.raw(`</footer></div>`)
}
