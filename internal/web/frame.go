package web

import "strings"

var frameStyles = map[string]string{
	"frame_1":  "border: 4px solid rgba(251, 191, 36, 0.9); box-shadow: inset 0 0 60px rgba(251, 191, 36, 0.05);",
	"frame_2":  "border: 6px double rgba(234, 179, 8, 0.8); border-radius: 4px;",
	"frame_3":  "border: 3px solid transparent; border-image: linear-gradient(135deg, #fbbf24, #f59e0b, #d97706) 1; box-shadow: inset 0 0 80px rgba(245, 158, 11, 0.03);",
	"frame_4":  "border: 8px solid rgba(15, 23, 42, 0.95); box-shadow: 0 0 0 2px rgba(251, 191, 36, 0.4), inset 0 0 40px rgba(0,0,0,0.2);",
	"frame_5":  "border: 2px solid rgba(251, 191, 36, 0.6); box-shadow: inset 0 0 0 1px rgba(251, 191, 36, 0.2), 0 0 30px rgba(251, 191, 36, 0.05);",
	"frame_6":  "border: 5px solid #fbbf24; border-radius: 8px; box-shadow: inset 0 0 0 1px rgba(0,0,0,0.3);",
	"frame_7":  "border: 4px solid rgba(255, 255, 255, 0.15); box-shadow: inset 0 0 0 2px rgba(251, 191, 36, 0.3);",
	"frame_8":  "border: 6px groove rgba(251, 191, 36, 0.7);",
	"frame_9":  "border: 3px solid #fbbf24; box-shadow: inset 0 0 100px rgba(251, 191, 36, 0.03), 0 0 20px rgba(251, 191, 36, 0.1);",
	"frame_10": "border: 2px solid rgba(251, 191, 36, 0.5); border-radius: 2px; box-shadow: inset 0 0 0 1px rgba(251, 191, 36, 0.15);",
}

// frameStyle returns the frame CSS. The bottom edge is dropped when a ticker
// runs along it.
func frameStyle(frame string, ticker bool) string {
	style := frameStyles[frame]
	if style == "" {
		return ""
	}
	if ticker {
		style += " border-bottom: none;"
	}
	return style
}

type tickerStyle struct {
	font          string
	weight        string
	italic        bool
	letterSpacing string
}

var tickerStyles = map[string]tickerStyle{
	"default":   {font: "system-ui", weight: "500"},
	"bold":      {font: "system-ui", weight: "700"},
	"elegant":   {font: "Georgia, serif", weight: "500", italic: true},
	"modern":    {font: "system-ui", weight: "600"},
	"script":    {font: "cursive", weight: "500", italic: true},
	"condensed": {font: "system-ui", weight: "600", letterSpacing: "-0.03em"},
}

func tickerCSS(name string) string {
	style, ok := tickerStyles[name]
	if !ok {
		style = tickerStyles["default"]
	}
	var b strings.Builder
	b.WriteString("font-family: " + style.font + "; font-weight: " + style.weight + ";")
	if style.italic {
		b.WriteString(" font-style: italic;")
	}
	if style.letterSpacing != "" {
		b.WriteString(" letter-spacing: " + style.letterSpacing + ";")
	}
	return b.String()
}

func writeTicker(h *htmlWriter, text, style string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	h.raw(`<div class="ticker"><div class="ticker-track"`)
	h.attr("style", tickerCSS(style))
	h.raw(">")
	for i := 0; i < 3; i++ {
		if i == 0 {
			h.raw(`<span>`)
		} else {
			h.raw(`<span aria-hidden="true">`)
		}
		h.text(text)
		h.raw(`</span>`)
	}
	h.raw(`</div></div>`)
}
