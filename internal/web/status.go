package web

import (
	"context"
	"io"
	"time"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"
)

// StatusPage renders the operator overview of every running session.
func StatusPage(device string, rows []StatusRow, now time.Time) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta http-equiv="refresh" content="10"/>
    <title>Player status</title>
    <style>
      body { font-family: system-ui, sans-serif; margin: 2rem; background: #0f172a; color: #e2e8f0; }
      table { border-collapse: collapse; width: 100%; }
      th, td { text-align: left; padding: .4rem .6rem; border-bottom: 1px solid #334155; }
      .bad { color: #f87171; }
    </style>
  </head>
  <body>
    <h1>Player status`)
		if device != "" {
			h.text(" - " + device)
		}
		h.raw(`</h1>`)
		if len(rows) == 0 {
			h.raw(`<p>No displays running.</p>`)
		} else {
			h.raw(`<table><thead><tr><th>Token</th><th>Screen</th><th>Mode</th><th>Admission</th><th>Slot</th><th>Profile</th><th>Last load</th><th>Failures</th><th>Loads</th><th>Transitions</th><th>Heartbeats</th><th>Dropped</th></tr></thead><tbody>`)
			for _, row := range rows {
				writeStatusRow(h, row, now)
			}
			h.raw(`</tbody></table>`)
		}
		h.raw(`
  </body>
</html>
`)
		return h.err
	})
}

func writeStatusRow(h *htmlWriter, row StatusRow, now time.Time) {
	h.raw(`<tr><td><a`)
	h.attr("href", "/display/"+row.Token)
	h.raw(">")
	h.text(row.Token)
	h.raw(`</a></td><td>`)
	h.text(row.Screen)
	h.raw(`</td><td>`)
	h.text(row.Mode)
	if row.Transitioning {
		h.text(" (transition)")
	}
	h.raw(`</td><td>`)
	h.text(row.Admission)
	h.raw(`</td><td>`)
	slot := "-"
	if row.Slots > 0 {
		slot = itoa(row.Cursor+1) + "/" + itoa(row.Slots)
	}
	if row.Pinned {
		slot += " pinned"
	}
	h.text(slot)
	h.raw(`</td><td>`)
	h.text(row.Profile)
	h.raw(`</td><td`)
	h.attr("title", formatTime(row.LastLoad))
	h.raw(">")
	h.text(relativeTime(row.LastLoad, now))
	h.raw(`</td><td`)
	if row.Failures > 0 {
		h.attr("class", "bad")
		h.attr("title", row.LastError)
	}
	h.raw(">")
	h.text(itoa(row.Failures))
	if row.NextRetry != "" {
		h.text(" (retry in " + row.NextRetry + ")")
	}
	h.raw(`</td><td>`)
	h.text(humanize.Comma(int64(row.Loads)))
	h.raw(`</td><td>`)
	h.text(humanize.Comma(int64(row.Transitions)))
	h.raw(`</td><td>`)
	h.text(humanize.Comma(int64(row.Heartbeats)))
	h.raw(`</td><td>`)
	h.text(humanize.Comma(row.DroppedTicks))
	h.raw(`</td></tr>`)
}

func relativeTime(at, now time.Time) string {
	if at.IsZero() {
		return "never"
	}
	return humanize.RelTime(at, now, "ago", "from now")
}
