package web

import (
	"context"
	"io"
	"strconv"

	"signage-player/internal/snapshot"
	"signage-player/internal/transition"

	"github.com/a-h/templ"
)

const baseCSS = `* { box-sizing: border-box; }
html, body { margin: 0; height: 100%; background: #000; color: #fff; overflow: hidden; font-family: system-ui, sans-serif; }
#display { position: fixed; inset: 0; display: flex; flex-direction: column; }
.viewport { position: relative; flex: 1; min-height: 0; }
.frame { position: absolute; inset: 0; pointer-events: none; z-index: 40; }
.slide { position: absolute; inset: 0; overflow: hidden; }
.stage-fit { position: absolute; inset: 0; display: flex; align-items: center; justify-content: center; overflow: hidden; }
.design { position: relative; flex-shrink: 0; transform-origin: center center; overflow: hidden; }
.layer, .shape { position: absolute; white-space: pre-wrap; }
.blocks .block { position: relative; overflow: hidden; background: #111827; }
.fill { width: 100%; height: 100%; object-fit: cover; display: block; }
.badge { position: absolute; right: 1rem; bottom: 1rem; padding: .5rem 1rem; border-radius: 999px; background: #f59e0b; color: #111; font-weight: 700; }
.block-title { padding: 1rem; font-size: 2rem; font-weight: 700; }
.product-list { list-style: none; margin: 0; padding: 1rem; font-size: 1.4rem; }
.product-list li { display: flex; justify-content: space-between; padding: .3rem 0; border-bottom: 1px solid rgba(255,255,255,.1); }
.product-list .heading { font-weight: 700; font-size: 1.8rem; }
.product { display: flex; flex-direction: column; align-items: center; justify-content: center; height: 100%; gap: 1rem; text-align: center; }
.product img { max-width: 70%; max-height: 55%; object-fit: contain; border-radius: 1rem; }
.product-name { font-size: 3rem; font-weight: 700; }
.product-description { font-size: 1.5rem; opacity: .8; max-width: 70%; }
.price { font-size: 2.5rem; color: #fbbf24; font-weight: 700; }
.carousel { position: absolute; inset: 0; display: flex; flex-direction: column; padding: 2rem; background: linear-gradient(135deg, #0f172a, #1e293b); }
.carousel header h1 { margin: 0; font-size: 2.5rem; }
.carousel .product { flex: 1; }
.counter { text-align: center; opacity: .6; }
.message { position: absolute; inset: 0; display: flex; flex-direction: column; align-items: center; justify-content: center; text-align: center; padding: 2rem; background: #0f172a; }
.message h1 { font-size: 2.5rem; margin: 0 0 1rem; }
.message p { font-size: 1.3rem; opacity: .8; max-width: 40rem; }
.message.no-items { position: relative; flex: 1; background: transparent; }
.message button, .message a { margin: .5rem; padding: .8rem 1.6rem; border-radius: .5rem; border: 0; font-size: 1.1rem; background: #f59e0b; color: #111; text-decoration: none; cursor: pointer; }
.stale { position: absolute; top: .5rem; right: .5rem; z-index: 50; padding: .3rem .8rem; border-radius: 999px; background: rgba(220, 38, 38, .85); font-size: .85rem; }
.ticker { overflow: hidden; background: rgba(30, 41, 59, .9); border-top: 1px solid rgba(245, 158, 11, .3); padding: .5rem 0; min-height: 40px; }
.ticker-track { display: flex; width: max-content; white-space: nowrap; animation: ticker-tape-scroll 60s linear infinite; will-change: transform; font-size: 1rem; }
.ticker-track span { padding-right: 6rem; }
@keyframes ticker-tape-scroll { 0% { transform: translateX(100%); } 100% { transform: translateX(-100%); } }
`

const displayScript = `(function () {
  var root = document.getElementById("root");
  var wsPath = root.getAttribute("data-ws");
  function fit() {
    document.querySelectorAll(".design").forEach(function (el) {
      var w = +el.getAttribute("data-width") || 1920;
      var h = +el.getAttribute("data-height") || 1080;
      var box = el.parentElement.getBoundingClientRect();
      el.style.transform = "scale(" + Math.min(box.width / w, box.height / h) + ")";
    });
  }
  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + wsPath);
    ws.onmessage = function (event) {
      var msg = JSON.parse(event.data);
      if (msg.type === "html") {
        root.innerHTML = msg.html;
        fit();
      } else if (msg.type === "reload") {
        location.reload();
      }
    };
    ws.onclose = function () { setTimeout(connect, 2000); };
  }
  document.addEventListener("click", function (event) {
    var target = event.target.closest("[data-refresh]");
    if (!target) return;
    event.preventDefault();
    fetch(target.getAttribute("data-refresh"), { method: "POST" });
  });
  window.addEventListener("resize", fit);
  fit();
  connect();
})();
`

// DisplayPage is the full kiosk page. The body is replaced over the websocket
// at wsPath on every view change.
func DisplayPage(state DisplayState, wsPath string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<!doctype html>
<html`)
		h.attr("lang", Lang(state.Lang))
		h.raw(`>
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>`)
		if state.BusinessName != "" {
			h.text(state.BusinessName)
		} else {
			h.text("Display " + state.Token)
		}
		h.raw(`</title>
    <style>`, baseCSS, transition.Stylesheet(), `</style>
  </head>
  <body>
    <div id="root"`)
		h.attr("data-ws", wsPath)
		h.raw(">")
		if h.err != nil {
			return h.err
		}
		if err := DisplayContent(state).Render(ctx, w); err != nil {
			return err
		}
		h.raw(`</div>
    <script>`, displayScript, `</script>
  </body>
</html>
`)
		return h.err
	})
}

// DisplayContent renders the part of the page that changes between views.
func DisplayContent(state DisplayState) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		screen := currentScreen(state)
		h.raw(`<div id="display"`)
		h.attr("data-screen", state.Screen)
		h.attr("data-version", strconv.FormatUint(state.Version, 10))
		if screen != nil && screen.FontFamily != "" {
			h.attr("style", "font-family: "+cssValue(screen.FontFamily)+";")
		}
		h.raw(`><div class="viewport">`)
		switch state.Screen {
		case ScreenNotFound:
			writeMessage(h, "not-found", T(state.Lang, "not_found_title"), T(state.Lang, "not_found_body"))
		case ScreenBlocked:
			writeBlocked(h, state)
		case ScreenContent:
			writeStage(h, state)
		default:
			label := T(state.Lang, "loading")
			if state.BusinessName != "" {
				label = state.BusinessName
			}
			writeMessage(h, "loading", label, "")
		}
		if state.Screen == ScreenContent && screen != nil {
			if style := frameStyle(screen.FrameType, screen.TickerText != ""); style != "" {
				h.raw(`<div class="frame"`)
				h.attr("style", style)
				h.raw(`></div>`)
			}
		}
		if state.Stale && state.Screen == ScreenContent {
			h.raw(`<div class="stale">`)
			h.text(T(state.Lang, "stale"))
			h.raw(`</div>`)
		}
		h.raw(`</div>`)
		if state.Screen == ScreenContent && screen != nil {
			writeTicker(h, screen.TickerText, screen.TickerStyle)
		}
		h.raw(`</div>`)
		return h.err
	})
}

func currentScreen(state DisplayState) *snapshot.Screen {
	if state.Current.Snapshot == nil {
		return nil
	}
	return state.Current.Snapshot.Screen
}

func writeBlocked(h *htmlWriter, state DisplayState) {
	h.raw(`<div class="message blocked"><h1>`)
	h.text(T(state.Lang, "blocked_title"))
	h.raw(`</h1><p>`)
	h.text(T(state.Lang, "blocked_body"))
	h.raw(`</p><div>`)
	if state.RefreshURL != "" {
		h.raw(`<button type="button"`)
		h.attr("data-refresh", state.RefreshURL)
		h.raw(">")
		h.text(T(state.Lang, "blocked_retry"))
		h.raw(`</button>`)
	}
	if url := safeURL(state.UpgradeURL); url != "" {
		h.raw(`<a target="_blank" rel="noopener"`)
		h.attr("href", url)
		h.raw(">")
		h.text(T(state.Lang, "blocked_upgrade"))
		h.raw(`</a>`)
	}
	h.raw(`</div></div>`)
}

func writeStage(h *htmlWriter, state DisplayState) {
	h.raw(`<div class="transition-wrap"`)
	if state.Next != nil {
		effect := transition.Lookup(state.Effect)
		h.attr("data-effect", effect.Name)
		h.attr("style", "--dur: "+transition.DurationVar(state.TransitionTime)+";")
		h.raw(`><div class="transition-current">`)
		writeSlide(h, state.Current, state.Lang)
		h.raw(`</div><div class="transition-next">`)
		writeSlide(h, *state.Next, state.Lang)
		h.raw(`</div>`)
		if effect.Overlay {
			h.raw(`<div class="transition-car"><div class="transition-car-inner">&#128663;</div></div>`)
		}
		h.raw(`</div>`)
		return
	}
	h.raw(`><div class="transition-current">`)
	writeSlide(h, state.Current, state.Lang)
	h.raw(`</div></div>`)
}
