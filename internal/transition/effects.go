// Package transition describes the animated hand-over between two slides and
// times it.
package transition

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Animation is one side of a transition: a named keyframe block and its
// timing function.
type Animation struct {
	Name      string
	Timing    string
	Keyframes string
	Origin    string
}

// Effect is an outgoing/incoming animation pair.
type Effect struct {
	Name string
	Out  Animation
	In   Animation
	// Overlay draws the car across the screen while the slides swap.
	Overlay bool
}

const Default = "fade"

const (
	easeInOut = "ease-in-out"
	ease      = "ease"
)

var (
	fadeOut          = Animation{Name: "fadeOut", Timing: ease, Keyframes: "to { opacity: 0; }"}
	fadeIn           = Animation{Name: "fadeIn", Timing: ease, Keyframes: "from { opacity: 0; } to { opacity: 1; }"}
	slideInFromRight = Animation{Name: "slideInFromRight", Timing: easeInOut, Keyframes: "from { transform: translateX(100%); } to { transform: translateX(0); }"}
)

var effects = map[string]Effect{
	"fade": {Out: fadeOut, In: fadeIn},
	"slide-left": {
		Out: Animation{Name: "slideOutLeft", Timing: easeInOut, Keyframes: "to { transform: translateX(-100%); }"},
		In:  slideInFromRight,
	},
	"slide-right": {
		Out: Animation{Name: "slideOutRight", Timing: easeInOut, Keyframes: "to { transform: translateX(100%); }"},
		In:  Animation{Name: "slideInFromLeft", Timing: easeInOut, Keyframes: "from { transform: translateX(-100%); } to { transform: translateX(0); }"},
	},
	"slide-up": {
		Out: Animation{Name: "slideOutUp", Timing: easeInOut, Keyframes: "to { transform: translateY(-100%); }"},
		In:  Animation{Name: "slideInFromDown", Timing: easeInOut, Keyframes: "from { transform: translateY(100%); } to { transform: translateY(0); }"},
	},
	"slide-down": {
		Out: Animation{Name: "slideOutDown", Timing: easeInOut, Keyframes: "to { transform: translateY(100%); }"},
		In:  Animation{Name: "slideInFromUp", Timing: easeInOut, Keyframes: "from { transform: translateY(-100%); } to { transform: translateY(0); }"},
	},
	"zoom": {
		Out: Animation{Name: "zoomOut", Timing: ease, Keyframes: "to { opacity: 0; transform: scale(0.85); }"},
		In:  Animation{Name: "zoomIn", Timing: ease, Keyframes: "from { opacity: 0; transform: scale(1.15); } to { opacity: 1; transform: scale(1); }"},
	},
	"flip": {
		Out: Animation{Name: "flipOut", Timing: easeInOut, Origin: "left center", Keyframes: "to { opacity: 0; transform: perspective(1200px) rotateY(-90deg); }"},
		In:  Animation{Name: "flipIn", Timing: easeInOut, Origin: "right center", Keyframes: "from { opacity: 0; transform: perspective(1200px) rotateY(90deg); } to { opacity: 1; transform: perspective(1200px) rotateY(0); }"},
	},
	"car-pull": {Out: fadeOut, In: slideInFromRight, Overlay: true},
	"curtain": {
		Out: Animation{Name: "curtainOut", Timing: easeInOut, Keyframes: "to { clip-path: inset(0 50% 0 50%); opacity: 0; }"},
		In:  Animation{Name: "curtainIn", Timing: easeInOut, Keyframes: "from { clip-path: inset(0 50% 0 50%); } to { clip-path: inset(0 0 0 0); opacity: 1; }"},
	},
	"wipe": {
		Out: Animation{Name: "wipeOut", Timing: easeInOut, Keyframes: "to { clip-path: inset(0 0 0 100%); }"},
		In:  Animation{Name: "wipeIn", Timing: easeInOut, Keyframes: "from { clip-path: inset(0 0 0 100%); } to { clip-path: inset(0 0 0 0); }"},
	},
	"bounce": {
		Out: Animation{Name: "bounceOut", Timing: easeInOut, Keyframes: "to { opacity: 0; transform: scale(0.7); }"},
		In:  Animation{Name: "bounceIn", Timing: easeInOut, Keyframes: "from { opacity: 0; transform: scale(0.3); } 60% { transform: scale(1.05); } to { opacity: 1; transform: scale(1); }"},
	},
	"rotate": {
		Out: Animation{Name: "rotateOut", Timing: easeInOut, Origin: "center center", Keyframes: "to { opacity: 0; transform: rotate(-180deg) scale(0.5); }"},
		In:  Animation{Name: "rotateIn", Timing: easeInOut, Origin: "center center", Keyframes: "from { opacity: 0; transform: rotate(180deg) scale(0.5); } to { opacity: 1; transform: rotate(0) scale(1); }"},
	},
	"blur": {
		Out: Animation{Name: "blurOut", Timing: ease, Keyframes: "to { opacity: 0; filter: blur(20px); }"},
		In:  Animation{Name: "blurIn", Timing: ease, Keyframes: "from { opacity: 0; filter: blur(20px); } to { opacity: 1; filter: blur(0); }"},
	},
	"cross-zoom": {
		Out: Animation{Name: "crossZoomOut", Timing: ease, Origin: "center center", Keyframes: "to { opacity: 0; transform: scale(2); }"},
		In:  Animation{Name: "crossZoomIn", Timing: ease, Origin: "center center", Keyframes: "from { opacity: 0; transform: scale(0.3); } to { opacity: 1; transform: scale(1); }"},
	},
	"cube": {
		Out: Animation{Name: "cubeOut", Timing: easeInOut, Origin: "right center", Keyframes: "to { opacity: 0; transform: perspective(1200px) rotateY(90deg); }"},
		In:  Animation{Name: "cubeIn", Timing: easeInOut, Origin: "left center", Keyframes: "from { opacity: 0; transform: perspective(1200px) rotateY(-90deg); } to { opacity: 1; transform: perspective(1200px) rotateY(0); }"},
	},
	"card-flip": {
		Out: Animation{Name: "cardFlipOut", Timing: easeInOut, Origin: "center center", Keyframes: "to { opacity: 0; transform: perspective(1200px) rotateX(-90deg); }"},
		In:  Animation{Name: "cardFlipIn", Timing: easeInOut, Origin: "center center", Keyframes: "from { opacity: 0; transform: perspective(1200px) rotateX(90deg); } to { opacity: 1; transform: perspective(1200px) rotateX(0); }"},
	},
	"split": {
		Out: Animation{Name: "splitOut", Timing: easeInOut, Origin: "center center", Keyframes: "to { opacity: 0; clip-path: inset(0 50% 0 50%); transform: scale(0.95); }"},
		In:  Animation{Name: "splitIn", Timing: easeInOut, Origin: "center center", Keyframes: "from { opacity: 0; clip-path: inset(0 50% 0 50%); transform: scale(1.05); } to { opacity: 1; clip-path: inset(0 0 0 0); transform: scale(1); }"},
	},
	"door": {
		Out: Animation{Name: "doorOut", Timing: easeInOut, Keyframes: "to { clip-path: polygon(50% 0, 50% 0, 50% 100%, 50% 100%); opacity: 0; }"},
		In:  Animation{Name: "doorIn", Timing: easeInOut, Keyframes: "from { clip-path: polygon(50% 0, 50% 0, 50% 100%, 50% 100%); opacity: 0; } to { clip-path: polygon(0 0, 100% 0, 100% 100%, 0 100%); opacity: 1; }"},
	},
	"pixelate": {
		Out: Animation{Name: "pixelateOut", Timing: ease, Keyframes: "to { opacity: 0; filter: blur(20px); transform: scale(0.6); }"},
		In:  Animation{Name: "pixelateIn", Timing: ease, Keyframes: "from { opacity: 0; filter: blur(15px); transform: scale(1.4); } to { opacity: 1; filter: blur(0); transform: scale(1); }"},
	},
	"glitch": {
		Out: Animation{Name: "glitchOut", Timing: easeInOut, Keyframes: "0% { transform: translate(0, 0); opacity: 1; } 25% { transform: translate(-8px, 2px); opacity: 0.9; } 50% { transform: translate(6px, -2px); opacity: 0.85; } 75% { transform: translate(-4px, 1px); opacity: 0.5; } 100% { transform: translate(15px, 0); opacity: 0; }"},
		In:  Animation{Name: "glitchIn", Timing: easeInOut, Keyframes: "from { opacity: 0; transform: translateX(-10px); } to { opacity: 1; transform: translateX(0); }"},
	},
	"slide-zoom": {
		Out: Animation{Name: "slideZoomOut", Timing: easeInOut, Origin: "left center", Keyframes: "to { opacity: 0; transform: translateX(-100%) scale(0.7); }"},
		In:  Animation{Name: "slideZoomIn", Timing: easeInOut, Origin: "right center", Keyframes: "from { opacity: 0; transform: translateX(100%) scale(0.7); } to { opacity: 1; transform: translateX(0) scale(1); }"},
	},
}

// Lookup returns the named effect, or fade for unknown names.
func Lookup(name string) Effect {
	key := strings.ToLower(strings.TrimSpace(name))
	effect, ok := effects[key]
	if !ok {
		key = Default
		effect = effects[Default]
	}
	effect.Name = key
	return effect
}

// Known reports whether name is in the effect table.
func Known(name string) bool {
	_, ok := effects[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Names lists every effect, sorted.
func Names() []string {
	names := make([]string, 0, len(effects))
	for name := range effects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stylesheet renders the CSS for every effect. Layers are selected with
// [data-effect] on the wrapper and the .transition-current/.transition-next
// classes; the wrapper sets --dur.
func Stylesheet() string {
	var b strings.Builder
	b.WriteString(".transition-wrap { position: fixed; inset: 0; overflow: hidden; contain: layout style paint; }\n")
	b.WriteString(".transition-current, .transition-next { position: absolute; inset: 0; will-change: transform, opacity; backface-visibility: hidden; }\n")
	b.WriteString(".transition-current { z-index: 10; }\n.transition-next { z-index: 20; }\n")
	b.WriteString(".transition-car { position: absolute; inset: 0; z-index: 30; pointer-events: none; display: flex; align-items: center; }\n")
	b.WriteString(".transition-car-inner { font-size: min(12vw, 120px); animation: carDrive var(--dur) ease-in-out forwards; }\n")
	b.WriteString("@keyframes carDrive { 0% { transform: translateX(-20%); } 100% { transform: translateX(120%); } }\n")

	written := make(map[string]bool)
	for _, name := range Names() {
		effect := effects[name]
		writeRule(&b, name, "transition-current", effect.Out)
		writeRule(&b, name, "transition-next", effect.In)
		for _, anim := range []Animation{effect.Out, effect.In} {
			if written[anim.Name] {
				continue
			}
			written[anim.Name] = true
			b.WriteString("@keyframes " + anim.Name + " { " + anim.Keyframes + " }\n")
		}
	}
	return b.String()
}

func writeRule(b *strings.Builder, effect, class string, anim Animation) {
	b.WriteString(`[data-effect="` + effect + `"] .` + class + " { animation: " + anim.Name + " var(--dur) " + anim.Timing + " forwards;")
	if anim.Origin != "" {
		b.WriteString(" transform-origin: " + anim.Origin + ";")
	}
	b.WriteString(" }\n")
}

// DurationVar formats d for the --dur custom property.
func DurationVar(d time.Duration) string {
	return strconv.FormatInt(d.Milliseconds(), 10) + "ms"
}
