package render

import (
	"time"

	"signage-player/internal/snapshot"
)

const minSlide = time.Second

// CarouselState is the legacy menu/item cursor. It is reset on every
// successful load; the rotation cursor is not.
type CarouselState struct {
	Menu int
	Item int
}

func (c *CarouselState) Reset() {
	c.Menu, c.Item = 0, 0
}

// Current returns the menu and item on screen. item is nil for a menu with no
// items; ok is false when there are no menus at all.
func (c CarouselState) Current(menus []snapshot.Menu) (menu *snapshot.Menu, item *snapshot.MenuItem, ok bool) {
	if len(menus) == 0 {
		return nil, nil, false
	}
	mi := c.Menu
	if mi < 0 || mi >= len(menus) {
		mi = 0
	}
	menu = &menus[mi]
	if c.Item >= 0 && c.Item < len(menu.Items) {
		item = &menu.Items[c.Item]
	}
	return menu, item, true
}

// Advance moves to the next item, wrapping to the first item of the next
// menu after the last one. A menu without items is skipped on its next
// advance.
func (c *CarouselState) Advance(menus []snapshot.Menu) {
	if len(menus) == 0 {
		c.Reset()
		return
	}
	if c.Menu < 0 || c.Menu >= len(menus) {
		c.Reset()
		return
	}
	c.Item++
	if c.Item >= len(menus[c.Menu].Items) {
		c.Menu = (c.Menu + 1) % len(menus)
		c.Item = 0
	}
}

// Delay is how long the current item stays up: the menu's slide_duration,
// floored at one second.
func (c CarouselState) Delay(menus []snapshot.Menu) time.Duration {
	menu, _, ok := c.Current(menus)
	if !ok {
		return 0
	}
	d := time.Duration(menu.SlideDuration) * time.Second
	if d < minSlide {
		return minSlide
	}
	return d
}
