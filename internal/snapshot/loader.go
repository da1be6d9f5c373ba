// Package snapshot holds the screen data model and the loader that fetches
// it from the public-screen endpoint.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"signage-player/internal/fetch"
)

// ErrScreenNotFound marks a token the backend does not know. It is terminal
// for the token until a later poll finds the screen again.
var ErrScreenNotFound = errors.New("screen not found")

// NoIndex asks for a snapshot without a rotationIndex query parameter.
const NoIndex = -1

// Loader fetches ScreenSnapshots for a display token.
type Loader struct {
	client *fetch.Client
	now    func() time.Time
}

func NewLoader(client *fetch.Client) *Loader {
	return &Loader{client: client, now: time.Now}
}

// Path returns the endpoint path for a token.
func Path(token string) string {
	return "/public-screen/" + url.PathEscape(token)
}

// Load fetches the snapshot for token. index selects the rotation slot whose
// payload must be resolved; NoIndex omits the parameter entirely.
func (l *Loader) Load(ctx context.Context, token string, index int) (*Snapshot, error) {
	var query url.Values
	if index >= 0 {
		query = url.Values{"rotationIndex": {strconv.Itoa(index)}}
	}
	var snap Snapshot
	err := l.client.GetJSON(ctx, Path(token), query, &snap)
	if errors.Is(err, fetch.ErrNotFound) {
		return nil, ErrScreenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load screen %s: %w", token, err)
	}
	if !snap.Valid() {
		return nil, ErrScreenNotFound
	}
	normalize(&snap)
	snap.RotationIndex = index
	snap.FetchedAt = l.now()
	return &snap, nil
}

// IndexHint turns the rotation cursor into the index a refresh should ask
// for: the cursor clamped to the current list, or NoIndex without a list.
func IndexHint(cursor int, current *Snapshot) int {
	n := current.SlotCount()
	if n == 0 {
		return NoIndex
	}
	return Clamp(cursor, n)
}

// Clamp bounds index to [0, n-1]. It returns 0 for an empty list.
func Clamp(index, n int) int {
	if n <= 0 || index < 0 {
		return 0
	}
	if index >= n {
		return n - 1
	}
	return index
}

func normalize(s *Snapshot) {
	sort.SliceStable(s.TemplateRotations, func(i, j int) bool {
		return s.TemplateRotations[i].DisplayOrder < s.TemplateRotations[j].DisplayOrder
	})
	for i := range s.Menus {
		items := s.Menus[i].Items
		sort.SliceStable(items, func(a, b int) bool {
			return items[a].DisplayOrder < items[b].DisplayOrder
		})
	}
	if s.DigitalMenuData != nil {
		layers := s.DigitalMenuData.Layers
		sort.SliceStable(layers, func(a, b int) bool {
			return layers[a].DisplayOrder < layers[b].DisplayOrder
		})
	}
}
