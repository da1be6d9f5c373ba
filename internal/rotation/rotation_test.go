package rotation

import (
	"testing"
	"time"

	"signage-player/internal/snapshot"
)

func slots(durations ...int) *snapshot.Snapshot {
	snap := &snapshot.Snapshot{Screen: &snapshot.Screen{ID: "s1"}}
	for i, d := range durations {
		snap.TemplateRotations = append(snap.TemplateRotations, snapshot.Rotation{
			TemplateID:      string(rune('a' + i)),
			DisplayOrder:    i,
			DisplayDuration: d,
		})
	}
	return snap
}

func TestPlanForSlotCounts(t *testing.T) {
	tests := []struct {
		name   string
		snap   *snapshot.Snapshot
		cursor int
		pin    int
		want   Plan
	}{
		{name: "no snapshot", snap: nil, pin: -1, want: Plan{Kind: Idle}},
		{name: "zero slots", snap: slots(), cursor: 3, pin: -1, want: Plan{Kind: Idle}},
		{name: "single slot renews", snap: slots(7), pin: -1, want: Plan{Kind: Renew, Delay: 7 * time.Second}},
		{name: "advance", snap: slots(5, 6, 7), cursor: 1, pin: -1, want: Plan{Kind: Advance, Index: 1, Target: 2, Delay: 6 * time.Second}},
		{name: "advance wraps", snap: slots(5, 6, 7), cursor: 2, pin: -1, want: Plan{Kind: Advance, Index: 2, Target: 0, Delay: 7 * time.Second}},
		{name: "cursor clamped", snap: slots(5, 6), cursor: 9, pin: -1, want: Plan{Kind: Advance, Index: 1, Target: 0, Delay: 6 * time.Second}},
		{name: "duration floor", snap: slots(0, -4), pin: -1, want: Plan{Kind: Advance, Index: 0, Target: 1, Delay: time.Second}},
		{name: "pinned", snap: slots(5, 6, 7), cursor: 1, pin: 1, want: Plan{Kind: Pinned, Index: 1, Target: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PlanFor(tt.snap, tt.cursor, tt.pin)
			if got != tt.want {
				t.Fatalf("PlanFor = %+v, want %+v", got, tt.want)
			}
			if tt.want.Kind == Idle && got.Armed() {
				t.Fatalf("idle plan must not arm a timer")
			}
		})
	}
}

func TestRoundRobinClosure(t *testing.T) {
	for n := 2; n <= 7; n++ {
		for start := 0; start < n; start++ {
			cursor := Cursor{Index: start}
			visited := make(map[int]bool)
			for i := 0; i < n; i++ {
				visited[cursor.Index] = true
				cursor.Commit(Next(cursor.Index, n))
			}
			if cursor.Index != start {
				t.Fatalf("n=%d start=%d: cursor ended at %d", n, start, cursor.Index)
			}
			if len(visited) != n {
				t.Fatalf("n=%d start=%d: visited %d slots", n, start, len(visited))
			}
		}
	}
}

func TestCursorFit(t *testing.T) {
	cursor := Cursor{Index: 4}
	if !cursor.Fit(3) || cursor.Index != 2 {
		t.Fatalf("expected clamp to 2, got %d", cursor.Index)
	}
	if cursor.Fit(3) {
		t.Fatalf("expected no move when already in range")
	}
	if cursor.Fit(0) || cursor.Index != 2 {
		t.Fatalf("empty list must leave the cursor alone")
	}
}

func TestTransitionResolvePrecedence(t *testing.T) {
	screen := &snapshot.Screen{TemplateTransitionEffect: "zoom"}
	tests := []struct {
		name         string
		settings     TransitionSettings
		screen       *snapshot.Screen
		slot         snapshot.Rotation
		wantEffect   string
		wantDuration time.Duration
	}{
		{name: "defaults", wantEffect: "fade", wantDuration: 1400 * time.Millisecond},
		{name: "screen effect", screen: screen, wantEffect: "zoom", wantDuration: 1400 * time.Millisecond},
		{name: "slot effect wins", screen: screen, slot: snapshot.Rotation{TransitionEffect: "car-pull"}, wantEffect: "car-pull", wantDuration: 1400 * time.Millisecond},
		{name: "slot duration", slot: snapshot.Rotation{TransitionDuration: 900}, settings: TransitionSettings{Duration: 2 * time.Second}, wantEffect: "fade", wantDuration: 900 * time.Millisecond},
		{name: "configured duration", settings: TransitionSettings{Duration: 2 * time.Second}, wantEffect: "fade", wantDuration: 2 * time.Second},
		{
			name:         "profile forces",
			settings:     TransitionSettings{ForceEffect: "slide-left", ForceDuration: 5 * time.Second},
			screen:       screen,
			slot:         snapshot.Rotation{TransitionEffect: "flip", TransitionDuration: 700},
			wantEffect:   "slide-left",
			wantDuration: 5 * time.Second,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			effect, duration := tt.settings.Resolve(tt.screen, tt.slot)
			if effect != tt.wantEffect || duration != tt.wantDuration {
				t.Fatalf("Resolve = (%s, %v), want (%s, %v)", effect, duration, tt.wantEffect, tt.wantDuration)
			}
		})
	}
}
