package game

import (
	"errors"
	"testing"
)

func TestApplyInput(t *testing.T) {
	tests := []struct {
		name string
		side Side
		keys KeySet
		want Move
	}{
		{name: "left up", side: SideLeft, keys: NewKeySet(KeyW), want: MoveUp},
		{name: "left down", side: SideLeft, keys: NewKeySet(KeyS), want: MoveDown},
		{name: "left both cancel", side: SideLeft, keys: NewKeySet(KeyW, KeyS), want: MoveNone},
		{name: "left ignores arrows", side: SideLeft, keys: NewKeySet(KeyArrowUp, KeyArrowDown), want: MoveNone},
		{name: "right up", side: SideRight, keys: NewKeySet(KeyArrowUp), want: MoveUp},
		{name: "right down", side: SideRight, keys: NewKeySet(KeyArrowDown), want: MoveDown},
		{name: "right ignores w and s", side: SideRight, keys: NewKeySet(KeyW), want: MoveNone},
		{name: "upper case normalised", side: SideLeft, keys: NewKeySet("W"), want: MoveUp},
		{name: "nothing held", side: SideRight, keys: NewKeySet(), want: MoveNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ApplyInput(tt.keys, tt.side); got != tt.want {
				t.Errorf("ApplyInput() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestOppositeKeysNeverMoveOwnedPaddle(t *testing.T) {
	s := testState(SideRight)
	start := s.Owned.Y

	for i := 0; i < 30; i++ {
		s = Advance(s, ApplyInput(NewKeySet(KeyW, KeyS), SideRight))
	}
	if s.Owned.Y != start {
		t.Fatalf("right paddle moved on left-side keys: %v -> %v", start, s.Owned.Y)
	}
}

func TestPauseToggleFiresOnPressEdge(t *testing.T) {
	var p PauseToggle
	space := NewKeySet(KeySpace)
	none := NewKeySet()

	if !p.Update(space) || !p.Paused() {
		t.Fatalf("first press should pause")
	}
	for i := 0; i < 10; i++ {
		if p.Update(space) {
			t.Fatalf("holding space should not toggle again (frame %d)", i)
		}
	}
	if !p.Paused() {
		t.Fatalf("still paused while held")
	}
	if p.Update(none) {
		t.Fatalf("release should not toggle")
	}
	if !p.Update(space) || p.Paused() {
		t.Fatalf("second press should resume")
	}
}

func TestParseSide(t *testing.T) {
	if s, err := ParseSide("right"); err != nil || s != SideRight {
		t.Fatalf("ParseSide(right) = %q, %v", s, err)
	}
	if _, err := ParseSide("middle"); !errors.Is(err, ErrUnknownSide) {
		t.Fatalf("expected ErrUnknownSide, got %v", err)
	}
	if SideLeft.Opponent() != SideRight || SideRight.Opponent() != SideLeft {
		t.Fatalf("Opponent is not symmetric")
	}
}
