package notes

import "time"

// Rect is a window's outer position and size in screen pixels.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Snap pulls a window flush against a screen edge when it is within
// snapDistance pixels of it. Per axis the far edge is checked after the near
// one, so for a window about as large as the screen the far edge wins.
// A non-positive snapDistance disables snapping.
func Snap(x, y, width, height, screenWidth, screenHeight, snapDistance int) (int, int) {
	if snapDistance <= 0 {
		return x, y
	}
	return snapAxis(x, width, screenWidth, snapDistance), snapAxis(y, height, screenHeight, snapDistance)
}

func snapAxis(pos, size, screen, dist int) int {
	out := pos
	if absInt(pos) <= dist {
		out = 0
	}
	if absInt(pos+size-screen) <= dist {
		out = screen - size
	}
	return out
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// SnapThrottle admits at most one snap check per Interval; configure events
// arrive in storms while a window is dragged.
type SnapThrottle struct {
	Interval time.Duration

	last time.Time
}

// Allow reports whether a check may run at now and, if so, records it.
func (t *SnapThrottle) Allow(now time.Time) bool {
	if !t.last.IsZero() && now.Sub(t.last) < t.Interval {
		return false
	}
	t.last = now
	return true
}
