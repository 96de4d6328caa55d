package notes

import (
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"
)

var epoch = time.Date(2025, 1, 2, 8, 30, 0, 0, time.UTC)

// fakeHost is a manually advanced event loop.
type fakeHost struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*fakeTimer
	posted []func()
}

type fakeTimer struct {
	host    *fakeHost
	at      time.Time
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

func newFakeHost() *fakeHost { return &fakeHost{now: epoch} }

func (h *fakeHost) Now() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.now
}

func (h *fakeHost) AfterFunc(d time.Duration, fn func()) Timer {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	t := &fakeTimer{host: h, at: h.now.Add(d), seq: h.seq, fn: fn}
	h.timers = append(h.timers, t)
	return t
}

func (h *fakeHost) Post(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.posted = append(h.posted, fn)
}

func (t *fakeTimer) Stop() bool {
	t.host.mu.Lock()
	defer t.host.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock forward by d, firing due timers in order. Timers
// armed by a firing callback fire too if they fall due before the target.
func (h *fakeHost) Advance(d time.Duration) {
	h.mu.Lock()
	target := h.now.Add(d)
	h.mu.Unlock()

	for {
		h.mu.Lock()
		var due []*fakeTimer
		for _, t := range h.timers {
			if !t.stopped && !t.fired && !t.at.After(target) {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			h.now = target
			h.mu.Unlock()
			return
		}
		sort.Slice(due, func(i, j int) bool {
			if due[i].at.Equal(due[j].at) {
				return due[i].seq < due[j].seq
			}
			return due[i].at.Before(due[j].at)
		})
		next := due[0]
		next.fired = true
		h.now = next.at
		h.mu.Unlock()

		next.fn()
	}
}

// Drain runs everything queued with Post.
func (h *fakeHost) Drain() {
	h.mu.Lock()
	fns := h.posted
	h.posted = nil
	h.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (h *fakeHost) pendingTimers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, t := range h.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// fakeSurface records what the App asked the window to do.
type fakeSurface struct {
	text        string
	atLineStart bool
	paints      [][]Span
	fg, bg      string
	palette     []string
	fontFamily  string
	fontSize    int
	minW, minH  int
	alpha       float64
	keepAbove   bool
	borderless  bool
	shown       int
	hidden      int
	iconified   bool
	bounds      Rect
	screenW     int
	screenH     int
	moves       [][2]int
	resizes     [][2]int
	closed      int
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{
		atLineStart: true,
		bounds:      Rect{X: 100, Y: 100, Width: 520, Height: 320},
		screenW:     1920,
		screenH:     1080,
	}
}

func (s *fakeSurface) Text() string            { return s.text }
func (s *fakeSurface) SetText(text string)     { s.text = text }
func (s *fakeSurface) CursorAtLineStart() bool { return s.atLineStart }
func (s *fakeSurface) InsertAtCursor(text string) {
	s.text += text
}
func (s *fakeSurface) PaintBlocks(spans []Span) { s.paints = append(s.paints, spans) }
func (s *fakeSurface) ApplyColors(fg, bg string, palette []string) {
	s.fg, s.bg, s.palette = fg, bg, append([]string(nil), palette...)
}
func (s *fakeSurface) ApplyFont(family string, size int) { s.fontFamily, s.fontSize = family, size }
func (s *fakeSurface) SetMinSize(w, h int)               { s.minW, s.minH = w, h }
func (s *fakeSurface) SetAlpha(a float64) error          { s.alpha = a; return nil }
func (s *fakeSurface) SetKeepAbove(on bool) error        { s.keepAbove = on; return nil }
func (s *fakeSurface) SetBorderless(on bool) error       { s.borderless = on; return nil }
func (s *fakeSurface) Show()                             { s.shown++ }
func (s *fakeSurface) Hide()                             { s.hidden++ }
func (s *fakeSurface) Iconified() bool                   { return s.iconified }
func (s *fakeSurface) Bounds() (Rect, error)             { return s.bounds, nil }
func (s *fakeSurface) ScreenSize() (int, int)            { return s.screenW, s.screenH }
func (s *fakeSurface) Resize(w, h int) {
	s.resizes = append(s.resizes, [2]int{w, h})
	s.bounds.Width, s.bounds.Height = w, h
}
func (s *fakeSurface) Move(x, y int) error {
	s.moves = append(s.moves, [2]int{x, y})
	s.bounds.X, s.bounds.Y = x, y
	return nil
}
func (s *fakeSurface) Close() { s.closed++ }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testSettings uses the production delays.
func testSettings() Settings {
	s := DefaultSettings()
	s.EnableTray = false
	s.EnableGlobalHotkeys = false
	return s
}
