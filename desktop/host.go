package desktop

import (
	"time"

	"mindpic/notes"

	"github.com/gotk3/gotk3/glib"
)

// Host runs timers and posted work on the GTK main loop.
type Host struct{}

func NewHost() Host { return Host{} }

func (Host) Now() time.Time { return time.Now() }

// AfterFunc schedules fn once on the main loop after d.
func (Host) AfterFunc(d time.Duration, fn func()) notes.Timer {
	t := &timer{}
	t.src = glib.TimeoutAdd(uint(d/time.Millisecond), func() bool {
		t.fired = true
		fn()
		return false // one-shot
	})
	return t
}

// Post is safe to call from any goroutine.
func (Host) Post(fn func()) {
	glib.IdleAdd(func() bool {
		fn()
		return false
	})
}

// timer is only touched from the main loop, so it needs no lock.
type timer struct {
	src     glib.SourceHandle
	fired   bool
	stopped bool
}

// Stop removes the pending source. GLib warns when asked to remove a source
// that already ran.
func (t *timer) Stop() bool {
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	glib.SourceRemove(t.src)
	return true
}
