package notes

import "time"

// Host is the event loop the application runs on. AfterFunc and Post must
// invoke their callbacks on that loop's thread; Post is the only method that
// may be called from other goroutines.
type Host interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
	Post(fn func())
}

// Timer is a pending one-shot callback. Stop reports whether it prevented the
// callback from running; stopping twice or after firing is a no-op.
type Timer interface {
	Stop() bool
}

type slot struct {
	timer Timer
	seq   uint64
}

// Debouncer keeps at most one live timer per task name. Scheduling a task
// replaces whatever was pending under that name, so a burst of calls runs
// the action once, delay after the last call.
//
// A Debouncer is not safe for concurrent use; call it from the host thread.
type Debouncer struct {
	host  Host
	slots map[string]slot
	seq   uint64
}

func NewDebouncer(host Host) *Debouncer {
	return &Debouncer{host: host, slots: make(map[string]slot)}
}

// Schedule cancels the pending run of name, if any, and arms a new one.
func (d *Debouncer) Schedule(name string, delay time.Duration, action func()) {
	d.Cancel(name)

	d.seq++
	seq := d.seq
	t := d.host.AfterFunc(delay, func() {
		if cur, ok := d.slots[name]; ok && cur.seq == seq {
			delete(d.slots, name)
		}
		action()
	})
	d.slots[name] = slot{timer: t, seq: seq}
}

// Cancel stops the pending run of name. Safe when nothing is pending.
func (d *Debouncer) Cancel(name string) {
	s, ok := d.slots[name]
	if !ok {
		return
	}
	delete(d.slots, name)
	s.timer.Stop()
}

// Pending reports whether name has a run that has neither fired nor been
// cancelled.
func (d *Debouncer) Pending(name string) bool {
	_, ok := d.slots[name]
	return ok
}

// CancelAll stops every pending task.
func (d *Debouncer) CancelAll() {
	for name := range d.slots {
		d.Cancel(name)
	}
}
