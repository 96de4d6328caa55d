package notes

import "time"

// AutosavePolicy decides on each periodic tick whether the buffer is worth
// writing: only when the last edit is younger than Freshness. Any edit is
// therefore flushed within Interval+Freshness.
type AutosavePolicy struct {
	Interval  time.Duration
	Freshness time.Duration

	lastEdit time.Time
}

// MarkEdit records that the buffer changed at now.
func (p *AutosavePolicy) MarkEdit(now time.Time) {
	p.lastEdit = now
}

// LastEdit returns the time of the most recent edit, zero if none.
func (p *AutosavePolicy) LastEdit() time.Time {
	return p.lastEdit
}

// Due reports whether a tick at now should save.
func (p *AutosavePolicy) Due(now time.Time) bool {
	if p.lastEdit.IsZero() {
		return false
	}
	return now.Sub(p.lastEdit) < p.Freshness
}
