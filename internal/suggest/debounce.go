package suggest

import (
	"sync"
	"time"
)

// DefaultQuietInterval is how long typing must pause before a lookup fires.
const DefaultQuietInterval = 500 * time.Millisecond

// Scheduler runs f once after d. The returned stop func cancels the call if
// it has not started and reports whether it did so.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// RealScheduler is backed by time.AfterFunc.
var RealScheduler Scheduler = realScheduler{}

// Debouncer delays an action until triggers stop arriving for a quiet
// interval. Each Trigger cancels the pending action and schedules a new
// one; at most one action is ever pending.
type Debouncer struct {
	interval time.Duration
	sched    Scheduler

	mu      sync.Mutex
	pending func() bool
	seq     uint64
}

// NewDebouncer returns a Debouncer. A non-positive interval means
// DefaultQuietInterval, a nil scheduler means RealScheduler.
func NewDebouncer(interval time.Duration, sched Scheduler) *Debouncer {
	if interval <= 0 {
		interval = DefaultQuietInterval
	}
	if sched == nil {
		sched = RealScheduler
	}
	return &Debouncer{interval: interval, sched: sched}
}

// Trigger replaces any pending action with fn.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		d.pending()
	}
	d.seq++
	seq := d.seq
	d.pending = d.sched.AfterFunc(d.interval, func() {
		d.mu.Lock()
		// a stop that lost the race with the timer leaves a stale firing
		if seq != d.seq {
			d.mu.Unlock()
			return
		}
		d.pending = nil
		d.mu.Unlock()
		fn()
	})
}

// Cancel drops the pending action, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		d.pending()
		d.pending = nil
	}
	d.seq++
}

// Pending reports whether an action is scheduled and not yet fired.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

func (d *Debouncer) Interval() time.Duration { return d.interval }
