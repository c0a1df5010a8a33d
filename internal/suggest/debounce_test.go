package suggest

import (
	"testing"
	"time"
)

func TestDebouncerCancelAndReplace(t *testing.T) {
	sched := &fakeScheduler{}
	d := NewDebouncer(0, sched)
	if d.Interval() != DefaultQuietInterval {
		t.Fatalf("expected default interval, got %v", d.Interval())
	}

	var fired []string
	for _, v := range []string{"a", "ab", "abc"} {
		v := v
		d.Trigger(func() { fired = append(fired, v) })
		sched.Advance(200 * time.Millisecond)
	}
	if len(fired) != 0 {
		t.Fatalf("expected nothing fired while typing, got %v", fired)
	}
	if !d.Pending() {
		t.Fatal("expected a pending action")
	}
	if n := sched.active(); n != 1 {
		t.Errorf("expected one live timer, got %d", n)
	}

	sched.Advance(300 * time.Millisecond)
	if len(fired) != 1 || fired[0] != "abc" {
		t.Errorf("expected only the last action, got %v", fired)
	}
	if d.Pending() {
		t.Error("expected nothing pending after firing")
	}
}

func TestDebouncerCancel(t *testing.T) {
	sched := &fakeScheduler{}
	d := NewDebouncer(100*time.Millisecond, sched)

	called := false
	d.Trigger(func() { called = true })
	d.Cancel()
	sched.Advance(time.Second)
	if called {
		t.Error("expected cancelled action not to run")
	}
}

// lateStopScheduler reports that stop lost the race with the timer, as
// time.Timer.Stop does once the function has started.
type lateStopScheduler struct {
	fns []func()
}

func (s *lateStopScheduler) AfterFunc(_ time.Duration, f func()) func() bool {
	s.fns = append(s.fns, f)
	return func() bool { return false }
}

func TestDebouncerIgnoresStaleFiring(t *testing.T) {
	sched := &lateStopScheduler{}
	d := NewDebouncer(time.Millisecond, sched)

	var fired []int
	d.Trigger(func() { fired = append(fired, 1) })
	d.Trigger(func() { fired = append(fired, 2) })
	for _, f := range sched.fns {
		f()
	}
	if len(fired) != 1 || fired[0] != 2 {
		t.Errorf("expected only the replacement to run, got %v", fired)
	}
}

func TestRealSchedulerFires(t *testing.T) {
	d := NewDebouncer(5*time.Millisecond, nil)
	done := make(chan struct{})
	d.Trigger(func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected real timer to fire")
	}
}
