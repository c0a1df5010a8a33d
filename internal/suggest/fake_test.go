package suggest

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"
)

// fakeScheduler is a virtual clock. Timers fire only from Advance.
type fakeScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{at: s.now + d, f: f}
	s.timers = append(s.timers, t)
	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		if t.fired || t.stopped {
			return false
		}
		t.stopped = true
		return true
	}
}

func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var due []*fakeTimer
	for _, t := range s.timers {
		if !t.fired && !t.stopped && t.at <= s.now {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()
	sort.Slice(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		t.f()
	}
}

func (s *fakeScheduler) active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.fired && !t.stopped {
			n++
		}
	}
	return n
}

// recordingView captures render-boundary calls.
type recordingView struct {
	mu           sync.Mutex
	placeholders []string
	lists        []List
	events       chan string
}

func newRecordingView() *recordingView {
	return &recordingView{events: make(chan string, 64)}
}

func (v *recordingView) SetPlaceholder(text string) {
	v.mu.Lock()
	v.placeholders = append(v.placeholders, text)
	v.mu.Unlock()
	v.events <- "placeholder:" + text
}

func (v *recordingView) RenderSuggestions(l List) {
	v.mu.Lock()
	v.lists = append(v.lists, l)
	v.mu.Unlock()
	v.events <- "render"
}

func (v *recordingView) lastList() (List, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.lists) == 0 {
		return List{}, false
	}
	return v.lists[len(v.lists)-1], true
}

func (v *recordingView) lastPlaceholder() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.placeholders) == 0 {
		return ""
	}
	return v.placeholders[len(v.placeholders)-1]
}

func (v *recordingView) waitFor(t *testing.T, want string) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-v.events:
			if ev == want {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for view event %q", want)
		}
	}
}

// suggestCall is one outstanding request held by heldSuggester.
type suggestCall struct {
	ctx    context.Context
	word   string
	params Parameters
	reply  chan suggestReply
}

type suggestReply struct {
	words []string
	err   error
}

// heldSuggester hands every call to the test, which answers it explicitly.
type heldSuggester struct {
	calls chan *suggestCall
}

func newHeldSuggester() *heldSuggester {
	return &heldSuggester{calls: make(chan *suggestCall, 16)}
}

func (s *heldSuggester) Suggest(ctx context.Context, word string, params Parameters) ([]string, error) {
	call := &suggestCall{ctx: ctx, word: word, params: params, reply: make(chan suggestReply, 1)}
	s.calls <- call
	r := <-call.reply
	return r.words, r.err
}

func (s *heldSuggester) next(t *testing.T) *suggestCall {
	t.Helper()
	select {
	case c := <-s.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a suggest call")
		return nil
	}
}

func (s *heldSuggester) expectNone(t *testing.T) {
	t.Helper()
	select {
	case c := <-s.calls:
		t.Fatalf("expected no request, got one for %q", c.word)
	case <-time.After(20 * time.Millisecond):
	}
}
