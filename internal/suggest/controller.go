package suggest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/corpus-browser/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/corpus-browser/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/corpus-browser/pkg/tracing"
)

// StalePolicy decides what happens to a request that is still in flight
// when a newer one is dispatched for the same field.
type StalePolicy string

const (
	// StaleCancel aborts the older request and drops its completion.
	StaleCancel StalePolicy = "cancel"
	// StalePreserve lets every request complete and renders them in
	// arrival order, which may differ from keystroke order.
	StalePreserve StalePolicy = "preserve"
)

// Suggester fetches completion candidates for a partial word.
type Suggester interface {
	Suggest(ctx context.Context, word string, params Parameters) ([]string, error)
}

// View is the render boundary of one search field.
type View interface {
	SetPlaceholder(text string)
	RenderSuggestions(list List)
}

// Options configures a Controller. Zero values fall back to the defaults of
// the advanced search page.
type Options struct {
	Name        string
	Interval    time.Duration
	Scheduler   Scheduler
	LoadingText string
	ErrorText   string
	DefaultText string
	Stale       StalePolicy
	Metrics     *metrics.Metrics
	Tracing     bool
}

func (o *Options) setDefaults() {
	if o.Name == "" {
		o.Name = "word-search-box"
	}
	if o.LoadingText == "" {
		o.LoadingText = "Loading options..."
	}
	if o.ErrorText == "" {
		o.ErrorText = "Couldn't load suggestions."
	}
	if o.Stale == "" {
		o.Stale = StaleCancel
	}
}

// Controller owns the typeahead state of one input field: the field value,
// the pending debounce action, the in-flight request token and the current
// suggestion list. All of it is touched only from the Run goroutine, which
// serialises keystrokes, timer firings and request completions.
type Controller struct {
	suggester Suggester
	controls  ControlSource
	view      View
	opts      Options
	debounce  *Debouncer
	logger    *slog.Logger

	events chan func()
	done   chan struct{}

	// loop-owned state
	runCtx   context.Context
	value    string
	list     List
	gen      uint64
	cancelFn context.CancelFunc
	cycles   uint64
	inflight int
	// set by KeyUp, cleared when the fire event runs; covers the gap between
	// the timer firing and its event reaching the loop
	scheduled bool
}

// NewController wires a field to its suggester, form snapshot and view.
func NewController(s Suggester, controls ControlSource, view View, opts Options) *Controller {
	opts.setDefaults()
	if controls == nil {
		controls = ControlsFunc(func() Controls { return Controls{} })
	}
	return &Controller{
		suggester: s,
		controls:  controls,
		view:      view,
		opts:      opts,
		debounce:  NewDebouncer(opts.Interval, opts.Scheduler),
		logger:    slog.Default().With("component", "suggest-controller", "field", opts.Name),
		events:    make(chan func(), 64),
		done:      make(chan struct{}),
	}
}

// Run processes events until ctx is done. Pending debounce actions and
// in-flight requests are cancelled on return.
func (c *Controller) Run(ctx context.Context) error {
	c.runCtx = ctx
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			c.debounce.Cancel()
			if c.cancelFn != nil {
				c.cancelFn()
			}
			c.logger.Debug("controller stopped", "cycles", c.cycles)
			return ctx.Err()
		case ev := <-c.events:
			ev()
		}
	}
}

// KeyUp records value as the field's content and restarts the quiet
// interval. It must be called while Run is active.
func (c *Controller) KeyUp(value string) {
	c.post(func() {
		c.value = value
		c.scheduled = true
		c.debounce.Trigger(func() { c.post(c.fire) })
	})
}

// Busy reports whether a debounce action is pending or a request is still
// outstanding. It returns false once Run has stopped.
func (c *Controller) Busy() bool {
	res := make(chan bool, 1)
	if !c.post(func() { res <- c.busy() }) {
		return false
	}
	select {
	case busy := <-res:
		return busy
	case <-c.done:
		return false
	}
}

func (c *Controller) busy() bool {
	return c.scheduled || c.inflight > 0
}

// Suggestions returns the list currently rendered.
func (c *Controller) Suggestions() List {
	res := make(chan List, 1)
	if !c.post(func() { res <- c.list }) {
		return List{}
	}
	select {
	case l := <-res:
		return l
	case <-c.done:
		return List{}
	}
}

func (c *Controller) post(fn func()) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.events <- fn:
		return true
	case <-c.done:
		return false
	}
}

func (c *Controller) fire() {
	c.scheduled = false
	if c.opts.Metrics != nil {
		c.opts.Metrics.DebounceFiresTotal.Inc()
	}
	word := c.value
	if word == "" {
		return
	}
	params := FromControls(c.controls.Controls())

	if c.opts.Stale == StaleCancel && c.cancelFn != nil {
		c.cancelFn()
	}
	c.gen++
	gen := c.gen
	c.cycles++
	cycleID := fmt.Sprintf("%s-%d", c.opts.Name, c.cycles)

	ctx, cancel := context.WithCancel(c.runCtx)
	c.cancelFn = cancel
	ctx = logger.WithCycleID(ctx, cycleID)
	var span *tracing.Span
	if c.opts.Tracing {
		ctx, span = tracing.StartSpan(ctx, "suggest-cycle", cycleID)
		span.SetAttr("word", word)
	}

	if c.opts.Metrics != nil {
		c.opts.Metrics.SuggestDispatchesTotal.Inc()
	}
	logger.FromContext(ctx).Debug("dispatching suggestion request", "word", word, "query", params.Encode())
	c.view.SetPlaceholder(c.opts.LoadingText)
	c.inflight++

	go func() {
		fetchCtx, fetchSpan := tracing.StartChildSpan(ctx, "fetch")
		words, err := c.suggester.Suggest(fetchCtx, word, params)
		fetchSpan.End()
		c.post(func() { c.complete(ctx, gen, cancel, span, words, err) })
	}()
}

func (c *Controller) complete(ctx context.Context, gen uint64, cancel context.CancelFunc, span *tracing.Span, words []string, err error) {
	log := logger.FromContext(ctx)
	cancel()
	c.inflight--
	if gen == c.gen {
		c.cancelFn = nil
	}
	defer func() {
		span.End()
		span.Log(log)
	}()

	if c.opts.Stale == StaleCancel && gen != c.gen {
		if c.opts.Metrics != nil {
			c.opts.Metrics.StaleResponsesTotal.Inc()
		}
		span.SetAttr("stale", true)
		log.Debug("dropping superseded suggestion response")
		return
	}

	if err != nil {
		if errors.Is(err, context.Canceled) && c.runCtx.Err() != nil {
			return
		}
		log.Warn("suggestion request failed", "error", err)
		span.SetAttr("error", err.Error())
		c.view.SetPlaceholder(c.opts.ErrorText)
		return
	}

	_, renderSpan := tracing.StartChildSpan(ctx, "render")
	c.list = NewList(words)
	if c.opts.Metrics != nil {
		c.opts.Metrics.SuggestionsReturned.Observe(float64(c.list.Len()))
	}
	c.view.RenderSuggestions(c.list)
	c.view.SetPlaceholder(c.opts.DefaultText)
	renderSpan.End()
	log.Debug("suggestions rendered", "count", c.list.Len())
}
