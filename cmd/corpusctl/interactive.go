package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/corpus-browser/internal/form"
	"github.com/Adithya-Monish-Kumar-K/corpus-browser/internal/suggest"
	"github.com/Adithya-Monish-Kumar-K/corpus-browser/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/corpus-browser/pkg/metrics"
)

// terminalView prints what the browser would show in the search box.
type terminalView struct {
	mu  sync.Mutex
	out io.Writer
}

func (v *terminalView) SetPlaceholder(text string) {
	v.printf("[%s]\n", text)
}

func (v *terminalView) RenderSuggestions(l suggest.List) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, "%d suggestions\n", l.Len())
	for _, e := range l.Entries() {
		fmt.Fprintf(v.out, "  %s\n", e)
	}
}

func (v *terminalView) printf(format string, args ...any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, format, args...)
}

// runType reads one field value per line. Lines starting with ':' are
// commands that flip form controls instead of typing.
func (a *app) runType(ctx context.Context) error {
	view := &terminalView{out: a.stdout}
	var controls suggest.ControlSource
	defaultText := a.cfg.Suggest.DefaultText
	if a.form != nil {
		controls = a.form
		// the page's own default attribute wins over the configured fallback
		if d := a.form.PlaceholderDefault(); d != "" {
			defaultText = d
		}
	}
	ctrl := suggest.NewController(a.client, controls, view, suggest.Options{
		Name:        form.SearchBoxID,
		Interval:    a.cfg.Suggest.Debounce,
		LoadingText: a.cfg.Suggest.LoadingText,
		ErrorText:   a.cfg.Suggest.ErrorText,
		DefaultText: defaultText,
		Stale:       suggest.StalePolicy(a.cfg.Suggest.StaleRequests),
		Metrics:     a.metrics,
		Tracing:     a.cfg.Tracing.Enabled,
	})

	if a.metrics != nil {
		checker := health.NewChecker()
		a.client.RegisterHealthChecks(checker, 2*time.Second)
		shutdown := metrics.StartServer(a.cfg.Metrics.Port, checker.ReadyHandler())
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}()
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	runErr := make(chan error, 1)
	go func() { runErr <- ctrl.Run(runCtx) }()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(a.stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-runCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			<-runErr
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				waitIdle(ctx, ctrl)
				cancel()
				<-runErr
				return nil
			}
			if strings.HasPrefix(line, ":") {
				if err := a.command(line, view, ctrl); err != nil {
					view.printf("! %v\n", err)
				}
				continue
			}
			ctrl.KeyUp(line)
			if matches := ctrl.Suggestions().Filter(line); len(matches) > 0 && line != "" {
				view.printf("~ %s\n", strings.Join(matches, ", "))
			}
		}
	}
}

// waitIdle blocks until the controller has been idle for two consecutive
// polls, so the last keystroke's request can finish before exit.
func waitIdle(ctx context.Context, ctrl *suggest.Controller) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	idle := 0
	for idle < 2 {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctrl.Busy() {
				idle = 0
			} else {
				idle++
			}
		}
	}
}

var errNoForm = errors.New("no form loaded; pass -form")

func (a *app) command(line string, view *terminalView, ctrl *suggest.Controller) error {
	fields := strings.Fields(strings.TrimPrefix(line, ":"))
	if len(fields) == 0 {
		return fmt.Errorf("empty command")
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "params":
		view.printf("%s\n", suggest.Build(a.controls()))
		return nil
	case "list":
		for _, e := range ctrl.Suggestions().Entries() {
			view.printf("  %s\n", e)
		}
		return nil
	}

	if a.form == nil {
		return errNoForm
	}
	switch {
	case cmd == "check" && len(args) == 1:
		return a.form.SetChecked(args[0], true)
	case cmd == "uncheck" && len(args) == 1:
		return a.form.SetChecked(args[0], false)
	case cmd == "toggle" && len(args) == 1:
		on, err := a.form.Toggle(args[0])
		if err == nil {
			view.printf("%s: %v\n", args[0], on)
		}
		return err
	case cmd == "all" && len(args) == 2:
		n, err := a.form.CheckCategory(args[0], args[1])
		if err == nil {
			view.printf("%d updated\n", n)
		}
		return err
	case cmd == "set" && len(args) == 2:
		return a.form.SetValue(args[0], args[1])
	case cmd == "show" && len(args) == 1:
		view.printf("%d shown\n", a.form.ShowClass(args[0]))
		return nil
	case cmd == "hide" && len(args) == 1:
		view.printf("%d hidden\n", a.form.HideClass(args[0]))
		return nil
	default:
		return fmt.Errorf("unknown command %q", line)
	}
}
