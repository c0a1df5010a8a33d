package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/corpus-browser/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/corpus-browser/internal/form"
	"github.com/Adithya-Monish-Kumar-K/corpus-browser/internal/suggest"
	"github.com/Adithya-Monish-Kumar-K/corpus-browser/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-browser/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/corpus-browser/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/corpus-browser/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/corpus-browser/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/corpus-browser/pkg/resilience"
)

const usage = `usage: corpusctl <command> [flags] [args]

commands:
  type                          interactive typeahead on stdin
  suggest <word>                fetch suggestions once
  params                        print the query string built from -form
  snippet <urn> <target> [words]
  related <urns>
  lexicon <lemma>
  subelements <url>
  health                        probe every endpoint family
`

const (
	exitOK          = 0
	exitFailure     = 1
	exitUsage       = 2
	exitNotFound    = 3
	exitUnavailable = 4
)

var errUsage = errors.New("usage")

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(exitUsage)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1], os.Args[2:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// app holds everything a subcommand needs.
type app struct {
	cfg     *config.Config
	client  *corpus.Client
	form    *form.Form
	metrics *metrics.Metrics
	raw     bool
	stdin   io.Reader
	stdout  io.Writer
}

func run(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to config file")
	formPath := fs.String("form", "", "advanced search page supplying the control state")
	raw := fs.Bool("raw", false, "print fragments as HTML instead of text")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return exitFailure
	}
	logger.SetupWriter(stderr, cfg.Logging.Level, cfg.Logging.Format)

	a, err := newApp(cfg, *formPath, name == "type")
	if err != nil {
		slog.Error("failed to initialise", "error", err)
		return exitFailure
	}
	a.raw = *raw
	a.stdin = stdin
	a.stdout = stdout

	err = a.dispatch(ctx, name, fs.Args())
	if errors.Is(err, errUsage) {
		fmt.Fprint(stderr, usage)
		return exitUsage
	}
	if err != nil {
		slog.Error("command failed", "command", name, "error", err)
		return exitCode(err)
	}
	return exitOK
}

func newApp(cfg *config.Config, formPath string, withMetrics bool) (*app, error) {
	a := &app{cfg: cfg}
	if cfg.Metrics.Enabled && withMetrics {
		a.metrics = metrics.New(prometheus.DefaultRegisterer)
	}
	client, err := corpus.New(corpus.Options{
		BaseURL:   cfg.Server.BaseURL,
		Timeout:   cfg.Server.RequestTimeout,
		UserAgent: cfg.Server.UserAgent,
		Breaker: resilience.CircuitBreakerConfig{
			FailureThreshold: cfg.Breaker.FailureThreshold,
			ResetTimeout:     cfg.Breaker.ResetTimeout,
		},
		Metrics: a.metrics,
	})
	if err != nil {
		return nil, err
	}
	a.client = client

	if formPath != "" {
		f, err := os.Open(formPath)
		if err != nil {
			return nil, fmt.Errorf("opening form page: %w", err)
		}
		defer f.Close()
		a.form, err = form.Parse(f)
		if err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *app) controls() suggest.Controls {
	if a.form == nil {
		return suggest.Controls{}
	}
	return a.form.Controls()
}

func (a *app) dispatch(ctx context.Context, name string, args []string) error {
	switch name {
	case "type":
		return a.runType(ctx)
	case "suggest":
		if len(args) != 1 {
			return errUsage
		}
		return a.runSuggest(ctx, args[0])
	case "params":
		fmt.Fprintln(a.stdout, suggest.Build(a.controls()))
		return nil
	case "snippet":
		if len(args) < 2 || len(args) > 3 {
			return errUsage
		}
		words := ""
		if len(args) == 3 {
			words = args[2]
		}
		return a.printFragment(a.client.Snippet(ctx, args[0], args[1], words))
	case "related":
		if len(args) != 1 {
			return errUsage
		}
		return a.printFragment(a.client.Related(ctx, args[0]))
	case "lexicon":
		if len(args) != 1 {
			return errUsage
		}
		return a.printFragment(a.client.Lexicon(ctx, args[0]))
	case "subelements":
		if len(args) != 1 {
			return errUsage
		}
		return a.printFragment(a.client.SubElements(ctx, args[0]))
	case "health":
		return a.runHealth(ctx)
	default:
		return errUsage
	}
}

func (a *app) runSuggest(ctx context.Context, word string) error {
	params := suggest.FromControls(a.controls())
	fmt.Fprintf(a.stdout, "query: %s\n", params.Encode())
	words, err := a.client.Suggest(ctx, word, params)
	if err != nil {
		return err
	}
	for _, w := range words {
		fmt.Fprintln(a.stdout, w)
	}
	return nil
}

func (a *app) printFragment(f corpus.Fragment, err error) error {
	if err != nil {
		return err
	}
	if a.raw {
		fmt.Fprintln(a.stdout, f.HTML)
		return nil
	}
	fmt.Fprintln(a.stdout, f.Text())
	return nil
}

func (a *app) runHealth(ctx context.Context) error {
	checker := health.NewChecker()
	a.client.RegisterHealthChecks(checker, 2*time.Second)
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Server.RequestTimeout+time.Second)
	defer cancel()

	report := checker.Run(ctx)
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	if report.Status == health.StatusDown {
		return apperrors.New(apperrors.ErrUnavailable, http.StatusServiceUnavailable, "corpus server unreachable")
	}
	return nil
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	if errors.Is(err, context.Canceled) {
		return exitFailure
	}
	switch code := apperrors.StatusCode(err); {
	case code == http.StatusNotFound:
		return exitNotFound
	case code == http.StatusBadRequest:
		return exitUsage
	case code >= http.StatusInternalServerError:
		return exitUnavailable
	default:
		return exitFailure
	}
}
