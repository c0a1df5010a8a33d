// Package e2e runs the corpus client against a live corpus server.
//
// Prerequisites:
//   - a corpus website reachable at E2E_BASE_URL
//
// Run with:
//
//	E2E_BASE_URL=http://localhost:5000 go test -v -timeout=60s ./test/e2e/...
package e2e

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/corpus-browser/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/corpus-browser/internal/suggest"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-browser/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/corpus-browser/pkg/health"
)

func liveClient(t *testing.T) *corpus.Client {
	t.Helper()
	base := os.Getenv("E2E_BASE_URL")
	if base == "" {
		t.Skip("E2E_BASE_URL not set")
	}
	c, err := corpus.New(corpus.Options{BaseURL: base, Timeout: 10 * time.Second, UserAgent: "corpusctl-e2e"})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

// TestLiveHealth verifies every endpoint family answers.
func TestLiveHealth(t *testing.T) {
	c := liveClient(t)
	checker := health.NewChecker()
	c.RegisterHealthChecks(checker, 0)

	report := checker.Run(context.Background())
	for _, name := range report.Names() {
		comp := report.Components[name]
		if comp.Status == health.StatusDown {
			t.Errorf("%s down: %s", name, comp.Message)
		}
	}
}

// TestLiveSuggest checks the suggest endpoint returns a JSON string array.
func TestLiveSuggest(t *testing.T) {
	c := liveClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	params := suggest.DefaultParameters()
	if _, err := c.Suggest(ctx, "dom", params); err != nil {
		t.Fatalf("suggest: %v", err)
	}
	params.Field = suggest.FieldAutocompleteLemmas
	if _, err := c.Suggest(ctx, "dom", params); err != nil {
		t.Fatalf("lemma suggest: %v", err)
	}
}

// TestLiveMissingPassage checks an unknown passage maps to ErrNotFound.
func TestLiveMissingPassage(t *testing.T) {
	c := liveClient(t)
	_, err := c.Snippet(context.Background(), "urn:cts:formulae:does-not-exist", "1", "")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
