package tracing

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestSpanTree(t *testing.T) {
	ctx, root := StartSpan(context.Background(), "suggest-cycle", "c1")
	_, fetch := StartChildSpan(ctx, "fetch")
	fetch.SetAttr("word", "foo")
	fetch.End()
	root.End()

	if len(root.Children) != 1 || root.Children[0].TraceID != "c1" {
		t.Fatalf("expected one child sharing trace id, got %+v", root.Children)
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	root.Log(logger)
	out := buf.String()
	if !strings.Contains(out, "span=suggest-cycle") || !strings.Contains(out, "span=fetch") {
		t.Errorf("expected both spans in log, got %q", out)
	}
	if !strings.Contains(out, "word=foo") {
		t.Errorf("expected attribute in log, got %q", out)
	}
}

func TestNilSpanIsNoop(t *testing.T) {
	ctx, child := StartChildSpan(context.Background(), "fetch")
	if child != nil {
		t.Fatal("expected nil child without a root span")
	}
	if SpanFromContext(ctx) != nil {
		t.Error("expected context without span")
	}
	child.SetAttr("k", "v")
	child.End()
	child.Log(nil)
}
