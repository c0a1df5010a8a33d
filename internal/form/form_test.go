package form

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/corpus-browser/internal/suggest"
)

const advancedSearchPage = `<!DOCTYPE html>
<html><body>
<form id="advanced-search">
  <input type="text" id="word-search-box" list="word-search-datalist" placeholder="Suche" default="Suche">
  <datalist id="word-search-datalist"></datalist>
  <input type="checkbox" id="lemma_search" name="lemma_search">
  <input type="checkbox" id="all_nt" class="master">
  <input type="checkbox" class="under-all nt" name="corpus" value="A" checked>
  <input type="checkbox" class="under-all nt" name="corpus" value="B">
  <input type="checkbox" class="under-all jewish" name="corpus" value="C" checked>
  <input type="checkbox" id="in_order" name="in_order" value="True" checked>
  <select id="fuzziness" name="fuzziness">
    <option value="0">0</option>
    <option value="1" selected>1</option>
    <option value="2">2</option>
    <option value="AUTO">AUTO</option>
  </select>
  <input type="range" id="slop" name="slop" value="2">
  <div class="note-1 collapse">first</div>
  <div class="note-1 collapse">second</div>
  <span id="popup-3" class="popuptext">note</span>
</form>
</body></html>`

func parsePage(t *testing.T) *Form {
	t.Helper()
	f, err := Parse(strings.NewReader(advancedSearchPage))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return f
}

func TestControlsBuildExpectedQuery(t *testing.T) {
	f := parsePage(t)
	got := suggest.Build(f.Controls())
	want := "?corpus=A+C&field=autocomplete&fuzziness=1&in_order=True&slop=2"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestControlsLemmaToggle(t *testing.T) {
	f := parsePage(t)
	if err := f.SetChecked(LemmaSearchID, true); err != nil {
		t.Fatal(err)
	}
	p := suggest.FromControls(f.Controls())
	if p.Field != suggest.FieldAutocompleteLemmas {
		t.Errorf("expected lemma field, got %q", p.Field)
	}
}

func TestControlsAbsentElements(t *testing.T) {
	f, err := Parse(strings.NewReader(`<p>no form here</p>`))
	if err != nil {
		t.Fatal(err)
	}
	c := f.Controls()
	if !reflect.DeepEqual(c, suggest.Controls{}) {
		t.Errorf("expected empty controls, got %+v", c)
	}
	if got := suggest.Build(c); got != "?corpus=&field=autocomplete&fuzziness=0&in_order=False&slop=0" {
		t.Errorf("unexpected default query %q", got)
	}
	if f.PlaceholderDefault() != "" {
		t.Errorf("expected no placeholder default, got %q", f.PlaceholderDefault())
	}
}

func TestCheckCategoryCascades(t *testing.T) {
	f := parsePage(t)

	if err := f.SetChecked("all_nt", true); err != nil {
		t.Fatal(err)
	}
	n, err := f.CheckCategory("all_nt", "nt")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 checkboxes updated, got %d", n)
	}
	if got := suggest.FromControls(f.Controls()).Corpus; !reflect.DeepEqual(got, []string{"A", "B", "C"}) {
		t.Errorf("expected all corpora checked, got %v", got)
	}

	if _, err := f.Toggle("all_nt"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.CheckCategory("all_nt", "nt"); err != nil {
		t.Fatal(err)
	}
	if got := suggest.FromControls(f.Controls()).Corpus; !reflect.DeepEqual(got, []string{"C"}) {
		t.Errorf("expected only C left, got %v", got)
	}

	if _, err := f.CheckCategory("missing", "nt"); !errors.Is(err, ErrNoElement) {
		t.Errorf("expected ErrNoElement, got %v", err)
	}
}

func TestSetValue(t *testing.T) {
	f := parsePage(t)
	if err := f.SetValue(FuzzinessID, "AUTO"); err != nil {
		t.Fatal(err)
	}
	if err := f.SetValue(SlopID, "5"); err != nil {
		t.Fatal(err)
	}
	p := suggest.FromControls(f.Controls())
	if p.Fuzziness != "AUTO" || p.Slop != 5 {
		t.Errorf("expected AUTO/5, got %q/%d", p.Fuzziness, p.Slop)
	}
	if err := f.SetValue(FuzzinessID, "9"); err == nil {
		t.Error("expected error for unknown option")
	}
}

func TestShowHideClass(t *testing.T) {
	f := parsePage(t)

	if n := f.ShowClass("note-1"); n != 2 {
		t.Fatalf("expected 2 shown, got %d", n)
	}
	for _, e := range f.ElementsByClass("note-1") {
		if !e.HasClass("show") || e.Attrs["aria-expanded"] != "true" {
			t.Errorf("expected shown element, got %+v", e)
		}
	}
	if n := f.HideClass("note-1"); n != 2 {
		t.Fatalf("expected 2 hidden, got %d", n)
	}
	for _, e := range f.ElementsByClass("note-1") {
		if e.HasClass("show") || e.Attrs["aria-expanded"] != "false" {
			t.Errorf("expected hidden element, got %+v", e)
		}
	}
	if n := f.HideClass("note-1"); n != 0 {
		t.Errorf("expected nothing left to hide, got %d", n)
	}
}

func TestToggleClassAndRender(t *testing.T) {
	f := parsePage(t)
	open, err := f.ToggleClass("popup-3")
	if err != nil || !open {
		t.Fatalf("expected popup opened, got %v %v", open, err)
	}

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `class="popuptext show"`) {
		t.Errorf("expected rendered page to carry the toggle, got %s", buf.String())
	}
	if f.PlaceholderDefault() != "Suche" {
		t.Errorf("expected default placeholder Suche, got %q", f.PlaceholderDefault())
	}
}
