// Package form models the advanced search page as parsed HTML. It reads the
// state of the search controls for the suggestion pipeline and applies the
// page's synchronous toggles (category cascades, note panels, slider output)
// directly to the parsed tree.
package form

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/Adithya-Monish-Kumar-K/corpus-browser/internal/suggest"
)

// Element ids and classes used by the advanced search page.
const (
	LemmaSearchID = "lemma_search"
	InOrderID     = "in_order"
	FuzzinessID   = "fuzziness"
	SlopID        = "slop"
	SearchBoxID   = "word-search-box"
	CorpusClass   = "under-all"
	showClass     = "show"
)

var ErrNoElement = errors.New("no such element")

// Element is a copy of one element's attributes at the time it was read.
type Element struct {
	Tag     string
	ID      string
	Name    string
	Type    string
	Value   string
	Classes []string
	Checked bool
	Attrs   map[string]string
}

func (e Element) HasClass(class string) bool {
	return slices.Contains(e.Classes, class)
}

// Form is a parsed page. It is safe for concurrent use.
type Form struct {
	mu   sync.Mutex
	doc  *html.Node
	byID map[string]*html.Node
}

// Parse reads a page or fragment.
func Parse(r io.Reader) (*Form, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing form html: %w", err)
	}
	f := &Form{doc: doc, byID: make(map[string]*html.Node)}
	walk(doc, func(n *html.Node) {
		if id := attr(n, "id"); id != "" {
			if _, dup := f.byID[id]; !dup {
				f.byID[id] = n
			}
		}
	})
	return f, nil
}

// Controls snapshots the search controls. Missing controls stay absent.
func (f *Form) Controls() suggest.Controls {
	f.mu.Lock()
	defer f.mu.Unlock()

	var c suggest.Controls
	if n, ok := f.byID[LemmaSearchID]; ok {
		c.LemmaSearch = isChecked(n)
	}
	walk(f.doc, func(n *html.Node) {
		if n.DataAtom == atom.Input && hasClass(n, CorpusClass) {
			c.Corpora = append(c.Corpora, suggest.CorpusCheck{
				Value:   attr(n, "value"),
				Checked: isChecked(n),
			})
		}
	})
	if n, ok := f.byID[InOrderID]; ok {
		c.InOrderPresent = true
		c.InOrderChecked = isChecked(n)
		c.InOrderValue = attr(n, "value")
	}
	if n, ok := f.byID[FuzzinessID]; ok {
		c.Fuzziness = controlValue(n)
	}
	if n, ok := f.byID[SlopID]; ok {
		c.Slop = controlValue(n)
	}
	return c
}

// Element returns a copy of the element with the given id.
func (f *Form) Element(id string) (Element, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.byID[id]
	if !ok {
		return Element{}, false
	}
	return snapshot(n), true
}

// ElementsByClass returns copies of every element carrying class, in
// document order.
func (f *Form) ElementsByClass(class string) []Element {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Element
	walk(f.doc, func(n *html.Node) {
		if hasClass(n, class) {
			out = append(out, snapshot(n))
		}
	})
	return out
}

// PlaceholderDefault is the search box's resting placeholder: its "default"
// attribute, falling back to "placeholder".
func (f *Form) PlaceholderDefault() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.byID[SearchBoxID]
	if !ok {
		return ""
	}
	if v, ok := lookupAttr(n, "default"); ok {
		return v
	}
	return attr(n, "placeholder")
}

// Render writes the current tree, toggles applied.
func (f *Form) Render(w io.Writer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return html.Render(w, f.doc)
}

func snapshot(n *html.Node) Element {
	e := Element{
		Tag:     n.Data,
		ID:      attr(n, "id"),
		Name:    attr(n, "name"),
		Type:    strings.ToLower(attr(n, "type")),
		Value:   controlValue(n),
		Classes: strings.Fields(attr(n, "class")),
		Checked: isChecked(n),
		Attrs:   make(map[string]string, len(n.Attr)),
	}
	for _, a := range n.Attr {
		e.Attrs[a.Key] = a.Val
	}
	return e
}

func walk(n *html.Node, visit func(*html.Node)) {
	if n.Type == html.ElementNode {
		visit(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func attr(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	n.Attr = slices.DeleteFunc(n.Attr, func(a html.Attribute) bool { return a.Key == key })
}

func hasClass(n *html.Node, class string) bool {
	return slices.Contains(strings.Fields(attr(n, "class")), class)
}

func isChecked(n *html.Node) bool {
	_, ok := lookupAttr(n, "checked")
	return ok
}

// controlValue reads an input's value attribute or a select's chosen option.
// A select without a selected option yields its first option, as browsers do.
func controlValue(n *html.Node) string {
	if n.DataAtom != atom.Select {
		return attr(n, "value")
	}
	var first, chosen *html.Node
	walk(n, func(o *html.Node) {
		if o.DataAtom != atom.Option {
			return
		}
		if first == nil {
			first = o
		}
		if _, ok := lookupAttr(o, "selected"); ok && chosen == nil {
			chosen = o
		}
	})
	if chosen == nil {
		chosen = first
	}
	if chosen == nil {
		return ""
	}
	if v, ok := lookupAttr(chosen, "value"); ok {
		return v
	}
	return strings.TrimSpace(textOf(chosen))
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var rec func(*html.Node)
	rec = func(x *html.Node) {
		if x.Type == html.TextNode {
			b.WriteString(x.Data)
		}
		for c := x.FirstChild; c != nil; c = c.NextSibling {
			rec(c)
		}
	}
	rec(n)
	return b.String()
}
