// Package suggest implements the typeahead pipeline of the advanced search
// page: the search parameter builder, the debouncer, the suggestion list and
// the per-field controller that ties them to a View.
package suggest

import (
	"net/url"
	"strconv"
	"strings"
)

// Field selects the index the server completes against.
type Field string

const (
	FieldAutocomplete       Field = "autocomplete"
	FieldAutocompleteLemmas Field = "autocomplete_lemmas"
)

// FuzzinessAuto lets the server pick the edit distance from term length.
const FuzzinessAuto = "AUTO"

// CorpusCheck is one corpus-selection checkbox.
type CorpusCheck struct {
	Value   string
	Checked bool
}

// Controls is a snapshot of the advanced-search form. Absent controls keep
// their zero value.
type Controls struct {
	LemmaSearch bool
	Corpora     []CorpusCheck

	InOrderPresent bool
	InOrderChecked bool
	InOrderValue   string

	Fuzziness string
	Slop      string
}

// ControlSource yields the current form state each time it is asked.
type ControlSource interface {
	Controls() Controls
}

// ControlsFunc adapts a function to ControlSource.
type ControlsFunc func() Controls

func (f ControlsFunc) Controls() Controls { return f() }

// Parameters is the query-string record sent with every suggestion request
// and with the final form submission.
type Parameters struct {
	Corpus    []string
	Field     Field
	Fuzziness string
	InOrder   string
	Slop      int
}

// DefaultParameters is what an empty form produces.
func DefaultParameters() Parameters {
	return Parameters{
		Corpus:    []string{},
		Field:     FieldAutocomplete,
		Fuzziness: "0",
		InOrder:   "False",
		Slop:      0,
	}
}

// FromControls reads c best-effort. It never fails; malformed numeric values
// fall back to their defaults.
func FromControls(c Controls) Parameters {
	p := DefaultParameters()
	if c.LemmaSearch {
		p.Field = FieldAutocompleteLemmas
	}
	for _, cc := range c.Corpora {
		if cc.Checked {
			p.Corpus = append(p.Corpus, cc.Value)
		}
	}
	if c.InOrderPresent && c.InOrderChecked {
		p.InOrder = c.InOrderValue
		if p.InOrder == "" {
			p.InOrder = "True"
		}
	}
	p.Fuzziness = normalizeFuzziness(c.Fuzziness)
	p.Slop = nonNegative(c.Slop)
	return p
}

// Encode renders p as "?corpus=..&field=..&fuzziness=..&in_order=..&slop=..".
// Keys always appear in that order.
func (p Parameters) Encode() string {
	corpus := make([]string, len(p.Corpus))
	for i, c := range p.Corpus {
		corpus[i] = url.QueryEscape(c)
	}
	field := p.Field
	if field == "" {
		field = FieldAutocomplete
	}
	fuzz := p.Fuzziness
	if fuzz == "" {
		fuzz = "0"
	}
	inOrder := p.InOrder
	if inOrder == "" {
		inOrder = "False"
	}

	var b strings.Builder
	b.WriteString("?corpus=")
	b.WriteString(strings.Join(corpus, "+"))
	b.WriteString("&field=")
	b.WriteString(url.QueryEscape(string(field)))
	b.WriteString("&fuzziness=")
	b.WriteString(url.QueryEscape(fuzz))
	b.WriteString("&in_order=")
	b.WriteString(url.QueryEscape(inOrder))
	b.WriteString("&slop=")
	b.WriteString(strconv.Itoa(p.Slop))
	return b.String()
}

// Build snapshots c into the query string. Same controls, same string.
func Build(c Controls) string {
	return FromControls(c).Encode()
}

func normalizeFuzziness(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, FuzzinessAuto) {
		return FuzzinessAuto
	}
	return strconv.Itoa(nonNegative(raw))
}

func nonNegative(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
