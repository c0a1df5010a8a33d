package suggest

import (
	"sort"

	"github.com/tchap/go-patricia/v2/patricia"
)

// List is an ordered, immutable set of completion candidates. A successful
// response replaces the whole list; lists are never merged.
type List struct {
	entries []string
	trie    *patricia.Trie
}

// NewList copies entries, keeping their order.
func NewList(entries []string) List {
	l := List{
		entries: append([]string(nil), entries...),
		trie:    patricia.NewTrie(),
	}
	for i, e := range l.entries {
		key := patricia.Prefix(e)
		if item := l.trie.Get(key); item != nil {
			l.trie.Set(key, append(item.([]int), i))
			continue
		}
		l.trie.Insert(key, []int{i})
	}
	return l
}

// Entries returns a copy of the candidates in response order.
func (l List) Entries() []string {
	return append([]string(nil), l.entries...)
}

func (l List) Len() int { return len(l.entries) }

// Filter returns the entries that start with prefix, in list order, the way
// a datalist narrows its options while the user keeps typing.
func (l List) Filter(prefix string) []string {
	if prefix == "" || l.trie == nil {
		return l.Entries()
	}
	var positions []int
	_ = l.trie.VisitSubtree(patricia.Prefix(prefix), func(_ patricia.Prefix, item patricia.Item) error {
		positions = append(positions, item.([]int)...)
		return nil
	})
	sort.Ints(positions)
	out := make([]string, len(positions))
	for i, p := range positions {
		out[i] = l.entries[p]
	}
	return out
}

// Equal reports whether both lists hold the same entries in the same order.
func (l List) Equal(other List) bool {
	if len(l.entries) != len(other.entries) {
		return false
	}
	for i := range l.entries {
		if l.entries[i] != other.entries[i] {
			return false
		}
	}
	return true
}
