package benchmark

import (
	"fmt"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/corpus-browser/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/corpus-browser/internal/form"
	"github.com/Adithya-Monish-Kumar-K/corpus-browser/internal/suggest"
)

func searchPage(corpora int) string {
	var b strings.Builder
	b.WriteString(`<form><input type="checkbox" id="lemma_search" checked>`)
	for i := 0; i < corpora; i++ {
		checked := ""
		if i%2 == 0 {
			checked = " checked"
		}
		fmt.Fprintf(&b, `<input type="checkbox" class="under-all" value="corpus-%d"%s>`, i, checked)
	}
	b.WriteString(`<input type="checkbox" id="in_order" value="True" checked>`)
	b.WriteString(`<select id="fuzziness"><option value="0">0</option><option value="2" selected>2</option></select>`)
	b.WriteString(`<input type="range" id="slop" value="4"></form>`)
	return b.String()
}

// BenchmarkBuildFromForm measures the control snapshot plus query encoding
// done on every debounce fire.
func BenchmarkBuildFromForm(b *testing.B) {
	for _, n := range []int{5, 50, 200} {
		page, err := form.Parse(strings.NewReader(searchPage(n)))
		if err != nil {
			b.Fatal(err)
		}
		b.Run(fmt.Sprintf("corpora_%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = suggest.Build(page.Controls())
			}
		})
	}
}

// BenchmarkListFilter measures datalist-style narrowing of a response.
func BenchmarkListFilter(b *testing.B) {
	words := make([]string, 0, 1000)
	for i := 0; i < 1000; i++ {
		words = append(words, fmt.Sprintf("dom%03d", i))
	}
	list := suggest.NewList(words)

	for _, prefix := range []string{"d", "dom1", "dom123", "x"} {
		b.Run(prefix, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = list.Filter(prefix)
			}
		})
	}
}

func BenchmarkFragmentText(b *testing.B) {
	var sb strings.Builder
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&sb, `<p><span class="w" data-lexicon="abbas">abbas</span> verse %d</p>`, i)
	}
	f := corpus.Fragment{HTML: sb.String()}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = f.Text()
	}
}
