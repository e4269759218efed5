package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// articleDoc builds a document of local article citations, one per id
func articleDoc(ids []string) []byte {
	entries := make([]map[string]any, 0, len(ids))
	for i, id := range ids {
		entries = append(entries, map[string]any{
			"id": id, "kind": "article",
			"title": "T" + id, "author": "A", "journal": "J",
			"volume": i, "year": 2000 + i, "issue": 1,
		})
	}
	doc, _ := json.Marshal(map[string]any{"version": 1, "citations": entries})
	return doc
}

func distinct(ids []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func TestTransform_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)
	o := New(newFake())
	ctx := context.Background()

	idGen := gen.SliceOfN(6, gen.AlphaString().Map(func(s string) string {
		if s == "" {
			return "id"
		}
		if len(s) > 11 {
			return s[:11]
		}
		return s
	}))
	refGen := gen.SliceOf(gen.IntRange(0, 5))

	properties.Property("one sorted line per bracket occurrence", prop.ForAll(
		func(ids []string, refs []int) bool {
			ids = distinct(ids)
			if len(ids) == 0 {
				return true
			}

			var b strings.Builder
			var cited []string
			for _, r := range refs {
				id := ids[r%len(ids)]
				cited = append(cited, id)
				fmt.Fprintf(&b, "filler [%s] ", id)
			}
			article := b.String()

			got, err := o.Transform(ctx, article, articleDoc(ids))
			if err != nil || !got.Success {
				return false
			}
			body, ok := strings.CutPrefix(got.Text, article+ReferencesHeader)
			if !ok {
				return false
			}
			if len(cited) == 0 {
				return body == ""
			}

			lines := strings.Split(body, "\n")
			if len(lines) != len(cited) {
				return false
			}
			sort.Strings(cited)
			for i, line := range lines {
				if !strings.HasPrefix(line, "["+cited[i]+"] article: ") {
					return false
				}
			}
			return true
		},
		idGen, refGen,
	))

	properties.Property("transform is deterministic", prop.ForAll(
		func(ids []string, refs []int) bool {
			ids = distinct(ids)
			if len(ids) == 0 {
				return true
			}
			var b strings.Builder
			for _, r := range refs {
				fmt.Fprintf(&b, "[%s]", ids[r%len(ids)])
			}
			doc := articleDoc(ids)
			first, err1 := o.Transform(ctx, b.String(), doc)
			second, err2 := o.Transform(ctx, b.String(), doc)
			return err1 == nil && err2 == nil && first == second
		},
		idGen, refGen,
	))

	properties.Property("one extra bracket always fails", prop.ForAll(
		func(ids []string, refs []int, pos int, closing bool) bool {
			ids = distinct(ids)
			if len(ids) == 0 {
				return true
			}
			var b strings.Builder
			for _, r := range refs {
				fmt.Fprintf(&b, "x[%s]y", ids[r%len(ids)])
			}
			article := b.String()
			at := pos % (len(article) + 1)
			extra := "["
			if closing {
				extra = "]"
			}
			mutated := article[:at] + extra + article[at:]

			got, err := o.Transform(ctx, mutated, articleDoc(ids))
			return err == nil && !got.Success
		},
		idGen, refGen, gen.IntRange(0, 1000), gen.Bool(),
	))

	properties.Property("duplicate ids invalidate the set", prop.ForAll(
		func(ids []string, dup int) bool {
			ids = distinct(ids)
			if len(ids) == 0 {
				return true
			}
			ids = append(ids, ids[dup%len(ids)])
			_, ok := CheckCitations(articleDoc(ids))
			return !ok
		},
		idGen, gen.IntRange(0, 10),
	))

	properties.TestingRun(t)
}
