package oracle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pku-software/docman-homework-judge-action/internal/metadata"
	"github.com/pku-software/docman-homework-judge-action/internal/model"
)

// fakeResolver answers from fixed tables and counts lookups
type fakeResolver struct {
	books map[string]metadata.Book
	pages map[string]metadata.Page
	err   error
	calls int
}

func (f *fakeResolver) Book(ctx context.Context, isbn string) (metadata.Book, bool, error) {
	f.calls++
	if f.err != nil {
		return metadata.Book{}, false, f.err
	}
	b, ok := f.books[isbn]
	return b, ok, nil
}

func (f *fakeResolver) Page(ctx context.Context, rawURL string) (metadata.Page, bool, error) {
	f.calls++
	if f.err != nil {
		return metadata.Page{}, false, f.err
	}
	p, ok := f.pages[rawURL]
	return p, ok, nil
}

func newFake() *fakeResolver {
	return &fakeResolver{
		books: map[string]metadata.Book{
			"9787111544937": {Author: "Randal E. Bryant", Title: "CSAPP", Publisher: "China Machine Press", Year: "2016"},
		},
		pages: map[string]metadata.Page{
			"https://www.example.com": {Title: "Example Domain"},
		},
	}
}

func TestCheckBracketMatch(t *testing.T) {
	tests := []struct {
		name    string
		article string
		want    []model.ReferenceSpan
		ok      bool
	}{
		{"empty", "", nil, true},
		{"no brackets", "plain text", nil, true},
		{"single", "a[b]c", []model.ReferenceSpan{{Open: 1, Close: 3}}, true},
		{"adjacent", "[a][b]", []model.ReferenceSpan{{Open: 0, Close: 2}, {Open: 3, Close: 5}}, true},
		{"nested closes inner first", "[a[b]]", []model.ReferenceSpan{{Open: 2, Close: 4}, {Open: 0, Close: 5}}, true},
		{"empty id", "[]", []model.ReferenceSpan{{Open: 0, Close: 1}}, true},
		{"stray close", "a]b", nil, false},
		{"close before open", "][", nil, false},
		{"leftover open", "[a] [b", nil, false},
		{"multibyte offsets", "é[x]", []model.ReferenceSpan{{Open: 2, Close: 4}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CheckBracketMatch(tt.article)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("spans mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

const validArticle = `{"id":"a","kind":"article","title":"T","author":"Au","journal":"J","volume":1,"year":2020,"issue":2}`

func TestCheckCitations(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		ok   bool
	}{
		{"article", `{"citations":[` + validArticle + `]}`, true},
		{"with version", `{"version":1,"citations":[]}`, true},
		{"book", `{"citations":[{"id":"b","kind":"book","isbn":"978"}]}`, true},
		{"webpage", `{"citations":[{"id":"w","kind":"webpage","url":"https://x"}]}`, true},
		{"big integers", `{"citations":[{"id":"a","kind":"article","title":"T","author":"A","journal":"J","volume":123456789012345678901234567890,"year":-1,"issue":0}]}`, true},

		{"not json", `{"citations":`, false},
		{"trailing data", `{"citations":[]} {}`, false},
		{"top-level array", `[]`, false},
		{"missing citations", `{"version":1}`, false},
		{"citations not list", `{"citations":{}}`, false},
		{"entry not object", `{"citations":[1]}`, false},
		{"missing id", `{"citations":[{"kind":"book","isbn":"978"}]}`, false},
		{"missing kind", `{"citations":[{"id":"b","isbn":"978"}]}`, false},
		{"numeric id", `{"citations":[{"id":1,"kind":"book","isbn":"978"}]}`, false},
		{"kind list", `{"citations":[{"id":"b","kind":[1,2,3],"isbn":"978"}]}`, false},
		{"unknown kind", `{"citations":[{"id":"b","kind":"magazine"}]}`, false},
		{"book without isbn", `{"citations":[{"id":"b","kind":"book"}]}`, false},
		{"isbn number", `{"citations":[{"id":"b","kind":"book","isbn":978}]}`, false},
		{"webpage url object", `{"citations":[{"id":"w","kind":"webpage","url":{"You":"Great"}}]}`, false},
		{"article volume string", strings.Replace(`{"citations":[`+validArticle+`]}`, `"volume":1`, `"volume":"You're fooled"`, 1), false},
		{"article year float", strings.Replace(`{"citations":[`+validArticle+`]}`, `"year":2020`, `"year":2020.0`, 1), false},
		{"article year exponent", strings.Replace(`{"citations":[`+validArticle+`]}`, `"year":2020`, `"year":2e3`, 1), false},
		{"article issue bool", strings.Replace(`{"citations":[`+validArticle+`]}`, `"issue":2`, `"issue":true`, 1), false},
		{"article missing journal", strings.Replace(`{"citations":[`+validArticle+`]}`, `"journal":"J",`, ``, 1), false},
		{"duplicate ids", `{"citations":[{"id":"x","kind":"book","isbn":"1"},{"id":"x","kind":"webpage","url":"u"}]}`, false},
		{"bad entry poisons set", `{"citations":[` + validArticle + `,{"id":"z","kind":"book"}]}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, ok := CheckCitations([]byte(tt.doc))
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok && set != nil {
				t.Error("invalid document must not yield a set")
			}
		})
	}
}

func TestTransform_ReferenceOutputs(t *testing.T) {
	o := New(newFake())
	ctx := context.Background()
	doc := []byte(`{"citations":[` + validArticle + `]}`)

	got, err := o.Transform(ctx, "Hello [a] world", doc)
	if err != nil {
		t.Fatal(err)
	}
	want := model.Expectation{
		Text:    "Hello [a] world\n\nReferences:\n[a] article: Au, T, J, 2020, 1, 2",
		Success: true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	got, err = o.Transform(ctx, "[a][b]", doc)
	if err != nil {
		t.Fatal(err)
	}
	if got.Success {
		t.Error("dangling reference b must fail")
	}
}

func TestTransform_OrderAndDuplicates(t *testing.T) {
	fake := newFake()
	o := New(fake)
	doc := []byte(`{"version":1,"citations":[
		{"id":"zeta","kind":"book","isbn":"9787111544937"},
		{"id":"alpha","kind":"webpage","url":"https://www.example.com"},
		{"id":"mid","kind":"article","title":"T","author":"A","journal":"J","volume":3,"year":-0,"issue":9}
	]}`)
	article := "x [zeta] y [alpha] z [zeta] w [mid]"

	got, err := o.Transform(context.Background(), article, doc)
	if err != nil {
		t.Fatal(err)
	}
	want := article + "\n\nReferences:\n" +
		"[alpha] webpage: Example Domain. Available at https://www.example.com\n" +
		"[mid] article: A, T, J, 0, 3, 9\n" +
		"[zeta] book: Randal E. Bryant, CSAPP, China Machine Press, 2016\n" +
		"[zeta] book: Randal E. Bryant, CSAPP, China Machine Press, 2016"
	if !got.Success {
		t.Fatal("expected success")
	}
	if diff := cmp.Diff(want, got.Text); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if fake.calls != 2 {
		t.Errorf("expected 2 lookups, got %d", fake.calls)
	}
}

func TestTransform_NoReferences(t *testing.T) {
	o := New(newFake())
	got, err := o.Transform(context.Background(), "no refs", []byte(`{"citations":[]}`))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Success || got.Text != "no refs\n\nReferences:\n" {
		t.Errorf("got %+v", got)
	}
}

func TestTransform_Failures(t *testing.T) {
	doc := []byte(`{"citations":[` + validArticle + `,
		{"id":"b","kind":"book","isbn":"unknown"},
		{"id":"w","kind":"webpage","url":"https://www.example.com"}]}`)

	tests := []struct {
		name    string
		article string
	}{
		{"unbalanced open", "[a] ["},
		{"unbalanced close", "[a] ]"},
		{"dangling", "[a] [missing]"},
		{"lookup without fields", "[b]"},
		{"one bad among good", "[a][w][b]"},
	}
	o := New(newFake())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := o.Transform(context.Background(), tt.article, doc)
			if err != nil {
				t.Fatal(err)
			}
			if got.Success {
				t.Errorf("expected failure, got %q", got.Text)
			}
		})
	}
}

func TestTransform_TransportErrorSurfaces(t *testing.T) {
	fake := newFake()
	fake.err = errors.New("connection refused")
	o := New(fake)

	_, err := o.Transform(context.Background(), "[w]", []byte(`{"citations":[{"id":"w","kind":"webpage","url":"https://www.example.com"}]}`))
	if err == nil {
		t.Fatal("expected transport error")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestTransform_InvalidSetIgnoresUsage(t *testing.T) {
	// The malformed entry is never referenced but still poisons the set.
	o := New(newFake())
	doc := []byte(`{"citations":[` + validArticle + `,{"id":"unused","kind":"webpage"}]}`)
	got, err := o.Transform(context.Background(), "[a]", doc)
	if err != nil {
		t.Fatal(err)
	}
	if got.Success {
		t.Error("expected failure")
	}
}

func TestTransformFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cit.txt")
	if err := os.WriteFile(path, []byte(`{"citations":[`+validArticle+`]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	o := New(newFake())
	got, err := o.TransformFile(context.Background(), "[a]", path)
	if err != nil || !got.Success {
		t.Fatalf("got %+v, %v", got, err)
	}

	got, err = o.TransformFile(context.Background(), "[a]", filepath.Join(dir, "non-exist.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if got.Success {
		t.Error("missing citation file must fail")
	}
}

func TestRenderCitation_UnknownKind(t *testing.T) {
	o := New(newFake())
	_, ok, err := o.RenderCitation(context.Background(), model.Citation{ID: "x", Kind: "magazine"})
	if ok || err != nil {
		t.Errorf("got ok=%v err=%v", ok, err)
	}
}
