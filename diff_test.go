package xmldelta

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func diffText(t *testing.T, original, modified string, opts ...CompareOption) string {
	t.Helper()
	patch, err := Diff(mustParse(t, original), mustParse(t, modified), DefaultPolicy(), DefaultNamespaces(), opts...)
	if err != nil {
		t.Fatalf("Diff() error = %v", err)
	}
	return Render(patch)
}

func TestDiff(t *testing.T) {
	const root = `<r xmlns:p="p" xmlns:s="s" p:p="1"`
	tests := []struct {
		name     string
		original string
		modified string
		want     string
	}{
		{
			name:     "No changes",
			original: `<r id="x"><a id="1" v="2"><b/></a></r>`,
			modified: `<r id="x"><a id="1" v="2"><b/></a></r>`,
			want:     root + ` id="x"/>`,
		},
		{
			name:     "Move with attribute change",
			original: `<r><a id="1"/><b id="2"/></r>`,
			modified: `<r><b id="2" x="1"/><a id="1"/></r>`,
			want:     root + `><b id="2" p:before="a[@id='1']" s:x="1"/></r>`,
		},
		{
			name:     "Attribute value change",
			original: `<r><a id="1" v="1" w="1"/></r>`,
			modified: `<r><a w="1" v="2" id="1"/></r>`,
			want:     root + `><a id="1" s:v="2"/></r>`,
		},
		{
			name:     "Attribute removed",
			original: `<r><a id="1" v="1"/></r>`,
			modified: `<r><a id="1"/></r>`,
			want:     root + `><a id="1" p:remove="v"/></r>`,
		},
		{
			name:     "Attribute renamed",
			original: `<r><a id="1" v="1"/></r>`,
			modified: `<r><a id="1" w="1"/></r>`,
			want:     root + `><a id="1" p:remove="v" s:w="1"/></r>`,
		},
		{
			name:     "Root attribute change",
			original: `<r id="x" v="1"/>`,
			modified: `<r id="x" v="2"/>`,
			want:     root + ` id="x" s:v="2"/>`,
		},
		{
			name:     "Insert in the middle",
			original: `<r><a id="1"/><c id="3"/></r>`,
			modified: `<r><a id="1"/><b id="2"/><c id="3"/></r>`,
			want:     root + `><b id="2" p:before="c[@id='3']"/></r>`,
		},
		{
			name:     "Insert subtree at the end",
			original: `<r><a id="1"/></r>`,
			modified: `<r><a id="1"/><n id="5" t="x"><m k="1"/></n></r>`,
			want:     root + `><n id="5" s:t="x"><m s:k="1"/></n></r>`,
		},
		{
			name:     "Delete",
			original: `<r><a id="1"/><b id="2"><c/></b></r>`,
			modified: `<r><a id="1"/></r>`,
			want:     root + `><b id="2" p:d="1"/></r>`,
		},
		{
			name:     "Move to the front",
			original: `<r><a id="1"/><b id="2"/><c id="3"/></r>`,
			modified: `<r><c id="3"/><a id="1"/><b id="2"/></r>`,
			want:     root + `><c id="3" p:before="a[@id='1']"/></r>`,
		},
		{
			name:     "Move to the end",
			original: `<r><a id="1"/><b id="2"/><c id="3"/></r>`,
			modified: `<r><b id="2"/><c id="3"/><a id="1"/></r>`,
			want:     root + `><a id="1" p:before="*[1=2]"/></r>`,
		},
		{
			name:     "Nested change",
			original: `<r><a id="1"><b id="2" v="1"/></a></r>`,
			modified: `<r><a id="1"><b id="2" v="2"/></a></r>`,
			want:     root + `><a id="1"><b id="2" s:v="2"/></a></r>`,
		},
		{
			name:     "Namespace declarations of the root are kept",
			original: `<r xmlns:x="urn:x"><a id="1"/></r>`,
			modified: `<r xmlns:x="urn:x"><a id="1" v="1"/></r>`,
			want:     `<r xmlns:x="urn:x" xmlns:p="p" xmlns:s="s" p:p="1"><a id="1" s:v="1"/></r>`,
		},
		{
			name:     "Declarations below the root are repeated",
			original: `<r><x:a xmlns:x="urn:u" id="1" v="1"/></r>`,
			modified: `<r><x:a xmlns:x="urn:u" id="1" v="2"/></r>`,
			want:     root + `><x:a xmlns:x="urn:u" id="1" s:v="2"/></r>`,
		},
		{
			name:     "Namespaced attribute keeps its name",
			original: `<r xmlns:x="urn:x"><a id="1" x:v="1"/></r>`,
			modified: `<r xmlns:x="urn:x"><a id="1" x:v="2"/></r>`,
			want:     `<r xmlns:x="urn:x" xmlns:p="p" xmlns:s="s" p:p="1"><a id="1" x:v="2"/></r>`,
		},
		{
			name:     "Namespaced attribute removal",
			original: `<r xmlns:x="urn:x"><a id="1" x:v="1" v="1"/></r>`,
			modified: `<r xmlns:x="urn:x"><a id="1" v="1"/></r>`,
			want:     `<r xmlns:x="urn:x" xmlns:p="p" xmlns:s="s" p:p="1"><a id="1" p:remove="{urn:x}v"/></r>`,
		},
		{
			name:     "Anchor uses the qualified name",
			original: `<r xmlns:x="urn:x"><x:b id="2"/></r>`,
			modified: `<r xmlns:x="urn:x"><a id="1"/><x:b id="2"/></r>`,
			want:     `<r xmlns:x="urn:x" xmlns:p="p" xmlns:s="s" p:p="1"><a id="1" p:before="x:b[@id='2']"/></r>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := diffText(t, tt.original, tt.modified); got != tt.want {
				t.Errorf("Diff() mismatch.\nWant: %s\nGot:  %s", tt.want, got)
			}
		})
	}
}

func TestDiffIdentityMismatch(t *testing.T) {
	tests := []struct {
		name     string
		original string
		modified string
	}{
		{name: "Different id", original: `<r id="1"/>`, modified: `<r id="2"/>`},
		{name: "Different name", original: `<r/>`, modified: `<q/>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Diff(mustParse(t, tt.original), mustParse(t, tt.modified), DefaultPolicy(), DefaultNamespaces())
			if !errors.Is(err, ErrIdentityMismatch) {
				t.Fatalf("Diff() error = %v, want %v", err, ErrIdentityMismatch)
			}
		})
	}
}

// recorder is a ComparisonContext that logs every call.
type recorder struct {
	path  string
	calls *[]string
}

func newRecorder() *recorder {
	return &recorder{path: "/", calls: new([]string)}
}

func (r *recorder) add(format string, args ...any) {
	*r.calls = append(*r.calls, r.path+" "+fmt.Sprintf(format, args...))
}

func (r *recorder) SetIdentification(attrs []Attr) {
	if len(attrs) > 0 {
		r.add("ident %s", Predicate("", attrs))
	}
}
func (r *recorder) SetAttribute(attr Attr)    { r.add("set %s=%s", attr.Name.Local, attr.Value) }
func (r *recorder) RemoveAttribute(name Name) { r.add("remove %s", name.Local) }
func (r *recorder) Delete()                   { r.add("delete") }
func (r *recorder) Materialize()              { r.add("materialize") }
func (r *recorder) SetInsertOption(position InsertPosition, anchor string) {
	r.add("%s %s", position, anchor)
}
func (r *recorder) ChildContext(name Name, prefix string, decls []Namespace) ComparisonContext {
	return &recorder{path: r.path + name.Local + "/", calls: r.calls}
}

func TestCompareCalls(t *testing.T) {
	original := mustParse(t, `<r><a id="1"/><b id="2"/><c id="3"/></r>`)
	modified := mustParse(t, `<r><b id="2" x="1"/><a id="1"/><d id="4"/></r>`)

	rec := newRecorder()
	if err := Compare(original, modified, DefaultPolicy(), rec); err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	want := []string{
		"/b/ ident [@id='2']",
		"/b/ before a[@id='1']",
		"/b/ materialize",
		"/b/ set x=1",
		"/a/ ident [@id='1']",
		"/d/ ident [@id='4']",
		"/d/ materialize",
		"/c/ ident [@id='3']",
		"/c/ delete",
	}
	if diff := cmp.Diff(want, *rec.calls); diff != "" {
		t.Errorf("Compare() calls mismatch (-want +got):\n%s", diff)
	}
}

func TestDiffMoveMinimality(t *testing.T) {
	original := `<r><a id="1"><x/></a><b id="2"/><c id="3"/><d id="4"/><e id="5"/></r>`
	modified := `<r><b id="2"/><c id="3"/><d id="4"/><a id="1"><x/></a><e id="5"/></r>`

	for _, algo := range []Algorithm{LCS, Myers, DiffMatchPatch} {
		t.Run(algo.String(), func(t *testing.T) {
			patch := mustParse(t, diffText(t, original, modified, UseAlgorithm(algo)))
			if len(patch.Children) != 1 {
				t.Fatalf("patch has %d instructions, want 1: %s", len(patch.Children), Render(patch))
			}
			move := patch.Children[0]
			if _, ok := move.Attr(Name{Space: "p", Local: "d"}); ok {
				t.Errorf("move is written as a deletion: %s", Render(move))
			}
			if len(move.Children) != 0 {
				t.Errorf("move carries content: %s", Render(move))
			}
		})
	}
}
