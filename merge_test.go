package xmldelta

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func mustDelta(t *testing.T, modified, base string) string {
	t.Helper()
	delta, err := GetDelta(modified, base)
	if err != nil {
		t.Fatalf("GetDelta() error = %v", err)
	}
	return delta
}

func TestMergeDeltas(t *testing.T) {
	base := `<ul><li id="a"/><li id="b"/></ul>`

	// Delta A: insert x at the front.
	deltaA := mustDelta(t, `<ul><li id="x"/><li id="a"/><li id="b"/></ul>`, base)
	// Delta B: append y.
	deltaB := mustDelta(t, `<ul><li id="a"/><li id="b"/><li id="y"/></ul>`, base)

	merged, conflicts, err := MergeDeltas(base, deltaA, deltaB)
	if err != nil {
		t.Fatalf("MergeDeltas() error = %v", err)
	}
	if len(conflicts) > 0 {
		t.Fatalf("Unexpected conflicts: %v", conflicts)
	}

	want := `<ul><li id="x"/><li id="a"/><li id="b"/><li id="y"/></ul>`
	if merged != want {
		t.Errorf("MergeDeltas() mismatch.\nWant: %s\nGot:  %s", want, merged)
	}
}

func TestApplyLayers(t *testing.T) {
	standard := `<r><a id="1" v="std"/><b id="2"/></r>`
	shared := `<r><a id="1" v="shared"/><b id="2"/><c id="3"/></r>`
	final := `<r><c id="3"/><a id="1" v="shared"/><b id="2" w="1"/></r>`

	sharedDelta := mustDelta(t, shared, standard)
	finalDelta := mustDelta(t, final, shared)

	got, err := ApplyLayers(standard, sharedDelta, finalDelta)
	if err != nil {
		t.Fatalf("ApplyLayers() error = %v", err)
	}
	if want := canonical(t, final); canonical(t, got) != want {
		t.Errorf("ApplyLayers() mismatch.\nWant: %s\nGot:  %s", want, got)
	}

	// Same as applying one delta after the other.
	step, err := ApplyDelta(standard, sharedDelta)
	if err != nil {
		t.Fatalf("ApplyDelta() error = %v", err)
	}
	step, err = ApplyDelta(step, finalDelta)
	if err != nil {
		t.Fatalf("ApplyDelta() error = %v", err)
	}
	if step != got {
		t.Errorf("sequential ApplyDelta = %s, ApplyLayers = %s", step, got)
	}
}

func TestApplyLayersError(t *testing.T) {
	_, err := ApplyLayers(`<r><a id="1"/></r>`, `<r xmlns:p="p" p:p="1"><n id="2" p:before="z"/></r>`)
	if !errors.Is(err, ErrAnchorUnresolved) {
		t.Fatalf("ApplyLayers() error = %v, want %v", err, ErrAnchorUnresolved)
	}
}

func TestDetectConflicts(t *testing.T) {
	const base = `<ul><li id="a" v="1"/><li id="b"/><li id="c"/></ul>`
	tests := []struct {
		name string
		a    string
		b    string
		want []Conflict
	}{
		{
			name: "Independent changes",
			a:    `<ul><li id="a" v="2"/><li id="b"/><li id="c"/></ul>`,
			b:    `<ul><li id="a" v="1"/><li id="b"/><li id="c" w="1"/></ul>`,
		},
		{
			name: "Same value set twice",
			a:    `<ul><li id="a" v="2"/><li id="b"/><li id="c"/></ul>`,
			b:    `<ul><li id="a" v="2"/><li id="b"/><li id="c"/></ul>`,
		},
		{
			name: "Attribute set to different values",
			a:    `<ul><li id="a" v="2"/><li id="b"/><li id="c"/></ul>`,
			b:    `<ul><li id="a" v="3"/><li id="b"/><li id="c"/></ul>`,
			want: []Conflict{{Type: ConflictAttribute, Path: ElementPath{"ul", "li[@id='a']"}}},
		},
		{
			name: "Attribute set and removed",
			a:    `<ul><li id="a" v="2"/><li id="b"/><li id="c"/></ul>`,
			b:    `<ul><li id="a"/><li id="b"/><li id="c"/></ul>`,
			want: []Conflict{{Type: ConflictAttribute, Path: ElementPath{"ul", "li[@id='a']"}}},
		},
		{
			name: "Deleted and changed",
			a:    `<ul><li id="b"/><li id="c"/></ul>`,
			b:    `<ul><li id="a" v="5"/><li id="b"/><li id="c"/></ul>`,
			want: []Conflict{{Type: ConflictStructure, Path: ElementPath{"ul", "li[@id='a']"}}},
		},
		{
			name: "Deleted twice",
			a:    `<ul><li id="b"/><li id="c"/></ul>`,
			b:    `<ul><li id="b"/><li id="c"/></ul>`,
		},
		{
			name: "Moved to different places",
			a:    `<ul><li id="c"/><li id="a" v="1"/><li id="b"/></ul>`,
			b:    `<ul><li id="a" v="1"/><li id="c"/><li id="b"/></ul>`,
			want: []Conflict{{Type: ConflictPosition, Path: ElementPath{"ul", "li[@id='c']"}}},
		},
		{
			name: "Inserted next to a deleted element",
			a:    `<ul><li id="a" v="1"/><li id="n"/><li id="b"/><li id="c"/></ul>`,
			b:    `<ul><li id="a" v="1"/><li id="c"/></ul>`,
			want: []Conflict{{Type: ConflictPosition, Path: ElementPath{"ul", "li[@id='n']"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectConflicts(mustDelta(t, tt.a, base), mustDelta(t, tt.b, base))
			if err != nil {
				t.Fatalf("DetectConflicts() error = %v", err)
			}
			opts := []cmp.Option{cmpopts.IgnoreFields(Conflict{}, "Description"), cmpopts.EquateEmpty()}
			if diff := cmp.Diff(tt.want, got, opts...); diff != "" {
				t.Errorf("DetectConflicts() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDetectConflictsNamespacedAttributes(t *testing.T) {
	const base = `<ul xmlns:x="urn:x"><li id="a" v="1" x:v="1"/></ul>`
	tests := []struct {
		name string
		a    string
		b    string
		want []Conflict
	}{
		{
			name: "Same local name in different namespaces",
			a:    `<ul xmlns:x="urn:x"><li id="a" v="2" x:v="1"/></ul>`,
			b:    `<ul xmlns:x="urn:x"><li id="a" v="1" x:v="3"/></ul>`,
		},
		{
			name: "Namespaced attribute set to different values",
			a:    `<ul xmlns:x="urn:x"><li id="a" v="1" x:v="2"/></ul>`,
			b:    `<ul xmlns:x="urn:x"><li id="a" v="1" x:v="3"/></ul>`,
			want: []Conflict{{Type: ConflictAttribute, Path: ElementPath{"ul", "li[@id='a']"}}},
		},
		{
			name: "Namespaced attribute set and removed",
			a:    `<ul xmlns:x="urn:x"><li id="a" v="1" x:v="2"/></ul>`,
			b:    `<ul xmlns:x="urn:x"><li id="a" v="1"/></ul>`,
			want: []Conflict{{Type: ConflictAttribute, Path: ElementPath{"ul", "li[@id='a']"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectConflicts(mustDelta(t, tt.a, base), mustDelta(t, tt.b, base))
			if err != nil {
				t.Fatalf("DetectConflicts() error = %v", err)
			}
			opts := []cmp.Option{cmpopts.IgnoreFields(Conflict{}, "Description"), cmpopts.EquateEmpty()}
			if diff := cmp.Diff(tt.want, got, opts...); diff != "" {
				t.Errorf("DetectConflicts() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMergeDeltasConflict(t *testing.T) {
	base := `<div v="0"/>`
	deltaA := mustDelta(t, `<div v="A"/>`, base)
	deltaB := mustDelta(t, `<div v="B"/>`, base)

	merged, conflicts, err := MergeDeltas(base, deltaA, deltaB)
	if err != nil {
		t.Fatalf("MergeDeltas() error = %v", err)
	}
	if len(conflicts) != 1 {
		t.Fatalf("Expected 1 conflict, got %d: %v", len(conflicts), conflicts)
	}
	if conflicts[0].Type != ConflictAttribute {
		t.Errorf("conflict type = %s, want %s", conflicts[0].Type, ConflictAttribute)
	}
	if merged != "" {
		t.Errorf("MergeDeltas() returned %q alongside conflicts", merged)
	}
}

func TestDetectConflictsRejectsPlainDocuments(t *testing.T) {
	_, err := DetectConflicts(`<r/>`, scenarioPatch)
	if !errors.Is(err, ErrStructure) {
		t.Fatalf("DetectConflicts() error = %v, want %v", err, ErrStructure)
	}
}
