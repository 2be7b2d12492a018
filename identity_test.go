package xmldelta

import (
	"testing"
)

func TestAttributePolicy(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "No attributes", input: `<a/>`, want: "a"},
		{name: "Id", input: `<a id="1" v="x"/>`, want: "a[@id='1']"},
		{name: "Declaration order", input: `<a uid="2" x="3" id="1"/>`, want: "a[@uid='2' and @id='1']"},
		{name: "Namespaced element", input: `<x:a xmlns:x="urn:x" id="1"/>`, want: "{urn:x}a[@id='1']"},
		{name: "Namespaced id is not significant", input: `<a xmlns:x="urn:x" x:id="1"/>`, want: "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultPolicy().ID(mustParse(t, tt.input)); got != tt.want {
				t.Errorf("ID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExprPolicy(t *testing.T) {
	tests := []struct {
		name  string
		expr  string
		input string
		want  string
	}{
		{
			name:  "Single attribute",
			expr:  `Attr.Local == "key"`,
			input: `<a id="1" key="k"/>`,
			want:  "a[@key='k']",
		},
		{
			name:  "Per element",
			expr:  `(Element.Local == "li" && Attr.Local == "name") || (Element.Local != "li" && Attr.Local == "id")`,
			input: `<li id="1" name="n"/>`,
			want:  "li[@name='n']",
		},
		{
			name:  "Runtime error leaves the attribute out",
			expr:  `Attr.Local != "v" || int(Attr.Value) > 0`,
			input: `<a id="1" v="x" k="2"/>`,
			want:  "a[@id='1' and @k='2']",
		},
		{
			name:  "Same as default",
			expr:  `Attr.Space == "" && Attr.Local in ["id", "uid"]`,
			input: `<a uid="2" x="3" id="1"/>`,
			want:  "a[@uid='2' and @id='1']",
		},
		{
			name:  "By value",
			expr:  `Attr.Value startsWith "#"`,
			input: `<a x="#1" y="2"/>`,
			want:  "a[@x='#1']",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy, err := NewExprPolicy(tt.expr)
			if err != nil {
				t.Fatalf("NewExprPolicy() error = %v", err)
			}
			if got := policy.ID(mustParse(t, tt.input)); got != tt.want {
				t.Errorf("ID() = %q, want %q", got, tt.want)
			}
			if policy.String() != tt.expr {
				t.Errorf("String() = %q, want %q", policy.String(), tt.expr)
			}
		})
	}
}

func TestExprPolicyErrors(t *testing.T) {
	for _, src := range []string{`Attr.Local ==`, `Attr.Local`, `Attr.Missing == "x"`} {
		if _, err := NewExprPolicy(src); err == nil {
			t.Errorf("NewExprPolicy(%q) error = nil", src)
		}
	}
}

func TestPredicate(t *testing.T) {
	tests := []struct {
		name  string
		qname string
		attrs []Attr
		want  string
	}{
		{name: "No attributes", qname: "a", want: "a"},
		{
			name:  "Qualified element name",
			qname: "x:a",
			attrs: []Attr{{Name: Name{Local: "id"}, Value: "1"}},
			want:  "x:a[@id='1']",
		},
		{
			name:  "Two attributes",
			qname: "r",
			attrs: []Attr{{Name: Name{Local: "uid"}, Value: "1"}, {Name: Name{Local: "ph"}, Value: "main"}},
			want:  "r[@uid='1' and @ph='main']",
		},
		{
			name:  "Prefixed attribute",
			qname: "a",
			attrs: []Attr{{Name: Name{Space: "urn:x", Local: "id"}, Prefix: "x", Value: "1"}},
			want:  "a[@x:id='1']",
		},
		{
			name:  "Apostrophe",
			qname: "a",
			attrs: []Attr{{Name: Name{Local: "id"}, Value: "it's"}},
			want:  `a[@id="it's"]`,
		},
		{
			name:  "Both quotes",
			qname: "a",
			attrs: []Attr{{Name: Name{Local: "id"}, Value: `a'b"c`}},
			want:  `a[@id=concat('a', "'", 'b"c')]`,
		},
		{
			name:  "Both quotes at the edges",
			qname: "a",
			attrs: []Attr{{Name: Name{Local: "id"}, Value: `'"`}},
			want:  `a[@id=concat("'", '"')]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Predicate(tt.qname, tt.attrs); got != tt.want {
				t.Errorf("Predicate() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPredicateResolves(t *testing.T) {
	parent := mustParse(t, `<r xmlns:x="urn:x"><x:a id="x"/><a id="x"/><a id="a'b&quot;c"/><a id="it's"/></r>`)
	for i, child := range parent.Children {
		anchor := Predicate(qualified(child.Prefix, child.Name.Local), DefaultPolicy().SignificantAttributes(child))
		got, err := resolveAnchor(parent, anchor)
		if err != nil {
			t.Fatalf("resolveAnchor(%s) error = %v", anchor, err)
		}
		if got != i {
			t.Errorf("resolveAnchor(%s) = %d, want %d", anchor, got, i)
		}
	}
}
