package xmldelta

import (
	"strings"

	"github.com/antchfx/xmlquery"
)

const xmlNamespaceURI = "http://www.w3.org/XML/1998/namespace"

// Parse parses a string into an element tree and returns its root element. Only elements and
// attributes are kept; text, comments and processing instructions are dropped.
func Parse(content string) (*Element, error) {
	return parse(content, "")
}

func parse(content string, side Side) (*Element, error) {
	if !hasStartTag(content) {
		return nil, &StructureError{Side: side, Message: "root element is missing"}
	}
	doc, err := xmlquery.Parse(strings.NewReader(content))
	if err != nil {
		return nil, &ParseError{Side: side, Err: err}
	}
	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			return fromNode(n), nil
		}
	}
	return nil, &StructureError{Side: side, Message: "root element is missing"}
}

// hasStartTag reports whether content contains markup that can open an element, as opposed to
// only text, comments, processing instructions or declarations.
func hasStartTag(content string) bool {
	for i := strings.IndexByte(content, '<'); i >= 0 && i+1 < len(content); {
		switch content[i+1] {
		case '!', '?', '/', ' ', '\t', '\r', '\n':
		default:
			return true
		}
		next := strings.IndexByte(content[i+1:], '<')
		if next < 0 {
			break
		}
		i += 1 + next
	}
	return false
}

func fromNode(n *xmlquery.Node) *Element {
	el := &Element{
		Name:   Name{Space: n.NamespaceURI, Local: n.Data},
		Prefix: n.Prefix,
	}
	for _, a := range n.Attr {
		switch {
		case a.Name.Space == "xmlns":
			el.Decls = append(el.Decls, Namespace{Prefix: a.Name.Local, URI: a.Value})
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			el.Decls = append(el.Decls, Namespace{URI: a.Value})
		default:
			prefix := a.Name.Space
			if a.NamespaceURI == xmlNamespaceURI {
				prefix = "xml"
			}
			el.Attrs = append(el.Attrs, Attr{
				Name:   Name{Space: a.NamespaceURI, Local: a.Name.Local},
				Prefix: prefix,
				Value:  a.Value,
			})
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			el.Children = append(el.Children, fromNode(c))
		}
	}
	return el
}

// Render converts an element tree back to a string.
func Render(el *Element) string {
	var b strings.Builder
	writeElement(&b, el, "", 0)
	return b.String()
}

// RenderIndent converts an element tree to a string with one element per line, nested elements
// indented by indent.
func RenderIndent(el *Element, indent string) string {
	var b strings.Builder
	writeElement(&b, el, indent, 0)
	return b.String()
}

func writeElement(b *strings.Builder, el *Element, indent string, depth int) {
	if indent != "" && depth > 0 {
		b.WriteByte('\n')
		b.WriteString(strings.Repeat(indent, depth))
	}
	b.WriteByte('<')
	b.WriteString(qualified(el.Prefix, el.Name.Local))
	for _, ns := range el.Decls {
		b.WriteString(" xmlns")
		if ns.Prefix != "" {
			b.WriteByte(':')
			b.WriteString(ns.Prefix)
		}
		b.WriteString(`="`)
		b.WriteString(attrEscaper.Replace(ns.URI))
		b.WriteByte('"')
	}
	for _, a := range el.Attrs {
		b.WriteByte(' ')
		b.WriteString(qualified(a.Prefix, a.Name.Local))
		b.WriteString(`="`)
		b.WriteString(attrEscaper.Replace(a.Value))
		b.WriteByte('"')
	}
	if len(el.Children) == 0 {
		b.WriteString("/>")
		return
	}
	b.WriteByte('>')
	for _, c := range el.Children {
		writeElement(b, c, indent, depth+1)
	}
	if indent != "" {
		b.WriteByte('\n')
		b.WriteString(strings.Repeat(indent, depth))
	}
	b.WriteString("</")
	b.WriteString(qualified(el.Prefix, el.Name.Local))
	b.WriteByte('>')
}

var attrEscaper = strings.NewReplacer(
	`&`, "&amp;",
	`<`, "&lt;",
	`>`, "&gt;",
	`"`, "&quot;",
	"\t", "&#x9;",
	"\n", "&#xA;",
	"\r", "&#xD;",
)

func qualified(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

// Clone returns a deep copy of the element and its descendants.
func (e *Element) Clone() *Element {
	c := &Element{
		Name:   e.Name,
		Prefix: e.Prefix,
		Attrs:  append([]Attr(nil), e.Attrs...),
		Decls:  append([]Namespace(nil), e.Decls...),
	}
	if len(e.Children) > 0 {
		c.Children = make([]*Element, len(e.Children))
		for i, child := range e.Children {
			c.Children[i] = child.Clone()
		}
	}
	return c
}

// Attr returns the value of the attribute with the given name.
func (e *Element) Attr(name Name) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr overwrites the attribute with the same name or appends a new one.
func (e *Element) SetAttr(attr Attr) {
	for i, a := range e.Attrs {
		if a.Name == attr.Name {
			e.Attrs[i].Value = attr.Value
			return
		}
	}
	e.Attrs = append(e.Attrs, attr)
}

// RemoveAttr removes the attribute with the given name and reports whether it was present.
func (e *Element) RemoveAttr(name Name) bool {
	for i, a := range e.Attrs {
		if a.Name == name {
			e.Attrs = append(e.Attrs[:i], e.Attrs[i+1:]...)
			return true
		}
	}
	return false
}

func (e *Element) insertChild(index int, child *Element) {
	e.Children = append(e.Children, nil)
	copy(e.Children[index+1:], e.Children[index:])
	e.Children[index] = child
}

func (e *Element) removeChild(index int) *Element {
	child := e.Children[index]
	e.Children = append(e.Children[:index], e.Children[index+1:]...)
	return child
}
