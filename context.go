package xmldelta

import "strings"

// Namespaces holds the two reserved tokens of a patch document. Each token is used as both the
// prefix and the namespace URI.
type Namespaces struct {
	Patch string // Structural instructions: patch marker, deletion, insertion anchors
	Set   string // Attribute values to set
}

// DefaultNamespaces returns the p/s pair.
func DefaultNamespaces() Namespaces {
	return Namespaces{Patch: "p", Set: "s"}
}

func (ns Namespaces) reserved(space string) bool {
	return space == ns.Patch || space == ns.Set
}

func (ns Namespaces) patchName(local string) Name {
	return Name{Space: ns.Patch, Local: local}
}

// Local names of structural instructions in the patch namespace.
const (
	markerAttr = "p"      // On the root: the document is a patch
	deleteAttr = "d"      // The element is removed
	removeAttr = "remove" // Space separated names of attributes to remove
)

// EndAnchor is the anchor of an element moved behind its last sibling. It matches no element.
const EndAnchor = "*[1=2]"

// ComparisonContext receives the changes found by Compare for one element of the modified
// document.
type ComparisonContext interface {
	// SetIdentification records the attributes that identify the element.
	SetIdentification(attrs []Attr)
	// SetAttribute records a new attribute value.
	SetAttribute(attr Attr)
	// RemoveAttribute records that an attribute no longer exists.
	RemoveAttribute(name Name)
	// Delete records that the element was removed. Later instructions for it are ignored.
	Delete()
	// SetInsertOption records where an inserted or moved element goes.
	SetInsertOption(position InsertPosition, anchor string)
	// Materialize makes sure the element is recorded even if nothing else is.
	Materialize()
	// ChildContext returns a context for a child element carrying the given namespace
	// declarations.
	ChildContext(name Name, prefix string, decls []Namespace) ComparisonContext
}

// PatchWriter is a ComparisonContext that builds a patch document. A child element is added to
// the patch only once something is recorded for it or for one of its descendants, so unchanged
// subtrees leave no trace.
type PatchWriter struct {
	ns       Namespaces
	parent   *PatchWriter
	name     Name
	prefix   string
	decls    []Namespace
	element  *Element
	ident    []Attr
	position InsertPosition
	anchor   string
	deleted  bool
}

// NewPatchWriter returns a writer that records changes on root.
func NewPatchWriter(root *Element, ns Namespaces) *PatchWriter {
	return &PatchWriter{ns: ns, name: root.Name, prefix: root.Prefix, element: root}
}

// Element returns the patch element of this context, or nil if nothing was recorded.
func (w *PatchWriter) Element() *Element { return w.element }

func (w *PatchWriter) SetIdentification(attrs []Attr) {
	w.ident = append([]Attr(nil), attrs...)
	if w.element != nil {
		for _, a := range w.ident {
			w.element.SetAttr(a)
		}
	}
}

// SetAttribute records a set instruction. An un-namespaced attribute is written in the set
// namespace; a namespaced one keeps its own name.
func (w *PatchWriter) SetAttribute(attr Attr) {
	if w.suppressed() {
		return
	}
	if attr.Name.Space != "" {
		w.ensure().SetAttr(attr)
		return
	}
	w.ensure().SetAttr(Attr{
		Name:   Name{Space: w.ns.Set, Local: attr.Name.Local},
		Prefix: w.ns.Set,
		Value:  attr.Value,
	})
}

func (w *PatchWriter) RemoveAttribute(name Name) {
	if w.suppressed() {
		return
	}
	el := w.ensure()
	names, ok := el.Attr(w.ns.patchName(removeAttr))
	if ok && names != "" {
		names += " "
	}
	el.SetAttr(w.patchAttr(removeAttr, names+attrToken(name)))
}

func (w *PatchWriter) Delete() {
	if w.suppressed() {
		return
	}
	w.ensure().SetAttr(w.patchAttr(deleteAttr, "1"))
	w.deleted = true
}

func (w *PatchWriter) SetInsertOption(position InsertPosition, anchor string) {
	w.position = position
	w.anchor = anchor
	if w.element != nil {
		w.element.SetAttr(w.patchAttr(string(position), anchor))
	}
}

func (w *PatchWriter) Materialize() {
	if w.suppressed() {
		return
	}
	w.ensure()
}

func (w *PatchWriter) ChildContext(name Name, prefix string, decls []Namespace) ComparisonContext {
	return &PatchWriter{ns: w.ns, parent: w, name: name, prefix: prefix, decls: decls}
}

func (w *PatchWriter) ensure() *Element {
	if w.element != nil {
		return w.element
	}
	parent := w.parent.ensure()
	el := &Element{Name: w.name, Prefix: w.prefix, Decls: w.ns.userDecls(w.decls)}
	el.Attrs = append(el.Attrs, w.ident...)
	if w.position != "" {
		el.Attrs = append(el.Attrs, w.patchAttr(string(w.position), w.anchor))
	}
	parent.Children = append(parent.Children, el)
	w.element = el
	return el
}

func (w *PatchWriter) suppressed() bool {
	for c := w; c != nil; c = c.parent {
		if c.deleted {
			return true
		}
	}
	return false
}

func (w *PatchWriter) patchAttr(local, value string) Attr {
	return Attr{Name: w.ns.patchName(local), Prefix: w.ns.Patch, Value: value}
}

// newPatchRoot creates the root of a patch document for a comparison of original and modified.
// It carries the declarations of the modified root, which its descendants may rely on.
func newPatchRoot(original, modified *Element, ns Namespaces) *Element {
	root := &Element{Name: original.Name, Prefix: modified.Prefix, Decls: ns.userDecls(modified.Decls)}
	root.Decls = append(root.Decls, Namespace{Prefix: ns.Patch, URI: ns.Patch}, Namespace{Prefix: ns.Set, URI: ns.Set})
	root.Attrs = append(root.Attrs, Attr{Name: ns.patchName(markerAttr), Prefix: ns.Patch, Value: "1"})
	return root
}

// userDecls returns decls without the declarations of the reserved prefixes.
func (ns Namespaces) userDecls(decls []Namespace) []Namespace {
	var out []Namespace
	for _, d := range decls {
		if d.Prefix == "" || !ns.reserved(d.Prefix) {
			out = append(out, d)
		}
	}
	return out
}

// attrToken names an attribute in a p:remove list: the local name, or {uri}local for a
// namespaced attribute.
func attrToken(name Name) string {
	if name.Space == "" {
		return name.Local
	}
	return "{" + name.Space + "}" + name.Local
}

// parseAttrToken reverses attrToken.
func parseAttrToken(token string) Name {
	if strings.HasPrefix(token, "{") {
		if end := strings.IndexByte(token, '}'); end > 0 {
			return Name{Space: token[1:end], Local: token[end+1:]}
		}
	}
	return Name{Local: token}
}

// splitNames splits a p:remove value.
func splitNames(s string) []string {
	return strings.Fields(s)
}
