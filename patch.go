package xmldelta

import "slices"

// IsPatchElement reports whether el is the root of a patch document written with ns.
func IsPatchElement(el *Element, ns Namespaces) bool {
	v, ok := el.Attr(ns.patchName(markerAttr))
	return ok && v == "1"
}

// Merge applies the patch document to base, modifying base in place. The roots must have the same
// identity.
func Merge(base, patch *Element, policy IdentificationPolicy, ns Namespaces) error {
	m := merger{policy: policy, ns: ns}
	if a, b := policy.ID(base), m.identity(patch); a != b {
		return &IdentityMismatchError{Original: a, Modified: b}
	}
	return m.merge(base, patch)
}

type merger struct {
	policy IdentificationPolicy
	ns     Namespaces
}

// pending is a patch child that is placed after all in-place changes of its parent are done.
type pending struct {
	patch    *Element
	id       string
	position InsertPosition
	anchor   string // Empty for an appended element
}

func (m *merger) merge(base, patch *Element) error {
	m.applyAttributes(base, patch)

	// 1. In order: deletions and changes to elements that stay where they are.
	var later []pending
	for _, child := range patch.Children {
		id := m.identity(child)
		if m.deleted(child) {
			if i := m.indexOf(base, id); i >= 0 {
				base.removeChild(i)
			}
			continue
		}
		position, anchor := m.insertOption(child)
		if anchor == "" {
			if i := m.indexOf(base, id); i >= 0 {
				if err := m.merge(base.Children[i], child); err != nil {
					return err
				}
				continue
			}
		}
		later = append(later, pending{patch: child, id: id, position: position, anchor: anchor})
	}

	// 2. In reverse: insertions and moves. An anchor names the next sibling in the modified
	// document, which is either unchanged or was placed in an earlier step of this loop.
	for i := len(later) - 1; i >= 0; i-- {
		p := later[i]
		var target *Element
		if p.anchor != "" {
			if j := m.indexOf(base, p.id); j >= 0 {
				target = base.removeChild(j)
			}
		}
		existing := target != nil
		if !existing {
			target = m.build(p.patch)
		}
		if err := m.place(base, target, p.position, p.anchor); err != nil {
			return err
		}
		if existing {
			if err := m.merge(target, p.patch); err != nil {
				return err
			}
		}
	}
	return nil
}

// applyAttributes removes and sets the attributes the patch element names. Namespaced
// attributes other than the reserved ones are set as they are; for those that identify the
// element this changes nothing.
func (m *merger) applyAttributes(base, patch *Element) {
	if names, ok := patch.Attr(m.ns.patchName(removeAttr)); ok {
		for _, token := range splitNames(names) {
			base.RemoveAttr(parseAttrToken(token))
		}
	}
	m.declareMissing(base, patch)
	for _, a := range patch.Attrs {
		switch a.Name.Space {
		case "", m.ns.Patch:
		case m.ns.Set:
			base.SetAttr(Attr{Name: Name{Local: a.Name.Local}, Value: a.Value})
		default:
			base.SetAttr(a)
		}
	}
}

// declareMissing copies to base the declarations of patch for prefixes base does not declare,
// so that attributes set with those prefixes stay bound.
func (m *merger) declareMissing(base, patch *Element) {
	for _, d := range m.ns.userDecls(patch.Decls) {
		if !slices.ContainsFunc(base.Decls, func(b Namespace) bool { return b.Prefix == d.Prefix }) {
			base.Decls = append(base.Decls, d)
		}
	}
}

// place inserts el into parent next to the sibling matching anchor. Without an anchor, or with
// EndAnchor, el is appended.
func (m *merger) place(parent, el *Element, position InsertPosition, anchor string) error {
	if anchor == "" || anchor == EndAnchor {
		parent.Children = append(parent.Children, el)
		return nil
	}
	i, err := resolveAnchor(parent, anchor)
	if err != nil {
		return &AnchorError{Position: position, Anchor: anchor, Err: err}
	}
	if i < 0 {
		return &AnchorError{Position: position, Anchor: anchor}
	}
	if position == After {
		i++
	}
	parent.insertChild(i, el)
	return nil
}

// build creates a new element from its patch content.
func (m *merger) build(patch *Element) *Element {
	el := &Element{Name: patch.Name, Prefix: patch.Prefix, Decls: m.ns.userDecls(patch.Decls)}
	for _, a := range patch.Attrs {
		switch a.Name.Space {
		case m.ns.Patch:
		case m.ns.Set:
			el.SetAttr(Attr{Name: Name{Local: a.Name.Local}, Value: a.Value})
		default:
			el.SetAttr(a)
		}
	}
	for _, child := range patch.Children {
		if !m.deleted(child) {
			el.Children = append(el.Children, m.build(child))
		}
	}
	return el
}

func (m *merger) insertOption(el *Element) (InsertPosition, string) {
	if v, ok := el.Attr(m.ns.patchName(string(Before))); ok {
		return Before, v
	}
	if v, ok := el.Attr(m.ns.patchName(string(After))); ok {
		return After, v
	}
	return "", ""
}

func (m *merger) deleted(el *Element) bool {
	_, ok := el.Attr(m.ns.patchName(deleteAttr))
	return ok
}

func (m *merger) indexOf(parent *Element, id string) int {
	for i, child := range parent.Children {
		if m.policy.ID(child) == id {
			return i
		}
	}
	return -1
}

// identity computes the identity of a patch element from its identification attributes only.
func (m *merger) identity(patch *Element) string {
	view := &Element{Name: patch.Name, Prefix: patch.Prefix}
	for _, a := range patch.Attrs {
		if !m.ns.reserved(a.Name.Space) {
			view.Attrs = append(view.Attrs, a)
		}
	}
	return m.policy.ID(view)
}
