package xmldelta

import (
	"github.com/dannyswat/xmldelta/internal/seqdiff"
)

// CompareOption configures how Compare aligns sibling and attribute lists.
type CompareOption = seqdiff.Option

// UseAlgorithm selects the alignment algorithm for Compare and Diff.
func UseAlgorithm(a Algorithm) CompareOption {
	return seqdiff.WithAlgorithm(a)
}

// Diff calculates the patch document that transforms original into modified.
func Diff(original, modified *Element, policy IdentificationPolicy, ns Namespaces, opts ...CompareOption) (*Element, error) {
	root := newPatchRoot(original, modified, ns)
	if err := Compare(original, modified, policy, NewPatchWriter(root, ns), opts...); err != nil {
		return nil, err
	}
	return root, nil
}

// Compare walks original and modified in parallel and reports every difference to ctx. Both
// roots must have the same identity.
func Compare(original, modified *Element, policy IdentificationPolicy, ctx ComparisonContext, opts ...CompareOption) error {
	if a, b := policy.ID(original), policy.ID(modified); a != b {
		return &IdentityMismatchError{Original: a, Modified: b}
	}
	c := comparator{policy: policy, opts: opts}
	c.compare(original, modified, ctx)
	return nil
}

type comparator struct {
	policy IdentificationPolicy
	opts   []seqdiff.Option
}

func (c *comparator) compare(original, modified *Element, ctx ComparisonContext) {
	ctx.SetIdentification(c.policy.SignificantAttributes(modified))
	c.compareAttributes(original, modified, ctx)
	c.compareChildren(original, modified, ctx)
}

func (c *comparator) compareAttributes(original, modified *Element, ctx ComparisonContext) {
	src := sortedAttrs(original)
	dst := sortedAttrs(modified)
	for _, span := range seqdiff.Diff(src, dst, attrKey, c.opts...) {
		switch span.Status {
		case seqdiff.Unchanged:
			for i := range span.Length {
				if src[span.Src+i].Value != dst[span.Dst+i].Value {
					ctx.SetAttribute(dst[span.Dst+i])
				}
			}
		case seqdiff.Replaced:
			for i := range span.Length {
				ctx.RemoveAttribute(src[span.Src+i].Name)
			}
			for i := range span.Length {
				ctx.SetAttribute(dst[span.Dst+i])
			}
		case seqdiff.Deleted:
			for i := range span.Length {
				ctx.RemoveAttribute(src[span.Src+i].Name)
			}
		case seqdiff.Inserted:
			for i := range span.Length {
				ctx.SetAttribute(dst[span.Dst+i])
			}
		}
	}
}

// childSpan is one child of the original (Deleted), of the modified (Inserted) or of both
// (Unchanged). A Deleted and an Inserted span with the same identity are linked as a move.
type childSpan struct {
	status  seqdiff.Status
	src     int
	dst     int
	link    int // Index of the linked span, -1 if none
	claimed bool
}

func (c *comparator) compareChildren(original, modified *Element, ctx ComparisonContext) {
	src, dst := original.Children, modified.Children
	key := elementKey(c.policy)
	spans := unitSpans(seqdiff.Diff(src, dst, key, c.opts...))
	linkMoves(spans, keys(src, key), keys(dst, key))

	for _, s := range spans {
		switch s.status {
		case seqdiff.Unchanged:
			el := dst[s.dst]
			c.compare(src[s.src], el, ctx.ChildContext(el.Name, el.Prefix, el.Decls))

		case seqdiff.Deleted:
			if s.link >= 0 {
				// Emitted with the insertion it is linked to.
				continue
			}
			el := src[s.src]
			child := ctx.ChildContext(el.Name, el.Prefix, el.Decls)
			child.SetIdentification(c.policy.SignificantAttributes(el))
			child.Delete()

		case seqdiff.Inserted:
			el := dst[s.dst]
			child := ctx.ChildContext(el.Name, el.Prefix, el.Decls)
			if s.link < 0 {
				c.insertNode(dst, s.dst, child)
				continue
			}
			// Move: position the original element, then bring it up to date.
			anchor := EndAnchor
			if s.dst+1 < len(dst) {
				anchor = c.anchor(dst[s.dst+1])
			}
			child.SetIdentification(c.policy.SignificantAttributes(el))
			child.SetInsertOption(Before, anchor)
			child.Materialize()
			moved := src[spans[s.link].src]
			c.compareAttributes(moved, el, child)
			c.compareChildren(moved, el, child)
		}
	}
}

// unitSpans expands spans into one childSpan per child. A Replaced span becomes its deletions
// followed by its insertions.
func unitSpans(spans []seqdiff.Span) []childSpan {
	var out []childSpan
	for _, s := range spans {
		switch s.Status {
		case seqdiff.Unchanged:
			for i := range s.Length {
				out = append(out, childSpan{status: seqdiff.Unchanged, src: s.Src + i, dst: s.Dst + i, link: -1})
			}
		case seqdiff.Replaced, seqdiff.Deleted, seqdiff.Inserted:
			if s.Status != seqdiff.Inserted {
				for i := range s.Length {
					out = append(out, childSpan{status: seqdiff.Deleted, src: s.Src + i, dst: -1, link: -1})
				}
			}
			if s.Status != seqdiff.Deleted {
				for i := range s.Length {
					out = append(out, childSpan{status: seqdiff.Inserted, src: -1, dst: s.Dst + i, link: -1})
				}
			}
		}
	}
	return out
}

// linkMoves pairs every insertion with the first earlier unclaimed deletion of the same identity,
// and every deletion with the first earlier unclaimed insertion of the same identity.
func linkMoves(spans []childSpan, srcKeys, dstKeys []string) {
	for i := range spans {
		s := &spans[i]
		var want seqdiff.Status
		var k string
		switch s.status {
		case seqdiff.Inserted:
			want, k = seqdiff.Deleted, dstKeys[s.dst]
		case seqdiff.Deleted:
			want, k = seqdiff.Inserted, srcKeys[s.src]
		default:
			continue
		}
		for j := range i {
			t := &spans[j]
			if t.status != want || t.claimed {
				continue
			}
			if (want == seqdiff.Deleted && srcKeys[t.src] == k) || (want == seqdiff.Inserted && dstKeys[t.dst] == k) {
				s.link, t.link = j, i
				s.claimed, t.claimed = true, true
				break
			}
		}
	}
}

func keys(els []*Element, key func(*Element) string) []string {
	out := make([]string, len(els))
	for i, el := range els {
		out[i] = key(el)
	}
	return out
}

// insertNode records a new element. It is anchored before its next sibling; the last sibling
// is appended and needs no anchor.
func (c *comparator) insertNode(siblings []*Element, index int, ctx ComparisonContext) {
	if index+1 < len(siblings) {
		ctx.SetInsertOption(Before, c.anchor(siblings[index+1]))
	}
	c.appendNode(siblings[index], ctx)
}

func (c *comparator) appendNode(el *Element, ctx ComparisonContext) {
	significant := c.policy.SignificantAttributes(el)
	ctx.SetIdentification(significant)
	ctx.Materialize()
	for _, a := range el.Attrs {
		if !containsAttr(significant, a.Name) {
			ctx.SetAttribute(a)
		}
	}
	for _, child := range el.Children {
		c.appendNode(child, ctx.ChildContext(child.Name, child.Prefix, child.Decls))
	}
}

func (c *comparator) anchor(sibling *Element) string {
	return Predicate(qualified(sibling.Prefix, sibling.Name.Local), c.policy.SignificantAttributes(sibling))
}

func containsAttr(attrs []Attr, name Name) bool {
	for _, a := range attrs {
		if a.Name == name {
			return true
		}
	}
	return false
}
