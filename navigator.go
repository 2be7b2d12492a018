package xmldelta

import (
	"github.com/antchfx/xpath"
)

// elementNavigator implements xpath.NodeNavigator over an Element tree. A virtual document node
// sits above top; elements have no text content.
type elementNavigator struct {
	top   *Element
	stack []navFrame // Path from top to the current element, empty at the document node
	attr  int        // Index of the current attribute, -1 when on an element
}

type navFrame struct {
	el    *Element
	index int // Position among the parent's children
}

var _ xpath.NodeNavigator = (*elementNavigator)(nil)

// newNavigator returns a navigator positioned on el, which is also the top of the navigable tree.
func newNavigator(el *Element) *elementNavigator {
	return &elementNavigator{top: el, stack: []navFrame{{el: el}}, attr: -1}
}

func (n *elementNavigator) current() *Element {
	return n.stack[len(n.stack)-1].el
}

// depth is 0 on the document node, 1 on top and 2 on its children.
func (n *elementNavigator) depth() int { return len(n.stack) }

// childIndex is the position of the current element among its siblings.
func (n *elementNavigator) childIndex() int { return n.stack[len(n.stack)-1].index }

func (n *elementNavigator) NodeType() xpath.NodeType {
	switch {
	case len(n.stack) == 0:
		return xpath.RootNode
	case n.attr >= 0:
		return xpath.AttributeNode
	}
	return xpath.ElementNode
}

func (n *elementNavigator) LocalName() string {
	switch {
	case len(n.stack) == 0:
		return ""
	case n.attr >= 0:
		return n.current().Attrs[n.attr].Name.Local
	}
	return n.current().Name.Local
}

func (n *elementNavigator) Prefix() string {
	switch {
	case len(n.stack) == 0:
		return ""
	case n.attr >= 0:
		return n.current().Attrs[n.attr].Prefix
	}
	return n.current().Prefix
}

func (n *elementNavigator) NamespaceURL() string {
	switch {
	case len(n.stack) == 0:
		return ""
	case n.attr >= 0:
		return n.current().Attrs[n.attr].Name.Space
	}
	return n.current().Name.Space
}

func (n *elementNavigator) Value() string {
	if len(n.stack) > 0 && n.attr >= 0 {
		return n.current().Attrs[n.attr].Value
	}
	return ""
}

func (n *elementNavigator) Copy() xpath.NodeNavigator {
	c := *n
	c.stack = append([]navFrame(nil), n.stack...)
	return &c
}

func (n *elementNavigator) MoveToRoot() {
	n.stack = n.stack[:0]
	n.attr = -1
}

func (n *elementNavigator) MoveToParent() bool {
	if n.attr >= 0 {
		n.attr = -1
		return true
	}
	if len(n.stack) == 0 {
		return false
	}
	n.stack = n.stack[:len(n.stack)-1]
	return true
}

func (n *elementNavigator) MoveToNextAttribute() bool {
	if len(n.stack) == 0 || n.attr+1 >= len(n.current().Attrs) {
		return false
	}
	n.attr++
	return true
}

func (n *elementNavigator) MoveToChild() bool {
	if n.attr >= 0 {
		return false
	}
	if len(n.stack) == 0 {
		n.stack = append(n.stack, navFrame{el: n.top})
		return true
	}
	cur := n.current()
	if len(cur.Children) == 0 {
		return false
	}
	n.stack = append(n.stack, navFrame{el: cur.Children[0]})
	return true
}

func (n *elementNavigator) MoveToFirst() bool {
	return n.moveToSibling(func(int) int { return 0 })
}

func (n *elementNavigator) MoveToNext() bool {
	return n.moveToSibling(func(i int) int { return i + 1 })
}

func (n *elementNavigator) MoveToPrevious() bool {
	return n.moveToSibling(func(i int) int { return i - 1 })
}

func (n *elementNavigator) moveToSibling(next func(int) int) bool {
	if n.attr >= 0 || len(n.stack) < 2 {
		return false
	}
	parent := n.stack[len(n.stack)-2].el
	i := next(n.childIndex())
	if i < 0 || i >= len(parent.Children) {
		return false
	}
	n.stack[len(n.stack)-1] = navFrame{el: parent.Children[i], index: i}
	return true
}

func (n *elementNavigator) MoveTo(other xpath.NodeNavigator) bool {
	o, ok := other.(*elementNavigator)
	if !ok || o.top != n.top {
		return false
	}
	n.stack = append(n.stack[:0], o.stack...)
	n.attr = o.attr
	return true
}

func (n *elementNavigator) String() string {
	if len(n.stack) == 0 {
		return ""
	}
	return Render(n.current())
}

// resolveAnchor evaluates a single step predicate against the children of parent and returns the
// index of the first match, or -1.
func resolveAnchor(parent *Element, anchor string) (int, error) {
	expr, err := xpath.Compile(anchor)
	if err != nil {
		return -1, err
	}
	iter := expr.Select(newNavigator(parent))
	for iter.MoveNext() {
		if n, ok := iter.Current().(*elementNavigator); ok && n.depth() == 2 && n.attr < 0 {
			return n.childIndex(), nil
		}
	}
	return -1, nil
}
