package xmldelta

import (
	"cmp"
	"slices"
)

// sortedAttrs returns the attributes of el ordered by qualified name, so that attribute
// alignment does not depend on declaration order.
func sortedAttrs(el *Element) []Attr {
	attrs := slices.Clone(el.Attrs)
	slices.SortStableFunc(attrs, func(a, b Attr) int {
		return cmp.Compare(attrKey(a), attrKey(b))
	})
	return attrs
}

// attrKey compares attributes by qualified name only. A value change keeps the attribute aligned
// with its previous version and is handled as an overwrite.
func attrKey(a Attr) string {
	return a.Name.Space + ":" + a.Name.Local
}

// elementKey compares elements by identity.
func elementKey(policy IdentificationPolicy) func(*Element) string {
	return policy.ID
}
