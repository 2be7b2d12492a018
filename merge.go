package xmldelta

import (
	"fmt"
	"maps"
	"slices"
)

// ApplyLayers applies deltas to base in order, using the default Differ.
func ApplyLayers(base string, deltas ...string) (string, error) {
	return defaultDiffer.ApplyLayers(base, deltas...)
}

// DetectConflicts compares two deltas computed against the same base, using the default Differ.
func DetectConflicts(a, b string) ([]Conflict, error) {
	return defaultDiffer.DetectConflicts(a, b)
}

// MergeDeltas combines two concurrent deltas, using the default Differ.
func MergeDeltas(base, a, b string) (string, []Conflict, error) {
	return defaultDiffer.MergeDeltas(base, a, b)
}

// ApplyLayers applies deltas to base in order. Each delta is applied to the result of the
// previous one, as when a shared layout delta sits on standard values and a per-item delta sits
// on top of both.
func (d *Differ) ApplyLayers(base string, deltas ...string) (string, error) {
	result := base
	for i, delta := range deltas {
		var err error
		result, err = d.ApplyDelta(result, delta)
		if err != nil {
			return "", fmt.Errorf("failed to apply layer %d: %w", i, err)
		}
	}
	return result, nil
}

// MergeDeltas combines two deltas computed against base. If they conflict, the conflicts are
// returned and nothing is merged. Otherwise a is applied first and b on top of it.
func (d *Differ) MergeDeltas(base, a, b string) (string, []Conflict, error) {
	conflicts, err := d.DetectConflicts(a, b)
	if err != nil {
		return "", nil, err
	}
	if len(conflicts) > 0 {
		return "", conflicts, nil
	}
	merged, err := d.ApplyLayers(base, a, b)
	if err != nil {
		return "", nil, err
	}
	return merged, nil, nil
}

// DetectConflicts walks two patch documents computed against the same base and reports where they
// disagree: one attribute set to different values, or set by one and removed by the other; an
// element deleted by one and changed by the other; an element positioned differently by both; an
// element positioned next to a sibling the other one deletes.
func (d *Differ) DetectConflicts(a, b string) ([]Conflict, error) {
	pa, err := d.parsePatch(a)
	if err != nil {
		return nil, err
	}
	pb, err := d.parsePatch(b)
	if err != nil {
		return nil, err
	}

	m := merger{policy: d.policy, ns: d.ns}
	ida, idb := m.identity(pa), m.identity(pb)
	if ida != idb {
		return nil, &IdentityMismatchError{Original: ida, Modified: idb}
	}
	c := conflictDetector{merger: m}
	c.walk(pa, pb, ElementPath{ida})
	return c.conflicts, nil
}

func (d *Differ) parsePatch(text string) (*Element, error) {
	el, err := parse(text, SidePatch)
	if err != nil {
		return nil, err
	}
	if !IsPatchElement(el, d.ns) {
		return nil, &StructureError{Side: SidePatch, Message: "document is not a patch"}
	}
	return el, nil
}

type conflictDetector struct {
	merger
	conflicts []Conflict
}

func (c *conflictDetector) add(typ ConflictType, path ElementPath, format string, args ...any) {
	c.conflicts = append(c.conflicts, Conflict{
		Type:        typ,
		Description: fmt.Sprintf(format, args...),
		Path:        append(ElementPath(nil), path...),
	})
}

// walk compares the instructions of two patch elements for the same base element.
func (c *conflictDetector) walk(a, b *Element, path ElementPath) {
	c.compareAttributes(a, b, path)

	bChildren := make(map[string]*Element, len(b.Children))
	for _, child := range b.Children {
		bChildren[c.identity(child)] = child
	}
	deletedA := c.deletedIDs(a)
	deletedB := c.deletedIDs(b)

	for _, ca := range a.Children {
		id := c.identity(ca)
		childPath := append(path[:len(path):len(path)], id)
		c.checkAnchor(ca, deletedB, childPath)

		cb, ok := bChildren[id]
		if !ok {
			continue
		}
		delA, delB := c.deleted(ca), c.deleted(cb)
		switch {
		case delA && delB:
			// Both delete: idempotent.
			continue
		case delA || delB:
			c.add(ConflictStructure, childPath, "element %s is deleted by one delta and changed by the other", id)
			continue
		}

		posA, anchorA := c.insertOption(ca)
		posB, anchorB := c.insertOption(cb)
		if anchorA != "" && anchorB != "" && (posA != posB || anchorA != anchorB) {
			c.add(ConflictPosition, childPath, "element %s is placed %s %s and %s %s", id, posA, anchorA, posB, anchorB)
		}
		c.walk(ca, cb, childPath)
	}
	for _, cb := range b.Children {
		c.checkAnchor(cb, deletedA, append(path[:len(path):len(path)], c.identity(cb)))
	}
}

func (c *conflictDetector) compareAttributes(a, b *Element, path ElementPath) {
	setA, removedA := c.attributeChanges(a)
	setB, removedB := c.attributeChanges(b)
	for _, name := range slices.Sorted(maps.Keys(setA)) {
		if vb, ok := setB[name]; ok && vb != setA[name] {
			c.add(ConflictAttribute, path, "attribute %s is set to %q and %q", name, setA[name], vb)
		}
		if removedB[name] {
			c.add(ConflictAttribute, path, "attribute %s is set by one delta and removed by the other", name)
		}
	}
	for _, name := range slices.Sorted(maps.Keys(setB)) {
		if removedA[name] {
			c.add(ConflictAttribute, path, "attribute %s is set by one delta and removed by the other", name)
		}
	}
}

func (c *conflictDetector) attributeChanges(el *Element) (map[string]string, map[string]bool) {
	set := make(map[string]string)
	removed := make(map[string]bool)
	for _, a := range el.Attrs {
		switch a.Name.Space {
		case "", c.ns.Patch:
		case c.ns.Set:
			set[a.Name.Local] = a.Value
		default:
			set[attrToken(a.Name)] = a.Value
		}
	}
	if names, ok := el.Attr(c.ns.patchName(removeAttr)); ok {
		for _, token := range splitNames(names) {
			removed[token] = true
		}
	}
	return set, removed
}

// checkAnchor reports an element placed next to a sibling that the other delta deletes.
func (c *conflictDetector) checkAnchor(el *Element, deleted map[string]bool, path ElementPath) {
	if c.deleted(el) {
		return
	}
	position, anchor := c.insertOption(el)
	if anchor != "" && deleted[anchor] {
		c.add(ConflictPosition, path, "element is placed %s %s, which the other delta deletes", position, anchor)
	}
}

func (c *conflictDetector) deletedIDs(el *Element) map[string]bool {
	ids := make(map[string]bool)
	for _, child := range el.Children {
		if c.deleted(child) {
			ids[c.identity(child)] = true
		}
	}
	return ids
}
