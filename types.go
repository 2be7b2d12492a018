package xmldelta

// Name is a qualified name. Space holds the namespace URI.
type Name struct {
	Space string
	Local string
}

// Attr is an attribute of an element.
type Attr struct {
	Name   Name
	Prefix string // Prefix used in the source document, if any
	Value  string
}

// Namespace is an xmlns declaration carried by an element. Prefix is empty for the default
// namespace.
type Namespace struct {
	Prefix string
	URI    string
}

// Element is a node of a document tree. Attribute order is preserved for output but carries no
// meaning for comparison; child order is significant.
type Element struct {
	Name     Name
	Prefix   string
	Attrs    []Attr
	Decls    []Namespace
	Children []*Element
}

// InsertPosition says on which side of the anchor sibling an element is placed.
type InsertPosition string

const (
	Before InsertPosition = "before"
	After  InsertPosition = "after"
)

// Conflict describes two deltas, computed against the same base, that disagree about one element.
type Conflict struct {
	Type        ConflictType `json:"type"`
	Description string       `json:"description"`
	Path        ElementPath  `json:"path"` // Identity keys from the root down to the element
}

// ConflictType classifies a Conflict.
type ConflictType string

const (
	ConflictAttribute ConflictType = "Attribute" // Both deltas set one attribute to different values
	ConflictStructure ConflictType = "Structure" // One delta deletes an element the other changes
	ConflictPosition  ConflictType = "Position"  // Both deltas move one element to different places
)

// ElementPath lists identity keys from the root element down to a target element.
type ElementPath []string
