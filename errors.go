package xmldelta

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every error returned by this package for one of these conditions matches the
// sentinel with errors.Is.
var (
	// ErrParse indicates input text that is not well-formed markup.
	ErrParse = errors.New("parse error")
	// ErrStructure indicates a document without a root element.
	ErrStructure = errors.New("structure error")
	// ErrIdentityMismatch indicates two root elements that do not describe the same element.
	ErrIdentityMismatch = errors.New("identity mismatch")
	// ErrAnchorUnresolved indicates an insertion anchor that matches no sibling.
	ErrAnchorUnresolved = errors.New("anchor unresolved")
)

// Side names the input a failure refers to.
type Side string

const (
	SideOriginal Side = "original"
	SideModified Side = "modified"
	SideBase     Side = "base"
	SidePatch    Side = "patch"
)

// ParseError reports input that could not be parsed.
type ParseError struct {
	Side Side
	Err  error
}

func (e *ParseError) Error() string {
	if e.Side == "" {
		return fmt.Sprintf("failed to parse document: %v", e.Err)
	}
	return fmt.Sprintf("failed to parse %s document: %v", e.Side, e.Err)
}

func (e *ParseError) Unwrap() error        { return e.Err }
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// StructureError reports a parsed document that cannot be used, such as one with no root element.
type StructureError struct {
	Side    Side
	Message string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("%s document: %s", e.Side, e.Message)
}

func (e *StructureError) Is(target error) bool { return target == ErrStructure }

// IdentityMismatchError reports root elements with different identity keys.
type IdentityMismatchError struct {
	Original string
	Modified string
}

func (e *IdentityMismatchError) Error() string {
	return fmt.Sprintf("can't start with unequal nodes: %q vs %q", e.Original, e.Modified)
}

func (e *IdentityMismatchError) Is(target error) bool { return target == ErrIdentityMismatch }

// AnchorError reports an insertion whose anchor predicate could not be resolved.
type AnchorError struct {
	Position InsertPosition
	Anchor   string
	Err      error // Set when the predicate itself is invalid
}

func (e *AnchorError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid anchor %s %q: %v", e.Position, e.Anchor, e.Err)
	}
	return fmt.Sprintf("no sibling matches anchor %s %q", e.Position, e.Anchor)
}

func (e *AnchorError) Unwrap() error        { return e.Err }
func (e *AnchorError) Is(target error) bool { return target == ErrAnchorUnresolved }
