// Package fielddelta stores XML field values of content items as deltas against the standard
// value of their template, and resolves them back when a field is read.
//
// An item named [StandardValuesItem] holds the template's standard values; its fields are always
// stored as full documents. Every other item stores a patch document computed against the
// standard value, so a change to the standard values flows into every item that did not override
// the changed part.
package fielddelta

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/dannyswat/xmldelta"
)

// StandardValuesItem is the name of the item that holds a template's standard values.
const StandardValuesItem = "__Standard Values"

// Field is one XML field of one item version.
type Field interface {
	// ItemName is the name of the owning item.
	ItemName() string
	// Value is the value stored on the item itself, empty when the item does not set it.
	Value() string
	// StandardValue is the value of the same field on the template's standard values item.
	StandardValue() string
	// SetValue stores a value on the item.
	SetValue(value string) error
}

// BaseValueFunc returns the document a stored delta is applied to.
type BaseValueFunc func(Field) string

// StandardValue is a BaseValueFunc returning the field's standard value.
func StandardValue(f Field) string {
	return f.StandardValue()
}

// WithEmptyValue returns a BaseValueFunc that returns the standard value, or empty when the
// standard value is blank. empty is the markup of an empty document for the field.
func WithEmptyValue(empty string) BaseValueFunc {
	return func(f Field) string {
		if v := f.StandardValue(); strings.TrimSpace(v) != "" {
			return v
		}
		return empty
	}
}

// Codec converts between full field values and stored deltas.
type Codec struct {
	differ *xmldelta.Differ
	logger *slog.Logger
}

// NewCodec returns a Codec using differ. A nil differ selects the default configuration and a
// nil logger discards output.
func NewCodec(differ *xmldelta.Differ, logger *slog.Logger) *Codec {
	if differ == nil {
		differ = xmldelta.New()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Codec{differ: differ, logger: logger}
}

// Value returns the full value of f. A stored delta is applied to the document returned by base;
// a stored full document is returned as is; a field the item does not set falls back to the
// standard value.
func (c *Codec) Value(f Field, base BaseValueFunc) (string, error) {
	if base == nil {
		base = StandardValue
	}
	raw := f.Value()
	if raw == "" {
		return f.StandardValue(), nil
	}
	if !c.differ.IsPatch(raw) {
		return raw, nil
	}
	value, err := c.differ.ApplyDelta(base(f), raw)
	if err != nil {
		return "", fmt.Errorf("applying delta of %s: %w", f.ItemName(), err)
	}
	return value, nil
}

// Store saves value on f. The standard values item stores it as is; other items store the delta
// against the standard value.
func (c *Codec) Store(f Field, value string) error {
	stored, err := c.Encode(f.ItemName(), value, f.StandardValue())
	if err != nil {
		return err
	}
	return f.SetValue(stored)
}

// Encode returns what an item named itemName stores for value when its standard value is
// standard.
func (c *Codec) Encode(itemName, value, standard string) (string, error) {
	if itemName == StandardValuesItem {
		return value, nil
	}
	delta, err := c.differ.GetDelta(value, standard)
	if err != nil {
		return "", fmt.Errorf("computing delta of %s: %w", itemName, err)
	}
	if delta == value {
		c.logger.Debug("storing full value", "item", itemName)
	}
	return delta, nil
}
