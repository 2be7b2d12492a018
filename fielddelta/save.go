package fielddelta

import (
	"fmt"
)

// LayoutFieldID identifies the layout field of an item.
const LayoutFieldID = "{F1A1FE9E-A60C-4DDB-A3A0-BB5B29FE732E}"

// Item is the item version being saved.
type Item struct {
	ID        string
	Name      string
	Language  string
	Version   int
	CanDesign bool // The editor may change the item's layout
}

// EditedField is a field value submitted by the editor.
type EditedField struct {
	ItemID  string
	FieldID string
	Value   string
}

// SaveRequest is one save command of the editor.
type SaveRequest struct {
	Item   Item
	Fields []EditedField
	// Layout is the edited layout document, empty when the layout was not changed.
	Layout string
}

// SaveHost is implemented by the content store the editor saves into.
type SaveHost interface {
	// CreatePacket builds the save packet for the edited fields and returns the ids of the fields
	// that need validation.
	CreatePacket(item Item, fields []EditedField) (*Packet, []string, error)
	// Validate runs the validators of the given fields.
	Validate(item Item, fieldIDs []string) error
	// StandardValue returns the standard value of a field of item.
	StandardValue(item Item, fieldID string) (string, error)
}

// Save runs the save workflow: the host creates the packet, the edited layout is added to it as
// a delta and the host validates the result.
func Save(host SaveHost, codec *Codec, req SaveRequest) (*Packet, error) {
	packet, toValidate, err := host.CreatePacket(req.Item, req.Fields)
	if err != nil {
		return nil, fmt.Errorf("creating packet: %w", err)
	}
	if req.Item.CanDesign {
		if err := addLayoutField(host, codec, packet, req.Item, req.Layout); err != nil {
			return nil, err
		}
	}
	if err := host.Validate(req.Item, toValidate); err != nil {
		return nil, fmt.Errorf("validating %s: %w", req.Item.Name, err)
	}
	return packet, nil
}

func addLayoutField(host SaveHost, codec *Codec, packet *Packet, item Item, layout string) error {
	if layout == "" {
		return nil
	}
	standard, err := host.StandardValue(item, LayoutFieldID)
	if err != nil {
		return fmt.Errorf("reading standard layout of %s: %w", item.Name, err)
	}
	value, err := codec.Encode(item.Name, layout, standard)
	if err != nil {
		return err
	}
	packet.Add(Entry{
		ItemID:   item.ID,
		Language: item.Language,
		Version:  item.Version,
		FieldID:  LayoutFieldID,
		Value:    value,
	})
	return nil
}
