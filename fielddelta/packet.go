package fielddelta

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
)

// Entry is one field value of a save packet.
type Entry struct {
	ItemID   string
	Language string
	Version  int
	FieldID  string
	Value    string
}

// Packet collects the field values of one save operation. Its XML form is
//
//	<fields><field itemid="…" language="…" version="…" fieldid="…"><value>…</value></field></fields>
type Packet struct {
	Entries []Entry
}

// Add appends an entry, replacing an earlier entry for the same item version and field.
func (p *Packet) Add(e Entry) {
	for i, old := range p.Entries {
		if old.ItemID == e.ItemID && old.Language == e.Language && old.Version == e.Version && old.FieldID == e.FieldID {
			p.Entries[i] = e
			return
		}
	}
	p.Entries = append(p.Entries, e)
}

// Find returns the entry for a field of an item, in any language or version.
func (p *Packet) Find(itemID, fieldID string) (Entry, bool) {
	for _, e := range p.Entries {
		if e.ItemID == itemID && e.FieldID == fieldID {
			return e, true
		}
	}
	return Entry{}, false
}

// XML renders the packet.
func (p *Packet) XML() string {
	doc := &xmlquery.Node{Type: xmlquery.DocumentNode}
	root := &xmlquery.Node{Type: xmlquery.ElementNode, Data: "fields"}
	xmlquery.AddChild(doc, root)
	for _, e := range p.Entries {
		field := &xmlquery.Node{Type: xmlquery.ElementNode, Data: "field"}
		xmlquery.AddAttr(field, "itemid", e.ItemID)
		xmlquery.AddAttr(field, "language", e.Language)
		xmlquery.AddAttr(field, "version", strconv.Itoa(e.Version))
		xmlquery.AddAttr(field, "fieldid", e.FieldID)
		value := &xmlquery.Node{Type: xmlquery.ElementNode, Data: "value"}
		xmlquery.AddChild(value, &xmlquery.Node{Type: xmlquery.TextNode, Data: e.Value})
		xmlquery.AddChild(field, value)
		xmlquery.AddChild(root, field)
	}
	return root.OutputXML(true)
}

// ParsePacket reads the XML form of a packet.
func ParsePacket(text string) (*Packet, error) {
	doc, err := xmlquery.Parse(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("parsing packet: %w", err)
	}
	fields, err := xmlquery.QueryAll(doc, "/fields/field")
	if err != nil {
		return nil, fmt.Errorf("querying packet: %w", err)
	}

	p := &Packet{}
	for _, n := range fields {
		version, err := strconv.Atoi(n.SelectAttr("version"))
		if err != nil {
			return nil, fmt.Errorf("field %s of item %s: invalid version: %w", n.SelectAttr("fieldid"), n.SelectAttr("itemid"), err)
		}
		var value string
		if v := xmlquery.FindOne(n, "value"); v != nil {
			value = v.InnerText()
		}
		p.Entries = append(p.Entries, Entry{
			ItemID:   n.SelectAttr("itemid"),
			Language: n.SelectAttr("language"),
			Version:  version,
			FieldID:  n.SelectAttr("fieldid"),
			Value:    value,
		})
	}
	return p, nil
}
