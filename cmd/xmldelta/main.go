// Command xmldelta computes, applies and combines structural deltas of XML documents, and manages
// a field store that keeps item fields as deltas of their template's standard values.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"

	"github.com/dannyswat/xmldelta"
	"github.com/dannyswat/xmldelta/fielddelta"
	"github.com/dannyswat/xmldelta/fieldstore"
)

// CLI defines the command-line interface.
type CLI struct {
	Config    string `short:"c" help:"YAML configuration file" type:"existingfile"`
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" help:"Log format (text, json)"`
	Color     string `help:"Color output" enum:"auto,always,never" default:"auto"`
	Pretty    bool   `help:"Print documents one element per line"`

	Diff      DiffCmd      `cmd:"" help:"Compute the delta that turns a base document into a modified one"`
	Apply     ApplyCmd     `cmd:"" help:"Apply a delta to a base document"`
	Layers    LayersCmd    `cmd:"" help:"Apply deltas to a base document in order"`
	Conflicts ConflictsCmd `cmd:"" help:"Report conflicts between two deltas of one base"`
	Merge     MergeCmd     `cmd:"" help:"Combine two deltas of one base"`
	Store     StoreGroup   `cmd:"" help:"Field store operations"`
}

// app is bound to every command's Run method.
type app struct {
	ctx    context.Context
	differ *xmldelta.Differ
	logger *slog.Logger
	out    *printer
}

func readDocument(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return xmldelta.DecodeText(data)
}

// DiffCmd prints the delta between two documents.
type DiffCmd struct {
	Base     string `arg:"" help:"Base document" type:"existingfile"`
	Modified string `arg:"" help:"Modified document" type:"existingfile"`
}

func (c *DiffCmd) Run(a *app) error {
	base, err := readDocument(c.Base)
	if err != nil {
		return err
	}
	modified, err := readDocument(c.Modified)
	if err != nil {
		return err
	}
	delta, err := a.differ.GetDelta(modified, base)
	if err != nil {
		return err
	}
	return a.out.document(delta)
}

// ApplyCmd prints a base document with a delta applied.
type ApplyCmd struct {
	Base  string `arg:"" help:"Base document" type:"existingfile"`
	Delta string `arg:"" help:"Delta document" type:"existingfile"`
}

func (c *ApplyCmd) Run(a *app) error {
	base, err := readDocument(c.Base)
	if err != nil {
		return err
	}
	delta, err := readDocument(c.Delta)
	if err != nil {
		return err
	}
	merged, err := a.differ.ApplyDelta(base, delta)
	if err != nil {
		return err
	}
	return a.out.document(merged)
}

// LayersCmd applies a stack of deltas.
type LayersCmd struct {
	Base   string   `arg:"" help:"Base document" type:"existingfile"`
	Deltas []string `arg:"" help:"Delta documents, lowest layer first"`
}

func (c *LayersCmd) Run(a *app) error {
	base, err := readDocument(c.Base)
	if err != nil {
		return err
	}
	deltas := make([]string, len(c.Deltas))
	for i, path := range c.Deltas {
		if deltas[i], err = readDocument(path); err != nil {
			return err
		}
	}
	merged, err := a.differ.ApplyLayers(base, deltas...)
	if err != nil {
		return err
	}
	return a.out.document(merged)
}

// ConflictsCmd reports conflicts between two deltas and fails when there are any.
type ConflictsCmd struct {
	A string `arg:"" help:"First delta" type:"existingfile"`
	B string `arg:"" help:"Second delta" type:"existingfile"`
}

func (c *ConflictsCmd) Run(a *app) error {
	da, err := readDocument(c.A)
	if err != nil {
		return err
	}
	db, err := readDocument(c.B)
	if err != nil {
		return err
	}
	conflicts, err := a.differ.DetectConflicts(da, db)
	if err != nil {
		return err
	}
	if err := a.out.conflicts(conflicts); err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return fmt.Errorf("%d conflicts", len(conflicts))
	}
	return nil
}

// MergeCmd prints the base with both deltas applied, unless they conflict.
type MergeCmd struct {
	Base string `arg:"" help:"Base document" type:"existingfile"`
	A    string `arg:"" help:"First delta" type:"existingfile"`
	B    string `arg:"" help:"Second delta" type:"existingfile"`
}

func (c *MergeCmd) Run(a *app) error {
	var docs [3]string
	for i, path := range []string{c.Base, c.A, c.B} {
		var err error
		if docs[i], err = readDocument(path); err != nil {
			return err
		}
	}
	merged, conflicts, err := a.differ.MergeDeltas(docs[0], docs[1], docs[2])
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		if err := a.out.conflicts(conflicts); err != nil {
			return err
		}
		return fmt.Errorf("%d conflicts", len(conflicts))
	}
	return a.out.document(merged)
}

// StoreGroup contains field store operations.
type StoreGroup struct {
	Init        StoreInitCmd        `cmd:"" help:"Create the field store schema"`
	CreateItem  StoreCreateItemCmd  `cmd:"" name:"create-item" help:"Add an item"`
	SetStandard StoreSetStandardCmd `cmd:"" name:"set-standard" help:"Set a standard value of a template"`
	Save        StoreSaveCmd        `cmd:"" help:"Save fields and layout of an item"`
	Get         StoreGetCmd         `cmd:"" help:"Print a field value of an item"`
}

// StoreFlags locate the field store.
type StoreFlags struct {
	DB string `name:"db" help:"Field store database file" required:""`
}

func (f StoreFlags) open(a *app) (*fieldstore.Store, error) {
	return fieldstore.Open(a.ctx, f.DB, fieldstore.WithDiffer(a.differ), fieldstore.WithLogger(a.logger))
}

type StoreInitCmd struct {
	DBFlags StoreFlags `embed:""`
}

func (c *StoreInitCmd) Run(a *app) error {
	s, err := c.DBFlags.open(a)
	if err != nil {
		return err
	}
	a.logger.Info("field store ready", "db", c.DBFlags.DB)
	return s.Close()
}

type StoreCreateItemCmd struct {
	DBFlags  StoreFlags `embed:""`
	Name     string     `arg:"" help:"Item name"`
	Template string     `arg:"" help:"Template name"`
	Language string     `help:"Item language" default:"en"`
}

func (c *StoreCreateItemCmd) Run(a *app) error {
	s, err := c.DBFlags.open(a)
	if err != nil {
		return err
	}
	defer s.Close()
	item, err := s.CreateItem(a.ctx, c.Name, c.Template, c.Language)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out.w, item.ID)
	return err
}

type StoreSetStandardCmd struct {
	DBFlags  StoreFlags `embed:""`
	Template string     `arg:"" help:"Template name"`
	File     string     `arg:"" help:"Standard value document" type:"existingfile"`
	Field    string     `help:"Field id, the layout field when empty"`
}

func (c *StoreSetStandardCmd) Run(a *app) error {
	value, err := readDocument(c.File)
	if err != nil {
		return err
	}
	s, err := c.DBFlags.open(a)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.SetStandardValue(a.ctx, c.Template, fieldOrLayout(c.Field), value)
}

type StoreSaveCmd struct {
	DBFlags StoreFlags        `embed:""`
	Item    string            `arg:"" help:"Item id"`
	Layout  string            `help:"Edited layout document" type:"existingfile"`
	Field   map[string]string `short:"f" help:"Edited field value as id=value"`
}

func (c *StoreSaveCmd) Run(a *app) error {
	req := fielddelta.SaveRequest{}
	if c.Layout != "" {
		layout, err := readDocument(c.Layout)
		if err != nil {
			return err
		}
		req.Layout = layout
	}

	s, err := c.DBFlags.open(a)
	if err != nil {
		return err
	}
	defer s.Close()
	if req.Item, err = s.Item(a.ctx, c.Item); err != nil {
		return err
	}
	for _, id := range slices.Sorted(maps.Keys(c.Field)) {
		req.Fields = append(req.Fields, fielddelta.EditedField{ItemID: req.Item.ID, FieldID: id, Value: c.Field[id]})
	}

	packet, err := s.Save(a.ctx, req)
	if err != nil {
		return err
	}
	a.logger.Debug("saved", "item", req.Item.ID, "packet", packet.XML())
	return nil
}

type StoreGetCmd struct {
	DBFlags StoreFlags `embed:""`
	Item    string     `arg:"" help:"Item id"`
	Field   string     `help:"Field id, the layout field when empty"`
	Raw     bool       `help:"Print the stored value instead of the resolved one"`
}

func (c *StoreGetCmd) Run(a *app) error {
	s, err := c.DBFlags.open(a)
	if err != nil {
		return err
	}
	defer s.Close()
	var value string
	if c.Raw {
		value, err = s.RawFieldValue(a.ctx, c.Item, fieldOrLayout(c.Field))
	} else {
		value, err = s.FieldValue(a.ctx, c.Item, fieldOrLayout(c.Field))
	}
	if err != nil {
		return err
	}
	return a.out.document(value)
}

func fieldOrLayout(id string) string {
	if id == "" {
		return fielddelta.LayoutFieldID
	}
	return id
}

func run(args []string, stdout, stderr io.Writer) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("xmldelta"),
		kong.Description("Structural deltas of XML documents"),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cfg, err := LoadConfig(cli.Config)
	if err != nil {
		return err
	}
	logger, err := newLogger(stderr, cfg.Log, cli.LogLevel, cli.LogFormat)
	if err != nil {
		return err
	}
	differ, err := cfg.Differ(logger)
	if err != nil {
		return err
	}

	return kctx.Run(&app{
		ctx:    context.Background(),
		differ: differ,
		logger: logger,
		out:    newPrinter(stdout, cli.Color, cli.Pretty, differ.Namespaces()),
	})
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("xmldelta: %v", err))
		os.Exit(1)
	}
}
