// Package fieldstore keeps items, standard values and field values in a SQLite database and
// stores XML field values as deltas against the standard values of the item's template.
package fieldstore

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
	_ "modernc.org/sqlite"

	"github.com/dannyswat/xmldelta"
	"github.com/dannyswat/xmldelta/fielddelta"
)

const driverName = "sqlite"

// ErrNotFound is returned for an item that does not exist.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS items (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	template   TEXT NOT NULL,
	language   TEXT NOT NULL,
	version    INTEGER NOT NULL,
	can_design INTEGER NOT NULL DEFAULT 1
);
CREATE TABLE IF NOT EXISTS standard_values (
	template TEXT NOT NULL,
	field_id TEXT NOT NULL,
	value    TEXT NOT NULL,
	PRIMARY KEY (template, field_id)
);
CREATE TABLE IF NOT EXISTS field_values (
	item_id   TEXT NOT NULL,
	language  TEXT NOT NULL,
	version   INTEGER NOT NULL,
	field_id  TEXT NOT NULL,
	value     TEXT NOT NULL,
	base_hash TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (item_id, language, version, field_id)
);
`

// Store is a field value store backed by one SQLite database.
type Store struct {
	db     *sql.DB
	codec  *fielddelta.Codec
	differ *xmldelta.Differ
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithDiffer sets the Differ used to compute and apply deltas.
func WithDiffer(d *xmldelta.Differ) Option {
	return func(s *Store) {
		if d != nil {
			s.differ = d
		}
	}
}

// WithLogger sets the logger of the store.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Open opens the database at dsn and creates the schema when missing.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dsn, err)
	}
	// An in-memory database lives as long as its connection.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	s := &Store{
		db:     db,
		differ: xmldelta.New(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.codec = fielddelta.NewCodec(s.differ, s.logger)
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Fingerprint returns the hex BLAKE3 digest of a field value.
func Fingerprint(value string) string {
	sum := blake3.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// CreateItem adds version 1 of a new item based on template.
func (s *Store) CreateItem(ctx context.Context, name, template, language string) (fielddelta.Item, error) {
	item := fielddelta.Item{
		ID:        uuid.NewString(),
		Name:      name,
		Language:  language,
		Version:   1,
		CanDesign: true,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO items (id, name, template, language, version, can_design) VALUES (?, ?, ?, ?, ?, ?)`,
		item.ID, item.Name, template, item.Language, item.Version, item.CanDesign)
	if err != nil {
		return fielddelta.Item{}, fmt.Errorf("failed to create item %s: %w", name, err)
	}
	s.logger.Info("item created", "id", item.ID, "name", name, "template", template)
	return item, nil
}

// Item returns the item with the given id.
func (s *Store) Item(ctx context.Context, id string) (fielddelta.Item, error) {
	item, _, err := s.item(ctx, id)
	return item, err
}

func (s *Store) item(ctx context.Context, id string) (fielddelta.Item, string, error) {
	var item fielddelta.Item
	var template string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, template, language, version, can_design FROM items WHERE id = ?`, id).
		Scan(&item.ID, &item.Name, &template, &item.Language, &item.Version, &item.CanDesign)
	if errors.Is(err, sql.ErrNoRows) {
		return item, "", fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return item, "", fmt.Errorf("failed to read item %s: %w", id, err)
	}
	return item, template, nil
}

// SetStandardValue stores the standard value of a field of template.
func (s *Store) SetStandardValue(ctx context.Context, template, fieldID, value string) error {
	return s.setStandardValue(ctx, s.db, template, fieldID, value)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) setStandardValue(ctx context.Context, db execer, template, fieldID, value string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO standard_values (template, field_id, value) VALUES (?, ?, ?)
		 ON CONFLICT (template, field_id) DO UPDATE SET value = excluded.value`,
		template, fieldID, value)
	if err != nil {
		return fmt.Errorf("failed to store standard value of %s: %w", fieldID, err)
	}
	return nil
}

// StandardValue returns the standard value of a field of template, empty when it is not set.
func (s *Store) StandardValue(ctx context.Context, template, fieldID string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM standard_values WHERE template = ? AND field_id = ?`, template, fieldID).
		Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read standard value of %s: %w", fieldID, err)
	}
	return value, nil
}

// FieldValue returns the full value of a field of an item. A stored delta is applied to the
// current standard value.
func (s *Store) FieldValue(ctx context.Context, itemID, fieldID string) (string, error) {
	f, err := s.field(ctx, itemID, fieldID)
	if err != nil {
		return "", err
	}
	if f.baseHash != "" && f.baseHash != Fingerprint(f.standard) {
		s.logger.Warn("standard value changed since the delta was stored",
			"item", f.item.ID, "field", fieldID)
	}
	return s.codec.Value(f, fielddelta.StandardValue)
}

// RawFieldValue returns what is stored for a field of an item, which is a delta for items
// other than the standard values item.
func (s *Store) RawFieldValue(ctx context.Context, itemID, fieldID string) (string, error) {
	f, err := s.field(ctx, itemID, fieldID)
	if err != nil {
		return "", err
	}
	return f.raw, nil
}

// SetFieldValue stores the full value of a field of an item.
func (s *Store) SetFieldValue(ctx context.Context, itemID, fieldID, value string) error {
	f, err := s.field(ctx, itemID, fieldID)
	if err != nil {
		return err
	}
	return s.codec.Store(f, value)
}

// Save runs the save workflow for req and applies the resulting packet.
func (s *Store) Save(ctx context.Context, req fielddelta.SaveRequest) (*fielddelta.Packet, error) {
	packet, err := fielddelta.Save(s.Host(ctx), s.codec, req)
	if err != nil {
		return nil, err
	}
	if err := s.ApplyPacket(ctx, packet); err != nil {
		return nil, err
	}
	return packet, nil
}

// ApplyPacket writes every entry of packet in one transaction. Entries of a standard values item
// update the standard values of its template.
func (s *Store) ApplyPacket(ctx context.Context, packet *fielddelta.Packet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, e := range packet.Entries {
		var name, template string
		err := tx.QueryRowContext(ctx, `SELECT name, template FROM items WHERE id = ?`, e.ItemID).
			Scan(&name, &template)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("item %s: %w", e.ItemID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to read item %s: %w", e.ItemID, err)
		}

		if name == fielddelta.StandardValuesItem {
			if err := s.setStandardValue(ctx, tx, template, e.FieldID, e.Value); err != nil {
				return err
			}
			continue
		}

		var baseHash string
		if s.differ.IsPatch(e.Value) {
			var standard string
			err := tx.QueryRowContext(ctx,
				`SELECT value FROM standard_values WHERE template = ? AND field_id = ?`, template, e.FieldID).
				Scan(&standard)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("failed to read standard value of %s: %w", e.FieldID, err)
			}
			baseHash = Fingerprint(standard)
		}
		if err := setFieldValue(ctx, tx, e, baseHash); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit packet: %w", err)
	}
	s.logger.Debug("packet applied", "entries", len(packet.Entries))
	return nil
}

func setFieldValue(ctx context.Context, db execer, e fielddelta.Entry, baseHash string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO field_values (item_id, language, version, field_id, value, base_hash) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (item_id, language, version, field_id) DO UPDATE SET value = excluded.value, base_hash = excluded.base_hash`,
		e.ItemID, e.Language, e.Version, e.FieldID, e.Value, baseHash)
	if err != nil {
		return fmt.Errorf("failed to store field %s of item %s: %w", e.FieldID, e.ItemID, err)
	}
	return nil
}

func (s *Store) field(ctx context.Context, itemID, fieldID string) (*storedField, error) {
	item, template, err := s.item(ctx, itemID)
	if err != nil {
		return nil, err
	}
	f := &storedField{ctx: ctx, store: s, item: item, template: template, fieldID: fieldID}
	err = s.db.QueryRowContext(ctx,
		`SELECT value, base_hash FROM field_values WHERE item_id = ? AND language = ? AND version = ? AND field_id = ?`,
		item.ID, item.Language, item.Version, fieldID).
		Scan(&f.raw, &f.baseHash)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to read field %s of item %s: %w", fieldID, itemID, err)
	}
	if f.standard, err = s.StandardValue(ctx, template, fieldID); err != nil {
		return nil, err
	}
	return f, nil
}

// storedField is a field of one item version as read from the database.
type storedField struct {
	ctx      context.Context
	store    *Store
	item     fielddelta.Item
	template string
	fieldID  string
	raw      string
	baseHash string
	standard string
}

func (f *storedField) ItemName() string      { return f.item.Name }
func (f *storedField) Value() string         { return f.raw }
func (f *storedField) StandardValue() string { return f.standard }

func (f *storedField) SetValue(value string) error {
	packet := &fielddelta.Packet{}
	packet.Add(fielddelta.Entry{
		ItemID:   f.item.ID,
		Language: f.item.Language,
		Version:  f.item.Version,
		FieldID:  f.fieldID,
		Value:    value,
	})
	if err := f.store.ApplyPacket(f.ctx, packet); err != nil {
		return err
	}
	f.raw = value
	return nil
}

// Host returns the save host of the store, bound to ctx.
func (s *Store) Host(ctx context.Context) fielddelta.SaveHost {
	return &saveHost{ctx: ctx, store: s}
}

type saveHost struct {
	ctx   context.Context
	store *Store
}

// CreatePacket puts the edited values into a packet as they are. Every edited field is validated.
func (h *saveHost) CreatePacket(item fielddelta.Item, fields []fielddelta.EditedField) (*fielddelta.Packet, []string, error) {
	packet := &fielddelta.Packet{}
	var ids []string
	for _, f := range fields {
		itemID := f.ItemID
		if itemID == "" {
			itemID = item.ID
		}
		packet.Add(fielddelta.Entry{
			ItemID:   itemID,
			Language: item.Language,
			Version:  item.Version,
			FieldID:  f.FieldID,
			Value:    f.Value,
		})
		ids = append(ids, f.FieldID)
	}
	return packet, ids, nil
}

// Validate checks that the item exists and that every field id is set.
func (h *saveHost) Validate(item fielddelta.Item, fieldIDs []string) error {
	if _, _, err := h.store.item(h.ctx, item.ID); err != nil {
		return err
	}
	for _, id := range fieldIDs {
		if id == "" {
			return errors.New("field id is empty")
		}
	}
	return nil
}

func (h *saveHost) StandardValue(item fielddelta.Item, fieldID string) (string, error) {
	_, template, err := h.store.item(h.ctx, item.ID)
	if err != nil {
		return "", err
	}
	return h.store.StandardValue(h.ctx, template, fieldID)
}
