package store

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema_legacy.sql
var legacySchemaSQL string

//go:embed schema_modern.sql
var modernSchemaSQL string

// Layout identifies how decks and note types are stored.
type Layout int

const (
	// LayoutLegacy keeps decks and models as JSON in the col row (schema 11).
	LayoutLegacy Layout = iota
	// LayoutModern keeps decks, notetypes and fields in their own tables.
	LayoutModern
)

// Schema versions written to col.ver for each layout.
const (
	LegacySchemaVersion = 11
	ModernSchemaVersion = 18
)

// String returns the layout name used in logs and CLI output.
func (l Layout) String() string {
	switch l {
	case LayoutLegacy:
		return "legacy"
	case LayoutModern:
		return "modern"
	default:
		return fmt.Sprintf("layout(%d)", int(l))
	}
}

// SchemaVersion returns the col.ver value matching the layout.
func (l Layout) SchemaVersion() int {
	if l == LayoutModern {
		return ModernSchemaVersion
	}
	return LegacySchemaVersion
}

// DetectLayout inspects the tables of an opened collection.
func (s *Store) DetectLayout(ctx context.Context) (Layout, error) {
	hasCol, err := s.HasTable(ctx, "col")
	if err != nil {
		return LayoutLegacy, err
	}
	if !hasCol {
		return LayoutLegacy, fmt.Errorf("%s is not an Anki collection: missing col table", s.path)
	}

	modern, err := s.HasTable(ctx, "notetypes")
	if err != nil {
		return LayoutLegacy, err
	}
	if modern {
		return LayoutModern, nil
	}
	return LayoutLegacy, nil
}

// ApplySchema creates the collection tables for the given layout.
// The legacy tables are always created; the modern layout adds the
// decks, notetypes and fields tables on top of them.
// This function is idempotent.
func (s *Store) ApplySchema(ctx context.Context, layout Layout) error {
	if s.readOnly {
		return fmt.Errorf("store %s is read-only", s.path)
	}

	if _, err := s.db.ExecContext(ctx, legacySchemaSQL); err != nil {
		return fmt.Errorf("failed to execute legacy schema: %w", err)
	}

	if layout == LayoutModern {
		if _, err := s.db.ExecContext(ctx, modernSchemaSQL); err != nil {
			return fmt.Errorf("failed to execute modern schema: %w", err)
		}
	}

	return nil
}
