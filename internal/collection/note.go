package collection

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// FieldSeparator separates field values in notes.flds.
const FieldSeparator = "\x1f"

// Note is a note row with its fields and tags split out.
type Note struct {
	ID         int64
	GUID       string
	NoteTypeID int64
	Modified   int64
	USN        int
	Tags       []string
	Fields     []string

	noteType NoteType
}

// NoteType returns the note type of the note. When the collection has no
// note type with NoteTypeID, only the ID is set.
func (n *Note) NoteType() NoteType {
	return n.noteType
}

// Field returns the value of the named field, or false when the note type
// has no such field.
func (n *Note) Field(name string) (string, bool) {
	for i, f := range n.noteType.Fields {
		if f == name && i < len(n.Fields) {
			return n.Fields[i], true
		}
	}
	return "", false
}

// Card is a card row.
type Card struct {
	ID     int64
	NoteID int64
	DeckID int64
	// OriginalDeckID is the home deck of a card moved into a filtered deck,
	// or 0.
	OriginalDeckID int64
	Ord            int
}

// GetNote loads a note by id. The error wraps ErrNoteNotFound when no
// note has that id.
func (c *Collection) GetNote(ctx context.Context, id int64) (*Note, error) {
	var (
		n          Note
		tags, flds string
	)
	err := c.store.QueryRow(ctx,
		"SELECT id, guid, mid, mod, usn, tags, flds FROM notes WHERE id = ?", id,
	).Scan(&n.ID, &n.GUID, &n.NoteTypeID, &n.Modified, &n.USN, &tags, &flds)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNoteNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get note %d: %w", id, err)
	}

	n.Tags = strings.Fields(tags)
	if n.Tags == nil {
		n.Tags = []string{}
	}
	n.Fields = strings.Split(flds, FieldSeparator)

	if nt, ok := c.noteTypes.ByID(n.NoteTypeID); ok {
		n.noteType = nt
	} else {
		n.noteType = NoteType{ID: n.NoteTypeID}
	}
	return &n, nil
}

// GetCard loads a card by id. The error wraps ErrCardNotFound when no
// card has that id.
func (c *Collection) GetCard(ctx context.Context, id int64) (*Card, error) {
	var card Card
	err := c.store.QueryRow(ctx,
		"SELECT id, nid, did, odid, ord FROM cards WHERE id = ?", id,
	).Scan(&card.ID, &card.NoteID, &card.DeckID, &card.OriginalDeckID, &card.Ord)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrCardNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get card %d: %w", id, err)
	}
	return &card, nil
}

// CardsOfNote returns the card ids of a note, ordered by template ordinal.
func (c *Collection) CardsOfNote(ctx context.Context, noteID int64) ([]int64, error) {
	rows, err := c.store.Query(ctx, "SELECT id FROM cards WHERE nid = ? ORDER BY ord ASC, id ASC", noteID)
	if err != nil {
		return nil, fmt.Errorf("cards of note %d: %w", noteID, err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan card id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// HasNote reports whether a note with the given id exists.
func (c *Collection) HasNote(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := c.store.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM notes WHERE id = ?)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check note %d: %w", id, err)
	}
	return exists, nil
}
