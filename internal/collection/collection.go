package collection

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/roach88/ankicheck/internal/querysql"
	"github.com/roach88/ankicheck/internal/search"
	"github.com/roach88/ankicheck/internal/store"
)

var (
	// ErrNotFound is returned by Open when the collection file does not
	// exist. It wraps fs.ErrNotExist.
	ErrNotFound = fmt.Errorf("collection not found: %w", fs.ErrNotExist)

	// ErrNoteNotFound is returned by GetNote for an unknown id.
	ErrNoteNotFound = errors.New("note not found")

	// ErrCardNotFound is returned by GetCard for an unknown id.
	ErrCardNotFound = errors.New("card not found")
)

// Collection is an opened, read-only Anki collection.
type Collection struct {
	store     *store.Store
	layout    store.Layout
	version   int
	decks     *Decks
	noteTypes *NoteTypes
	compiler  *querysql.SQLCompiler
}

// Open opens the collection at path.
func Open(path string) (*Collection, error) {
	return OpenContext(context.Background(), path)
}

// OpenContext opens the collection at path, loading deck and note type
// metadata with ctx.
func OpenContext(ctx context.Context, path string) (*Collection, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	s, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open collection: %w", err)
	}

	c, err := load(ctx, s)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("load collection %s: %w", path, err)
	}
	return c, nil
}

func load(ctx context.Context, s *store.Store) (*Collection, error) {
	layout, err := s.DetectLayout(ctx)
	if err != nil {
		return nil, err
	}

	c := &Collection{store: s, layout: layout}
	if err := s.QueryRow(ctx, "SELECT ver FROM col").Scan(&c.version); err != nil {
		return nil, fmt.Errorf("read schema version: %w", err)
	}

	switch layout {
	case store.LayoutModern:
		if c.decks, err = loadModernDecks(ctx, s); err != nil {
			return nil, err
		}
		if c.noteTypes, err = loadModernNoteTypes(ctx, s); err != nil {
			return nil, err
		}
	default:
		var decksJSON, modelsJSON string
		if err := s.QueryRow(ctx, "SELECT decks, models FROM col").Scan(&decksJSON, &modelsJSON); err != nil {
			return nil, fmt.Errorf("read col metadata: %w", err)
		}
		if c.decks, err = parseLegacyDecks(decksJSON); err != nil {
			return nil, err
		}
		if c.noteTypes, err = parseLegacyNoteTypes(modelsJSON); err != nil {
			return nil, err
		}
	}

	c.compiler = querysql.NewSQLCompiler(c)
	return c, nil
}

// Close releases the database connection. Safe to call more than once
// and on a nil Collection.
func (c *Collection) Close() error {
	if c == nil {
		return nil
	}
	return c.store.Close()
}

// Path returns the collection file path.
func (c *Collection) Path() string {
	return c.store.Path()
}

// Layout returns the storage layout detected at open time.
func (c *Collection) Layout() store.Layout {
	return c.layout
}

// SchemaVersion returns the col.ver value of the collection.
func (c *Collection) SchemaVersion() int {
	return c.version
}

// Decks returns the deck metadata loaded at open time.
func (c *Collection) Decks() *Decks {
	return c.decks
}

// NoteTypes returns the note type metadata loaded at open time.
func (c *Collection) NoteTypes() *NoteTypes {
	return c.noteTypes
}

// IsEmpty reports whether the collection holds no cards.
func (c *Collection) IsEmpty(ctx context.Context) (bool, error) {
	var exists bool
	if err := c.store.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM cards)").Scan(&exists); err != nil {
		return false, fmt.Errorf("check empty: %w", err)
	}
	return !exists, nil
}

// FindCards returns the ids of cards matching query, in ascending order.
func (c *Collection) FindCards(ctx context.Context, query string) ([]int64, error) {
	return c.find(ctx, query, querysql.Cards)
}

// FindNotes returns the ids of notes with at least one card matching
// query, in ascending order.
func (c *Collection) FindNotes(ctx context.Context, query string) ([]int64, error) {
	return c.find(ctx, query, querysql.Notes)
}

func (c *Collection) find(ctx context.Context, query string, target querysql.Target) ([]int64, error) {
	pred, err := search.Parse(query)
	if err != nil {
		return nil, err
	}

	sql, params, err := c.compiler.Compile(pred, target)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", query, err)
	}

	rows, err := c.store.Query(ctx, sql, params...)
	if err != nil {
		return nil, fmt.Errorf("find %s %q: %w", target, query, err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan %s id: %w", target, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find %s %q: %w", target, query, err)
	}
	return ids, nil
}

// MatchDecks returns the ids of decks whose name matches pattern or is a
// child of a matching deck. It implements querysql.Resolver.
func (c *Collection) MatchDecks(pattern string) ([]int64, error) {
	m, err := search.NewMatcher(pattern, true)
	if err != nil {
		return nil, err
	}
	var ids []int64
	for _, d := range c.decks.All() {
		if m.Match(d.Name) {
			ids = append(ids, d.ID)
		}
	}
	return ids, nil
}

// MatchNoteTypes returns the ids of note types whose name matches
// pattern. It implements querysql.Resolver.
func (c *Collection) MatchNoteTypes(pattern string) ([]int64, error) {
	m, err := search.NewMatcher(pattern, false)
	if err != nil {
		return nil, err
	}
	var ids []int64
	for _, nt := range c.noteTypes.All() {
		if m.Match(nt.Name) {
			ids = append(ids, nt.ID)
		}
	}
	return ids, nil
}
