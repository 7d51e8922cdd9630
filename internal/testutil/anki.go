package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/ankicheck/internal/collection"
	"github.com/roach88/ankicheck/internal/store"
)

// Ids of the decks and note types every new Anki profile starts with.
const (
	DefaultDeckID   int64 = 1
	BasicNoteTypeID int64 = 1342697561419
)

// FixtureDeck is a deck to create.
type FixtureDeck struct {
	ID   int64
	Name string
}

// FixtureNoteType is a note type to create.
type FixtureNoteType struct {
	ID     int64
	Name   string
	Fields []string
}

// FixtureNote is a note to create together with its cards.
type FixtureNote struct {
	ID   int64
	GUID string
	// Deck names the deck the cards go to. Defaults to "Default".
	Deck string
	// OriginalDeck, when set, makes Deck a filtered deck and records
	// OriginalDeck as the cards' home deck.
	OriginalDeck string
	// NoteType names the note type. Defaults to "Basic".
	NoteType string
	Fields   []string
	Tags     []string
	// Cards is the number of cards to create. Defaults to 1.
	Cards int
}

// CollectionFixture describes an Anki collection file.
//
// Nil Decks gives the single "Default" deck; nil NoteTypes gives the
// two-field "Basic" note type.
type CollectionFixture struct {
	Layout    store.Layout
	Decks     []FixtureDeck
	NoteTypes []FixtureNoteType
	Notes     []FixtureNote
}

// DefaultDecks returns the deck list of a new profile.
func DefaultDecks() []FixtureDeck {
	return []FixtureDeck{{ID: DefaultDeckID, Name: "Default"}}
}

// DefaultNoteTypes returns the Basic note type of a new profile.
func DefaultNoteTypes() []FixtureNoteType {
	return []FixtureNoteType{{ID: BasicNoteTypeID, Name: "Basic", Fields: []string{"Front", "Back"}}}
}

// CardID returns the id given to the ord-th card of a fixture note.
func CardID(noteID int64, ord int) int64 {
	return noteID*10 + int64(ord)
}

// WriteCollection creates a collection file at path from f. Parent
// directories are created. The file must not already exist.
func WriteCollection(ctx context.Context, path string, f CollectionFixture) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("fixture %s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create fixture dir: %w", err)
	}

	if f.Decks == nil {
		f.Decks = DefaultDecks()
	}
	if f.NoteTypes == nil {
		f.NoteTypes = DefaultNoteTypes()
	}

	s, err := store.OpenWritable(path)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.ApplySchema(ctx, f.Layout); err != nil {
		return err
	}

	w := &fixtureWriter{s: s, clock: NewDeterministicClock(), f: f}
	if err := w.writeMetadata(ctx); err != nil {
		return err
	}
	return w.writeNotes(ctx)
}

// BuildCollection writes f to "<tmp>/Anki2/User 1/collection.anki2",
// mirroring the profile layout the desktop app uses, and returns the path.
func BuildCollection(t testing.TB, f CollectionFixture) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Anki2", "User 1", "collection.anki2")
	require.NoError(t, WriteCollection(context.Background(), path, f))
	return path
}

// OpenCollection opens the collection at path for a test.
//
// A missing file skips the test instead of failing it: the collection is
// produced by an earlier pipeline step that may not have run. The
// collection is closed when the test finishes.
func OpenCollection(t testing.TB, path string) *collection.Collection {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skipf("e2e output not found: %s (run test-wdio first)", path)
	}

	col, err := collection.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { col.Close() })
	return col
}

type fixtureWriter struct {
	s     *store.Store
	clock *DeterministicClock
	f     CollectionFixture
}

func (w *fixtureWriter) deckID(name string) (int64, error) {
	if name == "" {
		name = "Default"
	}
	for _, d := range w.f.Decks {
		if d.Name == name {
			return d.ID, nil
		}
	}
	return 0, fmt.Errorf("fixture: unknown deck %q", name)
}

func (w *fixtureWriter) noteTypeID(name string) (int64, error) {
	if name == "" {
		name = "Basic"
	}
	for _, nt := range w.f.NoteTypes {
		if nt.Name == name {
			return nt.ID, nil
		}
	}
	return 0, fmt.Errorf("fixture: unknown note type %q", name)
}

func (w *fixtureWriter) writeMetadata(ctx context.Context) error {
	decksJSON, modelsJSON := "{}", "{}"
	if w.f.Layout == store.LayoutLegacy {
		var err error
		if decksJSON, err = legacyDecksJSON(w.f.Decks); err != nil {
			return err
		}
		if modelsJSON, err = legacyModelsJSON(w.f.NoteTypes); err != nil {
			return err
		}
	}

	_, err := w.s.Exec(ctx,
		`INSERT INTO col (id, crt, mod, scm, ver, dty, usn, ls, conf, models, decks, dconf, tags)
		 VALUES (1, ?, ?, ?, ?, 0, 0, 0, '{}', ?, ?, '{}', '{}')`,
		FixtureEpoch, w.clock.Next(), FixtureEpoch*1000, w.f.Layout.SchemaVersion(), modelsJSON, decksJSON,
	)
	if err != nil {
		return fmt.Errorf("insert col: %w", err)
	}

	if w.f.Layout != store.LayoutModern {
		return nil
	}

	for _, d := range w.f.Decks {
		_, err := w.s.Exec(ctx,
			"INSERT INTO decks (id, name, mtime_secs, usn, common, kind) VALUES (?, ?, ?, 0, ?, ?)",
			d.ID, strings.ReplaceAll(d.Name, "::", "\x1f"), w.clock.Next(), []byte{}, []byte{},
		)
		if err != nil {
			return fmt.Errorf("insert deck %q: %w", d.Name, err)
		}
	}
	for _, nt := range w.f.NoteTypes {
		_, err := w.s.Exec(ctx,
			"INSERT INTO notetypes (id, name, mtime_secs, usn, config) VALUES (?, ?, ?, 0, ?)",
			nt.ID, nt.Name, w.clock.Next(), []byte{},
		)
		if err != nil {
			return fmt.Errorf("insert notetype %q: %w", nt.Name, err)
		}
		for ord, field := range nt.Fields {
			_, err := w.s.Exec(ctx,
				"INSERT INTO fields (ntid, ord, name, config) VALUES (?, ?, ?, ?)",
				nt.ID, ord, field, []byte{},
			)
			if err != nil {
				return fmt.Errorf("insert field %q: %w", field, err)
			}
		}
	}
	return nil
}

func (w *fixtureWriter) writeNotes(ctx context.Context) error {
	for i, n := range w.f.Notes {
		mid, err := w.noteTypeID(n.NoteType)
		if err != nil {
			return err
		}
		did, err := w.deckID(n.Deck)
		if err != nil {
			return err
		}
		var odid int64
		if n.OriginalDeck != "" {
			if odid, err = w.deckID(n.OriginalDeck); err != nil {
				return err
			}
		}

		guid := n.GUID
		if guid == "" {
			guid = "fixture" + strconv.FormatInt(n.ID, 10)
		}
		tags := ""
		if len(n.Tags) > 0 {
			tags = " " + strings.Join(n.Tags, " ") + " "
		}
		sfld := ""
		if len(n.Fields) > 0 {
			sfld = n.Fields[0]
		}

		_, err = w.s.Exec(ctx,
			`INSERT INTO notes (id, guid, mid, mod, usn, tags, flds, sfld, csum, flags, data)
			 VALUES (?, ?, ?, ?, 0, ?, ?, ?, 0, 0, '')`,
			n.ID, guid, mid, w.clock.Next(), tags, strings.Join(n.Fields, collection.FieldSeparator), sfld,
		)
		if err != nil {
			return fmt.Errorf("insert note %d: %w", n.ID, err)
		}

		cards := n.Cards
		if cards == 0 {
			cards = 1
		}
		for ord := 0; ord < cards; ord++ {
			_, err := w.s.Exec(ctx,
				`INSERT INTO cards (id, nid, did, ord, mod, usn, type, queue, due, ivl, factor, reps, lapses, left, odue, odid, flags, data)
				 VALUES (?, ?, ?, ?, ?, 0, 0, 0, ?, 0, 0, 0, 0, 0, 0, ?, 0, '')`,
				CardID(n.ID, ord), n.ID, did, ord, w.clock.Next(), i+1, odid,
			)
			if err != nil {
				return fmt.Errorf("insert card %d of note %d: %w", ord, n.ID, err)
			}
		}
	}
	return nil
}

func legacyDecksJSON(decks []FixtureDeck) (string, error) {
	m := make(map[string]map[string]any, len(decks))
	for _, d := range decks {
		m[strconv.FormatInt(d.ID, 10)] = map[string]any{"id": d.ID, "name": d.Name, "dyn": 0}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode decks: %w", err)
	}
	return string(b), nil
}

func legacyModelsJSON(noteTypes []FixtureNoteType) (string, error) {
	m := make(map[string]map[string]any, len(noteTypes))
	for _, nt := range noteTypes {
		flds := make([]map[string]any, len(nt.Fields))
		for ord, name := range nt.Fields {
			flds[ord] = map[string]any{"name": name, "ord": ord}
		}
		m[strconv.FormatInt(nt.ID, 10)] = map[string]any{"id": nt.ID, "name": nt.Name, "flds": flds}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode models: %w", err)
	}
	return string(b), nil
}
