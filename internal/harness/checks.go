package harness

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/ankicheck/internal/collection"
	"github.com/roach88/ankicheck/internal/reference"
	"github.com/roach88/ankicheck/internal/search"
)

// AssertionError is returned when a check fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Check type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// checkContext is what every check sees: the shared collection and the
// scenario it belongs to. The reference document is loaded on first use.
type checkContext struct {
	ctx      context.Context
	col      *collection.Collection
	scenario *Scenario
	syntax   reference.Syntax

	doc    *reference.Document
	docErr error
	loaded bool
}

func (cc *checkContext) document() (*reference.Document, error) {
	if !cc.loaded {
		cc.loaded = true
		if cc.scenario.Document == "" {
			cc.docErr = fmt.Errorf("scenario has no document")
		} else {
			cc.doc, cc.docErr = cc.syntax.Load(cc.scenario.Document)
		}
	}
	return cc.doc, cc.docErr
}

// deckQuery is the search string scoping a query to the scenario deck.
func (cc *checkContext) deckQuery() string {
	return search.BuildSearchString(search.SearchNode{Deck: cc.scenario.Deck})
}

// firstNote loads the lowest-id note of the scenario deck.
func (cc *checkContext) firstNote(checkType string) (*collection.Note, error) {
	ids, err := cc.col.FindNotes(cc.ctx, cc.deckQuery())
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, &AssertionError{
			Type:     checkType,
			Expected: fmt.Sprintf("a note in deck %q", cc.scenario.Deck),
			Actual:   "no notes found",
		}
	}
	return cc.col.GetNote(cc.ctx, ids[0])
}

type checkFunc func(cc *checkContext, c Check) error

var checkFuncs = map[string]checkFunc{
	CheckNotEmpty:        assertNotEmpty,
	CheckDeckExists:      assertDeckExists,
	CheckCardCount:       assertCardCount,
	CheckIDParity:        assertIDParity,
	CheckNoteContent:     assertNoteContent,
	CheckDeletedAbsent:   assertDeletedAbsent,
	CheckInlineNoteCount: assertInlineNoteCount,
	CheckNoteTags:        assertNoteTags,
}

// assertNotEmpty checks that the collection holds at least one card.
func assertNotEmpty(cc *checkContext, c Check) error {
	empty, err := cc.col.IsEmpty(cc.ctx)
	if err != nil {
		return err
	}
	if empty {
		return &AssertionError{
			Type:     c.Type,
			Expected: "at least one card",
			Actual:   "collection is empty",
		}
	}
	return nil
}

// assertDeckExists checks that a deck with exactly the scenario deck
// name exists.
func assertDeckExists(cc *checkContext, c Check) error {
	if _, ok := cc.col.Decks().IDForName(cc.scenario.Deck); !ok {
		return &AssertionError{
			Type:     c.Type,
			Expected: fmt.Sprintf("deck %q", cc.scenario.Deck),
			Actual:   fmt.Sprintf("deck not found (decks: %s)", strings.Join(cc.col.Decks().Names(), ", ")),
		}
	}
	return nil
}

// assertCardCount checks the number of cards in the scenario deck.
func assertCardCount(cc *checkContext, c Check) error {
	ids, err := cc.col.FindCards(cc.ctx, cc.deckQuery())
	if err != nil {
		return err
	}
	want := 0
	if c.Count != nil {
		want = *c.Count
	}
	if len(ids) != want {
		return &AssertionError{
			Type:     c.Type,
			Expected: fmt.Sprintf("%d cards in deck %q", want, cc.scenario.Deck),
			Actual:   fmt.Sprintf("%d cards", len(ids)),
		}
	}
	return nil
}

// assertIDParity checks that the ids in the reference document are the
// note ids of the scenario deck, in the same order.
func assertIDParity(cc *checkContext, c Check) error {
	doc, err := cc.document()
	if err != nil {
		return err
	}
	docIDs := doc.IDs()

	noteIDs, err := cc.col.FindNotes(cc.ctx, cc.deckQuery())
	if err != nil {
		return err
	}
	colIDs := make([]string, len(noteIDs))
	for i, id := range noteIDs {
		colIDs[i] = strconv.FormatInt(id, 10)
	}

	if len(docIDs) != len(colIDs) {
		return &AssertionError{
			Type:     c.Type,
			Expected: fmt.Sprintf("%d note ids %v", len(docIDs), docIDs),
			Actual:   fmt.Sprintf("%d note ids %v", len(colIDs), colIDs),
		}
	}
	for i := range docIDs {
		if docIDs[i] != colIDs[i] {
			return &AssertionError{
				Type:     c.Type,
				Expected: fmt.Sprintf("note id %s at position %d", docIDs[i], i),
				Actual:   fmt.Sprintf("note id %s", colIDs[i]),
			}
		}
	}
	return nil
}

// assertNoteContent checks the fields and note type of the first note in
// the scenario deck.
func assertNoteContent(cc *checkContext, c Check) error {
	note, err := cc.firstNote(c.Type)
	if err != nil {
		return err
	}

	for i, want := range c.Fields {
		if i >= len(note.Fields) {
			return &AssertionError{
				Type:     c.Type,
				Expected: fmt.Sprintf("field %d = %q", i, want),
				Actual:   fmt.Sprintf("note %d has %d fields", note.ID, len(note.Fields)),
			}
		}
		if note.Fields[i] != want {
			return &AssertionError{
				Type:     c.Type,
				Expected: fmt.Sprintf("field %d = %q", i, want),
				Actual:   fmt.Sprintf("%q", note.Fields[i]),
			}
		}
	}

	if c.NoteType != "" && note.NoteType().Name != c.NoteType {
		return &AssertionError{
			Type:     c.Type,
			Expected: fmt.Sprintf("note type %q", c.NoteType),
			Actual:   fmt.Sprintf("note type %q", note.NoteType().Name),
		}
	}
	return nil
}

// assertDeletedAbsent checks that ids the document marks for deletion no
// longer exist.
func assertDeletedAbsent(cc *checkContext, c Check) error {
	doc, err := cc.document()
	if err != nil {
		return err
	}
	if err := doc.FrontmatterErr(); err != nil {
		return err
	}

	var present []string
	for _, id := range doc.DeletedIDs() {
		exists, err := cc.col.HasNote(cc.ctx, id)
		if err != nil {
			return err
		}
		if exists {
			present = append(present, strconv.FormatInt(id, 10))
		}
	}
	if len(present) > 0 {
		return &AssertionError{
			Type:     c.Type,
			Expected: "notes marked for deletion to be absent",
			Actual:   fmt.Sprintf("still present: %s", strings.Join(present, ", ")),
		}
	}
	return nil
}

// assertInlineNoteCount checks that the document has one inline note
// block per note in the scenario deck.
func assertInlineNoteCount(cc *checkContext, c Check) error {
	doc, err := cc.document()
	if err != nil {
		return err
	}
	blocks, err := doc.InlineNotes()
	if err != nil {
		return err
	}

	ids, err := cc.col.FindNotes(cc.ctx, cc.deckQuery())
	if err != nil {
		return err
	}
	if len(blocks) != len(ids) {
		return &AssertionError{
			Type:     c.Type,
			Expected: fmt.Sprintf("%d notes for %d inline blocks", len(blocks), len(blocks)),
			Actual:   fmt.Sprintf("%d notes in deck %q", len(ids), cc.scenario.Deck),
		}
	}
	return nil
}

// assertNoteTags checks that the first note of the scenario deck carries
// every expected tag. Tags compare case-insensitively.
func assertNoteTags(cc *checkContext, c Check) error {
	note, err := cc.firstNote(c.Type)
	if err != nil {
		return err
	}

	var missing []string
	for _, want := range c.Tags {
		found := false
		for _, tag := range note.Tags {
			if strings.EqualFold(tag, want) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		return &AssertionError{
			Type:     c.Type,
			Expected: fmt.Sprintf("tags %v", c.Tags),
			Actual:   fmt.Sprintf("note %d tags %v, missing %v", note.ID, note.Tags, missing),
		}
	}
	return nil
}
