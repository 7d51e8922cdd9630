package harness

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ankicheck/internal/store"
	"github.com/roach88/ankicheck/internal/testutil"
)

const inlineNotesDocument = `---
anki-id: 1555555555
---
# Inline notes

«« This is a test. :: Test successful! »»
`

// inlineNotesFixture is the collection the inline_notes sync produces.
func inlineNotesFixture(layout store.Layout) testutil.CollectionFixture {
	return testutil.CollectionFixture{
		Layout: layout,
		Notes: []testutil.FixtureNote{
			{ID: 1555555555, Fields: []string{"This is a test.", "Test successful!"}, Tags: []string{"obsidian"}},
		},
	}
}

func writeDocument(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Obsidian", "inline_notes", "inline_notes.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func fixedRunID() Option {
	return WithRunIDGenerator(testutil.NewFixedRunIDGenerator("test-run-001"))
}

func TestRun_InlineNotes(t *testing.T) {
	for _, layout := range []store.Layout{store.LayoutLegacy, store.LayoutModern} {
		t.Run(layout.String(), func(t *testing.T) {
			colPath := testutil.BuildCollection(t, inlineNotesFixture(layout))
			docPath := writeDocument(t, inlineNotesDocument)

			result, err := RunWithGolden(t, "inline_notes_pass", DefaultScenario(colPath, docPath), fixedRunID())
			require.NoError(t, err)

			assert.True(t, result.Pass)
			assert.False(t, result.Skipped)
			assert.Len(t, result.Checks, 5)
			assert.Empty(t, result.Failed())
		})
	}
}

func TestRun_Idempotent(t *testing.T) {
	colPath := testutil.BuildCollection(t, inlineNotesFixture(store.LayoutLegacy))
	docPath := writeDocument(t, inlineNotesDocument)
	scenario := DefaultScenario(colPath, docPath)

	before, err := os.ReadFile(colPath)
	require.NoError(t, err)

	first, err := Run(context.Background(), scenario, fixedRunID())
	require.NoError(t, err)
	second, err := Run(context.Background(), scenario, fixedRunID())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, second.Pass)

	after, err := os.ReadFile(colPath)
	require.NoError(t, err)
	assert.Equal(t, before, after, "runs must not modify the collection")
}

func TestRun_EmptyCollection(t *testing.T) {
	colPath := testutil.BuildCollection(t, testutil.CollectionFixture{})
	docPath := writeDocument(t, inlineNotesDocument)

	result, err := RunWithGolden(t, "empty_collection", DefaultScenario(colPath, docPath), fixedRunID())
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Checks, 5)
	assert.False(t, result.Checks[0].Pass, "not_empty must fail")
	assert.True(t, result.Checks[1].Pass, "Default deck exists in an empty profile")
	assert.Len(t, result.Failed(), 4)
}

func TestRun_MissingCollectionSkips(t *testing.T) {
	colPath := filepath.Join(t.TempDir(), "Anki2", "User 1", "collection.anki2")

	result, err := Run(context.Background(), DefaultScenario(colPath, "doc.md"), fixedRunID())
	require.NoError(t, err)

	assert.True(t, result.Skipped)
	assert.False(t, result.Pass)
	assert.Equal(t, "e2e output not found: "+colPath+" (run test-wdio first)", result.SkipReason)
	assert.Empty(t, result.Checks)

	_, statErr := os.Stat(colPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_PanickingCheckIsIsolated(t *testing.T) {
	checkFuncs["panics"] = func(*checkContext, Check) error { panic("boom") }
	t.Cleanup(func() { delete(checkFuncs, "panics") })

	colPath := testutil.BuildCollection(t, inlineNotesFixture(store.LayoutLegacy))
	scenario := &Scenario{
		Name:       "panic",
		Collection: colPath,
		Deck:       DefaultDeck,
		Checks:     []Check{{Type: "panics"}, {Type: CheckNotEmpty}},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)

	require.Len(t, result.Checks, 2)
	assert.False(t, result.Checks[0].Pass)
	assert.Contains(t, result.Checks[0].Error, "panicked: boom")
	assert.True(t, result.Checks[1].Pass)
	assert.False(t, result.Pass)
}

func TestRun_Mismatches(t *testing.T) {
	twoNotes := testutil.CollectionFixture{
		Notes: []testutil.FixtureNote{
			{ID: 1001, Fields: []string{"Q1", "A1"}, Tags: []string{"Geo::Europe"}},
			{ID: 1002, Fields: []string{"Q2", "A2"}},
		},
	}
	count1 := 1

	tests := []struct {
		name     string
		document string
		deck     string
		check    Check
		wantErr  string
	}{
		{
			name:    "card count",
			check:   Check{Type: CheckCardCount, Count: &count1},
			wantErr: "Expected: 1 cards in deck \"Default\"\n  Actual: 2 cards",
		},
		{
			name:     "id order",
			document: "ID: 1002\nID: 1001\n",
			check:    Check{Type: CheckIDParity},
			wantErr:  "Expected: note id 1002 at position 0\n  Actual: note id 1001",
		},
		{
			name:     "id count",
			document: "ID: 1001\n",
			check:    Check{Type: CheckIDParity},
			wantErr:  "Expected: 1 note ids [1001]\n  Actual: 2 note ids [1001 1002]",
		},
		{
			name:    "field value",
			check:   Check{Type: CheckNoteContent, Fields: []string{"Q1", "wrong"}},
			wantErr: "Expected: field 1 = \"wrong\"\n  Actual: \"A1\"",
		},
		{
			name:    "too many fields",
			check:   Check{Type: CheckNoteContent, Fields: []string{"Q1", "A1", "extra"}},
			wantErr: "note 1001 has 2 fields",
		},
		{
			name:    "note type",
			check:   Check{Type: CheckNoteContent, NoteType: "Cloze"},
			wantErr: "Expected: note type \"Cloze\"\n  Actual: note type \"Basic\"",
		},
		{
			name:    "missing deck",
			deck:    "Missing",
			check:   Check{Type: CheckDeckExists},
			wantErr: "Expected: deck \"Missing\"\n  Actual: deck not found (decks: Default)",
		},
		{
			name:    "deck lookup is exact",
			deck:    "default",
			check:   Check{Type: CheckDeckExists},
			wantErr: "deck not found",
		},
		{
			name:    "missing tag",
			check:   Check{Type: CheckNoteTags, Tags: []string{"geo::europe", "obsidian"}},
			wantErr: "missing [obsidian]",
		},
		{
			name:     "inline blocks",
			document: "«« only one »»",
			check:    Check{Type: CheckInlineNoteCount},
			wantErr:  "Actual: 2 notes in deck \"Default\"",
		},
		{
			name:     "deleted still present",
			document: "---\nanki-id: 1002-delete\n---\n",
			check:    Check{Type: CheckDeletedAbsent},
			wantErr:  "still present: 1002",
		},
	}

	colPath := testutil.BuildCollection(t, twoNotes)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scenario := &Scenario{
				Name:       tt.name,
				Collection: colPath,
				Deck:       tt.deck,
				Checks:     []Check{tt.check},
			}
			if scenario.Deck == "" {
				scenario.Deck = DefaultDeck
			}
			if tt.document != "" {
				scenario.Document = writeDocument(t, tt.document)
			}

			result, err := Run(context.Background(), scenario)
			require.NoError(t, err)
			require.Len(t, result.Checks, 1)
			assert.False(t, result.Checks[0].Pass)
			assert.Contains(t, result.Checks[0].Error, "Assertion failed: "+tt.check.Type)
			assert.Contains(t, result.Checks[0].Error, tt.wantErr)
		})
	}
}

func TestRun_ExpandedChecksPass(t *testing.T) {
	colPath := testutil.BuildCollection(t, inlineNotesFixture(store.LayoutModern))
	docPath := writeDocument(t, "---\nanki-id:\n  - 1555555555\n  - 1444444444-delete\n---\n«« This is a test. »»\n")

	scenario := &Scenario{
		Name:       "expanded",
		Collection: colPath,
		Document:   docPath,
		Deck:       DefaultDeck,
		Checks: []Check{
			{Type: CheckDeletedAbsent},
			{Type: CheckInlineNoteCount},
			{Type: CheckNoteTags, Tags: []string{"Obsidian"}},
		},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "failed: %v", result.Failed())
}

func TestRun_MissingDocumentFailsOnlyDocumentChecks(t *testing.T) {
	colPath := testutil.BuildCollection(t, inlineNotesFixture(store.LayoutLegacy))
	scenario := DefaultScenario(colPath, filepath.Join(t.TempDir(), "missing.md"))

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)

	failed := result.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, CheckIDParity, failed[0].Type)
	assert.Contains(t, failed[0].Error, "read document")
}

func TestRun_NonYAMLFrontmatter(t *testing.T) {
	colPath := testutil.BuildCollection(t, inlineNotesFixture(store.LayoutModern))
	docPath := writeDocument(t, "---\nanki-id: 1555555555\ntitle: Notes: inline\n---\n«« This is a test. :: Test successful! »»\n")

	t.Run("id extraction ignores YAML validity", func(t *testing.T) {
		result, err := Run(context.Background(), DefaultScenario(colPath, docPath))
		require.NoError(t, err)
		assert.True(t, result.Pass, "failed: %v", result.Failed())
	})

	t.Run("frontmatter properties report the decode error", func(t *testing.T) {
		scenario := &Scenario{
			Name:       "frontmatter_checks",
			Collection: colPath,
			Document:   docPath,
			Deck:       DefaultDeck,
			Checks: []Check{
				{Type: CheckIDParity},
				{Type: CheckInlineNoteCount},
				{Type: CheckDeletedAbsent},
			},
		}

		result, err := Run(context.Background(), scenario)
		require.NoError(t, err)

		failed := result.Failed()
		require.Len(t, failed, 1)
		assert.Equal(t, CheckDeletedAbsent, failed[0].Type)
		assert.Contains(t, failed[0].Error, "decode frontmatter")
	})
}

func TestRun_InvalidScenario(t *testing.T) {
	_, err := Run(context.Background(), nil)
	assert.Error(t, err)

	_, err = Run(context.Background(), &Scenario{Name: "x", Collection: "c.anki2"})
	assert.ErrorContains(t, err, "checks list is required")
}

func TestRun_NotACollectionIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collection.anki2")
	require.NoError(t, os.WriteFile(path, []byte("not sqlite"), 0o644))

	_, err := Run(context.Background(), DefaultScenario(path, "doc.md"))
	require.Error(t, err)
	assert.False(t, IsSkip(err))
}

func TestRun_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	colPath := testutil.BuildCollection(t, testutil.CollectionFixture{})
	_, err := Run(context.Background(), &Scenario{
		Name:       "logged",
		Collection: colPath,
		Deck:       DefaultDeck,
		Checks:     []Check{{Type: CheckNotEmpty}, {Type: CheckDeckExists}},
	}, WithLogger(logger), fixedRunID())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "run_id=test-run-001")
	assert.Contains(t, out, `msg="check failed"`)
	assert.Contains(t, out, `msg="check passed"`)
	assert.Contains(t, out, "layout=legacy")
}

func TestRunAll(t *testing.T) {
	colPath := testutil.BuildCollection(t, inlineNotesFixture(store.LayoutLegacy))
	docPath := writeDocument(t, inlineNotesDocument)
	missing := filepath.Join(t.TempDir(), "collection.anki2")

	results, err := RunAll(context.Background(), []*Scenario{
		DefaultScenario(colPath, docPath),
		DefaultScenario(missing, docPath),
	}, fixedRunID())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Pass)
	assert.True(t, results[1].Skipped)
}

func TestSetup(t *testing.T) {
	colPath := testutil.BuildCollection(t, inlineNotesFixture(store.LayoutLegacy))

	col, teardown, err := Setup(colPath)
	require.NoError(t, err)
	require.NotNil(t, col)
	assert.NoError(t, teardown())
	assert.NoError(t, teardown())

	missing := filepath.Join(t.TempDir(), "collection.anki2")
	col, teardown, err = Setup(missing)
	assert.Nil(t, col)
	assert.Nil(t, teardown)
	require.Error(t, err)
	assert.True(t, IsSkip(err))

	var skip *SkipError
	require.ErrorAs(t, err, &skip)
	assert.Equal(t, missing, skip.Path)
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{Type: "card_count", Expected: "1 cards", Actual: "0 cards"}
	assert.Equal(t, "Assertion failed: card_count\n  Expected: 1 cards\n  Actual: 0 cards", err.Error())
}

func TestUUIDv7Generator(t *testing.T) {
	gen := UUIDv7Generator{}
	a, b := gen.Generate(), gen.Generate()
	assert.NotEqual(t, a, b)

	id, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}

func TestResult_AddCheck(t *testing.T) {
	r := NewResult("id", "s")
	r.AddCheck("a", CheckNotEmpty, nil)
	assert.True(t, r.Pass)

	r.AddCheck("b", CheckCardCount, &AssertionError{Type: CheckCardCount})
	assert.False(t, r.Pass)
	assert.Equal(t, []CheckResult{r.Checks[1]}, r.Failed())
}
