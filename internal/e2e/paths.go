// Package e2e verifies the collection and reference document left behind
// by the end-to-end sync run.
//
// The sync pipeline writes its outputs below tests/test_outputs in the
// repository. When they are absent every test here skips.
package e2e

import (
	"path/filepath"
	"runtime"

	"github.com/roach88/ankicheck/internal/harness"
)

// RepoRoot returns the repository root, located relative to this file.
func RepoRoot() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..")
}

// InlineNotesCollection is the collection the inline_notes sync produces.
func InlineNotesCollection() string {
	return filepath.Join(RepoRoot(), "tests", "test_outputs", "inline_notes", "Anki2", "User 1", "collection.anki2")
}

// InlineNotesDocument is the reference document of the inline_notes sync.
func InlineNotesDocument() string {
	return filepath.Join(RepoRoot(), "tests", "test_outputs", "inline_notes", "Obsidian", "inline_notes", "inline_notes.md")
}

// InlineNotesScenario is the default scenario bound to the e2e outputs.
func InlineNotesScenario() *harness.Scenario {
	return harness.DefaultScenario(InlineNotesCollection(), InlineNotesDocument())
}
