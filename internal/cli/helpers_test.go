package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/ankicheck/internal/store"
	"github.com/roach88/ankicheck/internal/testutil"
)

const inlineNotesDocument = `---
anki-id: 1555555555
tags: obsidian
---
# Inline notes

«« This is a test. :: Test successful! »»
`

// executeCommand runs the root command with args and returns what it
// wrote to stdout and stderr.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(testutil.Context(t))
	return stdout.String(), stderr.String(), err
}

func inlineNotesCollection(t *testing.T) string {
	t.Helper()
	return testutil.BuildCollection(t, testutil.CollectionFixture{
		Layout: store.LayoutModern,
		Notes: []testutil.FixtureNote{
			{ID: 1555555555, Fields: []string{"This is a test.", "Test successful!"}, Tags: []string{"obsidian"}},
		},
	})
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
