package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "ankicheck", cmd.Use)
	assert.Contains(t, cmd.Long, "reference markdown document")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"verify", "watch", "ids", "inspect"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)
}

func TestWatchCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	watchCmd, _, err := cmd.Find([]string{"watch"})
	require.NoError(t, err)

	scheduleFlag := watchCmd.Flags().Lookup("schedule")
	require.NotNil(t, scheduleFlag)
	assert.Equal(t, "", scheduleFlag.DefValue)

	countFlag := watchCmd.Flags().Lookup("count")
	require.NotNil(t, countFlag)
	assert.Equal(t, "0", countFlag.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := executeCommand(t, "--format", "xml", "ids", "doc.md")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestConfigErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, _, err := executeCommand(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "ids", "doc.md")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "loading configuration")
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})

	t.Run("invalid value", func(t *testing.T) {
		cfg := writeFile(t, t.TempDir(), "ankicheck.yaml", "logging:\n  level: loud\n")
		_, _, err := executeCommand(t, "--config", cfg, "ids", "doc.md")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})
}

func TestConfigSyntaxReachesCommands(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "ankicheck.yaml", "syntax:\n  id_property: note-id\n")
	doc := writeFile(t, dir, "doc.md", "---\nnote-id: 42\nanki-id: 7\n---\nbody\n")

	stdout, _, err := executeCommand(t, "--config", cfg, "ids", doc)
	require.NoError(t, err)
	assert.Equal(t, "42\n", stdout)
}

func TestVerboseLogsGoToStderr(t *testing.T) {
	colPath := inlineNotesCollection(t)
	docPath := writeFile(t, t.TempDir(), "inline_notes.md", inlineNotesDocument)

	stdout, stderr, err := executeCommand(t, "-v", "--format", "json", "verify", "--collection", colPath, "--document", docPath)
	require.NoError(t, err)
	assert.Contains(t, stderr, "collection opened")
	assert.NotContains(t, stdout, "collection opened")
}
