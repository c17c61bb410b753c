package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/CatchLog_Go/internal/worker"
)

const shippedCatalog = "../../configs/challenges.json"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"migrate", "sync-catalog", "validate-catalog", "reconcile", "events", "level"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	for _, name := range []string{"up", "down", "status"} {
		sub, _, err := cmd.Find([]string{"migrate", name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "--format", "yaml", "level", "10")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestLevelCommand(t *testing.T) {
	out, err := execute(t, "level", "85")
	require.NoError(t, err)
	assert.Equal(t, "level 2 (bronze), 35/70 to next (50%)\n", out)

	out, err = execute(t, "--format", "json", "level", "2600")
	require.NoError(t, err)
	var got levelOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 11, got.Level)
	assert.Equal(t, int64(2900), got.NextLevelAt)
	assert.Equal(t, 50, got.Progress.Percentage)

	_, err = execute(t, "level", "lots")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidateCatalogCommand(t *testing.T) {
	out, err := execute(t, "validate-catalog", shippedCatalog)
	require.NoError(t, err)
	assert.Contains(t, out, "valid:")
	assert.NotContains(t, out, "warning:")

	broken := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"challenges": []}`), 0o600))

	out, err = execute(t, "--format", "json", "validate-catalog", broken)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var check catalogCheck
	require.NoError(t, json.Unmarshal([]byte(out), &check))
	assert.False(t, check.Valid)
	assert.NotEmpty(t, check.Error)
}

func TestReconcileCommand_Args(t *testing.T) {
	_, err := execute(t, "reconcile")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "reconcile", "acct", "--all")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReconcileCommand_MemoryStore(t *testing.T) {
	t.Setenv("STORE", "memory")

	out, err := execute(t, "--format", "json", "reconcile", "--all")
	require.NoError(t, err)
	var summary worker.ReconcileSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Zero(t, summary.Accounts)

	out, err = execute(t, "reconcile", "acct")
	require.NoError(t, err)
	assert.Contains(t, out, "xp: 0 -> 0")
}

func TestSyncCatalogCommand_MemoryStore(t *testing.T) {
	t.Setenv("STORE", "memory")

	out, err := execute(t, "sync-catalog", "--path", shippedCatalog)
	require.NoError(t, err)
	assert.Contains(t, out, "inserted:")
	assert.NotContains(t, out, "inserted: 0")
}

func TestEventsCommand_RequiresPostgres(t *testing.T) {
	t.Setenv("STORE", "memory")

	_, err := execute(t, "events", "acct")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestMigrateCommand_RequiresPostgres(t *testing.T) {
	t.Setenv("STORE", "memory")

	_, err := execute(t, "migrate", "status")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "migrate", "down", "latest")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
