package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewindlabs/rewind/internal/logstore"
	"github.com/rewindlabs/rewind/internal/txlog"
	"github.com/rewindlabs/rewind/internal/world"
)

// archiveTransactions writes pre-built transactions to a fresh database,
// bypassing the log so tests can archive malformed histories.
func archiveTransactions(t *testing.T, txs []txlog.Committed) string {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "world.db")
	st, err := logstore.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.Archive(context.Background(), txs))
	return dbPath
}

func TestVerifyMissingDatabaseFlag(t *testing.T) {
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewVerifyCommand(rootOpts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestVerifyNonExistentDatabase(t *testing.T) {
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewVerifyCommand(rootOpts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", "/nonexistent/path/world.db"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestVerifyCleanArchive(t *testing.T) {
	dbPath := seedArchive(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewVerifyCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath})

	require.NoError(t, cmd.Execute())
	out := buf.String()

	assert.Contains(t, out, "Transactions: 3")
	assert.Contains(t, out, "Sets:         2")
	assert.Contains(t, out, "Undos:        1")
	assert.Contains(t, out, "OK: all invariants hold")
}

func TestVerifyEmptyArchive(t *testing.T) {
	dbPath := archiveTransactions(t, nil)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewVerifyCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Transactions: 0")
}

func TestVerifyFlagsViolations(t *testing.T) {
	// A set without a coordinate and an undo whose target never committed.
	txs := []txlog.Committed{
		{Pending: txlog.Pending{Op: txlog.SetOp(cliStone)}, ID: txlog.TransactionID{Major: 0}},
		{Pending: txlog.Pending{Op: txlog.UndoOp(txlog.TransactionID{Major: 5})}, ID: txlog.TransactionID{Major: 1}},
	}
	dbPath := archiveTransactions(t, txs)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewVerifyCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	out := buf.String()
	assert.Contains(t, out, "set without coordinate")
	assert.Contains(t, out, "undo target 5.0 does not precede it")
}

func TestVerifyCyclicUndoArchive(t *testing.T) {
	// Undo targets pointing at each other: ascending ids, so the archive
	// loads, but no chain resolves. Verify must finish and report it.
	txs := []txlog.Committed{
		{Pending: txlog.Pending{Op: txlog.SetOp(cliStone), Coord: &world.Coord{}}, ID: txlog.TransactionID{Major: 0}},
		{Pending: txlog.Pending{Op: txlog.UndoOp(txlog.TransactionID{Major: 2})}, ID: txlog.TransactionID{Major: 1}},
		{Pending: txlog.Pending{Op: txlog.UndoOp(txlog.TransactionID{Major: 1})}, ID: txlog.TransactionID{Major: 2}},
	}
	dbPath := archiveTransactions(t, txs)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewVerifyCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	out := buf.String()
	assert.Contains(t, out, "undo target 2.0 does not precede it")
	assert.Contains(t, out, "undo chain does not resolve to a coordinate")
}

func TestVerifyJSONOutput(t *testing.T) {
	dbPath := seedArchive(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewVerifyCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath})

	require.NoError(t, cmd.Execute())

	var response struct {
		Status string       `json:"status"`
		Data   VerifyResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &response))

	assert.Equal(t, "ok", response.Status)
	assert.True(t, response.Data.OK)
	assert.Equal(t, 3, response.Data.Transactions)
	assert.Equal(t, 1, response.Data.Coordinates)
	assert.Empty(t, response.Data.Violations)
}
