package storageparticipant

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flexicommit/upload2pc/txn"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	dir := t.TempDir()
	m, err := NewManager("storage-1", dir)
	require.NoError(t, err)
	return m
}

func TestVoteRequestCommitsFileToTemp(t *testing.T) {
	m := newTestManager(t)

	resp, err := m.VoteRequest(txn.VoteRequest{
		TxnID:    "tx000001",
		Filename: "report.pdf",
		FileData: []byte("hello world"),
	})
	require.NoError(t, err)
	assert.Equal(t, txn.VoteCommit, resp.Vote)
	assert.True(t, m.IsPrepared("tx000001"))

	_, err = os.Stat(filepath.Join(m.StorageDir, "report.pdf"))
	assert.Error(t, err, "final file must not exist before the decision phase")
}

func TestVoteRequestAbortsOnEmptyFilename(t *testing.T) {
	m := newTestManager(t)

	resp, err := m.VoteRequest(txn.VoteRequest{TxnID: "tx000002", FileData: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, txn.VoteAbort, resp.Vote)
	assert.NotEmpty(t, resp.Reason)
	assert.False(t, m.IsPrepared("tx000002"))
}

func TestGlobalDecisionCommitRenamesToFinalPath(t *testing.T) {
	m := newTestManager(t)

	_, err := m.VoteRequest(txn.VoteRequest{TxnID: "tx000003", Filename: "a.txt", FileData: []byte("data")})
	require.NoError(t, err)

	ack, err := m.GlobalDecision(txn.DecisionMsg{TxnID: "tx000003", Decision: txn.GlobalCommit})
	require.NoError(t, err)
	assert.True(t, ack.Success)
	assert.False(t, m.IsPrepared("tx000003"))

	body, err := os.ReadFile(filepath.Join(m.StorageDir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(body))
}

func TestGlobalDecisionAbortRemovesTempFile(t *testing.T) {
	m := newTestManager(t)

	_, err := m.VoteRequest(txn.VoteRequest{TxnID: "tx000004", Filename: "b.txt", FileData: []byte("data")})
	require.NoError(t, err)

	ack, err := m.GlobalDecision(txn.DecisionMsg{TxnID: "tx000004", Decision: txn.GlobalAbort})
	require.NoError(t, err)
	assert.True(t, ack.Success)
	assert.False(t, m.IsPrepared("tx000004"))

	_, err = os.Stat(filepath.Join(m.StorageDir, "b.txt"))
	assert.Error(t, err)
	_, err = os.Stat(filepath.Join(m.TempDir, "tx000004_b.txt"))
	assert.Error(t, err)
}

func TestGlobalDecisionOnUnknownTxnIsNoOp(t *testing.T) {
	m := newTestManager(t)

	ack, err := m.GlobalDecision(txn.DecisionMsg{TxnID: "nonexist", Decision: txn.GlobalCommit})
	require.NoError(t, err)
	assert.False(t, ack.Success)
}

func TestGlobalDecisionCommitOverwritesOnSameFilenameRace(t *testing.T) {
	m := newTestManager(t)

	_, err := m.VoteRequest(txn.VoteRequest{TxnID: "tx0000a1", Filename: "same.txt", FileData: []byte("first")})
	require.NoError(t, err)
	_, err = m.VoteRequest(txn.VoteRequest{TxnID: "tx0000a2", Filename: "same.txt", FileData: []byte("second")})
	require.NoError(t, err)

	ack1, err := m.GlobalDecision(txn.DecisionMsg{TxnID: "tx0000a1", Decision: txn.GlobalCommit})
	require.NoError(t, err)
	assert.True(t, ack1.Success)

	ack2, err := m.GlobalDecision(txn.DecisionMsg{TxnID: "tx0000a2", Decision: txn.GlobalCommit})
	require.NoError(t, err)
	assert.True(t, ack2.Success)

	body, err := os.ReadFile(filepath.Join(m.StorageDir, "same.txt"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(body), "last writer wins per Open Question 1")
}
