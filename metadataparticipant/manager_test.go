package metadataparticipant

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flexicommit/upload2pc/txn"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager("metadata-1", nil, nil)
	require.NoError(t, err)
	return m
}

func voteReq(id txn.ID, filename string, size int64) txn.VoteRequest {
	return txn.VoteRequest{
		TxnID:    id,
		Filename: filename,
		Metadata: txn.FileMetadata{Filename: filename, Size: size, User: "alice"},
	}
}

func TestVoteRequestCommitsValidMetadata(t *testing.T) {
	m := newTestManager(t)
	resp, err := m.VoteRequest(voteReq("tx000001", "a.txt", 12))
	require.NoError(t, err)
	assert.Equal(t, txn.VoteCommit, resp.Vote)
	assert.True(t, m.IsPrepared("tx000001"))
}

func TestVoteRequestAbortsOnEmptyFilename(t *testing.T) {
	m := newTestManager(t)
	resp, err := m.VoteRequest(voteReq("tx000002", "", 12))
	require.NoError(t, err)
	assert.Equal(t, txn.VoteAbort, resp.Vote)
}

func TestVoteRequestAbortsOnNonPositiveSize(t *testing.T) {
	m := newTestManager(t)
	resp, err := m.VoteRequest(voteReq("tx000003", "b.bin", 0)) // boundary: scenario 4
	require.NoError(t, err)
	assert.Equal(t, txn.VoteAbort, resp.Vote)
}

func TestVoteRequestAbortsOnExistingFilename(t *testing.T) {
	m := newTestManager(t)
	_, err := m.VoteRequest(voteReq("tx000004", "a.txt", 12))
	require.NoError(t, err)
	_, err = m.GlobalDecision(txn.DecisionMsg{TxnID: "tx000004", Decision: txn.GlobalCommit})
	require.NoError(t, err)

	resp, err := m.VoteRequest(voteReq("tx000005", "a.txt", 99)) // scenario 2: repeat upload
	require.NoError(t, err)
	assert.Equal(t, txn.VoteAbort, resp.Vote)
}

func TestGlobalDecisionCommitInsertsEntry(t *testing.T) {
	m := newTestManager(t)
	_, err := m.VoteRequest(voteReq("tx000006", "c.txt", 5))
	require.NoError(t, err)

	ack, err := m.GlobalDecision(txn.DecisionMsg{TxnID: "tx000006", Decision: txn.GlobalCommit})
	require.NoError(t, err)
	assert.True(t, ack.Success)

	files := m.ListFiles()
	require.Len(t, files, 1)
	want := CatalogEntry{Filename: "c.txt", Size: 5, User: "alice", Path: "/storage/c.txt", Version: 1}
	if diff := cmp.Diff(want, files[0]); diff != "" {
		t.Errorf("committed entry mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, m.IsPrepared("tx000006"))
}

func TestGlobalDecisionAbortDropsPreparedRecord(t *testing.T) {
	m := newTestManager(t)
	_, err := m.VoteRequest(voteReq("tx000007", "d.txt", 5))
	require.NoError(t, err)

	ack, err := m.GlobalDecision(txn.DecisionMsg{TxnID: "tx000007", Decision: txn.GlobalAbort})
	require.NoError(t, err)
	assert.True(t, ack.Success)
	assert.Empty(t, m.ListFiles())
	assert.False(t, m.IsPrepared("tx000007"))
}

func TestGlobalDecisionOnUnknownTxnIsNoOp(t *testing.T) {
	m := newTestManager(t)
	ack, err := m.GlobalDecision(txn.DecisionMsg{TxnID: "nonexist", Decision: txn.GlobalCommit})
	require.NoError(t, err)
	assert.False(t, ack.Success)
}

func TestAddUserRejectsDuplicate(t *testing.T) {
	m := newTestManager(t)
	assert.True(t, m.AddUser("alice", "hash1"))
	assert.False(t, m.AddUser("alice", "hash2"))

	hash, ok := m.PasswordHash("alice")
	require.True(t, ok)
	assert.Equal(t, "hash1", hash)
}
