package coordinator

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flexicommit/upload2pc/txn"
)

// fakeClient is a ParticipantClient test double keyed by node address, so
// manager_test.go can simulate an unreachable or aborting participant
// without a real listener — mirrors the teacher's own style of faking
// network.Commu in network/coordinator/2pc_test.go.
type fakeClient struct {
	address     string
	vote        txn.Vote
	ackOK       bool
	err         error
	decisionErr error
}

func (f *fakeClient) VoteRequest(req txn.VoteRequest) (txn.VoteResponse, error) {
	if f.err != nil {
		return txn.VoteResponse{}, f.err
	}
	return txn.VoteResponse{TxnID: req.TxnID, Vote: f.vote, NodeID: f.address}, nil
}

func (f *fakeClient) GlobalDecision(msg txn.DecisionMsg) (txn.DecisionAck, error) {
	if f.decisionErr != nil {
		return txn.DecisionAck{}, f.decisionErr
	}
	return txn.DecisionAck{TxnID: msg.TxnID, NodeID: f.address, Success: f.ackOK}, nil
}

func fakeRegistry() *Registry {
	return &Registry{
		Storage:  []ParticipantRef{{NodeID: "storage-1", Address: "storage-1:7000"}},
		Metadata: []ParticipantRef{{NodeID: "metadata-1", Address: "metadata-1:7000"}},
	}
}

func newTestManagerWithClients(clients map[string]*fakeClient) *Manager {
	reg := fakeRegistry()
	m := NewManager(reg, NewMetrics(prometheus.NewRegistry()))
	m.NewClient = func(address string) ParticipantClient {
		return clients[address]
	}
	return m
}

func TestExecuteUploadCommitsWhenAllVoteCommit(t *testing.T) {
	m := newTestManagerWithClients(map[string]*fakeClient{
		"storage-1:7000":  {address: "storage-1", vote: txn.VoteCommit, ackOK: true},
		"metadata-1:7000": {address: "metadata-1", vote: txn.VoteCommit, ackOK: true},
	})

	result, err := m.ExecuteUpload("a.txt", []byte("hello world!"), "alice")
	require.NoError(t, err)
	assert.Equal(t, "a.txt", result.Filename)
	assert.EqualValues(t, 12, result.Size)

	state, ok := m.TxnState(result.TxnID)
	require.True(t, ok)
	assert.Equal(t, "committed", state)
}

func TestExecuteUploadAbortsWhenOneParticipantVotesAbort(t *testing.T) {
	m := newTestManagerWithClients(map[string]*fakeClient{
		"storage-1:7000":  {address: "storage-1", vote: txn.VoteCommit, ackOK: true},
		"metadata-1:7000": {address: "metadata-1", vote: txn.VoteAbort, ackOK: true},
	})

	_, err := m.ExecuteUpload("b.bin", nil, "alice")
	assert.Error(t, err)
}

func TestExecuteUploadAbortsWhenParticipantUnreachable(t *testing.T) {
	m := newTestManagerWithClients(map[string]*fakeClient{
		"storage-1:7000":  {address: "storage-1", err: assertErr},
		"metadata-1:7000": {address: "metadata-1", vote: txn.VoteCommit, ackOK: true},
	})

	_, err := m.ExecuteUpload("c.txt", []byte("data"), "alice")
	assert.Error(t, err)
}

// A participant's failed or missing decision-phase ack does not change the
// outcome reported to the caller: the commit already happened on the
// participants that did ack, and they are authoritative (spec §4.1 failure
// semantics, §7 kind 4). Only the voting phase can cause an abort.
func TestExecuteUploadSucceedsWhenDecisionAckIncomplete(t *testing.T) {
	m := newTestManagerWithClients(map[string]*fakeClient{
		"storage-1:7000":  {address: "storage-1", vote: txn.VoteCommit, ackOK: false},
		"metadata-1:7000": {address: "metadata-1", vote: txn.VoteCommit, ackOK: true},
	})

	result, err := m.ExecuteUpload("d.txt", []byte("data"), "alice")
	require.NoError(t, err)
	assert.Equal(t, "d.txt", result.Filename)

	state, ok := m.TxnState(result.TxnID)
	require.True(t, ok)
	assert.Equal(t, "committed", state)
}

func TestExecuteUploadSucceedsWhenParticipantUnreachableDuringDecision(t *testing.T) {
	m := newTestManagerWithClients(map[string]*fakeClient{
		"storage-1:7000":  {address: "storage-1", vote: txn.VoteCommit, ackOK: true, decisionErr: assertErr},
		"metadata-1:7000": {address: "metadata-1", vote: txn.VoteCommit, ackOK: true},
	})

	result, err := m.ExecuteUpload("e.txt", []byte("data"), "alice")
	require.NoError(t, err)
	assert.Equal(t, "e.txt", result.Filename)
}

var assertErr = assertError{}

type assertError struct{}

func (assertError) Error() string { return "simulated connection failure" }
