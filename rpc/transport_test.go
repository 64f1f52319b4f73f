package rpc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flexicommit/upload2pc/txn"
)

type echoHandler struct{}

func (echoHandler) VoteRequest(req txn.VoteRequest) (txn.VoteResponse, error) {
	if req.Filename == "" {
		return txn.VoteResponse{TxnID: req.TxnID, Vote: txn.VoteAbort, NodeID: "echo", Reason: "empty filename"}, nil
	}
	return txn.VoteResponse{TxnID: req.TxnID, Vote: txn.VoteCommit, NodeID: "echo"}, nil
}

func (echoHandler) GlobalDecision(msg txn.DecisionMsg) (txn.DecisionAck, error) {
	return txn.DecisionAck{TxnID: msg.TxnID, NodeID: "echo", Success: msg.Decision == txn.GlobalCommit}, nil
}

func startTestServer(t *testing.T, h Handler) *Server {
	t.Helper()
	s, err := Listen("127.0.0.1:0", h)
	require.NoError(t, err)
	go s.Serve()
	t.Cleanup(func() { s.Close() })
	return s
}

func TestClientVoteRequestRoundTrip(t *testing.T) {
	s := startTestServer(t, echoHandler{})
	c := NewClient(s.Addr())

	resp, err := c.VoteRequest(txn.VoteRequest{TxnID: "abc12345", Filename: "a.txt"})
	require.NoError(t, err)
	assert.Equal(t, txn.VoteCommit, resp.Vote)
	assert.Equal(t, txn.ID("abc12345"), resp.TxnID)
}

func TestClientVoteRequestAbort(t *testing.T) {
	s := startTestServer(t, echoHandler{})
	c := NewClient(s.Addr())

	resp, err := c.VoteRequest(txn.VoteRequest{TxnID: "abc12345"})
	require.NoError(t, err)
	assert.Equal(t, txn.VoteAbort, resp.Vote)
	assert.NotEmpty(t, resp.Reason)
}

func TestClientGlobalDecisionRoundTrip(t *testing.T) {
	s := startTestServer(t, echoHandler{})
	c := NewClient(s.Addr())

	ack, err := c.GlobalDecision(txn.DecisionMsg{TxnID: "abc12345", Decision: txn.GlobalCommit})
	require.NoError(t, err)
	assert.True(t, ack.Success)
}

func TestClientDialUnreachableReturnsError(t *testing.T) {
	c := &Client{Address: "127.0.0.1:1", Deadline: 200 * time.Millisecond}
	_, err := c.VoteRequest(txn.VoteRequest{TxnID: "abc12345", Filename: "a.txt"})
	assert.Error(t, err)
}
