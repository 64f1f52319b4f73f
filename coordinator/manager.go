// Package coordinator drives the two-phase-commit protocol across every
// registered participant for a single file upload (spec §4.1). Adapted
// from the teacher's network/coordinator/2pc.go PreWrite/DecideBlock pair —
// the voting-then-deciding shape is kept; the alternate-protocol dispatch
// (3PC, Paxos-variant commit, learned timeouts) around it is not, since
// this system only ever runs the one protocol the spec names.
package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/viney-shih/go-lock"
	"golang.org/x/sync/errgroup"

	"github.com/flexicommit/upload2pc/configs"
	"github.com/flexicommit/upload2pc/rpc"
	"github.com/flexicommit/upload2pc/txn"
)

// Upload is the result of a successful ExecuteUpload (spec §6's
// {message, filename, size} response body).
type Upload struct {
	TxnID    txn.ID
	Filename string
	Size     int64
}

// txnLog is the coordinator's in-memory transition log, adapted from the
// teacher's log_manager.go. It exists for observability only — per spec §9
// Open Question 2, there is no durable replay of it at startup.
type txnLog struct {
	mu     lock.Mutex
	states map[txn.ID]string
}

func newTxnLog() *txnLog {
	return &txnLog{mu: lock.NewCASMutex(), states: make(map[txn.ID]string)}
}

func (l *txnLog) record(id txn.ID, state string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states[id] = state
}

// State returns the last recorded state for id, for tests and diagnostics.
func (l *txnLog) State(id txn.ID) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.states[id]
	return s, ok
}

// Manager coordinates uploads against a fixed Registry of participants.
type Manager struct {
	Registry *Registry
	Metrics  *Metrics
	logs     *txnLog

	// NewClient is overridable in tests to avoid real TCP dials.
	NewClient func(address string) ParticipantClient
}

// ParticipantClient is the subset of *rpc.Client the coordinator calls —
// narrowed to an interface so manager_test.go can fake unreachable or
// slow participants without a real listener.
type ParticipantClient interface {
	VoteRequest(req txn.VoteRequest) (txn.VoteResponse, error)
	GlobalDecision(msg txn.DecisionMsg) (txn.DecisionAck, error)
}

// NewManager builds a coordinator against reg, instrumented with metrics.
func NewManager(reg *Registry, metrics *Metrics) *Manager {
	return &Manager{
		Registry: reg,
		Metrics:  metrics,
		logs:     newTxnLog(),
		NewClient: func(address string) ParticipantClient {
			return rpc.NewClient(address)
		},
	}
}

// ExecuteUpload runs one full two-phase-commit round for filename/data on
// behalf of user: a voting phase fanned out to every registered
// participant, then a decision phase that sends GLOBAL_COMMIT (iff every
// vote was COMMIT) or GLOBAL_ABORT to every participant. The upload is
// reported as successful iff the decision was GLOBAL_COMMIT; missing or
// negative decision acks are logged and do not change that result.
func (m *Manager) ExecuteUpload(filename string, data []byte, user string) (Upload, error) {
	start := time.Now()
	id := txn.NewID()
	participants := m.Registry.All()

	req := txn.VoteRequest{
		TxnID:     id,
		Operation: configs.OpUpload,
		Filename:  filename,
		FileData:  data,
		Metadata: txn.FileMetadata{
			Filename: filename,
			Size:     int64(len(data)),
			User:     user,
		},
	}

	m.logs.record(id, configs.StatePrepared)
	votes, voteErr := m.fanOutVotes(participants, req)

	decision := txn.GlobalCommit
	if voteErr != nil || !allCommitted(votes, participants) {
		decision = txn.GlobalAbort
	}

	if m.Metrics != nil {
		for _, v := range votes {
			m.Metrics.VotesTotal.WithLabelValues(string(v.Vote)).Inc()
		}
		m.Metrics.DecisionsTotal.WithLabelValues(string(decision)).Inc()
	}

	acks, ackErr := m.fanOutDecision(participants, txn.DecisionMsg{TxnID: id, Decision: decision})

	if decision == txn.GlobalCommit {
		m.logs.record(id, configs.StateCommitted)
	} else {
		m.logs.record(id, configs.StateAborted)
	}

	if m.Metrics != nil {
		m.Metrics.TxnDuration.Observe(time.Since(start).Seconds())
	}

	if decision != txn.GlobalCommit {
		return Upload{}, fmt.Errorf("coordinator: transaction %s aborted during voting", id)
	}

	// A participant unreachable or failing during the decision phase after
	// a GLOBAL_COMMIT does not change the outcome reported to the caller:
	// the committed participants are authoritative (spec §4.1 failure
	// semantics, §7 kind 4). The laggard is only logged.
	if ackErr != nil || !allAcked(acks, participants) {
		configs.Warn(false, fmt.Sprintf("coordinator: transaction %s committed but not all participants acknowledged", id))
	}

	return Upload{TxnID: id, Filename: filename, Size: int64(len(data))}, nil
}

// fanOutVotes sends req to every participant concurrently, bounded by
// configs.MaxConnectionHandler in-flight calls (spec §5's "outbound RPCs
// may be issued in parallel"). A participant that errors (timeout,
// connection refused) is treated as an implicit ABORT, per spec §7 kind 2.
func (m *Manager) fanOutVotes(participants []ParticipantRef, req txn.VoteRequest) ([]txn.VoteResponse, error) {
	responses := make([]txn.VoteResponse, len(participants))
	g, _ := errgroup.WithContext(context.Background())
	sem := make(chan struct{}, configs.MaxConnectionHandler)

	for i, p := range participants {
		i, p := i, p
		g.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()
			client := m.NewClient(p.Address)
			resp, err := client.VoteRequest(req)
			if err != nil {
				configs.Warn(false, fmt.Sprintf("coordinator: vote request to %s failed: %v", p.NodeID, err))
				responses[i] = txn.VoteResponse{TxnID: req.TxnID, Vote: txn.VoteAbort, NodeID: p.NodeID, Reason: err.Error()}
				return nil
			}
			responses[i] = resp
			return nil
		})
	}
	err := g.Wait()
	return responses, err
}

// fanOutDecision sends msg to every participant concurrently, same
// concurrency bound as fanOutVotes. A participant that errors during the
// decision phase is logged and recorded as a failed acknowledgment
// (spec §7 kind 2, "logged and ignored during decision").
func (m *Manager) fanOutDecision(participants []ParticipantRef, msg txn.DecisionMsg) ([]txn.DecisionAck, error) {
	acks := make([]txn.DecisionAck, len(participants))
	g, _ := errgroup.WithContext(context.Background())
	sem := make(chan struct{}, configs.MaxConnectionHandler)

	for i, p := range participants {
		i, p := i, p
		g.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()
			client := m.NewClient(p.Address)
			ack, err := client.GlobalDecision(msg)
			if err != nil {
				configs.Warn(false, fmt.Sprintf("coordinator: decision to %s failed: %v", p.NodeID, err))
				acks[i] = txn.DecisionAck{TxnID: msg.TxnID, NodeID: p.NodeID, Success: false}
				return nil
			}
			acks[i] = ack
			return nil
		})
	}
	err := g.Wait()
	return acks, err
}

func allCommitted(votes []txn.VoteResponse, participants []ParticipantRef) bool {
	if len(votes) != len(participants) {
		return false
	}
	for _, v := range votes {
		if v.Vote != txn.VoteCommit {
			return false
		}
	}
	return true
}

func allAcked(acks []txn.DecisionAck, participants []ParticipantRef) bool {
	if len(acks) != len(participants) {
		return false
	}
	for _, a := range acks {
		if !a.Success {
			return false
		}
	}
	return true
}

// TxnState returns the last observed state for id, backing diagnostics only
// — never the commit-critical path (spec §9 Open Question 2).
func (m *Manager) TxnState(id txn.ID) (string, bool) {
	return m.logs.State(id)
}
