// Package storageparticipant implements the storage flavor of the 2PC
// participant protocol (spec §4.2): it stages uploaded bytes to a temp file
// during voting and promotes or discards them on the coordinator's
// decision. Adapted from the teacher's network/participant/manager.go and
// branch.go — the per-txn branch bookkeeping idiom is kept, the sharded
// row-level KV engine underneath it is not (this system has no rows: the
// committed state is a regular file on disk).
package storageparticipant

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/viney-shih/go-lock"

	"github.com/flexicommit/upload2pc/configs"
	"github.com/flexicommit/upload2pc/txn"
)

// prepared is the storage-flavor prepared-transaction record (spec §3).
type prepared struct {
	TempPath  string
	FinalPath string
	Filename  string
	Operation string
}

// Manager holds one node's prepared-transaction table and committed
// directory. A single mutex guards the table, per spec §5 ("a single mutex
// per map is sufficient — throughput is not a core concern"); adapted from
// the teacher's TwoPhaseLockNoWaitManager, which guards its row entries the
// same way with a viney-shih/go-lock mutex instead of sync.Mutex.
type Manager struct {
	NodeID     string
	StorageDir string
	TempDir    string

	mu       lock.Mutex
	prepared map[txn.ID]*prepared
}

// NewManager creates the storage and temp directories if absent (mirrors
// original_source's os.makedirs(..., exist_ok=True)) and returns a ready
// Manager.
func NewManager(nodeID, storageDir string) (*Manager, error) {
	tempDir := filepath.Join(storageDir, configs.DefaultTempDirName)
	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("storageparticipant: create storage dir: %w", err)
	}
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("storageparticipant: create temp dir: %w", err)
	}
	return &Manager{
		NodeID:     nodeID,
		StorageDir: storageDir,
		TempDir:    tempDir,
		mu:         lock.NewCASMutex(),
		prepared:   make(map[txn.ID]*prepared),
	}, nil
}

// VoteRequest implements spec §4.2's handler: stage file_data at temp_path,
// verify it landed, record the prepared entry, vote COMMIT. Any I/O failure
// votes ABORT with a textual reason; filename must be non-empty; file_data
// may be empty (no size check here — the metadata participant enforces
// that).
func (m *Manager) VoteRequest(req txn.VoteRequest) (txn.VoteResponse, error) {
	if req.Filename == "" {
		return m.abort(req.TxnID, "filename is empty"), nil
	}

	tempPath := filepath.Join(m.TempDir, fmt.Sprintf("%s_%s", req.TxnID, req.Filename))
	finalPath := filepath.Join(m.StorageDir, req.Filename)

	if err := os.WriteFile(tempPath, req.FileData, 0o644); err != nil {
		return m.abort(req.TxnID, fmt.Sprintf("write temp file: %v", err)), nil
	}
	if _, err := os.Stat(tempPath); err != nil {
		return m.abort(req.TxnID, fmt.Sprintf("temp file missing after write: %v", err)), nil
	}

	m.mu.Lock()
	m.prepared[req.TxnID] = &prepared{
		TempPath:  tempPath,
		FinalPath: finalPath,
		Filename:  req.Filename,
		Operation: req.Operation,
	}
	m.mu.Unlock()

	return txn.VoteResponse{TxnID: req.TxnID, Vote: txn.VoteCommit, NodeID: m.NodeID}, nil
}

func (m *Manager) abort(id txn.ID, reason string) txn.VoteResponse {
	return txn.VoteResponse{TxnID: id, Vote: txn.VoteAbort, NodeID: m.NodeID, Reason: reason}
}

// GlobalDecision implements spec §4.2's handler. An unknown TxnID (already
// decided, or never prepared here) is a protocol no-op: success=false, no
// state change — this prevents a replayed decision from rewriting state
// (spec §7 kind 3, §8 idempotence law).
func (m *Manager) GlobalDecision(msg txn.DecisionMsg) (txn.DecisionAck, error) {
	m.mu.Lock()
	p, ok := m.prepared[msg.TxnID]
	m.mu.Unlock()
	if !ok {
		return txn.DecisionAck{TxnID: msg.TxnID, NodeID: m.NodeID, Success: false}, nil
	}

	var ioErr error
	if msg.Decision == txn.GlobalCommit {
		// Open Question 1 (spec §9): a second commit racing onto the same
		// final_path overwrites silently. Implemented as specified —
		// last-writer-wins, not treated as a failure.
		ioErr = os.Rename(p.TempPath, p.FinalPath)
	} else {
		if _, statErr := os.Stat(p.TempPath); statErr == nil {
			ioErr = os.Remove(p.TempPath)
		}
	}

	if ioErr != nil {
		configs.Warn(false, fmt.Sprintf("storageparticipant: commit-time I/O failure for txn %s: %v", msg.TxnID, ioErr))
		return txn.DecisionAck{TxnID: msg.TxnID, NodeID: m.NodeID, Success: false}, nil
	}

	m.mu.Lock()
	delete(m.prepared, msg.TxnID)
	m.mu.Unlock()

	return txn.DecisionAck{TxnID: msg.TxnID, NodeID: m.NodeID, Success: true}, nil
}

// IsPrepared reports whether txnID currently holds prepared state — used by
// tests asserting invariant 1 of spec §3.
func (m *Manager) IsPrepared(id txn.ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.prepared[id]
	return ok
}
