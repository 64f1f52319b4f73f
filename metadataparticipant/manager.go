// Package metadataparticipant implements the metadata flavor of the 2PC
// participant (spec §4.3): it validates and commits a file's metadata
// record into a committed store, optionally mirrored to Postgres and
// Mongo. Adapted from the teacher's network/participant/manager.go state
// machine, with the row-level KV engine beneath it replaced by a plain
// map — this participant has one table, not a sharded set of them.
package metadataparticipant

import (
	"fmt"
	"sync"

	"github.com/viney-shih/go-lock"

	"github.com/flexicommit/upload2pc/configs"
	"github.com/flexicommit/upload2pc/txn"
)

// CatalogEntry is the committed record returned by GET /files and mirrored
// to the catalog (spec §4.3's inserted record shape).
type CatalogEntry struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	User     string `json:"user"`
	Path     string `json:"path"`
	Version  int    `json:"version"`
}

type preparedRecord struct {
	Entry CatalogEntry
}

// CatalogMirror receives a best-effort, async copy of every committed entry.
// Implemented by metadataparticipant.MongoMirror; a nil Mirror disables it.
type CatalogMirror interface {
	Mirror(entry CatalogEntry)
}

// DurableStore persists the committed store and hydrates it at startup.
// Implemented by metadataparticipant.PostgresStore; a nil Store keeps the
// reference design's pure in-memory behavior.
type DurableStore interface {
	PutFile(entry CatalogEntry) error
	LoadFiles() ([]CatalogEntry, error)
	PutUser(username, passwordHash string) error
	LoadUsers() (map[string]string, error)
}

// Manager holds one node's prepared-transaction table and committed store.
type Manager struct {
	NodeID string

	mu        lock.Mutex
	prepared  map[txn.ID]*preparedRecord
	committed map[string]CatalogEntry // keyed by filename

	usersMu sync.Mutex
	users   map[string]string // username -> bcrypt hash

	Durable DurableStore
	Mirror  CatalogMirror
}

// NewManager returns a ready Manager, hydrating its committed store and
// user table from Durable if one is configured (spec §4.3's "hydrates the
// map from Postgres at startup").
func NewManager(nodeID string, durable DurableStore, mirror CatalogMirror) (*Manager, error) {
	m := &Manager{
		NodeID:    nodeID,
		mu:        lock.NewCASMutex(),
		prepared:  make(map[txn.ID]*preparedRecord),
		committed: make(map[string]CatalogEntry),
		users:     make(map[string]string),
		Durable:   durable,
		Mirror:    mirror,
	}
	if durable != nil {
		entries, err := durable.LoadFiles()
		if err != nil {
			return nil, fmt.Errorf("metadataparticipant: hydrate from durable store: %w", err)
		}
		for _, e := range entries {
			m.committed[e.Filename] = e
		}
		users, err := durable.LoadUsers()
		if err != nil {
			return nil, fmt.Errorf("metadataparticipant: hydrate users from durable store: %w", err)
		}
		for username, hash := range users {
			m.users[username] = hash
		}
	}
	return m, nil
}

// VoteRequest validates the three predicates from spec §4.3: non-empty
// filename, no existing committed entry with that filename, strictly
// positive size.
func (m *Manager) VoteRequest(req txn.VoteRequest) (txn.VoteResponse, error) {
	md := req.Metadata

	if md.Filename == "" {
		return m.abort(req.TxnID, "filename is empty"), nil
	}

	m.mu.Lock()
	_, exists := m.committed[md.Filename]
	m.mu.Unlock()
	if exists {
		return m.abort(req.TxnID, fmt.Sprintf("filename %q already committed", md.Filename)), nil
	}

	if md.Size <= 0 {
		return m.abort(req.TxnID, "size must be strictly positive"), nil
	}

	m.mu.Lock()
	m.prepared[req.TxnID] = &preparedRecord{Entry: CatalogEntry{
		Filename: md.Filename,
		Size:     md.Size,
		User:     md.User,
		Path:     "/storage/" + md.Filename,
		Version:  1,
	}}
	m.mu.Unlock()

	return txn.VoteResponse{TxnID: req.TxnID, Vote: txn.VoteCommit, NodeID: m.NodeID}, nil
}

func (m *Manager) abort(id txn.ID, reason string) txn.VoteResponse {
	return txn.VoteResponse{TxnID: id, Vote: txn.VoteAbort, NodeID: m.NodeID, Reason: reason}
}

// GlobalDecision implements spec §4.3's handler. Same unknown-txn rule as
// the storage flavor; on commit, the insert must not replace an existing
// key — a collision here means two transactions both validated against
// the same then-absent filename, which the spec attributes to coordinator
// misuse (§9) rather than something this handler can prevent alone.
func (m *Manager) GlobalDecision(msg txn.DecisionMsg) (txn.DecisionAck, error) {
	m.mu.Lock()
	p, ok := m.prepared[msg.TxnID]
	m.mu.Unlock()
	if !ok {
		return txn.DecisionAck{TxnID: msg.TxnID, NodeID: m.NodeID, Success: false}, nil
	}

	if msg.Decision != txn.GlobalCommit {
		m.mu.Lock()
		delete(m.prepared, msg.TxnID)
		m.mu.Unlock()
		return txn.DecisionAck{TxnID: msg.TxnID, NodeID: m.NodeID, Success: true}, nil
	}

	m.mu.Lock()
	if _, collision := m.committed[p.Entry.Filename]; collision {
		m.mu.Unlock()
		configs.Warn(false, fmt.Sprintf("metadataparticipant: commit collision on filename %q for txn %s", p.Entry.Filename, msg.TxnID))
		return txn.DecisionAck{TxnID: msg.TxnID, NodeID: m.NodeID, Success: false}, nil
	}
	m.committed[p.Entry.Filename] = p.Entry
	delete(m.prepared, msg.TxnID)
	m.mu.Unlock()

	if m.Durable != nil {
		if err := m.Durable.PutFile(p.Entry); err != nil {
			configs.Warn(false, fmt.Sprintf("metadataparticipant: durable write failed for %q: %v", p.Entry.Filename, err))
		}
	}
	if m.Mirror != nil {
		go m.Mirror.Mirror(p.Entry)
	}

	return txn.DecisionAck{TxnID: msg.TxnID, NodeID: m.NodeID, Success: true}, nil
}

// IsPrepared reports whether txnID currently holds prepared state.
func (m *Manager) IsPrepared(id txn.ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.prepared[id]
	return ok
}

// ListFiles returns every committed entry — backs GET /files (spec §6).
// Prepared state is never surfaced here (spec §7).
func (m *Manager) ListFiles() []CatalogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CatalogEntry, 0, len(m.committed))
	for _, e := range m.committed {
		out = append(out, e)
	}
	return out
}
