package metadataparticipant

import (
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/flexicommit/upload2pc/auth"
	"github.com/flexicommit/upload2pc/configs"
)

// AddUser records a new username/password-hash pair. Returns false if the
// username already exists — signup is a single-node write, never routed
// through the coordinator (spec §4.3's addition note).
func (m *Manager) AddUser(username, passwordHash string) bool {
	m.usersMu.Lock()
	defer m.usersMu.Unlock()
	if _, exists := m.users[username]; exists {
		return false
	}
	m.users[username] = passwordHash
	if m.Durable != nil {
		if err := m.Durable.PutUser(username, passwordHash); err != nil {
			// The in-memory table remains authoritative for this process;
			// a durable write failure never surfaces to the signup response.
			configs.Warn(false, fmt.Sprintf("metadataparticipant: durable user write failed for %q: %v", username, err))
		}
	}
	return true
}

// PasswordHash returns the stored hash for username, if any.
func (m *Manager) PasswordHash(username string) (string, bool) {
	m.usersMu.Lock()
	defer m.usersMu.Unlock()
	hash, ok := m.users[username]
	return hash, ok
}

type signupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleCreateUser implements POST /users on the metadata participant's
// local user-table HTTP surface (spec §4.3's addition); HandleGetUser
// implements GET /users/{username}.
func (m *Manager) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || len(req.Password) < auth.MinPasswordLength {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid username or password"})
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "hash failure"})
		return
	}
	if !m.AddUser(req.Username, hash) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "username already exists"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"username": req.Username})
}

func (m *Manager) HandleGetUser(username string, w http.ResponseWriter, r *http.Request) {
	hash, ok := m.PasswordHash(username)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"username": username, "password_hash": hash})
}

func (m *Manager) HandleListFiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, m.ListFiles())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
