package httpapi

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/flexicommit/upload2pc/auth"
)

// AuthHandler implements POST /auth/signup and POST /auth/login (spec §6).
type AuthHandler struct {
	Metadata *MetadataClient
	JWT      *auth.Service
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Signup delegates user creation to the metadata participant's user table.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || len(req.Password) < auth.MinPasswordLength {
		writeError(w, http.StatusBadRequest, "invalid username or password")
		return
	}
	created, err := h.Metadata.CreateUser(req.Username, req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "metadata service unreachable")
		return
	}
	if !created {
		writeError(w, http.StatusConflict, "username already exists")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"username": req.Username})
}

// Login validates credentials against the metadata participant and, on
// success, issues a bearer token (spec §6's {token} response).
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	hash, found, err := h.Metadata.GetUser(req.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "metadata service unreachable")
		return
	}
	if !found || !auth.CheckPassword(hash, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token, err := h.JWT.IssueToken(req.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token issuance failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
