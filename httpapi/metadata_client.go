package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
)

// MetadataClient is the coordinator's handle to a metadata participant's
// own HTTP surface (spec §6: "the coordinator's /auth/signup and
// /auth/login call them exactly as original_source's upload service calls
// its METADATA_API"). It is a plain HTTP client, not the 2PC rpc.Client —
// signup/login are not transactional operations.
type MetadataClient struct {
	BaseURL string
	HTTP    *http.Client
}

// NewMetadataClient returns a client targeting baseURL (e.g. "http://metadata-1:8081").
func NewMetadataClient(baseURL string) *MetadataClient {
	return &MetadataClient{BaseURL: baseURL, HTTP: &http.Client{Timeout: 10 * time.Second}}
}

// CreateUser calls POST /users. created is true only on HTTP 201.
func (c *MetadataClient) CreateUser(username, password string) (created bool, err error) {
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, err := c.HTTP.Post(c.BaseURL+"/users", "application/json", bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("metadata client: create user: %w", err)
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusCreated, nil
}

// FileEntry mirrors metadataparticipant.CatalogEntry for GET /files
// responses, kept separate so httpapi does not import metadataparticipant
// directly (the coordinator only ever talks to participants over HTTP or
// the 2PC rpc transport, never in-process).
type FileEntry struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	User     string `json:"user"`
	Path     string `json:"path"`
	Version  int    `json:"version"`
}

// ListFiles calls GET /files on the metadata participant.
func (c *MetadataClient) ListFiles() ([]FileEntry, error) {
	resp, err := c.HTTP.Get(c.BaseURL + "/files")
	if err != nil {
		return nil, fmt.Errorf("metadata client: list files: %w", err)
	}
	defer resp.Body.Close()
	var entries []FileEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("metadata client: decode response: %w", err)
	}
	return entries, nil
}

// GetUser calls GET /users/{username}. found is false on HTTP 404.
func (c *MetadataClient) GetUser(username string) (passwordHash string, found bool, err error) {
	resp, err := c.HTTP.Get(c.BaseURL + "/users/" + url.PathEscape(username))
	if err != nil {
		return "", false, fmt.Errorf("metadata client: get user: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return "", false, nil
	}
	var out struct {
		PasswordHash string `json:"password_hash"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", false, fmt.Errorf("metadata client: decode response: %w", err)
	}
	return out.PasswordHash, true, nil
}
