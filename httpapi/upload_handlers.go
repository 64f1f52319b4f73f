package httpapi

import (
	"io"
	"net/http"

	"github.com/flexicommit/upload2pc/coordinator"
)

// UploadHandler implements POST /files/upload and GET /files (spec §6).
type UploadHandler struct {
	Coordinator *coordinator.Manager
	Metadata    *MetadataClient
}

const maxUploadBytes = 64 << 20 // 64 MiB, a practical bound the reference design leaves unspecified.

// Upload parses a multipart/form-data body's "file" part and drives a full
// 2PC round through the coordinator. 200 on commit, 500 on abort
// (spec §6, §7).
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	username, _ := usernameFromContext(r.Context())

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file part")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read upload")
		return
	}
	if int64(len(data)) > maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "file exceeds upload size limit")
		return
	}

	result, err := h.Coordinator.ExecuteUpload(header.Filename, data, username)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":    err.Error(),
			"filename": header.Filename,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "upload committed",
		"filename": result.Filename,
		"size":     result.Size,
	})
}

// List returns every committed metadata entry (spec §6's GET /files).
func (h *UploadHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Metadata.ListFiles()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "metadata service unreachable")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
