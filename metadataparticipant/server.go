package metadataparticipant

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter assembles the metadata participant's own local HTTP surface
// (spec §4.3 / §6 addition): POST /users, GET /users/{username},
// GET /files. Distinct process and port from the coordinator's router.
func NewRouter(m *Manager) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Post("/users", m.HandleCreateUser)
	r.Get("/users/{username}", func(w http.ResponseWriter, r *http.Request) {
		m.HandleGetUser(chi.URLParam(r, "username"), w, r)
	})
	r.Get("/files", m.HandleListFiles)

	return r
}
