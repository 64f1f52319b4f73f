package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flexicommit/upload2pc/auth"
	"github.com/flexicommit/upload2pc/coordinator"
)

// readiness backs GET /healthz. NewRouter builds it already ready, and the
// coordinator only calls NewRouter after its participant registry has
// loaded; no participant connection is attempted before it answers 200.
type readiness struct {
	ready bool
}

func (r *readiness) handler(w http.ResponseWriter, req *http.Request) {
	if !r.ready {
		writeError(w, http.StatusServiceUnavailable, "not ready")
		return
	}
	w.WriteHeader(http.StatusOK)
}

// NewRouter assembles the coordinator's chi router (spec §6). Routing
// shape adapted from marmos91-dittofs's pkg/controlplane/api/router.go.
func NewRouter(coord *coordinator.Manager, metadataHTTP string, jwtSvc *auth.Service) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	metadataClient := NewMetadataClient(metadataHTTP)
	authHandler := &AuthHandler{Metadata: metadataClient, JWT: jwtSvc}
	uploadHandler := &UploadHandler{Coordinator: coord, Metadata: metadataClient}
	ready := &readiness{ready: true}

	r.Get("/healthz", ready.handler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(jwtSvc))
		r.Post("/files/upload", uploadHandler.Upload)
		r.Get("/files", uploadHandler.List)
	})

	return r
}
