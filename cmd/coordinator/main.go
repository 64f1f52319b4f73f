// Command coordinator runs the upload coordinator's HTTP surface (spec
// §4.1, §6): signup/login/upload/list, backed by a registry of storage and
// metadata participants.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/flexicommit/upload2pc/auth"
	"github.com/flexicommit/upload2pc/configs"
	"github.com/flexicommit/upload2pc/coordinator"
	"github.com/flexicommit/upload2pc/httpapi"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	httpPort := envOr(configs.EnvHTTPPort, "8080")
	registryPath := envOr("REGISTRY_FILE", "./registry.json")
	metadataHTTP := envOr("METADATA_HTTP_ADDR", "http://localhost:8081")
	secret := os.Getenv(configs.EnvSecretKey)
	if secret == "" {
		secret = envOr("SECRET_KEY", "dev-only-secret-change-me-please")
	}

	reg, err := coordinator.LoadRegistry(registryPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "coordinator: "+err.Error())
		os.Exit(1)
	}

	metrics := coordinator.NewMetrics(prometheus.DefaultRegisterer)
	coord := coordinator.NewManager(reg, metrics)

	jwtSvc, err := auth.NewService(secret, 24*time.Hour)
	if err != nil {
		fmt.Fprintln(os.Stderr, "coordinator: "+err.Error())
		os.Exit(1)
	}

	router := httpapi.NewRouter(coord, metadataHTTP, jwtSvc)
	configs.DPrintf("coordinator listening on :%s, %d storage + %d metadata participants",
		httpPort, len(reg.Storage), len(reg.Metadata))
	if err := http.ListenAndServe(":"+httpPort, router); err != nil {
		fmt.Fprintln(os.Stderr, "coordinator: "+err.Error())
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
