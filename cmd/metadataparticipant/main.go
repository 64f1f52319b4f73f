// Command metadataparticipant runs a metadata-flavor 2PC participant: an
// RPC server for VoteRequest/GlobalDecision plus a local HTTP surface for
// the user table and file listing (spec §4.3, §6).
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/flexicommit/upload2pc/configs"
	"github.com/flexicommit/upload2pc/metadataparticipant"
	"github.com/flexicommit/upload2pc/rpc"
)

func main() {
	nodeID := envOr(configs.EnvNodeID, "metadata-1")
	rpcPort := envOr(configs.EnvGRPCPort, "7001")
	httpPort := envOr(configs.EnvHTTPPort, "8081")

	var durable *metadataparticipant.PostgresStore
	var mirror *metadataparticipant.MongoMirror
	ctx := context.Background()

	if dsn := os.Getenv("METADATA_DSN"); dsn != "" {
		store, err := metadataparticipant.NewPostgresStore(ctx, dsn)
		if err != nil {
			fmt.Fprintln(os.Stderr, "metadataparticipant: "+err.Error())
			os.Exit(1)
		}
		durable = store
		defer store.Close()
	}
	if uri := os.Getenv("CATALOG_MONGO_URI"); uri != "" {
		m, err := metadataparticipant.NewMongoMirror(ctx, uri, nodeID)
		if err != nil {
			configs.Warn(false, "metadataparticipant: mongo mirror unavailable: "+err.Error())
		} else {
			mirror = m
			defer m.Close(ctx)
		}
	}

	var durableIface metadataparticipant.DurableStore
	if durable != nil {
		durableIface = durable
	}
	var mirrorIface metadataparticipant.CatalogMirror
	if mirror != nil {
		mirrorIface = mirror
	}

	mgr, err := metadataparticipant.NewManager(nodeID, durableIface, mirrorIface)
	if err != nil {
		fmt.Fprintln(os.Stderr, "metadataparticipant: "+err.Error())
		os.Exit(1)
	}

	rpcServer, err := rpc.Listen(":"+rpcPort, mgr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "metadataparticipant: rpc listen: "+err.Error())
		os.Exit(1)
	}
	go func() {
		if err := rpcServer.Serve(); err != nil {
			configs.Warn(false, "metadataparticipant: rpc serve: "+err.Error())
		}
	}()

	configs.DPrintf("metadata participant %s: rpc on %s, http on :%s", nodeID, rpcServer.Addr(), httpPort)
	if err := http.ListenAndServe(":"+httpPort, metadataparticipant.NewRouter(mgr)); err != nil {
		fmt.Fprintln(os.Stderr, "metadataparticipant: http: "+err.Error())
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
