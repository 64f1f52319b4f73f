// Command storageparticipant runs a storage-flavor 2PC participant: an RPC
// server that stages uploaded bytes to disk during voting and promotes or
// discards them on decision (spec §4.2).
package main

import (
	"fmt"
	"os"

	"github.com/flexicommit/upload2pc/configs"
	"github.com/flexicommit/upload2pc/rpc"
	"github.com/flexicommit/upload2pc/storageparticipant"
)

func main() {
	nodeID := envOr(configs.EnvNodeID, "storage-1")
	port := envOr(configs.EnvGRPCPort, "7000")
	storageDir := envOr("STORAGE_DIR", configs.DefaultStorageDir)

	ov := configs.LoadOverrides(os.Getenv("PROPERTIES_FILE"))
	if ov.StorageDir != "" {
		storageDir = ov.StorageDir
	}

	mgr, err := storageparticipant.NewManager(nodeID, storageDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "storageparticipant: "+err.Error())
		os.Exit(1)
	}

	server, err := rpc.Listen(":"+port, mgr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "storageparticipant: listen: "+err.Error())
		os.Exit(1)
	}
	configs.DPrintf("storage participant %s listening on %s, storage dir %s", nodeID, server.Addr(), storageDir)
	if err := server.Serve(); err != nil {
		fmt.Fprintln(os.Stderr, "storageparticipant: serve: "+err.Error())
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
