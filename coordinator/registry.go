package coordinator

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/flexicommit/upload2pc/configs"
)

// ParticipantRef names one participant node reachable over the RPC
// transport (spec §4.1's participant registry).
type ParticipantRef struct {
	NodeID  string `json:"node_id"`
	Address string `json:"address"`
}

// Registry is the coordinator's static view of every participant, split by
// flavor — the coordinator never inspects a participant's flavor at
// runtime (spec §4.4), but it does need to know which addresses to dial.
type Registry struct {
	Storage  []ParticipantRef `json:"storage"`
	Metadata []ParticipantRef `json:"metadata"`
}

// LoadRegistry reads a JSON registry file listing every participant
// address. Only the coordinator reads this file; participant processes take
// their startup settings from environment variables (and, for the storage
// flavor, an optional .properties file).
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("coordinator: read registry %s: %w", path, err)
	}
	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("coordinator: parse registry %s: %w", path, err)
	}
	if len(reg.Storage) == 0 && len(reg.Metadata) == 0 {
		configs.Warn(false, "coordinator: registry "+path+" has no participants configured")
	}
	return &reg, nil
}

// All returns every participant across both flavors, in the uniform order
// the coordinator fans out to (spec §4.4).
func (r *Registry) All() []ParticipantRef {
	out := make([]ParticipantRef, 0, len(r.Storage)+len(r.Metadata))
	out = append(out, r.Storage...)
	out = append(out, r.Metadata...)
	return out
}
