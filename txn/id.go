// Package txn defines the wire schema shared by the coordinator and every
// participant: transaction identifiers, vote/decision messages, and file
// metadata. It is the "stable wire contract" named in spec §2.
package txn

import "github.com/google/uuid"

// ID is an opaque, short, per-transaction identifier. Only equality is
// required of it (spec §3); it is rendered as 8 lowercase hex characters,
// matching original_source's str(uuid.uuid4())[:8].
type ID string

// NewID mints a fresh transaction id.
func NewID() ID {
	return ID(uuid.NewString()[:8])
}

func (t ID) String() string {
	return string(t)
}
