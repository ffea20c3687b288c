package group

import "github.com/google/uuid"

// ConfigChangeAction is the artifact emitted on every accepted primary
// component, for consumption by the downstream action/commit pipeline.
type ConfigChangeAction struct {
	ActID       int64
	ConfID      int64
	GroupUUID   uuid.UUID
	MemberCount int
	MyIdx       int
	MemberNames []MemberID

	// Discontinuity is set when this primary component follows a gap in
	// which one or more intervening primaries were missed; the
	// application is expected to request an external state snapshot
	// rather than rely on incremental catch-up.
	Discontinuity bool
}
