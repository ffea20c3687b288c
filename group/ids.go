// Package group implements the group-membership and state-exchange core
// of a synchronously replicated cluster: the state machine that tracks who
// is in the primary component, what sequence numbers the group has
// committed and applied, and which nodes may serve or require a full
// state-snapshot transfer.
package group

import "github.com/google/uuid"

// Wire-contract limits on member identifiers and display names.
const (
	MaxMemberIDLen   = 40
	MaxMemberNameLen = 256
)

// SeqILL marks an unknown/uninitialized sequence number.
const SeqILL int64 = -1

// MemberID is a stable identifier for a member, unique within the
// currently committed component. It is compared by value, so two records
// with the same ID are considered the same member across a component
// change (see Node.Move).
type MemberID string

// NilUUID is the distinguished "unset" UUID value.
var NilUUID = uuid.Nil

// Status is the total, ordered enumeration of member status. Its numeric
// values are part of the wire encoding: do not reorder them.
type Status byte

const (
	StatusNonPrim Status = iota
	StatusPrim
	StatusJoiner
	StatusDonor
	StatusJoined
	StatusSynced
)

func (s Status) String() string {
	switch s {
	case StatusNonPrim:
		return "NON_PRIM"
	case StatusPrim:
		return "PRIM"
	case StatusJoiner:
		return "JOINER"
	case StatusDonor:
		return "DONOR"
	case StatusJoined:
		return "JOINED"
	case StatusSynced:
		return "SYNCED"
	default:
		return "UNKNOWN"
	}
}

// Phase is one of the four group state machine phases.
type Phase int

const (
	NonPrimary Phase = iota
	WaitStateUUID
	WaitStateMsg
	Primary
)

func (p Phase) String() string {
	switch p {
	case NonPrimary:
		return "NON_PRIMARY"
	case WaitStateUUID:
		return "WAIT_STATE_UUID"
	case WaitStateMsg:
		return "WAIT_STATE_MSG"
	case Primary:
		return "PRIMARY"
	default:
		return "UNKNOWN"
	}
}
