package group

// Node is the per-member record held by the group state machine.
// Donor and joiner partners are tracked by ID rather than by pointer, so
// resolving a partner is a linear scan over the current node vector,
// bounded by cluster size, and nodes never hold a live reference to each
// other that could go stale across a membership change.
type Node struct {
	ID           MemberID
	Name         string
	IncomingAddr string
	ProtoMin     int16
	ProtoMax     int16

	Status      Status
	LastApplied int64

	// State is the descriptor received from this node during the current
	// state-exchange round, or nil if none has arrived yet.
	State *StateDescriptor

	// Donor is the ID of the node supplying state to me, if any.
	Donor MemberID
	// Joiner is the ID of the node I am supplying state to, if any.
	Joiner MemberID
}

// NewNode constructs a fresh node record for a member ID taken from a
// component message. Status starts at StatusNonPrim; handle_component
// assigns the real status once quorum is known.
func NewNode(id MemberID) Node {
	return Node{
		ID:          id,
		Status:      StatusNonPrim,
		LastApplied: SeqILL,
	}
}

// Reset clears the state descriptor received this round, in preparation
// for a new state-exchange round. Status is left untouched; it is
// re-evaluated only once quorum completes.
func (n *Node) Reset() {
	n.State = nil
}

// RecordState attaches a state descriptor received from this node during
// the current exchange round.
func (n *Node) RecordState(desc StateDescriptor) {
	n.State = &desc
	n.Name = desc.Name()
	n.IncomingAddr = desc.IncomingAddr()
	n.ProtoMin = desc.ProtoMin()
	n.ProtoMax = desc.ProtoMax()
}

// UpdateStatus applies the per-member status assigned by a quorum Decision.
func (n *Node) UpdateStatus(d Decision, idx int) {
	n.Status = d.Statuses[idx]
}

// Move transfers stateful fields from an old record (the same member in
// the previous component) into this new record, preserving status,
// last-applied, donor/joiner links and any cached descriptor across a
// benign membership change.
func (n *Node) Move(old *Node) {
	n.Status = old.Status
	n.LastApplied = old.LastApplied
	n.Donor = old.Donor
	n.Joiner = old.Joiner
	n.State = old.State
}

// GetLastApplied returns the highest seqno this node has reported applied.
func (n *Node) GetLastApplied() int64 { return n.LastApplied }

// SetLastApplied records a new last-applied seqno reported by this node.
func (n *Node) SetLastApplied(seqno int64) { n.LastApplied = seqno }
