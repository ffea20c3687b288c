package group

import "github.com/google/uuid"

// ComponentEvent is delivered whenever the transport certifies a new
// component.
type ComponentEvent struct {
	Primary bool
	SelfIdx int
	Members []MemberID
}

// StateUUIDEvent carries the freshly minted state-exchange UUID
// broadcast at the start of a state-exchange round.
type StateUUIDEvent struct {
	SenderIdx int
	UUID      uuid.UUID
}

// StateMsgEvent carries one member's serialized state descriptor.
type StateMsgEvent struct {
	SenderIdx int
	Descriptor StateDescriptor
}

// LastEvent reports a node's last-applied seqno.
type LastEvent struct {
	SenderIdx int
	Seqno     int64
}

// JoinEvent reports the completion (or failure) of a state transfer, sent
// by the donor. A negative Seqno means the transfer failed.
type JoinEvent struct {
	SenderIdx int
	Seqno     int64
}

// StateRequestEvent asks the group to pick a donor for JoinerIdx. DonorIdx
// is written by HandleStateRequest; it is meaningful only to the caller
// whose own index equals JoinerIdx.
type StateRequestEvent struct {
	JoinerIdx int
	DonorIdx  int
}
