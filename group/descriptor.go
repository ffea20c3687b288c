package group

import "github.com/google/uuid"

// StateDescriptor is a node's view of the group, exchanged during a state
// exchange round. It is immutable after construction: fields are private
// and reachable only through the constructor and getters below.
type StateDescriptor struct {
	stateUUID    uuid.UUID
	groupUUID    uuid.UUID
	actID        int64
	confID       int64
	status       Status
	name         string
	incomingAddr string
	protoMin     int16
	protoMax     int16
}

// NewStateDescriptor constructs an immutable state descriptor for
// inclusion in a state-exchange message.
func NewStateDescriptor(stateUUID, groupUUID uuid.UUID, actID, confID int64, status Status, name, incomingAddr string, protoMin, protoMax int16) StateDescriptor {
	if len(name) > MaxMemberNameLen {
		name = name[:MaxMemberNameLen]
	}
	if len(incomingAddr) > MaxMemberNameLen {
		incomingAddr = incomingAddr[:MaxMemberNameLen]
	}
	return StateDescriptor{
		stateUUID:    stateUUID,
		groupUUID:    groupUUID,
		actID:        actID,
		confID:       confID,
		status:       status,
		name:         name,
		incomingAddr: incomingAddr,
		protoMin:     protoMin,
		protoMax:     protoMax,
	}
}

func (d StateDescriptor) StateUUID() uuid.UUID    { return d.stateUUID }
func (d StateDescriptor) GroupUUID() uuid.UUID    { return d.groupUUID }
func (d StateDescriptor) ActID() int64            { return d.actID }
func (d StateDescriptor) ConfID() int64           { return d.confID }
func (d StateDescriptor) MemberStatus() Status    { return d.status }
func (d StateDescriptor) Name() string            { return d.name }
func (d StateDescriptor) IncomingAddr() string    { return d.incomingAddr }
func (d StateDescriptor) ProtoMin() int16         { return d.protoMin }
func (d StateDescriptor) ProtoMax() int16         { return d.protoMax }
