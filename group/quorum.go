package group

import "github.com/google/uuid"

// Decision is the pure output of the quorum evaluator: whether the
// component is primary, the winning act_id/conf_id/group_uuid/protocol,
// and a per-member status assignment aligned by index with the input
// vector passed to Quorum.
type Decision struct {
	Primary   bool
	ActID     int64
	ConfID    int64
	GroupUUID uuid.UUID
	Proto     int16
	Statuses  []Status
}

// Quorum is a pure function from a vector of state descriptors (one per
// member of the current component, in component order) to a quorum
// decision. Given identical input vectors, the decision is bitwise
// identical on every member regardless of which index is "self" — this
// determinism is what lets every node in a component reach the same
// verdict without further negotiation.
func Quorum(states []StateDescriptor) (Decision, error) {
	n := len(states)
	if n == 0 {
		return Decision{}, newError(EPROTO, "quorum: empty state vector")
	}

	// Split-brain check: more than one distinct non-NIL group UUID among
	// members means the component mixes two primary histories.
	winningGroupUUID := uuid.Nil
	conflict := false
	for _, s := range states {
		if s.GroupUUID() == uuid.Nil {
			continue
		}
		if winningGroupUUID == uuid.Nil {
			winningGroupUUID = s.GroupUUID()
		} else if winningGroupUUID != s.GroupUUID() {
			conflict = true
			break
		}
	}
	if conflict {
		return nonPrimaryDecision(n), nil
	}

	// Reference conf_id: the highest conf_id among members carrying the
	// winning group UUID (if any group UUID is known at all).
	referenceConfID := SeqILL
	for _, s := range states {
		if s.GroupUUID() != winningGroupUUID {
			continue
		}
		if s.ConfID() > referenceConfID {
			referenceConfID = s.ConfID()
		}
	}

	// The reference's known size is the number of members that carry the
	// winning group UUID at all (regardless of which conf_id they're on) —
	// brand-new joiners reporting no group UUID yet are not part of the
	// group being quorum-checked; they are along for the ride and will be
	// caught up via state transfer once the quorum decision lands.
	knownSize := 0
	referenceCount := 0
	winningActID := SeqILL
	for _, s := range states {
		if s.GroupUUID() != winningGroupUUID {
			continue
		}
		knownSize++
		if s.ConfID() != referenceConfID {
			continue
		}
		referenceCount++
		if s.ActID() > winningActID {
			winningActID = s.ActID()
		}
	}

	majority := knownSize/2 + 1
	if knownSize == 0 || referenceCount < majority {
		return nonPrimaryDecision(n), nil
	}

	// Negotiate protocol: the highest version not exceeding every member's
	// max and not below any member's min.
	protoMax := int16(1<<15 - 1)
	protoMin := int16(-1 << 15)
	for _, s := range states {
		if s.ProtoMax() < protoMax {
			protoMax = s.ProtoMax()
		}
		if s.ProtoMin() > protoMin {
			protoMin = s.ProtoMin()
		}
	}
	if protoMax < protoMin {
		return nonPrimaryDecision(n), nil
	}

	statuses := make([]Status, n)
	for i, s := range states {
		switch {
		case s.GroupUUID() != winningGroupUUID:
			statuses[i] = StatusPrim
		case s.ActID() >= winningActID:
			statuses[i] = s.MemberStatus()
		default:
			statuses[i] = StatusPrim
		}
	}

	return Decision{
		Primary:   true,
		ActID:     winningActID,
		ConfID:    referenceConfID,
		GroupUUID: winningGroupUUID,
		Proto:     protoMax,
		Statuses:  statuses,
	}, nil
}

func nonPrimaryDecision(n int) Decision {
	statuses := make([]Status, n)
	return Decision{Primary: false, ActID: SeqILL, ConfID: SeqILL, Statuses: statuses}
}
