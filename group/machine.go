package group

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Machine is the group state machine. It owns the member table and
// state-exchange phase for exactly one local node, and is driven by a
// single caller at a time: no handler may be invoked re-entrantly from
// within another handler, and no handler blocks or suspends. Machine
// carries no internal lock — serializing calls across goroutines is the
// caller's responsibility.
type Machine struct {
	nodes []Node
	myIdx int

	phase Phase

	actID     int64
	confID    int64
	groupUUID uuid.UUID
	stateUUID uuid.UUID

	lastApplied int64
	lastNode    int

	// pendingDiscontinuity records that the current exchange round follows
	// a gap in primary components; it is surfaced on the next emitted
	// configuration-change action and then cleared.
	pendingDiscontinuity bool

	log *zap.Logger
}

// New constructs a fresh, empty group machine in phase NON_PRIMARY. The
// machine has no members until the first ComponentEvent arrives.
func New(log *zap.Logger) *Machine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Machine{
		phase:       NonPrimary,
		confID:      SeqILL,
		lastApplied: SeqILL,
		lastNode:    -1,
		log:         log,
	}
}

func (m *Machine) Phase() Phase           { return m.phase }
func (m *Machine) ActID() int64           { return m.actID }
func (m *Machine) ConfID() int64          { return m.confID }
func (m *Machine) GroupUUID() uuid.UUID   { return m.groupUUID }
func (m *Machine) StateUUID() uuid.UUID   { return m.stateUUID }
func (m *Machine) MyIdx() int             { return m.myIdx }
func (m *Machine) LastApplied() int64     { return m.lastApplied }
func (m *Machine) LastNode() int          { return m.lastNode }
func (m *Machine) NumNodes() int          { return len(m.nodes) }

// Node returns a value copy of the node record at idx. Callers receive no
// reference into machine-owned storage.
func (m *Machine) Node(idx int) Node { return m.nodes[idx] }

// computeNewMembers reports whether any member of newNodes has no
// corresponding record in the previous vector. HandleComponent does not
// call it and always starts a full exchange; this helper remains available
// to package tests that exercise the skip-exchange path directly via
// handleSkipExchange.
func computeNewMembers(newNodes, oldNodes []Node) bool {
	for i := range newNodes {
		found := false
		for j := range oldNodes {
			if oldNodes[j].ID == newNodes[i].ID {
				found = true
				break
			}
		}
		if !found {
			return true
		}
	}
	return false
}

func moveSurvivors(newNodes, oldNodes []Node) {
	for i := range newNodes {
		for j := range oldNodes {
			if oldNodes[j].ID == newNodes[i].ID {
				newNodes[i].Move(&oldNodes[j])
				break
			}
		}
	}
}

func isBootstrap(members []MemberID, actID, confID int64) bool {
	return len(members) == 1 && actID == 0 && confID == SeqILL
}

// HandleComponent processes delivery of a new component. It returns the
// emitted configuration-change action, if any: non-nil only on bootstrap,
// the one case where a primary component is accepted without a further
// state-exchange round (the skip-exchange path is not taken from here).
func (m *Machine) HandleComponent(comp ComponentEvent) (*ConfigChangeAction, error) {
	newNodes := make([]Node, len(comp.Members))
	for i, id := range comp.Members {
		newNodes[i] = NewNode(id)
	}

	wasPrimary := m.phase == Primary
	oldNodes := m.nodes

	moveSurvivors(newNodes, oldNodes)

	var action *ConfigChangeAction

	if !comp.Primary {
		m.nodes = newNodes
		m.myIdx = comp.SelfIdx
		m.phase = NonPrimary
		m.confID = SeqILL
		m.recomputeLastApplied()
		m.log.Info("non-primary component", zap.Int("members", len(newNodes)))
		return nil, nil
	}

	switch {
	case isBootstrap(comp.Members, m.actID, m.confID) && !wasPrimary:
		m.groupUUID = uuid.New()
		m.confID = 0
		m.actID = 1
		m.phase = Primary
		newNodes[0].Status = StatusJoined
		self := NewStateDescriptor(uuid.Nil, m.groupUUID, m.actID, m.confID,
			StatusJoined, string(newNodes[0].ID), newNodes[0].IncomingAddr,
			newNodes[0].ProtoMin, newNodes[0].ProtoMax)
		newNodes[0].RecordState(self)
		m.nodes = newNodes
		m.myIdx = comp.SelfIdx
		m.recomputeLastApplied()
		m.log.Info("bootstrap", zap.String("group_uuid", m.groupUUID.String()))
		action = m.buildConfigChange(false)

	default:
		discontinuity := !wasPrimary && m.phase == NonPrimary && len(oldNodes) > 0
		m.nodes = newNodes
		m.myIdx = comp.SelfIdx

		// The skip-exchange optimization (handleSkipExchange) is preserved
		// but never taken from here: new members are not checked for, so
		// every primary component triggers a fresh exchange.
		for i := range m.nodes {
			m.nodes[i].Reset()
		}
		m.phase = WaitStateUUID
		m.stateUUID = uuid.Nil
		m.recomputeLastApplied()
		if discontinuity {
			m.log.Warn("discontinuity in primary configurations; external snapshot needed")
			m.pendingDiscontinuity = true
		}
	}

	return action, nil
}

// handleSkipExchange handles a primary component with no new members by
// invoking quorum against the descriptors carried over from the previous
// round and advancing conf_id by one while remaining in PRIMARY, with no
// further state-exchange round. It is not reachable from HandleComponent
// (see computeNewMembers) but is exercised directly by tests covering
// this preserved-but-currently-unreachable path.
func (m *Machine) handleSkipExchange() (*ConfigChangeAction, error) {
	states := make([]StateDescriptor, len(m.nodes))
	for i, n := range m.nodes {
		if n.State == nil {
			return nil, newError(EPROTO, "skip-exchange: node %d has no carried-over state", i)
		}
		states[i] = *n.State
	}
	decision, err := Quorum(states)
	if err != nil {
		return nil, err
	}
	if !decision.Primary {
		m.goNonPrimary()
		return nil, nil
	}
	m.confID++
	for i := range m.nodes {
		m.nodes[i].UpdateStatus(decision, i)
	}
	return m.buildConfigChange(false), nil
}

// HandleStateUUID adopts the state-exchange UUID broadcast at the start of
// a round. Valid only in WAIT_STATE_UUID; otherwise the message is a stray
// and is dropped.
func (m *Machine) HandleStateUUID(msg StateUUIDEvent) {
	if m.phase != WaitStateUUID {
		m.log.Debug("stray state-uuid message", zap.Int("sender", msg.SenderIdx))
		return
	}
	m.stateUUID = msg.UUID
	m.phase = WaitStateMsg
}

// HandleStateMsg attaches a received state descriptor and, once every
// member has reported, invokes the quorum evaluator and applies its
// decision. Returns the emitted configuration-change action when this
// message completes the round and yields a primary decision.
func (m *Machine) HandleStateMsg(msg StateMsgEvent) (*ConfigChangeAction, error) {
	if m.phase != WaitStateMsg {
		m.log.Debug("stray state message (wrong phase)", zap.Int("sender", msg.SenderIdx))
		return nil, nil
	}
	if msg.Descriptor.StateUUID() != m.stateUUID {
		m.log.Debug("stray state message (mismatched exchange uuid)",
			zap.Int("sender", msg.SenderIdx))
		return nil, nil
	}

	m.nodes[msg.SenderIdx].RecordState(msg.Descriptor)

	for i := range m.nodes {
		if m.nodes[i].State == nil {
			return nil, nil // still waiting on other members
		}
	}

	states := make([]StateDescriptor, len(m.nodes))
	for i, n := range m.nodes {
		states[i] = *n.State
	}
	decision, err := Quorum(states)
	if err != nil {
		return nil, err
	}

	if !decision.Primary {
		m.goNonPrimary()
		return nil, nil
	}

	m.phase = Primary
	m.actID = decision.ActID
	m.confID = decision.ConfID + 1
	m.groupUUID = decision.GroupUUID
	m.stateUUID = uuid.Nil
	for i := range m.nodes {
		m.nodes[i].UpdateStatus(decision, i)
	}
	discontinuity := m.pendingDiscontinuity
	m.pendingDiscontinuity = false
	return m.buildConfigChange(discontinuity), nil
}

func (m *Machine) goNonPrimary() {
	m.phase = NonPrimary
	m.confID = SeqILL
	m.stateUUID = uuid.Nil
}

// HandleLast records the sender's reported last-applied seqno and
// recomputes the group-wide minimum if the sender was pinning it. It
// returns the new group-wide value and true if the value changed.
func (m *Machine) HandleLast(msg LastEvent) (int64, bool) {
	m.nodes[msg.SenderIdx].SetLastApplied(msg.Seqno)
	if msg.SenderIdx == m.lastNode && msg.Seqno > m.lastApplied {
		old := m.lastApplied
		m.recomputeLastApplied()
		if m.lastApplied != old {
			return m.lastApplied, true
		}
	}
	return 0, false
}

// HandleJoin processes a JOIN completion/failure reported by a donor. A
// JOIN from a node not currently in DONOR status is a protocol violation.
func (m *Machine) HandleJoin(msg JoinEvent) error {
	donor := &m.nodes[msg.SenderIdx]
	if donor.Status != StatusDonor {
		return newError(EPROTO, "JOIN from non-donor node %d", msg.SenderIdx)
	}
	donor.Status = StatusJoined

	joinerIdx := -1
	for j := len(m.nodes) - 1; j >= 0; j-- {
		if j == msg.SenderIdx {
			continue
		}
		if m.nodes[j].ID == donor.Joiner {
			joinerIdx = j
			break
		}
	}

	if msg.Seqno < 0 {
		m.log.Warn("state transfer failed", zap.Int("donor", msg.SenderIdx), zap.Int("joiner", joinerIdx))
		return nil
	}

	if joinerIdx >= 0 {
		joiner := &m.nodes[joinerIdx]
		if joiner.Donor == donor.ID {
			joiner.Status = StatusJoined
		}
	}
	m.log.Info("state transfer complete", zap.Int("donor", msg.SenderIdx), zap.Int("joiner", joinerIdx))
	return nil
}

// HandleStateRequest processes a request for a state transfer to
// req.JoinerIdx, mutating req.DonorIdx in place. Only a node currently in
// PRIM may request a transfer.
func (m *Machine) HandleStateRequest(req *StateRequestEvent) error {
	req.DonorIdx = -1
	joiner := &m.nodes[req.JoinerIdx]
	if joiner.Status != StatusPrim {
		if req.JoinerIdx == m.myIdx {
			return newError(ECANCELED, "state request while already joined")
		}
		return nil
	}

	donorIdx, err := SelectDonor(m.nodes, req.JoinerIdx)
	if err != nil {
		return err
	}
	donor := &m.nodes[donorIdx]
	donor.Status = StatusDonor
	donor.Joiner = joiner.ID
	joiner.Donor = donor.ID
	req.DonorIdx = donorIdx
	m.log.Info("state transfer requested", zap.Int("joiner", req.JoinerIdx), zap.Int("donor", donorIdx))
	return nil
}

func (m *Machine) recomputeLastApplied() {
	if len(m.nodes) == 0 {
		m.lastApplied = SeqILL
		m.lastNode = -1
		return
	}
	m.lastNode = 0
	m.lastApplied = m.nodes[0].GetLastApplied()
	for i := 1; i < len(m.nodes); i++ {
		if seqno := m.nodes[i].GetLastApplied(); seqno < m.lastApplied {
			m.lastApplied = seqno
			m.lastNode = i
		}
	}
}

func (m *Machine) buildConfigChange(discontinuity bool) *ConfigChangeAction {
	names := make([]MemberID, len(m.nodes))
	for i, n := range m.nodes {
		names[i] = n.ID
	}
	return &ConfigChangeAction{
		ActID:         m.actID,
		ConfID:        m.confID,
		GroupUUID:     m.groupUUID,
		MemberCount:   len(m.nodes),
		MyIdx:         m.myIdx,
		MemberNames:   names,
		Discontinuity: discontinuity,
	}
}
