package group

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuorumSplitBrain(t *testing.T) {
	g1 := uuid.New()
	g2 := uuid.New()
	states := []StateDescriptor{
		NewStateDescriptor(uuid.Nil, g1, 5, 3, StatusSynced, "A", "", 1, 1),
		NewStateDescriptor(uuid.Nil, g2, 5, 3, StatusSynced, "B", "", 1, 1),
	}
	decision, err := Quorum(states)
	require.NoError(t, err)
	assert.False(t, decision.Primary)
}

func TestQuorumMajorityOfKnownGroup(t *testing.T) {
	g := uuid.New()
	states := []StateDescriptor{
		NewStateDescriptor(uuid.Nil, g, 10, 4, StatusJoined, "A", "", 1, 1),
		NewStateDescriptor(uuid.Nil, uuid.Nil, SeqILL, SeqILL, StatusPrim, "B", "", 1, 1),
	}
	decision, err := Quorum(states)
	require.NoError(t, err)
	assert.True(t, decision.Primary)
	assert.Equal(t, int64(10), decision.ActID)
	assert.Equal(t, int64(4), decision.ConfID)
	assert.Equal(t, g, decision.GroupUUID)
	assert.Equal(t, StatusJoined, decision.Statuses[0])
	assert.Equal(t, StatusPrim, decision.Statuses[1])
}

func TestQuorumMinorityIsNonPrimary(t *testing.T) {
	g := uuid.New()
	states := []StateDescriptor{
		NewStateDescriptor(uuid.Nil, g, 10, 4, StatusJoined, "A", "", 1, 1),
		NewStateDescriptor(uuid.Nil, g, 8, 3, StatusPrim, "B", "", 1, 1),
		NewStateDescriptor(uuid.Nil, g, 8, 3, StatusPrim, "C", "", 1, 1),
	}
	// A alone carries conf_id 4; B and C are still on 3 — A is not a
	// majority of the 3 members sharing group g.
	decision, err := Quorum(states)
	require.NoError(t, err)
	assert.False(t, decision.Primary)
}

func TestQuorumBehindMemberGetsPrim(t *testing.T) {
	g := uuid.New()
	states := []StateDescriptor{
		NewStateDescriptor(uuid.Nil, g, 10, 4, StatusJoined, "A", "", 1, 1),
		NewStateDescriptor(uuid.Nil, g, 10, 4, StatusSynced, "B", "", 1, 1),
		NewStateDescriptor(uuid.Nil, g, 7, 4, StatusJoined, "C", "", 1, 1),
	}
	decision, err := Quorum(states)
	require.NoError(t, err)
	assert.True(t, decision.Primary)
	assert.Equal(t, int64(10), decision.ActID)
	assert.Equal(t, StatusJoined, decision.Statuses[0])
	assert.Equal(t, StatusSynced, decision.Statuses[1])
	assert.Equal(t, StatusPrim, decision.Statuses[2]) // behind on act_id
}

func TestQuorumProtocolNegotiation(t *testing.T) {
	g := uuid.New()
	states := []StateDescriptor{
		NewStateDescriptor(uuid.Nil, g, 1, 0, StatusJoined, "A", "", 1, 3),
		NewStateDescriptor(uuid.Nil, g, 1, 0, StatusJoined, "B", "", 2, 4),
	}
	decision, err := Quorum(states)
	require.NoError(t, err)
	require.True(t, decision.Primary)
	assert.Equal(t, int16(3), decision.Proto) // min(proto_max) across members
}

func TestQuorumNoCompatibleProtocol(t *testing.T) {
	g := uuid.New()
	states := []StateDescriptor{
		NewStateDescriptor(uuid.Nil, g, 1, 0, StatusJoined, "A", "", 1, 1),
		NewStateDescriptor(uuid.Nil, g, 1, 0, StatusJoined, "B", "", 5, 9),
	}
	decision, err := Quorum(states)
	require.NoError(t, err)
	assert.False(t, decision.Primary)
}
