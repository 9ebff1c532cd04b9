package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutboundLaneData(t *testing.T) {
	out := NewOutboundLaneData()
	require.NoError(t, out.Validate())

	for i := 1; i <= 5; i++ {
		assert.Equal(t, MessageNonce(i), out.Generate())
	}
	require.NoError(t, out.Validate())

	// confirmations ahead of generation are rejected
	require.Error(t, out.Confirm(6))

	require.NoError(t, out.Confirm(3))
	assert.Equal(t, MessageNonce(3), out.LatestReceivedNonce)

	// stale confirmation is a no-op
	require.NoError(t, out.Confirm(2))
	assert.Equal(t, MessageNonce(3), out.LatestReceivedNonce)

	require.NoError(t, out.Validate())
}

func TestOutboundLanePrune(t *testing.T) {
	out := NewOutboundLaneData()
	for i := 0; i < 10; i++ {
		out.Generate()
	}
	require.NoError(t, out.Confirm(7))

	// nothing received yet below oldest unpruned: prune is bounded
	pruned := out.Prune(3)
	assert.Equal(t, NewNonceRange(1, 3), pruned)
	assert.Equal(t, MessageNonce(4), out.OldestUnprunedNonce)

	pruned = out.Prune(100)
	assert.Equal(t, NewNonceRange(4, 7), pruned)
	assert.Equal(t, MessageNonce(8), out.OldestUnprunedNonce)

	// nothing left to prune
	assert.True(t, out.Prune(100).IsEmpty())
	require.NoError(t, out.Validate())
}

func TestInboundLaneReceive(t *testing.T) {
	var in InboundLaneData

	require.NoError(t, in.Receive(NewNonceRange(1, 3), "alice", 16, 1024))
	assert.Equal(t, MessageNonce(3), in.LatestReceivedNonce)

	// redundant submission of an already-received range is rejected
	require.Error(t, in.Receive(NewNonceRange(1, 3), "bob", 16, 1024))
	// a gap is rejected
	require.Error(t, in.Receive(NewNonceRange(5, 6), "bob", 16, 1024))
	// empty range is rejected
	require.Error(t, in.Receive(NonceRange{Begin: 4, End: 3}, "bob", 16, 1024))

	// consecutive deliveries by the same relayer merge into one entry
	require.NoError(t, in.Receive(NewNonceRange(4, 4), "alice", 16, 1024))
	require.Len(t, in.Relayers, 1)
	assert.Equal(t, MessageNonce(4), in.Relayers[0].Messages.End)

	require.NoError(t, in.Receive(NewNonceRange(5, 5), "bob", 16, 1024))
	require.Len(t, in.Relayers, 2)
	require.NoError(t, in.Validate())
}

func TestInboundLaneReceiveLimits(t *testing.T) {
	var in InboundLaneData

	require.NoError(t, in.Receive(NewNonceRange(1, 2), "alice", 2, 16))
	require.NoError(t, in.Receive(NewNonceRange(3, 4), "bob", 2, 16))

	// a third relayer entry exceeds the entry limit
	require.Error(t, in.Receive(NewNonceRange(5, 5), "carol", 2, 16))
	// the same relayer merges, so no new entry is needed
	require.NoError(t, in.Receive(NewNonceRange(5, 5), "bob", 2, 16))

	// unconfirmed message limit
	require.Error(t, in.Receive(NewNonceRange(6, 20), "bob", 2, 16))
}

func TestInboundLaneConfirm(t *testing.T) {
	var in InboundLaneData
	require.NoError(t, in.Receive(NewNonceRange(1, 2), "alice", 16, 1024))
	require.NoError(t, in.Receive(NewNonceRange(3, 6), "bob", 16, 1024))

	// confirmation splits bob's entry
	rewards := in.Confirm(4)
	assert.Equal(t, map[string]uint64{"alice": 2, "bob": 2}, rewards)
	assert.Equal(t, MessageNonce(4), in.LatestConfirmedNonce)
	require.Len(t, in.Relayers, 1)
	assert.Equal(t, MessageNonce(5), in.Relayers[0].Messages.Begin)
	require.NoError(t, in.Validate())

	// stale confirmation is a no-op
	assert.Nil(t, in.Confirm(4))

	// confirmation beyond received is clamped
	rewards = in.Confirm(100)
	assert.Equal(t, map[string]uint64{"bob": 2}, rewards)
	assert.Empty(t, in.Relayers)
	require.NoError(t, in.Validate())
}

func TestUnrewardedRelayersState(t *testing.T) {
	var in InboundLaneData
	require.NoError(t, in.Receive(NewNonceRange(1, 3), "alice", 16, 1024))
	require.NoError(t, in.Receive(NewNonceRange(4, 5), "bob", 16, 1024))

	state := in.UnrewardedRelayersState()
	assert.Equal(t, uint64(2), state.UnrewardedRelayerEntries)
	assert.Equal(t, uint64(3), state.MessagesInOldestEntry)
	assert.Equal(t, uint64(5), state.TotalMessages)
}
