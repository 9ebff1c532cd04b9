package core

import (
	"context"
	"fmt"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bridgelabs/lane-relayer/log"
)

func newTestTracker(t *testing.T, source *stubSource, target *stubTarget) *NonceTracker {
	t.Helper()
	limits := BatchLimits{
		MaxMessagesInBatch: 100,
		MaxWeightInBatch:   1 << 20,
		MaxSizeInBatch:     1 << 20,
	}
	return NewNonceTracker(testLaneID(t), source, target, &BasicStrategy{}, limits, log.GetLogger())
}

func testDetails(from, to MessageNonce) map[MessageNonce]MessageDetails {
	details := make(map[MessageNonce]MessageDetails)
	for nonce := from; nonce <= to; nonce++ {
		details[nonce] = MessageDetails{
			DispatchWeight: 1,
			Size:           1,
			Reward:         math.NewInt(100),
		}
	}
	return details
}

func TestTrackerSourceNoncesMonotonic(t *testing.T) {
	tracker := newTestTracker(t, &stubSource{}, &stubTarget{})

	tracker.SourceNoncesUpdated(headerAt(5), ClientNonces{LatestNonce: 3})
	tracker.SourceNoncesUpdated(headerAt(6), ClientNonces{LatestNonce: 3})
	require.Len(t, tracker.queue, 1)

	// a regressed snapshot never lowers the view
	tracker.SourceNoncesUpdated(headerAt(7), ClientNonces{LatestNonce: 2})
	assert.Equal(t, MessageNonce(3), tracker.latestSourceNonce)
	require.Len(t, tracker.queue, 1)

	tracker.SourceNoncesUpdated(headerAt(8), ClientNonces{LatestNonce: 6})
	require.Len(t, tracker.queue, 2)
	assert.Equal(t, MessageNonce(6), tracker.latestSourceNonce)
}

func TestTrackerSelectRespectsFinality(t *testing.T) {
	source := &stubSource{details: testDetails(1, 6)}
	tracker := newTestTracker(t, source, &stubTarget{})

	tracker.SourceNoncesUpdated(headerAt(5), ClientNonces{LatestNonce: 3})
	tracker.SourceNoncesUpdated(headerAt(8), ClientNonces{LatestNonce: 6})

	// nothing is provable before the target knows any source header
	state := &RaceState{}
	selected, err := tracker.SelectNoncesToDeliver(context.Background(), state)
	require.NoError(t, err)
	assert.Nil(t, selected)

	// only the nonces of finalized-on-target headers are selectable
	state.BestFinalizedSourceHeaderOnTarget = headerAt(5)
	selected, err = tracker.SelectNoncesToDeliver(context.Background(), state)
	require.NoError(t, err)
	require.NotNil(t, selected)
	assert.Equal(t, NewNonceRange(1, 3), selected.Nonces)
	assert.Equal(t, headerAt(5), selected.At)

	state.BestFinalizedSourceHeaderOnTarget = headerAt(8)
	selected, err = tracker.SelectNoncesToDeliver(context.Background(), state)
	require.NoError(t, err)
	require.NotNil(t, selected)
	assert.Equal(t, NewNonceRange(1, 6), selected.Nonces)
}

func TestTrackerSelectSkipsWhenWorkPending(t *testing.T) {
	source := &stubSource{details: testDetails(1, 3)}
	tracker := newTestTracker(t, source, &stubTarget{})
	tracker.SourceNoncesUpdated(headerAt(5), ClientNonces{LatestNonce: 3})

	state := &RaceState{
		BestFinalizedSourceHeaderOnTarget: headerAt(5),
		NoncesToSubmit:                    &SelectedNonces{Nonces: NewNonceRange(1, 3)},
	}
	selected, err := tracker.SelectNoncesToDeliver(context.Background(), state)
	require.NoError(t, err)
	assert.Nil(t, selected)
}

// A delivery by another relayer must retire our selected and submitted
// work instead of racing it.
func TestTrackerTargetUpdateClearsSupersededWork(t *testing.T) {
	source := &stubSource{details: testDetails(1, 4)}
	tracker := newTestTracker(t, source, &stubTarget{})
	tracker.SourceNoncesUpdated(headerAt(5), ClientNonces{LatestNonce: 4})

	state := &RaceState{BestFinalizedSourceHeaderOnTarget: headerAt(5)}
	selected, err := tracker.SelectNoncesToDeliver(context.Background(), state)
	require.NoError(t, err)
	require.NotNil(t, selected)
	assert.Equal(t, NewNonceRange(1, 4), selected.Nonces)

	state.NoncesToSubmit = selected
	submitted := selected.Nonces
	state.NoncesSubmitted = &submitted

	tracker.TargetNoncesUpdated(ClientNonces{LatestNonce: 4}, state)
	assert.Nil(t, state.NoncesToSubmit)
	assert.Nil(t, state.NoncesSubmitted)
	assert.Empty(t, tracker.queue)

	// with the target caught up, there is nothing to select
	selected, err = tracker.SelectNoncesToDeliver(context.Background(), state)
	require.NoError(t, err)
	assert.Nil(t, selected)
	assert.Equal(t, uint64(0), tracker.backlogSize())
}

func TestTrackerTargetUpdateKeepsPartialWork(t *testing.T) {
	source := &stubSource{details: testDetails(1, 6)}
	tracker := newTestTracker(t, source, &stubTarget{})
	tracker.SourceNoncesUpdated(headerAt(5), ClientNonces{LatestNonce: 6})

	state := &RaceState{
		BestFinalizedSourceHeaderOnTarget: headerAt(5),
		NoncesToSubmit:                    &SelectedNonces{Nonces: NewNonceRange(1, 6)},
	}
	tracker.TargetNoncesUpdated(ClientNonces{LatestNonce: 3}, state)
	// the selection's upper bound is not yet received: keep it
	assert.NotNil(t, state.NoncesToSubmit)
	assert.Equal(t, uint64(3), tracker.backlogSize())
}

// After a stall timeout clears an unconfirmed submission, re-selection
// from unchanged chain state must produce the same range.
func TestTrackerStallReselectionIsStable(t *testing.T) {
	source := &stubSource{details: testDetails(1, 4)}
	tracker := newTestTracker(t, source, &stubTarget{})
	tracker.SourceNoncesUpdated(headerAt(5), ClientNonces{LatestNonce: 4})

	state := &RaceState{BestFinalizedSourceHeaderOnTarget: headerAt(5)}
	first, err := tracker.SelectNoncesToDeliver(context.Background(), state)
	require.NoError(t, err)
	require.NotNil(t, first)

	// submitted, stalled, cleared
	state.NoncesToSubmit = nil
	state.NoncesSubmitted = nil

	second, err := tracker.SelectNoncesToDeliver(context.Background(), state)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, first.Nonces, second.Nonces)
	assert.Equal(t, first.At, second.At)
}

func TestTrackerQueueCoalescesAtCapacity(t *testing.T) {
	tracker := newTestTracker(t, &stubSource{}, &stubTarget{})

	for i := uint64(1); i <= maxNonceQueueLen+1; i++ {
		tracker.SourceNoncesUpdated(headerAt(i), ClientNonces{LatestNonce: i})
	}
	require.Len(t, tracker.queue, maxNonceQueueLen)

	// the two oldest entries were merged, keeping the newer header and
	// the larger nonce
	assert.Equal(t, headerAt(2), tracker.queue[0].at)
	assert.Equal(t, MessageNonce(2), tracker.queue[0].nonce)
	assert.Equal(t, MessageNonce(maxNonceQueueLen+1), tracker.latestSourceNonce)
}

func TestTrackerRequiresOutboundState(t *testing.T) {
	source := &stubSource{details: testDetails(1, 2)}
	tracker := newTestTracker(t, source, &stubTarget{})
	tracker.SourceNoncesUpdated(headerAt(5), ClientNonces{LatestNonce: 2, ConfirmedNonce: 1})

	state := &RaceState{BestFinalizedSourceHeaderOnTarget: headerAt(5)}
	selected, err := tracker.SelectNoncesToDeliver(context.Background(), state)
	require.NoError(t, err)
	require.NotNil(t, selected)
	// source confirmed 1, target confirmed 0: carry the outbound state
	assert.True(t, selected.RequiresOutboundState)
}

func TestTrackerSelectPropagatesDetailsError(t *testing.T) {
	source := &stubSource{detailsErr: fmt.Errorf("boom")}
	tracker := newTestTracker(t, source, &stubTarget{})
	tracker.SourceNoncesUpdated(headerAt(5), ClientNonces{LatestNonce: 2})

	state := &RaceState{BestFinalizedSourceHeaderOnTarget: headerAt(5)}
	_, err := tracker.SelectNoncesToDeliver(context.Background(), state)
	require.Error(t, err)
}
