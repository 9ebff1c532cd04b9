package core

import (
	"context"
	"time"

	"github.com/bridgelabs/lane-relayer/log"
)

// maxNonceQueueLen bounds the per-block nonce queue. When the cap is
// reached the two oldest entries are coalesced, keeping the newer header
// so the provability invariant only gets more conservative.
const maxNonceQueueLen = 4096

// SelectedNonces is a nonce range selected for submission, together with
// the source header it is provable at and, once generated, its proof.
type SelectedNonces struct {
	At     HeaderID
	Nonces NonceRange
	Proof  []byte
	// RequiresOutboundState asks the prover to also cover the outbound
	// lane state, letting the target learn the source's confirmed nonce.
	RequiresOutboundState bool
}

// RaceState is the in-memory state of one race direction. It is owned
// exclusively by its race loop and never shared.
type RaceState struct {
	BestSourceHeader HeaderID
	BestTargetHeader HeaderID
	// BestFinalizedSourceHeaderOnTarget is the newest source header the
	// target chain has already imported as finalized. Proofs generated
	// at newer headers would be rejected.
	BestFinalizedSourceHeaderOnTarget HeaderID

	// NoncesToSubmit is selected but not yet confirmed work; cleared once
	// its upper bound is observed as accepted by the target.
	NoncesToSubmit *SelectedNonces
	// NoncesSubmitted is the range whose transaction is in flight.
	NoncesSubmitted *NonceRange
	SubmittedAt     time.Time
}

type queuedNonces struct {
	at    HeaderID
	nonce MessageNonce
}

// NonceTracker reconciles the independently-polled source and target
// nonce observations of the delivery race into a monotone view and
// decides which nonces to deliver next.
type NonceTracker struct {
	lane     LaneID
	source   SourceClient
	target   TargetClient
	strategy RelayStrategy
	limits   BatchLimits
	logger   *log.RelayLogger

	// queue records, per source block, the highest nonce known to exist
	// as of that block.
	queue []queuedNonces

	latestSourceNonce MessageNonce
	confirmedAtSource MessageNonce
	latestTargetNonce MessageNonce
	confirmedAtTarget MessageNonce
}

func NewNonceTracker(lane LaneID, source SourceClient, target TargetClient, strategy RelayStrategy, limits BatchLimits, logger *log.RelayLogger) *NonceTracker {
	return &NonceTracker{
		lane:     lane,
		source:   source,
		target:   target,
		strategy: strategy,
		limits:   limits,
		logger:   logger,
	}
}

// TargetNonce returns the latest nonce known to be received by the target.
func (t *NonceTracker) TargetNonce() MessageNonce {
	return t.latestTargetNonce
}

// backlogSize returns the number of nonces generated at the source but
// not yet observed at the target.
func (t *NonceTracker) backlogSize() uint64 {
	if t.latestSourceNonce <= t.latestTargetNonce {
		return 0
	}
	return t.latestSourceNonce - t.latestTargetNonce
}

// SourceNoncesUpdated records the source's newest nonce snapshot at the
// given header. Updates that carry no new nonce are deduplicated.
func (t *NonceTracker) SourceNoncesUpdated(at HeaderID, nonces ClientNonces) {
	if nonces.ConfirmedNonce > t.confirmedAtSource {
		t.confirmedAtSource = nonces.ConfirmedNonce
	}
	if nonces.LatestNonce <= t.latestSourceNonce {
		return
	}
	t.latestSourceNonce = nonces.LatestNonce
	if len(t.queue) >= maxNonceQueueLen {
		t.queue[1].nonce = max(t.queue[1].nonce, t.queue[0].nonce)
		t.queue = t.queue[1:]
	}
	t.queue = append(t.queue, queuedNonces{at: at, nonce: nonces.LatestNonce})
}

// TargetNoncesUpdated records the target's newest nonce snapshot and
// clears any previously selected or submitted work that the new state
// supersedes.
func (t *NonceTracker) TargetNoncesUpdated(nonces ClientNonces, state *RaceState) {
	if nonces.LatestNonce > t.latestTargetNonce {
		t.latestTargetNonce = nonces.LatestNonce
	}
	if nonces.ConfirmedNonce > t.confirmedAtTarget {
		t.confirmedAtTarget = nonces.ConfirmedNonce
	}

	for len(t.queue) > 0 && t.queue[0].nonce <= t.latestTargetNonce {
		t.queue = t.queue[1:]
	}

	if state.NoncesToSubmit != nil && state.NoncesToSubmit.Nonces.End <= t.latestTargetNonce {
		t.logger.Info(
			"selected nonces are already received by the target",
			"nonces", state.NoncesToSubmit.Nonces.String(),
			"target nonce", t.latestTargetNonce,
		)
		state.NoncesToSubmit = nil
	}
	if state.NoncesSubmitted != nil && state.NoncesSubmitted.End <= t.latestTargetNonce {
		state.NoncesSubmitted = nil
	}
}

// SelectNoncesToDeliver asks the strategy for the next range. It returns
// nil when there is no actionable gap: the target has caught up, nothing
// is provable yet, or a selection/submission is already pending.
func (t *NonceTracker) SelectNoncesToDeliver(ctx context.Context, state *RaceState) (*SelectedNonces, error) {
	if state.NoncesToSubmit != nil || state.NoncesSubmitted != nil {
		return nil, nil
	}

	begin := t.latestTargetNonce + 1

	// A message is only deliverable once the block it appeared in is
	// finalized from the target's point of view.
	var (
		bestAvailable MessageNonce
		at            HeaderID
	)
	for _, entry := range t.queue {
		if entry.at.Number > state.BestFinalizedSourceHeaderOnTarget.Number {
			break
		}
		bestAvailable = entry.nonce
		at = entry.at
	}
	if bestAvailable < begin {
		return nil, nil
	}

	details, err := t.source.GeneratedMessageDetails(ctx, at, NewNonceRange(begin, bestAvailable))
	if err != nil {
		return nil, err
	}

	ref := &RelayReference{
		Lane:    t.lane,
		Source:  t.source,
		Target:  t.target,
		Details: details,
		Nonces:  NewNonceRange(begin, bestAvailable),
		Limits:  t.limits,
		Logger:  t.logger,
	}
	maxNonce, err := t.strategy.Decide(ctx, ref)
	if err != nil {
		return nil, err
	}
	if maxNonce < begin {
		return nil, nil
	}

	return &SelectedNonces{
		At:                    at,
		Nonces:                NewNonceRange(begin, maxNonce),
		RequiresOutboundState: t.confirmedAtSource > t.confirmedAtTarget,
	}, nil
}
