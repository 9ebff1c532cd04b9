package core

import (
	"context"

	"github.com/bridgelabs/lane-relayer/log"
)

// ConfirmationThresholds make the confirmation race warn before the
// inbound lane's unrewarded-relayers limits block the delivery race.
type ConfirmationThresholds struct {
	// MaxUnrewardedRelayerEntries warns once the number of unrewarded
	// relayer entries at the target reaches this value.
	MaxUnrewardedRelayerEntries uint64
	// MaxUnconfirmedMessages warns once the number of unconfirmed
	// messages at the target reaches this value.
	MaxUnconfirmedMessages uint64
}

// confirmationRace moves delivery receipts from the target chain back to
// the source chain. In race terms the bridge target is the source of the
// receiving proof and the bridge source is where it is submitted, so the
// two clients swap roles here.
type confirmationRace struct {
	lane       LaneID
	source     SourceClient
	target     TargetClient
	thresholds ConfirmationThresholds
	logger     *log.RelayLogger

	// latestReceived is the newest nonce delivered at the bridge target,
	// observed at receivedAt.
	latestReceived MessageNonce
	receivedAt     HeaderID
	// latestConfirmed is the newest delivery the bridge source knows of.
	latestConfirmed MessageNonce
	relayers        UnrewardedRelayersState
}

var _ race = (*confirmationRace)(nil)

func newConfirmationRace(lane LaneID, source SourceClient, target TargetClient, thresholds ConfirmationThresholds, logger *log.RelayLogger) *confirmationRace {
	return &confirmationRace{
		lane:       lane,
		source:     source,
		target:     target,
		thresholds: thresholds,
		logger:     logger,
	}
}

func (r *confirmationRace) Name() string {
	return "confirmation"
}

func (r *confirmationRace) SourceChainID() string {
	return r.target.ChainID()
}

func (r *confirmationRace) TargetChainID() string {
	return r.source.ChainID()
}

func (r *confirmationRace) SourceState(ctx context.Context) (ClientState, error) {
	return r.target.State(ctx)
}

func (r *confirmationRace) SourceNonces(ctx context.Context, at HeaderID) (HeaderID, ClientNonces, error) {
	at, received, err := r.target.LatestReceivedNonce(ctx, at)
	if err != nil {
		return HeaderID{}, ClientNonces{}, err
	}
	_, confirmed, err := r.target.LatestConfirmedReceivedNonce(ctx, at)
	if err != nil {
		return HeaderID{}, ClientNonces{}, err
	}
	relayers, err := r.target.UnrewardedRelayersState(ctx, at)
	if err != nil {
		return HeaderID{}, ClientNonces{}, err
	}
	r.relayers = relayers
	return at, ClientNonces{LatestNonce: received, ConfirmedNonce: confirmed}, nil
}

func (r *confirmationRace) TargetState(ctx context.Context) (ClientState, error) {
	return r.source.State(ctx)
}

func (r *confirmationRace) TargetNonces(ctx context.Context, at HeaderID) (HeaderID, ClientNonces, error) {
	at, confirmed, err := r.source.LatestConfirmedReceivedNonce(ctx, at)
	if err != nil {
		return HeaderID{}, ClientNonces{}, err
	}
	return at, ClientNonces{LatestNonce: confirmed, ConfirmedNonce: confirmed}, nil
}

func (r *confirmationRace) SourceNoncesUpdated(at HeaderID, nonces ClientNonces) {
	if nonces.LatestNonce <= r.latestReceived {
		return
	}
	r.latestReceived = nonces.LatestNonce
	r.receivedAt = at
}

func (r *confirmationRace) TargetNoncesUpdated(nonces ClientNonces, state *RaceState) {
	if nonces.LatestNonce > r.latestConfirmed {
		r.latestConfirmed = nonces.LatestNonce
	}
	if state.NoncesToSubmit != nil && state.NoncesToSubmit.Nonces.End <= r.latestConfirmed {
		state.NoncesToSubmit = nil
	}
	if state.NoncesSubmitted != nil && state.NoncesSubmitted.End <= r.latestConfirmed {
		state.NoncesSubmitted = nil
	}
}

func (r *confirmationRace) SelectNoncesToDeliver(ctx context.Context, state *RaceState) (*SelectedNonces, error) {
	if state.NoncesToSubmit != nil || state.NoncesSubmitted != nil {
		return nil, nil
	}
	if r.latestReceived <= r.latestConfirmed {
		return nil, nil
	}
	if r.thresholds.MaxUnrewardedRelayerEntries > 0 && r.relayers.UnrewardedRelayerEntries >= r.thresholds.MaxUnrewardedRelayerEntries {
		r.logger.Warn(
			"unrewarded relayer entries are approaching the lane limit, delivery may soon be blocked",
			"entries", r.relayers.UnrewardedRelayerEntries,
		)
	}
	if r.thresholds.MaxUnconfirmedMessages > 0 && r.relayers.TotalMessages >= r.thresholds.MaxUnconfirmedMessages {
		r.logger.Warn(
			"unconfirmed messages are approaching the lane limit, delivery may soon be blocked",
			"messages", r.relayers.TotalMessages,
		)
	}
	// The receiving proof has to be generated at a header the bridge
	// source has already imported as finalized.
	if state.BestFinalizedSourceHeaderOnTarget.Number < r.receivedAt.Number {
		return nil, nil
	}
	return &SelectedNonces{
		At:     r.receivedAt,
		Nonces: NewNonceRange(r.latestConfirmed+1, r.latestReceived),
	}, nil
}

func (r *confirmationRace) Prove(ctx context.Context, selected *SelectedNonces) error {
	at, proof, err := r.target.ProveReceiving(ctx, selected.At)
	if err != nil {
		return err
	}
	selected.At = at
	selected.Proof = proof
	return nil
}

func (r *confirmationRace) Submit(ctx context.Context, selected *SelectedNonces) (NonceRange, error) {
	if err := r.source.SubmitReceivingProof(ctx, selected.At, selected.Proof); err != nil {
		return NonceRange{}, err
	}
	return selected.Nonces, nil
}
