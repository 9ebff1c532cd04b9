package core

import (
	"context"
)

// deliveryRace moves messages from the source chain to the target chain.
// Nonce bookkeeping and range selection are delegated to the tracker.
type deliveryRace struct {
	lane    LaneID
	source  SourceClient
	target  TargetClient
	tracker *NonceTracker
}

var _ race = (*deliveryRace)(nil)

func newDeliveryRace(lane LaneID, source SourceClient, target TargetClient, tracker *NonceTracker) *deliveryRace {
	return &deliveryRace{
		lane:    lane,
		source:  source,
		target:  target,
		tracker: tracker,
	}
}

func (r *deliveryRace) Name() string {
	return "delivery"
}

func (r *deliveryRace) SourceChainID() string {
	return r.source.ChainID()
}

func (r *deliveryRace) TargetChainID() string {
	return r.target.ChainID()
}

func (r *deliveryRace) SourceState(ctx context.Context) (ClientState, error) {
	return r.source.State(ctx)
}

func (r *deliveryRace) SourceNonces(ctx context.Context, at HeaderID) (HeaderID, ClientNonces, error) {
	at, latest, err := r.source.LatestGeneratedNonce(ctx, at)
	if err != nil {
		return HeaderID{}, ClientNonces{}, err
	}
	_, confirmed, err := r.source.LatestConfirmedReceivedNonce(ctx, at)
	if err != nil {
		return HeaderID{}, ClientNonces{}, err
	}
	return at, ClientNonces{LatestNonce: latest, ConfirmedNonce: confirmed}, nil
}

func (r *deliveryRace) TargetState(ctx context.Context) (ClientState, error) {
	return r.target.State(ctx)
}

func (r *deliveryRace) TargetNonces(ctx context.Context, at HeaderID) (HeaderID, ClientNonces, error) {
	at, latest, err := r.target.LatestReceivedNonce(ctx, at)
	if err != nil {
		return HeaderID{}, ClientNonces{}, err
	}
	_, confirmed, err := r.target.LatestConfirmedReceivedNonce(ctx, at)
	if err != nil {
		return HeaderID{}, ClientNonces{}, err
	}
	return at, ClientNonces{LatestNonce: latest, ConfirmedNonce: confirmed}, nil
}

func (r *deliveryRace) SourceNoncesUpdated(at HeaderID, nonces ClientNonces) {
	r.tracker.SourceNoncesUpdated(at, nonces)
}

func (r *deliveryRace) TargetNoncesUpdated(nonces ClientNonces, state *RaceState) {
	r.tracker.TargetNoncesUpdated(nonces, state)
}

func (r *deliveryRace) SelectNoncesToDeliver(ctx context.Context, state *RaceState) (*SelectedNonces, error) {
	return r.tracker.SelectNoncesToDeliver(ctx, state)
}

func (r *deliveryRace) Prove(ctx context.Context, selected *SelectedNonces) error {
	at, nonces, proof, err := r.source.ProveMessages(ctx, selected.At, selected.Nonces, selected.RequiresOutboundState)
	if err != nil {
		return err
	}
	selected.At = at
	selected.Nonces = nonces
	selected.Proof = proof
	return nil
}

func (r *deliveryRace) Submit(ctx context.Context, selected *SelectedNonces) (NonceRange, error) {
	return r.target.SubmitMessagesProof(ctx, selected.At, selected.Nonces, selected.Proof)
}
