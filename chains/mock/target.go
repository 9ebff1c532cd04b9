package mock

import (
	"context"

	"cosmossdk.io/math"

	"github.com/bridgelabs/lane-relayer/core"
)

// TargetClient adapts a mock chain to the receiving end of a lane. The
// relayer id attributes deliveries in the unrewarded-relayers list.
type TargetClient struct {
	chain   *Chain
	lane    core.LaneID
	relayer string
}

var _ core.TargetClient = (*TargetClient)(nil)

func NewTargetClient(chain *Chain, lane core.LaneID, relayer string) *TargetClient {
	return &TargetClient{chain: chain, lane: lane, relayer: relayer}
}

func (c *TargetClient) ChainID() string {
	return c.chain.ChainID()
}

func (c *TargetClient) State(ctx context.Context) (core.ClientState, error) {
	return c.chain.state()
}

func (c *TargetClient) LatestReceivedNonce(ctx context.Context, at core.HeaderID) (core.HeaderID, core.MessageNonce, error) {
	if err := c.chain.ValidateHeader(at); err != nil {
		return core.HeaderID{}, 0, err
	}
	return at, c.chain.InboundLaneData(c.lane).LatestReceivedNonce, nil
}

func (c *TargetClient) LatestConfirmedReceivedNonce(ctx context.Context, at core.HeaderID) (core.HeaderID, core.MessageNonce, error) {
	if err := c.chain.ValidateHeader(at); err != nil {
		return core.HeaderID{}, 0, err
	}
	return at, c.chain.InboundLaneData(c.lane).LatestConfirmedNonce, nil
}

func (c *TargetClient) UnrewardedRelayersState(ctx context.Context, at core.HeaderID) (core.UnrewardedRelayersState, error) {
	if err := c.chain.ValidateHeader(at); err != nil {
		return core.UnrewardedRelayersState{}, err
	}
	return c.chain.InboundLaneData(c.lane).UnrewardedRelayersState(), nil
}

func (c *TargetClient) ProveReceiving(ctx context.Context, at core.HeaderID) (core.HeaderID, core.ReceivingProof, error) {
	return c.chain.proveReceiving(c.lane, at)
}

func (c *TargetClient) SubmitMessagesProof(ctx context.Context, generatedAt core.HeaderID, nonces core.NonceRange, proof core.MessagesProof) (core.NonceRange, error) {
	return c.chain.receiveMessagesProof(c.lane, generatedAt, nonces, proof, c.relayer)
}

func (c *TargetClient) EstimateDeliveryTransactionInSourceTokens(ctx context.Context, nonces core.NonceRange, prepaidNonces uint64, unpaidWeight uint64, size uint32) (math.Int, error) {
	if err := c.chain.checkReachable(); err != nil {
		return math.Int{}, err
	}
	return c.chain.deliveryCost(nonces, prepaidNonces, unpaidWeight, size), nil
}

func (c *TargetClient) Reconnect(ctx context.Context) error {
	return c.chain.checkReachable()
}
