package mock

import (
	"context"

	"cosmossdk.io/math"

	"github.com/bridgelabs/lane-relayer/core"
)

// SourceClient adapts a mock chain to the sending end of a lane.
type SourceClient struct {
	chain *Chain
	lane  core.LaneID
}

var _ core.SourceClient = (*SourceClient)(nil)

func NewSourceClient(chain *Chain, lane core.LaneID) *SourceClient {
	return &SourceClient{chain: chain, lane: lane}
}

func (c *SourceClient) ChainID() string {
	return c.chain.ChainID()
}

func (c *SourceClient) State(ctx context.Context) (core.ClientState, error) {
	return c.chain.state()
}

func (c *SourceClient) LatestGeneratedNonce(ctx context.Context, at core.HeaderID) (core.HeaderID, core.MessageNonce, error) {
	nonce, err := c.chain.latestGeneratedNonce(c.lane, at)
	if err != nil {
		return core.HeaderID{}, 0, err
	}
	return at, nonce, nil
}

func (c *SourceClient) LatestConfirmedReceivedNonce(ctx context.Context, at core.HeaderID) (core.HeaderID, core.MessageNonce, error) {
	if err := c.chain.ValidateHeader(at); err != nil {
		return core.HeaderID{}, 0, err
	}
	return at, c.chain.OutboundLaneData(c.lane).LatestReceivedNonce, nil
}

func (c *SourceClient) GeneratedMessageDetails(ctx context.Context, at core.HeaderID, nonces core.NonceRange) (map[core.MessageNonce]core.MessageDetails, error) {
	return c.chain.generatedMessageDetails(c.lane, at, nonces)
}

func (c *SourceClient) ProveMessages(ctx context.Context, at core.HeaderID, nonces core.NonceRange, withOutboundState bool) (core.HeaderID, core.NonceRange, core.MessagesProof, error) {
	return c.chain.proveMessages(c.lane, at, nonces, withOutboundState)
}

func (c *SourceClient) SubmitReceivingProof(ctx context.Context, generatedAt core.HeaderID, proof core.ReceivingProof) error {
	return c.chain.receiveDeliveryConfirmation(c.lane, generatedAt, proof)
}

func (c *SourceClient) EstimateConfirmationTransaction(ctx context.Context) (math.Int, error) {
	if err := c.chain.checkReachable(); err != nil {
		return math.Int{}, err
	}
	return c.chain.confirmationCost(), nil
}

func (c *SourceClient) Reconnect(ctx context.Context) error {
	return c.chain.checkReachable()
}
