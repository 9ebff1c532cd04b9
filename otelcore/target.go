package otelcore

import (
	"context"
	"fmt"

	"cosmossdk.io/math"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bridgelabs/lane-relayer/core"
)

// TargetClient decorates a core.TargetClient with a tracing span around
// every call.
type TargetClient struct {
	core.TargetClient
	tracer trace.Tracer
}

func NewTargetClient(client core.TargetClient, tracer trace.Tracer) core.TargetClient {
	return &TargetClient{
		TargetClient: client,
		tracer:       tracer,
	}
}

// UnwrapTargetClient returns the decorated client.
func UnwrapTargetClient(client core.TargetClient) (core.TargetClient, error) {
	c, ok := client.(*TargetClient)
	if !ok {
		return nil, fmt.Errorf("target client type is not %T, but %T", &TargetClient{}, client)
	}
	return c.TargetClient, nil
}

func (c *TargetClient) State(ctx context.Context) (core.ClientState, error) {
	ctx, span := c.tracer.Start(ctx, "TargetClient.State",
		core.WithChainAttributes(c.ChainID()),
	)
	defer span.End()

	state, err := c.TargetClient.State(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return state, err
}

func (c *TargetClient) LatestReceivedNonce(ctx context.Context, at core.HeaderID) (core.HeaderID, core.MessageNonce, error) {
	ctx, span := c.tracer.Start(ctx, "TargetClient.LatestReceivedNonce",
		core.WithChainAttributes(c.ChainID()),
	)
	defer span.End()

	at, nonce, err := c.TargetClient.LatestReceivedNonce(ctx, at)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return at, nonce, err
}

func (c *TargetClient) LatestConfirmedReceivedNonce(ctx context.Context, at core.HeaderID) (core.HeaderID, core.MessageNonce, error) {
	ctx, span := c.tracer.Start(ctx, "TargetClient.LatestConfirmedReceivedNonce",
		core.WithChainAttributes(c.ChainID()),
	)
	defer span.End()

	at, nonce, err := c.TargetClient.LatestConfirmedReceivedNonce(ctx, at)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return at, nonce, err
}

func (c *TargetClient) UnrewardedRelayersState(ctx context.Context, at core.HeaderID) (core.UnrewardedRelayersState, error) {
	ctx, span := c.tracer.Start(ctx, "TargetClient.UnrewardedRelayersState",
		core.WithChainAttributes(c.ChainID()),
	)
	defer span.End()

	state, err := c.TargetClient.UnrewardedRelayersState(ctx, at)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return state, err
}

func (c *TargetClient) ProveReceiving(ctx context.Context, at core.HeaderID) (core.HeaderID, core.ReceivingProof, error) {
	ctx, span := c.tracer.Start(ctx, "TargetClient.ProveReceiving",
		core.WithChainAttributes(c.ChainID()),
	)
	defer span.End()

	at, proof, err := c.TargetClient.ProveReceiving(ctx, at)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return at, proof, err
}

func (c *TargetClient) SubmitMessagesProof(ctx context.Context, generatedAt core.HeaderID, nonces core.NonceRange, proof core.MessagesProof) (core.NonceRange, error) {
	ctx, span := c.tracer.Start(ctx, "TargetClient.SubmitMessagesProof",
		core.WithChainAttributes(c.ChainID()),
		trace.WithAttributes(core.AttributeKeyNonces.String(nonces.String())),
	)
	defer span.End()

	accepted, err := c.TargetClient.SubmitMessagesProof(ctx, generatedAt, nonces, proof)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return accepted, err
}

func (c *TargetClient) EstimateDeliveryTransactionInSourceTokens(ctx context.Context, nonces core.NonceRange, prepaidNonces uint64, unpaidWeight uint64, size uint32) (math.Int, error) {
	ctx, span := c.tracer.Start(ctx, "TargetClient.EstimateDeliveryTransactionInSourceTokens",
		core.WithChainAttributes(c.ChainID()),
		trace.WithAttributes(core.AttributeKeyNonces.String(nonces.String())),
	)
	defer span.End()

	cost, err := c.TargetClient.EstimateDeliveryTransactionInSourceTokens(ctx, nonces, prepaidNonces, unpaidWeight, size)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return cost, err
}

func (c *TargetClient) Reconnect(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "TargetClient.Reconnect",
		core.WithChainAttributes(c.ChainID()),
	)
	defer span.End()

	err := c.TargetClient.Reconnect(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
