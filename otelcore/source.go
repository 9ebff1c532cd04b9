package otelcore

import (
	"context"
	"fmt"

	"cosmossdk.io/math"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bridgelabs/lane-relayer/core"
)

// SourceClient decorates a core.SourceClient with a tracing span around
// every call.
type SourceClient struct {
	core.SourceClient
	tracer trace.Tracer
}

func NewSourceClient(client core.SourceClient, tracer trace.Tracer) core.SourceClient {
	return &SourceClient{
		SourceClient: client,
		tracer:       tracer,
	}
}

// UnwrapSourceClient returns the decorated client.
func UnwrapSourceClient(client core.SourceClient) (core.SourceClient, error) {
	c, ok := client.(*SourceClient)
	if !ok {
		return nil, fmt.Errorf("source client type is not %T, but %T", &SourceClient{}, client)
	}
	return c.SourceClient, nil
}

func (c *SourceClient) State(ctx context.Context) (core.ClientState, error) {
	ctx, span := c.tracer.Start(ctx, "SourceClient.State",
		core.WithChainAttributes(c.ChainID()),
	)
	defer span.End()

	state, err := c.SourceClient.State(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return state, err
}

func (c *SourceClient) LatestGeneratedNonce(ctx context.Context, at core.HeaderID) (core.HeaderID, core.MessageNonce, error) {
	ctx, span := c.tracer.Start(ctx, "SourceClient.LatestGeneratedNonce",
		core.WithChainAttributes(c.ChainID()),
	)
	defer span.End()

	at, nonce, err := c.SourceClient.LatestGeneratedNonce(ctx, at)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return at, nonce, err
}

func (c *SourceClient) LatestConfirmedReceivedNonce(ctx context.Context, at core.HeaderID) (core.HeaderID, core.MessageNonce, error) {
	ctx, span := c.tracer.Start(ctx, "SourceClient.LatestConfirmedReceivedNonce",
		core.WithChainAttributes(c.ChainID()),
	)
	defer span.End()

	at, nonce, err := c.SourceClient.LatestConfirmedReceivedNonce(ctx, at)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return at, nonce, err
}

func (c *SourceClient) GeneratedMessageDetails(ctx context.Context, at core.HeaderID, nonces core.NonceRange) (map[core.MessageNonce]core.MessageDetails, error) {
	ctx, span := c.tracer.Start(ctx, "SourceClient.GeneratedMessageDetails",
		core.WithChainAttributes(c.ChainID()),
		trace.WithAttributes(core.AttributeKeyNonces.String(nonces.String())),
	)
	defer span.End()

	details, err := c.SourceClient.GeneratedMessageDetails(ctx, at, nonces)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return details, err
}

func (c *SourceClient) ProveMessages(ctx context.Context, at core.HeaderID, nonces core.NonceRange, withOutboundState bool) (core.HeaderID, core.NonceRange, core.MessagesProof, error) {
	ctx, span := c.tracer.Start(ctx, "SourceClient.ProveMessages",
		core.WithChainAttributes(c.ChainID()),
		trace.WithAttributes(core.AttributeKeyNonces.String(nonces.String())),
	)
	defer span.End()

	at, nonces, proof, err := c.SourceClient.ProveMessages(ctx, at, nonces, withOutboundState)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return at, nonces, proof, err
}

func (c *SourceClient) SubmitReceivingProof(ctx context.Context, generatedAt core.HeaderID, proof core.ReceivingProof) error {
	ctx, span := c.tracer.Start(ctx, "SourceClient.SubmitReceivingProof",
		core.WithChainAttributes(c.ChainID()),
	)
	defer span.End()

	err := c.SourceClient.SubmitReceivingProof(ctx, generatedAt, proof)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *SourceClient) EstimateConfirmationTransaction(ctx context.Context) (math.Int, error) {
	ctx, span := c.tracer.Start(ctx, "SourceClient.EstimateConfirmationTransaction",
		core.WithChainAttributes(c.ChainID()),
	)
	defer span.End()

	cost, err := c.SourceClient.EstimateConfirmationTransaction(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return cost, err
}

func (c *SourceClient) Reconnect(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "SourceClient.Reconnect",
		core.WithChainAttributes(c.ChainID()),
	)
	defer span.End()

	err := c.SourceClient.Reconnect(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
