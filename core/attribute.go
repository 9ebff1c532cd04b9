package core

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	AttributeKeyChainID    = attribute.Key("chain_id")
	AttributeKeyLaneID     = attribute.Key("lane_id")
	AttributeKeySrcChainID = attribute.Key("source_chain_id")
	AttributeKeyDstChainID = attribute.Key("destination_chain_id")
	AttributeKeyRace       = attribute.Key("race")
	AttributeKeyNonces     = attribute.Key("nonces")
)

// WithChainAttributes returns a span option carrying the chain identifier.
func WithChainAttributes(chainID string) trace.SpanStartOption {
	return trace.WithAttributes(
		AttributeKeyChainID.String(chainID),
	)
}

// WithLaneAttributes returns a span option carrying the lane and chain
// pair identifiers.
func WithLaneAttributes(lane LaneID, srcChainID, dstChainID string) trace.SpanStartOption {
	return trace.WithAttributes(
		AttributeKeyLaneID.String(lane.String()),
		AttributeKeySrcChainID.String(srcChainID),
		AttributeKeyDstChainID.String(dstChainID),
	)
}
