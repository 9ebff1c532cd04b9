package core

import (
	"context"

	"cosmossdk.io/math"
)

// SourceClient is the relayer's view of the chain that sends messages on
// the lane. Implementations must be safe for concurrent use by the
// delivery and confirmation races: they are handles to a shared
// connection, not holders of lane state.
type SourceClient interface {
	// ChainID returns ID of the chain
	ChainID() string

	// State returns the best own header and the best target-chain header
	// known to be finalized at the source.
	State(ctx context.Context) (ClientState, error)

	// LatestGeneratedNonce returns the latest nonce queued on the lane as
	// of the given header.
	LatestGeneratedNonce(ctx context.Context, at HeaderID) (HeaderID, MessageNonce, error)

	// LatestConfirmedReceivedNonce returns the latest nonce the source
	// knows was received by the target, as of the given header.
	LatestConfirmedReceivedNonce(ctx context.Context, at HeaderID) (HeaderID, MessageNonce, error)

	// GeneratedMessageDetails returns the economic and resource
	// attributes of the queued messages in the given range.
	GeneratedMessageDetails(ctx context.Context, at HeaderID, nonces NonceRange) (map[MessageNonce]MessageDetails, error)

	// ProveMessages builds a storage proof of the messages in the given
	// range at the given finalized header. When withOutboundState is
	// true the proof additionally covers the outbound lane state.
	ProveMessages(ctx context.Context, at HeaderID, nonces NonceRange, withOutboundState bool) (HeaderID, NonceRange, MessagesProof, error)

	// SubmitReceivingProof submits a proof of the target's inbound lane
	// state, confirming deliveries back to the source.
	SubmitReceivingProof(ctx context.Context, generatedAt HeaderID, proof ReceivingProof) error

	// EstimateConfirmationTransaction estimates the cost of a
	// confirmation transaction at the source, in source-chain tokens.
	EstimateConfirmationTransaction(ctx context.Context) (math.Int, error)

	// Reconnect re-establishes the underlying connection after a
	// connection-class failure.
	Reconnect(ctx context.Context) error
}

// TargetClient is the relayer's view of the chain that receives messages
// on the lane.
type TargetClient interface {
	// ChainID returns ID of the chain
	ChainID() string

	// State returns the best own header and the best source-chain header
	// known to be finalized at the target.
	State(ctx context.Context) (ClientState, error)

	// LatestReceivedNonce returns the latest nonce delivered to the
	// target as of the given header.
	LatestReceivedNonce(ctx context.Context, at HeaderID) (HeaderID, MessageNonce, error)

	// LatestConfirmedReceivedNonce returns the latest nonce whose
	// delivery has been confirmed back to the source, as of the given
	// header.
	LatestConfirmedReceivedNonce(ctx context.Context, at HeaderID) (HeaderID, MessageNonce, error)

	// UnrewardedRelayersState returns the summary of the inbound lane's
	// unrewarded-relayers list as of the given header.
	UnrewardedRelayersState(ctx context.Context, at HeaderID) (UnrewardedRelayersState, error)

	// ProveReceiving builds a storage proof of the inbound lane state at
	// the given finalized header.
	ProveReceiving(ctx context.Context, at HeaderID) (HeaderID, ReceivingProof, error)

	// SubmitMessagesProof submits a messages proof generated at the given
	// source header and returns the nonce range accepted by the target.
	SubmitMessagesProof(ctx context.Context, generatedAt HeaderID, nonces NonceRange, proof MessagesProof) (NonceRange, error)

	// EstimateDeliveryTransactionInSourceTokens estimates the cost of a
	// delivery transaction carrying the given range, expressed in
	// source-chain tokens. prepaidNonces counts messages whose dispatch
	// fee was paid at the source; unpaidWeight is their cumulative
	// dispatch weight, which the relayer covers inside the transaction.
	EstimateDeliveryTransactionInSourceTokens(ctx context.Context, nonces NonceRange, prepaidNonces uint64, unpaidWeight uint64, size uint32) (math.Int, error)

	// Reconnect re-establishes the underlying connection after a
	// connection-class failure.
	Reconnect(ctx context.Context) error
}
