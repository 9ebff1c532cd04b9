package core

import (
	"encoding/hex"
	"fmt"

	"cosmossdk.io/math"
	"github.com/cockroachdb/errors"
)

// LaneID is a fixed-width identifier of a logical message channel between
// the two chains. All nonces, proofs and storage keys are scoped by it.
type LaneID [4]byte

func (l LaneID) String() string {
	return hex.EncodeToString(l[:])
}

// ParseLaneID parses the hex form produced by LaneID.String.
func ParseLaneID(s string) (LaneID, error) {
	var lane LaneID
	bz, err := hex.DecodeString(s)
	if err != nil {
		return lane, errors.Wrapf(err, "invalid lane id %q", s)
	}
	if len(bz) != len(lane) {
		return lane, errors.Newf("invalid lane id %q: expected %d bytes, got %d", s, len(lane), len(bz))
	}
	copy(lane[:], bz)
	return lane, nil
}

// MessageNonce is a strictly-increasing-per-lane sequence number that is
// unique within a lane. Zero means "no message".
type MessageNonce = uint64

// HeaderID identifies a block of either chain.
type HeaderID struct {
	Number uint64
	Hash   [32]byte
}

func (id HeaderID) String() string {
	return fmt.Sprintf("%d/%x", id.Number, id.Hash[:4])
}

// NonceRange is an inclusive range of message nonces.
type NonceRange struct {
	Begin MessageNonce
	End   MessageNonce
}

func NewNonceRange(begin, end MessageNonce) NonceRange {
	return NonceRange{Begin: begin, End: end}
}

func (r NonceRange) IsEmpty() bool {
	return r.End < r.Begin
}

func (r NonceRange) Len() uint64 {
	if r.IsEmpty() {
		return 0
	}
	return r.End - r.Begin + 1
}

func (r NonceRange) Contains(nonce MessageNonce) bool {
	return r.Begin <= nonce && nonce <= r.End
}

func (r NonceRange) String() string {
	return fmt.Sprintf("%d..=%d", r.Begin, r.End)
}

// ClientNonces is a snapshot of the nonce counters read from one chain at
// a specific header. Staleness is explicit: the snapshot is only valid as
// of the header it was observed at.
type ClientNonces struct {
	// LatestNonce is the latest nonce generated (source) or received
	// (target) at the chain.
	LatestNonce MessageNonce
	// ConfirmedNonce is the latest nonce whose delivery has been
	// confirmed back to the sending chain.
	ConfirmedNonce MessageNonce
}

// ClientState describes what a chain knows about itself and about the
// finalized state of its peer. Any peer header reported here has already
// been established as finalized by the external finality subsystem.
type ClientState struct {
	BestHeader HeaderID
	// BestFinalizedHeader is the best own header already finalized. Only
	// state at or below it can be proven to the peer.
	BestFinalizedHeader     HeaderID
	BestFinalizedPeerHeader HeaderID
}

// DispatchFeePayment tells where the dispatch fee of a message has been
// paid. Messages prepaid at the source must be dispatched at the
// relayer's expense inside the delivery transaction.
type DispatchFeePayment int

const (
	DispatchFeeAtSourceChain DispatchFeePayment = iota
	DispatchFeeAtTargetChain
)

// MessageDetails carries the per-nonce economic and resource attributes
// used by the relay strategy.
type MessageDetails struct {
	// DispatchWeight is the weight of dispatching the message at the
	// target chain.
	DispatchWeight uint64
	// Size is the encoded byte length of the message payload.
	Size uint32
	// Reward is the fee paid by the sender, in source-chain balance units.
	Reward math.Int
	// DispatchFeePayment tells which chain the dispatch fee was paid at.
	DispatchFeePayment DispatchFeePayment
}

// MessagesProof is an opaque storage proof of a range of outbound
// messages at a finalized source-chain header.
type MessagesProof []byte

// ReceivingProof is an opaque storage proof of the inbound lane state at
// a finalized target-chain header.
type ReceivingProof []byte
