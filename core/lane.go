package core

import (
	"github.com/cockroachdb/errors"
)

// OutboundLaneData is the sending chain's view of a lane.
//
// Invariant: OldestUnprunedNonce <= LatestReceivedNonce+1 and
// LatestReceivedNonce <= LatestGeneratedNonce.
type OutboundLaneData struct {
	// OldestUnprunedNonce is the nonce of the oldest message payload that
	// is still kept in storage.
	OldestUnprunedNonce MessageNonce
	// LatestReceivedNonce is the highest nonce the sender has learned was
	// received by the target.
	LatestReceivedNonce MessageNonce
	// LatestGeneratedNonce is the highest nonce ever queued on the lane.
	LatestGeneratedNonce MessageNonce
}

func NewOutboundLaneData() OutboundLaneData {
	return OutboundLaneData{OldestUnprunedNonce: 1}
}

func (d OutboundLaneData) Validate() error {
	if d.LatestReceivedNonce > d.LatestGeneratedNonce {
		return errors.Newf("outbound lane received nonce %d ahead of generated nonce %d", d.LatestReceivedNonce, d.LatestGeneratedNonce)
	}
	if d.OldestUnprunedNonce > d.LatestReceivedNonce+1 {
		return errors.Newf("outbound lane pruned past received nonce: %d > %d", d.OldestUnprunedNonce, d.LatestReceivedNonce+1)
	}
	return nil
}

// Generate queues one more message and returns its nonce.
func (d *OutboundLaneData) Generate() MessageNonce {
	d.LatestGeneratedNonce++
	return d.LatestGeneratedNonce
}

// Confirm advances the received counter after a receiving proof has been
// accepted. Confirmations below the current counter are harmless no-ops.
func (d *OutboundLaneData) Confirm(latestReceived MessageNonce) error {
	if latestReceived > d.LatestGeneratedNonce {
		return errors.Newf("confirmation for nonce %d ahead of generated nonce %d", latestReceived, d.LatestGeneratedNonce)
	}
	if latestReceived > d.LatestReceivedNonce {
		d.LatestReceivedNonce = latestReceived
	}
	return nil
}

// Prune drops up to maxMessages delivered payloads from storage and
// returns the nonces to remove.
func (d *OutboundLaneData) Prune(maxMessages uint64) NonceRange {
	end := d.LatestReceivedNonce
	if pruneable := end - d.OldestUnprunedNonce + 1; end >= d.OldestUnprunedNonce && pruneable > maxMessages {
		end = d.OldestUnprunedNonce + maxMessages - 1
	}
	pruned := NonceRange{Begin: d.OldestUnprunedNonce, End: end}
	if !pruned.IsEmpty() {
		d.OldestUnprunedNonce = end + 1
	}
	return pruned
}

// DeliveredMessages is a contiguous nonce range delivered by one relayer.
type DeliveredMessages struct {
	Begin MessageNonce
	End   MessageNonce
}

// UnrewardedRelayer records which relayer delivered which un-confirmed
// nonce range.
type UnrewardedRelayer struct {
	Relayer  string
	Messages DeliveredMessages
}

// UnrewardedRelayersState summarizes the unrewarded-relayers list of an
// inbound lane, used to decide when a confirmation is required.
type UnrewardedRelayersState struct {
	UnrewardedRelayerEntries uint64
	MessagesInOldestEntry    uint64
	TotalMessages            uint64
}

// InboundLaneData is the receiving chain's view of a lane.
//
// Invariants: relayer entries are contiguous, non-overlapping and
// strictly increasing; LatestConfirmedNonce <= LatestReceivedNonce.
type InboundLaneData struct {
	Relayers []UnrewardedRelayer
	// LatestReceivedNonce is the highest nonce delivered to this chain.
	LatestReceivedNonce MessageNonce
	// LatestConfirmedNonce is the highest nonce whose delivery has been
	// confirmed back to the source and rewarded.
	LatestConfirmedNonce MessageNonce
}

func (d InboundLaneData) Validate() error {
	if d.LatestConfirmedNonce > d.LatestReceivedNonce {
		return errors.Newf("inbound lane confirmed nonce %d ahead of received nonce %d", d.LatestConfirmedNonce, d.LatestReceivedNonce)
	}
	last := d.LatestConfirmedNonce
	for _, entry := range d.Relayers {
		if entry.Messages.Begin != last+1 {
			return errors.Newf("unrewarded relayer entry %v is not contiguous after nonce %d", entry.Messages, last)
		}
		if entry.Messages.End < entry.Messages.Begin {
			return errors.Newf("unrewarded relayer entry %v is empty", entry.Messages)
		}
		last = entry.Messages.End
	}
	if last != d.LatestReceivedNonce {
		return errors.Newf("unrewarded relayer entries end at %d, expected %d", last, d.LatestReceivedNonce)
	}
	return nil
}

// UnrewardedRelayersState computes the summary used by the relayer.
func (d InboundLaneData) UnrewardedRelayersState() UnrewardedRelayersState {
	var state UnrewardedRelayersState
	state.UnrewardedRelayerEntries = uint64(len(d.Relayers))
	if len(d.Relayers) > 0 {
		oldest := d.Relayers[0].Messages
		state.MessagesInOldestEntry = oldest.End - oldest.Begin + 1
	}
	state.TotalMessages = d.LatestReceivedNonce - d.LatestConfirmedNonce
	return state
}

// Receive applies a delivered nonce range on behalf of relayer. Delivery
// must start exactly at LatestReceivedNonce+1: stale and overlapping
// ranges are rejected so that redundant (at-least-once) submissions
// cannot be double-applied. Consecutive deliveries by the same relayer
// are merged into one entry.
func (d *InboundLaneData) Receive(nonces NonceRange, relayer string, maxRelayerEntries, maxUnconfirmedMessages uint64) error {
	if nonces.IsEmpty() {
		return errors.New("empty delivery range")
	}
	if nonces.Begin != d.LatestReceivedNonce+1 {
		return errors.Newf("delivery range %v does not start at %d", nonces, d.LatestReceivedNonce+1)
	}
	if d.LatestReceivedNonce-d.LatestConfirmedNonce+nonces.Len() > maxUnconfirmedMessages {
		return errors.Newf("delivery range %v exceeds max unconfirmed messages %d", nonces, maxUnconfirmedMessages)
	}
	if n := len(d.Relayers); n > 0 && d.Relayers[n-1].Relayer == relayer {
		d.Relayers[n-1].Messages.End = nonces.End
	} else {
		if uint64(n)+1 > maxRelayerEntries {
			return errors.Newf("delivery range %v exceeds max unrewarded relayer entries %d", nonces, maxRelayerEntries)
		}
		d.Relayers = append(d.Relayers, UnrewardedRelayer{
			Relayer:  relayer,
			Messages: DeliveredMessages{Begin: nonces.Begin, End: nonces.End},
		})
	}
	d.LatestReceivedNonce = nonces.End
	return nil
}

// Confirm drains relayer entries up to latestDelivered and returns the
// number of messages each relayer is to be rewarded for.
func (d *InboundLaneData) Confirm(latestDelivered MessageNonce) map[string]uint64 {
	if latestDelivered <= d.LatestConfirmedNonce {
		return nil
	}
	if latestDelivered > d.LatestReceivedNonce {
		latestDelivered = d.LatestReceivedNonce
	}
	rewards := make(map[string]uint64)
	var kept []UnrewardedRelayer
	for _, entry := range d.Relayers {
		switch {
		case entry.Messages.End <= latestDelivered:
			rewards[entry.Relayer] += entry.Messages.End - entry.Messages.Begin + 1
		case entry.Messages.Begin <= latestDelivered:
			rewards[entry.Relayer] += latestDelivered - entry.Messages.Begin + 1
			entry.Messages.Begin = latestDelivered + 1
			kept = append(kept, entry)
		default:
			kept = append(kept, entry)
		}
	}
	d.Relayers = kept
	d.LatestConfirmedNonce = latestDelivered
	return rewards
}
