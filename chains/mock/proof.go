package mock

import (
	"encoding/json"

	"github.com/cockroachdb/errors"

	"github.com/bridgelabs/lane-relayer/core"
)

// The mock chains exchange trivially-encoded proofs: a JSON statement of
// what is being proven, validated against the submission and the peer's
// headers but not cryptographically.

type messagesProofPayload struct {
	LaneID        string                 `json:"lane_id"`
	At            core.HeaderID          `json:"at"`
	Nonces        core.NonceRange        `json:"nonces"`
	OutboundState *core.OutboundLaneData `json:"outbound_state,omitempty"`
}

func (p messagesProofPayload) encode() (core.MessagesProof, error) {
	bz, err := json.Marshal(p)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode messages proof")
	}
	return bz, nil
}

func (p *messagesProofPayload) decode(proof core.MessagesProof) error {
	if err := json.Unmarshal(proof, p); err != nil {
		return errors.Wrap(err, "failed to decode messages proof")
	}
	return nil
}

type receivingProofPayload struct {
	LaneID              string            `json:"lane_id"`
	At                  core.HeaderID     `json:"at"`
	LatestReceivedNonce core.MessageNonce `json:"latest_received_nonce"`
}

func (p receivingProofPayload) encode() (core.ReceivingProof, error) {
	bz, err := json.Marshal(p)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode receiving proof")
	}
	return bz, nil
}

func (p *receivingProofPayload) decode(proof core.ReceivingProof) error {
	if err := json.Unmarshal(proof, p); err != nil {
		return errors.Wrap(err, "failed to decode receiving proof")
	}
	return nil
}
