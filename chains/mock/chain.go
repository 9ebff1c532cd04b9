package mock

import (
	"crypto/sha256"
	"fmt"
	"sync"

	"cosmossdk.io/math"
	"github.com/cockroachdb/errors"

	"github.com/bridgelabs/lane-relayer/core"
)

// ChainParams tune one mock chain.
type ChainParams struct {
	MaxUnrewardedRelayerEntries uint64 `json:"max_unrewarded_relayer_entries,omitempty"`
	MaxUnconfirmedMessages      uint64 `json:"max_unconfirmed_messages,omitempty"`
	ConfirmationCost            int64  `json:"confirmation_cost,omitempty"`
	DeliveryBaseCost            int64  `json:"delivery_base_cost,omitempty"`
	DeliveryCostPerMessage      int64  `json:"delivery_cost_per_message,omitempty"`
	DeliveryCostPerWeightUnit   int64  `json:"delivery_cost_per_weight_unit,omitempty"`
	DeliveryCostPerByte         int64  `json:"delivery_cost_per_byte,omitempty"`
}

func DefaultChainParams() ChainParams {
	return ChainParams{
		MaxUnrewardedRelayerEntries: 16,
		MaxUnconfirmedMessages:      1024,
		ConfirmationCost:            10,
		DeliveryBaseCost:            10,
		DeliveryCostPerMessage:      1,
		DeliveryCostPerWeightUnit:   1,
		DeliveryCostPerByte:         1,
	}
}

type outboundLane struct {
	data        core.OutboundLaneData
	details     map[core.MessageNonce]core.MessageDetails
	generatedAt map[core.MessageNonce]uint64
}

// Chain is an in-memory chain with instant finality: every mutation mints
// a block and every block is final immediately. Two linked chains form a
// complete message lane, which makes the pair usable both as a dev
// backend and as a test fixture for the relay engine.
//
// Queries are served from the latest state; the header argument only
// gates validity, except for the generated-nonce queries which respect
// the block a message was generated at.
type Chain struct {
	chainID string
	params  ChainParams
	peer    *Chain

	mu       sync.Mutex
	number   uint64
	outbound map[core.LaneID]*outboundLane
	inbound  map[core.LaneID]*core.InboundLaneData
	rewards  map[string]uint64
	down     bool
}

func NewChain(chainID string, params ChainParams) *Chain {
	return &Chain{
		chainID:  chainID,
		params:   params,
		number:   1,
		outbound: make(map[core.LaneID]*outboundLane),
		inbound:  make(map[core.LaneID]*core.InboundLaneData),
		rewards:  make(map[string]uint64),
	}
}

// NewLinkedPair returns two chains linked to each other.
func NewLinkedPair(srcChainID, dstChainID string, params ChainParams) (*Chain, *Chain) {
	src := NewChain(srcChainID, params)
	dst := NewChain(dstChainID, params)
	src.Link(dst)
	dst.Link(src)
	return src, dst
}

// Link sets the peer chain. It must be called once, before any use.
func (c *Chain) Link(peer *Chain) {
	c.peer = peer
}

func (c *Chain) ChainID() string {
	return c.chainID
}

// SetDown simulates an outage: every client call fails with a
// connection-class error until the chain is brought back up.
func (c *Chain) SetDown(down bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.down = down
}

func (c *Chain) checkReachable() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checkUp()
}

// callers hold c.mu
func (c *Chain) checkUp() error {
	if c.down {
		return core.NewConnectionError(errors.Newf("chain %s is unreachable", c.chainID))
	}
	return nil
}

func (c *Chain) headerAt(number uint64) core.HeaderID {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s/%d", c.chainID, number)))
	return core.HeaderID{Number: number, Hash: hash}
}

// mintBlock advances the chain by one block. Callers hold c.mu.
func (c *Chain) mintBlock() core.HeaderID {
	c.number++
	return c.headerAt(c.number)
}

// callers hold c.mu
func (c *Chain) checkHeader(at core.HeaderID) error {
	if at.Number > c.number || c.headerAt(at.Number) != at {
		return errors.Newf("unknown header %s on chain %s", at.String(), c.chainID)
	}
	return nil
}

// BestHeader returns the chain's best (and, with instant finality, best
// finalized) header.
func (c *Chain) BestHeader() (core.HeaderID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkUp(); err != nil {
		return core.HeaderID{}, err
	}
	return c.headerAt(c.number), nil
}

// ValidateHeader reports whether at is a header of this chain. It fails
// with a connection-class error while the chain is down.
func (c *Chain) ValidateHeader(at core.HeaderID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkUp(); err != nil {
		return err
	}
	return c.checkHeader(at)
}

// headerKnown is ValidateHeader without the reachability check, for
// verifications that model on-chain logic rather than a client call.
func (c *Chain) headerKnown(at core.HeaderID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checkHeader(at)
}

func (c *Chain) state() (core.ClientState, error) {
	c.mu.Lock()
	if err := c.checkUp(); err != nil {
		c.mu.Unlock()
		return core.ClientState{}, err
	}
	best := c.headerAt(c.number)
	c.mu.Unlock()

	// The peer lock is taken after releasing our own to keep the lock
	// order acyclic between linked chains.
	peerBest, err := c.peer.BestHeader()
	if err != nil {
		return core.ClientState{}, core.NewConnectionError(errors.Wrapf(err, "chain %s cannot reach its peer", c.chainID))
	}
	return core.ClientState{
		BestHeader:              best,
		BestFinalizedHeader:     best,
		BestFinalizedPeerHeader: peerBest,
	}, nil
}

// callers hold c.mu
func (c *Chain) outboundLane(lane core.LaneID) *outboundLane {
	out, ok := c.outbound[lane]
	if !ok {
		out = &outboundLane{
			data:        core.NewOutboundLaneData(),
			details:     make(map[core.MessageNonce]core.MessageDetails),
			generatedAt: make(map[core.MessageNonce]uint64),
		}
		c.outbound[lane] = out
	}
	return out
}

// callers hold c.mu
func (c *Chain) inboundLane(lane core.LaneID) *core.InboundLaneData {
	in, ok := c.inbound[lane]
	if !ok {
		in = &core.InboundLaneData{}
		c.inbound[lane] = in
	}
	return in
}

// SendMessage queues one message on the outbound lane and returns its
// nonce.
func (c *Chain) SendMessage(lane core.LaneID, details core.MessageDetails) (core.MessageNonce, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkUp(); err != nil {
		return 0, err
	}
	out := c.outboundLane(lane)
	nonce := out.data.Generate()
	out.details[nonce] = details
	at := c.mintBlock()
	out.generatedAt[nonce] = at.Number
	return nonce, nil
}

// OutboundLaneData returns a copy of the outbound lane state.
func (c *Chain) OutboundLaneData(lane core.LaneID) core.OutboundLaneData {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outboundLane(lane).data
}

// InboundLaneData returns a copy of the inbound lane state.
func (c *Chain) InboundLaneData(lane core.LaneID) core.InboundLaneData {
	c.mu.Lock()
	defer c.mu.Unlock()
	in := *c.inboundLane(lane)
	in.Relayers = append([]core.UnrewardedRelayer(nil), in.Relayers...)
	return in
}

// RelayerReward returns the number of messages the relayer has been
// rewarded for on this chain.
func (c *Chain) RelayerReward(relayer string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rewards[relayer]
}

func (c *Chain) latestGeneratedNonce(lane core.LaneID, at core.HeaderID) (core.MessageNonce, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkUp(); err != nil {
		return 0, err
	}
	if err := c.checkHeader(at); err != nil {
		return 0, err
	}
	out := c.outboundLane(lane)
	for nonce := out.data.LatestGeneratedNonce; nonce > 0; nonce-- {
		generatedAt, ok := out.generatedAt[nonce]
		if !ok {
			// pruned: everything below is older than any live header
			return nonce, nil
		}
		if generatedAt <= at.Number {
			return nonce, nil
		}
	}
	return 0, nil
}

func (c *Chain) generatedMessageDetails(lane core.LaneID, at core.HeaderID, nonces core.NonceRange) (map[core.MessageNonce]core.MessageDetails, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkUp(); err != nil {
		return nil, err
	}
	if err := c.checkHeader(at); err != nil {
		return nil, err
	}
	out := c.outboundLane(lane)
	details := make(map[core.MessageNonce]core.MessageDetails, nonces.Len())
	for nonce := nonces.Begin; nonce <= nonces.End; nonce++ {
		d, ok := out.details[nonce]
		if !ok {
			continue
		}
		if generatedAt := out.generatedAt[nonce]; generatedAt > at.Number {
			continue
		}
		details[nonce] = d
	}
	return details, nil
}

func (c *Chain) proveMessages(lane core.LaneID, at core.HeaderID, nonces core.NonceRange, withOutboundState bool) (core.HeaderID, core.NonceRange, core.MessagesProof, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkUp(); err != nil {
		return core.HeaderID{}, core.NonceRange{}, nil, err
	}
	if err := c.checkHeader(at); err != nil {
		return core.HeaderID{}, core.NonceRange{}, nil, err
	}
	out := c.outboundLane(lane)
	if nonces.End > out.data.LatestGeneratedNonce {
		return core.HeaderID{}, core.NonceRange{}, nil, errors.Newf("nonces %s not generated on lane %s", nonces.String(), lane.String())
	}
	if nonces.Begin < out.data.OldestUnprunedNonce {
		return core.HeaderID{}, core.NonceRange{}, nil, errors.Newf("nonces %s already pruned on lane %s", nonces.String(), lane.String())
	}
	payload := messagesProofPayload{
		LaneID: lane.String(),
		At:     at,
		Nonces: nonces,
	}
	if withOutboundState {
		state := out.data
		payload.OutboundState = &state
	}
	proof, err := payload.encode()
	if err != nil {
		return core.HeaderID{}, core.NonceRange{}, nil, err
	}
	return at, nonces, proof, nil
}

func (c *Chain) proveReceiving(lane core.LaneID, at core.HeaderID) (core.HeaderID, core.ReceivingProof, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkUp(); err != nil {
		return core.HeaderID{}, nil, err
	}
	if err := c.checkHeader(at); err != nil {
		return core.HeaderID{}, nil, err
	}
	payload := receivingProofPayload{
		LaneID:              lane.String(),
		At:                  at,
		LatestReceivedNonce: c.inboundLane(lane).LatestReceivedNonce,
	}
	proof, err := payload.encode()
	if err != nil {
		return core.HeaderID{}, nil, err
	}
	return at, proof, nil
}

// receiveMessagesProof applies a delivery transaction. The proof must
// have been generated by the peer at a header the peer still serves.
func (c *Chain) receiveMessagesProof(lane core.LaneID, generatedAt core.HeaderID, nonces core.NonceRange, proof core.MessagesProof, relayer string) (core.NonceRange, error) {
	var payload messagesProofPayload
	if err := payload.decode(proof); err != nil {
		return core.NonceRange{}, err
	}
	if payload.LaneID != lane.String() || payload.At != generatedAt || payload.Nonces != nonces {
		return core.NonceRange{}, errors.New("messages proof does not match the submission")
	}
	if err := c.peer.headerKnown(generatedAt); err != nil {
		return core.NonceRange{}, errors.Wrap(err, "messages proof header is not known to the peer")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkUp(); err != nil {
		return core.NonceRange{}, err
	}
	in := c.inboundLane(lane)
	if payload.OutboundState != nil {
		// The embedded outbound state confirms deliveries the source has
		// already seen, pruning unrewarded relayer entries.
		c.applyRewards(in.Confirm(payload.OutboundState.LatestReceivedNonce))
	}
	if err := in.Receive(nonces, relayer, c.params.MaxUnrewardedRelayerEntries, c.params.MaxUnconfirmedMessages); err != nil {
		return core.NonceRange{}, err
	}
	c.mintBlock()
	return nonces, nil
}

// receiveDeliveryConfirmation applies a confirmation transaction: the
// outbound lane learns the latest nonce received by the peer and prunes
// delivered payloads.
func (c *Chain) receiveDeliveryConfirmation(lane core.LaneID, generatedAt core.HeaderID, proof core.ReceivingProof) error {
	var payload receivingProofPayload
	if err := payload.decode(proof); err != nil {
		return err
	}
	if payload.LaneID != lane.String() || payload.At != generatedAt {
		return errors.New("receiving proof does not match the submission")
	}
	if err := c.peer.headerKnown(generatedAt); err != nil {
		return errors.Wrap(err, "receiving proof header is not known to the peer")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkUp(); err != nil {
		return err
	}
	out := c.outboundLane(lane)
	if err := out.data.Confirm(payload.LatestReceivedNonce); err != nil {
		return err
	}
	for pruned := out.data.Prune(c.params.MaxUnconfirmedMessages); !pruned.IsEmpty(); pruned = out.data.Prune(c.params.MaxUnconfirmedMessages) {
		for nonce := pruned.Begin; nonce <= pruned.End; nonce++ {
			delete(out.details, nonce)
			delete(out.generatedAt, nonce)
		}
	}
	c.mintBlock()
	return nil
}

// callers hold c.mu
func (c *Chain) applyRewards(rewards map[string]uint64) {
	for relayer, messages := range rewards {
		c.rewards[relayer] += messages
	}
}

func (c *Chain) confirmationCost() math.Int {
	return math.NewInt(c.params.ConfirmationCost)
}

// deliveryCost prices a delivery transaction. The weight of prepaid
// messages is already folded into unpaidWeight by the caller, so the
// prepaid count itself does not change the price here.
func (c *Chain) deliveryCost(nonces core.NonceRange, _ uint64, unpaidWeight uint64, size uint32) math.Int {
	cost := math.NewInt(c.params.DeliveryBaseCost)
	cost = cost.Add(math.NewInt(c.params.DeliveryCostPerMessage).MulRaw(int64(nonces.Len())))
	cost = cost.Add(math.NewInt(c.params.DeliveryCostPerWeightUnit).MulRaw(int64(unpaidWeight)))
	cost = cost.Add(math.NewInt(c.params.DeliveryCostPerByte).MulRaw(int64(size)))
	return cost
}
