package mock

import (
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/bridgelabs/lane-relayer/config"
	"github.com/bridgelabs/lane-relayer/core"
)

// Chains are process-local, so both ends of a lane configured with the
// same chain ids share one linked pair. The registry hands them out.
var (
	registryMu sync.Mutex
	registry   = map[string]*Chain{}
)

// GetChain returns the registered chain with the given id, creating it
// if needed.
func GetChain(chainID string, params ChainParams) *Chain {
	registryMu.Lock()
	defer registryMu.Unlock()
	return getChainLocked(chainID, params)
}

func getChainLocked(chainID string, params ChainParams) *Chain {
	chain, ok := registry[chainID]
	if !ok {
		chain = NewChain(chainID, params)
		registry[chainID] = chain
	}
	return chain
}

func getLinkedPair(chainID, peerChainID string, params ChainParams) (*Chain, *Chain) {
	registryMu.Lock()
	defer registryMu.Unlock()
	chain := getChainLocked(chainID, params)
	peer := getChainLocked(peerChainID, params)
	if chain.peer == nil {
		chain.Link(peer)
	}
	if peer.peer == nil {
		peer.Link(chain)
	}
	return chain, peer
}

// FindChain returns the registered chain with the given id.
func FindChain(chainID string) (*Chain, error) {
	registryMu.Lock()
	defer registryMu.Unlock()
	chain, ok := registry[chainID]
	if !ok {
		return nil, errors.Newf("mock chain %q is not registered", chainID)
	}
	return chain, nil
}

// ResetChains drops all registered chains.
func ResetChains() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = map[string]*Chain{}
}

// ChainEndConfig configures one mock chain end of a lane.
type ChainEndConfig struct {
	Type      string `json:"type" yaml:"type"`
	Chain     string `json:"chain_id" yaml:"chain-id"`
	PeerChain string `json:"peer_chain_id" yaml:"peer-chain-id"`
	Relayer   string `json:"relayer_id" yaml:"relayer-id"`
	ChainParams
}

var _ config.ChainEndConfig = (*ChainEndConfig)(nil)

func (c *ChainEndConfig) Validate() error {
	if c.Chain == "" {
		return errors.New("chain_id is required")
	}
	if c.PeerChain == "" {
		return errors.New("peer_chain_id is required")
	}
	return nil
}

func (c *ChainEndConfig) ChainID() string {
	return c.Chain
}

func (c *ChainEndConfig) params() ChainParams {
	params := DefaultChainParams()
	if c.MaxUnrewardedRelayerEntries != 0 {
		params.MaxUnrewardedRelayerEntries = c.MaxUnrewardedRelayerEntries
	}
	if c.MaxUnconfirmedMessages != 0 {
		params.MaxUnconfirmedMessages = c.MaxUnconfirmedMessages
	}
	if c.ConfirmationCost != 0 {
		params.ConfirmationCost = c.ConfirmationCost
	}
	if c.DeliveryBaseCost != 0 {
		params.DeliveryBaseCost = c.DeliveryBaseCost
	}
	if c.DeliveryCostPerMessage != 0 {
		params.DeliveryCostPerMessage = c.DeliveryCostPerMessage
	}
	if c.DeliveryCostPerWeightUnit != 0 {
		params.DeliveryCostPerWeightUnit = c.DeliveryCostPerWeightUnit
	}
	if c.DeliveryCostPerByte != 0 {
		params.DeliveryCostPerByte = c.DeliveryCostPerByte
	}
	return params
}

func (c *ChainEndConfig) BuildSource(lane core.LaneID) (core.SourceClient, error) {
	chain, _ := getLinkedPair(c.Chain, c.PeerChain, c.params())
	return NewSourceClient(chain, lane), nil
}

func (c *ChainEndConfig) BuildTarget(lane core.LaneID) (core.TargetClient, error) {
	chain, _ := getLinkedPair(c.Chain, c.PeerChain, c.params())
	relayer := c.Relayer
	if relayer == "" {
		relayer = "relayer"
	}
	return NewTargetClient(chain, lane, relayer), nil
}
