package config

import (
	"encoding/json"

	"github.com/cockroachdb/errors"

	"github.com/bridgelabs/lane-relayer/core"
)

// ChainEndConfig builds the client for one end of a lane. Configs are
// stored as raw JSON carrying a "type" field that names the module they
// belong to.
type ChainEndConfig interface {
	Validate() error
	ChainID() string
	BuildSource(lane core.LaneID) (core.SourceClient, error)
	BuildTarget(lane core.LaneID) (core.TargetClient, error)
}

type chainEndEnvelope struct {
	Type string `json:"type"`
}

// UnmarshalChainEnd decodes a raw chain end config using the module
// matching its "type" field.
func UnmarshalChainEnd(modules []ModuleI, bz json.RawMessage) (ChainEndConfig, error) {
	var envelope chainEndEnvelope
	if err := json.Unmarshal(bz, &envelope); err != nil {
		return nil, errors.Wrap(err, "failed to decode chain end envelope")
	}
	for _, m := range modules {
		if m.Name() != envelope.Type {
			continue
		}
		cfg := m.NewChainEndConfig()
		if err := json.Unmarshal(bz, cfg); err != nil {
			return nil, errors.Wrapf(err, "failed to decode %q chain end config", envelope.Type)
		}
		if err := cfg.Validate(); err != nil {
			return nil, errors.Wrapf(err, "invalid %q chain end config", envelope.Type)
		}
		return cfg, nil
	}
	return nil, errors.Newf("no module registered for chain type %q", envelope.Type)
}

// MarshalChainEnd encodes a chain end config back to raw JSON. The config
// struct is expected to carry its own "type" field.
func MarshalChainEnd(cfg ChainEndConfig) (json.RawMessage, error) {
	bz, err := json.Marshal(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode chain end config")
	}
	return bz, nil
}
