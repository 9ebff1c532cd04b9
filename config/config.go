package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel"

	"github.com/bridgelabs/lane-relayer/core"
	"github.com/bridgelabs/lane-relayer/otelcore"
)

const tracerName = "github.com/bridgelabs/lane-relayer/config"

type Config struct {
	Global GlobalConfig  `json:"global" yaml:"global"`
	Lanes  []*LaneConfig `json:"lanes" yaml:"lanes"`

	ConfigPath string `json:"-" yaml:"-"`
}

type GlobalConfig struct {
	Timeout string       `json:"timeout" yaml:"timeout"`
	Logger  LoggerConfig `json:"logger" yaml:"logger"`
}

type LoggerConfig struct {
	Level      string `json:"level" yaml:"level"`
	Format     string `json:"format" yaml:"format"`
	Output     string `json:"output" yaml:"output"`
	EnableOtel bool   `json:"enable_otel" yaml:"enable-otel"`
}

// LaneConfig describes one message lane: its id, both chain ends and the
// relay parameters of its service.
type LaneConfig struct {
	ID       string           `json:"id" yaml:"id"`
	Source   json.RawMessage  `json:"source" yaml:"source"`
	Target   json.RawMessage  `json:"target" yaml:"target"`
	Strategy core.StrategyCfg `json:"strategy" yaml:"strategy"`

	MaxMessagesInBatch uint64 `json:"max_messages_in_batch" yaml:"max-messages-in-batch"`
	MaxWeightInBatch   uint64 `json:"max_weight_in_batch" yaml:"max-weight-in-batch"`
	MaxSizeInBatch     uint64 `json:"max_size_in_batch" yaml:"max-size-in-batch"`

	RelayInterval string `json:"relay_interval" yaml:"relay-interval"`
	StallTimeout  string `json:"stall_timeout" yaml:"stall-timeout"`

	MaxUnrewardedRelayerEntries uint64 `json:"max_unrewarded_relayer_entries" yaml:"max-unrewarded-relayer-entries"`
	MaxUnconfirmedMessages      uint64 `json:"max_unconfirmed_messages" yaml:"max-unconfirmed-messages"`

	// built by Init
	lane   core.LaneID
	source core.SourceClient
	target core.TargetClient
}

func DefaultConfig(configPath string) Config {
	return Config{
		Global: GlobalConfig{
			Timeout: "10s",
			Logger: LoggerConfig{
				Level:  "DEBUG",
				Format: "json",
				Output: "stderr",
			},
		},
		Lanes:      []*LaneConfig{},
		ConfigPath: configPath,
	}
}

// GetLane returns the configuration of the lane with the given id.
func (c *Config) GetLane(id string) (*LaneConfig, error) {
	for _, lc := range c.Lanes {
		if lc.ID == id {
			return lc, nil
		}
	}
	return nil, errors.Newf("lane %q is not configured", id)
}

// AddLane adds a lane to the config.
func (c *Config) AddLane(lc *LaneConfig) error {
	if _, err := c.GetLane(lc.ID); err == nil {
		return errors.Newf("lane %q already exists in config", lc.ID)
	}
	c.Lanes = append(c.Lanes, lc)
	return nil
}

// InitLanes builds the chain end clients of every configured lane.
func InitLanes(ctx *Context) error {
	for _, lc := range ctx.Config.Lanes {
		if err := lc.Init(ctx.Modules); err != nil {
			return errors.Wrapf(err, "failed to initialize lane %q", lc.ID)
		}
	}
	return nil
}

// Init parses the lane id and builds both chain end clients.
func (lc *LaneConfig) Init(modules []ModuleI) error {
	lane, err := core.ParseLaneID(lc.ID)
	if err != nil {
		return err
	}
	srcCfg, err := UnmarshalChainEnd(modules, lc.Source)
	if err != nil {
		return errors.Wrap(err, "failed to decode the source chain end")
	}
	tgtCfg, err := UnmarshalChainEnd(modules, lc.Target)
	if err != nil {
		return errors.Wrap(err, "failed to decode the target chain end")
	}
	source, err := srcCfg.BuildSource(lane)
	if err != nil {
		return errors.Wrap(err, "failed to build the source client")
	}
	target, err := tgtCfg.BuildTarget(lane)
	if err != nil {
		return errors.Wrap(err, "failed to build the target client")
	}
	tracer := otel.Tracer(tracerName)
	lc.lane = lane
	lc.source = otelcore.NewSourceClient(source, tracer)
	lc.target = otelcore.NewTargetClient(target, tracer)
	return nil
}

func (lc *LaneConfig) LaneID() core.LaneID {
	return lc.lane
}

func (lc *LaneConfig) SourceClient() core.SourceClient {
	return lc.source
}

func (lc *LaneConfig) TargetClient() core.TargetClient {
	return lc.target
}

// ServiceOptions assembles the relay service options of the lane.
func (lc *LaneConfig) ServiceOptions() (core.ServiceOptions, error) {
	strategy, err := core.GetStrategy(lc.Strategy)
	if err != nil {
		return core.ServiceOptions{}, err
	}
	opts := core.ServiceOptions{
		Strategy: strategy,
		Limits: core.BatchLimits{
			MaxMessagesInBatch: lc.MaxMessagesInBatch,
			MaxWeightInBatch:   lc.MaxWeightInBatch,
			MaxSizeInBatch:     lc.MaxSizeInBatch,
		},
		Thresholds: core.ConfirmationThresholds{
			MaxUnrewardedRelayerEntries: lc.MaxUnrewardedRelayerEntries,
			MaxUnconfirmedMessages:      lc.MaxUnconfirmedMessages,
		},
	}
	if lc.RelayInterval != "" {
		if opts.RelayInterval, err = time.ParseDuration(lc.RelayInterval); err != nil {
			return core.ServiceOptions{}, errors.Wrap(err, "invalid relay_interval")
		}
	}
	if lc.StallTimeout != "" {
		if opts.StallTimeout, err = time.ParseDuration(lc.StallTimeout); err != nil {
			return core.ServiceOptions{}, errors.Wrap(err, "invalid stall_timeout")
		}
	}
	return opts, nil
}

// CreateConfig writes a default config file unless one already exists.
func CreateConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return errors.Newf("config already exists: %s", configPath)
	}
	if err := os.MkdirAll(filepath.Dir(configPath), os.ModePerm); err != nil {
		return err
	}
	cfg := DefaultConfig(configPath)
	return cfg.Save()
}

// LoadConfig reads the config file at configPath.
func LoadConfig(configPath string) (*Config, error) {
	bz, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config %s", configPath)
	}
	var cfg Config
	if err := json.Unmarshal(bz, &cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to decode config %s", configPath)
	}
	cfg.ConfigPath = configPath
	return &cfg, nil
}

// Save writes the config back to its file.
func (c *Config) Save() error {
	bz, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode config")
	}
	return os.WriteFile(c.ConfigPath, bz, 0600)
}
