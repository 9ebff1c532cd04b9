package config_test

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bridgelabs/lane-relayer/chains/mock"
	mockmodule "github.com/bridgelabs/lane-relayer/chains/mock/module"
	"github.com/bridgelabs/lane-relayer/config"
	"github.com/bridgelabs/lane-relayer/core"
	"github.com/bridgelabs/lane-relayer/coreutil"
)

var modules = []config.ModuleI{mockmodule.Module{}}

func mockEnd(t *testing.T, chainID, peerChainID string) json.RawMessage {
	t.Helper()
	bz, err := config.MarshalChainEnd(&mock.ChainEndConfig{
		Type:      "mock",
		Chain:     chainID,
		PeerChain: peerChainID,
	})
	require.NoError(t, err)
	return bz
}

func TestLaneConfigInit(t *testing.T) {
	mock.ResetChains()

	lc := &config.LaneConfig{
		ID:     "00000011",
		Source: mockEnd(t, "init-src", "init-dst"),
		Target: mockEnd(t, "init-dst", "init-src"),
	}
	require.NoError(t, lc.Init(modules))

	lane, err := core.ParseLaneID("00000011")
	require.NoError(t, err)
	assert.Equal(t, lane, lc.LaneID())
	require.NotNil(t, lc.SourceClient())
	require.NotNil(t, lc.TargetClient())
	assert.Equal(t, "init-src", lc.SourceClient().ChainID())
	assert.Equal(t, "init-dst", lc.TargetClient().ChainID())

	// the clients come wrapped in tracing decorators; unwrap reaches the
	// underlying mock clients
	source, err := coreutil.UnwrapSourceClient[*mock.SourceClient](lc.SourceClient())
	require.NoError(t, err)
	assert.Equal(t, "init-src", source.ChainID())
	target, err := coreutil.UnwrapTargetClient[*mock.TargetClient](lc.TargetClient())
	require.NoError(t, err)
	assert.Equal(t, "init-dst", target.ChainID())

	// both ends resolve to the same linked pair
	src, err := mock.FindChain("init-src")
	require.NoError(t, err)
	dst, err := mock.FindChain("init-dst")
	require.NoError(t, err)
	require.NotNil(t, src)
	require.NotNil(t, dst)
}

func TestLaneConfigInitRejectsBadLaneID(t *testing.T) {
	mock.ResetChains()
	lc := &config.LaneConfig{
		ID:     "not-hex",
		Source: mockEnd(t, "bad-src", "bad-dst"),
		Target: mockEnd(t, "bad-dst", "bad-src"),
	}
	require.Error(t, lc.Init(modules))
}

func TestUnmarshalChainEndUnknownType(t *testing.T) {
	_, err := config.UnmarshalChainEnd(modules, json.RawMessage(`{"type":"unknown"}`))
	require.Error(t, err)
}

func TestUnmarshalChainEndInvalidConfig(t *testing.T) {
	// missing peer_chain_id fails validation
	_, err := config.UnmarshalChainEnd(modules, json.RawMessage(`{"type":"mock","chain_id":"solo"}`))
	require.Error(t, err)
}

func TestServiceOptions(t *testing.T) {
	lc := &config.LaneConfig{
		Strategy:                    core.StrategyCfg{Type: "rational"},
		MaxMessagesInBatch:          8,
		MaxWeightInBatch:            100,
		MaxSizeInBatch:              200,
		RelayInterval:               "500ms",
		StallTimeout:                "2m",
		MaxUnrewardedRelayerEntries: 16,
		MaxUnconfirmedMessages:      1024,
	}
	opts, err := lc.ServiceOptions()
	require.NoError(t, err)
	assert.Equal(t, "rational", opts.Strategy.GetType())
	assert.Equal(t, uint64(8), opts.Limits.MaxMessagesInBatch)
	assert.Equal(t, uint64(100), opts.Limits.MaxWeightInBatch)
	assert.Equal(t, uint64(200), opts.Limits.MaxSizeInBatch)
	assert.Equal(t, 500*time.Millisecond, opts.RelayInterval)
	assert.Equal(t, 2*time.Minute, opts.StallTimeout)
	assert.Equal(t, uint64(16), opts.Thresholds.MaxUnrewardedRelayerEntries)
	assert.Equal(t, uint64(1024), opts.Thresholds.MaxUnconfirmedMessages)
}

func TestServiceOptionsInvalidDuration(t *testing.T) {
	lc := &config.LaneConfig{RelayInterval: "soon"}
	_, err := lc.ServiceOptions()
	require.Error(t, err)

	lc = &config.LaneConfig{StallTimeout: "later"}
	_, err = lc.ServiceOptions()
	require.Error(t, err)
}

func TestConfigSaveAndLoad(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, config.CreateConfig(configPath))
	// creating twice fails
	require.Error(t, config.CreateConfig(configPath))

	cfg, err := config.LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, "10s", cfg.Global.Timeout)

	require.NoError(t, cfg.AddLane(&config.LaneConfig{
		ID:     "00000022",
		Source: mockEnd(t, "file-src", "file-dst"),
		Target: mockEnd(t, "file-dst", "file-src"),
	}))
	require.Error(t, cfg.AddLane(&config.LaneConfig{ID: "00000022"}))
	require.NoError(t, cfg.Save())

	reloaded, err := config.LoadConfig(configPath)
	require.NoError(t, err)
	lc, err := reloaded.GetLane("00000022")
	require.NoError(t, err)
	assert.Equal(t, "00000022", lc.ID)

	_, err = reloaded.GetLane("ffffffff")
	require.Error(t, err)
}
