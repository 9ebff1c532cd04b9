package core_test

import (
	"context"
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bridgelabs/lane-relayer/chains/mock"
	"github.com/bridgelabs/lane-relayer/core"
)

func e2eLane(t *testing.T) core.LaneID {
	t.Helper()
	lane, err := core.ParseLaneID("000000aa")
	if err != nil {
		t.Fatal(err)
	}
	return lane
}

func e2eOptions() core.ServiceOptions {
	return core.ServiceOptions{
		Strategy: &core.BasicStrategy{},
		Limits: core.BatchLimits{
			MaxMessagesInBatch: 100,
			MaxWeightInBatch:   1 << 20,
			MaxSizeInBatch:     1 << 20,
		},
		Thresholds: core.ConfirmationThresholds{
			MaxUnrewardedRelayerEntries: 16,
			MaxUnconfirmedMessages:      1024,
		},
		RelayInterval: 10 * time.Millisecond,
		StallTimeout:  time.Minute,
	}
}

func sendMessages(t *testing.T, chain *mock.Chain, lane core.LaneID, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		_, err := chain.SendMessage(lane, core.MessageDetails{
			DispatchWeight: 1,
			Size:           1,
			Reward:         math.NewInt(100),
		})
		require.NoError(t, err)
	}
}

// Messages sent on the source end up received on the target, confirmed
// back to the source, and rewarded to the relayer.
func TestRelayServiceDeliversAndConfirms(t *testing.T) {
	lane := e2eLane(t)
	src, dst := mock.NewLinkedPair("e2e-src", "e2e-dst", mock.DefaultChainParams())
	source := mock.NewSourceClient(src, lane)
	target := mock.NewTargetClient(dst, lane, "relayer-1")

	sendMessages(t, src, lane, 3)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- core.StartService(ctx, lane, source, target, e2eOptions())
	}()

	require.Eventually(t, func() bool {
		return dst.InboundLaneData(lane).LatestReceivedNonce == 3
	}, 10*time.Second, 10*time.Millisecond, "messages were not delivered")

	require.Eventually(t, func() bool {
		return src.OutboundLaneData(lane).LatestReceivedNonce == 3
	}, 10*time.Second, 10*time.Millisecond, "deliveries were not confirmed at the source")

	// The next delivery carries the source's outbound state, which lets
	// the target settle the relayer's reward for the first batch.
	sendMessages(t, src, lane, 1)

	require.Eventually(t, func() bool {
		return dst.InboundLaneData(lane).LatestReceivedNonce == 4 &&
			dst.RelayerReward("relayer-1") == 3
	}, 10*time.Second, 10*time.Millisecond, "relayer was not rewarded")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("service did not stop after context cancellation")
	}
}

// A short target outage is absorbed by retries and delivery resumes once
// the chain is reachable again.
func TestRelayServiceRecoversFromOutage(t *testing.T) {
	lane := e2eLane(t)
	src, dst := mock.NewLinkedPair("outage-src", "outage-dst", mock.DefaultChainParams())
	source := mock.NewSourceClient(src, lane)
	target := mock.NewTargetClient(dst, lane, "relayer-1")

	sendMessages(t, src, lane, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- core.StartService(ctx, lane, source, target, e2eOptions())
	}()

	require.Eventually(t, func() bool {
		return dst.InboundLaneData(lane).LatestReceivedNonce == 1
	}, 10*time.Second, 10*time.Millisecond)

	dst.SetDown(true)
	sendMessages(t, src, lane, 2)
	time.Sleep(50 * time.Millisecond)
	dst.SetDown(false)

	require.Eventually(t, func() bool {
		return dst.InboundLaneData(lane).LatestReceivedNonce == 3
	}, 30*time.Second, 10*time.Millisecond, "delivery did not resume after the outage")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("service did not stop after context cancellation")
	}
}

// With the rational strategy an unprofitable message stays queued until
// later messages make the batch profitable as a whole.
func TestRelayServiceRationalStrategyWaitsForProfit(t *testing.T) {
	lane := e2eLane(t)
	params := mock.DefaultChainParams()
	src, dst := mock.NewLinkedPair("rational-src", "rational-dst", params)
	source := mock.NewSourceClient(src, lane)
	target := mock.NewTargetClient(dst, lane, "relayer-1")

	// cost of delivering one message: confirmation 10 + base 10 + 1
	// each for message, weight and byte = 23; reward 1 never covers it
	_, err := src.SendMessage(lane, core.MessageDetails{
		DispatchWeight: 1,
		Size:           1,
		Reward:         math.NewInt(1),
	})
	require.NoError(t, err)

	opts := e2eOptions()
	opts.Strategy = &core.RationalStrategy{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- core.StartService(ctx, lane, source, target, opts)
	}()

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, core.MessageNonce(0), dst.InboundLaneData(lane).LatestReceivedNonce,
		"unprofitable message must not be delivered")

	// a high-reward message carries the whole batch into profit
	_, err = src.SendMessage(lane, core.MessageDetails{
		DispatchWeight: 1,
		Size:           1,
		Reward:         math.NewInt(1000),
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return dst.InboundLaneData(lane).LatestReceivedNonce == 2
	}, 10*time.Second, 10*time.Millisecond, "profitable batch was not delivered")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("service did not stop after context cancellation")
	}
}
