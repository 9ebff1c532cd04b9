package core

import (
	"context"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bridgelabs/lane-relayer/log"
)

func TestGetStrategy(t *testing.T) {
	st, err := GetStrategy(StrategyCfg{Type: "basic"})
	require.NoError(t, err)
	assert.Equal(t, "basic", st.GetType())

	st, err = GetStrategy(StrategyCfg{Type: "rational"})
	require.NoError(t, err)
	assert.Equal(t, "rational", st.GetType())

	// basic is the default
	st, err = GetStrategy(StrategyCfg{})
	require.NoError(t, err)
	assert.Equal(t, "basic", st.GetType())

	_, err = GetStrategy(StrategyCfg{Type: "greedy"})
	require.Error(t, err)
}

func newRef(details map[MessageNonce]MessageDetails, begin, end MessageNonce, limits BatchLimits) *RelayReference {
	return &RelayReference{
		Source:  &stubSource{details: details, confirmationCost: math.NewInt(0)},
		Target:  &stubTarget{},
		Details: details,
		Nonces:  NewNonceRange(begin, end),
		Limits:  limits,
		Logger:  log.GetLogger(),
	}
}

func TestBatchLimitsDecide(t *testing.T) {
	details := map[MessageNonce]MessageDetails{
		1: {DispatchWeight: 10, Size: 10, Reward: math.NewInt(0)},
		2: {DispatchWeight: 10, Size: 10, Reward: math.NewInt(0)},
		3: {DispatchWeight: 10, Size: 10, Reward: math.NewInt(0)},
		4: {DispatchWeight: 10, Size: 10, Reward: math.NewInt(0)},
	}

	// message count ceiling
	ref := newRef(details, 1, 4, BatchLimits{MaxMessagesInBatch: 2, MaxWeightInBatch: 1000, MaxSizeInBatch: 1000})
	assert.Equal(t, uint64(2), ref.Limits.decide(ref))

	// weight ceiling
	ref = newRef(details, 1, 4, BatchLimits{MaxMessagesInBatch: 10, MaxWeightInBatch: 25, MaxSizeInBatch: 1000})
	assert.Equal(t, uint64(2), ref.Limits.decide(ref))

	// size ceiling
	ref = newRef(details, 1, 4, BatchLimits{MaxMessagesInBatch: 10, MaxWeightInBatch: 1000, MaxSizeInBatch: 35})
	assert.Equal(t, uint64(3), ref.Limits.decide(ref))

	// unknown details end the scan
	ref = newRef(details, 1, 6, BatchLimits{MaxMessagesInBatch: 10, MaxWeightInBatch: 1000, MaxSizeInBatch: 1000})
	assert.Equal(t, uint64(4), ref.Limits.decide(ref))
}

// A message that alone exceeds the weight or size ceiling is still
// selected, alone, so the lane cannot get stuck on it.
func TestBatchLimitsOversizedMessageGoesAlone(t *testing.T) {
	details := map[MessageNonce]MessageDetails{
		1: {DispatchWeight: 500, Size: 10, Reward: math.NewInt(0)},
		2: {DispatchWeight: 10, Size: 10, Reward: math.NewInt(0)},
	}
	ref := newRef(details, 1, 2, BatchLimits{MaxMessagesInBatch: 10, MaxWeightInBatch: 100, MaxSizeInBatch: 1000})
	assert.Equal(t, uint64(1), ref.Limits.decide(ref))

	// same for the size ceiling
	details = map[MessageNonce]MessageDetails{
		1: {DispatchWeight: 10, Size: 500, Reward: math.NewInt(0)},
		2: {DispatchWeight: 10, Size: 10, Reward: math.NewInt(0)},
	}
	ref = newRef(details, 1, 2, BatchLimits{MaxMessagesInBatch: 10, MaxWeightInBatch: 1000, MaxSizeInBatch: 100})
	assert.Equal(t, uint64(1), ref.Limits.decide(ref))
}

func TestBasicStrategyDecide(t *testing.T) {
	details := testDetails(3, 8)
	ref := newRef(details, 3, 8, BatchLimits{MaxMessagesInBatch: 4, MaxWeightInBatch: 1000, MaxSizeInBatch: 1000})

	st := &BasicStrategy{}
	maxNonce, err := st.Decide(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, MessageNonce(6), maxNonce)

	// nothing deliverable
	ref = newRef(map[MessageNonce]MessageDetails{}, 3, 8, BatchLimits{MaxMessagesInBatch: 4, MaxWeightInBatch: 1000, MaxSizeInBatch: 1000})
	maxNonce, err = st.Decide(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, MessageNonce(0), maxNonce)
}

func newRationalRef(details map[MessageNonce]MessageDetails, begin, end MessageNonce, confirmationCost, deliveryPerMessage int64) *RelayReference {
	return &RelayReference{
		Source:  &stubSource{details: details, confirmationCost: math.NewInt(confirmationCost)},
		Target:  &stubTarget{deliveryPerMessage: deliveryPerMessage},
		Details: details,
		Nonces:  NewNonceRange(begin, end),
		Limits:  BatchLimits{MaxMessagesInBatch: 100, MaxWeightInBatch: 1 << 20, MaxSizeInBatch: 1 << 20},
		Logger:  log.GetLogger(),
	}
}

func TestRationalStrategyProfitablePrefix(t *testing.T) {
	details := map[MessageNonce]MessageDetails{
		1: {DispatchWeight: 1, Size: 1, Reward: math.NewInt(20)},
		2: {DispatchWeight: 1, Size: 1, Reward: math.NewInt(20)},
		3: {DispatchWeight: 1, Size: 1, Reward: math.NewInt(1)},
	}
	// cumulative cost of prefix k: 5 + 10k
	// rewards: 20 >= 15, 40 >= 25, 41 >= 35
	ref := newRationalRef(details, 1, 3, 5, 10)
	st := &RationalStrategy{}
	maxNonce, err := st.Decide(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, MessageNonce(3), maxNonce)
}

// A low-reward message in the middle must not end the scan: a later
// message can carry the whole prefix back into profit.
func TestRationalStrategyLooksPastDips(t *testing.T) {
	details := map[MessageNonce]MessageDetails{
		1: {DispatchWeight: 1, Size: 1, Reward: math.NewInt(20)},
		2: {DispatchWeight: 1, Size: 1, Reward: math.NewInt(0)},
		3: {DispatchWeight: 1, Size: 1, Reward: math.NewInt(30)},
	}
	// cumulative cost of prefix k: 5 + 10k
	// prefix 1: 20 >= 15 profitable
	// prefix 2: 20 <  25 unprofitable dip
	// prefix 3: 50 >= 35 profitable again
	ref := newRationalRef(details, 1, 3, 5, 10)
	st := &RationalStrategy{}
	maxNonce, err := st.Decide(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, MessageNonce(3), maxNonce)
}

func TestRationalStrategyDipAtTheEndIsExcluded(t *testing.T) {
	details := map[MessageNonce]MessageDetails{
		1: {DispatchWeight: 1, Size: 1, Reward: math.NewInt(20)},
		2: {DispatchWeight: 1, Size: 1, Reward: math.NewInt(0)},
	}
	ref := newRationalRef(details, 1, 2, 5, 10)
	st := &RationalStrategy{}
	maxNonce, err := st.Decide(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, MessageNonce(1), maxNonce)
}

func TestRationalStrategyNothingProfitable(t *testing.T) {
	details := map[MessageNonce]MessageDetails{
		1: {DispatchWeight: 1, Size: 1, Reward: math.NewInt(1)},
		2: {DispatchWeight: 1, Size: 1, Reward: math.NewInt(1)},
	}
	ref := newRationalRef(details, 1, 2, 5, 10)
	st := &RationalStrategy{}
	maxNonce, err := st.Decide(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, MessageNonce(0), maxNonce)
}

func TestRationalStrategyBoundedByBatchLimits(t *testing.T) {
	details := map[MessageNonce]MessageDetails{
		1: {DispatchWeight: 1, Size: 1, Reward: math.NewInt(100)},
		2: {DispatchWeight: 1, Size: 1, Reward: math.NewInt(100)},
		3: {DispatchWeight: 1, Size: 1, Reward: math.NewInt(100)},
	}
	ref := newRationalRef(details, 1, 3, 5, 10)
	ref.Limits = BatchLimits{MaxMessagesInBatch: 2, MaxWeightInBatch: 1 << 20, MaxSizeInBatch: 1 << 20}
	st := &RationalStrategy{}
	maxNonce, err := st.Decide(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, MessageNonce(2), maxNonce)
}
