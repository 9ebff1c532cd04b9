package core

import (
	"context"

	"cosmossdk.io/math"
)

// RationalStrategy delivers the longest prefix of the candidate window
// whose cumulative reward covers the cumulative cost of delivering and
// confirming it, additionally bounded by the batch limits.
//
// The scan does not stop at the first unprofitable prefix: a low-reward
// message may be followed by ones profitable enough to carry it, so the
// whole window is evaluated and the longest profitable prefix wins.
type RationalStrategy struct{}

var _ RelayStrategy = (*RationalStrategy)(nil)

func (*RationalStrategy) GetType() string {
	return "rational"
}

func (*RationalStrategy) Decide(ctx context.Context, ref *RelayReference) (MessageNonce, error) {
	hardLimit := ref.Limits.decide(ref)
	if hardLimit == 0 {
		return 0, nil
	}

	// The confirmation transaction on the source is paid once for the
	// whole batch, so it is part of the cost of every prefix.
	confirmationCost, err := ref.Source.EstimateConfirmationTransaction(ctx)
	if err != nil {
		return 0, err
	}

	var (
		softLimit     uint64
		count         uint64
		totalReward   = math.ZeroInt()
		prepaidNonces uint64
		unpaidWeight  uint64
		totalSize     uint32
	)
	for nonce := ref.Nonces.Begin; nonce <= ref.Nonces.End; nonce++ {
		details, ok := ref.Details[nonce]
		if !ok {
			break
		}
		count++
		totalReward = totalReward.Add(details.Reward)
		totalSize += details.Size
		if details.DispatchFeePayment == DispatchFeeAtSourceChain {
			// The sender already paid dispatch at the source, so the
			// relayer fronts the dispatch weight at the target.
			prepaidNonces++
			unpaidWeight += details.DispatchWeight
		}

		deliveryCost, err := ref.Target.EstimateDeliveryTransactionInSourceTokens(
			ctx,
			NewNonceRange(ref.Nonces.Begin, nonce),
			prepaidNonces,
			unpaidWeight,
			totalSize,
		)
		if err != nil {
			return 0, markTargetOrigin(err)
		}
		if totalReward.GTE(confirmationCost.Add(deliveryCost)) {
			softLimit = count
		}
	}

	selected := min(hardLimit, softLimit)
	if selected == 0 {
		return 0, nil
	}
	return ref.Nonces.Begin + selected - 1, nil
}
