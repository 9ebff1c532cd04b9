package core

import "context"

// BasicStrategy delivers every provable message, bounded only by the
// per-transaction batch limits. It never inspects rewards or costs.
type BasicStrategy struct{}

var _ RelayStrategy = (*BasicStrategy)(nil)

func (*BasicStrategy) GetType() string {
	return "basic"
}

func (*BasicStrategy) Decide(ctx context.Context, ref *RelayReference) (MessageNonce, error) {
	count := ref.Limits.decide(ref)
	if count == 0 {
		return 0, nil
	}
	return ref.Nonces.Begin + count - 1, nil
}
