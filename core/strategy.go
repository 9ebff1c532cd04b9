package core

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/bridgelabs/lane-relayer/log"
)

// RelayReference carries everything a strategy needs to decide how many
// messages of the candidate window to deliver in one transaction.
type RelayReference struct {
	Lane    LaneID
	Source  SourceClient
	Target  TargetClient
	Details map[MessageNonce]MessageDetails
	// Nonces is the candidate window: the first undelivered nonce up to
	// the newest provable one.
	Nonces NonceRange
	Limits BatchLimits
	Logger *log.RelayLogger
}

// RelayStrategy decides the inclusive upper bound of the nonce range to
// deliver next. A result below ref.Nonces.Begin means "deliver nothing".
type RelayStrategy interface {
	GetType() string
	Decide(ctx context.Context, ref *RelayReference) (MessageNonce, error)
}

// StrategyCfg selects and configures the relay strategy of a lane.
type StrategyCfg struct {
	Type string `json:"type" yaml:"type"`
}

// GetStrategy returns the relay strategy for the given config.
func GetStrategy(cfg StrategyCfg) (RelayStrategy, error) {
	switch cfg.Type {
	case "basic", "":
		return &BasicStrategy{}, nil
	case "rational":
		return &RationalStrategy{}, nil
	default:
		return nil, errors.Errorf("unknown relay strategy: %s", cfg.Type)
	}
}

// BatchLimits are the per-transaction ceilings of a lane.
type BatchLimits struct {
	MaxMessagesInBatch uint64
	MaxWeightInBatch   uint64
	MaxSizeInBatch     uint64
}

// decide returns how many messages of the window fit under the ceilings.
// A first message that alone exceeds the weight or size ceiling is still
// selected, otherwise the lane would be stuck forever.
func (limits BatchLimits) decide(ref *RelayReference) uint64 {
	var count, weight, size uint64
	for nonce := ref.Nonces.Begin; nonce <= ref.Nonces.End; nonce++ {
		details, ok := ref.Details[nonce]
		if !ok {
			break
		}
		if count+1 > limits.MaxMessagesInBatch {
			break
		}
		newWeight := weight + details.DispatchWeight
		newSize := size + uint64(details.Size)
		if newWeight > limits.MaxWeightInBatch || newSize > limits.MaxSizeInBatch {
			if count == 0 {
				ref.Logger.Warn(
					"message exceeds the batch limits on its own, submitting it alone",
					"nonce", nonce,
					"dispatch weight", details.DispatchWeight,
					"size", details.Size,
				)
				count = 1
			}
			break
		}
		count++
		weight = newWeight
		size = newSize
	}
	return count
}
