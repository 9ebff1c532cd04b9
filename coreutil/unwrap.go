package coreutil

import (
	"fmt"

	"github.com/bridgelabs/lane-relayer/core"
	"github.com/bridgelabs/lane-relayer/otelcore"
)

// UnwrapSourceClient finds the first client in the decorator chain that
// matches the specified type argument.
//
// In the following example, UnwrapSourceClient returns the *mock.SourceClient
// wrapped by the tracing decorator:
//
//	client, err := coreutil.UnwrapSourceClient[*mock.SourceClient](laneConfig.SourceClient())
func UnwrapSourceClient[C core.SourceClient](c core.SourceClient) (C, error) {
	client := c
	for {
		switch unwrapped := client.(type) {
		case *otelcore.SourceClient:
			client = unwrapped.SourceClient
		case C:
			return unwrapped, nil
		default:
			var zero C
			return zero, fmt.Errorf("failed to unwrap source client: expected=%T, actual=%T", zero, unwrapped)
		}
	}
}

// UnwrapTargetClient finds the first client in the decorator chain that
// matches the specified type argument.
func UnwrapTargetClient[C core.TargetClient](c core.TargetClient) (C, error) {
	client := c
	for {
		switch unwrapped := client.(type) {
		case *otelcore.TargetClient:
			client = unwrapped.TargetClient
		case C:
			return unwrapped, nil
		default:
			var zero C
			return zero, fmt.Errorf("failed to unwrap target client: expected=%T, actual=%T", zero, unwrapped)
		}
	}
}
