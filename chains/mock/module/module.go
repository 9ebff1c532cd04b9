package module

import (
	"github.com/spf13/cobra"

	"github.com/bridgelabs/lane-relayer/chains/mock"
	"github.com/bridgelabs/lane-relayer/chains/mock/cmd"
	"github.com/bridgelabs/lane-relayer/config"
)

type Module struct{}

var _ config.ModuleI = (*Module)(nil)

// Name returns the name of the module
func (Module) Name() string {
	return "mock"
}

// NewChainEndConfig returns an empty mock chain end config.
func (Module) NewChainEndConfig() config.ChainEndConfig {
	return &mock.ChainEndConfig{}
}

// GetCmd returns the command
func (Module) GetCmd(ctx *config.Context) *cobra.Command {
	return cmd.MockCmd(ctx)
}
