package config

import (
	"github.com/spf13/cobra"
)

// ModuleI defines an interface of a chain backend module.
type ModuleI interface {
	// Name returns the name of the module. It doubles as the "type" tag
	// that selects the module when decoding a chain end config.
	Name() string

	// NewChainEndConfig returns an empty config for this module's chain
	// ends, ready to be unmarshaled into.
	NewChainEndConfig() ChainEndConfig

	// GetCmd returns the module's command, or nil if it has none.
	GetCmd(ctx *Context) *cobra.Command
}
