package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bridgelabs/lane-relayer/config"
)

const (
	appName        = "lane-relayer"
	configFileName = "config.json"

	flagHome = "home"
)

func defaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + appName
	}
	return filepath.Join(home, "."+appName)
}

// Execute builds the command tree for the given modules and runs it.
func Execute(modules ...config.ModuleI) error {
	cobra.EnableCommandSorting = false

	ctx := &config.Context{Modules: modules}
	rootCmd := &cobra.Command{
		Use:          appName,
		Short:        "This application relays messages between the configured chains",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String(flagHome, defaultHome(), "set home directory")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return initConfig(ctx, cmd)
	}

	rootCmd.AddCommand(
		configCmd(ctx),
		modulesCmd(ctx),
		serviceCmd(ctx),
		queryCmd(ctx),
	)
	for _, m := range modules {
		if cmd := m.GetCmd(ctx); cmd != nil {
			rootCmd.AddCommand(cmd)
		}
	}

	return rootCmd.Execute()
}

func noCommand(cmd *cobra.Command, args []string) error {
	return cmd.Help()
}
