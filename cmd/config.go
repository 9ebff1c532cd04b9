package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bridgelabs/lane-relayer/config"
	"github.com/bridgelabs/lane-relayer/log"
)

func configCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Aliases: []string{"cfg"},
		Short:   "manage configuration file",
		RunE:    noCommand,
	}

	cmd.AddCommand(
		configShowCmd(ctx),
		configInitCmd(ctx),
	)

	return cmd
}

// Command for initializing an empty config at the --home location
func configInitCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "init",
		Aliases: []string{"i"},
		Short:   "Creates a default home directory at path defined by --home",
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.CreateConfig(ctx.Config.ConfigPath)
		},
	}
	return cmd
}

// Command for printing current configuration
func configShowCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "show",
		Aliases: []string{"s", "list", "l"},
		Short:   "Prints current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(ctx.Config.ConfigPath); os.IsNotExist(err) {
				return fmt.Errorf("config does not exist: %s", ctx.Config.ConfigPath)
			}
			out, err := json.MarshalIndent(ctx.Config, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	return cmd
}

// initConfig reads in the config file and initializes the logger and the
// configured lanes before each command.
func initConfig(ctx *config.Context, cmd *cobra.Command) error {
	home, err := cmd.Flags().GetString(flagHome)
	if err != nil {
		return err
	}
	cfgPath := filepath.Join(home, configFileName)
	if _, err := os.Stat(cfgPath); err == nil {
		cfg, err := config.LoadConfig(cfgPath)
		if err != nil {
			return err
		}
		ctx.Config = cfg
	} else {
		cfg := config.DefaultConfig(cfgPath)
		ctx.Config = &cfg
	}

	logCfg := ctx.Config.Global.Logger
	if err := log.InitLogger(logCfg.Level, logCfg.Format, logCfg.Output, logCfg.EnableOtel); err != nil {
		return err
	}

	if err := config.InitLanes(ctx); err != nil {
		return err
	}
	return nil
}
