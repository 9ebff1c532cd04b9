package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bridgelabs/lane-relayer/config"
	"github.com/bridgelabs/lane-relayer/core"
	"github.com/bridgelabs/lane-relayer/internal/telemetry"
	"github.com/bridgelabs/lane-relayer/log"
)

func serviceCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Relay Service Commands",
		Long:  "Commands to manage the relay service",
		RunE:  noCommand,
	}
	cmd.AddCommand(
		startCmd(ctx),
	)
	return cmd
}

func startCmd(ctx *config.Context) *cobra.Command {
	const (
		flagRelayInterval  = "relay-interval"
		flagStallTimeout   = "stall-timeout"
		flagPrometheusAddr = "prometheus-addr"
	)

	cmd := &cobra.Command{
		Use:   "start [lane-id]",
		Short: "Starts the relay service on a lane",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr := viper.GetString(flagPrometheusAddr); addr != "" {
				host, port, err := net.SplitHostPort(addr)
				if err != nil {
					return fmt.Errorf("invalid prometheus address %q: %v", addr, err)
				}
				os.Setenv("OTEL_EXPORTER_PROMETHEUS_HOST", host)
				os.Setenv("OTEL_EXPORTER_PROMETHEUS_PORT", port)
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			shutdown, err := telemetry.SetupOTelSDK(runCtx)
			if err != nil {
				return fmt.Errorf("failed to set up the telemetry SDK: %v", err)
			}
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					log.GetLogger().Error("failed to shutdown the telemetry SDK", err)
				}
			}()
			if err := telemetry.InitializeMetrics(); err != nil {
				return fmt.Errorf("failed to initialize metrics: %v", err)
			}

			lc, err := ctx.Config.GetLane(args[0])
			if err != nil {
				return err
			}
			opts, err := lc.ServiceOptions()
			if err != nil {
				return err
			}
			if d := viper.GetDuration(flagRelayInterval); d > 0 {
				opts.RelayInterval = d
			}
			if d := viper.GetDuration(flagStallTimeout); d > 0 {
				opts.StallTimeout = d
			}

			return core.StartService(runCtx, lc.LaneID(), lc.SourceClient(), lc.TargetClient(), opts)
		},
	}
	cmd.Flags().Duration(flagRelayInterval, 0, "time interval between relay iterations; overrides the lane config")
	cmd.Flags().Duration(flagStallTimeout, 0, "time after which an unconfirmed submission is re-selected; overrides the lane config")
	cmd.Flags().String(flagPrometheusAddr, "", "host:port the prometheus exporter listens on")
	for _, name := range []string{flagRelayInterval, flagStallTimeout, flagPrometheusAddr} {
		if err := viper.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			panic(err)
		}
	}
	return cmd
}
