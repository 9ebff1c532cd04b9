package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/bridgelabs/lane-relayer/config"
)

const flagJSON = "json"

func queryCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "query",
		Aliases: []string{"q"},
		Short:   "Query lane state",
		RunE:    noCommand,
	}

	cmd.AddCommand(
		queryNoncesCmd(ctx),
		queryUnrewardedCmd(ctx),
	)

	return cmd
}

// laneNoncesReport is the combined nonce view of both ends of a lane.
type laneNoncesReport struct {
	LaneID                 string `json:"lane_id" yaml:"lane-id"`
	SourceChainID          string `json:"source_chain_id" yaml:"source-chain-id"`
	TargetChainID          string `json:"target_chain_id" yaml:"target-chain-id"`
	LatestGeneratedNonce   uint64 `json:"latest_generated_nonce" yaml:"latest-generated-nonce"`
	LatestReceivedNonce    uint64 `json:"latest_received_nonce" yaml:"latest-received-nonce"`
	ConfirmedAtSourceNonce uint64 `json:"confirmed_at_source_nonce" yaml:"confirmed-at-source-nonce"`
	ConfirmedAtTargetNonce uint64 `json:"confirmed_at_target_nonce" yaml:"confirmed-at-target-nonce"`
	UndeliveredMessages    uint64 `json:"undelivered_messages" yaml:"undelivered-messages"`
	UnconfirmedDeliveries  uint64 `json:"unconfirmed_deliveries" yaml:"unconfirmed-deliveries"`
}

func queryNoncesCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nonces [lane-id]",
		Short: "Queries the nonce counters of both ends of a lane",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lc, err := ctx.Config.GetLane(args[0])
			if err != nil {
				return err
			}
			source, target := lc.SourceClient(), lc.TargetClient()

			srcState, err := source.State(cmd.Context())
			if err != nil {
				return err
			}
			_, generated, err := source.LatestGeneratedNonce(cmd.Context(), srcState.BestFinalizedHeader)
			if err != nil {
				return err
			}
			_, confirmedAtSource, err := source.LatestConfirmedReceivedNonce(cmd.Context(), srcState.BestFinalizedHeader)
			if err != nil {
				return err
			}

			tgtState, err := target.State(cmd.Context())
			if err != nil {
				return err
			}
			_, received, err := target.LatestReceivedNonce(cmd.Context(), tgtState.BestHeader)
			if err != nil {
				return err
			}
			_, confirmedAtTarget, err := target.LatestConfirmedReceivedNonce(cmd.Context(), tgtState.BestHeader)
			if err != nil {
				return err
			}

			report := laneNoncesReport{
				LaneID:                 lc.ID,
				SourceChainID:          source.ChainID(),
				TargetChainID:          target.ChainID(),
				LatestGeneratedNonce:   generated,
				LatestReceivedNonce:    received,
				ConfirmedAtSourceNonce: confirmedAtSource,
				ConfirmedAtTargetNonce: confirmedAtTarget,
				UndeliveredMessages:    generated - received,
				UnconfirmedDeliveries:  received - confirmedAtSource,
			}
			return printOutput(report)
		},
	}
	return jsonFlag(cmd)
}

func queryUnrewardedCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unrewarded [lane-id]",
		Short: "Queries the unrewarded-relayers state at the target end of a lane",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lc, err := ctx.Config.GetLane(args[0])
			if err != nil {
				return err
			}
			target := lc.TargetClient()
			state, err := target.State(cmd.Context())
			if err != nil {
				return err
			}
			relayers, err := target.UnrewardedRelayersState(cmd.Context(), state.BestHeader)
			if err != nil {
				return err
			}
			return printOutput(relayers)
		},
	}
	return jsonFlag(cmd)
}

func jsonFlag(cmd *cobra.Command) *cobra.Command {
	cmd.Flags().BoolP(flagJSON, "j", false, "returns the response in json format")
	if err := viper.BindPFlag(flagJSON, cmd.Flags().Lookup(flagJSON)); err != nil {
		panic(err)
	}
	return cmd
}

func printOutput(v interface{}) error {
	var (
		out []byte
		err error
	)
	if viper.GetBool(flagJSON) {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = yaml.Marshal(v)
	}
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
