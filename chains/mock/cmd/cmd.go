package cmd

import (
	"fmt"

	"cosmossdk.io/math"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/bridgelabs/lane-relayer/chains/mock"
	"github.com/bridgelabs/lane-relayer/config"
	"github.com/bridgelabs/lane-relayer/core"
)

const (
	flagReward  = "reward"
	flagWeight  = "weight"
	flagSize    = "size"
	flagCount   = "count"
	flagPrepaid = "prepaid"
)

// MockCmd returns the mock chain dev commands.
func MockCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mock",
		Short: "manage mock chains",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(
		sendCmd(ctx),
		lanesCmd(ctx),
	)
	return cmd
}

// sendCmd queues messages on the outbound lane of a mock chain, which is
// the mock stand-in for user transactions.
func sendCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send [chain-id] [lane-id]",
		Short: "queue messages on a mock chain's outbound lane",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			chain, err := mock.FindChain(args[0])
			if err != nil {
				return err
			}
			lane, err := core.ParseLaneID(args[1])
			if err != nil {
				return err
			}
			details := core.MessageDetails{
				DispatchWeight: viper.GetUint64(flagWeight),
				Size:           uint32(viper.GetUint64(flagSize)),
				Reward:         math.NewInt(viper.GetInt64(flagReward)),
			}
			if viper.GetBool(flagPrepaid) {
				details.DispatchFeePayment = core.DispatchFeeAtSourceChain
			} else {
				details.DispatchFeePayment = core.DispatchFeeAtTargetChain
			}
			count := viper.GetUint64(flagCount)
			for i := uint64(0); i < count; i++ {
				nonce, err := chain.SendMessage(lane, details)
				if err != nil {
					return err
				}
				fmt.Printf("message queued: chain=%s lane=%s nonce=%d\n", args[0], lane.String(), nonce)
			}
			return nil
		},
	}
	cmd.Flags().Int64(flagReward, 100, "reward paid by the sender, in source tokens")
	cmd.Flags().Uint64(flagWeight, 1, "dispatch weight of each message")
	cmd.Flags().Uint64(flagSize, 1, "payload size of each message in bytes")
	cmd.Flags().Uint64(flagCount, 1, "number of messages to queue")
	cmd.Flags().Bool(flagPrepaid, false, "pay the dispatch fee at the source chain")
	for _, name := range []string{flagReward, flagWeight, flagSize, flagCount, flagPrepaid} {
		if err := viper.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			panic(err)
		}
	}
	return cmd
}

func lanesCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lanes [chain-id] [lane-id]",
		Short: "show the lane state of a mock chain",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			chain, err := mock.FindChain(args[0])
			if err != nil {
				return err
			}
			lane, err := core.ParseLaneID(args[1])
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(map[string]interface{}{
				"outbound": chain.OutboundLaneData(lane),
				"inbound":  chain.InboundLaneData(lane),
			})
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		},
	}
	return cmd
}
