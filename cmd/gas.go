package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pr1mer-tech/hammy/gas"
	"github.com/pr1mer-tech/hammy/types"
	"github.com/pr1mer-tech/hammy/utils"
	"github.com/spf13/cobra"
)

type gasView struct {
	Success  bool     `json:"success"`
	Error    string   `json:"error,omitempty"`
	GasUsed  uint64   `json:"gas_used,omitempty"`
	GasLimit uint64   `json:"gas_limit,omitempty"`
	GasPrice string   `json:"gas_price,omitempty"`
	Cost     string   `json:"cost,omitempty"`
	Amounts  []string `json:"amounts,omitempty"`
}

func newGasCmd() *cobra.Command {
	var (
		from, to, data, value string
		gasLimit              uint64
	)
	cmd := &cobra.Command{
		Use:   "gas",
		Short: "Simulate a transaction and estimate its cost",
		Long: `Dry-run a transaction with eth_call against the latest block. When it
succeeds, the gas limit (with the configured buffer) and the cost in the
native asset are printed. --gas-limit skips the estimate and prices the
given limit as is. A revert is reported with its decoded reason.`,
		Example: `  hammy gas --from 0x... --to 0x... --data 0x38ed1739...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			tx := &types.TxRequest{Method: "call"}
			if tx.From, err = parseAddress("from", from); err != nil {
				return err
			}
			if tx.To, err = parseAddress("to", to); err != nil {
				return err
			}
			if data != "" {
				if tx.Data, err = hexutil.Decode(data); err != nil {
					return fmt.Errorf("--data must be 0x-prefixed hex: %w", err)
				}
			}
			if value != "" {
				if tx.Value, err = utils.ParseUnits(value, a.cfg.NativeDecimals); err != nil {
					return err
				}
			}

			result, err := a.simulator.SimulateTransaction(ctx, tx)
			if err != nil {
				return err
			}
			if !result.Success {
				return writeJSON(cmd.OutOrStdout(), gasView{Error: types.UserMessage(result.Error)})
			}

			var estimate *gas.Estimate
			if gasLimit > 0 {
				estimate, err = a.estimator.EstimateGasCost(ctx, gasLimit)
			} else {
				estimate, err = a.estimator.Estimate(ctx, tx)
			}
			if err != nil {
				return userError(a.log, err)
			}
			view := gasView{
				Success:  true,
				GasUsed:  result.GasUsed,
				GasLimit: estimate.GasLimit,
				GasPrice: estimate.GasPrice.String(),
				Cost:     estimate.CostDecimal(a.cfg.NativeDecimals).String() + " " + a.cfg.NativeSymbol,
			}
			for _, amount := range result.Amounts {
				view.Amounts = append(view.Amounts, amount.String())
			}
			return writeJSON(cmd.OutOrStdout(), view)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "sender address")
	cmd.Flags().StringVar(&to, "to", "", "target contract")
	cmd.Flags().StringVar(&data, "data", "", "calldata as 0x-prefixed hex")
	cmd.Flags().StringVar(&value, "value", "", "native value in whole units, e.g. 1.5")
	cmd.Flags().Uint64Var(&gasLimit, "gas-limit", 0, "price this limit instead of estimating one")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func init() {
	rootCmd.AddCommand(newGasCmd())
}
