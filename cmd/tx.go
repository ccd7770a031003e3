package cmd

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pr1mer-tech/hammy/types"
	"github.com/pr1mer-tech/hammy/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// txView is what every tx subcommand prints. The transaction is unsigned.
type txView struct {
	Tx      *types.TxRequest `json:"tx"`
	Preview interface{}      `json:"preview,omitempty"`
	Warning string           `json:"warning,omitempty"`
}

// sender fills From so the printed call can be simulated as-is
func sender(tx *types.TxRequest, from common.Address) *types.TxRequest {
	tx.From = from
	return tx
}

func newTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Build unsigned router transactions",
		Long: `Build unsigned router transactions. The output carries the target,
calldata and value; sign and send it with your wallet.`,
	}
	cmd.AddCommand(
		newTxSwapCmd(),
		newTxAddCmd(),
		newTxRemoveCmd(),
		newTxApproveCmd(),
		newTxWrapCmd(true),
		newTxWrapCmd(false),
		newTxDecodeCmd(),
	)
	return cmd
}

func newTxSwapCmd() *cobra.Command {
	var (
		flags     swapFlags
		from      string
		recipient string
	)
	cmd := &cobra.Command{
		Use:     "swap",
		Short:   "Build a swap transaction",
		Example: `  hammy tx swap --from XRP --to USDC --amount 10 --sender 0x...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			owner, err := parseAddress("sender", from)
			if err != nil {
				return err
			}
			to := owner
			if recipient != "" {
				if to, err = parseAddress("recipient", recipient); err != nil {
					return err
				}
			}

			req, slippage, err := flags.request(ctx, a)
			if err != nil {
				return err
			}
			preview, err := a.service.PreviewSwap(ctx, req, slippage)
			if err != nil {
				return userError(a.log, err)
			}
			tx, err := a.builder.BuildSwap(preview, to)
			if err != nil {
				return userError(a.log, err)
			}

			view := txView{Tx: sender(tx, owner), Preview: newQuoteView(preview, a.tokens.Symbols())}
			if !preview.Quote.Wrap {
				if err := a.service.CheckAllowance(ctx, preview.Quote.TokenIn, owner, preview.AmountInMax); err != nil {
					a.log.Warn("Allowance check failed", zap.Error(err))
					if errors.Is(err, types.ErrInsufficientAllowance) {
						view.Warning = types.UserMessage(err) + "; run hammy tx approve first"
					}
				}
			}
			return writeJSON(cmd.OutOrStdout(), view)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&from, "sender", "", "account that signs the transaction")
	cmd.Flags().StringVar(&recipient, "recipient", "", "account receiving the output (default --sender)")
	_ = cmd.MarkFlagRequired("sender")
	return cmd
}

func newTxAddCmd() *cobra.Command {
	var (
		flags     depositFlags
		from      string
		recipient string
		slip      string
	)
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Build an add liquidity transaction",
		Example: `  hammy tx add --a XRP --b USDC --amount 10 --sender 0x...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			owner, err := parseAddress("sender", from)
			if err != nil {
				return err
			}
			to := owner
			if recipient != "" {
				if to, err = parseAddress("recipient", recipient); err != nil {
					return err
				}
			}
			slippage, err := a.slippage(slip)
			if err != nil {
				return err
			}

			req, err := flags.request(ctx, a)
			if err != nil {
				return err
			}
			preview, err := a.service.PreviewDeposit(ctx, req)
			if err != nil {
				return userError(a.log, err)
			}
			tx, err := a.builder.BuildAddLiquidity(preview, slippage, to)
			if err != nil {
				return userError(a.log, err)
			}

			view := txView{Tx: sender(tx, owner), Preview: newDepositView(preview)}
			var missing []string
			for _, side := range []struct {
				token  types.Token
				amount *big.Int
			}{{preview.TokenA, preview.AmountA}, {preview.TokenB, preview.AmountB}} {
				if err := a.service.CheckAllowance(ctx, side.token, owner, side.amount); err != nil {
					a.log.Warn("Allowance check failed", zap.Stringer("token", side.token), zap.Error(err))
					missing = append(missing, side.token.Symbol)
				}
			}
			if len(missing) > 0 {
				view.Warning = "approve " + strings.Join(missing, " and ") + " first"
			}
			return writeJSON(cmd.OutOrStdout(), view)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&from, "sender", "", "account that signs the transaction")
	cmd.Flags().StringVar(&recipient, "recipient", "", "account receiving the LP tokens (default --sender)")
	cmd.Flags().StringVar(&slip, "slippage", "", "slippage tolerance in percent (default from config)")
	_ = cmd.MarkFlagRequired("sender")
	return cmd
}

func newTxRemoveCmd() *cobra.Command {
	var (
		flags     withdrawFlags
		recipient string
	)
	cmd := &cobra.Command{
		Use:     "remove",
		Short:   "Build a remove liquidity transaction",
		Example: `  hammy tx remove --a XRP --b USDC --owner 0x... --percent 25`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			preview, err := flags.preview(ctx, a)
			if err != nil {
				return err
			}
			owner := common.HexToAddress(flags.owner)
			to := owner
			if recipient != "" {
				if to, err = parseAddress("recipient", recipient); err != nil {
					return err
				}
			}
			tx, err := a.builder.BuildRemoveLiquidity(preview, to)
			if err != nil {
				return userError(a.log, err)
			}

			view := txView{Tx: sender(tx, owner)}
			lp := types.Token{Address: preview.Pair, Symbol: "UNI-V2", Decimals: 18}
			if err := a.service.CheckAllowance(ctx, lp, owner, preview.Liquidity); err != nil {
				a.log.Warn("LP allowance check failed", zap.Error(err))
				view.Warning = "approve the pair " + preview.Pair.Hex() + " first"
			}
			return writeJSON(cmd.OutOrStdout(), view)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&recipient, "recipient", "", "account receiving the tokens (default --owner)")
	return cmd
}

func newTxApproveCmd() *cobra.Command {
	var token, amount, from string
	cmd := &cobra.Command{
		Use:     "approve",
		Short:   "Build an ERC-20 approval for the router",
		Example: `  hammy tx approve --token USDC --amount max --sender 0x...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			owner, err := parseAddress("sender", from)
			if err != nil {
				return err
			}
			tok, err := a.token(ctx, token)
			if err != nil {
				return err
			}
			if tok.IsNative() {
				return fmt.Errorf("%s is the native asset and needs no approval", tok.Symbol)
			}

			value := math.MaxBig256
			if !strings.EqualFold(amount, "max") {
				if value, err = parseAmount(tok, amount); err != nil {
					return err
				}
			}
			tx, err := a.builder.BuildApprove(tok.Address, value)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), txView{Tx: sender(tx, owner)})
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "token or LP pair to approve, symbol or address")
	cmd.Flags().StringVar(&amount, "amount", "max", "allowance, or max")
	cmd.Flags().StringVar(&from, "sender", "", "account that signs the transaction")
	_ = cmd.MarkFlagRequired("token")
	_ = cmd.MarkFlagRequired("sender")
	return cmd
}

// newTxWrapCmd builds wrap when wrap is true and unwrap otherwise
func newTxWrapCmd(wrap bool) *cobra.Command {
	var amount, from string
	use, short := "unwrap", "Build a withdraw from the wrapped native token"
	if wrap {
		use, short = "wrap", "Build a deposit into the wrapped native token"
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			owner, err := parseAddress("sender", from)
			if err != nil {
				return err
			}
			value, err := utils.ParseUnits(amount, a.cfg.NativeDecimals)
			if err != nil {
				return err
			}

			build := a.builder.BuildUnwrap
			if wrap {
				build = a.builder.BuildWrap
			}
			tx, err := build(value)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), txView{Tx: sender(tx, owner)})
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "amount of the native asset")
	cmd.Flags().StringVar(&from, "sender", "", "account that signs the transaction")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("sender")
	return cmd
}

func newTxDecodeCmd() *cobra.Command {
	var value string
	cmd := &cobra.Command{
		Use:     "decode <calldata>",
		Short:   "Decode router calldata",
		Args:    cobra.ExactArgs(1),
		Example: `  hammy tx decode 0x38ed1739... --value 0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := hexutil.Decode(args[0])
			if err != nil {
				return fmt.Errorf("calldata must be 0x-prefixed hex: %w", err)
			}
			wei, ok := new(big.Int).SetString(value, 10)
			if !ok {
				return fmt.Errorf("--value must be an integer in wei, got %q", value)
			}

			decoder, err := utils.NewTransactionDecoder(utils.GetLogger())
			if err != nil {
				return err
			}
			call, err := decoder.DecodeRouterCall(data, wei)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), call)
		},
	}
	cmd.Flags().StringVar(&value, "value", "0", "native value sent with the call, in wei")
	return cmd
}

func init() {
	rootCmd.AddCommand(newTxCmd())
}
