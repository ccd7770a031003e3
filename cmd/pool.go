package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pr1mer-tech/hammy/trade"
	"github.com/pr1mer-tech/hammy/utils"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type depositFlags struct {
	tokenA  string
	tokenB  string
	amount  string
	amountB string
	side    string
}

func (f *depositFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.tokenA, "a", "", "first token, symbol or address")
	cmd.Flags().StringVar(&f.tokenB, "b", "", "second token, symbol or address")
	cmd.Flags().StringVar(&f.amount, "amount", "", "amount of the token on --side")
	cmd.Flags().StringVar(&f.amountB, "amount-b", "", "amount of token B for the first deposit of a pool")
	cmd.Flags().StringVar(&f.side, "side", "a", "which token --amount refers to: a or b")
	_ = cmd.MarkFlagRequired("a")
	_ = cmd.MarkFlagRequired("b")
	_ = cmd.MarkFlagRequired("amount")
}

func (f *depositFlags) request(ctx context.Context, a *app) (trade.DepositRequest, error) {
	var req trade.DepositRequest
	pool, err := a.pair(ctx, f.tokenA+"/"+f.tokenB)
	if err != nil {
		return req, err
	}
	req.TokenA, req.TokenB = pool.A, pool.B

	switch strings.ToLower(f.side) {
	case "a":
		req.Side = trade.SideA
		if req.AmountA, err = parseAmount(req.TokenA, f.amount); err != nil {
			return req, err
		}
		if f.amountB != "" {
			req.AmountB, err = parseAmount(req.TokenB, f.amountB)
		}
	case "b":
		req.Side = trade.SideB
		req.AmountB, err = parseAmount(req.TokenB, f.amount)
	default:
		return req, fmt.Errorf("--side must be a or b, got %q", f.side)
	}
	return req, err
}

type depositView struct {
	TokenA          string `json:"token_a"`
	TokenB          string `json:"token_b"`
	AmountA         string `json:"amount_a"`
	AmountB         string `json:"amount_b"`
	Pair            string `json:"pair,omitempty"`
	PoolShare       string `json:"pool_share_percent"`
	LiquidityMinted string `json:"liquidity_minted"`
	Bootstrap       bool   `json:"initial_deposit,omitempty"`
}

func newDepositView(p *trade.DepositPreview) depositView {
	v := depositView{
		TokenA:          p.TokenA.String(),
		TokenB:          p.TokenB.String(),
		AmountA:         utils.FormatUnits(p.AmountA, p.TokenA.Decimals),
		AmountB:         utils.FormatUnits(p.AmountB, p.TokenB.Decimals),
		PoolShare:       p.PoolShare.StringFixed(2),
		LiquidityMinted: utils.FormatUnits(p.LiquidityMinted, 18),
		Bootstrap:       p.Bootstrap,
	}
	if p.Pair != (common.Address{}) {
		v.Pair = p.Pair.Hex()
	}
	return v
}

type positionView struct {
	Pair    string `json:"pair"`
	TokenA  string `json:"token_a"`
	TokenB  string `json:"token_b"`
	Balance string `json:"lp_balance"`
	Share   string `json:"pool_share_percent"`
	AmountA string `json:"amount_a"`
	AmountB string `json:"amount_b"`
}

func newPoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Inspect liquidity pools and positions",
	}
	cmd.AddCommand(newPoolPreviewCmd(), newPoolWithdrawCmd(), newPoolPositionsCmd())
	return cmd
}

func newPoolPreviewCmd() *cobra.Command {
	var flags depositFlags
	cmd := &cobra.Command{
		Use:     "preview",
		Short:   "Preview a liquidity deposit",
		Example: `  hammy pool preview --a XRP --b USDC --amount 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			req, err := flags.request(ctx, a)
			if err != nil {
				return err
			}
			preview, err := a.service.PreviewDeposit(ctx, req)
			if err != nil {
				return userError(a.log, err)
			}
			return writeJSON(cmd.OutOrStdout(), newDepositView(preview))
		},
	}
	flags.register(cmd)
	return cmd
}

type withdrawFlags struct {
	tokenA   string
	tokenB   string
	owner    string
	percent  string
	slippage string
}

func (f *withdrawFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.tokenA, "a", "", "first token, symbol or address")
	cmd.Flags().StringVar(&f.tokenB, "b", "", "second token, symbol or address")
	cmd.Flags().StringVar(&f.owner, "owner", "", "LP token holder")
	cmd.Flags().StringVar(&f.percent, "percent", "100", "share of the position to withdraw")
	cmd.Flags().StringVar(&f.slippage, "slippage", "", "slippage tolerance in percent (default from config)")
	_ = cmd.MarkFlagRequired("a")
	_ = cmd.MarkFlagRequired("b")
	_ = cmd.MarkFlagRequired("owner")
}

func (f *withdrawFlags) preview(ctx context.Context, a *app) (*trade.WithdrawPreview, error) {
	owner, err := parseAddress("owner", f.owner)
	if err != nil {
		return nil, err
	}
	percent, err := decimal.NewFromString(strings.TrimSuffix(f.percent, "%"))
	if err != nil {
		return nil, fmt.Errorf("invalid --percent %q: %w", f.percent, err)
	}
	slippage, err := a.slippage(f.slippage)
	if err != nil {
		return nil, err
	}
	pool, err := a.pair(ctx, f.tokenA+"/"+f.tokenB)
	if err != nil {
		return nil, err
	}
	preview, err := a.service.PreviewWithdraw(ctx, owner, pool.A, pool.B, percent, slippage)
	return preview, userError(a.log, err)
}

func newPoolWithdrawCmd() *cobra.Command {
	var flags withdrawFlags
	cmd := &cobra.Command{
		Use:     "withdraw",
		Short:   "Preview what burning LP tokens pays out",
		Example: `  hammy pool withdraw --a XRP --b USDC --owner 0x... --percent 50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := flags.preview(ctx, a)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]string{
				"pair":         p.Pair.Hex(),
				"liquidity":    utils.FormatUnits(p.Liquidity, 18),
				"amount_a":     utils.FormatUnits(p.AmountA, p.TokenA.Decimals),
				"amount_b":     utils.FormatUnits(p.AmountB, p.TokenB.Decimals),
				"amount_a_min": utils.FormatUnits(p.AmountAMin, p.TokenA.Decimals),
				"amount_b_min": utils.FormatUnits(p.AmountBMin, p.TokenB.Decimals),
				"slippage":     p.Slippage.String(),
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newPoolPositionsCmd() *cobra.Command {
	var (
		owner string
		pairs []string
	)
	cmd := &cobra.Command{
		Use:     "positions",
		Short:   "Show LP positions of an account",
		Example: `  hammy pool positions --owner 0x... --pair XRP/USDC --pair USDC/RLUSD`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			holder, err := parseAddress("owner", owner)
			if err != nil {
				return err
			}
			pools := make([]trade.PoolTokens, 0, len(pairs))
			for _, p := range pairs {
				pool, err := a.pair(ctx, p)
				if err != nil {
					return err
				}
				pools = append(pools, pool)
			}

			positions, err := a.service.Positions(ctx, holder, pools)
			if err != nil {
				return userError(a.log, err)
			}
			views := make([]positionView, 0, len(positions))
			for _, p := range positions {
				views = append(views, positionView{
					Pair:    p.Pair.Hex(),
					TokenA:  p.TokenA.String(),
					TokenB:  p.TokenB.String(),
					Balance: utils.FormatUnits(p.Balance, 18),
					Share:   p.Share.StringFixed(2),
					AmountA: utils.FormatUnits(p.AmountA, p.TokenA.Decimals),
					AmountB: utils.FormatUnits(p.AmountB, p.TokenB.Decimals),
				})
			}
			return writeJSON(cmd.OutOrStdout(), views)
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "LP token holder")
	cmd.Flags().StringArrayVar(&pairs, "pair", nil, "pool as A/B, repeatable")
	_ = cmd.MarkFlagRequired("owner")
	_ = cmd.MarkFlagRequired("pair")
	return cmd
}

func init() {
	rootCmd.AddCommand(newPoolCmd())
}
