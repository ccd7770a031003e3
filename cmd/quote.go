package cmd

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pr1mer-tech/hammy/trade"
	"github.com/pr1mer-tech/hammy/types"
	"github.com/pr1mer-tech/hammy/utils"
	"github.com/spf13/cobra"
)

type swapFlags struct {
	from     string
	to       string
	amount   string
	exactOut bool
	slippage string
}

func (f *swapFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "token sold, symbol or address")
	cmd.Flags().StringVar(&f.to, "to", "", "token bought, symbol or address")
	cmd.Flags().StringVar(&f.amount, "amount", "", "amount sold, or bought with --exact-out")
	cmd.Flags().BoolVar(&f.exactOut, "exact-out", false, "treat --amount as the exact output")
	cmd.Flags().StringVar(&f.slippage, "slippage", "", "slippage tolerance in percent (default from config)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")
}

// request resolves the flags into a quote request and slippage
func (f *swapFlags) request(ctx context.Context, a *app) (trade.QuoteRequest, types.SlippageTolerance, error) {
	var req trade.QuoteRequest
	slippage, err := a.slippage(f.slippage)
	if err != nil {
		return req, slippage, err
	}
	if req.TokenIn, err = a.token(ctx, f.from); err != nil {
		return req, slippage, err
	}
	if req.TokenOut, err = a.token(ctx, f.to); err != nil {
		return req, slippage, err
	}

	req.Kind = types.ExactIn
	fixed := req.TokenIn
	if f.exactOut {
		req.Kind = types.ExactOut
		fixed = req.TokenOut
	}
	req.Amount, err = parseAmount(fixed, f.amount)
	return req, slippage, err
}

type quoteView struct {
	Kind         string `json:"kind"`
	From         string `json:"from"`
	To           string `json:"to"`
	AmountIn     string `json:"amount_in"`
	AmountOut    string `json:"amount_out"`
	AmountOutMin string `json:"amount_out_min"`
	AmountInMax  string `json:"amount_in_max"`
	Route        string `json:"route"`
	PriceImpact  string `json:"price_impact_percent"`
	Slippage     string `json:"slippage"`
	Wrap         bool   `json:"wrap,omitempty"`
	Snapshot     uint64 `json:"snapshot"`
}

func newQuoteView(p *trade.SwapPreview, symbols map[common.Address]string) quoteView {
	q := p.Quote
	return quoteView{
		Kind:         q.Kind.String(),
		From:         q.TokenIn.String(),
		To:           q.TokenOut.String(),
		AmountIn:     utils.FormatUnits(q.AmountIn, q.TokenIn.Decimals),
		AmountOut:    utils.FormatUnits(q.AmountOut, q.TokenOut.Decimals),
		AmountOutMin: utils.FormatUnits(p.AmountOutMin, q.TokenOut.Decimals),
		AmountInMax:  utils.FormatUnits(p.AmountInMax, q.TokenIn.Decimals),
		Route:        q.PathString(symbols),
		PriceImpact:  q.PriceImpact.StringFixed(2),
		Slippage:     p.Slippage.String(),
		Wrap:         q.Wrap,
		Snapshot:     q.Snapshot,
	}
}

func newQuoteCmd() *cobra.Command {
	var flags swapFlags
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote a swap against the current pool reserves",
		Example: `  hammy quote --from XRP --to USDC --amount 10
  hammy quote --from USDC --to XRP --amount 5 --exact-out --slippage 1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			req, slippage, err := flags.request(ctx, a)
			if err != nil {
				return err
			}
			preview, err := a.service.PreviewSwap(ctx, req, slippage)
			if err != nil {
				return userError(a.log, err)
			}
			return writeJSON(cmd.OutOrStdout(), newQuoteView(preview, a.tokens.Symbols()))
		},
	}
	flags.register(cmd)
	return cmd
}

func init() {
	rootCmd.AddCommand(newQuoteCmd())
}
