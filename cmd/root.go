package cmd

import (
	"context"

	"github.com/pr1mer-tech/hammy/config"
	"github.com/pr1mer-tech/hammy/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile   string
	envFile   string
	debug     bool
	logFormat string
	logFile   string
)

var rootCmd = &cobra.Command{
	Use:   "hammy",
	Short: "Quote swaps and manage Uniswap V2 liquidity on XRPL EVM",
	Long: `hammy reads Uniswap V2 pools on XRPL EVM, quotes swaps, previews
liquidity deposits and withdrawals, and prints the unsigned router
transactions that carry them out. Signing is left to your wallet.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file, JSON or YAML (default is $HOME/.hammy.json)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "env file to load (default is ./.env when present)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "log encoding on stderr: json or console")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", utils.LogFile, "file receiving a copy of the logs, empty to disable")
}

func initConfig() {
	log := utils.InitLogger(utils.LoggerOptions{Debug: debug, Format: logFormat, File: logFile})

	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	if err := config.LoadEnv(files...); err != nil {
		log.Warn("Failed to load env file", zap.Error(err))
	}
}
