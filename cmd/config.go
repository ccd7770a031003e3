package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pr1mer-tech/hammy/config"
	"github.com/spf13/cobra"
)

// configPath is where --config points, or the default file under $HOME
func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, config.DefaultConfigFile), nil
}

type configReport struct {
	File    string            `json:"file"`
	Exists  bool              `json:"exists"`
	Env     map[string]string `json:"env"`
	Valid   bool              `json:"valid"`
	Problem string            `json:"problem,omitempty"`
	Config  *config.Config    `json:"config,omitempty"`
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}
	cmd.AddCommand(newConfigCheckCmd(), newConfigInitCmd(), newConfigVerifyCmd())
	return cmd
}

func newConfigCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Show the effective configuration and the environment overrides",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath()
			if err != nil {
				return err
			}
			report := configReport{File: path, Env: map[string]string{}}
			if _, err := os.Stat(path); err == nil {
				report.Exists = true
			}
			for _, key := range []string{
				config.EnvRPCURL,
				config.EnvChainID,
				config.EnvFactory,
				config.EnvRouter,
				config.EnvWrapped,
				config.EnvInitCodeHash,
				config.EnvWalletAddress,
			} {
				if v := os.Getenv(key); v != "" {
					report.Env[key] = v
				}
			}

			cfg, err := config.LoadConfig(cfgFile)
			if err != nil {
				report.Problem = err.Error()
			} else {
				report.Valid = true
				report.Config = cfg
			}
			if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if !report.Valid {
				return fmt.Errorf("configuration is not usable")
			}
			return nil
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the XRPL EVM defaults",
		Long: `Write a config file with the XRPL EVM defaults and any deployment
addresses found in the environment. The format follows the file
extension: .yaml or .yml for YAML, JSON otherwise.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, pass --force to overwrite", path)
			}

			cfg := config.DefaultConfig()
			if err := config.ApplyEnv(cfg); err != nil {
				return err
			}
			if err := config.SaveConfig(cfg, path); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			if err := cfg.ValidateConfig(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "edit it before use: %v\n", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newConfigVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the configured contracts against the chain",
		Long: `Ask the router which factory and wrapped token it uses and compare them
with the configuration. Prints the deployment and its pair count.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			deployment, err := a.exchange.Verify(ctx)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), deployment)
		},
	}
}

func newTokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens",
		Short: "List the known tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			return writeJSON(cmd.OutOrStdout(), a.tokens.All())
		},
	}
}

func init() {
	rootCmd.AddCommand(newConfigCmd(), newTokensCmd())
}
