package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "amm",
		Short:        "Constant-product liquidity pool ledger",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new ledger snapshot",
		RunE:  runInit,
	}
	initCmd.Flags().String("owner", "", "governance owner address")
	addStateFlags(initCmd)
	root.AddCommand(initCmd)

	mintCmd := &cobra.Command{
		Use:   "mint",
		Short: "Credit a holder in the custodial bank",
		RunE:  runMint,
	}
	mintCmd.Flags().String("to", "", "holder address")
	mintCmd.Flags().String("asset", "", "asset address")
	mintCmd.Flags().String("amount", "", "amount (decimal)")
	addStateFlags(mintCmd)
	root.AddCommand(mintCmd)

	createCmd := &cobra.Command{
		Use:   "create-pool",
		Short: "Create a pool for an ordered asset pair",
		RunE:  runCreatePool,
	}
	addPairFlags(createCmd)
	createCmd.Flags().String("amount-in", "", "first asset deposit (decimal)")
	createCmd.Flags().String("amount-out", "", "second asset deposit (decimal)")
	addStateFlags(createCmd)
	root.AddCommand(createCmd)

	addCmd := &cobra.Command{
		Use:   "add-liquidity",
		Short: "Deposit both assets into an existing pool",
		RunE:  runAddLiquidity,
	}
	addPairFlags(addCmd)
	addCmd.Flags().String("amount-in", "", "first asset deposit (decimal)")
	addCmd.Flags().String("amount-out", "", "second asset deposit (decimal)")
	addStateFlags(addCmd)
	root.AddCommand(addCmd)

	removeCmd := &cobra.Command{
		Use:   "remove-liquidity",
		Short: "Burn shares and withdraw the proportional reserves",
		RunE:  runRemoveLiquidity,
	}
	addPairFlags(removeCmd)
	removeCmd.Flags().String("shares", "", "share count to burn (decimal)")
	addStateFlags(removeCmd)
	root.AddCommand(removeCmd)

	swapCmd := &cobra.Command{
		Use:   "swap",
		Short: "Swap the first asset for the second against a pool",
		RunE:  runSwap,
	}
	addPairFlags(swapCmd)
	swapCmd.Flags().String("amount-in", "", "input amount (decimal)")
	addStateFlags(swapCmd)
	root.AddCommand(swapCmd)

	allowCmd := &cobra.Command{
		Use:   "allow-token",
		Short: "Add a token to the governance allowlist",
		RunE:  runAllowToken,
	}
	allowCmd.Flags().String("caller", "", "caller address")
	allowCmd.Flags().String("token", "", "token address")
	addStateFlags(allowCmd)
	root.AddCommand(allowCmd)

	rateCmd := &cobra.Command{
		Use:   "set-reward-rate",
		Short: "Set the governance reward rate",
		RunE:  runSetRewardRate,
	}
	rateCmd.Flags().String("caller", "", "caller address")
	rateCmd.Flags().Uint64("rate", 0, "reward rate (basis points)")
	addStateFlags(rateCmd)
	root.AddCommand(rateCmd)

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the ledger snapshot as JSON",
		RunE:  runShow,
	}
	addStateFlags(showCmd)

	showPoolCmd := &cobra.Command{
		Use:   "pool",
		Short: "Print one pool as JSON",
		RunE:  runShowPool,
	}
	showPoolCmd.Flags().String("asset-in", "", "first asset address")
	showPoolCmd.Flags().String("asset-out", "", "second asset address")
	addStateFlags(showPoolCmd)
	showCmd.AddCommand(showPoolCmd)

	showPositionCmd := &cobra.Command{
		Use:   "position",
		Short: "Print one user's pool position as JSON",
		RunE:  runShowPosition,
	}
	showPositionCmd.Flags().String("user", "", "position holder address")
	showPositionCmd.Flags().String("asset-in", "", "first asset address")
	showPositionCmd.Flags().String("asset-out", "", "second asset address")
	addStateFlags(showPositionCmd)
	showCmd.AddCommand(showPositionCmd)

	root.AddCommand(showCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addStateFlags(cmd *cobra.Command) {
	cmd.Flags().String("state-file", "./data/amm.json", "ledger snapshot path")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN (overrides the snapshot file)")
	cmd.Flags().Bool("apply-fee", false, "apply the 0.3% fee to the swap curve")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func addPairFlags(cmd *cobra.Command) {
	cmd.Flags().String("caller", "", "caller address")
	cmd.Flags().String("asset-in", "", "first asset address")
	cmd.Flags().String("asset-out", "", "second asset address")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
