package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "engine",
		Short:        "Custodian-signed token deployment ledger",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	deployCmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy a partitioned token contract through the custodian",
		RunE:  runDeploy,
	}
	deployCmd.Flags().String("chain", "", "chain id (e.g. SETH, BSC_BNB)")
	deployCmd.Flags().String("name", "", "token name")
	deployCmd.Flags().String("symbol", "", "token symbol")
	deployCmd.Flags().StringSlice("partition", nil, "partition labels (comma-separated)")

	mintCmd := &cobra.Command{
		Use:   "mint",
		Short: "Issue tokens of a partition to a holder",
		RunE:  runMint,
	}
	mintCmd.Flags().String("chain", "", "chain id")
	mintCmd.Flags().String("contract", "", "contract address")
	mintCmd.Flags().String("partition", "", "partition label")
	mintCmd.Flags().String("to", "", "holder address")
	mintCmd.Flags().String("amount", "", "amount in the token's smallest unit")

	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Register a self-custody contract deployed elsewhere",
		RunE:  runRegister,
	}
	registerCmd.Flags().String("chain", "", "chain id")
	registerCmd.Flags().String("address", "", "contract address")
	registerCmd.Flags().String("name", "", "token name")
	registerCmd.Flags().String("symbol", "", "token symbol")
	registerCmd.Flags().String("owner", "", "owner address")
	registerCmd.Flags().String("tx-hash", "", "deployment transaction hash")
	registerCmd.Flags().StringSlice("partition", nil, "partition labels (comma-separated)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List deployments with refreshed statuses",
		RunE:  runList,
	}

	holdersCmd := &cobra.Command{
		Use:   "holders",
		Short: "Show aggregated holder balances for a contract",
		RunE:  runHolders,
	}
	holdersCmd.Flags().String("chain", "", "chain id")
	holdersCmd.Flags().String("contract", "", "contract address")

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Replay issuance logs from confirmed transactions",
		RunE:  runSync,
	}
	syncCmd.Flags().String("chain", "", "chain id")
	syncCmd.Flags().String("contract", "", "contract address")
	syncCmd.Flags().StringSlice("tx", nil, "transaction hashes (comma-separated)")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Re-validate the whole ledger and prune invalid records",
		RunE:  runSweep,
	}

	walletsCmd := &cobra.Command{
		Use:   "wallets",
		Short: "List custody wallets (connectivity check)",
		RunE:  runWallets,
	}

	for _, cmd := range []*cobra.Command{
		deployCmd, mintCmd, registerCmd, listCmd, holdersCmd, syncCmd, sweepCmd, walletsCmd,
	} {
		addCommonFlags(cmd)
		root.AddCommand(cmd)
	}

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().String("ledger", "", "ledger snapshot path")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN (overrides the file ledger)")
	cmd.Flags().String("custodian-url", "", "custody provider API base URL")
	cmd.Flags().String("custodian-key", "", "custody provider API key")
	cmd.Flags().String("custodian-secret", "", "custody provider API signing seed (hex)")
	cmd.Flags().String("wallet", "", "pin a custody wallet id")
	cmd.Flags().String("artifact", "", "compiled contract artifact path")
	cmd.Flags().String("log-level", "", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if level == "" {
		level = "info"
	}
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
