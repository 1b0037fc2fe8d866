package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func runList(cmd *cobra.Command, _ []string) error {
	ctx, stop := commandContext()
	defer stop()

	rt, err := newRuntime(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	deployments, err := rt.engine.ListDeployments(ctx)
	if err != nil {
		return err
	}
	return printJSON(deployments)
}

func runHolders(cmd *cobra.Command, _ []string) error {
	ctx, stop := commandContext()
	defer stop()

	rt, err := newRuntime(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	chainID, _ := cmd.Flags().GetString("chain")
	contract, _ := cmd.Flags().GetString("contract")
	if chainID == "" || contract == "" {
		return fmt.Errorf("chain and contract are required")
	}

	balances, err := rt.engine.Holders(ctx, chainID, contract)
	if err != nil {
		return err
	}
	return printJSON(balances)
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx, stop := commandContext()
	defer stop()

	rt, err := newRuntime(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	chainID, _ := cmd.Flags().GetString("chain")
	contract, _ := cmd.Flags().GetString("contract")
	txHashes, _ := cmd.Flags().GetStringSlice("tx")

	if chainID == "" || contract == "" {
		return fmt.Errorf("chain and contract are required")
	}
	if len(txHashes) == 0 {
		return fmt.Errorf("at least one --tx hash is required")
	}

	added, err := rt.engine.SyncIssuance(ctx, chainID, contract, txHashes)
	if err != nil {
		return err
	}

	rt.logger.Info("sync complete", zap.Int("events_added", added))
	return printJSON(map[string]int{"events_added": added})
}

func runSweep(cmd *cobra.Command, _ []string) error {
	ctx, stop := commandContext()
	defer stop()

	rt, err := newRuntime(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	summary, err := rt.engine.RunSweep(ctx)
	if err != nil {
		return err
	}

	rt.logger.Info("sweep complete",
		zap.Int("deployments_removed", summary.DeploymentsRemoved),
		zap.Int("events_removed", summary.EventsRemoved),
		zap.Int("skipped", summary.DeploymentsSkipped+summary.EventsSkipped))
	return printJSON(summary)
}

func runWallets(cmd *cobra.Command, _ []string) error {
	ctx, stop := commandContext()
	defer stop()

	rt, err := newRuntime(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	wallets, err := rt.engine.Wallets(ctx)
	if err != nil {
		return err
	}
	return printJSON(wallets)
}
