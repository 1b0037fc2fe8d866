package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tokenEngine/internal/engine"
	"tokenEngine/internal/issuance"
	"tokenEngine/internal/lifecycle"
)

func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runDeploy(cmd *cobra.Command, _ []string) error {
	ctx, stop := commandContext()
	defer stop()

	rt, err := newRuntime(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	chainID, _ := cmd.Flags().GetString("chain")
	name, _ := cmd.Flags().GetString("name")
	symbol, _ := cmd.Flags().GetString("symbol")
	partitions, _ := cmd.Flags().GetStringSlice("partition")

	if chainID == "" || name == "" || symbol == "" {
		return fmt.Errorf("chain, name and symbol are required")
	}

	record, err := rt.engine.RequestDeployment(ctx, lifecycle.DeployRequest{
		ChainID:    chainID,
		Name:       name,
		Symbol:     symbol,
		Partitions: partitions,
	})
	if err != nil {
		return err
	}

	rt.logger.Info("deployment submitted",
		zap.String("chain_id", record.ChainID),
		zap.String("custodian_tx_id", record.CustodianTxID))
	return printJSON(record)
}

func runMint(cmd *cobra.Command, _ []string) error {
	ctx, stop := commandContext()
	defer stop()

	rt, err := newRuntime(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	chainID, _ := cmd.Flags().GetString("chain")
	contract, _ := cmd.Flags().GetString("contract")
	partition, _ := cmd.Flags().GetString("partition")
	to, _ := cmd.Flags().GetString("to")
	amount, _ := cmd.Flags().GetString("amount")

	if chainID == "" || contract == "" || partition == "" || to == "" || amount == "" {
		return fmt.Errorf("chain, contract, partition, to and amount are required")
	}

	event, err := rt.engine.RequestMint(ctx, issuance.MintRequest{
		ChainID:         chainID,
		ContractAddress: contract,
		Partition:       partition,
		ToAddress:       to,
		Amount:          amount,
	})
	if err != nil {
		return err
	}

	rt.logger.Info("mint submitted", zap.String("tx_ref", event.TxRef.Value))
	return printJSON(event)
}

func runRegister(cmd *cobra.Command, _ []string) error {
	ctx, stop := commandContext()
	defer stop()

	rt, err := newRuntime(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	chainID, _ := cmd.Flags().GetString("chain")
	address, _ := cmd.Flags().GetString("address")
	name, _ := cmd.Flags().GetString("name")
	symbol, _ := cmd.Flags().GetString("symbol")
	owner, _ := cmd.Flags().GetString("owner")
	txHash, _ := cmd.Flags().GetString("tx-hash")
	partitions, _ := cmd.Flags().GetStringSlice("partition")

	record, err := rt.engine.RegisterSelfCustody(ctx, engine.RegisterRequest{
		ChainID:         chainID,
		ContractAddress: address,
		Name:            name,
		Symbol:          symbol,
		Owner:           owner,
		Partitions:      partitions,
		ChainTxHash:     txHash,
	})
	if err != nil {
		return err
	}

	return printJSON(record)
}
