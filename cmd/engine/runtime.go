package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tokenEngine/internal/chain"
	"tokenEngine/internal/config"
	"tokenEngine/internal/custodian"
	"tokenEngine/internal/engine"
	"tokenEngine/internal/ledger"
	"tokenEngine/internal/ledger/postgres"
	"tokenEngine/internal/token"
)

// runtime wires the engine and its collaborators for one CLI invocation.
type runtime struct {
	cfg    config.Config
	logger *zap.Logger
	engine *engine.Engine

	closers []func()
}

func newRuntime(ctx context.Context, cmd *cobra.Command, needArtifact bool) (*runtime, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg, logger: logger}
	rt.closers = append(rt.closers, func() { _ = logger.Sync() })

	chainClient := chain.NewClient(cfg.Chains)
	rt.closers = append(rt.closers, chainClient.Close)

	var custodianClient custodian.Client = custodian.Unconfigured{}
	if cfg.CustodianURL != "" {
		waas, err := custodian.NewWaasClient(custodian.WaasConfig{
			BaseURL:   cfg.CustodianURL,
			APIKey:    cfg.CustodianKey,
			APISecret: cfg.CustodianSecret,
			Timeout:   cfg.CustodianTimeout,
		}, logger)
		if err != nil {
			rt.Close()
			return nil, err
		}
		custodianClient = waas
	}

	var store ledger.Store
	if cfg.PostgresDSN != "" {
		pgStore, err := postgres.NewStore(ctx, cfg.PostgresDSN)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		rt.closers = append(rt.closers, pgStore.Close)
		store = pgStore
	} else {
		store = ledger.NewFileStore(cfg.LedgerPath, logger)
	}

	var artifact *token.Artifact
	if needArtifact {
		artifact, err = token.LoadArtifact(cfg.ArtifactPath)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("load artifact %s: %w", cfg.ArtifactPath, err)
		}
	}

	var selector custodian.WalletSelector
	if cfg.WalletID != "" {
		selector = custodian.FixedWallet(cfg.WalletID)
	}

	rt.engine = engine.New(engine.Options{
		Store:     store,
		Custodian: custodianClient,
		Chain:     chainClient,
		Selector:  selector,
		Artifact:  artifact,
		Logger:    logger,
	})

	return rt, nil
}

func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}

func printJSON(value interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
