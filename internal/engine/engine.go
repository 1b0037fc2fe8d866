package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"tokenEngine/internal/chain"
	"tokenEngine/internal/custodian"
	"tokenEngine/internal/issuance"
	"tokenEngine/internal/ledger"
	"tokenEngine/internal/lifecycle"
	"tokenEngine/internal/model"
	"tokenEngine/internal/sweep"
	"tokenEngine/internal/token"
)

// ErrNotFound means a referenced deployment does not exist in the ledger.
var ErrNotFound = errors.New("deployment not found")

// Options wires the engine's collaborators.
type Options struct {
	Store     ledger.Store
	Custodian custodian.Client
	Chain     chain.Observer
	Selector  custodian.WalletSelector
	Artifact  *token.Artifact
	Logger    *zap.Logger
}

// Engine is the single entry point for ledger operations. All mutation
// follows load, modify in memory, write back, and the mutex guarantees
// no two such sequences interleave.
type Engine struct {
	mu         sync.Mutex
	store      ledger.Store
	lifecycle  *lifecycle.Manager
	reconciler *issuance.Reconciler
	sweeper    *sweep.Sweeper
	custodian  custodian.Client
	artifact   *token.Artifact
	logger     *zap.Logger
}

// New builds an Engine from its collaborators.
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	manager := lifecycle.NewManager(opts.Custodian, opts.Chain, opts.Selector, logger)
	reconciler := issuance.NewReconciler(opts.Custodian, opts.Chain, opts.Selector, logger)

	return &Engine{
		store:      opts.Store,
		lifecycle:  manager,
		reconciler: reconciler,
		sweeper:    sweep.NewSweeper(opts.Custodian, opts.Chain, reconciler, logger),
		custodian:  opts.Custodian,
		artifact:   opts.Artifact,
		logger:     logger,
	}
}

// RequestDeployment submits a custodied contract deployment and records
// it as pending. Encoding or submission failure returns a structured
// error and leaves the ledger untouched.
func (e *Engine) RequestDeployment(ctx context.Context, req lifecycle.DeployRequest) (model.Deployment, error) {
	if req.ChainID == "" {
		return model.Deployment{}, &lifecycle.DeployError{ChainID: req.ChainID, Err: fmt.Errorf("chain id is required")}
	}

	record, err := e.lifecycle.Submit(ctx, e.artifact, req)
	if err != nil {
		return model.Deployment{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	led, err := e.store.Load(ctx)
	if err != nil {
		return model.Deployment{}, fmt.Errorf("load ledger: %w", err)
	}
	led.Deployments = append(led.Deployments, record)
	e.saveDeployments(ctx, led.Deployments)

	return record, nil
}

// RegisterRequest describes an externally deployed contract to track.
type RegisterRequest struct {
	ChainID         string
	ContractAddress string
	Name            string
	Symbol          string
	Owner           string
	Partitions      []string
	ChainTxHash     string
}

// RegisterSelfCustody records a contract deployed outside the custodian.
// Such records are registered, not driven: they are created already
// deployed and the lifecycle manager skips them.
func (e *Engine) RegisterSelfCustody(ctx context.Context, req RegisterRequest) (model.Deployment, error) {
	if req.ChainID == "" || req.ContractAddress == "" {
		return model.Deployment{}, fmt.Errorf("chain id and contract address are required")
	}

	partitions := req.Partitions
	if len(partitions) == 0 {
		partitions = []string{"Class A"}
	}

	record := model.Deployment{
		ChainID:         req.ChainID,
		Name:            req.Name,
		Symbol:          req.Symbol,
		Partitions:      partitions,
		Owner:           req.Owner,
		Kind:            model.KindSelfCustody,
		Status:          model.StatusDeployed,
		ChainTxHash:     req.ChainTxHash,
		ContractAddress: req.ContractAddress,
		CreatedAt:       time.Now().UTC().Format(time.RFC3339),
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	led, err := e.store.Load(ctx)
	if err != nil {
		return model.Deployment{}, fmt.Errorf("load ledger: %w", err)
	}
	led.Deployments = append(led.Deployments, record)
	e.saveDeployments(ctx, led.Deployments)

	return record, nil
}

// RequestMint submits a partitioned issuance for a tracked contract and
// appends the provisional event before on-chain confirmation.
func (e *Engine) RequestMint(ctx context.Context, req issuance.MintRequest) (model.IssuanceEvent, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	led, err := e.store.Load(ctx)
	if err != nil {
		return model.IssuanceEvent{}, fmt.Errorf("load ledger: %w", err)
	}
	if _, ok := findDeployment(led.Deployments, req.ChainID, req.ContractAddress); !ok {
		return model.IssuanceEvent{}, &issuance.MintError{
			ChainID:         req.ChainID,
			ContractAddress: req.ContractAddress,
			Err:             ErrNotFound,
		}
	}

	event, err := e.reconciler.SubmitMint(ctx, req)
	if err != nil {
		return model.IssuanceEvent{}, err
	}

	led.Events = append(led.Events, event)
	e.saveEvents(ctx, led.Events)

	return event, nil
}

// ListDeployments refreshes every record against the custodian and the
// chain and returns the best-known state. Provider failures are absorbed;
// a listing never fails because a provider is flaky.
func (e *Engine) ListDeployments(ctx context.Context) ([]model.Deployment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	led, err := e.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	if e.lifecycle.RefreshAll(ctx, led.Deployments) {
		e.saveDeployments(ctx, led.Deployments)
	}
	return led.Deployments, nil
}

// Holders derives the balance view for one contract from the event log.
func (e *Engine) Holders(ctx context.Context, chainID, contractAddress string) ([]model.HolderBalance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	led, err := e.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	return issuance.AggregateBalances(led.Events, chainID, contractAddress), nil
}

// SyncIssuance replays issuance logs of confirmed transactions for a
// deployed contract into the event log, deduplicated by reference.
// Returns the number of events added.
func (e *Engine) SyncIssuance(ctx context.Context, chainID, contractAddress string, txHashes []string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	led, err := e.store.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load ledger: %w", err)
	}

	deployment, ok := findDeployment(led.Deployments, chainID, contractAddress)
	if !ok {
		return 0, fmt.Errorf("%w: %s on %s", ErrNotFound, contractAddress, chainID)
	}

	replayed := e.resolvedHashes(ctx, led.Events, chainID, contractAddress)

	added := 0
	for _, raw := range txHashes {
		ref, err := model.ParseTxRef(raw)
		if err != nil {
			e.logger.Warn("skipping unparseable reference", zap.String("tx", raw), zap.Error(err))
			continue
		}
		if ref.Kind != model.RefChainHash {
			e.logger.Warn("skipping non-hash reference", zap.String("tx", raw))
			continue
		}
		if led.HasEvent(ref) {
			e.logger.Info("skipping already synced transaction", zap.String("tx_hash", ref.Value))
			continue
		}
		if _, ok := replayed[strings.ToLower(ref.Value)]; ok {
			e.logger.Info("transaction already recorded under its custodian id",
				zap.String("tx_hash", ref.Value))
			continue
		}

		event, found, err := e.reconciler.SyncTransaction(ctx, deployment, ref.Value)
		if err != nil {
			e.logger.Warn("issuance replay failed", zap.String("tx_hash", ref.Value), zap.Error(err))
			continue
		}
		if !found {
			continue
		}

		led.Events = append(led.Events, event)
		added++
	}

	if added > 0 {
		e.saveEvents(ctx, led.Events)
	}
	return added, nil
}

// RunSweep re-validates the whole ledger and prunes invalid records.
// This is the explicit operator maintenance action; it is never invoked
// from a request path.
func (e *Engine) RunSweep(ctx context.Context) (sweep.Summary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	led, err := e.store.Load(ctx)
	if err != nil {
		return sweep.Summary{}, fmt.Errorf("load ledger: %w", err)
	}

	pruned, summary := e.sweeper.Run(ctx, led)

	if err := e.store.SaveDeployments(ctx, pruned.Deployments); err != nil {
		return summary, fmt.Errorf("save deployments: %w", err)
	}
	if err := e.store.SaveEvents(ctx, pruned.Events); err != nil {
		return summary, fmt.Errorf("save events: %w", err)
	}
	return summary, nil
}

// resolvedHashes maps the contract's custodian-recorded events to the
// chain hashes the provider now reports for them. A replay of one of
// those transactions under its hash is the same mint, not a new event;
// the stored event keeps its custodian id either way.
func (e *Engine) resolvedHashes(ctx context.Context, events []model.IssuanceEvent, chainID, contractAddress string) map[string]struct{} {
	hashes := make(map[string]struct{})
	for _, ev := range events {
		if ev.TxRef.Kind != model.RefCustodianID || ev.ChainID != chainID {
			continue
		}
		if !strings.EqualFold(ev.ContractAddress, contractAddress) {
			continue
		}

		result, err := e.custodian.GetTransactionStatus(ctx, ev.TxRef.Value)
		if err != nil {
			e.logger.Warn("custodian lookup failed during sync",
				zap.String("tx_ref", ev.TxRef.Value), zap.Error(err))
			continue
		}
		if result.ChainTxHash != "" {
			hashes[strings.ToLower(result.ChainTxHash)] = struct{}{}
		}
	}
	return hashes
}

// Wallets lists the custodian's web3 wallets, used as a connectivity
// check.
func (e *Engine) Wallets(ctx context.Context) ([]custodian.Wallet, error) {
	return e.custodian.ListWallets(ctx)
}

func (e *Engine) saveDeployments(ctx context.Context, deployments []model.Deployment) {
	if err := e.store.SaveDeployments(ctx, deployments); err != nil {
		// The caller's in-memory view is still correct for this
		// response; a failed persist is a warning, not a failure.
		e.logger.Warn("persist deployments failed", zap.Error(err))
	}
}

func (e *Engine) saveEvents(ctx context.Context, events []model.IssuanceEvent) {
	if err := e.store.SaveEvents(ctx, events); err != nil {
		e.logger.Warn("persist events failed", zap.Error(err))
	}
}

func findDeployment(deployments []model.Deployment, chainID, contractAddress string) (model.Deployment, bool) {
	for _, d := range deployments {
		if d.ChainID == chainID && strings.EqualFold(d.ContractAddress, contractAddress) {
			return d, true
		}
	}
	return model.Deployment{}, false
}
