package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tokenEngine/internal/chain"
	"tokenEngine/internal/custodian"
	"tokenEngine/internal/model"
	"tokenEngine/internal/token"
)

// DeployError is the structured failure surfaced when a deployment
// request cannot be encoded or submitted. The ledger is left untouched.
type DeployError struct {
	ChainID string
	Err     error
}

func (e *DeployError) Error() string {
	return fmt.Sprintf("deploy on %s: %v", e.ChainID, e.Err)
}

func (e *DeployError) Unwrap() error {
	return e.Err
}

// DeployRequest describes a requested token contract deployment.
type DeployRequest struct {
	ChainID    string
	Name       string
	Symbol     string
	Partitions []string
}

// Manager drives deployment records through their state machine using the
// custodian and the chain as the two sources of truth.
type Manager struct {
	custodian custodian.Client
	chain     chain.Observer
	selector  custodian.WalletSelector
	logger    *zap.Logger
}

// NewManager builds a Manager. A nil selector defaults to
// custodian.FirstWithAddress.
func NewManager(custodianClient custodian.Client, observer chain.Observer, selector custodian.WalletSelector, logger *zap.Logger) *Manager {
	if selector == nil {
		selector = custodian.FirstWithAddress
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		custodian: custodianClient,
		chain:     observer,
		selector:  selector,
		logger:    logger,
	}
}

// Submit encodes the constructor, submits the contract creation through
// the custodian, and returns a new pending record keyed by the custodian
// transaction id.
func (m *Manager) Submit(ctx context.Context, artifact *token.Artifact, req DeployRequest) (model.Deployment, error) {
	if err := validatePartitions(req.Partitions); err != nil {
		return model.Deployment{}, &DeployError{ChainID: req.ChainID, Err: err}
	}

	wallet, err := m.selector(ctx, m.custodian, req.ChainID)
	if err != nil {
		return model.Deployment{}, &DeployError{ChainID: req.ChainID, Err: err}
	}

	calldata, err := token.EncodeDeployment(artifact, req.Name, req.Symbol, req.Partitions, wallet.Address)
	if err != nil {
		return model.Deployment{}, &DeployError{ChainID: req.ChainID, Err: err}
	}

	txID, err := m.custodian.SubmitContractCall(ctx, custodian.ContractCall{
		ChainID:     req.ChainID,
		WalletID:    wallet.WalletID,
		FromAddress: wallet.Address,
		ToAddress:   "",
		Calldata:    calldata,
		Description: fmt.Sprintf("Deploy %s (%s)", req.Name, req.Symbol),
	})
	if err != nil {
		return model.Deployment{}, &DeployError{ChainID: req.ChainID, Err: err}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	return model.Deployment{
		ChainID:       req.ChainID,
		Name:          req.Name,
		Symbol:        req.Symbol,
		Partitions:    append([]string(nil), req.Partitions...),
		Owner:         wallet.Address,
		WalletID:      wallet.WalletID,
		Kind:          model.KindCustodied,
		Status:        model.StatusPending,
		CustodianTxID: txID,
		CreatedAt:     now,
	}, nil
}

// Refresh applies the state machine to one record and reports whether it
// changed. It is idempotent: re-applying the same upstream answer is a
// no-op. Provider unavailability never causes a transition.
func (m *Manager) Refresh(ctx context.Context, d *model.Deployment) bool {
	if d.Kind == model.KindSelfCustody {
		return false
	}

	switch {
	case d.Status.InFlight() && d.CustodianTxID != "":
		return m.refreshFromCustodian(ctx, d)
	case d.Status == model.StatusDeployed && d.ContractAddress == "" && d.ChainTxHash != "":
		// Confirmed but the address is still pending; retry resolution.
		return m.resolveAddress(ctx, d)
	default:
		return false
	}
}

// RefreshAll refreshes every record sequentially and reports whether any
// changed. Each record's transitions are applied by a single caller at a
// time.
func (m *Manager) RefreshAll(ctx context.Context, deployments []model.Deployment) bool {
	changed := false
	for i := range deployments {
		if m.Refresh(ctx, &deployments[i]) {
			changed = true
		}
	}
	return changed
}

func (m *Manager) refreshFromCustodian(ctx context.Context, d *model.Deployment) bool {
	result, err := m.custodian.GetTransactionStatus(ctx, d.CustodianTxID)
	if err != nil {
		if errors.Is(err, custodian.ErrUnavailable) {
			m.logger.Warn("custodian unreachable, keeping state",
				zap.String("custodian_tx_id", d.CustodianTxID), zap.Error(err))
			return false
		}
		// Unknown status values and missing ids are surfaced but never
		// acted on here; the sweep is the place that judges records.
		m.logger.Warn("custodian status check failed",
			zap.String("custodian_tx_id", d.CustodianTxID), zap.Error(err))
		return false
	}

	changed := false
	switch result.Status {
	case custodian.StatusSuccess:
		if result.ChainTxHash == "" {
			m.logger.Warn("custodian reports success without a chain hash",
				zap.String("custodian_tx_id", d.CustodianTxID))
			return false
		}
		if d.ChainTxHash != result.ChainTxHash {
			d.ChainTxHash = result.ChainTxHash
			changed = true
		}
		if d.Status != model.StatusDeployed {
			d.Status = model.StatusDeployed
			changed = true
		}
		if d.ContractAddress == "" {
			if m.resolveAddress(ctx, d) {
				changed = true
			}
		}

	case custodian.StatusFailed:
		d.Status = model.StatusFailed
		changed = true

	case custodian.StatusBroadcasting, custodian.StatusPendingApproval, custodian.StatusQueued:
		if result.Status == custodian.StatusBroadcasting && d.Status == model.StatusPending {
			d.Status = model.StatusBroadcasting
			changed = true
		}
		if result.ChainTxHash != "" && d.ChainTxHash == "" {
			d.ChainTxHash = result.ChainTxHash
			changed = true
		}
		// A known hash that the node no longer sees means the
		// transaction was dropped or replaced.
		if d.ChainTxHash != "" {
			present, err := m.chain.HasTransaction(ctx, d.ChainID, d.ChainTxHash)
			if err != nil {
				m.logger.Warn("drop check failed",
					zap.String("chain_tx_hash", d.ChainTxHash), zap.Error(err))
			} else if !present {
				m.logger.Info("transaction no longer on chain, marking failed",
					zap.String("chain_tx_hash", d.ChainTxHash))
				d.Status = model.StatusFailed
				changed = true
			}
		}
	}

	if changed {
		d.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	return changed
}

func (m *Manager) resolveAddress(ctx context.Context, d *model.Deployment) bool {
	receipt, err := m.chain.GetReceipt(ctx, d.ChainID, d.ChainTxHash)
	if err != nil {
		m.logger.Info("address resolution pending",
			zap.String("chain_tx_hash", d.ChainTxHash), zap.Error(err))
		return false
	}
	if !receipt.Success {
		m.logger.Warn("custodian confirmed but receipt reports failure",
			zap.String("chain_tx_hash", d.ChainTxHash))
		return false
	}
	if receipt.ContractAddress == "" {
		m.logger.Warn("receipt carries no contract address",
			zap.String("chain_tx_hash", d.ChainTxHash))
		return false
	}

	d.ContractAddress = receipt.ContractAddress
	d.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	code, err := m.chain.GetCode(ctx, d.ChainID, d.ContractAddress)
	if err != nil {
		m.logger.Warn("code check failed", zap.String("contract_address", d.ContractAddress), zap.Error(err))
	} else if len(code) == 0 {
		m.logger.Warn("no code at resolved address", zap.String("contract_address", d.ContractAddress))
	}
	return true
}

func validatePartitions(partitions []string) error {
	if len(partitions) == 0 {
		return fmt.Errorf("at least one partition is required")
	}
	seen := make(map[string]struct{}, len(partitions))
	for _, label := range partitions {
		if label == "" {
			return fmt.Errorf("empty partition label")
		}
		if _, ok := seen[label]; ok {
			return fmt.Errorf("duplicate partition %q", label)
		}
		seen[label] = struct{}{}
	}
	return nil
}
