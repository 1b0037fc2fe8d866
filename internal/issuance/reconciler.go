package issuance

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"tokenEngine/internal/chain"
	"tokenEngine/internal/custodian"
	"tokenEngine/internal/model"
	"tokenEngine/internal/token"
)

// MintError is the structured failure surfaced when a mint request
// cannot be encoded or submitted. No event is appended in that case.
type MintError struct {
	ChainID         string
	ContractAddress string
	Err             error
}

func (e *MintError) Error() string {
	return fmt.Sprintf("mint on %s contract %s: %v", e.ChainID, e.ContractAddress, e.Err)
}

func (e *MintError) Unwrap() error {
	return e.Err
}

// MintRequest describes a requested partitioned issuance.
type MintRequest struct {
	ChainID         string
	ContractAddress string
	Partition       string
	ToAddress       string
	Amount          string
}

// Reconciler submits issuance calls and validates stored events against
// the custodian's and the chain's source of truth.
type Reconciler struct {
	custodian custodian.Client
	chain     chain.Observer
	selector  custodian.WalletSelector
	logger    *zap.Logger
}

// NewReconciler builds a Reconciler. A nil selector defaults to
// custodian.FirstWithAddress.
func NewReconciler(custodianClient custodian.Client, observer chain.Observer, selector custodian.WalletSelector, logger *zap.Logger) *Reconciler {
	if selector == nil {
		selector = custodian.FirstWithAddress
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		custodian: custodianClient,
		chain:     observer,
		selector:  selector,
		logger:    logger,
	}
}

// SubmitMint encodes issueByPartition, submits it through the custodian,
// and returns the provisional event keyed by the custodian transaction
// id. The event keeps that handle for life; the sweep re-checks its
// validity but never re-keys it.
func (r *Reconciler) SubmitMint(ctx context.Context, req MintRequest) (model.IssuanceEvent, error) {
	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok {
		return model.IssuanceEvent{}, &MintError{
			ChainID:         req.ChainID,
			ContractAddress: req.ContractAddress,
			Err:             &token.EncodeError{What: "amount", Err: fmt.Errorf("not a decimal integer: %q", req.Amount)},
		}
	}

	calldata, err := token.EncodeIssueByPartition(req.Partition, req.ToAddress, amount)
	if err != nil {
		return model.IssuanceEvent{}, &MintError{ChainID: req.ChainID, ContractAddress: req.ContractAddress, Err: err}
	}

	wallet, err := r.selector(ctx, r.custodian, req.ChainID)
	if err != nil {
		return model.IssuanceEvent{}, &MintError{ChainID: req.ChainID, ContractAddress: req.ContractAddress, Err: err}
	}

	txID, err := r.custodian.SubmitContractCall(ctx, custodian.ContractCall{
		ChainID:     req.ChainID,
		WalletID:    wallet.WalletID,
		FromAddress: wallet.Address,
		ToAddress:   req.ContractAddress,
		Calldata:    calldata,
		Description: fmt.Sprintf("Mint %s to %s", req.Amount, req.ToAddress),
	})
	if err != nil {
		return model.IssuanceEvent{}, &MintError{ChainID: req.ChainID, ContractAddress: req.ContractAddress, Err: err}
	}

	return model.IssuanceEvent{
		TxRef:           model.CustodianRef(txID),
		ChainID:         req.ChainID,
		ContractAddress: req.ContractAddress,
		Partition:       req.Partition,
		ToAddress:       req.ToAddress,
		Amount:          amount.String(),
		Timestamp:       time.Now().Unix(),
	}, nil
}

// ErrSkipValidation marks an event whose validity cannot be judged right
// now because a provider is unreachable. Callers keep the event.
var ErrSkipValidation = errors.New("validation skipped: provider unavailable")

// Validate checks an event's reference against its source of truth:
// chain hashes must have a successful receipt, custodian ids must report
// a live status.
func (r *Reconciler) Validate(ctx context.Context, ev model.IssuanceEvent) (bool, error) {
	switch ev.TxRef.Kind {
	case model.RefChainHash:
		receipt, err := r.chain.GetReceipt(ctx, ev.ChainID, ev.TxRef.Value)
		if err != nil {
			if errors.Is(err, chain.ErrTxNotFound) {
				return false, nil
			}
			return false, fmt.Errorf("%w: %v", ErrSkipValidation, err)
		}
		return receipt.Success, nil

	case model.RefCustodianID:
		result, err := r.custodian.GetTransactionStatus(ctx, ev.TxRef.Value)
		if err != nil {
			if errors.Is(err, custodian.ErrNotFound) {
				return false, nil
			}
			return false, fmt.Errorf("%w: %v", ErrSkipValidation, err)
		}
		return result.Status.Live(), nil

	default:
		return false, nil
	}
}
