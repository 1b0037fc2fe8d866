package sweep

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"tokenEngine/internal/chain"
	"tokenEngine/internal/custodian"
	"tokenEngine/internal/issuance"
	"tokenEngine/internal/model"
)

// Summary reports what a sweep did to the ledger.
type Summary struct {
	DeploymentsKept    int `json:"deployments_kept"`
	DeploymentsRemoved int `json:"deployments_removed"`
	DeploymentsSkipped int `json:"deployments_skipped"`
	EventsKept         int `json:"events_kept"`
	EventsRemoved      int `json:"events_removed"`
	EventsSkipped      int `json:"events_skipped"`
}

type verdict int

const (
	keep verdict = iota
	remove
	skip
)

// Sweeper re-validates every ledger record against the custodian and the
// chain, and prunes records that no longer correspond to a valid
// transaction. It is destructive and must only run as an explicit
// operator action, never inside a request path.
type Sweeper struct {
	custodian  custodian.Client
	chain      chain.Observer
	reconciler *issuance.Reconciler
	logger     *zap.Logger
}

// NewSweeper builds a Sweeper.
func NewSweeper(custodianClient custodian.Client, observer chain.Observer, reconciler *issuance.Reconciler, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		custodian:  custodianClient,
		chain:      observer,
		reconciler: reconciler,
		logger:     logger,
	}
}

// Run sweeps a ledger snapshot and returns the pruned ledger plus
// summary counts. Records whose provider is unreachable are kept and
// reported as skipped: a transient outage must never mass-delete valid
// history.
func (s *Sweeper) Run(ctx context.Context, led model.Ledger) (model.Ledger, Summary) {
	var out model.Ledger
	var summary Summary

	for _, d := range led.Deployments {
		switch s.classifyDeployment(ctx, d) {
		case keep:
			summary.DeploymentsKept++
			out.Deployments = append(out.Deployments, d)
		case skip:
			summary.DeploymentsSkipped++
			out.Deployments = append(out.Deployments, d)
		case remove:
			summary.DeploymentsRemoved++
			s.logger.Info("removing invalid deployment",
				zap.String("name", d.Name),
				zap.String("chain_id", d.ChainID),
				zap.String("custodian_tx_id", d.CustodianTxID),
				zap.String("chain_tx_hash", d.ChainTxHash))
		}
	}

	for _, ev := range led.Events {
		switch s.classifyEvent(ctx, ev) {
		case keep:
			summary.EventsKept++
			out.Events = append(out.Events, ev)
		case skip:
			summary.EventsSkipped++
			out.Events = append(out.Events, ev)
		case remove:
			summary.EventsRemoved++
			s.logger.Info("removing invalid issuance event",
				zap.String("tx_ref", ev.TxRef.Value),
				zap.String("chain_id", ev.ChainID),
				zap.String("contract_address", ev.ContractAddress))
		}
	}

	return out, summary
}

// classifyDeployment checks the record against its authoritative source:
// the custodian until the record is confirmed, the chain afterwards. A
// hash captured from a partial status update has no receipt yet, so it
// never decides an unconfirmed record's fate.
func (s *Sweeper) classifyDeployment(ctx context.Context, d model.Deployment) verdict {
	handle := d.Handle()
	if handle.IsZero() || handle.IsMock() {
		return remove
	}

	if d.CustodianTxID != "" && d.Status != model.StatusDeployed {
		result, err := s.custodian.GetTransactionStatus(ctx, d.CustodianTxID)
		if err != nil {
			if errors.Is(err, custodian.ErrNotFound) {
				return remove
			}
			s.logger.Warn("custodian check skipped",
				zap.String("custodian_tx_id", d.CustodianTxID), zap.Error(err))
			return skip
		}
		if result.Status.Live() {
			return keep
		}
		return remove
	}

	if d.ChainTxHash != "" {
		receipt, err := s.chain.GetReceipt(ctx, d.ChainID, d.ChainTxHash)
		if err != nil {
			if errors.Is(err, chain.ErrTxNotFound) {
				return remove
			}
			s.logger.Warn("chain check skipped",
				zap.String("chain_tx_hash", d.ChainTxHash), zap.Error(err))
			return skip
		}
		if receipt.Success {
			return keep
		}
		return remove
	}

	// Confirmed without a hash: the record can never be verified.
	return remove
}

func (s *Sweeper) classifyEvent(ctx context.Context, ev model.IssuanceEvent) verdict {
	if ev.TxRef.IsZero() || ev.TxRef.IsMock() {
		return remove
	}

	valid, err := s.reconciler.Validate(ctx, ev)
	if err != nil {
		if errors.Is(err, issuance.ErrSkipValidation) {
			s.logger.Warn("event check skipped", zap.String("tx_ref", ev.TxRef.Value), zap.Error(err))
			return skip
		}
		s.logger.Warn("event check errored, keeping", zap.String("tx_ref", ev.TxRef.Value), zap.Error(err))
		return skip
	}
	if valid {
		return keep
	}
	return remove
}
