package issuance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"tokenEngine/internal/model"
	"tokenEngine/internal/token"
)

// SyncTransaction replays the issuance logs of one confirmed transaction
// into events for the given deployment. One event is produced per
// transaction: the reference is the chain hash, which must stay unique in
// the event log. When a transaction carries several issuance logs for
// the contract, the first is used and the rest are reported.
func (r *Reconciler) SyncTransaction(ctx context.Context, d model.Deployment, txHash string) (model.IssuanceEvent, bool, error) {
	if !d.Resolved() {
		return model.IssuanceEvent{}, false, fmt.Errorf("deployment %s/%s has no resolved contract address", d.ChainID, d.Name)
	}

	receipt, err := r.chain.GetReceipt(ctx, d.ChainID, txHash)
	if err != nil {
		return model.IssuanceEvent{}, false, fmt.Errorf("replay %s: %w", txHash, err)
	}
	if !receipt.Success {
		return model.IssuanceEvent{}, false, nil
	}

	found := false
	var event model.IssuanceEvent
	for _, log := range receipt.Logs {
		if !strings.EqualFold(log.Address.Hex(), d.ContractAddress) {
			continue
		}

		decoded, matched, err := token.DecodeIssuanceLog(log)
		if err != nil {
			r.logger.Warn("issuance log decode failed",
				zap.String("tx_hash", txHash), zap.Uint("log_index", log.Index), zap.Error(err))
			continue
		}
		if !matched {
			continue
		}

		if found {
			r.logger.Warn("transaction has multiple issuance logs, keeping first",
				zap.String("tx_hash", txHash), zap.Uint("log_index", log.Index))
			continue
		}

		found = true
		event = model.IssuanceEvent{
			TxRef:           model.ChainHashRef(txHash),
			ChainID:         d.ChainID,
			ContractAddress: d.ContractAddress,
			Partition:       decoded.Partition,
			ToAddress:       decoded.To,
			Amount:          decoded.Amount.String(),
			Timestamp:       time.Now().Unix(),
		}
	}

	return event, found, nil
}
