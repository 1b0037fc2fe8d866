package stub

import (
	"context"
	"fmt"

	"tokenEngine/internal/chain"
)

// Observer implements chain.Observer for testing.
type Observer struct {
	Receipts    map[string]chain.Receipt
	ReceiptErrs map[string]error
	Present     map[string]bool
	PresentErrs map[string]error
	Code        map[string][]byte
}

// NewObserver creates an empty stub observer.
func NewObserver() *Observer {
	return &Observer{
		Receipts:    make(map[string]chain.Receipt),
		ReceiptErrs: make(map[string]error),
		Present:     make(map[string]bool),
		PresentErrs: make(map[string]error),
		Code:        make(map[string][]byte),
	}
}

// GetReceipt returns the stubbed receipt for a hash.
func (o *Observer) GetReceipt(_ context.Context, _, txHash string) (chain.Receipt, error) {
	if err, ok := o.ReceiptErrs[txHash]; ok {
		return chain.Receipt{}, err
	}
	receipt, ok := o.Receipts[txHash]
	if !ok {
		return chain.Receipt{}, fmt.Errorf("%w: %s", chain.ErrTxNotFound, txHash)
	}
	return receipt, nil
}

// HasTransaction reports stubbed transaction presence.
func (o *Observer) HasTransaction(_ context.Context, _, txHash string) (bool, error) {
	if err, ok := o.PresentErrs[txHash]; ok {
		return false, err
	}
	return o.Present[txHash], nil
}

// GetCode returns stubbed bytecode for an address.
func (o *Observer) GetCode(_ context.Context, _, address string) ([]byte, error) {
	return o.Code[address], nil
}
