package custodian

import (
	"context"
	"fmt"
)

// Unconfigured is a Client used when no provider credentials are set.
// Every call reports the provider as unavailable, so read paths degrade
// to best-known state instead of crashing.
type Unconfigured struct{}

func (Unconfigured) GetTransactionStatus(context.Context, string) (TxStatusResult, error) {
	return TxStatusResult{}, fmt.Errorf("%w: no credentials configured", ErrUnavailable)
}

func (Unconfigured) SubmitContractCall(context.Context, ContractCall) (string, error) {
	return "", fmt.Errorf("%w: no credentials configured", ErrUnavailable)
}

func (Unconfigured) ResolveWalletAddress(context.Context, string, string) (string, error) {
	return "", fmt.Errorf("%w: no credentials configured", ErrUnavailable)
}

func (Unconfigured) ListWallets(context.Context) ([]Wallet, error) {
	return nil, fmt.Errorf("%w: no credentials configured", ErrUnavailable)
}
