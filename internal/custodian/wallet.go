package custodian

import (
	"context"
	"errors"
	"fmt"
)

// FundedWallet is a wallet usable as a transaction source on a chain.
type FundedWallet struct {
	WalletID string
	Address  string
}

// WalletSelector picks the wallet used to sign transactions on a chain.
// It is injected so the selection policy can be swapped or stubbed
// without touching the lifecycle state machine.
type WalletSelector func(ctx context.Context, client Client, chainID string) (FundedWallet, error)

// FirstWithAddress scans the provider's wallets and picks the first one
// that has an address on the chain.
func FirstWithAddress(ctx context.Context, client Client, chainID string) (FundedWallet, error) {
	wallets, err := client.ListWallets(ctx)
	if err != nil {
		return FundedWallet{}, fmt.Errorf("list wallets: %w", err)
	}

	for _, wallet := range wallets {
		address, err := client.ResolveWalletAddress(ctx, wallet.ID, chainID)
		if err != nil {
			if errors.Is(err, ErrWalletNotFound) {
				continue
			}
			return FundedWallet{}, fmt.Errorf("resolve wallet %s: %w", wallet.ID, err)
		}
		return FundedWallet{WalletID: wallet.ID, Address: address}, nil
	}

	return FundedWallet{}, fmt.Errorf("%w: no wallet with an address on %s", ErrWalletNotFound, chainID)
}

// FixedWallet always selects the given wallet, resolving its address on
// the requested chain.
func FixedWallet(walletID string) WalletSelector {
	return func(ctx context.Context, client Client, chainID string) (FundedWallet, error) {
		address, err := client.ResolveWalletAddress(ctx, walletID, chainID)
		if err != nil {
			return FundedWallet{}, err
		}
		return FundedWallet{WalletID: walletID, Address: address}, nil
	}
}
