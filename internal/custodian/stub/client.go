package stub

import (
	"context"
	"fmt"

	"tokenEngine/internal/custodian"
)

// Client implements custodian.Client for testing.
type Client struct {
	Statuses   map[string]custodian.TxStatusResult
	StatusErrs map[string]error
	Wallets    []custodian.Wallet
	Addresses  map[string]string
	SubmitID   string
	SubmitErr  error
	Submitted  []custodian.ContractCall
}

// NewClient creates an empty stub custodian client.
func NewClient() *Client {
	return &Client{
		Statuses:   make(map[string]custodian.TxStatusResult),
		StatusErrs: make(map[string]error),
		Addresses:  make(map[string]string),
	}
}

// GetTransactionStatus returns the stubbed status for a transaction id.
func (c *Client) GetTransactionStatus(_ context.Context, txID string) (custodian.TxStatusResult, error) {
	if err, ok := c.StatusErrs[txID]; ok {
		return custodian.TxStatusResult{}, err
	}
	result, ok := c.Statuses[txID]
	if !ok {
		return custodian.TxStatusResult{}, fmt.Errorf("%w: %s", custodian.ErrNotFound, txID)
	}
	return result, nil
}

// SubmitContractCall records the call and returns the stubbed id.
func (c *Client) SubmitContractCall(_ context.Context, call custodian.ContractCall) (string, error) {
	if c.SubmitErr != nil {
		return "", c.SubmitErr
	}
	c.Submitted = append(c.Submitted, call)
	return c.SubmitID, nil
}

// ResolveWalletAddress returns the stubbed address for wallet and chain.
func (c *Client) ResolveWalletAddress(_ context.Context, walletID, chainID string) (string, error) {
	address, ok := c.Addresses[walletID+"|"+chainID]
	if !ok {
		return "", fmt.Errorf("%w: wallet %s on %s", custodian.ErrWalletNotFound, walletID, chainID)
	}
	return address, nil
}

// ListWallets returns the stubbed wallet list.
func (c *Client) ListWallets(_ context.Context) ([]custodian.Wallet, error) {
	return c.Wallets, nil
}
