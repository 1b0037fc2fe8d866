package custodian

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnavailable means the custody provider could not be reached or
// authenticated. It is never evidence that a transaction failed and must
// not be treated as a terminal outcome.
var ErrUnavailable = errors.New("custody provider unavailable")

// ErrWalletNotFound means the wallet has no address on the given chain.
var ErrWalletNotFound = errors.New("wallet address not found")

// TxStatus is the custody provider's view of a submitted transaction.
type TxStatus string

const (
	StatusQueued          TxStatus = "queued"
	StatusPendingApproval TxStatus = "pending_approval"
	StatusBroadcasting    TxStatus = "broadcasting"
	StatusSuccess         TxStatus = "success"
	StatusFailed          TxStatus = "failed"
)

// ParseTxStatus maps a provider status string onto the closed status set.
// Unrecognized values are an error so upstream API drift surfaces early
// instead of being silently ignored.
func ParseTxStatus(value string) (TxStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.TrimPrefix(normalized, "transactionstatus.")
	switch TxStatus(normalized) {
	case StatusQueued:
		return StatusQueued, nil
	case StatusPendingApproval:
		return StatusPendingApproval, nil
	case StatusBroadcasting:
		return StatusBroadcasting, nil
	case StatusSuccess:
		return StatusSuccess, nil
	case StatusFailed:
		return StatusFailed, nil
	default:
		return "", fmt.Errorf("unknown custodian status %q", value)
	}
}

// InFlight reports whether the transaction is still making its way to the
// chain.
func (s TxStatus) InFlight() bool {
	return s == StatusQueued || s == StatusPendingApproval || s == StatusBroadcasting
}

// Live reports whether the transaction is still considered valid by the
// provider: either confirmed or in flight.
func (s TxStatus) Live() bool {
	return s == StatusSuccess || s.InFlight()
}

// TxStatusResult is the provider's answer for a transaction id. ChainTxHash
// is empty until the provider has broadcast the transaction.
type TxStatusResult struct {
	Status      TxStatus
	ChainTxHash string
}

// ContractCall is a request to sign and broadcast a contract interaction.
// ToAddress is empty for contract creation.
type ContractCall struct {
	ChainID     string
	WalletID    string
	FromAddress string
	ToAddress   string
	Calldata    []byte
	Value       string
	Description string
}

// Wallet is a custody wallet summary.
type Wallet struct {
	ID      string
	Name    string
	Subtype string
}

// Client abstracts the custody provider.
type Client interface {
	GetTransactionStatus(ctx context.Context, txID string) (TxStatusResult, error)
	SubmitContractCall(ctx context.Context, call ContractCall) (string, error)
	ResolveWalletAddress(ctx context.Context, walletID, chainID string) (string, error)
	ListWallets(ctx context.Context) ([]Wallet, error)
}
