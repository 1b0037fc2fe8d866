package chain

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// ErrTxNotFound means the node does not know the transaction. This is
// distinct from a revert, which yields a receipt with Success=false.
var ErrTxNotFound = errors.New("transaction not found on chain")

// ErrUnknownChain means no RPC endpoint is configured for the chain id.
var ErrUnknownChain = errors.New("no rpc endpoint for chain")

// Receipt is the node's confirmation record for a transaction.
type Receipt struct {
	Success         bool
	ContractAddress string
	Logs            []types.Log
}

// Observer abstracts the blockchain node lookups the ledger needs.
type Observer interface {
	GetReceipt(ctx context.Context, chainID, txHash string) (Receipt, error)
	HasTransaction(ctx context.Context, chainID, txHash string) (bool, error)
	GetCode(ctx context.Context, chainID, address string) ([]byte, error)
}

// Client implements Observer over go-ethereum RPC, one connection per
// configured chain, dialed lazily and cached.
type Client struct {
	endpoints map[string]string

	mu      sync.Mutex
	clients map[string]*ethclient.Client
	rpcs    []*rpc.Client
}

// NewClient creates a chain client from a chain id to RPC URL map.
func NewClient(endpoints map[string]string) *Client {
	return &Client{
		endpoints: endpoints,
		clients:   make(map[string]*ethclient.Client),
	}
}

// Close closes all dialed RPC connections.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, rpcClient := range c.rpcs {
		rpcClient.Close()
	}
	c.rpcs = nil
	c.clients = make(map[string]*ethclient.Client)
}

func (c *Client) clientFor(ctx context.Context, chainID string) (*ethclient.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if client, ok := c.clients[chainID]; ok {
		return client, nil
	}

	url, ok := c.endpoints[chainID]
	if !ok || url == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChain, chainID)
	}

	rpcClient, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", chainID, err)
	}

	client := ethclient.NewClient(rpcClient)
	c.clients[chainID] = client
	c.rpcs = append(c.rpcs, rpcClient)
	return client, nil
}

// GetReceipt returns the receipt for a transaction hash.
func (c *Client) GetReceipt(ctx context.Context, chainID, txHash string) (Receipt, error) {
	client, err := c.clientFor(ctx, chainID)
	if err != nil {
		return Receipt{}, err
	}

	receipt, err := client.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return Receipt{}, fmt.Errorf("%w: %s", ErrTxNotFound, txHash)
		}
		return Receipt{}, fmt.Errorf("get receipt %s: %w", txHash, err)
	}

	result := Receipt{Success: receipt.Status == types.ReceiptStatusSuccessful}
	if receipt.ContractAddress != (common.Address{}) {
		result.ContractAddress = receipt.ContractAddress.Hex()
	}
	for _, log := range receipt.Logs {
		result.Logs = append(result.Logs, *log)
	}
	return result, nil
}

// HasTransaction reports whether the node still knows the transaction.
// Absence of a previously broadcast transaction means it was dropped or
// replaced.
func (c *Client) HasTransaction(ctx context.Context, chainID, txHash string) (bool, error) {
	client, err := c.clientFor(ctx, chainID)
	if err != nil {
		return false, err
	}

	_, _, err = client.TransactionByHash(ctx, common.HexToHash(txHash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get transaction %s: %w", txHash, err)
	}
	return true, nil
}

// GetCode returns the bytecode at an address, used to confirm a contract
// actually exists after address resolution.
func (c *Client) GetCode(ctx context.Context, chainID, address string) ([]byte, error) {
	client, err := c.clientFor(ctx, chainID)
	if err != nil {
		return nil, err
	}

	code, err := client.CodeAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return nil, fmt.Errorf("get code %s: %w", address, err)
	}
	return code, nil
}
