package custodian

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotFound means the provider does not know the transaction id.
var ErrNotFound = errors.New("custodian transaction not found")

// WaasClient talks to a WaaS-style custody REST API. Requests are signed
// with the API ed25519 key the way the provider's own SDKs do.
type WaasClient struct {
	baseURL string
	apiKey  string
	signKey ed25519.PrivateKey
	http    *http.Client
	logger  *zap.Logger
}

// WaasConfig holds connection settings for the custody provider.
type WaasConfig struct {
	BaseURL string
	APIKey  string
	// APISecret is the hex-encoded ed25519 seed used to sign requests.
	APISecret string
	Timeout   time.Duration
}

// NewWaasClient builds a client from provider credentials.
func NewWaasClient(cfg WaasConfig, logger *zap.Logger) (*WaasClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("custodian api url is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var signKey ed25519.PrivateKey
	if cfg.APISecret != "" {
		seed, err := hex.DecodeString(cfg.APISecret)
		if err != nil {
			return nil, fmt.Errorf("decode api secret: %w", err)
		}
		if len(seed) != ed25519.SeedSize {
			return nil, fmt.Errorf("api secret must be a %d byte seed", ed25519.SeedSize)
		}
		signKey = ed25519.NewKeyFromSeed(seed)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &WaasClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		signKey: signKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

type waasTransaction struct {
	TransactionID   string `json:"transaction_id"`
	Status          string `json:"status"`
	TransactionHash string `json:"transaction_hash"`
}

// GetTransactionStatus queries the provider for a transaction id.
func (c *WaasClient) GetTransactionStatus(ctx context.Context, txID string) (TxStatusResult, error) {
	var tx waasTransaction
	if err := c.do(ctx, http.MethodGet, "/v2/transactions/"+url.PathEscape(txID), nil, nil, &tx); err != nil {
		return TxStatusResult{}, err
	}

	status, err := ParseTxStatus(tx.Status)
	if err != nil {
		return TxStatusResult{}, err
	}
	return TxStatusResult{Status: status, ChainTxHash: tx.TransactionHash}, nil
}

type waasContractCallRequest struct {
	RequestID   string              `json:"request_id"`
	ChainID     string              `json:"chain_id"`
	Source      waasCallSource      `json:"source"`
	Destination waasCallDestination `json:"destination"`
	Description string              `json:"description,omitempty"`
}

type waasCallSource struct {
	SourceType string `json:"source_type"`
	WalletID   string `json:"wallet_id"`
	Address    string `json:"address,omitempty"`
}

type waasCallDestination struct {
	DestinationType string `json:"destination_type"`
	Address         string `json:"address"`
	Calldata        string `json:"calldata"`
	Value           string `json:"value"`
}

// SubmitContractCall asks the provider to sign and broadcast a contract
// call and returns the opaque custodian transaction id.
func (c *WaasClient) SubmitContractCall(ctx context.Context, call ContractCall) (string, error) {
	value := call.Value
	if value == "" {
		value = "0"
	}

	req := waasContractCallRequest{
		RequestID: uuid.NewString(),
		ChainID:   call.ChainID,
		Source: waasCallSource{
			SourceType: "Web3",
			WalletID:   call.WalletID,
			Address:    call.FromAddress,
		},
		Destination: waasCallDestination{
			DestinationType: "EVM_Contract",
			Address:         call.ToAddress,
			Calldata:        "0x" + hex.EncodeToString(call.Calldata),
			Value:           value,
		},
		Description: call.Description,
	}

	var tx waasTransaction
	if err := c.do(ctx, http.MethodPost, "/v2/transactions/contract_call", nil, req, &tx); err != nil {
		return "", err
	}
	if tx.TransactionID == "" {
		return "", fmt.Errorf("provider returned no transaction id")
	}
	return tx.TransactionID, nil
}

type waasWalletList struct {
	Data []struct {
		WalletID      string `json:"wallet_id"`
		Name          string `json:"name"`
		WalletSubtype string `json:"wallet_subtype"`
	} `json:"data"`
}

// ListWallets lists the provider's web3 wallets.
func (c *WaasClient) ListWallets(ctx context.Context) ([]Wallet, error) {
	query := url.Values{}
	query.Set("wallet_type", "Custodial")
	query.Set("wallet_subtype", "Web3")
	query.Set("limit", "50")

	var list waasWalletList
	if err := c.do(ctx, http.MethodGet, "/v2/wallets", query, nil, &list); err != nil {
		return nil, err
	}

	wallets := make([]Wallet, 0, len(list.Data))
	for _, w := range list.Data {
		if w.WalletID == "" {
			continue
		}
		wallets = append(wallets, Wallet{ID: w.WalletID, Name: w.Name, Subtype: w.WalletSubtype})
	}
	return wallets, nil
}

type waasAddressList struct {
	Data []struct {
		Address string `json:"address"`
	} `json:"data"`
}

// ResolveWalletAddress returns the wallet's address on the given chain.
func (c *WaasClient) ResolveWalletAddress(ctx context.Context, walletID, chainID string) (string, error) {
	query := url.Values{}
	query.Set("chain_ids", chainID)
	query.Set("limit", "1")

	var list waasAddressList
	err := c.do(ctx, http.MethodGet, "/v2/wallets/"+url.PathEscape(walletID)+"/addresses", query, nil, &list)
	if err != nil {
		return "", err
	}
	if len(list.Data) == 0 || list.Data[0].Address == "" {
		return "", fmt.Errorf("%w: wallet %s on %s", ErrWalletNotFound, walletID, chainID)
	}
	return list.Data[0].Address, nil
}

func (c *WaasClient) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = encoded
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.sign(req, method, path, query, payload)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s %s", ErrNotFound, method, path)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: auth rejected (%d)", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: provider error (%d)", ErrUnavailable, resp.StatusCode)
	default:
		return fmt.Errorf("provider rejected request (%d): %s", resp.StatusCode, truncate(data, 200))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// sign adds the provider auth headers: api key, nonce, timestamp and an
// ed25519 signature over method|path|timestamp|params|body.
func (c *WaasClient) sign(req *http.Request, method, path string, query url.Values, body []byte) {
	if c.apiKey == "" {
		return
	}

	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	nonce := uuid.NewString()

	req.Header.Set("Biz-Api-Key", c.apiKey)
	req.Header.Set("Biz-Api-Nonce", nonce)
	req.Header.Set("Biz-Timestamp", timestamp)

	if c.signKey == nil {
		return
	}

	message := method + "|" + path + "|" + timestamp + "|" + query.Encode() + "|" + string(body)
	digest := sha256.Sum256([]byte(message))
	digest = sha256.Sum256(digest[:])
	signature := ed25519.Sign(c.signKey, digest[:])
	req.Header.Set("Biz-Api-Signature", hex.EncodeToString(signature))
}

func truncate(data []byte, max int) string {
	if len(data) <= max {
		return string(data)
	}
	return string(data[:max]) + "..."
}
