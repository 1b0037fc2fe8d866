package model

import (
	"fmt"
	"strings"
)

// DeploymentStatus is the lifecycle state of a token deployment.
type DeploymentStatus string

const (
	StatusPending      DeploymentStatus = "pending"
	StatusBroadcasting DeploymentStatus = "broadcasting"
	StatusDeployed     DeploymentStatus = "deployed"
	StatusFailed       DeploymentStatus = "failed"
)

// ParseDeploymentStatus validates a stored status value.
func ParseDeploymentStatus(value string) (DeploymentStatus, error) {
	switch DeploymentStatus(strings.ToLower(value)) {
	case StatusPending:
		return StatusPending, nil
	case StatusBroadcasting:
		return StatusBroadcasting, nil
	case StatusDeployed:
		return StatusDeployed, nil
	case StatusFailed:
		return StatusFailed, nil
	default:
		return "", fmt.Errorf("unknown deployment status %q", value)
	}
}

// InFlight reports whether the deployment still awaits a terminal outcome.
func (s DeploymentStatus) InFlight() bool {
	return s == StatusPending || s == StatusBroadcasting
}

// DeploymentKind distinguishes custodian-driven deployments from externally
// deployed contracts that are only registered here.
type DeploymentKind string

const (
	KindCustodied   DeploymentKind = "custodied"
	KindSelfCustody DeploymentKind = "self_custody"
)

// ParseDeploymentKind validates a stored kind value.
func ParseDeploymentKind(value string) (DeploymentKind, error) {
	switch DeploymentKind(strings.ToLower(value)) {
	case KindCustodied:
		return KindCustodied, nil
	case KindSelfCustody:
		return KindSelfCustody, nil
	default:
		return "", fmt.Errorf("unknown deployment kind %q", value)
	}
}

// Deployment is one attempted token contract deployment.
//
// A custodied record starts keyed by CustodianTxID. Once the custodian
// reports success it is re-keyed to ChainTxHash; the custodian id is kept
// for audit only. ContractAddress is set only while Status is deployed and
// receipt resolution has succeeded.
type Deployment struct {
	ChainID         string           `json:"chain_id"`
	Name            string           `json:"name"`
	Symbol          string           `json:"symbol"`
	Partitions      []string         `json:"partitions"`
	Owner           string           `json:"owner"`
	WalletID        string           `json:"wallet_id,omitempty"`
	Kind            DeploymentKind   `json:"kind"`
	Status          DeploymentStatus `json:"status"`
	CustodianTxID   string           `json:"custodian_tx_id,omitempty"`
	ChainTxHash     string           `json:"chain_tx_hash,omitempty"`
	ContractAddress string           `json:"contract_address,omitempty"`
	CreatedAt       string           `json:"created_at"`
	UpdatedAt       string           `json:"updated_at,omitempty"`
}

// Handle returns the authoritative transaction handle for the record: the
// chain hash once one is confirmed, otherwise the custodian id.
func (d Deployment) Handle() TxRef {
	if d.ChainTxHash != "" {
		return ChainHashRef(d.ChainTxHash)
	}
	if d.CustodianTxID != "" {
		return CustodianRef(d.CustodianTxID)
	}
	return TxRef{}
}

// Resolved reports whether the deployment has a usable contract address.
func (d Deployment) Resolved() bool {
	return d.Status == StatusDeployed && d.ContractAddress != ""
}
