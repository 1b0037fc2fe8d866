package model

// IssuanceEvent is one mint action appended to the event log. Events are
// never mutated; the sweep may remove ones whose reference fails
// validation. Amount is a decimal string in the token's smallest unit.
type IssuanceEvent struct {
	TxRef           TxRef  `json:"tx_ref"`
	ChainID         string `json:"chain_id"`
	ContractAddress string `json:"contract_address"`
	Partition       string `json:"partition"`
	ToAddress       string `json:"to_address"`
	Amount          string `json:"amount"`
	Timestamp       int64  `json:"timestamp"`
}

// HolderBalance is a derived per-holder, per-partition balance. It is
// recomputed from the event log on every query and never stored.
type HolderBalance struct {
	Address   string `json:"address"`
	Partition string `json:"partition"`
	Balance   string `json:"balance"`
}
