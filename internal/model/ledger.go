package model

import "strings"

// Ledger is the full persisted snapshot: both collections are stored and
// written together so they can never drift apart across files.
type Ledger struct {
	Deployments []Deployment    `json:"deployments"`
	Events      []IssuanceEvent `json:"issuance_events"`
}

// HasEvent reports whether an event with the given reference already
// exists in the log. Hex hashes match regardless of case.
func (l Ledger) HasEvent(ref TxRef) bool {
	for _, ev := range l.Events {
		if strings.EqualFold(ev.TxRef.Value, ref.Value) {
			return true
		}
	}
	return false
}
