package model

import (
	"fmt"
	"strings"
)

// RefKind discriminates the two transaction handle families. Each kind has
// its own source of truth: chain hashes are validated against the node,
// custodian ids against the custody provider.
type RefKind string

const (
	RefChainHash   RefKind = "chain_hash"
	RefCustodianID RefKind = "custodian_id"
)

// TxRef is a discriminated transaction handle. The kind is decided once,
// when the reference enters the system, instead of being re-inferred from
// the string shape at every use site.
type TxRef struct {
	Kind  RefKind `json:"kind"`
	Value string  `json:"value"`
}

// ChainHashRef builds a reference to an on-chain transaction hash.
func ChainHashRef(hash string) TxRef {
	return TxRef{Kind: RefChainHash, Value: hash}
}

// CustodianRef builds a reference to a custodian transaction id.
func CustodianRef(id string) TxRef {
	return TxRef{Kind: RefCustodianID, Value: id}
}

// ParseTxRef classifies an external reference by shape. This is the only
// place shape inference is allowed; stored references carry their kind.
func ParseTxRef(value string) (TxRef, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return TxRef{}, fmt.Errorf("empty transaction reference")
	}
	if strings.HasPrefix(trimmed, "0x") {
		return ChainHashRef(trimmed), nil
	}
	return CustodianRef(trimmed), nil
}

// IsZero reports whether the reference is unset.
func (r TxRef) IsZero() bool {
	return r.Value == ""
}

// IsMock reports whether the reference is a placeholder that never
// corresponds to a real transaction. The sweep removes these.
func (r TxRef) IsMock() bool {
	return strings.HasPrefix(r.Value, "mock_")
}

func (r TxRef) String() string {
	return r.Value
}
