package token

import (
	"fmt"
	"math/big"
	"strings"
	"unicode"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// EncodeError means constructor or call arguments could not be encoded.
// It is fatal to the single request, never to the ledger.
type EncodeError struct {
	What string
	Err  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s: %v", e.What, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// PartitionToBytes32 converts a partition label to its on-chain bytes32
// form. Labels already given as 0x-prefixed 32-byte hex pass through.
func PartitionToBytes32(label string) ([32]byte, error) {
	var out [32]byte
	if strings.HasPrefix(label, "0x") {
		decoded := common.FromHex(label)
		if len(decoded) != 32 {
			return out, &EncodeError{What: "partition", Err: fmt.Errorf("hex partition must be 32 bytes, got %d", len(decoded))}
		}
		copy(out[:], decoded)
		return out, nil
	}
	if label == "" {
		return out, &EncodeError{What: "partition", Err: fmt.Errorf("empty partition label")}
	}
	if len(label) > 32 {
		return out, &EncodeError{What: "partition", Err: fmt.Errorf("partition label %q exceeds 32 bytes", label)}
	}
	copy(out[:], label)
	return out, nil
}

// PartitionLabel converts an on-chain bytes32 partition back to a label.
// Non-printable payloads are rendered as hex.
func PartitionLabel(raw [32]byte) string {
	trimmed := strings.TrimRight(string(raw[:]), "\x00")
	for _, r := range trimmed {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) {
			return "0x" + common.Bytes2Hex(raw[:])
		}
	}
	if trimmed == "" {
		return "0x" + common.Bytes2Hex(raw[:])
	}
	return trimmed
}

// EncodeDeployment builds contract creation calldata: the compiled
// bytecode followed by the ABI-encoded constructor arguments.
func EncodeDeployment(artifact *Artifact, name, symbol string, partitions []string, owner string) ([]byte, error) {
	if artifact == nil || len(artifact.Bytecode) == 0 {
		return nil, &EncodeError{What: "constructor", Err: fmt.Errorf("missing contract bytecode")}
	}
	if name == "" || symbol == "" {
		return nil, &EncodeError{What: "constructor", Err: fmt.Errorf("name and symbol are required")}
	}
	if len(partitions) == 0 {
		return nil, &EncodeError{What: "constructor", Err: fmt.Errorf("at least one partition is required")}
	}
	if !common.IsHexAddress(owner) {
		return nil, &EncodeError{What: "constructor", Err: fmt.Errorf("invalid owner address %q", owner)}
	}

	partitionWords := make([][32]byte, 0, len(partitions))
	for _, label := range partitions {
		word, err := PartitionToBytes32(label)
		if err != nil {
			return nil, err
		}
		partitionWords = append(partitionWords, word)
	}

	args, err := artifact.ABI.Pack("", name, symbol, partitionWords, common.HexToAddress(owner))
	if err != nil {
		return nil, &EncodeError{What: "constructor", Err: err}
	}
	return append(append([]byte{}, artifact.Bytecode...), args...), nil
}

// EncodeIssueByPartition builds calldata crediting amount of a partition
// to a holder.
func EncodeIssueByPartition(partition, holder string, amount *big.Int) ([]byte, error) {
	contractABI, err := ERC1400ABI()
	if err != nil {
		return nil, &EncodeError{What: "issueByPartition", Err: err}
	}
	if !common.IsHexAddress(holder) {
		return nil, &EncodeError{What: "issueByPartition", Err: fmt.Errorf("invalid holder address %q", holder)}
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, &EncodeError{What: "issueByPartition", Err: fmt.Errorf("amount must be positive")}
	}

	word, err := PartitionToBytes32(partition)
	if err != nil {
		return nil, err
	}

	data, err := contractABI.Pack("issueByPartition", word, common.HexToAddress(holder), amount, []byte{})
	if err != nil {
		return nil, &EncodeError{What: "issueByPartition", Err: err}
	}
	return data, nil
}

// IssuanceLog is a decoded IssuedByPartition event.
type IssuanceLog struct {
	Partition string
	To        string
	Amount    *big.Int
}

// DecodeIssuanceLog decodes a chain log if it is an IssuedByPartition
// event; the bool reports whether the topic matched.
func DecodeIssuanceLog(log types.Log) (IssuanceLog, bool, error) {
	contractABI, err := ERC1400ABI()
	if err != nil {
		return IssuanceLog{}, false, err
	}

	event, ok := contractABI.Events["IssuedByPartition"]
	if !ok {
		return IssuanceLog{}, false, fmt.Errorf("abi missing IssuedByPartition event")
	}
	if len(log.Topics) != 4 || log.Topics[0] != event.ID {
		return IssuanceLog{}, false, nil
	}

	var partition [32]byte
	copy(partition[:], log.Topics[1].Bytes())
	to := common.BytesToAddress(log.Topics[3].Bytes())

	values, err := event.Inputs.NonIndexed().Unpack(log.Data)
	if err != nil {
		return IssuanceLog{}, true, fmt.Errorf("unpack issuance data: %w", err)
	}
	amount, ok := values[0].(*big.Int)
	if !ok {
		return IssuanceLog{}, true, fmt.Errorf("unexpected value type %T", values[0])
	}

	return IssuanceLog{
		Partition: PartitionLabel(partition),
		To:        to.Hex(),
		Amount:    amount,
	}, true, nil
}
