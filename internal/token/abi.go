package token

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const erc1400ABIJSON = `[
  {
    "inputs": [
      {"internalType": "string", "name": "name_", "type": "string"},
      {"internalType": "string", "name": "symbol_", "type": "string"},
      {"internalType": "bytes32[]", "name": "defaultPartitions", "type": "bytes32[]"},
      {"internalType": "address", "name": "owner_", "type": "address"}
    ],
    "stateMutability": "nonpayable",
    "type": "constructor"
  },
  {
    "inputs": [
      {"internalType": "bytes32", "name": "partition", "type": "bytes32"},
      {"internalType": "address", "name": "tokenHolder", "type": "address"},
      {"internalType": "uint256", "name": "value", "type": "uint256"},
      {"internalType": "bytes", "name": "data", "type": "bytes"}
    ],
    "name": "issueByPartition",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "bytes32", "name": "partition", "type": "bytes32"},
      {"internalType": "address", "name": "tokenHolder", "type": "address"}
    ],
    "name": "balanceOfByPartition",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "bytes32", "name": "partition", "type": "bytes32"},
      {"indexed": true, "internalType": "address", "name": "operator", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "to", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "value", "type": "uint256"},
      {"indexed": false, "internalType": "bytes", "name": "data", "type": "bytes"},
      {"indexed": false, "internalType": "bytes", "name": "operatorData", "type": "bytes"}
    ],
    "name": "IssuedByPartition",
    "type": "event"
  }
]`

var (
	erc1400ABI     abi.ABI
	erc1400ABIOnce sync.Once
	erc1400ABIErr  error
)

// ERC1400ABI returns the parsed partitioned-token ABI.
func ERC1400ABI() (abi.ABI, error) {
	erc1400ABIOnce.Do(func() {
		erc1400ABI, erc1400ABIErr = abi.JSON(strings.NewReader(erc1400ABIJSON))
	})
	return erc1400ABI, erc1400ABIErr
}
