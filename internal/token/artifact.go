package token

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Artifact is a compiled contract template: ABI plus creation bytecode.
// The compiler pipeline that produces the artifact file lives outside
// this repository.
type Artifact struct {
	ABI      abi.ABI
	Bytecode []byte
}

type artifactFile struct {
	ABI      json.RawMessage `json:"abi"`
	Bytecode string          `json:"bytecode"`
}

// LoadArtifact reads a compiled artifact JSON file ({"abi": [...],
// "bytecode": "0x..."}).
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}

	var file artifactFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse artifact: %w", err)
	}
	if len(file.ABI) == 0 {
		return nil, fmt.Errorf("artifact has no abi")
	}
	if file.Bytecode == "" {
		return nil, fmt.Errorf("artifact has no bytecode")
	}

	parsedABI, err := abi.JSON(strings.NewReader(string(file.ABI)))
	if err != nil {
		return nil, fmt.Errorf("parse artifact abi: %w", err)
	}

	bytecode := common.FromHex(file.Bytecode)
	if len(bytecode) == 0 {
		return nil, fmt.Errorf("artifact bytecode is not valid hex")
	}

	return &Artifact{ABI: parsedABI, Bytecode: bytecode}, nil
}
