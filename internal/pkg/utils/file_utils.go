package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// LoadABIFromJSON reads a contract interface descriptor from a file.
// Both a bare ABI array and a compiler artifact with an "abi" field are accepted.
func LoadABIFromJSON(filePath string) (abi.ABI, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to read ABI file %s: %w", filePath, err)
	}
	return ParseABI(data)
}

// ParseABI parses raw ABI JSON, unwrapping a compiler artifact if needed.
func ParseABI(data []byte) (abi.ABI, error) {
	var artifact struct {
		ABI json.RawMessage `json:"abi"`
	}
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		if err := json.Unmarshal(data, &artifact); err != nil {
			return abi.ABI{}, fmt.Errorf("failed to decode ABI artifact: %w", err)
		}
		if len(artifact.ABI) == 0 {
			return abi.ABI{}, fmt.Errorf("ABI artifact has no \"abi\" field")
		}
		trimmed = string(artifact.ABI)
	}

	parsed, err := abi.JSON(strings.NewReader(trimmed))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse ABI: %w", err)
	}
	return parsed, nil
}
