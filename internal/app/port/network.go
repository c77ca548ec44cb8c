package port

import (
	"context"
	"math/big"

	"walletview/internal/domain/entity"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// BlockchainClient defines the interface for interacting with an EVM network.
type BlockchainClient interface {
	// GetNativeBalance fetches the native currency balance (e.g., ETH) for a wallet.
	GetNativeBalance(ctx context.Context, walletAddress string) (*big.Int, error)

	// ChainID returns the chain id reported by the node.
	ChainID(ctx context.Context) (*big.Int, error)

	// Backend exposes the client as a contract backend for bound contracts.
	Backend() ContractBackend

	// Definition returns the network definition associated with this client.
	Definition() entity.NetworkDefinition
}

// ContractBackend is what a bound contract needs to call, transact and wait for receipts.
type ContractBackend interface {
	bind.ContractBackend
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// NetworkDefinitionProvider defines the interface for providing network definitions.
type NetworkDefinitionProvider interface {
	// GetAllNetworkDefinitions returns all known network definitions as a slice.
	GetAllNetworkDefinitions() []entity.NetworkDefinition

	// GetNetworkDefinitionByName returns a specific network definition by its identifier.
	GetNetworkDefinitionByName(identifier string) (entity.NetworkDefinition, bool)
}

// BlockchainClientProvider defines the interface for providing blockchain clients.
type BlockchainClientProvider interface {
	GetClient(networkDefinition entity.NetworkDefinition) (BlockchainClient, error)
}
