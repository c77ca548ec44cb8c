package port

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// PendingTransaction is a submitted but not yet confirmed state change.
type PendingTransaction interface {
	Hash() common.Hash

	// AwaitConfirmation blocks until the transaction is mined. It fails if the
	// transaction reverts, is dropped or ctx ends first.
	AwaitConfirmation(ctx context.Context) error
}

// ContractHandle is a typed binding to the deployed wallet contract.
type ContractHandle interface {
	Address() common.Address
	GetBalance(ctx context.Context) (*big.Int, error)
	Deposit(ctx context.Context, value *big.Int) (PendingTransaction, error)
	Withdraw(ctx context.Context, amount *big.Int) (PendingTransaction, error)
	Transfer(ctx context.Context, to common.Address, amount *big.Int) (PendingTransaction, error)
}

// ContractBinder builds a ContractHandle for the given account.
type ContractBinder interface {
	Bind(ctx context.Context, contract common.Address, provider AccountProvider) (ContractHandle, error)
}
