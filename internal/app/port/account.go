package port

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
)

// AccountProvider brokers the user's account and transaction signing.
type AccountProvider interface {
	// RequestAccess asks the provider to expose its accounts. It fails with
	// entity.ErrProviderAbsent or entity.ErrAccountAccessDenied.
	RequestAccess(ctx context.Context) ([]common.Address, error)

	// ActiveAddress returns the account currently selected by the provider.
	ActiveAddress(ctx context.Context) (common.Address, error)

	// NativeBalance returns the native balance of address in smallest units.
	NativeBalance(ctx context.Context, address common.Address) (*big.Int, error)

	// Transactor returns signing options for the active account.
	Transactor(ctx context.Context) (*bind.TransactOpts, error)

	// SubscribeAccountsChanged delivers the provider's account list every time it changes.
	// An empty list means the user has no active account.
	SubscribeAccountsChanged(ch chan<- []common.Address) event.Subscription
}
