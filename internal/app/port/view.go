package port

import (
	"context"

	"walletview/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
)

// AccountSelector is implemented by providers that let the user switch or drop accounts.
type AccountSelector interface {
	SelectAccount(address common.Address) error
	Lock() error
}

// WalletView is the state surface rendered by the HTTP API and the CLI.
type WalletView interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	SelectAccount(ctx context.Context, address string) error
	RefreshBalances(ctx context.Context) error
	SubmitDeposit(ctx context.Context, amount string) error
	SubmitWithdraw(ctx context.Context, amount string) error
	SubmitTransfer(ctx context.Context, recipient, amount string) error
	State() entity.ViewState
}
