package contract

import (
	"context"
	_ "embed"
	"fmt"
	"math/big"

	"walletview/internal/app/port"
	"walletview/internal/domain/entity"
	"walletview/internal/pkg/utils"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

//go:embed wallet.abi.json
var walletABIJSON []byte

// Wallet contract methods.
const (
	MethodDeposit    = "deposit"
	MethodWithdraw   = "withdraw"
	MethodTransfer   = "transfer"
	MethodGetBalance = "getBalance"
)

// WalletABI returns the embedded wallet contract interface.
func WalletABI() (abi.ABI, error) {
	return utils.ParseABI(walletABIJSON)
}

// Options tune transactions sent by bound wallets.
type Options struct {
	GasLimit uint64 // 0 lets the node estimate
}

// Binder binds wallet contracts on a single backend.
type Binder struct {
	backend port.ContractBackend
	abi     abi.ABI
	opts    Options
	logger  port.Logger
}

var _ port.ContractBinder = (*Binder)(nil)

// NewBinder checks that parsed exposes the wallet methods and returns a binder for backend.
func NewBinder(backend port.ContractBackend, parsed abi.ABI, opts Options, logger port.Logger) (*Binder, error) {
	for _, name := range []string{MethodDeposit, MethodWithdraw, MethodTransfer, MethodGetBalance} {
		if _, ok := parsed.Methods[name]; !ok {
			return nil, fmt.Errorf("contract interface lacks method %q", name)
		}
	}
	return &Binder{backend: backend, abi: parsed, opts: opts, logger: logger}, nil
}

// Bind returns a handle to the wallet at address that signs with the provider's active account.
func (b *Binder) Bind(ctx context.Context, address common.Address, provider port.AccountProvider) (port.ContractHandle, error) {
	if b.backend == nil {
		return nil, fmt.Errorf("%w: no contract backend", entity.ErrProviderAbsent)
	}
	auth, err := provider.Transactor(ctx)
	if err != nil {
		return nil, fmt.Errorf("transactor: %w", err)
	}
	return &Wallet{
		address: address,
		bound:   bind.NewBoundContract(address, b.abi, b.backend, b.backend, b.backend),
		backend: b.backend,
		auth:    auth,
		opts:    b.opts,
		logger:  b.logger,
	}, nil
}

// Wallet is a bound wallet contract.
type Wallet struct {
	address common.Address
	bound   *bind.BoundContract
	backend port.ContractBackend
	auth    *bind.TransactOpts
	opts    Options
	logger  port.Logger
}

// Address returns the contract address.
func (w *Wallet) Address() common.Address {
	return w.address
}

// GetBalance calls getBalance as the bound account.
func (w *Wallet) GetBalance(ctx context.Context) (*big.Int, error) {
	var out []interface{}
	if err := w.bound.Call(&bind.CallOpts{Context: ctx, From: w.auth.From}, &out, MethodGetBalance); err != nil {
		return nil, fmt.Errorf("%s: %w", MethodGetBalance, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: empty result", MethodGetBalance)
	}
	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected result type %T", MethodGetBalance, out[0])
	}
	return balance, nil
}

// Deposit sends value to the contract's deposit method.
func (w *Wallet) Deposit(ctx context.Context, value *big.Int) (port.PendingTransaction, error) {
	return w.transact(ctx, value, MethodDeposit)
}

// Withdraw asks the contract to pay amount back to the sender.
func (w *Wallet) Withdraw(ctx context.Context, amount *big.Int) (port.PendingTransaction, error) {
	return w.transact(ctx, nil, MethodWithdraw, amount)
}

// Transfer asks the contract to pay amount to another address.
func (w *Wallet) Transfer(ctx context.Context, to common.Address, amount *big.Int) (port.PendingTransaction, error) {
	return w.transact(ctx, nil, MethodTransfer, to, amount)
}

func (w *Wallet) transact(ctx context.Context, value *big.Int, method string, args ...interface{}) (port.PendingTransaction, error) {
	opts := *w.auth
	opts.Context = ctx
	opts.Value = value
	opts.GasLimit = w.opts.GasLimit

	tx, err := w.bound.Transact(&opts, method, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	w.logger.Info("Transaction sent", "method", method, "tx", tx.Hash().Hex(), "from", opts.From.Hex())
	return &pendingTx{tx: tx, method: method, backend: w.backend, logger: w.logger}, nil
}

type pendingTx struct {
	tx      *types.Transaction
	method  string
	backend port.ContractBackend
	logger  port.Logger
}

func (p *pendingTx) Hash() common.Hash {
	return p.tx.Hash()
}

// AwaitConfirmation waits until the transaction is mined or ctx ends.
func (p *pendingTx) AwaitConfirmation(ctx context.Context) error {
	receipt, err := bind.WaitMined(ctx, p.backend, p.tx)
	if err != nil {
		return fmt.Errorf("waiting for %s: %w", p.tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("%w: %s in tx %s (block %s)", entity.ErrTransactionReverted, p.method, p.tx.Hash().Hex(), receipt.BlockNumber)
	}
	p.logger.Debug("Transaction mined", "method", p.method, "tx", p.tx.Hash().Hex(), "gas_used", receipt.GasUsed)
	return nil
}
