package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"walletview/internal/app/port"
	"walletview/internal/domain/entity"
	"walletview/internal/pkg/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// ProviderAbsentNotice is shown when no account provider can be reached.
const ProviderAbsentNotice = "No account provider available. Configure a keystore and an RPC endpoint, then connect again."

const (
	defaultConfirmationTimeout = 5 * time.Minute
	defaultEventTimeout        = 30 * time.Second
)

// ViewConfig holds the static settings of a WalletClientView.
type ViewConfig struct {
	ContractAddress     common.Address
	Network             entity.NetworkDefinition
	RefreshInterval     time.Duration // 0 disables periodic refresh
	ConfirmationTimeout time.Duration
	ReadRateLimit       float64 // reads per second, 0 means unlimited
	ReadBurst           int
}

// WalletClientView mirrors the wallet contract into display state and submits
// user actions against it.
type WalletClientView struct {
	provider port.AccountProvider
	binder   port.ContractBinder
	store    port.DisplayStore
	metrics  port.Metrics
	logger   port.Logger
	cfg      ViewConfig
	limiter  *rate.Limiter

	mu          sync.RWMutex
	conn        entity.ConnectionState
	handle      port.ContractHandle
	balances    entity.DisplayBalances
	pending     entity.PendingActions
	form        entity.Form
	notice      string
	generation  uint64
	connectedAt time.Time

	// connectMu serializes connection attempts.
	connectMu sync.Mutex

	mountMu sync.Mutex
	sub     event.Subscription
	cancel  context.CancelFunc
	done    chan struct{}
}

var _ port.WalletView = (*WalletClientView)(nil)

// NewWalletClientView creates a new view. provider may be nil, in which case
// every connection attempt reports entity.ErrProviderAbsent. store and metrics
// are optional.
func NewWalletClientView(
	provider port.AccountProvider,
	binder port.ContractBinder,
	store port.DisplayStore,
	metrics port.Metrics,
	logger port.Logger,
	cfg ViewConfig,
) *WalletClientView {
	if cfg.ConfirmationTimeout <= 0 {
		cfg.ConfirmationTimeout = defaultConfirmationTimeout
	}
	limit := rate.Inf
	if cfg.ReadRateLimit > 0 {
		limit = rate.Limit(cfg.ReadRateLimit)
	}
	if cfg.ReadBurst <= 0 {
		cfg.ReadBurst = 2
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &WalletClientView{
		provider: provider,
		binder:   binder,
		store:    store,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
		limiter:  rate.NewLimiter(limit, cfg.ReadBurst),
		balances: entity.NewDisplayBalances(),
	}
}

// Mount registers the accounts-changed subscription and starts the event loop.
// Calling Mount on a mounted view does nothing.
func (v *WalletClientView) Mount(ctx context.Context) {
	v.mountMu.Lock()
	defer v.mountMu.Unlock()

	if v.sub != nil || v.provider == nil {
		return
	}

	ch := make(chan []common.Address, 4)
	sub := v.provider.SubscribeAccountsChanged(ch)
	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	v.sub, v.cancel, v.done = sub, cancel, done
	go v.eventLoop(loopCtx, ch, sub, done)
	v.logger.Debug("Wallet view mounted", "refresh_interval", v.cfg.RefreshInterval)
}

// Unmount deregisters the subscription and waits for the event loop to exit.
func (v *WalletClientView) Unmount() {
	v.mountMu.Lock()
	defer v.mountMu.Unlock()

	if v.sub == nil {
		return
	}
	v.cancel()
	v.sub.Unsubscribe()
	<-v.done
	v.sub, v.cancel, v.done = nil, nil, nil
	v.logger.Debug("Wallet view unmounted")
}

func (v *WalletClientView) mounted() bool {
	v.mountMu.Lock()
	defer v.mountMu.Unlock()
	return v.sub != nil
}

func (v *WalletClientView) eventLoop(ctx context.Context, ch <-chan []common.Address, sub event.Subscription, done chan struct{}) {
	defer close(done)

	var tick <-chan time.Time
	if v.cfg.RefreshInterval > 0 {
		ticker := time.NewTicker(v.cfg.RefreshInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-sub.Err():
			if ok && err != nil {
				v.logger.Error("Accounts subscription failed", "error", err)
			}
			return
		case accounts := <-ch:
			v.handleAccountsChanged(ctx, accounts)
		case <-tick:
			if !v.State().Connection.IsConnected {
				continue
			}
			refreshCtx, cancel := context.WithTimeout(ctx, defaultEventTimeout)
			if err := v.RefreshBalances(refreshCtx); err != nil {
				v.logger.Debug("Periodic balance refresh incomplete", "error", err)
			}
			cancel()
		}
	}
}

func (v *WalletClientView) handleAccountsChanged(ctx context.Context, accounts []common.Address) {
	v.metrics.ObserveAccountsChanged(len(accounts))
	if len(accounts) == 0 {
		v.logger.Info("Provider reports no active accounts, disconnecting")
		v.clearConnection()
		return
	}

	v.logger.Info("Provider accounts changed, reconnecting", "accounts", len(accounts))
	connectCtx, cancel := context.WithTimeout(ctx, defaultEventTimeout)
	defer cancel()
	if err := v.Connect(connectCtx); err != nil {
		v.logger.Warn("Reconnect after accounts change failed", "error", err)
	}
}

// Connect requests account access, binds the contract for the active account and
// refreshes both balances. Balance read failures are logged and do not fail Connect.
func (v *WalletClientView) Connect(ctx context.Context) error {
	v.connectMu.Lock()
	defer v.connectMu.Unlock()

	if v.provider == nil {
		v.setNotice(ProviderAbsentNotice)
		v.logger.Error("Cannot connect", "error", entity.ErrProviderAbsent)
		return entity.ErrProviderAbsent
	}

	v.mu.RLock()
	startGen := v.generation
	v.mu.RUnlock()

	accounts, err := v.provider.RequestAccess(ctx)
	if err != nil {
		if errors.Is(err, entity.ErrProviderAbsent) {
			v.setNotice(ProviderAbsentNotice)
		}
		v.logger.Error("Account access request failed", "error", err)
		return err
	}
	if len(accounts) == 0 {
		v.logger.Warn("Provider granted access to zero accounts")
		return fmt.Errorf("%w: no accounts exposed", entity.ErrAccountAccessDenied)
	}

	address, err := v.provider.ActiveAddress(ctx)
	if err != nil {
		v.logger.Error("Failed to resolve active address", "error", err)
		return fmt.Errorf("%w: active address: %w", entity.ErrAccountAccessDenied, err)
	}

	handle, err := v.binder.Bind(ctx, v.cfg.ContractAddress, v.provider)
	if err != nil {
		v.logger.Error("Failed to bind wallet contract", "contract", v.cfg.ContractAddress.Hex(), "error", err)
		return fmt.Errorf("bind contract %s: %w", v.cfg.ContractAddress.Hex(), err)
	}

	v.mu.Lock()
	if v.generation != startGen {
		// Disconnected while the provider was being asked.
		v.mu.Unlock()
		v.logger.Info("Connection attempt superseded by disconnect", "address", address.Hex())
		return fmt.Errorf("%w: disconnected while connecting", entity.ErrNotConnected)
	}
	v.conn = entity.ConnectionState{Address: address.Hex(), IsConnected: true}
	v.handle = handle
	v.notice = ""
	v.generation++
	v.connectedAt = time.Now()
	v.balances = entity.NewDisplayBalances()
	if v.store != nil {
		if cached, ok := v.store.Load(address.Hex()); ok {
			cached.Stale = true
			v.balances = cached
		}
	}
	v.mu.Unlock()

	v.logger.Info("Wallet connected", "address", address.Hex(), "contract", handle.Address().Hex())

	if err := v.RefreshBalances(ctx); err != nil {
		v.logger.Warn("Initial balance refresh incomplete", "error", err)
	}
	return nil
}

// Disconnect drops the connection. Providers that can lock their accounts are asked to.
// A Connect still waiting on the provider gives up instead of reconnecting.
func (v *WalletClientView) Disconnect(ctx context.Context) error {
	if locker, ok := v.provider.(port.AccountSelector); ok {
		if err := locker.Lock(); err != nil {
			v.logger.Warn("Failed to lock provider accounts", "error", err)
		}
	}
	v.clearConnection()
	return nil
}

// SelectAccount switches the provider to another account and reconnects.
func (v *WalletClientView) SelectAccount(ctx context.Context, address string) error {
	if !common.IsHexAddress(address) {
		return fmt.Errorf("%w: %q", entity.ErrInvalidRecipient, address)
	}
	selector, ok := v.provider.(port.AccountSelector)
	if !ok {
		return fmt.Errorf("%w: provider cannot switch accounts", entity.ErrAccountAccessDenied)
	}
	if err := selector.SelectAccount(common.HexToAddress(address)); err != nil {
		return err
	}
	// A mounted view reconnects from the accounts-changed event.
	if v.mounted() {
		return nil
	}
	return v.Connect(ctx)
}

func (v *WalletClientView) clearConnection() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.conn = entity.ConnectionState{}
	v.handle = nil
	v.generation++
}

func (v *WalletClientView) setNotice(notice string) {
	v.mu.Lock()
	v.notice = notice
	v.mu.Unlock()
}

// RefreshBalances refreshes the user and contract balances concurrently.
func (v *WalletClientView) RefreshBalances(ctx context.Context) error {
	var userErr, contractErr error
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		userErr = v.RefreshUserBalance(gctx)
		return nil
	})
	g.Go(func() error {
		contractErr = v.RefreshContractBalance(gctx)
		return nil
	})
	_ = g.Wait()
	return errors.Join(userErr, contractErr)
}

// RefreshUserBalance reads the native balance of the connected account.
// On failure the previous display value is kept.
func (v *WalletClientView) RefreshUserBalance(ctx context.Context) error {
	v.mu.RLock()
	conn, gen := v.conn, v.generation
	v.mu.RUnlock()

	if !conn.IsConnected {
		return entity.ErrNotConnected
	}

	amount, err := v.read(ctx, "user", func(ctx context.Context) (*big.Int, error) {
		return v.provider.NativeBalance(ctx, common.HexToAddress(conn.Address))
	})
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.generation != gen {
		return nil
	}
	v.balances.UserBalance = utils.FormatBigInt(amount, v.decimals())
	v.balances.UserUpdatedAt = time.Now()
	v.commitBalancesLocked()
	return nil
}

// RefreshContractBalance reads the contract's balance accessor.
// On failure the previous display value is kept.
func (v *WalletClientView) RefreshContractBalance(ctx context.Context) error {
	v.mu.RLock()
	handle, gen := v.handle, v.generation
	v.mu.RUnlock()

	if handle == nil {
		return entity.ErrNotConnected
	}

	amount, err := v.read(ctx, "contract", handle.GetBalance)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.generation != gen {
		return nil
	}
	v.balances.ContractBalance = utils.FormatBigInt(amount, v.decimals())
	v.balances.ContractUpdatedAt = time.Now()
	v.commitBalancesLocked()
	return nil
}

func (v *WalletClientView) read(ctx context.Context, kind string, fetch func(context.Context) (*big.Int, error)) (*big.Int, error) {
	if err := v.limiter.Wait(ctx); err != nil {
		v.metrics.ObserveRead(kind, "error")
		return nil, fmt.Errorf("%w: %s balance: %w", entity.ErrReadFailure, kind, err)
	}
	amount, err := fetch(ctx)
	if err == nil && amount == nil {
		err = errors.New("empty result")
	}
	if err != nil {
		v.metrics.ObserveRead(kind, "error")
		v.logger.Error("Failed to fetch balance", "kind", kind, "error", err)
		return nil, fmt.Errorf("%w: %s balance: %w", entity.ErrReadFailure, kind, err)
	}
	v.metrics.ObserveRead(kind, "ok")
	return amount, nil
}

// commitBalancesLocked clears the stale mark once both values were read after
// connecting and saves the snapshot. v.mu must be held.
func (v *WalletClientView) commitBalancesLocked() {
	b := &v.balances
	if !b.UserUpdatedAt.Before(v.connectedAt) && !b.ContractUpdatedAt.Before(v.connectedAt) {
		b.Stale = false
	}
	if v.store != nil && v.conn.IsConnected {
		v.store.Save(v.conn.Address, *b)
	}
}

// SubmitDeposit sends amount (native currency decimal string) to the contract's payable deposit.
func (v *WalletClientView) SubmitDeposit(ctx context.Context, amount string) error {
	return v.submit(ctx, entity.ActionDeposit,
		func(f *entity.Form) { f.DepositAmount = amount },
		func(f *entity.Form) { f.DepositAmount = "" },
		amount, "",
		func(ctx context.Context, h port.ContractHandle, _ common.Address, value *big.Int) (port.PendingTransaction, error) {
			return h.Deposit(ctx, value)
		})
}

// SubmitWithdraw withdraws amount (native currency decimal string) from the contract.
func (v *WalletClientView) SubmitWithdraw(ctx context.Context, amount string) error {
	return v.submit(ctx, entity.ActionWithdraw,
		func(f *entity.Form) { f.WithdrawAmount = amount },
		func(f *entity.Form) { f.WithdrawAmount = "" },
		amount, "",
		func(ctx context.Context, h port.ContractHandle, _ common.Address, value *big.Int) (port.PendingTransaction, error) {
			return h.Withdraw(ctx, value)
		})
}

// SubmitTransfer moves amount (native currency decimal string) to recipient inside the contract.
func (v *WalletClientView) SubmitTransfer(ctx context.Context, recipient, amount string) error {
	return v.submit(ctx, entity.ActionTransfer,
		func(f *entity.Form) { f.TransferRecipient, f.TransferAmount = recipient, amount },
		func(f *entity.Form) { f.TransferRecipient, f.TransferAmount = "", "" },
		amount, recipient,
		func(ctx context.Context, h port.ContractHandle, to common.Address, value *big.Int) (port.PendingTransaction, error) {
			return h.Transfer(ctx, to, value)
		})
}

type invokeFunc func(ctx context.Context, h port.ContractHandle, to common.Address, amount *big.Int) (port.PendingTransaction, error)

func (v *WalletClientView) submit(
	ctx context.Context,
	kind entity.ActionKind,
	record, reset func(*entity.Form),
	amountStr, recipient string,
	invoke invokeFunc,
) error {
	v.mu.Lock()
	record(&v.form)
	v.mu.Unlock()

	amount, to, err := validateInput(kind, amountStr, recipient, v.decimals())
	if err != nil {
		v.logger.Debug("Action not submitted", "action", kind.String(), "error", err)
		return err
	}

	v.mu.Lock()
	if !v.conn.IsConnected || v.handle == nil {
		v.mu.Unlock()
		return entity.ErrNotConnected
	}
	if v.pending.Get(kind) {
		v.mu.Unlock()
		v.metrics.ObserveAction(kind.String(), "rejected")
		return fmt.Errorf("%w: %s", entity.ErrActionInFlight, kind)
	}
	v.pending.Set(kind, true)
	handle := v.handle
	v.mu.Unlock()

	defer func() {
		v.mu.Lock()
		v.pending.Set(kind, false)
		v.mu.Unlock()
	}()

	v.logger.Info("Submitting action", "action", kind.String(), "amount_wei", amount.String(), "contract", handle.Address().Hex())

	tx, err := invoke(ctx, handle, to, amount)
	if err != nil {
		return v.actionFailed(kind, err)
	}

	// Once sent, the wait outlives the caller.
	waitCtx := context.WithoutCancel(ctx)
	confirmCtx, cancel := context.WithTimeout(waitCtx, v.cfg.ConfirmationTimeout)
	defer cancel()
	started := time.Now()
	err = tx.AwaitConfirmation(confirmCtx)
	v.metrics.ObserveConfirmation(kind.String(), time.Since(started))
	if err != nil {
		return v.actionFailed(kind, fmt.Errorf("tx %s: %w", tx.Hash().Hex(), err))
	}

	v.mu.Lock()
	reset(&v.form)
	v.mu.Unlock()

	v.metrics.ObserveAction(kind.String(), "ok")
	v.logger.Info("Action confirmed", "action", kind.String(), "tx", tx.Hash().Hex())

	refreshCtx, cancelRefresh := context.WithTimeout(waitCtx, defaultEventTimeout)
	defer cancelRefresh()
	if err := v.RefreshContractBalance(refreshCtx); err != nil {
		v.logger.Warn("Contract balance refresh after action failed", "action", kind.String(), "error", err)
	}
	return nil
}

func (v *WalletClientView) actionFailed(kind entity.ActionKind, err error) error {
	v.metrics.ObserveAction(kind.String(), "error")
	v.logger.Error("Action failed", "action", kind.String(), "error", err)
	return fmt.Errorf("%w: %s: %w", entity.ErrTransactionFailure, kind, err)
}

// decimals is the smallest-unit scale of the network's native currency.
func (v *WalletClientView) decimals() uint8 {
	if v.cfg.Network.Decimals == 0 {
		return utils.EtherDecimals
	}
	return v.cfg.Network.Decimals
}

func validateInput(kind entity.ActionKind, amountStr, recipient string, decimals uint8) (*big.Int, common.Address, error) {
	var to common.Address
	if kind == entity.ActionTransfer {
		if strings.TrimSpace(recipient) == "" {
			return nil, to, fmt.Errorf("%w: recipient", entity.ErrNothingToSubmit)
		}
	}
	if strings.TrimSpace(amountStr) == "" {
		return nil, to, fmt.Errorf("%w: amount", entity.ErrNothingToSubmit)
	}
	if kind == entity.ActionTransfer {
		if !common.IsHexAddress(strings.TrimSpace(recipient)) {
			return nil, to, fmt.Errorf("%w: %q", entity.ErrInvalidRecipient, recipient)
		}
		to = common.HexToAddress(strings.TrimSpace(recipient))
	}

	if strings.HasPrefix(strings.TrimSpace(amountStr), "-") {
		return nil, to, fmt.Errorf("%w: %q is negative", entity.ErrInvalidAmount, amountStr)
	}
	amount, err := utils.ParseBigInt(amountStr, decimals)
	if err != nil {
		return nil, to, fmt.Errorf("%w: %w", entity.ErrInvalidAmount, err)
	}
	if _, err := utils.ToUint256(amount); err != nil {
		return nil, to, fmt.Errorf("%w: %w", entity.ErrInvalidAmount, err)
	}
	return amount, to, nil
}

// State returns a snapshot of the view for rendering.
func (v *WalletClientView) State() entity.ViewState {
	v.mu.RLock()
	defer v.mu.RUnlock()

	state := entity.ViewState{
		Connection:   v.conn,
		Network:      v.cfg.Network.Name,
		NativeSymbol: v.cfg.Network.NativeSymbol,
		Balances:     v.balances,
		Pending:      v.pending,
		Form:         v.form,
		Notice:       v.notice,
	}
	if v.handle != nil {
		state.ContractAddress = v.handle.Address().Hex()
	} else if v.cfg.ContractAddress != (common.Address{}) {
		state.ContractAddress = v.cfg.ContractAddress.Hex()
	}
	return state
}

type noopMetrics struct{}

func (noopMetrics) ObserveAction(string, string)              {}
func (noopMetrics) ObserveRead(string, string)                {}
func (noopMetrics) ObserveConfirmation(string, time.Duration) {}
func (noopMetrics) ObserveAccountsChanged(int)                {}
