package accountprovider

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"sync"

	"walletview/internal/app/port"
	"walletview/internal/domain/entity"
	"walletview/internal/infrastructure/configloader"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
)

// KeystoreProvider exposes the accounts of an encrypted key directory to the
// wallet view. Accounts are unlocked with a single passphrase on RequestAccess.
type KeystoreProvider struct {
	ks         *keystore.KeyStore
	client     port.BlockchainClient
	passphrase string
	preferred  common.Address
	logger     port.Logger

	mu     sync.RWMutex
	active common.Address

	feed      event.Feed
	walletSub event.Subscription
	quit      chan struct{}
	closeOnce sync.Once
}

var (
	_ port.AccountProvider = (*KeystoreProvider)(nil)
	_ port.AccountSelector = (*KeystoreProvider)(nil)
)

// Open opens the keystore directory named by cfg. A missing directory is
// reported as entity.ErrProviderAbsent.
func Open(cfg configloader.KeystoreConfig, client port.BlockchainClient, logger port.Logger) (*KeystoreProvider, error) {
	info, err := os.Stat(cfg.Dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: keystore directory %q unavailable", entity.ErrProviderAbsent, cfg.Dir)
	}
	scryptN, scryptP := keystore.StandardScryptN, keystore.StandardScryptP
	if cfg.LightScrypt {
		scryptN, scryptP = keystore.LightScryptN, keystore.LightScryptP
	}
	var preferred common.Address
	if cfg.Account != "" {
		preferred = common.HexToAddress(cfg.Account)
	}
	return NewKeystoreProvider(keystore.NewKeyStore(cfg.Dir, scryptN, scryptP), client, cfg.Passphrase, preferred, logger), nil
}

// NewKeystoreProvider wraps ks. client serves balance reads and the chain id for
// signing; a nil client makes those calls fail with entity.ErrProviderAbsent.
// A zero preferred address selects the first account of the keystore.
func NewKeystoreProvider(
	ks *keystore.KeyStore,
	client port.BlockchainClient,
	passphrase string,
	preferred common.Address,
	logger port.Logger,
) *KeystoreProvider {
	p := &KeystoreProvider{
		ks:         ks,
		client:     client,
		passphrase: passphrase,
		preferred:  preferred,
		logger:     logger,
		quit:       make(chan struct{}),
	}
	events := make(chan accounts.WalletEvent, 8)
	p.walletSub = ks.Subscribe(events)
	go p.watchWallets(events)
	return p
}

// watchWallets turns the removal of the active key file into an accounts change.
func (p *KeystoreProvider) watchWallets(events <-chan accounts.WalletEvent) {
	for {
		select {
		case <-p.quit:
			return
		case err := <-p.walletSub.Err():
			if err != nil {
				p.logger.Error("Keystore subscription failed", "error", err)
			}
			return
		case ev := <-events:
			if ev.Kind != accounts.WalletDropped {
				continue
			}
			for _, acc := range ev.Wallet.Accounts() {
				p.mu.Lock()
				dropped := acc.Address == p.active
				if dropped {
					p.active = common.Address{}
				}
				p.mu.Unlock()
				if dropped {
					p.logger.Warn("Active key removed from keystore", "address", acc.Address.Hex())
					p.feed.Send([]common.Address{})
				}
			}
		}
	}
}

// RequestAccess unlocks the selected account and returns every keystore
// account, the active one first.
func (p *KeystoreProvider) RequestAccess(ctx context.Context) ([]common.Address, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	all := p.ks.Accounts()
	if len(all) == 0 {
		return nil, fmt.Errorf("%w: keystore holds no accounts", entity.ErrAccountAccessDenied)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	target := p.pickLocked(all)
	if err := p.ks.Unlock(target, p.passphrase); err != nil {
		p.logger.Warn("Keystore unlock failed", "address", target.Address.Hex(), "error", err)
		if errors.Is(err, keystore.ErrDecrypt) {
			return nil, fmt.Errorf("%w: wrong passphrase for %s", entity.ErrAccountAccessDenied, target.Address.Hex())
		}
		return nil, fmt.Errorf("%w: %w", entity.ErrAccountAccessDenied, err)
	}
	p.active = target.Address

	addresses := make([]common.Address, 0, len(all))
	addresses = append(addresses, target.Address)
	for _, acc := range all {
		if acc.Address != target.Address {
			addresses = append(addresses, acc.Address)
		}
	}
	p.logger.Debug("Keystore access granted", "address", target.Address.Hex(), "accounts", len(addresses))
	return addresses, nil
}

// pickLocked prefers the current account, then the configured one, then the first.
func (p *KeystoreProvider) pickLocked(all []accounts.Account) accounts.Account {
	for _, want := range []common.Address{p.active, p.preferred} {
		if want == (common.Address{}) {
			continue
		}
		for _, acc := range all {
			if acc.Address == want {
				return acc
			}
		}
	}
	return all[0]
}

// ActiveAddress returns the unlocked account.
func (p *KeystoreProvider) ActiveAddress(context.Context) (common.Address, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.active == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: no unlocked account", entity.ErrAccountAccessDenied)
	}
	return p.active, nil
}

// NativeBalance reads the native balance of address from the node.
func (p *KeystoreProvider) NativeBalance(ctx context.Context, address common.Address) (*big.Int, error) {
	if p.client == nil {
		return nil, fmt.Errorf("%w: no RPC client", entity.ErrProviderAbsent)
	}
	return p.client.GetNativeBalance(ctx, address.Hex())
}

// Transactor returns options that sign with the active account for the node's chain.
// It refuses when the node serves a different chain than the configured network.
func (p *KeystoreProvider) Transactor(ctx context.Context) (*bind.TransactOpts, error) {
	if p.client == nil {
		return nil, fmt.Errorf("%w: no RPC client", entity.ErrProviderAbsent)
	}
	address, err := p.ActiveAddress(ctx)
	if err != nil {
		return nil, err
	}
	chainID, err := p.client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}
	if want := p.client.Definition(); want.ChainID != 0 && (!chainID.IsUint64() || chainID.Uint64() != want.ChainID) {
		return nil, fmt.Errorf("node serves chain %s, configured network %s is chain %d", chainID, want.Name, want.ChainID)
	}
	opts, err := bind.NewKeyStoreTransactorWithChainID(p.ks, accounts.Account{Address: address}, chainID)
	if err != nil {
		return nil, fmt.Errorf("keystore transactor for %s: %w", address.Hex(), err)
	}
	opts.Context = ctx
	return opts, nil
}

// SubscribeAccountsChanged delivers account changes caused by SelectAccount,
// Lock and removal of the active key file.
func (p *KeystoreProvider) SubscribeAccountsChanged(ch chan<- []common.Address) event.Subscription {
	return p.feed.Subscribe(ch)
}

// SelectAccount unlocks address and makes it the active account.
func (p *KeystoreProvider) SelectAccount(address common.Address) error {
	if !p.ks.HasAddress(address) {
		return fmt.Errorf("%w: %s is not in the keystore", entity.ErrAccountAccessDenied, address.Hex())
	}
	p.mu.Lock()
	if err := p.ks.Unlock(accounts.Account{Address: address}, p.passphrase); err != nil {
		p.mu.Unlock()
		return fmt.Errorf("%w: unlock %s: %w", entity.ErrAccountAccessDenied, address.Hex(), err)
	}
	p.active = address
	p.mu.Unlock()

	p.logger.Info("Keystore account selected", "address", address.Hex())
	p.feed.Send([]common.Address{address})
	return nil
}

// Lock relocks the active account and reports that no account is active.
func (p *KeystoreProvider) Lock() error {
	p.mu.Lock()
	active := p.active
	p.active = common.Address{}
	p.mu.Unlock()

	if active == (common.Address{}) {
		return nil
	}
	if err := p.ks.Lock(active); err != nil {
		return fmt.Errorf("lock %s: %w", active.Hex(), err)
	}
	p.logger.Info("Keystore account locked", "address", active.Hex())
	p.feed.Send([]common.Address{})
	return nil
}

// Close stops watching the keystore.
func (p *KeystoreProvider) Close() {
	p.closeOnce.Do(func() {
		close(p.quit)
		p.walletSub.Unsubscribe()
	})
}
