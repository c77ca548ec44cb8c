package service

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"

	"walletview/internal/app/port"
	"walletview/internal/domain/entity"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/event"
)

type fakeProvider struct {
	mu         sync.Mutex
	accounts   []common.Address
	active     common.Address
	balances   map[common.Address]*big.Int
	accessErr  error
	balanceErr error
	// activeGate, when set, blocks ActiveAddress until closed; activeEntered
	// receives once ActiveAddress is waiting on it.
	activeGate    chan struct{}
	activeEntered chan struct{}

	feed          event.Feed
	subscriptions atomic.Int32
	balanceReads  atomic.Int32
}

func newFakeProvider(accounts ...common.Address) *fakeProvider {
	p := &fakeProvider{accounts: accounts, balances: make(map[common.Address]*big.Int)}
	if len(accounts) > 0 {
		p.active = accounts[0]
	}
	return p
}

func (p *fakeProvider) RequestAccess(context.Context) ([]common.Address, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.accessErr != nil {
		return nil, p.accessErr
	}
	return append([]common.Address(nil), p.accounts...), nil
}

func (p *fakeProvider) ActiveAddress(ctx context.Context) (common.Address, error) {
	p.mu.Lock()
	gate, entered := p.activeGate, p.activeEntered
	p.mu.Unlock()

	if gate != nil {
		if entered != nil {
			entered <- struct{}{}
		}
		select {
		case <-gate:
		case <-ctx.Done():
			return common.Address{}, ctx.Err()
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active, nil
}

func (p *fakeProvider) NativeBalance(_ context.Context, address common.Address) (*big.Int, error) {
	p.balanceReads.Add(1)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.balanceErr != nil {
		return nil, p.balanceErr
	}
	if b, ok := p.balances[address]; ok {
		return new(big.Int).Set(b), nil
	}
	return big.NewInt(0), nil
}

func (p *fakeProvider) Transactor(context.Context) (*bind.TransactOpts, error) {
	return nil, errors.New("not used")
}

func (p *fakeProvider) SubscribeAccountsChanged(ch chan<- []common.Address) event.Subscription {
	p.subscriptions.Add(1)
	return p.feed.Subscribe(ch)
}

func (p *fakeProvider) SelectAccount(address common.Address) error {
	p.mu.Lock()
	p.active = address
	accounts := []common.Address{address}
	p.mu.Unlock()
	p.feed.Send(accounts)
	return nil
}

func (p *fakeProvider) Lock() error {
	p.feed.Send([]common.Address{})
	return nil
}

func (p *fakeProvider) setBalance(a common.Address, v *big.Int) {
	p.mu.Lock()
	p.balances[a] = v
	p.mu.Unlock()
}

type call struct {
	method string
	to     common.Address
	amount *big.Int
}

type fakeContract struct {
	address common.Address

	mu         sync.Mutex
	balance    *big.Int
	calls      []call
	submitErr  error
	confirmErr error
	// gate, when set, blocks AwaitConfirmation until closed.
	gate chan struct{}

	reads atomic.Int32
}

func newFakeContract(balance *big.Int) *fakeContract {
	return &fakeContract{
		address: common.HexToAddress("0x00000000000000000000000000000000000c0de1"),
		balance: balance,
	}
}

func (c *fakeContract) Address() common.Address { return c.address }

func (c *fakeContract) GetBalance(context.Context) (*big.Int, error) {
	c.reads.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	return new(big.Int).Set(c.balance), nil
}

func (c *fakeContract) record(method string, to common.Address, amount *big.Int, delta func(*big.Int)) (port.PendingTransaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call{method: method, to: to, amount: new(big.Int).Set(amount)})
	if c.submitErr != nil {
		return nil, c.submitErr
	}
	return &fakeTx{
		hash:     crypto.Keccak256Hash([]byte(method), amount.Bytes()),
		contract: c,
		apply: func() {
			c.mu.Lock()
			delta(c.balance)
			c.mu.Unlock()
		},
	}, nil
}

func (c *fakeContract) Deposit(_ context.Context, value *big.Int) (port.PendingTransaction, error) {
	return c.record("deposit", common.Address{}, value, func(b *big.Int) { b.Add(b, value) })
}

func (c *fakeContract) Withdraw(_ context.Context, amount *big.Int) (port.PendingTransaction, error) {
	return c.record("withdraw", common.Address{}, amount, func(b *big.Int) { b.Sub(b, amount) })
}

func (c *fakeContract) Transfer(_ context.Context, to common.Address, amount *big.Int) (port.PendingTransaction, error) {
	return c.record("transfer", to, amount, func(b *big.Int) { b.Sub(b, amount) })
}

func (c *fakeContract) recorded() []call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]call(nil), c.calls...)
}

type fakeTx struct {
	hash     common.Hash
	contract *fakeContract
	apply    func()
}

func (t *fakeTx) Hash() common.Hash { return t.hash }

func (t *fakeTx) AwaitConfirmation(ctx context.Context) error {
	t.contract.mu.Lock()
	gate, confirmErr := t.contract.gate, t.contract.confirmErr
	t.contract.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if confirmErr != nil {
		return confirmErr
	}
	t.apply()
	return nil
}

type fakeBinder struct {
	contract *fakeContract
	binds    atomic.Int32
	err      error
}

func (b *fakeBinder) Bind(context.Context, common.Address, port.AccountProvider) (port.ContractHandle, error) {
	b.binds.Add(1)
	if b.err != nil {
		return nil, b.err
	}
	return b.contract, nil
}

type memoryStore struct {
	mu sync.Mutex
	m  map[string]entity.DisplayBalances
}

func newMemoryStore() *memoryStore {
	return &memoryStore{m: make(map[string]entity.DisplayBalances)}
}

func (s *memoryStore) Save(account string, b entity.DisplayBalances) {
	s.mu.Lock()
	s.m[account] = b
	s.mu.Unlock()
}

func (s *memoryStore) Load(account string) (entity.DisplayBalances, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.m[account]
	return b, ok
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
