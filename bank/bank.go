// Package bank moves tokens between addresses. The ledger only ever talks to
// the Bank interface; Memory is the in-process implementation used by the CLI
// runner and tests.
package bank

import (
	"context"
	"fmt"
	"sync"

	"github.com/holiman/uint256"

	"okinoko_ledger/contract/dao"
	"okinoko_ledger/sdk"
)

// Bank is the single outbound call a ledger operation may make.
type Bank interface {
	Transfer(ctx context.Context, from, to sdk.Address, amount *uint256.Int) error
}

// TransferHook runs after a Memory transfer has been applied. Tests use it to
// attempt re-entrant calls.
type TransferHook func(ctx context.Context, from, to sdk.Address, amount *uint256.Int)

// Memory keeps balances in a map.
type Memory struct {
	mu       sync.Mutex
	balances map[sdk.Address]*uint256.Int
	hook     TransferHook
}

var _ Bank = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{balances: make(map[sdk.Address]*uint256.Int)}
}

// Mint credits an address out of thin air, used to seed scenarios.
func (m *Memory) Mint(to sdk.Address, amount *uint256.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.balanceLocked(to)
	next, err := dao.Add(cur, amount)
	if err != nil {
		return err
	}
	m.balances[to] = next
	return nil
}

// SetHook installs a hook called after each transfer, outside the bank lock.
func (m *Memory) SetHook(h TransferHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hook = h
}

func (m *Memory) BalanceOf(addr sdk.Address) *uint256.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balanceLocked(addr).Clone()
}

func (m *Memory) balanceLocked(addr sdk.Address) *uint256.Int {
	if b, ok := m.balances[addr]; ok {
		return b
	}
	return dao.Zero()
}

func (m *Memory) Transfer(ctx context.Context, from, to sdk.Address, amount *uint256.Int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	src := m.balanceLocked(from)
	if src.Lt(amount) {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s holds %s, needs %s", dao.ErrInsufficientBalance, from, src.Dec(), amount.Dec())
	}
	dst := m.balanceLocked(to)
	next, err := dao.Add(dst, amount)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.balances[from] = new(uint256.Int).Sub(src, amount)
	m.balances[to] = next
	hook := m.hook
	m.mu.Unlock()

	if hook != nil {
		hook(ctx, from, to, amount)
	}
	return nil
}
