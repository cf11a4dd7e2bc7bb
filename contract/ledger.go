package contract

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"okinoko_ledger/bank"
	"okinoko_ledger/contract/dao"
	"okinoko_ledger/sdk"
	"okinoko_ledger/state"
)

// Emitter receives notifications after the operation that produced them committed.
type Emitter interface {
	Emit(dao.Event)
}

// EmitterFunc adapts a plain function to Emitter.
type EmitterFunc func(dao.Event)

func (f EmitterFunc) Emit(e dao.Event) { f(e) }

// OwnershipNotifier is the one registry capability a ledger holds: telling it
// that ownership moved. It cannot create instances or rewrite other mappings.
type OwnershipNotifier interface {
	NotifyOwnershipChanged(ctx context.Context, instance, oldOwner, newOwner sdk.Address) error
}

// Ledger is one delegate's settlement instance: deposits and rewards, the
// receipt balance, the vote record and the per-proposal stake markets.
// Operations are serialized and each runs in a single store transaction.
type Ledger struct {
	addr     sdk.Address
	store    state.Store
	bank     bank.Bank
	notifier OwnershipNotifier
	emitter  Emitter
	logger   *slog.Logger
	metrics  *metrics

	mu sync.Mutex
}

func (l *Ledger) Address() sdk.Address { return l.addr }

// exec runs body inside one write transaction. Transfers queued by the body run
// after it returns and before commit; notifications go out only after commit.
func (l *Ledger) exec(ctx context.Context, op string, env sdk.Env, body func(*call) error) error {
	started := time.Now()
	if inflight(ctx) {
		l.metrics.observe(op, started, dao.ErrReentrantCall)
		return dao.ErrReentrantCall
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	c := newCall(ctx, env, l.addr)
	err := l.store.Update(ctx, func(txn state.Txn) error {
		// a retried body starts from the balances it found
		l.unwind(op, c)
		c.reset(txn)
		if err := body(c); err != nil {
			return err
		}
		return c.settle(l.bank)
	})
	l.metrics.observe(op, started, err)
	if err != nil {
		l.unwind(op, c)
		l.logger.Debug("operation rejected", "op", op, "caller", env.Caller(), "error", err)
		return err
	}
	l.logger.Debug("operation applied", "op", op, "caller", env.Caller(), "events", len(c.events))
	l.publish(c.events)
	for _, fn := range c.committed {
		fn(ctx)
	}
	return nil
}

// unwind reverses transfers of an attempt that did not commit. A reversal
// that fails leaves tokens out of place and is logged as an error.
func (l *Ledger) unwind(op string, c *call) {
	if len(c.moved) == 0 {
		return
	}
	for _, err := range c.unwind(l.bank) {
		l.logger.Error("could not reverse transfer after failed commit", "op", op, "error", err)
	}
}

// view runs body in a read-only transaction. Views are rejected from inside
// an operation too so a callback cannot observe half-applied state.
func (l *Ledger) view(ctx context.Context, body func(*call) error) error {
	if inflight(ctx) {
		return dao.ErrReentrantCall
	}
	c := newCall(ctx, sdk.Env{}, l.addr)
	return l.store.View(ctx, func(txn state.Txn) error {
		c.reset(txn)
		return body(c)
	})
}

func (l *Ledger) publish(events []dao.Event) {
	if l.emitter == nil {
		return
	}
	for _, e := range events {
		l.emitter.Emit(e)
	}
}

// Meta returns the instance's identity record.
func (l *Ledger) Meta(ctx context.Context) (*dao.InstanceMeta, error) {
	var meta *dao.InstanceMeta
	err := l.view(ctx, func(c *call) error {
		var err error
		meta, err = loadInstanceMeta(c.txn, l.addr)
		return err
	})
	return meta, err
}

// Owner returns the current owner as recorded by the instance itself.
func (l *Ledger) Owner(ctx context.Context) (sdk.Address, error) {
	meta, err := l.Meta(ctx)
	if err != nil {
		return sdk.ZeroAddress, err
	}
	return meta.Owner, nil
}

// IsAuthorized reports whether addr may call privileged operations.
func (l *Ledger) IsAuthorized(ctx context.Context, addr sdk.Address) (bool, error) {
	meta, err := l.Meta(ctx)
	if err != nil {
		return false, err
	}
	return isAuthorized(meta, addr), nil
}

// TransferOwnership hands the instance to newOwner. The instance's own record
// is authoritative and commits regardless of the registry; the registry is
// told afterwards and a failure there only leaves its index lagging.
func (l *Ledger) TransferOwnership(ctx context.Context, env sdk.Env, newOwner sdk.Address) error {
	return l.exec(ctx, "transfer_ownership", env, func(c *call) error {
		meta, err := loadInstanceMeta(c.txn, l.addr)
		if err != nil {
			return err
		}
		if err := requireOwner(meta, c.caller()); err != nil {
			return err
		}
		if !newOwner.IsOperator() {
			return dao.ErrInvalidOwnerAddress
		}
		previous := meta.Owner
		meta.Owner = newOwner
		saveInstanceMeta(c.txn, meta)
		emitOwnershipTransferredEvent(c, previous, newOwner)
		c.afterCommit(func(ctx context.Context) {
			l.syncRegistry(ctx, previous, newOwner)
		})
		return nil
	})
}

// syncRegistry is the best-effort registry update that follows a committed transfer.
func (l *Ledger) syncRegistry(ctx context.Context, previous, next sdk.Address) {
	if l.notifier == nil {
		return
	}
	if err := l.notifier.NotifyOwnershipChanged(ctx, l.addr, previous, next); err != nil {
		l.metrics.registrySyncFailed()
		l.logger.Warn("registry did not follow ownership transfer",
			"instance", l.addr, "from", previous, "to", next, "error", err)
	}
}
