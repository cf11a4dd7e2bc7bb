package contract

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"okinoko_ledger/bank"
	"okinoko_ledger/contract/dao"
	"okinoko_ledger/sdk"
	"okinoko_ledger/state"
)

// Factory creates ledger instances and keeps the owner <-> instance registry.
// Each operator owns at most one instance. Registry writes are serialized.
type Factory struct {
	store   state.Store
	bank    bank.Bank
	emitter Emitter
	logger  *slog.Logger
	metrics *metrics

	mu        sync.Mutex
	handlesMu sync.RWMutex
	handles   map[sdk.Address]*Ledger
}

type FactoryOptionFunc func(*Factory)

// WithBank sets the token bank every instance moves funds through.
func WithBank(b bank.Bank) FactoryOptionFunc {
	return func(f *Factory) { f.bank = b }
}

// WithEmitter sets where committed notifications go.
func WithEmitter(e Emitter) FactoryOptionFunc {
	return func(f *Factory) { f.emitter = e }
}

func WithLogger(logger *slog.Logger) FactoryOptionFunc {
	return func(f *Factory) { f.logger = logger }
}

// WithPromRegistry enables operation metrics on the given registerer.
func WithPromRegistry(reg prometheus.Registerer) FactoryOptionFunc {
	return func(f *Factory) { f.metrics = newMetrics(reg) }
}

func NewFactory(store state.Store, opts ...FactoryOptionFunc) *Factory {
	f := &Factory{
		store:   store,
		handles: make(map[sdk.Address]*Ledger),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.New(slog.DiscardHandler)
	}
	f.logger = f.logger.With("component", "registry")
	return f
}

// instanceAddress derives the address of the seq-th instance.
func instanceAddress(seq uint64) sdk.Address {
	return sdk.Address(InstanceAddressPrefix + UInt64ToString(seq+1))
}

func (f *Factory) newLedger(addr sdk.Address) *Ledger {
	return &Ledger{
		addr:     addr,
		store:    f.store,
		bank:     f.bank,
		notifier: f,
		emitter:  f.emitter,
		logger:   f.logger.With("component", "ledger", "instance", addr.String()),
		metrics:  f.metrics,
	}
}

func (f *Factory) handle(addr sdk.Address) *Ledger {
	f.handlesMu.Lock()
	defer f.handlesMu.Unlock()
	if l, ok := f.handles[addr]; ok {
		return l
	}
	l := f.newLedger(addr)
	f.handles[addr] = l
	return l
}

// Open loads handles for every instance already persisted in the store.
func (f *Factory) Open(ctx context.Context) error {
	var addrs []sdk.Address
	err := f.store.View(ctx, func(txn state.Txn) error {
		count := getCount(txn, InstancesCount)
		for seq := uint64(0); seq < count; seq++ {
			addr, ok := registryInstanceAt(txn, seq)
			if !ok {
				return fmt.Errorf("%w: registry index %d missing", dao.ErrCorruptRecord, seq)
			}
			addrs = append(addrs, addr)
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, addr := range addrs {
		f.handle(addr)
	}
	f.metrics.setInstances(uint64(len(addrs)))
	f.logger.Info("registry opened", "instances", len(addrs))
	return nil
}

// update runs a serialized registry write.
func (f *Factory) update(ctx context.Context, op string, env sdk.Env, body func(*call) error) (*call, error) {
	started := time.Now()
	if inflight(ctx) {
		f.metrics.observe(op, started, dao.ErrReentrantCall)
		return nil, dao.ErrReentrantCall
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c := newCall(ctx, env, sdk.ZeroAddress)
	err := f.store.Update(ctx, func(txn state.Txn) error {
		c.reset(txn)
		if err := body(c); err != nil {
			return err
		}
		return txn.Err()
	})
	f.metrics.observe(op, started, err)
	if err != nil {
		f.logger.Debug("registry operation rejected", "op", op, "error", err)
		return nil, err
	}
	return c, nil
}

func (f *Factory) view(ctx context.Context, body func(state.Txn) error) error {
	if inflight(ctx) {
		return dao.ErrReentrantCall
	}
	return f.store.View(ctx, body)
}

func (f *Factory) publish(events []dao.Event) {
	if f.emitter == nil {
		return
	}
	for _, e := range events {
		f.emitter.Emit(e)
	}
}

// CreateInstance deploys a ledger owned by owner and records it in the registry.
func (f *Factory) CreateInstance(ctx context.Context, env sdk.Env, owner sdk.Address) (*Ledger, error) {
	var addr sdk.Address
	var count uint64
	c, err := f.update(ctx, "create_instance", env, func(c *call) error {
		if !owner.IsOperator() {
			return dao.ErrInvalidOwnerAddress
		}
		if _, taken := registryInstanceOf(c.txn, owner); taken {
			return dao.ErrOwnerAlreadyHasInstance
		}
		addr = instanceAddress(getCount(c.txn, InstancesCount))
		seq := registryAppend(c.txn, addr)
		count = seq + 1
		meta := &dao.InstanceMeta{
			Address:       addr,
			Owner:         owner,
			Creator:       c.caller(),
			Sequence:      seq,
			CreatedAt:     c.now(),
			CreatedHeight: c.env.BlockHeight,
		}
		saveInstanceMeta(c.txn, meta)
		registryBind(c.txn, owner, addr)
		c.inst = addr
		emitInstanceCreatedEvent(c, meta)
		return nil
	})
	if err != nil {
		return nil, err
	}
	l := f.handle(addr)
	f.metrics.setInstances(count)
	f.logger.Info("instance created", "instance", addr, "owner", owner)
	f.publish(c.events)
	return l, nil
}

// NotifyOwnershipChanged repoints the registry after an instance moved from
// oldOwner to newOwner. The instance's own record must already name newOwner,
// so the call cannot be used to repoint an instance that did not transfer.
func (f *Factory) NotifyOwnershipChanged(ctx context.Context, instance, oldOwner, newOwner sdk.Address) error {
	_, err := f.update(ctx, "notify_ownership_changed", sdk.Env{}, func(c *call) error {
		recorded, ok := registryOwnerOf(c.txn, instance)
		if !ok {
			return dao.ErrInstanceNotRecognized
		}
		meta, err := loadInstanceMeta(c.txn, instance)
		if err != nil {
			return err
		}
		if recorded != oldOwner || meta.Owner != newOwner {
			return fmt.Errorf("%w: registry has %s, instance has %s", dao.ErrOwnerMismatch, recorded, meta.Owner)
		}
		if oldOwner == newOwner {
			return nil
		}
		if _, taken := registryInstanceOf(c.txn, newOwner); taken {
			return dao.ErrOwnerAlreadyHasInstance
		}
		c.txn.Delete(regOwnerKey(oldOwner))
		registryBind(c.txn, newOwner, instance)
		return nil
	})
	if err == nil {
		f.logger.Debug("registry repointed", "instance", instance, "from", oldOwner, "to", newOwner)
	}
	return err
}

// Instance returns the handle of a known instance.
func (f *Factory) Instance(ctx context.Context, addr sdk.Address) (*Ledger, error) {
	f.handlesMu.RLock()
	l, ok := f.handles[addr]
	f.handlesMu.RUnlock()
	if ok {
		return l, nil
	}
	err := f.view(ctx, func(txn state.Txn) error {
		_, err := loadInstanceMeta(txn, addr)
		return err
	})
	if err != nil {
		return nil, err
	}
	return f.handle(addr), nil
}

// InstanceOf resolves the instance an operator owns according to the registry.
func (f *Factory) InstanceOf(ctx context.Context, owner sdk.Address) (sdk.Address, bool, error) {
	var (
		addr sdk.Address
		ok   bool
	)
	err := f.view(ctx, func(txn state.Txn) error {
		addr, ok = registryInstanceOf(txn, owner)
		return nil
	})
	return addr, ok, err
}

func (f *Factory) HasInstance(ctx context.Context, owner sdk.Address) (bool, error) {
	_, ok, err := f.InstanceOf(ctx, owner)
	return ok, err
}

// OriginalOwnerOf returns the owner the registry last recorded for instance.
// It can lag the instance's own record after a failed best-effort update.
func (f *Factory) OriginalOwnerOf(ctx context.Context, instance sdk.Address) (sdk.Address, bool, error) {
	var (
		owner sdk.Address
		ok    bool
	)
	err := f.view(ctx, func(txn state.Txn) error {
		owner, ok = registryOwnerOf(txn, instance)
		return nil
	})
	return owner, ok, err
}

func (f *Factory) Count(ctx context.Context) (uint64, error) {
	var n uint64
	err := f.view(ctx, func(txn state.Txn) error {
		n = getCount(txn, InstancesCount)
		return nil
	})
	return n, err
}

// List pages through instances in creation order. An offset past the end or
// a zero limit yields an empty page; limit is capped at MaxPageSize.
func (f *Factory) List(ctx context.Context, offset, limit uint64) ([]sdk.Address, error) {
	out := []sdk.Address{}
	err := f.view(ctx, func(txn state.Txn) error {
		count := getCount(txn, InstancesCount)
		if offset >= count || limit == 0 {
			return nil
		}
		limit = min(limit, MaxPageSize)
		end := count
		if limit < count-offset {
			end = offset + limit
		}
		for seq := offset; seq < end; seq++ {
			addr, ok := registryInstanceAt(txn, seq)
			if !ok {
				return fmt.Errorf("%w: registry index %d missing", dao.ErrCorruptRecord, seq)
			}
			out = append(out, addr)
		}
		return nil
	})
	return out, err
}
