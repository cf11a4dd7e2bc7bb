package contract

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"okinoko_ledger/bank"
	"okinoko_ledger/contract/dao"
	"okinoko_ledger/sdk"
	"okinoko_ledger/state"
)

// inflightKey marks a context that belongs to an operation still executing.
// Anything handed that context by an outbound call is a re-entrant caller.
type inflightKey struct{}

func withInflight(ctx context.Context) context.Context {
	return context.WithValue(ctx, inflightKey{}, true)
}

func inflight(ctx context.Context) bool {
	v, _ := ctx.Value(inflightKey{}).(bool)
	return v
}

// transfer is an outbound token movement queued until the body has staged all writes.
type transfer struct {
	from   sdk.Address
	to     sdk.Address
	amount *uint256.Int
}

// call is the scope of one operation: the env snapshot, the open transaction,
// the notifications to flush after commit and the transfers to run last.
type call struct {
	ctx       context.Context
	env       sdk.Env
	inst      sdk.Address
	txn       state.Txn
	events    []dao.Event
	transfers []transfer
	moved     []transfer
	committed []func(context.Context)
}

func newCall(ctx context.Context, env sdk.Env, inst sdk.Address) *call {
	return &call{ctx: withInflight(ctx), env: env, inst: inst}
}

func (c *call) caller() sdk.Address { return c.env.Caller() }

func (c *call) now() int64 { return c.env.Unix() }

// reset drops buffered effects when a backend retries the body.
func (c *call) reset(txn state.Txn) {
	c.txn = txn
	c.events = c.events[:0]
	c.transfers = c.transfers[:0]
	c.committed = c.committed[:0]
}

// afterCommit schedules fn to run once the transaction committed, still
// under the ledger lock and with the caller's original context.
func (c *call) afterCommit(fn func(context.Context)) {
	c.committed = append(c.committed, fn)
}

// emit buffers a notification; nothing leaves the call before commit.
func (c *call) emit(t dao.EventType, attrs ...dao.Attr) {
	c.events = append(c.events, dao.Event{
		Type:      t,
		Instance:  c.inst,
		Actor:     c.caller(),
		TxId:      c.env.TxId,
		Height:    c.env.BlockHeight,
		Timestamp: c.now(),
		Attrs:     attrs,
	})
}

// pull queues tokens moving from the caller into the instance.
func (c *call) pull(amount *uint256.Int) {
	c.transfers = append(c.transfers, transfer{from: c.caller(), to: c.inst, amount: amount.Clone()})
}

// push queues tokens leaving the instance to addr.
func (c *call) push(to sdk.Address, amount *uint256.Int) {
	if amount.IsZero() {
		return
	}
	c.transfers = append(c.transfers, transfer{from: c.inst, to: to, amount: amount.Clone()})
}

// settle runs the queued transfers. It is the last step of every body so all
// state is staged before control leaves the instance. Transfers that went
// through are kept in moved until the store commits.
func (c *call) settle(b bank.Bank) error {
	if err := c.txn.Err(); err != nil {
		return err
	}
	for _, t := range c.transfers {
		if b == nil {
			return fmt.Errorf("no bank configured for transfer of %s", t.amount.Dec())
		}
		if err := b.Transfer(c.ctx, t.from, t.to, t.amount); err != nil {
			return fmt.Errorf("transfer %s -> %s: %w", t.from, t.to, err)
		}
		c.moved = append(c.moved, t)
	}
	return nil
}

// unwind sends back every transfer in moved, newest first, and returns the
// ones that could not be reversed.
func (c *call) unwind(b bank.Bank) []error {
	var failed []error
	ctx := context.WithoutCancel(c.ctx)
	for i := len(c.moved) - 1; i >= 0; i-- {
		t := c.moved[i]
		if err := b.Transfer(ctx, t.to, t.from, t.amount); err != nil {
			failed = append(failed, fmt.Errorf("reverse %s -> %s of %s: %w", t.to, t.from, t.amount.Dec(), err))
		}
	}
	c.moved = c.moved[:0]
	return failed
}
