package contract

import (
	"context"
	"time"

	"github.com/holiman/uint256"

	"okinoko_ledger/contract/dao"
	"okinoko_ledger/sdk"
)

// receiptBalance is the only code that touches receipt accounting. It can
// credit on deposit, debit on withdraw and read; there is no move primitive.
type receiptBalance struct {
	d  *dao.Depositor
	rs *dao.RewardState
}

func (b receiptBalance) creditOnDeposit(amount *uint256.Int) error {
	staked, err := dao.Add(&b.d.StakedAmount, amount)
	if err != nil {
		return err
	}
	total, err := dao.Add(&b.rs.TotalStaked, amount)
	if err != nil {
		return err
	}
	b.d.StakedAmount = *staked
	b.rs.TotalStaked = *total
	return nil
}

func (b receiptBalance) debitOnWithdraw(amount *uint256.Int) error {
	if amount.Gt(&b.d.StakedAmount) {
		return dao.ErrInsufficientBalance
	}
	total, err := dao.Sub(&b.rs.TotalStaked, amount)
	if err != nil {
		return err
	}
	b.d.StakedAmount.Sub(&b.d.StakedAmount, amount)
	b.rs.TotalStaked = *total
	return nil
}

func (b receiptBalance) balanceOf() *uint256.Int {
	return b.d.StakedAmount.Clone()
}

// Receipt is the token face of a ledger's deposits. Balances mirror stake and
// never move between holders.
type Receipt struct {
	l *Ledger
}

func (l *Ledger) Receipt() Receipt { return Receipt{l: l} }

func (r Receipt) BalanceOf(ctx context.Context, addr sdk.Address) (*uint256.Int, error) {
	var out *uint256.Int
	err := r.l.view(ctx, func(c *call) error {
		d, err := loadDepositor(c.txn, r.l.addr, addr)
		if err != nil {
			return err
		}
		out = receiptBalance{d: d}.balanceOf()
		return nil
	})
	return out, err
}

func (r Receipt) TotalSupply(ctx context.Context) (*uint256.Int, error) {
	rs, err := r.l.RewardState(ctx)
	if err != nil {
		return nil, err
	}
	return rs.TotalStaked.Clone(), nil
}

// Allowance is always zero; nothing can be approved.
func (r Receipt) Allowance(owner, spender sdk.Address) *uint256.Int {
	return dao.Zero()
}

func (r Receipt) Transfer(ctx context.Context, env sdk.Env, to sdk.Address, amount *uint256.Int) error {
	return r.reject("receipt_transfer")
}

func (r Receipt) TransferFrom(ctx context.Context, env sdk.Env, from, to sdk.Address, amount *uint256.Int) error {
	return r.reject("receipt_transfer_from")
}

func (r Receipt) Approve(ctx context.Context, env sdk.Env, spender sdk.Address, amount *uint256.Int) error {
	return r.reject("receipt_approve")
}

func (r Receipt) reject(op string) error {
	r.l.metrics.observe(op, time.Now(), dao.ErrNotTransferable)
	return dao.ErrNotTransferable
}
