package contract

import (
	"context"

	"github.com/holiman/uint256"

	"okinoko_ledger/contract/dao"
	"okinoko_ledger/sdk"
)

// accrue brings the global reward index up to now. Emission is capped at the
// unreserved pool, so totalPending never outgrows the pool.
func accrue(rs *dao.RewardState, now int64) error {
	if now <= rs.LastAccrualTime {
		return nil
	}
	elapsed := uint64(now - rs.LastAccrualTime)
	rs.LastAccrualTime = now
	if rs.TotalStaked.IsZero() || rs.RewardRatePerSecond.IsZero() {
		return nil
	}
	available, err := rs.AvailableRewards()
	if err != nil {
		return err
	}
	reward, err := dao.Mul(&rs.RewardRatePerSecond, uint256.NewInt(elapsed))
	if err != nil {
		// saturates at the pool
		reward = available
	}
	reward = dao.Min(reward, available)
	if reward.IsZero() {
		return nil
	}
	delta, err := dao.MulDiv(reward, dao.Precision, &rs.TotalStaked)
	if err != nil {
		return err
	}
	index, err := dao.Add(&rs.CumulativeRewardPerStakedUnit, delta)
	if err != nil {
		return err
	}
	// The whole reward is reserved. Depositors settle floor(staked*delta/P)
	// per interval, which sums to at most reward; the flooring dust stays
	// reserved so owed rewards never exceed totalPending.
	pending, err := dao.Add(&rs.TotalPendingRewards, reward)
	if err != nil {
		return err
	}
	rs.CumulativeRewardPerStakedUnit = *index
	rs.TotalPendingRewards = *pending
	return nil
}

// settleDepositor moves what d earned since its checkpoint into pending.
func settleDepositor(d *dao.Depositor, rs *dao.RewardState) error {
	diff, err := dao.Sub(&rs.CumulativeRewardPerStakedUnit, &d.AccrualCheckpoint)
	if err != nil {
		return err
	}
	if !diff.IsZero() && !d.StakedAmount.IsZero() {
		owed, err := dao.MulDiv(&d.StakedAmount, diff, dao.Precision)
		if err != nil {
			return err
		}
		pending, err := dao.Add(&d.PendingRewards, owed)
		if err != nil {
			return err
		}
		d.PendingRewards = *pending
	}
	d.AccrualCheckpoint = rs.CumulativeRewardPerStakedUnit
	return nil
}

// accrueFor loads the reward state and the caller's position, both settled to now.
func (l *Ledger) accrueFor(c *call, addr sdk.Address) (*dao.RewardState, *dao.Depositor, error) {
	rs, err := l.accrued(c)
	if err != nil {
		return nil, nil, err
	}
	d, err := loadDepositor(c.txn, l.addr, addr)
	if err != nil {
		return nil, nil, err
	}
	if err := settleDepositor(d, rs); err != nil {
		return nil, nil, err
	}
	return rs, d, nil
}

func (l *Ledger) accrued(c *call) (*dao.RewardState, error) {
	rs, err := loadRewardState(c.txn, l.addr)
	if err != nil {
		return nil, err
	}
	if err := accrue(rs, c.now()); err != nil {
		return nil, err
	}
	return rs, nil
}

// ownerOnly loads the meta record and rejects anyone but the owner.
func (l *Ledger) ownerOnly(c *call) error {
	meta, err := loadInstanceMeta(c.txn, l.addr)
	if err != nil {
		return err
	}
	return requireOwner(meta, c.caller())
}

// Deposit stakes amount from the caller and mints the matching receipt balance.
func (l *Ledger) Deposit(ctx context.Context, env sdk.Env, amount *uint256.Int) error {
	return l.exec(ctx, "deposit", env, func(c *call) error {
		if amount == nil || amount.IsZero() {
			return dao.ErrZeroAmount
		}
		rs, d, err := l.accrueFor(c, c.caller())
		if err != nil {
			return err
		}
		if err := (receiptBalance{d: d, rs: rs}).creditOnDeposit(amount); err != nil {
			return err
		}
		saveDepositor(c.txn, l.addr, d)
		saveRewardState(c.txn, l.addr, rs)
		emitDepositedEvent(c, amount, &d.StakedAmount)
		c.pull(amount)
		return nil
	})
}

// Withdraw returns amount of the caller's stake and burns the receipt balance.
func (l *Ledger) Withdraw(ctx context.Context, env sdk.Env, amount *uint256.Int) error {
	return l.exec(ctx, "withdraw", env, func(c *call) error {
		if amount == nil || amount.IsZero() {
			return dao.ErrZeroAmount
		}
		rs, d, err := l.accrueFor(c, c.caller())
		if err != nil {
			return err
		}
		if err := (receiptBalance{d: d, rs: rs}).debitOnWithdraw(amount); err != nil {
			return err
		}
		saveDepositor(c.txn, l.addr, d)
		saveRewardState(c.txn, l.addr, rs)
		emitWithdrawnEvent(c, amount, &d.StakedAmount)
		c.push(c.caller(), amount)
		return nil
	})
}

// ClaimRewards pays out everything the caller has earned and returns the amount.
// Claiming nothing succeeds without moving tokens.
func (l *Ledger) ClaimRewards(ctx context.Context, env sdk.Env) (*uint256.Int, error) {
	paid := dao.Zero()
	err := l.exec(ctx, "claim_rewards", env, func(c *call) error {
		rs, d, err := l.accrueFor(c, c.caller())
		if err != nil {
			return err
		}
		owed := d.PendingRewards.Clone()
		pending, err := dao.Sub(&rs.TotalPendingRewards, owed)
		if err != nil {
			return err
		}
		pool, err := dao.Sub(&rs.OwnerDepositedPool, owed)
		if err != nil {
			return err
		}
		rs.TotalPendingRewards = *pending
		rs.OwnerDepositedPool = *pool
		d.PendingRewards.Clear()
		saveDepositor(c.txn, l.addr, d)
		saveRewardState(c.txn, l.addr, rs)
		if !owed.IsZero() {
			emitRewardsClaimedEvent(c, owed)
		}
		c.push(c.caller(), owed)
		paid = owed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}

// SetRewardRate changes the emission rate; time elapsed so far accrues at the old rate.
func (l *Ledger) SetRewardRate(ctx context.Context, env sdk.Env, rate *uint256.Int) error {
	return l.exec(ctx, "set_reward_rate", env, func(c *call) error {
		if err := l.ownerOnly(c); err != nil {
			return err
		}
		if rate == nil {
			rate = dao.Zero()
		}
		rs, err := l.accrued(c)
		if err != nil {
			return err
		}
		old := rs.RewardRatePerSecond.Clone()
		rs.RewardRatePerSecond = *rate
		saveRewardState(c.txn, l.addr, rs)
		emitRewardRateSetEvent(c, old, rate)
		return nil
	})
}

// OwnerDeposit funds the reward pool from the owner.
func (l *Ledger) OwnerDeposit(ctx context.Context, env sdk.Env, amount *uint256.Int) error {
	return l.exec(ctx, "owner_deposit", env, func(c *call) error {
		if err := l.ownerOnly(c); err != nil {
			return err
		}
		if amount == nil || amount.IsZero() {
			return dao.ErrZeroAmount
		}
		rs, err := l.accrued(c)
		if err != nil {
			return err
		}
		pool, err := dao.Add(&rs.OwnerDepositedPool, amount)
		if err != nil {
			return err
		}
		rs.OwnerDepositedPool = *pool
		saveRewardState(c.txn, l.addr, rs)
		emitOwnerDepositedEvent(c, amount, pool)
		c.pull(amount)
		return nil
	})
}

// OwnerWithdraw takes back unearned pool. Accrual runs first so rewards earned
// up to this call stay reserved.
func (l *Ledger) OwnerWithdraw(ctx context.Context, env sdk.Env, amount *uint256.Int) error {
	return l.exec(ctx, "owner_withdraw", env, func(c *call) error {
		if err := l.ownerOnly(c); err != nil {
			return err
		}
		if amount == nil || amount.IsZero() {
			return dao.ErrZeroAmount
		}
		rs, err := l.accrued(c)
		if err != nil {
			return err
		}
		available, err := rs.AvailableRewards()
		if err != nil {
			return err
		}
		if amount.Gt(available) {
			return dao.ErrAmountExceedsAvailableRewards
		}
		pool, err := dao.Sub(&rs.OwnerDepositedPool, amount)
		if err != nil {
			return err
		}
		rs.OwnerDepositedPool = *pool
		saveRewardState(c.txn, l.addr, rs)
		emitOwnerWithdrawnEvent(c, amount, pool)
		c.push(c.caller(), amount)
		return nil
	})
}

// RewardState returns the stored bookkeeping without projecting accrual.
func (l *Ledger) RewardState(ctx context.Context) (*dao.RewardState, error) {
	var rs *dao.RewardState
	err := l.view(ctx, func(c *call) error {
		var err error
		rs, err = loadRewardState(c.txn, l.addr)
		return err
	})
	return rs, err
}

// Depositor returns the stored position of addr.
func (l *Ledger) Depositor(ctx context.Context, addr sdk.Address) (*dao.Depositor, error) {
	var d *dao.Depositor
	err := l.view(ctx, func(c *call) error {
		var err error
		d, err = loadDepositor(c.txn, l.addr, addr)
		return err
	})
	return d, err
}

// PendingRewards projects what addr could claim at unix time at.
func (l *Ledger) PendingRewards(ctx context.Context, addr sdk.Address, at int64) (*uint256.Int, error) {
	var out *uint256.Int
	err := l.view(ctx, func(c *call) error {
		rs, err := loadRewardState(c.txn, l.addr)
		if err != nil {
			return err
		}
		if err := accrue(rs, at); err != nil {
			return err
		}
		d, err := loadDepositor(c.txn, l.addr, addr)
		if err != nil {
			return err
		}
		if err := settleDepositor(d, rs); err != nil {
			return err
		}
		out = d.PendingRewards.Clone()
		return nil
	})
	return out, err
}

// AvailableRewards projects the owner-withdrawable pool at unix time at.
func (l *Ledger) AvailableRewards(ctx context.Context, at int64) (*uint256.Int, error) {
	var out *uint256.Int
	err := l.view(ctx, func(c *call) error {
		rs, err := loadRewardState(c.txn, l.addr)
		if err != nil {
			return err
		}
		if err := accrue(rs, at); err != nil {
			return err
		}
		out, err = rs.AvailableRewards()
		return err
	})
	return out, err
}
