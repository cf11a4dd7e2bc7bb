package contract

import (
	"context"

	"github.com/holiman/uint256"

	"okinoko_ledger/contract/dao"
	"okinoko_ledger/sdk"
)

// StakeForProposal escrows amount from the caller on one side of a proposal.
// Staking again on the same side adds to the position.
func (l *Ledger) StakeForProposal(ctx context.Context, env sdk.Env, proposalID uint64, side uint8, amount *uint256.Int) error {
	return l.exec(ctx, "stake_for_proposal", env, func(c *call) error {
		if amount == nil || amount.IsZero() {
			return dao.ErrZeroAmount
		}
		s := dao.Side(side)
		if !s.Valid() {
			return dao.ErrInvalidSide
		}
		totals, err := loadStakeTotals(c.txn, l.addr, proposalID)
		if err != nil {
			return err
		}
		if totals.Status == dao.MarketResolved {
			return dao.ErrAlreadyResolved
		}
		stake, err := loadStake(c.txn, l.addr, proposalID, c.caller())
		if err != nil {
			return err
		}
		if stake == nil {
			stake = &dao.ProposalStake{ProposalID: proposalID, Staker: c.caller(), Side: s}
			appendStaker(c.txn, l.addr, totals, c.caller())
		} else if stake.Side != s {
			return dao.ErrStakeSideConflict
		}
		sum, err := dao.Add(&stake.Amount, amount)
		if err != nil {
			return err
		}
		stake.Amount = *sum
		pool := &totals.TotalAgainst
		if s == dao.SideFor {
			pool = &totals.TotalFor
		}
		grown, err := dao.Add(pool, amount)
		if err != nil {
			return err
		}
		*pool = *grown
		saveStake(c.txn, l.addr, stake)
		saveStakeTotals(c.txn, l.addr, totals)
		emitStakePlacedEvent(c, proposalID, s, amount)
		c.pull(amount)
		return nil
	})
}

// ResolveProposal seals a proposal's market with its outcome. Proposals nobody
// staked on can be resolved too; later stakes are then refused.
func (l *Ledger) ResolveProposal(ctx context.Context, env sdk.Env, proposalID uint64, outcome uint8) error {
	return l.exec(ctx, "resolve_proposal", env, func(c *call) error {
		if err := l.ownerOnly(c); err != nil {
			return err
		}
		o := dao.Outcome(outcome)
		if !o.Valid() {
			return dao.ErrInvalidOutcome
		}
		totals, err := loadStakeTotals(c.txn, l.addr, proposalID)
		if err != nil {
			return err
		}
		if totals.Status == dao.MarketResolved {
			return dao.ErrAlreadyResolved
		}
		for _, staker := range loadStakers(c.txn, l.addr, totals) {
			stake, err := loadStake(c.txn, l.addr, proposalID, staker)
			if err != nil {
				return err
			}
			if stake == nil || stake.Status != dao.StakeActive {
				continue
			}
			stake.Status = dao.StakeResolved
			saveStake(c.txn, l.addr, stake)
		}
		totals.Status = dao.MarketResolved
		totals.Outcome = o
		totals.ResolvedAt = c.now()
		saveStakeTotals(c.txn, l.addr, totals)
		emitProposalResolvedEvent(c, totals)
		return nil
	})
}

// stakePayout is what a resolved stake is worth: winners split the losing pool
// pro rata on top of their stake, losers get nothing, and with an empty
// winning pool everyone gets their stake back.
func stakePayout(stake *dao.ProposalStake, totals *dao.ProposalStakeTotals) (*uint256.Int, error) {
	winning, losing := totals.Pools()
	if winning.IsZero() {
		return stake.Amount.Clone(), nil
	}
	if stake.Side != totals.Outcome.Winner() {
		return dao.Zero(), nil
	}
	share, err := dao.MulDiv(&stake.Amount, losing, winning)
	if err != nil {
		return nil, err
	}
	return dao.Add(&stake.Amount, share)
}

// ClaimStake settles the caller's position on a resolved proposal and returns
// the payout. A losing claim succeeds with zero.
func (l *Ledger) ClaimStake(ctx context.Context, env sdk.Env, proposalID uint64) (*uint256.Int, error) {
	var paid *uint256.Int
	err := l.exec(ctx, "claim_stake", env, func(c *call) error {
		stake, err := loadStake(c.txn, l.addr, proposalID, c.caller())
		if err != nil {
			return err
		}
		if stake == nil {
			return dao.ErrNoStake
		}
		totals, err := loadStakeTotals(c.txn, l.addr, proposalID)
		if err != nil {
			return err
		}
		if stake.Status == dao.StakeClaimed {
			return dao.ErrAlreadyClaimed
		}
		if totals.Status != dao.MarketResolved {
			return dao.ErrNotResolved
		}
		payout, err := stakePayout(stake, totals)
		if err != nil {
			return err
		}
		stake.Status = dao.StakeClaimed
		stake.Payout = *payout
		saveStake(c.txn, l.addr, stake)
		emitStakeClaimedEvent(c, proposalID, payout)
		c.push(c.caller(), payout)
		paid = payout
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}

// Stake returns addr's position on a proposal, nil when there is none.
func (l *Ledger) Stake(ctx context.Context, proposalID uint64, addr sdk.Address) (*dao.ProposalStake, error) {
	var s *dao.ProposalStake
	err := l.view(ctx, func(c *call) error {
		var err error
		s, err = loadStake(c.txn, l.addr, proposalID, addr)
		return err
	})
	return s, err
}

func (l *Ledger) StakeTotals(ctx context.Context, proposalID uint64) (*dao.ProposalStakeTotals, error) {
	var t *dao.ProposalStakeTotals
	err := l.view(ctx, func(c *call) error {
		var err error
		t, err = loadStakeTotals(c.txn, l.addr, proposalID)
		return err
	})
	return t, err
}

// Stakers lists a proposal's stakers in the order they first staked.
func (l *Ledger) Stakers(ctx context.Context, proposalID uint64) ([]sdk.Address, error) {
	var out []sdk.Address
	err := l.view(ctx, func(c *call) error {
		totals, err := loadStakeTotals(c.txn, l.addr, proposalID)
		if err != nil {
			return err
		}
		out = loadStakers(c.txn, l.addr, totals)
		return nil
	})
	return out, err
}
