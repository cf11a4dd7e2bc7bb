package contract

import (
	"context"
	"fmt"

	"okinoko_ledger/contract/dao"
	"okinoko_ledger/sdk"
)

// -----------------------------------------------------------------------------
// Voting
// -----------------------------------------------------------------------------

// CastVote records the owner's vote on a proposal. A proposal moves from
// unvoted to voted exactly once; the stored vote never changes afterwards.
// support is 0 (against), 1 (for) or 2 (abstain).
func (l *Ledger) CastVote(ctx context.Context, env sdk.Env, proposalID uint64, support uint8, reason string) error {
	return l.exec(ctx, "cast_vote", env, func(c *call) error {
		if err := l.ownerOnly(c); err != nil {
			return err
		}
		direction := dao.Direction(support)
		if !direction.Valid() {
			return dao.ErrInvalidSupportValue
		}
		if len(reason) > MaxReasonLength {
			return fmt.Errorf("%w: reason longer than %d bytes", dao.ErrInvalidPayload, MaxReasonLength)
		}
		existing, err := loadVote(c.txn, l.addr, proposalID)
		if err != nil {
			return err
		}
		if existing != nil {
			return dao.ErrAlreadyVotedOnProposal
		}
		rs, err := loadRewardState(c.txn, l.addr)
		if err != nil {
			return err
		}
		v := &dao.Vote{
			ProposalID:        proposalID,
			Direction:         direction,
			Reason:            reason,
			BlockHeight:       c.env.BlockHeight,
			Timestamp:         c.now(),
			VotingPowerAtCast: rs.TotalStaked,
		}
		saveVote(c.txn, l.addr, v)
		emitVoteCastEvent(c, v)
		return nil
	})
}

// Vote returns the recorded vote, or nil when the proposal is unvoted.
func (l *Ledger) Vote(ctx context.Context, proposalID uint64) (*dao.Vote, error) {
	var v *dao.Vote
	err := l.view(ctx, func(c *call) error {
		var err error
		v, err = loadVote(c.txn, l.addr, proposalID)
		return err
	})
	return v, err
}

func (l *Ledger) HasVoted(ctx context.Context, proposalID uint64) (bool, error) {
	v, err := l.Vote(ctx, proposalID)
	return v != nil, err
}

// VoteCount returns how many proposals the owner has voted on.
func (l *Ledger) VoteCount(ctx context.Context) (uint64, error) {
	var n uint64
	err := l.view(ctx, func(c *call) error {
		n = getCount(c.txn, voteCountKey(l.addr))
		return nil
	})
	return n, err
}
