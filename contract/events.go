package contract

import (
	"github.com/holiman/uint256"

	"okinoko_ledger/contract/dao"
	"okinoko_ledger/sdk"
)

func attr(key, value string) dao.Attr { return dao.Attr{Key: key, Value: value} }

func amountAttr(key string, v *uint256.Int) dao.Attr { return dao.Attr{Key: key, Value: v.Dec()} }

// emitInstanceCreatedEvent gives explorers a neat ping without scanning the registry.
func emitInstanceCreatedEvent(c *call, meta *dao.InstanceMeta) {
	c.emit(dao.EventInstanceCreated,
		attr("owner", meta.Owner.String()),
		attr("seq", UInt64ToString(meta.Sequence)),
	)
}

// emitOwnershipTransferredEvent records the instance's own view of the handover.
func emitOwnershipTransferredEvent(c *call, from, to sdk.Address) {
	c.emit(dao.EventOwnershipTransferred,
		attr("from", from.String()),
		attr("to", to.String()),
	)
}

// emitDepositedEvent carries the new balance so mirrors need no extra read.
func emitDepositedEvent(c *call, amount, balance *uint256.Int) {
	c.emit(dao.EventDeposited, amountAttr("a", amount), amountAttr("bal", balance))
}

func emitWithdrawnEvent(c *call, amount, balance *uint256.Int) {
	c.emit(dao.EventWithdrawn, amountAttr("a", amount), amountAttr("bal", balance))
}

func emitRewardsClaimedEvent(c *call, amount *uint256.Int) {
	c.emit(dao.EventRewardsClaimed, amountAttr("a", amount))
}

func emitRewardRateSetEvent(c *call, old, rate *uint256.Int) {
	c.emit(dao.EventRewardRateSet, amountAttr("old", old), amountAttr("new", rate))
}

// emitOwnerDepositedEvent and its withdraw twin report the pool after the move.
func emitOwnerDepositedEvent(c *call, amount, pool *uint256.Int) {
	c.emit(dao.EventOwnerDeposited, amountAttr("a", amount), amountAttr("pool", pool))
}

func emitOwnerWithdrawnEvent(c *call, amount, pool *uint256.Int) {
	c.emit(dao.EventOwnerWithdrawn, amountAttr("a", amount), amountAttr("pool", pool))
}

// emitVoteCastEvent logs direction and voting power snapshot.
func emitVoteCastEvent(c *call, v *dao.Vote) {
	c.emit(dao.EventVoteCast,
		attr("id", UInt64ToString(v.ProposalID)),
		attr("s", v.Direction.String()),
		amountAttr("w", &v.VotingPowerAtCast),
	)
}

func emitStakePlacedEvent(c *call, proposalID uint64, side dao.Side, amount *uint256.Int) {
	c.emit(dao.EventStakePlaced,
		attr("id", UInt64ToString(proposalID)),
		attr("s", side.String()),
		amountAttr("a", amount),
	)
}

// emitProposalResolvedEvent seals the market for watchers with both pool sizes.
func emitProposalResolvedEvent(c *call, t *dao.ProposalStakeTotals) {
	c.emit(dao.EventProposalResolved,
		attr("id", UInt64ToString(t.ProposalID)),
		attr("o", t.Outcome.String()),
		amountAttr("for", &t.TotalFor),
		amountAttr("against", &t.TotalAgainst),
	)
}

func emitStakeClaimedEvent(c *call, proposalID uint64, payout *uint256.Int) {
	c.emit(dao.EventStakeClaimed,
		attr("id", UInt64ToString(proposalID)),
		amountAttr("p", payout),
	)
}
