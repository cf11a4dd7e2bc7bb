package dao

import (
	"github.com/holiman/uint256"

	"okinoko_ledger/sdk"
)

// Direction is the vote a ledger owner casts on a proposal.
type Direction uint8

const (
	DirectionAgainst Direction = 0
	DirectionFor     Direction = 1
	DirectionAbstain Direction = 2
)

// Valid reports whether d is one of the three supported values.
func (d Direction) Valid() bool { return d <= DirectionAbstain }

// String prints the direction as lower-case text for events and logs.
// Example payload: dao.DirectionFor.String()
func (d Direction) String() string {
	switch d {
	case DirectionAgainst:
		return "against"
	case DirectionFor:
		return "for"
	case DirectionAbstain:
		return "abstain"
	default:
		return "unknown"
	}
}

// Side is the position a staker takes on a proposal's outcome.
type Side uint8

const (
	SideAgainst Side = 0
	SideFor     Side = 1
)

func (s Side) Valid() bool { return s <= SideFor }

func (s Side) String() string {
	switch s {
	case SideAgainst:
		return "against"
	case SideFor:
		return "for"
	default:
		return "unknown"
	}
}

// Outcome seals a proposal's stake market.
type Outcome uint8

const (
	OutcomeUnresolved Outcome = 0
	OutcomeForWon     Outcome = 1
	OutcomeAgainstWon Outcome = 2
)

func (o Outcome) Valid() bool { return o == OutcomeForWon || o == OutcomeAgainstWon }

// Winner returns the side paid out under this outcome.
func (o Outcome) Winner() Side {
	if o == OutcomeForWon {
		return SideFor
	}
	return SideAgainst
}

func (o Outcome) String() string {
	switch o {
	case OutcomeForWon:
		return "for_won"
	case OutcomeAgainstWon:
		return "against_won"
	default:
		return "unresolved"
	}
}

// StakeStatus captures a stake position's lifecycle.
type StakeStatus uint8

const (
	StakeActive   StakeStatus = 0
	StakeResolved StakeStatus = 1
	StakeClaimed  StakeStatus = 2
)

func (s StakeStatus) String() string {
	switch s {
	case StakeActive:
		return "active"
	case StakeResolved:
		return "resolved"
	case StakeClaimed:
		return "claimed"
	default:
		return "unknown"
	}
}

// MarketStatus tracks whether a proposal's totals are sealed.
type MarketStatus uint8

const (
	MarketActive   MarketStatus = 0
	MarketResolved MarketStatus = 1
)

func (s MarketStatus) String() string {
	if s == MarketResolved {
		return "resolved"
	}
	return "active"
}

// InstanceMeta is the identity record of one ledger instance.
type InstanceMeta struct {
	Address       sdk.Address
	Owner         sdk.Address
	Creator       sdk.Address
	Sequence      uint64
	CreatedAt     int64
	CreatedHeight uint64
}

// RewardState is the per-instance accrual bookkeeping.
type RewardState struct {
	RewardRatePerSecond           uint256.Int
	LastAccrualTime               int64
	CumulativeRewardPerStakedUnit uint256.Int
	TotalStaked                   uint256.Int
	TotalPendingRewards           uint256.Int
	OwnerDepositedPool            uint256.Int
}

// AvailableRewards is the part of the pool not yet earned by depositors.
func (rs *RewardState) AvailableRewards() (*uint256.Int, error) {
	return Sub(&rs.OwnerDepositedPool, &rs.TotalPendingRewards)
}

// Depositor is one address's position on an instance.
type Depositor struct {
	Address           sdk.Address
	StakedAmount      uint256.Int
	AccrualCheckpoint uint256.Int
	PendingRewards    uint256.Int
}

// Vote is the owner's immutable vote on a proposal.
type Vote struct {
	ProposalID        uint64
	Direction         Direction
	Reason            string
	BlockHeight       uint64
	Timestamp         int64
	VotingPowerAtCast uint256.Int
}

// ProposalStake is one staker's position on a proposal's outcome.
type ProposalStake struct {
	ProposalID uint64
	Staker     sdk.Address
	Side       Side
	Amount     uint256.Int
	Status     StakeStatus
	Payout     uint256.Int
}

// ProposalStakeTotals aggregates both sides of a proposal's market.
type ProposalStakeTotals struct {
	ProposalID   uint64
	TotalFor     uint256.Int
	TotalAgainst uint256.Int
	StakerCount  uint64
	Status       MarketStatus
	Outcome      Outcome
	ResolvedAt   int64
}

// Pools returns (winning, losing) totals for the sealed outcome.
func (t *ProposalStakeTotals) Pools() (*uint256.Int, *uint256.Int) {
	if t.Outcome.Winner() == SideFor {
		return &t.TotalFor, &t.TotalAgainst
	}
	return &t.TotalAgainst, &t.TotalFor
}
