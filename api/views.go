package api

import (
	"github.com/CosmWasm/tinyjson/jwriter"
	"github.com/holiman/uint256"

	"okinoko_ledger/contract/dao"
	"okinoko_ledger/sdk"
)

// Amounts are rendered as decimal strings; they do not fit a JSON number.
func writeAmount(w *jwriter.Writer, v *uint256.Int) {
	w.String(v.Dec())
}

func writeAddresses(w *jwriter.Writer, addrs []sdk.Address) {
	w.RawByte('[')
	for i, a := range addrs {
		if i > 0 {
			w.RawByte(',')
		}
		w.String(a.String())
	}
	w.RawByte(']')
}

type instancePage struct {
	Count     uint64
	Offset    uint64
	Instances []sdk.Address
}

func (p instancePage) MarshalTinyJSON(w *jwriter.Writer) {
	w.RawString(`{"count":`)
	w.Uint64(p.Count)
	w.RawString(`,"offset":`)
	w.Uint64(p.Offset)
	w.RawString(`,"instances":`)
	writeAddresses(w, p.Instances)
	w.RawByte('}')
}

type instanceView struct {
	Meta          *dao.InstanceMeta
	RegistryOwner sdk.Address
	Rewards       *dao.RewardState
	Available     *uint256.Int
	Votes         uint64
}

func (v instanceView) MarshalTinyJSON(w *jwriter.Writer) {
	w.RawString(`{"address":`)
	w.String(v.Meta.Address.String())
	w.RawString(`,"owner":`)
	w.String(v.Meta.Owner.String())
	w.RawString(`,"registryOwner":`)
	w.String(v.RegistryOwner.String())
	w.RawString(`,"creator":`)
	w.String(v.Meta.Creator.String())
	w.RawString(`,"sequence":`)
	w.Uint64(v.Meta.Sequence)
	w.RawString(`,"createdAt":`)
	w.Int64(v.Meta.CreatedAt)
	w.RawString(`,"createdHeight":`)
	w.Uint64(v.Meta.CreatedHeight)
	w.RawString(`,"votes":`)
	w.Uint64(v.Votes)
	w.RawString(`,"rewards":{"ratePerSecond":`)
	writeAmount(w, &v.Rewards.RewardRatePerSecond)
	w.RawString(`,"lastAccrualTime":`)
	w.Int64(v.Rewards.LastAccrualTime)
	w.RawString(`,"index":`)
	writeAmount(w, &v.Rewards.CumulativeRewardPerStakedUnit)
	w.RawString(`,"totalStaked":`)
	writeAmount(w, &v.Rewards.TotalStaked)
	w.RawString(`,"totalPending":`)
	writeAmount(w, &v.Rewards.TotalPendingRewards)
	w.RawString(`,"pool":`)
	writeAmount(w, &v.Rewards.OwnerDepositedPool)
	w.RawString(`,"available":`)
	writeAmount(w, v.Available)
	w.RawString(`}}`)
}

type depositorView struct {
	Depositor *dao.Depositor
	Pending   *uint256.Int
	At        int64
}

func (v depositorView) MarshalTinyJSON(w *jwriter.Writer) {
	w.RawString(`{"address":`)
	w.String(v.Depositor.Address.String())
	w.RawString(`,"staked":`)
	writeAmount(w, &v.Depositor.StakedAmount)
	w.RawString(`,"checkpoint":`)
	writeAmount(w, &v.Depositor.AccrualCheckpoint)
	w.RawString(`,"pending":`)
	writeAmount(w, v.Pending)
	w.RawString(`,"at":`)
	w.Int64(v.At)
	w.RawByte('}')
}

type voteView struct {
	Vote *dao.Vote
}

func (v voteView) MarshalTinyJSON(w *jwriter.Writer) {
	w.RawString(`{"proposalId":`)
	w.Uint64(v.Vote.ProposalID)
	w.RawString(`,"direction":`)
	w.String(v.Vote.Direction.String())
	w.RawString(`,"reason":`)
	w.String(v.Vote.Reason)
	w.RawString(`,"blockHeight":`)
	w.Uint64(v.Vote.BlockHeight)
	w.RawString(`,"timestamp":`)
	w.Int64(v.Vote.Timestamp)
	w.RawString(`,"votingPower":`)
	writeAmount(w, &v.Vote.VotingPowerAtCast)
	w.RawByte('}')
}

type marketView struct {
	Totals  *dao.ProposalStakeTotals
	Stakers []sdk.Address
}

func (v marketView) MarshalTinyJSON(w *jwriter.Writer) {
	w.RawString(`{"proposalId":`)
	w.Uint64(v.Totals.ProposalID)
	w.RawString(`,"status":`)
	w.String(v.Totals.Status.String())
	w.RawString(`,"totalFor":`)
	writeAmount(w, &v.Totals.TotalFor)
	w.RawString(`,"totalAgainst":`)
	writeAmount(w, &v.Totals.TotalAgainst)
	if v.Totals.Status == dao.MarketResolved {
		w.RawString(`,"outcome":`)
		w.String(v.Totals.Outcome.String())
		w.RawString(`,"resolvedAt":`)
		w.Int64(v.Totals.ResolvedAt)
	}
	w.RawString(`,"stakers":`)
	writeAddresses(w, v.Stakers)
	w.RawByte('}')
}

type stakeView struct {
	Stake *dao.ProposalStake
}

func (v stakeView) MarshalTinyJSON(w *jwriter.Writer) {
	w.RawString(`{"proposalId":`)
	w.Uint64(v.Stake.ProposalID)
	w.RawString(`,"staker":`)
	w.String(v.Stake.Staker.String())
	w.RawString(`,"side":`)
	w.String(v.Stake.Side.String())
	w.RawString(`,"amount":`)
	writeAmount(w, &v.Stake.Amount)
	w.RawString(`,"status":`)
	w.String(v.Stake.Status.String())
	w.RawString(`,"payout":`)
	writeAmount(w, &v.Stake.Payout)
	w.RawByte('}')
}

type errorView struct {
	Message string
}

func (v errorView) MarshalTinyJSON(w *jwriter.Writer) {
	w.RawString(`{"error":`)
	w.String(v.Message)
	w.RawByte('}')
}
