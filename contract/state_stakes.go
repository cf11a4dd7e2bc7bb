package contract

import (
	"okinoko_ledger/contract/dao"
	"okinoko_ledger/sdk"
	"okinoko_ledger/state"
)

// loadStake returns the staker's position or nil when there is none.
func loadStake(txn state.Txn, inst sdk.Address, proposalID uint64, staker sdk.Address) (*dao.ProposalStake, error) {
	ptr := txn.Get(stakeKey(inst, proposalID, staker))
	if ptr == nil || *ptr == "" {
		return nil, nil
	}
	return dao.DecodeProposalStake([]byte(*ptr))
}

func saveStake(txn state.Txn, inst sdk.Address, s *dao.ProposalStake) {
	txn.Set(stakeKey(inst, s.ProposalID, s.Staker), string(dao.EncodeProposalStake(s)))
}

// loadStakeTotals returns the market aggregate, an empty active market when unseen.
func loadStakeTotals(txn state.Txn, inst sdk.Address, proposalID uint64) (*dao.ProposalStakeTotals, error) {
	ptr := txn.Get(stakeTotalsKey(inst, proposalID))
	if ptr == nil || *ptr == "" {
		return &dao.ProposalStakeTotals{ProposalID: proposalID}, nil
	}
	return dao.DecodeStakeTotals([]byte(*ptr))
}

func saveStakeTotals(txn state.Txn, inst sdk.Address, t *dao.ProposalStakeTotals) {
	txn.Set(stakeTotalsKey(inst, t.ProposalID), string(dao.EncodeStakeTotals(t)))
}

// appendStaker adds addr to the proposal's staker list; totals.StakerCount is the next slot.
func appendStaker(txn state.Txn, inst sdk.Address, t *dao.ProposalStakeTotals, addr sdk.Address) {
	txn.Set(stakerKey(inst, t.ProposalID, t.StakerCount), addr.String())
	t.StakerCount++
}

// loadStakers walks the staker list in join order.
func loadStakers(txn state.Txn, inst sdk.Address, t *dao.ProposalStakeTotals) []sdk.Address {
	out := make([]sdk.Address, 0, t.StakerCount)
	for i := uint64(0); i < t.StakerCount; i++ {
		ptr := txn.Get(stakerKey(inst, t.ProposalID, i))
		if ptr == nil {
			continue
		}
		out = append(out, sdk.Address(*ptr))
	}
	return out
}
