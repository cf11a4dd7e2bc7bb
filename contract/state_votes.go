package contract

import (
	"okinoko_ledger/contract/dao"
	"okinoko_ledger/sdk"
	"okinoko_ledger/state"
)

// loadVote returns the recorded vote or nil when the proposal is unvoted.
func loadVote(txn state.Txn, inst sdk.Address, proposalID uint64) (*dao.Vote, error) {
	ptr := txn.Get(voteKey(inst, proposalID))
	if ptr == nil || *ptr == "" {
		return nil, nil
	}
	return dao.DecodeVote([]byte(*ptr))
}

// saveVote writes the vote and bumps the per instance counter. Votes are
// written once, so there is no update path.
func saveVote(txn state.Txn, inst sdk.Address, v *dao.Vote) {
	txn.Set(voteKey(inst, v.ProposalID), string(dao.EncodeVote(v)))
	key := voteCountKey(inst)
	setCount(txn, key, getCount(txn, key)+1)
}
