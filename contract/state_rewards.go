package contract

import (
	"okinoko_ledger/contract/dao"
	"okinoko_ledger/sdk"
	"okinoko_ledger/state"
)

// loadRewardState returns the accrual bookkeeping, zero valued before the first write.
func loadRewardState(txn state.Txn, inst sdk.Address) (*dao.RewardState, error) {
	ptr := txn.Get(rewardStateKey(inst))
	if ptr == nil || *ptr == "" {
		return &dao.RewardState{}, nil
	}
	return dao.DecodeRewardState([]byte(*ptr))
}

func saveRewardState(txn state.Txn, inst sdk.Address, rs *dao.RewardState) {
	state.SetIfChanged(txn, rewardStateKey(inst), string(dao.EncodeRewardState(rs)))
}

// loadDepositor hands back an empty position for unknown addresses so callers
// never branch on existence.
func loadDepositor(txn state.Txn, inst, addr sdk.Address) (*dao.Depositor, error) {
	ptr := txn.Get(depositorKey(inst, addr))
	if ptr == nil || *ptr == "" {
		return &dao.Depositor{Address: addr}, nil
	}
	return dao.DecodeDepositor([]byte(*ptr))
}

func saveDepositor(txn state.Txn, inst sdk.Address, d *dao.Depositor) {
	state.SetIfChanged(txn, depositorKey(inst, d.Address), string(dao.EncodeDepositor(d)))
}
