package contract

import (
	"okinoko_ledger/sdk"
	"okinoko_ledger/state"
)

// registryInstanceOf resolves owner -> instance.
func registryInstanceOf(txn state.Txn, owner sdk.Address) (sdk.Address, bool) {
	ptr := txn.Get(regOwnerKey(owner))
	if ptr == nil || *ptr == "" {
		return sdk.ZeroAddress, false
	}
	return sdk.Address(*ptr), true
}

// registryOwnerOf resolves instance -> owner as last recorded by the registry.
func registryOwnerOf(txn state.Txn, inst sdk.Address) (sdk.Address, bool) {
	ptr := txn.Get(regInstanceKey(inst))
	if ptr == nil || *ptr == "" {
		return sdk.ZeroAddress, false
	}
	return sdk.Address(*ptr), true
}

// registryBind records both directions. Stale owner keys are cleared by the caller.
func registryBind(txn state.Txn, owner, inst sdk.Address) {
	txn.Set(regOwnerKey(owner), inst.String())
	txn.Set(regInstanceKey(inst), owner.String())
}

func registryInstanceAt(txn state.Txn, seq uint64) (sdk.Address, bool) {
	ptr := txn.Get(regIndexKey(seq))
	if ptr == nil || *ptr == "" {
		return sdk.ZeroAddress, false
	}
	return sdk.Address(*ptr), true
}

func registryAppend(txn state.Txn, inst sdk.Address) uint64 {
	seq := getCount(txn, InstancesCount)
	txn.Set(regIndexKey(seq), inst.String())
	setCount(txn, InstancesCount, seq+1)
	return seq
}
