package contract

import (
	"fmt"

	"okinoko_ledger/contract/dao"
	"okinoko_ledger/sdk"
	"okinoko_ledger/state"
)

// saveInstanceMeta writes the identity record of a ledger.
func saveInstanceMeta(txn state.Txn, meta *dao.InstanceMeta) {
	txn.Set(instanceMetaKey(meta.Address), string(dao.EncodeInstanceMeta(meta)))
}

// loadInstanceMeta decodes the identity record; a missing one means the
// instance was never created through the registry.
func loadInstanceMeta(txn state.Txn, inst sdk.Address) (*dao.InstanceMeta, error) {
	ptr := txn.Get(instanceMetaKey(inst))
	if ptr == nil || *ptr == "" {
		return nil, fmt.Errorf("%w: %s", dao.ErrInstanceNotFound, inst)
	}
	return dao.DecodeInstanceMeta([]byte(*ptr))
}
