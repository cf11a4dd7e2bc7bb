package contract

import (
	"okinoko_ledger/contract/dao"
	"okinoko_ledger/sdk"
)

// isAuthorized is the whole access policy: the current owner and nobody else.
func isAuthorized(meta *dao.InstanceMeta, caller sdk.Address) bool {
	return !caller.IsZero() && caller == meta.Owner
}

// requireOwner is called first by every privileged operation so a rejected
// caller never touches state.
func requireOwner(meta *dao.InstanceMeta, caller sdk.Address) error {
	if !isAuthorized(meta, caller) {
		return dao.ErrUnauthorized
	}
	return nil
}
