package contract

import (
	"strconv"

	"okinoko_ledger/state"
)

// InstancesCount holds the registry's instance counter (also the next sequence).
const InstancesCount = "count:inst"

// getCount reads the string counter under the key and defaults to zero, nothing magical here.
func getCount(txn state.Txn, key string) uint64 {
	ptr := txn.Get(key)
	if ptr == nil || *ptr == "" {
		return 0
	}
	n, _ := strconv.ParseUint(*ptr, 10, 64)
	return n
}

// setCount stores uint64 counters back as decimal strings.
func setCount(txn state.Txn, key string, n uint64) {
	txn.Set(key, strconv.FormatUint(n, 10))
}

// UInt64ToString turns an id back into decimal text for event attributes.
// Example payload: UInt64ToString(9001)
func UInt64ToString(val uint64) string {
	return strconv.FormatUint(val, 10)
}
