package sdk

import (
	"strconv"
	"time"
)

// Sender identifies who signed the current call.
type Sender struct {
	Address       Address   `json:"id"`
	RequiredAuths []Address `json:"required_auths"`
}

// Env is the per-call execution environment supplied by the caller's session
// layer. Every ledger operation reads identity and time from it and nothing else.
type Env struct {
	TxId        string `json:"tx.id"`
	BlockId     string `json:"block.id"`
	BlockHeight uint64 `json:"block.height"`
	Timestamp   string `json:"block.timestamp"`
	Sender      Sender `json:"sender"`
}

// NewEnv is a small helper for callers that only know sender, height and time.
// Example payload: sdk.NewEnv("hive:alice", 12, 1700000000)
func NewEnv(sender Address, height uint64, unix int64) Env {
	return Env{
		BlockHeight: height,
		Timestamp:   strconv.FormatInt(unix, 10),
		Sender:      Sender{Address: sender, RequiredAuths: []Address{sender}},
	}
}

// Caller returns the address of the current transaction sender.
func (e Env) Caller() Address {
	return e.Sender.Address
}

// Unix returns the block timestamp in seconds, falling back to wall clock
// when the env carries no parseable time.
func (e Env) Unix() int64 {
	if e.Timestamp != "" {
		if v, ok := ParseTimestamp(e.Timestamp); ok {
			return v
		}
	}
	return time.Now().Unix()
}

// ParseTimestamp accepts unix seconds or iso-ish strings since hosts flip formats sometimes.
func ParseTimestamp(val string) (int64, bool) {
	if v, err := strconv.ParseInt(val, 10, 64); err == nil {
		return v, true
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return t.Unix(), true
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", val, time.UTC); err == nil {
		return t.Unix(), true
	}
	return 0, false
}
