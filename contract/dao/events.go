package dao

import (
	"strings"

	"github.com/CosmWasm/tinyjson/jwriter"

	"okinoko_ledger/sdk"
)

// EventType names a notification the ledger or registry emits after commit.
type EventType string

const (
	EventInstanceCreated      EventType = "instance-created"
	EventOwnershipTransferred EventType = "ownership-transferred"
	EventVoteCast             EventType = "vote-cast"
	EventStakePlaced          EventType = "stake-placed"
	EventProposalResolved     EventType = "proposal-resolved"
	EventStakeClaimed         EventType = "stake-claimed"
	EventDeposited            EventType = "deposited"
	EventWithdrawn            EventType = "withdrawn"
	EventRewardsClaimed       EventType = "rewards-claimed"
	EventRewardRateSet        EventType = "reward-rate-set"
	EventOwnerDeposited       EventType = "owner-deposited"
	EventOwnerWithdrawn       EventType = "owner-withdrawn"
)

// eventCodes are the terse prefixes used in log lines.
var eventCodes = map[EventType]string{
	EventInstanceCreated:      "ic",
	EventOwnershipTransferred: "ot",
	EventVoteCast:             "v",
	EventStakePlaced:          "sp",
	EventProposalResolved:     "pr",
	EventStakeClaimed:         "sc",
	EventDeposited:            "d",
	EventWithdrawn:            "w",
	EventRewardsClaimed:       "rc",
	EventRewardRateSet:        "rr",
	EventOwnerDeposited:       "od",
	EventOwnerWithdrawn:       "ow",
}

// Code returns the short log prefix for the type.
func (t EventType) Code() string {
	if c, ok := eventCodes[t]; ok {
		return c
	}
	return string(t)
}

// Attr is one ordered key/value pair of an event.
type Attr struct {
	Key   string
	Value string
}

type Event struct {
	Type      EventType
	Instance  sdk.Address
	Actor     sdk.Address
	TxId      string
	Height    uint64
	Timestamp int64
	Attrs     []Attr
}

// Attr looks up an attribute value by key.
func (e Event) Attr(key string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Line renders the event as a pipe-delimited log entry so watchers can replay
// state from logs only.
// Example: "v|inst:contract:ledger-1|by:hive:alice|id:7|s:for|w:100"
func (e Event) Line() string {
	var b strings.Builder
	b.WriteString(e.Type.Code())
	b.WriteString("|inst:")
	b.WriteString(e.Instance.String())
	b.WriteString("|by:")
	b.WriteString(e.Actor.String())
	for _, a := range e.Attrs {
		b.WriteByte('|')
		b.WriteString(a.Key)
		b.WriteByte(':')
		b.WriteString(a.Value)
	}
	return b.String()
}

// MarshalTinyJSON writes the event as a flat JSON object.
func (e Event) MarshalTinyJSON(w *jwriter.Writer) {
	w.RawString(`{"type":`)
	w.String(string(e.Type))
	w.RawString(`,"instance":`)
	w.String(e.Instance.String())
	w.RawString(`,"actor":`)
	w.String(e.Actor.String())
	w.RawString(`,"tx":`)
	w.String(e.TxId)
	w.RawString(`,"height":`)
	w.Uint64(e.Height)
	w.RawString(`,"ts":`)
	w.Int64(e.Timestamp)
	w.RawString(`,"attrs":{`)
	for i, a := range e.Attrs {
		if i > 0 {
			w.RawByte(',')
		}
		w.String(a.Key)
		w.RawByte(':')
		w.String(a.Value)
	}
	w.RawString(`}}`)
}

// JSON renders the event for sinks that ship documents instead of log lines.
func (e Event) JSON() ([]byte, error) {
	w := jwriter.Writer{}
	e.MarshalTinyJSON(&w)
	return w.BuildBytes()
}
