package contract

import (
	"encoding/binary"

	"okinoko_ledger/sdk"
)

const (
	// kInstanceMeta stores the encoded InstanceMeta of one ledger.
	kInstanceMeta byte = 0x01
	// kRewardState holds the instance wide accrual bookkeeping.
	kRewardState byte = 0x02
	// kDepositor houses encoded Depositor structs (instance scoped).
	kDepositor byte = 0x03
	// kVote contains the owner's vote per proposal id.
	kVote byte = 0x10
	// kVoteCount counts recorded votes so views dont scan.
	kVoteCount byte = 0x11
	// kStake stores one ProposalStake per (proposal, staker).
	kStake byte = 0x20
	// kStakeTotals aggregates both sides of a proposal market.
	kStakeTotals byte = 0x21
	// kStaker lists stakers of a proposal by join order so resolution can walk them.
	kStaker byte = 0x22
	// kRegOwner maps an operator address to its instance.
	kRegOwner byte = 0x30
	// kRegInstance maps an instance back to the operator the registry believes owns it.
	kRegInstance byte = 0x31
	// kRegIndex lists instances by creation sequence for paging.
	kRegIndex byte = 0x32
)

// packU64LE appends the encoded number to dst and returns the new slice.
func packU64LE(x uint64, dst []byte) []byte {
	return binary.LittleEndian.AppendUint64(dst, x)
}

// appendAddr writes a length prefixed address so variable sized segments never bleed into each other.
func appendAddr(dst []byte, a sdk.Address) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(a)))
	return append(dst, a...)
}

// scoped starts an instance scoped key: prefix | len(inst) | inst.
func scoped(prefix byte, inst sdk.Address, extra int) []byte {
	buf := make([]byte, 0, 2+len(inst)+extra)
	buf = append(buf, prefix)
	return appendAddr(buf, inst)
}

func instanceMetaKey(inst sdk.Address) string {
	return string(scoped(kInstanceMeta, inst, 0))
}

func rewardStateKey(inst sdk.Address) string {
	return string(scoped(kRewardState, inst, 0))
}

// depositorKey is prefix 0x03 + instance + depositor address.
func depositorKey(inst, addr sdk.Address) string {
	buf := scoped(kDepositor, inst, 1+len(addr))
	return string(appendAddr(buf, addr))
}

func voteKey(inst sdk.Address, proposalID uint64) string {
	buf := scoped(kVote, inst, 8)
	return string(packU64LE(proposalID, buf))
}

func voteCountKey(inst sdk.Address) string {
	return string(scoped(kVoteCount, inst, 0))
}

// stakeKey is prefix 0x20 + instance + proposal id + staker.
func stakeKey(inst sdk.Address, proposalID uint64, staker sdk.Address) string {
	buf := scoped(kStake, inst, 9+len(staker))
	buf = packU64LE(proposalID, buf)
	return string(appendAddr(buf, staker))
}

func stakeTotalsKey(inst sdk.Address, proposalID uint64) string {
	buf := scoped(kStakeTotals, inst, 8)
	return string(packU64LE(proposalID, buf))
}

// stakerKey indexes the idx-th staker of a proposal.
func stakerKey(inst sdk.Address, proposalID, idx uint64) string {
	buf := scoped(kStaker, inst, 16)
	buf = packU64LE(proposalID, buf)
	return string(packU64LE(idx, buf))
}

func regOwnerKey(owner sdk.Address) string {
	return string(appendAddr([]byte{kRegOwner}, owner))
}

func regInstanceKey(inst sdk.Address) string {
	return string(appendAddr([]byte{kRegInstance}, inst))
}

func regIndexKey(seq uint64) string {
	var buf [9]byte
	buf[0] = kRegIndex
	binary.LittleEndian.PutUint64(buf[1:], seq)
	return string(buf[:])
}
