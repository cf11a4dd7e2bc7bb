package contract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/holiman/uint256"

	"okinoko_ledger/contract/dao"
	"okinoko_ledger/sdk"
)

// CastVoteArgs is decoded from `proposalId|support|reason`.
type CastVoteArgs struct {
	ProposalID uint64
	Support    uint8
	Reason     string
}

// StakeArgs is decoded from `proposalId|side|amount`.
type StakeArgs struct {
	ProposalID uint64
	Side       uint8
	Amount     *uint256.Int
}

// ResolveArgs is decoded from `proposalId|outcome`.
type ResolveArgs struct {
	ProposalID uint64
	Outcome    uint8
}

// ReceiptTransferArgs is decoded from `to|amount`.
type ReceiptTransferArgs struct {
	To     sdk.Address
	Amount *uint256.Int
}

func payloadErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", dao.ErrInvalidPayload, fmt.Sprintf(format, args...))
}

// unwrapPayload trims quotes and whitespace and rejects empty payloads.
func unwrapPayload(payload string, what string) (string, error) {
	raw := strings.TrimSpace(payload)
	if len(raw) >= 2 {
		first, last := raw[0], raw[len(raw)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			if unquoted, err := strconv.Unquote(raw); err == nil {
				raw = strings.TrimSpace(unquoted)
			} else {
				raw = strings.TrimSpace(raw[1 : len(raw)-1])
			}
		}
	}
	if raw == "" {
		return "", payloadErr("%s missing", what)
	}
	return raw, nil
}

// splitPayload unwraps and splits on '|', requiring at least n fields.
func splitPayload(payload string, n int, shape string) ([]string, error) {
	raw, err := unwrapPayload(payload, shape)
	if err != nil {
		return nil, err
	}
	parts := strings.Split(raw, "|")
	if len(parts) < n {
		return nil, payloadErr("payload requires %s", shape)
	}
	return parts, nil
}

// parseUintField is the uint variant used for proposal ids.
func parseUintField(val string, field string) (uint64, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(val), 10, 64)
	if err != nil {
		return 0, payloadErr("invalid %s", field)
	}
	return n, nil
}

// parseSmallField reads the 0..255 enum values (support, side, outcome).
func parseSmallField(val string, field string) (uint8, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(val), 10, 8)
	if err != nil {
		return 0, payloadErr("invalid %s", field)
	}
	return uint8(n), nil
}

func parseAmountField(val string, field string) (*uint256.Int, error) {
	v, err := dao.ParseAmount(strings.TrimSpace(val))
	if err != nil {
		return nil, payloadErr("invalid %s", field)
	}
	return v, nil
}

// decodeAmountArgs expects a bare decimal amount.
func decodeAmountArgs(payload string) (*uint256.Int, error) {
	raw, err := unwrapPayload(payload, "amount")
	if err != nil {
		return nil, err
	}
	return parseAmountField(raw, "amount")
}

// decodeAddressArgs expects a bare address.
func decodeAddressArgs(payload string) (sdk.Address, error) {
	raw, err := unwrapPayload(payload, "address")
	if err != nil {
		return sdk.ZeroAddress, err
	}
	return sdk.Address(raw), nil
}

func decodeProposalIDArgs(payload string) (uint64, error) {
	raw, err := unwrapPayload(payload, "proposal id")
	if err != nil {
		return 0, err
	}
	return parseUintField(raw, "proposal id")
}

// decodeCastVoteArgs expects `proposalId|support|reason`; the reason may contain pipes.
func decodeCastVoteArgs(payload string) (*CastVoteArgs, error) {
	parts, err := splitPayload(payload, 2, "proposalId|support|reason")
	if err != nil {
		return nil, err
	}
	id, err := parseUintField(parts[0], "proposal id")
	if err != nil {
		return nil, err
	}
	support, err := parseSmallField(parts[1], "support")
	if err != nil {
		return nil, err
	}
	args := &CastVoteArgs{ProposalID: id, Support: support}
	if len(parts) > 2 {
		args.Reason = strings.TrimSpace(strings.Join(parts[2:], "|"))
	}
	return args, nil
}

// decodeStakeArgs expects `proposalId|side|amount`.
func decodeStakeArgs(payload string) (*StakeArgs, error) {
	parts, err := splitPayload(payload, 3, "proposalId|side|amount")
	if err != nil {
		return nil, err
	}
	id, err := parseUintField(parts[0], "proposal id")
	if err != nil {
		return nil, err
	}
	side, err := parseSmallField(parts[1], "side")
	if err != nil {
		return nil, err
	}
	amount, err := parseAmountField(parts[2], "amount")
	if err != nil {
		return nil, err
	}
	return &StakeArgs{ProposalID: id, Side: side, Amount: amount}, nil
}

// decodeResolveArgs expects `proposalId|outcome`.
func decodeResolveArgs(payload string) (*ResolveArgs, error) {
	parts, err := splitPayload(payload, 2, "proposalId|outcome")
	if err != nil {
		return nil, err
	}
	id, err := parseUintField(parts[0], "proposal id")
	if err != nil {
		return nil, err
	}
	outcome, err := parseSmallField(parts[1], "outcome")
	if err != nil {
		return nil, err
	}
	return &ResolveArgs{ProposalID: id, Outcome: outcome}, nil
}

// decodeReceiptTransferArgs expects `to|amount`.
func decodeReceiptTransferArgs(payload string) (*ReceiptTransferArgs, error) {
	parts, err := splitPayload(payload, 2, "to|amount")
	if err != nil {
		return nil, err
	}
	amount, err := parseAmountField(parts[1], "amount")
	if err != nil {
		return nil, err
	}
	return &ReceiptTransferArgs{To: sdk.Address(strings.TrimSpace(parts[0])), Amount: amount}, nil
}
