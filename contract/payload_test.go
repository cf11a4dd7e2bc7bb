package contract

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"okinoko_ledger/contract/dao"
	"okinoko_ledger/sdk"
)

func TestUnwrapPayload(t *testing.T) {
	raw, err := unwrapPayload(` "7|1|ok" `, "vote")
	require.NoError(t, err)
	assert.Equal(t, "7|1|ok", raw)

	raw, err = unwrapPayload(`'100'`, "amount")
	require.NoError(t, err)
	assert.Equal(t, "100", raw)

	_, err = unwrapPayload(`""`, "amount")
	assert.ErrorIs(t, err, dao.ErrInvalidPayload)
	_, err = unwrapPayload("   ", "amount")
	assert.ErrorIs(t, err, dao.ErrInvalidPayload)
}

func TestDecodeCastVoteArgs(t *testing.T) {
	args, err := decodeCastVoteArgs("12|2")
	require.NoError(t, err)
	assert.Equal(t, &CastVoteArgs{ProposalID: 12, Support: 2}, args)

	_, err = decodeCastVoteArgs("12")
	assert.ErrorIs(t, err, dao.ErrInvalidPayload)
	_, err = decodeCastVoteArgs("x|1")
	assert.ErrorIs(t, err, dao.ErrInvalidPayload)
	_, err = decodeCastVoteArgs("1|256")
	assert.ErrorIs(t, err, dao.ErrInvalidPayload)
}

func TestDecodeStakeArgs(t *testing.T) {
	args, err := decodeStakeArgs("9| 1 |115792089237316195423570985008687907853269984665640564039457584007913129639935")
	require.NoError(t, err)
	assert.Equal(t, uint64(9), args.ProposalID)
	assert.Equal(t, uint8(1), args.Side)
	assert.True(t, args.Amount.Eq(new(uint256.Int).SetAllOne()))

	_, err = decodeStakeArgs("9|1|-5")
	assert.ErrorIs(t, err, dao.ErrInvalidPayload)
	_, err = decodeStakeArgs("9|1")
	assert.ErrorIs(t, err, dao.ErrInvalidPayload)
}

func TestDecodeResolveAndTransferArgs(t *testing.T) {
	res, err := decodeResolveArgs("3|2")
	require.NoError(t, err)
	assert.Equal(t, &ResolveArgs{ProposalID: 3, Outcome: 2}, res)

	tr, err := decodeReceiptTransferArgs("hive:bob|5")
	require.NoError(t, err)
	assert.Equal(t, sdk.Address("hive:bob"), tr.To)
	assert.Equal(t, "5", tr.Amount.Dec())
}

func TestKeysDoNotCollideAcrossInstances(t *testing.T) {
	// without length prefixes "a"+"bc" and "ab"+"c" would share a key
	assert.NotEqual(t,
		depositorKey("contract:a", "bc"),
		depositorKey("contract:ab", "c"),
	)
	assert.NotEqual(t, voteKey("contract:ledger-1", 1), voteKey("contract:ledger-11", 1))
	assert.NotEqual(t, stakeKey("contract:x", 1, "hive:a"), stakeKey("contract:x", 2, "hive:a"))
	assert.NotEqual(t, regOwnerKey("hive:a"), regInstanceKey("hive:a"))
}
