package contract_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"okinoko_ledger/contract"
	"okinoko_ledger/contract/dao"
	"okinoko_ledger/sdk"
)

// =============================================================================
// Proposal Stake Market Tests
// =============================================================================

func TestMarketScenarioWinnerTakesLosingPool(t *testing.T) {
	lt := SetupLedgerTest(t)
	ts := startTimestamp
	require.NoError(t, lt.ledger.StakeForProposal(lt.ctx, envAt(depositorA, ts), 9, 1, amt(100)))
	require.NoError(t, lt.ledger.StakeForProposal(lt.ctx, envAt(depositorB, ts), 9, 0, amt(100)))
	require.NoError(t, lt.ledger.ResolveProposal(lt.ctx, envAt(ownerAddress, ts+60), 9, uint8(dao.OutcomeForWon)))

	paid, err := lt.ledger.ClaimStake(lt.ctx, envAt(depositorA, ts+61), 9)
	require.NoError(t, err)
	assertAmount(t, 200, paid)
	assertAmount(t, seedBalance+100, lt.bank.BalanceOf(depositorA))

	paid, err = lt.ledger.ClaimStake(lt.ctx, envAt(depositorB, ts+61), 9)
	require.NoError(t, err)
	assertAmount(t, 0, paid)
	assertAmount(t, seedBalance-100, lt.bank.BalanceOf(depositorB))

	_, err = lt.ledger.ClaimStake(lt.ctx, envAt(depositorB, ts+62), 9)
	assert.ErrorIs(t, err, dao.ErrAlreadyClaimed)

	s, err := lt.ledger.Stake(lt.ctx, 9, depositorB)
	require.NoError(t, err)
	assert.Equal(t, dao.StakeClaimed, s.Status)
	assert.Len(t, lt.events.ofType(dao.EventStakeClaimed), 2)
}

func TestMarketProRataPayoutWithFlooring(t *testing.T) {
	lt := SetupLedgerTest(t)
	ts := startTimestamp
	require.NoError(t, lt.ledger.StakeForProposal(lt.ctx, envAt(depositorA, ts), 4, 1, amt(30)))
	require.NoError(t, lt.ledger.StakeForProposal(lt.ctx, envAt(outsider, ts), 4, 1, amt(70)))
	require.NoError(t, lt.ledger.StakeForProposal(lt.ctx, envAt(depositorB, ts), 4, 0, amt(51)))
	require.NoError(t, lt.ledger.ResolveProposal(lt.ctx, envAt(ownerAddress, ts), 4, uint8(dao.OutcomeForWon)))

	a, err := lt.ledger.ClaimStake(lt.ctx, envAt(depositorA, ts), 4)
	require.NoError(t, err)
	o, err := lt.ledger.ClaimStake(lt.ctx, envAt(outsider, ts), 4)
	require.NoError(t, err)
	// 30*51/100 = 15.3 and 70*51/100 = 35.7
	assertAmount(t, 45, a)
	assertAmount(t, 105, o)
	// one unit of dust stays with the instance
	assertAmount(t, 1, lt.bank.BalanceOf(lt.ledger.Address()))
}

func TestMarketEmptyWinningPoolRefundsEveryone(t *testing.T) {
	lt := SetupLedgerTest(t)
	ts := startTimestamp
	require.NoError(t, lt.ledger.StakeForProposal(lt.ctx, envAt(depositorA, ts), 2, 1, amt(10)))
	require.NoError(t, lt.ledger.StakeForProposal(lt.ctx, envAt(depositorB, ts), 2, 1, amt(20)))
	require.NoError(t, lt.ledger.ResolveProposal(lt.ctx, envAt(ownerAddress, ts), 2, uint8(dao.OutcomeAgainstWon)))

	a, err := lt.ledger.ClaimStake(lt.ctx, envAt(depositorA, ts), 2)
	require.NoError(t, err)
	b, err := lt.ledger.ClaimStake(lt.ctx, envAt(depositorB, ts), 2)
	require.NoError(t, err)
	assertAmount(t, 10, a)
	assertAmount(t, 20, b)
	assertAmount(t, seedBalance, lt.bank.BalanceOf(depositorA))
}

func TestMarketRestakeSameSideIsAdditive(t *testing.T) {
	lt := SetupLedgerTest(t)
	ts := startTimestamp
	require.NoError(t, lt.ledger.StakeForProposal(lt.ctx, envAt(depositorA, ts), 5, 1, amt(50)))
	require.NoError(t, lt.ledger.StakeForProposal(lt.ctx, envAt(depositorA, ts+1), 5, 1, amt(30)))

	err := lt.ledger.StakeForProposal(lt.ctx, envAt(depositorA, ts+2), 5, 0, amt(1))
	assert.ErrorIs(t, err, dao.ErrStakeSideConflict)

	s, err := lt.ledger.Stake(lt.ctx, 5, depositorA)
	require.NoError(t, err)
	assertAmount(t, 80, &s.Amount)

	totals, err := lt.ledger.StakeTotals(lt.ctx, 5)
	require.NoError(t, err)
	assertAmount(t, 80, &totals.TotalFor)
	assertAmount(t, 0, &totals.TotalAgainst)
	assert.Equal(t, uint64(1), totals.StakerCount)
}

func TestMarketResolutionMarksStakesAndSealsMarket(t *testing.T) {
	lt := SetupLedgerTest(t)
	ts := startTimestamp
	require.NoError(t, lt.ledger.StakeForProposal(lt.ctx, envAt(depositorB, ts), 3, 0, amt(5)))
	require.NoError(t, lt.ledger.StakeForProposal(lt.ctx, envAt(depositorA, ts), 3, 1, amt(5)))

	_, err := lt.ledger.ClaimStake(lt.ctx, envAt(depositorA, ts), 3)
	assert.ErrorIs(t, err, dao.ErrNotResolved)

	env := envAt(ownerAddress, ts+10)
	assert.ErrorIs(t, lt.ledger.ResolveProposal(lt.ctx, envAt(outsider, ts+10), 3, 1), dao.ErrUnauthorized)
	assert.ErrorIs(t, lt.ledger.ResolveProposal(lt.ctx, env, 3, 0), dao.ErrInvalidOutcome)
	assert.ErrorIs(t, lt.ledger.ResolveProposal(lt.ctx, env, 3, 3), dao.ErrInvalidOutcome)
	require.NoError(t, lt.ledger.ResolveProposal(lt.ctx, env, 3, uint8(dao.OutcomeAgainstWon)))
	assert.ErrorIs(t, lt.ledger.ResolveProposal(lt.ctx, env, 3, 1), dao.ErrAlreadyResolved)

	stakers, err := lt.ledger.Stakers(lt.ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []sdk.Address{depositorB, depositorA}, stakers)
	for _, addr := range stakers {
		s, err := lt.ledger.Stake(lt.ctx, 3, addr)
		require.NoError(t, err)
		assert.Equal(t, dao.StakeResolved, s.Status)
	}

	totals, err := lt.ledger.StakeTotals(lt.ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, dao.MarketResolved, totals.Status)
	assert.Equal(t, dao.OutcomeAgainstWon, totals.Outcome)
	assert.Equal(t, ts+10, totals.ResolvedAt)

	err = lt.ledger.StakeForProposal(lt.ctx, envAt(outsider, ts+11), 3, 1, amt(5))
	assert.ErrorIs(t, err, dao.ErrAlreadyResolved)
}

func TestMarketResolveWithoutStakesClosesIt(t *testing.T) {
	lt := SetupLedgerTest(t)
	require.NoError(t, lt.ledger.ResolveProposal(lt.ctx, envAt(ownerAddress, startTimestamp), 11, 1))
	err := lt.ledger.StakeForProposal(lt.ctx, envAt(depositorA, startTimestamp), 11, 1, amt(5))
	assert.ErrorIs(t, err, dao.ErrAlreadyResolved)
}

func TestMarketInputValidation(t *testing.T) {
	lt := SetupLedgerTest(t)
	env := envAt(depositorA, startTimestamp)
	assert.ErrorIs(t, lt.ledger.StakeForProposal(lt.ctx, env, 1, 2, amt(5)), dao.ErrInvalidSide)
	assert.ErrorIs(t, lt.ledger.StakeForProposal(lt.ctx, env, 1, 1, amt(0)), dao.ErrZeroAmount)

	_, err := lt.ledger.ClaimStake(lt.ctx, env, 1)
	assert.ErrorIs(t, err, dao.ErrNoStake)

	s, err := lt.ledger.Stake(lt.ctx, 1, depositorA)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestMarketThroughDispatch(t *testing.T) {
	lt := SetupLedgerTest(t)
	ts := startTimestamp
	CallLedger(t, lt, contract.ActionStakeForProposal, "9|1|100", depositorA, ts, true)
	CallLedger(t, lt, contract.ActionStakeForProposal, "9|0|100", depositorB, ts, true)
	CallLedger(t, lt, contract.ActionStakeForProposal, "9|x|100", depositorB, ts, false)
	CallLedger(t, lt, contract.ActionResolveProposal, "9|1", depositorA, ts, false)
	res := CallLedger(t, lt, contract.ActionResolveProposal, "9|1", ownerAddress, ts, true)
	assert.Equal(t, "resolved 9 for_won", res)
	res = CallLedger(t, lt, contract.ActionClaimStake, "9", depositorA, ts, true)
	assert.Equal(t, "paid 200", res)
	res = CallLedger(t, lt, contract.ActionClaimStake, "9", depositorB, ts, true)
	assert.Equal(t, "paid 0", res)
}
