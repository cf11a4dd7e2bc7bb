package contract_test

import (
	"context"
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"okinoko_ledger/bank"
	"okinoko_ledger/contract"
	"okinoko_ledger/contract/dao"
	"okinoko_ledger/sdk"
	"okinoko_ledger/state"
	"okinoko_ledger/state/memory"
)

// =============================================================================
// Reward Ledger Tests
// =============================================================================

// fundAndStake funds the pool, sets the rate and stakes for depositorA, all at t0.
func fundAndStake(t *testing.T, lt *ledgerTest, pool, rate, stake uint64) {
	t.Helper()
	t0 := startTimestamp
	require.NoError(t, lt.ledger.OwnerDeposit(lt.ctx, envAt(ownerAddress, t0), amt(pool)))
	require.NoError(t, lt.ledger.SetRewardRate(lt.ctx, envAt(ownerAddress, t0), amt(rate)))
	require.NoError(t, lt.ledger.Deposit(lt.ctx, envAt(depositorA, t0), amt(stake)))
}

func TestRewardScenarioOwnerCannotDrainEarnedRewards(t *testing.T) {
	lt := SetupLedgerTest(t)
	fundAndStake(t, lt, 1000, 1, 100)
	t1 := startTimestamp + 50

	pending, err := lt.ledger.PendingRewards(lt.ctx, depositorA, t1)
	require.NoError(t, err)
	assertAmount(t, 50, pending)

	err = lt.ledger.OwnerWithdraw(lt.ctx, envAt(ownerAddress, t1), amt(1000))
	assert.ErrorIs(t, err, dao.ErrAmountExceedsAvailableRewards)

	require.NoError(t, lt.ledger.OwnerWithdraw(lt.ctx, envAt(ownerAddress, t1), amt(800)))

	paid, err := lt.ledger.ClaimRewards(lt.ctx, envAt(depositorA, t1))
	require.NoError(t, err)
	assertAmount(t, 50, paid)
	assertAmount(t, seedBalance-100+50, lt.bank.BalanceOf(depositorA))
	assertAmount(t, seedBalance-1000+800, lt.bank.BalanceOf(ownerAddress))

	rs, err := lt.ledger.RewardState(lt.ctx)
	require.NoError(t, err)
	assertAmount(t, 150, &rs.OwnerDepositedPool)
	assertAmount(t, 0, &rs.TotalPendingRewards)
	assertSolvent(t, lt)
}

func TestRewardsSplitProRata(t *testing.T) {
	lt := SetupLedgerTest(t)
	fundAndStake(t, lt, 1000, 4, 100)
	require.NoError(t, lt.ledger.Deposit(lt.ctx, envAt(depositorB, startTimestamp), amt(300)))

	at := startTimestamp + 10
	a, err := lt.ledger.PendingRewards(lt.ctx, depositorA, at)
	require.NoError(t, err)
	b, err := lt.ledger.PendingRewards(lt.ctx, depositorB, at)
	require.NoError(t, err)
	assertAmount(t, 10, a)
	assertAmount(t, 30, b)
}

func TestRewardAccrualCappedAtPool(t *testing.T) {
	lt := SetupLedgerTest(t)
	fundAndStake(t, lt, 10, 5, 100)

	at := startTimestamp + 100
	pending, err := lt.ledger.PendingRewards(lt.ctx, depositorA, at)
	require.NoError(t, err)
	assertAmount(t, 10, pending)

	available, err := lt.ledger.AvailableRewards(lt.ctx, at)
	require.NoError(t, err)
	assertAmount(t, 0, available)

	err = lt.ledger.OwnerWithdraw(lt.ctx, envAt(ownerAddress, at), amt(1))
	assert.ErrorIs(t, err, dao.ErrAmountExceedsAvailableRewards)
	assertSolvent(t, lt)

	// time without funding earns nothing, new funding accrues from then on
	require.NoError(t, lt.ledger.OwnerDeposit(lt.ctx, envAt(ownerAddress, at+100), amt(20)))
	pending, err = lt.ledger.PendingRewards(lt.ctx, depositorA, at+104)
	require.NoError(t, err)
	assertAmount(t, 30, pending)
}

func TestRewardRateChangeAccruesOldRateFirst(t *testing.T) {
	lt := SetupLedgerTest(t)
	fundAndStake(t, lt, 1000, 1, 100)
	require.NoError(t, lt.ledger.SetRewardRate(lt.ctx, envAt(ownerAddress, startTimestamp+10), amt(3)))

	pending, err := lt.ledger.PendingRewards(lt.ctx, depositorA, startTimestamp+20)
	require.NoError(t, err)
	assertAmount(t, 40, pending)

	rates := lt.events.ofType(dao.EventRewardRateSet)
	require.Len(t, rates, 2)
	v, _ := rates[1].Attr("old")
	assert.Equal(t, "1", v)
}

func TestDepositSettlesBeforeBalanceChange(t *testing.T) {
	lt := SetupLedgerTest(t)
	fundAndStake(t, lt, 1000, 1, 100)
	require.NoError(t, lt.ledger.Deposit(lt.ctx, envAt(depositorA, startTimestamp+10), amt(100)))

	d, err := lt.ledger.Depositor(lt.ctx, depositorA)
	require.NoError(t, err)
	assertAmount(t, 10, &d.PendingRewards)
	assertAmount(t, 200, &d.StakedAmount)

	pending, err := lt.ledger.PendingRewards(lt.ctx, depositorA, startTimestamp+20)
	require.NoError(t, err)
	assertAmount(t, 20, pending)
}

func TestPendingRewardsNeverDecreaseUntilClaim(t *testing.T) {
	lt := SetupLedgerTest(t)
	fundAndStake(t, lt, 500, 3, 100)
	require.NoError(t, lt.ledger.Deposit(lt.ctx, envAt(depositorB, startTimestamp+7), amt(50)))

	last := amt(0)
	for step := int64(0); step <= 300; step += 13 {
		p, err := lt.ledger.PendingRewards(lt.ctx, depositorA, startTimestamp+step)
		require.NoError(t, err)
		assert.False(t, p.Lt(last), "pending dropped at step %d", step)
		last = p
	}
}

func TestWithdrawReturnsStakeAndKeepsPending(t *testing.T) {
	lt := SetupLedgerTest(t)
	fundAndStake(t, lt, 1000, 1, 100)
	at := startTimestamp + 30

	err := lt.ledger.Withdraw(lt.ctx, envAt(depositorA, at), amt(101))
	assert.ErrorIs(t, err, dao.ErrInsufficientBalance)

	require.NoError(t, lt.ledger.Withdraw(lt.ctx, envAt(depositorA, at), amt(100)))
	assertAmount(t, seedBalance, lt.bank.BalanceOf(depositorA))

	// no stake, no further accrual
	pending, err := lt.ledger.PendingRewards(lt.ctx, depositorA, at+100)
	require.NoError(t, err)
	assertAmount(t, 30, pending)

	paid, err := lt.ledger.ClaimRewards(lt.ctx, envAt(depositorA, at+100))
	require.NoError(t, err)
	assertAmount(t, 30, paid)
	assertSolvent(t, lt)
}

func TestZeroClaimSucceedsWithoutEvent(t *testing.T) {
	lt := SetupLedgerTest(t)
	paid, err := lt.ledger.ClaimRewards(lt.ctx, envAt(outsider, startTimestamp))
	require.NoError(t, err)
	assertAmount(t, 0, paid)
	assert.Empty(t, lt.events.ofType(dao.EventRewardsClaimed))
}

func TestZeroAmountsRejected(t *testing.T) {
	lt := SetupLedgerTest(t)
	env := envAt(ownerAddress, startTimestamp)
	assert.ErrorIs(t, lt.ledger.Deposit(lt.ctx, env, amt(0)), dao.ErrZeroAmount)
	assert.ErrorIs(t, lt.ledger.Withdraw(lt.ctx, env, amt(0)), dao.ErrZeroAmount)
	assert.ErrorIs(t, lt.ledger.OwnerDeposit(lt.ctx, env, amt(0)), dao.ErrZeroAmount)
	assert.ErrorIs(t, lt.ledger.OwnerWithdraw(lt.ctx, env, amt(0)), dao.ErrZeroAmount)
}

func TestOwnerOnlyRewardOperations(t *testing.T) {
	lt := SetupLedgerTest(t)
	fundAndStake(t, lt, 100, 1, 10)
	env := envAt(outsider, startTimestamp+5)

	assert.ErrorIs(t, lt.ledger.SetRewardRate(lt.ctx, env, amt(9)), dao.ErrUnauthorized)
	assert.ErrorIs(t, lt.ledger.OwnerDeposit(lt.ctx, env, amt(9)), dao.ErrUnauthorized)
	assert.ErrorIs(t, lt.ledger.OwnerWithdraw(lt.ctx, env, amt(9)), dao.ErrUnauthorized)

	rs, err := lt.ledger.RewardState(lt.ctx)
	require.NoError(t, err)
	assertAmount(t, 1, &rs.RewardRatePerSecond)
	assertAmount(t, 100, &rs.OwnerDepositedPool)
	assert.Equal(t, startTimestamp, rs.LastAccrualTime)
	assertAmount(t, seedBalance, lt.bank.BalanceOf(outsider))
}

func TestFailedTransferRollsBackDeposit(t *testing.T) {
	lt := SetupLedgerTest(t)
	err := lt.ledger.Deposit(lt.ctx, envAt(depositorA, startTimestamp), amt(seedBalance+1))
	require.ErrorIs(t, err, dao.ErrInsufficientBalance)

	d, err := lt.ledger.Depositor(lt.ctx, depositorA)
	require.NoError(t, err)
	assertAmount(t, 0, &d.StakedAmount)
	supply, err := lt.ledger.Receipt().TotalSupply(lt.ctx)
	require.NoError(t, err)
	assertAmount(t, 0, supply)
	assert.Empty(t, lt.events.ofType(dao.EventDeposited))
}

// commitFailingStore runs bodies against the wrapped store and then refuses to
// commit while failCommit is set, the way a disk or conflict error would.
type commitFailingStore struct {
	state.Store
	failCommit bool
}

var errCommitRefused = errors.New("commit refused")

func (s *commitFailingStore) Update(ctx context.Context, fn func(state.Txn) error) error {
	return s.Store.Update(ctx, func(txn state.Txn) error {
		if err := fn(txn); err != nil {
			return err
		}
		if s.failCommit {
			return errCommitRefused
		}
		return nil
	})
}

func TestFailedCommitReversesTransfers(t *testing.T) {
	ctx := context.Background()
	store := &commitFailingStore{Store: memory.New()}
	b := bank.NewMemory()
	require.NoError(t, b.Mint(ownerAddress, amt(seedBalance)))
	require.NoError(t, b.Mint(depositorA, amt(seedBalance)))
	f := contract.NewFactory(store, contract.WithBank(b))
	l, err := f.CreateInstance(ctx, envAt(ownerAddress, startTimestamp), ownerAddress)
	require.NoError(t, err)
	require.NoError(t, l.OwnerDeposit(ctx, envAt(ownerAddress, startTimestamp), amt(500)))
	require.NoError(t, l.SetRewardRate(ctx, envAt(ownerAddress, startTimestamp), amt(1)))
	require.NoError(t, l.Deposit(ctx, envAt(depositorA, startTimestamp), amt(100)))

	store.failCommit = true
	err = l.Deposit(ctx, envAt(depositorA, startTimestamp+10), amt(50))
	require.ErrorIs(t, err, errCommitRefused)
	_, err = l.ClaimRewards(ctx, envAt(depositorA, startTimestamp+10))
	require.ErrorIs(t, err, errCommitRefused)
	err = l.OwnerWithdraw(ctx, envAt(ownerAddress, startTimestamp+10), amt(100))
	require.ErrorIs(t, err, errCommitRefused)

	assertAmount(t, seedBalance-100, b.BalanceOf(depositorA))
	assertAmount(t, seedBalance-500, b.BalanceOf(ownerAddress))
	assertAmount(t, 600, b.BalanceOf(l.Address()))

	store.failCommit = false
	paid, err := l.ClaimRewards(ctx, envAt(depositorA, startTimestamp+10))
	require.NoError(t, err)
	assertAmount(t, 10, paid)
	assertAmount(t, 590, b.BalanceOf(l.Address()))
}

func TestSolvencyAcrossMixedOperations(t *testing.T) {
	lt := SetupLedgerTest(t)
	fundAndStake(t, lt, 300, 7, 40)
	ts := startTimestamp
	steps := []struct {
		action string
		args   string
		caller sdk.Address
		result string
	}{
		{contract.ActionDeposit, "25", depositorB, "deposit 25"},
		{contract.ActionClaimRewards, "", depositorA, "claimed 101"},
		{contract.ActionOwnerWithdraw, "5", ownerAddress, "owner_withdraw 5"},
		{contract.ActionWithdraw, "10", depositorA, "withdraw 10"},
		{contract.ActionSetRewardRate, "11", ownerAddress, "set_reward_rate 11"},
		{contract.ActionOwnerDeposit, "40", ownerAddress, "owner_deposit 40"},
		{contract.ActionClaimRewards, "", depositorB, "claimed 110"},
		{contract.ActionDeposit, "90", depositorA, "deposit 90"},
		{contract.ActionClaimRewards, "", depositorA, "claimed 122"},
	}
	for _, s := range steps {
		ts += 9
		res, err := lt.factory.Dispatch(lt.ctx, envAt(s.caller, ts), lt.ledger.Address(), s.action, s.args)
		require.NoError(t, err, "%s by %s at %d", s.action, s.caller, ts)
		assert.Equal(t, s.result, res)
		assertSolvent(t, lt)
		assertRewardsCovered(t, lt, ts, depositorA, depositorB)
	}
}

// TestUnevenStakeClaimsStayReserved uses a stake that never divides the
// per-second reward, so every accrual leaves flooring dust behind.
func TestUnevenStakeClaimsStayReserved(t *testing.T) {
	lt := SetupLedgerTest(t)
	fundAndStake(t, lt, 1000, 1, 3)
	for step := int64(1); step <= 5; step++ {
		require.NoError(t, lt.ledger.SetRewardRate(lt.ctx, envAt(ownerAddress, startTimestamp+step), amt(1)))
		assertRewardsCovered(t, lt, startTimestamp+step, depositorA)
	}

	rs, err := lt.ledger.RewardState(lt.ctx)
	require.NoError(t, err)
	assertAmount(t, 5, &rs.TotalPendingRewards)

	paid, err := lt.ledger.ClaimRewards(lt.ctx, envAt(depositorA, startTimestamp+5))
	require.NoError(t, err)
	assertAmount(t, 4, paid)
	assert.False(t, paid.Gt(uint256.NewInt(5)), "paid more than was reserved")

	rs, err = lt.ledger.RewardState(lt.ctx)
	require.NoError(t, err)
	assertAmount(t, 1, &rs.TotalPendingRewards)
	assertAmount(t, 996, &rs.OwnerDepositedPool)
	assertSolvent(t, lt)
}

func TestOwnerWithdrawLeavesUnevenRewardsCovered(t *testing.T) {
	lt := SetupLedgerTest(t)
	fundAndStake(t, lt, 3, 1, 3)
	t2 := startTimestamp + 2
	require.NoError(t, lt.ledger.SetRewardRate(lt.ctx, envAt(ownerAddress, startTimestamp+1), amt(1)))
	require.NoError(t, lt.ledger.SetRewardRate(lt.ctx, envAt(ownerAddress, t2), amt(1)))

	available, err := lt.ledger.AvailableRewards(lt.ctx, t2)
	require.NoError(t, err)
	assertAmount(t, 1, available)
	err = lt.ledger.OwnerWithdraw(lt.ctx, envAt(ownerAddress, t2), amt(3))
	assert.ErrorIs(t, err, dao.ErrAmountExceedsAvailableRewards)
	require.NoError(t, lt.ledger.OwnerWithdraw(lt.ctx, envAt(ownerAddress, t2), available))

	owed, err := lt.ledger.PendingRewards(lt.ctx, depositorA, t2)
	require.NoError(t, err)
	rs, err := lt.ledger.RewardState(lt.ctx)
	require.NoError(t, err)
	assert.False(t, owed.Gt(&rs.OwnerDepositedPool), "pool %s cannot cover owed %s", rs.OwnerDepositedPool.Dec(), owed.Dec())

	paid, err := lt.ledger.ClaimRewards(lt.ctx, envAt(depositorA, t2))
	require.NoError(t, err)
	assertAmount(t, owed.Uint64(), paid)
	assertSolvent(t, lt)
}
