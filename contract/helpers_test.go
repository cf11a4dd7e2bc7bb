package contract_test

import (
	"context"
	"sync"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"okinoko_ledger/bank"
	"okinoko_ledger/contract"
	"okinoko_ledger/contract/dao"
	"okinoko_ledger/sdk"
	"okinoko_ledger/state/memory"
)

const (
	ownerAddress   = sdk.Address("hive:delegate")
	depositorA     = sdk.Address("hive:someone")
	depositorB     = sdk.Address("hive:someoneelse")
	outsider       = sdk.Address("hive:outsider")
	startTimestamp = int64(1_700_000_000)
	seedBalance    = 200_000
)

// eventLog collects committed notifications.
type eventLog struct {
	mu     sync.Mutex
	events []dao.Event
}

func (l *eventLog) Emit(e dao.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) ofType(t dao.EventType) []dao.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []dao.Event
	for _, e := range l.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// ledgerTest bundles one registry, its bank and a ledger owned by ownerAddress.
type ledgerTest struct {
	ctx     context.Context
	store   *memory.Store
	bank    *bank.Memory
	events  *eventLog
	factory *contract.Factory
	ledger  *contract.Ledger
}

// SetupLedgerTest builds a fresh registry with one instance and funded accounts.
func SetupLedgerTest(t *testing.T) *ledgerTest {
	t.Helper()
	lt := &ledgerTest{
		ctx:    context.Background(),
		store:  memory.New(),
		bank:   bank.NewMemory(),
		events: &eventLog{},
	}
	for _, addr := range []sdk.Address{ownerAddress, depositorA, depositorB, outsider} {
		require.NoError(t, lt.bank.Mint(addr, uint256.NewInt(seedBalance)))
	}
	lt.factory = contract.NewFactory(lt.store,
		contract.WithBank(lt.bank),
		contract.WithEmitter(lt.events),
	)
	l, err := lt.factory.CreateInstance(lt.ctx, envAt(ownerAddress, startTimestamp), ownerAddress)
	require.NoError(t, err)
	lt.ledger = l
	return lt
}

// envAt is a call environment for caller at unix time ts.
func envAt(caller sdk.Address, ts int64) sdk.Env {
	env := sdk.NewEnv(caller, uint64(ts-startTimestamp)+1, ts)
	env.TxId = "tx-" + caller.String()
	return env
}

// CallLedger runs a dispatched action against the test instance and asserts the outcome.
func CallLedger(t *testing.T, lt *ledgerTest, action, payload string, caller sdk.Address, ts int64, expectedResult bool) string {
	t.Helper()
	res, err := lt.factory.Dispatch(lt.ctx, envAt(caller, ts), lt.ledger.Address(), action, payload)
	if expectedResult {
		require.NoError(t, err, "action %s failed", action)
	} else {
		require.Error(t, err, "action %s did not fail (as expected)", action)
	}
	return res
}

func amt(v uint64) *uint256.Int { return uint256.NewInt(v) }

func assertAmount(t *testing.T, expected uint64, got *uint256.Int, msgAndArgs ...any) {
	t.Helper()
	require.NotNil(t, got)
	assert.Equal(t, uint256.NewInt(expected).Dec(), got.Dec(), msgAndArgs...)
}

// assertSolvent checks pool >= totalPending and that the instance holds
// at least staked + pool.
func assertSolvent(t *testing.T, lt *ledgerTest) {
	t.Helper()
	rs, err := lt.ledger.RewardState(lt.ctx)
	require.NoError(t, err)
	assert.False(t, rs.TotalPendingRewards.Gt(&rs.OwnerDepositedPool), "pending %s exceeds pool %s",
		rs.TotalPendingRewards.Dec(), rs.OwnerDepositedPool.Dec())
	held := lt.bank.BalanceOf(lt.ledger.Address())
	owed := new(uint256.Int).Add(&rs.TotalStaked, &rs.OwnerDepositedPool)
	assert.False(t, owed.Gt(held), "instance holds %s but owes %s", held.Dec(), owed.Dec())
}

// assertRewardsCovered checks that what the depositors could claim at ts fits
// in the reserved pending rewards.
func assertRewardsCovered(t *testing.T, lt *ledgerTest, ts int64, depositors ...sdk.Address) {
	t.Helper()
	owed := new(uint256.Int)
	for _, addr := range depositors {
		p, err := lt.ledger.PendingRewards(lt.ctx, addr, ts)
		require.NoError(t, err)
		owed.Add(owed, p)
	}
	reserved, err := lt.ledger.AvailableRewards(lt.ctx, ts)
	require.NoError(t, err)
	rs, err := lt.ledger.RewardState(lt.ctx)
	require.NoError(t, err)
	reserved.Sub(&rs.OwnerDepositedPool, reserved)
	assert.False(t, owed.Gt(reserved), "depositors owed %s but only %s reserved", owed.Dec(), reserved.Dec())
}
