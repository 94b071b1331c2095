// Package ledgertest содержит общий набор проверок инвариантов Ledger,
// который прогоняется поверх каждого backend'а хранилища.
package ledgertest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xela07ax/claims-ledger/internal/domain"
	"github.com/xela07ax/claims-ledger/internal/ledger"
)

// StoreFactory возвращает пустое хранилище для одного подтеста.
type StoreFactory func(t *testing.T) ledger.Store

func Run(t *testing.T, newStore StoreFactory) {
	cases := []struct {
		name string
		fn   func(t *testing.T, l *ledger.Ledger)
	}{
		{"PolicyholderRoundTrip", testPolicyholderRoundTrip},
		{"DuplicatePolicyholderLeavesRegistryUnchanged", testDuplicatePolicyholder},
		{"GetUnknownPolicyholder", testGetUnknownPolicyholder},
		{"PolicyAmountBoundary", testPolicyAmountBoundary},
		{"PolicyAmountMustBePositive", testPolicyAmountPositive},
		{"PolicyCheckOrder", testPolicyCheckOrder},
		{"ClaimAmountBoundary", testClaimAmountBoundary},
		{"ClaimCheckOrder", testClaimCheckOrder},
		{"ClaimStartsPending", testClaimStartsPending},
		{"UpdateClaimStatus", testUpdateClaimStatus},
		{"UpdateUnknownClaimWinsOverInvalidStatus", testUpdateUnknownClaim},
		{"DeleteClaim", testDeleteClaim},
		{"ListsKeepInsertionOrder", testListOrder},
		{"ConcurrentDuplicateCreates", testConcurrentDuplicates},
		{"EndToEndScenario", testScenario},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newStore(t)
			t.Cleanup(func() { _ = store.Close() })
			tc.fn(t, ledger.New(store))
		})
	}
}

func requireKind(t *testing.T, err error, kind error, message string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, kind), "expected %v, got %v", kind, err)
	assert.Equal(t, message, err.Error())
}

func seedPolicy(t *testing.T, l *ledger.Ledger, amount float64) {
	t.Helper()
	ctx := context.Background()
	_, err := l.CreatePolicyholder(ctx, "P1", "Alice")
	require.NoError(t, err)
	_, err = l.CreatePolicy(ctx, "PL1", "P1", amount)
	require.NoError(t, err)
}

func testPolicyholderRoundTrip(t *testing.T, l *ledger.Ledger) {
	ctx := context.Background()

	created, err := l.CreatePolicyholder(ctx, "P1", "Alice")
	require.NoError(t, err)
	assert.Equal(t, domain.Policyholder{ID: "P1", Name: "Alice"}, *created)

	got, err := l.GetPolicyholder(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, "P1", got.ID)
	assert.Equal(t, "Alice", got.Name)
}

func testDuplicatePolicyholder(t *testing.T, l *ledger.Ledger) {
	ctx := context.Background()

	_, err := l.CreatePolicyholder(ctx, "P1", "Alice")
	require.NoError(t, err)

	_, err = l.CreatePolicyholder(ctx, "P1", "Bob")
	requireKind(t, err, domain.ErrDuplicateID, domain.MsgPolicyholderExists)

	list, err := l.ListPolicyholders(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Policyholder{{ID: "P1", Name: "Alice"}}, list)
}

func testGetUnknownPolicyholder(t *testing.T, l *ledger.Ledger) {
	_, err := l.GetPolicyholder(context.Background(), "nobody")
	requireKind(t, err, domain.ErrNotFound, domain.MsgPolicyholderNotFound)
}

func testPolicyAmountBoundary(t *testing.T, l *ledger.Ledger) {
	ctx := context.Background()
	_, err := l.CreatePolicyholder(ctx, "P1", "Alice")
	require.NoError(t, err)

	_, err = l.CreatePolicy(ctx, "PL-over", "P1", 50001)
	requireKind(t, err, domain.ErrLimitExceeded, "Policy amount cannot exceed 50000")

	p, err := l.CreatePolicy(ctx, "PL-max", "P1", 50000)
	require.NoError(t, err)
	assert.Equal(t, 50000.0, p.Amount)

	_, err = l.GetPolicy(ctx, "PL-over")
	requireKind(t, err, domain.ErrNotFound, domain.MsgPolicyNotFound)
}

func testPolicyAmountPositive(t *testing.T, l *ledger.Ledger) {
	ctx := context.Background()
	_, err := l.CreatePolicyholder(ctx, "P1", "Alice")
	require.NoError(t, err)

	for _, amount := range []float64{0, -10} {
		_, err = l.CreatePolicy(ctx, "PL1", "P1", amount)
		requireKind(t, err, domain.ErrLimitExceeded, domain.MsgPolicyAmountPositive)
	}
}

func testPolicyCheckOrder(t *testing.T, l *ledger.Ledger) {
	ctx := context.Background()

	// Ссылка проверяется раньше суммы
	_, err := l.CreatePolicy(ctx, "PL1", "ghost", 99999)
	requireKind(t, err, domain.ErrDanglingReference, domain.MsgPolicyholderMissing)

	seedPolicy(t, l, 1000)

	// Дубликат проверяется раньше ссылки и суммы
	_, err = l.CreatePolicy(ctx, "PL1", "ghost", 99999)
	requireKind(t, err, domain.ErrDuplicateID, domain.MsgPolicyExists)
}

func testClaimAmountBoundary(t *testing.T, l *ledger.Ledger) {
	ctx := context.Background()
	seedPolicy(t, l, 1000)

	_, err := l.CreateClaim(ctx, "C-over", "PL1", 1000.01)
	requireKind(t, err, domain.ErrLimitExceeded, domain.MsgClaimAmountExceeded)

	c, err := l.CreateClaim(ctx, "C-eq", "PL1", 1000)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, c.Amount)

	_, err = l.CreateClaim(ctx, "C-zero", "PL1", 0)
	require.NoError(t, err)

	_, err = l.CreateClaim(ctx, "C-neg", "PL1", -1)
	requireKind(t, err, domain.ErrLimitExceeded, domain.MsgClaimAmountNegative)
}

func testClaimCheckOrder(t *testing.T, l *ledger.Ledger) {
	ctx := context.Background()

	_, err := l.CreateClaim(ctx, "C1", "ghost", 1e9)
	requireKind(t, err, domain.ErrDanglingReference, domain.MsgPolicyMissing)

	seedPolicy(t, l, 1000)
	_, err = l.CreateClaim(ctx, "C1", "PL1", 10)
	require.NoError(t, err)

	_, err = l.CreateClaim(ctx, "C1", "ghost", 1e9)
	requireKind(t, err, domain.ErrDuplicateID, domain.MsgClaimExists)
}

func testClaimStartsPending(t *testing.T, l *ledger.Ledger) {
	ctx := context.Background()
	seedPolicy(t, l, 1000)

	created, err := l.CreateClaim(ctx, "C1", "PL1", 500)
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimPending, created.Status)

	got, err := l.GetClaim(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, domain.Claim{ID: "C1", PolicyID: "PL1", Amount: 500, Status: domain.ClaimPending}, *got)
}

func testUpdateClaimStatus(t *testing.T, l *ledger.Ledger) {
	ctx := context.Background()
	seedPolicy(t, l, 1000)
	_, err := l.CreateClaim(ctx, "C1", "PL1", 500)
	require.NoError(t, err)

	_, err = l.UpdateClaimStatus(ctx, "C1", "Cancelled")
	requireKind(t, err, domain.ErrInvalidEnum, domain.MsgInvalidStatus)

	got, err := l.GetClaim(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimPending, got.Status)

	updated, err := l.UpdateClaimStatus(ctx, "C1", domain.ClaimApproved)
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimApproved, updated.Status)

	got, err = l.GetClaim(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimApproved, got.Status)

	// Переходы не ограничены: любой статус из набора допустим
	_, err = l.UpdateClaimStatus(ctx, "C1", domain.ClaimPending)
	require.NoError(t, err)
}

func testUpdateUnknownClaim(t *testing.T, l *ledger.Ledger) {
	_, err := l.UpdateClaimStatus(context.Background(), "C404", "Cancelled")
	requireKind(t, err, domain.ErrNotFound, domain.MsgClaimMissing)
}

func testDeleteClaim(t *testing.T, l *ledger.Ledger) {
	ctx := context.Background()

	err := l.DeleteClaim(ctx, "C404")
	requireKind(t, err, domain.ErrNotFound, domain.MsgClaimMissing)

	seedPolicy(t, l, 1000)
	_, err = l.CreateClaim(ctx, "C1", "PL1", 500)
	require.NoError(t, err)

	require.NoError(t, l.DeleteClaim(ctx, "C1"))

	_, err = l.GetClaim(ctx, "C1")
	requireKind(t, err, domain.ErrNotFound, domain.MsgClaimNotFound)

	// Полис не затрагивается
	_, err = l.GetPolicy(ctx, "PL1")
	require.NoError(t, err)

	// id освобождается для повторного использования
	_, err = l.CreateClaim(ctx, "C1", "PL1", 100)
	require.NoError(t, err)
}

func testListOrder(t *testing.T, l *ledger.Ledger) {
	ctx := context.Background()

	empty, err := l.ListClaims(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, id := range []string{"P3", "P1", "P2"} {
		_, err := l.CreatePolicyholder(ctx, id, "holder "+id)
		require.NoError(t, err)
	}
	for i, id := range []string{"PL-b", "PL-a"} {
		_, err := l.CreatePolicy(ctx, id, "P1", float64(1000*(i+1)))
		require.NoError(t, err)
	}
	for _, id := range []string{"C9", "C2", "C5"} {
		_, err := l.CreateClaim(ctx, id, "PL-b", 10)
		require.NoError(t, err)
	}
	require.NoError(t, l.DeleteClaim(ctx, "C2"))

	holders, err := l.ListPolicyholders(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"P3", "P1", "P2"}, holderIDs(holders))

	policies, err := l.ListPolicies(ctx)
	require.NoError(t, err)
	require.Len(t, policies, 2)
	assert.Equal(t, "PL-b", policies[0].ID)
	assert.Equal(t, "PL-a", policies[1].ID)

	claims, err := l.ListClaims(ctx)
	require.NoError(t, err)
	require.Len(t, claims, 2)
	assert.Equal(t, "C9", claims[0].ID)
	assert.Equal(t, "C5", claims[1].ID)
}

func testConcurrentDuplicates(t *testing.T, l *ledger.Ledger) {
	ctx := context.Background()
	seedPolicy(t, l, 1000)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		dupes     int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := l.CreateClaim(ctx, "C1", "PL1", float64(i))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domain.ErrDuplicateID):
				dupes++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, dupes)

	claims, err := l.ListClaims(ctx)
	require.NoError(t, err)
	assert.Len(t, claims, 1)
}

func testScenario(t *testing.T, l *ledger.Ledger) {
	ctx := context.Background()

	_, err := l.CreatePolicyholder(ctx, "P1", "Alice")
	require.NoError(t, err)
	_, err = l.CreatePolicy(ctx, "PL1", "P1", 1000)
	require.NoError(t, err)

	c, err := l.CreateClaim(ctx, "C1", "PL1", 500)
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimPending, c.Status)

	_, err = l.UpdateClaimStatus(ctx, "C1", domain.ClaimApproved)
	require.NoError(t, err)

	got, err := l.GetClaim(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimApproved, got.Status, fmt.Sprintf("claim %+v", got))
}

func holderIDs(list []domain.Policyholder) []string {
	ids := make([]string, 0, len(list))
	for _, p := range list {
		ids = append(ids, p.ID)
	}
	return ids
}
