package service

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/claims-ledger/internal/domain"
	"github.com/xela07ax/claims-ledger/internal/engine"
	"github.com/xela07ax/claims-ledger/internal/events"
	"github.com/xela07ax/claims-ledger/internal/ledger"
	"github.com/xela07ax/claims-ledger/internal/repository/memory"
	"go.uber.org/zap/zaptest"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func newTestService(t *testing.T) (*LedgerService, *recordingPublisher, *engine.Metrics) {
	t.Helper()
	pub := &recordingPublisher{}
	m := engine.NewMetrics(prometheus.NewRegistry())
	return NewLedgerService(ledger.New(memory.New()), pub, m, zaptest.NewLogger(t)), pub, m
}

func TestMutationsPublishEvents(t *testing.T) {
	svc, pub, _ := newTestService(t)
	ctx := engine.WithTraceID(context.Background(), "trace-1")

	require.NoError(t, svc.CreatePolicyholder(ctx, "P1", "Alice"))
	require.NoError(t, svc.CreatePolicy(ctx, "PL1", "P1", 1000))
	require.NoError(t, svc.CreateClaim(ctx, "C1", "PL1", 500))
	require.NoError(t, svc.UpdateClaimStatus(ctx, "C1", domain.ClaimApproved))
	require.NoError(t, svc.DeleteClaim(ctx, "C1"))

	assert.Equal(t, []string{
		events.TypePolicyholderCreated,
		events.TypePolicyCreated,
		events.TypeClaimCreated,
		events.TypeClaimStatusUpdated,
		events.TypeClaimDeleted,
	}, pub.types())
	assert.Equal(t, "trace-1", pub.events[0].TraceID)
	assert.Equal(t, "C1", pub.events[3].EntityID)
}

func TestRejectedMutationIsNotPublished(t *testing.T) {
	svc, pub, m := newTestService(t)
	ctx := context.Background()

	err := svc.CreatePolicy(ctx, "PL1", "ghost", 100)
	require.ErrorIs(t, err, domain.ErrDanglingReference)

	assert.Empty(t, pub.types())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LedgerOperations.WithLabelValues("create_policy", "DanglingReference")))
}

func TestOperationOutcomesAreCounted(t *testing.T) {
	svc, _, m := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.CreatePolicyholder(ctx, "P1", "Alice"))
	require.Error(t, svc.CreatePolicyholder(ctx, "P1", "Alice"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LedgerOperations.WithLabelValues("create_policyholder", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LedgerOperations.WithLabelValues("create_policyholder", "DuplicateId")))
}

func TestListsAreNeverNil(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	holders, err := svc.ListPolicyholders(ctx)
	require.NoError(t, err)
	assert.NotNil(t, holders)

	policies, err := svc.ListPolicies(ctx)
	require.NoError(t, err)
	assert.NotNil(t, policies)

	claims, err := svc.ListClaims(ctx)
	require.NoError(t, err)
	assert.NotNil(t, claims)
}

func TestNilPublisherIsAllowed(t *testing.T) {
	svc := NewLedgerService(ledger.New(memory.New()), nil, nil, zaptest.NewLogger(t))
	require.NoError(t, svc.CreatePolicyholder(context.Background(), "P1", "Alice"))
	require.NoError(t, svc.Ping(context.Background()))
}
