package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/xela07ax/claims-ledger/internal/domain"
	"github.com/xela07ax/claims-ledger/internal/ledger"
)

// Store - хранилище в памяти процесса. Atomically держит единственную блокировку
// на всё время транзакции, поэтому все операции Ledger сериализованы.
// Порядок вставки хранится отдельными слайсами: map в Go его не сохраняет.
type Store struct {
	mu sync.Mutex

	policyholders     map[string]domain.Policyholder
	policyholderOrder []string

	policies    map[string]domain.Policy
	policyOrder []string

	claims     map[string]domain.Claim
	claimOrder []string
}

var _ ledger.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		policyholders: make(map[string]domain.Policyholder),
		policies:      make(map[string]domain.Policy),
		claims:        make(map[string]domain.Claim),
	}
}

func (s *Store) Atomically(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return fn(ctx, &tx{s: s})
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() error {
	return nil
}

// tx работает под блокировкой, взятой в Atomically. Наружу отдаются только копии.
type tx struct {
	s *Store
}

func (t *tx) GetPolicyholder(_ context.Context, id string) (*domain.Policyholder, error) {
	p, ok := t.s.policyholders[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (t *tx) InsertPolicyholder(_ context.Context, p domain.Policyholder) error {
	if _, exists := t.s.policyholders[p.ID]; exists {
		return fmt.Errorf("memory: policyholder %s: %w", p.ID, domain.ErrDuplicateID)
	}
	t.s.policyholders[p.ID] = p
	t.s.policyholderOrder = append(t.s.policyholderOrder, p.ID)
	return nil
}

func (t *tx) ListPolicyholders(_ context.Context) ([]domain.Policyholder, error) {
	list := make([]domain.Policyholder, 0, len(t.s.policyholderOrder))
	for _, id := range t.s.policyholderOrder {
		list = append(list, t.s.policyholders[id])
	}
	return list, nil
}

func (t *tx) GetPolicy(_ context.Context, id string) (*domain.Policy, error) {
	p, ok := t.s.policies[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (t *tx) InsertPolicy(_ context.Context, p domain.Policy) error {
	if _, exists := t.s.policies[p.ID]; exists {
		return fmt.Errorf("memory: policy %s: %w", p.ID, domain.ErrDuplicateID)
	}
	t.s.policies[p.ID] = p
	t.s.policyOrder = append(t.s.policyOrder, p.ID)
	return nil
}

func (t *tx) ListPolicies(_ context.Context) ([]domain.Policy, error) {
	list := make([]domain.Policy, 0, len(t.s.policyOrder))
	for _, id := range t.s.policyOrder {
		list = append(list, t.s.policies[id])
	}
	return list, nil
}

func (t *tx) GetClaim(_ context.Context, id string) (*domain.Claim, error) {
	c, ok := t.s.claims[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (t *tx) InsertClaim(_ context.Context, c domain.Claim) error {
	if _, exists := t.s.claims[c.ID]; exists {
		return fmt.Errorf("memory: claim %s: %w", c.ID, domain.ErrDuplicateID)
	}
	t.s.claims[c.ID] = c
	t.s.claimOrder = append(t.s.claimOrder, c.ID)
	return nil
}

func (t *tx) ListClaims(_ context.Context) ([]domain.Claim, error) {
	list := make([]domain.Claim, 0, len(t.s.claimOrder))
	for _, id := range t.s.claimOrder {
		list = append(list, t.s.claims[id])
	}
	return list, nil
}

func (t *tx) UpdateClaimStatus(_ context.Context, id string, status domain.ClaimStatus) error {
	c, ok := t.s.claims[id]
	if !ok {
		return fmt.Errorf("memory: claim %s: %w", id, domain.ErrNotFound)
	}
	c.Status = status
	t.s.claims[id] = c
	return nil
}

func (t *tx) DeleteClaim(_ context.Context, id string) error {
	if _, ok := t.s.claims[id]; !ok {
		return fmt.Errorf("memory: claim %s: %w", id, domain.ErrNotFound)
	}
	delete(t.s.claims, id)
	for i, cid := range t.s.claimOrder {
		if cid == id {
			t.s.claimOrder = append(t.s.claimOrder[:i], t.s.claimOrder[i+1:]...)
			break
		}
	}
	return nil
}
