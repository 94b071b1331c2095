package ledger

/*
Файл ledger.go - ядро сервиса: реестр Policyholder / Policy / Claim и проверка инвариантов.

Каждая операция - одна транзакция Store.Atomically. Порядок проверок фиксирован:
дубликат -> ссылка -> сумма. Запрос, нарушающий несколько правил, получает первую
применимую ошибку. Запись всегда последний шаг транзакции.
*/

import (
	"context"
	"errors"

	"github.com/xela07ax/claims-ledger/internal/domain"
)

type Ledger struct {
	store           Store
	maxPolicyAmount float64
}

type Option func(*Ledger)

// WithMaxPolicyAmount переопределяет лимит суммы полиса (по умолчанию domain.MaxPolicyAmount).
func WithMaxPolicyAmount(limit float64) Option {
	return func(l *Ledger) {
		if limit > 0 {
			l.maxPolicyAmount = limit
		}
	}
}

func New(store Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:           store,
		maxPolicyAmount: domain.MaxPolicyAmount,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// MaxPolicyAmount возвращает действующий лимит суммы полиса.
func (l *Ledger) MaxPolicyAmount() float64 {
	return l.maxPolicyAmount
}

// Ping проверяет доступность хранилища.
func (l *Ledger) Ping(ctx context.Context) error {
	return l.store.Ping(ctx)
}

func (l *Ledger) CreatePolicyholder(ctx context.Context, id, name string) (*domain.Policyholder, error) {
	var created *domain.Policyholder
	err := l.store.Atomically(ctx, func(ctx context.Context, tx Tx) error {
		existing, err := tx.GetPolicyholder(ctx, id)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.NewError(domain.ErrDuplicateID, domain.MsgPolicyholderExists)
		}

		p := domain.Policyholder{ID: id, Name: name}
		if err := tx.InsertPolicyholder(ctx, p); err != nil {
			return duplicateOr(err, domain.MsgPolicyholderExists)
		}
		created = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (l *Ledger) GetPolicyholder(ctx context.Context, id string) (*domain.Policyholder, error) {
	var found *domain.Policyholder
	err := l.store.Atomically(ctx, func(ctx context.Context, tx Tx) error {
		p, err := tx.GetPolicyholder(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.NewError(domain.ErrNotFound, domain.MsgPolicyholderNotFound)
		}
		found = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// ListPolicyholders отдает свежий снимок в порядке вставки.
func (l *Ledger) ListPolicyholders(ctx context.Context) ([]domain.Policyholder, error) {
	var list []domain.Policyholder
	err := l.store.Atomically(ctx, func(ctx context.Context, tx Tx) (err error) {
		list, err = tx.ListPolicyholders(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (l *Ledger) CreatePolicy(ctx context.Context, id, policyholderID string, amount float64) (*domain.Policy, error) {
	var created *domain.Policy
	err := l.store.Atomically(ctx, func(ctx context.Context, tx Tx) error {
		// 1. Уникальность
		existing, err := tx.GetPolicy(ctx, id)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.NewError(domain.ErrDuplicateID, domain.MsgPolicyExists)
		}

		// 2. Ссылка на владельца
		holder, err := tx.GetPolicyholder(ctx, policyholderID)
		if err != nil {
			return err
		}
		if holder == nil {
			return domain.NewError(domain.ErrDanglingReference, domain.MsgPolicyholderMissing)
		}

		// 3. Сумма: 0 < amount <= лимит
		if amount > l.maxPolicyAmount {
			return domain.NewError(domain.ErrLimitExceeded, domain.PolicyLimitMessage(l.maxPolicyAmount))
		}
		if amount <= 0 {
			return domain.NewError(domain.ErrLimitExceeded, domain.MsgPolicyAmountPositive)
		}

		p := domain.Policy{ID: id, PolicyholderID: policyholderID, Amount: amount}
		if err := tx.InsertPolicy(ctx, p); err != nil {
			return duplicateOr(err, domain.MsgPolicyExists)
		}
		created = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (l *Ledger) GetPolicy(ctx context.Context, id string) (*domain.Policy, error) {
	var found *domain.Policy
	err := l.store.Atomically(ctx, func(ctx context.Context, tx Tx) error {
		p, err := tx.GetPolicy(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.NewError(domain.ErrNotFound, domain.MsgPolicyNotFound)
		}
		found = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (l *Ledger) ListPolicies(ctx context.Context) ([]domain.Policy, error) {
	var list []domain.Policy
	err := l.store.Atomically(ctx, func(ctx context.Context, tx Tx) (err error) {
		list, err = tx.ListPolicies(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// CreateClaim регистрирует заявку в статусе Pending.
// Сумма сравнивается с суммой полиса на момент создания; 0 допустим.
func (l *Ledger) CreateClaim(ctx context.Context, id, policyID string, amount float64) (*domain.Claim, error) {
	var created *domain.Claim
	err := l.store.Atomically(ctx, func(ctx context.Context, tx Tx) error {
		existing, err := tx.GetClaim(ctx, id)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.NewError(domain.ErrDuplicateID, domain.MsgClaimExists)
		}

		policy, err := tx.GetPolicy(ctx, policyID)
		if err != nil {
			return err
		}
		if policy == nil {
			return domain.NewError(domain.ErrDanglingReference, domain.MsgPolicyMissing)
		}

		if amount > policy.Amount {
			return domain.NewError(domain.ErrLimitExceeded, domain.MsgClaimAmountExceeded)
		}
		if amount < 0 {
			return domain.NewError(domain.ErrLimitExceeded, domain.MsgClaimAmountNegative)
		}

		c := domain.Claim{ID: id, PolicyID: policyID, Amount: amount, Status: domain.ClaimPending}
		if err := tx.InsertClaim(ctx, c); err != nil {
			return duplicateOr(err, domain.MsgClaimExists)
		}
		created = &c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (l *Ledger) GetClaim(ctx context.Context, id string) (*domain.Claim, error) {
	var found *domain.Claim
	err := l.store.Atomically(ctx, func(ctx context.Context, tx Tx) error {
		c, err := tx.GetClaim(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return domain.NewError(domain.ErrNotFound, domain.MsgClaimNotFound)
		}
		found = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (l *Ledger) ListClaims(ctx context.Context) ([]domain.Claim, error) {
	var list []domain.Claim
	err := l.store.Atomically(ctx, func(ctx context.Context, tx Tx) (err error) {
		list, err = tx.ListClaims(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// UpdateClaimStatus перезаписывает статус заявки.
// Существование проверяется раньше статуса: неизвестный id всегда дает NotFound.
func (l *Ledger) UpdateClaimStatus(ctx context.Context, id string, status domain.ClaimStatus) (*domain.Claim, error) {
	var updated *domain.Claim
	err := l.store.Atomically(ctx, func(ctx context.Context, tx Tx) error {
		c, err := tx.GetClaim(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return domain.NewError(domain.ErrNotFound, domain.MsgClaimMissing)
		}
		if !status.Valid() {
			return domain.NewError(domain.ErrInvalidEnum, domain.MsgInvalidStatus)
		}

		if err := tx.UpdateClaimStatus(ctx, id, status); err != nil {
			return notFoundOr(err, domain.MsgClaimMissing)
		}
		c.Status = status
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (l *Ledger) DeleteClaim(ctx context.Context, id string) error {
	return l.store.Atomically(ctx, func(ctx context.Context, tx Tx) error {
		c, err := tx.GetClaim(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return domain.NewError(domain.ErrNotFound, domain.MsgClaimMissing)
		}
		return notFoundOr(tx.DeleteClaim(ctx, id), domain.MsgClaimMissing)
	})
}

// duplicateOr превращает срабатывание уникального ограничения хранилища
// (гонка параллельных создателей) в ошибку DuplicateId с сообщением домена.
func duplicateOr(err error, message string) error {
	if errors.Is(err, domain.ErrDuplicateID) {
		return domain.NewError(domain.ErrDuplicateID, message)
	}
	return err
}

func notFoundOr(err error, message string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewError(domain.ErrNotFound, message)
	}
	return err
}
