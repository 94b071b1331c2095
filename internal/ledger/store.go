package ledger

import (
	"context"
	"errors"

	"github.com/xela07ax/claims-ledger/internal/domain"
)

// Tx - представление хранилища внутри одной транзакции.
// Get* возвращают (nil, nil), если запись отсутствует.
// Insert* возвращают ошибку с domain.ErrDuplicateID при срабатывании уникального ограничения.
// UpdateClaimStatus и DeleteClaim возвращают ошибку с domain.ErrNotFound, если строка не найдена.
type Tx interface {
	GetPolicyholder(ctx context.Context, id string) (*domain.Policyholder, error)
	InsertPolicyholder(ctx context.Context, p domain.Policyholder) error
	ListPolicyholders(ctx context.Context) ([]domain.Policyholder, error)

	GetPolicy(ctx context.Context, id string) (*domain.Policy, error)
	InsertPolicy(ctx context.Context, p domain.Policy) error
	ListPolicies(ctx context.Context) ([]domain.Policy, error)

	GetClaim(ctx context.Context, id string) (*domain.Claim, error)
	InsertClaim(ctx context.Context, c domain.Claim) error
	ListClaims(ctx context.Context) ([]domain.Claim, error)
	UpdateClaimStatus(ctx context.Context, id string, status domain.ClaimStatus) error
	DeleteClaim(ctx context.Context, id string) error
}

// ErrCommitUnknown - COMMIT вернул ошибку, и неизвестно, применилась ли транзакция.
// Такие ошибки нельзя повторять: повтор уже примененного создания даст DuplicateId.
var ErrCommitUnknown = errors.New("commit outcome unknown")

// Store - подключаемый backend (memory, Postgres, SQLite, MongoDB).
// Atomically выполняет fn как одну транзакцию: ошибка fn означает отсутствие эффектов.
type Store interface {
	Atomically(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Ping(ctx context.Context) error
	Close() error
}
