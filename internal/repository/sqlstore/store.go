package sqlstore

/*
Файл store.go - реляционный backend Ledger поверх database/sql.
Одна реализация обслуживает Postgres (pgx) и SQLite (modernc), различия спрятаны в Dialect.
Каждый вызов Atomically - одна транзакция BEGIN/COMMIT; при ошибке выполняется ROLLBACK.
*/

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Драйвер Postgres
	_ "modernc.org/sqlite"             // Драйвер SQLite (pure Go)

	"github.com/xela07ax/claims-ledger/internal/domain"
	"github.com/xela07ax/claims-ledger/internal/ledger"
)

// PoolConfig - настройки пула соединений. Для SQLite игнорируются.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type Store struct {
	db      *sql.DB
	dialect Dialect
}

var _ ledger.Store = (*Store)(nil)

// Open открывает базу по DSN. Соединение проверяется отдельно через Ping.
func Open(dialect Dialect, dsn string, pool PoolConfig) (*Store, error) {
	db, err := sql.Open(dialect.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", dialect.Name, err)
	}

	if dialect.SingleConn {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(pool.MaxOpenConns)
		db.SetMaxIdleConns(pool.MaxIdleConns)
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	return New(db, dialect), nil
}

// New оборачивает уже открытый *sql.DB (используется в тестах с sqlmock).
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// EnsureSchema создает таблицы, если их еще нет. Миграции версий не ведутся.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlstore: ensure %s schema: %w", s.dialect.Name, err)
		}
	}
	return nil
}

func (s *Store) Atomically(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: begin: %w", err)
	}

	if err := fn(ctx, &tx{tx: sqlTx, d: s.dialect}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: commit: %w: %w", ledger.ErrCommitUnknown, err)
	}
	return nil
}

// Ping проверяет доступность базы при старте и в health-check
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

type tx struct {
	tx *sql.Tx
	d  Dialect
}

func (t *tx) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(ctx, t.d.rebind(query), args...)
}

func (t *tx) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, t.d.rebind(query), args...)
}

func (t *tx) insert(ctx context.Context, entity, id, query string, args ...any) error {
	if _, err := t.exec(ctx, query, args...); err != nil {
		if t.d.isUniqueViolation(err) {
			return fmt.Errorf("sqlstore: insert %s %s: %w", entity, id, domain.ErrDuplicateID)
		}
		return fmt.Errorf("sqlstore: insert %s: %w", entity, err)
	}
	return nil
}

func (t *tx) GetPolicyholder(ctx context.Context, id string) (*domain.Policyholder, error) {
	var p domain.Policyholder
	err := t.queryRow(ctx,
		`SELECT policyholder_id, name FROM policyholders WHERE policyholder_id = ?`, id,
	).Scan(&p.ID, &p.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlstore: get policyholder: %w", err)
	}
	return &p, nil
}

func (t *tx) InsertPolicyholder(ctx context.Context, p domain.Policyholder) error {
	return t.insert(ctx, "policyholder", p.ID,
		`INSERT INTO policyholders (policyholder_id, name) VALUES (?, ?)`, p.ID, p.Name)
}

func (t *tx) ListPolicyholders(ctx context.Context) ([]domain.Policyholder, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT policyholder_id, name FROM policyholders ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list policyholders: %w", err)
	}
	defer rows.Close()

	// Пустой слайс, чтобы в JSON был [] вместо null
	list := make([]domain.Policyholder, 0)
	for rows.Next() {
		var p domain.Policyholder
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("sqlstore: scan policyholder: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: rows iteration error: %w", err)
	}
	return list, nil
}

func (t *tx) GetPolicy(ctx context.Context, id string) (*domain.Policy, error) {
	var p domain.Policy
	err := t.queryRow(ctx,
		`SELECT policy_id, policyholder_id, policy_amount FROM policies WHERE policy_id = ?`, id,
	).Scan(&p.ID, &p.PolicyholderID, &p.Amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlstore: get policy: %w", err)
	}
	return &p, nil
}

func (t *tx) InsertPolicy(ctx context.Context, p domain.Policy) error {
	return t.insert(ctx, "policy", p.ID,
		`INSERT INTO policies (policy_id, policyholder_id, policy_amount) VALUES (?, ?, ?)`,
		p.ID, p.PolicyholderID, p.Amount)
}

func (t *tx) ListPolicies(ctx context.Context) ([]domain.Policy, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT policy_id, policyholder_id, policy_amount FROM policies ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list policies: %w", err)
	}
	defer rows.Close()

	list := make([]domain.Policy, 0)
	for rows.Next() {
		var p domain.Policy
		if err := rows.Scan(&p.ID, &p.PolicyholderID, &p.Amount); err != nil {
			return nil, fmt.Errorf("sqlstore: scan policy: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: rows iteration error: %w", err)
	}
	return list, nil
}

func (t *tx) GetClaim(ctx context.Context, id string) (*domain.Claim, error) {
	var c domain.Claim
	err := t.queryRow(ctx,
		`SELECT claim_id, policy_id, amount, status FROM claims WHERE claim_id = ?`, id,
	).Scan(&c.ID, &c.PolicyID, &c.Amount, &c.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlstore: get claim: %w", err)
	}
	return &c, nil
}

func (t *tx) InsertClaim(ctx context.Context, c domain.Claim) error {
	return t.insert(ctx, "claim", c.ID,
		`INSERT INTO claims (claim_id, policy_id, amount, status) VALUES (?, ?, ?, ?)`,
		c.ID, c.PolicyID, c.Amount, string(c.Status))
}

func (t *tx) ListClaims(ctx context.Context) ([]domain.Claim, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT claim_id, policy_id, amount, status FROM claims ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list claims: %w", err)
	}
	defer rows.Close()

	list := make([]domain.Claim, 0)
	for rows.Next() {
		var c domain.Claim
		if err := rows.Scan(&c.ID, &c.PolicyID, &c.Amount, &c.Status); err != nil {
			return nil, fmt.Errorf("sqlstore: scan claim: %w", err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: rows iteration error: %w", err)
	}
	return list, nil
}

func (t *tx) UpdateClaimStatus(ctx context.Context, id string, status domain.ClaimStatus) error {
	result, err := t.exec(ctx, `UPDATE claims SET status = ? WHERE claim_id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("sqlstore: failed to update claim status: %w", err)
	}
	return requireAffected(result, "claim", id)
}

func (t *tx) DeleteClaim(ctx context.Context, id string) error {
	result, err := t.exec(ctx, `DELETE FROM claims WHERE claim_id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlstore: failed to delete claim: %w", err)
	}
	return requireAffected(result, "claim", id)
}

func requireAffected(result sql.Result, entity, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("sqlstore: %s %s: %w", entity, id, domain.ErrNotFound)
	}
	return nil
}
