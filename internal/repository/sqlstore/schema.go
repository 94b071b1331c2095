package sqlstore

// seq задает порядок вставки для List*: id - произвольные строки клиента.

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS policyholders (
    seq             BIGSERIAL,
    policyholder_id TEXT PRIMARY KEY,
    name            TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS policies (
    seq             BIGSERIAL,
    policy_id       TEXT PRIMARY KEY,
    policyholder_id TEXT NOT NULL REFERENCES policyholders (policyholder_id),
    policy_amount   DOUBLE PRECISION NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS claims (
    seq       BIGSERIAL,
    claim_id  TEXT PRIMARY KEY,
    policy_id TEXT NOT NULL REFERENCES policies (policy_id),
    amount    DOUBLE PRECISION NOT NULL,
    status    TEXT NOT NULL CHECK (status IN ('Pending', 'Approved', 'Rejected'))
)`,
	`CREATE INDEX IF NOT EXISTS idx_claims_policy_id ON claims (policy_id)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS policyholders (
    seq             INTEGER PRIMARY KEY AUTOINCREMENT,
    policyholder_id TEXT NOT NULL UNIQUE,
    name            TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS policies (
    seq             INTEGER PRIMARY KEY AUTOINCREMENT,
    policy_id       TEXT NOT NULL UNIQUE,
    policyholder_id TEXT NOT NULL REFERENCES policyholders (policyholder_id),
    policy_amount   REAL NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS claims (
    seq       INTEGER PRIMARY KEY AUTOINCREMENT,
    claim_id  TEXT NOT NULL UNIQUE,
    policy_id TEXT NOT NULL REFERENCES policies (policy_id),
    amount    REAL NOT NULL,
    status    TEXT NOT NULL CHECK (status IN ('Pending', 'Approved', 'Rejected'))
)`,
	`CREATE INDEX IF NOT EXISTS idx_claims_policy_id ON claims (policy_id)`,
}
