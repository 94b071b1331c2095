package infra

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "claims"
)

// Каналы Pub/Sub (события)
const (
	// RedisChanLedgerEvents - уведомления об изменениях реестра (policyholder/policy/claim).
	RedisChanLedgerEvents = RedisNamespace + ":ledger:events"
)
