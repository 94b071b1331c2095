package events

import (
	"time"

	"github.com/google/uuid"
)

// Типы событий об изменениях реестра
const (
	TypePolicyholderCreated = "policyholder.created"
	TypePolicyCreated       = "policy.created"
	TypeClaimCreated        = "claim.created"
	TypeClaimStatusUpdated  = "claim.status_updated"
	TypeClaimDeleted        = "claim.deleted"
)

// Event - уведомление об успешной мутации. Best-effort: это сигнал подписчикам
// (инвалидация кэшей, интеграции), а не журнал аудита.
type Event struct {
	ID        string      `json:"id"`       // UUID события
	Type      string      `json:"type"`     // e.g. "claim.created"
	EntityID  string      `json:"entity_id"`
	TraceID   string      `json:"trace_id,omitempty"` // Сквозной ID запроса
	Data      interface{} `json:"data,omitempty"`     // Снимок записи после изменения
	Timestamp time.Time   `json:"timestamp"`
}

func NewEvent(eventType, entityID, traceID string, data interface{}) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		EntityID:  entityID,
		TraceID:   traceID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}
