package service

import (
	"context"

	"github.com/xela07ax/claims-ledger/internal/domain"
	"github.com/xela07ax/claims-ledger/internal/engine"
	"github.com/xela07ax/claims-ledger/internal/events"
	"github.com/xela07ax/claims-ledger/internal/ledger"
	"go.uber.org/zap"
)

// EventPublisher описывает, что сервису нужно от шины уведомлений
type EventPublisher interface {
	Publish(event events.Event)
}

// LedgerService - фасад над Ledger для HTTP: логирование, метрики и уведомления об изменениях.
// Правила предметной области живут только в Ledger.
type LedgerService struct {
	ledger    *ledger.Ledger
	publisher EventPublisher
	metrics   *engine.Metrics
	logger    *zap.Logger
}

func NewLedgerService(l *ledger.Ledger, publisher EventPublisher, metrics *engine.Metrics, logger *zap.Logger) *LedgerService {
	if metrics == nil {
		metrics = engine.NewMetrics(nil)
	}
	return &LedgerService{
		ledger:    l,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger.Named("ledger-service"),
	}
}

// observe фиксирует исход операции в метриках и логах.
// Нарушения инвариантов - штатная ситуация (Info), всё остальное - Error.
func (s *LedgerService) observe(ctx context.Context, op, id string, err error) {
	result := "ok"
	if err != nil {
		result = domain.KindOf(err)
	}
	s.metrics.LedgerOperations.WithLabelValues(op, result).Inc()

	fields := []zap.Field{
		zap.String("operation", op),
		zap.String("id", id),
		zap.String("trace_id", engine.TraceID(ctx)),
	}
	switch {
	case err == nil:
		s.logger.Info("ledger mutation applied", fields...)
	case domain.IsLedgerError(err):
		s.logger.Info("ledger mutation rejected", append(fields, zap.String("kind", result), zap.String("reason", err.Error()))...)
	default:
		s.metrics.ErrorTotal.WithLabelValues("internal").Inc()
		s.logger.Error("ledger operation failed", append(fields, zap.Error(err))...)
	}
}

func (s *LedgerService) notify(ctx context.Context, eventType, entityID string, data interface{}) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(events.NewEvent(eventType, entityID, engine.TraceID(ctx), data))
}

// readFailed пишет в лог только инфраструктурные сбои чтения, NotFound - обычный ответ.
func (s *LedgerService) readFailed(ctx context.Context, op, id string, err error) {
	if err == nil || domain.IsLedgerError(err) {
		return
	}
	s.metrics.ErrorTotal.WithLabelValues("internal").Inc()
	s.logger.Error("ledger read failed",
		zap.String("operation", op),
		zap.String("id", id),
		zap.String("trace_id", engine.TraceID(ctx)),
		zap.Error(err))
}

func (s *LedgerService) CreatePolicyholder(ctx context.Context, id, name string) error {
	p, err := s.ledger.CreatePolicyholder(ctx, id, name)
	s.observe(ctx, "create_policyholder", id, err)
	if err != nil {
		return err
	}
	s.notify(ctx, events.TypePolicyholderCreated, id, p)
	return nil
}

func (s *LedgerService) GetPolicyholder(ctx context.Context, id string) (*domain.Policyholder, error) {
	p, err := s.ledger.GetPolicyholder(ctx, id)
	s.readFailed(ctx, "get_policyholder", id, err)
	return p, err
}

func (s *LedgerService) ListPolicyholders(ctx context.Context) ([]domain.Policyholder, error) {
	list, err := s.ledger.ListPolicyholders(ctx)
	if err != nil {
		s.readFailed(ctx, "list_policyholders", "", err)
		return nil, err
	}
	if list == nil {
		list = []domain.Policyholder{}
	}
	return list, nil
}

func (s *LedgerService) CreatePolicy(ctx context.Context, id, policyholderID string, amount float64) error {
	p, err := s.ledger.CreatePolicy(ctx, id, policyholderID, amount)
	s.observe(ctx, "create_policy", id, err)
	if err != nil {
		return err
	}
	s.notify(ctx, events.TypePolicyCreated, id, p)
	return nil
}

func (s *LedgerService) GetPolicy(ctx context.Context, id string) (*domain.Policy, error) {
	p, err := s.ledger.GetPolicy(ctx, id)
	s.readFailed(ctx, "get_policy", id, err)
	return p, err
}

func (s *LedgerService) ListPolicies(ctx context.Context) ([]domain.Policy, error) {
	list, err := s.ledger.ListPolicies(ctx)
	if err != nil {
		s.readFailed(ctx, "list_policies", "", err)
		return nil, err
	}
	if list == nil {
		list = []domain.Policy{}
	}
	return list, nil
}

func (s *LedgerService) CreateClaim(ctx context.Context, id, policyID string, amount float64) error {
	c, err := s.ledger.CreateClaim(ctx, id, policyID, amount)
	s.observe(ctx, "create_claim", id, err)
	if err != nil {
		return err
	}
	s.notify(ctx, events.TypeClaimCreated, id, c)
	return nil
}

func (s *LedgerService) GetClaim(ctx context.Context, id string) (*domain.Claim, error) {
	c, err := s.ledger.GetClaim(ctx, id)
	s.readFailed(ctx, "get_claim", id, err)
	return c, err
}

func (s *LedgerService) ListClaims(ctx context.Context) ([]domain.Claim, error) {
	list, err := s.ledger.ListClaims(ctx)
	if err != nil {
		s.readFailed(ctx, "list_claims", "", err)
		return nil, err
	}
	if list == nil {
		list = []domain.Claim{}
	}
	return list, nil
}

func (s *LedgerService) UpdateClaimStatus(ctx context.Context, id string, status domain.ClaimStatus) error {
	c, err := s.ledger.UpdateClaimStatus(ctx, id, status)
	s.observe(ctx, "update_claim_status", id, err)
	if err != nil {
		return err
	}
	s.notify(ctx, events.TypeClaimStatusUpdated, id, c)
	return nil
}

func (s *LedgerService) DeleteClaim(ctx context.Context, id string) error {
	err := s.ledger.DeleteClaim(ctx, id)
	s.observe(ctx, "delete_claim", id, err)
	if err != nil {
		return err
	}
	s.notify(ctx, events.TypeClaimDeleted, id, nil)
	return nil
}

// Ping проверяет доступность хранилища для /health и gRPC health.
func (s *LedgerService) Ping(ctx context.Context) error {
	return s.ledger.Ping(ctx)
}
