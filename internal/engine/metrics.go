package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Latency: сколько времени заняла обработка HTTP-запроса
	RequestDuration *prometheus.HistogramVec

	// Traffic: общее кол-во запросов
	TotalRequests *prometheus.CounterVec

	// Исходы операций реестра по виду ошибки (ok, DuplicateId, NotFound, ...)
	LedgerOperations *prometheus.CounterVec

	// Errors: классификация отказов на периметре
	ErrorTotal *prometheus.CounterVec

	// Saturation: состояние Circuit Breaker хранилища (0 - ок, 1 - выбило)
	CircuitBreakerState *prometheus.GaugeVec

	// Events: заполненность буфера уведомлений (backpressure)
	EventBufferFill prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		RequestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "claims_http_request_duration_seconds",
			Help:    "Histogram of request latencies.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method", "route", "status"}),

		TotalRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "claims_http_requests_total",
			Help: "Total number of processed requests.",
		}, []string{"method", "route"}),

		LedgerOperations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "claims_ledger_operations_total",
			Help: "Ledger operations by outcome.",
		}, []string{"operation", "result"}),

		ErrorTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "claims_errors_total",
			Help: "Total number of errors by type.",
		}, []string{"type"}), // типы: rate_limit, internal, panic

		CircuitBreakerState: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "claims_circuit_breaker_state",
			Help: "Current state of the store circuit breaker (0=closed, 1=open).",
		}, []string{"store"}),

		EventBufferFill: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "claims_event_buffer_utilization",
			Help: "Current number of events waiting in the publisher buffer.",
		}),
	}
}

// ObserveBreaker подходит как колбэк смены состояния для resilient.Store.
func (m *Metrics) ObserveBreaker(name string, open bool) {
	v := 0.0
	if open {
		v = 1
	}
	m.CircuitBreakerState.WithLabelValues(name).Set(v)
}
