package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xela07ax/claims-ledger/internal/console/handler"
	"github.com/xela07ax/claims-ledger/internal/engine"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Options - параметры периметра API.
type Options struct {
	// RateLimit - запросов в секунду на весь сервер; 0 отключает ограничение
	RateLimit float64
	RateBurst int
	// Gatherer отдается на /metrics; nil - эндпоинт не регистрируется
	Gatherer prometheus.Gatherer
}

type LedgerServer struct {
	router  *chi.Mux
	logger  *zap.Logger
	metrics *engine.Metrics
	opts    Options

	// Обработчики бизнес-доменов
	policyholderHandler *handler.PolicyholderHandler // /policyholders
	policyHandler       *handler.PolicyHandler       // /policies
	claimHandler        *handler.ClaimHandler        // /claims
	healthHandler       *handler.HealthHandler       // /health
}

// NewLedgerServer инициализирует HTTP API реестра со всеми зависимостями
func NewLedgerServer(
	opts Options,
	logger *zap.Logger,
	metrics *engine.Metrics,
	policyholderH *handler.PolicyholderHandler,
	policyH *handler.PolicyHandler,
	claimH *handler.ClaimHandler,
	healthH *handler.HealthHandler,
) *LedgerServer {
	if metrics == nil {
		metrics = engine.NewMetrics(nil)
	}
	s := &LedgerServer{
		router:              chi.NewRouter(),
		logger:              logger.Named("ledger-api"),
		metrics:             metrics,
		opts:                opts,
		policyholderHandler: policyholderH,
		policyHandler:       policyH,
		claimHandler:        claimH,
		healthHandler:       healthH,
	}

	s.routes()
	return s
}

func (s *LedgerServer) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware (для всех) ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(engine.TracingMiddleware)
	r.Use(engine.RequestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)

	// --- 2. Служебные роуты (без лимита, чтобы мониторинг не получал 429) ---
	r.Get("/health", s.healthHandler.Check)
	if s.opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}

	// --- 3. Реестр ---
	r.Group(func(r chi.Router) {
		if s.opts.RateLimit > 0 {
			burst := s.opts.RateBurst
			if burst <= 0 {
				burst = 1
			}
			r.Use(engine.RateLimitMiddleware(rate.NewLimiter(rate.Limit(s.opts.RateLimit), burst), s.metrics))
		}

		r.Route("/policyholders", func(r chi.Router) {
			r.Post("/", s.policyholderHandler.Create)
			r.Get("/", s.policyholderHandler.List)
			r.Get("/{id}", s.policyholderHandler.Get)
		})

		r.Route("/policies", func(r chi.Router) {
			r.Post("/", s.policyHandler.Create)
			r.Get("/", s.policyHandler.List)
			r.Get("/{id}", s.policyHandler.Get)
		})

		r.Route("/claims", func(r chi.Router) {
			r.Post("/", s.claimHandler.Create)
			r.Get("/", s.claimHandler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.claimHandler.Get)
				r.Delete("/", s.claimHandler.Delete)
				r.Put("/status", s.claimHandler.UpdateStatus) // Pending / Approved / Rejected
			})
		})
	})
}

// ServeHTTP позволяет использовать LedgerServer как стандартный http.Handler
func (s *LedgerServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
