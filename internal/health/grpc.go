package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName - имя, под которым реестр отвечает на grpc.health.v1.Check.
const ServiceName = "claims.Ledger"

type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker держит статус grpc health в актуальном состоянии по Ping хранилища.
type Checker struct {
	srv      *health.Server
	pinger   Pinger
	interval time.Duration
	logger   *zap.Logger

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func NewChecker(pinger Pinger, interval time.Duration, logger *zap.Logger) *Checker {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Checker{
		srv:      health.NewServer(),
		pinger:   pinger,
		interval: interval,
		logger:   logger.Named("grpc-health"),
		stop:     make(chan struct{}),
	}
}

// Register вешает health-сервис на gRPC сервер.
func (c *Checker) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, c.srv)
}

// Start делает первую проверку синхронно и запускает фоновый пробник.
func (c *Checker) Start() {
	c.probe()
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.probe()
			case <-c.stop:
				return
			}
		}
	}()
}

// Stop останавливает пробник и переводит все сервисы в NOT_SERVING.
func (c *Checker) Stop() {
	c.once.Do(func() {
		close(c.stop)
		c.wg.Wait()
		c.srv.Shutdown()
	})
}

func (c *Checker) probe() {
	ctx, cancel := context.WithTimeout(context.Background(), c.interval)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := c.pinger.Ping(ctx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		c.logger.Warn("store ping failed", zap.Error(err))
	}
	// Пустое имя - общий статус сервера
	c.srv.SetServingStatus("", status)
	c.srv.SetServingStatus(ServiceName, status)
}
