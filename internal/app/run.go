package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/claims-ledger/internal/console/handler"
	"github.com/xela07ax/claims-ledger/internal/console/server"
	"github.com/xela07ax/claims-ledger/internal/console/service"
	"github.com/xela07ax/claims-ledger/internal/engine"
	"github.com/xela07ax/claims-ledger/internal/events"
	"github.com/xela07ax/claims-ledger/internal/health"
	"github.com/xela07ax/claims-ledger/internal/infra"
	"github.com/xela07ax/claims-ledger/internal/ledger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// Run поднимает HTTP API (и gRPC health, если задан порт) и блокируется до отмены ctx.
func Run(ctx context.Context, cfg *infra.Config, logger *zap.Logger) error {
	// Фоновые горутины Run завершаются вместе с ним, в том числе при выходе по ошибке сервера
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// 1. Метрики
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := engine.NewMetrics(reg)

	// 2. Хранилище
	backend, err := OpenBackend(ctx, cfg, metrics, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	if cfg.Storage.AutoMigrate {
		if err := backend.Migrate(ctx); err != nil {
			return fmt.Errorf("schema migration failed: %w", err)
		}
	}

	// 3. Уведомления об изменениях
	var sink events.Sink = events.NopSink{}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			// Уведомления best-effort: без Redis реестр продолжает работать
			logger.Warn("redis unreachable, change notifications will be dropped", zap.Error(err))
		}
		sink = events.NewRedisSink(rdb, infra.RedisChanLedgerEvents)
	}
	publisher := events.NewPublisher(sink, logger, events.Options{
		BufferSize:    cfg.Events.BufferSize,
		BatchSize:     cfg.Events.BatchSize,
		FlushInterval: cfg.Events.FlushInterval,
	})
	publisher.Start()
	defer publisher.Stop()

	// 4. Ядро и слои (Dependency Injection)
	l := ledger.New(backend.Store, ledger.WithMaxPolicyAmount(cfg.Ledger.MaxPolicyAmount))
	svc := service.NewLedgerService(l, publisher, metrics, logger)

	api := server.NewLedgerServer(server.Options{
		RateLimit: cfg.RateLimit.RPS,
		RateBurst: cfg.RateLimit.Burst,
		Gatherer:  reg,
	}, logger, metrics,
		handler.NewPolicyholderHandler(svc),
		handler.NewPolicyHandler(svc),
		handler.NewClaimHandler(svc),
		handler.NewHealthHandler(svc, logger),
	)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 2)

	// 5. gRPC health (опционально)
	var grpcSrv *grpc.Server
	var checker *health.Checker
	if cfg.GRPC.Port > 0 {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPC.Port))
		if err != nil {
			return fmt.Errorf("failed to listen gRPC: %w", err)
		}
		grpcSrv = grpc.NewServer()
		checker = health.NewChecker(svc, cfg.GRPC.ProbeInterval, logger)
		checker.Register(grpcSrv)
		checker.Start()

		go func() {
			logger.Info("gRPC health server started", zap.Int("port", cfg.GRPC.Port))
			if err := grpcSrv.Serve(lis); err != nil {
				errCh <- fmt.Errorf("serve gRPC: %w", err)
			}
		}()
	}

	// 6. Буфер уведомлений в метриках
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.EventBufferFill.Set(float64(publisher.Pending()))
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		logger.Info("claims ledger API started", zap.String("addr", srv.Addr), zap.String("storage", backend.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen: %w", err)
		}
	}()

	// 7. Graceful Shutdown
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("claims ledger stopping...")
	case runErr = <-errCh:
		logger.Error("server failed", zap.Error(runErr))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", zap.Error(err))
	}
	if grpcSrv != nil {
		checker.Stop()
		grpcSrv.GracefulStop()
	}
	logger.Info("claims ledger exited properly")
	return runErr
}
