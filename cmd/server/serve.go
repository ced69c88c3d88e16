package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nayochev/schedule-arranger/internal/api/handler"
	"github.com/nayochev/schedule-arranger/internal/api/router"
	"github.com/nayochev/schedule-arranger/internal/repository"
	"github.com/nayochev/schedule-arranger/internal/service"
	"github.com/nayochev/schedule-arranger/pkg/database"
	"github.com/nayochev/schedule-arranger/pkg/jwt"
	"github.com/nayochev/schedule-arranger/pkg/metrics"
	"github.com/nayochev/schedule-arranger/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}

	// 1. 配置、日志、数据库
	cfg, logger, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer closeDB(db)

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 2. 数据库迁移
	if err := database.Migrate(db, cfg.Database.Driver, logger); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}

	// 3. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	var rdb *redis.Client
	rdb, err = redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单与限流将不可用", zap.Error(err))
		rdb = nil
	} else {
		defer rdb.Close()
	}

	// 4. 指标
	var (
		m        *metrics.Metrics
		registry *prometheus.Registry
	)
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m = metrics.New(registry)
	}

	// 5. 依赖注入: Repository → Service → Handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, rdb, m, logger)
	h := handler.NewHandler(svc)

	deps := router.Deps{
		Config:  cfg,
		Handler: h,
		JWT:     jwtMgr,
		Redis:   rdb,
		DB:      db,
		Metrics: m,
		Logger:  logger,
	}
	if registry != nil {
		deps.Gatherer = registry
	}
	engine := router.Setup(deps)

	// 6. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP 服务器异常: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("收到关闭信号，开始优雅关闭...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
		return err
	}

	logger.Info("服务器已关闭")
	return nil
}
