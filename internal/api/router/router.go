package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nayochev/schedule-arranger/config"
	"github.com/nayochev/schedule-arranger/internal/api/handler"
	"github.com/nayochev/schedule-arranger/internal/api/middleware"
	"github.com/nayochev/schedule-arranger/pkg/jwt"
	"github.com/nayochev/schedule-arranger/pkg/metrics"
	"github.com/nayochev/schedule-arranger/pkg/redis"
)

// Deps 路由依赖；Redis、DB、Gatherer 均可为 nil
type Deps struct {
	Config   *config.Config
	Handler  *handler.Handler
	JWT      *jwt.Manager
	Redis    *redis.Client
	DB       *gorm.DB
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(d Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	cfg := d.Config
	h := d.Handler

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Metrics(d.Metrics))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", healthHandler(d.DB))

	// ── Prometheus ──
	if cfg.Metrics.Enabled && d.Gatherer != nil {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(d.JWT, d.Redis))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)

			// 日程模块
			schedules := authorized.Group("/schedules")
			{
				schedules.GET("", h.Schedule.ListSchedules)
				schedules.POST("", h.Schedule.CreateSchedule)
				schedules.GET("/:id", h.Schedule.GetSchedule)
				schedules.PUT("/:id", h.Schedule.UpdateSchedule) // 创建者鉴权在 Service 层
				schedules.DELETE("/:id", h.Schedule.DeleteSchedule)

				// 出欠更新（按用户限流）
				schedules.POST("/:id/users/:userId/candidates/:candidateId",
					middleware.RateLimit(d.Redis, cfg.Feature.UpsertRateLimit, cfg.Feature.UpsertRateWindow),
					h.Availability.UpsertAvailability,
				)

				// 导出
				schedules.GET("/:id/export.xlsx", h.Export.ExportGrid)
				schedules.GET("/:id/export.ics", h.Export.ExportCalendar)
			}
		}
	}

	return r
}

// healthHandler 存活检查；配置了数据库时同时 ping 数据库
func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(ctx)
			}
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
