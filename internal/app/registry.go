package app

import (
	"context"
	"net/http"
	"time"

	"go-leave/internal/config"
	"go-leave/internal/employee"
	"go-leave/internal/leave"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/middleware"
	"go-leave/internal/notification"
	"go-leave/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const idempotencyTTL = 24 * time.Hour

func registerModules(
	router *gin.Engine,
	cfg *config.Config,
	infra *Infra,
	logger *zap.Logger,
) error {
	router.Use(
		middleware.ContextLogger(logger),
		gin.Recovery(),
		middleware.RateLimitByIP(rate.Limit(cfg.Server.RateLimitRPS), cfg.Server.RateLimitBurst),
	)

	// --- Repositories ---
	employeeRepo := employee.NewRepository(infra.GormDB)
	leaveRepo := leave.NewRepository(infra.GormDB)

	var draftRepo leave.DraftRepository
	if cfg.Leave.DraftStore == config.DraftStoreRedis {
		draftRepo = leave.NewRedisDraftRepository(infra.Redis, cfg.Leave.DraftTTL)
	} else {
		draftRepo = leave.NewDraftRepository(infra.GormDB)
	}

	var outboxRepo kafka.OutboxRepository
	if cfg.Kafka.OutboxEnabled {
		outboxRepo = kafka.NewOutboxRepository(infra.DB)
	}

	notifier, err := notification.NewSender(cfg.Notification, logger)
	if err != nil {
		return err
	}

	// --- Services ---
	employeeService := employee.NewService(employeeRepo, cfg.Leave.DefaultLeaveDays, logger)
	leaveService := leave.NewService(
		infra.DB,
		leaveRepo,
		draftRepo,
		employeeService,
		notifier,
		outboxRepo,
		leave.Options{
			BalanceReporting: cfg.Leave.BalanceReporting,
			HREmail:          cfg.Notification.HREmail,
			NotifyTimeout:    cfg.Notification.Timeout,
		},
		logger,
	)

	// --- Handlers ---
	employeeHandler := employee.NewHandler(employeeService, logger)
	leaveHandler := leave.NewHandler(leaveService, logger)

	var submitGuards []gin.HandlerFunc
	if infra.Redis != nil {
		submitGuards = append(submitGuards, middleware.Idempotency(infra.Redis, idempotencyTTL, logger))
	}

	// --- Routes Registration ---
	router.GET("/healthz", healthHandler(infra))

	api := router.Group("/api/v1")
	{
		employee.RegisterRoutes(api, employeeHandler)
		leave.RegisterRoutes(api, leaveHandler, submitGuards...)
	}

	logger.Info("modules registered",
		zap.String("draft_store", cfg.Leave.DraftStore),
		zap.String("notify_transport", cfg.Notification.Transport),
		zap.Bool("outbox_enabled", cfg.Kafka.OutboxEnabled),
		zap.Bool("idempotency", infra.Redis != nil),
	)
	return nil
}

func healthHandler(infra *Infra) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		checks := gin.H{"database": "ok"}
		healthy := true
		if err := infra.DB.PingContext(ctx); err != nil {
			checks["database"] = err.Error()
			healthy = false
		}
		if infra.Redis != nil {
			checks["redis"] = "ok"
			if err := infra.Redis.Ping(ctx).Err(); err != nil {
				checks["redis"] = err.Error()
				healthy = false
			}
		}

		if !healthy {
			response.Error(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency check failed", checks)
			return
		}
		response.Success(c, http.StatusOK, checks, nil)
	}
}
