package main

import (
	"time"

	"go-leave/internal/app"
	"go-leave/internal/bootstrap"
	"go-leave/internal/config"
	"go-leave/internal/shared/apperror"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	var logger *zap.Logger
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	apperror.Init()
	r := gin.New()

	// build dependency + routes
	infra, err := app.BuildApp(r, cfg, logger)
	if err != nil {
		logger.Fatal("build app failed", zap.Error(err))
	}

	auditLogger := bootstrap.NewStdoutAuditLogger(logger)
	err = bootstrap.StartHTTPServer(
		r,
		bootstrap.ServerConfig{
			Port:        cfg.Server.Port,
			ReadTimeout: 5 * time.Second,
			// a submit may wait on the HR notification
			WriteTimeout:    cfg.Notification.Timeout + 15*time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: cfg.Notification.Timeout + 5*time.Second,
		},
		auditLogger,
		infra.Close,
	)
	if err != nil {
		logger.Fatal("http server failed", zap.Error(err))
	}
}
