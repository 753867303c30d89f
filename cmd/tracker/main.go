package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"optionstracker/internal/client/ivx"
	"optionstracker/internal/config"
	"optionstracker/internal/db"
	"optionstracker/internal/fetch"
	"optionstracker/internal/handler"
	"optionstracker/internal/logger"
	"optionstracker/internal/opportunity"
	gormrepository "optionstracker/internal/repository/gorm"
	"optionstracker/internal/scanner"
	"optionstracker/internal/scheduler"
	"optionstracker/internal/service"

	_ "optionstracker/docs"
)

func main() {
	cfgPath := os.Getenv("OT_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("OT_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	apiKey := os.Getenv(cfg.Provider.APIKeyEnv)
	if apiKey == "" {
		logger.Warn("provider api key not set, fetches will fail",
			zap.String("env", cfg.Provider.APIKeyEnv))
	}
	providerHTTP := &http.Client{Timeout: cfg.Provider.Timeout}
	provider := ivx.NewClient(providerHTTP, cfg.Provider.BaseURL, apiKey)

	store := gormrepository.New(dbConn.Gorm)
	coordinator := fetch.NewCoordinator(provider, cfg, logger)
	engine := scanner.NewEngine(cfg.Scanner, logger)
	opps := &opportunity.Manager{Repo: store, Logger: logger}

	refreshSvc := &service.RefreshService{
		Repo:          store,
		Market:        coordinator,
		Engine:        engine,
		Opportunities: opps,
		Logger:        logger,
		Config:        cfg,
	}
	scanSvc := &service.ScanService{
		Repo:          store,
		Engine:        engine,
		Opportunities: opps,
		Logger:        logger,
		Config:        cfg,
	}
	watchlistSvc := &service.WatchlistService{Repo: store, Logger: logger}

	sched, err := scheduler.New(cfg, refreshSvc, scanSvc, logger)
	if err != nil {
		logger.Fatal("scheduler init failed", zap.Error(err))
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(router)
	watchlistHandler := &handler.WatchlistHandler{Service: watchlistSvc}
	watchlistHandler.Register(router)
	oppHandler := &handler.OpportunityHandler{Repo: store}
	oppHandler.Register(router)
	analysisHandler := &handler.AnalysisHandler{Repo: store}
	analysisHandler.Register(router)
	jobHandler := &handler.JobHandler{Scheduler: sched}
	jobHandler.Register(router)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sched.Start(); err != nil {
		logger.Fatal("scheduler start failed", zap.Error(err))
	}
	defer sched.Stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
