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
	"go.uber.org/zap"

	"prediction/internal/cache"
	"prediction/internal/config"
	cronrunner "prediction/internal/cron"
	"prediction/internal/db"
	"prediction/internal/escrow"
	"prediction/internal/handler"
	"prediction/internal/logger"
	"prediction/internal/metrics"
	"prediction/internal/notify"
	"prediction/internal/oracle"
	gormrepository "prediction/internal/repository/gorm"
	"prediction/internal/service"
)

func main() {
	cfgPath := os.Getenv("PE_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("PE_ENV_ONLY"); envOnlyRaw != "" {
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

	var snapshots *cache.Snapshots
	if cfg.Redis.Enabled {
		rdb, err := cache.Connect(cfg.Redis.Addr)
		if err != nil {
			logger.Warn("redis unavailable, snapshot cache disabled", zap.Error(err))
		} else {
			snapshots = cache.NewSnapshots(rdb, cfg.Redis.RetentionTTL)
			defer rdb.Close()
		}
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.Kafka.Enabled {
		kn := notify.NewKafkaNotifier(cfg.Kafka.Brokers)
		defer kn.Close()
		notifier = kn
	}

	oracleHTTP := &http.Client{Timeout: cfg.Oracle.Timeout}
	oracleClient := oracle.NewClient(oracleHTTP, cfg.Oracle.BaseURL)
	escrowHTTP := &http.Client{Timeout: cfg.Escrow.Timeout}
	escrowClient := escrow.NewClient(escrowHTTP, cfg.Escrow.BaseURL)

	store := gormrepository.New(dbConn.Gorm)
	retention := cfg.Redis.RetentionTTL

	roundSvc := &service.RoundService{
		Repo:      store,
		Oracle:    oracleClient,
		Cache:     snapshots,
		Notifier:  notifier,
		Config:    cfg.Engine,
		Retention: retention,
		Logger:    logger,
	}
	betSvc := &service.BetService{
		Repo:         store,
		Escrow:       escrowClient,
		Cache:        snapshots,
		Notifier:     notifier,
		Config:       cfg.Engine,
		HouseAccount: cfg.Escrow.HouseAccount,
		Retention:    retention,
		Logger:       logger,
	}
	settleSvc := &service.SettlementService{
		Repo:      store,
		Oracle:    oracleClient,
		Cache:     snapshots,
		Notifier:  notifier,
		Config:    cfg.Engine,
		Retention: retention,
		Logger:    logger,
	}
	claimSvc := &service.ClaimService{
		Repo:         store,
		Escrow:       escrowClient,
		Cache:        snapshots,
		Notifier:     notifier,
		HouseAccount: cfg.Escrow.HouseAccount,
		Retention:    retention,
		Logger:       logger,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	roundHandler := &handler.RoundHandler{
		Rounds:     roundSvc,
		Settlement: settleSvc,
		Config:     cfg.Engine,
	}
	roundHandler.Register(engine)
	betHandler := &handler.BetHandler{Bets: betSvc}
	betHandler.Register(engine)
	claimHandler := &handler.ClaimHandler{Claims: claimSvc}
	claimHandler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		metricsSrv = metrics.StartServer(cfg.Metrics.Addr, func(ctx context.Context) error {
			return db.Ping(dbConn)
		})
	}

	if cfg.Cron.Enabled {
		cronRunner := cronrunner.New(logger, ctx)
		sweeper := &service.SettlementSweeper{
			Repo:    store,
			Settler: settleSvc,
			Logger:  logger,
		}
		_, err = cronRunner.Add(cfg.Cron.SettleSweep, func(ctx context.Context) {
			if err := sweeper.RunOnce(ctx); err != nil {
				logger.Warn("settle sweep failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register settle sweep failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	errCh := make(chan error, 2)

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
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization,X-Player")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
