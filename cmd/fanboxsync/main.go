package main

import (
	"context"
	"io"
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
	"golang.org/x/time/rate"

	"fanboxviewer/internal/browser"
	"fanboxviewer/internal/cache"
	"fanboxviewer/internal/config"
	"fanboxviewer/internal/credentials"
	cronrunner "fanboxviewer/internal/cron"
	"fanboxviewer/internal/db"
	"fanboxviewer/internal/endpoints"
	"fanboxviewer/internal/handler"
	"fanboxviewer/internal/logger"
	gormrepository "fanboxviewer/internal/repository/gorm"
	"fanboxviewer/internal/service"
	"fanboxviewer/internal/tracing"
	"fanboxviewer/internal/transport"

	_ "fanboxviewer/docs"
)

func main() {
	cfgPath := os.Getenv("FV_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("FV_ENV_ONLY"); envOnlyRaw != "" {
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		logger.Warn("tracing setup failed", zap.Error(err))
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

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
	store := gormrepository.New(dbConn.Gorm)
	store.Logger = logger

	engineBrowser := browser.NewEngine(cfg.Browser, logger)
	defer engineBrowser.Close()

	// Cookies come from the exported cookie file and, with a persistent
	// profile, from the browser's own session.
	var jar credentials.MultiJar
	if cfg.Cookies.File != "" {
		fileJar, err := credentials.OpenFileJar(cfg.Cookies.File, cfg.Cookies.Watch, logger)
		if err != nil {
			logger.Warn("cookie file unavailable", zap.String("path", cfg.Cookies.File), zap.Error(err))
		} else {
			defer fileJar.Close()
			jar = append(jar, fileJar)
		}
	}
	if engineBrowser.Enabled() {
		jar = append(jar, engineBrowser)
	}

	gen := endpoints.Generator{APIBase: cfg.Fanbox.APIBaseURL, WWWBase: cfg.Fanbox.WWWBaseURL}
	var limiter *rate.Limiter
	if cfg.Fanbox.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Fanbox.RatePerSecond), max(cfg.Fanbox.Burst, 1))
	}
	direct := &transport.Direct{
		HTTP:        &http.Client{Timeout: cfg.Fanbox.Timeout},
		Credentials: &credentials.Provider{Source: jar, Logger: logger},
		UserAgent:   cfg.Fanbox.UserAgent,
		SiteOrigin:  gen.Origin(),
		Limiter:     limiter,
	}

	lookups, err := cache.Open(ctx, cfg.Cache, "fanboxviewer")
	if err != nil {
		logger.Warn("redis unavailable, using in-process cache", zap.Error(err))
		lookups = cache.NewMemoryStore()
	}
	if closer, ok := lookups.(io.Closer); ok {
		defer closer.Close()
	}

	syncSvc := &service.SyncService{
		Store:       store,
		Gen:         gen,
		Direct:      direct,
		Cache:       lookups,
		Fanbox:      cfg.Fanbox,
		Browser:     cfg.Browser,
		ResolverTTL: cfg.Cache.ResolverTTL,
		Logger:      logger,
	}
	if engineBrowser.Enabled() {
		syncSvc.NewPage = func() service.PageSession { return engineBrowser.NewSession(jar) }
	}
	postSvc := &service.PostService{Posts: store, Creators: store, Tags: store}
	tagSvc := &service.TagService{Tags: store, Posts: store}
	userDataSvc := &service.UserDataService{Store: store, Logger: logger}
	sessionSvc := &service.SessionService{Session: &credentials.Session{Jar: jar}, Logger: logger}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn, Cache: lookups, Sync: syncSvc, Browser: engineBrowser.Enabled()}
	healthHandler.Register(engine)
	syncHandler := &handler.SyncHandler{Service: syncSvc, Logger: logger}
	syncHandler.Register(engine)
	creatorHandler := &handler.CreatorHandler{Posts: postSvc, Tags: tagSvc, Logger: logger}
	creatorHandler.Register(engine)
	postHandler := &handler.PostHandler{Posts: postSvc, Tags: tagSvc, Logger: logger}
	postHandler.Register(engine)
	userDataHandler := &handler.UserDataHandler{Service: userDataSvc, Posts: postSvc, Logger: logger}
	userDataHandler.Register(engine)
	sessionHandler := &handler.SessionHandler{Service: sessionSvc}
	sessionHandler.Register(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		_, err = cronRunner.Add("creator_sync", cfg.Cron.CreatorSync, func(ctx context.Context) error {
			result, err := syncSvc.SyncCreators(ctx)
			if err != nil {
				return err
			}
			logger.Info("cron creator sync ok",
				zap.Int("records", result.Records),
				zap.String("transport", result.Transport),
				zap.Bool("partial", result.Partial),
				zap.Bool("empty", result.Empty),
			)
			return nil
		})
		if err != nil {
			logger.Warn("cron register creator sync failed", zap.Error(err))
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()

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
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
