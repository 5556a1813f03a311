package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mealpedeal-api/config"
	"mealpedeal-api/handlers"
	"mealpedeal-api/logger"
	"mealpedeal-api/middleware"
	"mealpedeal-api/notify"
	"mealpedeal-api/otpstore"
	"mealpedeal-api/routes"
	"mealpedeal-api/services"
	"mealpedeal-api/validation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	logger.InitializeLogger(cfg.Env)
	defer logger.Close()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	gin.SetMode(cfg.GinMode)
	validation.Register()

	if err := config.InitDB(cfg); err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Notifications: messenger gateway when configured, log otherwise
	var sink *notify.MongoSink
	var next notify.Notifier = notify.LogNotifier{}
	if cfg.MessengerURL != "" {
		var failures notify.FailureSink
		if cfg.MongoURI != "" {
			sink, err = notify.NewMongoSink(ctx, cfg.MongoURI, cfg.MongoDB)
			if err != nil {
				logger.Warn("failure sink unavailable, undelivered messages will only be logged", zap.Error(err))
			} else {
				failures = sink
			}
		}
		next = notify.NewGatewayNotifier(cfg.MessengerURL, cfg.MessengerTimeout, failures)
		logger.Info("messenger gateway enabled", zap.String("url", cfg.MessengerURL))
	}
	notifier := notify.NewAsync(next, cfg.MessengerTimeout)

	handlers.Configure(handlers.Dependencies{
		Notifier: notifier,
		OTP: &services.OTP{
			Store:    otpstore.NewMemoryStore(time.Minute),
			Notifier: notifier,
			TTL:      cfg.OTPTTL,
		},
	})

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger())

	r.GET("/health", func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		if sqlDB, err := config.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status, code = "degraded", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":  status,
			"service": "MealPeDeal API",
			"version": "1.0.0",
		})
	})

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Welcome to the MealPeDeal API",
			"docs":    "/api/mystery-bags/lifecycle",
			"health":  "/health",
			"roles":   []string{"customer", "courier", "restaurant_manager", "moderator"},
		})
	})

	routes.SetupRoutes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           middleware.CORS(cfg.AllowedOrigins, r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
	}

	notifier.Wait()
	if sink != nil {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sink.Close(closeCtx); err != nil {
			logger.Warn("failed to close failure sink", zap.Error(err))
		}
	}
}
