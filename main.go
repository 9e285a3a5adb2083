package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bellapacxx/bingo-engine/config"
	"github.com/bellapacxx/bingo-engine/game"
	"github.com/bellapacxx/bingo-engine/metrics"
	"github.com/bellapacxx/bingo-engine/middleware"
	"github.com/bellapacxx/bingo-engine/routes"
	"github.com/bellapacxx/bingo-engine/services"
	"github.com/bellapacxx/bingo-engine/utils/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// setupRouter initializes Gin routes and middleware
func setupRouter(cfg config.App, limiter *middleware.RateLimiter, deps routes.Deps) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Origins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(limiter.Handler())

	// Setup REST routes
	routes.SetupRoutes(r, deps)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now()})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	return r
}

func defaultRates(cfg config.App) game.Rates {
	margin, commission, referral, _ := cfg.DefaultRates()
	r := game.Rates{ProfitMargin: margin, Commission: commission}
	if referral.IsPositive() {
		r.Referral = &referral
	}
	return r
}

func main() {
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Errorf("[FATAL] config: %v", err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.LogLevel)

	// Connect to database
	db, err := config.ConnectDB(cfg.DatabaseURL)
	if err != nil {
		logger.Errorf("[FATAL] database: %v", err)
		os.Exit(1)
	}

	rates := defaultRates(cfg)
	ledger := services.NewGormLedger(db)
	shops := services.NewShopRates(db, rates)
	hub := services.NewHub()

	sinks := services.Fanout{hub}
	if cfg.RabbitURL != "" {
		mq, err := services.NewMQSink(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			logger.Errorf("[FATAL] rabbitmq: %v", err)
			os.Exit(1)
		}
		defer mq.Close()
		sinks = append(sinks, mq)
		logger.Infof("Publishing game events to exchange %s", cfg.RabbitExchange)
	}

	engine, err := game.NewEngine(game.Config{
		CallInterval:    cfg.CallInterval,
		AutoResumeDelay: cfg.AutoResumeDelay,
		Retention:       cfg.SessionRetention,
		DefaultRates:    rates,
		RetryBase:       cfg.LedgerRetryBase,
		RetryMax:        cfg.LedgerRetryMax,
		Broadcaster:     sinks,
		Ledger:          ledger,
		Rates:           shops,
	})
	if err != nil {
		logger.Errorf("[FATAL] engine: %v", err)
		os.Exit(1)
	}

	stop := make(chan struct{})
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	limiter.StartCleanup(10*time.Minute, stop)

	router := setupRouter(cfg, limiter, routes.Deps{
		Engine:  engine,
		Hub:     hub,
		History: ledger,
		Shops:   shops,
		Origins: cfg.Origins(),
	})
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}

	go func() {
		logger.Infof("🚀 Bingo engine starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("[FATAL] Failed to start server: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("server shutdown: %v", err)
	}
	close(stop)
	engine.Close()
	hub.Close()
}
