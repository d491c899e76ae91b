package main // Entry point package

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"    // .env bootstrap for local development
	"github.com/labstack/echo/v4" // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus" // structured logging

	"github.com/iliyamo/event-service-booking/internal/config"
	"github.com/iliyamo/event-service-booking/internal/database"
	"github.com/iliyamo/event-service-booking/internal/handler"
	"github.com/iliyamo/event-service-booking/internal/middleware"
	"github.com/iliyamo/event-service-booking/internal/queue"
	"github.com/iliyamo/event-service-booking/internal/repository"
	"github.com/iliyamo/event-service-booking/internal/router"
	"github.com/iliyamo/event-service-booking/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("mysql connect failed")
	}
	defer func() { _ = db.Close() }()

	// Redis is optional: without it the rate limiter and response
	// cache middlewares turn into pass-throughs.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable, rate limiting and response cache disabled")
	}

	users := repository.NewUserRepo(db)
	events := repository.NewEventRepo(db)
	services := repository.NewServiceRepo(db)
	bookings := repository.NewBookingRepo(db)
	messages := repository.NewMessageRepo(db)

	publisher := service.NewAMQPPublisher(log)
	reconciler := service.NewReconciler(events, services, bookings, log)
	bookingSvc := service.NewBookingService(events, services, bookings, reconciler, publisher, log)
	chatSvc := service.NewChatService(bookings, messages, publisher, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go reconciler.Run(ctx)
	go queue.StartChatConsumer(ctx, log)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAPI(e, router.Handlers{
		Auth:     handler.NewAuthHandler(cfg, users),
		Events:   handler.NewEventHandler(events),
		Services: handler.NewServiceHandler(services),
		Bookings: handler.NewBookingHandler(bookingSvc),
		Chat:     handler.NewChatHandler(chatSvc),
	}, cfg.JWTSecret)

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		_ = e.Shutdown(context.Background())
	}()

	addr := ":" + cfg.Port
	log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
	if err := e.Start(addr); err != nil {
		log.WithError(err).Info("server stopped")
	}
}
