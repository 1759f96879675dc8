package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/go-storefront/internal/apiclient"
	"github.com/flicky/go-storefront/internal/config"
	"github.com/flicky/go-storefront/internal/handler"
	"github.com/flicky/go-storefront/internal/middleware"
	"github.com/flicky/go-storefront/internal/payment"
	"github.com/flicky/go-storefront/internal/repository"
	"github.com/flicky/go-storefront/internal/service"
	"github.com/flicky/go-storefront/internal/session"
	"github.com/flicky/go-storefront/internal/state"
	"github.com/flicky/go-storefront/internal/worker"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	slog.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis: sessions, catalog cache, confirmations
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to Redis")

	// RabbitMQ is optional. Interface vars stay nil when it is off.
	var (
		publisher service.Publisher
		amqpConn  handler.Closer
		confirmW  *worker.ConfirmationWorker
	)
	confirmations := worker.NewConfirmationStore(redisClient)

	if cfg.RabbitMQ.URL != "" {
		conn, err := amqp.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			log.Error("connect to RabbitMQ", "error", err)
			os.Exit(1)
		}
		defer conn.Close()

		pubCh, err := conn.Channel()
		if err != nil {
			log.Error("open RabbitMQ channel", "error", err)
			os.Exit(1)
		}
		defer pubCh.Close()

		if err := worker.SetupTopology(pubCh); err != nil {
			log.Error("setup RabbitMQ", "error", err)
			os.Exit(1)
		}

		consumeCh, err := conn.Channel()
		if err != nil {
			log.Error("open RabbitMQ consumer channel", "error", err)
			os.Exit(1)
		}
		defer consumeCh.Close()
		if err := consumeCh.Qos(1, 0, false); err != nil {
			log.Error("set consumer prefetch", "error", err)
			os.Exit(1)
		}

		publisher = pubCh
		amqpConn = conn
		confirmW = worker.NewConfirmationWorker(consumeCh, confirmations, redisClient, log)
		log.Info("connected to RabbitMQ")
	} else {
		log.Warn("RABBITMQ_URL empty, order events disabled")
	}

	var provider payment.Provider
	if cfg.PayPal.Enabled() {
		provider = payment.NewPayPal(payment.PayPalOptions{
			BaseURL:      cfg.PayPal.BaseURL,
			ClientID:     cfg.PayPal.ClientID,
			ClientSecret: cfg.PayPal.ClientSecret,
			Timeout:      cfg.PayPal.Timeout,
		}, log)
		log.Info("server-side PayPal capture enabled")
	}

	// Backend
	client := apiclient.New(apiclient.Options{
		BaseURL:            cfg.Backend.URL,
		Timeout:            cfg.Backend.Timeout,
		BreakerFailures:    cfg.Backend.BreakerFailures,
		BreakerOpenTimeout: cfg.Backend.BreakerOpenTimeout,
	}, log)

	// Repositories
	cartRepo := repository.NewCartRepository(client)
	checkoutRepo := repository.NewCheckoutRepository(client)
	orderRepo := repository.NewOrderRepository(client)
	productRepo := repository.NewProductRepository(client)
	authRepo := repository.NewAuthRepository(client)
	userRepo := repository.NewUserRepository(client)
	uploadRepo := repository.NewUploadRepository(client)

	// Services
	cartSvc := service.NewCartService(cartRepo, log)
	authSvc := service.NewAuthService(authRepo, cartSvc, log)
	checkoutSvc := service.NewCheckoutService(checkoutRepo, cartSvc, provider, publisher, log)
	orderSvc := service.NewOrderService(orderRepo, confirmations)
	productSvc := service.NewProductService(productRepo, redisClient, log)
	adminSvc := service.NewAdminService(productRepo, orderRepo, userRepo, uploadRepo, productSvc, log)

	resolver := session.NewResolver(session.NewRedisStore(redisClient, cfg.Session.TTL), state.NewTracker(), log)

	router := handler.NewRouter(handler.Handlers{
		Health:   handler.NewHealthHandler(redisClient, amqpConn, client.State),
		Auth:     handler.NewAuthHandler(authSvc),
		Cart:     handler.NewCartHandler(cartSvc),
		Checkout: handler.NewCheckoutHandler(checkoutSvc),
		Order:    handler.NewOrderHandler(orderSvc),
		Product:  handler.NewProductHandler(productSvc),
		Admin:    handler.NewAdminHandler(adminSvc),
	}, resolver, middleware.SessionOptions{
		CookieName: cfg.Session.CookieName,
		TTL:        cfg.Session.TTL,
		Secure:     cfg.Session.Secure,
	}, log)

	if confirmW != nil {
		if err := confirmW.Start(ctx); err != nil {
			log.Error("start confirmation worker", "error", err)
			os.Exit(1)
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port, "backend", cfg.Backend.URL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	if confirmW != nil {
		confirmW.Stop()
	}
	cancel()
	log.Info("server stopped")
}
