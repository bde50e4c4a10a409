package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	cartapp "github.com/dwikikusuma/freshcart/internal/cart/app"
	cartpg "github.com/dwikikusuma/freshcart/internal/cart/infra/postgres"
	catalogapp "github.com/dwikikusuma/freshcart/internal/catalog/app"
	catalogpg "github.com/dwikikusuma/freshcart/internal/catalog/infra/postgres"
	checkoutapp "github.com/dwikikusuma/freshcart/internal/checkout/app"
	checkoutpg "github.com/dwikikusuma/freshcart/internal/checkout/infra/postgres"
	couponapp "github.com/dwikikusuma/freshcart/internal/coupon/app"
	couponpg "github.com/dwikikusuma/freshcart/internal/coupon/infra/postgres"
	"github.com/dwikikusuma/freshcart/internal/events"
	"github.com/dwikikusuma/freshcart/internal/events/kafka"
	"github.com/dwikikusuma/freshcart/internal/httpapi"
	orderapp "github.com/dwikikusuma/freshcart/internal/order/app"
	orderpg "github.com/dwikikusuma/freshcart/internal/order/infra/postgres"
	paymentapp "github.com/dwikikusuma/freshcart/internal/payment/app"
	paymentpg "github.com/dwikikusuma/freshcart/internal/payment/infra/postgres"
	paymentredis "github.com/dwikikusuma/freshcart/internal/payment/infra/redis"
	paymentstripe "github.com/dwikikusuma/freshcart/internal/payment/infra/stripe"

	"github.com/dwikikusuma/freshcart/pkg/config"
	"github.com/dwikikusuma/freshcart/pkg/logger"
	"github.com/dwikikusuma/freshcart/pkg/postgres"
	"github.com/dwikikusuma/freshcart/pkg/shutdown"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{Service: "shop", Env: cfg.AppEnv, Level: cfg.LogLevel, AddSource: true})

	if cfg.JWTSecret == "" {
		log.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	ctx, cancel := shutdown.WithSignals(context.Background(), log)
	defer cancel()

	db := mustDB(cfg, log)
	defer db.Close()

	pub := mustPublisher(cfg, log)
	defer func() {
		if c, ok := pub.(*kafka.Publisher); ok {
			_ = c.Close()
		}
	}()

	// Catalog
	catalogSvc := catalogapp.NewService(catalogpg.NewProductRepo(db))

	// Coupons, mirrored to Stripe
	sc := paymentstripe.NewClient(cfg.Stripe.SecretKey)
	var syncers []couponapp.Syncer
	if cfg.Stripe.SecretKey != "" {
		syncers = append(syncers, paymentstripe.NewCouponSyncer(sc, cfg.Stripe.Currency, log))
	} else {
		log.Warn("STRIPE_SECRET_KEY not set, coupons are not mirrored")
	}
	couponSvc := couponapp.NewService(couponpg.NewCouponRepo(db), log, syncers...)

	// Cart
	cartSvc := cartapp.NewService(cartpg.NewCartRepo(db), catalogSvc, couponSvc, log)

	// Checkout and orders
	checkoutSvc := checkoutapp.NewService(checkoutpg.NewUnitOfWork(db), cartSvc, catalogSvc, pub, log)
	orderRepo := orderpg.NewOrderRepo(db)
	orderSvc := orderapp.NewService(orderRepo, pub, log)

	// Payments
	var filter paymentapp.EventFilter
	if cfg.Redis.Addr != "" {
		rdb := paymentredis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer rdb.Close()
		filter = paymentredis.NewEventFilter(rdb, cfg.Redis.EventTTL)
	} else {
		log.Info("REDIS_ADDR not set, webhook dedupe relies on the database only")
	}
	paymentSvc := paymentapp.NewService(
		orderRepo,
		paymentpg.NewUnitOfWork(db),
		paymentstripe.NewGateway(sc, cfg.Stripe.WebhookSecret, log),
		filter,
		pub,
		log,
		paymentapp.Options{
			Currency:   cfg.Stripe.Currency,
			SuccessURL: cfg.Stripe.SuccessURL,
			CancelURL:  cfg.Stripe.CancelURL,
		},
	)

	router := httpapi.NewRouter(httpapi.Deps{
		Cart:      cartSvc,
		Checkout:  checkoutSvc,
		Orders:    orderSvc,
		Payments:  paymentSvc,
		Coupons:   couponSvc,
		Ready:     db.PingContext,
		JWTSecret: cfg.JWTSecret,
		Log:       log,
	})

	httpAddr := fmt.Sprintf(":%d", cfg.HTTPPort)
	server := &http.Server{
		Addr:              httpAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	grpcAddr := fmt.Sprintf(":%d", cfg.GRPCPort)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		log.Error("listen failed", slog.Any("err", err), slog.String("addr", grpcAddr))
		os.Exit(1)
	}

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server starting", slog.String("addr", httpAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		log.Info("grpc health starting", slog.String("addr", grpcAddr))
		if err := grpcServer.Serve(lis); err != nil {
			return fmt.Errorf("grpc serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown requested")
		healthSrv.Shutdown()

		stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer stopCancel()

		if err := server.Shutdown(stopCtx); err != nil {
			log.Error("http shutdown error", slog.Any("err", err))
		}

		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()

		select {
		case <-stopCtx.Done():
			log.Warn("graceful stop timeout, forcing stop")
			grpcServer.Stop()
		case <-stopped:
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", slog.Any("err", err))
	}
	log.Info("bye")
}

func mustDB(cfg config.Config, log *slog.Logger) *sql.DB {
	db, err := postgres.Open(postgres.Config{
		URL:     cfg.Postgres.URL,
		Host:    cfg.Postgres.Host,
		Port:    cfg.Postgres.Port,
		User:    cfg.Postgres.User,
		Pass:    cfg.Postgres.Pass,
		DB:      cfg.Postgres.DB,
		SSLMode: cfg.Postgres.SSL,
	})
	if err != nil {
		log.Error("db open failed", slog.Any("err", err))
		os.Exit(1)
	}
	return db
}

func mustPublisher(cfg config.Config, log *slog.Logger) events.Publisher {
	if len(cfg.Kafka.Brokers) == 0 {
		log.Info("KAFKA_BROKERS not set, order events are not published")
		return events.Nop{}
	}
	pub, err := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.ClientID, log)
	if err != nil {
		log.Error("kafka open failed", slog.Any("err", err))
		os.Exit(1)
	}
	return pub
}
