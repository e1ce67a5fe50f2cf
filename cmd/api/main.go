package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Efi-kline/my-phone-shop/api/routes"
	"github.com/Efi-kline/my-phone-shop/internal/auth"
	"github.com/Efi-kline/my-phone-shop/internal/cart"
	"github.com/Efi-kline/my-phone-shop/internal/catalog"
	"github.com/Efi-kline/my-phone-shop/internal/checkout"
	"github.com/Efi-kline/my-phone-shop/internal/coupons"
	"github.com/Efi-kline/my-phone-shop/internal/media"
	"github.com/Efi-kline/my-phone-shop/internal/orders"
	"github.com/Efi-kline/my-phone-shop/internal/payments"
	"github.com/Efi-kline/my-phone-shop/internal/profiles"
	"github.com/Efi-kline/my-phone-shop/pkg/auth/session"
	"github.com/Efi-kline/my-phone-shop/pkg/config"
	"github.com/Efi-kline/my-phone-shop/pkg/db"
	"github.com/Efi-kline/my-phone-shop/pkg/logger"
	"github.com/Efi-kline/my-phone-shop/pkg/metrics"
	"github.com/Efi-kline/my-phone-shop/pkg/migrate"
	"github.com/Efi-kline/my-phone-shop/pkg/redis"
	"github.com/Efi-kline/my-phone-shop/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	paymentMetrics := metrics.NewPaymentMetrics(registry)

	profileRepo := profiles.NewRepository(dbClient.DB())
	catalogRepo := catalog.NewRepository(dbClient.DB())
	couponRepo := coupons.NewRepository(dbClient.DB())
	cartRepo := cart.NewRepository(dbClient.DB())
	orderRepo := orders.NewRepository(dbClient.DB())

	profileService, err := profiles.NewService(profileRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create profile service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalogRepo, profileService)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	couponService, err := coupons.NewService(couponRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create coupon service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cartRepo, catalogRepo, couponService, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	paymentService, err := payments.NewService(cfg.Payments, paymentMetrics, nil)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(cartRepo, couponService, paymentService, orderRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orderRepo, profileService)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(profileRepo, cartRepo, sessionManager, dbClient, cfg.JWT, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	var oauthExchanger auth.OAuthExchanger
	if cfg.OAuth.TokenURL != "" {
		oauthExchanger, err = auth.NewOAuthExchanger(cfg.OAuth, nil)
		if err != nil {
			logg.Error(context.Background(), "failed to create oauth exchanger", err)
			os.Exit(1)
		}
	}

	var mediaService media.Service
	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Warn(logg.WithField(context.Background(), "error", err.Error()), "gcs unavailable, image uploads disabled")
	} else {
		defer func() {
			if err := gcsClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing gcs client", err)
			}
		}()
		mediaService, err = media.NewService(gcsClient, profileService, cfg.Media)
		if err != nil {
			logg.Error(context.Background(), "failed to create media service", err)
			os.Exit(1)
		}
	}

	router := routes.NewRouter(routes.Deps{
		Config:         cfg,
		Logger:         logg,
		DB:             dbClient,
		Redis:          redisClient,
		Sessions:       sessionManager,
		Metrics:        registry,
		AuthService:    authService,
		OAuthExchanger: oauthExchanger,
		ProfileService: profileService,
		CatalogService: catalogService,
		CartService:    cartService,
		CheckoutSvc:    checkoutService,
		OrderService:   orderService,
		MediaService:   mediaService,
		PaymentService: paymentService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
