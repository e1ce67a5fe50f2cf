package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Efi-kline/my-phone-shop/api/controllers"
	"github.com/Efi-kline/my-phone-shop/api/middleware"
	authsvc "github.com/Efi-kline/my-phone-shop/internal/auth"
	cartsvc "github.com/Efi-kline/my-phone-shop/internal/cart"
	"github.com/Efi-kline/my-phone-shop/internal/catalog"
	checkoutsvc "github.com/Efi-kline/my-phone-shop/internal/checkout"
	mediasvc "github.com/Efi-kline/my-phone-shop/internal/media"
	ordersvc "github.com/Efi-kline/my-phone-shop/internal/orders"
	paymentsvc "github.com/Efi-kline/my-phone-shop/internal/payments"
	profilesvc "github.com/Efi-kline/my-phone-shop/internal/profiles"
	"github.com/Efi-kline/my-phone-shop/pkg/auth/session"
	"github.com/Efi-kline/my-phone-shop/pkg/config"
	"github.com/Efi-kline/my-phone-shop/pkg/logger"
	pkgredis "github.com/Efi-kline/my-phone-shop/pkg/redis"
)

// Pinger is satisfied by the database and cache clients probed at /health/ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RedisStore is the slice of the Redis client the router hands to middleware.
type RedisStore interface {
	Pinger
	pkgredis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             Pinger
	Redis          RedisStore
	Sessions       session.AccessSessionChecker
	Metrics        *prometheus.Registry
	AuthService    authsvc.Service
	OAuthExchanger authsvc.OAuthExchanger
	ProfileService profilesvc.Service
	CatalogService catalog.Service
	CartService    cartsvc.Service
	CheckoutSvc    checkoutsvc.Service
	OrderService   ordersvc.Service
	MediaService   mediasvc.Service
	PaymentService paymentsvc.Service
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, d.DB, d.Redis, logg))
	})

	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/products", controllers.ListProducts(d.CatalogService, logg))
		r.Get("/products/{productID}", controllers.GetProduct(d.CatalogService, logg))
		r.Post("/payments/mock", controllers.MockCharge(d.PaymentService, logg))

		r.Route("/auth", func(r chi.Router) {
			r.With(
				middleware.AuthRateLimit(registerPolicy, d.Redis, logg),
				middleware.Idempotency(d.Redis, logg),
			).Post("/register", controllers.Register(d.AuthService, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, d.Redis, logg)).Post("/login", controllers.Login(d.AuthService, logg))
			r.Post("/refresh", controllers.Refresh(d.AuthService, logg))
			r.Get("/oauth/callback", controllers.OAuthCallback(d.AuthService, d.OAuthExchanger, logg))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))

		r.Post("/auth/logout", controllers.Logout(d.AuthService, cfg.JWT, logg))

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", controllers.GetMyProfile(d.ProfileService, logg))
			r.Patch("/", controllers.UpdateMyProfile(d.ProfileService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(d.CartService, logg))
			r.Delete("/", controllers.ClearCart(d.CartService, logg))
			r.Post("/items", controllers.AddCartItem(d.CartService, logg))
			r.Patch("/items/{productID}", controllers.UpdateCartItem(d.CartService, logg))
			r.Delete("/items/{productID}", controllers.RemoveCartItem(d.CartService, logg))
			r.Post("/coupon", controllers.ApplyCoupon(d.CartService, logg))
			r.Delete("/coupon", controllers.RemoveCoupon(d.CartService, logg))
		})

		r.With(middleware.Idempotency(d.Redis, logg)).Post("/checkout", controllers.Checkout(d.CheckoutSvc, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListMyOrders(d.OrderService, logg))
			r.Get("/{orderID}", controllers.GetMyOrder(d.OrderService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))
		r.Use(middleware.RequireRole("admin", logg))

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.AdminCreateProduct(d.CatalogService, logg))
			r.Patch("/{productID}", controllers.AdminUpdateProduct(d.CatalogService, logg))
			r.Delete("/{productID}", controllers.AdminDeleteProduct(d.CatalogService, logg))
		})

		r.With(middleware.Idempotency(d.Redis, logg)).
			Patch("/orders/{orderID}/status", controllers.AdminUpdateOrderStatus(d.OrderService, logg))
		r.With(middleware.Idempotency(d.Redis, logg)).
			Post("/media/images", controllers.AdminUploadProductImage(d.MediaService, logg))
	})

	return r
}
