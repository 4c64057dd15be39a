package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/storefront-api/internal/domain/order"
	"github.com/xenking/storefront-api/internal/domain/product"
	"github.com/xenking/storefront-api/internal/handler"
	"github.com/xenking/storefront-api/internal/storage/mongodb"
	"github.com/xenking/storefront-api/pkg/health"
	"github.com/xenking/storefront-api/pkg/httpmiddleware"
)

// ServiceName identifies the API in telemetry resources and HTTP spans.
const ServiceName = "storefront-api"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("database", cfg.Mongo.Database),
	)

	// MongoDB client + indexes.
	client, err := mongodb.Connect(ctx, mongodb.Config{
		URI:            cfg.Mongo.URI,
		ConnectTimeout: cfg.Mongo.ConnectTimeout,
		QueryTimeout:   cfg.Mongo.QueryTimeout,
	})
	if err != nil {
		return errors.Wrap(err, "connect mongo")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			lg.Error("Mongo disconnect error", zap.Error(err))
		}
	}()

	db := client.Database(cfg.Mongo.Database)
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "ensure indexes")
	}

	h, err := newHandler(db, cfg, m.MeterProvider())
	if err != nil {
		return err
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.Ready(health.Check{Name: "mongo", Timeout: 5 * time.Second, Func: health.MongoPing(client)})
	healthSvc.Live(health.Check{Name: "goroutines", Timeout: time.Second, Func: health.Goroutines(10000)})
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	r := newRouter(ctx, zctx.From(ctx), m, cfg, healthSvc, h)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           r,
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// telemetry is the subset of app.Telemetry used by the router.
type telemetry interface {
	TracerProvider() trace.TracerProvider
	MeterProvider() metric.MeterProvider
}

// newHandler builds repositories and domain services over db.
func newHandler(db *mongo.Database, cfg *Config, mp metric.MeterProvider) (*handler.Handler, error) {
	productRepo := mongodb.NewProductRepository(db)
	orderRepo := mongodb.NewOrderRepository(db)

	orderService, err := order.NewService(productRepo, orderRepo, order.Options{
		LookupConcurrency: cfg.Orders.LookupConcurrency,
		MeterProvider:     mp,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create order service")
	}

	return handler.NewHandler(
		orderService,
		order.NewLister(orderRepo),
		product.NewService(productRepo),
	), nil
}

// newRouter mounts health endpoints and API routes behind the middleware chain.
// Request id and logger wrap the router itself.
func newRouter(ctx context.Context, lg *zap.Logger, m telemetry, cfg *Config, hs *health.Health, h *handler.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(
		httpmiddleware.Recovery(),
		httpmiddleware.Instrument(ServiceName, m.TracerProvider(), m.MeterProvider()),
		httpmiddleware.LogRequests(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", httpmiddleware.HeaderRequestID},
			ExposeHeaders:    []string{httpmiddleware.HeaderRequestID},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
		}),
	)
	r.Get("/livez", hs.Livez)
	r.Get("/readyz", hs.Readyz)
	h.Register(r)

	return httpmiddleware.Wrap(r,
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(lg),
	)
}
