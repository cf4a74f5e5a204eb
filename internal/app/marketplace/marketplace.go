package marketplace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/collab-deals/internal/cache"
	"github.com/magabrotheeeer/collab-deals/internal/config"
	"github.com/magabrotheeeer/collab-deals/internal/http/handlers/health"
	"github.com/magabrotheeeer/collab-deals/internal/http/middlewarectx"
	"github.com/magabrotheeeer/collab-deals/internal/lib/jwt"
	"github.com/magabrotheeeer/collab-deals/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/collab-deals/internal/lib/sl"
	"github.com/magabrotheeeer/collab-deals/internal/metrics"
	"github.com/magabrotheeeer/collab-deals/internal/migrations"
	"github.com/magabrotheeeer/collab-deals/internal/paymentprovider"
	authservice "github.com/magabrotheeeer/collab-deals/internal/services/auth"
	marketplaceservice "github.com/magabrotheeeer/collab-deals/internal/services/marketplace"
	paymentservice "github.com/magabrotheeeer/collab-deals/internal/services/payment"
	"github.com/magabrotheeeer/collab-deals/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.marketplace.New"

	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.Redis)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := rabbitmq.SetupChannel(conn, cfg.RabbitMQ.Exchange, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	publisher := rabbitmq.NewPublisher(ch, cfg.RabbitMQ.Exchange)

	m := metrics.New(prometheus.DefaultRegisterer)
	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	authService := authservice.New(logger, db, jwtMaker)
	marketplaceService := marketplaceservice.New(logger, db, cacheRedis, publisher, m, cfg.Redis.CacheTTL)
	paymentService := paymentservice.New(
		logger,
		db,
		paymentprovider.NewClient(cfg.Stripe),
		cacheRedis,
		publisher,
		m,
		cfg.Stripe,
	)

	router := chi.NewRouter()
	RegisterRoutes(router, Deps{
		Log:         logger,
		Auth:        authService,
		Marketplace: marketplaceService,
		Payment:     paymentService,
		Metrics:     m,
		Gatherer:    prometheus.DefaultGatherer,
		Limiter:     middlewarectx.NewClientLimiter(cfg.RateLimit),
		CORS:        cfg.CORS,
		Checkers: map[string]health.Checker{
			"postgres": db,
			"redis":    cacheRedis,
		},
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
		conn:   conn,
		ch:     ch,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Warn("failed to close rabbitmq channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Warn("failed to close rabbitmq connection", sl.Err(err))
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Warn("failed to close redis", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", sl.Err(err))
	}
}
