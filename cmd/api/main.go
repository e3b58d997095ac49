package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	gstorage "cloud.google.com/go/storage"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/lantern-eats/api/internal/domain"
	"github.com/lantern-eats/api/internal/handlers"
	"github.com/lantern-eats/api/internal/platform/auth"
	"github.com/lantern-eats/api/internal/platform/config"
	pfirestore "github.com/lantern-eats/api/internal/platform/firestore"
	"github.com/lantern-eats/api/internal/platform/jobs"
	"github.com/lantern-eats/api/internal/platform/observability"
	pstorage "github.com/lantern-eats/api/internal/platform/storage"
	frepositories "github.com/lantern-eats/api/internal/repositories/firestore"
	"github.com/lantern-eats/api/internal/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := observability.NewLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider := pfirestore.NewProvider(pfirestore.Settings{
		ProjectID:  cfg.Firestore.ProjectID,
		DatabaseID: cfg.Firestore.DatabaseID,
	})
	defer func() {
		if err := provider.Close(); err != nil {
			logger.Warn("firestore close failed", zap.Error(err))
		}
	}()

	users, err := frepositories.NewUserRepository(provider)
	if err != nil {
		return err
	}
	categories, err := frepositories.NewCategoryRepository(provider)
	if err != nil {
		return err
	}
	dishes, err := frepositories.NewDishRepository(provider)
	if err != nil {
		return err
	}
	orders, err := frepositories.NewOrderRepository(provider)
	if err != nil {
		return err
	}

	tokenManager, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer,
		auth.WithTokenTTL(cfg.Auth.TokenTTL))
	if err != nil {
		return err
	}

	newID := func() string { return ulid.Make().String() }

	var publisher services.OrderEventPublisher
	var pubsubClient *pubsub.Client
	if cfg.PubSub.Enabled {
		pubsubClient, err = pubsub.NewClient(ctx, cfg.Firestore.ProjectID)
		if err != nil {
			return fmt.Errorf("pubsub client: %w", err)
		}
		defer func() { _ = pubsubClient.Close() }()

		publisher, err = jobs.NewPubSubOrderEventPublisher(pubsubClient.Topic(cfg.PubSub.Topic))
		if err != nil {
			return err
		}
		logger.Info("order event publishing enabled", zap.String("topic", cfg.PubSub.Topic))
	}

	authService, err := services.NewAuthService(services.AuthServiceDeps{
		Users:       users,
		Tokens:      tokenManager,
		IDGenerator: newID,
	})
	if err != nil {
		return err
	}

	menuCache := services.NewMenuCache(services.WithMenuTTL(cfg.Cache.MenuTTL))
	catalogService, err := services.NewCatalogService(services.CatalogServiceDeps{
		Categories:  categories,
		Dishes:      dishes,
		Cache:       menuCache,
		IDGenerator: newID,
	})
	if err != nil {
		return err
	}

	orderService, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:      orders,
		Dishes:      dishes,
		Users:       users,
		Publisher:   publisher,
		IDGenerator: newID,
		Logger:      observability.FieldLogger(logger),
	})
	if err != nil {
		return err
	}

	dashboardService, err := services.NewDashboardService(services.DashboardServiceDeps{
		Orders: orders,
		Dishes: dishes,
		Users:  users,
	})
	if err != nil {
		return err
	}

	requireAuth := auth.RequireAuth(tokenManager)
	requireCustomer := auth.RequireRoles(domain.RoleCustomer)
	requireStaff := auth.RequireRoles(domain.RoleMerchant, domain.RoleAdmin)
	requireAdmin := auth.RequireRoles(domain.RoleAdmin)

	health := handlers.NewHealthHandlers()
	health.AddCheck("firestore", func(ctx context.Context) error {
		_, err := provider.Client(ctx)
		return err
	})

	routerOpts := []handlers.Option{
		handlers.WithMiddlewares(
			observability.InjectLoggerMiddleware(logger),
			observability.RequestLoggerMiddleware(),
			observability.RecoveryMiddleware(logger),
		),
		handlers.WithHealthHandlers(health),
		handlers.WithAuthRoutes(handlers.NewAuthHandlers(authService, requireAuth).Routes),
		handlers.WithCategoryRoutes(handlers.NewCategoryHandlers(catalogService, requireAuth, requireAdmin).Routes),
		handlers.WithDishRoutes(handlers.NewDishHandlers(catalogService, requireAuth, requireStaff).Routes),
		handlers.WithOrderRoutes(handlers.NewOrderHandlers(orderService, requireAuth, requireCustomer, requireStaff).Routes),
		handlers.WithDashboardRoutes(handlers.NewDashboardHandlers(dashboardService, requireAuth, requireStaff).Routes),
	}

	if cfg.Storage.Bucket != "" {
		storageClient, err := gstorage.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("storage client: %w", err)
		}
		defer func() { _ = storageClient.Close() }()

		uploaderOpts := []pstorage.UploaderOption{
			pstorage.WithAllowedContentTypes("image/*"),
		}
		if cfg.Storage.PublicHost != "" {
			uploaderOpts = append(uploaderOpts, pstorage.WithPublicHost(cfg.Storage.PublicHost))
		}
		uploader, err := pstorage.NewUploader(storageClient, cfg.Storage.Bucket, cfg.Storage.UploadPrefix, uploaderOpts...)
		if err != nil {
			return err
		}
		routerOpts = append(routerOpts,
			handlers.WithUploadRoutes(handlers.NewUploadHandlers(uploader, newID, requireAuth, requireStaff).Routes))
		logger.Info("image uploads enabled", zap.String("bucket", cfg.Storage.Bucket))
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handlers.NewRouter(routerOpts...),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg))
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func shutdownTimeout(cfg *config.Config) time.Duration {
	if cfg.Server.ShutdownTimeout > 0 {
		return cfg.Server.ShutdownTimeout
	}
	return 15 * time.Second
}
