package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/georgemunganga/tindahan-pos/internal/modules/auth"
	"github.com/georgemunganga/tindahan-pos/internal/modules/cart"
	"github.com/georgemunganga/tindahan-pos/internal/modules/catalog"
	"github.com/georgemunganga/tindahan-pos/internal/modules/checkout"
	"github.com/georgemunganga/tindahan-pos/internal/modules/report"
	"github.com/georgemunganga/tindahan-pos/internal/modules/sale"
	"github.com/georgemunganga/tindahan-pos/internal/modules/user"
	"github.com/georgemunganga/tindahan-pos/internal/platform/cache"
	"github.com/georgemunganga/tindahan-pos/internal/platform/config"
	"github.com/georgemunganga/tindahan-pos/internal/platform/database"
	"github.com/georgemunganga/tindahan-pos/internal/platform/logging"
	"github.com/georgemunganga/tindahan-pos/internal/platform/memstore"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Error("api stopped", zap.Error(err))
	}
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// run serves until ctx is cancelled or the server fails. Every resource it opens is
// closed before it returns.
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	// ── Storage ─────────────────────────────────────────────
	var (
		userRepo    user.Repository
		productRepo catalog.Repository
		saleRepo    sale.Repository
		store       checkout.Store
	)
	switch cfg.Backend {
	case config.BackendMemory:
		mem := memstore.New()
		userRepo = user.NewMemoryRepository()
		productRepo = mem.Products()
		saleRepo = mem.Sales()
		store = mem
		logger.Warn("using in-memory store; data is lost on restart")
	default:
		db, err := database.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer db.Close()
		if err := database.Migrate(ctx, db, logger); err != nil {
			return fmt.Errorf("migrations failed: %w", err)
		}
		logger.Info("connected to postgres")
		userRepo = user.NewPostgresRepository(db)
		productRepo = catalog.NewPostgresRepository(db)
		saleRepo = sale.NewPostgresRepository(db)
		store = checkout.NewPostgresStore(db)
	}

	// Redis is optional: product lookups are cached and cart drafts survive restarts.
	var drafts cart.DraftStore = cart.NewMemoryDraftStore()
	var invalidator checkout.Invalidator
	if cfg.RedisURL != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		defer rdb.Close()
		cached := catalog.NewCachedRepository(productRepo, rdb, cfg.CatalogCacheTTL, logger)
		productRepo = cached
		invalidator = cached
		drafts = cart.NewRedisDraftStore(rdb, cfg.CartDraftTTL)
		logger.Info("connected to redis", zap.String("addr", cfg.RedisURL))
	}

	// ── Services ────────────────────────────────────────────
	userService := user.NewService(userRepo)
	authService := auth.NewService(userRepo, cfg.JWTSecret, cfg.TokenTTL)
	catalogService := catalog.NewService(productRepo)
	saleService := sale.NewService(saleRepo)
	cartService := cart.NewService(catalogService, drafts, logger)
	committer := checkout.NewCommitter(store, cfg.CommitTimeout, logger)
	if invalidator != nil {
		committer.WithInvalidator(invalidator)
	}
	reportService := report.NewService(saleService, catalogService, cfg.ReportLocation, cfg.LowStockThreshold)

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(logging.RequestLogger(logger))
	router.Use(middleware.Recoverer)

	authed := auth.Middleware(authService)
	user.NewHandler(userService).RegisterRoutes(router, authed)
	auth.NewHandler(authService).RegisterRoutes(router)

	router.Group(func(r chi.Router) {
		r.Use(authed)
		catalog.NewHandler(catalogService, cfg.LowStockThreshold).RegisterRoutes(r)
		cart.NewHandler(cartService).RegisterRoutes(r)
		checkout.NewHandler(cartService, committer).RegisterRoutes(r)
		sale.NewHandler(saleService).RegisterRoutes(r)
		report.NewHandler(reportService).RegisterRoutes(r)
	})

	// ── Start Server ─────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("tindahan POS API starting", zap.String("port", cfg.Port), zap.String("backend", string(cfg.Backend)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
