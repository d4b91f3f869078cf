package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	chathttp "github.com/koushikch7/chatGPT/internal/adapter/http"
	"github.com/koushikch7/chatGPT/internal/adapter/otel"
	"github.com/koushikch7/chatGPT/internal/adapter/postgres"
	"github.com/koushikch7/chatGPT/internal/adapter/provider"
	"github.com/koushikch7/chatGPT/internal/adapter/ristretto"
	"github.com/koushikch7/chatGPT/internal/adapter/ws"
	"github.com/koushikch7/chatGPT/internal/config"
	"github.com/koushikch7/chatGPT/internal/logger"
	"github.com/koushikch7/chatGPT/internal/middleware"
	"github.com/koushikch7/chatGPT/internal/secrets"
	"github.com/koushikch7/chatGPT/internal/service"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		if err := runAdmin(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := logger.New(cfg.Logging)
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"auth_enabled", cfg.Auth.Enabled,
		"pg_max_conns", cfg.Postgres.MaxConns,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Infrastructure ---

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	codec, err := loadCodec(cfg)
	if err != nil {
		return fmt.Errorf("secrets: %w", err)
	}

	credCache, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer credCache.Close()

	metrics, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	shutdownTracer := otel.InitTracer(cfg.Logging.Service)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(shutdownCtx)
	}()

	// --- Services ---

	store := postgres.NewStore(pool)
	hub := ws.NewHub()
	dispatcher := provider.NewDispatcher(provider.Options{
		MaxConcurrent:      cfg.Dispatch.MaxConcurrent,
		RequestTimeout:     cfg.Dispatch.RequestTimeout,
		BreakerMaxFailures: cfg.Breaker.MaxFailures,
		BreakerTimeout:     cfg.Breaker.Timeout,
	}, log)

	creds := service.NewCredentialResolver(store, codec, credCache, cfg.Cache.CredentialTTL, log)
	authSvc := service.NewAuthService(store, cfg.Auth)

	handlers := &chathttp.Handlers{
		Auth:          authSvc,
		Chat:          service.NewChatService(store, dispatcher, creds, hub, metrics, log),
		Conversations: service.NewConversationService(store, hub, log),
		Projects:      service.NewProjectService(store, log),
		Memories:      service.NewMemoryService(store, log),
		Users:         service.NewUserService(store, codec, creds, log),
		Hub:           hub,
		DB:            pool,
		Breakers:      dispatcher,
	}

	// --- HTTP ---

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(otel.HTTPMiddleware(cfg.Logging.Service))
	r.Use(chathttp.CORS(cfg.Server.CORSOrigin))
	r.Use(chathttp.Logger)
	r.Use(middleware.Auth(authSvc, cfg.Auth.Enabled))

	chathttp.MountRoutes(r, handlers)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      3 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// loadCodec builds the API key cipher from config, falling back to the
// ENCRYPTION_KEY environment variable.
func loadCodec(cfg *config.Config) (*secrets.Codec, error) {
	passphrase := cfg.Secrets.EncryptionKey
	if passphrase == "" {
		vault, err := secrets.NewVault(secrets.EnvLoader("ENCRYPTION_KEY"))
		if err != nil {
			return nil, err
		}
		passphrase = vault.Get("ENCRYPTION_KEY")
	}
	if passphrase == "" {
		return nil, errors.New("no encryption key configured (set secrets.encryption_key or ENCRYPTION_KEY)")
	}
	return secrets.NewCodec(passphrase)
}
