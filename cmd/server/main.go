package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/consultancy-portal-api/internal/api"
	"github.com/consultancy-portal-api/internal/auth"
	"github.com/consultancy-portal-api/internal/config"
	"github.com/consultancy-portal-api/internal/database"
	"github.com/consultancy-portal-api/internal/ratelimit"
	"github.com/consultancy-portal-api/internal/repository"
	"github.com/consultancy-portal-api/internal/service"
	"github.com/consultancy-portal-api/internal/storage"
	"github.com/consultancy-portal-api/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("info", "json")
		boot.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info().Msg("Starting Consultancy Portal API server...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Run migrations
	if err := db.RunMigrations(cfg.Server.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize document storage
	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("Failed to initialize storage")
	}
	log.Info().Str("driver", cfg.Storage.Driver).Str("bucket", cfg.Storage.Bucket).Msg("Storage ready")

	// Initialize attempt limiters
	limiters, shutdownLimiters := newLimiters(ctx, cfg, log)
	defer shutdownLimiters()

	deps := service.Deps{
		Storage:    store,
		Tokens:     auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		AdminGate:  limiters[service.GateAdmin],
		ReviewGate: limiters[service.GateKYC],
		Intake:     limiters[intakeNamespace],
	}

	// Initialize repositories and services
	repos := repository.New(db)
	services := service.NewServices(repos, deps, cfg, log)

	// Initialize router
	router := api.NewRouter(services, cfg, db, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return
	}

	log.Info().Msg("Server exited gracefully")
}

const intakeNamespace service.Gate = "intake"

// newLimiters builds one limiter per namespace on the configured back end.
// The returned func releases whatever the back end holds.
func newLimiters(ctx context.Context, cfg *config.Config, log zerolog.Logger) (map[service.Gate]ratelimit.Limiter, func()) {
	policies := map[service.Gate]config.Policy{
		service.GateAdmin: cfg.RateLimit.Gate,
		service.GateKYC:   cfg.RateLimit.Gate,
		intakeNamespace:   cfg.RateLimit.Intake,
	}
	limiters := make(map[service.Gate]ratelimit.Limiter, len(policies))

	if cfg.RateLimit.Backend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to redis")
		}
		for name, policy := range policies {
			limiters[name] = ratelimit.NewRedisLimiter(client, string(name), policy, log)
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Rate limiting backed by redis")
		return limiters, func() {
			if err := client.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close redis client")
			}
		}
	}

	var memory []*ratelimit.MemoryLimiter
	for name, policy := range policies {
		l := ratelimit.NewMemoryLimiter(string(name), policy, log)
		l.StartSweeper(ctx, cfg.RateLimit.SweepInterval)
		memory = append(memory, l)
		limiters[name] = l
	}
	log.Info().Dur("sweep_interval", cfg.RateLimit.SweepInterval).Msg("Rate limiting held in memory")
	return limiters, func() {
		for _, l := range memory {
			l.Stop()
		}
	}
}
