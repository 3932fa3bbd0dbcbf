package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/pageza/mealplango/backend/config"
	"github.com/pageza/mealplango/backend/internal/api"
	"github.com/pageza/mealplango/backend/internal/database"
	"github.com/pageza/mealplango/backend/internal/entitlement"
	"github.com/pageza/mealplango/backend/internal/identity"
	"github.com/pageza/mealplango/backend/internal/logging"
	"github.com/pageza/mealplango/backend/internal/middleware"
	"github.com/pageza/mealplango/backend/internal/render"
	"github.com/pageza/mealplango/backend/internal/server"
	"github.com/pageza/mealplango/backend/internal/service"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Init(logging.Config{Format: "auto", Level: "info", Component: "api"})
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	logging.Init(logging.Config{Format: cfg.LogFormat, Level: cfg.LogLevel, Component: "api"})

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("Server exited")
	}
	log.Info().Msg("Server stopped")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.RunMigrations(db, cfg.MigrationsDir); err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.RedisEnabled() {
		redisClient, err = database.NewRedisClient(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, running without rate limiting or webhook dedupe")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	generator, err := service.NewLLMService(cfg)
	if err != nil {
		return err
	}

	var archive service.IPlanArchive
	if cfg.S3BucketName != "" {
		s3Config, err := config.NewS3Config(ctx, cfg)
		if err != nil {
			return err
		}
		archive = service.NewArchiveService(s3Config)
		log.Info().Str("bucket", cfg.S3BucketName).Msg("Plan archive enabled")
	}

	var tokens middleware.TokenValidator
	if cfg.JWTSecret != "" {
		tokens = service.NewAuthService(cfg.JWTSecret)
	} else {
		log.Warn().Msg("JWT_SECRET not set, trusting the request body for sign-in state")
	}

	var deduper service.IWebhookDeduper
	var limiter *middleware.RateLimiter
	if redisClient != nil {
		deduper = service.NewWebhookDedupeService(redisClient, "webhook:lemon")
		limiter = middleware.NewGenerationRateLimiter(redisClient, cfg.RateLimitPerHour)
	}

	profiles := service.NewProfileService(db)
	srv := server.New(cfg, api.Dependencies{
		DB: db,
		Plans: api.NewPlanHandler(api.PlanHandlerConfig{
			Trials:     service.NewTrialService(db),
			Profiles:   profiles,
			Generator:  generator,
			Renderer:   render.NewPDFRenderer(),
			Archive:    archive,
			Policy:     entitlement.Policy{MonthlyCap: cfg.MonthlyCap},
			LegacyAuth: tokens == nil,
		}),
		Webhooks:    api.NewWebhookHandler(profiles, cfg.WebhookSecret, deduper),
		RateLimiter: limiter,
		Auth:        tokens,
		Identity: identity.Options{
			Scope: identity.Scope(cfg.TrialScope),
			Salt:  cfg.IdentitySalt,
		},
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
