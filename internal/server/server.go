package server

import (
	"fmt"
	"log/slog"

	"github.com/imoto-rec-git/sns-like-app/internal/auth"
	"github.com/imoto-rec-git/sns-like-app/internal/config"
	"github.com/imoto-rec-git/sns-like-app/internal/db"
	"github.com/imoto-rec-git/sns-like-app/internal/logging"
	"github.com/imoto-rec-git/sns-like-app/internal/social"
	"github.com/imoto-rec-git/sns-like-app/internal/stream"
	"github.com/imoto-rec-git/sns-like-app/internal/users"
	"github.com/imoto-rec-git/sns-like-app/internal/webhook"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub
	Log    *slog.Logger
}

// NewServer wires every route. It fails when WEBHOOK_SECRET is set but
// unusable, so a misconfigured node never accepts unverified events.
func NewServer(cfg config.Config, pool *pgxpool.Pool, redisClient *redis.Client, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = logging.Discard()
	}
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     pool,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient, log),
		Log:    log,
	}

	if err := registerRoutes(s); err != nil {
		return nil, err
	}
	return s, nil
}

// querier never returns nil; without a pool every storage call fails with
// db.ErrUnavailable and surfaces as a 500.
func (s *Server) querier() db.Querier {
	if s.DB == nil {
		s.Log.Warn("no database pool, storage-backed routes will fail")
		return db.Unavailable()
	}
	return s.DB
}

func registerRoutes(s *Server) error {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)
	q := s.querier()

	if s.Cfg.WebhookSecret != "" {
		verifier, err := webhook.NewVerifier(s.Cfg.WebhookSecret, s.Cfg.WebhookTolerance)
		if err != nil {
			return fmt.Errorf("webhook verifier: %w", err)
		}
		users.RegisterWebhookRoutes(s.App.Group("/webhooks"), verifier, users.NewService(q, s.Log), s.Log)
	} else {
		s.Log.Warn("WEBHOOK_SECRET is not set, identity webhook route disabled")
	}

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret))
	social.RegisterRoutes(s.App.Group("/social"), social.NewService(q, s.Stream, s.Log), jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
	return nil
}
