package server

import (
	"errors"
	"log/slog"

	"github.com/klach-ocado/10x-aimondo/internal/auth"
	"github.com/klach-ocado/10x-aimondo/internal/config"
	"github.com/klach-ocado/10x-aimondo/internal/db"
	"github.com/klach-ocado/10x-aimondo/internal/heatmap"
	"github.com/klach-ocado/10x-aimondo/internal/stream"
	"github.com/klach-ocado/10x-aimondo/internal/workout"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
)

// multipartOverhead leaves room for form fields and boundaries around the file.
const multipartOverhead = 64 * 1024

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     db.Pool
	Redis  *redis.Client
	Stream *stream.Hub
	Logger *slog.Logger
}

// NewServer wires every route. db may be nil, in which case data routes
// answer 503 while /health keeps working.
func NewServer(cfg config.Config, pool db.Pool, redisClient *redis.Client, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	app := fiber.New(fiber.Config{
		BodyLimit:    cfg.MaxUploadBytes + multipartOverhead,
		ErrorHandler: errorHandler(log),
	})
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     pool,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient),
		Logger: log,
	}

	registerRoutes(s)
	return s
}

// Close releases the event subscription. The database and Redis clients are
// owned by the caller.
func (s *Server) Close() error {
	return s.Stream.Close()
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)
	withDB := func(c *fiber.Ctx) error {
		if s.DB == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "database unavailable")
		}
		return c.Next()
	}

	workouts := workout.NewService(workout.NewStore(s.DB),
		workout.WithLogger(s.Logger),
		workout.WithNotifier(s.Stream),
		workout.WithPageLimits(s.Cfg.DefaultPageSize, s.Cfg.MaxPageSize),
	)
	workout.RegisterRoutes(s.App.Group("/workouts", withDB), workouts, jwtMiddleware, int64(s.Cfg.MaxUploadBytes))

	heat := heatmap.NewService(heatmap.NewStore(s.DB), s.Cfg.HeatmapPointCap, s.Logger)
	heatmap.RegisterRoutes(s.App.Group("/heatmap", withDB), heat, jwtMiddleware)

	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream, jwtMiddleware)
}

func errorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		msg := "internal server error"
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			msg = fe.Message
		}
		if code >= fiber.StatusInternalServerError {
			log.Error("request failed",
				"error", err,
				"method", c.Method(),
				"path", c.Path(),
				"status", code,
			)
		}
		return c.Status(code).JSON(fiber.Map{"message": msg})
	}
}
