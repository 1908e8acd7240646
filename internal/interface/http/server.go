// Package http exposes the REST surface over Fiber, plus the websocket
// upgrade endpoint for the realtime channel.
package http

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/focusarena/focusarena/config"
	"github.com/focusarena/focusarena/internal/interface/http/handlers"
	"github.com/focusarena/focusarena/internal/interface/ws"
)

// Server wraps the Fiber app and its route wiring.
type Server struct {
	app    *fiber.App
	cfg    config.HTTPConfig
	logger *slog.Logger
}

// Handlers groups the route handlers the server mounts.
type Handlers struct {
	Auth         *handlers.AuthHandler
	Sessions     *handlers.SessionHandler
	Achievements *handlers.AchievementHandler
	Friends      *handlers.FriendHandler
	Leaderboards *handlers.LeaderboardHandler
	Users        *handlers.UserHandler
	Campuses     *handlers.CampusHandler
	Health       *handlers.HealthHandler
}

// NewServer builds the Fiber app with the standard middleware stack and
// mounts every route.
func NewServer(cfg config.HTTPConfig, jwtSecret string, h Handlers, hub *ws.Hub, log *slog.Logger) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "focusarena",
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		ErrorHandler: ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: cfg.RateLimitWindow,
	}))

	s := &Server{app: app, cfg: cfg, logger: log}
	s.mountRoutes(jwtSecret, h, hub)

	return s
}

func (s *Server) mountRoutes(jwtSecret string, h Handlers, hub *ws.Hub) {
	s.app.Get("/health", h.Health.Check)

	api := s.app.Group("/api")
	protected := Protected(jwtSecret)

	auth := api.Group("/auth")
	auth.Post("/register", h.Auth.Register)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/refresh", h.Auth.Refresh)
	auth.Post("/logout", h.Auth.Logout)
	auth.Post("/logout-all", protected, h.Auth.LogoutAll)
	auth.Get("/me", protected, h.Users.Me)

	sessions := api.Group("/sessions", protected)
	sessions.Post("/start", h.Sessions.Start)
	sessions.Put("/complete", h.Sessions.Complete)
	sessions.Get("/active", h.Sessions.Active)
	sessions.Get("/history", h.Sessions.History)
	sessions.Get("/analytics", h.Sessions.Analytics)

	achievements := api.Group("/achievements", protected)
	achievements.Get("/", h.Achievements.List)
	achievements.Post("/", h.Achievements.Create)
	achievements.Get("/me", h.Achievements.Mine)
	achievements.Post("/check/:userId", h.Achievements.Check)

	friends := api.Group("/friends", protected)
	friends.Get("/", h.Friends.List)
	friends.Get("/requests", h.Friends.Requests)
	friends.Post("/requests", h.Friends.SendRequest)
	friends.Post("/requests/:id/accept", h.Friends.Accept)
	friends.Post("/requests/:id/reject", h.Friends.Reject)
	friends.Post("/block/:userId", h.Friends.Block)
	friends.Delete("/:friendId", h.Friends.Remove)

	leaderboards := api.Group("/leaderboards", protected)
	leaderboards.Get("/me", h.Leaderboards.Standing)
	leaderboards.Get("/:scope", h.Leaderboards.Get)

	users := api.Group("/users", protected)
	users.Get("/me", h.Users.Me)
	users.Put("/me", h.Users.Update)
	users.Post("/me/university", h.Users.JoinUniversity)
	users.Get("/search", h.Users.Search)
	users.Get("/:id", h.Users.Get)

	universities := api.Group("/universities")
	universities.Get("/", h.Campuses.List)
	universities.Get("/:id", h.Campuses.Get)
	universities.Post("/", protected, h.Campuses.Create)
	universities.Post("/:id/campuses", protected, h.Campuses.CreateCampus)

	// Realtime channel. The token is verified inside the hub because
	// browsers cannot set Authorization headers on websocket upgrades.
	s.app.Use("/ws", hub.UpgradeRequired)
	s.app.Get("/ws", hub.Handler())
}

// Listen starts serving. Blocks until Shutdown.
func (s *Server) Listen() error {
	s.logger.Info("http server listening", slog.String("addr", s.cfg.Address()))
	return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
