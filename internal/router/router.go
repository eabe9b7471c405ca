package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/jazetjaz01/streamdi/internal/handler"
	"github.com/jazetjaz01/streamdi/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Profile *handler.ProfileHandler
	Channel *handler.ChannelHandler
	Video   *handler.VideoHandler
	Report  *handler.ReportHandler
	Health  *handler.HealthHandler
}

// Config carries the middleware knobs the router needs.
type Config struct {
	CORSOrigins string
	JWTSecret   string
	AdminKey    string
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, cfg Config) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(middleware.NewRequestLogger())
	app.Use(middleware.NewCORS(cfg.CORSOrigins))
	app.Use(handler.MetricsMiddleware())

	auth := middleware.NewAuth(cfg.JWTSecret)
	admin := middleware.NewAdminKey(cfg.AdminKey)

	viewLimit := middleware.NewViewRateLimiter().Handler()
	toggleLimit := middleware.NewToggleRateLimiter().Handler()
	reportLimit := middleware.NewReportRateLimiter().Handler()
	uploadLimit := middleware.NewUploadRateLimiter().Handler()

	// Health and metrics (no auth)
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", handler.MetricsHandler())

	// API routes
	api := app.Group("/api")

	// Profile routes
	api.Post("/profiles", h.Profile.Resolve, auth)
	api.Get("/profiles/me", h.Profile.Me, auth)

	// Channel routes
	api.Post("/channels", h.Channel.Create, auth, uploadLimit)
	api.Get("/channels", h.Channel.ListMine, auth)
	api.Get("/channels/:handle", h.Channel.Get)
	api.Get("/channels/:channelId/videos", h.Video.ListForChannel)
	api.Post("/channels/:channelId/subscribe", h.Channel.Subscribe, auth, toggleLimit)
	api.Delete("/channels/:channelId/subscribe", h.Channel.Unsubscribe, auth, toggleLimit)
	api.Get("/channels/:channelId/subscription", h.Channel.SubscriptionStatus, auth)

	// Video routes
	api.Get("/videos", h.Video.Feed)
	api.Post("/videos", h.Video.Upload, auth, uploadLimit)
	api.Get("/videos/:videoId", h.Video.Watch)
	api.Post("/videos/:videoId/view", h.Video.View, viewLimit)
	api.Post("/videos/:videoId/like", h.Video.Like, auth, toggleLimit)
	api.Delete("/videos/:videoId/like", h.Video.Unlike, auth, toggleLimit)
	api.Get("/videos/:videoId/like", h.Video.LikeStatus, auth)

	// Moderation routes
	api.Post("/reports", h.Report.Submit, auth, reportLimit)
	api.Get("/reports/pending", h.Report.Pending, admin)
	api.Post("/reports/:reportId/resolve", h.Report.Resolve, admin)
}
