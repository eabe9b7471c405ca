package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v3"

	"github.com/jazetjaz01/streamdi/internal/config"
	"github.com/jazetjaz01/streamdi/internal/db"
	"github.com/jazetjaz01/streamdi/internal/geo"
	"github.com/jazetjaz01/streamdi/internal/handler"
	"github.com/jazetjaz01/streamdi/internal/middleware"
	"github.com/jazetjaz01/streamdi/internal/repository"
	"github.com/jazetjaz01/streamdi/internal/router"
	"github.com/jazetjaz01/streamdi/internal/service"
	"github.com/jazetjaz01/streamdi/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	middleware.InitLogger(cfg.Server.LogLevel, "streamdi")

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DB.URL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	cache := service.NewCacheService(cfg.Redis.URL)
	defer cache.Close()

	media, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("failed to connect to object storage: %v", err)
	}

	geoClient := geo.NewClient(cfg.Geo)

	handler.InitMetrics(pool)

	// Repositories
	profileRepo := repository.NewProfileRepo(pool)
	channelRepo := repository.NewChannelRepo(pool)
	videoRepo := repository.NewVideoRepo(pool)
	likeRepo := repository.NewLikeRepo(pool)
	subRepo := repository.NewSubscriptionRepo(pool)
	reportRepo := repository.NewReportRepo(pool)

	// Services
	filter := service.NewWordFilter(cfg.Moderation.ExtraBannedWords)
	channelSvc := service.NewChannelService(channelRepo, profileRepo, media, filter, cache)
	profileSvc := service.NewProfileService(profileRepo, channelSvc, geoClient)
	videoSvc := service.NewVideoService(videoRepo, channelRepo, media, cache)
	engagementSvc := service.NewEngagementService(likeRepo, subRepo, videoRepo, channelRepo, cache, cache)
	reportSvc := service.NewReportService(reportRepo, videoRepo, cache, cfg.Moderation.ReportThreshold)

	app := fiber.New(fiber.Config{
		AppName:      "streamdi API",
		ServerHeader: "streamdi",
		BodyLimit:    cfg.Server.BodyLimit,
	})

	h := &router.Handlers{
		Profile: handler.NewProfileHandler(profileSvc),
		Channel: handler.NewChannelHandler(channelSvc, profileSvc, engagementSvc),
		Video:   handler.NewVideoHandler(videoSvc, profileSvc, engagementSvc),
		Report:  handler.NewReportHandler(reportSvc, profileSvc),
		Health:  handler.NewHealthHandler(pool, cache.Client()),
	}

	router.Setup(app, h, router.Config{
		CORSOrigins: cfg.Server.CORSOrigins,
		JWTSecret:   cfg.Auth.JWTSecret,
		AdminKey:    cfg.Auth.AdminKey,
	})

	log.Printf("streamdi backend starting on :%s (env=%s)", cfg.Server.Port, cfg.Server.Environment)
	log.Fatal(app.Listen(":" + cfg.Server.Port))
}
