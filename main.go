package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/scam-spotter/api-go/config"
	"github.com/scam-spotter/api-go/controllers"
	"github.com/scam-spotter/api-go/geo"
	"github.com/scam-spotter/api-go/logger"
	"github.com/scam-spotter/api-go/mapview"
	"github.com/scam-spotter/api-go/metrics"
	"github.com/scam-spotter/api-go/models"
	"github.com/scam-spotter/api-go/realtime"
	"github.com/scam-spotter/api-go/repository"
	"github.com/scam-spotter/api-go/routes"
	"github.com/scam-spotter/api-go/storage"
	"github.com/scam-spotter/api-go/submission"
	"github.com/scam-spotter/api-go/summarizer"
)

const serviceName = "scam-spotter-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewLogger(serviceName, "info").WithError(err).Fatal("Failed to load configuration")
	}
	log := logger.NewLogger(serviceName, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := config.InitDB(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.WithError(err).Fatal("Failed to get database handle")
	}
	defer sqlDB.Close()

	var broker realtime.Broker
	if cfg.RedisURL != "" {
		broker, err = realtime.NewRedisBroker(cfg.RedisURL, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to Redis")
		}
	} else {
		log.Warn("REDIS_URL not set, realtime updates stay inside this process")
		broker = realtime.NewMemoryBroker()
	}
	defer broker.Close()

	if err := realtime.RegisterChangeFeed(db, broker, log, models.ReportsTable); err != nil {
		log.WithError(err).Fatal("Failed to register change feed")
	}

	var objects storage.ObjectStore
	if cfg.R2.Enabled() {
		objects = storage.NewR2Store(cfg.R2)
	} else {
		log.Warn("Cloudflare R2 not configured, image uploads are disabled")
	}

	var generator summarizer.Generator
	if cfg.Gemini.APIKey != "" {
		gemini, err := summarizer.NewGemini(ctx, cfg.Gemini.APIKey)
		if err != nil {
			log.WithError(err).Fatal("Failed to create Gemini client")
		}
		generator = gemini
	} else {
		log.Warn("GOOGLE_API_KEY not set, reports get the fallback summary")
	}

	reports := repository.NewReportRepository(db)
	flow := submission.NewFlow(reports, objects, summarizer.New(generator, cfg.Gemini.Model), log)
	mapOptions := mapview.Options{
		Default:     geo.Coordinate{Latitude: cfg.Map.DefaultLatitude, Longitude: cfg.Map.DefaultLongitude},
		DefaultZoom: cfg.Map.DefaultZoom,
		LocatedZoom: cfg.Map.LocatedZoom,
		DetailBase:  "/api/locations/reports",
	}

	m := metrics.NewMetrics(prometheus.DefaultRegisterer)
	go m.CollectDBStats(ctx, sqlDB, 15*time.Second)

	if os.Getenv(gin.EnvGinMode) == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), logger.RequestLogger(log), m.Middleware())
	r.GET("/metrics", metrics.Handler(prometheus.DefaultGatherer))

	routes.SetupRoutes(r, routes.Controllers{
		Auth:        controllers.NewAuthController(db, config.NewGoogleConfig(cfg.Google), cfg.JWT.Secret, log),
		Reports:     controllers.NewReportController(reports, flow, log),
		Locations:   controllers.NewLocationController(reports, log),
		Map:         controllers.NewMapController(reports, broker, mapOptions, log),
		Profile:     controllers.NewProfileController(reports, log),
		Leaderboard: controllers.NewLeaderboardController(reports, log),
		Health:      controllers.NewHealthController(sqlDB.PingContext),
	}, cfg.JWT.Secret)

	srv := newServer(":"+cfg.Port, r, broker)

	go func() {
		log.WithField("port", cfg.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}

// newServer builds the HTTP server. Shutdown closes the broker first so open map
// streams end instead of holding their connections until the deadline.
func newServer(addr string, handler http.Handler, broker realtime.Broker) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(func() {
		broker.Close()
	})
	return srv
}
