// @title Flood Risk API
// @version 1.0.0
// @description Current weather and flood-risk estimates for a city or map point.
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @host localhost:8080
// @BasePath /
// @schemes http https
package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/i474232898/flood-risk/docs"
	httpapi "github.com/i474232898/flood-risk/internal/api/http"
	"github.com/i474232898/flood-risk/internal/assess"
	"github.com/i474232898/flood-risk/internal/config"
	"github.com/i474232898/flood-risk/internal/geocode"
	"github.com/i474232898/flood-risk/internal/observability"
	"github.com/i474232898/flood-risk/internal/risk"
	"github.com/i474232898/flood-risk/internal/scheduler"
	"github.com/i474232898/flood-risk/internal/store"
	"github.com/i474232898/flood-risk/internal/upstream"
	"github.com/i474232898/flood-risk/internal/weather/providers"
	"github.com/i474232898/flood-risk/pkg/logger"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	l := logger.NewZapLogger(cfg.App.Name, cfg.App.Env, cfg.Log.Level)
	defer func() { _ = l.Stop() }()

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	// One breaker per upstream so a failing geocoder does not block weather.
	weatherClient := upstream.New("weather", &http.Client{Timeout: cfg.Weather.Timeout}, metrics, l)
	geocoderClient := upstream.New("geocoder", &http.Client{Timeout: cfg.Geocoder.Timeout}, metrics, l)

	provider := providers.NewVisualCrossingProvider(weatherClient, cfg.Weather.BaseURL, cfg.Weather.APIKey, l)

	var reverse geocode.ReverseGeocoder
	switch cfg.Geocoder.Provider {
	case config.GeocoderGoogle:
		reverse = geocode.NewGoogle(cfg.Geocoder.GoogleAPIKey, cfg.Geocoder.Timeout, l)
	default:
		reverse = geocode.NewNominatim(geocoderClient, cfg.Geocoder.BaseURL, cfg.Geocoder.UserAgent, l)
	}

	opts := risk.ScorerOptions{
		Mode: cfg.ScorerMode,
		Placeholders: risk.Placeholders{
			Elevation:    cfg.Model.Elevation,
			SoilMoisture: cfg.Model.SoilMoisture,
		},
		Recorder: metrics,
		Logger:   l,
	}
	if cfg.UsesModel() {
		opts.ModelEndpoint = cfg.Model.Endpoint
		opts.ConfidenceScale = risk.ConfidenceScale(cfg.Model.ConfidenceScale)
		opts.ModelClient = upstream.New("model", &http.Client{Timeout: cfg.Model.Timeout}, metrics, l)
	}
	scorer, err := risk.NewScorer(opts)
	if err != nil {
		l.Fatal("failed to build scorer", map[string]any{"err": err})
	}

	sessions := store.NewSessionStore(nil)
	service := assess.NewService(sessions, reverse, provider, scorer, metrics, l)

	// Idle sessions are dropped in the background.
	sched := scheduler.New(sessions, cfg.Session.MaxIdle, cfg.Session.SweepInterval, metrics, l)
	if err := sched.Start(); err != nil {
		l.Fatal("failed to start scheduler", map[string]any{"err": err})
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": cfg.App.Name,
			"scorer":  cfg.ScorerMode,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/swagger/*", swagger.HandlerDefault)

	httpapi.RegisterRoutes(app, service)

	go func() {
		l.Info("server starting", map[string]any{
			"port":     cfg.App.Port,
			"scorer":   cfg.ScorerMode,
			"geocoder": cfg.Geocoder.Provider,
		})
		if err := app.Listen(":" + cfg.App.Port); err != nil {
			l.Error(err, map[string]any{"stage": "listen"})
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		l.Error(err, map[string]any{"stage": "shutdown"})
	}
}
