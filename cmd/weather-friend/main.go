package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/weather-friend/internal/api/http"
	"github.com/i474232898/weather-friend/internal/config"
	"github.com/i474232898/weather-friend/internal/discord"
	"github.com/i474232898/weather-friend/internal/dispatcher"
	"github.com/i474232898/weather-friend/internal/forecast"
	"github.com/i474232898/weather-friend/internal/logging"
	"github.com/i474232898/weather-friend/internal/scheduler"
	"github.com/i474232898/weather-friend/internal/store"
	"github.com/i474232898/weather-friend/internal/weather"
	"github.com/i474232898/weather-friend/internal/weather/providers"
)

const appName = "weather-friend"

var version = "dev"

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.New(cfg, version, appName)

	// Shared HTTP client for outbound weather calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// One provider per caller so breaker state never crosses paths.
	newProvider := func() *providers.OpenWeatherProvider {
		return providers.NewOpenWeatherProvider(cfg.OpenWeatherAPIKey,
			weather.Location{City: cfg.CityName, Latitude: cfg.Latitude, Longitude: cfg.Longitude},
			providers.WithHTTPClient(httpClient),
			providers.WithLogger(logger),
		)
	}

	composer := forecast.NewComposer(cfg.AnthropicAPIKey,
		forecast.WithModel(cfg.AnthropicModel),
		forecast.WithMaxTokens(cfg.AnthropicMaxTokens),
		forecast.WithLogger(logger),
	)

	runs := store.NewRunLog(cfg.RunHistory, cfg.RunMaxAge)

	pacific, err := scheduler.LoadPacific()
	if err != nil {
		log.Fatalf("failed to load time zone: %v", err)
	}

	bot, err := discord.New(cfg.DiscordToken, cfg.DiscordGuildID, logger)
	if err != nil {
		log.Fatalf("failed to create discord session: %v", err)
	}

	disp, err := dispatcher.New(dispatcher.Config{
		Weather:          newProvider(),
		ScheduledWeather: newProvider(),
		Composer:         composer,
		Channels:         bot,
		ChannelID:        cfg.ChannelID(),
		Hour:             cfg.ForecastHour,
		Minute:           cfg.ForecastMinute,
		Location:         pacific,
		Runs:             runs,
		Logger:           logger,
	})
	if err != nil {
		log.Fatalf("failed to create dispatcher: %v", err)
	}
	bot.Attach(disp)

	if err := bot.Open(); err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	logger.Info("bot started",
		"city", cfg.CityName,
		"forecast_at", time.Date(0, 1, 1, cfg.ForecastHour, cfg.ForecastMinute, 0, 0, pacific).Format("15:04 MST"),
		"channel_id", cfg.ChannelID(),
	)

	var app *fiber.App
	if cfg.HTTPAddr != "" {
		app = fiber.New(fiber.Config{
			AppName:               appName,
			DisableStartupMessage: true,
			ReadTimeout:           10 * time.Second,
			WriteTimeout:          10 * time.Second,
			ErrorHandler:          httpapi.ErrorHandler,
		})

		// Global middleware
		app.Use(fiberlogger.New())
		app.Use(recover.New())

		httpapi.RegisterRoutes(app, httpapi.Deps{
			Service: appName,
			Status:  disp,
			Weather: newProvider(),
			Runs:    runs,
		})

		go func() {
			if err := app.Listen(cfg.HTTPAddr); err != nil {
				logger.Error("fiber server stopped", "err", err)
			}
		}()
	}

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info("shutting down")

	disp.Close()
	if err := bot.Close(); err != nil {
		logger.Error("error closing discord session", "err", err)
	}

	if app != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Error("error during shutdown", "err", err)
		}
	}
}
