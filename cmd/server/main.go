package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"stegosuite/pkg/api"
	"stegosuite/pkg/config"
	"stegosuite/pkg/logging"
	"stegosuite/pkg/metrics"
	reqlog "stegosuite/pkg/middleware"
	imagerepo "stegosuite/pkg/repository/image"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Config failed")
	}
	logging.Setup(os.Stderr, cfg.Log)

	reg := metrics.NewRegistry()
	images := imagerepo.NewMemoryRepository(reg)
	defer images.Close()

	server := echo.New()
	server.HideBanner = true
	server.HidePort = true
	server.Server.ReadHeaderTimeout = 10 * time.Second
	server.Server.IdleTimeout = 120 * time.Second

	server.Use(middleware.Recover())
	server.Use(reqlog.RequestLogger(reg))
	server.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  cfg.Server.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		ExposeHeaders: []string{api.HeaderMetrics, api.HeaderImageID, echo.HeaderContentDisposition},
	}))
	server.Use(middleware.BodyLimit(cfg.Server.MaxUploadSize))

	handlers := api.NewHandlers(images, reg, api.Options{
		Timeout:  cfg.Server.DecodeTimeout,
		ImageTTL: cfg.Server.ImageTTL,
	})
	handlers.Register(server)
	server.GET("/metrics", reg.HandleText)
	server.GET("/metrics.json", reg.HandleJSON)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("address", cfg.Server.Address).Msg("Server started")
		if err := server.Start(cfg.Server.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown failed")
	}
}
