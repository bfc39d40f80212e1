package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-intents/internal/app"
	"go-intents/internal/config"
	"go-intents/internal/handlers"
	"go-intents/internal/middleware"
	"go-intents/internal/router"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Debug("No .env file loaded")
	}

	server := &cli.App{
		Name:  "go-intents",
		Usage: "encode user intents and submit solutions to the entry point",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config.yaml",
				EnvVars: []string{"CONFIG_PATH"},
			},
		},
		Action: func(c *cli.Context) error {
			return run(c.String("config"))
		},
	}

	if err := server.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("Server exited")
	}
}

func run(configPath string) error {
	if err := config.LoadConfig(configPath); err != nil {
		return err
	}
	cfg := config.AppConfig
	app.ConfigureLogging(cfg.Log)

	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwtSecret (or JWT_SECRET) is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := app.InitializeContainer(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer container.Cleanup()

	if logrus.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := logrus.StandardLogger()
	intentHandler := handlers.NewIntentHandler(container, container.SubmissionRepo, logger)
	auth := middleware.NewAuthMiddleware(logger, cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	localhostOnly := middleware.NewLocalhostOnly(logger, cfg.Server.MetricsAllowedIPs)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupRouter(intentHandler, auth, localhostOnly),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.WithField("addr", srv.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Error("HTTP server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("Graceful shutdown failed")
	}
	return nil
}
