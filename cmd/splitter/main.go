package main

import (
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	"github.com/GintGld/video-splitter/internal/app"
	"github.com/GintGld/video-splitter/internal/config"
	"github.com/GintGld/video-splitter/internal/lib/logger/slogpretty"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"

	// placeholder for the session signing secret, must be
	// overridden in any non-trivial deployment
	defaultSecret = "change-me"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("starting video splitter", slog.String("env", cfg.Env))
	log.Debug("debug messages are enabled")

	application := app.New(
		log,
		cfg.Address,
		cfg.StoragePath,
		getSecret(log),
		cfg.SessionTTL,
		cfg.TmpDir,
		cfg.UploadDir,
		cfg.OutputDir,
		cfg.Workers,
	)

	// Run server
	go func() {
		application.Router.MustRun()
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)

	<-stop

	application.Router.Stop()
	log.Info("Gracefully stopped")
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}

func getSecret(log *slog.Logger) []byte {
	secret := os.Getenv("SECRET")

	if secret == "" {
		log.Warn("SECRET is not set, using placeholder value")
		secret = defaultSecret
	}

	return []byte(secret)
}
