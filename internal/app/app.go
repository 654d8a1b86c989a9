package app

import (
	"log/slog"
	"os"
	"time"

	routerApp "github.com/GintGld/video-splitter/internal/app/router"
	"github.com/GintGld/video-splitter/internal/lib/logger/sl"
	"github.com/GintGld/video-splitter/internal/storage/sqlite"
)

type App struct {
	Router routerApp.App
}

func New(
	log *slog.Logger,
	address string,
	storagePath string,
	secret []byte,
	sessionTTL time.Duration,
	tmpDir string,
	uploadDir string,
	outputDir string,
	workers int,
) *App {
	storage, err := sqlite.New(storagePath)
	if err != nil {
		log.Error("failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	routerApp := routerApp.New(
		log,
		storage,
		address,
		secret,
		sessionTTL,
		tmpDir,
		uploadDir,
		outputDir,
		workers,
	)

	return &App{
		Router: *routerApp,
	}
}
