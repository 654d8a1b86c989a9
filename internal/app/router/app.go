package router

import (
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/GintGld/video-splitter/internal/lib/ffmpeg"
	"github.com/GintGld/video-splitter/internal/lib/logger/sl"
	"github.com/GintGld/video-splitter/internal/storage/sqlite"

	jobSrv "github.com/GintGld/video-splitter/internal/service/job"
	sessionSrv "github.com/GintGld/video-splitter/internal/service/session"
	splitSrv "github.com/GintGld/video-splitter/internal/service/split"

	jobCtr "github.com/GintGld/video-splitter/internal/controller/job"
	jwtCtr "github.com/GintGld/video-splitter/internal/controller/jwt"
)

type App struct {
	log     *slog.Logger
	address string
	app     *fiber.App
	jobs    *jobSrv.Job
}

// New returns configured router.App
func New(
	log *slog.Logger,
	storage *sqlite.Storage,
	address string,
	secret []byte,
	sessionTTL time.Duration,
	tmpDir string,
	uploadDir string,
	outputDir string,
	workers int,
) *App {
	if err := os.MkdirAll(tmpDir, 0755); err != nil {
		log.Error("failed to create tmp dir", slog.String("dir", tmpDir), sl.Err(err))
	}

	// Create services
	session := sessionSrv.New(secret, sessionTTL)

	ff := ffmpeg.New(log)

	splitter := splitSrv.New(log, ff, ff)

	jobs := jobSrv.New(
		log,
		storage,
		splitter,
		uploadDir,
		outputDir,
		workers,
	)

	// Create controller helper
	jwtController := jwtCtr.New(secret)

	app := fiber.New()

	// Mount controllers to an app
	app.Mount("/jobs", jobCtr.New(jobs, session, jwtController, tmpDir))

	return &App{
		log:     log,
		address: address,
		app:     app,
		jobs:    jobs,
	}
}

func (a *App) MustRun() {
	if err := a.Run(); err != nil {
		panic(err)
	}
}

func (a *App) Run() error {
	return a.app.Listen(a.address)
}

func (a *App) Stop() {
	a.app.Shutdown()
	a.jobs.Stop()
}
