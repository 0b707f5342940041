package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/damianb/minori/internal/conf"
	"github.com/damianb/minori/internal/data"
	"github.com/damianb/minori/internal/imaging"
	"github.com/damianb/minori/internal/library/biz"
	librarydata "github.com/damianb/minori/internal/library/data"
	"github.com/damianb/minori/internal/library/service"
	"github.com/damianb/minori/internal/pkg/logger"
	"github.com/damianb/minori/internal/pkg/workerpool"
	"github.com/damianb/minori/internal/server"
)

var (
	configFile = flag.String("config", "config.yaml", "config file path")
)

func main() {
	flag.Parse()

	// Load configuration
	config, err := conf.LoadConfig(*configFile)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger with config
	logConfig := &logger.Config{
		Level:            config.Log.Level,
		Format:           config.Log.Format,
		Output:           config.Log.Output,
		EnableCaller:     config.Log.EnableCaller,
		EnableStacktrace: config.Log.EnableStacktrace,
		File: logger.FileConfig{
			Filename:   config.Log.File.Filename,
			MaxSize:    config.Log.File.MaxSize,
			MaxAge:     config.Log.File.MaxAge,
			MaxBackups: config.Log.File.MaxBackups,
			Compress:   config.Log.File.Compress,
		},
	}

	log, err := logger.New(logConfig)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	log.Info("config loaded successfully")

	// Initialize data layer
	d, cleanup, err := data.NewData(config, log.Logger)
	if err != nil {
		log.Fatal("failed to initialize data layer", zap.Error(err))
	}
	defer cleanup()

	// Initialize worker pool for image processing
	pool, err := workerpool.New(&workerpool.Config{
		Workers:   config.Import.Workers,
		QueueSize: config.Import.QueueSize,
	}, log.Logger)
	if err != nil {
		log.Fatal("failed to initialize worker pool", zap.Error(err))
	}
	defer pool.Shutdown()

	pipeline := imaging.New(d.Uploads, d.Thumbs, config.Images.ThumbnailSize, log.Logger)

	// Initialize repositories
	authorRepo := librarydata.NewAuthorRepo(d.DB)
	aliasRepo := librarydata.NewAliasRepo(d.DB)
	albumRepo := librarydata.NewAlbumRepo(d.DB)
	imageRepo := librarydata.NewImageRepo(d.DB)

	// Initialize use cases
	site := biz.SiteConfig{
		FrontendBaseURL: config.Public.FrontendBaseURL,
		ImageBaseURL:    config.Public.ImageBaseURL,
		Version:         conf.Version,
	}

	authorUseCase := biz.NewAuthorUseCase(authorRepo, log.Logger)
	aliasUseCase := biz.NewAliasUseCase(aliasRepo, authorRepo, log.Logger)
	albumUseCase := biz.NewAlbumUseCase(albumRepo, imageRepo, aliasUseCase, authorRepo,
		d.Uploads, d.Thumbs, pipeline, pool, site, log.Logger)
	imageUseCase := biz.NewImageUseCase(imageRepo, albumRepo, aliasUseCase,
		d.Uploads, d.Thumbs, pipeline, pool, log.Logger)

	// Initialize services
	albumService := service.NewAlbumService(albumUseCase, log.Logger)
	imageService := service.NewImageService(imageUseCase, log.Logger)
	authorService := service.NewAuthorService(authorUseCase, albumUseCase, log.Logger)
	aliasService := service.NewAliasService(aliasUseCase, log.Logger)

	// Initialize server
	httpServer := server.NewHTTPServer(config, log.Logger, d.DB,
		albumService, imageService, authorService, aliasService)

	go func() {
		if err := httpServer.Start(); err != nil {
			log.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	log.Info("server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Stop(ctx); err != nil {
		log.Error("HTTP server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}
