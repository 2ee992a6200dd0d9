package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"gitlab.com/transcodeuz/video-compressor/config"
	"gitlab.com/transcodeuz/video-compressor/pkg/handler"
	"gitlab.com/transcodeuz/video-compressor/pkg/logger"
	"gitlab.com/transcodeuz/video-compressor/pkg/rabbitmq"
	"gitlab.com/transcodeuz/video-compressor/tools/ffmpeg"
	"gitlab.com/transcodeuz/video-compressor/tools/storage"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.ServiceName)
	defer func() { _ = log.Sync() }()

	log.Info("new configuration and logger is setup...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fileStorage, err := storage.NewFileStorage(&cfg, log)
	if err != nil {
		log.Error("Error while creating scratch storage...", logger.Error(err))
		return
	}
	log.Info("storage is created...", logger.String("dir", fileStorage.Dir()))

	source, err := storage.NewCloudSource(&cfg, log)
	if err != nil {
		log.Error("Error while creating cloud source...", logger.Error(err))
		return
	}
	if source != nil {
		log.Info("cloud source is created...", logger.String("type", source.Name()))
	}

	var publisher handler.StatusPublisher
	if cfg.RabbitMqEnabled {
		rbMQ, err := rabbitmq.New(&cfg, log)
		if err != nil {
			log.Error("Error while creating rabbitMq object...", logger.Error(err))
			return
		}
		defer rbMQ.Close()
		publisher = rbMQ
	}

	transcoder := ffmpeg.NewFFmpeg(&cfg, log)
	log.Info("transcoder is created...")

	// the muxer list is read once; requests never consult the engine for it
	formats, err := transcoder.Formats(ctx)
	if err != nil {
		log.Warn("Error while listing engine formats, format checks fall back to the built-in table", logger.Error(err))
	} else {
		log.Info("engine formats are loaded...", logger.Int("count", len(formats)))
	}

	handlerObj := handler.NewHandler(handler.Options{
		Config:     &cfg,
		Log:        log,
		Storage:    fileStorage,
		Source:     source,
		Transcoder: transcoder,
		Publisher:  publisher,
		Formats:    formats,
	})

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           handler.NewRouter(handlerObj, &cfg, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP server is listening", logger.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down HTTP server", logger.Duration("timeout", cfg.ShutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("HTTP server stopped with error", logger.Error(err))
	}
}
