// Package main wires together the curio service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/curiobot/curio/internal/api"
	gcsarchive "github.com/curiobot/curio/internal/archive/gcs"
	memoryarchive "github.com/curiobot/curio/internal/archive/memory"
	"github.com/curiobot/curio/internal/backfill"
	"github.com/curiobot/curio/internal/chat"
	"github.com/curiobot/curio/internal/clock/system"
	"github.com/curiobot/curio/internal/config"
	"github.com/curiobot/curio/internal/curio"
	"github.com/curiobot/curio/internal/extract"
	"github.com/curiobot/curio/internal/fetch"
	"github.com/curiobot/curio/internal/forum"
	"github.com/curiobot/curio/internal/hash/sha256"
	"github.com/curiobot/curio/internal/id/uuid"
	"github.com/curiobot/curio/internal/logging"
	"github.com/curiobot/curio/internal/metrics"
	"github.com/curiobot/curio/internal/pipeline"
	memoryqueue "github.com/curiobot/curio/internal/queue/memory"
	pubsubqueue "github.com/curiobot/curio/internal/queue/pubsub"
	"github.com/curiobot/curio/internal/store"
	"github.com/curiobot/curio/internal/synthesis"
	"github.com/curiobot/curio/internal/worker"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	recStore, err := store.New(ctx, store.Config{
		DSN:             cfg.DB.DSN,
		MaxConns:        int32(cfg.DB.MaxConns),
		MinConns:        int32(cfg.DB.MinConns),
		MaxConnLifetime: time.Duration(cfg.DB.LifetimeMinutes) * time.Minute,
	})
	if err != nil {
		logger.Fatal("connect store failed", zap.Error(err))
	}
	defer recStore.Close()
	if err := recStore.EnsureSchema(ctx); err != nil {
		logger.Fatal("ensure schema failed", zap.Error(err))
	}

	probe := fetch.NewColly(fetch.Config{
		UserAgent: cfg.Fetch.UserAgent,
		Timeout:   time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second,
	})
	var headless curio.Fetcher
	if cfg.Headless.Enabled {
		headlessFetcher, err := fetch.NewHeadless(fetch.HeadlessConfig{
			MaxParallel:       1,
			UserAgent:         cfg.Fetch.UserAgent,
			NavigationTimeout: time.Duration(cfg.Headless.NavTimeoutSec) * time.Second,
		})
		if err != nil {
			logger.Warn("headless fetcher init failed", zap.Error(err))
		} else {
			headless = headlessFetcher
			defer headlessFetcher.Close()
		}
	}
	detector := fetch.NewBotWallHeuristic(0)

	extractors := map[curio.Category]curio.Extractor{
		curio.CategoryVideo:     extract.NewYouTube(probe, extract.NewTimedText(probe, "")),
		curio.CategoryAudiobook: extract.NewAudible(probe, headless, detector),
		curio.CategoryPodcast:   extract.NewPodcast(probe),
		curio.CategoryArticle:   extract.NewArticle(probe),
	}
	coordinator := extract.NewCoordinator(extractors, extract.NewGeneric(probe), logging.Component(logger, "extract"))

	synth := synthesis.New(synthesis.NewChatClient(synthesis.ClientConfig{
		Endpoint: cfg.Synthesis.Endpoint,
		Model:    cfg.Synthesis.Model,
		APIKey:   cfg.Synthesis.APIKey,
		Timeout:  time.Duration(cfg.Synthesis.TimeoutSeconds) * time.Second,
	}), logging.Component(logger, "synthesis"))

	forumClient := forum.NewClient(forum.ClientConfig{
		BaseURL:  cfg.Forum.BaseURL,
		APIKey:   cfg.Forum.APIKey,
		Username: cfg.Forum.Username,
	})

	var archive curio.BlobStore = memoryarchive.NewBlobStore()
	if cfg.Archive.GCSBucket != "" {
		gcsClient, err := storage.NewClient(ctx)
		if err != nil {
			logger.Fatal("create storage client failed", zap.Error(err))
		}
		gcsStore, err := gcsarchive.New(gcsClient, gcsarchive.Config{Bucket: cfg.Archive.GCSBucket})
		if err != nil {
			logger.Fatal("init gcs archive failed", zap.Error(err))
		}
		archive = gcsStore
	}

	clock := system.New()
	processor := pipeline.New(
		coordinator,
		synth,
		recStore,
		forumClient,
		archive,
		sha256.New(),
		clock,
		uuid.New(),
		logging.Component(logger, "pipeline"),
		pipeline.Config{
			MaxAttempts:    cfg.Pipeline.MaxAttempts,
			SourceLinkBase: cfg.Pipeline.SourceLinkBase,
		},
	)

	queue := memoryqueue.NewQueue(cfg.Queue.Depth)

	go worker.New(queue, processor, logging.Component(logger, "worker")).Run(ctx)

	if cfg.PubSub.Enabled {
		subscriber, err := pubsubqueue.NewSubscriber(ctx, cfg.PubSub.ProjectID, cfg.PubSub.Subscription, queue, logging.Component(logger, "pubsub"))
		if err != nil {
			logger.Fatal("bind pubsub subscription failed", zap.Error(err))
		}
		go func() {
			if err := subscriber.Run(ctx); err != nil {
				logger.Error("pubsub receive failed", zap.Error(err))
				stop()
			}
		}()
		defer func() {
			if err := subscriber.Close(); err != nil {
				logger.Warn("close pubsub subscriber failed", zap.Error(err))
			}
		}()
	}

	if cfg.Backfill.Enabled {
		history := chat.NewClient(chat.ClientConfig{
			BaseURL:  cfg.Chat.BaseURL,
			BotToken: cfg.Chat.BotToken,
		})
		reconciler := backfill.New(history, recStore, processor, clock, logging.Component(logger, "backfill"), backfill.Config{
			ChannelID:     cfg.Backfill.ChannelID,
			BotUserID:     cfg.Backfill.BotUserID,
			BatchSize:     cfg.Backfill.BatchSize,
			MaxMessages:   cfg.Backfill.MaxMessages,
			RatePerSecond: cfg.Backfill.RatePerSecond,
		})
		go func() {
			if err := reconciler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("backfill failed", zap.Error(err))
			}
		}()
	}

	apiServer := api.NewServer(queue, recStore, processor, clock, logging.Component(logger, "api"), api.Config{
		AuthEnabled:    cfg.Auth.Enabled,
		APIKey:         cfg.Auth.APIKey,
		RequestTimeout: cfg.RequestTimeout(),
		ImportDelay:    cfg.ImportDelay(),
	})
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	queue.Close()
	logger.Info("shutdown complete")
}
